// Package debug has helpers producing human readable diagnostic dumps.
package debug

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// TreeWriter accumulates indented diagnostic output.
type TreeWriter struct {
	w *strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{
		w: &strings.Builder{},
	}
}

func (tw TreeWriter) String() string {
	return tw.w.String()
}

func (tw TreeWriter) indent(depth int) {
	for range depth {
		tw.w.WriteString("  ")
	}
}

func (tw TreeWriter) Line(depth int, format string, args ...any) {
	tw.indent(depth)
	fmt.Fprintf(tw.w, format, args...)
	tw.w.WriteByte('\n')
}

// Excerpt writes quoted value cut to at most width terminal cells, zero
// width means no limit.
func (tw TreeWriter) Excerpt(depth int, label, value string, width int) {
	tw.indent(depth)
	tw.w.WriteString(label)
	tw.w.WriteString(": ")
	if width > 0 {
		value = runewidth.Truncate(value, width, "…")
	}
	tw.w.WriteString(encodeText(value))
	tw.w.WriteByte('\n')
}

// Flags writes names of the flags which are set, "-" when none is.
func (tw TreeWriter) Flags(depth int, label string, flags map[string]bool, order ...string) {
	var set []string
	for _, name := range order {
		if flags[name] {
			set = append(set, name)
		}
	}
	if len(set) == 0 {
		set = append(set, "-")
	}
	tw.Line(depth, "%s: %s", label, strings.Join(set, ","))
}

func encodeText(raw string) string {
	if raw == "" {
		return raw
	}
	return strconv.Quote(raw)
}
