//go:build !windows

package config

import (
	"os"

	"golang.org/x/term"
)

const forbiddenFileChars = string(os.PathSeparator) + string(os.PathListSeparator)

// leading dots would make page files hidden
const trimLeadingDots = true

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
