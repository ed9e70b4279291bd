package layout

import (
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"rtflow/document"
	"rtflow/geom"
)

// unitFormatter puts every content unit on its own line one unit high, so
// page of height h holds exactly h units.
type unitFormatter struct {
	calls    int
	onFormat func(req FormatRequest)
}

func (f *unitFormatter) FormatPage(doc *document.Collection, req FormatRequest) FormatResult {
	f.calls++
	if f.onFormat != nil {
		f.onFormat(req)
	}

	capacity := doc.Len() - req.Start
	if !math.IsInf(req.Available.Height, 1) {
		capacity = min(capacity, int(req.Available.Height))
	}
	if req.MaxLines > 0 {
		capacity = min(capacity, req.MaxLines)
	}
	if capacity <= 0 && !req.AllowEmptyContent && req.Start < doc.Len() {
		capacity = 1
	}
	capacity = max(capacity, 0)
	end := req.Start + capacity

	res := FormatResult{
		End:  end,
		More: end < doc.Len(),
		Size: geom.Size{Width: 1, Height: float64(capacity)},
	}
	for i := range capacity {
		res.Lines = append(res.Lines, Line{
			Start:   req.Start + i,
			End:     req.Start + i + 1,
			Offsets: []float64{0},
			Top:     float64(i),
			Width:   1,
			Height:  1,
		})
	}

	pos := 0
	for _, p := range doc.Blocks() {
		for _, in := range p.Inlines {
			if el, ok := in.(*document.Element); ok && pos >= req.Start && pos < end {
				req.MeasureElement(el, req.Available)
				res.Placements = append(res.Placements, Placement{
					Element:   el,
					Paragraph: p,
					Position:  pos,
					Line:      pos - req.Start,
				})
			}
			pos += in.Len()
		}
		pos++
	}
	return res
}

type drawCall struct {
	link      string
	start     int
	end       int
	highlight bool
	trimmed   bool
}

type recordingSurface struct {
	draws []drawCall
}

func (s *recordingSurface) DrawPage(v PageView, highlight bool) {
	s.draws = append(s.draws, drawCall{link: v.Link, start: v.Start, end: v.End, highlight: highlight, trimmed: v.Trimmed})
}

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	return zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
}

// sizedDoc returns collection of exactly n units.
func sizedDoc(n int) *document.Collection {
	return document.NewCollection(document.NewParagraph(document.Run{Text: strings.Repeat("x", n-1)}))
}

// newChain creates master followed by overflow links, one per size.
func newChain(t *testing.T, doc *document.Collection, f Formatter, sizes ...geom.Size) []Link {
	t.Helper()
	log := testLogger(t)
	m := NewMaster("L0", doc, f, log)
	m.SetSize(sizes[0])
	links := []Link{m}
	for i, s := range sizes[1:] {
		o := NewOverflow("L"+string(rune('1'+i)), log)
		o.SetSize(s)
		if err := links[len(links)-1].SetOverflowTarget(o); err != nil {
			t.Fatalf("SetOverflowTarget() error = %v", err)
		}
		links = append(links, o)
	}
	return links
}

func size(h float64) geom.Size {
	return geom.Size{Width: 10, Height: h}
}
