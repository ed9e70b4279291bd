// Package formatter has text formatters used by layout in production.
package formatter

import (
	"math"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"rtflow/document"
	"rtflow/layout"
)

// Cell formats text on a grid of terminal cells: every rune is as wide as
// the number of cells it takes on terminal and every line is LineHeight
// rows high. Lines are broken greedily at white space, words wider than
// the page are split.
type Cell struct {
	LineHeight float64
	log        *zap.Logger
	cond       *runewidth.Condition
}

// NewCell creates formatter, lineHeight below 1 is treated as 1.
func NewCell(lineHeight float64, log *zap.Logger) *Cell {
	return &Cell{
		LineHeight: max(lineHeight, 1),
		log:        log,
		cond:       &runewidth.Condition{EastAsianWidth: false},
	}
}

type unit struct {
	r      rune
	el     *document.Element
	width  float64
	height float64
	space  bool
}

// units expands paragraph into layout units. Elements before off belong to
// previous page and keep their desired size.
func (f *Cell) units(p *document.Paragraph, off int, req layout.FormatRequest) []unit {
	var units []unit
	for _, in := range p.Inlines {
		switch v := in.(type) {
		case document.Run:
			for _, r := range v.Text {
				units = append(units, f.runeUnit(r))
			}
		case *document.Element:
			sz := v.DesiredSize()
			if req.MeasureElement != nil && len(units) >= off {
				sz = req.MeasureElement(v, req.Available)
			}
			units = append(units, unit{
				r:      document.ObjectReplacement,
				el:     v,
				width:  math.Ceil(sz.Width),
				height: math.Ceil(sz.Height),
			})
		default:
			// keep positions consistent for unknown inlines
			for range in.Len() {
				units = append(units, unit{r: document.ObjectReplacement, width: 1})
			}
		}
	}
	return units
}

func (f *Cell) runeUnit(r rune) unit {
	if unicode.IsSpace(r) {
		return unit{r: ' ', width: 1, space: true}
	}
	if unicode.IsControl(r) {
		return unit{r: unicode.ReplacementChar, width: 1}
	}
	return unit{r: r, width: float64(f.cond.RuneWidth(r))}
}

// wrap returns end of the line starting at units[i]. At least one unit is
// always taken. Spaces may hang past the right edge.
func wrap(units []unit, i int, width float64) int {
	x, brk := 0.0, -1
	j := i
	for ; j < len(units); j++ {
		u := units[j]
		if x+u.width > width && j > i && !u.space {
			break
		}
		x += u.width
		if u.space {
			brk = j + 1
		}
	}
	if j < len(units) && brk > i {
		return brk
	}
	return j
}

// FormatPage implements layout.Formatter.
func (f *Cell) FormatPage(doc *document.Collection, req layout.FormatRequest) layout.FormatResult {
	res := layout.FormatResult{End: req.Start}

	var (
		y    float64
		full bool
	)
	bi, off := doc.Locate(req.Start)
	for ; bi < doc.Count() && !full; bi, off = bi+1, 0 {
		para := doc.Block(bi)
		base := doc.BlockStart(bi)
		units := f.units(para, off, req)

		// position len(units) is paragraph mark
		for i := off; i <= len(units); {
			if req.MaxLines > 0 && len(res.Lines) >= req.MaxLines {
				full = true
				break
			}
			j := wrap(units, i, req.Available.Width)

			height := f.LineHeight
			for _, u := range units[i:j] {
				if u.el != nil {
					height = max(height, u.height)
				}
			}
			var margin float64
			if i == 0 && para.SpaceBefore > 0 && (len(res.Lines) > 0 || !req.SuppressTopMargin) {
				margin = float64(para.SpaceBefore) * f.LineHeight
			}
			if y+margin+height > req.Available.Height && (len(res.Lines) > 0 || req.AllowEmptyContent) {
				full = true
				break
			}
			y += margin

			line, placements := f.line(units[i:j], para, base+i, req.Available.Width)
			line.Block = bi
			line.Top = y
			line.Height = height
			if j == len(units) {
				// paragraph mark goes with the last line of paragraph
				line.Offsets = append(line.Offsets, line.Width)
				line.End++
			}
			for k := range placements {
				placements[k].Line = len(res.Lines)
			}
			res.Placements = append(res.Placements, placements...)
			res.Lines = append(res.Lines, line)
			res.Size.Width = max(res.Size.Width, line.Width)
			res.End = line.End
			y += height

			i = j
			if j == len(units) {
				break
			}
		}
	}
	res.Size.Height = y
	res.More = res.End < doc.Len()

	f.log.Debug("Page formatted",
		zap.Int("start", req.Start),
		zap.Int("end", res.End),
		zap.Int("lines", len(res.Lines)),
		zap.Bool("more", res.More))
	return res
}

func (f *Cell) line(units []unit, para *document.Paragraph, start int, width float64) (layout.Line, []layout.Placement) {
	var (
		sb         strings.Builder
		placements []layout.Placement
		x          float64
	)
	line := layout.Line{Start: start, End: start + len(units), Offsets: make([]float64, 0, len(units)+1)}
	for k, u := range units {
		line.Offsets = append(line.Offsets, x)
		sb.WriteRune(u.r)
		if u.el != nil {
			placements = append(placements, layout.Placement{
				Element:   u.el,
				Paragraph: para,
				Position:  start + k,
				X:         x,
			})
		}
		w := u.width
		if u.space && x+w > width {
			// hanging space
			w = 0
		}
		x += w
	}
	line.Text = sb.String()
	line.Width = x
	return line, placements
}

var _ layout.Formatter = (*Cell)(nil)
