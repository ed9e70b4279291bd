package layout

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"rtflow/document"
	"rtflow/geom"
)

// reformat attempts made when embedded elements keep changing size while
// page is being formatted.
const maxReformats = 3

type measureKey struct {
	available geom.Size
	padding   geom.Thickness
	prev      *BreakRecord
	opts      MeasureOptions
}

// PageNode is formatted content of a single container.
type PageNode struct {
	engine *BlockLayoutEngine
	owner  *container
	log    *zap.Logger

	state    PageState
	key      measureKey
	bypassed bool

	start   int
	end     int
	lines   []Line
	content geom.Size // formatted content size, padding excluded
	desired geom.Size
	brk     *BreakRecord

	renderSize    geom.Size
	renderPending bool

	elements roster

	links      []document.LinkSpan
	linksValid bool

	measuring       bool
	reformatPending bool
}

// Measure formats page content resuming from prev (nil - from the beginning
// of the collection) and returns desired size and break record, nil when all
// remaining content fit. Page is not reformatted when every input is the
// same as for the previous successful measure.
func (p *PageNode) Measure(available geom.Size, padding geom.Thickness, prev *BreakRecord, opts MeasureOptions) (geom.Size, *BreakRecord) {
	key := measureKey{available: available, padding: padding, prev: prev, opts: opts}
	if p.state == PageStateFormatted && p.key == key {
		p.bypassed = true
		p.log.Debug("Measure bypassed", zap.Stringer("available", available), zap.Stringer("break", p.brk))
		return p.desired, p.brk
	}

	area := available.Deflate(padding)
	if opts.MeasureBottomless {
		area.Height = math.Inf(1)
	}
	req := FormatRequest{
		Start:             prev.Position(),
		Resume:            prev,
		Available:         area,
		MaxLines:          opts.MaxLines,
		AllowEmptyContent: opts.AllowEmptyContent,
		SuppressTopMargin: opts.SuppressTopMargin,
		MeasureElement:    p.measureElement,
	}

	p.measuring = true
	var res FormatResult
	for attempt := range maxReformats {
		p.reformatPending = false
		res = p.engine.format(req)
		if !p.reformatPending {
			break
		}
		p.log.Debug("Embedded element resized during measure, formatting again", zap.Int("attempt", attempt+1))
	}
	p.measuring = false

	p.start, p.end = req.Start, res.End
	p.lines = res.Lines
	p.content = res.Size
	p.desired = res.Size.Inflate(padding)
	p.updateBreak(res)
	p.syncElements(res.Placements)
	p.links, p.linksValid = nil, false

	p.key = key
	p.bypassed = false
	p.state = PageStateFormatted
	if p.reformatPending {
		// elements did not settle, make sure next measure does not bypass
		p.state = PageStateNeedsReformat
	}

	p.log.Debug("Page formatted",
		zap.Int("start", p.start),
		zap.Int("end", p.end),
		zap.Int("lines", len(p.lines)),
		zap.Stringer("desired", p.desired),
		zap.Stringer("break", p.brk))
	return p.desired, p.brk
}

// updateBreak keeps break record page already holds when formatter stopped at
// the same position, so successors see no change.
func (p *PageNode) updateBreak(res FormatResult) {
	switch {
	case !res.More:
		p.brk = nil
	case p.brk != nil && p.brk.position == res.End:
	default:
		p.brk = p.engine.newBreak(res.End)
	}
}

func (p *PageNode) measureElement(el *document.Element, available geom.Size) geom.Size {
	if c, ok := el.Constraint(); ok && !el.IsDirty() {
		return el.Measure(c)
	}
	return el.Measure(available)
}

// Arrange positions formatted lines and embedded elements inside final size.
// It returns false and keeps previous render size when page has no valid
// formatting.
func (p *PageNode) Arrange(final geom.Size, padding geom.Thickness) bool {
	if p.state != PageStateFormatted {
		p.log.Debug("Arrange skipped, page is not formatted", zap.Stringer("state", p.state))
		return false
	}
	p.renderSize = final
	area := final.Deflate(padding)
	for i := range p.elements.items {
		e := &p.elements.items[i]
		if e.line < 0 || e.line >= len(p.lines) {
			e.Visible = false
			continue
		}
		l := p.lines[e.line]
		sz := e.Element.DesiredSize()
		e.Position = geom.Point{X: padding.Left + e.x, Y: padding.Top + l.Top}
		e.Visible = e.x+sz.Width <= area.Width && l.Top+sz.Height <= area.Height
	}
	return true
}

// invalidateContent drops everything derived from collection content.
func (p *PageNode) invalidateContent() {
	if p.state == PageStateFormatted {
		p.state = PageStateNeedsReformat
	}
	p.links, p.linksValid = nil, false
}

func (p *PageNode) destroy() {
	p.releaseAll()
	p.state = PageStateUnformatted
	p.lines, p.brk = nil, nil
	p.links, p.linksValid = nil, false
	p.log.Debug("Page node destroyed")
}

func (p *PageNode) State() PageState {
	return p.state
}

// Bypassed reports whether last Measure reused previous result.
func (p *PageNode) Bypassed() bool {
	return p.bypassed
}

// Owner returns container page belongs to.
func (p *PageNode) Owner() Link {
	return p.owner.self
}

// Start returns absolute position of the first unit on the page.
func (p *PageNode) Start() int {
	return p.start
}

// End returns absolute position of the first unit not on the page.
func (p *PageNode) End() int {
	if p.state == PageStateUnformatted {
		return p.start
	}
	return p.end
}

// ContentLength returns number of content units formatted on the page.
func (p *PageNode) ContentLength() int {
	return p.End() - p.start
}

// Break returns break record of the last measure.
func (p *PageNode) Break() *BreakRecord {
	return p.brk
}

// Lines returns formatted lines. Returned slice must not be modified.
func (p *PageNode) Lines() []Line {
	return p.lines
}

func (p *PageNode) DesiredSize() geom.Size {
	return p.desired
}

func (p *PageNode) RenderSize() geom.Size {
	return p.renderSize
}

// RenderPending reports whether drawing was postponed till render pass.
func (p *PageNode) RenderPending() bool {
	return p.renderPending
}

// Links returns navigable link ranges of the page content.
func (p *PageNode) Links() []document.LinkSpan {
	if !p.linksValid {
		p.links = p.engine.Collection().Links(p.start, p.End())
		p.linksValid = true
	}
	return p.links
}

// PositionFromPoint maps point relative to page (padding included) into
// absolute content position.
func (p *PageNode) PositionFromPoint(pt geom.Point) (int, bool) {
	if p.state != PageStateFormatted {
		return 0, false
	}
	x, y := pt.X-p.key.padding.Left, pt.Y-p.key.padding.Top
	for _, l := range p.lines {
		if y < l.Top || y >= l.Top+l.Height {
			continue
		}
		if x < 0 || len(l.Offsets) == 0 {
			return l.Start, true
		}
		// last offset not greater than x
		i, found := slices.BinarySearch(l.Offsets, x)
		if !found {
			i--
		}
		return l.Start + max(i, 0), true
	}
	return 0, false
}

// RectFromPosition returns rectangle occupied by content unit at absolute
// position, relative to page.
func (p *PageNode) RectFromPosition(pos int) (geom.Rect, bool) {
	if p.state != PageStateFormatted {
		return geom.Rect{}, false
	}
	for _, l := range p.lines {
		if pos < l.Start || pos >= l.End {
			continue
		}
		i := pos - l.Start
		if i >= len(l.Offsets) {
			return geom.Rect{}, false
		}
		right := l.Width
		if i+1 < len(l.Offsets) {
			right = l.Offsets[i+1]
		}
		return geom.Rect{
			X:      p.key.padding.Left + l.Offsets[i],
			Y:      p.key.padding.Top + l.Top,
			Width:  max(right-l.Offsets[i], 0),
			Height: l.Height,
		}, true
	}
	return geom.Rect{}, false
}
