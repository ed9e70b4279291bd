package layout

import (
	"slices"

	"rtflow/document"
	"rtflow/geom"
)

// EmbeddedElement is an inline element hosted by a page.
type EmbeddedElement struct {
	Element   *document.Element
	Paragraph *document.Paragraph
	Index     int // absolute content position
	Position  geom.Point
	Visible   bool

	line int
	x    float64
}

// roster keeps embedded elements of a page ordered by content position.
type roster struct {
	items []EmbeddedElement
}

func (r *roster) find(el *document.Element, para *document.Paragraph) int {
	return slices.IndexFunc(r.items, func(e EmbeddedElement) bool {
		return e.Element == el && e.Paragraph == para
	})
}

func (r *roster) insert(e EmbeddedElement) {
	i, _ := slices.BinarySearchFunc(r.items, e.Index, func(item EmbeddedElement, idx int) int {
		return item.Index - idx
	})
	r.items = slices.Insert(r.items, i, e)
}

func (r *roster) remove(i int) EmbeddedElement {
	e := r.items[i]
	r.items = slices.Delete(r.items, i, i+1)
	return e
}

func (r *roster) within(start, end int) []EmbeddedElement {
	var out []EmbeddedElement
	for _, e := range r.items {
		if e.Index >= start && e.Index < end {
			out = append(out, e)
		}
	}
	return out
}

// AddElement registers element encountered in paragraph at content position
// index and makes page owner its host. Registering element again only
// updates its position.
func (p *PageNode) AddElement(el *document.Element, para *document.Paragraph, index int) {
	if el == nil {
		panic("nil element cannot be hosted")
	}
	if i := p.elements.find(el, para); i >= 0 {
		if p.elements.items[i].Index != index {
			e := p.elements.remove(i)
			e.Index = index
			p.elements.insert(e)
		}
		return
	}
	p.elements.insert(EmbeddedElement{Element: el, Paragraph: para, Index: index})
	el.SetHost(p.owner)
}

// RemoveElement drops element identified by element and owning paragraph.
func (p *PageNode) RemoveElement(el *document.Element, para *document.Paragraph) bool {
	i := p.elements.find(el, para)
	if i < 0 {
		return false
	}
	p.release(p.elements.remove(i))
	return true
}

// RemoveElementAt drops element placed at absolute content position.
func (p *PageNode) RemoveElementAt(index int) bool {
	i := slices.IndexFunc(p.elements.items, func(e EmbeddedElement) bool { return e.Index == index })
	if i < 0 {
		return false
	}
	p.release(p.elements.remove(i))
	return true
}

func (p *PageNode) release(e EmbeddedElement) {
	// element may already be hosted by another page
	if e.Element.Host() == p.owner {
		e.Element.SetHost(nil)
	}
}

// UpdateElementPosition moves element without reformatting the page.
func (p *PageNode) UpdateElementPosition(el *document.Element, para *document.Paragraph, pos geom.Point, visible bool) bool {
	i := p.elements.find(el, para)
	if i < 0 {
		return false
	}
	p.elements.items[i].Position = pos
	p.elements.items[i].Visible = visible
	return true
}

// ElementPosition returns position of the element as of the last arrange.
func (p *PageNode) ElementPosition(el *document.Element) (geom.Point, bool) {
	i := slices.IndexFunc(p.elements.items, func(e EmbeddedElement) bool { return e.Element == el })
	if i < 0 {
		return geom.Point{}, false
	}
	return p.elements.items[i].Position, p.elements.items[i].Visible
}

// ElementsWithinRange returns elements with content positions in [start, end).
func (p *PageNode) ElementsWithinRange(start, end int) []EmbeddedElement {
	return p.elements.within(start, end)
}

// Elements returns copy of the page roster.
func (p *PageNode) Elements() []EmbeddedElement {
	return slices.Clone(p.elements.items)
}

// syncElements brings roster in line with formatter placements.
func (p *PageNode) syncElements(placements []Placement) {
	type key struct {
		el   *document.Element
		para *document.Paragraph
	}
	placed := make(map[key]struct{}, len(placements))
	for _, pl := range placements {
		placed[key{pl.Element, pl.Paragraph}] = struct{}{}
		p.AddElement(pl.Element, pl.Paragraph, pl.Position)
		i := p.elements.find(pl.Element, pl.Paragraph)
		p.elements.items[i].line = pl.Line
		p.elements.items[i].x = pl.X
	}
	for i := len(p.elements.items) - 1; i >= 0; i-- {
		e := p.elements.items[i]
		if _, ok := placed[key{e.Element, e.Paragraph}]; !ok {
			p.release(p.elements.remove(i))
		}
	}
}

func (p *PageNode) releaseAll() {
	for i := len(p.elements.items) - 1; i >= 0; i-- {
		p.release(p.elements.remove(i))
	}
}
