// Package document defines block content shared by every container of a
// linked chain. Content is addressed by absolute positions: each rune of text,
// each embedded element and each paragraph end occupies exactly one unit.
package document

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// ObjectReplacement stands for an embedded element in plain text views.
const ObjectReplacement = '￼'

// Inline is a piece of paragraph content.
type Inline interface {
	// Len returns number of content units inline occupies.
	Len() int
}

// Run is a span of text, optionally a navigable link.
type Run struct {
	Text string
	Href string
}

func (r Run) Len() int {
	return utf8.RuneCountInString(r.Text)
}

// ParagraphKind is used by formatters to select spacing and by surfaces to
// select decoration.
type ParagraphKind int

const (
	KindBody ParagraphKind = iota
	KindHeading
	KindTitle
	KindQuote
)

// Paragraph is the block level content node.
type Paragraph struct {
	Kind        ParagraphKind
	SpaceBefore int // lines of top margin
	Inlines     []Inline
}

// NewParagraph creates body paragraph with supplied inlines.
func NewParagraph(inlines ...Inline) *Paragraph {
	return &Paragraph{Inlines: inlines}
}

// Len returns paragraph length including terminating paragraph mark.
func (p *Paragraph) Len() int {
	n := 1
	for _, in := range p.Inlines {
		n += in.Len()
	}
	return n
}

// Text returns paragraph text with elements replaced by ObjectReplacement
// and without paragraph mark.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, in := range p.Inlines {
		switch v := in.(type) {
		case Run:
			sb.WriteString(v.Text)
		case *Element:
			sb.WriteRune(ObjectReplacement)
		}
	}
	return sb.String()
}

// Collection is an ordered sequence of paragraphs forming the whole logical
// document. It is owned by the chain master, every other link only reads it.
type Collection struct {
	blocks  []*Paragraph
	offsets []int
	length  int
}

// NewCollection creates collection from paragraphs.
func NewCollection(blocks ...*Paragraph) *Collection {
	c := &Collection{}
	c.Append(blocks...)
	return c
}

// Append adds paragraphs to the end of the collection.
func (c *Collection) Append(blocks ...*Paragraph) {
	for _, b := range blocks {
		if b == nil {
			continue
		}
		c.blocks = append(c.blocks, b)
		c.offsets = append(c.offsets, c.length)
		c.length += b.Len()
	}
}

// Reindex recomputes block offsets after paragraphs were modified in place.
func (c *Collection) Reindex() {
	blocks := c.blocks
	c.blocks, c.offsets, c.length = nil, nil, 0
	c.Append(blocks...)
}

// Len returns total number of content units.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return c.length
}

// Count returns number of paragraphs.
func (c *Collection) Count() int {
	if c == nil {
		return 0
	}
	return len(c.blocks)
}

// Block returns paragraph at index i.
func (c *Collection) Block(i int) *Paragraph {
	return c.blocks[i]
}

// Blocks returns all paragraphs. Returned slice must not be modified.
func (c *Collection) Blocks() []*Paragraph {
	return c.blocks
}

// BlockStart returns absolute position of the first unit of paragraph i.
func (c *Collection) BlockStart(i int) int {
	if i >= len(c.offsets) {
		return c.length
	}
	return c.offsets[i]
}

// Locate converts absolute position into paragraph index and offset inside
// paragraph. Position equal to Len() (or beyond) maps to (Count(), 0).
func (c *Collection) Locate(pos int) (int, int) {
	if c == nil || pos >= c.length {
		return c.Count(), 0
	}
	if pos < 0 {
		pos = 0
	}
	i := sort.Search(len(c.offsets), func(i int) bool { return c.offsets[i] > pos }) - 1
	return i, pos - c.offsets[i]
}

// Text returns plain text for [start, end): elements are replaced with
// ObjectReplacement, paragraph marks with new lines.
func (c *Collection) Text(start, end int) string {
	if c == nil || start >= end {
		return ""
	}
	var sb strings.Builder
	bi, off := c.Locate(start)
	pos := start
	for ; bi < len(c.blocks) && pos < end; bi, off = bi+1, 0 {
		var units []rune
		for _, in := range c.blocks[bi].Inlines {
			switch v := in.(type) {
			case Run:
				units = append(units, []rune(v.Text)...)
			case *Element:
				units = append(units, ObjectReplacement)
			}
		}
		units = append(units, '\n')
		for _, r := range units[off:] {
			if pos >= end {
				break
			}
			sb.WriteRune(r)
			pos++
		}
	}
	return sb.String()
}

// LinkSpan is a navigable link range in absolute positions.
type LinkSpan struct {
	Href  string
	Start int
	End   int
}

// Links returns link spans intersecting [start, end), clipped to the range.
func (c *Collection) Links(start, end int) []LinkSpan {
	if c == nil || start >= end {
		return nil
	}
	var spans []LinkSpan
	first, _ := c.Locate(start)
	for bi := first; bi < len(c.blocks) && c.offsets[bi] < end; bi++ {
		pos := c.offsets[bi]
		for _, in := range c.blocks[bi].Inlines {
			n := in.Len()
			href := ""
			if r, ok := in.(Run); ok {
				href = r.Href
			}
			if len(href) > 0 && pos < end && pos+n > start {
				spans = append(spans, LinkSpan{Href: href, Start: max(pos, start), End: min(pos+n, end)})
			}
			pos += n
		}
	}
	return spans
}
