package document

import (
	"github.com/google/uuid"

	"rtflow/geom"
)

// Host is notified when an embedded element changes its desired size outside
// of a measure pass.
type Host interface {
	ChildDesiredSizeChanged(el *Element)
}

// Element is an inline non-text object (image, control) hosted inside flowed
// text. Its size is expressed in the same units formatter uses for lines.
type Element struct {
	ID   uuid.UUID
	Name string

	// Optional payload, used by surfaces able to draw it.
	Data []byte
	MIME string

	natural    geom.Size
	desired    geom.Size
	constraint geom.Size
	measured   bool
	dirty      bool
	host       Host
}

// NewElement creates element with natural (unconstrained) size.
func NewElement(name string, natural geom.Size) *Element {
	return &Element{
		ID:      uuid.New(),
		Name:    name,
		natural: natural,
		dirty:   true,
	}
}

// Len is always one unit.
func (e *Element) Len() int {
	return 1
}

// Measure computes desired size under constraint and remembers constraint
// for subsequent passes.
func (e *Element) Measure(constraint geom.Size) geom.Size {
	e.constraint = constraint
	e.desired = e.natural.Min(constraint)
	e.measured = true
	e.dirty = false
	return e.desired
}

// DesiredSize returns result of the last Measure.
func (e *Element) DesiredSize() geom.Size {
	return e.desired
}

// NaturalSize returns unconstrained element size.
func (e *Element) NaturalSize() geom.Size {
	return e.natural
}

// Constraint returns constraint of the last Measure, if element was ever measured.
func (e *Element) Constraint() (geom.Size, bool) {
	return e.constraint, e.measured
}

// IsDirty reports whether element has to be re-measured with fresh constraint.
func (e *Element) IsDirty() bool {
	return e.dirty
}

// SetNaturalSize changes element size. When element is already measured and
// hosted its host is told that desired size changed.
func (e *Element) SetNaturalSize(s geom.Size) {
	if s == e.natural {
		return
	}
	e.natural = s
	e.dirty = true
	if e.measured && e.host != nil && e.natural.Min(e.constraint) != e.desired {
		e.host.ChildDesiredSizeChanged(e)
	}
}

// Host returns current host of the element, nil if element is not placed.
func (e *Element) Host() Host {
	return e.host
}

// SetHost is used by layout when element is placed into or removed from a page.
func (e *Element) SetHost(h Host) {
	e.host = h
}
