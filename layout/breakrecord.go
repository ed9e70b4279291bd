package layout

import "fmt"

// BreakRecord marks where the next page must resume. Records are never
// modified after creation. Generation is unique per engine and is allocated
// only when formatter produced a break different from the one page held, so
// successors may compare records by identity.
type BreakRecord struct {
	position   int
	generation uint64
}

// Position returns absolute content position of the first unit that did not fit.
func (b *BreakRecord) Position() int {
	if b == nil {
		return 0
	}
	return b.position
}

func (b *BreakRecord) Generation() uint64 {
	if b == nil {
		return 0
	}
	return b.generation
}

func (b *BreakRecord) String() string {
	if b == nil {
		return "none"
	}
	return fmt.Sprintf("%d#%d", b.position, b.generation)
}
