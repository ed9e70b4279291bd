package layout

import (
	"rtflow/document"
	"rtflow/geom"
)

// Line is one formatted line of page content. Positions are absolute
// content positions, geometry is relative to the page content origin
// (inside padding).
type Line struct {
	Start int
	End   int
	Block int // paragraph index in collection
	Text  string
	// Offsets has x offset of every unit in [Start, End).
	Offsets []float64
	Top     float64
	Width   float64
	Height  float64
}

// Placement is where formatter put an embedded element.
type Placement struct {
	Element   *document.Element
	Paragraph *document.Paragraph
	Position  int // absolute content position
	Line      int // index into FormatResult.Lines
	X         float64
}

// FormatRequest describes one page worth of formatting.
type FormatRequest struct {
	Start  int
	Resume *BreakRecord // nil when formatting from the beginning of the collection
	// Available is content area: padding is already removed, infinite
	// height means bottomless measure.
	Available         geom.Size
	MaxLines          int // 0 - unbounded
	AllowEmptyContent bool
	SuppressTopMargin bool
	// MeasureElement must be used to size every embedded element formatter
	// encounters.
	MeasureElement func(el *document.Element, available geom.Size) geom.Size
}

// FormatResult is what formatter produced for the page.
type FormatResult struct {
	Lines      []Line
	Placements []Placement
	End        int  // first position not placed on the page
	More       bool // content remains after End
	Size       geom.Size
}

// Formatter is the text formatting black box. It must be deterministic:
// identical requests over identical collection produce identical results.
type Formatter interface {
	FormatPage(doc *document.Collection, req FormatRequest) FormatResult
}

// MeasureOptions are recognized inputs of page measure.
type MeasureOptions struct {
	MaxLines          int
	AllowEmptyContent bool
	MeasureBottomless bool
	SuppressTopMargin bool
}

// PageView is everything a drawing surface gets for a single page.
type PageView struct {
	Link      string
	Master    bool
	Size      geom.Size
	Padding   geom.Thickness
	Start     int
	End       int
	Lines     []Line
	Elements  []EmbeddedElement
	Links     []document.LinkSpan
	SelStart  int
	SelEnd    int
	Trimmed   bool
	Overflows bool
}

// Surface receives draw calls for arranged pages. When highlight is set
// selection range of the view intersects page content.
type Surface interface {
	DrawPage(v PageView, highlight bool)
}
