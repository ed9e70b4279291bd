package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"rtflow/document"
	"rtflow/geom"
)

func TestMeasureBypass(t *testing.T) {
	f := &unitFormatter{}
	m := NewMaster("m", sizedDoc(100), f, testLogger(t))
	p := m.Engine().CreatePageNode(m)

	_, b1 := p.Measure(size(40), geom.Thickness{}, nil, MeasureOptions{})
	_, b2 := p.Measure(size(40), geom.Thickness{}, nil, MeasureOptions{})
	if f.calls != 1 {
		t.Errorf("formatter called %d times, want 1", f.calls)
	}
	if b1 != b2 {
		t.Errorf("bypassed measure returned %v, want same record %v", b2, b1)
	}
	if !p.Bypassed() {
		t.Error("second measure must be bypassed")
	}

	tests := []struct {
		name      string
		available geom.Size
		padding   geom.Thickness
		opts      MeasureOptions
	}{
		{name: "available size", available: size(41)},
		{name: "padding", available: size(40), padding: geom.Thickness{Left: 1}},
		{name: "max lines", available: size(40), opts: MeasureOptions{MaxLines: 100}},
		{name: "allow empty content", available: size(40), opts: MeasureOptions{AllowEmptyContent: true}},
		{name: "bottomless", available: size(40), opts: MeasureOptions{MeasureBottomless: true}},
		{name: "suppress top margin", available: size(40), opts: MeasureOptions{SuppressTopMargin: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.Measure(size(40), geom.Thickness{}, nil, MeasureOptions{})
			calls := f.calls
			p.Measure(tt.available, tt.padding, nil, tt.opts)
			if f.calls != calls+1 {
				t.Errorf("changed %s must reformat page", tt.name)
			}
		})
	}
}

func TestSameBreakPositionKeepsRecord(t *testing.T) {
	f := &unitFormatter{}
	m := NewMaster("m", sizedDoc(100), f, testLogger(t))
	p := m.Engine().CreatePageNode(m)

	_, b1 := p.Measure(size(40), geom.Thickness{}, nil, MeasureOptions{})
	// different key, same outcome
	_, b2 := p.Measure(size(40), geom.Thickness{}, nil, MeasureOptions{SuppressTopMargin: true})
	if f.calls != 2 {
		t.Fatalf("formatter called %d times, want 2", f.calls)
	}
	if b1 != b2 {
		t.Errorf("break %v replaced by %v at the same position", b1, b2)
	}
}

func TestBottomless(t *testing.T) {
	m := NewMaster("m", sizedDoc(100), &unitFormatter{}, testLogger(t))
	p := m.Engine().CreatePageNode(m)

	desired, b := p.Measure(size(10), geom.Uniform(2), nil, MeasureOptions{MeasureBottomless: true})
	if b != nil {
		t.Errorf("bottomless page break = %v, want none", b)
	}
	if want := (geom.Size{Width: 5, Height: 104}); desired != want {
		t.Errorf("desired = %v, want %v", desired, want)
	}
}

func TestCreatePageNodePanics(t *testing.T) {
	tests := []struct {
		name  string
		doc   *document.Collection
		owner func(m *Master) Link
	}{
		{name: "nil owner", doc: sizedDoc(10), owner: func(*Master) Link { return nil }},
		{name: "nil typed owner", doc: sizedDoc(10), owner: func(*Master) Link { return (*Overflow)(nil) }},
		{name: "no collection", owner: func(m *Master) Link { return m }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMaster("m", tt.doc, &unitFormatter{}, testLogger(t))
			defer func() {
				if recover() == nil {
					t.Error("CreatePageNode() did not panic")
				}
			}()
			m.Engine().CreatePageNode(tt.owner(m))
		})
	}
}

func TestArrangeBeforeMeasure(t *testing.T) {
	m := NewMaster("m", sizedDoc(10), &unitFormatter{}, testLogger(t))
	s := &recordingSurface{}
	m.SetSurface(s)

	m.Arrange(size(10))
	if len(s.draws) != 0 {
		t.Errorf("surface got %d draws", len(s.draws))
	}

	p := m.Engine().CreatePageNode(m)
	if p.Arrange(size(10), geom.Thickness{}) {
		t.Error("unformatted page must not arrange")
	}

	p.Measure(size(10), geom.Thickness{}, nil, MeasureOptions{})
	p.Arrange(size(10), geom.Thickness{})
	p.invalidateContent()
	if p.Arrange(size(20), geom.Thickness{}) {
		t.Error("page needing reformat must not arrange")
	}
	if got := p.RenderSize(); got != size(10) {
		t.Errorf("render size = %v, want previous %v", got, size(10))
	}
}

// elementDoc has 2 paragraphs: "ab<img>cd" and "<img2>e".
func elementDoc() (*document.Collection, *document.Element, *document.Element) {
	img := document.NewElement("img", geom.Size{Width: 2, Height: 1})
	img2 := document.NewElement("img2", geom.Size{Width: 20, Height: 1})
	doc := document.NewCollection(
		document.NewParagraph(document.Run{Text: "ab"}, img, document.Run{Text: "cd"}),
		document.NewParagraph(img2, document.Run{Text: "e", Href: "#note"}),
	)
	return doc, img, img2
}

func TestEmbeddedElementsFollowPagination(t *testing.T) {
	doc, img, img2 := elementDoc()
	links := newChain(t, doc, &unitFormatter{}, size(6), size(6))
	a, b := links[0], links[1]
	UpdateLayout(a.Master())

	if img.Host() != a.base() {
		t.Error("img must be hosted by A")
	}
	if img2.Host() != b.base() {
		t.Error("img2 must be hosted by B")
	}
	got := a.Page().Elements()
	if len(got) != 1 || got[0].Index != 2 || got[0].Element != img {
		t.Fatalf("A roster = %+v", got)
	}
	if pos, visible := a.Page().ElementPosition(img); !visible || pos != (geom.Point{X: 0, Y: 2}) {
		t.Errorf("img position = %v visible=%t", pos, visible)
	}
	// img2 is wider than the page
	if got := img2.DesiredSize(); got != (geom.Size{Width: 10, Height: 1}) {
		t.Errorf("img2 desired = %v", got)
	}
	if c, _ := img2.Constraint(); c != (geom.Size{Width: 10, Height: 6}) {
		t.Errorf("img2 constraint = %v", c)
	}

	// element moves to the next page
	a.SetSize(size(2))
	UpdateLayout(a.Master())
	if n := len(a.Page().Elements()); n != 0 {
		t.Errorf("A hosts %d elements, want 0", n)
	}
	if img.Host() != b.base() {
		t.Error("img must be hosted by B")
	}
	want := []int{2, 6}
	var idx []int
	for _, e := range b.Page().Elements() {
		idx = append(idx, e.Index)
	}
	if diff := cmp.Diff(want, idx); diff != "" {
		t.Errorf("B roster mismatch (-want +got):\n%s", diff)
	}
}

func TestElementResize(t *testing.T) {
	doc, img, _ := elementDoc()
	f := &unitFormatter{}
	links := newChain(t, doc, f, size(6), size(6))
	a, b := links[0], links[1]
	UpdateLayout(a.Master())

	img.SetNaturalSize(geom.Size{Width: 3, Height: 1})
	if a.Page().State() != PageStateNeedsReformat {
		t.Errorf("A page state = %s, want %s", a.Page().State(), PageStateNeedsReformat)
	}
	if !a.IsMeasureDirty() || !b.IsMeasureDirty() || a.IsBreakValid() {
		t.Errorf("resize must invalidate chain:\n%s", Dump(a))
	}

	calls := f.calls
	UpdateLayout(a.Master())
	if f.calls != calls+1 {
		t.Errorf("formatter called %d times, want 1", f.calls-calls)
	}
	if got := img.DesiredSize(); got != (geom.Size{Width: 3, Height: 1}) {
		t.Errorf("img desired = %v", got)
	}

	// same desired size, nothing to do
	img.SetNaturalSize(geom.Size{Width: 3, Height: 1})
	if a.IsMeasureDirty() {
		t.Error("unchanged element size must not invalidate")
	}
}

func TestElementResizeDuringMeasure(t *testing.T) {
	doc, img, _ := elementDoc()
	f := &unitFormatter{}
	m := NewMaster("m", doc, f, testLogger(t))
	m.SetSize(size(20))
	UpdateLayout(m)

	resized := false
	f.onFormat = func(FormatRequest) {
		if !resized {
			resized = true
			img.SetNaturalSize(geom.Size{Width: 4, Height: 1})
		}
	}
	InvalidateAllOverflowContent(m)
	calls := f.calls
	UpdateLayout(m)

	if f.calls != calls+2 {
		t.Errorf("formatter called %d times, want 2", f.calls-calls)
	}
	if m.Page().State() != PageStateFormatted || m.IsMeasureDirty() {
		t.Errorf("page must settle in one pass:\n%s", Dump(m))
	}
}

func TestElementKeepsResizingDuringMeasure(t *testing.T) {
	doc, img, _ := elementDoc()
	f := &unitFormatter{}
	m := NewMaster("m", doc, f, testLogger(t))
	s := &recordingSurface{}
	m.SetSurface(s)
	m.SetSize(size(20))
	UpdateLayout(m)

	// one resize more than a single measure absorbs
	resizes := 0
	f.onFormat = func(FormatRequest) {
		if resizes <= maxReformats {
			resizes++
			img.SetNaturalSize(geom.Size{Width: float64(3 + resizes), Height: 1})
		}
	}
	InvalidateAllOverflowContent(m)
	draws := len(s.draws)
	UpdateLayout(m)

	if m.Page().State() != PageStateNeedsReformat {
		t.Fatalf("page state = %v, want %v", m.Page().State(), PageStateNeedsReformat)
	}
	if !m.IsMeasureDirty() {
		t.Error("unsettled page must stay measure dirty")
	}
	if len(s.draws) != draws {
		t.Errorf("unsettled page drawn %d times", len(s.draws)-draws)
	}

	calls := f.calls
	UpdateLayout(m)
	if f.calls == calls {
		t.Error("next layout pass must format again")
	}
	if m.Page().State() != PageStateFormatted || m.IsMeasureDirty() {
		t.Errorf("page must settle on next pass:\n%s", Dump(m))
	}
	if len(s.draws) != draws+1 {
		t.Errorf("settled page drawn %d times, want 1", len(s.draws)-draws)
	}
}

func TestRoster(t *testing.T) {
	doc, img, img2 := elementDoc()
	m := NewMaster("m", doc, &unitFormatter{}, testLogger(t))
	p := m.Engine().CreatePageNode(m)
	p1, p2 := doc.Block(0), doc.Block(1)
	other := document.NewElement("other", geom.Size{Width: 1, Height: 1})

	p.AddElement(img2, p2, 6)
	p.AddElement(img, p1, 2)
	p.AddElement(img, p1, 2)
	p.AddElement(other, p2, 7)

	elements := p.Elements()
	if len(elements) != 3 || elements[0].Element != img || elements[1].Element != img2 {
		t.Fatalf("roster = %+v", elements)
	}
	if img.Host() != m.base() {
		t.Error("added element must be hosted by page owner")
	}

	if got := p.ElementsWithinRange(2, 7); len(got) != 2 {
		t.Errorf("ElementsWithinRange() = %d elements, want 2", len(got))
	}
	if got := p.ElementsWithinRange(3, 6); len(got) != 0 {
		t.Errorf("ElementsWithinRange() = %d elements, want 0", len(got))
	}

	if !p.UpdateElementPosition(img2, p2, geom.Point{X: 3, Y: 4}, true) {
		t.Error("UpdateElementPosition() = false")
	}
	if pos, visible := p.ElementPosition(img2); pos != (geom.Point{X: 3, Y: 4}) || !visible {
		t.Errorf("ElementPosition() = %v, %t", pos, visible)
	}
	if p.UpdateElementPosition(img2, p1, geom.Point{}, true) {
		t.Error("element is identified by paragraph too")
	}

	if p.RemoveElement(img, p2) {
		t.Error("RemoveElement() with wrong paragraph = true")
	}
	if !p.RemoveElement(img, p1) || img.Host() != nil {
		t.Error("img must be removed and released")
	}
	if !p.RemoveElementAt(7) || p.RemoveElementAt(7) {
		t.Error("RemoveElementAt() must remove exactly once")
	}

	// element hosted elsewhere keeps its host
	o := NewOverflow("o", testLogger(t))
	img2.SetHost(o.base())
	if !p.RemoveElementAt(6) || img2.Host() != o.base() {
		t.Error("foreign host must be kept")
	}
	if _, ok := p.ElementPosition(img2); ok {
		t.Error("removed element must not be found")
	}
}

func TestSelectionHighlight(t *testing.T) {
	links := newChain(t, sizedDoc(30), &unitFormatter{}, size(10), size(10), size(10))
	s := &recordingSurface{}
	for _, l := range links {
		l.SetSurface(s)
	}
	m := links[0].Master()
	UpdateLayout(m)
	if len(s.draws) != 3 {
		t.Fatalf("got %d draws, want 3", len(s.draws))
	}

	s.draws = nil
	m.Select(15, 12)
	for _, l := range links {
		if !l.IsRenderDirty() || l.IsArrangeDirty() {
			t.Errorf("%s must be render dirty only", l.Name())
		}
	}
	UpdateLayout(m)
	want := []drawCall{
		{link: "L0", start: 0, end: 10},
		{link: "L1", start: 10, end: 20, highlight: true},
		{link: "L2", start: 20, end: 30},
	}
	if diff := cmp.Diff(want, s.draws, cmp.AllowUnexported(drawCall{})); diff != "" {
		t.Errorf("draws mismatch (-want +got):\n%s", diff)
	}

	// arrange of highlighted page postpones drawing
	s.draws = nil
	links[1].Arrange(size(10))
	if len(s.draws) != 0 || !links[1].Page().RenderPending() || !links[1].IsRenderDirty() {
		t.Errorf("arrange must defer drawing, draws=%d", len(s.draws))
	}
	links[1].Render()
	if len(s.draws) != 1 || !s.draws[0].highlight || links[1].Page().RenderPending() {
		t.Errorf("render must draw highlighted page: %+v", s.draws)
	}
}

func TestTrimmedView(t *testing.T) {
	links := newChain(t, sizedDoc(30), &unitFormatter{}, size(10))
	s := &recordingSurface{}
	links[0].SetSurface(s)
	links[0].SetTextTrimming(true)
	UpdateLayout(links[0].Master())

	if len(s.draws) != 1 || !s.draws[0].trimmed {
		t.Errorf("draws = %+v, want single trimmed page", s.draws)
	}
}

func TestHitTesting(t *testing.T) {
	m := NewMaster("m", sizedDoc(30), &unitFormatter{}, testLogger(t))
	p := m.Engine().CreatePageNode(m)
	p.Measure(size(10), geom.Uniform(1), nil, MeasureOptions{})

	pos, ok := p.PositionFromPoint(geom.Point{X: 1.5, Y: 4.5})
	if !ok || pos != 3 {
		t.Errorf("PositionFromPoint() = %d, %t, want 3", pos, ok)
	}
	if _, ok := p.PositionFromPoint(geom.Point{X: 1, Y: 100}); ok {
		t.Error("point below content must not hit")
	}

	r, ok := p.RectFromPosition(3)
	if want := (geom.Rect{X: 1, Y: 4, Width: 1, Height: 1}); !ok || r != want {
		t.Errorf("RectFromPosition() = %v, %t, want %v", r, ok, want)
	}
	if _, ok := p.RectFromPosition(20); ok {
		t.Error("position outside of page must not be found")
	}
}

func TestLinksCache(t *testing.T) {
	doc, _, _ := elementDoc()
	m := NewMaster("m", doc, &unitFormatter{}, testLogger(t))
	m.SetSize(size(20))
	UpdateLayout(m)

	want := []document.LinkSpan{{Href: "#note", Start: 7, End: 8}}
	if diff := cmp.Diff(want, m.Page().Links()); diff != "" {
		t.Errorf("links mismatch (-want +got):\n%s", diff)
	}

	m.EditDocument(func(doc *document.Collection) {
		doc.Append(document.NewParagraph(document.Run{Text: "more", Href: "#more"}))
	})
	if m.Page().linksValid {
		t.Error("content invalidation must drop link cache")
	}
	UpdateLayout(m)
	if got := len(m.Page().Links()); got != 2 {
		t.Errorf("got %d links, want 2", got)
	}
}
