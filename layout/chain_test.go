package layout

import (
	"errors"
	"strings"
	"testing"

	"rtflow/geom"
)

func TestSimpleOverflow(t *testing.T) {
	f := &unitFormatter{}
	links := newChain(t, sizedDoc(1000), f, size(400), size(600))
	a, b := links[0], links[1]

	if n := UpdateLayout(a.Master()); n != 2 {
		t.Errorf("UpdateLayout() formatted %d pages, want 2", n)
	}
	if got := a.Break().Position(); got != 400 {
		t.Errorf("A break = %d, want 400", got)
	}
	if got := b.ContentStart(); got != 400 {
		t.Errorf("B content start = %d, want 400", got)
	}
	if b.Break() != nil {
		t.Errorf("B break = %v, want none", b.Break())
	}
	if got := b.ContentLength(); got != 600 {
		t.Errorf("B content length = %d, want 600", got)
	}
	if !a.HasOverflowContent() || a.IsTrimmed() {
		t.Errorf("A overflow=%t trimmed=%t, want overflow and not trimmed", a.HasOverflowContent(), a.IsTrimmed())
	}
}

func TestShrinkMovesBreak(t *testing.T) {
	f := &unitFormatter{}
	links := newChain(t, sizedDoc(1000), f, size(400), size(600))
	a, b := links[0], links[1]
	UpdateLayout(a.Master())
	first := a.Break()

	a.SetSize(size(250))
	if b.IsMeasureDirty() {
		t.Fatal("B must not be dirty before A is measured")
	}
	a.Measure(a.Size())
	if got := a.Break().Position(); got != 250 {
		t.Errorf("A break = %d, want 250", got)
	}
	if a.Break() == first || a.Break().Generation() <= first.Generation() {
		t.Errorf("A break %v must be new record replacing %v", a.Break(), first)
	}
	if !b.IsMeasureDirty() {
		t.Error("B must be measure dirty after A break changed")
	}

	UpdateLayout(a.Master())
	if got := b.ContentStart(); got != 250 {
		t.Errorf("B content start = %d, want 250", got)
	}
	if got := b.Break().Position(); got != 850 {
		t.Errorf("B break = %d, want 850", got)
	}
}

func TestUnlink(t *testing.T) {
	f := &unitFormatter{}
	links := newChain(t, sizedDoc(1000), f, size(400), size(600))
	a, b := links[0], links[1]
	UpdateLayout(a.Master())

	if err := a.SetOverflowTarget(nil); err != nil {
		t.Fatalf("SetOverflowTarget(nil) error = %v", err)
	}
	if b.Page() != nil {
		t.Error("B page must be destroyed")
	}
	if got := b.ContentLength(); got != 0 {
		t.Errorf("B content length = %d, want 0", got)
	}
	if b.Master() != nil {
		t.Errorf("B master = %s, want none", b.Master().Name())
	}
	if b.Previous() != nil || a.Next() != nil {
		t.Error("links must not reference each other")
	}
	if !a.IsTrimmed() {
		t.Error("A must be trimmed without overflow target")
	}

	// unlinked overflow formats nothing
	b.Measure(b.Size())
	if b.Page() != nil || b.Break() != nil {
		t.Errorf("unlinked B page=%v break=%v, want none", b.Page(), b.Break())
	}
}

func TestChainConservation(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		sizes    []geom.Size
		maxLines map[int]int
	}{
		{name: "exact fit", length: 300, sizes: []geom.Size{size(100), size(100), size(100)}},
		{name: "last partially filled", length: 250, sizes: []geom.Size{size(100), size(100), size(100)}},
		{name: "content ends early", length: 90, sizes: []geom.Size{size(100), size(100), size(100)}},
		{name: "max lines", length: 200, sizes: []geom.Size{size(100), size(100), size(100)}, maxLines: map[int]int{0: 30, 1: 70}},
		{name: "single link", length: 1, sizes: []geom.Size{size(5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := newChain(t, sizedDoc(tt.length), &unitFormatter{}, tt.sizes...)
			for i, n := range tt.maxLines {
				links[i].SetMaxLines(n)
			}
			UpdateLayout(links[0].Master())

			total, next := 0, 0
			for _, l := range links {
				if !l.IsBreakValid() {
					t.Fatalf("%s break is not valid", l.Name())
				}
				if l.ContentLength() > 0 && l.ContentStart() != next {
					t.Errorf("%s starts at %d, want %d", l.Name(), l.ContentStart(), next)
				}
				total += l.ContentLength()
				next += l.ContentLength()
			}
			if total != tt.length {
				t.Errorf("content length sum = %d, want %d", total, tt.length)
			}
			if last := links[len(links)-1]; last.Break() != nil {
				t.Errorf("last link break = %v, want none", last.Break())
			}
		})
	}
}

func TestCycleRejection(t *testing.T) {
	links := newChain(t, sizedDoc(100), &unitFormatter{}, size(10), size(10), size(10))
	a, b, c := links[0], links[1].(*Overflow), links[2].(*Overflow)

	tests := []struct {
		name   string
		from   Link
		target *Overflow
	}{
		{name: "into itself", from: c, target: c},
		{name: "into ancestor", from: c, target: b},
		{name: "skipping descendant", from: a, target: c},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.from.SetOverflowTarget(tt.target)
			if !errors.Is(err, ErrLinkCycle) {
				t.Fatalf("SetOverflowTarget() error = %v, want %v", err, ErrLinkCycle)
			}
			if a.Next() != Link(b) || b.Previous() != a || b.Next() != Link(c) || c.Previous() != Link(b) || c.Next() != nil {
				t.Errorf("chain was modified:\n%s", Dump(a))
			}
		})
	}

	if err := a.SetOverflowTarget(b); err != nil {
		t.Errorf("re-assigning current target error = %v", err)
	}
}

func TestInvalidationCascade(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(Link)
		dirty func(Link) bool
	}{
		{name: "content", fn: InvalidateAllOverflowContent, dirty: Link.IsMeasureDirty},
		{name: "measure", fn: InvalidateAllOverflowContentMeasure, dirty: Link.IsMeasureDirty},
		{name: "arrange", fn: InvalidateAllOverflowContentArrange, dirty: Link.IsArrangeDirty},
		{name: "render", fn: InvalidateAllOverflowRender, dirty: Link.IsRenderDirty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := newChain(t, sizedDoc(500), &unitFormatter{}, size(100), size(100), size(100), size(100), size(100))
			UpdateLayout(links[0].Master())

			tt.fn(links[2])
			for i, l := range links {
				if got, want := tt.dirty(l), i >= 2; got != want {
					t.Errorf("link %d dirty = %t, want %t", i, got, want)
				}
				if i < 2 && (l.IsMeasureDirty() || l.IsArrangeDirty() || l.IsRenderDirty()) {
					t.Errorf("upstream link %d was touched", i)
				}
			}
		})
	}
}

func TestMeasureInvalidationBypassesUnchangedLinks(t *testing.T) {
	f := &unitFormatter{}
	links := newChain(t, sizedDoc(500), f, size(100), size(100), size(100))
	UpdateLayout(links[0].Master())
	calls := f.calls

	InvalidateAllOverflowContentMeasure(links[0])
	if n := UpdateLayout(links[0].Master()); n != 0 {
		t.Errorf("UpdateLayout() formatted %d pages, want 0", n)
	}
	if f.calls != calls {
		t.Errorf("formatter called %d more times", f.calls-calls)
	}

	// content invalidation always reformats
	InvalidateAllOverflowContent(links[1])
	if n := UpdateLayout(links[0].Master()); n != 2 {
		t.Errorf("UpdateLayout() formatted %d pages, want 2", n)
	}
}

func TestDetachReattach(t *testing.T) {
	log := testLogger(t)
	f := &unitFormatter{}
	links := newChain(t, sizedDoc(300), f, size(100), size(100), size(100))
	a, b, c := links[0], links[1].(*Overflow), links[2]
	UpdateLayout(a.Master())
	oldPage := b.Page()

	x := NewMaster("X", sizedDoc(1000), f, log)
	x.SetSize(size(50))
	if err := x.SetOverflowTarget(b); err != nil {
		t.Fatalf("SetOverflowTarget() error = %v", err)
	}

	if a.Next() != nil {
		t.Error("old predecessor must release its next link")
	}
	if b.Page() != nil || c.Page() != nil {
		t.Error("pages formatted for old master must be destroyed")
	}
	if got := c.Master(); got != x {
		t.Errorf("C master = %p, want X", got)
	}

	UpdateLayout(x)
	if b.Page() == nil || b.Page() == oldPage {
		t.Error("B page must be recreated")
	}
	if got := b.ContentStart(); got != 50 {
		t.Errorf("B content start = %d, want 50", got)
	}
	if got := c.ContentStart(); got != 150 {
		t.Errorf("C content start = %d, want 150", got)
	}
	if !a.IsTrimmed() {
		t.Error("old master must be trimmed")
	}
}

func TestDetachFromStrangerIgnored(t *testing.T) {
	links := newChain(t, sizedDoc(300), &unitFormatter{}, size(100), size(100))
	stranger := NewOverflow("stranger", testLogger(t))

	links[1].PreviousLinkDetached(stranger)
	if links[1].Previous() != links[0] {
		t.Error("link must keep its predecessor")
	}
}

func TestMasterCannotBeTarget(t *testing.T) {
	links := newChain(t, sizedDoc(10), &unitFormatter{}, size(10))
	defer func() {
		if recover() == nil {
			t.Error("PreviousLinkAttached() on master did not panic")
		}
	}()
	links[0].PreviousLinkAttached(NewOverflow("o", testLogger(t)))
}

func TestBreakPanicsWhenInvalid(t *testing.T) {
	links := newChain(t, sizedDoc(10), &unitFormatter{}, size(10))
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("Break() did not panic")
		}
		if !strings.Contains(r.(string), "not valid") {
			t.Errorf("unexpected panic %v", r)
		}
	}()
	links[0].Break()
}

func TestPendingUpstream(t *testing.T) {
	links := newChain(t, sizedDoc(300), &unitFormatter{}, size(100), size(100), size(100))
	a, b, c := links[0], links[1], links[2]
	UpdateLayout(a.Master())

	a.SetSize(size(50))
	b.Measure(b.Size())
	if b.Page() != nil || b.IsBreakValid() || !b.IsMeasureDirty() {
		t.Errorf("B must drop its page and wait for A:\n%s", Dump(a))
	}
	if !c.IsMeasureDirty() {
		t.Error("C must be notified that B break is gone")
	}

	UpdateLayout(a.Master())
	if got := c.ContentStart(); got != 150 {
		t.Errorf("C content start = %d, want 150", got)
	}
}

func TestSetDocument(t *testing.T) {
	links := newChain(t, sizedDoc(300), &unitFormatter{}, size(100), size(100))
	m := links[0].Master()
	UpdateLayout(m)

	m.SetDocument(sizedDoc(120))
	if m.Page() != nil || links[1].Page() != nil {
		t.Error("pages must be destroyed")
	}
	UpdateLayout(m)
	if got := links[1].ContentLength(); got != 20 {
		t.Errorf("overflow content length = %d, want 20", got)
	}

	m.SetDocument(nil)
	UpdateLayout(m)
	if m.ContentLength() != 0 || m.Break() != nil || links[1].Break() != nil {
		t.Errorf("chain without document must be empty:\n%s", Dump(m))
	}
}

func TestSettersInvalidate(t *testing.T) {
	tests := []struct {
		name    string
		set     func(Link)
		measure []bool
		arrange []bool
	}{
		{name: "size", set: func(l Link) { l.SetSize(size(40)) }, measure: []bool{false, true, false}, arrange: []bool{false, true, false}},
		{name: "padding", set: func(l Link) { l.SetPadding(geom.Uniform(1)) }, measure: []bool{false, true, true}, arrange: []bool{false, true, true}},
		{name: "max lines", set: func(l Link) { l.SetMaxLines(3) }, measure: []bool{false, true, true}, arrange: []bool{false, true, true}},
		{name: "trimming", set: func(l Link) { l.SetTextTrimming(true) }, measure: []bool{false, false, false}, arrange: []bool{false, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			links := newChain(t, sizedDoc(300), &unitFormatter{}, size(100), size(100), size(100))
			UpdateLayout(links[0].Master())
			tt.set(links[1])
			for i, l := range links {
				if l.IsMeasureDirty() != tt.measure[i] || l.IsArrangeDirty() != tt.arrange[i] {
					t.Errorf("link %d measure=%t arrange=%t, want %t %t", i, l.IsMeasureDirty(), l.IsArrangeDirty(), tt.measure[i], tt.arrange[i])
				}
			}
		})
	}
}

func TestDump(t *testing.T) {
	links := newChain(t, sizedDoc(150), &unitFormatter{}, size(100), size(100), size(100))
	UpdateLayout(links[0].Master())

	out := Dump(links[0])
	for _, want := range []string{
		"master 'L0' size=10x100",
		"break: 100#1",
		"page: formatted [0, 100)",
		"overflow 'L1'",
		"break: none",
		"overflow 'L2'",
		"page: none",
		"dirty: -",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump does not contain %q:\n%s", want, out)
		}
	}
}
