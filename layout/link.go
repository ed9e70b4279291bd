package layout

import (
	"go.uber.org/zap"

	"rtflow/document"
	"rtflow/geom"
)

// Link is a member of linked text chain: master or one of its overflow
// containers.
type Link interface {
	Name() string

	// Break returns break record of the last committed measure, nil when all
	// remaining content fit. Must not be called unless IsBreakValid.
	Break() *BreakRecord
	IsBreakValid() bool
	Previous() Link
	Next() Link
	Master() *Master
	Page() *PageNode

	PreviousBreakUpdated(prev Link)
	PreviousLinkAttached(prev Link)
	PreviousLinkDetached(prev Link)
	NextLinkDetached(next Link)
	SetOverflowTarget(target *Overflow) error

	Measure(available geom.Size) geom.Size
	Arrange(final geom.Size)
	Render()

	Size() geom.Size
	SetSize(s geom.Size)
	Padding() geom.Thickness
	SetPadding(t geom.Thickness)
	MeasureOptions() MeasureOptions
	SetMeasureOptions(o MeasureOptions)
	SetMaxLines(n int)
	SetTextTrimming(on bool)
	SetSurface(s Surface)

	ContentStart() int
	ContentLength() int
	HasOverflowContent() bool
	IsTrimmed() bool
	IsMeasureDirty() bool
	IsArrangeDirty() bool
	IsRenderDirty() bool

	ChildDesiredSizeChanged(el *document.Element)

	base() *container
}

// container is the state shared by every link kind.
type container struct {
	self Link
	name string
	log  *zap.Logger

	prev   Link // back reference, never owns
	next   *Overflow
	master *Master

	page       *PageNode
	brk        *BreakRecord
	breakValid bool

	size     geom.Size
	padding  geom.Thickness
	opts     MeasureOptions
	trimming bool
	surface  Surface

	measureDirty bool
	arrangeDirty bool
	renderDirty  bool
}

func newContainer(self Link, name string, log *zap.Logger) container {
	return container{
		self:         self,
		name:         name,
		log:          log.With(zap.String("link", name)),
		measureDirty: true,
		arrangeDirty: true,
		renderDirty:  true,
	}
}

// Master is the chain originating container, sole owner of the document.
type Master struct {
	container

	doc    *document.Collection
	engine *BlockLayoutEngine

	selStart int
	selEnd   int
}

// NewMaster creates master container for doc formatted by f. Document may be
// nil, such master formats nothing until SetDocument.
func NewMaster(name string, doc *document.Collection, f Formatter, log *zap.Logger) *Master {
	m := &Master{doc: doc}
	m.container = newContainer(m, name, log)
	m.master = m
	m.engine = newBlockLayoutEngine(m, f, log)
	return m
}

func (m *Master) base() *container {
	if m == nil {
		return nil
	}
	return &m.container
}

// PreviousLinkAttached panics: master always starts the chain.
func (m *Master) PreviousLinkAttached(prev Link) {
	panic("master '" + m.name + "' cannot be overflow target")
}

// Document returns master block collection.
func (m *Master) Document() *document.Collection {
	return m.doc
}

func (m *Master) Engine() *BlockLayoutEngine {
	return m.engine
}

// SetDocument replaces master content. Every page of the chain is destroyed.
func (m *Master) SetDocument(doc *document.Collection) {
	m.doc = doc
	m.selStart, m.selEnd = 0, 0
	m.destroyPage()
	ResetAllOverflowMasters(m)
	InvalidateAllOverflowContent(m)
}

// EditDocument applies in place modification to master content.
func (m *Master) EditDocument(edit func(doc *document.Collection)) {
	if m.doc == nil {
		m.doc = document.NewCollection()
	}
	edit(m.doc)
	m.doc.Reindex()
	InvalidateAllOverflowContent(m)
}

// Select sets chain selection range [start, end).
func (m *Master) Select(start, end int) {
	if start > end {
		start, end = end, start
	}
	if start == m.selStart && end == m.selEnd {
		return
	}
	m.selStart, m.selEnd = start, end
	InvalidateAllOverflowRender(m)
}

func (m *Master) ClearSelection() {
	m.Select(0, 0)
}

// Selection returns current selection range.
func (m *Master) Selection() (int, int) {
	return m.selStart, m.selEnd
}

func (m *Master) selectionIntersects(start, end int) bool {
	return m.selStart < m.selEnd && m.selStart < end && start < m.selEnd
}

// Overflow is a container displaying content which did not fit into its
// predecessor.
type Overflow struct {
	container
}

func NewOverflow(name string, log *zap.Logger) *Overflow {
	o := &Overflow{}
	o.container = newContainer(o, name, log)
	return o
}

func (o *Overflow) base() *container {
	if o == nil {
		return nil
	}
	return &o.container
}

func (c *container) Name() string {
	return c.name
}

func (c *container) Break() *BreakRecord {
	if !c.breakValid {
		panic("break of '" + c.name + "' requested while it is not valid")
	}
	return c.brk
}

func (c *container) IsBreakValid() bool {
	return c.breakValid
}

func (c *container) Previous() Link {
	return c.prev
}

func (c *container) Next() Link {
	if c.next == nil {
		return nil
	}
	return c.next
}

// Master resolves chain master, nil when link is not attached to one.
func (c *container) Master() *Master {
	c.setupLinkedBlockLayout()
	return c.master
}

func (c *container) Page() *PageNode {
	return c.page
}

func (c *container) setupLinkedBlockLayout() {
	if c.master != nil || c.prev == nil {
		return
	}
	if m, ok := c.prev.(*Master); ok {
		c.master = m
	} else {
		c.master = c.prev.Master()
	}
	if c.master != nil {
		c.log.Debug("Master resolved", zap.String("master", c.master.name))
	}
}

type resolution int

const (
	resolvedFormat resolution = iota
	resolvedEmpty
	resolvedPending
)

// resolve finds what page of this link should format.
func (c *container) resolve() (*BreakRecord, resolution) {
	if _, ok := c.self.(*Master); ok {
		if c.master.doc == nil {
			return nil, resolvedEmpty
		}
		return nil, resolvedFormat
	}
	c.setupLinkedBlockLayout()
	if c.master == nil || c.master.doc == nil {
		return nil, resolvedEmpty
	}
	if !c.prev.IsBreakValid() {
		return nil, resolvedPending
	}
	b := c.prev.Break()
	if b == nil {
		return nil, resolvedEmpty
	}
	return b, resolvedFormat
}

// Measure formats content of the link into available size.
func (c *container) Measure(available geom.Size) geom.Size {
	c.measureDirty = false
	prev, how := c.resolve()
	switch how {
	case resolvedFormat:
		if c.page == nil {
			c.page = c.master.engine.CreatePageNode(c.self)
		}
		desired, b := c.page.Measure(available, c.padding, prev, c.opts)
		if !c.page.Bypassed() {
			c.invalidateArrange()
		}
		c.commitBreak(b)
		if c.page.State() == PageStateNeedsReformat {
			c.log.Debug("Embedded elements did not settle, measure again on next layout pass")
			c.measureDirty = true
		}
		return desired

	case resolvedPending:
		c.log.Debug("Previous break is not valid, nothing to format")
		old := c.brk
		c.destroyPage()
		c.brk, c.breakValid = nil, false
		// retried on next layout pass
		c.measureDirty = true
		if old != nil && c.next != nil {
			c.next.PreviousBreakUpdated(c.self)
		}
		return geom.Size{}.Inflate(c.padding)

	default:
		if c.page != nil {
			c.destroyPage()
			c.invalidateArrange()
		}
		c.commitBreak(nil)
		return geom.Size{}.Inflate(c.padding)
	}
}

func (c *container) commitBreak(b *BreakRecord) {
	changed := b != c.brk
	c.brk, c.breakValid = b, true
	if !changed {
		return
	}
	c.log.Debug("Break updated", zap.Stringer("break", b))
	if c.next != nil {
		c.next.PreviousBreakUpdated(c.self)
	}
}

func (c *container) destroyPage() {
	if c.page == nil {
		return
	}
	c.page.destroy()
	c.page = nil
}

// Arrange places formatted content into final size and draws it unless
// selection highlight requires drawing on render pass.
func (c *container) Arrange(final geom.Size) {
	c.arrangeDirty = false
	if c.page == nil || !c.page.Arrange(final, c.padding) {
		return
	}
	if c.surface == nil {
		c.renderDirty = false
		return
	}
	if c.highlighted() {
		c.page.renderPending = true
		c.renderDirty = true
		return
	}
	c.draw(false)
}

// Render draws arranged page.
func (c *container) Render() {
	c.renderDirty = false
	if c.page == nil || c.page.State() != PageStateFormatted || c.surface == nil {
		return
	}
	c.draw(c.highlighted())
}

func (c *container) highlighted() bool {
	return c.master != nil && c.page != nil && c.master.selectionIntersects(c.page.Start(), c.page.End())
}

func (c *container) draw(highlight bool) {
	c.page.renderPending = false
	c.renderDirty = false
	c.surface.DrawPage(c.view(), highlight)
}

func (c *container) view() PageView {
	_, master := c.self.(*Master)
	v := PageView{
		Link:      c.name,
		Master:    master,
		Size:      c.page.RenderSize(),
		Padding:   c.padding,
		Start:     c.page.Start(),
		End:       c.page.End(),
		Lines:     c.page.Lines(),
		Elements:  c.page.Elements(),
		Links:     c.page.Links(),
		Trimmed:   c.trimming && c.IsTrimmed(),
		Overflows: c.HasOverflowContent(),
	}
	if c.master != nil {
		v.SelStart, v.SelEnd = c.master.Selection()
	}
	return v
}

func (c *container) Size() geom.Size {
	return c.size
}

// SetSize changes size layout host measures link with.
func (c *container) SetSize(s geom.Size) {
	if s == c.size {
		return
	}
	c.size = s
	c.invalidateMeasure()
}

func (c *container) Padding() geom.Thickness {
	return c.padding
}

func (c *container) SetPadding(t geom.Thickness) {
	if t == c.padding {
		return
	}
	c.padding = t
	InvalidateAllOverflowContentMeasure(c.self)
}

func (c *container) MeasureOptions() MeasureOptions {
	return c.opts
}

func (c *container) SetMeasureOptions(o MeasureOptions) {
	if o == c.opts {
		return
	}
	c.opts = o
	InvalidateAllOverflowContentMeasure(c.self)
}

func (c *container) SetMaxLines(n int) {
	o := c.opts
	o.MaxLines = max(n, 0)
	c.SetMeasureOptions(o)
}

func (c *container) SetTextTrimming(on bool) {
	if on == c.trimming {
		return
	}
	c.trimming = on
	InvalidateAllOverflowContentArrange(c.self)
}

func (c *container) SetSurface(s Surface) {
	c.surface = s
	c.invalidateRender()
}

// ContentStart returns absolute position link content begins at.
func (c *container) ContentStart() int {
	if c.page == nil {
		return 0
	}
	return c.page.Start()
}

func (c *container) ContentLength() int {
	if c.page == nil {
		return 0
	}
	return c.page.ContentLength()
}

// HasOverflowContent reports whether some content did not fit into the link.
func (c *container) HasOverflowContent() bool {
	return c.breakValid && c.brk != nil
}

// IsTrimmed reports whether content did not fit and there is no overflow
// target to continue it.
func (c *container) IsTrimmed() bool {
	return c.HasOverflowContent() && c.next == nil
}

func (c *container) IsMeasureDirty() bool {
	return c.measureDirty
}

func (c *container) IsArrangeDirty() bool {
	return c.arrangeDirty
}

func (c *container) IsRenderDirty() bool {
	return c.renderDirty
}

// ChildDesiredSizeChanged is called by embedded element hosted on page of
// this link when its desired size changes.
func (c *container) ChildDesiredSizeChanged(el *document.Element) {
	if c.page == nil {
		return
	}
	if c.page.measuring {
		c.page.reformatPending = true
		return
	}
	c.log.Debug("Embedded element resized", zap.String("element", el.Name))
	c.page.invalidateContent()
	InvalidateAllOverflowContentMeasure(c.self)
}

func (c *container) invalidateContent() {
	if c.page != nil {
		c.page.invalidateContent()
	}
	c.invalidateMeasure()
}

func (c *container) invalidateMeasure() {
	c.measureDirty = true
	c.breakValid = false
	c.invalidateArrange()
}

func (c *container) invalidateArrange() {
	c.arrangeDirty = true
	c.invalidateRender()
}

func (c *container) invalidateRender() {
	c.renderDirty = true
}

// resetMaster forgets resolved master, page formatted for it is destroyed.
func (c *container) resetMaster() {
	if _, ok := c.self.(*Master); ok {
		return
	}
	if c.master != nil || c.page != nil {
		c.log.Debug("Master reset")
	}
	c.master = nil
	c.destroyPage()
	c.invalidateMeasure()
}
