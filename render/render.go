// Package render has drawing surfaces receiving pages of linked chain after
// they were arranged. Surfaces keep the last drawing of every link so pages
// could be saved once layout settles.
package render

import (
	"fmt"
	"image"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rtflow/config"
	"rtflow/layout"
)

// PageInfo describes the last drawing of a link.
type PageInfo struct {
	Link        string
	Master      bool
	Start       int
	End         int
	Draws       int
	Highlighted bool
	Trimmed     bool
	Overflows   bool
}

// Surface is layout.Surface able to save what it has drawn.
type Surface interface {
	layout.Surface
	// Pages returns drawn pages in order of their first drawing.
	Pages() []PageInfo
	WritePage(w io.Writer, link string) error
}

// New creates surface selected by configuration. Decoded images are used by
// raster surfaces to draw embedded elements.
func New(cfg *config.RenderConfig, images map[uuid.UUID]image.Image, log *zap.Logger) (Surface, error) {
	switch cfg.Surface {
	case config.SurfaceKindText:
		return NewText(&cfg.Text, log), nil
	case config.SurfaceKindPng:
		return NewPNG(&cfg.PNG, images, log)
	}
	panic(fmt.Sprintf("unexpected surface kind %s", cfg.Surface))
}

// registry tracks drawn pages by link name.
type registry struct {
	pages map[string]*PageInfo
	order []string
}

func (r *registry) record(v layout.PageView, highlight bool) *PageInfo {
	if r.pages == nil {
		r.pages = make(map[string]*PageInfo)
	}
	pi, ok := r.pages[v.Link]
	if !ok {
		pi = &PageInfo{Link: v.Link}
		r.pages[v.Link] = pi
		r.order = append(r.order, v.Link)
	}
	pi.Master = v.Master
	pi.Start, pi.End = v.Start, v.End
	pi.Highlighted, pi.Trimmed, pi.Overflows = highlight, v.Trimmed, v.Overflows
	pi.Draws++
	return pi
}

func (r *registry) Pages() []PageInfo {
	out := make([]PageInfo, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.pages[name])
	}
	return out
}

func (r *registry) check(link string) error {
	if _, ok := r.pages[link]; !ok {
		return fmt.Errorf("page %q was never drawn", link)
	}
	return nil
}

// selected reports whether content position is highlighted.
func selected(v layout.PageView, highlight bool, pos int) bool {
	return highlight && pos >= v.SelStart && pos < v.SelEnd
}

// occupied returns content positions taken by visible elements, such
// positions are drawn by elements and not by text.
func occupied(v layout.PageView) map[int]layout.EmbeddedElement {
	m := make(map[int]layout.EmbeddedElement, len(v.Elements))
	for _, e := range v.Elements {
		if e.Visible {
			m[e.Index] = e
		}
	}
	return m
}
