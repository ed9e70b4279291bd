package render

import (
	"fmt"
	"image"
	"io"
	"math"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/image/font"

	"rtflow/config"
	"rtflow/geom"
	"rtflow/layout"
	"rtflow/utils/images"
)

// PNG draws pages as raster images, every cell of layout grid is
// CellWidth x CellHeight pixels. Embedded elements are drawn with their
// decoded images when available.
type PNG struct {
	registry

	cfg      *config.PNGSurfaceConfig
	log      *zap.Logger
	face     font.Face
	images   map[uuid.UUID]image.Image
	canvases map[string]*gg.Context
}

// NewPNG creates raster surface. Font is loaded from configured path, built
// in fixed font is used otherwise.
func NewPNG(cfg *config.PNGSurfaceConfig, imgs map[uuid.UUID]image.Image, log *zap.Logger) (*PNG, error) {
	p := &PNG{
		cfg:      cfg,
		log:      log.Named("png"),
		images:   imgs,
		canvases: make(map[string]*gg.Context),
	}
	if len(cfg.FontPath) > 0 {
		face, err := gg.LoadFontFace(cfg.FontPath, cfg.FontSize)
		if err != nil {
			return nil, fmt.Errorf("unable to load font %s: %w", cfg.FontPath, err)
		}
		p.face = face
	}
	return p, nil
}

func (p *PNG) px(s geom.Size) (int, int) {
	return max(int(math.Ceil(s.Width*float64(p.cfg.CellWidth))), 1), max(int(math.Ceil(s.Height*float64(p.cfg.CellHeight))), 1)
}

// DrawPage implements layout.Surface.
func (p *PNG) DrawPage(v layout.PageView, highlight bool) {
	pi := p.record(v, highlight)

	cw, ch := float64(p.cfg.CellWidth), float64(p.cfg.CellHeight)
	dc := gg.NewContext(p.px(v.Size))
	if p.face != nil {
		dc.SetFontFace(p.face)
	}
	dc.SetHexColor(p.cfg.Background)
	dc.Clear()

	placed := occupied(v)
	if highlight {
		dc.SetHexColor(p.cfg.Highlight)
		for _, l := range v.Lines {
			for k := range l.Offsets {
				pos := l.Start + k
				if !selected(v, highlight, pos) || pos >= l.End {
					continue
				}
				right := l.Width
				if k+1 < len(l.Offsets) {
					right = l.Offsets[k+1]
				}
				x := (v.Padding.Left + l.Offsets[k]) * cw
				y := (v.Padding.Top + l.Top) * ch
				dc.DrawRectangle(x, y, math.Max(right-l.Offsets[k], 1)*cw, l.Height*ch)
			}
		}
		dc.Fill()
	}

	dc.SetHexColor(p.cfg.Foreground)
	for _, l := range v.Lines {
		top := (v.Padding.Top + l.Top) * ch
		for k, r := range []rune(l.Text) {
			if _, ok := placed[l.Start+k]; ok || k >= len(l.Offsets) || unicode.IsSpace(r) {
				continue
			}
			x := (v.Padding.Left + l.Offsets[k]) * cw
			dc.DrawStringAnchored(string(r), x, top+ch/2, 0, 0.5)
		}
	}
	for _, e := range placed {
		p.drawElement(dc, e, cw, ch)
	}

	if v.Trimmed {
		y := v.Padding.Top * ch
		if n := len(v.Lines); n > 0 {
			y = (v.Padding.Top + v.Lines[n-1].Top) * ch
		}
		dc.SetHexColor(p.cfg.Foreground)
		dc.DrawStringAnchored(ellipsis, float64(dc.Width())-v.Padding.Right*cw, y+ch/2, 1, 0.5)
	}

	// page frame
	dc.SetHexColor(p.cfg.Foreground)
	dc.SetLineWidth(1)
	dc.DrawRectangle(0.5, 0.5, float64(dc.Width())-1, float64(dc.Height())-1)
	dc.Stroke()

	p.canvases[v.Link] = dc
	p.log.Debug("Page drawn",
		zap.String("link", v.Link),
		zap.Int("width", dc.Width()),
		zap.Int("height", dc.Height()),
		zap.Bool("highlight", highlight),
		zap.Int("draws", pi.Draws))
}

func (p *PNG) drawElement(dc *gg.Context, e layout.EmbeddedElement, cw, ch float64) {
	sz := e.Element.DesiredSize()
	x, y := e.Position.X*cw, e.Position.Y*ch
	w, h := sz.Width*cw, sz.Height*ch

	if img, ok := p.images[e.Element.ID]; ok {
		fitted := images.Fit(img, int(w), int(h))
		dc.DrawImageAnchored(fitted, int(x+w/2), int(y+h/2), 0.5, 0.5)
		return
	}
	// placeholder box with a cross
	dc.SetHexColor(p.cfg.Foreground)
	dc.SetLineWidth(1)
	dc.DrawRectangle(x+0.5, y+0.5, w-1, h-1)
	dc.DrawLine(x, y, x+w, y+h)
	dc.DrawLine(x+w, y, x, y+h)
	dc.Stroke()
}

// Image returns drawn page image.
func (p *PNG) Image(link string) (image.Image, error) {
	if err := p.check(link); err != nil {
		return nil, err
	}
	return p.canvases[link].Image(), nil
}

// WritePage implements Surface, page is encoded as PNG.
func (p *PNG) WritePage(w io.Writer, link string) error {
	if err := p.check(link); err != nil {
		return err
	}
	if err := p.canvases[link].EncodePNG(w); err != nil {
		return fmt.Errorf("unable to encode page %q: %w", link, err)
	}
	return nil
}

var _ Surface = (*PNG)(nil)
