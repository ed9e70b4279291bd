package content

import (
	"image"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"rtflow/config"
	"rtflow/document"
	"rtflow/geom"
	"rtflow/utils/images"
)

// builder accumulates paragraphs while source document is being walked.
// Runs of white space are collapsed to a single space, paragraphs are
// trimmed on both ends.
type builder struct {
	cfg *config.DocumentConfig
	log *zap.Logger

	paras  []*document.Paragraph
	cur    *document.Paragraph
	space  bool // last emitted rune of current paragraph is a space
	prefix string

	title  string
	images map[uuid.UUID]image.Image
}

func newBuilder(cfg *config.DocumentConfig, log *zap.Logger) *builder {
	return &builder{cfg: cfg, log: log, images: make(map[uuid.UUID]image.Image)}
}

// open starts new paragraph closing current one.
func (b *builder) open(kind document.ParagraphKind) {
	b.close()
	b.cur = &document.Paragraph{Kind: kind}
	// lines of the same multi-line heading are kept together
	if (kind == document.KindHeading || kind == document.KindTitle) && len(b.paras) > 0 && b.paras[len(b.paras)-1].Kind != kind {
		b.cur.SpaceBefore = b.cfg.HeadingSpace
	}
	b.space = true
	if len(b.prefix) > 0 {
		b.raw(b.prefix, "")
		b.prefix, b.space = "", true
	}
}

// ensure opens paragraph of requested kind if none is open.
func (b *builder) ensure(kind document.ParagraphKind) {
	if b.cur == nil {
		b.open(kind)
	}
}

// close finishes current paragraph, paragraphs without content are dropped.
func (b *builder) close() {
	p := b.cur
	if p == nil {
		return
	}
	b.cur = nil

	// trailing space
	for i := len(p.Inlines) - 1; i >= 0; i-- {
		r, ok := p.Inlines[i].(document.Run)
		if !ok {
			break
		}
		r.Text = strings.TrimRightFunc(r.Text, unicode.IsSpace)
		if len(r.Text) > 0 {
			p.Inlines[i] = r
			break
		}
		p.Inlines = p.Inlines[:i]
	}
	if len(p.Inlines) == 0 {
		return
	}
	b.paras = append(b.paras, p)
}

// emptyLine adds explicit empty paragraph.
func (b *builder) emptyLine() {
	b.close()
	b.paras = append(b.paras, &document.Paragraph{})
}

// text appends flowing text to current paragraph collapsing white space.
func (b *builder) text(s, href string) {
	if b.cur == nil || len(s) == 0 {
		return
	}
	if b.cfg.Normalize {
		s = norm.NFC.String(s)
	}
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			if b.space {
				continue
			}
			r = ' '
			b.space = true
		} else {
			b.space = false
		}
		sb.WriteRune(r)
	}
	b.appendRun(sb.String(), href)
}

// raw appends text as is, tabs are expanded to spaces and control
// characters dropped.
func (b *builder) raw(s, href string) {
	if b.cur == nil || len(s) == 0 {
		return
	}
	if b.cfg.Normalize {
		s = norm.NFC.String(s)
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
	if len(s) > 0 {
		b.space = strings.HasSuffix(s, " ")
		b.appendRun(s, href)
	}
}

func (b *builder) appendRun(s, href string) {
	if len(s) == 0 {
		return
	}
	if n := len(b.cur.Inlines); n > 0 {
		if last, ok := b.cur.Inlines[n-1].(document.Run); ok && last.Href == href {
			last.Text += s
			b.cur.Inlines[n-1] = last
			return
		}
	}
	b.cur.Inlines = append(b.cur.Inlines, document.Run{Text: s, Href: href})
}

// element appends embedded element for image data to current paragraph.
// When images are disabled alternative text is used instead. Images which
// cannot be decoded (or were not found) get configured broken size.
func (b *builder) element(name string, data []byte, declared string) {
	if b.cur == nil {
		return
	}
	ic := &b.cfg.Images
	if !ic.Enable {
		if len(name) > 0 {
			b.text("["+name+"]", "")
		}
		return
	}

	broken := geom.Size{Width: float64(ic.BrokenWidth), Height: float64(ic.BrokenHeight)}
	el := document.NewElement(name, broken)
	if len(data) > 0 {
		img, mime, err := images.Decode(data, declared)
		if err == nil {
			limit := geom.Size{Width: float64(ic.MaxWidth), Height: float64(ic.MaxHeight)}
			el.SetNaturalSize(images.CellSize(img.Bounds().Size(), float64(ic.CellWidth), float64(ic.CellHeight), limit))
			el.Data, el.MIME = data, mime
			b.images[el.ID] = img
		} else {
			b.log.Warn("Unable to decode image, using placeholder", zap.String("image", name), zap.Error(err))
		}
	} else {
		b.log.Warn("Image not found, using placeholder", zap.String("image", name))
	}
	b.cur.Inlines = append(b.cur.Inlines, el)
	b.space = false
}

// finish closes last paragraph and returns everything collected.
func (b *builder) finish() []*document.Paragraph {
	b.close()
	// explicit empty lines at the end carry nothing
	for len(b.paras) > 0 && len(b.paras[len(b.paras)-1].Inlines) == 0 {
		b.paras = b.paras[:len(b.paras)-1]
	}
	return b.paras
}
