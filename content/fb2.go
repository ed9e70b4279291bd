package content

import (
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"rtflow/document"
)

// Old FB2 files are often produced from HTML and carry named character
// references XML does not know about.
var htmlEntities = map[string]string{
	"nbsp":   " ",
	"shy":    "­",
	"laquo":  "«",
	"raquo":  "»",
	"bdquo":  "„",
	"ldquo":  "“",
	"rdquo":  "”",
	"lsquo":  "‘",
	"rsquo":  "’",
	"mdash":  "—",
	"ndash":  "–",
	"hellip": "…",
	"copy":   "©",
	"reg":    "®",
	"trade":  "™",
	"deg":    "°",
	"middot": "·",
	"bull":   "•",
	"sect":   "§",
	"times":  "×",
}

type binary struct {
	contentType string
	data        []byte
}

type fb2Walker struct {
	b        *builder
	binaries map[string]binary
}

// loadFB2 flattens FictionBook bodies into paragraphs: section and body titles
// become headings and titles, epigraphs, annotations and cites become quotes,
// poems are laid out verse by verse and images are embedded elements backed
// by document binaries. Notes bodies are appended after the main one when
// configured.
func loadFB2(b *builder, data []byte) error {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Entity:        htmlEntities,
		Permissive:    true,
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("unable to read FB2: %w", err)
	}
	root := doc.SelectElement("FictionBook")
	if root == nil {
		return errors.New("root element FictionBook not found")
	}

	if t := root.FindElement("description/title-info/book-title"); t != nil {
		b.title = strings.Join(strings.Fields(t.Text()), " ")
	}

	w := &fb2Walker{b: b, binaries: make(map[string]binary)}
	for _, el := range root.SelectElements("binary") {
		w.parseBinary(el)
	}

	notes := &b.cfg.Notes
	for i, body := range root.SelectElements("body") {
		name := body.SelectAttrValue("name", "")
		if i > 0 && slices.Contains(notes.BodyNames, name) && !notes.Include {
			b.log.Debug("Skipping notes body", zap.String("body", name))
			continue
		}
		w.body(body)
	}
	return nil
}

func (w *fb2Walker) parseBinary(el *etree.Element) {
	id := el.SelectAttrValue("id", "")
	if len(id) == 0 {
		w.b.log.Warn("Binary without id, ignoring")
		return
	}
	src := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, el.Text())

	enc := base64.StdEncoding
	if !strings.HasSuffix(src, "=") && len(src)%4 != 0 {
		enc = base64.RawStdEncoding
	}
	data := make([]byte, enc.DecodedLen(len(src)))
	n, err := enc.Decode(data, []byte(src))
	if err != nil {
		var corrupt base64.CorruptInputError
		if !errors.As(err, &corrupt) {
			w.b.log.Warn("Unable to decode binary", zap.String("id", id), zap.Error(err))
			return
		}
		// keep whatever was decoded, image decoder will judge
		w.b.log.Warn("Binary is corrupted", zap.String("id", id), zap.Int64("offset", int64(corrupt)))
	}
	w.binaries[id] = binary{contentType: el.SelectAttrValue("content-type", ""), data: data[:n]}
}

func (w *fb2Walker) body(el *etree.Element) {
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case "title":
			w.title(c, document.KindTitle)
		case "epigraph":
			w.quote(c)
		case "image":
			w.blockImage(c)
		case "section":
			w.section(c)
		}
	}
}

func (w *fb2Walker) section(el *etree.Element) {
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case "title":
			w.title(c, document.KindHeading)
		case "epigraph", "annotation", "cite":
			w.quote(c)
		case "image":
			w.blockImage(c)
		case "p":
			w.para(c, document.KindBody)
		case "subtitle":
			w.para(c, document.KindHeading)
		case "empty-line":
			w.b.emptyLine()
		case "poem":
			w.poem(c, document.KindBody)
		case "table":
			w.table(c)
		case "section":
			w.section(c)
		}
	}
}

func (w *fb2Walker) title(el *etree.Element, kind document.ParagraphKind) {
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case "p":
			w.para(c, kind)
		case "empty-line":
			w.b.emptyLine()
		}
	}
}

// quote handles epigraphs, cites and annotations.
func (w *fb2Walker) quote(el *etree.Element) {
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case "p", "subtitle", "text-author":
			w.para(c, document.KindQuote)
		case "empty-line":
			w.b.emptyLine()
		case "poem":
			w.poem(c, document.KindQuote)
		case "cite":
			w.quote(c)
		case "table":
			w.table(c)
		}
	}
}

func (w *fb2Walker) poem(el *etree.Element, kind document.ParagraphKind) {
	for _, c := range el.ChildElements() {
		switch c.Tag {
		case "title":
			w.title(c, document.KindHeading)
		case "epigraph":
			w.quote(c)
		case "stanza":
			for _, v := range c.ChildElements() {
				switch v.Tag {
				case "title":
					w.title(v, document.KindHeading)
				case "subtitle":
					w.para(v, document.KindHeading)
				case "v":
					w.para(v, kind)
				}
			}
			w.b.emptyLine()
		case "text-author", "date":
			w.para(c, kind)
		}
	}
}

// table puts every row into a paragraph of its own with cells separated by
// vertical bars.
func (w *fb2Walker) table(el *etree.Element) {
	for _, tr := range el.SelectElements("tr") {
		w.b.open(document.KindBody)
		for i, td := range tr.ChildElements() {
			if i > 0 {
				w.b.text(" | ", "")
			}
			w.inline(td, "")
		}
		w.b.close()
	}
}

func (w *fb2Walker) para(el *etree.Element, kind document.ParagraphKind) {
	w.b.open(kind)
	w.inline(el, "")
	w.b.close()
}

func (w *fb2Walker) inline(el *etree.Element, href string) {
	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.CharData:
			w.b.text(t.Data, href)
		case *etree.Element:
			switch t.Tag {
			case "a":
				w.inline(t, attrHref(t))
			case "image":
				w.image(t)
			default:
				w.inline(t, href)
			}
		}
	}
}

func (w *fb2Walker) blockImage(el *etree.Element) {
	w.b.open(document.KindBody)
	w.image(el)
	w.b.close()
}

func (w *fb2Walker) image(el *etree.Element) {
	ref := attrHref(el)
	id, internal := strings.CutPrefix(ref, "#")
	name := el.SelectAttrValue("alt", "")
	if len(name) == 0 {
		name = id
	}
	var bin binary
	if internal {
		bin = w.binaries[id]
	}
	w.b.element(name, bin.data, bin.contentType)
}

// attrHref returns link target regardless of namespace prefix used for
// xlink.
func attrHref(el *etree.Element) string {
	for _, a := range el.Attr {
		if a.Key == "href" {
			return a.Value
		}
	}
	return ""
}
