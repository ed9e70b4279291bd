package content

import (
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"rtflow/document"
)

type mdWalker struct {
	b     *builder
	src   []byte
	res   fs.FS
	href  string
	quote int
}

// loadMarkdown converts CommonMark document into paragraphs. Headings become
// heading paragraphs, block quotes quote paragraphs, list items are prefixed
// with their markers and every code line is a paragraph of its own. Raw HTML
// is ignored.
func loadMarkdown(b *builder, data []byte, res fs.FS) error {
	src, err := decodeText(data, b.log)
	if err != nil {
		return err
	}
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	w := &mdWalker{b: b, src: src, res: res}
	if err := ast.Walk(root, w.walk); err != nil {
		return fmt.Errorf("unable to walk markdown: %w", err)
	}
	return nil
}

func (w *mdWalker) kind() document.ParagraphKind {
	if w.quote > 0 {
		return document.KindQuote
	}
	return document.KindBody
}

func (w *mdWalker) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	b := w.b
	switch n.Kind() {
	case ast.KindHeading:
		if entering {
			b.open(document.KindHeading)
			if h := n.(*ast.Heading); h.Level == 1 && len(b.title) == 0 {
				b.title = strings.TrimSpace(plainText(n, w.src))
			}
		} else {
			b.close()
		}

	case ast.KindParagraph, ast.KindTextBlock:
		if entering {
			b.ensure(w.kind())
		} else {
			b.close()
		}

	case ast.KindBlockquote:
		if entering {
			b.close()
			w.quote++
		} else {
			w.quote--
		}

	case ast.KindListItem:
		if entering {
			b.close()
			b.prefix = listMarker(n)
		} else {
			b.close()
			b.prefix = ""
		}

	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		if entering {
			lines := n.Lines()
			for i := range lines.Len() {
				seg := lines.At(i)
				b.open(w.kind())
				b.raw(strings.TrimRight(string(seg.Value(w.src)), "\r\n"), "")
				if len(b.cur.Inlines) == 0 {
					b.emptyLine()
					continue
				}
				b.close()
			}
		}
		return ast.WalkSkipChildren, nil

	case ast.KindThematicBreak:
		if entering {
			b.emptyLine()
		}

	case ast.KindHTMLBlock, ast.KindRawHTML:
		return ast.WalkSkipChildren, nil

	case ast.KindText:
		if entering {
			t := n.(*ast.Text)
			b.ensure(w.kind())
			b.text(string(t.Segment.Value(w.src)), w.href)
			switch {
			case t.HardLineBreak():
				kind := b.cur.Kind
				b.close()
				b.open(kind)
			case t.SoftLineBreak():
				b.text(" ", w.href)
			}
		}

	case ast.KindString:
		if entering {
			b.ensure(w.kind())
			b.text(string(n.(*ast.String).Value), w.href)
		}

	case ast.KindLink:
		if entering {
			w.href = string(n.(*ast.Link).Destination)
		} else {
			w.href = ""
		}

	case ast.KindAutoLink:
		if entering {
			al := n.(*ast.AutoLink)
			b.ensure(w.kind())
			b.text(string(al.Label(w.src)), string(al.URL(w.src)))
		}
		return ast.WalkSkipChildren, nil

	case ast.KindImage:
		if entering {
			img := n.(*ast.Image)
			dest := string(img.Destination)
			name := strings.TrimSpace(plainText(n, w.src))
			if len(name) == 0 {
				name = path.Base(dest)
			}
			b.ensure(w.kind())
			b.element(name, w.resolve(dest), "")
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

// resolve reads local image referenced by markdown document. Remote
// references are never fetched.
func (w *mdWalker) resolve(dest string) []byte {
	if w.res == nil || len(dest) == 0 {
		return nil
	}
	if u, err := url.Parse(dest); err != nil || len(u.Scheme) > 0 || len(u.Host) > 0 {
		return nil
	}
	name := path.Clean(strings.TrimPrefix(dest, "/"))
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	data, err := fs.ReadFile(w.res, name)
	if err != nil {
		w.b.log.Debug("Unable to resolve image", zap.String("image", dest), zap.Error(err))
		return nil
	}
	return data
}

func listMarker(n ast.Node) string {
	list, ok := n.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "• "
	}
	idx := list.Start
	for s := n.PreviousSibling(); s != nil; s = s.PreviousSibling() {
		idx++
	}
	return fmt.Sprintf("%d%c ", idx, list.Marker)
}

// plainText collects text of inline children.
func plainText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			sb.Write(v.Segment.Value(src))
			if v.SoftLineBreak() || v.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
