// Package content loads source documents (plain text, Markdown, FB2) into
// block collections ready to be flowed through linked containers.
package content

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rtflow/config"
	"rtflow/document"
	"rtflow/state"
)

// Source is loaded document together with everything surfaces may need to
// draw it.
type Source struct {
	Name   string
	Format config.SourceFormat
	Title  string
	Doc    *document.Collection
	// Images has decoded pictures of embedded elements, keyed by element ID.
	Images map[uuid.UUID]image.Image
}

// Load reads, detects and parses source document. Relative image references
// of Markdown documents are resolved against res, which may be nil.
func Load(ctx context.Context, r io.Reader, srcName string, res fs.FS, log *zap.Logger) (*Source, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	env := state.EnvFromContext(ctx)
	cfg := &env.Cfg.Document

	data, err := readLimited(r, cfg.MaxFileSize)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", srcName, err)
	}

	format := cfg.Format
	if format == config.SourceFormatAuto {
		format = DetectFormat(srcName, data)
	}
	log = log.With(zap.Stringer("format", format))

	b := newBuilder(cfg, log)
	switch format {
	case config.SourceFormatText:
		err = loadText(b, data)
	case config.SourceFormatMarkdown:
		err = loadMarkdown(b, data, res)
	case config.SourceFormatFb2:
		err = loadFB2(b, data)
	default:
		panic(fmt.Sprintf("unexpected source format %s", format))
	}
	if err != nil {
		return nil, fmt.Errorf("unable to load %s: %w", srcName, err)
	}

	src := &Source{
		Name:   srcName,
		Format: format,
		Title:  b.title,
		Doc:    document.NewCollection(b.finish()...),
		Images: b.images,
	}
	if len(src.Title) == 0 {
		src.Title = BaseName(srcName)
	}

	if env.Rpt != nil {
		env.Rpt.StoreData(filepath.Base(srcName)+"_loaded.txt", []byte(src.Doc.Text(0, src.Doc.Len())))
	}

	log.Debug("Source loaded",
		zap.String("name", srcName),
		zap.String("title", src.Title),
		zap.Int("paragraphs", src.Doc.Count()),
		zap.Int("length", src.Doc.Len()),
		zap.Int("images", len(src.Images)))
	return src, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("source is larger than %d bytes", limit)
	}
	return data, nil
}

// DetectFormat selects source format by file name extension and, when
// extension is not known, by content.
func DetectFormat(name string, head []byte) config.SourceFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".fb2":
		return config.SourceFormatFb2
	case ".md", ".markdown":
		return config.SourceFormatMarkdown
	case ".txt":
		return config.SourceFormatText
	}

	head = head[:min(len(head), 1024)]
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	if bytes.HasPrefix(bytes.TrimSpace(head), []byte("<?xml")) && bytes.Contains(head, []byte("<FictionBook")) {
		return config.SourceFormatFb2
	}
	return config.SourceFormatText
}

// BaseName returns file name without directories and known source
// extensions, "book.fb2.zip" becomes "book".
func BaseName(name string) string {
	base := filepath.Base(filepath.ToSlash(name))
	for {
		ext := strings.ToLower(filepath.Ext(base))
		switch ext {
		case ".zip", ".fb2", ".md", ".markdown", ".txt":
			base = base[:len(base)-len(ext)]
			continue
		}
		return base
	}
}
