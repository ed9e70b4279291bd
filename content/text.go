package content

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"rtflow/document"
)

// loadText reads plain text: paragraphs are separated by empty lines, single
// line breaks inside paragraph are flowed.
func loadText(b *builder, data []byte) error {
	data, err := decodeText(data, b.log)
	if err != nil {
		return err
	}

	for block := range strings.SplitSeq(string(data), "\n\n") {
		if len(strings.TrimSpace(block)) == 0 {
			continue
		}
		b.open(document.KindBody)
		b.text(block, "")
		b.close()
	}
	return nil
}

// decodeText converts text to UTF-8 and normalizes line ends.
func decodeText(data []byte, log *zap.Logger) ([]byte, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		enc, name, _ := charset.DetermineEncoding(data, "text/plain")
		log.Debug("Text is not UTF-8, converting", zap.String("charset", name))
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("unable to decode %s text: %w", name, err)
		}
		data = out
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))

	// lines holding only white space separate paragraphs too
	lines := bytes.Split(data, []byte("\n"))
	for i, l := range lines {
		if len(bytes.TrimSpace(l)) == 0 {
			lines[i] = nil
		}
	}
	return bytes.Join(lines, []byte("\n")), nil
}
