package paginate

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"rtflow/archive"
)

// sourceExts lists extensions of files recognized as source documents.
var sourceExts = []string{".fb2", ".txt", ".md", ".markdown"}

var isSourceName = archive.ByExt(sourceExts...)

// isArchiveFile checks zip file signature of files with .zip extension.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	// 262 bytes is all filetype ever looks at
	head := make([]byte, 262)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	return filetype.Is(head[:n], "zip"), nil
}
