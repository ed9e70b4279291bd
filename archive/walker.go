// Package archive walks zip archives looking for loadable documents. Reading
// is done with github.com/hidez8891/zip which tolerates archives produced by
// old tools (non UTF-8 names, broken data descriptors).
package archive

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/hidez8891/zip"
)

// MatchFunc selects archive entries by name.
type MatchFunc func(name string) bool

// WalkFunc is called for each regular file in archive selected by MatchFunc.
// The archive argument is path passed to Walk. If an error is returned,
// processing stops and Walk returns it.
type WalkFunc func(archive string, file *zip.File) error

// Walk calls walkFn for every regular file in the archive accepted by match,
// in archive order. Nil match accepts everything. Entries with absolute paths
// or ".." components make the whole archive unacceptable.
func Walk(archive string, match MatchFunc, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || (match != nil && !match(name)) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// ByExt matches names ending with one of the extensions, case insensitive.
// Extensions may be compound, e.g. ".fb2.zip".
func ByExt(exts ...string) MatchFunc {
	return func(name string) bool {
		lname := strings.ToLower(name)
		for _, ext := range exts {
			if strings.HasSuffix(lname, strings.ToLower(ext)) {
				return true
			}
		}
		return false
	}
}

// ReadFile returns content of archive entry. Entries larger than limit bytes
// are rejected, limit <= 0 means no limit.
func ReadFile(f *zip.File, limit int64) ([]byte, error) {
	if limit > 0 && int64(f.UncompressedSize64) > limit {
		return nil, fmt.Errorf("zip entry %q is too large: %d bytes", f.Name, f.UncompressedSize64)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open zip entry %q: %w", f.Name, err)
	}
	defer rc.Close()

	var src io.Reader = rc
	if limit > 0 {
		src = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("unable to read zip entry %q: %w", f.Name, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("zip entry %q is too large", f.Name)
	}
	return data, nil
}

// isSafePath returns false for absolute paths and paths with ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(strings.ReplaceAll(name, `\`, "/"), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
