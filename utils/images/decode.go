// Package images decodes binaries of embedded elements and prepares them for
// raster surfaces.
package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"rtflow/geom"
)

const mimeSVG = "image/svg+xml"

// ErrNotImage is returned for binaries which are not recognizable images.
var ErrNotImage = errors.New("not an image")

// Sniff returns MIME type of image data, declared type is used only when
// content cannot be recognized. Empty string means data is not an image.
func Sniff(data []byte, declared string) string {
	if kind, err := filetype.Match(data); err == nil && filetype.IsImage(data) {
		return kind.MIME.Value
	}
	if isSVG(data) || strings.EqualFold(declared, mimeSVG) {
		return mimeSVG
	}
	return ""
}

func isSVG(data []byte) bool {
	head := data[:min(len(data), 512)]
	return bytes.Contains(head, []byte("<svg"))
}

// Decode decodes image binary. SVG is rasterized at its intrinsic size.
// Format registration covers gif, jpeg, png, bmp, tiff and webp; jpeg
// orientation is applied.
func Decode(data []byte, declared string) (image.Image, string, error) {
	mime := Sniff(data, declared)
	switch mime {
	case "":
		return nil, "", fmt.Errorf("%w: content type %q", ErrNotImage, declared)
	case mimeSVG:
		img, err := RasterizeSVGToImage(data, 0, 0)
		if err != nil {
			return nil, mime, fmt.Errorf("unable to rasterize svg: %w", err)
		}
		return img, mime, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, mime, fmt.Errorf("unable to decode %s: %w", mime, err)
	}
	return img, mime, nil
}

// CellSize converts pixel size of an image into size in cells of cellW x
// cellH pixels, keeping aspect ratio and fitting into limit (zero limit
// dimension is unbounded). Result is never smaller than one cell.
func CellSize(px image.Point, cellW, cellH float64, limit geom.Size) geom.Size {
	if px.X <= 0 || px.Y <= 0 || cellW <= 0 || cellH <= 0 {
		return geom.Size{Width: 1, Height: 1}
	}
	w := float64(px.X) / cellW
	h := float64(px.Y) / cellH

	scale := 1.0
	if limit.Width > 0 && w > limit.Width {
		scale = limit.Width / w
	}
	if limit.Height > 0 && h*scale > limit.Height {
		scale = limit.Height / h
	}
	return geom.Size{
		Width:  max(math.Round(w*scale), 1),
		Height: max(math.Round(h*scale), 1),
	}
}

// Fit scales image down to fit into w x h box keeping aspect ratio. Images
// already fitting are returned as is.
func Fit(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	if w <= 0 || h <= 0 || (b.Dx() <= w && b.Dy() <= h) {
		return img
	}
	return imaging.Fit(img, w, h, imaging.Lanczos)
}
