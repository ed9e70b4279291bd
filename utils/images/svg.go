package images

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// defaultSVGSize is used when viewBox has no size.
const defaultSVGSize = 512

// maxRasterDim limits raster size of hostile SVGs with huge viewBox.
var maxRasterDim = 4096

// RasterizeSVGToImage rasterizes SVG onto white RGBA background.
//
// Rules:
//   - targetW == 0 && targetH == 0: viewBox dimensions
//   - only one of targetW/targetH > 0: scale by that dimension keeping aspect ratio
//   - both > 0: fit into the box keeping aspect ratio
func RasterizeSVGToImage(svgData []byte, targetW, targetH int) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, err
	}

	intr := image.Pt(int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H)))
	if intr.X <= 0 {
		intr.X = defaultSVGSize
	}
	if intr.Y <= 0 {
		intr.Y = defaultSVGSize
	}
	sz := targetSize(intr, targetW, targetH)

	icon.SetTarget(0, 0, float64(sz.X), float64(sz.Y))

	dst := image.NewRGBA(image.Rectangle{Max: sz})
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(sz.X, sz.Y, dst, dst.Bounds())
	icon.Draw(rasterx.NewDasher(sz.X, sz.Y, scanner), 1.0)
	return dst, nil
}

func targetSize(intr image.Point, targetW, targetH int) image.Point {
	w, h := float64(intr.X), float64(intr.Y)
	switch {
	case targetW > 0 && targetH > 0:
		s := min(float64(targetW)/w, float64(targetH)/h)
		w, h = w*s, h*s
	case targetW > 0:
		w, h = float64(targetW), float64(targetW)*h/w
	case targetH > 0:
		w, h = float64(targetH)*w/h, float64(targetH)
	}
	if limit := float64(maxRasterDim); w > limit || h > limit {
		s := min(limit/w, limit/h)
		w, h = w*s, h*s
	}
	return image.Pt(max(int(math.Round(w)), 1), max(int(math.Round(h)), 1))
}
