package thumbs

import (
	"fmt"
	"image"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

// vectorThumb rasterizes an SVG directly at the target size; no separate
// resize pass afterwards.
func (g *Generator) vectorThumb(source string, size int) ([]byte, error) {
	icon, err := oksvg.ReadIcon(source, oksvg.WarnErrorMode)
	if err != nil {
		return nil, fmt.Errorf("parse svg %s: %w", source, err)
	}

	w, h := icon.ViewBox.W, icon.ViewBox.H
	if w <= 0 || h <= 0 {
		w, h = float64(size), float64(size)
	}
	scale := float64(size) / math.Max(w, h)
	outW := int(math.Round(w * scale))
	outH := int(math.Round(h * scale))
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}

	rgba := image.NewRGBA(image.Rect(0, 0, outW, outH))
	icon.SetTarget(0, 0, float64(outW), float64(outH))
	scanner := rasterx.NewScannerGV(outW, outH, rgba, rgba.Bounds())
	icon.Draw(rasterx.NewDasher(outW, outH, scanner), 1.0)

	return g.encodeFlat(rgba)
}
