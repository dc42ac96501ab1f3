package thumbs

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	// Register decoders beyond imaging's defaults.
	_ "golang.org/x/image/webp"
)

// rasterThumb decodes, downsizes and re-encodes a raster image.
func (g *Generator) rasterThumb(source string, size int) ([]byte, error) {
	img, err := imaging.Open(source)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", source, err)
	}
	return g.encode(img, size)
}

// encode shrinks img so its longer edge is at most size, flattens any alpha
// onto a white background and encodes JPEG at the configured quality.
func (g *Generator) encode(img image.Image, size int) ([]byte, error) {
	img = imaging.Fit(img, size, size, imaging.Lanczos)
	return g.encodeFlat(img)
}

// encodeFlat is encode without the resize pass, for sources rasterized at
// target size already.
func (g *Generator) encodeFlat(img image.Image) ([]byte, error) {
	bounds := img.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	flat = imaging.Overlay(flat, img, image.Pt(0, 0), 1.0)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, flat, imaging.JPEG, imaging.JPEGQuality(g.quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
