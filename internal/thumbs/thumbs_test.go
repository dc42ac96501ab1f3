package thumbs

import (
	"archive/zip"
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborview/harborview/internal/cache"
	"github.com/harborview/harborview/internal/fault"
	"github.com/harborview/harborview/internal/infrastructure/logging"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		path string
		want Kind
	}{
		{"photo.jpg", KindRaster},
		{"photo.JPEG", KindRaster},
		{"pic.webp", KindRaster},
		{"anim.gif", KindAnimated},
		{"icon.svg", KindVector},
		{"book.epub", KindEbook},
		{"clip.mov", KindVideo},
		{"shot.heic", KindHEIF},
		{"doc.pdf", KindNone},
		{"noext", KindNone},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.path))
			assert.Equal(t, tt.want != KindNone, Supported(tt.path))
		})
	}
}

func writePNG(t *testing.T, dir string, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestRasterThumb(t *testing.T) {
	gen := NewGenerator(85, "ffmpeg", logging.NewNop())
	src := writePNG(t, t.TempDir(), 800, 400, color.NRGBA{R: 200, G: 10, B: 10, A: 255})

	data, err := gen.Generate(context.Background(), src, 256)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	// Aspect ratio preserved: longer edge capped at 256.
	assert.Equal(t, 256, img.Bounds().Dx())
	assert.Equal(t, 128, img.Bounds().Dy())
}

func TestRasterThumbFlattensAlpha(t *testing.T) {
	gen := NewGenerator(85, "ffmpeg", logging.NewNop())
	// Fully transparent source must flatten onto white, not black.
	src := writePNG(t, t.TempDir(), 64, 64, color.NRGBA{A: 0})

	data, err := gen.Generate(context.Background(), src, 64)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	r, g, b, _ := img.At(32, 32).RGBA()
	assert.Greater(t, r>>8, uint32(240))
	assert.Greater(t, g>>8, uint32(240))
	assert.Greater(t, b>>8, uint32(240))
}

func TestGenerateUnsupported(t *testing.T) {
	gen := NewGenerator(85, "ffmpeg", logging.NewNop())
	_, err := gen.Generate(context.Background(), "/tmp/file.pdf", 256)
	assert.ErrorIs(t, err, fault.ErrUnsupported)
}

func TestVectorThumb(t *testing.T) {
	gen := NewGenerator(85, "ffmpeg", logging.NewNop())
	svg := `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="50" viewBox="0 0 100 50">
  <rect width="100" height="50" fill="#224488"/>
</svg>`
	src := filepath.Join(t.TempDir(), "icon.svg")
	require.NoError(t, os.WriteFile(src, []byte(svg), 0o644))

	data, err := gen.Generate(context.Background(), src, 200)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())
}

// writeEPUB builds a minimal EPUB: container.xml pointing at an OPF that
// declares a cover image in its manifest.
func writeEPUB(t *testing.T, dir string, coverProps bool) string {
	t.Helper()
	path := filepath.Join(dir, "book.epub")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)

	add := func(name string, data []byte) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}

	add("META-INF/container.xml", []byte(`<?xml version="1.0"?>
<container xmlns="urn:oasis:names:tc:opendocument:xmlns:container" version="1.0">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`))

	var manifestItem string
	if coverProps {
		manifestItem = `<item id="cov" href="images/cover.png" media-type="image/png" properties="cover-image"/>`
	} else {
		manifestItem = `<item id="cover-img" href="images/cover.png" media-type="image/png"/>`
	}
	meta := ""
	if !coverProps {
		meta = `<meta name="cover" content="cover-img"/>`
	}
	add("OEBPS/content.opf", []byte(`<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata>`+meta+`</metadata>
  <manifest>`+manifestItem+`</manifest>
</package>`))

	img := image.NewNRGBA(image.Rect(0, 0, 40, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.NRGBA{R: 50, G: 100, B: 150, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	add("OEBPS/images/cover.png", buf.Bytes())

	require.NoError(t, zw.Close())
	return path
}

func TestEbookThumb(t *testing.T) {
	gen := NewGenerator(85, "ffmpeg", logging.NewNop())

	t.Run("epub3 cover-image property", func(t *testing.T) {
		src := writeEPUB(t, t.TempDir(), true)
		data, err := gen.Generate(context.Background(), src, 128)
		require.NoError(t, err)
		img, err := jpeg.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.LessOrEqual(t, img.Bounds().Dy(), 128)
	})

	t.Run("epub2 meta cover reference", func(t *testing.T) {
		src := writeEPUB(t, t.TempDir(), false)
		data, err := gen.Generate(context.Background(), src, 128)
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	})

	t.Run("cbz first page", func(t *testing.T) {
		src := writeCBZ(t, t.TempDir())
		data, err := gen.Generate(context.Background(), src, 128)
		require.NoError(t, err)
		img, err := jpeg.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		// First page is 30x90, so the thumb stays portrait.
		assert.Greater(t, img.Bounds().Dy(), img.Bounds().Dx())
	})
}

func writeCBZ(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "comic.cbz")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	page := func(name string, w, h int) {
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 255})
			}
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		entry, err := zw.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(buf.Bytes())
		require.NoError(t, err)
	}
	page("002.png", 90, 30)
	page("001.png", 30, 90)

	require.NoError(t, zw.Close())
	return path
}

func TestServiceGet(t *testing.T) {
	c, err := cache.New(cache.Config{Name: "thumbs", Dir: t.TempDir(), Ext: "jpg"}, logging.NewNop(), nil)
	require.NoError(t, err)
	gen := NewGenerator(85, "ffmpeg", logging.NewNop())
	svc := NewService(gen, c, map[string]int{"thumb": 64, "large": 256}, nil)

	src := writePNG(t, t.TempDir(), 200, 200, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	t.Run("generates and caches", func(t *testing.T) {
		first, err := svc.Get(context.Background(), src, "thumb")
		require.NoError(t, err)
		second, err := svc.Get(context.Background(), src, "thumb")
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("unknown size falls back to thumb", func(t *testing.T) {
		data, err := svc.Get(context.Background(), src, "bogus")
		require.NoError(t, err)
		img, err := jpeg.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 64, img.Bounds().Dx())
	})

	t.Run("unsupported bypasses cache", func(t *testing.T) {
		_, err := svc.Get(context.Background(), "/nonexistent/file.xyz", "thumb")
		assert.ErrorIs(t, err, fault.ErrUnsupported)
	})
}
