package thumbs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/harborview/harborview/internal/fault"
	"github.com/harborview/harborview/internal/infrastructure/logging"
)

// Kind is the media category a source file dispatches to.
type Kind string

const (
	KindRaster   Kind = "raster"
	KindAnimated Kind = "animated"
	KindVector   Kind = "vector"
	KindEbook    Kind = "ebook"
	KindVideo    Kind = "video"
	KindHEIF     Kind = "heif"
	KindNone     Kind = ""
)

var kindByExt = map[string]Kind{
	".jpg": KindRaster, ".jpeg": KindRaster, ".png": KindRaster,
	".webp": KindRaster, ".bmp": KindRaster, ".tif": KindRaster, ".tiff": KindRaster,
	".gif":  KindAnimated,
	".svg":  KindVector,
	".epub": KindEbook, ".cbz": KindEbook,
	".heic": KindHEIF, ".heif": KindHEIF,
	".mp4": KindVideo, ".mkv": KindVideo, ".avi": KindVideo, ".mov": KindVideo,
	".webm": KindVideo, ".flv": KindVideo, ".wmv": KindVideo, ".m4v": KindVideo,
	".ts": KindVideo, ".mts": KindVideo, ".m2ts": KindVideo,
}

// KindOf returns the media category for a path, KindNone if unsupported.
func KindOf(path string) Kind {
	return kindByExt[strings.ToLower(filepath.Ext(path))]
}

// Supported reports whether a thumbnail can be attempted for path.
func Supported(path string) bool {
	return KindOf(path) != KindNone
}

// Generator produces bounded-size JPEG previews for media files. It is a
// pure mapping from (file, target size) to JPEG bytes; callers own caching.
type Generator struct {
	quality int
	ffmpeg  string
	log     *logging.Logger
}

// NewGenerator creates a generator encoding JPEGs at the given quality.
// ffmpegPath may name a missing binary; video and HEIF sources then degrade
// to unsupported instead of failing the whole service.
func NewGenerator(quality int, ffmpegPath string, log *logging.Logger) *Generator {
	return &Generator{quality: quality, ffmpeg: ffmpegPath, log: log}
}

// Generate renders a JPEG whose longer edge is at most size pixels.
// Returns fault.ErrUnsupported for media with no generator.
func (g *Generator) Generate(ctx context.Context, source string, size int) ([]byte, error) {
	switch KindOf(source) {
	case KindRaster, KindAnimated:
		// Animated sources decode to their first frame.
		return g.rasterThumb(source, size)
	case KindVector:
		return g.vectorThumb(source, size)
	case KindEbook:
		return g.ebookThumb(source, size)
	case KindVideo:
		return g.videoThumb(ctx, source, size, true)
	case KindHEIF:
		// No native decoder; ffmpeg handles these when present.
		return g.videoThumb(ctx, source, size, false)
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Ext(source), fault.ErrUnsupported)
	}
}
