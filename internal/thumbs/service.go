package thumbs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/harborview/harborview/internal/cache"
	"github.com/harborview/harborview/internal/fault"
)

// Recorder receives thumbnail outcomes. *monitoring.Metrics satisfies it.
type Recorder interface {
	RecordThumbnail(kind, status string, duration time.Duration)
}

// Service combines the generator with a disk cache. Size variants map a
// name ("thumb", "large") to the target pixel size of the longer edge.
type Service struct {
	gen   *Generator
	cache *cache.Cache
	sizes map[string]int
	rec   Recorder
}

// NewService wires a generator to its artifact cache.
func NewService(gen *Generator, c *cache.Cache, sizes map[string]int, rec Recorder) *Service {
	return &Service{gen: gen, cache: c, sizes: sizes, rec: rec}
}

// Get returns the cached JPEG thumbnail for source at the named size,
// generating it on a miss. Unsupported media returns fault.ErrUnsupported
// without touching the cache.
func (s *Service) Get(ctx context.Context, source, sizeName string) ([]byte, error) {
	kind := KindOf(source)
	if kind == KindNone {
		return nil, fmt.Errorf("%s: %w", filepath.Ext(source), fault.ErrUnsupported)
	}

	size, ok := s.sizes[sizeName]
	if !ok {
		sizeName = "thumb"
		size = s.sizes[sizeName]
	}

	return s.cache.GetOrCreate(ctx, source, sizeName, func(ctx context.Context, src, dest string) error {
		start := time.Now()
		data, err := s.gen.Generate(ctx, src, size)
		s.observe(kind, err, time.Since(start))
		if err != nil {
			return err
		}
		return os.WriteFile(dest, data, 0o644)
	})
}

func (s *Service) observe(kind Kind, err error, d time.Duration) {
	if s.rec == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	s.rec.RecordThumbnail(string(kind), status, d)
}
