package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harborview/harborview/internal/fault"
	"github.com/harborview/harborview/internal/infrastructure/logging"
)

// Producer computes the derived artifact for source and writes it to dest.
// It must leave dest absent (or empty) on failure; the cache discards
// whatever is there when an error is returned.
type Producer func(ctx context.Context, source, dest string) error

// Recorder receives cache events. *monitoring.Metrics satisfies it.
type Recorder interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	RecordCacheWait(cache string)
	RecordEviction(cache string, removed int, sizeBytes int64)
	RecordProducerFailure(cache string)
}

// Config defines one cache instance.
type Config struct {
	// Name labels metrics and log lines ("thumbs", "video").
	Name string
	// Dir is the cache directory, created if missing.
	Dir string
	// Ext is the artifact file extension without dot ("jpg", "mp4").
	Ext string
	// MaxBytes bounds the total size of entries; 0 means unbounded.
	MaxBytes int64
	// EvictEvery triggers an eviction pass after this many successful
	// writes. Defaults to 10.
	EvictEvery int
}

// Cache is a disk-backed cache of derived artifacts keyed by source file
// identity and variant. Concurrent requests for the same key collapse to a
// single producer run; completed artifacts become visible atomically.
type Cache struct {
	cfg      Config
	log      *logging.Logger
	rec      Recorder
	mu       sync.Mutex
	inflight map[string]chan struct{}
	writes   int
}

// New creates a cache over cfg.Dir, creating the directory if needed.
func New(cfg Config, log *logging.Logger, rec Recorder) (*Cache, error) {
	if cfg.EvictEvery <= 0 {
		cfg.EvictEvery = 10
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir %s: %w", cfg.Dir, err)
	}
	return &Cache{
		cfg:      cfg,
		log:      log,
		rec:      rec,
		inflight: make(map[string]chan struct{}),
	}, nil
}

// Key derives the cache key for (source, variant) from the source's stat.
// Any change to the source's size or mtime changes the key, so stale
// artifacts are never served. Returns fault.ErrNotFound if source vanished.
func (c *Cache) Key(source, variant string) (string, error) {
	info, err := os.Stat(source)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%s: %w", source, fault.ErrNotFound)
		}
		return "", err
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d|%s",
		source, info.ModTime().UnixNano(), info.Size(), variant))
	return hex.EncodeToString(sum[:]), nil
}

// EntryPath returns the canonical on-disk path for a key.
func (c *Cache) EntryPath(key string) string {
	return filepath.Join(c.cfg.Dir, key+"."+c.cfg.Ext)
}

// CachedPath returns the artifact path for (source, variant) if it is
// already cached, bumping its access time. Returns "" on a miss.
func (c *Cache) CachedPath(source, variant string) (string, error) {
	key, err := c.Key(source, variant)
	if err != nil {
		return "", err
	}
	entry := c.EntryPath(key)
	if _, err := os.Stat(entry); err != nil {
		return "", nil
	}
	c.touch(entry)
	return entry, nil
}

// GetOrCreatePath returns the artifact path for (source, variant),
// producing it on a miss. At most one producer runs per key at a time;
// concurrent callers wait on its completion and observe the same outcome.
func (c *Cache) GetOrCreatePath(ctx context.Context, source, variant string, produce Producer) (string, error) {
	key, err := c.Key(source, variant)
	if err != nil {
		return "", err
	}
	entry := c.EntryPath(key)

	// Hit path needs no lock: entries appear atomically via rename.
	if _, err := os.Stat(entry); err == nil {
		c.touch(entry)
		c.record(func(r Recorder) { r.RecordCacheHit(c.cfg.Name) })
		return entry, nil
	}

	c.mu.Lock()
	if done, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		c.record(func(r Recorder) { r.RecordCacheWait(c.cfg.Name) })
		select {
		case <-done:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		if _, err := os.Stat(entry); err == nil {
			c.touch(entry)
			return entry, nil
		}
		// The prior attempt failed; report unavailable rather than
		// piling a duplicate producer run onto a broken source.
		return "", fmt.Errorf("%s %s: %w", c.cfg.Name, variant, fault.ErrUnavailable)
	}
	done := make(chan struct{})
	c.inflight[key] = done
	c.mu.Unlock()

	c.record(func(r Recorder) { r.RecordCacheMiss(c.cfg.Name) })
	path, err := c.produce(ctx, source, variant, entry, produce)
	c.mu.Lock()
	delete(c.inflight, key)
	c.mu.Unlock()
	close(done)
	return path, err
}

// GetOrCreate is GetOrCreatePath for small artifacts, returning the bytes.
func (c *Cache) GetOrCreate(ctx context.Context, source, variant string, produce Producer) ([]byte, error) {
	path, err := c.GetOrCreatePath(ctx, source, variant, produce)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func (c *Cache) produce(ctx context.Context, source, variant, entry string, produce Producer) (string, error) {
	// A producer for this key may have finished between the miss check and
	// the in-flight registration.
	if _, err := os.Stat(entry); err == nil {
		c.touch(entry)
		return entry, nil
	}

	tmp := entry + ".tmp"
	err := produce(ctx, source, tmp)
	if err == nil {
		if info, statErr := os.Stat(tmp); statErr != nil || info.Size() == 0 {
			err = fmt.Errorf("producer left no output: %w", fault.ErrUnavailable)
		}
	}
	if err != nil {
		os.Remove(tmp)
		c.record(func(r Recorder) { r.RecordProducerFailure(c.cfg.Name) })
		c.log.Warn("artifact production failed",
			zap.String("cache", c.cfg.Name),
			zap.String("source", source),
			zap.String("variant", variant),
			zap.Error(err))
		return "", err
	}

	// Atomic visibility: the entry appears fully written or not at all.
	if err := os.Rename(tmp, entry); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish cache entry: %w", err)
	}

	c.mu.Lock()
	c.writes++
	runEviction := c.cfg.MaxBytes > 0 && c.writes%c.cfg.EvictEvery == 0
	c.mu.Unlock()
	if runEviction {
		c.evict()
	}

	return entry, nil
}

// touch bumps the entry's timestamps so eviction treats it as recently used.
func (c *Cache) touch(entry string) {
	now := time.Now()
	os.Chtimes(entry, now, now)
}

type entryStat struct {
	path    string
	size    int64
	lastUse time.Time
}

// evict removes entries oldest-access-first until the total size is within
// the bound. In-progress temp files are never candidates.
func (c *Cache) evict() {
	dirents, err := os.ReadDir(c.cfg.Dir)
	if err != nil {
		c.log.Warn("eviction scan failed", zap.String("cache", c.cfg.Name), zap.Error(err))
		return
	}

	var entries []entryStat
	var total int64
	suffix := "." + c.cfg.Ext
	for _, d := range dirents {
		name := d.Name()
		if d.IsDir() || !strings.HasSuffix(name, suffix) || strings.HasSuffix(name, ".tmp") {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		entries = append(entries, entryStat{
			path:    filepath.Join(c.cfg.Dir, name),
			size:    info.Size(),
			lastUse: info.ModTime(),
		})
		total += info.Size()
	}

	if total <= c.cfg.MaxBytes {
		c.record(func(r Recorder) { r.RecordEviction(c.cfg.Name, 0, total) })
		return
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastUse.Before(entries[j].lastUse)
	})

	removed := 0
	for _, e := range entries {
		if total <= c.cfg.MaxBytes {
			break
		}
		if err := os.Remove(e.path); err != nil {
			continue
		}
		total -= e.size
		removed++
	}

	c.record(func(r Recorder) { r.RecordEviction(c.cfg.Name, removed, total) })
	if removed > 0 {
		c.log.Info("cache eviction",
			zap.String("cache", c.cfg.Name),
			zap.Int("removed", removed),
			zap.Int64("size_bytes", total))
	}
}

// Clear removes every entry, returning the number removed.
func (c *Cache) Clear() (int, error) {
	dirents, err := os.ReadDir(c.cfg.Dir)
	if err != nil {
		return 0, err
	}
	suffix := "." + c.cfg.Ext
	removed := 0
	for _, d := range dirents {
		if d.IsDir() || !strings.HasSuffix(d.Name(), suffix) {
			continue
		}
		if os.Remove(filepath.Join(c.cfg.Dir, d.Name())) == nil {
			removed++
		}
	}
	return removed, nil
}

func (c *Cache) record(fn func(Recorder)) {
	if c.rec != nil {
		fn(c.rec)
	}
}
