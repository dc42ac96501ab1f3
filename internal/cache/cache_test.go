package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborview/harborview/internal/fault"
	"github.com/harborview/harborview/internal/infrastructure/logging"
)

func newTestCache(t *testing.T, cfg Config) *Cache {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	if cfg.Name == "" {
		cfg.Name = "test"
	}
	if cfg.Ext == "" {
		cfg.Ext = "bin"
	}
	c, err := New(cfg, logging.NewNop(), nil)
	require.NoError(t, err)
	return c
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func staticProducer(content string) Producer {
	return func(ctx context.Context, source, dest string) error {
		return os.WriteFile(dest, []byte(content), 0o644)
	}
}

func TestGetOrCreateProducesOnce(t *testing.T) {
	c := newTestCache(t, Config{})
	src := writeSource(t, "a.txt", "hello")

	var calls atomic.Int32
	producer := func(ctx context.Context, source, dest string) error {
		calls.Add(1)
		return os.WriteFile(dest, []byte("artifact"), 0o644)
	}

	got, err := c.GetOrCreate(context.Background(), src, "v1", producer)
	require.NoError(t, err)
	assert.Equal(t, "artifact", string(got))

	got, err = c.GetOrCreate(context.Background(), src, "v1", producer)
	require.NoError(t, err)
	assert.Equal(t, "artifact", string(got))

	assert.Equal(t, int32(1), calls.Load(), "second call must be a cache hit")
}

func TestSingleFlight(t *testing.T) {
	c := newTestCache(t, Config{})
	src := writeSource(t, "a.txt", "hello")

	var calls atomic.Int32
	release := make(chan struct{})
	producer := func(ctx context.Context, source, dest string) error {
		calls.Add(1)
		<-release
		return os.WriteFile(dest, []byte("artifact"), 0o644)
	}

	const n = 8
	var wg sync.WaitGroup
	results := make([]string, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := c.GetOrCreate(context.Background(), src, "v1", producer)
			results[i], errs[i] = string(b), err
		}(i)
	}

	// Let every goroutine reach the hit-check or the wait before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load(), "exactly one producer run for concurrent callers")
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "artifact", results[i])
	}
}

func TestKeySensitivity(t *testing.T) {
	c := newTestCache(t, Config{})
	src := writeSource(t, "a.txt", "hello")

	k1, err := c.Key(src, "thumb")
	require.NoError(t, err)

	t.Run("variant changes key", func(t *testing.T) {
		k2, err := c.Key(src, "large")
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)
	})

	t.Run("mtime changes key", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(src, past, past))
		k2, err := c.Key(src, "thumb")
		require.NoError(t, err)
		assert.NotEqual(t, k1, k2)
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := c.Key(filepath.Join(t.TempDir(), "gone"), "thumb")
		assert.ErrorIs(t, err, fault.ErrNotFound)
	})
}

func TestProducerFailure(t *testing.T) {
	c := newTestCache(t, Config{})
	src := writeSource(t, "a.txt", "hello")
	boom := errors.New("boom")

	_, err := c.GetOrCreate(context.Background(), src, "v1", func(ctx context.Context, source, dest string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// No partial entry and no leftover temp file.
	dirents, readErr := os.ReadDir(c.cfg.Dir)
	require.NoError(t, readErr)
	assert.Empty(t, dirents)

	// The key is retryable after a failed attempt.
	got, err := c.GetOrCreate(context.Background(), src, "v1", staticProducer("ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", string(got))
}

func TestEmptyOutputRejected(t *testing.T) {
	c := newTestCache(t, Config{})
	src := writeSource(t, "a.txt", "hello")

	_, err := c.GetOrCreate(context.Background(), src, "v1", func(ctx context.Context, source, dest string) error {
		return os.WriteFile(dest, nil, 0o644)
	})
	assert.ErrorIs(t, err, fault.ErrUnavailable)
}

func TestCachedPath(t *testing.T) {
	c := newTestCache(t, Config{})
	src := writeSource(t, "a.txt", "hello")

	got, err := c.CachedPath(src, "v1")
	require.NoError(t, err)
	assert.Empty(t, got, "miss returns empty path")

	_, err = c.GetOrCreatePath(context.Background(), src, "v1", staticProducer("artifact"))
	require.NoError(t, err)

	got, err = c.CachedPath(src, "v1")
	require.NoError(t, err)
	assert.NotEmpty(t, got)
}

func TestEvictionBound(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, Config{
		Dir:        dir,
		MaxBytes:   40,
		EvictEvery: 1, // evict after every write so the bound holds promptly
	})

	payload := staticProducer("0123456789") // 10 bytes each
	for i := 0; i < 8; i++ {
		src := writeSource(t, "src.txt", "content")
		_, err := c.GetOrCreatePath(context.Background(), src, "v", payload)
		require.NoError(t, err)
		// Space out access times so the LRU order is deterministic.
		time.Sleep(5 * time.Millisecond)
	}

	var total int64
	dirents, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, d := range dirents {
		info, err := d.Info()
		require.NoError(t, err)
		total += info.Size()
	}
	assert.LessOrEqual(t, total, int64(40), "cache size must stay within the bound")
}

func TestEvictionPrefersOldest(t *testing.T) {
	dir := t.TempDir()
	c := newTestCache(t, Config{Dir: dir, MaxBytes: 25, EvictEvery: 1})

	oldSrc := writeSource(t, "old.txt", "old")
	newSrc := writeSource(t, "new.txt", "new")

	oldPath, err := c.GetOrCreatePath(context.Background(), oldSrc, "v", staticProducer("0123456789"))
	require.NoError(t, err)
	// Age the first entry well past the second.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(oldPath, past, past))

	newPath, err := c.GetOrCreatePath(context.Background(), newSrc, "v", staticProducer("0123456789"))
	require.NoError(t, err)

	// Third write pushes total over 25 bytes and triggers eviction.
	thirdSrc := writeSource(t, "third.txt", "third")
	thirdPath, err := c.GetOrCreatePath(context.Background(), thirdSrc, "v", staticProducer("0123456789"))
	require.NoError(t, err)

	assert.NoFileExists(t, oldPath, "oldest entry evicted first")
	assert.FileExists(t, newPath)
	assert.FileExists(t, thirdPath)
}

func TestClear(t *testing.T) {
	c := newTestCache(t, Config{})
	src := writeSource(t, "a.txt", "hello")

	_, err := c.GetOrCreatePath(context.Background(), src, "v1", staticProducer("x"))
	require.NoError(t, err)
	_, err = c.GetOrCreatePath(context.Background(), src, "v2", staticProducer("y"))
	require.NoError(t, err)

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
}
