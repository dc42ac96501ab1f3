package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborview/harborview/internal/fault"
	"github.com/harborview/harborview/internal/infrastructure/logging"
	"github.com/harborview/harborview/internal/sandbox"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	root := t.TempDir()
	sb, err := sandbox.New(root, nil)
	require.NoError(t, err)
	return NewService(sb, logging.NewNop()), sb.Root()
}

func seed(t *testing.T, root string, entries map[string]string) {
	t.Helper()
	for rel, content := range entries {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		if content == "<dir>" {
			require.NoError(t, os.MkdirAll(p, 0o755))
			continue
		}
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func names(items []FileInfo) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestList(t *testing.T) {
	svc, root := newTestService(t)
	seed(t, root, map[string]string{
		"beta.txt":   "bb",
		"alpha.txt":  "a",
		"zdir":       "<dir>",
		".hidden":    "h",
		"gamma.jpeg": "ggg",
	})

	t.Run("directories first, names ascending", func(t *testing.T) {
		listing, err := svc.List("/", SortName, OrderAsc, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"zdir", "alpha.txt", "beta.txt", "gamma.jpeg"}, names(listing.Items))
		assert.Equal(t, 4, listing.TotalItems)
		assert.Equal(t, "/", listing.Path)
		assert.Empty(t, listing.Parent)
	})

	t.Run("hidden entries shown on request", func(t *testing.T) {
		listing, err := svc.List("/", SortName, OrderAsc, true)
		require.NoError(t, err)
		assert.Contains(t, names(listing.Items), ".hidden")
	})

	t.Run("sort by size descending", func(t *testing.T) {
		listing, err := svc.List("/", SortSize, OrderDesc, false)
		require.NoError(t, err)
		// Directories stay in front regardless of sort key.
		assert.Equal(t, "zdir", listing.Items[0].Name)
		assert.Equal(t, "gamma.jpeg", listing.Items[1].Name)
		assert.Equal(t, "alpha.txt", listing.Items[3].Name)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := svc.List("/nope", SortName, OrderAsc, false)
		assert.ErrorIs(t, err, fault.ErrNotFound)
	})

	t.Run("file is not a directory", func(t *testing.T) {
		_, err := svc.List("/alpha.txt", SortName, OrderAsc, false)
		assert.ErrorIs(t, err, fault.ErrInvalid)
	})

	t.Run("subdirectory has parent", func(t *testing.T) {
		listing, err := svc.List("/zdir", SortName, OrderAsc, false)
		require.NoError(t, err)
		assert.Equal(t, "/", listing.Parent)
	})
}

func TestInfo(t *testing.T) {
	svc, root := newTestService(t)
	seed(t, root, map[string]string{"photo.png": "not-a-real-png"})

	info, err := svc.Info("/photo.png")
	require.NoError(t, err)
	assert.Equal(t, "photo.png", info.Name)
	assert.Equal(t, "/photo.png", info.Path)
	assert.Equal(t, TypeFile, info.Type)
	assert.Equal(t, "png", info.Extension)
	assert.True(t, info.HasThumbnail)

	_, err = svc.Info("/missing")
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestMkdir(t *testing.T) {
	svc, _ := newTestService(t)

	info, err := svc.Mkdir("/", "newdir")
	require.NoError(t, err)
	assert.Equal(t, TypeDirectory, info.Type)

	_, err = svc.Mkdir("/", "newdir")
	assert.ErrorIs(t, err, fault.ErrExists)

	_, err = svc.Mkdir("/", "bad/name")
	assert.ErrorIs(t, err, fault.ErrInvalid)
}

func TestDelete(t *testing.T) {
	svc, root := newTestService(t)
	seed(t, root, map[string]string{"a.txt": "a", "d/inner.txt": "i"})

	count, err := svc.Delete([]string{"/a.txt", "/d", "/missing"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = svc.Delete([]string{"../escape"})
	assert.ErrorIs(t, err, fault.ErrPathTraversal)
	assert.Zero(t, count)
}

func TestRename(t *testing.T) {
	svc, root := newTestService(t)
	seed(t, root, map[string]string{"old.txt": "x", "taken.txt": "y"})

	info, err := svc.Rename("/old.txt", "new.txt")
	require.NoError(t, err)
	assert.Equal(t, "new.txt", info.Name)
	assert.NoFileExists(t, filepath.Join(root, "old.txt"))

	_, err = svc.Rename("/new.txt", "taken.txt")
	assert.ErrorIs(t, err, fault.ErrExists)

	_, err = svc.Rename("/missing.txt", "x.txt")
	assert.ErrorIs(t, err, fault.ErrNotFound)
}

func TestCopy(t *testing.T) {
	svc, root := newTestService(t)
	seed(t, root, map[string]string{
		"src.txt":        "payload",
		"tree/a.txt":     "a",
		"tree/sub/b.txt": "b",
		"dest":           "<dir>",
	})

	t.Run("file into directory", func(t *testing.T) {
		info, err := svc.Copy("/src.txt", "/dest", false)
		require.NoError(t, err)
		assert.Equal(t, "/dest/src.txt", info.Path)
		data, err := os.ReadFile(filepath.Join(root, "dest", "src.txt"))
		require.NoError(t, err)
		assert.Equal(t, "payload", string(data))
	})

	t.Run("collision auto-renames", func(t *testing.T) {
		info, err := svc.Copy("/src.txt", "/dest", false)
		require.NoError(t, err)
		assert.Equal(t, "src(1).txt", info.Name)
	})

	t.Run("overwrite replaces", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "src.txt"), []byte("updated"), 0o644))
		info, err := svc.Copy("/src.txt", "/dest/src.txt", true)
		require.NoError(t, err)
		assert.Equal(t, "src.txt", info.Name)
		data, err := os.ReadFile(filepath.Join(root, "dest", "src.txt"))
		require.NoError(t, err)
		assert.Equal(t, "updated", string(data))
	})

	t.Run("directory tree", func(t *testing.T) {
		_, err := svc.Copy("/tree", "/dest", false)
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(root, "dest", "tree", "sub", "b.txt"))
		require.NoError(t, err)
		assert.Equal(t, "b", string(data))
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := svc.Copy("/missing", "/dest", false)
		assert.ErrorIs(t, err, fault.ErrNotFound)
	})
}

func TestMove(t *testing.T) {
	svc, root := newTestService(t)
	seed(t, root, map[string]string{"src.txt": "x", "dest": "<dir>"})

	info, err := svc.Move("/src.txt", "/dest", false)
	require.NoError(t, err)
	assert.Equal(t, "/dest/src.txt", info.Path)
	assert.NoFileExists(t, filepath.Join(root, "src.txt"))
}

func TestReadWriteText(t *testing.T) {
	svc, root := newTestService(t)
	seed(t, root, map[string]string{"note.txt": "hello", "dir": "<dir>"})

	t.Run("round trip", func(t *testing.T) {
		require.NoError(t, svc.WriteText("/note.txt", "updated"))
		content, err := svc.ReadText("/note.txt", 1<<20)
		require.NoError(t, err)
		assert.Equal(t, "updated", content.Content)
		assert.Equal(t, int64(len("updated")), content.Size)
	})

	t.Run("directory rejected", func(t *testing.T) {
		_, err := svc.ReadText("/dir", 1<<20)
		assert.ErrorIs(t, err, fault.ErrInvalid)
	})

	t.Run("size cap", func(t *testing.T) {
		_, err := svc.ReadText("/note.txt", 2)
		assert.ErrorIs(t, err, fault.ErrTooLarge)
	})

	t.Run("binary rejected", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "bin.dat"), []byte{0xff, 0xfe, 0x00, 0x80}, 0o644))
		_, err := svc.ReadText("/bin.dat", 1<<20)
		assert.ErrorIs(t, err, fault.ErrInvalid)
	})
}

func TestSearch(t *testing.T) {
	svc, root := newTestService(t)
	seed(t, root, map[string]string{
		"reports/annual_report.pdf": "x",
		"reports/summary.txt":       "y",
		"music/report_song.mp3":     "z",
		".git/report_hidden.txt":    "h",
	})

	t.Run("case-insensitive substring", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "REPORT", "/", 100)
		require.NoError(t, err)
		found := make([]string, len(results))
		for i, r := range results {
			found[i] = r.Name
		}
		assert.ElementsMatch(t, []string{"reports", "annual_report.pdf", "report_song.mp3"}, found)
	})

	t.Run("hidden trees skipped", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "hidden", "/", 100)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("result cap honored", func(t *testing.T) {
		results, err := svc.Search(context.Background(), "report", "/", 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := svc.Search(ctx, "report", "/", 100)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestGlob(t *testing.T) {
	svc, root := newTestService(t)
	seed(t, root, map[string]string{
		"a/one.jpg": "1",
		"b/two.jpg": "2",
		"b/three.txt": "3",
	})

	results, err := svc.Glob("/", "**/*.jpg", 100)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestDisk(t *testing.T) {
	svc, _ := newTestService(t)

	usage, err := svc.Disk("/")
	require.NoError(t, err)
	assert.Positive(t, usage.Total)
	assert.LessOrEqual(t, usage.Used, usage.Total)
	assert.InDelta(t, float64(usage.Used)/float64(usage.Total)*100, usage.Percent, 0.01)
}

func TestSortStability(t *testing.T) {
	svc, root := newTestService(t)
	now := time.Now()
	seed(t, root, map[string]string{"a.txt": "x", "b.txt": "x", "c.txt": "x"})
	for _, n := range []string{"a.txt", "b.txt", "c.txt"} {
		require.NoError(t, os.Chtimes(filepath.Join(root, n), now, now))
	}

	// Equal keys keep their prior (name) order.
	listing, err := svc.List("/", SortModified, OrderAsc, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "b.txt", "c.txt"}, names(listing.Items))
}
