package trash

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charlievieth/fastwalk"
	"go.uber.org/zap"

	"github.com/harborview/harborview/internal/fault"
	"github.com/harborview/harborview/internal/files"
	"github.com/harborview/harborview/internal/infrastructure/logging"
	"github.com/harborview/harborview/internal/sandbox"
)

const manifestName = ".manifest.json"

// Entry is one manifest record. The manifest is the single source of truth
// for original-path recovery; the physical trash filename carries only a
// timestamp and basename, not the original nesting. Schema evolution must
// be additive (new optional fields only).
type Entry struct {
	ID           string    `json:"id"`
	OriginalPath string    `json:"original_path"`
	TrashName    string    `json:"trash_name"`
	DeletedAt    time.Time `json:"deleted_at"`
}

// Item is the user-facing view of a live trash entry.
type Item struct {
	Name         string    `json:"name"`
	OriginalName string    `json:"original_name"`
	OriginalPath string    `json:"original_path"`
	Path         string    `json:"path"`
	Type         string    `json:"type"`
	Size         int64     `json:"size"`
	Modified     time.Time `json:"modified"`
	DeletedAt    time.Time `json:"deleted_at"`
	Extension    string    `json:"extension,omitempty"`
}

// Recorder receives trash events. *monitoring.Metrics satisfies it.
type Recorder interface {
	RecordTrashOp(op string)
	SetTrashItems(count int)
}

// Trash implements reversible delete backed by a manifest file. Every
// operation holds the mutex for its whole read-modify-write, so concurrent
// calls never interleave manifest reads and writes. The filesystem is
// always updated before the manifest: a crash mid-operation leaves at worst
// an orphaned manifest entry, never a lost file.
type Trash struct {
	sb           *sandbox.Sandbox
	dir          string
	manifestPath string
	mu           sync.Mutex
	log          *logging.Logger
	rec          Recorder
}

// New creates the trash over dirName under the sandbox's primary root.
func New(sb *sandbox.Sandbox, dirName string, log *logging.Logger, rec Recorder) *Trash {
	dir := filepath.Join(sb.Root(), dirName)
	return &Trash{
		sb:           sb,
		dir:          dir,
		manifestPath: filepath.Join(dir, manifestName),
		log:          log,
		rec:          rec,
	}
}

// Dir returns the absolute trash directory.
func (t *Trash) Dir() string { return t.dir }

// MoveToTrash soft-deletes each path, returning the number moved. Missing
// sources are skipped silently; the trash directory itself can never be
// trashed. Sandbox violations abort the batch after persisting what already
// moved.
func (t *Trash) MoveToTrash(paths []string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return 0, err
	}
	manifest, err := t.readManifest()
	if err != nil {
		return 0, err
	}

	moved := 0
	var structural error
	for _, p := range paths {
		resolved, err := t.sb.Resolve(p)
		if err != nil {
			structural = err
			break
		}
		if _, err := os.Lstat(resolved); err != nil {
			continue
		}
		if resolved == t.dir || strings.HasPrefix(resolved, t.dir+string(filepath.Separator)) {
			continue
		}

		// Millisecond timestamp plus basename; bump the timestamp until
		// the physical name is free.
		ts := time.Now().UnixMilli()
		base := filepath.Base(resolved)
		trashName := fmt.Sprintf("%d_%s", ts, base)
		for exists(filepath.Join(t.dir, trashName)) {
			ts++
			trashName = fmt.Sprintf("%d_%s", ts, base)
		}

		// files.MovePath falls back to copy+delete for mount-resident
		// sources, which live on a different device than the trash dir.
		if err := files.MovePath(resolved, filepath.Join(t.dir, trashName)); err != nil {
			t.log.Warn("move to trash failed", zap.String("path", p), zap.Error(err))
			continue
		}
		manifest = append(manifest, Entry{
			ID:           trashName,
			OriginalPath: t.sb.Relativize(resolved),
			TrashName:    trashName,
			DeletedAt:    time.Now(),
		})
		moved++
	}

	if err := t.writeManifest(manifest); err != nil {
		return moved, err
	}
	t.observe("move", len(manifest))
	return moved, structural
}

// List returns metadata for every manifest entry whose physical item still
// exists. Entries with a missing item are omitted but not pruned here;
// restore and fresh writes handle pruning.
func (t *Trash) List() ([]Item, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	manifest, err := t.readManifest()
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(manifest))
	for _, e := range manifest {
		p := filepath.Join(t.dir, e.TrashName)
		info, err := os.Lstat(p)
		if err != nil {
			t.log.Debug("orphaned manifest entry", zap.String("id", e.ID))
			continue
		}

		originalName := e.TrashName
		if _, rest, ok := strings.Cut(e.TrashName, "_"); ok {
			originalName = rest
		}

		item := Item{
			Name:         e.TrashName,
			OriginalName: originalName,
			OriginalPath: e.OriginalPath,
			Path:         t.sb.Relativize(p),
			Type:         "file",
			Size:         info.Size(),
			Modified:     info.ModTime(),
			DeletedAt:    e.DeletedAt,
		}
		if info.IsDir() {
			item.Type = "directory"
			item.Size = 0
		} else if ext := filepath.Ext(e.TrashName); ext != "" {
			item.Extension = strings.ToLower(ext[1:])
		}
		items = append(items, item)
	}
	t.observe("list", len(items))
	return items, nil
}

// Restore moves items back to their original locations, recreating missing
// parent directories and resolving name collisions with a "(n)" suffix. An
// id whose physical item is already gone counts as resolved: the stale
// entry is dropped without incrementing the count.
func (t *Trash) Restore(ids []string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	manifest, err := t.readManifest()
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, id := range ids {
		idx := indexOf(manifest, id)
		if idx < 0 {
			continue
		}
		e := manifest[idx]

		trashPath := filepath.Join(t.dir, e.TrashName)
		if !exists(trashPath) {
			t.log.Warn("pruning orphaned trash entry",
				zap.String("id", e.ID), zap.Error(fault.ErrManifest))
			manifest = remove(manifest, idx)
			continue
		}

		dest, err := t.sb.Resolve(e.OriginalPath)
		if err != nil {
			t.log.Error("restore target escapes sandbox",
				zap.String("id", e.ID), zap.Error(err))
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			t.log.Warn("restore mkdir failed", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		dest = nextFree(dest)

		if err := files.MovePath(trashPath, dest); err != nil {
			t.log.Warn("restore failed", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		manifest = remove(manifest, idx)
		restored++
	}

	if err := t.writeManifest(manifest); err != nil {
		return restored, err
	}
	t.observe("restore", len(manifest))
	return restored, nil
}

// DeletePermanent removes items (recursively for directories) and drops
// their entries. Unknown ids are no-ops counted as zero.
func (t *Trash) DeletePermanent(ids []string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	manifest, err := t.readManifest()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, id := range ids {
		// Ids are single path components by construction; anything else
		// could reach outside the trash directory.
		if filepath.Base(id) != id {
			continue
		}
		p := filepath.Join(t.dir, id)
		if exists(p) {
			if err := os.RemoveAll(p); err != nil {
				t.log.Warn("permanent delete failed", zap.String("id", id), zap.Error(err))
				continue
			}
			deleted++
		}
		if idx := indexOf(manifest, id); idx >= 0 {
			manifest = remove(manifest, idx)
		}
	}

	if err := t.writeManifest(manifest); err != nil {
		return deleted, err
	}
	t.observe("delete", len(manifest))
	return deleted, nil
}

// Empty removes every item referenced by the manifest and replaces the
// manifest with an empty list.
func (t *Trash) Empty() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	manifest, err := t.readManifest()
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, e := range manifest {
		p := filepath.Join(t.dir, e.TrashName)
		if !exists(p) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			t.log.Warn("empty trash: delete failed", zap.String("id", e.ID), zap.Error(err))
			continue
		}
		deleted++
	}

	if err := t.writeManifest([]Entry{}); err != nil {
		return deleted, err
	}
	t.observe("empty", 0)
	return deleted, nil
}

// Info returns the count of live entries and their recursive total size.
func (t *Trash) Info() (count int, size int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	manifest, err := t.readManifest()
	if err != nil {
		return 0, 0, err
	}

	var total atomic.Int64
	for _, e := range manifest {
		p := filepath.Join(t.dir, e.TrashName)
		info, err := os.Lstat(p)
		if err != nil {
			continue
		}
		count++
		if !info.IsDir() {
			total.Add(info.Size())
			continue
		}
		conf := fastwalk.Config{Follow: false}
		fastwalk.Walk(&conf, p, func(path string, d os.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if fi, err := d.Info(); err == nil {
				total.Add(fi.Size())
			}
			return nil
		})
	}
	size = total.Load()
	t.observe("info", count)
	return count, size, nil
}

// readManifest loads the ordered entry list. A missing manifest is an empty
// trash; an unparsable one is a structural error the caller must see.
func (t *Trash) readManifest() ([]Entry, error) {
	data, err := os.ReadFile(t.manifestPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %v: %w", t.manifestPath, err, fault.ErrManifest)
	}
	return entries, nil
}

// writeManifest persists atomically so a crash never leaves a torn file.
func (t *Trash) writeManifest(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(t.dir, 0o755); err != nil {
		return err
	}
	tmp := t.manifestPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, t.manifestPath)
}

func (t *Trash) observe(op string, live int) {
	if t.rec == nil {
		return
	}
	t.rec.RecordTrashOp(op)
	t.rec.SetTrashItems(live)
}

func indexOf(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id || e.TrashName == id {
			return i
		}
	}
	return -1
}

func remove(entries []Entry, i int) []Entry {
	return append(entries[:i], entries[i+1:]...)
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// nextFree appends "(n)" before the extension until the name is unused.
func nextFree(path string) string {
	if !exists(path) {
		return path
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s(%d)%s", stem, n, ext))
		if !exists(candidate) {
			return candidate
		}
	}
}
