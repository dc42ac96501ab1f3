package files

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/harborview/harborview/internal/fault"
	"github.com/harborview/harborview/internal/infrastructure/logging"
	"github.com/harborview/harborview/internal/sandbox"
	"github.com/harborview/harborview/internal/thumbs"
)

// Service exposes directory and file operations confined to the sandbox.
type Service struct {
	sb  *sandbox.Sandbox
	log *logging.Logger
}

// NewService creates a filesystem service over the sandbox.
func NewService(sb *sandbox.Sandbox, log *logging.Logger) *Service {
	return &Service{sb: sb, log: log}
}

// Absolute resolves a user path to its sandboxed absolute form.
func (s *Service) Absolute(path string) (string, error) {
	return s.sb.Resolve(path)
}

// List returns the entries of a directory, directories first, sorted by the
// requested field.
func (s *Service) List(path string, sortBy SortField, order SortOrder, showHidden bool) (*DirectoryListing, error) {
	dir, err := s.sb.Resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, fault.ErrNotFound)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", path, fault.ErrInvalid)
	}

	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	items := make([]FileInfo, 0, len(dirents))
	var totalSize int64
	for _, d := range dirents {
		if !showHidden && strings.HasPrefix(d.Name(), ".") {
			continue
		}
		fi := s.fileInfo(filepath.Join(dir, d.Name()))
		items = append(items, fi)
		totalSize += fi.Size
	}

	sortItems(items, sortBy, order)

	listing := &DirectoryListing{
		Path:       s.sb.Relativize(dir),
		Items:      items,
		TotalItems: len(items),
		TotalSize:  totalSize,
	}
	if dir != s.sb.Root() {
		listing.Parent = s.sb.Relativize(filepath.Dir(dir))
	}
	return listing, nil
}

// Info returns metadata for a single path.
func (s *Service) Info(path string) (*FileInfo, error) {
	p, err := s.sb.Resolve(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Lstat(p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, fault.ErrNotFound)
	}
	fi := s.fileInfo(p)
	return &fi, nil
}

// Mkdir creates a directory under path. Existing names are a collision.
func (s *Service) Mkdir(path, name string) (*FileInfo, error) {
	parent, err := s.sb.Resolve(path)
	if err != nil {
		return nil, err
	}
	if filepath.Base(name) != name || name == "." || name == ".." {
		return nil, fmt.Errorf("invalid directory name %q: %w", name, fault.ErrInvalid)
	}
	dir := filepath.Join(parent, name)
	if exists(dir) {
		return nil, fmt.Errorf("%s: %w", name, fault.ErrExists)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fi := s.fileInfo(dir)
	return &fi, nil
}

// Delete removes paths permanently (recursively for directories),
// returning the number removed. Missing paths are skipped.
func (s *Service) Delete(paths []string) (int, error) {
	deleted := 0
	for _, path := range paths {
		p, err := s.sb.Resolve(path)
		if err != nil {
			return deleted, err
		}
		if !exists(p) {
			continue
		}
		if err := os.RemoveAll(p); err != nil {
			s.log.Warn("delete failed", zap.String("path", path), zap.Error(err))
			continue
		}
		deleted++
	}
	return deleted, nil
}

// Rename changes an entry's basename in place.
func (s *Service) Rename(path, newName string) (*FileInfo, error) {
	p, err := s.sb.Resolve(path)
	if err != nil {
		return nil, err
	}
	if !exists(p) {
		return nil, fmt.Errorf("%s: %w", path, fault.ErrNotFound)
	}
	if filepath.Base(newName) != newName || newName == "." || newName == ".." {
		return nil, fmt.Errorf("invalid name %q: %w", newName, fault.ErrInvalid)
	}
	dest := filepath.Join(filepath.Dir(p), newName)
	if exists(dest) {
		return nil, fmt.Errorf("%s: %w", newName, fault.ErrExists)
	}
	if err := os.Rename(p, dest); err != nil {
		return nil, err
	}
	fi := s.fileInfo(dest)
	return &fi, nil
}

// Copy duplicates source to destination (recursively for directories).
// A destination directory receives the source under its own name; name
// collisions auto-rename with a "(n)" suffix unless overwrite is set.
func (s *Service) Copy(source, destination string, overwrite bool) (*FileInfo, error) {
	src, dst, err := s.resolvePair(source, destination)
	if err != nil {
		return nil, err
	}
	dst = s.collide(dst, overwrite)

	info, err := os.Stat(src)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		err = copyTree(src, dst)
	} else {
		err = copyFile(src, dst, info.Mode())
	}
	if err != nil {
		return nil, err
	}
	fi := s.fileInfo(dst)
	return &fi, nil
}

// Move relocates source to destination with the same collision rules as
// Copy.
func (s *Service) Move(source, destination string, overwrite bool) (*FileInfo, error) {
	src, dst, err := s.resolvePair(source, destination)
	if err != nil {
		return nil, err
	}
	dst = s.collide(dst, overwrite)

	if err := MovePath(src, dst); err != nil {
		return nil, err
	}
	fi := s.fileInfo(dst)
	return &fi, nil
}

// ReadText reads a UTF-8 text file up to maxSize bytes.
func (s *Service) ReadText(path string, maxSize int64) (*TextContent, error) {
	p, err := s.sb.Resolve(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, fault.ErrNotFound)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, fault.ErrInvalid)
	}
	if info.Size() > maxSize {
		return nil, fmt.Errorf("%s exceeds %d bytes: %w", path, maxSize, fault.ErrTooLarge)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s is not valid UTF-8 text: %w", path, fault.ErrInvalid)
	}
	return &TextContent{Content: string(data), Size: info.Size()}, nil
}

// WriteText writes content to path, creating or truncating it.
func (s *Service) WriteText(path, content string) error {
	p, err := s.sb.Resolve(path)
	if err != nil {
		return err
	}
	return os.WriteFile(p, []byte(content), 0o644)
}

func (s *Service) resolvePair(source, destination string) (src, dst string, err error) {
	src, err = s.sb.Resolve(source)
	if err != nil {
		return "", "", err
	}
	dst, err = s.sb.Resolve(destination)
	if err != nil {
		return "", "", err
	}
	if !exists(src) {
		return "", "", fmt.Errorf("%s: %w", source, fault.ErrNotFound)
	}
	if info, err := os.Stat(dst); err == nil && info.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	return src, dst, nil
}

func (s *Service) collide(dst string, overwrite bool) string {
	if overwrite {
		return dst
	}
	return nextFree(dst)
}

// fileInfo builds a FileInfo, tolerating stat races: an entry that vanished
// mid-listing reports zero size rather than failing the whole listing.
func (s *Service) fileInfo(p string) FileInfo {
	name := filepath.Base(p)
	fi := FileInfo{
		Name:     name,
		Path:     s.sb.Relativize(p),
		Type:     TypeFile,
		IsHidden: strings.HasPrefix(name, "."),
	}

	info, err := os.Lstat(p)
	if err != nil {
		return fi
	}
	fi.Modified = info.ModTime()

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		fi.Type = TypeSymlink
	case info.IsDir():
		fi.Type = TypeDirectory
	default:
		fi.Size = info.Size()
		if ext := filepath.Ext(name); ext != "" {
			fi.Extension = strings.ToLower(ext[1:])
		}
		if mt, err := mimetype.DetectFile(p); err == nil {
			fi.MimeType = mt.String()
		}
		fi.HasThumbnail = thumbs.Supported(p)
	}
	return fi
}

func sortItems(items []FileInfo, sortBy SortField, order SortOrder) {
	less := func(a, b FileInfo) bool {
		// Directories group before files regardless of field.
		aDir := a.Type == TypeDirectory
		bDir := b.Type == TypeDirectory
		if aDir != bDir {
			return aDir
		}
		switch sortBy {
		case SortSize:
			if a.Size != b.Size {
				return a.Size < b.Size
			}
		case SortModified:
			if !a.Modified.Equal(b.Modified) {
				return a.Modified.Before(b.Modified)
			}
		case SortType:
			if a.Extension != b.Extension {
				return a.Extension < b.Extension
			}
		}
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if order == OrderDesc {
			return less(items[j], items[i])
		}
		return less(items[i], items[j])
	})
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if d.Type()&os.ModeSymlink != 0 {
			link, err := os.Readlink(p)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		return copyFile(p, target, info.Mode())
	})
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
