package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harborview/harborview/internal/fault"
)

// Mount is an additional sandbox root besides the primary root. Mounts are
// read-only configuration; they are identified by their absolute path.
type Mount struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Icon string `json:"icon,omitempty"`
}

// Sandbox resolves user-supplied paths against a primary root plus zero or
// more named mounts, rejecting anything that escapes them.
type Sandbox struct {
	root   string
	mounts []Mount
}

// New creates a sandbox over the given primary root. The root must exist;
// it is canonicalized once so later prefix checks compare like with like.
func New(root string, mounts []Mount) (*Sandbox, error) {
	canonical, err := filepath.EvalSymlinks(filepath.Clean(root))
	if err != nil {
		return nil, fmt.Errorf("sandbox root %s: %w", root, err)
	}

	resolved := make([]Mount, 0, len(mounts))
	for _, m := range mounts {
		p, err := filepath.EvalSymlinks(filepath.Clean(m.Path))
		if err != nil {
			return nil, fmt.Errorf("mount %s (%s): %w", m.Name, m.Path, err)
		}
		resolved = append(resolved, Mount{Name: m.Name, Path: p, Icon: m.Icon})
	}
	// Longest mount path first so nested mounts win prefix matching.
	sort.Slice(resolved, func(i, j int) bool {
		return len(resolved[i].Path) > len(resolved[j].Path)
	})

	return &Sandbox{root: canonical, mounts: resolved}, nil
}

// Root returns the canonical primary root.
func (s *Sandbox) Root() string { return s.root }

// Mounts returns the configured mounts.
func (s *Sandbox) Mounts() []Mount { return s.mounts }

// Resolve maps a user-supplied path to an absolute path inside one of the
// sandbox roots. A path lexically prefixed by a mount root resolves against
// that mount; anything else is taken relative to the primary root (a leading
// slash is stripped). The canonical result must keep the chosen root as a
// strict prefix or resolution fails closed with fault.ErrPathTraversal.
func (s *Sandbox) Resolve(candidate string) (string, error) {
	cleaned := filepath.Clean(candidate)

	if filepath.IsAbs(cleaned) {
		if m, ok := s.mountFor(cleaned); ok {
			return s.confine(cleaned, m.Path)
		}
		if within(cleaned, s.root) {
			return s.confine(cleaned, s.root)
		}
		if _, err := os.Lstat(cleaned); err == nil {
			// The candidate names a real host path outside every root.
			// Refuse instead of silently reinterpreting it relative to
			// the primary root.
			return "", fmt.Errorf("%s: %w", cleaned, fault.ErrPathTraversal)
		}
		cleaned = strings.TrimPrefix(cleaned, "/")
	}
	return s.confine(filepath.Join(s.root, cleaned), s.root)
}

// Relativize is the inverse of Resolve: it maps an absolute path back to its
// user-facing form. Paths under a mount stay absolute; paths under the
// primary root become /-prefixed relative strings, the root itself "/".
func (s *Sandbox) Relativize(absolute string) string {
	cleaned := filepath.Clean(absolute)
	if _, ok := s.mountFor(cleaned); ok {
		return cleaned
	}
	rel, err := filepath.Rel(s.root, cleaned)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "/"
	}
	if rel == "." {
		return "/"
	}
	return "/" + filepath.ToSlash(rel)
}

func (s *Sandbox) mountFor(path string) (Mount, bool) {
	for _, m := range s.mounts {
		if within(path, m.Path) {
			return m, true
		}
	}
	return Mount{}, false
}

// confine canonicalizes path and verifies it stays under root.
func (s *Sandbox) confine(path, root string) (string, error) {
	canonical, err := canonicalize(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if !within(canonical, root) {
		return "", fmt.Errorf("%s escapes %s: %w", path, root, fault.ErrPathTraversal)
	}
	return canonical, nil
}

// canonicalize resolves symlinks in path. The target itself may not exist
// yet (restore destinations, new directories): the deepest existing ancestor
// is resolved and the remaining components are re-appended lexically.
func canonicalize(path string) (string, error) {
	p := filepath.Clean(path)
	var suffix string
	for {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		suffix = filepath.Join(filepath.Base(p), suffix)
		p = parent
	}
}

// within reports whether path is root or strictly below it.
func within(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
