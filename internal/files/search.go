package files

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// Search walks path recursively collecting entries whose name contains
// query (case-insensitive), up to maxResults. Hidden entries and their
// subtrees are skipped.
func (s *Service) Search(ctx context.Context, query, path string, maxResults int) ([]SearchResult, error) {
	root, err := s.sb.Resolve(path)
	if err != nil {
		return nil, err
	}
	queryLower := strings.ToLower(query)

	var (
		mu      sync.Mutex
		results []SearchResult
	)
	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if p == root || !strings.Contains(strings.ToLower(name), queryLower) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		result := SearchResult{
			Path:     s.sb.Relativize(p),
			Name:     name,
			Type:     TypeFile,
			Modified: info.ModTime(),
		}
		if d.IsDir() {
			result.Type = TypeDirectory
		} else {
			result.Size = info.Size()
		}

		mu.Lock()
		defer mu.Unlock()
		if len(results) >= maxResults {
			return filepath.SkipAll
		}
		results = append(results, result)
		return nil
	})
	if walkErr != nil && walkErr != filepath.SkipAll {
		return nil, walkErr
	}
	return results, nil
}

// Glob matches entries under path with a doublestar pattern, e.g.
// "**/*.jpg", up to maxResults.
func (s *Service) Glob(path, pattern string, maxResults int) ([]SearchResult, error) {
	root, err := s.sb.Resolve(path)
	if err != nil {
		return nil, err
	}

	matches, err := doublestar.FilepathGlob(filepath.Join(root, pattern))
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		if len(results) >= maxResults {
			break
		}
		info, err := os.Lstat(m)
		if err != nil {
			continue
		}
		result := SearchResult{
			Path:     s.sb.Relativize(m),
			Name:     filepath.Base(m),
			Type:     TypeFile,
			Modified: info.ModTime(),
		}
		if info.IsDir() {
			result.Type = TypeDirectory
		} else {
			result.Size = info.Size()
		}
		results = append(results, result)
	}
	return results, nil
}
