package files

import "time"

// FileType classifies a directory entry.
type FileType string

const (
	TypeFile      FileType = "file"
	TypeDirectory FileType = "directory"
	TypeSymlink   FileType = "symlink"
)

// SortField selects the directory listing sort key.
type SortField string

const (
	SortName     SortField = "name"
	SortSize     SortField = "size"
	SortModified SortField = "modified"
	SortType     SortField = "type"
)

// SortOrder selects listing direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// FileInfo describes one entry in user-facing terms; Path is always the
// sandbox-relative form.
type FileInfo struct {
	Name         string    `json:"name"`
	Path         string    `json:"path"`
	Type         FileType  `json:"type"`
	Size         int64     `json:"size"`
	Modified     time.Time `json:"modified"`
	Extension    string    `json:"extension,omitempty"`
	MimeType     string    `json:"mime_type,omitempty"`
	IsHidden     bool      `json:"is_hidden"`
	HasThumbnail bool      `json:"has_thumbnail"`
}

// DirectoryListing is the result of listing one directory.
type DirectoryListing struct {
	Path       string     `json:"path"`
	Parent     string     `json:"parent,omitempty"`
	Items      []FileInfo `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalSize  int64      `json:"total_size"`
}

// DiskUsage reports capacity for the filesystem holding a path.
type DiskUsage struct {
	Total   uint64  `json:"total"`
	Used    uint64  `json:"used"`
	Free    uint64  `json:"free"`
	Percent float64 `json:"percent"`
}

// SearchResult is one match from a recursive search.
type SearchResult struct {
	Path     string    `json:"path"`
	Name     string    `json:"name"`
	Type     FileType  `json:"type"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// TextContent is a UTF-8 text file's content with its byte size.
type TextContent struct {
	Content string `json:"content"`
	Size    int64  `json:"size"`
}
