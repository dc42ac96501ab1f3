package http

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charlievieth/fastwalk"
	"github.com/gin-gonic/gin"

	"github.com/harborview/harborview/internal/files"
)

const maxSearchResults = 500

type mkdirRequest struct {
	Path string `json:"path" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type renameRequest struct {
	Path    string `json:"path" binding:"required"`
	NewName string `json:"new_name" binding:"required"`
}

type pathsRequest struct {
	Paths []string `json:"paths" binding:"required"`
}

type fileOperation struct {
	Source      string `json:"source" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	Overwrite   bool   `json:"overwrite"`
}

type textRequest struct {
	Path    string `json:"path" binding:"required"`
	Content string `json:"content"`
}

// ListDirectory handles GET /api/files/list.
func (h *Handlers) ListDirectory(c *gin.Context) {
	path := c.DefaultQuery("path", "/")
	sortBy := files.SortField(c.DefaultQuery("sort_by", string(files.SortName)))
	order := files.SortOrder(c.DefaultQuery("sort_order", string(files.OrderAsc)))
	showHidden := c.Query("show_hidden") == "true"

	listing, err := h.files.List(path, sortBy, order, showHidden)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// FileInfo handles GET /api/files/info.
func (h *Handlers) FileInfo(c *gin.Context) {
	info, err := h.files.Info(c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// Mkdir handles POST /api/files/mkdir.
func (h *Handlers) Mkdir(c *gin.Context) {
	var req mkdirRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := h.files.Mkdir(req.Path, req.Name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// DeleteFiles handles POST /api/files/delete.
func (h *Handlers) DeleteFiles(c *gin.Context) {
	var req pathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count, err := h.files.Delete(req.Paths)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

// RenameFile handles POST /api/files/rename.
func (h *Handlers) RenameFile(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := h.files.Rename(req.Path, req.NewName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// CopyFile handles POST /api/files/copy.
func (h *Handlers) CopyFile(c *gin.Context) {
	var req fileOperation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := h.files.Copy(req.Source, req.Destination, req.Overwrite)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// MoveFile handles POST /api/files/move.
func (h *Handlers) MoveFile(c *gin.Context) {
	var req fileOperation
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	info, err := h.files.Move(req.Source, req.Destination, req.Overwrite)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// SearchFiles handles GET /api/files/search. A "glob" parameter switches
// from substring matching to doublestar pattern matching ("**/*.jpg").
func (h *Handlers) SearchFiles(c *gin.Context) {
	query := c.Query("query")
	pattern := c.Query("glob")
	if query == "" && pattern == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query or glob parameter required"})
		return
	}
	path := c.DefaultQuery("path", "/")
	maxResults, err := strconv.Atoi(c.DefaultQuery("max_results", "100"))
	if err != nil || maxResults <= 0 || maxResults > maxSearchResults {
		maxResults = 100
	}

	var results []files.SearchResult
	if pattern != "" {
		results, err = h.files.Glob(path, pattern, maxResults)
	} else {
		results, err = h.files.Search(c.Request.Context(), query, path, maxResults)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"results":  results,
		"has_more": len(results) >= maxResults,
	})
}

// DiskUsage handles GET /api/files/disk-usage.
func (h *Handlers) DiskUsage(c *gin.Context) {
	usage, err := h.files.Disk(c.DefaultQuery("path", "/"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

// DownloadFile handles GET /api/files/download.
func (h *Handlers) DownloadFile(c *gin.Context) {
	abs, err := h.files.Absolute(c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		writeError(c, err)
		return
	}
	if info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot download a directory directly"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(abs)))
	c.Header("Content-Type", "application/octet-stream")
	c.File(abs)
}

// DownloadZip handles POST /api/files/download-zip, streaming an archive of
// the requested paths. Hidden entries inside directories are skipped.
func (h *Handlers) DownloadZip(c *gin.Context) {
	var paths []string
	if err := c.ShouldBindJSON(&paths); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "application/zip")
	c.Header("Content-Disposition", `attachment; filename="download.zip"`)
	c.Status(http.StatusOK)

	zw := zip.NewWriter(c.Writer)
	defer zw.Close()

	for _, p := range paths {
		abs, err := h.files.Absolute(p)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			_ = addZipEntry(zw, abs, filepath.Base(abs))
			continue
		}
		base := filepath.Dir(abs)
		conf := fastwalk.Config{Follow: false}
		_ = fastwalk.Walk(&conf, abs, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			rel, err := filepath.Rel(base, p)
			if err != nil {
				return nil
			}
			return addZipEntry(zw, p, rel)
		})
	}
}

func addZipEntry(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	w, err := zw.Create(filepath.ToSlash(name))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

// Thumbnail handles GET /api/files/thumbnail.
func (h *Handlers) Thumbnail(c *gin.Context) {
	if h.thumbs == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "thumbnails disabled"})
		return
	}
	size := c.DefaultQuery("size", "thumb")
	abs, err := h.files.Absolute(c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := h.thumbs.Get(c.Request.Context(), abs, size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/jpeg", data)
}

// Preview handles GET /api/files/preview, serving the raw file inline.
func (h *Handlers) Preview(c *gin.Context) {
	abs, err := h.files.Absolute(c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := os.Stat(abs); err != nil {
		writeError(c, err)
		return
	}
	c.File(abs)
}

// GetText handles GET /api/files/text.
func (h *Handlers) GetText(c *gin.Context) {
	maxSize, err := strconv.ParseInt(c.DefaultQuery("max_size", "10485760"), 10, 64)
	if err != nil || maxSize <= 0 {
		maxSize = 10 << 20
	}
	content, err := h.files.ReadText(c.Query("path"), maxSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, content)
}

// PutText handles POST /api/files/text.
func (h *Handlers) PutText(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.files.WriteText(req.Path, req.Content); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "file saved"})
}
