package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// Upload handles POST /api/upload: multipart files into a target directory,
// auto-renaming collisions unless overwrite is set.
func (h *Handlers) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}
	path := c.DefaultPostForm("path", "/")
	overwrite := c.PostForm("overwrite") == "true"

	targetDir, err := h.files.Absolute(path)
	if err != nil {
		writeError(c, err)
		return
	}
	info, err := os.Stat(targetDir)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "target directory not found"})
		return
	}
	if !info.IsDir() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target is not a directory"})
		return
	}

	type result struct {
		Name string `json:"name"`
		Path string `json:"path"`
		Size int64  `json:"size"`
	}
	type failure struct {
		Name  string `json:"name"`
		Error string `json:"error"`
	}
	var (
		uploaded []result
		errs     []failure
	)

	for _, fh := range uploads {
		name := filepath.Base(fh.Filename)
		if name == "" || name == "." || strings.HasPrefix(name, "..") {
			errs = append(errs, failure{Name: fh.Filename, Error: "invalid filename"})
			continue
		}
		dst := filepath.Join(targetDir, name)
		if !overwrite {
			dst = nextFreePath(dst)
		}
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			errs = append(errs, failure{Name: name, Error: err.Error()})
			continue
		}
		st, err := os.Stat(dst)
		if err != nil {
			errs = append(errs, failure{Name: name, Error: err.Error()})
			continue
		}
		uploaded = append(uploaded, result{
			Name: filepath.Base(dst),
			Path: h.sb.Relativize(dst),
			Size: st.Size(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"uploaded": uploaded,
		"errors":   errs,
		"total":    len(uploads),
		"success":  len(uploaded),
		"failed":   len(errs),
	})
}

// nextFreePath appends "(n)" before the extension until the name is unused.
func nextFreePath(path string) string {
	if _, err := os.Lstat(path); err != nil {
		return path
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s(%d)%s", stem, i, ext)
		if _, err := os.Lstat(candidate); err != nil {
			return candidate
		}
	}
}
