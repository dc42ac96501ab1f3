package http

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sys/unix"

	"github.com/harborview/harborview/internal/fault"
)

// writeError translates domain errors to HTTP statuses at the boundary.
// Services below this layer return wrapped sentinels, never statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fault.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		status = http.StatusNotFound
	case errors.Is(err, fault.ErrUnavailable):
		status = http.StatusNotFound
	case errors.Is(err, fault.ErrPathTraversal), errors.Is(err, fault.ErrInvalid):
		status = http.StatusBadRequest
	case errors.Is(err, fault.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, fault.ErrExists), errors.Is(err, fs.ErrExist):
		status = http.StatusConflict
	case errors.Is(err, fault.ErrUnsupported):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, fault.ErrToolUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, fault.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, fs.ErrPermission):
		status = http.StatusForbidden
	case errors.Is(err, unix.ENOTDIR):
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
