package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harborview/harborview/internal/files"
	"github.com/harborview/harborview/internal/infrastructure/config"
	"github.com/harborview/harborview/internal/infrastructure/logging"
	"github.com/harborview/harborview/internal/sandbox"
	"github.com/harborview/harborview/internal/thumbs"
	"github.com/harborview/harborview/internal/transcode"
	"github.com/harborview/harborview/internal/trash"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	cfg    *config.Config
	sb     *sandbox.Sandbox
	files  *files.Service
	thumbs *thumbs.Service
	engine *transcode.Engine
	trash  *trash.Trash
	log    *logging.Logger
}

// NewHandlers creates a new handler set. thumbs and engine may be nil when
// the corresponding subsystem is disabled.
func NewHandlers(
	cfg *config.Config,
	sb *sandbox.Sandbox,
	fileService *files.Service,
	thumbService *thumbs.Service,
	engine *transcode.Engine,
	trashService *trash.Trash,
	log *logging.Logger,
) *Handlers {
	return &Handlers{
		cfg:    cfg,
		sb:     sb,
		files:  fileService,
		thumbs: thumbService,
		engine: engine,
		trash:  trashService,
		log:    log,
	}
}

// Root handles the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Harborview",
		"version": "1.0.0",
	})
}

// Health handles health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Harborview",
	})
}

// Config exposes the client-relevant configuration.
func (h *Handlers) Config(c *gin.Context) {
	mounts := make([]gin.H, 0, len(h.sb.Mounts()))
	for _, m := range h.sb.Mounts() {
		mounts = append(mounts, gin.H{"name": m.Name, "icon": m.Icon})
	}
	c.JSON(http.StatusOK, gin.H{
		"root_path":          "/",
		"thumbnails_enabled": h.cfg.Thumbnails.Enabled,
		"transcode_enabled":  h.cfg.Transcode.Enabled,
		"mounts":             mounts,
	})
}
