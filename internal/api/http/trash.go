package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type idsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// MoveToTrash handles POST /api/trash/move-to-trash.
func (h *Handlers) MoveToTrash(c *gin.Context) {
	var req pathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count, err := h.trash.MoveToTrash(req.Paths)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": count})
}

// ListTrash handles GET /api/trash/list.
func (h *Handlers) ListTrash(c *gin.Context) {
	items, err := h.trash.List()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// RestoreFromTrash handles POST /api/trash/restore.
func (h *Handlers) RestoreFromTrash(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count, err := h.trash.Restore(req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restored": count})
}

// DeletePermanent handles POST /api/trash/delete-permanent.
func (h *Handlers) DeletePermanent(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	count, err := h.trash.DeletePermanent(req.IDs)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

// EmptyTrash handles POST /api/trash/empty.
func (h *Handlers) EmptyTrash(c *gin.Context) {
	count, err := h.trash.Empty()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": count})
}

// TrashInfo handles GET /api/trash/info.
func (h *Handlers) TrashInfo(c *gin.Context) {
	count, size, err := h.trash.Info()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count, "total_size": size})
}
