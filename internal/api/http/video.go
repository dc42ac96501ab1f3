package http

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/harborview/harborview/internal/transcode"
)

// StreamVideo handles GET /api/video/stream. Sources already playable in
// browsers are served directly; everything else goes through the transcode
// cache first. http.ServeFile gives us Range support for seeking.
func (h *Handlers) StreamVideo(c *gin.Context) {
	abs, err := h.files.Absolute(c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := os.Stat(abs); err != nil {
		writeError(c, err)
		return
	}

	if h.engine == nil || !transcode.NeedsProcessing(abs) {
		http.ServeFile(c.Writer, c.Request, abs)
		return
	}

	// ServeFile derives Content-Type from the cache file's .mp4 extension.
	cached, err := h.engine.GetOrCreate(c.Request.Context(), abs)
	if err != nil {
		writeError(c, err)
		return
	}
	http.ServeFile(c.Writer, c.Request, cached)
}

// VideoInfo handles GET /api/video/info, returning probe results and the
// processing decision for a source.
func (h *Handlers) VideoInfo(c *gin.Context) {
	abs, err := h.files.Absolute(c.Query("path"))
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := os.Stat(abs); err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{
		"needs_processing": transcode.NeedsProcessing(abs),
	}
	probe, err := transcode.Probe(c.Request.Context(), h.cfg.Transcode.FFprobePath, abs)
	if err == nil {
		resp["video_codec"] = probe.VideoCodec
		resp["audio_codec"] = probe.AudioCodec
		resp["duration"] = probe.Duration
		resp["mode"] = string(transcode.Classify(probe))
	} else {
		resp["mode"] = string(transcode.ModeTranscode)
	}

	if h.engine != nil {
		if cached, err := h.engine.CachedPath(abs); err == nil && cached != "" {
			resp["cached"] = true
		}
	}
	c.JSON(http.StatusOK, resp)
}
