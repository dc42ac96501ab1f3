package http

import "github.com/gin-gonic/gin"

// Register mounts all API routes on the router.
func (h *Handlers) Register(r *gin.Engine) {
	r.GET("/", h.Root)
	r.GET("/api/health", h.Health)
	r.GET("/api/config", h.Config)

	files := r.Group("/api/files")
	{
		files.GET("/list", h.ListDirectory)
		files.GET("/info", h.FileInfo)
		files.POST("/mkdir", h.Mkdir)
		files.POST("/delete", h.DeleteFiles)
		files.POST("/rename", h.RenameFile)
		files.POST("/copy", h.CopyFile)
		files.POST("/move", h.MoveFile)
		files.GET("/search", h.SearchFiles)
		files.GET("/disk-usage", h.DiskUsage)
		files.GET("/download", h.DownloadFile)
		files.POST("/download-zip", h.DownloadZip)
		files.GET("/thumbnail", h.Thumbnail)
		files.GET("/preview", h.Preview)
		files.GET("/text", h.GetText)
		files.POST("/text", h.PutText)
	}

	trash := r.Group("/api/trash")
	{
		trash.POST("/move-to-trash", h.MoveToTrash)
		trash.GET("/list", h.ListTrash)
		trash.POST("/restore", h.RestoreFromTrash)
		trash.POST("/delete-permanent", h.DeletePermanent)
		trash.POST("/empty", h.EmptyTrash)
		trash.GET("/info", h.TrashInfo)
	}

	r.POST("/api/upload", h.Upload)

	video := r.Group("/api/video")
	{
		video.GET("/stream", h.StreamVideo)
		video.GET("/info", h.VideoInfo)
	}
}
