package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "/srv/files", cfg.Roots.Primary)
	assert.True(t, cfg.Thumbnails.Enabled)
	assert.Equal(t, 256, cfg.Thumbnails.SizeThumb)
	assert.Equal(t, 1024, cfg.Thumbnails.SizeLarge)
	assert.Equal(t, int64(2000), cfg.Transcode.MaxCacheMB)
	assert.Equal(t, int64(2), cfg.Transcode.MaxConcurrent)
	assert.Equal(t, time.Hour, cfg.Transcode.Timeout)
	assert.Equal(t, ".deleted_items", cfg.Trash.DirName)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ROOT_PATH", "/data")
	t.Setenv("THUMBS_QUALITY", "70")
	t.Setenv("TRANSCODE_TIMEOUT", "30m")
	t.Setenv("MOUNTS", "media:/mnt/media,backup:/mnt/backup")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/data", cfg.Roots.Primary)
	assert.Equal(t, 70, cfg.Thumbnails.Quality)
	assert.Equal(t, 30*time.Minute, cfg.Transcode.Timeout)
	assert.Equal(t, map[string]string{
		"media":  "/mnt/media",
		"backup": "/mnt/backup",
	}, cfg.Roots.Mounts)
}

func TestLoadDefaultsWhenUnset(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", cfg.Transcode.FFmpegPath)
	assert.Equal(t, "ffprobe", cfg.Transcode.FFprobePath)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("THUMBS_QUALITY", "not-a-number")
	_, err := Load()
	assert.Error(t, err)
	assert.NotNil(t, LoadOrDefault())
}
