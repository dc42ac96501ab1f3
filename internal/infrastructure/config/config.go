package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Roots      RootsConfig
	Thumbnails ThumbnailConfig
	Transcode  TranscodeConfig
	Trash      TrashConfig
	Logging    LogConfig
	RateLimit  RateLimitConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// RootsConfig holds the sandbox roots. Mounts is a comma-separated list of
// name:path pairs, e.g. "media:/mnt/media,backup:/mnt/backup".
type RootsConfig struct {
	Primary string            `envconfig:"ROOT_PATH" default:"/srv/files"`
	Mounts  map[string]string `envconfig:"MOUNTS"`
}

// ThumbnailConfig holds thumbnail generation and cache configuration.
type ThumbnailConfig struct {
	Enabled    bool   `envconfig:"THUMBS_ENABLED" default:"true"`
	CacheDir   string `envconfig:"THUMBS_CACHE_DIR" default:"/var/cache/harborview/thumbs"`
	MaxCacheMB int64  `envconfig:"THUMBS_CACHE_MB" default:"500"`
	Quality    int    `envconfig:"THUMBS_QUALITY" default:"85"`
	SizeThumb  int    `envconfig:"THUMBS_SIZE_THUMB" default:"256"`
	SizeLarge  int    `envconfig:"THUMBS_SIZE_LARGE" default:"1024"`
}

// TranscodeConfig holds video transcoding configuration.
type TranscodeConfig struct {
	Enabled       bool          `envconfig:"TRANSCODE_ENABLED" default:"true"`
	CacheDir      string        `envconfig:"TRANSCODE_CACHE_DIR" default:"/var/cache/harborview/video"`
	MaxCacheMB    int64         `envconfig:"TRANSCODE_CACHE_MB" default:"2000"`
	MaxConcurrent int64         `envconfig:"TRANSCODE_MAX_CONCURRENT" default:"2"`
	Timeout       time.Duration `envconfig:"TRANSCODE_TIMEOUT" default:"1h"`
	FFmpegPath    string        `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FFprobePath   string        `envconfig:"FFPROBE_PATH" default:"ffprobe"`
}

// TrashConfig holds soft-delete configuration.
type TrashConfig struct {
	DirName string `envconfig:"TRASH_DIR_NAME" default:".deleted_items"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8000", Host: "0.0.0.0"},
		Roots:  RootsConfig{Primary: "/srv/files"},
		Thumbnails: ThumbnailConfig{
			Enabled:    true,
			CacheDir:   "/var/cache/harborview/thumbs",
			MaxCacheMB: 500,
			Quality:    85,
			SizeThumb:  256,
			SizeLarge:  1024,
		},
		Transcode: TranscodeConfig{
			Enabled:       true,
			CacheDir:      "/var/cache/harborview/video",
			MaxCacheMB:    2000,
			MaxConcurrent: 2,
			Timeout:       time.Hour,
			FFmpegPath:    "ffmpeg",
			FFprobePath:   "ffprobe",
		},
		Trash:   TrashConfig{DirName: ".deleted_items"},
		Logging: LogConfig{Level: "info"},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
	}
}
