package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	api "github.com/harborview/harborview/internal/api/http"
	"github.com/harborview/harborview/internal/api/middleware"
	"github.com/harborview/harborview/internal/cache"
	"github.com/harborview/harborview/internal/files"
	"github.com/harborview/harborview/internal/infrastructure/config"
	"github.com/harborview/harborview/internal/infrastructure/logging"
	"github.com/harborview/harborview/internal/infrastructure/monitoring"
	"github.com/harborview/harborview/internal/sandbox"
	"github.com/harborview/harborview/internal/thumbs"
	"github.com/harborview/harborview/internal/transcode"
	"github.com/harborview/harborview/internal/trash"
)

// Server wraps the HTTP server and dependencies.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	logger     *logging.Logger
	config     *config.Config
	metrics    *monitoring.Metrics
}

// NewServer creates a new server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	var logger *logging.Logger
	if cfg.Logging.Development {
		logger = logging.NewDevelopment()
	} else {
		l, err := logging.New(logging.Config{Level: cfg.Logging.Level})
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
		logger = l
	}

	logger.Info("Initializing Harborview",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("root", cfg.Roots.Primary),
	)

	metrics := monitoring.NewMetrics()

	mounts := make([]sandbox.Mount, 0, len(cfg.Roots.Mounts))
	for name, path := range cfg.Roots.Mounts {
		mounts = append(mounts, sandbox.Mount{Name: name, Path: path})
	}
	sb, err := sandbox.New(cfg.Roots.Primary, mounts)
	if err != nil {
		return nil, fmt.Errorf("init sandbox: %w", err)
	}

	fileService := files.NewService(sb, logger.Named("files"))
	trashService := trash.New(sb, cfg.Trash.DirName, logger.Named("trash"), metrics)

	var thumbService *thumbs.Service
	if cfg.Thumbnails.Enabled {
		thumbCache, err := cache.New(cache.Config{
			Name:     "thumbs",
			Dir:      cfg.Thumbnails.CacheDir,
			Ext:      "jpg",
			MaxBytes: cfg.Thumbnails.MaxCacheMB << 20,
		}, logger.Named("thumbcache"), metrics)
		if err != nil {
			return nil, fmt.Errorf("init thumbnail cache: %w", err)
		}
		gen := thumbs.NewGenerator(cfg.Thumbnails.Quality, cfg.Transcode.FFmpegPath, logger.Named("thumbs"))
		sizes := map[string]int{
			"thumb": cfg.Thumbnails.SizeThumb,
			"large": cfg.Thumbnails.SizeLarge,
		}
		thumbService = thumbs.NewService(gen, thumbCache, sizes, metrics)
		logger.Info("Thumbnails enabled", zap.String("cache", cfg.Thumbnails.CacheDir))
	}

	var engine *transcode.Engine
	if cfg.Transcode.Enabled {
		videoCache, err := cache.New(cache.Config{
			Name:     "transcode",
			Dir:      cfg.Transcode.CacheDir,
			Ext:      "mp4",
			MaxBytes: cfg.Transcode.MaxCacheMB << 20,
		}, logger.Named("videocache"), metrics)
		if err != nil {
			return nil, fmt.Errorf("init transcode cache: %w", err)
		}
		engine = transcode.New(transcode.Config{
			FFmpegPath:    cfg.Transcode.FFmpegPath,
			FFprobePath:   cfg.Transcode.FFprobePath,
			Timeout:       cfg.Transcode.Timeout,
			MaxConcurrent: cfg.Transcode.MaxConcurrent,
		}, videoCache, logger.Named("transcode"), metrics)
		logger.Info("Transcoding enabled", zap.String("cache", cfg.Transcode.CacheDir))
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := api.NewHandlers(cfg, sb, fileService, thumbService, engine, trashService, logger.Named("api"))
	handlers.Register(router)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:  router,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}, nil
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close gracefully shuts down the server, letting in-flight requests
// finish within a bounded window.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("Shutdown error", zap.Error(err))
			return err
		}
	}
	s.logger.Sync()
	return nil
}
