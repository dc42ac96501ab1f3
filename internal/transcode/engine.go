package transcode

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/harborview/harborview/internal/cache"
	"github.com/harborview/harborview/internal/infrastructure/logging"
	"github.com/harborview/harborview/internal/tools"
)

// Mode is how a source becomes a browser-playable MP4.
type Mode string

const (
	// ModeRemux copies streams into an MP4 container without re-encoding.
	ModeRemux Mode = "remux"
	// ModeTranscode re-encodes video and audio to browser-native codecs.
	ModeTranscode Mode = "transcode"
)

const remuxTimeout = 2 * time.Minute

// Cache variant tag; transcodes have a single output shape.
const variantWeb = "web"

// Codecs browsers play natively inside an MP4 container.
var browserVideoCodecs = map[string]bool{
	"h264": true, "h265": true, "hevc": true,
	"vp8": true, "vp9": true, "av1": true,
}

var browserAudioCodecs = map[string]bool{
	"aac": true, "mp3": true, "opus": true, "vorbis": true, "flac": true,
}

// Containers that need remuxing or transcoding before browser playback.
var needsProcessing = map[string]bool{
	".mov": true, ".mkv": true, ".avi": true, ".flv": true,
	".wmv": true, ".ts": true, ".mts": true, ".m2ts": true,
}

// NeedsProcessing reports whether a container requires server-side work
// before a browser can play it.
func NeedsProcessing(path string) bool {
	return needsProcessing[strings.ToLower(filepath.Ext(path))]
}

// Classify picks the cheapest mode that yields a playable MP4. A nil probe
// (tool missing, timeout, unreadable stream) forces ModeTranscode: remuxing
// unknown codecs would produce an unplayable file.
func Classify(probe *ProbeResult) Mode {
	if probe == nil {
		return ModeTranscode
	}
	videoOK := browserVideoCodecs[probe.VideoCodec]
	audioOK := probe.AudioCodec == "" || browserAudioCodecs[probe.AudioCodec]
	if videoOK && audioOK {
		return ModeRemux
	}
	return ModeTranscode
}

// Recorder receives transcode job outcomes. *monitoring.Metrics satisfies it.
type Recorder interface {
	RecordTranscode(mode, status string, duration time.Duration)
	IncTranscodeActive()
	DecTranscodeActive()
}

// Config defines engine tool paths and limits.
type Config struct {
	FFmpegPath  string
	FFprobePath string
	// Timeout bounds a full re-encode; remuxes use a fixed 2m budget.
	Timeout time.Duration
	// MaxConcurrent bounds simultaneous encoder processes host-wide.
	MaxConcurrent int64
}

// Engine turns source videos into cached browser-playable MP4s. The cache's
// per-key lock prevents duplicate work on one file; the engine's semaphore
// separately bounds total encoder processes.
type Engine struct {
	cfg   Config
	cache *cache.Cache
	sem   *semaphore.Weighted
	log   *logging.Logger
	rec   Recorder
}

// New creates an engine over the given artifact cache.
func New(cfg Config, c *cache.Cache, log *logging.Logger, rec Recorder) *Engine {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Hour
	}
	return &Engine{
		cfg:   cfg,
		cache: c,
		sem:   semaphore.NewWeighted(cfg.MaxConcurrent),
		log:   log,
		rec:   rec,
	}
}

// CachedPath returns the MP4 path if source is already cached, "" on miss.
func (e *Engine) CachedPath(source string) (string, error) {
	return e.cache.CachedPath(source, variantWeb)
}

// GetOrCreate returns the path of the cached MP4 for source, producing it
// on a miss. Callers queue on the concurrency gate rather than spawning
// unbounded encoder processes.
func (e *Engine) GetOrCreate(ctx context.Context, source string) (string, error) {
	return e.cache.GetOrCreatePath(ctx, source, variantWeb, e.produce)
}

func (e *Engine) produce(ctx context.Context, source, dest string) error {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer e.sem.Release(1)

	probe, err := Probe(ctx, e.cfg.FFprobePath, source)
	if err != nil {
		e.log.Warn("probe failed, forcing re-encode",
			zap.String("source", source), zap.Error(err))
		probe = nil
	}
	mode := Classify(probe)

	fields := []zap.Field{zap.String("source", source), zap.String("mode", string(mode))}
	if probe != nil {
		fields = append(fields,
			zap.String("video_codec", probe.VideoCodec),
			zap.String("audio_codec", probe.AudioCodec))
	}
	e.log.Info("processing video", fields...)

	if e.rec != nil {
		e.rec.IncTranscodeActive()
		defer e.rec.DecTranscodeActive()
	}

	start := time.Now()
	runErr := e.run(ctx, mode, source, dest)
	if e.rec != nil {
		status := "ok"
		if runErr != nil {
			status = "error"
		}
		e.rec.RecordTranscode(string(mode), status, time.Since(start))
	}
	return runErr
}

func (e *Engine) run(ctx context.Context, mode Mode, source, dest string) error {
	var args []string
	timeout := remuxTimeout
	switch mode {
	case ModeRemux:
		args = []string{
			"-y", "-i", source,
			"-c", "copy",
			"-movflags", "+faststart",
			"-f", "mp4",
			dest,
		}
	case ModeTranscode:
		timeout = e.cfg.Timeout
		args = []string{
			"-y", "-i", source,
			"-c:v", "libx264", "-preset", "medium", "-crf", "23",
			"-c:a", "aac", "-b:a", "192k",
			"-movflags", "+faststart",
			"-pix_fmt", "yuv420p",
			"-f", "mp4",
			dest,
		}
	}

	_, err := tools.Run(ctx, timeout, e.cfg.FFmpegPath, args...)
	return err
}
