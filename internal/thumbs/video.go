package thumbs

import (
	"context"
	"fmt"
	"time"

	"github.com/harborview/harborview/internal/fault"
	"github.com/harborview/harborview/internal/tools"
)

const frameGrabTimeout = 30 * time.Second

// videoThumb grabs one frame via ffmpeg, scaled to fit size, as JPEG on
// stdout. seek selects a frame near the 1-second mark; HEIF stills pass
// seek=false. A missing tool or a bad stream degrades to unsupported.
func (g *Generator) videoThumb(ctx context.Context, source string, size int, seek bool) ([]byte, error) {
	args := []string{"-i", source}
	if seek {
		args = append(args, "-ss", "00:00:01")
	}
	args = append(args,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", size, size),
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-q:v", "5",
		"-",
	)

	out, err := tools.Run(ctx, frameGrabTimeout, g.ffmpeg, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no frame from %s: %w", source, fault.ErrUnavailable)
	}
	return out, nil
}
