package transcode

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harborview/harborview/internal/tools"
)

const probeTimeout = 30 * time.Second

// ProbeResult holds the primary stream codecs and duration of a source.
type ProbeResult struct {
	VideoCodec string
	AudioCodec string
	Container  string
	Duration   float64
}

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe inspects source with ffprobe. The first video and first audio
// stream win; later streams are ignored.
func Probe(ctx context.Context, ffprobePath, source string) (*ProbeResult, error) {
	out, err := tools.Run(ctx, probeTimeout, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		source,
	)
	if err != nil {
		return nil, err
	}

	var raw ffprobeOutput
	if err := json.Unmarshal(out, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}

	result := &ProbeResult{Container: strings.ToLower(filepath.Ext(source))}
	for _, s := range raw.Streams {
		codec := strings.ToLower(s.CodecName)
		switch {
		case s.CodecType == "video" && result.VideoCodec == "":
			result.VideoCodec = codec
		case s.CodecType == "audio" && result.AudioCodec == "":
			result.AudioCodec = codec
		}
	}
	if raw.Format.Duration != "" {
		if d, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil {
			result.Duration = d
		}
	}
	return result, nil
}
