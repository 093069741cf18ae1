package rendering

import (
	"fmt"
	"time"

	"github.com/xfrr/goffmpeg/transcoder"
	"stillbatch/core/ccc/logging"
)

// FFmpegStillRenderer implements StillRenderer using goffmpeg. It seeks
// frame/fps into the source and extracts a single frame via the image2
// muxer.
type FFmpegStillRenderer struct {
	logger logging.Logger
}

// NewFFmpegStillRenderer creates a new FFmpeg-based still renderer
func NewFFmpegStillRenderer(logger logging.Logger) *FFmpegStillRenderer {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &FFmpegStillRenderer{
		logger: logger,
	}
}

// seekTime converts a frame index into an FFmpeg seek position string
// (HH:MM:SS.mmm) using the given frame rate.
func seekTime(frame int, frameRate float64) string {
	if frameRate <= 0 {
		frameRate = 24
	}
	offset := time.Duration(float64(frame) / frameRate * float64(time.Second))

	hours := int(offset.Hours())
	minutes := int(offset.Minutes()) % 60
	seconds := int(offset.Seconds()) % 60
	millis := int(offset.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

// RenderStill starts the extraction and returns its completion channel.
func (r *FFmpegStillRenderer) RenderStill(req RenderRequest) (<-chan error, error) {
	if req.SourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}
	if req.OutputPath == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}

	seek := seekTime(req.Frame, req.FrameRate)

	trans := new(transcoder.Transcoder)
	if err := trans.Initialize(req.SourcePath, req.OutputPath); err != nil {
		return nil, fmt.Errorf("failed to initialize transcoder: %w", err)
	}

	trans.MediaFile().SetSeekTime(seek)
	trans.MediaFile().SetVideoCodec(req.Format.FFmpegCodec)
	trans.MediaFile().SetSkipAudio(true)
	trans.MediaFile().SetOutputFormat("image2") // Single image output

	r.logger.Debug("Starting still extraction",
		"source", req.SourcePath, "frame", req.Frame, "seek", seek, "output", req.OutputPath)

	ffmpegDone := trans.Run(false)

	done := make(chan error, 1)
	go func() {
		err := <-ffmpegDone
		if err != nil {
			r.logger.Error("Still extraction failed", "error", err, "frame", req.Frame, "output", req.OutputPath)
		} else {
			r.logger.Debug("Still extraction completed", "frame", req.Frame, "output", req.OutputPath)
		}
		done <- err
	}()

	return done, nil
}
