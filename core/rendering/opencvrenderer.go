package rendering

import (
	"fmt"

	"gocv.io/x/gocv"
	"stillbatch/core/ccc/logging"
)

// OpenCVStillRenderer implements StillRenderer using gocv. It positions a
// VideoCapture at the requested frame index and writes the decoded frame to
// the output file.
type OpenCVStillRenderer struct {
	logger logging.Logger
}

// NewOpenCVStillRenderer creates a new OpenCV-based still renderer
func NewOpenCVStillRenderer(logger logging.Logger) *OpenCVStillRenderer {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &OpenCVStillRenderer{
		logger: logger,
	}
}

// RenderStill starts the extraction and returns its completion channel.
func (r *OpenCVStillRenderer) RenderStill(req RenderRequest) (<-chan error, error) {
	if req.SourcePath == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}
	if req.OutputPath == "" {
		return nil, fmt.Errorf("output path cannot be empty")
	}
	if req.Frame < 0 {
		return nil, fmt.Errorf("invalid frame index: %d", req.Frame)
	}

	done := make(chan error, 1)
	go func() {
		err := r.extractFrame(req)
		if err != nil {
			r.logger.Error("Still extraction failed", "error", err, "frame", req.Frame, "output", req.OutputPath)
		} else {
			r.logger.Debug("Still extraction completed", "frame", req.Frame, "output", req.OutputPath)
		}
		done <- err
	}()

	return done, nil
}

// extractFrame reads a single frame from the source footage and writes it to
// the output file.
func (r *OpenCVStillRenderer) extractFrame(req RenderRequest) error {
	capture, err := gocv.OpenVideoCapture(req.SourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source footage: %w", err)
	}
	defer capture.Close()

	capture.Set(gocv.VideoCapturePosFrames, float64(req.Frame))

	img := gocv.NewMat()
	defer img.Close()

	if ok := capture.Read(&img); !ok {
		return fmt.Errorf("failed to read frame %d from %s", req.Frame, req.SourcePath)
	}
	if img.Empty() {
		return fmt.Errorf("frame %d of %s is empty", req.Frame, req.SourcePath)
	}

	if ok := gocv.IMWrite(req.OutputPath, img); !ok {
		return fmt.Errorf("failed to write still to %s", req.OutputPath)
	}

	return nil
}
