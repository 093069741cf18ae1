package rendering

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"
	"stillbatch/core/ccc/logging"
)

// FootageInfo contains probed source footage information
type FootageInfo struct {
	Width      int
	Height     int
	FrameRate  float64
	FrameCount int
}

// FootageInspector defines the interface for probing source footage
type FootageInspector interface {
	// Inspect probes the footage file for dimensions, frame rate and frame count
	Inspect(sourcePath string) (*FootageInfo, error)
}

// GoCVFootageInspector implements FootageInspector using gocv
type GoCVFootageInspector struct {
	logger logging.Logger
}

// NewGoCVFootageInspector creates a new gocv-based footage inspector
func NewGoCVFootageInspector(logger logging.Logger) *GoCVFootageInspector {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &GoCVFootageInspector{
		logger: logger,
	}
}

// Inspect probes the footage file for dimensions, frame rate and frame count
func (i *GoCVFootageInspector) Inspect(sourcePath string) (*FootageInfo, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		return nil, fmt.Errorf("source footage not accessible: %w", err)
	}

	capture, err := gocv.OpenVideoCapture(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source footage: %w", err)
	}
	defer capture.Close()

	info := &FootageInfo{
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FrameRate:  capture.Get(gocv.VideoCaptureFPS),
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
	}

	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("could not determine footage dimensions for %s", sourcePath)
	}

	i.logger.Debug("Probed source footage",
		"source", sourcePath, "width", info.Width, "height", info.Height,
		"fps", info.FrameRate, "frames", info.FrameCount)

	return info, nil
}
