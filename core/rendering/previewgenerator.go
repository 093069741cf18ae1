package rendering

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
	"stillbatch/core/ccc/logging"
)

// Preview represents downscaled preview data with its metadata
type Preview struct {
	Data     []byte
	Width    int
	Height   int
	MimeType string
}

// PreviewGenerator defines the interface for generating still previews
type PreviewGenerator interface {
	// GeneratePreview generates a downscaled JPEG preview of a rendered still
	GeneratePreview(stillPath string) (*Preview, error)
}

// GoCVPreviewGenerator implements PreviewGenerator using gocv
type GoCVPreviewGenerator struct {
	logger   logging.Logger
	maxWidth int
}

// NewGoCVPreviewGenerator creates a new gocv-based preview generator.
// Previews wider than maxWidth are downscaled preserving aspect ratio.
func NewGoCVPreviewGenerator(logger logging.Logger, maxWidth int) *GoCVPreviewGenerator {
	if logger == nil {
		logger = logging.NopLogger
	}
	if maxWidth <= 0 {
		maxWidth = 640
	}

	return &GoCVPreviewGenerator{
		logger:   logger,
		maxWidth: maxWidth,
	}
}

// GeneratePreview generates a downscaled JPEG preview of a rendered still
func (g *GoCVPreviewGenerator) GeneratePreview(stillPath string) (*Preview, error) {
	img := gocv.IMRead(stillPath, gocv.IMReadColor)
	if img.Empty() {
		return nil, fmt.Errorf("failed to read still image: %s", stillPath)
	}
	defer img.Close()

	width := img.Cols()
	height := img.Rows()

	if width > g.maxWidth {
		scaled := gocv.NewMat()
		defer scaled.Close()

		previewHeight := height * g.maxWidth / width
		// Even dimensions keep downstream encoders happy
		previewHeight = (previewHeight / 2) * 2

		gocv.Resize(img, &scaled, image.Pt(g.maxWidth, previewHeight), 0, 0, gocv.InterpolationArea)

		return g.encode(&scaled, stillPath)
	}

	return g.encode(&img, stillPath)
}

// encode turns a mat into JPEG preview bytes
func (g *GoCVPreviewGenerator) encode(img *gocv.Mat, stillPath string) (*Preview, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *img)
	if err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	defer buf.Close()

	data := make([]byte, len(buf.GetBytes()))
	copy(data, buf.GetBytes())

	g.logger.Debug("Generated preview",
		"still", stillPath, "width", img.Cols(), "height", img.Rows(), "bytes", len(data))

	return &Preview{
		Data:     data,
		Width:    img.Cols(),
		Height:   img.Rows(),
		MimeType: "image/jpeg",
	}, nil
}
