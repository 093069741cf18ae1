package rendering

// RenderRequest describes one still to extract: the source footage, the
// frame to extract, the fps used to translate the frame into a seek
// position, and the target file.
type RenderRequest struct {
	SourcePath string
	Frame      int
	FrameRate  float64
	OutputPath string
	Format     ImageFormat
}

// StillRenderer starts a single-frame render. The returned channel emits
// exactly one value when the render completes; the batch runner advances on
// that notification instead of polling the output file.
type StillRenderer interface {
	RenderStill(req RenderRequest) (<-chan error, error)
}
