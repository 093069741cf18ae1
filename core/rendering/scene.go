package rendering

import (
	"fmt"
	"path/filepath"
	"sync"
)

// RenderSettings are the scene-wide render settings. They seed from config
// and can be changed at runtime through the API or the dashboard.
type RenderSettings struct {
	OutputDir       string  // Directory rendered stills are written to
	Format          string  // Output image format name, e.g. PNG or JPEG
	Overwrite       bool    // Overwrite existing output files instead of skipping the frame
	FrameRate       float64 // Fallback fps for footage that reports none
	PreviewMaxWidth int     // Previews are downscaled to this width
}

// Scene is the runtime render context shared by the batch runner and the
// HTTP surfaces: the current render settings plus the active camera, the
// current frame, and the renderer's current output path.
type Scene struct {
	mu           sync.RWMutex
	settings     RenderSettings
	activeCamera string
	currentFrame int
	outputPath   string
}

// NewScene creates a scene with the given initial settings.
func NewScene(settings RenderSettings) *Scene {
	return &Scene{settings: settings}
}

// Settings returns a copy of the current render settings.
func (s *Scene) Settings() RenderSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the render settings after validating them.
func (s *Scene) UpdateSettings(settings RenderSettings) error {
	if settings.OutputDir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if _, ok := LookupFormat(settings.Format); !ok {
		return fmt.Errorf("unsupported image format: %s", settings.Format)
	}
	if settings.FrameRate <= 0 {
		return fmt.Errorf("invalid fallback frame rate: %f", settings.FrameRate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	return nil
}

// ActiveCamera returns the name of the currently active camera.
func (s *Scene) ActiveCamera() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeCamera
}

// SetActiveCamera makes the named camera the active one.
func (s *Scene) SetActiveCamera(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeCamera = name
}

// CurrentFrame returns the scene's current frame.
func (s *Scene) CurrentFrame() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentFrame
}

// SetCurrentFrame moves the scene to the given frame.
func (s *Scene) SetCurrentFrame(frame int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFrame = frame
}

// OutputPath returns the renderer's current target file.
func (s *Scene) OutputPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outputPath
}

// SetOutputPath points the renderer at the given target file.
func (s *Scene) SetOutputPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outputPath = path
}

// SnapshotOutputPath returns the current output path so a job can restore
// it once it completes.
func (s *Scene) SnapshotOutputPath() string {
	return s.OutputPath()
}

// RestoreOutputPath restores a previously snapshotted output path.
func (s *Scene) RestoreOutputPath(path string) {
	s.SetOutputPath(path)
}

// OutputPathFor builds the output path for a camera and frame:
// <output dir>/<camera>_frame<frame>.<extension>.
func (s *Scene) OutputPathFor(cameraName string, frame int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	extension := "png"
	if format, ok := LookupFormat(s.settings.Format); ok {
		extension = format.Extension
	}

	fileName := fmt.Sprintf("%s_frame%d.%s", cameraName, frame, extension)
	return filepath.Join(s.settings.OutputDir, fileName)
}
