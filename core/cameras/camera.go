package cameras

import "time"

// CameraSetting is one configured camera: the footage it reads from, the
// frames to render and whether rendered frames should keep an in-memory
// preview. Batches run cameras in Position order.
type CameraSetting struct {
	ID          string    // Unique identifier for the camera setting
	Name        string    // Camera name, unique; embedded in output file names
	SourcePath  string    // Path to the camera's source footage; empty means no footage assigned yet
	FrameRanges string    // Frame-range string, e.g. "11,25,250-260"
	ShowPreview bool      // Keep a downscaled in-memory preview of rendered frames (uses more RAM)
	Position    int       // Configured order; jobs run camera by camera in this order
	CreatedAt   time.Time // Timestamp when the setting was created
	UpdatedAt   time.Time // Timestamp when the setting was last updated
}

// HasSource reports whether the setting has footage assigned.
func (c *CameraSetting) HasSource() bool {
	return c.SourcePath != ""
}
