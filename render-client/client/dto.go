package client

import "time"

// CameraRequest is the JSON body for creating or updating a camera setting
type CameraRequest struct {
	Name        string `json:"name"`
	SourcePath  string `json:"source_path"`
	FrameRanges string `json:"frame_ranges"`
	ShowPreview bool   `json:"show_preview"`
}

// CameraResponse is a camera setting as returned by the server
type CameraResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SourcePath  string    `json:"source_path"`
	FrameRanges string    `json:"frame_ranges"`
	ShowPreview bool      `json:"show_preview"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BatchResponse is a batch as returned by the server
type BatchResponse struct {
	ID          string     `json:"id"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
	Rendered    int        `json:"rendered"`
	Skipped     int        `json:"skipped"`
	Failed      int        `json:"failed"`
	JobsSkipped int        `json:"jobs_skipped"`
}

// JobResponse is a render job as returned by the server
type JobResponse struct {
	ID          string `json:"id"`
	CameraName  string `json:"camera_name"`
	SourcePath  string `json:"source_path"`
	Position    int    `json:"position"`
	TotalFrames int    `json:"total_frames"`
	State       string `json:"state"`
	Rendered    int    `json:"rendered"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
}

// BatchDetailResponse is a batch together with its jobs
type BatchDetailResponse struct {
	Batch BatchResponse `json:"batch"`
	Jobs  []JobResponse `json:"jobs"`
}

// JobProgressResponse is the live progress of the current job
type JobProgressResponse struct {
	JobID       string `json:"job_id"`
	CameraName  string `json:"camera_name"`
	State       string `json:"state"`
	TotalFrames int    `json:"total_frames"`
	Rendered    int    `json:"rendered"`
	Skipped     int    `json:"skipped"`
	Failed      int    `json:"failed"`
}

// BatchStatusResponse is a live snapshot of the running batch
type BatchStatusResponse struct {
	Running    bool                 `json:"running"`
	Batch      *BatchResponse       `json:"batch,omitempty"`
	QueuedJobs int                  `json:"queued_jobs"`
	CurrentJob *JobProgressResponse `json:"current_job,omitempty"`
}

// StillResponse is a still record as returned by the server
type StillResponse struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	CameraName string    `json:"camera_name"`
	Frame      int       `json:"frame"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	RenderedAt time.Time `json:"rendered_at"`
}

// StillListResponse is the paginated still listing
type StillListResponse struct {
	Stills []StillResponse `json:"stills"`
	Total  int             `json:"total"`
}

// StillListOptions are the optional filters for listing stills
type StillListOptions struct {
	BatchID    string
	CameraName string
	Limit      int
	Offset     int
}

// SceneSettingsResponse is the scene's render settings
type SceneSettingsResponse struct {
	OutputDir string  `json:"output_dir"`
	Format    string  `json:"format"`
	Overwrite bool    `json:"overwrite"`
	FrameRate float64 `json:"frame_rate"`
}

// UpdateSceneSettingsRequest is the JSON body for updating the render settings
type UpdateSceneSettingsRequest struct {
	OutputDir string  `json:"output_dir"`
	Format    string  `json:"format"`
	Overwrite bool    `json:"overwrite"`
	FrameRate float64 `json:"frame_rate"`
}

// errorResponse is the server's JSON error envelope
type errorResponse struct {
	Error string `json:"error"`
}
