package batch

import (
	"time"
)

// BatchState is the lifecycle state of a batch
type BatchState string

const (
	BatchStatePending   BatchState = "pending"
	BatchStateRunning   BatchState = "running"
	BatchStateFinished  BatchState = "finished"
	BatchStateCancelled BatchState = "cancelled"
)

// Batch is one batch render run: the jobs derived from the configured
// camera settings plus aggregate progress counts.
type Batch struct {
	ID          string
	State       BatchState
	CreatedAt   time.Time
	StartedAt   *time.Time
	FinishedAt  *time.Time
	Rendered    int // frames rendered across all jobs
	Skipped     int // frames skipped because the output already existed
	Failed      int // frames whose render failed
	JobsSkipped int // jobs skipped for lack of usable source footage
}

// JobState is the lifecycle state of a render job
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateFinished  JobState = "finished"
	JobStateSkipped   JobState = "skipped"
	JobStateCancelled JobState = "cancelled"
)

// RenderJob is the runtime unit of work derived from one camera setting:
// an ordered frame list plus completion state. The camera setting is
// snapshotted at batch start so later edits don't affect a running batch.
type RenderJob struct {
	ID          string
	BatchID     string
	CameraID    string
	CameraName  string
	SourcePath  string
	ShowPreview bool
	FrameRate   float64 // fps of the source footage, for seek-based renderers
	Position    int     // configured camera order
	Frames      []int   // parsed frame list, in token order
	State       JobState
	Rendered    int
	Skipped     int
	Failed      int
}

// FramesDone returns how many of the job's frames have been dealt with
func (j *RenderJob) FramesDone() int {
	return j.Rendered + j.Skipped + j.Failed
}
