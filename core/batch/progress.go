package batch

// ProgressSink receives progress callbacks from the runner. Callbacks are
// invoked from the runner's loop; implementations must not call back into
// the runner.
type ProgressSink interface {
	// JobStarted is called when a job becomes the current job
	JobStarted(batch *Batch, job *RenderJob)
	// JobSkipped is called when a job is skipped entirely (no usable source)
	JobSkipped(batch *Batch, job *RenderJob)
	// JobFinished is called when a job's frame list is exhausted
	JobFinished(batch *Batch, job *RenderJob)
	// FrameRendered is called after a frame's render completed successfully
	FrameRendered(batch *Batch, job *RenderJob, frame int, outputPath string)
	// FrameSkipped is called when a frame is skipped because its output
	// already exists and overwriting is disabled
	FrameSkipped(batch *Batch, job *RenderJob, frame int, outputPath string)
	// FrameFailed is called when a frame's render failed
	FrameFailed(batch *Batch, job *RenderJob, frame int, err error)
	// BatchFinished is called once, when the job queue is exhausted or the
	// batch was cancelled
	BatchFinished(batch *Batch)
}

type nopProgressSink struct{}

var NopProgressSink ProgressSink = &nopProgressSink{}

func (s *nopProgressSink) JobStarted(batch *Batch, job *RenderJob)  {}
func (s *nopProgressSink) JobSkipped(batch *Batch, job *RenderJob)  {}
func (s *nopProgressSink) JobFinished(batch *Batch, job *RenderJob) {}
func (s *nopProgressSink) FrameRendered(batch *Batch, job *RenderJob, frame int, outputPath string) {
}
func (s *nopProgressSink) FrameSkipped(batch *Batch, job *RenderJob, frame int, outputPath string) {
}
func (s *nopProgressSink) FrameFailed(batch *Batch, job *RenderJob, frame int, err error) {}
func (s *nopProgressSink) BatchFinished(batch *Batch)                                     {}
