package batch

import (
	"os"
	"sync"
	"time"

	"stillbatch/core/ccc/logging"
	"stillbatch/core/rendering"
)

// JobProgress is a snapshot of one job's progress for status reporting
type JobProgress struct {
	JobID       string
	CameraName  string
	State       JobState
	TotalFrames int
	Rendered    int
	Skipped     int
	Failed      int
}

// BatchStatus is a live snapshot of the running batch
type BatchStatus struct {
	Batch      Batch
	CurrentJob *JobProgress
	QueuedJobs int
}

// Runner is the modal loop sequencing render jobs. Jobs run one at a time
// in configured camera order; within a job, frames render one at a time in
// parsed order. A ticker polls the runner state: when the current job is
// idle the next queued job is pulled, and the batch finishes when the queue
// is empty. Frame advance within a job is driven by the renderer's
// completion notification, never by polling.
type Runner struct {
	logger       logging.Logger
	scene        *rendering.Scene
	renderer     rendering.StillRenderer
	sink         ProgressSink
	tickInterval time.Duration

	mu          sync.Mutex
	running     bool
	cancelled   bool
	batch       *Batch
	queue       []*RenderJob
	current     *RenderJob
	nextFrame   int    // index of the current job's next frame
	inFlight    bool   // a render has been dispatched and not yet completed
	restorePath string // scene output path snapshot, restored when the job finishes
	stop        chan struct{}

	// Progress notifications are queued under the lock and delivered outside
	// it, so slow sink work (persistence, previews) never blocks Status or
	// Cancel. A single deliverer drains the queue in order.
	pending    []func()
	delivering bool
}

// NewRunner creates a new batch runner
func NewRunner(logger logging.Logger, scene *rendering.Scene, renderer rendering.StillRenderer, sink ProgressSink, tickInterval time.Duration) *Runner {
	if logger == nil {
		logger = logging.NopLogger
	}
	if sink == nil {
		sink = NopProgressSink
	}
	if tickInterval <= 0 {
		tickInterval = 250 * time.Millisecond
	}

	return &Runner{
		logger:       logger,
		scene:        scene,
		renderer:     renderer,
		sink:         sink,
		tickInterval: tickInterval,
	}
}

// Start begins running the given batch. Only one batch can run at a time.
// The runner owns the batch and jobs from here on and mutates them from its
// loop; callers get a detached copy of the started batch that is safe to
// persist and serialize.
func (r *Runner) Start(batch *Batch, jobs []*RenderJob) (Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return Batch{}, NewBatchInProgressError(r.batch.ID)
	}
	if len(jobs) == 0 {
		return Batch{}, NewNoJobsError()
	}

	now := time.Now().UTC()
	batch.State = BatchStateRunning
	batch.StartedAt = &now

	r.running = true
	r.cancelled = false
	r.batch = batch
	r.queue = append([]*RenderJob(nil), jobs...)
	r.current = nil
	r.inFlight = false
	r.pending = nil
	r.stop = make(chan struct{})

	r.logger.Info("Starting batch", "batch_id", batch.ID, "jobs", len(jobs))

	go r.loop(r.stop)

	return *batch, nil
}

// Cancel stops the running batch. No further jobs are pulled; an in-flight
// frame render is allowed to complete.
func (r *Runner) Cancel() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return NewNoBatchRunningError()
	}

	r.logger.Info("Cancelling batch", "batch_id", r.batch.ID)
	r.cancelled = true
	return nil
}

// IsRunning reports whether a batch is currently running
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// RunningBatchID returns the ID of the running batch, or empty string
func (r *Runner) RunningBatchID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.running {
		return ""
	}
	return r.batch.ID
}

// Status returns a live snapshot of the running batch
func (r *Runner) Status() (*BatchStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return nil, NewNoBatchRunningError()
	}

	status := &BatchStatus{
		Batch:      *r.batch,
		QueuedJobs: len(r.queue),
	}

	if r.current != nil {
		status.CurrentJob = &JobProgress{
			JobID:       r.current.ID,
			CameraName:  r.current.CameraName,
			State:       r.current.State,
			TotalFrames: len(r.current.Frames),
			Rendered:    r.current.Rendered,
			Skipped:     r.current.Skipped,
			Failed:      r.current.Failed,
		}
	}

	return status, nil
}

// loop is the modal polling loop, driven by the ticker until the batch
// finishes or is cancelled
func (r *Runner) loop(stop chan struct{}) {
	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

// tick advances the job queue and delivers any queued notifications
func (r *Runner) tick() {
	r.advance()
	r.deliver()
}

// advance pulls the next job once the current one reports idle and finishes
// the batch when the queue is empty and every notification has gone out
func (r *Runner) advance() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	// Let an in-flight render complete before anything else happens
	if r.inFlight {
		return
	}

	if r.cancelled {
		if r.drained() {
			r.finishBatch(true)
		}
		return
	}

	if r.current == nil {
		if len(r.queue) == 0 {
			if r.drained() {
				r.finishBatch(false)
			}
			return
		}
		job := r.queue[0]
		r.queue = r.queue[1:]
		r.startJob(job)
	}
}

// notify queues a progress notification for delivery outside the lock.
// Called with the lock held.
func (r *Runner) notify(f func()) {
	r.pending = append(r.pending, f)
}

// drained reports whether every queued notification has been delivered.
// Called with the lock held.
func (r *Runner) drained() bool {
	return len(r.pending) == 0 && !r.delivering
}

// deliver drains the notification queue in order. Only one deliverer is
// active at a time; concurrent callers return immediately and leave the
// remaining items to it.
func (r *Runner) deliver() {
	for {
		r.mu.Lock()
		if len(r.pending) == 0 || r.delivering {
			r.mu.Unlock()
			return
		}
		f := r.pending[0]
		r.pending = r.pending[1:]
		r.delivering = true
		r.mu.Unlock()

		f()

		r.mu.Lock()
		r.delivering = false
		r.mu.Unlock()
	}
}

// startJob makes the job current and kicks off its first frame. Jobs with
// no usable source footage or an empty frame list are skipped entirely.
// Called with the lock held.
func (r *Runner) startJob(job *RenderJob) {
	if job.SourcePath == "" || len(job.Frames) == 0 {
		r.logger.Warn("No source footage assigned to the camera setting. Skipping...",
			"job_id", job.ID, "camera", job.CameraName)
		job.State = JobStateSkipped
		r.batch.JobsSkipped++
		b, j := *r.batch, *job
		r.notify(func() { r.sink.JobSkipped(&b, &j) })
		return
	}

	r.current = job
	r.nextFrame = 0
	job.State = JobStateRunning

	r.scene.SetActiveCamera(job.CameraName)
	r.restorePath = r.scene.SnapshotOutputPath()

	r.logger.Info("Starting render job", "job_id", job.ID, "camera", job.CameraName, "frames", len(job.Frames))
	b, j := *r.batch, *job
	r.notify(func() { r.sink.JobStarted(&b, &j) })

	r.renderNextFrame()
}

// renderNextFrame advances the current job through its frame list until a
// render is dispatched or the list is exhausted. Frames whose output
// already exists are skipped immediately when overwriting is disabled; a
// dispatch failure is counted and the job moves on. Called with the lock
// held.
func (r *Runner) renderNextFrame() {
	job := r.current

	for {
		if r.cancelled || r.nextFrame >= len(job.Frames) {
			r.finishJob(job)
			return
		}

		frame := job.Frames[r.nextFrame]
		r.nextFrame++

		r.scene.SetCurrentFrame(frame)

		settings := r.scene.Settings()
		outputPath := r.scene.OutputPathFor(job.CameraName, frame)
		r.scene.SetOutputPath(outputPath)

		if !settings.Overwrite && fileExists(outputPath) {
			r.logger.Info("Skipping frame because it has already been rendered",
				"frame", frame, "camera", job.CameraName, "output", outputPath)
			job.Skipped++
			b, j := *r.batch, *job
			r.notify(func() { r.sink.FrameSkipped(&b, &j, frame, outputPath) })
			continue
		}

		format, _ := rendering.LookupFormat(settings.Format)
		frameRate := job.FrameRate
		if frameRate <= 0 {
			frameRate = settings.FrameRate
		}

		done, err := r.renderer.RenderStill(rendering.RenderRequest{
			SourcePath: job.SourcePath,
			Frame:      frame,
			FrameRate:  frameRate,
			OutputPath: outputPath,
			Format:     format,
		})
		if err != nil {
			r.logger.Error("Failed to dispatch render", "error", err, "frame", frame, "camera", job.CameraName)
			job.Failed++
			b, j := *r.batch, *job
			r.notify(func() { r.sink.FrameFailed(&b, &j, frame, err) })
			continue
		}

		r.inFlight = true
		go r.awaitRender(job, frame, outputPath, done)
		return
	}
}

// awaitRender waits for the renderer's completion notification and advances
// the job
func (r *Runner) awaitRender(job *RenderJob, frame int, outputPath string, done <-chan error) {
	err := <-done

	r.mu.Lock()

	r.inFlight = false

	if err != nil {
		r.logger.Error("Render failed", "error", err, "frame", frame, "camera", job.CameraName)
		job.Failed++
		b, j := *r.batch, *job
		r.notify(func() { r.sink.FrameFailed(&b, &j, frame, err) })
	} else {
		r.logger.Info("Finished rendering frame", "frame", frame, "camera", job.CameraName)
		job.Rendered++
		b, j := *r.batch, *job
		r.notify(func() { r.sink.FrameRendered(&b, &j, frame, outputPath) })
	}

	r.renderNextFrame()
	r.mu.Unlock()

	r.deliver()
}

// finishJob completes the current job: the scene's output path is restored
// and the job's counts are folded into the batch. A cancellation that cut
// the job short leaves it in the cancelled state. Called with the lock held.
func (r *Runner) finishJob(job *RenderJob) {
	if r.cancelled && r.nextFrame < len(job.Frames) {
		job.State = JobStateCancelled
	} else {
		job.State = JobStateFinished
	}
	r.scene.RestoreOutputPath(r.restorePath)

	r.batch.Rendered += job.Rendered
	r.batch.Skipped += job.Skipped
	r.batch.Failed += job.Failed

	r.logger.Info("Finished rendering all frames with camera",
		"job_id", job.ID, "camera", job.CameraName,
		"rendered", job.Rendered, "skipped", job.Skipped, "failed", job.Failed)
	b, j := *r.batch, *job
	r.notify(func() { r.sink.JobFinished(&b, &j) })

	r.current = nil
}

// finishBatch completes the batch and stops the loop. The final sink call
// runs under the lock: once IsRunning reports false, the batch's state has
// been handed to the sink. Called with the lock held and the notification
// queue drained.
func (r *Runner) finishBatch(cancelled bool) {
	now := time.Now().UTC()
	if cancelled {
		r.batch.State = BatchStateCancelled
	} else {
		r.batch.State = BatchStateFinished
	}
	r.batch.FinishedAt = &now

	r.logger.Info("All camera jobs completed", "batch_id", r.batch.ID,
		"state", r.batch.State, "rendered", r.batch.Rendered,
		"skipped", r.batch.Skipped, "failed", r.batch.Failed,
		"jobs_skipped", r.batch.JobsSkipped)

	r.sink.BatchFinished(r.batch)

	r.running = false
	close(r.stop)
}

// fileExists reports whether the output file is already on disk
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
