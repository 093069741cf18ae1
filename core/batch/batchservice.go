package batch

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"stillbatch/core/cameras"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/frames"
	"stillbatch/core/notifications"
	"stillbatch/core/rendering"
)

// BatchDetail is a Batch together with its jobs
type BatchDetail struct {
	Batch *Batch
	Jobs  []*RenderJob
}

type BatchService interface {
	// StartBatch snapshots the configured camera settings into render jobs
	// and starts the batch. Only one batch can run at a time.
	StartBatch() (*Batch, error)
	// CancelBatch cancels the running batch
	CancelBatch(id string) error
	// GetBatch retrieves a batch and its jobs by ID
	GetBatch(id string) (*BatchDetail, error)
	// ListBatches retrieves all batches, newest first
	ListBatches() ([]*Batch, error)
	// GetStatus returns a live snapshot of the running batch
	GetStatus() (*BatchStatus, error)
}

type batchService struct {
	logger          logging.Logger
	repo            BatchRepository
	cameraRepo      cameras.CameraRepository
	parser          *frames.Parser
	runner          *Runner
	scene           *rendering.Scene
	inspector       rendering.FootageInspector
	storageManager  rendering.StorageManager
	stillRepo       rendering.StillRepository
	previewProvider rendering.PreviewProvider
	manifestGen     rendering.ManifestGenerator
	notifier        notifications.BatchNotifier
}

// NewBatchService creates a new batch service. The service doubles as the
// runner's ProgressSink, persisting progress and firing notifications.
// Inspector, previewProvider and manifestGen are optional.
func NewBatchService(
	logger logging.Logger,
	repo BatchRepository,
	cameraRepo cameras.CameraRepository,
	parser *frames.Parser,
	runner *Runner,
	scene *rendering.Scene,
	inspector rendering.FootageInspector,
	storageManager rendering.StorageManager,
	stillRepo rendering.StillRepository,
	previewProvider rendering.PreviewProvider,
	manifestGen rendering.ManifestGenerator,
	notifier notifications.BatchNotifier,
) *batchService {
	if logger == nil {
		logger = logging.NopLogger
	}
	if parser == nil {
		parser = frames.NewParser(logger)
	}
	if notifier == nil {
		notifier = notifications.NopBatchNotifier
	}

	s := &batchService{
		logger:          logger,
		repo:            repo,
		cameraRepo:      cameraRepo,
		parser:          parser,
		runner:          runner,
		scene:           scene,
		inspector:       inspector,
		storageManager:  storageManager,
		stillRepo:       stillRepo,
		previewProvider: previewProvider,
		manifestGen:     manifestGen,
		notifier:        notifier,
	}

	// The service is the runner's progress sink
	runner.sink = s

	return s
}

func (s *batchService) StartBatch() (*Batch, error) {
	if s.runner.IsRunning() {
		return nil, NewBatchInProgressError(s.runner.RunningBatchID())
	}

	ctx := context.Background()

	cameraSettings, err := s.cameraRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error("Failed to load camera settings for batch", "error", err)
		return nil, err
	}

	now := time.Now().UTC()
	batch := &Batch{
		ID:        uuid.New().String(),
		State:     BatchStatePending,
		CreatedAt: now,
	}

	jobs := make([]*RenderJob, 0, len(cameraSettings))
	for _, setting := range cameraSettings {
		jobs = append(jobs, s.buildJob(batch.ID, setting))
	}

	if len(jobs) == 0 {
		return nil, NewNoJobsError()
	}

	if err := s.repo.AddBatch(ctx, batch); err != nil {
		s.logger.Error("Failed to persist batch", "error", err)
		return nil, err
	}
	for _, job := range jobs {
		if err := s.repo.AddJob(ctx, job); err != nil {
			s.logger.Error("Failed to persist render job", "error", err, "job_id", job.ID)
			return nil, err
		}
	}

	// The runner owns the live batch from Start on; the snapshot is what we
	// persist and hand to callers.
	snapshot, err := s.runner.Start(batch, jobs)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateBatch(ctx, &snapshot); err != nil {
		s.logger.Error("Failed to persist batch start", "error", err, "batch_id", snapshot.ID)
	}

	s.logger.Info("Render jobs initialized", "batch_id", snapshot.ID, "jobs", len(jobs))
	return &snapshot, nil
}

// buildJob snapshots one camera setting into a render job
func (s *batchService) buildJob(batchID string, setting *cameras.CameraSetting) *RenderJob {
	parsedFrames, invalid := s.parser.Parse(setting.FrameRanges)
	if len(invalid) > 0 {
		s.logger.Warn("Camera setting contains invalid frame range tokens",
			"camera", setting.Name, "tokens", len(invalid))
	}

	var frameRate float64
	if setting.SourcePath != "" && s.inspector != nil {
		info, err := s.inspector.Inspect(setting.SourcePath)
		if err != nil {
			s.logger.Warn("Failed to probe source footage, using fallback frame rate",
				"error", err, "camera", setting.Name, "source", setting.SourcePath)
		} else {
			frameRate = info.FrameRate
		}
	}

	return &RenderJob{
		ID:          uuid.New().String(),
		BatchID:     batchID,
		CameraID:    setting.ID,
		CameraName:  setting.Name,
		SourcePath:  setting.SourcePath,
		ShowPreview: setting.ShowPreview,
		FrameRate:   frameRate,
		Position:    setting.Position,
		Frames:      parsedFrames,
		State:       JobStatePending,
	}
}

func (s *batchService) CancelBatch(id string) error {
	runningID := s.runner.RunningBatchID()
	if runningID == "" {
		return NewNoBatchRunningError()
	}
	if runningID != id {
		return NewBatchNotFoundError(id)
	}

	return s.runner.Cancel()
}

func (s *batchService) GetBatch(id string) (*BatchDetail, error) {
	ctx := context.Background()

	batch, err := s.repo.GetBatchByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get batch", "error", err, "batch_id", id)
		return nil, err
	}
	if batch == nil {
		return nil, NewBatchNotFoundError(id)
	}

	jobs, err := s.repo.GetJobsByBatch(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get render jobs", "error", err, "batch_id", id)
		return nil, err
	}

	return &BatchDetail{Batch: batch, Jobs: jobs}, nil
}

func (s *batchService) ListBatches() ([]*Batch, error) {
	batches, err := s.repo.GetAllBatches(context.Background())
	if err != nil {
		s.logger.Error("Failed to list batches", "error", err)
		return nil, err
	}
	return batches, nil
}

func (s *batchService) GetStatus() (*BatchStatus, error) {
	return s.runner.Status()
}

// ProgressSink implementation. The runner invokes these from its loop.

func (s *batchService) JobStarted(batch *Batch, job *RenderJob) {
	if err := s.repo.UpdateJob(context.Background(), job); err != nil {
		s.logger.Error("Failed to persist job start", "error", err, "job_id", job.ID)
	}
}

func (s *batchService) JobSkipped(batch *Batch, job *RenderJob) {
	ctx := context.Background()
	if err := s.repo.UpdateJob(ctx, job); err != nil {
		s.logger.Error("Failed to persist job skip", "error", err, "job_id", job.ID)
	}
	if err := s.repo.UpdateBatch(ctx, batch); err != nil {
		s.logger.Error("Failed to persist batch progress", "error", err, "batch_id", batch.ID)
	}
}

func (s *batchService) JobFinished(batch *Batch, job *RenderJob) {
	ctx := context.Background()
	if err := s.repo.UpdateJob(ctx, job); err != nil {
		s.logger.Error("Failed to persist job finish", "error", err, "job_id", job.ID)
	}
	if err := s.repo.UpdateBatch(ctx, batch); err != nil {
		s.logger.Error("Failed to persist batch progress", "error", err, "batch_id", batch.ID)
	}
}

func (s *batchService) FrameRendered(batch *Batch, job *RenderJob, frame int, outputPath string) {
	ctx := context.Background()

	still := &rendering.Still{
		ID:         uuid.New().String(),
		BatchID:    batch.ID,
		CameraName: job.CameraName,
		Frame:      frame,
		Path:       outputPath,
		RenderedAt: time.Now().UTC(),
	}
	if info, err := os.Stat(outputPath); err == nil {
		still.SizeBytes = info.Size()
	}

	if err := s.storageManager.StoreStill(ctx, still); err != nil {
		s.logger.Error("Failed to record rendered still", "error", err, "path", outputPath)
	} else if job.ShowPreview && s.previewProvider != nil {
		// Warm the preview cache while the file is hot
		if _, err := s.previewProvider.PreviewFor(still); err != nil {
			s.logger.Warn("Failed to generate preview", "error", err, "still_id", still.ID)
		}
	}

	if err := s.repo.UpdateJob(ctx, job); err != nil {
		s.logger.Error("Failed to persist frame progress", "error", err, "job_id", job.ID)
	}
}

func (s *batchService) FrameSkipped(batch *Batch, job *RenderJob, frame int, outputPath string) {
	if err := s.repo.UpdateJob(context.Background(), job); err != nil {
		s.logger.Error("Failed to persist frame skip", "error", err, "job_id", job.ID)
	}
}

func (s *batchService) FrameFailed(batch *Batch, job *RenderJob, frame int, err error) {
	if updateErr := s.repo.UpdateJob(context.Background(), job); updateErr != nil {
		s.logger.Error("Failed to persist frame failure", "error", updateErr, "job_id", job.ID)
	}
}

func (s *batchService) BatchFinished(batch *Batch) {
	ctx := context.Background()

	if err := s.repo.UpdateBatch(ctx, batch); err != nil {
		s.logger.Error("Failed to persist batch finish", "error", err, "batch_id", batch.ID)
	}

	if s.manifestGen != nil && s.stillRepo != nil {
		stills, err := s.stillRepo.GetByBatch(ctx, batch.ID)
		if err != nil {
			s.logger.Error("Failed to load stills for manifest", "error", err, "batch_id", batch.ID)
		} else if _, err := s.manifestGen.WriteManifest(batch.ID, stills, s.scene.Settings().OutputDir); err != nil {
			s.logger.Error("Failed to write batch manifest", "error", err, "batch_id", batch.ID)
		}
	}

	var duration time.Duration
	if batch.StartedAt != nil && batch.FinishedAt != nil {
		duration = batch.FinishedAt.Sub(*batch.StartedAt)
	}

	summary := notifications.BatchSummary{
		BatchID:     batch.ID,
		Cancelled:   batch.State == BatchStateCancelled,
		Rendered:    batch.Rendered,
		Skipped:     batch.Skipped,
		Failed:      batch.Failed,
		JobsSkipped: batch.JobsSkipped,
		Duration:    duration,
	}
	if err := s.notifier.NotifyBatchFinished(summary); err != nil {
		s.logger.Warn("Failed to send batch notification", "error", err, "batch_id", batch.ID)
	}
}
