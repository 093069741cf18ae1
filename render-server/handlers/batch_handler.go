package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"stillbatch/core/batch"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/rendering"
)

// BatchHandler handles render batch operations
type BatchHandler struct {
	logger       logging.Logger
	batchService batch.BatchService
	stillRepo    rendering.StillRepository
	manifestGen  rendering.ManifestGenerator
}

// NewBatchHandler creates a new batch handler
func NewBatchHandler(
	logger logging.Logger,
	batchService batch.BatchService,
	stillRepo rendering.StillRepository,
	manifestGen rendering.ManifestGenerator,
) *BatchHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &BatchHandler{
		logger:       logger,
		batchService: batchService,
		stillRepo:    stillRepo,
		manifestGen:  manifestGen,
	}
}

// BatchResponse is the JSON representation of a batch
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

// JobResponse is the JSON representation of a render job
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

func toBatchResponse(b *batch.Batch) BatchResponse {
	return BatchResponse{
		ID:          b.ID,
		State:       string(b.State),
		CreatedAt:   b.CreatedAt,
		StartedAt:   b.StartedAt,
		FinishedAt:  b.FinishedAt,
		Rendered:    b.Rendered,
		Skipped:     b.Skipped,
		Failed:      b.Failed,
		JobsSkipped: b.JobsSkipped,
	}
}

func toJobResponse(job *batch.RenderJob) JobResponse {
	return JobResponse{
		ID:          job.ID,
		CameraName:  job.CameraName,
		SourcePath:  job.SourcePath,
		Position:    job.Position,
		TotalFrames: len(job.Frames),
		State:       string(job.State),
		Rendered:    job.Rendered,
		Skipped:     job.Skipped,
		Failed:      job.Failed,
	}
}

// StartBatch handles POST /api/batches
func (h *BatchHandler) StartBatch(c *gin.Context) {
	started, err := h.batchService.StartBatch()
	if err != nil {
		switch {
		case batch.IsBatchInProgressError(err):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case batch.IsNoJobsError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to start batch", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start batch"})
		}
		return
	}

	c.JSON(http.StatusCreated, toBatchResponse(started))
}

// CancelBatch handles POST /api/batches/:id/cancel
func (h *BatchHandler) CancelBatch(c *gin.Context) {
	if err := h.batchService.CancelBatch(c.Param("id")); err != nil {
		switch {
		case batch.IsNoBatchRunningError(err):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case batch.IsBatchNotFoundError(err):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to cancel batch", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel batch"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Batch cancelled"})
}

// ListBatches handles GET /api/batches
func (h *BatchHandler) ListBatches(c *gin.Context) {
	batches, err := h.batchService.ListBatches()
	if err != nil {
		h.logger.Error("Failed to list batches", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list batches"})
		return
	}

	response := make([]BatchResponse, 0, len(batches))
	for _, b := range batches {
		response = append(response, toBatchResponse(b))
	}

	c.JSON(http.StatusOK, gin.H{"batches": response})
}

// GetBatch handles GET /api/batches/:id
func (h *BatchHandler) GetBatch(c *gin.Context) {
	detail, err := h.batchService.GetBatch(c.Param("id"))
	if err != nil {
		if batch.IsBatchNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to get batch", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get batch"})
		return
	}

	jobs := make([]JobResponse, 0, len(detail.Jobs))
	for _, job := range detail.Jobs {
		jobs = append(jobs, toJobResponse(job))
	}

	c.JSON(http.StatusOK, gin.H{
		"batch": toBatchResponse(detail.Batch),
		"jobs":  jobs,
	})
}

// GetStatus handles GET /api/batches/status. It returns a live snapshot of
// the running batch.
func (h *BatchHandler) GetStatus(c *gin.Context) {
	status, err := h.batchService.GetStatus()
	if err != nil {
		if batch.IsNoBatchRunningError(err) {
			c.JSON(http.StatusOK, gin.H{"running": false})
			return
		}
		h.logger.Error("Failed to get batch status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get batch status"})
		return
	}

	response := gin.H{
		"running":     true,
		"batch":       toBatchResponse(&status.Batch),
		"queued_jobs": status.QueuedJobs,
	}
	if status.CurrentJob != nil {
		response["current_job"] = gin.H{
			"job_id":       status.CurrentJob.JobID,
			"camera_name":  status.CurrentJob.CameraName,
			"state":        string(status.CurrentJob.State),
			"total_frames": status.CurrentJob.TotalFrames,
			"rendered":     status.CurrentJob.Rendered,
			"skipped":      status.CurrentJob.Skipped,
			"failed":       status.CurrentJob.Failed,
		}
	}

	c.JSON(http.StatusOK, response)
}

// GetManifest handles GET /api/batches/:id/manifest. The manifest is built
// on demand from the batch's recorded stills.
func (h *BatchHandler) GetManifest(c *gin.Context) {
	id := c.Param("id")

	detail, err := h.batchService.GetBatch(id)
	if err != nil {
		if batch.IsBatchNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to get batch for manifest", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get batch"})
		return
	}

	stills, err := h.stillRepo.GetByBatch(context.Background(), detail.Batch.ID)
	if err != nil {
		h.logger.Error("Failed to load stills for manifest", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stills"})
		return
	}

	manifest, err := h.manifestGen.GenerateManifest(detail.Batch.ID, stills)
	if err != nil {
		h.logger.Error("Failed to generate manifest", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate manifest"})
		return
	}

	c.JSON(http.StatusOK, manifest)
}
