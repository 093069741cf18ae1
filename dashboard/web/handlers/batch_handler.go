package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"stillbatch/core/batch"
	"stillbatch/core/ccc/logging"
)

type BatchHandler struct {
	logger       logging.Logger
	batchService batch.BatchService
}

func NewBatchHandler(logger logging.Logger, batchService batch.BatchService) *BatchHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &BatchHandler{
		logger:       logger,
		batchService: batchService,
	}
}

func (h *BatchHandler) ListBatches(c *gin.Context) {
	batches, err := h.batchService.ListBatches()
	if err != nil {
		h.logger.Error("Failed to list batches", "error", err)
		c.HTML(http.StatusInternalServerError, "batches", gin.H{
			"Title": "Batches",
			"Error": "Failed to load batches.",
		})
		return
	}

	running := false
	runningID := ""
	if status, err := h.batchService.GetStatus(); err == nil {
		running = true
		runningID = status.Batch.ID
	}

	c.HTML(http.StatusOK, "batches", gin.H{
		"Title":     "Batches",
		"Batches":   batches,
		"Running":   running,
		"RunningID": runningID,
	})
}

func (h *BatchHandler) ViewBatch(c *gin.Context) {
	id := c.Param("id")

	detail, err := h.batchService.GetBatch(id)
	if err != nil {
		if batch.IsBatchNotFoundError(err) {
			c.HTML(http.StatusNotFound, "error", gin.H{
				"Title": "Not Found",
				"Error": "Batch not found.",
			})
			return
		}
		h.logger.Error("Failed to get batch", "error", err, "id", id)
		c.HTML(http.StatusInternalServerError, "error", gin.H{
			"Title": "Error",
			"Error": "Failed to load batch.",
		})
		return
	}

	running := detail.Batch.State == batch.BatchStateRunning

	c.HTML(http.StatusOK, "batch-detail", gin.H{
		"Title":   "Batch Detail",
		"Batch":   detail.Batch,
		"Jobs":    detail.Jobs,
		"Running": running,
	})
}

func (h *BatchHandler) StartBatch(c *gin.Context) {
	started, err := h.batchService.StartBatch()
	if err != nil {
		message := "Failed to start batch."
		status := http.StatusInternalServerError
		switch {
		case batch.IsBatchInProgressError(err):
			message = "A batch is already in progress."
			status = http.StatusConflict
		case batch.IsNoJobsError(err):
			message = err.Error()
			status = http.StatusBadRequest
		default:
			h.logger.Error("Failed to start batch", "error", err)
		}

		batches, listErr := h.batchService.ListBatches()
		if listErr != nil {
			batches = nil
		}

		c.HTML(status, "batches", gin.H{
			"Title":   "Batches",
			"Batches": batches,
			"Error":   message,
		})
		return
	}

	c.Redirect(http.StatusFound, "/batches/"+started.ID)
}

func (h *BatchHandler) CancelBatch(c *gin.Context) {
	id := c.Param("id")

	if err := h.batchService.CancelBatch(id); err != nil {
		if !batch.IsNoBatchRunningError(err) && !batch.IsBatchNotFoundError(err) {
			h.logger.Error("Failed to cancel batch", "error", err, "id", id)
		}
	}

	c.Redirect(http.StatusFound, "/batches/"+id)
}

// GetStatus returns the live progress of the running batch as JSON for the
// batch detail page's polling script
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
		"running":      true,
		"batch_id":     status.Batch.ID,
		"state":        string(status.Batch.State),
		"rendered":     status.Batch.Rendered,
		"skipped":      status.Batch.Skipped,
		"failed":       status.Batch.Failed,
		"jobs_skipped": status.Batch.JobsSkipped,
		"queued_jobs":  status.QueuedJobs,
	}
	if status.CurrentJob != nil {
		response["current_job"] = gin.H{
			"camera_name":  status.CurrentJob.CameraName,
			"total_frames": status.CurrentJob.TotalFrames,
			"rendered":     status.CurrentJob.Rendered,
			"skipped":      status.CurrentJob.Skipped,
			"failed":       status.CurrentJob.Failed,
		}
	}

	c.JSON(http.StatusOK, response)
}
