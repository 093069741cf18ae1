package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"stillbatch/core/cameras"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/rendering"
)

const defaultPageSize = 24

type StillHandler struct {
	logger          logging.Logger
	stillReader     rendering.StillReader
	stillDeleter    rendering.StillDeleter
	previewProvider rendering.PreviewProvider
	cameraService   cameras.CameraService
}

func NewStillHandler(
	logger logging.Logger,
	stillReader rendering.StillReader,
	stillDeleter rendering.StillDeleter,
	previewProvider rendering.PreviewProvider,
	cameraService cameras.CameraService,
) *StillHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &StillHandler{
		logger:          logger,
		stillReader:     stillReader,
		stillDeleter:    stillDeleter,
		previewProvider: previewProvider,
		cameraService:   cameraService,
	}
}

// ListStills renders the still gallery with camera/batch/time filters and
// pagination
func (h *StillHandler) ListStills(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(defaultPageSize)))
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	limit := pageSize
	offset := (page - 1) * pageSize

	query := rendering.StillQuery{
		BatchID:    c.Query("batchId"),
		CameraName: c.Query("camera"),
		Limit:      &limit,
		Offset:     &offset,
	}

	// Start time filter
	if startTimeStr := c.Query("startTime"); startTimeStr != "" {
		if startTime, err := time.Parse("2006-01-02T15:04", startTimeStr); err == nil {
			query.StartTime = &startTime
		}
	}

	// End time filter
	if endTimeStr := c.Query("endTime"); endTimeStr != "" {
		if endTime, err := time.Parse("2006-01-02T15:04", endTimeStr); err == nil {
			query.EndTime = &endTime
		}
	}

	stills, total, err := h.stillReader.QueryStills(query)
	if err != nil {
		h.logger.Error("Failed to query stills", "error", err)
		c.HTML(http.StatusInternalServerError, "stills", gin.H{
			"Title": "Stills",
			"Error": "Failed to load stills.",
		})
		return
	}

	// Get cameras for the filter dropdown
	cameraList, err := h.cameraService.GetCameras()
	if err != nil {
		h.logger.Error("Failed to get cameras", "error", err)
		// Don't fail completely, just log the error and continue without cameras
		cameraList = []*cameras.CameraSetting{}
	}

	// Prepare current filter values for the template
	filterValues := gin.H{
		"BatchID":   c.Query("batchId"),
		"Camera":    c.Query("camera"),
		"StartTime": c.Query("startTime"),
		"EndTime":   c.Query("endTime"),
	}

	c.HTML(http.StatusOK, "stills", gin.H{
		"Title":        "Stills",
		"Stills":       stills,
		"Total":        total,
		"Page":         page,
		"PageSize":     pageSize,
		"TotalPages":   (total + pageSize - 1) / pageSize,
		"Cameras":      cameraList,
		"FilterValues": filterValues,
	})
}

// GetStillImage serves the full rendered image file
func (h *StillHandler) GetStillImage(c *gin.Context) {
	stillID := c.Param("id")
	if stillID == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	stillWithData, err := h.stillReader.GetStillFile(stillID)
	if err != nil {
		h.logger.Error("Failed to read still file", "error", err, "still_id", stillID)
		c.Status(http.StatusInternalServerError)
		return
	}
	if stillWithData == nil || len(stillWithData.Data) == 0 {
		c.Status(http.StatusNotFound)
		return
	}

	format, ok := rendering.LookupFormatByExtension(stillWithData.Still.Path)
	contentType := "application/octet-stream"
	if ok {
		contentType = format.MimeType
	}

	c.Header("Content-Length", strconv.Itoa(len(stillWithData.Data)))
	c.Data(http.StatusOK, contentType, stillWithData.Data)
}

// GetStillPreview serves the downscaled in-memory preview of a still
func (h *StillHandler) GetStillPreview(c *gin.Context) {
	stillID := c.Param("id")
	if stillID == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	still, err := h.stillReader.GetStillByID(stillID)
	if err != nil {
		h.logger.Error("Failed to get still", "error", err, "still_id", stillID)
		c.Status(http.StatusInternalServerError)
		return
	}
	if still == nil {
		c.Status(http.StatusNotFound)
		return
	}

	preview, err := h.previewProvider.PreviewFor(still)
	if err != nil {
		h.logger.Error("Failed to generate preview", "error", err, "still_id", stillID)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, preview.MimeType, preview.Data)
}

// DeleteStills removes the selected stills and their output files
func (h *StillHandler) DeleteStills(c *gin.Context) {
	stillIDs := c.PostFormArray("still_ids")
	if len(stillIDs) == 0 {
		c.Redirect(http.StatusFound, "/stills")
		return
	}

	response, err := h.stillDeleter.DeleteStills(rendering.DeleteStillsRequest{StillIDs: stillIDs})
	if err != nil {
		h.logger.Error("Failed to delete stills", "error", err)
	} else if len(response.FailedStills) > 0 {
		h.logger.Warn("Some stills could not be deleted", "failed", len(response.FailedStills))
	}

	c.Redirect(http.StatusFound, "/stills")
}
