package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/rendering"
	"stillbatch/render-server/utils"
)

// StillHandler handles rendered still operations
type StillHandler struct {
	logger          logging.Logger
	stillReader     rendering.StillReader
	stillDeleter    rendering.StillDeleter
	previewProvider rendering.PreviewProvider
}

// NewStillHandler creates a new still handler. The preview provider is only
// needed for the preview endpoint and may be nil.
func NewStillHandler(
	logger logging.Logger,
	stillReader rendering.StillReader,
	stillDeleter rendering.StillDeleter,
	previewProvider rendering.PreviewProvider,
) *StillHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &StillHandler{
		logger:          logger,
		stillReader:     stillReader,
		stillDeleter:    stillDeleter,
		previewProvider: previewProvider,
	}
}

// StillResponse is the JSON representation of a still record
type StillResponse struct {
	ID         string    `json:"id"`
	BatchID    string    `json:"batch_id"`
	CameraName string    `json:"camera_name"`
	Frame      int       `json:"frame"`
	Path       string    `json:"path"`
	SizeBytes  int64     `json:"size_bytes"`
	RenderedAt time.Time `json:"rendered_at"`
}

func toStillResponse(still *rendering.Still) StillResponse {
	return StillResponse{
		ID:         still.ID,
		BatchID:    still.BatchID,
		CameraName: still.CameraName,
		Frame:      still.Frame,
		Path:       still.Path,
		SizeBytes:  still.SizeBytes,
		RenderedAt: still.RenderedAt,
	}
}

// ListStills handles GET /api/stills with optional batch_id, camera, limit
// and offset query parameters
func (h *StillHandler) ListStills(c *gin.Context) {
	query := rendering.StillQuery{
		BatchID:    c.Query("batch_id"),
		CameraName: c.Query("camera"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		query.Limit = &limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid offset parameter"})
			return
		}
		query.Offset = &offset
	}

	stills, total, err := h.stillReader.QueryStills(query)
	if err != nil {
		h.logger.Error("Failed to query stills", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query stills"})
		return
	}

	response := make([]StillResponse, 0, len(stills))
	for _, still := range stills {
		response = append(response, toStillResponse(still))
	}

	c.JSON(http.StatusOK, gin.H{
		"stills": response,
		"total":  total,
	})
}

// GetStill handles GET /api/stills/:id
func (h *StillHandler) GetStill(c *gin.Context) {
	still, err := h.stillReader.GetStillByID(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to get still", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get still"})
		return
	}
	if still == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Still not found"})
		return
	}

	c.JSON(http.StatusOK, toStillResponse(still))
}

// GetStillFile handles GET /api/stills/:id/file. The content type is sniffed
// from the file's magic bytes.
func (h *StillHandler) GetStillFile(c *gin.Context) {
	stillWithData, err := h.stillReader.GetStillFile(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to read still file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read still file"})
		return
	}
	if stillWithData == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Still not found"})
		return
	}

	contentType := "application/octet-stream"
	if isImage, format, err := utils.IsImageFile(stillWithData.Data); err == nil && isImage {
		contentType = utils.MimeTypeFor(format)
	}

	c.Data(http.StatusOK, contentType, stillWithData.Data)
}

// GetStillPreview handles GET /api/stills/:id/preview
func (h *StillHandler) GetStillPreview(c *gin.Context) {
	if h.previewProvider == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Previews are not available"})
		return
	}

	still, err := h.stillReader.GetStillByID(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to get still for preview", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get still"})
		return
	}
	if still == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Still not found"})
		return
	}

	preview, err := h.previewProvider.PreviewFor(still)
	if err != nil {
		h.logger.Error("Failed to generate preview", "error", err, "still_id", still.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate preview"})
		return
	}

	c.Data(http.StatusOK, preview.MimeType, preview.Data)
}

// DeleteStills handles DELETE /api/stills. The body carries the IDs of the
// stills to delete; both the records and the output files are removed.
func (h *StillHandler) DeleteStills(c *gin.Context) {
	var req rendering.DeleteStillsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if len(req.StillIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No still IDs provided"})
		return
	}

	response, err := h.stillDeleter.DeleteStills(req)
	if err != nil {
		h.logger.Error("Failed to delete stills", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete stills"})
		return
	}

	status := http.StatusOK
	if len(response.FailedStills) > 0 {
		status = http.StatusMultiStatus
	}

	c.JSON(status, response)
}
