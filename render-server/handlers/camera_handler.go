package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"stillbatch/core/cameras"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/rendering"
)

// CameraHandler handles camera setting operations
type CameraHandler struct {
	logger          logging.Logger
	cameraService   cameras.CameraService
	stillRepo       rendering.StillRepository
	previewProvider rendering.PreviewProvider
}

// NewCameraHandler creates a new camera handler. The still repository and
// preview provider are only needed for the preview endpoint and may be nil.
func NewCameraHandler(
	logger logging.Logger,
	cameraService cameras.CameraService,
	stillRepo rendering.StillRepository,
	previewProvider rendering.PreviewProvider,
) *CameraHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &CameraHandler{
		logger:          logger,
		cameraService:   cameraService,
		stillRepo:       stillRepo,
		previewProvider: previewProvider,
	}
}

// CameraRequest is the JSON body for creating or updating a camera setting
type CameraRequest struct {
	Name        string `json:"name" binding:"required"`
	SourcePath  string `json:"source_path"`
	FrameRanges string `json:"frame_ranges"`
	ShowPreview bool   `json:"show_preview"`
}

// CameraResponse is the JSON representation of a camera setting
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

func toCameraResponse(camera *cameras.CameraSetting) CameraResponse {
	return CameraResponse{
		ID:          camera.ID,
		Name:        camera.Name,
		SourcePath:  camera.SourcePath,
		FrameRanges: camera.FrameRanges,
		ShowPreview: camera.ShowPreview,
		Position:    camera.Position,
		CreatedAt:   camera.CreatedAt,
		UpdatedAt:   camera.UpdatedAt,
	}
}

// ListCameras handles GET /api/cameras
func (h *CameraHandler) ListCameras(c *gin.Context) {
	settings, err := h.cameraService.GetCameras()
	if err != nil {
		h.logger.Error("Failed to list cameras", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cameras"})
		return
	}

	response := make([]CameraResponse, 0, len(settings))
	for _, camera := range settings {
		response = append(response, toCameraResponse(camera))
	}

	c.JSON(http.StatusOK, gin.H{"cameras": response})
}

// GetCamera handles GET /api/cameras/:id
func (h *CameraHandler) GetCamera(c *gin.Context) {
	camera, err := h.cameraService.GetCamera(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to get camera", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get camera"})
		return
	}
	if camera == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Camera not found"})
		return
	}

	c.JSON(http.StatusOK, toCameraResponse(camera))
}

// CreateCamera handles POST /api/cameras
func (h *CameraHandler) CreateCamera(c *gin.Context) {
	var req CameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	camera, err := h.cameraService.CreateCamera(cameras.CreateCameraRequest{
		Name:        req.Name,
		SourcePath:  req.SourcePath,
		FrameRanges: req.FrameRanges,
		ShowPreview: req.ShowPreview,
	})
	if err != nil {
		switch {
		case cameras.IsCameraValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case cameras.IsCameraAlreadyExistsError(err):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to create camera", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create camera"})
		}
		return
	}

	c.JSON(http.StatusCreated, toCameraResponse(camera))
}

// UpdateCamera handles PUT /api/cameras/:id
func (h *CameraHandler) UpdateCamera(c *gin.Context) {
	var req CameraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	camera, err := h.cameraService.UpdateCamera(cameras.UpdateCameraRequest{
		ID:          c.Param("id"),
		Name:        req.Name,
		SourcePath:  req.SourcePath,
		FrameRanges: req.FrameRanges,
		ShowPreview: req.ShowPreview,
	})
	if err != nil {
		switch {
		case cameras.IsCameraValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case cameras.IsCameraNotFoundError(err):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case cameras.IsCameraAlreadyExistsError(err):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to update camera", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update camera"})
		}
		return
	}

	c.JSON(http.StatusOK, toCameraResponse(camera))
}

// DeleteCamera handles DELETE /api/cameras/:id
func (h *CameraHandler) DeleteCamera(c *gin.Context) {
	if err := h.cameraService.DeleteCamera(c.Param("id")); err != nil {
		if cameras.IsCameraNotFoundError(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to delete camera", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete camera"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Camera deleted"})
}

// GetCameraPreview handles GET /api/cameras/:id/preview. It serves a
// downscaled preview of the camera's most recently rendered still.
func (h *CameraHandler) GetCameraPreview(c *gin.Context) {
	if h.stillRepo == nil || h.previewProvider == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Previews are not available"})
		return
	}

	camera, err := h.cameraService.GetCamera(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to get camera for preview", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get camera"})
		return
	}
	if camera == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Camera not found"})
		return
	}

	still, err := h.stillRepo.GetLatestByCamera(context.Background(), camera.Name)
	if err != nil {
		h.logger.Error("Failed to look up latest still", "error", err, "camera", camera.Name)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up latest still"})
		return
	}
	if still == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No stills rendered for this camera yet"})
		return
	}

	preview, err := h.previewProvider.PreviewFor(still)
	if err != nil {
		h.logger.Error("Failed to generate preview", "error", err, "still_id", still.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate preview"})
		return
	}

	c.Header("X-Still-ID", still.ID)
	c.Data(http.StatusOK, preview.MimeType, preview.Data)
}
