package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"stillbatch/core/cameras"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/rendering"
)

type CameraHandler struct {
	logger          logging.Logger
	cameraService   cameras.CameraService
	stillRepo       rendering.StillRepository
	previewProvider rendering.PreviewProvider
}

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

func (h *CameraHandler) ListCameras(c *gin.Context) {
	settings, err := h.cameraService.GetCameras()
	if err != nil {
		h.logger.Error("Failed to list cameras", "error", err)
		c.HTML(http.StatusInternalServerError, "cameras", gin.H{
			"Title": "Cameras",
			"Error": "Failed to load camera settings.",
		})
		return
	}

	c.HTML(http.StatusOK, "cameras", gin.H{
		"Title":   "Cameras",
		"Cameras": settings,
	})
}

func (h *CameraHandler) ShowNewCameraForm(c *gin.Context) {
	c.HTML(http.StatusOK, "camera-form", gin.H{
		"Title":  "New Camera",
		"Action": "/cameras/new",
		"Form":   gin.H{},
	})
}

func (h *CameraHandler) CreateCamera(c *gin.Context) {
	req := cameras.CreateCameraRequest{
		Name:        c.PostForm("name"),
		SourcePath:  c.PostForm("source_path"),
		FrameRanges: c.PostForm("frame_ranges"),
		ShowPreview: c.PostForm("show_preview") == "on",
	}

	if _, err := h.cameraService.CreateCamera(req); err != nil {
		status := http.StatusInternalServerError
		message := "Failed to create camera setting."
		if cameras.IsCameraValidationError(err) || cameras.IsCameraAlreadyExistsError(err) {
			status = http.StatusBadRequest
			message = err.Error()
		} else {
			h.logger.Error("Failed to create camera", "error", err)
		}

		c.HTML(status, "camera-form", gin.H{
			"Title":  "New Camera",
			"Action": "/cameras/new",
			"Error":  message,
			"Form": gin.H{
				"Name":        req.Name,
				"SourcePath":  req.SourcePath,
				"FrameRanges": req.FrameRanges,
				"ShowPreview": req.ShowPreview,
			},
		})
		return
	}

	c.Redirect(http.StatusFound, "/cameras")
}

func (h *CameraHandler) ShowEditCameraForm(c *gin.Context) {
	id := c.Param("id")

	camera, err := h.cameraService.GetCamera(id)
	if err != nil {
		h.logger.Error("Failed to get camera", "error", err, "id", id)
		c.HTML(http.StatusInternalServerError, "camera-form", gin.H{
			"Title":  "Edit Camera",
			"Action": "/cameras",
			"Error":  "Failed to load camera setting.",
			"Form":   gin.H{},
		})
		return
	}
	if camera == nil {
		c.HTML(http.StatusNotFound, "error", gin.H{
			"Title": "Not Found",
			"Error": "Camera not found.",
		})
		return
	}

	c.HTML(http.StatusOK, "camera-form", gin.H{
		"Title":  "Edit Camera - " + camera.Name,
		"Action": "/cameras/" + camera.ID + "/edit",
		"Form": gin.H{
			"Name":        camera.Name,
			"SourcePath":  camera.SourcePath,
			"FrameRanges": camera.FrameRanges,
			"ShowPreview": camera.ShowPreview,
		},
	})
}

func (h *CameraHandler) UpdateCamera(c *gin.Context) {
	id := c.Param("id")
	req := cameras.UpdateCameraRequest{
		ID:          id,
		Name:        c.PostForm("name"),
		SourcePath:  c.PostForm("source_path"),
		FrameRanges: c.PostForm("frame_ranges"),
		ShowPreview: c.PostForm("show_preview") == "on",
	}

	if _, err := h.cameraService.UpdateCamera(req); err != nil {
		status := http.StatusInternalServerError
		message := "Failed to update camera setting."
		switch {
		case cameras.IsCameraNotFoundError(err):
			status = http.StatusNotFound
			message = err.Error()
		case cameras.IsCameraValidationError(err), cameras.IsCameraAlreadyExistsError(err):
			status = http.StatusBadRequest
			message = err.Error()
		default:
			h.logger.Error("Failed to update camera", "error", err, "id", id)
		}

		c.HTML(status, "camera-form", gin.H{
			"Title":  "Edit Camera",
			"Action": "/cameras/" + id + "/edit",
			"Error":  message,
			"Form": gin.H{
				"Name":        req.Name,
				"SourcePath":  req.SourcePath,
				"FrameRanges": req.FrameRanges,
				"ShowPreview": req.ShowPreview,
			},
		})
		return
	}

	c.Redirect(http.StatusFound, "/cameras")
}

func (h *CameraHandler) DeleteCamera(c *gin.Context) {
	id := c.Param("id")

	if err := h.cameraService.DeleteCamera(id); err != nil && !cameras.IsCameraNotFoundError(err) {
		h.logger.Error("Failed to delete camera", "error", err, "id", id)
		c.HTML(http.StatusInternalServerError, "error", gin.H{
			"Title": "Error",
			"Error": "Failed to delete camera setting.",
		})
		return
	}

	c.Redirect(http.StatusFound, "/cameras")
}

// GetCameraPreview serves a downscaled preview of the camera's most recently
// rendered still
func (h *CameraHandler) GetCameraPreview(c *gin.Context) {
	camera, err := h.cameraService.GetCamera(c.Param("id"))
	if err != nil || camera == nil {
		c.Status(http.StatusNotFound)
		return
	}

	still, err := h.stillRepo.GetLatestByCamera(context.Background(), camera.Name)
	if err != nil {
		h.logger.Error("Failed to look up latest still", "error", err, "camera", camera.Name)
		c.Status(http.StatusInternalServerError)
		return
	}
	if still == nil {
		c.Status(http.StatusNotFound)
		return
	}

	preview, err := h.previewProvider.PreviewFor(still)
	if err != nil {
		h.logger.Error("Failed to generate preview", "error", err, "still_id", still.ID)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Data(http.StatusOK, preview.MimeType, preview.Data)
}
