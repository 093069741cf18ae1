package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/rendering"
)

// SceneHandler exposes the scene's render settings over the API
type SceneHandler struct {
	logger logging.Logger
	scene  *rendering.Scene
}

// NewSceneHandler creates a new scene handler
func NewSceneHandler(logger logging.Logger, scene *rendering.Scene) *SceneHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &SceneHandler{
		logger: logger,
		scene:  scene,
	}
}

// SceneSettingsResponse is the JSON representation of the render settings
type SceneSettingsResponse struct {
	OutputDir string  `json:"output_dir"`
	Format    string  `json:"format"`
	Overwrite bool    `json:"overwrite"`
	FrameRate float64 `json:"frame_rate"`
}

// UpdateSceneSettingsRequest is the JSON body for updating the render settings
type UpdateSceneSettingsRequest struct {
	OutputDir string  `json:"output_dir" binding:"required"`
	Format    string  `json:"format" binding:"required"`
	Overwrite bool    `json:"overwrite"`
	FrameRate float64 `json:"frame_rate" binding:"required"`
}

// GetSettings handles GET /api/scene/settings
func (h *SceneHandler) GetSettings(c *gin.Context) {
	settings := h.scene.Settings()

	c.JSON(http.StatusOK, SceneSettingsResponse{
		OutputDir: settings.OutputDir,
		Format:    settings.Format,
		Overwrite: settings.Overwrite,
		FrameRate: settings.FrameRate,
	})
}

// UpdateSettings handles PUT /api/scene/settings
func (h *SceneHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSceneSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	settings := h.scene.Settings()
	settings.OutputDir = req.OutputDir
	settings.Format = req.Format
	settings.Overwrite = req.Overwrite
	settings.FrameRate = req.FrameRate

	if err := h.scene.UpdateSettings(settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("Updated scene render settings",
		"output_dir", settings.OutputDir, "format", settings.Format,
		"overwrite", settings.Overwrite, "frame_rate", settings.FrameRate)

	c.JSON(http.StatusOK, gin.H{"message": "Settings updated"})
}
