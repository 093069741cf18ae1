package handlers

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/config"
	"stillbatch/core/credentials"
	"stillbatch/core/rendering"
)

type SettingsHandler struct {
	logger            logging.Logger
	scene             *rendering.Scene
	stillRepo         rendering.StillRepository
	credentialService credentials.CredentialService
	cfg               *config.Config
}

func NewSettingsHandler(
	logger logging.Logger,
	scene *rendering.Scene,
	stillRepo rendering.StillRepository,
	credentialService credentials.CredentialService,
	cfg *config.Config,
) *SettingsHandler {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &SettingsHandler{
		logger:            logger,
		scene:             scene,
		stillRepo:         stillRepo,
		credentialService: credentialService,
		cfg:               cfg,
	}
}

func (h *SettingsHandler) settingsTemplateData(extra gin.H) gin.H {
	settings := h.scene.Settings()

	data := gin.H{
		"Title":     "Settings",
		"Settings":  settings,
		"Formats":   rendering.SupportedFormats(),
		"UsedBytes": int64(0),
	}

	usedBytes, err := h.stillRepo.GetTotalStorageUsage(context.Background())
	if err != nil {
		h.logger.Error("Failed to get storage usage", "error", err)
	} else {
		data["UsedBytes"] = usedBytes
	}
	if h.cfg.StorageSettings != nil && h.cfg.StorageSettings.MaxSizeMegabytes > 0 {
		data["MaxBytes"] = h.cfg.StorageSettings.MaxSizeMegabytes * 1024 * 1024
	}

	for key, value := range extra {
		data[key] = value
	}
	return data
}

// ShowSettings renders the settings page: the scene render settings, the
// current still storage usage and the change-password form
func (h *SettingsHandler) ShowSettings(c *gin.Context) {
	c.HTML(http.StatusOK, "settings", h.settingsTemplateData(nil))
}

// UpdateRenderSettings applies the posted render settings to the scene and
// persists them to the config file so they survive a restart
func (h *SettingsHandler) UpdateRenderSettings(c *gin.Context) {
	settings := h.scene.Settings()
	settings.OutputDir = c.PostForm("output_dir")
	settings.Format = c.PostForm("format")
	settings.Overwrite = c.PostForm("overwrite") == "on"

	if frameRateStr := c.PostForm("frame_rate"); frameRateStr != "" {
		frameRate, err := strconv.ParseFloat(frameRateStr, 64)
		if err != nil {
			c.HTML(http.StatusBadRequest, "settings", h.settingsTemplateData(gin.H{
				"Error": "Invalid fallback frame rate.",
			}))
			return
		}
		settings.FrameRate = frameRate
	}

	if err := h.scene.UpdateSettings(settings); err != nil {
		c.HTML(http.StatusBadRequest, "settings", h.settingsTemplateData(gin.H{
			"Error": err.Error(),
		}))
		return
	}

	if err := os.MkdirAll(settings.OutputDir, 0755); err != nil {
		h.logger.Warn("Failed to create output directory", "error", err, "dir", settings.OutputDir)
	}

	// Persist so the settings survive a restart
	if h.cfg.RenderSettings != nil {
		h.cfg.RenderSettings.OutputDir = settings.OutputDir
		h.cfg.RenderSettings.Format = settings.Format
		h.cfg.RenderSettings.Overwrite = settings.Overwrite
		h.cfg.RenderSettings.FrameRate = settings.FrameRate
		if err := h.cfg.SaveConfig(""); err != nil {
			h.logger.Error("Failed to save config", "error", err)
		}
	}

	c.HTML(http.StatusOK, "settings", h.settingsTemplateData(gin.H{
		"Success": "Render settings updated.",
	}))
}

// ChangePassword replaces the dashboard password after verifying the old one
func (h *SettingsHandler) ChangePassword(c *gin.Context) {
	oldPassword := c.PostForm("old_password")
	newPassword := c.PostForm("new_password")
	confirmPassword := c.PostForm("confirm_password")

	if oldPassword == "" || newPassword == "" || confirmPassword == "" {
		c.HTML(http.StatusBadRequest, "settings", h.settingsTemplateData(gin.H{
			"PasswordError": "All password fields are required",
		}))
		return
	}

	if newPassword != confirmPassword {
		c.HTML(http.StatusBadRequest, "settings", h.settingsTemplateData(gin.H{
			"PasswordError": "New passwords do not match",
		}))
		return
	}

	if err := h.credentialService.ChangePassword(oldPassword, newPassword); err != nil {
		switch {
		case credentials.IsVerificationError(err):
			c.HTML(http.StatusUnauthorized, "settings", h.settingsTemplateData(gin.H{
				"PasswordError": "Current password is incorrect",
			}))
		case credentials.IsPasswordPolicyError(err):
			c.HTML(http.StatusBadRequest, "settings", h.settingsTemplateData(gin.H{
				"PasswordError": err.Error(),
			}))
		default:
			h.logger.Error("Failed to change password", "error", err)
			c.HTML(http.StatusInternalServerError, "settings", h.settingsTemplateData(gin.H{
				"PasswordError": "Failed to change the password.",
			}))
		}
		return
	}

	c.HTML(http.StatusOK, "settings", h.settingsTemplateData(gin.H{
		"PasswordSuccess": "Password changed.",
	}))
}
