package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"stillbatch/core/batch"
	"stillbatch/core/cameras"
	"stillbatch/core/ccc/auth"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/config"
	"stillbatch/core/frames"
	"stillbatch/core/notifications"
	"stillbatch/core/operators"
	"stillbatch/core/rendering"
	"stillbatch/render-server/handlers"
	"stillbatch/render-server/middleware"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	// Load configuration from default path in user's home directory
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Save the config in case it was not found or updated
	if err := cfg.SaveConfig(""); err != nil {
		log.Printf("Failed to save configuration: %v", err)
	}

	// Initialize logger
	logger := logging.CreateLogger(logging.ParseLogLevel(cfg.LogLevel), cfg.LogPath, "render-server")
	logger.Info("Starting render server", "port", cfg.ApiPort)

	// Initialize database
	database, err := sql.Open("sqlite3", cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Initialize notifications
	emailSender := createEmailSender(cfg)
	authNotifier, storageNotifier, batchNotifier := createNotifiers(cfg, emailSender, logger)

	// Initialize operator repository and services
	operatorRepo, err := operators.NewSQLiteOperatorRepository(database)
	if err != nil {
		log.Fatalf("Failed to create operator repository: %v", err)
	}
	operatorVerifier := operators.NewOperatorVerifier(operatorRepo)
	operatorService := operators.NewOperatorService(logger, operatorRepo)
	failureTracker := createFailureTracker(cfg)

	// Initialize camera services
	parser := frames.NewParser(logger)
	cameraRepo, err := cameras.NewSQLiteCameraRepository(database)
	if err != nil {
		log.Fatalf("Failed to create camera repository: %v", err)
	}
	cameraService := cameras.NewCameraService(logger, cameraRepo, parser)

	// Initialize the scene with the configured render settings
	renderSettings := cfg.RenderSettings
	if err := os.MkdirAll(renderSettings.OutputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	scene := rendering.NewScene(rendering.RenderSettings{
		OutputDir:       renderSettings.OutputDir,
		Format:          renderSettings.Format,
		Overwrite:       renderSettings.Overwrite,
		FrameRate:       renderSettings.FrameRate,
		PreviewMaxWidth: renderSettings.PreviewMaxWidth,
	})

	// Initialize still services
	stillRepo, err := rendering.NewSQLiteStillRepository(database)
	if err != nil {
		log.Fatalf("Failed to create still repository: %v", err)
	}

	var maxStorageMB int64
	if cfg.StorageSettings != nil {
		maxStorageMB = cfg.StorageSettings.MaxSizeMegabytes
	}
	storageManager := rendering.NewStorageManager(logger, stillRepo, storageNotifier, maxStorageMB)
	stillReader := rendering.NewStillReader(logger, stillRepo)
	stillDeleter := rendering.NewStillDeleter(logger, stillRepo)

	// Initialize previews
	previewGenerator := rendering.NewGoCVPreviewGenerator(logger, renderSettings.PreviewMaxWidth)
	previewCache := rendering.NewPreviewCache(int64(renderSettings.PreviewCacheMB)*1024*1024, logger)
	previewProvider := rendering.NewCachedPreviewProvider(previewGenerator, previewCache, logger)

	// Initialize the batch runner and service
	renderer := createRenderer(cfg, logger)
	inspector := rendering.NewGoCVFootageInspector(logger)
	manifestGenerator := rendering.NewJSONManifestGenerator(logger)

	batchRepo, err := batch.NewSQLiteBatchRepository(database)
	if err != nil {
		log.Fatalf("Failed to create batch repository: %v", err)
	}

	tickInterval := time.Duration(renderSettings.TickIntervalMs) * time.Millisecond
	runner := batch.NewRunner(logger, scene, renderer, nil, tickInterval)
	batchService := batch.NewBatchService(
		logger,
		batchRepo,
		cameraRepo,
		parser,
		runner,
		scene,
		inspector,
		storageManager,
		stillRepo,
		previewProvider,
		manifestGenerator,
		batchNotifier,
	)

	// Initialize handlers and middleware
	authMiddleware := middleware.NewAuthMiddleware(logger, operatorVerifier, operatorService, failureTracker, authNotifier)
	cameraHandler := handlers.NewCameraHandler(logger, cameraService, stillRepo, previewProvider)
	batchHandler := handlers.NewBatchHandler(logger, batchService, stillRepo, manifestGenerator)
	stillHandler := handlers.NewStillHandler(logger, stillReader, stillDeleter, previewProvider)
	sceneHandler := handlers.NewSceneHandler(logger, scene)

	// Set up Gin router
	router := initializeGin(cfg)
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	setupRoutes(router, authMiddleware, cameraHandler, batchHandler, stillHandler, sceneHandler)

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.ApiAddr, cfg.ApiPort)
	logger.Info("Server listening", "address", addr)

	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}

// createEmailSender builds the SMTP sender when mail settings are configured
func createEmailSender(cfg *config.Config) notifications.EmailSender {
	ns := cfg.NotificationSettings
	if ns == nil || ns.Smtp == nil || ns.Recipient == "" {
		return notifications.NopSender
	}
	return notifications.NewSmtpSender(ns.Smtp.Host, ns.Smtp.Port, ns.Smtp.Username, ns.Smtp.Password, ns.Smtp.From)
}

// createNotifiers builds the email notifiers, falling back to the no-op
// variants when notifications are not configured
func createNotifiers(cfg *config.Config, sender notifications.EmailSender, logger logging.Logger) (notifications.AuthNotifier, notifications.StorageNotifier, notifications.BatchNotifier) {
	ns := cfg.NotificationSettings
	if ns == nil || ns.Smtp == nil || ns.Recipient == "" {
		return notifications.NopAuthNotifier, notifications.NopStorageNotifier, notifications.NopBatchNotifier
	}

	minInterval := time.Duration(ns.MinIntervalMinutes) * time.Minute

	authNotifier := notifications.NewEmailAuthNotifier(notifications.AuthNotificationSettings{
		Recipient:        ns.Recipient,
		MinInterval:      minInterval,
		FailureThreshold: ns.AuthFailureThreshold,
	}, sender, logger)

	warningThreshold := 0.9
	if cfg.StorageSettings != nil && cfg.StorageSettings.WarningThreshold > 0 {
		warningThreshold = cfg.StorageSettings.WarningThreshold
	}
	storageNotifier := notifications.NewEmailStorageNotifier(notifications.StorageNotificationSettings{
		Recipient:        ns.Recipient,
		MinInterval:      minInterval,
		WarningThreshold: warningThreshold,
	}, sender, logger)

	batchNotifier := notifications.BatchNotifier(notifications.NopBatchNotifier)
	if ns.NotifyOnBatchFinished {
		batchNotifier = notifications.NewEmailBatchNotifier(notifications.BatchNotificationSettings{
			Recipient: ns.Recipient,
		}, sender, logger)
	}

	return authNotifier, storageNotifier, batchNotifier
}

// createFailureTracker builds the auth failure tracker from the configured
// throttle settings
func createFailureTracker(cfg *config.Config) auth.FailureTracker {
	ns := cfg.NotificationSettings
	if ns == nil || ns.AuthFailureThreshold <= 0 {
		return auth.NopFailureTracker
	}

	window := time.Duration(ns.AuthFailureWindowMinutes) * time.Minute
	if window <= 0 {
		window = 15 * time.Minute
	}

	return auth.NewMemoryFailureTracker(auth.ThrottleSettings{
		Threshold:  ns.AuthFailureThreshold,
		TimeWindow: window,
	})
}

// createRenderer selects the still renderer backend from the configuration
func createRenderer(cfg *config.Config, logger logging.Logger) rendering.StillRenderer {
	if strings.ToLower(cfg.RenderSettings.Backend) == config.BackendOpenCV {
		return rendering.NewOpenCVStillRenderer(logger)
	}
	return rendering.NewFFmpegStillRenderer(logger)
}

// setupRoutes configures the HTTP routes
func setupRoutes(
	router *gin.Engine,
	authMiddleware *middleware.AuthMiddleware,
	cameraHandler *handlers.CameraHandler,
	batchHandler *handlers.BatchHandler,
	stillHandler *handlers.StillHandler,
	sceneHandler *handlers.SceneHandler,
) {
	// API routes group
	api := router.Group("/api")

	// Apply authentication middleware to all API routes
	api.Use(authMiddleware.RequireAuth())

	// Camera setting endpoints
	api.GET("/cameras", cameraHandler.ListCameras)
	api.POST("/cameras", cameraHandler.CreateCamera)
	api.GET("/cameras/:id", cameraHandler.GetCamera)
	api.PUT("/cameras/:id", cameraHandler.UpdateCamera)
	api.DELETE("/cameras/:id", cameraHandler.DeleteCamera)
	api.GET("/cameras/:id/preview", cameraHandler.GetCameraPreview)

	// Batch endpoints
	api.POST("/batches", batchHandler.StartBatch)
	api.GET("/batches", batchHandler.ListBatches)
	api.GET("/batches/status", batchHandler.GetStatus)
	api.GET("/batches/:id", batchHandler.GetBatch)
	api.POST("/batches/:id/cancel", batchHandler.CancelBatch)
	api.GET("/batches/:id/manifest", batchHandler.GetManifest)

	// Still endpoints
	api.GET("/stills", stillHandler.ListStills)
	api.DELETE("/stills", stillHandler.DeleteStills)
	api.GET("/stills/:id", stillHandler.GetStill)
	api.GET("/stills/:id/file", stillHandler.GetStillFile)
	api.GET("/stills/:id/preview", stillHandler.GetStillPreview)

	// Scene render settings endpoints
	api.GET("/scene/settings", sceneHandler.GetSettings)
	api.PUT("/scene/settings", sceneHandler.UpdateSettings)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "render-server",
		})
	})
}
