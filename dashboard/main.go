package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"text/template"
	"time"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"stillbatch/core/batch"
	"stillbatch/core/cameras"
	"stillbatch/core/ccc/auth"
	"stillbatch/core/ccc/logging"
	"stillbatch/core/config"
	"stillbatch/core/credentials"
	"stillbatch/core/frames"
	"stillbatch/core/notifications"
	"stillbatch/core/rendering"
	dashboard_sessions "stillbatch/dashboard/sessions"
	"stillbatch/dashboard/web/handlers"
	"stillbatch/dashboard/web/middleware"

	_ "github.com/mattn/go-sqlite3"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// try to save the config in case it was not found
	if err := cfg.SaveConfig(""); err != nil {
		log.Printf("Failed to save configuration: %v", err)
	}

	// Set up logger
	logger := logging.CreateLogger(logging.ParseLogLevel(cfg.LogLevel), cfg.LogPath, "dashboard")

	// Set up database connection with SQLite optimizations for concurrency.
	// The dashboard shares the database with the render server.
	dbConn, err := sql.Open("sqlite3", cfg.DatabasePath+"?_journal_mode=WAL&_busy_timeout=30000&_synchronous=NORMAL&_cache_size=10000")
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Configure connection pool for better concurrency
	dbConn.SetMaxOpenConns(10)
	dbConn.SetMaxIdleConns(5)
	dbConn.SetConnMaxLifetime(30 * time.Minute)

	// Set up repositories
	credentialRepo, err := credentials.NewSQLiteCredentialRepository(dbConn)
	if err != nil {
		logger.Error("Failed to create credential repository", "error", err)
		os.Exit(1)
	}
	cameraRepo, err := cameras.NewSQLiteCameraRepository(dbConn)
	if err != nil {
		logger.Error("Failed to create camera repository", "error", err)
		os.Exit(1)
	}
	stillRepo, err := rendering.NewSQLiteStillRepository(dbConn)
	if err != nil {
		logger.Error("Failed to create still repository", "error", err)
		os.Exit(1)
	}
	batchRepo, err := batch.NewSQLiteBatchRepository(dbConn)
	if err != nil {
		logger.Error("Failed to create batch repository", "error", err)
		os.Exit(1)
	}

	// Set up notifications
	emailSender := createEmailSender(cfg)
	authNotifier, storageNotifier, batchNotifier := createNotifiers(cfg, emailSender, logger)
	failureTracker := createFailureTracker(cfg)

	// Set up services
	credentialService := credentials.NewCredentialService(logger, credentialRepo)
	parser := frames.NewParser(logger)
	cameraService := cameras.NewCameraService(logger, cameraRepo, parser)
	stillReader := rendering.NewStillReader(logger, stillRepo)
	stillDeleter := rendering.NewStillDeleter(logger, stillRepo)

	var maxStorageMB int64
	if cfg.StorageSettings != nil {
		maxStorageMB = cfg.StorageSettings.MaxSizeMegabytes
	}
	storageManager := rendering.NewStorageManager(logger, stillRepo, storageNotifier, maxStorageMB)

	// Set up previews
	renderSettings := cfg.RenderSettings
	previewGenerator := rendering.NewGoCVPreviewGenerator(logger, renderSettings.PreviewMaxWidth)
	previewCache := rendering.NewPreviewCache(int64(renderSettings.PreviewCacheMB)*1024*1024, logger)
	previewProvider := rendering.NewCachedPreviewProvider(previewGenerator, previewCache, logger)

	// Set up the batch stack. The dashboard runs batches in-process, so it
	// carries its own scene, renderer and runner next to the render server's.
	if err := os.MkdirAll(renderSettings.OutputDir, 0755); err != nil {
		logger.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}
	scene := rendering.NewScene(rendering.RenderSettings{
		OutputDir:       renderSettings.OutputDir,
		Format:          renderSettings.Format,
		Overwrite:       renderSettings.Overwrite,
		FrameRate:       renderSettings.FrameRate,
		PreviewMaxWidth: renderSettings.PreviewMaxWidth,
	})
	renderer := createRenderer(cfg, logger)
	inspector := rendering.NewGoCVFootageInspector(logger)
	manifestGenerator := rendering.NewJSONManifestGenerator(logger)

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

	// Set up session store
	sessionKey, err := dashboard_sessions.GetOrCreateSessionKey()
	if err != nil {
		logger.Error("Failed to get or create session key", "error", err)
		os.Exit(1)
	}
	sessionStore := sessions.NewCookieStore(sessionKey)
	authStoreFactory := dashboard_sessions.NewAuthStoreFactory(sessionStore)

	// Set up Gin engine
	router := initializeGin(cfg)
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Serve static files
	router.Static("/static", "web/static")

	// Set up templates
	router.HTMLRender = createTemplateRenderer()

	// Set up handlers
	authHandler := handlers.NewAuthHandler(logger, credentialService, authStoreFactory, failureTracker, authNotifier)
	cameraHandler := handlers.NewCameraHandler(logger, cameraService, stillRepo, previewProvider)
	batchHandler := handlers.NewBatchHandler(logger, batchService)
	stillHandler := handlers.NewStillHandler(logger, stillReader, stillDeleter, previewProvider, cameraService)
	settingsHandler := handlers.NewSettingsHandler(logger, scene, stillRepo, credentialService, cfg)

	// Set up middleware
	authMiddleware := middleware.NewAuthMiddleware(logger, credentialService, authStoreFactory)

	// Public routes (authentication)
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/login", authMiddleware.RedirectIfAuth, authHandler.ShowLogin)
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/setup", authMiddleware.RedirectIfAuth, authHandler.ShowSetup)
		authGroup.POST("/setup", authHandler.Setup)
		authGroup.GET("/logout", authHandler.Logout)
	}

	// Authenticated routes
	authedGroup := router.Group("/")
	authedGroup.Use(authMiddleware.RequireAuth)
	{
		authedGroup.GET("/", func(c *gin.Context) {
			c.Redirect(http.StatusFound, "/cameras")
		})

		cameraGroup := authedGroup.Group("/cameras")
		{
			cameraGroup.GET("", cameraHandler.ListCameras)
			cameraGroup.GET("/new", cameraHandler.ShowNewCameraForm)
			cameraGroup.POST("/new", cameraHandler.CreateCamera)
			cameraGroup.GET("/:id/edit", cameraHandler.ShowEditCameraForm)
			cameraGroup.POST("/:id/edit", cameraHandler.UpdateCamera)
			cameraGroup.POST("/:id/delete", cameraHandler.DeleteCamera)
			cameraGroup.GET("/:id/preview", cameraHandler.GetCameraPreview)
		}

		batchGroup := authedGroup.Group("/batches")
		{
			batchGroup.GET("", batchHandler.ListBatches)
			batchGroup.POST("/start", batchHandler.StartBatch)
			batchGroup.GET("/status", batchHandler.GetStatus)
			batchGroup.GET("/:id", batchHandler.ViewBatch)
			batchGroup.POST("/:id/cancel", batchHandler.CancelBatch)
		}

		stillGroup := authedGroup.Group("/stills")
		{
			stillGroup.GET("", stillHandler.ListStills)
			stillGroup.GET("/:id/image", stillHandler.GetStillImage)
			stillGroup.GET("/:id/preview", stillHandler.GetStillPreview)
			stillGroup.POST("/delete", stillHandler.DeleteStills)
		}

		settingsGroup := authedGroup.Group("/settings")
		{
			settingsGroup.GET("", settingsHandler.ShowSettings)
			settingsGroup.POST("/render", settingsHandler.UpdateRenderSettings)
			settingsGroup.POST("/password", settingsHandler.ChangePassword)
		}
	}

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.WebAddr, cfg.WebPort)
	logger.Info("Starting dashboard on " + addr)
	if err := router.Run(addr); err != nil {
		logger.Error("Failed to start server", "error", err)
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

// createFailureTracker builds the login failure tracker from the configured
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

func createTemplateRenderer() multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"printf": func(format string, args ...interface{}) string {
			return fmt.Sprintf(format, args...)
		},
		"formatBytes": func(bytes int64) string {
			if bytes == 0 {
				return "0 B"
			}
			const unit = 1024
			if bytes < unit {
				return fmt.Sprintf("%d B", bytes)
			}
			div, exp := int64(unit), 0
			for n := bytes / unit; n >= unit; n /= unit {
				div *= unit
				exp++
			}
			return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
		},
		"toLocal": func(t time.Time) time.Time {
			return t.Local()
		},
		"formatTime": func(v interface{}) string {
			switch t := v.(type) {
			case time.Time:
				return t.Local().Format("2006-01-02 15:04:05")
			case *time.Time:
				if t == nil {
					return ""
				}
				return t.Local().Format("2006-01-02 15:04:05")
			}
			return ""
		},
		"formatDuration": func(d time.Duration) string {
			// Round to the nearest second to remove milliseconds
			seconds := int(d.Round(time.Second).Seconds())

			if seconds < 60 {
				return fmt.Sprintf("%ds", seconds)
			}

			minutes := seconds / 60
			remainingSeconds := seconds % 60

			if remainingSeconds == 0 {
				return fmt.Sprintf("%dm", minutes)
			}

			return fmt.Sprintf("%dm %ds", minutes, remainingSeconds)
		},
		"formatStoragePercent": func(used, max int64) string {
			if max <= 0 {
				return "unlimited"
			}
			return fmt.Sprintf("%.1f%%", float64(used)/float64(max)*100)
		},
		"getStorageColorClass": func(used, max int64) string {
			if max <= 0 {
				return "storage-unlimited"
			}
			percent := float64(used) / float64(max) * 100
			if percent >= 90 {
				return "storage-critical"
			} else if percent >= 75 {
				return "storage-warning"
			} else if percent >= 50 {
				return "storage-caution"
			}
			return "storage-ok"
		},
		"joinFrames": func(frames []int) string {
			parts := make([]string, len(frames))
			for i, frame := range frames {
				parts[i] = fmt.Sprintf("%d", frame)
			}
			return strings.Join(parts, ", ")
		},
	}

	r.AddFromFilesFuncs("layout", funcMap, "web/templates/layout.html")
	r.AddFromFilesFuncs("login", funcMap, "web/templates/layout.html", "web/templates/login.html")
	r.AddFromFilesFuncs("setup", funcMap, "web/templates/layout.html", "web/templates/setup.html")
	r.AddFromFilesFuncs("cameras", funcMap, "web/templates/layout.html", "web/templates/cameras.html")
	r.AddFromFilesFuncs("camera-form", funcMap, "web/templates/layout.html", "web/templates/camera-form.html")
	r.AddFromFilesFuncs("batches", funcMap, "web/templates/layout.html", "web/templates/batches.html")
	r.AddFromFilesFuncs("batch-detail", funcMap, "web/templates/layout.html", "web/templates/batch-detail.html")
	r.AddFromFilesFuncs("stills", funcMap, "web/templates/layout.html", "web/templates/stills.html")
	r.AddFromFilesFuncs("settings", funcMap, "web/templates/layout.html", "web/templates/settings.html")
	r.AddFromFilesFuncs("error", funcMap, "web/templates/layout.html", "web/templates/error.html")
	return r
}
