package e2e

import (
	"bytes"
	"database/sql"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"stillbatch/core/batch"
	"stillbatch/core/cameras"
	"stillbatch/core/frames"
	"stillbatch/core/operators"
	"stillbatch/core/rendering"
	"stillbatch/render-client/client"
	"stillbatch/render-server/handlers"
	"stillbatch/render-server/middleware"
)

// The end-to-end test wires the full server stack against a real SQLite
// database, serves the API over HTTP and drives it with the stillctl HTTP
// client. Only the renderer and the footage inspector are faked: the
// renderer still writes real output files so the skip-on-existing and
// manifest paths run for real.

// pngStub carries the PNG magic bytes so the file endpoint's content
// sniffing sees a real image.
var pngStub = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x00}

// fakeRenderer completes each render asynchronously and writes a real
// output file, like the production backends do.
type fakeRenderer struct {
	mu       sync.Mutex
	requests []rendering.RenderRequest
}

func (f *fakeRenderer) RenderStill(request rendering.RenderRequest) (<-chan error, error) {
	f.mu.Lock()
	f.requests = append(f.requests, request)
	f.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- os.WriteFile(request.OutputPath, pngStub, 0644)
	}()
	return done, nil
}

func (f *fakeRenderer) requestedFrames() []int {
	f.mu.Lock()
	defer f.mu.Unlock()

	numbers := make([]int, len(f.requests))
	for i, request := range f.requests {
		numbers[i] = request.Frame
	}
	return numbers
}

// stubInspector reports fixed footage properties so jobs get a frame rate
// without probing real files.
type stubInspector struct{}

func (stubInspector) Inspect(sourcePath string) (*rendering.FootageInfo, error) {
	return &rendering.FootageInfo{Width: 1920, Height: 1080, FrameRate: 25, FrameCount: 1000}, nil
}

type harness struct {
	client    client.RenderServerClient
	renderer  *fakeRenderer
	outputDir string
	serverURL string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	outputDir := filepath.Join(dir, "output")
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		t.Fatalf("Failed to create output directory: %v", err)
	}

	db, err := sql.Open("sqlite3", filepath.Join(dir, "stillbatch.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	operatorRepo, err := operators.NewSQLiteOperatorRepository(db)
	if err != nil {
		t.Fatalf("Failed to create operator repository: %v", err)
	}
	cameraRepo, err := cameras.NewSQLiteCameraRepository(db)
	if err != nil {
		t.Fatalf("Failed to create camera repository: %v", err)
	}
	stillRepo, err := rendering.NewSQLiteStillRepository(db)
	if err != nil {
		t.Fatalf("Failed to create still repository: %v", err)
	}
	batchRepo, err := batch.NewSQLiteBatchRepository(db)
	if err != nil {
		t.Fatalf("Failed to create batch repository: %v", err)
	}

	operatorService := operators.NewOperatorService(nil, operatorRepo)
	operator, secret, err := operatorService.CreateOperator("e2e-operator")
	if err != nil {
		t.Fatalf("Failed to create operator: %v", err)
	}

	parser := frames.NewParser(nil)
	cameraService := cameras.NewCameraService(nil, cameraRepo, parser)

	scene := rendering.NewScene(rendering.RenderSettings{
		OutputDir: outputDir,
		Format:    "PNG",
		Overwrite: false,
		FrameRate: 24,
	})

	storageManager := rendering.NewStorageManager(nil, stillRepo, nil, 0)
	stillReader := rendering.NewStillReader(nil, stillRepo)
	stillDeleter := rendering.NewStillDeleter(nil, stillRepo)
	manifestGenerator := rendering.NewJSONManifestGenerator(nil)

	renderer := &fakeRenderer{}
	runner := batch.NewRunner(nil, scene, renderer, nil, 5*time.Millisecond)
	batchService := batch.NewBatchService(
		nil,
		batchRepo,
		cameraRepo,
		parser,
		runner,
		scene,
		stubInspector{},
		storageManager,
		stillRepo,
		nil,
		manifestGenerator,
		nil,
	)

	authMiddleware := middleware.NewAuthMiddleware(nil, operators.NewOperatorVerifier(operatorRepo), operatorService, nil, nil)
	cameraHandler := handlers.NewCameraHandler(nil, cameraService, stillRepo, nil)
	batchHandler := handlers.NewBatchHandler(nil, batchService, stillRepo, manifestGenerator)
	stillHandler := handlers.NewStillHandler(nil, stillReader, stillDeleter, nil)
	sceneHandler := handlers.NewSceneHandler(nil, scene)

	gin.SetMode(gin.TestMode)
	router := gin.New()

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())

	api.GET("/cameras", cameraHandler.ListCameras)
	api.POST("/cameras", cameraHandler.CreateCamera)
	api.GET("/cameras/:id", cameraHandler.GetCamera)
	api.PUT("/cameras/:id", cameraHandler.UpdateCamera)
	api.DELETE("/cameras/:id", cameraHandler.DeleteCamera)

	api.POST("/batches", batchHandler.StartBatch)
	api.GET("/batches", batchHandler.ListBatches)
	api.GET("/batches/status", batchHandler.GetStatus)
	api.GET("/batches/:id", batchHandler.GetBatch)
	api.POST("/batches/:id/cancel", batchHandler.CancelBatch)
	api.GET("/batches/:id/manifest", batchHandler.GetManifest)

	api.GET("/stills", stillHandler.ListStills)
	api.DELETE("/stills", stillHandler.DeleteStills)
	api.GET("/stills/:id", stillHandler.GetStill)
	api.GET("/stills/:id/file", stillHandler.GetStillFile)

	api.GET("/scene/settings", sceneHandler.GetSettings)
	api.PUT("/scene/settings", sceneHandler.UpdateSettings)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &harness{
		client:    client.NewRenderServerClient(server.URL, operator.ID, secret, 10*time.Second),
		renderer:  renderer,
		outputDir: outputDir,
		serverURL: server.URL,
	}
}

// waitForBatch polls the status endpoint until no batch is running
func (h *harness) waitForBatch(t *testing.T) {
	t.Helper()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		status, err := h.client.GetBatchStatus(t.Context())
		if err != nil {
			t.Fatalf("Failed to get batch status: %v", err)
		}
		if !status.Running {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for the batch to finish")
}

func (h *harness) addCamera(t *testing.T, name, sourcePath, frameRanges string) *client.CameraResponse {
	t.Helper()

	camera, err := h.client.CreateCamera(t.Context(), client.CameraRequest{
		Name:        name,
		SourcePath:  sourcePath,
		FrameRanges: frameRanges,
	})
	if err != nil {
		t.Fatalf("Failed to create camera %s: %v", name, err)
	}
	return camera
}

func TestEndToEnd_RenderBatch(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	// The "abc" token is invalid and must be skipped, 252-250 expands
	// descending, and SpareCam has no footage so its job is skipped.
	h.addCamera(t, "FrontCam", "/footage/front.mp4", "11,25,abc,40-42")
	h.addCamera(t, "BackCam", "/footage/back.mp4", "252-250")
	h.addCamera(t, "SpareCam", "", "1-5")

	started, err := h.client.StartBatch(ctx)
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}
	h.waitForBatch(t)

	detail, err := h.client.GetBatch(ctx, started.ID)
	if err != nil {
		t.Fatalf("Failed to get batch: %v", err)
	}

	if detail.Batch.State != "finished" {
		t.Errorf("Expected batch state finished, got %s", detail.Batch.State)
	}
	if detail.Batch.Rendered != 8 {
		t.Errorf("Expected 8 rendered frames, got %d", detail.Batch.Rendered)
	}
	if detail.Batch.JobsSkipped != 1 {
		t.Errorf("Expected 1 skipped job, got %d", detail.Batch.JobsSkipped)
	}

	// Jobs render strictly in camera order, frames in parsed order
	expected := []int{11, 25, 40, 41, 42, 252, 251, 250}
	requested := h.renderer.requestedFrames()
	if len(requested) != len(expected) {
		t.Fatalf("Expected %d render requests, got %d", len(expected), len(requested))
	}
	for i, frame := range expected {
		if requested[i] != frame {
			t.Errorf("Expected frame %d at index %d, got %d", frame, i, requested[i])
		}
	}

	if len(detail.Jobs) != 3 {
		t.Fatalf("Expected 3 jobs, got %d", len(detail.Jobs))
	}
	for i, name := range []string{"FrontCam", "BackCam", "SpareCam"} {
		if detail.Jobs[i].CameraName != name {
			t.Errorf("Expected job %d to be %s, got %s", i, name, detail.Jobs[i].CameraName)
		}
	}
	if detail.Jobs[2].State != "skipped" {
		t.Errorf("Expected SpareCam job to be skipped, got %s", detail.Jobs[2].State)
	}

	// Outputs land in the scene's output directory under the naming rule
	for _, want := range []string{"FrontCam_frame11.png", "BackCam_frame250.png"} {
		if _, err := os.Stat(filepath.Join(h.outputDir, want)); err != nil {
			t.Errorf("Expected output file %s: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(h.outputDir, "batch_"+started.ID+".json")); err != nil {
		t.Errorf("Expected batch manifest to be written: %v", err)
	}

	// The stills are recorded and their files served over the API
	list, err := h.client.ListStills(ctx, client.StillListOptions{BatchID: started.ID})
	if err != nil {
		t.Fatalf("Failed to list stills: %v", err)
	}
	if list.Total != 8 {
		t.Errorf("Expected 8 stills, got %d", list.Total)
	}

	data, contentType, err := h.client.FetchStillFile(ctx, list.Stills[0].ID)
	if err != nil {
		t.Fatalf("Failed to fetch still file: %v", err)
	}
	if !bytes.Equal(data, pngStub) {
		t.Errorf("Expected rendered file contents, got %q", data)
	}
	if contentType != "image/png" {
		t.Errorf("Expected content type image/png, got %s", contentType)
	}
}

func TestEndToEnd_RerunSkipsExistingOutputs(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	h.addCamera(t, "FrontCam", "/footage/front.mp4", "1-3")

	first, err := h.client.StartBatch(ctx)
	if err != nil {
		t.Fatalf("Failed to start first batch: %v", err)
	}
	h.waitForBatch(t)

	firstDetail, err := h.client.GetBatch(ctx, first.ID)
	if err != nil {
		t.Fatalf("Failed to get first batch: %v", err)
	}
	if firstDetail.Batch.Rendered != 3 {
		t.Fatalf("Expected 3 rendered frames, got %d", firstDetail.Batch.Rendered)
	}

	// With overwrite disabled, the rerun finds every output on disk
	second, err := h.client.StartBatch(ctx)
	if err != nil {
		t.Fatalf("Failed to start second batch: %v", err)
	}
	h.waitForBatch(t)

	secondDetail, err := h.client.GetBatch(ctx, second.ID)
	if err != nil {
		t.Fatalf("Failed to get second batch: %v", err)
	}
	if secondDetail.Batch.Rendered != 0 || secondDetail.Batch.Skipped != 3 {
		t.Errorf("Expected 0 rendered and 3 skipped, got %d/%d",
			secondDetail.Batch.Rendered, secondDetail.Batch.Skipped)
	}

	if total := len(h.renderer.requestedFrames()); total != 3 {
		t.Errorf("Expected no render requests on the rerun, got %d total", total)
	}
}

func TestEndToEnd_SingleBatchAndCancel(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	// Enough frames that the batch is still running when we interfere
	h.addCamera(t, "FrontCam", "/footage/front.mp4", "1-500")

	started, err := h.client.StartBatch(ctx)
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}

	_, err = h.client.StartBatch(ctx)
	if err == nil {
		t.Fatal("Expected starting a second batch to fail")
	}
	if !client.IsServerError(err) {
		t.Fatalf("Expected a server error, got %v", err)
	}
	if client.IsRecoverableServerError(err) {
		t.Error("Expected the conflict to be non-recoverable")
	}

	if err := h.client.CancelBatch(ctx, started.ID); err != nil {
		t.Fatalf("Failed to cancel batch: %v", err)
	}
	h.waitForBatch(t)

	detail, err := h.client.GetBatch(ctx, started.ID)
	if err != nil {
		t.Fatalf("Failed to get batch: %v", err)
	}
	if detail.Batch.State != "cancelled" {
		t.Errorf("Expected batch state cancelled, got %s", detail.Batch.State)
	}
}

func TestEndToEnd_SceneSettingsRoundTrip(t *testing.T) {
	h := newHarness(t)
	ctx := t.Context()

	newOutputDir := filepath.Join(filepath.Dir(h.outputDir), "renders")
	if err := os.MkdirAll(newOutputDir, 0755); err != nil {
		t.Fatalf("Failed to create output directory: %v", err)
	}

	err := h.client.UpdateSceneSettings(ctx, client.UpdateSceneSettingsRequest{
		OutputDir: newOutputDir,
		Format:    "JPEG",
		Overwrite: true,
		FrameRate: 30,
	})
	if err != nil {
		t.Fatalf("Failed to update scene settings: %v", err)
	}

	settings, err := h.client.GetSceneSettings(ctx)
	if err != nil {
		t.Fatalf("Failed to get scene settings: %v", err)
	}
	if settings.OutputDir != newOutputDir || settings.Format != "JPEG" || !settings.Overwrite || settings.FrameRate != 30 {
		t.Errorf("Expected updated settings to be returned, got %+v", settings)
	}

	// The next batch renders into the new directory with the new format
	h.addCamera(t, "FrontCam", "/footage/front.mp4", "7")
	if _, err := h.client.StartBatch(ctx); err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}
	h.waitForBatch(t)

	if _, err := os.Stat(filepath.Join(newOutputDir, "FrontCam_frame7.jpg")); err != nil {
		t.Errorf("Expected output in the new directory and format: %v", err)
	}
}

func TestEndToEnd_RejectsInvalidCredentials(t *testing.T) {
	h := newHarness(t)

	// A client with the wrong secret is turned away at the middleware
	intruder := client.NewRenderServerClient(
		h.serverURL, "e2e-operator", "wrong-secret", 10*time.Second)

	_, err := intruder.ListCameras(t.Context())
	if err == nil {
		t.Fatal("Expected authentication to fail")
	}
	if !client.IsServerError(err) {
		t.Fatalf("Expected a server error, got %v", err)
	}
}
