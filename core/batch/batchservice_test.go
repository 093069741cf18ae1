package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stillbatch/core/cameras"
	"stillbatch/core/ccc/db"
	"stillbatch/core/frames"
	"stillbatch/core/notifications"
	"stillbatch/core/rendering"
)

// mockInspector reports a fixed frame rate for any footage
type mockInspector struct {
	frameRate float64
	failPaths map[string]bool
}

func (m *mockInspector) Inspect(sourcePath string) (*rendering.FootageInfo, error) {
	if m.failPaths[sourcePath] {
		return nil, os.ErrNotExist
	}
	return &rendering.FootageInfo{
		Width:     1920,
		Height:    1080,
		FrameRate: m.frameRate,
	}, nil
}

// mockBatchNotifier captures the batch summary
type mockBatchNotifier struct {
	mu        sync.Mutex
	summaries []notifications.BatchSummary
}

func (m *mockBatchNotifier) NotifyBatchFinished(summary notifications.BatchSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaries = append(m.summaries, summary)
	return nil
}

func (m *mockBatchNotifier) summaryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.summaries)
}

type serviceFixture struct {
	service    *batchService
	runner     *Runner
	scene      *rendering.Scene
	renderer   *fakeRenderer
	repo       *SQLiteBatchRepository
	cameraRepo *cameras.SQLiteCameraRepository
	stillRepo  rendering.StillRepository
	notifier   *mockBatchNotifier
	db         *sql.DB
}

func setupService(t *testing.T) *serviceFixture {
	t.Helper()

	testDB, err := db.NewInMemoryDB()
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}
	t.Cleanup(func() { testDB.Close() })

	repo, err := NewSQLiteBatchRepository(testDB)
	if err != nil {
		t.Fatalf("Failed to create batch repository: %v", err)
	}
	cameraRepo, err := cameras.NewSQLiteCameraRepository(testDB)
	if err != nil {
		t.Fatalf("Failed to create camera repository: %v", err)
	}
	stillRepo, err := rendering.NewSQLiteStillRepository(testDB)
	if err != nil {
		t.Fatalf("Failed to create still repository: %v", err)
	}

	scene := rendering.NewScene(rendering.RenderSettings{
		OutputDir: t.TempDir(),
		Format:    "PNG",
		Overwrite: false,
		FrameRate: 24,
	})

	renderer := &fakeRenderer{}
	runner := NewRunner(nil, scene, renderer, nil, 5*time.Millisecond)
	storageManager := rendering.NewStorageManager(nil, stillRepo, notifications.NopStorageNotifier, 0)
	notifier := &mockBatchNotifier{}

	service := NewBatchService(
		nil,
		repo,
		cameraRepo,
		frames.NewParser(nil),
		runner,
		scene,
		&mockInspector{frameRate: 30},
		storageManager,
		stillRepo,
		nil,
		rendering.NewJSONManifestGenerator(nil),
		notifier,
	)

	return &serviceFixture{
		service:    service,
		runner:     runner,
		scene:      scene,
		renderer:   renderer,
		repo:       repo,
		cameraRepo: cameraRepo,
		stillRepo:  stillRepo,
		notifier:   notifier,
		db:         testDB,
	}
}

func (f *serviceFixture) addCamera(t *testing.T, name, sourcePath, frameRanges string) *cameras.CameraSetting {
	t.Helper()
	now := time.Now().UTC()
	camera := &cameras.CameraSetting{
		ID:          "camera-" + name,
		Name:        name,
		SourcePath:  sourcePath,
		FrameRanges: frameRanges,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := f.cameraRepo.Create(context.Background(), camera); err != nil {
		t.Fatalf("Failed to create camera %s: %v", name, err)
	}
	return camera
}

func (f *serviceFixture) waitForBatch(t *testing.T, batchID string) *Batch {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !f.runner.IsRunning() {
			batch, err := f.repo.GetBatchByID(context.Background(), batchID)
			if err != nil {
				t.Fatalf("Failed to get batch: %v", err)
			}
			return batch
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for the batch to finish")
	return nil
}

func TestBatchService_StartBatch(t *testing.T) {
	f := setupService(t)
	f.addCamera(t, "FrontCam", "/footage/front.mp4", "11,25")
	f.addCamera(t, "BackCam", "/footage/back.mp4", "250-252")

	batch, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}

	finished := f.waitForBatch(t, batch.ID)
	if finished.State != BatchStateFinished {
		t.Errorf("Expected batch state %s, got %s", BatchStateFinished, finished.State)
	}
	if finished.Rendered != 5 {
		t.Errorf("Expected 5 rendered frames, got %d", finished.Rendered)
	}

	jobs, err := f.repo.GetJobsByBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("Failed to get jobs: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].CameraName != "FrontCam" || jobs[1].CameraName != "BackCam" {
		t.Errorf("Expected jobs in camera order, got %s, %s", jobs[0].CameraName, jobs[1].CameraName)
	}
	for _, job := range jobs {
		if job.State != JobStateFinished {
			t.Errorf("Expected job %s to be finished, got %s", job.ID, job.State)
		}
		if job.FrameRate != 30 {
			t.Errorf("Expected probed frame rate 30, got %f", job.FrameRate)
		}
	}
	if len(jobs[1].Frames) != 3 {
		t.Errorf("Expected range 250-252 to expand to 3 frames, got %v", jobs[1].Frames)
	}

	// Rendered stills are recorded
	stills, err := f.stillRepo.GetByBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("Failed to get stills: %v", err)
	}
	if len(stills) != 5 {
		t.Errorf("Expected 5 stills, got %d", len(stills))
	}

	if f.notifier.summaryCount() != 1 {
		t.Errorf("Expected 1 notification, got %d", f.notifier.summaryCount())
	}
}

func TestBatchService_StartBatchReturnsDetachedSnapshot(t *testing.T) {
	f := setupService(t)
	f.addCamera(t, "EmptyCam", "", "11")
	f.addCamera(t, "FrontCam", "/footage/front.mp4", "1-20")

	batch, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}

	// The runner mutates the live batch from its loop; the returned copy
	// must stay stable while the batch runs
	for range 25 {
		if batch.State != BatchStateRunning || batch.JobsSkipped != 0 {
			t.Fatal("Expected the returned batch to be detached from the running batch")
		}
		time.Sleep(time.Millisecond)
	}

	finished := f.waitForBatch(t, batch.ID)
	if finished.JobsSkipped != 1 || finished.Rendered != 20 {
		t.Errorf("Expected 1 skipped job and 20 rendered frames, got %d/%d",
			finished.JobsSkipped, finished.Rendered)
	}
}

func TestBatchService_StartBatch_NoCameras(t *testing.T) {
	f := setupService(t)

	_, err := f.service.StartBatch()
	if !IsNoJobsError(err) {
		t.Errorf("Expected NoJobsError, got %v", err)
	}
}

func TestBatchService_StartBatch_WhileRunning(t *testing.T) {
	f := setupService(t)
	f.addCamera(t, "FrontCam", "/footage/front.mp4", "1-100")

	batch, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}

	_, err = f.service.StartBatch()
	if !IsBatchInProgressError(err) {
		t.Errorf("Expected BatchInProgressError, got %v", err)
	}

	if err := f.service.CancelBatch(batch.ID); err != nil {
		t.Fatalf("Failed to cancel batch: %v", err)
	}
	f.waitForBatch(t, batch.ID)
}

func TestBatchService_StartBatch_CameraWithoutFootage(t *testing.T) {
	f := setupService(t)
	f.addCamera(t, "EmptyCam", "", "11,25")
	f.addCamera(t, "FrontCam", "/footage/front.mp4", "11")

	batch, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}

	finished := f.waitForBatch(t, batch.ID)
	if finished.JobsSkipped != 1 {
		t.Errorf("Expected 1 skipped job, got %d", finished.JobsSkipped)
	}
	if finished.Rendered != 1 {
		t.Errorf("Expected 1 rendered frame, got %d", finished.Rendered)
	}

	jobs, err := f.repo.GetJobsByBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("Failed to get jobs: %v", err)
	}
	if jobs[0].State != JobStateSkipped {
		t.Errorf("Expected job without footage to be skipped, got %s", jobs[0].State)
	}
}

func TestBatchService_StartBatch_ProbeFailureFallsBack(t *testing.T) {
	f := setupService(t)
	f.service.inspector = &mockInspector{
		frameRate: 30,
		failPaths: map[string]bool{"/footage/broken.mp4": true},
	}
	f.addCamera(t, "BrokenCam", "/footage/broken.mp4", "11")

	batch, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}
	f.waitForBatch(t, batch.ID)

	jobs, err := f.repo.GetJobsByBatch(context.Background(), batch.ID)
	if err != nil {
		t.Fatalf("Failed to get jobs: %v", err)
	}
	if jobs[0].FrameRate != 0 {
		t.Errorf("Expected zero frame rate for unprobeable footage, got %f", jobs[0].FrameRate)
	}

	// The runner falls back to the scene's frame rate at dispatch time
	requests := f.renderer.requests
	if len(requests) != 1 {
		t.Fatalf("Expected 1 render request, got %d", len(requests))
	}
	if requests[0].FrameRate != 24 {
		t.Errorf("Expected fallback frame rate 24, got %f", requests[0].FrameRate)
	}
}

func TestBatchService_CancelBatch(t *testing.T) {
	f := setupService(t)

	if err := f.service.CancelBatch("any"); !IsNoBatchRunningError(err) {
		t.Errorf("Expected NoBatchRunningError, got %v", err)
	}

	f.addCamera(t, "FrontCam", "/footage/front.mp4", "1-200")

	batch, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}

	if err := f.service.CancelBatch("some-other-batch"); !IsBatchNotFoundError(err) {
		t.Errorf("Expected BatchNotFoundError for wrong ID, got %v", err)
	}

	if err := f.service.CancelBatch(batch.ID); err != nil {
		t.Fatalf("Failed to cancel batch: %v", err)
	}

	finished := f.waitForBatch(t, batch.ID)
	if finished.State != BatchStateCancelled {
		t.Errorf("Expected batch state %s, got %s", BatchStateCancelled, finished.State)
	}

	if f.notifier.summaryCount() != 1 {
		t.Fatalf("Expected 1 notification, got %d", f.notifier.summaryCount())
	}
	if !f.notifier.summaries[0].Cancelled {
		t.Error("Expected notification to be marked cancelled")
	}
}

func TestBatchService_GetBatch(t *testing.T) {
	f := setupService(t)
	f.addCamera(t, "FrontCam", "/footage/front.mp4", "11")

	batch, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}
	f.waitForBatch(t, batch.ID)

	detail, err := f.service.GetBatch(batch.ID)
	if err != nil {
		t.Fatalf("Failed to get batch: %v", err)
	}
	if detail.Batch.ID != batch.ID {
		t.Errorf("Expected batch %s, got %s", batch.ID, detail.Batch.ID)
	}
	if len(detail.Jobs) != 1 {
		t.Errorf("Expected 1 job, got %d", len(detail.Jobs))
	}

	if _, err := f.service.GetBatch("missing"); !IsBatchNotFoundError(err) {
		t.Errorf("Expected BatchNotFoundError, got %v", err)
	}
}

func TestBatchService_ListBatches(t *testing.T) {
	f := setupService(t)
	f.addCamera(t, "FrontCam", "/footage/front.mp4", "11")

	first, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start first batch: %v", err)
	}
	f.waitForBatch(t, first.ID)

	// The first batch rendered frame 11; the second run skips it
	second, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start second batch: %v", err)
	}
	finished := f.waitForBatch(t, second.ID)

	if finished.Skipped != 1 || finished.Rendered != 0 {
		t.Errorf("Expected rerun to skip the existing still, got rendered=%d skipped=%d",
			finished.Rendered, finished.Skipped)
	}

	batches, err := f.service.ListBatches()
	if err != nil {
		t.Fatalf("Failed to list batches: %v", err)
	}
	if len(batches) != 2 {
		t.Errorf("Expected 2 batches, got %d", len(batches))
	}
}

func TestBatchService_WritesManifest(t *testing.T) {
	f := setupService(t)
	f.addCamera(t, "FrontCam", "/footage/front.mp4", "11,25")

	batch, err := f.service.StartBatch()
	if err != nil {
		t.Fatalf("Failed to start batch: %v", err)
	}
	f.waitForBatch(t, batch.ID)

	manifestPath := filepath.Join(f.scene.Settings().OutputDir, "batch_"+batch.ID+".json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("Failed to read manifest: %v", err)
	}

	var manifest rendering.BatchManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("Failed to decode manifest: %v", err)
	}
	if manifest.BatchID != batch.ID {
		t.Errorf("Expected manifest for batch %s, got %s", batch.ID, manifest.BatchID)
	}
	if len(manifest.Stills) != 2 {
		t.Errorf("Expected 2 stills in manifest, got %d", len(manifest.Stills))
	}
}
