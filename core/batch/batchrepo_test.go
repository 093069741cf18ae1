package batch

import (
	"context"
	"testing"
	"time"

	"stillbatch/core/ccc/db"
)

func setupBatchRepo(t *testing.T) (*SQLiteBatchRepository, func()) {
	testDB, err := db.NewInMemoryDB()
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}

	repo, err := NewSQLiteBatchRepository(testDB)
	if err != nil {
		testDB.Close()
		t.Fatalf("Failed to create repository: %v", err)
	}

	cleanup := func() {
		testDB.Close()
	}

	return repo, cleanup
}

func createTestBatch(id string, createdAt time.Time) *Batch {
	return &Batch{
		ID:        id,
		State:     BatchStatePending,
		CreatedAt: createdAt,
	}
}

func createTestJob(id, batchID string, position int) *RenderJob {
	return &RenderJob{
		ID:          id,
		BatchID:     batchID,
		CameraID:    "camera-" + id,
		CameraName:  "Cam" + id,
		SourcePath:  "/footage/" + id + ".mp4",
		ShowPreview: true,
		FrameRate:   25,
		Position:    position,
		Frames:      []int{11, 25, 250},
		State:       JobStatePending,
	}
}

func TestSQLiteBatchRepository_AddAndGetBatch(t *testing.T) {
	repo, cleanup := setupBatchRepo(t)
	defer cleanup()

	ctx := context.Background()
	batch := createTestBatch("batch-1", time.Now().UTC())

	if err := repo.AddBatch(ctx, batch); err != nil {
		t.Fatalf("Failed to add batch: %v", err)
	}

	retrieved, err := repo.GetBatchByID(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Failed to get batch: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Expected batch, got nil")
	}

	if retrieved.ID != batch.ID {
		t.Errorf("Expected ID %s, got %s", batch.ID, retrieved.ID)
	}
	if retrieved.State != BatchStatePending {
		t.Errorf("Expected state %s, got %s", BatchStatePending, retrieved.State)
	}
	if retrieved.StartedAt != nil {
		t.Errorf("Expected nil StartedAt, got %v", retrieved.StartedAt)
	}
	if retrieved.FinishedAt != nil {
		t.Errorf("Expected nil FinishedAt, got %v", retrieved.FinishedAt)
	}
}

func TestSQLiteBatchRepository_GetBatchByID_NotFound(t *testing.T) {
	repo, cleanup := setupBatchRepo(t)
	defer cleanup()

	batch, err := repo.GetBatchByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Expected no error for missing batch, got %v", err)
	}
	if batch != nil {
		t.Errorf("Expected nil for missing batch, got %+v", batch)
	}
}

func TestSQLiteBatchRepository_UpdateBatch(t *testing.T) {
	repo, cleanup := setupBatchRepo(t)
	defer cleanup()

	ctx := context.Background()
	batch := createTestBatch("batch-1", time.Now().UTC())

	if err := repo.AddBatch(ctx, batch); err != nil {
		t.Fatalf("Failed to add batch: %v", err)
	}

	started := time.Now().UTC()
	finished := started.Add(90 * time.Second)
	batch.State = BatchStateFinished
	batch.StartedAt = &started
	batch.FinishedAt = &finished
	batch.Rendered = 12
	batch.Skipped = 3
	batch.Failed = 1
	batch.JobsSkipped = 2

	if err := repo.UpdateBatch(ctx, batch); err != nil {
		t.Fatalf("Failed to update batch: %v", err)
	}

	retrieved, err := repo.GetBatchByID(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Failed to get batch: %v", err)
	}

	if retrieved.State != BatchStateFinished {
		t.Errorf("Expected state %s, got %s", BatchStateFinished, retrieved.State)
	}
	if retrieved.StartedAt == nil || !retrieved.StartedAt.Equal(started) {
		t.Errorf("Expected StartedAt %v, got %v", started, retrieved.StartedAt)
	}
	if retrieved.FinishedAt == nil || !retrieved.FinishedAt.Equal(finished) {
		t.Errorf("Expected FinishedAt %v, got %v", finished, retrieved.FinishedAt)
	}
	if retrieved.Rendered != 12 || retrieved.Skipped != 3 || retrieved.Failed != 1 {
		t.Errorf("Expected counts 12/3/1, got %d/%d/%d",
			retrieved.Rendered, retrieved.Skipped, retrieved.Failed)
	}
	if retrieved.JobsSkipped != 2 {
		t.Errorf("Expected 2 skipped jobs, got %d", retrieved.JobsSkipped)
	}
}

func TestSQLiteBatchRepository_UpdateBatch_NotFound(t *testing.T) {
	repo, cleanup := setupBatchRepo(t)
	defer cleanup()

	batch := createTestBatch("missing", time.Now().UTC())
	if err := repo.UpdateBatch(context.Background(), batch); err == nil {
		t.Error("Expected error when updating missing batch, got nil")
	}
}

func TestSQLiteBatchRepository_GetAllBatches_NewestFirst(t *testing.T) {
	repo, cleanup := setupBatchRepo(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().UTC()

	for i, id := range []string{"batch-old", "batch-mid", "batch-new"} {
		b := createTestBatch(id, base.Add(time.Duration(i)*time.Minute))
		if err := repo.AddBatch(ctx, b); err != nil {
			t.Fatalf("Failed to add batch %s: %v", id, err)
		}
	}

	batches, err := repo.GetAllBatches(ctx)
	if err != nil {
		t.Fatalf("Failed to get batches: %v", err)
	}

	if len(batches) != 3 {
		t.Fatalf("Expected 3 batches, got %d", len(batches))
	}
	if batches[0].ID != "batch-new" || batches[2].ID != "batch-old" {
		t.Errorf("Expected newest-first order, got %s, %s, %s",
			batches[0].ID, batches[1].ID, batches[2].ID)
	}
}

func TestSQLiteBatchRepository_AddAndGetJobs(t *testing.T) {
	repo, cleanup := setupBatchRepo(t)
	defer cleanup()

	ctx := context.Background()
	batch := createTestBatch("batch-1", time.Now().UTC())
	if err := repo.AddBatch(ctx, batch); err != nil {
		t.Fatalf("Failed to add batch: %v", err)
	}

	// Insert out of position order to verify ordering comes from the query
	for _, job := range []*RenderJob{
		createTestJob("job-2", batch.ID, 2),
		createTestJob("job-1", batch.ID, 1),
		createTestJob("job-3", batch.ID, 3),
	} {
		if err := repo.AddJob(ctx, job); err != nil {
			t.Fatalf("Failed to add job %s: %v", job.ID, err)
		}
	}

	jobs, err := repo.GetJobsByBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Failed to get jobs: %v", err)
	}

	if len(jobs) != 3 {
		t.Fatalf("Expected 3 jobs, got %d", len(jobs))
	}
	for i, expected := range []string{"job-1", "job-2", "job-3"} {
		if jobs[i].ID != expected {
			t.Errorf("Expected job %s at index %d, got %s", expected, i, jobs[i].ID)
		}
	}

	first := jobs[0]
	if first.CameraName != "Camjob-1" {
		t.Errorf("Expected camera name Camjob-1, got %s", first.CameraName)
	}
	if !first.ShowPreview {
		t.Error("Expected ShowPreview to survive the round trip")
	}
	if len(first.Frames) != 3 || first.Frames[0] != 11 || first.Frames[2] != 250 {
		t.Errorf("Expected frames [11 25 250], got %v", first.Frames)
	}
}

func TestSQLiteBatchRepository_UpdateJob(t *testing.T) {
	repo, cleanup := setupBatchRepo(t)
	defer cleanup()

	ctx := context.Background()
	batch := createTestBatch("batch-1", time.Now().UTC())
	if err := repo.AddBatch(ctx, batch); err != nil {
		t.Fatalf("Failed to add batch: %v", err)
	}

	job := createTestJob("job-1", batch.ID, 1)
	if err := repo.AddJob(ctx, job); err != nil {
		t.Fatalf("Failed to add job: %v", err)
	}

	job.State = JobStateFinished
	job.Rendered = 2
	job.Skipped = 1

	if err := repo.UpdateJob(ctx, job); err != nil {
		t.Fatalf("Failed to update job: %v", err)
	}

	jobs, err := repo.GetJobsByBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Failed to get jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(jobs))
	}

	if jobs[0].State != JobStateFinished {
		t.Errorf("Expected state %s, got %s", JobStateFinished, jobs[0].State)
	}
	if jobs[0].Rendered != 2 || jobs[0].Skipped != 1 {
		t.Errorf("Expected counts 2/1, got %d/%d", jobs[0].Rendered, jobs[0].Skipped)
	}
}

func TestSQLiteBatchRepository_UpdateJob_NotFound(t *testing.T) {
	repo, cleanup := setupBatchRepo(t)
	defer cleanup()

	job := createTestJob("missing", "batch-1", 1)
	if err := repo.UpdateJob(context.Background(), job); err == nil {
		t.Error("Expected error when updating missing job, got nil")
	}
}

func TestSQLiteBatchRepository_JobWithEmptyFrames(t *testing.T) {
	repo, cleanup := setupBatchRepo(t)
	defer cleanup()

	ctx := context.Background()
	batch := createTestBatch("batch-1", time.Now().UTC())
	if err := repo.AddBatch(ctx, batch); err != nil {
		t.Fatalf("Failed to add batch: %v", err)
	}

	job := createTestJob("job-1", batch.ID, 1)
	job.SourcePath = ""
	job.Frames = nil

	if err := repo.AddJob(ctx, job); err != nil {
		t.Fatalf("Failed to add job: %v", err)
	}

	jobs, err := repo.GetJobsByBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("Failed to get jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("Expected 1 job, got %d", len(jobs))
	}
	if len(jobs[0].Frames) != 0 {
		t.Errorf("Expected empty frame list, got %v", jobs[0].Frames)
	}
}
