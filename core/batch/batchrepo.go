package batch

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"stillbatch/core/ccc/db"
)

// BatchRepository defines the interface for persisting batches and their jobs
type BatchRepository interface {
	// AddBatch stores a new Batch
	AddBatch(ctx context.Context, batch *Batch) error
	// UpdateBatch updates a Batch's state and counts
	UpdateBatch(ctx context.Context, batch *Batch) error
	// GetBatchByID retrieves a Batch by its ID
	GetBatchByID(ctx context.Context, id string) (*Batch, error)
	// GetAllBatches retrieves all Batches, newest first
	GetAllBatches(ctx context.Context) ([]*Batch, error)
	// AddJob stores a new RenderJob
	AddJob(ctx context.Context, job *RenderJob) error
	// UpdateJob updates a RenderJob's state and counts
	UpdateJob(ctx context.Context, job *RenderJob) error
	// GetJobsByBatch retrieves a batch's jobs in configured camera order
	GetJobsByBatch(ctx context.Context, batchID string) ([]*RenderJob, error)
}

// SQLiteBatchRepository implements BatchRepository using SQLite
type SQLiteBatchRepository struct {
	db *sql.DB
}

// NewSQLiteBatchRepository creates a new SQLite-based BatchRepository
func NewSQLiteBatchRepository(db *sql.DB) (*SQLiteBatchRepository, error) {
	repo := &SQLiteBatchRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteBatchRepository) createTables() error {
	createBatchesTable := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		state TEXT NOT NULL,
		created_at TEXT NOT NULL,
		started_at TEXT,
		finished_at TEXT,
		rendered INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		jobs_skipped INTEGER NOT NULL
	);`

	createJobsTable := `
	CREATE TABLE IF NOT EXISTS render_jobs (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		camera_id TEXT NOT NULL,
		camera_name TEXT NOT NULL,
		source_path TEXT NOT NULL,
		show_preview INTEGER NOT NULL,
		frame_rate REAL NOT NULL,
		position INTEGER NOT NULL,
		frames TEXT NOT NULL,
		state TEXT NOT NULL,
		rendered INTEGER NOT NULL,
		skipped INTEGER NOT NULL,
		failed INTEGER NOT NULL
	);`

	if _, err := r.db.Exec(createBatchesTable); err != nil {
		return err
	}
	_, err := r.db.Exec(createJobsTable)
	return err
}

// AddBatch stores a new Batch
func (r *SQLiteBatchRepository) AddBatch(ctx context.Context, batch *Batch) error {
	query := `
	INSERT INTO batches (id, state, created_at, started_at, finished_at, rendered, skipped, failed, jobs_skipped)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		batch.ID, string(batch.State), db.TimeToString(batch.CreatedAt),
		db.TimePtrToString(batch.StartedAt), db.TimePtrToString(batch.FinishedAt),
		batch.Rendered, batch.Skipped, batch.Failed, batch.JobsSkipped,
	)
	if err != nil {
		return fmt.Errorf("failed to add batch: %w", err)
	}

	return nil
}

// UpdateBatch updates a Batch's state and counts
func (r *SQLiteBatchRepository) UpdateBatch(ctx context.Context, batch *Batch) error {
	query := `
	UPDATE batches
	SET state = ?, started_at = ?, finished_at = ?, rendered = ?, skipped = ?, failed = ?, jobs_skipped = ?
	WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(batch.State), db.TimePtrToString(batch.StartedAt), db.TimePtrToString(batch.FinishedAt),
		batch.Rendered, batch.Skipped, batch.Failed, batch.JobsSkipped,
		batch.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update batch: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("batch with ID %s not found", batch.ID)
	}

	return nil
}

func (r *SQLiteBatchRepository) scanBatch(scan func(dest ...any) error) (*Batch, error) {
	batch := &Batch{}
	var state, createdAtStr string
	var startedAtStr, finishedAtStr *string

	err := scan(
		&batch.ID, &state, &createdAtStr, &startedAtStr, &finishedAtStr,
		&batch.Rendered, &batch.Skipped, &batch.Failed, &batch.JobsSkipped,
	)
	if err != nil {
		return nil, err
	}

	batch.State = BatchState(state)

	batch.CreatedAt, err = db.StringToTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}

	if startedAtStr != nil {
		startedAt, err := db.StringToTime(*startedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse started_at timestamp: %w", err)
		}
		batch.StartedAt = &startedAt
	}

	if finishedAtStr != nil {
		finishedAt, err := db.StringToTime(*finishedAtStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse finished_at timestamp: %w", err)
		}
		batch.FinishedAt = &finishedAt
	}

	return batch, nil
}

// GetBatchByID retrieves a Batch by its ID
func (r *SQLiteBatchRepository) GetBatchByID(ctx context.Context, id string) (*Batch, error) {
	query := `
	SELECT id, state, created_at, started_at, finished_at, rendered, skipped, failed, jobs_skipped
	FROM batches WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)

	batch, err := r.scanBatch(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get batch by ID: %w", err)
	}

	return batch, nil
}

// GetAllBatches retrieves all Batches, newest first
func (r *SQLiteBatchRepository) GetAllBatches(ctx context.Context) ([]*Batch, error) {
	query := `
	SELECT id, state, created_at, started_at, finished_at, rendered, skipped, failed, jobs_skipped
	FROM batches ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	var batches []*Batch
	for rows.Next() {
		batch, err := r.scanBatch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		batches = append(batches, batch)
	}

	return batches, rows.Err()
}

// AddJob stores a new RenderJob
func (r *SQLiteBatchRepository) AddJob(ctx context.Context, job *RenderJob) error {
	query := `
	INSERT INTO render_jobs (id, batch_id, camera_id, camera_name, source_path, show_preview,
							 frame_rate, position, frames, state, rendered, skipped, failed)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		job.ID, job.BatchID, job.CameraID, job.CameraName, job.SourcePath,
		db.BoolToInt(job.ShowPreview), job.FrameRate, job.Position,
		db.FramesToString(job.Frames), string(job.State),
		job.Rendered, job.Skipped, job.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to add render job: %w", err)
	}

	return nil
}

// UpdateJob updates a RenderJob's state and counts
func (r *SQLiteBatchRepository) UpdateJob(ctx context.Context, job *RenderJob) error {
	query := `
	UPDATE render_jobs
	SET state = ?, rendered = ?, skipped = ?, failed = ?
	WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(job.State), job.Rendered, job.Skipped, job.Failed, job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update render job: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("render job with ID %s not found", job.ID)
	}

	return nil
}

// GetJobsByBatch retrieves a batch's jobs in configured camera order
func (r *SQLiteBatchRepository) GetJobsByBatch(ctx context.Context, batchID string) ([]*RenderJob, error) {
	query := `
	SELECT id, batch_id, camera_id, camera_name, source_path, show_preview,
		   frame_rate, position, frames, state, rendered, skipped, failed
	FROM render_jobs WHERE batch_id = ? ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query render jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*RenderJob
	for rows.Next() {
		job := &RenderJob{}
		var showPreview int
		var framesStr, state string

		err := rows.Scan(
			&job.ID, &job.BatchID, &job.CameraID, &job.CameraName, &job.SourcePath,
			&showPreview, &job.FrameRate, &job.Position, &framesStr, &state,
			&job.Rendered, &job.Skipped, &job.Failed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render job: %w", err)
		}

		job.ShowPreview = db.IntToBool(showPreview)
		job.State = JobState(state)

		job.Frames, err = db.StringToFrames(framesStr)
		if err != nil {
			return nil, fmt.Errorf("failed to decode frame list: %w", err)
		}

		jobs = append(jobs, job)
	}

	return jobs, rows.Err()
}
