package rendering

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"stillbatch/core/ccc/db"
)

// StillRepository defines the interface for CRUD operations on Still records
type StillRepository interface {
	// GetByID retrieves a Still by its ID
	GetByID(ctx context.Context, id string) (*Still, error)

	// Query retrieves Stills based on the provided query parameters.
	// Returns stills and total count of matching records (before pagination)
	Query(ctx context.Context, query StillQuery) ([]*Still, int, error)

	// Add stores a new Still in the repository
	Add(ctx context.Context, still *Still) error

	// Delete removes a Still by its ID
	Delete(ctx context.Context, id string) error

	// GetLatestByCamera retrieves the most recently rendered Still for a camera
	GetLatestByCamera(ctx context.Context, cameraName string) (*Still, error)

	// GetTotalStorageUsage returns the total size in bytes of all recorded stills
	GetTotalStorageUsage(ctx context.Context) (int64, error)

	// GetOldestBatchID returns the batch ID with the oldest rendered still,
	// or empty string when no stills are recorded
	GetOldestBatchID(ctx context.Context) (string, error)

	// GetByBatch retrieves all Stills of a batch in render order
	GetByBatch(ctx context.Context, batchID string) ([]*Still, error)

	// DeleteByBatch removes all Stills of a batch
	DeleteByBatch(ctx context.Context, batchID string) error
}

// SQLiteStillRepository implements StillRepository using SQLite
type SQLiteStillRepository struct {
	db *sql.DB
}

// NewSQLiteStillRepository creates a new SQLite-based StillRepository
func NewSQLiteStillRepository(db *sql.DB) (*SQLiteStillRepository, error) {
	repo := &SQLiteStillRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteStillRepository) createTables() error {
	createStillsTable := `
	CREATE TABLE IF NOT EXISTS stills (
		id TEXT PRIMARY KEY,
		batch_id TEXT NOT NULL,
		camera_name TEXT NOT NULL,
		frame INTEGER NOT NULL,
		path TEXT NOT NULL,
		size_bytes INTEGER NOT NULL,
		rendered_at TEXT NOT NULL
	);`

	_, err := r.db.Exec(createStillsTable)
	return err
}

func (r *SQLiteStillRepository) scanStill(scan func(dest ...any) error) (*Still, error) {
	still := &Still{}
	var renderedAtStr string

	err := scan(
		&still.ID, &still.BatchID, &still.CameraName, &still.Frame,
		&still.Path, &still.SizeBytes, &renderedAtStr,
	)
	if err != nil {
		return nil, err
	}

	still.RenderedAt, err = db.StringToTime(renderedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered_at timestamp: %w", err)
	}

	return still, nil
}

// GetByID retrieves a Still by its ID
func (r *SQLiteStillRepository) GetByID(ctx context.Context, id string) (*Still, error) {
	query := `
	SELECT id, batch_id, camera_name, frame, path, size_bytes, rendered_at
	FROM stills WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)

	still, err := r.scanStill(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get still by ID: %w", err)
	}

	return still, nil
}

// Query retrieves Stills based on the provided query parameters
func (r *SQLiteStillRepository) Query(ctx context.Context, query StillQuery) ([]*Still, int, error) {
	totalCount, err := r.getQueryCount(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get total count: %w", err)
	}

	sqlQuery, args := r.buildQuerySQL(query)

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query stills: %w", err)
	}
	defer rows.Close()

	var stills []*Still
	for rows.Next() {
		still, err := r.scanStill(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan still: %w", err)
		}
		stills = append(stills, still)
	}

	return stills, totalCount, rows.Err()
}

// Add stores a new Still in the repository
func (r *SQLiteStillRepository) Add(ctx context.Context, still *Still) error {
	query := `
	INSERT INTO stills (id, batch_id, camera_name, frame, path, size_bytes, rendered_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		still.ID, still.BatchID, still.CameraName, still.Frame,
		still.Path, still.SizeBytes, db.TimeToString(still.RenderedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to add still: %w", err)
	}

	return nil
}

// Delete removes a Still by its ID
func (r *SQLiteStillRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM stills WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete still: %w", err)
	}

	return nil
}

// GetLatestByCamera retrieves the most recently rendered Still for a camera
func (r *SQLiteStillRepository) GetLatestByCamera(ctx context.Context, cameraName string) (*Still, error) {
	query := `
	SELECT id, batch_id, camera_name, frame, path, size_bytes, rendered_at
	FROM stills WHERE camera_name = ?
	ORDER BY rendered_at DESC LIMIT 1`

	row := r.db.QueryRowContext(ctx, query, cameraName)

	still, err := r.scanStill(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest still by camera: %w", err)
	}

	return still, nil
}

// GetTotalStorageUsage returns the total size in bytes of all recorded stills
func (r *SQLiteStillRepository) GetTotalStorageUsage(ctx context.Context) (int64, error) {
	query := `SELECT COALESCE(SUM(size_bytes), 0) FROM stills`

	var total int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to get total storage usage: %w", err)
	}

	return total, nil
}

// GetOldestBatchID returns the batch ID with the oldest rendered still
func (r *SQLiteStillRepository) GetOldestBatchID(ctx context.Context) (string, error) {
	query := `SELECT batch_id FROM stills ORDER BY rendered_at ASC LIMIT 1`

	var batchID string
	err := r.db.QueryRowContext(ctx, query).Scan(&batchID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get oldest batch ID: %w", err)
	}

	return batchID, nil
}

// GetByBatch retrieves all Stills of a batch in render order
func (r *SQLiteStillRepository) GetByBatch(ctx context.Context, batchID string) ([]*Still, error) {
	query := `
	SELECT id, batch_id, camera_name, frame, path, size_bytes, rendered_at
	FROM stills WHERE batch_id = ?
	ORDER BY rendered_at ASC`

	rows, err := r.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stills by batch: %w", err)
	}
	defer rows.Close()

	var stills []*Still
	for rows.Next() {
		still, err := r.scanStill(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan still: %w", err)
		}
		stills = append(stills, still)
	}

	return stills, rows.Err()
}

// DeleteByBatch removes all Stills of a batch
func (r *SQLiteStillRepository) DeleteByBatch(ctx context.Context, batchID string) error {
	query := `DELETE FROM stills WHERE batch_id = ?`

	_, err := r.db.ExecContext(ctx, query, batchID)
	if err != nil {
		return fmt.Errorf("failed to delete stills by batch: %w", err)
	}

	return nil
}

// getQueryCount returns the total count of records matching the query (without pagination)
func (r *SQLiteStillRepository) getQueryCount(ctx context.Context, query StillQuery) (int, error) {
	sqlQuery := "SELECT COUNT(*) FROM stills"
	conditions, args := r.buildConditions(query)

	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	err := r.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get count: %w", err)
	}

	return count, nil
}

// buildConditions builds the WHERE conditions shared by count and data queries
func (r *SQLiteStillRepository) buildConditions(query StillQuery) ([]string, []any) {
	var conditions []string
	var args []any

	if query.BatchID != "" {
		conditions = append(conditions, "batch_id = ?")
		args = append(args, query.BatchID)
	}

	if query.CameraName != "" {
		conditions = append(conditions, "camera_name = ?")
		args = append(args, query.CameraName)
	}

	if query.StartTime != nil {
		conditions = append(conditions, "rendered_at >= ?")
		args = append(args, db.TimeToString(*query.StartTime))
	}

	if query.EndTime != nil {
		conditions = append(conditions, "rendered_at <= ?")
		args = append(args, db.TimeToString(*query.EndTime))
	}

	return conditions, args
}

// buildQuerySQL builds the SQL query and arguments based on StillQuery parameters
func (r *SQLiteStillRepository) buildQuerySQL(query StillQuery) (string, []any) {
	sqlQuery := `
	SELECT id, batch_id, camera_name, frame, path, size_bytes, rendered_at
	FROM stills`

	conditions, args := r.buildConditions(query)
	if len(conditions) > 0 {
		sqlQuery += " WHERE " + strings.Join(conditions, " AND ")
	}

	sqlQuery += " ORDER BY rendered_at DESC"

	if query.Limit != nil {
		sqlQuery += " LIMIT ?"
		args = append(args, *query.Limit)
		if query.Offset != nil {
			sqlQuery += " OFFSET ?"
			args = append(args, *query.Offset)
		}
	}

	return sqlQuery, args
}
