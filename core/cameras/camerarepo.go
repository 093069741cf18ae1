package cameras

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"stillbatch/core/ccc/db"
)

type CameraRepository interface {
	// GetByID retrieves a CameraSetting by its ID
	GetByID(ctx context.Context, id string) (*CameraSetting, error)
	// GetByName retrieves a CameraSetting by its camera name
	GetByName(ctx context.Context, name string) (*CameraSetting, error)
	// GetAll retrieves all CameraSettings in configured order
	GetAll(ctx context.Context) ([]*CameraSetting, error)
	// Create adds a new CameraSetting at the end of the configured order
	Create(ctx context.Context, camera *CameraSetting) error
	// Update modifies an existing CameraSetting
	Update(ctx context.Context, camera *CameraSetting) error
	// Delete removes a CameraSetting from the repository
	Delete(ctx context.Context, id string) error
}

// SQLiteCameraRepository implements CameraRepository using SQLite
type SQLiteCameraRepository struct {
	db *sql.DB
}

// NewSQLiteCameraRepository creates a new SQLite-based CameraRepository
func NewSQLiteCameraRepository(db *sql.DB) (*SQLiteCameraRepository, error) {
	repo := &SQLiteCameraRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteCameraRepository) createTables() error {
	createCamerasTable := `
	CREATE TABLE IF NOT EXISTS cameras (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		source_path TEXT NOT NULL,
		frame_ranges TEXT NOT NULL,
		show_preview INTEGER NOT NULL,
		position INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`

	_, err := r.db.Exec(createCamerasTable)
	return err
}

func (r *SQLiteCameraRepository) scanCamera(scan func(dest ...any) error) (*CameraSetting, error) {
	camera := &CameraSetting{}
	var createdAtStr, updatedAtStr string
	var showPreview int

	err := scan(
		&camera.ID, &camera.Name, &camera.SourcePath, &camera.FrameRanges,
		&showPreview, &camera.Position, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	camera.ShowPreview = db.IntToBool(showPreview)

	camera.CreatedAt, err = db.StringToTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}

	camera.UpdatedAt, err = db.StringToTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return camera, nil
}

// GetByID retrieves a CameraSetting by its ID
func (r *SQLiteCameraRepository) GetByID(ctx context.Context, id string) (*CameraSetting, error) {
	query := `
	SELECT id, name, source_path, frame_ranges, show_preview, position, created_at, updated_at
	FROM cameras WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)

	camera, err := r.scanCamera(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get camera by ID: %w", err)
	}

	return camera, nil
}

// GetByName retrieves a CameraSetting by its camera name
func (r *SQLiteCameraRepository) GetByName(ctx context.Context, name string) (*CameraSetting, error) {
	query := `
	SELECT id, name, source_path, frame_ranges, show_preview, position, created_at, updated_at
	FROM cameras WHERE name = ?`

	row := r.db.QueryRowContext(ctx, query, name)

	camera, err := r.scanCamera(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get camera by name: %w", err)
	}

	return camera, nil
}

// GetAll retrieves all CameraSettings in configured order
func (r *SQLiteCameraRepository) GetAll(ctx context.Context) ([]*CameraSetting, error) {
	query := `
	SELECT id, name, source_path, frame_ranges, show_preview, position, created_at, updated_at
	FROM cameras ORDER BY position ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query cameras: %w", err)
	}
	defer rows.Close()

	var cameras []*CameraSetting
	for rows.Next() {
		camera, err := r.scanCamera(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan camera: %w", err)
		}
		cameras = append(cameras, camera)
	}

	return cameras, rows.Err()
}

// Create adds a new CameraSetting at the end of the configured order.
// The camera's Position is assigned here.
func (r *SQLiteCameraRepository) Create(ctx context.Context, camera *CameraSetting) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM cameras`)
	if err := row.Scan(&camera.Position); err != nil {
		return fmt.Errorf("failed to determine camera position: %w", err)
	}

	query := `
	INSERT INTO cameras (id, name, source_path, frame_ranges, show_preview, position, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		camera.ID, camera.Name, camera.SourcePath, camera.FrameRanges,
		db.BoolToInt(camera.ShowPreview), camera.Position,
		db.TimeToString(camera.CreatedAt), db.TimeToString(camera.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create camera: %w", err)
	}

	return tx.Commit()
}

// Update modifies an existing CameraSetting. Position is not changed here.
func (r *SQLiteCameraRepository) Update(ctx context.Context, camera *CameraSetting) error {
	query := `
	UPDATE cameras
	SET name = ?, source_path = ?, frame_ranges = ?, show_preview = ?, updated_at = ?
	WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		camera.Name, camera.SourcePath, camera.FrameRanges,
		db.BoolToInt(camera.ShowPreview), db.TimeToString(camera.UpdatedAt),
		camera.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update camera: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("camera with ID %s not found", camera.ID)
	}

	return nil
}

// Delete removes a CameraSetting from the repository
func (r *SQLiteCameraRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM cameras WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete camera: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("camera with ID %s not found", id)
	}

	return nil
}
