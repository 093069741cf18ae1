package credentials

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"stillbatch/core/ccc/db"
)

// CredentialRepository stores the single admin credential record
type CredentialRepository interface {
	// Get retrieves the admin credential, or nil if none has been set up
	Get(ctx context.Context) (*AdminCredential, error)
	// Create stores a new admin credential
	Create(ctx context.Context, credential *AdminCredential) error
	// Update replaces the stored admin credential
	Update(ctx context.Context, credential *AdminCredential) error
}

// SQLiteCredentialRepository implements CredentialRepository using SQLite
type SQLiteCredentialRepository struct {
	db *sql.DB
}

// NewSQLiteCredentialRepository creates a new SQLite-based CredentialRepository
func NewSQLiteCredentialRepository(db *sql.DB) (*SQLiteCredentialRepository, error) {
	repo := &SQLiteCredentialRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteCredentialRepository) createTables() error {
	createCredentialsTable := `
	CREATE TABLE IF NOT EXISTS admin_credentials (
		id TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		salt TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`

	_, err := r.db.Exec(createCredentialsTable)
	return err
}

// Get retrieves the admin credential, or nil if none has been set up
func (r *SQLiteCredentialRepository) Get(ctx context.Context) (*AdminCredential, error) {
	query := `
	SELECT id, password_hash, salt, created_at, updated_at
	FROM admin_credentials LIMIT 1`

	row := r.db.QueryRowContext(ctx, query)

	credential := &AdminCredential{}
	var createdAtStr, updatedAtStr string

	err := row.Scan(&credential.ID, &credential.PasswordHash, &credential.Salt, &createdAtStr, &updatedAtStr)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get admin credential: %w", err)
	}

	credential.CreatedAt, err = db.StringToTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}

	credential.UpdatedAt, err = db.StringToTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return credential, nil
}

// Create stores a new admin credential
func (r *SQLiteCredentialRepository) Create(ctx context.Context, credential *AdminCredential) error {
	query := `
	INSERT INTO admin_credentials (id, password_hash, salt, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		credential.ID, credential.PasswordHash, credential.Salt,
		db.TimeToString(credential.CreatedAt), db.TimeToString(credential.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create admin credential: %w", err)
	}

	return nil
}

// Update replaces the stored admin credential
func (r *SQLiteCredentialRepository) Update(ctx context.Context, credential *AdminCredential) error {
	query := `
	UPDATE admin_credentials
	SET password_hash = ?, salt = ?, updated_at = ?
	WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		credential.PasswordHash, credential.Salt,
		db.TimeToString(credential.UpdatedAt), credential.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update admin credential: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("admin credential %s not found", credential.ID)
	}

	return nil
}
