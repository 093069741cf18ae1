package operators

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"stillbatch/core/ccc/db"
)

// OperatorRepository defines the interface for CRUD operations on Operator entities
type OperatorRepository interface {
	// GetByID retrieves an Operator by its ID
	GetByID(ctx context.Context, id string) (*Operator, error)
	// GetAll retrieves all Operators
	GetAll(ctx context.Context) ([]*Operator, error)
	// Create adds a new Operator to the repository
	Create(ctx context.Context, operator *Operator) error
	// Update modifies an existing Operator
	Update(ctx context.Context, operator *Operator) error
	// Delete removes an Operator from the repository
	Delete(ctx context.Context, id string) error
}

// SQLiteOperatorRepository implements OperatorRepository using SQLite
type SQLiteOperatorRepository struct {
	db *sql.DB
}

// NewSQLiteOperatorRepository creates a new SQLite-based OperatorRepository
func NewSQLiteOperatorRepository(db *sql.DB) (*SQLiteOperatorRepository, error) {
	repo := &SQLiteOperatorRepository{db: db}
	if err := repo.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return repo, nil
}

// createTables ensures that the required tables exist
func (r *SQLiteOperatorRepository) createTables() error {
	createOperatorsTable := `
	CREATE TABLE IF NOT EXISTS operators (
		id TEXT PRIMARY KEY,
		secret_hash TEXT NOT NULL,
		secret_salt TEXT NOT NULL,
		disabled INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`

	_, err := r.db.Exec(createOperatorsTable)
	return err
}

func (r *SQLiteOperatorRepository) scanOperator(scan func(dest ...any) error) (*Operator, error) {
	operator := &Operator{}
	var createdAtStr, updatedAtStr string
	var disabled int

	err := scan(
		&operator.ID, &operator.SecretHash, &operator.SecretSalt,
		&disabled, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	operator.Disabled = db.IntToBool(disabled)

	operator.CreatedAt, err = db.StringToTime(createdAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at timestamp: %w", err)
	}

	operator.UpdatedAt, err = db.StringToTime(updatedAtStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}

	return operator, nil
}

// GetByID retrieves an Operator by its ID
func (r *SQLiteOperatorRepository) GetByID(ctx context.Context, id string) (*Operator, error) {
	query := `
	SELECT id, secret_hash, secret_salt, disabled, created_at, updated_at
	FROM operators WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)

	operator, err := r.scanOperator(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get operator by ID: %w", err)
	}

	return operator, nil
}

// GetAll retrieves all Operators
func (r *SQLiteOperatorRepository) GetAll(ctx context.Context) ([]*Operator, error) {
	query := `
	SELECT id, secret_hash, secret_salt, disabled, created_at, updated_at
	FROM operators ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query operators: %w", err)
	}
	defer rows.Close()

	var operators []*Operator
	for rows.Next() {
		operator, err := r.scanOperator(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operator: %w", err)
		}
		operators = append(operators, operator)
	}

	return operators, rows.Err()
}

// Create adds a new Operator to the repository
func (r *SQLiteOperatorRepository) Create(ctx context.Context, operator *Operator) error {
	query := `
	INSERT INTO operators (id, secret_hash, secret_salt, disabled, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		operator.ID, operator.SecretHash, operator.SecretSalt,
		db.BoolToInt(operator.Disabled),
		db.TimeToString(operator.CreatedAt), db.TimeToString(operator.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}

	return nil
}

// Update modifies an existing Operator
func (r *SQLiteOperatorRepository) Update(ctx context.Context, operator *Operator) error {
	query := `
	UPDATE operators
	SET secret_hash = ?, secret_salt = ?, disabled = ?, updated_at = ?
	WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		operator.SecretHash, operator.SecretSalt,
		db.BoolToInt(operator.Disabled), db.TimeToString(operator.UpdatedAt),
		operator.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update operator: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("operator with ID %s not found", operator.ID)
	}

	return nil
}

// Delete removes an Operator from the repository
func (r *SQLiteOperatorRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM operators WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete operator: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("operator with ID %s not found", id)
	}

	return nil
}
