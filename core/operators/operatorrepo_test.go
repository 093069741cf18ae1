package operators

import (
	"context"
	"testing"
	"time"

	"stillbatch/core/ccc/db"
)

func setupTestRepo(t *testing.T) (*SQLiteOperatorRepository, func()) {
	testDB, err := db.NewInMemoryDB()
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}

	repo, err := NewSQLiteOperatorRepository(testDB)
	if err != nil {
		testDB.Close()
		t.Fatalf("Failed to create repository: %v", err)
	}

	cleanup := func() {
		testDB.Close()
	}

	return repo, cleanup
}

func createTestOperator() *Operator {
	now := time.Now().UTC()
	return &Operator{
		ID:         "render-node-1",
		SecretHash: "aGFzaA==",
		SecretSalt: "c2FsdA==",
		Disabled:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestSQLiteOperatorRepository_Create(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	operator := createTestOperator()

	err := repo.Create(ctx, operator)
	if err != nil {
		t.Fatalf("Failed to create operator: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, operator.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve operator: %v", err)
	}
	if retrieved == nil {
		t.Fatal("Retrieved operator is nil")
	}

	if retrieved.ID != operator.ID {
		t.Errorf("Expected ID %s, got %s", operator.ID, retrieved.ID)
	}
	if retrieved.SecretHash != operator.SecretHash {
		t.Errorf("Expected SecretHash %s, got %s", operator.SecretHash, retrieved.SecretHash)
	}
	if retrieved.SecretSalt != operator.SecretSalt {
		t.Errorf("Expected SecretSalt %s, got %s", operator.SecretSalt, retrieved.SecretSalt)
	}
	if retrieved.Disabled != operator.Disabled {
		t.Errorf("Expected Disabled %v, got %v", operator.Disabled, retrieved.Disabled)
	}
	if !retrieved.CreatedAt.Equal(operator.CreatedAt) {
		t.Errorf("Expected CreatedAt %v, got %v", operator.CreatedAt, retrieved.CreatedAt)
	}
}

func TestSQLiteOperatorRepository_GetByID_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	retrieved, err := repo.GetByID(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Expected no error for missing operator, got %v", err)
	}
	if retrieved != nil {
		t.Errorf("Expected nil for missing operator, got %+v", retrieved)
	}
}

func TestSQLiteOperatorRepository_Update(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	operator := createTestOperator()

	if err := repo.Create(ctx, operator); err != nil {
		t.Fatalf("Failed to create operator: %v", err)
	}

	operator.Disabled = true
	operator.UpdatedAt = time.Now().UTC()

	if err := repo.Update(ctx, operator); err != nil {
		t.Fatalf("Failed to update operator: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, operator.ID)
	if err != nil {
		t.Fatalf("Failed to retrieve operator: %v", err)
	}
	if !retrieved.Disabled {
		t.Error("Expected operator to be disabled after update")
	}
}

func TestSQLiteOperatorRepository_Update_NotFound(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	operator := createTestOperator()
	operator.ID = "missing"

	err := repo.Update(context.Background(), operator)
	if err == nil {
		t.Error("Expected error when updating missing operator, got nil")
	}
}

func TestSQLiteOperatorRepository_Delete(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()
	operator := createTestOperator()

	if err := repo.Create(ctx, operator); err != nil {
		t.Fatalf("Failed to create operator: %v", err)
	}

	if err := repo.Delete(ctx, operator.ID); err != nil {
		t.Fatalf("Failed to delete operator: %v", err)
	}

	retrieved, err := repo.GetByID(ctx, operator.ID)
	if err != nil {
		t.Fatalf("Failed to query deleted operator: %v", err)
	}
	if retrieved != nil {
		t.Error("Expected operator to be gone after delete")
	}
}

func TestSQLiteOperatorRepository_GetAll(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	ctx := context.Background()

	first := createTestOperator()
	second := createTestOperator()
	second.ID = "render-node-2"
	second.CreatedAt = first.CreatedAt.Add(time.Second)

	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Failed to create first operator: %v", err)
	}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Failed to create second operator: %v", err)
	}

	operators, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("Failed to get all operators: %v", err)
	}

	if len(operators) != 2 {
		t.Fatalf("Expected 2 operators, got %d", len(operators))
	}
	if operators[0].ID != first.ID {
		t.Errorf("Expected first operator %s, got %s", first.ID, operators[0].ID)
	}
}
