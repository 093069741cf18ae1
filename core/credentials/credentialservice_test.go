package credentials

import (
	"testing"

	"stillbatch/core/ccc/db"
)

func setupTestService(t *testing.T) (CredentialService, func()) {
	testDB, err := db.NewInMemoryDB()
	if err != nil {
		t.Fatalf("Failed to create in-memory database: %v", err)
	}

	repo, err := NewSQLiteCredentialRepository(testDB)
	if err != nil {
		testDB.Close()
		t.Fatalf("Failed to create repository: %v", err)
	}

	service := NewCredentialService(nil, repo)

	cleanup := func() {
		testDB.Close()
	}

	return service, cleanup
}

func TestCredentialService_IsSetUp_Initially(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	setUp, err := service.IsSetUp()
	if err != nil {
		t.Fatalf("IsSetUp failed: %v", err)
	}
	if setUp {
		t.Error("Expected no credential before setup")
	}
}

func TestCredentialService_SetupAndVerify(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	if err := service.Setup("correct horse battery"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	setUp, err := service.IsSetUp()
	if err != nil {
		t.Fatalf("IsSetUp failed: %v", err)
	}
	if !setUp {
		t.Error("Expected credential to exist after setup")
	}

	if err := service.Verify("correct horse battery"); err != nil {
		t.Errorf("Expected verification to succeed, got %v", err)
	}

	err = service.Verify("wrong password")
	if !IsVerificationError(err) {
		t.Errorf("Expected VerificationError for wrong password, got %v", err)
	}
}

func TestCredentialService_Setup_Twice(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	if err := service.Setup("correct horse battery"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	err := service.Setup("another password")
	if !IsAlreadySetUpError(err) {
		t.Errorf("Expected AlreadySetUpError, got %v", err)
	}
}

func TestCredentialService_Setup_ShortPassword(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	err := service.Setup("short")
	if !IsPasswordPolicyError(err) {
		t.Errorf("Expected PasswordPolicyError, got %v", err)
	}
}

func TestCredentialService_Verify_NotSetUp(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	err := service.Verify("anything")
	if !IsNotSetUpError(err) {
		t.Errorf("Expected NotSetUpError, got %v", err)
	}
}

func TestCredentialService_ChangePassword(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	if err := service.Setup("original password"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if err := service.ChangePassword("original password", "replacement password"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if err := service.Verify("replacement password"); err != nil {
		t.Errorf("Expected new password to verify, got %v", err)
	}

	err := service.Verify("original password")
	if !IsVerificationError(err) {
		t.Errorf("Expected old password to fail, got %v", err)
	}
}

func TestCredentialService_ChangePassword_WrongOld(t *testing.T) {
	service, cleanup := setupTestService(t)
	defer cleanup()

	if err := service.Setup("original password"); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	err := service.ChangePassword("not the password", "replacement password")
	if !IsVerificationError(err) {
		t.Errorf("Expected VerificationError, got %v", err)
	}
}
