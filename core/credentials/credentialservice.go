package credentials

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/pbkdf2"
	"stillbatch/core/ccc/logging"
)

// Constants for the PBKDF2 verifier
const (
	iterationCount    = 10000 // PBKDF2 iterations
	verifierLength    = 32    // 256 bit verifier
	saltLength        = 16    // 128 bits for salt
	minPasswordLength = 8
)

type CredentialService interface {
	// IsSetUp reports whether an admin credential exists
	IsSetUp() (bool, error)
	// Setup creates the admin credential from the given password.
	// Fails if a credential already exists.
	Setup(password string) error
	// Verify checks the given password against the stored credential
	Verify(password string) error
	// ChangePassword replaces the credential after verifying the old password
	ChangePassword(oldPassword, newPassword string) error
}

type credentialService struct {
	logger logging.Logger
	repo   CredentialRepository
}

func NewCredentialService(logger logging.Logger, repo CredentialRepository) *credentialService {

	if logger == nil {
		logger = logging.NopLogger
	}

	return &credentialService{
		logger: logger,
		repo:   repo,
	}
}

// deriveVerifier derives the PBKDF2 verifier for a password and salt
func deriveVerifier(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, iterationCount, verifierLength, sha256.New)
}

func (s *credentialService) validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return NewPasswordPolicyError("password must be at least 8 characters")
	}
	return nil
}

func (s *credentialService) IsSetUp() (bool, error) {
	credential, err := s.repo.Get(context.Background())
	if err != nil {
		s.logger.Error("Failed to check for admin credential", "error", err)
		return false, err
	}
	return credential != nil, nil
}

func (s *credentialService) Setup(password string) error {
	if err := s.validatePassword(password); err != nil {
		return err
	}

	ctx := context.Background()

	existing, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to check for existing admin credential", "error", err)
		return err
	}
	if existing != nil {
		return NewAlreadySetUpError()
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		s.logger.Error("Failed to generate salt", "error", err)
		return err
	}

	verifier := deriveVerifier(password, salt)

	now := time.Now().UTC()
	credential := &AdminCredential{
		ID:           uuid.New().String(),
		PasswordHash: base64.StdEncoding.EncodeToString(verifier),
		Salt:         base64.StdEncoding.EncodeToString(salt),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, credential); err != nil {
		s.logger.Error("Failed to store admin credential", "error", err)
		return err
	}

	s.logger.Info("Admin credential set up")
	return nil
}

func (s *credentialService) Verify(password string) error {
	credential, err := s.repo.Get(context.Background())
	if err != nil {
		s.logger.Error("Failed to retrieve admin credential", "error", err)
		return err
	}
	if credential == nil {
		return NewNotSetUpError()
	}

	salt, err := base64.StdEncoding.DecodeString(credential.Salt)
	if err != nil {
		return err
	}
	storedVerifier, err := base64.StdEncoding.DecodeString(credential.PasswordHash)
	if err != nil {
		return err
	}

	computed := deriveVerifier(password, salt)

	// constant time comparison to prevent timing attacks
	if subtle.ConstantTimeCompare(storedVerifier, computed) != 1 {
		return NewVerificationError()
	}

	return nil
}

func (s *credentialService) ChangePassword(oldPassword, newPassword string) error {
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	if err := s.Verify(oldPassword); err != nil {
		return err
	}

	ctx := context.Background()

	credential, err := s.repo.Get(ctx)
	if err != nil {
		s.logger.Error("Failed to retrieve admin credential", "error", err)
		return err
	}
	if credential == nil {
		return NewNotSetUpError()
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		s.logger.Error("Failed to generate salt", "error", err)
		return err
	}

	verifier := deriveVerifier(newPassword, salt)

	credential.PasswordHash = base64.StdEncoding.EncodeToString(verifier)
	credential.Salt = base64.StdEncoding.EncodeToString(salt)
	credential.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, credential); err != nil {
		s.logger.Error("Failed to update admin credential", "error", err)
		return err
	}

	s.logger.Info("Admin password changed")
	return nil
}
