package operators

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"stillbatch/core/ccc/logging"
)

type OperatorService interface {
	// CreateOperator creates a new operator with the given ID.
	// The generated secret is returned exactly once; only its hash is stored.
	CreateOperator(id string) (operator *Operator, secret string, err error)
	// GetOperator retrieves an operator by its ID
	GetOperator(id string) (*Operator, error)
	// GetOperators retrieves all operators
	GetOperators() ([]*Operator, error)
	// SetDisabled enables or disables an operator
	SetDisabled(id string, disabled bool) error
	// DeleteOperator deletes an operator by its ID
	DeleteOperator(id string) error
}

type operatorService struct {
	logger logging.Logger
	repo   OperatorRepository
}

func NewOperatorService(logger logging.Logger, repo OperatorRepository) *operatorService {

	if logger == nil {
		logger = logging.NopLogger
	}

	return &operatorService{
		logger: logger,
		repo:   repo,
	}
}

func (s *operatorService) CreateOperator(id string) (*Operator, string, error) {
	// trim the id
	id = strings.TrimSpace(id)

	if id == "" {
		return nil, "", NewOperatorValidationError("operator ID cannot be empty")
	}

	s.logger.Info("Creating operator", "id", id)

	ctx := context.Background()

	// Check if the operator already exists
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to check for existing operator", "error", err)
		return nil, "", err
	}
	if existing != nil {
		s.logger.Error("Operator already exists", "id", id)
		return nil, "", NewOperatorAlreadyExistsError(id)
	}

	// Generate a new secret for the operator
	secret, err := generateSecret()
	if err != nil {
		s.logger.Error("Failed to generate operator secret", "error", err)
		return nil, "", err
	}

	secretBase64 := base64.StdEncoding.EncodeToString(secret)

	// The verifier compares against the base64 form the caller is handed
	hashedSecret, salt, err := hashSecret([]byte(secretBase64))
	if err != nil {
		s.logger.Error("Failed to hash operator secret", "error", err)
		return nil, "", err
	}

	now := time.Now().UTC()

	operator := &Operator{
		ID:         id,
		SecretHash: base64.StdEncoding.EncodeToString(hashedSecret),
		SecretSalt: base64.StdEncoding.EncodeToString(salt),
		Disabled:   false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.repo.Create(ctx, operator); err != nil {
		s.logger.Error("Failed to save operator to repository", "error", err)
		return nil, "", err
	}

	s.logger.Info("Successfully created operator", "id", operator.ID)
	return operator, secretBase64, nil
}

func (s *operatorService) GetOperator(id string) (*Operator, error) {
	operator, err := s.repo.GetByID(context.Background(), id)
	if err != nil {
		s.logger.Error("Failed to retrieve operator", "error", err)
		return nil, err
	}
	return operator, nil
}

func (s *operatorService) GetOperators() ([]*Operator, error) {
	operators, err := s.repo.GetAll(context.Background())
	if err != nil {
		s.logger.Error("Failed to retrieve operators", "error", err)
		return nil, err
	}
	return operators, nil
}

func (s *operatorService) SetDisabled(id string, disabled bool) error {
	ctx := context.Background()

	operator, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to retrieve operator", "error", err)
		return err
	}
	if operator == nil {
		return NewOperatorNotFoundError(id)
	}

	operator.Disabled = disabled
	operator.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, operator); err != nil {
		s.logger.Error("Failed to update operator", "error", err)
		return err
	}

	s.logger.Info("Updated operator disabled state", "id", id, "disabled", disabled)
	return nil
}

func (s *operatorService) DeleteOperator(id string) error {
	ctx := context.Background()

	operator, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to retrieve operator", "error", err)
		return err
	}
	if operator == nil {
		s.logger.Info("Operator not found", "id", id)
		return nil // No error if the operator does not exist
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete operator", "error", err)
		return err
	}

	s.logger.Info("Successfully deleted operator", "id", id)
	return nil
}
