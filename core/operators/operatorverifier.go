package operators

import (
	"context"
	"encoding/base64"
)

type OperatorVerifier interface {
	// VerifyOperator verifies the operator using its ID and secret
	VerifyOperator(operatorID, operatorSecret string) (bool, *Operator, error)
}

type operatorVerifier struct {
	repo OperatorRepository
}

func NewOperatorVerifier(repo OperatorRepository) *operatorVerifier {
	return &operatorVerifier{
		repo: repo,
	}
}

func (v *operatorVerifier) VerifyOperator(operatorID, operatorSecret string) (bool, *Operator, error) {
	// Retrieve the operator by ID
	operator, err := v.repo.GetByID(context.Background(), operatorID)
	if err != nil {
		return false, nil, err
	}
	if operator == nil {
		return false, nil, NewOperatorVerificationError(operatorID) // don't specify the reason to avoid leaking information
	}

	if operator.Disabled {
		return false, nil, NewOperatorVerificationError(operatorID)
	}

	// Verify the operator secret
	// First base64-decode the secret salt from the operator
	decodedSecretSalt, err := base64.StdEncoding.DecodeString(operator.SecretSalt)
	if err != nil {
		return false, nil, err
	}

	// Also decode the secret hash from the operator
	decodedSecretHash, err := base64.StdEncoding.DecodeString(operator.SecretHash)
	if err != nil {
		return false, nil, err
	}

	// Compare hash
	if !compareSecret(decodedSecretHash, []byte(operatorSecret), decodedSecretSalt) {
		return false, nil, NewOperatorVerificationError(operatorID) // don't specify the reason to avoid leaking information
	}

	return true, operator, nil
}
