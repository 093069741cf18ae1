package operators

// Error types for operator operations
type OperatorAlreadyExistsError struct {
	ID string
}

type OperatorNotFoundError struct {
	ID string
}

type OperatorValidationError struct {
	Message string
}

type OperatorVerificationError struct {
	OperatorID string
}

func (e *OperatorAlreadyExistsError) Error() string {
	return "Operator already exists: " + e.ID
}

func (e *OperatorNotFoundError) Error() string {
	return "Operator not found: " + e.ID
}

func (e *OperatorValidationError) Error() string {
	return "Invalid operator: " + e.Message
}

func (e *OperatorVerificationError) Error() string {
	return "Operator verification failed for ID: " + e.OperatorID
}

// helper functions for error handling

func IsOperatorAlreadyExistsError(err error) bool {
	_, ok := err.(*OperatorAlreadyExistsError)
	return ok
}

func IsOperatorNotFoundError(err error) bool {
	_, ok := err.(*OperatorNotFoundError)
	return ok
}

func IsOperatorValidationError(err error) bool {
	_, ok := err.(*OperatorValidationError)
	return ok
}

func IsOperatorVerificationError(err error) bool {
	_, ok := err.(*OperatorVerificationError)
	return ok
}

func NewOperatorAlreadyExistsError(id string) error {
	return &OperatorAlreadyExistsError{ID: id}
}

func NewOperatorNotFoundError(id string) error {
	return &OperatorNotFoundError{ID: id}
}

func NewOperatorValidationError(message string) error {
	return &OperatorValidationError{Message: message}
}

func NewOperatorVerificationError(operatorID string) error {
	return &OperatorVerificationError{OperatorID: operatorID}
}
