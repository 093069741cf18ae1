package credentials

// Error types for credential operations
type NotSetUpError struct{}

type AlreadySetUpError struct{}

type VerificationError struct{}

type PasswordPolicyError struct {
	Message string
}

func (e *NotSetUpError) Error() string {
	return "No admin credential has been set up"
}

func (e *AlreadySetUpError) Error() string {
	return "An admin credential has already been set up"
}

func (e *VerificationError) Error() string {
	// non-committal on purpose
	return "Credential verification failed"
}

func (e *PasswordPolicyError) Error() string {
	return "Invalid password: " + e.Message
}

// helper functions for error handling

func IsNotSetUpError(err error) bool {
	_, ok := err.(*NotSetUpError)
	return ok
}

func IsAlreadySetUpError(err error) bool {
	_, ok := err.(*AlreadySetUpError)
	return ok
}

func IsVerificationError(err error) bool {
	_, ok := err.(*VerificationError)
	return ok
}

func IsPasswordPolicyError(err error) bool {
	_, ok := err.(*PasswordPolicyError)
	return ok
}

func NewNotSetUpError() error {
	return &NotSetUpError{}
}

func NewAlreadySetUpError() error {
	return &AlreadySetUpError{}
}

func NewVerificationError() error {
	return &VerificationError{}
}

func NewPasswordPolicyError(message string) error {
	return &PasswordPolicyError{Message: message}
}
