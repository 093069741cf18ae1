package client

import "fmt"

// ServerError represents an error response from the render server.
// Recoverable errors are transient (network failures, 5xx responses) and
// worth retrying; non-recoverable errors are client-side (4xx responses).
type ServerError struct {
	StatusCode    int
	IsRecoverable bool
	InnerError    error
}

func (e *ServerError) Error() string {
	if e.InnerError != nil {
		return fmt.Sprintf("server error: %v", e.InnerError)
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

// NewRecoverableServerError creates a ServerError worth retrying
func NewRecoverableServerError(statusCode int, inner error) *ServerError {
	return &ServerError{
		StatusCode:    statusCode,
		IsRecoverable: true,
		InnerError:    inner,
	}
}

// NewNonRecoverableServerError creates a ServerError that retrying won't fix
func NewNonRecoverableServerError(statusCode int, inner error) *ServerError {
	return &ServerError{
		StatusCode:    statusCode,
		IsRecoverable: false,
		InnerError:    inner,
	}
}

// IsServerError checks if the error is a ServerError
func IsServerError(err error) bool {
	_, ok := err.(*ServerError)
	return ok
}

// IsRecoverableServerError returns true if the error is recoverable (not a client-side error)
func IsRecoverableServerError(err error) bool {
	if e, ok := err.(*ServerError); ok {
		return e.IsRecoverable
	}
	return false
}
