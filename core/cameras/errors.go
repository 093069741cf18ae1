package cameras

// Error types for camera setting operations
type CameraAlreadyExistsError struct {
	Name string
}

type CameraNotFoundError struct {
	ID string
}

type CameraValidationError struct {
	Message string
}

func (e *CameraAlreadyExistsError) Error() string {
	return "Camera setting already exists: " + e.Name
}

func (e *CameraNotFoundError) Error() string {
	return "Camera setting not found: " + e.ID
}

func (e *CameraValidationError) Error() string {
	return "Invalid camera setting: " + e.Message
}

// helper functions for error handling

func IsCameraAlreadyExistsError(err error) bool {
	_, ok := err.(*CameraAlreadyExistsError)
	return ok
}

func IsCameraNotFoundError(err error) bool {
	_, ok := err.(*CameraNotFoundError)
	return ok
}

func IsCameraValidationError(err error) bool {
	_, ok := err.(*CameraValidationError)
	return ok
}

func NewCameraAlreadyExistsError(name string) error {
	return &CameraAlreadyExistsError{Name: name}
}

func NewCameraNotFoundError(id string) error {
	return &CameraNotFoundError{ID: id}
}

func NewCameraValidationError(message string) error {
	return &CameraValidationError{Message: message}
}
