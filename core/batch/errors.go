package batch

// Error types for batch operations
type BatchInProgressError struct {
	RunningBatchID string
}

type NoBatchRunningError struct{}

type BatchNotFoundError struct {
	ID string
}

type NoJobsError struct{}

func (e *BatchInProgressError) Error() string {
	return "A batch is already in progress: " + e.RunningBatchID
}

func (e *NoBatchRunningError) Error() string {
	return "No batch is currently running"
}

func (e *BatchNotFoundError) Error() string {
	return "Batch not found: " + e.ID
}

func (e *NoJobsError) Error() string {
	return "No valid render jobs found. Please add camera settings."
}

// helper functions for error handling

func IsBatchInProgressError(err error) bool {
	_, ok := err.(*BatchInProgressError)
	return ok
}

func IsNoBatchRunningError(err error) bool {
	_, ok := err.(*NoBatchRunningError)
	return ok
}

func IsBatchNotFoundError(err error) bool {
	_, ok := err.(*BatchNotFoundError)
	return ok
}

func IsNoJobsError(err error) bool {
	_, ok := err.(*NoJobsError)
	return ok
}

func NewBatchInProgressError(runningBatchID string) error {
	return &BatchInProgressError{RunningBatchID: runningBatchID}
}

func NewNoBatchRunningError() error {
	return &NoBatchRunningError{}
}

func NewBatchNotFoundError(id string) error {
	return &BatchNotFoundError{ID: id}
}

func NewNoJobsError() error {
	return &NoJobsError{}
}
