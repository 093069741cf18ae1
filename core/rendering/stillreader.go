package rendering

import (
	"context"
	"fmt"
	"os"

	"stillbatch/core/ccc/logging"
)

// StillWithData is a Still record together with the image bytes read from disk
type StillWithData struct {
	Still *Still
	Data  []byte
}

// StillReader handles reading still records and their image files for the
// API and the dashboard
type StillReader interface {
	// QueryStills retrieves still metadata matching the query.
	// Returns stills and total count of matching records (before pagination)
	QueryStills(query StillQuery) ([]*Still, int, error)
	// GetStillByID retrieves a single still record by ID
	GetStillByID(stillID string) (*Still, error)
	// GetStillFile retrieves a still record together with its image bytes
	GetStillFile(stillID string) (*StillWithData, error)
	// GetStillsByBatch retrieves all still records of a batch in render order
	GetStillsByBatch(batchID string) ([]*Still, error)
}

type stillReader struct {
	logger    logging.Logger
	stillRepo StillRepository
}

// NewStillReader creates a new StillReader service
func NewStillReader(logger logging.Logger, stillRepo StillRepository) *stillReader {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &stillReader{
		logger:    logger,
		stillRepo: stillRepo,
	}
}

func (r *stillReader) QueryStills(query StillQuery) ([]*Still, int, error) {
	stills, totalCount, err := r.stillRepo.Query(context.Background(), query)
	if err != nil {
		r.logger.Error("Failed to query stills from repository", "error", err)
		return nil, 0, err
	}

	return stills, totalCount, nil
}

func (r *stillReader) GetStillByID(stillID string) (*Still, error) {
	still, err := r.stillRepo.GetByID(context.Background(), stillID)
	if err != nil {
		r.logger.Error("Failed to get still from repository", "error", err, "still_id", stillID)
		return nil, err
	}

	return still, nil
}

func (r *stillReader) GetStillFile(stillID string) (*StillWithData, error) {
	still, err := r.GetStillByID(stillID)
	if err != nil {
		return nil, err
	}
	if still == nil {
		return nil, nil
	}

	data, err := os.ReadFile(still.Path)
	if err != nil {
		r.logger.Error("Failed to read still file", "error", err, "path", still.Path)
		return nil, fmt.Errorf("failed to read still file: %w", err)
	}

	return &StillWithData{Still: still, Data: data}, nil
}

func (r *stillReader) GetStillsByBatch(batchID string) ([]*Still, error) {
	stills, err := r.stillRepo.GetByBatch(context.Background(), batchID)
	if err != nil {
		r.logger.Error("Failed to get stills by batch", "error", err, "batch_id", batchID)
		return nil, err
	}

	return stills, nil
}
