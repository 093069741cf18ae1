package rendering

import (
	"context"
	"errors"
	"fmt"
	"os"

	"stillbatch/core/ccc/logging"
)

type DeleteStillsRequest struct {
	StillIDs []string `json:"still_ids"`
}

type DeleteStillsResponse struct {
	DeletedStills []string `json:"deleted_stills"`
	FailedStills  []string `json:"failed_stills"`
	Errors        []string `json:"errors"`
}

type StillDeleter interface {
	// DeleteStills deletes one or more stills by their IDs, removing both the
	// record and the output file on disk.
	// Returns information about which stills were deleted and which failed
	DeleteStills(req DeleteStillsRequest) (*DeleteStillsResponse, error)
}

type stillDeleter struct {
	logger    logging.Logger
	stillRepo StillRepository
}

func NewStillDeleter(logger logging.Logger, stillRepo StillRepository) *stillDeleter {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &stillDeleter{
		logger:    logger,
		stillRepo: stillRepo,
	}
}

func (d *stillDeleter) DeleteStills(req DeleteStillsRequest) (*DeleteStillsResponse, error) {
	if len(req.StillIDs) == 0 {
		return nil, errors.New("no still IDs provided")
	}

	response := &DeleteStillsResponse{
		DeletedStills: make([]string, 0),
		FailedStills:  make([]string, 0),
		Errors:        make([]string, 0),
	}

	ctx := context.Background()

	for _, stillID := range req.StillIDs {
		still, err := d.stillRepo.GetByID(ctx, stillID)
		if err != nil {
			errorMsg := fmt.Sprintf("failed to look up still %s: %v", stillID, err)
			d.logger.Error("Failed to look up still for deletion", "error", err, "still_id", stillID)
			response.FailedStills = append(response.FailedStills, stillID)
			response.Errors = append(response.Errors, errorMsg)
			continue
		}

		// Remove the output file first; a missing file is not an error
		if still != nil {
			if err := os.Remove(still.Path); err != nil && !os.IsNotExist(err) {
				d.logger.Warn("Failed to remove still file, deleting record anyway", "error", err, "path", still.Path)
			}
		}

		if err := d.stillRepo.Delete(ctx, stillID); err != nil {
			errorMsg := fmt.Sprintf("failed to delete still %s: %v", stillID, err)
			d.logger.Error("Failed to delete still", "error", err, "still_id", stillID)
			response.FailedStills = append(response.FailedStills, stillID)
			response.Errors = append(response.Errors, errorMsg)
			continue
		}

		response.DeletedStills = append(response.DeletedStills, stillID)
		d.logger.Info("Successfully deleted still", "still_id", stillID)
	}

	d.logger.Info("Still deletion completed", "requested", len(req.StillIDs), "deleted", len(response.DeletedStills), "failed", len(response.FailedStills))
	return response, nil
}
