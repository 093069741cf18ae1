package rendering

import (
	"context"
	"os"
	"sync"

	"stillbatch/core/ccc/logging"
	"stillbatch/core/notifications"
)

const bytesInMegabyte = 1024 * 1024

// StorageManager records rendered stills while keeping the total recorded
// size within a configurable byte budget. When the budget is exceeded, the
// oldest batches' outputs are pruned, files and records both.
type StorageManager interface {
	StoreStill(ctx context.Context, still *Still) error
}

type storageManager struct {
	logger           logging.Logger
	stillRepo        StillRepository
	notifier         notifications.StorageNotifier
	maxSizeMegabytes int64 // 0 means unlimited

	// Serializes the storage check-and-store
	mu sync.Mutex
}

func NewStorageManager(logger logging.Logger, stillRepo StillRepository, notifier notifications.StorageNotifier, maxSizeMegabytes int64) StorageManager {
	if logger == nil {
		logger = logging.NopLogger
	}
	if notifier == nil {
		notifier = notifications.NopStorageNotifier
	}
	return &storageManager{
		logger:           logger,
		stillRepo:        stillRepo,
		notifier:         notifier,
		maxSizeMegabytes: maxSizeMegabytes,
	}
}

func (s *storageManager) StoreStill(ctx context.Context, still *Still) error {
	if s.maxSizeMegabytes <= 0 {
		return s.stillRepo.Add(ctx, still)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	usageBytes, err := s.stillRepo.GetTotalStorageUsage(ctx)
	if err != nil {
		s.logger.Error("failed to get total storage usage", "error", err)
		return err
	}

	usageMegaBytes := usageBytes / bytesInMegabyte
	totalMegaBytes := s.maxSizeMegabytes
	newStillSizeMegaBytes := still.SizeBytes / bytesInMegabyte

	capacityExceeded := (usageMegaBytes + newStillSizeMegaBytes) > totalMegaBytes

	if s.notifier.ShouldWarn(usageMegaBytes, totalMegaBytes) && !capacityExceeded {
		if err := s.notifier.NotifyCapacityWarning(usageMegaBytes, totalMegaBytes); err != nil {
			s.logger.Warn("failed to send capacity warning", "error", err)
		}
	}

	if capacityExceeded {
		s.logger.Warn("still storage budget exceeded, pruning oldest batches")
		if err := s.notifier.NotifyCapacityReached(usageMegaBytes, totalMegaBytes); err != nil {
			s.logger.Warn("failed to send capacity reached notification", "error", err)
		}
	}

	for (usageMegaBytes + newStillSizeMegaBytes) > totalMegaBytes {
		oldestBatchID, err := s.stillRepo.GetOldestBatchID(ctx)
		if err != nil {
			s.logger.Error("failed to find oldest batch for pruning", "error", err)
			return err
		}

		if oldestBatchID == "" {
			s.logger.Warn("no more batches to prune, but budget still exceeded")
			break
		}

		if err := s.pruneBatch(ctx, oldestBatchID); err != nil {
			// Pruning failures must not prevent recording new stills
			s.logger.Warn("stopping pruning due to failure, proceeding with storage", "batch_id", oldestBatchID)
			break
		}
		s.logger.Info("pruned oldest batch to free up space", "batch_id", oldestBatchID)

		usageBytes, err = s.stillRepo.GetTotalStorageUsage(ctx)
		if err != nil {
			s.logger.Error("failed to get updated total storage usage", "error", err)
			return err
		}
		usageMegaBytes = usageBytes / bytesInMegabyte
	}

	return s.stillRepo.Add(ctx, still)
}

// pruneBatch removes a batch's output files and still records
func (s *storageManager) pruneBatch(ctx context.Context, batchID string) error {
	stills, err := s.stillRepo.GetByBatch(ctx, batchID)
	if err != nil {
		s.logger.Error("failed to get stills of batch for pruning", "error", err, "batch_id", batchID)
		return err
	}

	for _, still := range stills {
		if err := os.Remove(still.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove still file during pruning", "error", err, "path", still.Path)
		}
	}

	if err := s.stillRepo.DeleteByBatch(ctx, batchID); err != nil {
		s.logger.Error("failed to delete still records of batch", "error", err, "batch_id", batchID)
		return err
	}

	return nil
}
