package notifications

import (
	"fmt"
	"sync"
	"time"

	"stillbatch/core/ccc/logging"
)

type StorageNotifier interface {
	// NotifyCapacityReached notifies when the still storage budget is reached.
	NotifyCapacityReached(usedMegaBytes int64, totalMegaBytes int64) error
	// NotifyCapacityWarning notifies when still storage is nearing its budget.
	NotifyCapacityWarning(usedMegaBytes int64, totalMegaBytes int64) error
	// ShouldWarn returns true if the storage usage is above the warning threshold.
	ShouldWarn(usedMegaBytes int64, totalMegaBytes int64) bool
}

type nopStorageNotifier struct{}

var NopStorageNotifier StorageNotifier = &nopStorageNotifier{}

// NotifyCapacityReached does nothing and returns nil.
func (n *nopStorageNotifier) NotifyCapacityReached(usedMegaBytes int64, totalMegaBytes int64) error {
	// No operation performed
	return nil
}

// NotifyCapacityWarning does nothing and returns nil.
func (n *nopStorageNotifier) NotifyCapacityWarning(usedMegaBytes int64, totalMegaBytes int64) error {
	// No operation performed
	return nil
}

// ShouldWarn does nothing and returns false.
func (n *nopStorageNotifier) ShouldWarn(usedMegaBytes int64, totalMegaBytes int64) bool {
	return false
}

type StorageNotificationSettings struct {
	Recipient        string
	MinInterval      time.Duration
	WarningThreshold float64
}

type emailStorageNotifier struct {
	settings          StorageNotificationSettings
	sender            EmailSender
	logger            logging.Logger
	lastNotification  time.Time
	notificationMutex sync.Mutex
	lastWarning       time.Time
	warningMutex      sync.Mutex
}

func NewEmailStorageNotifier(settings StorageNotificationSettings, sender EmailSender, logger logging.Logger) StorageNotifier {
	if logger == nil {
		logger = logging.NopLogger
	}
	return &emailStorageNotifier{
		settings: settings,
		sender:   sender,
		logger:   logger,
	}
}

func (n *emailStorageNotifier) ShouldWarn(usedMegaBytes int64, totalMegaBytes int64) bool {
	if totalMegaBytes == 0 {
		return false
	}
	usagePercent := float64(usedMegaBytes) / float64(totalMegaBytes)
	return usagePercent >= n.settings.WarningThreshold
}

func (n *emailStorageNotifier) NotifyCapacityReached(usedMegaBytes int64, totalMegaBytes int64) error {
	n.notificationMutex.Lock()
	defer n.notificationMutex.Unlock()

	if time.Since(n.lastNotification) < n.settings.MinInterval {
		n.logger.Info("Skipping storage capacity notification due to rate limiting.")
		return nil
	}

	subject := "stillbatch still storage budget reached"
	body := fmt.Sprintf("The still storage budget has been reached.\n\nUsed: %d MB\nBudget: %d MB\n\nOutputs of the oldest batches will now be pruned until capacity is freed.",
		usedMegaBytes,
		totalMegaBytes)

	n.logger.Info("Sending storage capacity reached notification.", "recipient", n.settings.Recipient)
	err := n.sender.SendEmail(n.settings.Recipient, subject, body)
	if err != nil {
		n.logger.Error("Failed to send storage capacity reached notification.", "error", err)
		return err
	}

	n.lastNotification = time.Now()
	return nil
}

func (n *emailStorageNotifier) NotifyCapacityWarning(usedMegaBytes int64, totalMegaBytes int64) error {
	n.warningMutex.Lock()
	defer n.warningMutex.Unlock()

	if time.Since(n.lastWarning) < n.settings.MinInterval {
		n.logger.Info("Skipping storage capacity warning due to rate limiting.")
		return nil
	}

	subject := "stillbatch still storage budget warning"
	body := fmt.Sprintf("Still storage is nearing its budget.\n\nUsed: %d MB\nBudget: %d MB\n\nPlease consider freeing up space or raising the budget to avoid pruning old batches.",
		usedMegaBytes,
		totalMegaBytes)

	n.logger.Info("Sending storage capacity warning notification.", "recipient", n.settings.Recipient)
	err := n.sender.SendEmail(n.settings.Recipient, subject, body)
	if err != nil {
		n.logger.Error("Failed to send storage capacity warning notification.", "error", err)
		return err
	}

	n.lastWarning = time.Now()
	return nil
}
