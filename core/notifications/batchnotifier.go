package notifications

import (
	"fmt"
	"time"

	"stillbatch/core/ccc/logging"
)

// BatchSummary carries the outcome of a finished or cancelled batch.
type BatchSummary struct {
	BatchID     string
	Cancelled   bool
	Rendered    int
	Skipped     int
	Failed      int
	JobsSkipped int
	Duration    time.Duration
}

type BatchNotifier interface {
	// NotifyBatchFinished sends a summary when a batch finishes or is cancelled.
	NotifyBatchFinished(summary BatchSummary) error
}

type nopBatchNotifier struct{}

var NopBatchNotifier BatchNotifier = &nopBatchNotifier{}

// NotifyBatchFinished does nothing and returns nil.
func (n *nopBatchNotifier) NotifyBatchFinished(summary BatchSummary) error {
	// No operation performed
	return nil
}

type BatchNotificationSettings struct {
	Recipient string
}

type emailBatchNotifier struct {
	settings BatchNotificationSettings
	sender   EmailSender
	logger   logging.Logger
}

// NewEmailBatchNotifier creates a batch notifier that emails a summary per
// batch. Batches are explicit user actions, so no rate limiting is applied.
func NewEmailBatchNotifier(settings BatchNotificationSettings, sender EmailSender, logger logging.Logger) BatchNotifier {
	if logger == nil {
		logger = logging.NopLogger
	}
	return &emailBatchNotifier{
		settings: settings,
		sender:   sender,
		logger:   logger,
	}
}

func (n *emailBatchNotifier) NotifyBatchFinished(summary BatchSummary) error {
	outcome := "finished"
	if summary.Cancelled {
		outcome = "cancelled"
	}

	subject := fmt.Sprintf("stillbatch render batch %s", outcome)
	body := fmt.Sprintf("Render batch '%s' %s after %s.\n\nFrames rendered: %d\nFrames skipped: %d\nFrames failed: %d\nJobs skipped: %d\n\nPlease check the dashboard for details.",
		summary.BatchID,
		outcome,
		summary.Duration.Round(time.Second),
		summary.Rendered,
		summary.Skipped,
		summary.Failed,
		summary.JobsSkipped)

	n.logger.Info("Sending batch summary notification.", "batch", summary.BatchID, "recipient", n.settings.Recipient, "outcome", outcome)
	err := n.sender.SendEmail(n.settings.Recipient, subject, body)
	if err != nil {
		n.logger.Error("Failed to send batch summary notification.", "error", err, "batch", summary.BatchID)
		return err
	}

	return nil
}
