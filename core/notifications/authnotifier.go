package notifications

import (
	"fmt"
	"sync"
	"time"

	"stillbatch/core/ccc/logging"
)

type AuthNotifier interface {
	// NotifyRepeatedAuthFailure notifies when repeated authentication failures are detected.
	NotifyRepeatedAuthFailure(subject string, failureCount int, remoteIP string) error
	// ShouldNotify returns true if the failure count has reached the threshold.
	ShouldNotify(failureCount int) bool
}

type nopAuthNotifier struct{}

var NopAuthNotifier AuthNotifier = &nopAuthNotifier{}

// NotifyRepeatedAuthFailure does nothing and returns nil.
func (n *nopAuthNotifier) NotifyRepeatedAuthFailure(subject string, failureCount int, remoteIP string) error {
	// No operation performed
	return nil
}

// ShouldNotify does nothing and returns false.
func (n *nopAuthNotifier) ShouldNotify(failureCount int) bool {
	return false
}

type AuthNotificationSettings struct {
	Recipient        string
	MinInterval      time.Duration
	FailureThreshold int
}

type emailAuthNotifier struct {
	settings          AuthNotificationSettings
	sender            EmailSender
	logger            logging.Logger
	lastNotification  map[string]time.Time
	notificationMutex sync.Mutex
}

func NewEmailAuthNotifier(settings AuthNotificationSettings, sender EmailSender, logger logging.Logger) AuthNotifier {
	if logger == nil {
		logger = logging.NopLogger
	}
	return &emailAuthNotifier{
		settings:         settings,
		sender:           sender,
		logger:           logger,
		lastNotification: make(map[string]time.Time),
	}
}

func (n *emailAuthNotifier) ShouldNotify(failureCount int) bool {
	return failureCount >= n.settings.FailureThreshold
}

func (n *emailAuthNotifier) NotifyRepeatedAuthFailure(subject string, failureCount int, remoteIP string) error {
	n.notificationMutex.Lock()
	defer n.notificationMutex.Unlock()

	if time.Since(n.lastNotification[subject]) < n.settings.MinInterval {
		n.logger.Info("Skipping authentication failure notification due to rate limiting.", "subject", subject)
		return nil
	}

	mailSubject := "stillbatch repeated authentication failures detected"
	body := fmt.Sprintf("Repeated authentication failures detected for '%s'.\n\nFailure count: %d\nRemote IP: %s\n\nThis may indicate a brute force attempt or a misconfigured operator. Please investigate and consider rotating the operator secret or blocking the IP address if necessary.",
		subject,
		failureCount,
		remoteIP)

	n.logger.Info("Sending authentication failure notification.", "subject", subject, "recipient", n.settings.Recipient, "failureCount", failureCount)
	err := n.sender.SendEmail(n.settings.Recipient, mailSubject, body)
	if err != nil {
		n.logger.Error("Failed to send authentication failure notification.", "error", err, "subject", subject)
		return err
	}

	n.lastNotification[subject] = time.Now()
	return nil
}
