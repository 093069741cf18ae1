package auth

import (
	"sync"
	"time"
)

// FailureRecord represents a single authentication failure
type FailureRecord struct {
	Subject   string
	RemoteIP  string
	Timestamp time.Time
}

// FailureTracker tracks authentication failures per subject (an operator ID
// for the API, a remote address for the dashboard login)
type FailureTracker interface {
	// RecordFailure records an authentication failure and returns the current failure count within the time window
	RecordFailure(subject string, remoteIP string, timestamp time.Time) int
	// ClearFailures discards all recorded failures for the subject, typically after a successful login
	ClearFailures(subject string)
	// IsThrottled returns true if the subject has reached the threshold within the time window
	IsThrottled(subject string, timestamp time.Time) bool
	// ShouldAutoDisable returns true if the failure count exceeds the auto-disable threshold
	ShouldAutoDisable(failureCount int) bool
}

// ThrottleSettings holds configuration for failure throttling and automatic
// operator disabling
type ThrottleSettings struct {
	Threshold  int           // Number of failures that trigger throttling/auto-disable (0 to disable)
	TimeWindow time.Duration // Time window for counting failures
}

// nopFailureTracker is a no-operation implementation
type nopFailureTracker struct{}

var NopFailureTracker FailureTracker = &nopFailureTracker{}

func (n *nopFailureTracker) RecordFailure(subject string, remoteIP string, timestamp time.Time) int {
	return 0
}

func (n *nopFailureTracker) ClearFailures(subject string) {}

func (n *nopFailureTracker) IsThrottled(subject string, timestamp time.Time) bool {
	return false
}

func (n *nopFailureTracker) ShouldAutoDisable(failureCount int) bool {
	return false
}

// memoryFailureTracker implements FailureTracker using in-memory storage
type memoryFailureTracker struct {
	settings      ThrottleSettings
	failures      []FailureRecord
	failuresMutex sync.Mutex
}

// NewMemoryFailureTracker creates a new in-memory failure tracker
func NewMemoryFailureTracker(settings ThrottleSettings) FailureTracker {
	return &memoryFailureTracker{
		settings: settings,
		failures: make([]FailureRecord, 0),
	}
}

func (t *memoryFailureTracker) ShouldAutoDisable(failureCount int) bool {
	return t.settings.Threshold > 0 && failureCount >= t.settings.Threshold
}

func (t *memoryFailureTracker) RecordFailure(subject string, remoteIP string, timestamp time.Time) int {
	t.failuresMutex.Lock()
	defer t.failuresMutex.Unlock()

	t.failures = append(t.failures, FailureRecord{
		Subject:   subject,
		RemoteIP:  remoteIP,
		Timestamp: timestamp,
	})

	t.dropExpired(timestamp)

	return t.countFor(subject, timestamp)
}

func (t *memoryFailureTracker) ClearFailures(subject string) {
	t.failuresMutex.Lock()
	defer t.failuresMutex.Unlock()

	remaining := make([]FailureRecord, 0, len(t.failures))
	for _, failure := range t.failures {
		if failure.Subject != subject {
			remaining = append(remaining, failure)
		}
	}
	t.failures = remaining
}

func (t *memoryFailureTracker) IsThrottled(subject string, timestamp time.Time) bool {
	if t.settings.Threshold <= 0 {
		return false
	}

	t.failuresMutex.Lock()
	defer t.failuresMutex.Unlock()

	return t.countFor(subject, timestamp) >= t.settings.Threshold
}

// dropExpired removes records outside the time window. Caller must hold the mutex.
func (t *memoryFailureTracker) dropExpired(now time.Time) {
	cutoff := now.Add(-t.settings.TimeWindow)
	valid := make([]FailureRecord, 0, len(t.failures))
	for _, failure := range t.failures {
		if failure.Timestamp.After(cutoff) || failure.Timestamp.Equal(cutoff) {
			valid = append(valid, failure)
		}
	}
	t.failures = valid
}

// countFor counts the subject's failures within the time window. Caller must hold the mutex.
func (t *memoryFailureTracker) countFor(subject string, now time.Time) int {
	cutoff := now.Add(-t.settings.TimeWindow)
	count := 0
	for _, failure := range t.failures {
		if failure.Subject == subject && (failure.Timestamp.After(cutoff) || failure.Timestamp.Equal(cutoff)) {
			count++
		}
	}
	return count
}
