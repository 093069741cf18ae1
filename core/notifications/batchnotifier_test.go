package notifications

import (
	"strings"
	"testing"
	"time"
)

type sentEmail struct {
	to      string
	subject string
	body    string
}

type mockEmailSender struct {
	sentEmails []sentEmail
	err        error
}

func (m *mockEmailSender) SendEmail(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sentEmails = append(m.sentEmails, sentEmail{to: to, subject: subject, body: body})
	return nil
}

func TestEmailBatchNotifier_NotifyBatchFinished(t *testing.T) {
	settings := BatchNotificationSettings{Recipient: "admin@example.com"}
	mockSender := &mockEmailSender{}
	notifier := NewEmailBatchNotifier(settings, mockSender, nil)

	summary := BatchSummary{
		BatchID:     "batch-1",
		Rendered:    10,
		Skipped:     2,
		Failed:      1,
		JobsSkipped: 1,
		Duration:    90 * time.Second,
	}

	if err := notifier.NotifyBatchFinished(summary); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(mockSender.sentEmails) != 1 {
		t.Fatalf("Expected 1 email to be sent, got %d", len(mockSender.sentEmails))
	}

	email := mockSender.sentEmails[0]
	if email.to != settings.Recipient {
		t.Errorf("Expected recipient %s, got %s", settings.Recipient, email.to)
	}
	if !strings.Contains(email.subject, "finished") {
		t.Errorf("Expected subject to mention finished, got %s", email.subject)
	}
	if !strings.Contains(email.body, "batch-1") {
		t.Errorf("Expected body to name the batch, got %s", email.body)
	}
	if !strings.Contains(email.body, "Frames rendered: 10") {
		t.Errorf("Expected body to include rendered count, got %s", email.body)
	}
}

func TestEmailBatchNotifier_NotifyBatchCancelled(t *testing.T) {
	settings := BatchNotificationSettings{Recipient: "admin@example.com"}
	mockSender := &mockEmailSender{}
	notifier := NewEmailBatchNotifier(settings, mockSender, nil)

	summary := BatchSummary{
		BatchID:   "batch-2",
		Cancelled: true,
		Rendered:  3,
		Duration:  10 * time.Second,
	}

	if err := notifier.NotifyBatchFinished(summary); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	email := mockSender.sentEmails[0]
	if !strings.Contains(email.subject, "cancelled") {
		t.Errorf("Expected subject to mention cancelled, got %s", email.subject)
	}
}

func TestNopBatchNotifier(t *testing.T) {
	if err := NopBatchNotifier.NotifyBatchFinished(BatchSummary{BatchID: "x"}); err != nil {
		t.Errorf("NopBatchNotifier should never fail, got %v", err)
	}
}
