package journal

import "context"

// Notifier sends alert messages.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// AlertRecorder journals every alert passed to the wrapped notifier,
// with its delivery outcome.
type AlertRecorder struct {
	next    Notifier
	journal *Journal
}

// RecordAlerts wraps next.
func (j *Journal) RecordAlerts(next Notifier) *AlertRecorder {
	return &AlertRecorder{next: next, journal: j}
}

// Notify forwards message and records the attempt.
func (a *AlertRecorder) Notify(ctx context.Context, message string) error {
	err := a.next.Notify(ctx, message)
	details := map[string]any{"message": message, "delivered": err == nil}
	if err != nil {
		details["error"] = err.Error()
	}
	a.journal.record(ctx, &Entry{Kind: KindAlert, Subject: "critical", Details: details})
	return err
}
