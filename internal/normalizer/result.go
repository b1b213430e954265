package normalizer

import (
	"fmt"
	"log/slog"

	"github.com/isometry/media-mapper/internal/models"
)

// Status is the outcome of the normalization of one event.
type Status string

const (
	// Pending means the event is still flowing through the processors.
	Pending Status = "pending"
	// Stored means every applicable record was written.
	Stored Status = "stored"
	// Skipped means the event was deliberately not written to the history table.
	Skipped Status = "skipped"
	// Failed means a lookup or a write failed and the remaining processors did not run.
	Failed Status = "failed"
)

// Result carries an event through the processors and reports what happened to it.
type Result struct {
	// Raw is the event as received.
	Raw []byte
	// Event is the decoded event, enriched in place by the processors.
	Event *models.Event
	// Alert is the record written to the alerts table, if any.
	Alert *models.Event
	// History is the record built for the history table, if any.
	History *models.Event

	Status        Status
	Reason        string
	Stage         string
	Err           error
	Archived      bool
	AlertStored   bool
	HistoryStored bool
}

func (r *Result) skip(reason string) {
	r.Status = Skipped
	r.Reason = reason
}

func (r *Result) fail(stage string, err error) {
	r.Status = Failed
	r.Stage = stage
	r.Err = err
}

// LogValue implements slog.LogValuer.
func (r *Result) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 8)
	attrs = append(attrs, slog.String("status", string(r.Status)))
	if r.Event != nil && r.Event.ResourceArn != "" {
		attrs = append(attrs, slog.String("resource_arn", r.Event.ResourceArn))
	}
	if r.History != nil && r.History.ResourceArn != "" {
		attrs = append(attrs, slog.String("history_arn", r.History.ResourceArn))
	}
	attrs = append(attrs,
		slog.Bool("alert", r.AlertStored),
		slog.Bool("history", r.HistoryStored),
		slog.Bool("archived", r.Archived),
	)
	if r.Reason != "" {
		attrs = append(attrs, slog.String("reason", r.Reason))
	}
	if r.Err != nil {
		attrs = append(attrs, slog.String("error", r.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}

// SkipError reports an event that is deliberately not stored.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string {
	return "skipped: " + e.Reason
}

func skipf(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}
