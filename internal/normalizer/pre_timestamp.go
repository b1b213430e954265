package normalizer

import (
	"context"
	"log/slog"
	"time"

	"github.com/isometry/media-mapper/internal/helpers"
)

type timestampPreProcessor struct {
	logger *slog.Logger
	ttl    time.Duration
}

// NewTimestampPreProcessor derives timestamp and expires from the event time and copies the time into the detail.
func NewTimestampPreProcessor(ttl time.Duration) Processor {
	return &timestampPreProcessor{ttl: ttl, logger: helpers.NewNoopLogger()}
}

func (p *timestampPreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:timestamp")
}

func (p *timestampPreProcessor) Process(_ context.Context, res *Result) error {
	event := res.Event
	if event.Time == "" {
		return skipf("event has no time")
	}
	t, err := time.Parse(time.RFC3339, event.Time)
	if err != nil {
		return skipf("event time %q is not ISO-8601", event.Time)
	}
	event.Timestamp = t.Unix()
	event.Expires = event.Timestamp + int64(p.ttl/time.Second)
	event.Detail["time"] = event.Time
	p.logger.Debug("stamped event", slog.Int64("timestamp", event.Timestamp), slog.Int64("expires", event.Expires))
	return nil
}
