package normalizer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/pkg/errors"
)

type historyEventProcessor struct {
	logger *slog.Logger
	jitter func() int64
}

// NewHistoryEventProcessor builds the history record: millisecond timestamp with jitter, serialized detail and typed name.
func NewHistoryEventProcessor(jitter func() int64) Processor {
	return &historyEventProcessor{jitter: jitter, logger: helpers.NewNoopLogger()}
}

func (p *historyEventProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("processor:history")
}

func (p *historyEventProcessor) Process(_ context.Context, res *Result) error {
	history := res.Event.Clone()
	history.Timestamp = history.Timestamp*1000 + p.jitter()

	data, err := json.Marshal(history.Detail)
	if err != nil {
		return errors.Wrap(err, "failed to encode event detail")
	}
	history.Data = string(data)

	history.Type = history.DetailType
	if name, ok := history.DetailString("eventName"); ok {
		history.Type += ": " + name
	}
	res.History = history
	p.logger.Debug("built history record", slog.String("type", history.Type), slog.Int64("timestamp", history.Timestamp))
	return nil
}
