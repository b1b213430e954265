package normalizer

import (
	"context"
	"log/slog"

	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/metrics"
)

type historyPostProcessor struct {
	logger *slog.Logger
	writer EventWriter
}

// NewHistoryPostProcessor writes the history record when it names a resource.
func NewHistoryPostProcessor(writer EventWriter) Processor {
	return &historyPostProcessor{writer: writer, logger: helpers.NewNoopLogger()}
}

func (p *historyPostProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("post-processor:history")
}

func (p *historyPostProcessor) Process(ctx context.Context, res *Result) error {
	if res.History == nil || res.History.ResourceArn == "" {
		return skipf("no resource ARN")
	}
	if err := p.writer.PutHistory(ctx, res.History); err != nil {
		return err
	}
	res.HistoryStored = true
	metrics.EventsStored.WithLabelValues("history").Inc()
	p.logger.Info("stored media service event", slog.String("resource_arn", res.History.ResourceArn))
	return nil
}
