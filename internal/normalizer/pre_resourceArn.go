package normalizer

import (
	"context"
	"log/slog"

	"github.com/isometry/media-mapper/internal/helpers"
)

type resourceArnPreProcessor struct {
	logger *slog.Logger
}

// NewResourceArnPreProcessor extracts the resource ARN of the event.
func NewResourceArnPreProcessor() Processor {
	return &resourceArnPreProcessor{logger: helpers.NewNoopLogger()}
}

func (p *resourceArnPreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:resourceArn")
}

func (p *resourceArnPreProcessor) Process(_ context.Context, res *Result) error {
	arn, err := ResourceArn(res.Raw, res.Event.Resources)
	if err != nil {
		return skipf("event body cannot be searched: %v", err)
	}
	res.Event.ResourceArn = arn
	if arn == "" {
		p.logger.Debug("no resource ARN in event")
	} else {
		p.logger.Debug("extracted resource ARN", slog.String("resource_arn", arn))
	}
	return nil
}
