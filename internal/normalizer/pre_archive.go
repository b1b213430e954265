package normalizer

import (
	"context"
	"log/slog"

	"github.com/isometry/media-mapper/internal/helpers"
)

type archivePreProcessor struct {
	logger   *slog.Logger
	archiver Archiver
	bucket   string
}

// NewArchivePreProcessor uploads the raw event to the bucket. Upload failures are logged and do not stop the chain.
func NewArchivePreProcessor(archiver Archiver, bucket string) Processor {
	return &archivePreProcessor{archiver: archiver, bucket: bucket, logger: helpers.NewNoopLogger()}
}

func (p *archivePreProcessor) SetLogger(logger *slog.Logger) {
	p.logger = logger.WithGroup("pre-processor:archive")
}

func (p *archivePreProcessor) Process(ctx context.Context, res *Result) error {
	id := res.Event.Source
	if id == "" {
		id = "event"
	}
	if err := p.archiver.PutS3Object(ctx, id, p.bucket, res.Raw); err != nil {
		p.logger.Warn("failed to archive event in S3", slog.Any("error", err))
		return nil
	}
	res.Archived = true
	return nil
}
