// Package normalizer turns raw media service events into alert and history records.
//
// An event flows through three groups of processors sharing one Result:
// pre-processors decode and enrich the envelope, event processors handle alerts
// and build the history record, post-processors store it. A processor stops the
// chain by returning an error; a *SkipError marks a deliberate skip.
package normalizer

import (
	"context"
	"encoding/json"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/metrics"
	"github.com/isometry/media-mapper/internal/models"
	"github.com/pkg/errors"
)

// EventWriter persists alert and history records.
type EventWriter interface {
	PutAlert(ctx context.Context, event *models.Event) error
	PutHistory(ctx context.Context, event *models.Event) error
}

// EndpointResolver resolves MediaPackage origin endpoint ids to ARNs.
type EndpointResolver interface {
	OriginEndpointArn(ctx context.Context, id string) (string, error)
}

// PipelineStater decides whether the resource of an alert runs redundant pipelines.
type PipelineStater interface {
	Lookup(ctx context.Context, event *models.Event) bool
}

// Archiver uploads raw events to S3.
type Archiver interface {
	PutS3Object(ctx context.Context, id string, bucket string, body []byte) error
}

// Processor is one stage of the normalization chain.
type Processor interface {
	SetLogger(logger *slog.Logger)
	Process(ctx context.Context, res *Result) error
}

// Normalizer runs the processor chain over incoming events.
type Normalizer struct {
	logger *slog.Logger

	writer    EventWriter
	endpoints EndpointResolver
	pipelines PipelineStater
	archiver  Archiver
	bucket    string
	ttl       time.Duration
	jitter    func() int64

	preProcessors   []Processor
	eventProcessors []Processor
	postProcessors  []Processor
}

// New returns a Normalizer storing records through writer.
func New(writer EventWriter, opts ...Option) *Normalizer {
	_inst := &Normalizer{
		writer: writer,
		ttl:    7 * 24 * time.Hour,
		jitter: func() int64 { return rand.Int64N(999) + 1 },
	}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}

	if _inst.archiver != nil && _inst.bucket != "" {
		_inst.preProcessors = append(_inst.preProcessors, NewArchivePreProcessor(_inst.archiver, _inst.bucket))
	}
	_inst.preProcessors = append(_inst.preProcessors,
		NewTimestampPreProcessor(_inst.ttl),
		NewResourceArnPreProcessor(),
	)
	_inst.eventProcessors = []Processor{
		NewAlertEventProcessor(_inst.writer, _inst.pipelines),
		NewHistoryEventProcessor(_inst.jitter),
		NewSourceOverridesEventProcessor(_inst.endpoints),
	}
	_inst.postProcessors = []Processor{
		NewHistoryPostProcessor(_inst.writer),
	}
	return _inst
}

// Handle normalizes and stores one raw event. It never fails: the outcome, including any error, is reported on the Result.
func (n *Normalizer) Handle(ctx context.Context, raw []byte) *Result {
	res := &Result{Raw: raw, Status: Pending}

	var event models.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		res.fail("decode", errors.Wrap(err, "malformed event"))
		n.logger.Warn("rejecting malformed event", slog.Any("error", err))
		metrics.EventErrors.WithLabelValues("decode").Inc()
		return res
	}
	if event.Detail == nil {
		event.Detail = map[string]any{}
	}
	res.Event = &event
	metrics.EventsReceived.WithLabelValues(event.Source).Inc()

	logger := n.logger.With(slog.String("source", event.Source), slog.String("detail-type", event.DetailType))
	logger.Debug("processing event...")

	for _, stage := range []struct {
		name       string
		processors []Processor
	}{
		{"pre", n.preProcessors},
		{"event", n.eventProcessors},
		{"post", n.postProcessors},
	} {
		if err := process(ctx, logger, res, stage.processors...); err != nil {
			var skipErr *SkipError
			if errors.As(err, &skipErr) {
				res.skip(skipErr.Reason)
				logger.Info("skipping event", slog.String("reason", skipErr.Reason))
				metrics.EventsSkipped.WithLabelValues(event.Source).Inc()
			} else {
				res.fail(stage.name, err)
				logger.Error("failed to process event", slog.String("stage", stage.name), slog.Any("error", err))
				metrics.EventErrors.WithLabelValues(stage.name).Inc()
			}
			return res
		}
	}

	res.Status = Stored
	logger.Info("processed event", slog.Any("result", res))
	return res
}

func process(ctx context.Context, logger *slog.Logger, res *Result, processors ...Processor) error {
	for _, p := range processors {
		p.SetLogger(logger)
		if err := p.Process(ctx, res); err != nil {
			return err
		}
	}
	return nil
}
