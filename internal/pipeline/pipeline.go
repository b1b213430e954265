// Package pipeline resolves whether a MediaLive resource runs redundant pipelines.
package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/models"
)

const (
	// MultiplexService is the cache service name of MediaLive multiplexes.
	MultiplexService = "medialive-multiplex"
	// SinglePipelineClass is the channel class treated as running a single pipeline.
	SinglePipelineClass = "STANDARD"
)

// EntryFinder looks up cache entries by ARN.
type EntryFinder interface {
	ByARN(ctx context.Context, arn string) ([]models.CacheEntry, error)
}

// Option is a functional option of the StateLookup.
type Option func(*StateLookup)

// WithLogger sets the logger of the StateLookup.
func WithLogger(logger *slog.Logger) Option {
	return func(l *StateLookup) {
		l.logger = logger
	}
}

// StateLookup decides pipeline redundancy from the content cache.
type StateLookup struct {
	cache  EntryFinder
	logger *slog.Logger
}

// New returns a StateLookup reading from the given cache.
func New(cache EntryFinder, opts ...Option) *StateLookup {
	_inst := &StateLookup{cache: cache}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// Lookup reports whether the resource of a MediaLive alarm-set event runs redundant pipelines.
// It defaults to true and never fails: lookup errors are logged and the default kept.
func (l *StateLookup) Lookup(ctx context.Context, event *models.Event) bool {
	if event.Source != "aws.medialive" {
		return true
	}
	if state, _ := event.DetailString("alarm_state"); !strings.EqualFold(state, "set") {
		return true
	}
	logger := l.logger.With(slog.String("resource_arn", event.ResourceArn))
	if event.ResourceArn == "" {
		logger.Debug("no resource to look up, assuming redundant pipelines")
		return true
	}

	entries, err := l.cache.ByARN(ctx, event.ResourceArn)
	if err != nil {
		logger.Warn("failed to look up pipeline state", slog.Any("error", err))
		return true
	}
	for _, entry := range entries {
		if entry.Service == MultiplexService {
			return false
		}
		var data struct {
			ChannelClass string `json:"ChannelClass"`
		}
		if err = json.Unmarshal([]byte(entry.Data), &data); err != nil {
			logger.Warn("failed to decode cached resource", slog.Any("error", err))
			continue
		}
		if data.ChannelClass == SinglePipelineClass {
			return false
		}
	}
	return true
}
