package normalizer

import (
	"log/slog"
	"time"
)

// Option is a functional option of the Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger of the Normalizer and its processors.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Normalizer) {
		n.logger = logger
	}
}

// WithItemTTL sets how long stored events live before the store expires them.
func WithItemTTL(ttl time.Duration) Option {
	return func(n *Normalizer) {
		n.ttl = ttl
	}
}

// WithJitter replaces the source of the sub-millisecond offset added to history timestamps.
// The function must return a value in [1, 999].
func WithJitter(jitter func() int64) Option {
	return func(n *Normalizer) {
		n.jitter = jitter
	}
}

// WithEndpointResolver sets the MediaPackage origin endpoint resolver used for harvest job events.
func WithEndpointResolver(endpoints EndpointResolver) Option {
	return func(n *Normalizer) {
		n.endpoints = endpoints
	}
}

// WithPipelineStater sets the pipeline state lookup used for MediaLive alerts.
func WithPipelineStater(pipelines PipelineStater) Option {
	return func(n *Normalizer) {
		n.pipelines = pipelines
	}
}

// WithArchive uploads every raw event to the given bucket before processing it.
func WithArchive(archiver Archiver, bucket string) Option {
	return func(n *Normalizer) {
		n.archiver = archiver
		n.bucket = bucket
	}
}
