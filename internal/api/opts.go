package api

import (
	"log/slog"

	"github.com/isometry/media-mapper/internal/validation"
)

// WithLogger sets the logger of the API.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithAPIKey sets the key every request must present in the x-api-key header.
func WithAPIKey(key string) Option {
	return func(a *API) {
		a.apiKey = validation.NewAPIKey(key)
	}
}

// WithBuildStamp sets the build identifier reported by /ping.
func WithBuildStamp(stamp string) Option {
	return func(a *API) {
		a.buildStamp = stamp
	}
}

// WithMetrics exposes the Prometheus metrics on /metrics.
func WithMetrics(enabled bool) Option {
	return func(a *API) {
		a.metrics = enabled
	}
}

// WithCache sets the content cache.
func WithCache(cache ContentCache) Option {
	return func(a *API) {
		a.cache = cache
	}
}

// WithAlarms sets the alarm subscription store.
func WithAlarms(alarms AlarmStore) Option {
	return func(a *API) {
		a.alarms = alarms
	}
}

// WithEvents sets the event reader.
func WithEvents(events EventReader) Option {
	return func(a *API) {
		a.events = events
	}
}

// WithLayout sets the layout store.
func WithLayout(layout LayoutStore) Option {
	return func(a *API) {
		a.layout = layout
	}
}

// WithChannels sets the channel tile store.
func WithChannels(channels ChannelStore) Option {
	return func(a *API) {
		a.channels = channels
	}
}

// WithSettings sets the settings store.
func WithSettings(settings SettingStore) Option {
	return func(a *API) {
		a.settings = settings
	}
}
