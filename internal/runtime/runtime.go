// Package runtime adapts the mapper handlers to the Lambda entry points and to the standalone HTTP service.
package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/core"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/normalizer"
	"github.com/pkg/errors"
)

// EventHandler normalizes and stores raw media service events.
type EventHandler interface {
	Handle(ctx context.Context, raw []byte) *normalizer.Result
}

// AlarmUpdater applies CloudWatch alarm states to the alarm subscriptions.
type AlarmUpdater interface {
	UpdateState(ctx context.Context, event events.CloudWatchEvent) (int, error)
	Refresh(ctx context.Context) (int, error)
}

type Option func(*Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = logger
	}
}

// WithEvents sets the handler of the media service event bus.
func WithEvents(events EventHandler) Option {
	return func(r *Runtime) {
		r.events = events
	}
}

// WithAlarms sets the handler of the alarm state change bus.
func WithAlarms(alarms AlarmUpdater) Option {
	return func(r *Runtime) {
		r.alarms = alarms
	}
}

// WithAPI sets the REST API handler.
func WithAPI(api http.Handler) Option {
	return func(r *Runtime) {
		r.api = api
	}
}

type Runtime struct {
	logger   *slog.Logger
	events   EventHandler
	alarms   AlarmUpdater
	api      http.Handler
	accessor core.RequestAccessor
}

// NewRuntime creates a new runtime instance
func NewRuntime(opts ...Option) *Runtime {
	_inst := &Runtime{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}
	return _inst
}

// LambdaForEvent is the Lambda handler of the media service event bus.
// Failures are logged and never returned, so the bus does not redeliver the event.
func (r *Runtime) LambdaForEvent(ctx context.Context, raw json.RawMessage) error {
	if r.events == nil {
		r.logger.Error("no event handler configured")
		return nil
	}
	result := r.events.Handle(ctx, raw)
	r.logger.Debug("handled event", slog.Any("result", result))
	return nil
}

// LambdaForAlarm is the Lambda handler of the CloudWatch alarm state change bus.
func (r *Runtime) LambdaForAlarm(ctx context.Context, event events.CloudWatchEvent) error {
	if r.alarms == nil {
		return errors.New("no alarm handler configured")
	}
	updated, err := r.alarms.UpdateState(ctx, event)
	if err != nil {
		r.logger.Error("failed to update alarm subscriptions", slog.String("id", event.ID), slog.Any("error", err))
		return err
	}
	r.logger.Info("updated alarm subscriptions", slog.String("id", event.ID), slog.Int("subscriptions", updated))
	return nil
}

// LambdaForAlarmRefresh is the Lambda handler of the scheduled alarm refresh.
func (r *Runtime) LambdaForAlarmRefresh(ctx context.Context, event events.CloudWatchEvent) error {
	if r.alarms == nil {
		return errors.New("no alarm handler configured")
	}
	updated, err := r.alarms.Refresh(ctx)
	if err != nil {
		r.logger.Error("failed to refresh alarm subscriptions", slog.String("id", event.ID), slog.Any("error", err))
		return err
	}
	r.logger.Info("refreshed alarm subscriptions", slog.String("id", event.ID), slog.Int("subscriptions", updated))
	return nil
}

// LambdaForAPI is the Lambda handler of the API Gateway proxy integration.
// Percent-encoded paths are kept encoded so that ARNs containing slashes stay in one path segment.
func (r *Runtime) LambdaForAPI(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	r.logger.Info("received API Gateway request", slog.String("method", req.HTTPMethod), slog.String("path", req.Path))
	httpReq, err := r.accessor.EventToRequestWithContext(ctx, req)
	if err != nil {
		r.logger.Warn("rejecting API Gateway request", slog.Any("error", err))
		return proxyError(http.StatusBadRequest, "invalid request"), nil
	}
	httpReq.RemoteAddr = req.RequestContext.Identity.SourceIP

	rw := core.NewProxyResponseWriter()
	r.ServeHTTP(rw, httpReq)
	resp, err := rw.GetProxyResponse()
	if err != nil {
		r.logger.Error("failed to build API Gateway response", slog.Any("error", err))
		return proxyError(http.StatusInternalServerError, "internal error"), nil
	}
	return resp, nil
}

// ServeHTTP is the HTTP handler for the runtime
func (r *Runtime) ServeHTTP(resp http.ResponseWriter, req *http.Request) {
	if r.api == nil {
		helpers.RespondJSON(resp, http.StatusServiceUnavailable, helpers.Message{Message: "API not configured"})
		return
	}
	r.logger.Debug("received HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.Any("method", req.Method), slog.Any("path", req.URL.Path))
	r.api.ServeHTTP(resp, req)
}

func proxyError(status int, message string) events.APIGatewayProxyResponse {
	body, _ := json.Marshal(helpers.Message{Message: message})
	return events.APIGatewayProxyResponse{
		StatusCode:        status,
		MultiValueHeaders: map[string][]string{"Content-Type": {"application/json"}},
		Body:              string(body),
	}
}
