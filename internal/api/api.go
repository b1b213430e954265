// Package api serves the REST surface of the mapper.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/isometry/media-mapper/internal/alarms"
	"github.com/isometry/media-mapper/internal/eventstore"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/models"
	"github.com/isometry/media-mapper/internal/settings"
	"github.com/isometry/media-mapper/internal/validation"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ContentCache is the content cache as used by the API.
type ContentCache interface {
	ByARN(ctx context.Context, arn string) ([]models.CacheEntry, error)
	ByService(ctx context.Context, service string) ([]models.CacheEntry, error)
	ByServiceRegion(ctx context.Context, service, region string) ([]models.CacheEntry, error)
	Put(ctx context.Context, entries ...models.CacheEntry) error
	Delete(ctx context.Context, arn string) error
	Regions(ctx context.Context) ([]ec2types.Region, error)
}

// AlarmStore is the alarm subscription store as used by the API.
type AlarmStore interface {
	RegionAlarms(ctx context.Context, region string) ([]models.AlarmSubscription, error)
	Subscribe(ctx context.Context, alarmName, region string, arns []string) error
	Unsubscribe(ctx context.Context, alarmName, region string, arns []string) error
	Subscribers(ctx context.Context, alarmName, region string) ([]models.AlarmSubscription, error)
	SubscribedWithState(ctx context.Context, state string) ([]models.SubscriberAlarms, error)
	AlarmsForSubscriber(ctx context.Context, arn string) ([]models.AlarmSubscription, error)
	AllSubscribed(ctx context.Context) ([]models.AlarmSubscription, error)
}

// EventReader reads stored alerts and history.
type EventReader interface {
	AlertsByState(ctx context.Context, state string) ([]models.Event, error)
	History(ctx context.Context, arn string, start, end int64) ([]models.Event, error)
}

// LayoutStore stores diagram layouts.
type LayoutStore interface {
	View(ctx context.Context, view string) ([]models.LayoutItem, error)
	SetNodes(ctx context.Context, items []models.LayoutItem) error
	DeleteNode(ctx context.Context, view, id string) error
}

// ChannelStore stores channel tiles.
type ChannelStore interface {
	List(ctx context.Context) ([]string, error)
	Nodes(ctx context.Context, name string) ([]models.ChannelNode, error)
	SetNodes(ctx context.Context, name string, nodes []models.ChannelNode) error
	Delete(ctx context.Context, name string) error
}

// SettingStore stores application settings.
type SettingStore interface {
	Get(ctx context.Context, key string) (models.Setting, error)
	Put(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
}

// Option is a functional option of the API.
type Option func(*API)

// API routes REST requests to the stores.
type API struct {
	logger     *slog.Logger
	router     *mux.Router
	handler    http.Handler
	apiKey     *validation.APIKey
	buildStamp string
	metrics    bool

	cache    ContentCache
	alarms   AlarmStore
	events   EventReader
	layout   LayoutStore
	channels ChannelStore
	settings SettingStore
}

// New builds the router. Every route requires the API key; /metrics, when enabled, does not.
// Cross-origin preflight requests are answered ahead of the key check.
func New(opts ...Option) *API {
	_inst := &API{}
	for _, opt := range opts {
		opt(_inst)
	}
	if _inst.logger == nil {
		_inst.logger = helpers.NewNoopLogger()
	}

	_inst.router = mux.NewRouter().UseEncodedPath()
	_inst.router.NotFoundHandler = http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		helpers.RespondJSON(rw, http.StatusNotFound, helpers.Message{Message: "Not Found"})
	})
	_inst.router.MethodNotAllowedHandler = http.HandlerFunc(func(rw http.ResponseWriter, _ *http.Request) {
		helpers.RespondJSON(rw, http.StatusMethodNotAllowed, helpers.Message{Message: "Method Not Allowed"})
	})
	if _inst.metrics {
		_inst.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	routes := _inst.router.NewRoute().Subrouter()
	routes.Use(_inst.instrument, _inst.authenticate)
	_inst.routes(routes)

	_inst.handler = handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods(corsMethods),
		handlers.AllowedHeaders(corsHeaders),
	)(_inst.router)
	return _inst
}

var (
	corsMethods = []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete, http.MethodOptions}
	corsHeaders = []string{validation.APIKeyHeader, "Content-Type"}
)

// ServeHTTP implements http.Handler.
func (a *API) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	a.handler.ServeHTTP(rw, req)
}

// respond writes the value, or the error with a status derived from its type.
func (a *API) respond(rw http.ResponseWriter, req *http.Request, value any, err error) {
	if err != nil {
		a.fail(rw, req, err)
		return
	}
	helpers.RespondJSON(rw, http.StatusOK, value)
}

func (a *API) fail(rw http.ResponseWriter, req *http.Request, err error) {
	status := http.StatusInternalServerError
	var (
		badRequest      *BadRequestError
		badRange        *eventstore.RangeError
		settingNotFound *settings.NotFoundError
		alarmNotFound   *alarms.NotFoundError
		apiErr          smithy.APIError
	)
	switch {
	case errors.As(err, &badRequest), errors.As(err, &badRange):
		status = http.StatusBadRequest
	case errors.As(err, &settingNotFound), errors.As(err, &alarmNotFound):
		status = http.StatusNotFound
	case errors.As(err, &apiErr) && throttled[apiErr.ErrorCode()]:
		status = http.StatusServiceUnavailable
	}
	logger := a.logger.With(slog.String("path", req.URL.Path), slog.String("method", req.Method), slog.Any("error", err))
	if status >= http.StatusInternalServerError {
		logger.Error("request failed")
	} else {
		logger.Info("request rejected", slog.Int("status", status))
	}
	helpers.RespondError(rw, status, err)
}

// throttled lists the AWS error codes reported to clients as a temporary unavailability.
var throttled = map[string]bool{
	"ThrottlingException":                    true,
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
}

// BadRequestError reports an invalid request.
type BadRequestError struct {
	Cause error
}

func (e *BadRequestError) Error() string {
	return "bad request: " + e.Cause.Error()
}

func (e *BadRequestError) Unwrap() error {
	return e.Cause
}

func decode(req *http.Request, v any) error {
	if req.Body == nil {
		return &BadRequestError{Cause: errors.New("missing body")}
	}
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return &BadRequestError{Cause: err}
	}
	return nil
}

func saved() helpers.Message {
	return helpers.Message{Message: "saved"}
}

func deleted() helpers.Message {
	return helpers.Message{Message: "deleted"}
}
