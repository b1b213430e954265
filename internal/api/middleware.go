package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/isometry/media-mapper/internal/helpers"
	"github.com/isometry/media-mapper/internal/metrics"
)

func (a *API) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		if err := a.apiKey.Validate(req.Header); err != nil {
			a.logger.Debug("rejecting HTTP request...", slog.Any("requestor", req.RemoteAddr), slog.String("reason", err.Error()))
			helpers.RespondJSON(rw, http.StatusForbidden, helpers.Message{Message: "Forbidden"})
			return
		}
		next.ServeHTTP(rw, req)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (a *API) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		route := req.URL.Path
		if current := mux.CurrentRoute(req); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: rw, status: http.StatusOK}
		next.ServeHTTP(rec, req)

		metrics.APIRequests.WithLabelValues(route, req.Method, strconv.Itoa(rec.status)).Inc()
		metrics.APIRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		a.logger.Debug("served HTTP request",
			slog.String("route", route),
			slog.String("method", req.Method),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}
