package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"beachrent/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const requestIDHeader = "X-Request-ID"

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
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

// accessLog logs every request and records it in the HTTP metrics under its route pattern.
// The actor is read from a holder that the auth middleware fills further down the chain.
func accessLog(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			holder := &actorHolder{}
			next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), actorHolderKey{}, holder)))
			dur := time.Since(start)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			metrics.ObserveHTTP(route, strconv.Itoa(rec.status), dur.Seconds())

			reqID, _ := r.Context().Value(requestIDKey).(string)
			event := logger.Info()
			if rec.status >= http.StatusInternalServerError {
				event = logger.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rec.status).
				Dur("duration", dur).
				Str("request_id", reqID).
				Int64("actor_id", holder.id).
				Msg("http request")
		})
	}
}

type actorHolderKey struct{}

type actorHolder struct {
	id int64
}

// recordActor copies the authenticated actor id into the access log holder.
func recordActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if holder, ok := r.Context().Value(actorHolderKey{}).(*actorHolder); ok {
			if actor, ok := actorFrom(r.Context()); ok {
				holder.id = actor.ID
			}
		}
		next.ServeHTTP(w, r)
	})
}
