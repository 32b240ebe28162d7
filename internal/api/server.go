package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"beachrent/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// NewRouter wires every route. Everything under /api requires a bearer token.
func NewRouter(h *Handler, auth *JWTAuth, cfg config.APIConfig, logger *zerolog.Logger) http.Handler {
	r := chi.NewRouter()
	limiter := newRateLimiter(cfg.RateLimit)

	r.Use(requestID)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORS.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders:   []string{requestIDHeader, "Content-Disposition"},
			AllowCredentials: true,
		}))
	}

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware)
		r.Use(recordActor)
		r.Use(limiter.Middleware)

		r.Route("/umbrellas", func(r chi.Router) {
			r.Get("/", h.ListUmbrellas)
			r.Get("/earnings", h.Earnings)
			r.Get("/staff", h.StaffBreakdown)
			r.Post("/reset", h.ResetDay)

			r.Post("/{id}/occupy/{side}", h.OccupyBed)
			r.Post("/{id}/free/{side}", h.FreeBed)
			r.Post("/{id}/rent/{side}", h.RentBed)
			r.Post("/{id}/end-rent/{side}", h.EndRent)

			r.Post("/{id}/extra-beds", h.AddExtraBed)
			r.Delete("/{id}/extra-beds", h.RemoveExtraBed)
			r.Post("/{id}/extra-beds/{number}/release", h.ReleaseExtraBed)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.ListReports)
			r.Post("/", h.GenerateReport)
			r.Get("/export", h.ExportReports)
			r.Delete("/{id}", h.DeleteReport)
		})

		r.Post("/scheduler/run", h.RunScheduler)
	})

	return r
}

type HTTPServer struct {
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIHTTPConfig, handler http.Handler, logger *zerolog.Logger) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: logger,
	}
}

func (s *HTTPServer) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
