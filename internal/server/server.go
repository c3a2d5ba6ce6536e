// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jury-service/internal/auth"
	"jury-service/internal/common/config"
	apperrors "jury-service/internal/common/errors"
	"jury-service/internal/common/logger"
	"jury-service/internal/common/metrics"
	"jury-service/internal/common/observability"
	"jury-service/internal/evaluation"
	"jury-service/internal/ratelimit"
)

// Server is the HTTP boundary of the evaluation workflow. All domain
// rules live in the evaluation service; the handlers only decode,
// authenticate and translate errors to status codes.
type Server struct {
	cfg        config.ServerConfig
	service    *evaluation.Service
	identity   auth.IdentityProvider
	limiter    *ratelimit.Limiter
	errHandler *apperrors.ErrorHandler
	obs        *observability.Observability
	logger     logger.Logger
	httpServer *http.Server
}

func New(cfg config.ServerConfig, svc *evaluation.Service, identity auth.IdentityProvider, limiter *ratelimit.Limiter, obs *observability.Observability, log logger.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		service:    svc,
		identity:   identity,
		limiter:    limiter,
		errHandler: apperrors.NewErrorHandler(log),
		obs:        obs,
		logger:     log.WithFields(map[string]interface{}{"component": "http-server"}),
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.routes(),
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Millisecond,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Millisecond,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/applications", s.limited(http.HandlerFunc(s.handleSubmitApplication)))
	mux.Handle("POST /api/applications/{ref}/evaluations", s.limited(s.authenticated(s.handleSubmitEvaluation)))
	mux.HandleFunc("GET /api/applications/{ref}/summary", s.handleSummary)
	mux.HandleFunc("POST /api/applications/{ref}/reminders", s.handleRemindJurors)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)

	return s.instrumented(mux)
}

// limited wraps a handler with the fixed-window rate limiter.
func (s *Server) limited(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return s.limiter.Middleware(s.errHandler, next)
}

// instrumented records request duration per route pattern.
func (s *Server) instrumented(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		endpoint := r.Pattern
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	})
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", map[string]interface{}{
		"address": s.cfg.Address,
	})
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
