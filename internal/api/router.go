package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Topsis/internal/config"
	"github.com/MikeSquared-Agency/Topsis/internal/evaluation"
	"github.com/MikeSquared-Agency/Topsis/internal/metrics"
)

func NewRouter(svc *evaluation.Service, cfg config.ServerConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(metrics.Middleware())
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.RateLimitPerMinute))

	evals := NewEvaluationsHandler(svc, cfg.MaxUploadBytes, logger)
	calc := NewCalculateHandler(svc, cfg.MaxUploadBytes)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(TokenAuthMiddleware(cfg.APIToken))

		r.Post("/evaluations", evals.Create)
		r.Get("/evaluations", evals.List)
		r.Get("/evaluations/{id}", evals.Get)
		r.Get("/evaluations/{id}/result", evals.Result)
		r.Get("/stats", evals.Stats)

		r.Post("/topsis", calc.Calculate)
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
