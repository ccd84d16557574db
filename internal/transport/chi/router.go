package chi

import (
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/medsearch/internal/metrics"
)

// NewRouter mounts the server's handlers behind the standard middleware stack.
func NewRouter(s *Server, logger *zap.Logger) http.Handler {
	r := chirouter.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())

	r.Get("/", s.Info)
	r.Get("/health", s.HealthCheck)
	r.Post("/query", s.Query)
	r.Get("/search", s.Search)
	r.Get("/docs/{doc_id}", s.GetDocument)
	r.Post("/simplify", s.Simplify)
	r.Get("/metrics", s.Metrics)
	r.Delete("/metrics", s.ResetMetrics)
	r.Get("/metrics/queries", s.QueryLog)
	r.Get("/metrics/prometheus", s.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponseCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponseCodeBadRequest, "method not allowed")
	})
	return r
}
