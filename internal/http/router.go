package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mini-qna/internal/handlers"
	"mini-qna/internal/service"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	QnAService service.QnAService
	// Health and Index are optional; their routes are only registered when set.
	Health *handlers.HealthHandler
	Index  *handlers.IndexHandler
	// Metrics is optional; when nil, /metrics is not served.
	Metrics MetricsProvider
}

// MetricsProvider exposes HTTP instrumentation and the scrape endpoint.
type MetricsProvider interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	askHandler := handlers.NewAskHandler(deps.QnAService)

	// The unversioned path is kept for existing clients.
	r.Method(http.MethodPost, "/ask", askHandler)

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/v1/ask", askHandler)
		if deps.Health != nil {
			r.Method(http.MethodGet, "/health", deps.Health)
		}
		if deps.Index != nil {
			r.Method(http.MethodPost, "/index", deps.Index)
			r.Get("/index/stats", deps.Index.Stats)
		}
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}
