// Package httpapi assembles the public router.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"addresslookup/internal/platform/config"
	"addresslookup/internal/platform/metrics"
	"addresslookup/internal/platform/middleware"
	dErrors "addresslookup/pkg/domain-errors"
	"addresslookup/pkg/platform/httputil"
)

// Registrar mounts routes on the router. The wizard implements it.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators the router needs.
type Deps struct {
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Session        config.Session
	RequestTimeout time.Duration
	Wizard         Registrar
	Health         HealthCheck
	// MetricsHandler serves /metrics when set.
	MetricsHandler http.Handler
}

// NewRouter wires the middleware stack, the operational endpoints and the
// wizard steps.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.LatencyMiddleware(deps.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req.Context()); err != nil {
				deps.Logger.WarnContext(req.Context(), "health check failed", "error", err.Error())
				httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeUnavailable, "session backend unavailable"))
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Group(func(r chi.Router) {
		if deps.RequestTimeout > 0 {
			r.Use(chimw.Timeout(deps.RequestTimeout))
		}
		r.Use(middleware.Session(deps.Session))
		deps.Wizard.Register(r)
	})
	return r
}
