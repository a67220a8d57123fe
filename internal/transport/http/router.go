package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker func() error

// NewRouter wires all endpoints. Everything under /applications requires a
// bearer token; login, health and metrics stay open.
func NewRouter(h *Handler, verifier TokenVerifier, health HealthChecker) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Post("/login", h.handleLogin)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if health != nil {
			if err := health(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/applications", func(r chi.Router) {
		r.Use(requireAuth(verifier))
		r.Post("/", h.handleCreateApplication)
		r.Get("/", h.handleListApplications)
		r.Get("/g-number", h.handleFindByGNumber)
		r.Get("/{id}", h.handleGetApplication)
		r.Post("/{id}/transition", h.handleTransition)
		r.Get("/{id}/audit", h.handleAuditTrail)
	})

	return r
}
