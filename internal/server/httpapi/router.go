package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/booktag/internal/logging"
	"github.com/dmitrijs2005/booktag/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every route of the API onto a chi router.
func NewRouter(h *Handler, logger logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(logger.With("module", "http")))
	r.Use(recordMetrics)

	r.Get("/healthz", h.Healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/admin/qrcodes", func(r chi.Router) {
		r.Post("/", h.CreateCode)
		r.Get("/", h.ListCodes)
		r.Post("/batch", h.ProvisionBatch)
		r.Post("/manifest", h.ExportManifest)
	})

	r.Route("/qrcodes/{code}", func(r chi.Router) {
		r.Get("/", h.LookupCode)
		r.Post("/register", h.RegisterOwner)
	})

	r.Post("/users", h.CreateUser)
	r.Route("/users/{id}/verification-code", func(r chi.Router) {
		r.Post("/", h.IssueVerificationCode)
		r.Post("/validate", h.ValidateCode)
	})

	return r
}
