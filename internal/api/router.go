package api

import (
	"net/http"

	mw "github.com/caryardhq/caryard/internal/api/middleware"
	"github.com/caryardhq/caryard/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	ListCustomers  http.HandlerFunc
	GetCustomer    http.HandlerFunc
	UpsertCustomer http.HandlerFunc
	DeleteCustomer http.HandlerFunc

	ListRequests http.HandlerFunc
	RecordView   http.HandlerFunc
	GetViews     http.HandlerFunc

	UploadImport    http.HandlerFunc
	ListImportRuns  http.HandlerFunc
	GetImportRun    http.HandlerFunc
	ImportRunStatus http.HandlerFunc
	CommitImport    http.HandlerFunc
	ImportLogs      http.HandlerFunc

	ExportSnapshot http.HandlerFunc
	ImportSnapshot http.HandlerFunc
	ExportCSV      http.HandlerFunc

	ListSettings   http.HandlerFunc
	PutSettings    http.HandlerFunc
	ExportSettings http.HandlerFunc

	Backfill http.HandlerFunc

	CreateKeyHandler http.HandlerFunc
	ListKeysHandler  http.HandlerFunc
	RevokeKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(mw.Metrics)

	// Public endpoints
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Method(http.MethodGet, "/metrics", mw.MetricsHandler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Get("/api/v1/customers", orNotImplemented(deps.ListCustomers))
		r.Post("/api/v1/customers", orNotImplemented(deps.UpsertCustomer))
		r.Get("/api/v1/customers/{id}", orNotImplemented(deps.GetCustomer))
		r.Delete("/api/v1/customers/{id}", orNotImplemented(deps.DeleteCustomer))

		r.Get("/api/v1/requests", orNotImplemented(deps.ListRequests))
		r.Post("/api/v1/requests/{id}/view", orNotImplemented(deps.RecordView))
		r.Get("/api/v1/requests/{id}/views", orNotImplemented(deps.GetViews))

		r.Post("/api/v1/imports", orNotImplemented(deps.UploadImport))
		r.Get("/api/v1/imports", orNotImplemented(deps.ListImportRuns))
		r.Get("/api/v1/imports/{runID}", orNotImplemented(deps.GetImportRun))
		r.Get("/api/v1/imports/{runID}/status", orNotImplemented(deps.ImportRunStatus))
		r.Post("/api/v1/imports/{runID}/commit", orNotImplemented(deps.CommitImport))
		r.Get("/api/v1/imports/{runID}/logs", orNotImplemented(deps.ImportLogs))

		r.Get("/api/v1/export/snapshot", orNotImplemented(deps.ExportSnapshot))
		r.Post("/api/v1/import/snapshot", orNotImplemented(deps.ImportSnapshot))
		r.Get("/api/v1/export/{entity}.csv", orNotImplemented(deps.ExportCSV))

		r.Get("/api/v1/settings", orNotImplemented(deps.ListSettings))
		r.Put("/api/v1/settings", orNotImplemented(deps.PutSettings))
		r.Get("/api/v1/settings/export", orNotImplemented(deps.ExportSettings))

		r.Post("/api/v1/owner/backfill", orNotImplemented(deps.Backfill))

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope("admin"))

			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
			r.Get("/api/v1/admin/keys", orNotImplemented(deps.ListKeysHandler))
			r.Delete("/api/v1/admin/keys/{keyID}", orNotImplemented(deps.RevokeKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
