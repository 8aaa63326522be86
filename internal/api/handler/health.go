package handler

import (
	"context"
	"net/http"

	"github.com/caryardhq/caryard/internal/api/response"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler returns the liveness endpoint: GET /api/v1/health.
// Degraded dependencies are reported but the endpoint still answers 200 as
// long as the process itself is alive.
func NewHealthHandler(db, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{
			"status":   "ok",
			"database": "ok",
			"redis":    "ok",
		}
		if err := db.Ping(r.Context()); err != nil {
			status["database"] = "unreachable"
			status["status"] = "degraded"
		}
		if err := cache.Ping(r.Context()); err != nil {
			status["redis"] = "unreachable"
			status["status"] = "degraded"
		}
		response.JSON(w, status)
	}
}
