package handler

import (
	"context"
	"net/http"

	mw "github.com/caryardhq/caryard/internal/api/middleware"
	"github.com/caryardhq/caryard/internal/api/response"
	"github.com/caryardhq/caryard/internal/identity"
)

// Backfiller claims legacy unowned rows for an owner.
type Backfiller interface {
	BackfillOwner(ctx context.Context, ownerUID string) (map[string]int64, error)
}

// NewBackfillHandler returns POST /api/v1/owner/backfill. Safe to call any
// number of times: rows already claimed (by anyone) are never touched.
func NewBackfillHandler(s Backfiller, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		claimed, err := s.BackfillOwner(r.Context(), owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		for table, n := range claimed {
			mw.RecordBackfillClaims(table, n)
		}
		if claimed == nil {
			claimed = map[string]int64{}
		}
		response.JSON(w, map[string]any{"claimed": claimed})
	}
}
