package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/caryardhq/caryard/internal/api/response"
	"github.com/caryardhq/caryard/internal/identity"
	"github.com/caryardhq/caryard/internal/snapshot"
	"github.com/go-chi/chi/v5"
)

// SnapshotService exports and restores owner snapshots.
type SnapshotService interface {
	Export(ctx context.Context, ownerUID string) (*snapshot.Snapshot, error)
	Import(ctx context.Context, ownerUID string, data []byte) (*snapshot.Result, error)
}

// NewExportSnapshotHandler returns GET /api/v1/export/snapshot.
func NewExportSnapshotHandler(svc SnapshotService, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		snap, err := svc.Export(r.Context(), owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		response.JSON(w, snap)
	}
}

// NewImportSnapshotHandler returns POST /api/v1/import/snapshot. The body is
// a full snapshot document; restored rows re-stamp to the calling owner.
func NewImportSnapshotHandler(svc SnapshotService, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		data, err := io.ReadAll(r.Body)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Could not read body", nil)
			return
		}
		result, err := svc.Import(r.Context(), owner, data)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		response.JSON(w, result)
	}
}

// NewExportCSVHandler returns GET /api/v1/export/{entity}.csv.
func NewExportCSVHandler(svc SnapshotService, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		entity := chi.URLParam(r, "entity")
		if !csvEntity(entity) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "No CSV export for this entity", nil)
			return
		}

		snap, err := svc.Export(r.Context(), owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		response.CSVAttachment(w, entity+".csv")
		if err := snapshot.WriteCSV(w, entity, snap); err != nil {
			// Headers are already out; nothing useful left to send.
			return
		}
	}
}

func csvEntity(entity string) bool {
	for _, e := range snapshot.CSVEntities() {
		if e == entity {
			return true
		}
	}
	return false
}
