package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/caryardhq/caryard/internal/api/response"
	"github.com/caryardhq/caryard/internal/identity"
	"github.com/caryardhq/caryard/internal/snapshot"
	"github.com/caryardhq/caryard/pkg/models"
)

// SettingsStore is the slice of the data layer the settings handlers need.
type SettingsStore interface {
	ListSettings(ctx context.Context, ownerUID string) ([]*models.Setting, error)
	PutSetting(ctx context.Context, ownerUID, key, value string) error
}

// NewListSettingsHandler returns GET /api/v1/settings.
func NewListSettingsHandler(s SettingsStore, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		settings, err := s.ListSettings(r.Context(), owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		if settings == nil {
			settings = []*models.Setting{}
		}
		response.Collection(w, settings, len(settings))
	}
}

// NewPutSettingsHandler returns PUT /api/v1/settings. The body is a flat
// key/value object; each pair upserts independently.
func NewPutSettingsHandler(s SettingsStore, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		var kv map[string]string
		if err := json.NewDecoder(r.Body).Decode(&kv); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if len(kv) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "At least one key is required", nil)
			return
		}

		for key, value := range kv {
			if key == "" {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Empty setting key", nil)
				return
			}
			if err := s.PutSetting(r.Context(), owner, key, value); err != nil {
				response.StoreError(w, err)
				return
			}
		}
		response.JSON(w, map[string]int{"updated": len(kv)})
	}
}

// NewExportSettingsHandler returns GET /api/v1/settings/export?format=json|csv.
func NewExportSettingsHandler(s SettingsStore, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		settings, err := s.ListSettings(r.Context(), owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		snap := &snapshot.Snapshot{Version: snapshot.Version}
		for _, st := range settings {
			snap.Settings = append(snap.Settings, *st)
		}

		switch r.URL.Query().Get("format") {
		case "csv":
			response.CSVAttachment(w, "settings.csv")
			_ = snapshot.WriteCSV(w, "settings", snap)
		case "", "json":
			response.JSON(w, snap.Settings)
		default:
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "format must be json or csv", nil)
		}
	}
}
