package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/caryardhq/caryard/internal/api/response"
	"github.com/caryardhq/caryard/internal/identity"
	"github.com/caryardhq/caryard/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// KeyStore is the slice of the data layer the admin key handlers need.
type KeyStore interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, ownerUID string) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, ownerUID string) error
}

// generateRawKey produces a new API key: "cy_" + 40 hex chars. The first 8
// characters are the lookup prefix stored in clear.
func generateRawKey() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return "cy_" + hex.EncodeToString(buf), nil
}

// NewCreateKeyHandler returns POST /api/v1/admin/keys. The raw key appears
// exactly once, in this response; only its bcrypt hash is stored.
func NewCreateKeyHandler(s KeyStore, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		var req struct {
			Name   string   `json:"name"`
			Scopes []string `json:"scopes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if len(req.Scopes) == 0 {
			req.Scopes = []string{"read", "write"}
		}

		rawKey, err := generateRawKey()
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not generate key", nil)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not hash key", nil)
			return
		}

		now := time.Now().UTC()
		key := &models.APIKey{
			ID:        uuid.New(),
			OwnerUID:  owner,
			Name:      req.Name,
			KeyHash:   string(hash),
			KeyPrefix: rawKey[:8],
			Scopes:    req.Scopes,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.CreateAPIKey(r.Context(), key); err != nil {
			response.StoreError(w, err)
			return
		}

		response.Created(w, map[string]any{
			"id":         key.ID,
			"name":       key.Name,
			"key":        rawKey,
			"key_prefix": key.KeyPrefix,
			"scopes":     key.Scopes,
		})
	}
}

// NewListKeysHandler returns GET /api/v1/admin/keys.
func NewListKeysHandler(s KeyStore, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		keys, err := s.ListAPIKeys(r.Context(), owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		if keys == nil {
			keys = []*models.APIKey{}
		}
		response.Collection(w, keys, len(keys))
	}
}

// NewRevokeKeyHandler returns DELETE /api/v1/admin/keys/{keyID}.
func NewRevokeKeyHandler(s KeyStore, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		keyID, err := uuid.Parse(chi.URLParam(r, "keyID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "keyID must be a UUID", nil)
			return
		}
		if err := s.RevokeAPIKey(r.Context(), keyID, owner); err != nil {
			response.StoreError(w, err)
			return
		}
		response.JSON(w, map[string]string{"status": "revoked"})
	}
}
