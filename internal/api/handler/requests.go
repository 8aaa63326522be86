package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/caryardhq/caryard/internal/api/response"
	"github.com/caryardhq/caryard/internal/identity"
	"github.com/caryardhq/caryard/pkg/models"
	"github.com/go-chi/chi/v5"
)

// RequestStore is the slice of the data layer the lead handlers need.
type RequestStore interface {
	ListRequests(ctx context.Context, ownerUID string) ([]*models.Request, error)
	GetRequest(ctx context.Context, id int64, ownerUID string) (*models.Request, error)
}

// ViewCounter tracks lead view counts through the cache's atomic increment,
// so concurrent viewers never lose an update.
type ViewCounter interface {
	IncrViews(ctx context.Context, ownerUID string, requestID int64) (int64, error)
	GetViews(ctx context.Context, ownerUID string, requestID int64) (int64, error)
}

// NewListRequestsHandler returns GET /api/v1/requests.
func NewListRequestsHandler(s RequestStore, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		requests, err := s.ListRequests(r.Context(), owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		if requests == nil {
			requests = []*models.Request{}
		}
		response.Collection(w, requests, len(requests))
	}
}

// NewRecordViewHandler returns POST /api/v1/requests/{id}/view. The lead must
// exist for the caller before a view is counted.
func NewRecordViewHandler(s RequestStore, views ViewCounter, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be an integer", nil)
			return
		}
		if _, err := s.GetRequest(r.Context(), id, owner); err != nil {
			response.StoreError(w, err)
			return
		}
		count, err := views.IncrViews(r.Context(), owner, id)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "STORAGE_FAILURE", "Could not record view", nil)
			return
		}
		response.JSON(w, map[string]int64{"views": count})
	}
}

// NewGetViewsHandler returns GET /api/v1/requests/{id}/views.
func NewGetViewsHandler(s RequestStore, views ViewCounter, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be an integer", nil)
			return
		}
		if _, err := s.GetRequest(r.Context(), id, owner); err != nil {
			response.StoreError(w, err)
			return
		}
		count, err := views.GetViews(r.Context(), owner, id)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "STORAGE_FAILURE", "Could not read views", nil)
			return
		}
		response.JSON(w, map[string]int64{"views": count})
	}
}
