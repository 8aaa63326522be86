package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/caryardhq/caryard/internal/api/response"
	"github.com/caryardhq/caryard/internal/identity"
	"github.com/caryardhq/caryard/pkg/models"
	"github.com/go-chi/chi/v5"
)

// CustomerStore is the slice of the data layer the customer handlers need.
type CustomerStore interface {
	ListCustomers(ctx context.Context, ownerUID string) ([]*models.Customer, error)
	GetCustomer(ctx context.Context, id int64, ownerUID string) (*models.Customer, error)
	UpsertCustomer(ctx context.Context, c *models.Customer, ownerUID string) (int64, error)
	DeleteCustomer(ctx context.Context, id int64, ownerUID string) (int64, error)
}

// NewListCustomersHandler returns GET /api/v1/customers.
func NewListCustomersHandler(s CustomerStore, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		customers, err := s.ListCustomers(r.Context(), owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		if customers == nil {
			customers = []*models.Customer{}
		}
		response.Collection(w, customers, len(customers))
	}
}

// NewGetCustomerHandler returns GET /api/v1/customers/{id}.
func NewGetCustomerHandler(s CustomerStore, res identity.Resolver) http.HandlerFunc {
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
		customer, err := s.GetCustomer(r.Context(), id, owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		response.JSON(w, customer)
	}
}

// NewUpsertCustomerHandler returns POST /api/v1/customers. A body with a
// non-zero id updates that row; without one it creates.
func NewUpsertCustomerHandler(s CustomerStore, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		var c models.Customer
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if c.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}

		// Decide created-vs-updated before the store call: the store stamps
		// the generated id back onto the entity on insert.
		created := c.ID == 0

		id, err := s.UpsertCustomer(r.Context(), &c, owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		saved, err := s.GetCustomer(r.Context(), id, owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		if created {
			response.Created(w, saved)
			return
		}
		response.JSON(w, saved)
	}
}

// NewDeleteCustomerHandler returns DELETE /api/v1/customers/{id}.
func NewDeleteCustomerHandler(s CustomerStore, res identity.Resolver) http.HandlerFunc {
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
		affected, err := s.DeleteCustomer(r.Context(), id, owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		if affected == 0 {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
			return
		}
		response.JSON(w, map[string]int64{"deleted": affected})
	}
}
