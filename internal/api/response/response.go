package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caryardhq/caryard/internal/identity"
	"github.com/caryardhq/caryard/internal/store"
)

type envelope struct {
	Data any `json:"data"`
}

type collectionEnvelope struct {
	Data any      `json:"data"`
	Meta ListMeta `json:"meta"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ListMeta accompanies collection responses.
type ListMeta struct {
	Count int `json:"count"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func Created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, envelope{Data: data})
}

func Accepted(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusAccepted, envelope{Data: data})
}

func Collection(w http.ResponseWriter, data any, count int) {
	writeJSON(w, http.StatusOK, collectionEnvelope{Data: data, Meta: ListMeta{Count: count}})
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// StoreError maps data-layer sentinels onto the API error taxonomy. Raw
// storage error strings never reach the client.
func StoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, identity.ErrNoActiveSession):
		Error(w, http.StatusUnauthorized, "NO_ACTIVE_SESSION", "No authenticated owner identity", nil)
	case errors.Is(err, store.ErrNotFound):
		Error(w, http.StatusNotFound, "NOT_FOUND", "Resource not found", nil)
	case errors.Is(err, store.ErrOwnershipMismatch):
		Error(w, http.StatusConflict, "OWNERSHIP_MISMATCH", "Row belongs to another owner", nil)
	case errors.Is(err, store.ErrDuplicateKey):
		Error(w, http.StatusConflict, "DUPLICATE_KEY", "Resource already exists", nil)
	default:
		Error(w, http.StatusInternalServerError, "STORAGE_FAILURE", "Operation could not complete", nil)
	}
}

// CSVAttachment sets download headers for a CSV export.
func CSVAttachment(w http.ResponseWriter, filename string) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
