package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	mw "github.com/caryardhq/caryard/internal/api/middleware"
	"github.com/caryardhq/caryard/internal/api/response"
	"github.com/caryardhq/caryard/internal/identity"
	"github.com/caryardhq/caryard/internal/importer"
	"github.com/caryardhq/caryard/internal/store"
	"github.com/caryardhq/caryard/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// ImportService drives the upload/preview/commit pipeline.
type ImportService interface {
	Upload(ctx context.Context, ownerUID, entity, filename string, r io.Reader) (*models.ImportRun, *importer.Preview, error)
	Commit(ctx context.Context, ownerUID string, runID uuid.UUID) (*models.ImportRun, error)
	Run(ctx context.Context, ownerUID string, runID uuid.UUID) (*models.ImportRun, error)
	Runs(ctx context.Context, ownerUID string) ([]*models.ImportRun, error)
	Logs(ctx context.Context, ownerUID string, runID uuid.UUID) ([]*models.ImportRowLog, error)
}

// NewUploadImportHandler returns POST /api/v1/imports?entity=customers.
// The body is the raw CSV; the response carries the run plus its preview.
func NewUploadImportHandler(svc ImportService, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}

		entity := r.URL.Query().Get("entity")
		if entity == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "entity query parameter is required", nil)
			return
		}
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			filename = entity + ".csv"
		}

		run, preview, err := svc.Upload(r.Context(), owner, entity, filename, r.Body)
		if err != nil {
			var tooMany importer.ErrTooManyRows
			switch {
			case errors.As(err, &tooMany):
				response.Error(w, http.StatusRequestEntityTooLarge, "TOO_MANY_ROWS", tooMany.Error(), nil)
			default:
				response.Error(w, http.StatusBadRequest, "PARSE_FAILED", "Could not parse upload", nil)
			}
			return
		}

		response.Accepted(w, map[string]any{
			"run":     run,
			"preview": preview,
		})
	}
}

// RunStatusReader answers status polls, preferring the Redis mirror over a
// database read.
type RunStatusReader interface {
	CachedStatus(ctx context.Context, ownerUID string, runID uuid.UUID) (string, error)
}

// NewImportRunStatusHandler returns GET /api/v1/imports/{runID}/status, the
// lightweight poll target for clients waiting on a run. Unlike the full run
// endpoint it is served from the status cache when possible.
func NewImportRunStatusHandler(svc RunStatusReader, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		runID, err := uuid.Parse(chi.URLParam(r, "runID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "runID must be a UUID", nil)
			return
		}
		status, err := svc.CachedStatus(r.Context(), owner, runID)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		response.JSON(w, map[string]string{"status": status})
	}
}

// NewGetImportRunHandler returns GET /api/v1/imports/{runID}.
func NewGetImportRunHandler(svc ImportService, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		runID, err := uuid.Parse(chi.URLParam(r, "runID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "runID must be a UUID", nil)
			return
		}
		run, err := svc.Run(r.Context(), owner, runID)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		response.JSON(w, run)
	}
}

// NewListImportRunsHandler returns GET /api/v1/imports.
func NewListImportRunsHandler(svc ImportService, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		runs, err := svc.Runs(r.Context(), owner)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		if runs == nil {
			runs = []*models.ImportRun{}
		}
		response.Collection(w, runs, len(runs))
	}
}

// NewCommitImportHandler returns POST /api/v1/imports/{runID}/commit.
func NewCommitImportHandler(svc ImportService, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		runID, err := uuid.Parse(chi.URLParam(r, "runID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "runID must be a UUID", nil)
			return
		}
		run, err := svc.Commit(r.Context(), owner, runID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.StoreError(w, err)
				return
			}
			// Wrong state, lost preview: the run cannot commit as asked.
			response.Error(w, http.StatusConflict, "COMMIT_REJECTED", "Run is not in a committable state", nil)
			return
		}

		mw.RecordImportRows(models.ImportRowCreated, run.Created)
		mw.RecordImportRows(models.ImportRowUpdated, run.Updated)
		mw.RecordImportRows(models.ImportRowSkipped, run.Skipped)

		response.JSON(w, run)
	}
}

// NewImportLogsHandler returns GET /api/v1/imports/{runID}/logs.
func NewImportLogsHandler(svc ImportService, res identity.Resolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner, err := identity.RequireCurrentOwner(r.Context(), res)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		runID, err := uuid.Parse(chi.URLParam(r, "runID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "runID must be a UUID", nil)
			return
		}
		logs, err := svc.Logs(r.Context(), owner, runID)
		if err != nil {
			response.StoreError(w, err)
			return
		}
		if logs == nil {
			logs = []*models.ImportRowLog{}
		}
		response.Collection(w, logs, len(logs))
	}
}
