package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caryardhq/caryard/internal/importer"
	"github.com/caryardhq/caryard/internal/store"
	"github.com/caryardhq/caryard/pkg/models"
	"github.com/google/uuid"
)

// --- mock ImportService ---

type mockImportService struct {
	uploadFn func(entity, filename string, r io.Reader) (*models.ImportRun, *importer.Preview, error)
	commitFn func(runID uuid.UUID) (*models.ImportRun, error)
	runFn    func(runID uuid.UUID) (*models.ImportRun, error)
	runsFn   func() ([]*models.ImportRun, error)
	logsFn   func(runID uuid.UUID) ([]*models.ImportRowLog, error)
}

func (m *mockImportService) Upload(_ context.Context, _, entity, filename string, r io.Reader) (*models.ImportRun, *importer.Preview, error) {
	return m.uploadFn(entity, filename, r)
}
func (m *mockImportService) Commit(_ context.Context, _ string, runID uuid.UUID) (*models.ImportRun, error) {
	return m.commitFn(runID)
}
func (m *mockImportService) Run(_ context.Context, _ string, runID uuid.UUID) (*models.ImportRun, error) {
	return m.runFn(runID)
}
func (m *mockImportService) Runs(_ context.Context, _ string) ([]*models.ImportRun, error) {
	return m.runsFn()
}
func (m *mockImportService) Logs(_ context.Context, _ string, runID uuid.UUID) ([]*models.ImportRowLog, error) {
	return m.logsFn(runID)
}

func previewReadyRun(id uuid.UUID) *models.ImportRun {
	uid := testOwner
	return &models.ImportRun{
		ID:        id,
		OwnerUID:  &uid,
		Entity:    "customers",
		Status:    models.ImportStatusPreviewReady,
		RowsTotal: 3, RowsValid: 2, RowsError: 1,
	}
}

// --- tests ---

func TestUploadImport_Accepted(t *testing.T) {
	runID := uuid.New()
	svc := &mockImportService{
		uploadFn: func(entity, filename string, _ io.Reader) (*models.ImportRun, *importer.Preview, error) {
			if entity != "customers" {
				t.Errorf("unexpected entity %q", entity)
			}
			if filename != "clients.csv" {
				t.Errorf("unexpected filename %q", filename)
			}
			return previewReadyRun(runID), &importer.Preview{Entity: entity}, nil
		},
	}
	h := NewUploadImportHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost,
		"/api/v1/imports?entity=customers&filename=clients.csv",
		bytes.NewReader([]byte("name,phone\nAvi,0501234567\n")))
	h.ServeHTTP(rec, req)

	data := parseData(t, rec, http.StatusAccepted)
	run := data["run"].(map[string]any)
	if run["status"] != models.ImportStatusPreviewReady {
		t.Errorf("unexpected status: %v", run["status"])
	}
	if _, ok := data["preview"]; !ok {
		t.Error("expected preview in response")
	}
}

func TestUploadImport_DefaultFilename(t *testing.T) {
	var gotFilename string
	svc := &mockImportService{
		uploadFn: func(_, filename string, _ io.Reader) (*models.ImportRun, *importer.Preview, error) {
			gotFilename = filename
			return previewReadyRun(uuid.New()), &importer.Preview{}, nil
		},
	}
	h := NewUploadImportHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/imports?entity=suppliers", bytes.NewReader(nil)))

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if gotFilename != "suppliers.csv" {
		t.Errorf("expected default filename suppliers.csv, got %q", gotFilename)
	}
}

func TestUploadImport_MissingEntity(t *testing.T) {
	h := NewUploadImportHandler(&mockImportService{}, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/imports", bytes.NewReader(nil)))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest || code != "INVALID_REQUEST" {
		t.Errorf("expected 400 INVALID_REQUEST, got %d %s", status, code)
	}
}

func TestUploadImport_TooManyRows(t *testing.T) {
	svc := &mockImportService{
		uploadFn: func(_, _ string, _ io.Reader) (*models.ImportRun, *importer.Preview, error) {
			return nil, nil, importer.ErrTooManyRows{Max: 5000}
		},
	}
	h := NewUploadImportHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/imports?entity=customers", bytes.NewReader(nil)))

	status, code := parseErr(t, rec)
	if status != http.StatusRequestEntityTooLarge || code != "TOO_MANY_ROWS" {
		t.Errorf("expected 413 TOO_MANY_ROWS, got %d %s", status, code)
	}
}

func TestUploadImport_ParseFailure(t *testing.T) {
	svc := &mockImportService{
		uploadFn: func(_, _ string, _ io.Reader) (*models.ImportRun, *importer.Preview, error) {
			return nil, nil, errors.New("unsupported import entity: cars")
		},
	}
	h := NewUploadImportHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/imports?entity=cars", bytes.NewReader(nil)))

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest || code != "PARSE_FAILED" {
		t.Errorf("expected 400 PARSE_FAILED, got %d %s", status, code)
	}
}

type mockStatusReader struct {
	fn func(runID uuid.UUID) (string, error)
}

func (m *mockStatusReader) CachedStatus(_ context.Context, _ string, runID uuid.UUID) (string, error) {
	return m.fn(runID)
}

func TestImportRunStatus_ReturnsStatus(t *testing.T) {
	runID := uuid.New()
	svc := &mockStatusReader{fn: func(id uuid.UUID) (string, error) {
		if id != runID {
			t.Errorf("unexpected run id %s", id)
		}
		return models.ImportStatusPreviewReady, nil
	}}
	h := NewImportRunStatusHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+runID.String()+"/status", nil), "runID", runID.String())
	h.ServeHTTP(rec, req)

	data := parseData(t, rec, http.StatusOK)
	if data["status"] != models.ImportStatusPreviewReady {
		t.Errorf("unexpected status: %v", data["status"])
	}
}

func TestImportRunStatus_UnknownRun(t *testing.T) {
	svc := &mockStatusReader{fn: func(_ uuid.UUID) (string, error) {
		return "", store.ErrNotFound
	}}
	h := NewImportRunStatusHandler(svc, asOwner)

	runID := uuid.New().String()
	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+runID+"/status", nil), "runID", runID)
	h.ServeHTTP(rec, req)

	status, code := parseErr(t, rec)
	if status != http.StatusNotFound || code != "NOT_FOUND" {
		t.Errorf("expected 404 NOT_FOUND, got %d %s", status, code)
	}
}

func TestImportRunStatus_BadUUID(t *testing.T) {
	h := NewImportRunStatusHandler(&mockStatusReader{}, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/imports/nope/status", nil), "runID", "nope")
	h.ServeHTTP(rec, req)

	status, _ := parseErr(t, rec)
	if status != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", status)
	}
}

func TestGetImportRun_BadUUID(t *testing.T) {
	h := NewGetImportRunHandler(&mockImportService{}, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/imports/nope", nil), "runID", "nope")
	h.ServeHTTP(rec, req)

	status, code := parseErr(t, rec)
	if status != http.StatusBadRequest || code != "INVALID_REQUEST" {
		t.Errorf("expected 400 INVALID_REQUEST, got %d %s", status, code)
	}
}

func TestGetImportRun_Found(t *testing.T) {
	runID := uuid.New()
	svc := &mockImportService{
		runFn: func(id uuid.UUID) (*models.ImportRun, error) {
			if id != runID {
				t.Errorf("unexpected run id %s", id)
			}
			return previewReadyRun(runID), nil
		},
	}
	h := NewGetImportRunHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+runID.String(), nil), "runID", runID.String())
	h.ServeHTTP(rec, req)

	data := parseData(t, rec, http.StatusOK)
	if data["id"] != runID.String() {
		t.Errorf("unexpected id: %v", data["id"])
	}
}

func TestListImportRuns_Empty(t *testing.T) {
	svc := &mockImportService{
		runsFn: func() ([]*models.ImportRun, error) { return nil, nil },
	}
	h := NewListImportRunsHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/imports", nil))

	data, count := parseList(t, rec)
	if count != 0 || data == nil {
		t.Errorf("expected empty array, got %v", data)
	}
}

func TestCommitImport_Committed(t *testing.T) {
	runID := uuid.New()
	svc := &mockImportService{
		commitFn: func(id uuid.UUID) (*models.ImportRun, error) {
			run := previewReadyRun(id)
			run.Status = models.ImportStatusCommitted
			run.Created, run.Updated, run.Skipped = 1, 1, 0
			return run, nil
		},
	}
	h := NewCommitImportHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+runID.String()+"/commit", nil), "runID", runID.String())
	h.ServeHTTP(rec, req)

	data := parseData(t, rec, http.StatusOK)
	if data["status"] != models.ImportStatusCommitted {
		t.Errorf("unexpected status: %v", data["status"])
	}
	if data["created"].(float64) != 1 {
		t.Errorf("unexpected created: %v", data["created"])
	}
}

func TestCommitImport_NotFound(t *testing.T) {
	svc := &mockImportService{
		commitFn: func(_ uuid.UUID) (*models.ImportRun, error) { return nil, store.ErrNotFound },
	}
	h := NewCommitImportHandler(svc, asOwner)

	runID := uuid.New().String()
	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+runID+"/commit", nil), "runID", runID)
	h.ServeHTTP(rec, req)

	status, code := parseErr(t, rec)
	if status != http.StatusNotFound || code != "NOT_FOUND" {
		t.Errorf("expected 404 NOT_FOUND, got %d %s", status, code)
	}
}

func TestCommitImport_WrongStateRejected(t *testing.T) {
	svc := &mockImportService{
		commitFn: func(_ uuid.UUID) (*models.ImportRun, error) {
			return nil, errors.New("import run is COMMITTED, expected PREVIEW_READY")
		},
	}
	h := NewCommitImportHandler(svc, asOwner)

	runID := uuid.New().String()
	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/imports/"+runID+"/commit", nil), "runID", runID)
	h.ServeHTTP(rec, req)

	status, code := parseErr(t, rec)
	if status != http.StatusConflict || code != "COMMIT_REJECTED" {
		t.Errorf("expected 409 COMMIT_REJECTED, got %d %s", status, code)
	}
}

func TestImportLogs_Ordered(t *testing.T) {
	runID := uuid.New()
	svc := &mockImportService{
		logsFn: func(id uuid.UUID) ([]*models.ImportRowLog, error) {
			return []*models.ImportRowLog{
				{RunID: id, RowIndex: 0, Outcome: models.ImportRowCreated},
				{RunID: id, RowIndex: 1, Outcome: models.ImportRowError, Note: "missing required field: name"},
			}, nil
		},
	}
	h := NewImportLogsHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/imports/"+runID.String()+"/logs", nil), "runID", runID.String())
	h.ServeHTTP(rec, req)

	data, count := parseList(t, rec)
	if count != 2 {
		t.Fatalf("expected 2 logs, got %d", count)
	}
	second := data[1].(map[string]any)
	if second["outcome"] != models.ImportRowError {
		t.Errorf("unexpected outcome: %v", second["outcome"])
	}
}
