package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/caryardhq/caryard/internal/snapshot"
	"github.com/caryardhq/caryard/pkg/models"
)

type mockSnapshotService struct {
	exportFn func(ownerUID string) (*snapshot.Snapshot, error)
	importFn func(ownerUID string, data []byte) (*snapshot.Result, error)
}

func (m *mockSnapshotService) Export(_ context.Context, ownerUID string) (*snapshot.Snapshot, error) {
	return m.exportFn(ownerUID)
}

func (m *mockSnapshotService) Import(_ context.Context, ownerUID string, data []byte) (*snapshot.Result, error) {
	return m.importFn(ownerUID, data)
}

func smallSnapshot() *snapshot.Snapshot {
	uid := testOwner
	return &snapshot.Snapshot{
		Version: snapshot.Version,
		Customers: []models.Customer{
			{ID: 1, OwnerUID: &uid, Name: "Avi", Phone: "0501234567"},
		},
		Settings: []models.Setting{
			{OwnerUID: &uid, Key: "currency", Value: "ILS"},
		},
	}
}

func TestExportSnapshot_ReturnsDocument(t *testing.T) {
	svc := &mockSnapshotService{
		exportFn: func(ownerUID string) (*snapshot.Snapshot, error) {
			if ownerUID != testOwner {
				t.Errorf("unexpected owner %q", ownerUID)
			}
			return smallSnapshot(), nil
		},
	}
	h := NewExportSnapshotHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/export/snapshot", nil))

	data := parseData(t, rec, http.StatusOK)
	if data["version"].(float64) != float64(snapshot.Version) {
		t.Errorf("unexpected version: %v", data["version"])
	}
	customers := data["customers"].([]any)
	if len(customers) != 1 {
		t.Errorf("expected 1 customer, got %d", len(customers))
	}
}

func TestImportSnapshot_ReportsRestoredCounts(t *testing.T) {
	var gotBody []byte
	svc := &mockSnapshotService{
		importFn: func(_ string, data []byte) (*snapshot.Result, error) {
			gotBody = data
			return &snapshot.Result{Restored: map[string]int{"customers": 1, "settings": 1}}, nil
		},
	}
	h := NewImportSnapshotHandler(svc, asOwner)

	body := []byte(`{"version":1,"customers":[{"name":"Avi"}]}`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/import/snapshot", bytes.NewReader(body)))

	data := parseData(t, rec, http.StatusOK)
	restored := data["restored"].(map[string]any)
	if restored["customers"].(float64) != 1 {
		t.Errorf("unexpected restored: %v", restored)
	}
	if !bytes.Equal(gotBody, body) {
		t.Error("body not passed through to service")
	}
}

func TestImportSnapshot_ServiceError(t *testing.T) {
	svc := &mockSnapshotService{
		importFn: func(_ string, _ []byte) (*snapshot.Result, error) {
			return nil, context.DeadlineExceeded
		},
	}
	h := NewImportSnapshotHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/import/snapshot", bytes.NewReader([]byte(`{}`))))

	status, code := parseErr(t, rec)
	if status != http.StatusInternalServerError || code != "STORAGE_FAILURE" {
		t.Errorf("expected 500 STORAGE_FAILURE, got %d %s", status, code)
	}
}

func TestExportCSV_Customers(t *testing.T) {
	svc := &mockSnapshotService{
		exportFn: func(_ string) (*snapshot.Snapshot, error) { return smallSnapshot(), nil },
	}
	h := NewExportCSVHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/export/customers.csv", nil), "entity", "customers")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("expected text/csv, got %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "customers.csv") {
		t.Errorf("unexpected disposition: %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Avi") {
		t.Errorf("expected customer row in CSV: %q", rec.Body.String())
	}
}

func TestExportCSV_UnknownEntity(t *testing.T) {
	svc := &mockSnapshotService{
		exportFn: func(_ string) (*snapshot.Snapshot, error) { return smallSnapshot(), nil },
	}
	h := NewExportCSVHandler(svc, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/export/payments.csv", nil), "entity", "payments")
	h.ServeHTTP(rec, req)

	status, code := parseErr(t, rec)
	if status != http.StatusNotFound || code != "NOT_FOUND" {
		t.Errorf("expected 404 NOT_FOUND, got %d %s", status, code)
	}
}
