package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockBackfiller struct {
	claimed map[string]int64
	err     error
	owner   string
}

func (m *mockBackfiller) BackfillOwner(_ context.Context, ownerUID string) (map[string]int64, error) {
	m.owner = ownerUID
	return m.claimed, m.err
}

func TestBackfill_ReportsClaimedPerTable(t *testing.T) {
	mb := &mockBackfiller{claimed: map[string]int64{"customers": 12, "reservations": 3}}
	h := NewBackfillHandler(mb, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/owner/backfill", nil))

	data := parseData(t, rec, http.StatusOK)
	claimed := data["claimed"].(map[string]any)
	if claimed["customers"].(float64) != 12 {
		t.Errorf("unexpected customers count: %v", claimed["customers"])
	}
	if mb.owner != testOwner {
		t.Errorf("expected owner %q, got %q", testOwner, mb.owner)
	}
}

func TestBackfill_NothingToClaim(t *testing.T) {
	h := NewBackfillHandler(&mockBackfiller{}, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/owner/backfill", nil))

	data := parseData(t, rec, http.StatusOK)
	claimed, ok := data["claimed"].(map[string]any)
	if !ok || len(claimed) != 0 {
		t.Errorf("expected empty claimed map, got %v", data["claimed"])
	}
}

func TestBackfill_StorageFailure(t *testing.T) {
	h := NewBackfillHandler(&mockBackfiller{err: context.DeadlineExceeded}, asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/owner/backfill", nil))

	status, code := parseErr(t, rec)
	if status != http.StatusInternalServerError || code != "STORAGE_FAILURE" {
		t.Errorf("expected 500 STORAGE_FAILURE, got %d %s", status, code)
	}
}
