package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caryardhq/caryard/internal/store"
	"github.com/caryardhq/caryard/pkg/models"
)

type mockRequestStore struct {
	requests map[int64]*models.Request
}

func (m *mockRequestStore) ListRequests(_ context.Context, ownerUID string) ([]*models.Request, error) {
	var out []*models.Request
	for _, r := range m.requests {
		if r.OwnerUID != nil && *r.OwnerUID == ownerUID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockRequestStore) GetRequest(_ context.Context, id int64, ownerUID string) (*models.Request, error) {
	r, ok := m.requests[id]
	if !ok || r.OwnerUID == nil || *r.OwnerUID != ownerUID {
		return nil, store.ErrNotFound
	}
	return r, nil
}

type mockViewCounter struct {
	counts map[string]int64
}

func viewKey(owner string, id int64) string { return fmt.Sprintf("%s/%d", owner, id) }

func (m *mockViewCounter) IncrViews(_ context.Context, ownerUID string, requestID int64) (int64, error) {
	if m.counts == nil {
		m.counts = map[string]int64{}
	}
	m.counts[viewKey(ownerUID, requestID)]++
	return m.counts[viewKey(ownerUID, requestID)], nil
}

func (m *mockViewCounter) GetViews(_ context.Context, ownerUID string, requestID int64) (int64, error) {
	return m.counts[viewKey(ownerUID, requestID)], nil
}

func seededRequestStore() *mockRequestStore {
	uid := testOwner
	return &mockRequestStore{requests: map[int64]*models.Request{
		1: {ID: 1, OwnerUID: &uid, CustomerName: "Dana", Phone: "0501111111", Status: "NEW"},
	}}
}

func TestListRequests_ReturnsOwned(t *testing.T) {
	h := NewListRequestsHandler(seededRequestStore(), asOwner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/requests", nil))

	data, count := parseList(t, rec)
	if count != 1 || len(data) != 1 {
		t.Errorf("expected 1 request, got count=%d len=%d", count, len(data))
	}
}

func TestRecordView_Increments(t *testing.T) {
	views := &mockViewCounter{}
	h := NewRecordViewHandler(seededRequestStore(), views, asOwner)

	for want := int64(1); want <= 3; want++ {
		rec := httptest.NewRecorder()
		req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/requests/1/view", nil), "id", "1")
		h.ServeHTTP(rec, req)

		data := parseData(t, rec, http.StatusOK)
		if int64(data["views"].(float64)) != want {
			t.Errorf("expected views=%d, got %v", want, data["views"])
		}
	}
}

func TestRecordView_UnknownLead(t *testing.T) {
	h := NewRecordViewHandler(seededRequestStore(), &mockViewCounter{}, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/requests/42/view", nil), "id", "42")
	h.ServeHTTP(rec, req)

	status, code := parseErr(t, rec)
	if status != http.StatusNotFound || code != "NOT_FOUND" {
		t.Errorf("expected 404 NOT_FOUND, got %d %s", status, code)
	}
}

func TestGetViews_NeverViewedIsZero(t *testing.T) {
	h := NewGetViewsHandler(seededRequestStore(), &mockViewCounter{}, asOwner)

	rec := httptest.NewRecorder()
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/requests/1/views", nil), "id", "1")
	h.ServeHTTP(rec, req)

	data := parseData(t, rec, http.StatusOK)
	if data["views"].(float64) != 0 {
		t.Errorf("expected 0 views, got %v", data["views"])
	}
}
