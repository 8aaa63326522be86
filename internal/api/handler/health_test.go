package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func TestHealth_AllOK(t *testing.T) {
	h := NewHealthHandler(&mockPinger{}, &mockPinger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	data := parseData(t, rec, http.StatusOK)
	if data["status"] != "ok" || data["database"] != "ok" || data["redis"] != "ok" {
		t.Errorf("unexpected health body: %v", data)
	}
}

func TestHealth_DegradedDatabase(t *testing.T) {
	h := NewHealthHandler(&mockPinger{err: errors.New("connection refused")}, &mockPinger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	data := parseData(t, rec, http.StatusOK)
	if data["status"] != "degraded" || data["database"] != "unreachable" {
		t.Errorf("unexpected health body: %v", data)
	}
	if data["redis"] != "ok" {
		t.Errorf("redis should stay ok: %v", data)
	}
}

func TestHealth_DegradedRedis(t *testing.T) {
	h := NewHealthHandler(&mockPinger{}, &mockPinger{err: errors.New("connection refused")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	data := parseData(t, rec, http.StatusOK)
	if data["status"] != "degraded" || data["redis"] != "unreachable" {
		t.Errorf("unexpected health body: %v", data)
	}
}
