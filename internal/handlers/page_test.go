package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPageHandlers_HandleDashboard(t *testing.T) {
	handlers := NewPageHandlers(createTestDashboard(), testLogger())

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected html, got %q", ct)
	}

	body := w.Body.String()
	for _, want := range []string{"<!doctype html>", "$13.00", "Unique Items Sold", `data-bind="items"`, "Showing 4 of 4 transactions"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(body, "&#34;charts&#34;") {
		t.Error("seeded signals should keep chart figures client-local")
	}
}

func TestPageHandlers_HandleDashboard_CancelledRequest(t *testing.T) {
	handlers := NewPageHandlers(createTestDashboard(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := httptest.NewRecorder()
	handlers.HandleDashboard(w, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	var resp envelope
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode JSON: %v", err)
	}
	if resp.Success || resp.Error == nil || resp.Error.Code != "SERVICE_UNAVAILABLE" {
		t.Errorf("unexpected response %+v", resp)
	}
}
