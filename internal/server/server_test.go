package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cafe-dashboard/internal/config"
	"cafe-dashboard/internal/models"
	"cafe-dashboard/internal/observability"
	"cafe-dashboard/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func newTestDashboard() *services.Dashboard {
	d := services.NewDashboard(quietLogger(), nil)
	d.SetData([]models.Transaction{{
		Item:            "Coffee",
		Location:        "Takeaway",
		PaymentMethod:   "Cash",
		Quantity:        1,
		PricePerUnit:    decimal.NewFromInt(2),
		TotalSpent:      decimal.NewFromInt(2),
		TransactionDate: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		Year:            2023,
		MonthName:       "June",
		Day:             1,
	}})
	return d
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: 2 * time.Second,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

func TestServer_Routes(t *testing.T) {
	srv := NewServer(newTestDashboard(), quietLogger(), observability.NewMetrics(), testConfig().Metrics)

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/api/kpis", http.StatusOK, "application/json"},
		{"/api/options", http.StatusOK, "application/json"},
		{"/api/transactions", http.StatusOK, "application/json"},
		{"/api/describe", http.StatusOK, "application/json"},
		{"/api/charts", http.StatusOK, "application/json"},
		{"/sse/dashboard", http.StatusOK, "text/event-stream"},
		{"/metrics", http.StatusOK, "text/plain"},
		{"/missing", http.StatusNotFound, "text/plain"},
		{"/api/missing", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}
		})
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	cfg := testConfig().Metrics
	cfg.Enabled = false
	srv := NewServer(newTestDashboard(), quietLogger(), observability.NewMetrics(), cfg)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestServer_RejectsOtherMethods(t *testing.T) {
	srv := NewServer(newTestDashboard(), quietLogger(), nil, testConfig().Metrics)

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/kpis", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "127.0.0.1:0"}, quietLogger(), testConfig())

	var calls atomic.Int32
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})
	hookErr := errors.New("flush failed")
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		calls.Add(1)
		return hookErr
	})

	err := gs.Shutdown(context.Background())
	if !errors.Is(err, hookErr) {
		t.Errorf("Shutdown() error = %v, want %v", err, hookErr)
	}
	if calls.Load() != 2 {
		t.Errorf("hooks called %d times, want 2", calls.Load())
	}
}

func TestGracefulServer_ListenAndServeStopsOnCancel(t *testing.T) {
	gs := NewGracefulServer(&http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}, quietLogger(), testConfig())

	var stopped atomic.Bool
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		stopped.Store(true)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- gs.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("ListenAndServe() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if !stopped.Load() {
		t.Error("shutdown hook was not run")
	}
}
