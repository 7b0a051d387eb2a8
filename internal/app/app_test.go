package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/goleak"

	"StoryCurator/internal/config"
	"StoryCurator/internal/logging"
)

func newInMemoryApp(t *testing.T) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.HTTP.Addr = "127.0.0.1:0"

	a, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	return a
}

func TestNewWiresInMemoryApplication(t *testing.T) {
	a := newInMemoryApp(t)

	rec := httptest.NewRecorder()
	a.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	if res := a.ProcessOnce(context.Background()); res.Processed != 0 || res.Skipped {
		t.Fatalf("empty queue should process nothing: %+v", res)
	}

	report, err := a.CurateOnce(context.Background())
	if err != nil {
		t.Fatalf("CurateOnce: %v", err)
	}
	if report.Session.Outcome != "No stories available" {
		t.Fatalf("unexpected session: %+v", report.Session)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	a := newInMemoryApp(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
