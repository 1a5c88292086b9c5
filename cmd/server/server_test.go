package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/assay/internal/config"
	"github.com/JaimeStill/assay/internal/infrastructure"
	"github.com/JaimeStill/assay/pkg/lifecycle"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestProbes(t *testing.T) {
	infra := &infrastructure.Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    discard,
	}
	router := buildRouter(infra)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	if rec := get("/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d, want 200", rec.Code)
	}

	rec := get("/readyz")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "startup") {
		t.Errorf("readyz before startup = %d %s", rec.Code, rec.Body.String())
	}

	infra.Lifecycle.WaitForStartup()
	if rec := get("/readyz"); rec.Code != http.StatusOK {
		t.Errorf("readyz after startup = %d, want 200", rec.Code)
	}

	infra.Lifecycle.Check("database", func(context.Context) error {
		return errors.New("connection refused")
	})
	rec = get("/readyz")
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(rec.Body.String(), "connection refused") {
		t.Errorf("readyz with failing check = %d %s", rec.Code, rec.Body.String())
	}

	if rec := get("/metrics"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Errorf("metrics = %d", rec.Code)
	}
}

func TestHTTPServerLifecycle(t *testing.T) {
	lc := lifecycle.New()
	cfg := &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            0,
		ReadTimeout:     "5s",
		WriteTimeout:    "5s",
		ShutdownTimeout: "5s",
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	srv := newHTTPServer(cfg, handler, discard)
	if err := srv.Start(lc); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr())
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTeapot {
		t.Errorf("status = %d, want 418", resp.StatusCode)
	}

	if err := lc.Shutdown(5 * time.Second); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if _, err := http.Get("http://" + srv.Addr()); err == nil {
		t.Error("expected connection failure after shutdown")
	}
}

func TestHTTPServerAddressInUse(t *testing.T) {
	lc := lifecycle.New()
	cfg := &config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: "1s"}

	first := newHTTPServer(cfg, http.NotFoundHandler(), discard)
	if err := first.Start(lc); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { lc.Shutdown(5 * time.Second) })

	taken := first.Addr()
	second := newHTTPServer(cfg, http.NotFoundHandler(), discard)
	second.http.Addr = taken
	if err := second.Start(lifecycle.New()); err == nil {
		t.Errorf("expected listen error on %s", taken)
	}
}
