package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })
	return &buf
}

func newLoggedRouter(status int) http.Handler {
	r := chi.NewRouter()
	r.Use(slogMiddleware)
	handler := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(status) }
	r.Get("/en-gb/", handler)
	r.Get("/api/health", handler)
	return r
}

func TestSlogMiddleware_LogsRequest(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodGet, "/en-gb/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	newLoggedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	for _, field := range []string{
		"method=GET",
		"path=/en-gb/",
		"status=200",
		"client_ip=203.0.113.9",
		"duration_ms=",
		"browser=Safari",
		"mobile=true",
		"bot=false",
	} {
		if !strings.Contains(output, field) {
			t.Errorf("expected log to contain %q, got: %s", field, output)
		}
	}
}

func TestSlogMiddleware_UnknownClient(t *testing.T) {
	buf := captureLogs(t)

	req := httptest.NewRequest(http.MethodGet, "/en-gb/", nil)
	req.Header.Del("User-Agent")
	newLoggedRouter(http.StatusNotFound).ServeHTTP(httptest.NewRecorder(), req)

	output := buf.String()
	if !strings.Contains(output, "status=404") || !strings.Contains(output, "client=unknown") {
		t.Errorf("unexpected log output: %s", output)
	}
}

func TestSlogMiddleware_SkipsHealthCheck(t *testing.T) {
	buf := captureLogs(t)

	rec := httptest.NewRecorder()
	newLoggedRouter(http.StatusOK).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no log output for /api/health, got: %s", buf.String())
	}
}

func TestClientAttrsDetectsBots(t *testing.T) {
	attrs := clientAttrs("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)")
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i] == "bot" && attrs[i+1] != true {
			t.Errorf("expected googlebot to be flagged as a bot")
		}
	}
}
