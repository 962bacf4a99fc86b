package status

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

const monitorsDoc = `{"stat":"ok","pagination":{"offset":0,"limit":50,"total":2},"monitors":[{"id":1,"friendly_name":"Site","status":2},{"id":2,"friendly_name":"Videos","status":9}]}`

func newProvider(t *testing.T, status int, body string) (*httptest.Server, *url.Values) {
	t.Helper()
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v2/getMonitors" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
			t.Errorf("expected form content type, got %q", ct)
		}
		raw, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(raw))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &form
}

func serve(h *Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body["error"]
}

func TestStatusPassesResponseThrough(t *testing.T) {
	srv, form := newProvider(t, http.StatusOK, monitorsDoc)
	h := NewHandler(NewClient(srv.URL, "ur-key"))

	rec := serve(h, "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != monitorsDoc {
		t.Errorf("expected body passed through unchanged, got %s", rec.Body.String())
	}
	if form.Get("api_key") != "ur-key" || form.Get("format") != "json" {
		t.Errorf("unexpected form sent: %v", *form)
	}
}

func TestStatusMissingAPIKey(t *testing.T) {
	h := NewHandler(NewClient("http://127.0.0.1:1", ""))
	rec := serve(h, "/api/status")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "API key not found" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestStatusProviderFailure(t *testing.T) {
	srv, _ := newProvider(t, http.StatusOK, `{"stat":"fail","error":{"type":"invalid_parameter","message":"api_key is invalid."}}`)
	rec := serve(NewHandler(NewClient(srv.URL, "bad")), "/api/status")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "api_key is invalid." {
		t.Errorf("expected provider message, got %q", msg)
	}
}

func TestStatusUnreadableResponse(t *testing.T) {
	srv, _ := newProvider(t, http.StatusBadGateway, `<html>bad gateway</html>`)
	rec := serve(NewHandler(NewClient(srv.URL, "key")), "/api/status")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := errorMessage(t, rec); msg != "Failed to fetch data from UptimeRobot" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestStatusTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, "key").Monitors(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestStatusWithLabels(t *testing.T) {
	srv, _ := newProvider(t, http.StatusOK, monitorsDoc)
	rec := serve(NewHandler(NewClient(srv.URL, "key")), "/api/status?labels=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var doc struct {
		Monitors []struct {
			Status      int    `json:"status"`
			StatusLabel string `json:"status_label"`
		} `json:"monitors"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Monitors) != 2 || doc.Monitors[0].StatusLabel != "UP" || doc.Monitors[1].StatusLabel != "PAUSED" {
		t.Errorf("unexpected labels %+v", doc.Monitors)
	}
}

func TestLabel(t *testing.T) {
	tests := map[int]string{0: "DOWN", 1: "MAYBE", 2: "UP", 8: "NOT CHECKED YET", 9: "PAUSED", 7: "UNKNOWN", -1: "UNKNOWN"}
	for code, want := range tests {
		if got := Label(code); got != want {
			t.Errorf("Label(%d) = %q, want %q", code, got, want)
		}
	}
}
