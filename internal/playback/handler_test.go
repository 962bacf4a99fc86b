package playback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/deeplink"
	"github.com/thomasarchive/archive/internal/languages"
	"github.com/thomasarchive/archive/internal/session"
)

type staticCatalog struct {
	snap *catalog.Snapshot
}

func (c staticCatalog) Snapshot(_ context.Context, _ string) *catalog.Snapshot {
	return c.snap
}

func testSnapshot() *catalog.Snapshot {
	s2 := season2()
	sections := []catalog.Section{
		{Key: "season2", Title: "Series 2", Kind: catalog.KindSeason, Episodes: s2.Episodes},
		{Key: "dvds", Title: "DVDs", Kind: catalog.KindDVD, Collections: []catalog.Collection{
			exampleCollection(),
			{ID: "broken", Tracks: []catalog.TrackReference{catalog.IndexedTrack("", "s2", 99)}},
		}},
	}
	return &catalog.Snapshot{Region: "en-gb", Sections: sections, Index: catalog.NewIndex(sections)}
}

func newTestRouter(t *testing.T, sessionID string) http.Handler {
	t.Helper()
	h := NewHandler(staticCatalog{snap: testSnapshot()}, NewSessions(newFakeSeasons(season2()), time.Hour, time.Hour))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := languages.ContextWithRegion(req.Context(), "en-gb")
			if sessionID != "" {
				ctx = session.ContextWithID(ctx, sessionID)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/api/playback", h.Current)
	r.Post("/api/playback/collections/{id}", h.ActivateCollection)
	r.Post("/api/playback/episodes/*", h.ActivateEpisode)
	r.Post("/api/playback/next", h.Next)
	r.Post("/api/playback/prev", h.Prev)
	r.Post("/api/playback/close", h.Close)
	r.Post("/api/playback/pointer", h.Pointer)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, frameResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var resp frameResponse
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return rec, resp
}

func TestHandlerActivateCollectionAndNavigate(t *testing.T) {
	router := newTestRouter(t, "visitor-1")

	rec, resp := do(t, router, http.MethodPost, "/api/playback/collections/mixed", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp.State != StateOpen || resp.Label != "1/2" {
		t.Errorf("unexpected frame %+v", resp.Frame)
	}
	if resp.Path != "/en-gb/" {
		t.Errorf("direct track without id should keep the home path, got %q", resp.Path)
	}

	_, resp = do(t, router, http.MethodPost, "/api/playback/next", "")
	if resp.Path != "/en-gb/episodes/2/4" {
		t.Errorf("expected deep link path, got %q", resp.Path)
	}

	_, resp = do(t, router, http.MethodGet, "/api/playback", "")
	if resp.Position != 1 {
		t.Errorf("expected current position 1, got %d", resp.Position)
	}

	_, resp = do(t, router, http.MethodPost, "/api/playback/next", "")
	if resp.State != StateClosed || resp.Path != "/en-gb/" {
		t.Errorf("expected closed at home path, got %+v path %q", resp.Frame, resp.Path)
	}
}

func TestHandlerActivateEpisodeByPathAndCode(t *testing.T) {
	router := newTestRouter(t, "visitor-2")

	for _, path := range []string{"/api/playback/episodes/episodes/2/3", "/api/playback/episodes/0203"} {
		rec, resp := do(t, router, http.MethodPost, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
		if resp.Total != 1 || resp.Title != "Thomas and the Missing Christmas Tree" {
			t.Errorf("%s: unexpected frame %+v", path, resp.Frame)
		}
		if resp.Path != deeplink.Encode("en-gb", deeplink.EpisodeID{Section: deeplink.Episodes, Season: 2, Number: 3}) {
			t.Errorf("%s: unexpected path %q", path, resp.Path)
		}
	}
}

func TestHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"unknown collection", http.MethodPost, "/api/playback/collections/nope", "", http.StatusNotFound},
		{"invalid collection id", http.MethodPost, "/api/playback/collections/bad%20id", "", http.StatusBadRequest},
		{"nothing playable", http.MethodPost, "/api/playback/collections/broken", "", http.StatusUnprocessableEntity},
		{"unknown episode", http.MethodPost, "/api/playback/episodes/episodes/9/9", "", http.StatusNotFound},
		{"garbage episode", http.MethodPost, "/api/playback/episodes/xyz", "", http.StatusBadRequest},
		{"bad pointer body", http.MethodPost, "/api/playback/pointer", "{", http.StatusBadRequest},
	}
	router := newTestRouter(t, "visitor-3")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := do(t, router, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			var body map[string]string
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("expected error body, got %q", rec.Body.String())
			}
		})
	}
}

func TestHandlerNothingPlayableKeepsPlayback(t *testing.T) {
	router := newTestRouter(t, "visitor-4")
	do(t, router, http.MethodPost, "/api/playback/collections/mixed", "")

	rec, _ := do(t, router, http.MethodPost, "/api/playback/collections/broken", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	_, resp := do(t, router, http.MethodGet, "/api/playback", "")
	if resp.State != StateOpen || resp.CollectionID != "mixed" {
		t.Errorf("expected earlier playback to continue, got %+v", resp.Frame)
	}
}

func TestHandlerPointer(t *testing.T) {
	router := newTestRouter(t, "visitor-5")
	rec, resp := do(t, router, http.MethodPost, "/api/playback/pointer", `{"over":true}`)
	if rec.Code != http.StatusOK || resp.State != StateClosed {
		t.Errorf("expected closed frame, got %d %+v", rec.Code, resp.Frame)
	}
}

func TestHandlerRequiresSession(t *testing.T) {
	router := newTestRouter(t, "")
	rec, _ := do(t, router, http.MethodGet, "/api/playback", "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestHandlerSessionsAreIsolated(t *testing.T) {
	h := NewHandler(staticCatalog{snap: testSnapshot()}, NewSessions(newFakeSeasons(season2()), time.Hour, time.Hour))
	withSession := func(id string, fn http.HandlerFunc) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fn(w, r.WithContext(session.ContextWithID(r.Context(), id)))
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/playback/episodes/0204", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("*", "0204")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	withSession("a", h.ActivateEpisode).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	withSession("b", h.Current).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/playback", nil))
	var resp frameResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State != StateClosed {
		t.Errorf("expected other session to be closed, got %+v", resp.Frame)
	}
}

func TestHandlerTransitionsWithoutPlayerStayClosed(t *testing.T) {
	sessions := NewSessions(newFakeSeasons(season2()), time.Hour, time.Hour)
	h := NewHandler(staticCatalog{snap: testSnapshot()}, sessions)

	for name, fn := range map[string]http.HandlerFunc{"current": h.Current, "next": h.Next, "prev": h.Prev, "close": h.Close} {
		req := httptest.NewRequest(http.MethodPost, "/api/playback/"+name, nil)
		req = req.WithContext(session.ContextWithID(req.Context(), "new-visitor"))
		rec := httptest.NewRecorder()
		fn(rec, req)

		var resp frameResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if rec.Code != http.StatusOK || resp.State != StateClosed || resp.Path != "/" {
			t.Errorf("%s: expected closed frame, got %d %+v %q", name, rec.Code, resp.Frame, resp.Path)
		}
	}
	if sessions.Len() != 0 {
		t.Errorf("expected no players to be created, got %d", sessions.Len())
	}
}
