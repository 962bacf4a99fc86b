package view

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/deeplink"
	"github.com/thomasarchive/archive/internal/httputil"
	"github.com/thomasarchive/archive/internal/languages"
)

type staticCatalog struct {
	snap *catalog.Snapshot
}

func (c staticCatalog) Snapshot(context.Context, string) *catalog.Snapshot {
	return c.snap
}

func ep(section deeplink.Section, seasonNum, n int, title string) catalog.Episode {
	return catalog.Episode{
		ID:     deeplink.EpisodeID{Section: section, Season: seasonNum, Number: n},
		Number: n,
		Title:  title,
		URL:    "https://youtu.be/x",
	}
}

func testSnapshot() *catalog.Snapshot {
	sections := []catalog.Section{
		{Key: "season1", Title: "Series 1", Kind: catalog.KindSeason, Episodes: []catalog.Episode{
			ep(deeplink.Episodes, 1, 1, "Thomas & Gordon"),
			ep(deeplink.Episodes, 1, 2, "Edward's Day Out"),
		}},
		{Key: "season3", Title: "Series 3", Kind: catalog.KindSeason, Episodes: []catalog.Episode{
			ep(deeplink.Episodes, 3, 7, "Percy's Promise"),
		}},
		{Key: "tugs", Title: "TUGS", Kind: catalog.KindSpecial, Episodes: []catalog.Episode{
			ep(deeplink.Tugs, 0, 1, "Pirate"),
		}},
		{Key: "dvds", Title: "DVDs", Kind: catalog.KindDVD, Collections: []catalog.Collection{
			{ID: "percy-and-the-pirates", Title: "Percy's Ghostly Trick", Covers: map[string]string{"default": "/c.jpg"}},
		}},
	}
	return &catalog.Snapshot{Region: "en-gb", Sections: sections, Index: catalog.NewIndex(sections)}
}

func TestNewSelectorStartsOnFirst(t *testing.T) {
	s := NewSelector([]string{"a", "b"})
	if s.Active() != "a" || !s.Visible("a") || s.Visible("b") {
		t.Errorf("expected only a visible, active=%q", s.Active())
	}
	if s.Activate("zzz") {
		t.Error("expected unknown key to be rejected")
	}
	if !s.Activate("b") || !s.Visible("b") || s.Visible("a") {
		t.Error("expected b to become the only visible section")
	}
}

func TestSearchOverridesTabsAndClearReverts(t *testing.T) {
	s := NewSelector([]string{"a", "b"})
	s.Activate("b")
	s.SetQuery("  percy ")
	if !s.Searching() || s.Visible("b") {
		t.Error("expected search to hide tab sections")
	}
	if s.Query() != "percy" {
		t.Errorf("expected trimmed query, got %q", s.Query())
	}
	s.SetQuery("")
	if s.Searching() || !s.Visible("b") {
		t.Error("expected clearing the query to restore the active tab")
	}
}

func TestInitial(t *testing.T) {
	snap := testSnapshot()
	tests := []struct {
		name string
		tab  string
		path string
		want string
	}{
		{"default first", "", "/en-gb/", "season1"},
		{"explicit tab", "dvds", "/en-gb/episodes/3/7", "dvds"},
		{"deep link", "", "/en-gb/episodes/3/7", "season3"},
		{"tugs link", "", "/tugs/1", "tugs"},
		{"unknown tab falls back to path", "nope", "/en-gb/episodes/3/7", "season3"},
		{"unknown episode", "", "/en-gb/episodes/9/9", "season1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Initial(snap, tt.tab, tt.path).Active(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSearchIsCaseInsensitiveAcrossSections(t *testing.T) {
	results := Search(testSnapshot(), "PERCY")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %+v", results)
	}
	if results[0].EpisodeID != "episodes/3/7" || results[0].SectionKey != "season3" {
		t.Errorf("unexpected first result %+v", results[0])
	}
	if results[1].CollectionID != "percy-and-the-pirates" || results[1].Cover != "/c.jpg" {
		t.Errorf("unexpected second result %+v", results[1])
	}
	if Search(testSnapshot(), "   ") != nil {
		t.Error("expected blank query to return nothing")
	}
}

func servePage(t *testing.T, path, region string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(staticCatalog{snap: testSnapshot()}, 3*time.Second)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	ctx := languages.ContextWithRegion(req.Context(), region)
	ctx = httputil.ContextWithNonce(ctx, "abc123")
	rec := httptest.NewRecorder()
	h.Page(rec, req.WithContext(ctx))
	return rec
}

func TestPageRendersActiveSection(t *testing.T) {
	rec := servePage(t, "/en-gb/?tab=season3", "en-gb")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<section id="season3" class="catalog-section">`) {
		t.Error("expected season3 visible")
	}
	if !strings.Contains(body, `<section id="season1" class="catalog-section" hidden>`) {
		t.Error("expected season1 hidden")
	}
	if !strings.Contains(body, `href="/en-gb/episodes/3/7"`) {
		t.Error("expected deep link for episode")
	}
	if !strings.Contains(body, `<script nonce="abc123">`) {
		t.Error("expected nonce on script")
	}
}

func TestPageDeepLinkPreopensEpisode(t *testing.T) {
	rec := servePage(t, "/en-gb/episodes/3/7", "en-gb")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `data-open="episodes/3/7"`) {
		t.Error("expected episode to be opened on load")
	}
}

func TestPageSearch(t *testing.T) {
	rec := servePage(t, "/en-gb/?q=gordon", "en-gb")
	body := rec.Body.String()
	if !strings.Contains(body, `Results for "gordon"`) {
		t.Errorf("expected results heading in %s", body)
	}
	if strings.Contains(body, `<section id="season1" class="catalog-section">`) {
		t.Error("expected tab sections hidden while searching")
	}
}

func TestPageNotFound(t *testing.T) {
	for _, path := range []string{"/en-gb/episodes/9/9", "/en-gb/unknown", "/somewhere"} {
		if rec := servePage(t, path, "en-gb"); rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, rec.Code)
		}
	}
}

func TestPageRejectsLongQuery(t *testing.T) {
	rec := servePage(t, "/en-gb/?q="+strings.Repeat("a", 201), "en-gb")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestRootRedirects(t *testing.T) {
	h := NewHandler(staticCatalog{snap: testSnapshot()}, 3*time.Second)
	tests := map[string]string{
		"/":            "/en-us/",
		"/?ep=0307":    "/en-us/episodes/3/7",
		"/?ep=garbage": "/en-us/",
	}
	for target, want := range tests {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(languages.ContextWithRegion(req.Context(), "en-us"))
		rec := httptest.NewRecorder()
		h.Root(rec, req)
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != want {
			t.Errorf("%s: expected redirect to %s, got %d %s", target, want, rec.Code, rec.Header().Get("Location"))
		}
	}
}

func TestPageCarriesShieldDwell(t *testing.T) {
	rec := servePage(t, "/en-gb/", "en-gb")
	body := rec.Body.String()
	if !strings.Contains(body, `data-shield-dwell="3000"`) {
		t.Error("expected body to carry the shield dwell in milliseconds")
	}
	if !strings.Contains(body, "dataset.shieldDwell") {
		t.Error("expected the shield re-poll to be scheduled from the rendered dwell")
	}
}
