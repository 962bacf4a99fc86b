// Package preview renders Open Graph share pages for seasonal episodes.
package preview

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/afero"
	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/deeplink"
	"github.com/thomasarchive/archive/internal/httputil"
	"github.com/thomasarchive/archive/internal/languages"
)

// Page is the share card of one episode.
type Page struct {
	Code   string
	Title  string
	Season int
	Image  string
	URL    string
	Nonce  string
}

var pageTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>{{.Title}}</title>
  <meta property="og:title" content="{{.Title}}" />
  <meta property="og:description" content="Watch '{{.Title}}' from Series {{.Season}} on the Thomas Archive." />
  <meta property="og:image" content="{{.Image}}" />
  <meta property="og:url" content="{{.URL}}" />
  <meta name="twitter:card" content="summary_large_image" />
</head>
<body>
  <script{{if .Nonce}} nonce="{{.Nonce}}"{{end}}>location.href = {{.URL}};</script>
</body>
</html>
`))

func Render(w io.Writer, p Page) error {
	return pageTemplate.Execute(w, p)
}

// NewPage builds the share card for a seasonal episode. Other sections have
// no compact code and yield false.
func NewPage(baseURL string, ep catalog.Episode) (Page, bool) {
	code, ok := deeplink.Code(ep.ID)
	if !ok {
		return Page{}, false
	}
	base := strings.TrimRight(baseURL, "/")
	image := ep.Cover
	if strings.HasPrefix(image, "/") {
		image = base + image
	}
	return Page{
		Code:   code,
		Title:  ep.Title,
		Season: ep.ID.Season,
		Image:  image,
		URL:    base + "/?ep=" + code,
	}, true
}

// Pages returns a page for every seasonal episode in the snapshot.
func Pages(snap *catalog.Snapshot, baseURL string) []Page {
	var pages []Page
	for _, ep := range snap.Index.Episodes() {
		if p, ok := NewPage(baseURL, ep); ok {
			pages = append(pages, p)
		}
	}
	return pages
}

// WriteAll writes each page to dir as {code}.html.
func WriteAll(fsys afero.Fs, dir string, pages []Page) (int, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("create preview dir: %w", err)
	}
	written := 0
	for _, p := range pages {
		var b strings.Builder
		if err := Render(&b, p); err != nil {
			return written, fmt.Errorf("render preview %s: %w", p.Code, err)
		}
		name := path.Join(dir, p.Code+".html")
		if err := afero.WriteFile(fsys, name, []byte(b.String()), 0o644); err != nil {
			return written, fmt.Errorf("write preview %s: %w", p.Code, err)
		}
		slog.Debug("preview: generated", "code", p.Code, "title", p.Title)
		written++
	}
	return written, nil
}

type CatalogProvider interface {
	Snapshot(ctx context.Context, region string) *catalog.Snapshot
}

type Handler struct {
	catalog CatalogProvider
	baseURL string
}

func NewHandler(c CatalogProvider, baseURL string) *Handler {
	return &Handler{catalog: c, baseURL: baseURL}
}

// Serve handles GET /previews/{code}, with or without a .html suffix.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSuffix(chi.URLParam(r, "code"), ".html")
	id, err := deeplink.ParseCode(code)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	snap := h.catalog.Snapshot(r.Context(), languages.RegionFromContext(r.Context()))
	ep, ok := snap.Index.Lookup(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	page, _ := NewPage(h.baseURL, ep)
	page.Nonce = httputil.NonceFromContext(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if err := Render(w, page); err != nil {
		slog.Error("preview: render failed", "code", code, "error", err)
	}
}
