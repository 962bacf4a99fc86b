package view

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/deeplink"
	"github.com/thomasarchive/archive/internal/httputil"
	"github.com/thomasarchive/archive/internal/languages"
	"github.com/thomasarchive/archive/internal/validate"
)

type CatalogProvider interface {
	Snapshot(ctx context.Context, region string) *catalog.Snapshot
}

type sectionView struct {
	Key         string
	Title       string
	Visible     bool
	Episodes    []episodeView
	Collections []collectionView
}

type episodeView struct {
	ID      string
	Path    string
	Title   string
	Label   string
	Cover   string
	AirDate string
	Summary string
	Author  string
}

type collectionView struct {
	ID         string
	Title      string
	Cover      string
	SpineColor string
	Tracks     int
}

type pageData struct {
	Lang       string
	RegionName string
	Regions    []languages.Region
	Nonce      string
	Query      string
	Searching  bool
	Active     string
	Sections   []sectionView
	Results    []Result
	Failed     []string
	OpenID     string
	Home       string
	DwellMS    int64
}

var pageTemplate = template.Must(template.New("catalog").Funcs(template.FuncMap{
	"episodePath": func(lang, id string) string {
		parsed, err := deeplink.ParseID(id)
		if err != nil {
			return ""
		}
		return deeplink.Encode(lang, parsed)
	},
}).Parse(`<!DOCTYPE html>
<html lang="{{.Lang}}">
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>The Thomas Archive · {{.RegionName}}</title>
    <link rel="stylesheet" href="/styles.css">
</head>
<body data-home="{{.Home}}" data-shield-dwell="{{.DwellMS}}"{{if .OpenID}} data-open="{{.OpenID}}"{{end}}>
    <header>
        <h1><a href="{{.Home}}">The Thomas Archive</a></h1>
        <nav class="regions">
            {{range .Regions}}<a href="/{{.Code}}/"{{if eq .Code $.Lang}} aria-current="true"{{end}}>{{.Name}}</a>{{end}}
        </nav>
        <form class="search" method="get" action="{{.Home}}">
            <input type="search" name="q" value="{{.Query}}" placeholder="Search episodes" maxlength="200">
        </form>
    </header>
    <nav class="tabs">
        {{range .Sections}}<a href="?tab={{.Key}}" class="tab{{if and (eq .Key $.Active) (not $.Searching)}} active{{end}}">{{.Title}}</a>{{end}}
    </nav>
    {{if .Failed}}<p class="notice">Some sections could not be loaded: {{range $i, $k := .Failed}}{{if $i}}, {{end}}{{$k}}{{end}}</p>{{end}}
    {{if .Searching}}
    <section class="results">
        <h2>Results for "{{.Query}}"</h2>
        {{range .Results}}
        {{if .EpisodeID}}
        <a class="episode" href="{{episodePath $.Lang .EpisodeID}}" data-episode="{{.EpisodeID}}">
            {{if .Cover}}<img src="{{.Cover}}" alt="" loading="lazy">{{end}}
            <span class="title">{{.Title}}</span> <span class="section">{{.SectionTitle}}</span>
        </a>
        {{else}}
        <button class="dvd" data-collection="{{.CollectionID}}">{{.Title}} <span class="section">{{.SectionTitle}}</span></button>
        {{end}}
        {{else}}
        <p>No episodes match.</p>
        {{end}}
    </section>
    {{end}}
    {{range .Sections}}
    <section id="{{.Key}}" class="catalog-section"{{if not .Visible}} hidden{{end}}>
        <h2>{{.Title}} <button class="play-all" data-collection="{{.Key}}">Play all</button></h2>
        {{range .Episodes}}
        <a class="episode" href="{{.Path}}" data-episode="{{.ID}}">
            {{if .Cover}}<img src="{{.Cover}}" alt="" loading="lazy">{{end}}
            <span class="label">{{.Label}}</span>
            <span class="title">{{.Title}}</span>
            {{if .AirDate}}<time>{{.AirDate}}</time>{{end}}
            {{if .Author}}<span class="author">{{.Author}}</span>{{end}}
            {{if .Summary}}<p class="summary">{{.Summary}}</p>{{end}}
        </a>
        {{end}}
        {{range .Collections}}
        <button class="dvd" data-collection="{{.ID}}">
            {{if .Cover}}<img src="{{.Cover}}" alt="{{.Title}}" loading="lazy">{{end}}
            <span class="spine"{{if .SpineColor}} data-color="{{.SpineColor}}"{{end}}>{{.Title}}</span>
            <span class="count">{{.Tracks}} episodes</span>
        </button>
        {{end}}
    </section>
    {{end}}
    <div id="player" class="modal" hidden>
        <div class="frame">
            <iframe id="player-frame" allow="autoplay; fullscreen" allowfullscreen></iframe>
            <div id="player-shield" class="shield" hidden></div>
        </div>
        <p><span id="player-title"></span> <span id="player-label"></span></p>
        <button id="player-prev">Previous</button>
        <button id="player-next">Next</button>
        <button id="player-close">Close</button>
    </div>
    <script nonce="{{.Nonce}}">
    (function () {
        var modal = document.getElementById("player");
        var frame = document.getElementById("player-frame");
        var shield = document.getElementById("player-shield");
        function render(f) {
            if (f.path) history.replaceState(null, "", f.path);
            if (f.state !== "open") { modal.hidden = true; frame.src = "about:blank"; return; }
            if (frame.src !== f.embedUrl) frame.src = f.embedUrl;
            document.getElementById("player-title").textContent = f.title;
            document.getElementById("player-label").textContent = f.label;
            document.getElementById("player-prev").disabled = !f.canPrev;
            shield.hidden = !f.shield;
            modal.hidden = false;
            if (f.shield) setTimeout(function () { call("GET", "/api/playback"); }, Number(document.body.dataset.shieldDwell) + 100);
        }
        function call(method, url, body) {
            return fetch(url, {method: method, credentials: "same-origin",
                headers: body ? {"Content-Type": "application/json"} : {},
                body: body ? JSON.stringify(body) : undefined})
                .then(function (r) { return r.json().then(function (j) { if (!r.ok) throw j; return j; }); })
                .then(render)
                .catch(function (e) { if (e && e.error) console.warn(e.error); });
        }
        document.addEventListener("click", function (ev) {
            var ep = ev.target.closest("[data-episode]");
            var dvd = ev.target.closest("[data-collection]");
            if (ep) { ev.preventDefault(); call("POST", "/api/playback/episodes/" + ep.dataset.episode); }
            else if (dvd) { call("POST", "/api/playback/collections/" + encodeURIComponent(dvd.dataset.collection)); }
        });
        document.getElementById("player-next").onclick = function () { call("POST", "/api/playback/next"); };
        document.getElementById("player-prev").onclick = function () { call("POST", "/api/playback/prev"); };
        document.getElementById("player-close").onclick = function () { call("POST", "/api/playback/close"); };
        shield.onmouseenter = function () { call("POST", "/api/playback/pointer", {over: true}); };
        shield.onmouseleave = function () { call("POST", "/api/playback/pointer", {over: false}); };
        if (document.body.dataset.open) call("POST", "/api/playback/episodes/" + document.body.dataset.open);
    })();
    </script>
</body>
</html>
`))

type Handler struct {
	catalog     CatalogProvider
	shieldDwell time.Duration
}

// NewHandler renders pages from c. The page script re-polls playback once
// shieldDwell has passed so the shield comes down on time.
func NewHandler(c CatalogProvider, shieldDwell time.Duration) *Handler {
	return &Handler{catalog: c, shieldDwell: shieldDwell}
}

// Root handles "/". Share links of the form /?ep=SSEE are redirected to
// the episode path; everything else goes to the region home.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	region := languages.RegionFromContext(r.Context())
	if code := r.URL.Query().Get("ep"); code != "" {
		if id, err := deeplink.ParseCode(code); err == nil {
			http.Redirect(w, r, deeplink.Encode(region, id), http.StatusFound)
			return
		}
	}
	http.Redirect(w, r, deeplink.Home(region), http.StatusFound)
}

// Page renders the catalog at /{lang}/ and at every deep-link path.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	region := languages.RegionFromContext(r.Context())
	_, id, isDeepLink := deeplink.Decode(r.URL.Path)
	if !isDeepLink && deeplink.LangOf(r.URL.Path) == "" {
		h.notFound(w)
		return
	}
	if !isDeepLink && strings.Trim(r.URL.Path, "/") != deeplink.LangOf(r.URL.Path) {
		h.notFound(w)
		return
	}

	query := r.URL.Query().Get("q")
	if msg := validate.SearchQuery(query); msg != "" {
		httputil.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	snap := h.catalog.Snapshot(r.Context(), region)
	if isDeepLink {
		if _, ok := snap.Index.Lookup(id); !ok {
			h.notFound(w)
			return
		}
	}

	sel := Initial(snap, r.URL.Query().Get("tab"), r.URL.Path)
	sel.SetQuery(query)

	data := pageData{
		Lang:       region,
		RegionName: languages.RegionName(region),
		Regions:    languages.Regions(),
		Nonce:      httputil.NonceFromContext(r.Context()),
		Query:      sel.Query(),
		Searching:  sel.Searching(),
		Active:     sel.Active(),
		Failed:     snap.Failed,
		Home:       deeplink.Home(region),
		DwellMS:    h.shieldDwell.Milliseconds(),
	}
	if isDeepLink {
		data.OpenID = id.String()
	}
	if sel.Searching() {
		data.Results = Search(snap, sel.Query())
	}
	for _, sec := range snap.Sections {
		data.Sections = append(data.Sections, newSectionView(sec, region, sel.Visible(sec.Key)))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		slog.Error("view: render catalog page", "error", err)
	}
}

func (h *Handler) notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("page not found\n"))
}

func newSectionView(sec catalog.Section, region string, visible bool) sectionView {
	v := sectionView{Key: sec.Key, Title: sec.Title, Visible: visible}
	for _, ep := range sec.Episodes {
		e := episodeView{
			ID:      ep.ID.String(),
			Path:    deeplink.Encode(region, ep.ID),
			Title:   ep.Title,
			Cover:   ep.Cover,
			AirDate: ep.AirDate,
			Summary: ep.Summary,
			Author:  ep.AuthorName,
		}
		if code, ok := deeplink.Code(ep.ID); ok {
			e.Label = code
		}
		v.Episodes = append(v.Episodes, e)
	}
	for _, c := range sec.Collections {
		v.Collections = append(v.Collections, collectionView{
			ID:         c.ID,
			Title:      c.Title,
			Cover:      c.Cover(region),
			SpineColor: c.SpineColor,
			Tracks:     len(c.Tracks),
		})
	}
	return v
}
