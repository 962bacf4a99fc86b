package server

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/deeplink"
	"github.com/thomasarchive/archive/internal/docs"
	"github.com/thomasarchive/archive/internal/languages"
	"github.com/thomasarchive/archive/internal/playback"
	"github.com/thomasarchive/archive/internal/preview"
	"github.com/thomasarchive/archive/internal/ratelimit"
	"github.com/thomasarchive/archive/internal/session"
	"github.com/thomasarchive/archive/internal/status"
	"github.com/thomasarchive/archive/internal/view"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	sessionSweepInterval   = time.Minute
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type CatalogProvider interface {
	Snapshot(ctx context.Context, region string) *catalog.Snapshot
}

type Config struct {
	Catalog       CatalogProvider
	Sessions      *playback.Sessions
	Monitors      status.MonitorFetcher
	Geo           RegionLocator
	Pinger        Pinger
	WebFS         fs.FS
	SessionSecret string
	SecureCookies bool
	BaseURL       string
	DefaultRegion string
	ImageHosts    []string
}

type Server struct {
	router   chi.Router
	pinger   Pinger
	sessions *playback.Sessions
	limiters []*ratelimit.Limiter
}

func New(cfg Config) *Server {
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = languages.BritishEnglish
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(slogMiddleware)
	r.Use(securityHeaders(SecurityConfig{BaseURL: cfg.BaseURL, ImageHosts: cfg.ImageHosts}))
	r.Use(regionMiddleware(cfg.Geo, cfg.DefaultRegion))

	s := &Server{router: r, pinger: cfg.Pinger, sessions: cfg.Sessions}
	s.routes(cfg)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// StartBackground runs the limiter and idle-session cleanup loops until
// ctx is cancelled.
func (s *Server) StartBackground(ctx context.Context) {
	for _, l := range s.limiters {
		l.StartCleanup(ctx, limiterCleanupInterval)
	}
	if s.sessions != nil {
		playback.StartSessionSweeper(ctx, s.sessions, sessionSweepInterval)
	}
}

func (s *Server) limiter(rps float64, burst int) *ratelimit.Limiter {
	l := ratelimit.NewLimiter(rps, burst)
	s.limiters = append(s.limiters, l)
	return l
}

func (s *Server) routes(cfg Config) {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/docs", docs.HandleDocs)
	s.router.Get("/api/docs/openapi.yaml", docs.HandleSpec)

	if cfg.Monitors != nil {
		statusHandler := status.NewHandler(cfg.Monitors)
		statusLimiter := s.limiter(0.2, 5)
		s.router.With(statusLimiter.Middleware).Get("/api/status", statusHandler.Get)
	}

	var static http.Handler = http.NotFoundHandler()
	if cfg.WebFS != nil {
		static = newStaticFileServer(cfg.WebFS)
	}

	if cfg.Catalog != nil {
		catalogHandler := catalog.NewHandler(cfg.Catalog)
		s.router.Get("/api/catalog", catalogHandler.Get)

		if cfg.Sessions != nil {
			playbackHandler := playback.NewHandler(cfg.Catalog, cfg.Sessions)
			sessions := session.NewManager(cfg.SessionSecret, cfg.SecureCookies)
			clientLimiter := s.limiter(5, 30)
			playbackLimiter := s.limiter(5, 20).WithKey(func(r *http.Request) string {
				return session.IDFromContext(r.Context())
			})
			s.router.Route("/api/playback", func(r chi.Router) {
				// Clients that drop the cookie get a new session per request,
				// so the per-IP limit has to come first.
				r.Use(clientLimiter.Middleware)
				r.Use(sessions.Middleware)
				r.Use(playbackLimiter.Middleware)
				r.Get("/", playbackHandler.Current)
				r.Post("/collections/{id}", playbackHandler.ActivateCollection)
				r.Post("/episodes/*", playbackHandler.ActivateEpisode)
				r.Post("/next", playbackHandler.Next)
				r.Post("/prev", playbackHandler.Prev)
				r.Post("/close", playbackHandler.Close)
				r.Post("/pointer", playbackHandler.Pointer)
			})
		}

		previewHandler := preview.NewHandler(cfg.Catalog, cfg.BaseURL)
		s.router.Get("/previews/{code}", previewHandler.Serve)

		dwell := playback.DefaultShieldDwell
		if cfg.Sessions != nil {
			dwell = cfg.Sessions.ShieldDwell()
		}
		pages := view.NewHandler(cfg.Catalog, dwell)
		s.router.Get("/", pages.Root)
		s.router.Get("/tugs/{n}", pages.Page)
		s.router.Get("/{lang}", func(w http.ResponseWriter, r *http.Request) {
			lang := chi.URLParam(r, "lang")
			if !deeplink.IsLang(lang) {
				static.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, deeplink.Home(lang), http.StatusMovedPermanently)
		})
		s.router.Get("/{lang}/*", func(w http.ResponseWriter, r *http.Request) {
			if !deeplink.IsLang(chi.URLParam(r, "lang")) {
				static.ServeHTTP(w, r)
				return
			}
			pages.Page(w, r)
		})
	}

	s.router.NotFound(static.ServeHTTP)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
