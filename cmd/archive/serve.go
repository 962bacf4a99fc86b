package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/config"
	"github.com/thomasarchive/archive/internal/geoip"
	"github.com/thomasarchive/archive/internal/httputil"
	"github.com/thomasarchive/archive/internal/playback"
	"github.com/thomasarchive/archive/internal/server"
	"github.com/thomasarchive/archive/internal/status"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(a.cfg)
		},
	}
	cmd.Flags().String("port", "8080", "listen port")
	lo.Must0(a.v.BindPFlag("port", cmd.Flags().Lookup("port")))
	return cmd
}

func runServe(cfg config.Config) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	manifest, err := loadManifest(afero.NewOsFs(), cfg.CatalogManifest)
	if err != nil {
		return err
	}
	cache := catalog.NewCache(catalog.NewLoader(b.source, manifest), cfg.CatalogCacheTTL)
	sessions := playback.NewSessions(cache, cfg.ShieldDwell, cfg.SessionTTL)

	geo, err := geoip.New(cfg.GeoIPDB)
	if err != nil {
		return err
	}
	defer geo.Close()

	sessionSecret := cfg.SessionSecret
	if sessionSecret == "" {
		sessionSecret = httputil.RandomToken(32)
		slog.Warn("session_secret not set, using a random one; playback sessions reset on restart")
	}
	if cfg.UptimeRobotKey == "" {
		slog.Warn("uptimerobot.api_key not set, /api/status will report an error")
	}

	var imageHosts []string
	if cfg.CatalogBackend == config.BackendS3 && cfg.S3.Endpoint != "" {
		imageHosts = append(imageHosts, cfg.S3.Endpoint)
	}

	srv := server.New(server.Config{
		Catalog:       cache,
		Sessions:      sessions,
		Monitors:      status.NewClient(cfg.UptimeRobotURL, cfg.UptimeRobotKey),
		Geo:           geo,
		Pinger:        b.pinger,
		WebFS:         staticFS(cfg.StaticDir),
		SessionSecret: sessionSecret,
		SecureCookies: cfg.SecureCookies,
		BaseURL:       cfg.BaseURL,
		DefaultRegion: cfg.DefaultRegion,
		ImageHosts:    imageHosts,
	})

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	defer backgroundCancel()
	srv.StartBackground(backgroundCtx)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("archive listening", "port", cfg.Port, "backend", cfg.CatalogBackend)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return err
	case <-shutdownCh:
	}
	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	slog.Info("shutdown complete")
	return nil
}

// staticFS exposes dir to the server, or nil when there is no such
// directory.
func staticFS(dir string) fs.FS {
	osFs := afero.NewOsFs()
	if ok, _ := afero.DirExists(osFs, dir); !ok {
		slog.Info("no static directory found, static serving disabled", "dir", dir)
		return nil
	}
	return afero.NewIOFS(afero.NewBasePathFs(osFs, dir))
}
