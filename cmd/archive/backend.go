package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/config"
	"github.com/thomasarchive/archive/internal/database"
	"github.com/thomasarchive/archive/internal/server"
	"github.com/thomasarchive/archive/internal/storage"
)

// backend is an opened catalog document source plus what the server
// needs to report its health and release it.
type backend struct {
	source catalog.Source
	pinger server.Pinger
	close  func()
}

func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	b := &backend{close: func() {}}
	switch cfg.CatalogBackend {
	case config.BackendFiles:
		b.source = storage.NewFileSource(afero.NewOsFs(), cfg.CatalogDir)
	case config.BackendHTTP:
		b.source = storage.NewRemoteSource(cfg.CatalogURL, 0)
	case config.BackendS3:
		src, err := storage.New(ctx, s3Config(cfg))
		if err != nil {
			return nil, fmt.Errorf("storage initialization failed: %w", err)
		}
		b.source = src
	case config.BackendPostgres:
		db, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.source = database.NewDocumentStore(db.Pool)
		b.pinger = db
		b.close = db.Close
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", cfg.CatalogBackend)
	}
	slog.Info("catalog backend ready", "backend", cfg.CatalogBackend)
	return b, nil
}

func openDatabase(ctx context.Context, url string) (*database.DB, error) {
	db, err := database.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	if err := db.Migrate(url); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	slog.Info("database migrations applied")
	return db, nil
}

func s3Config(cfg config.Config) storage.Config {
	return storage.Config{
		Endpoint:  cfg.S3.Endpoint,
		Bucket:    cfg.S3.Bucket,
		Prefix:    cfg.S3.Prefix,
		AccessKey: cfg.S3.AccessKey,
		SecretKey: cfg.S3.SecretKey,
		Region:    cfg.S3.Region,
	}
}

// loadManifest reads the section manifest at path, or returns the built-in
// one when path is empty.
func loadManifest(fsys afero.Fs, path string) (catalog.Manifest, error) {
	if path == "" {
		return catalog.DefaultManifest(), nil
	}
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return catalog.Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	return catalog.ParseManifest(data)
}
