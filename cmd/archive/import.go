package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/thomasarchive/archive/internal/config"
	"github.com/thomasarchive/archive/internal/database"
	"github.com/thomasarchive/archive/internal/storage"
)

type documentWriter interface {
	Put(ctx context.Context, key string, body []byte) error
}

func newImportCmd(a *app) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy catalog documents from catalog.dir into S3 or Postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src := storage.NewFileSource(afero.NewOsFs(), a.cfg.CatalogDir)

			var dst documentWriter
			switch to {
			case config.BackendS3:
				store, err := storage.New(ctx, s3Config(a.cfg))
				if err != nil {
					return fmt.Errorf("storage initialization failed: %w", err)
				}
				if err := store.EnsureBucket(ctx); err != nil {
					return fmt.Errorf("storage bucket check failed: %w", err)
				}
				dst = store
			case config.BackendPostgres:
				if a.cfg.DatabaseURL == "" {
					return fmt.Errorf("database_url is required to import into postgres")
				}
				db, err := openDatabase(ctx, a.cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer db.Close()
				dst = database.NewDocumentStore(db.Pool)
			default:
				return fmt.Errorf("--to must be %q or %q", config.BackendS3, config.BackendPostgres)
			}

			n, err := copyDocuments(ctx, src, dst)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d documents into %s\n", n, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", config.BackendS3, "destination: s3 or postgres")
	return cmd
}

func copyDocuments(ctx context.Context, src *storage.FileSource, dst documentWriter) (int, error) {
	keys, err := src.Keys()
	if err != nil {
		return 0, fmt.Errorf("list documents: %w", err)
	}
	for i, key := range keys {
		body, err := src.Fetch(ctx, key)
		if err != nil {
			return i, err
		}
		if err := dst.Put(ctx, key, body); err != nil {
			return i, fmt.Errorf("put %s: %w", key, err)
		}
		slog.Debug("imported document", "key", key, "bytes", len(body))
	}
	return len(keys), nil
}
