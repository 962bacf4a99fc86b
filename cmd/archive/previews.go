package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/thomasarchive/archive/internal/catalog"
	"github.com/thomasarchive/archive/internal/languages"
	"github.com/thomasarchive/archive/internal/preview"
)

func newPreviewsCmd(a *app) *cobra.Command {
	var out, region string
	cmd := &cobra.Command{
		Use:   "previews",
		Short: "Write an Open Graph preview page for every season episode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if region == "" {
				region = a.cfg.DefaultRegion
			}
			if !languages.IsSupported(region) {
				return fmt.Errorf("unsupported region %q", region)
			}
			n, err := writePreviews(cmd.Context(), a, afero.NewOsFs(), out, languages.Normalize(region))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d preview pages in %s\n", n, out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "previews", "output directory")
	cmd.Flags().StringVar(&region, "region", "", "catalog region (default: default_region)")
	return cmd
}

func writePreviews(ctx context.Context, a *app, fsys afero.Fs, out, region string) (int, error) {
	b, err := openBackend(ctx, a.cfg)
	if err != nil {
		return 0, err
	}
	defer b.close()

	manifest, err := loadManifest(fsys, a.cfg.CatalogManifest)
	if err != nil {
		return 0, err
	}
	snap := catalog.NewLoader(b.source, manifest).Snapshot(ctx, region)
	if len(snap.Failed) > 0 {
		slog.Warn("some sections failed to load", "sections", snap.Failed)
	}
	return preview.WriteAll(fsys, out, preview.Pages(snap, a.cfg.BaseURL))
}
