package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/thomasarchive/archive/internal/config"
)

type app struct {
	v   *viper.Viper
	cfg config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}
	var configPath string

	root := &cobra.Command{
		Use:          "archive",
		Short:        "Serve the Thomas episode and DVD archive",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ReadFile(a.v, configPath); err != nil {
				return err
			}
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			a.cfg = cfg
			slog.SetDefault(newLogger(cfg.LogLevel, cmd.ErrOrStderr()))
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default ./archive.yaml)")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("backend", config.BackendFiles, "catalog backend: files, s3, http or postgres")
	lo.Must0(a.v.BindPFlag("log_level", flags.Lookup("log-level")))
	lo.Must0(a.v.BindPFlag("catalog.backend", flags.Lookup("backend")))

	root.AddCommand(newServeCmd(a), newPreviewsCmd(a), newImportCmd(a))
	return root
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}
