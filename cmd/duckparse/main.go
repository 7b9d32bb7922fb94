package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/japaniel/duckparse/internal/config"
	"github.com/japaniel/duckparse/internal/logging"
	"github.com/japaniel/duckparse/pkg/duckparse"
	"github.com/japaniel/duckparse/pkg/engine"
	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app is the state shared by all subcommands, filled in before any of them runs.
type app struct {
	configPath string
	format     string

	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "duckparse",
		Short:        "Extract structured entities from natural language text",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closer != nil {
				return a.closer.Close()
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: ./duckparse.yaml or $XDG_CONFIG_HOME/duckparse/duckparse.yaml)")
	flags.StringVarP(&a.format, "format", "o", "json", "output format: json or yaml")
	config.RegisterFlags(flags)

	rootCmd.AddCommand(parseCmd(a))
	rootCmd.AddCommand(dimsCmd(a))
	rootCmd.AddCommand(languagesCmd(a))
	rootCmd.AddCommand(ingestCmd(a))
	rootCmd.AddCommand(sourcesCmd(a))
	rootCmd.AddCommand(entriesCmd(a))
	rootCmd.AddCommand(serveCmd(a))
	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	if a.format != "json" && a.format != "yaml" {
		return fmt.Errorf("unknown output format %q (want json or yaml)", a.format)
	}
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.closer = cfg, logger, closer
	if cfg.File != "" {
		logger.Debug("Loaded config", "file", cfg.File)
	}
	return nil
}

// newEngine picks the engine: recorded output first, then the offline time
// engine, then the HTTP server.
func (a *app) newEngine() (engine.Engine, error) {
	switch {
	case a.cfg.Engine.Replay != "":
		r, err := engine.NewReplay(a.cfg.Engine.Replay)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("Using recorded engine output", "dir", a.cfg.Engine.Replay, "recordings", r.Len())
		return r, nil
	case a.cfg.Engine.Offline:
		return engine.NewWhen(), nil
	}
	return engine.NewHTTP(a.cfg.Engine.URL), nil
}

// newParser builds an unloaded parser from the configuration.
func (a *app) newParser() (*duckparse.Parser, error) {
	e, err := a.newEngine()
	if err != nil {
		return nil, err
	}
	return duckparse.New(e,
		duckparse.WithLanguage(a.cfg.Lang),
		duckparse.WithParseDatetime(a.cfg.ParseDatetime),
		duckparse.WithCacheSize(a.cfg.CacheSize),
		duckparse.WithLogger(a.logger),
	), nil
}

func (a *app) loadedParser(ctx context.Context) (*duckparse.Parser, error) {
	p, err := a.newParser()
	if err != nil {
		return nil, err
	}
	if err := p.Load(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
