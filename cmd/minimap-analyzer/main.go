package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	minimapanalyzer "github.com/menta2k/minimap-analyzer"
	"github.com/menta2k/minimap-analyzer/internal/config"
	"github.com/menta2k/minimap-analyzer/internal/logging"
	"github.com/menta2k/minimap-analyzer/pkg/types"
)

type app struct {
	configPath string
	logLevel   string
	noColor    bool
	backend    string
	url        string
	model      string

	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "minimap-analyzer:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "minimap-analyzer",
		Short:         "Read player positions off tactical-shooter minimaps with a vision model",
		Version:       minimapanalyzer.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default "+config.GetConfigPath()+" if present)")
	pf.StringVar(&a.logLevel, "log-level", "", "debug|info|warn|error")
	pf.BoolVar(&a.noColor, "no-color", false, "disable coloured log output")
	pf.StringVar(&a.backend, "backend", "", "vision backend: ollama or llamacpp")
	pf.StringVar(&a.url, "url", "", "backend URL (defaults: ollama=http://localhost:11434, llamacpp=http://localhost:8080)")
	pf.StringVar(&a.model, "model", "", "model name")

	root.AddCommand(newAnalyzeCmd(a), newProbeCmd(a), newConfigCmd(a))
	return root
}

// setup loads the config file, applies flag overrides and builds the logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg := config.Default()
	path := a.configPath
	if path == "" {
		if _, err := os.Stat(config.GetConfigPath()); err == nil {
			path = config.GetConfigPath()
		}
	}
	if path != "" && cmd.Name() != "init" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Provider.Backend = a.backend
	}
	if flags.Changed("url") {
		cfg.Provider.URL = a.url
	}
	if flags.Changed("model") {
		cfg.Provider.Model = a.model
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("no-color") {
		cfg.Log.NoColor = a.noColor
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	a.logger = logging.New(os.Stderr, level, cfg.Log.NoColor)
	a.cfg = cfg
	return nil
}

// newAnalyzer builds the client and analyzer from the effective config
func (a *app) newAnalyzer() (*minimapanalyzer.Analyzer, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	vc, err := minimapanalyzer.NewClient(a.cfg.Provider.Backend, a.cfg.Provider.URL)
	if err != nil {
		return nil, err
	}
	return minimapanalyzer.New(vc, a.cfg.Provider.Model,
		minimapanalyzer.WithSendOptions(types.SendOptions{
			Format:  a.cfg.Send.Format,
			MaxSize: a.cfg.Send.MaxSize,
			Quality: a.cfg.Send.Quality,
		}),
		minimapanalyzer.WithTolerance(a.cfg.Normalize.Tolerance),
		minimapanalyzer.WithLogger(a.logger),
	), nil
}

var errFailed = errors.New("one or more screenshots failed")
