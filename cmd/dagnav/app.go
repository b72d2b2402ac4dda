package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/chazu/dagnav/internal/config"
	"github.com/chazu/dagnav/internal/logging"
	"github.com/chazu/dagnav/pkg/dagmc"
)

// app is the state shared by every subcommand once flags are parsed.
type app struct {
	configPath  string
	logLevel    string
	metricsFile string

	cfg      *config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.NewLoader(nil).Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Metrics.File = a.metricsFile
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.NewWriter(cmd.ErrOrStderr(), level, cfg.Log.Format)
	a.registry = prometheus.NewRegistry()
	return nil
}

func (a *app) modelOptions() []dagmc.Option {
	return []dagmc.Option{
		dagmc.WithLogger(a.logger),
		dagmc.WithMetrics(a.registry),
		dagmc.WithSuggestions(a.cfg.Materials.Suggestions, a.cfg.Materials.Cutoff),
	}
}

func (a *app) open(path string) (*dagmc.Model, error) {
	return dagmc.Open(path, a.modelOptions()...)
}

func (a *app) newModel() (*dagmc.Model, error) {
	return dagmc.New(a.modelOptions()...)
}

// save writes m to out, or back to in when out is empty.
func (a *app) save(m *dagmc.Model, in, out string) error {
	if out == "" {
		out = in
	}
	if err := m.WriteFile(out); err != nil {
		return err
	}
	a.logger.Info("saved model", "path", out)
	return nil
}

func (a *app) flushMetrics() error {
	if a.cfg == nil || a.cfg.Metrics.File == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.Metrics.File, a.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
