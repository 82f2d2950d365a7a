// Package commands implements the reportflow command line.
package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/alecthomas/kong"
	"github.com/lguimbarda/reportflow/flow/core"
	"github.com/lguimbarda/reportflow/flow/link"
	"github.com/lguimbarda/reportflow/flow/observe"
	"github.com/lguimbarda/reportflow/history"
	"github.com/lguimbarda/reportflow/internal/config"
	"github.com/lguimbarda/reportflow/internal/logging"
	"github.com/lguimbarda/reportflow/report"
	"github.com/lguimbarda/reportflow/report/stages"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
)

// Global is shared by every command.
type Global struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" type:"path"`
	Verbose bool             `short:"v" help:"Enable debug logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run     RunCmd     `cmd:"" help:"Submit inputs in order and print the final report"`
	Watch   WatchCmd   `cmd:"" help:"Report on a file every time it changes"`
	Serve   ServeCmd   `cmd:"" help:"Serve the pipeline over HTTP"`
	History HistoryCmd `cmd:"" help:"List recent runs"`
}

// Setup loads the configuration and builds the logger. Command output goes
// to out, logs to logs.
func Setup(cli *CLI, out, logs io.Writer) (*Global, error) {
	cfg, err := config.Load(cli.Config)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cli.Verbose {
		cfg.Log.Level = "debug"
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, logs)
	slog.SetDefault(logger)
	return &Global{Config: cfg, Logger: logger, Out: out}, nil
}

// app is a pipeline built from the configuration, with the resources
// it owns.
type app struct {
	pipeline *report.Pipeline
	registry *prometheus.Registry
	store    *history.Store
	writes   *core.Serial
}

func newApp(g *Global) (*app, error) {
	cfg := g.Config
	a := &app{registry: prometheus.NewRegistry()}

	promHooks, err := observe.NewPrometheus(a.registry)
	if err != nil {
		return nil, err
	}
	otelHooks, err := observe.NewOtel(otel.Meter("github.com/lguimbarda/reportflow"))
	if err != nil {
		return nil, err
	}

	opts := []report.Option{
		report.WithLogger(logging.WithComponent(g.Logger, "pipeline")),
		report.WithWorkers(cfg.Pipeline.Workers),
		report.WithHooks(link.Chain(
			observe.Logging(logging.WithComponent(g.Logger, "link")),
			promHooks.Hooks(),
			otelHooks.Hooks(),
		)),
	}
	if cfg.Pipeline.CancelSuperseded {
		opts = append(opts, report.WithCancelSuperseded())
	}

	if cfg.History.Path != "" {
		a.store, err = history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.writes = core.NewSerial()
		opts = append(opts, report.WithCompletion(history.Recorder(a.store, a.writes, g.Logger)))
	}

	loader := stages.NewLoader()
	loader.Timeout = cfg.Loader.Timeout.Duration()
	loader.MaxBytes = cfg.Loader.MaxBytes
	loader.UserAgent = cfg.Loader.UserAgent

	a.pipeline = report.New(stages.Default(loader), opts...)
	return a, nil
}

// Close waits for pending work and releases what the app owns.
func (a *app) Close() error {
	a.pipeline.Wait()
	a.pipeline.Close()
	if a.writes != nil {
		a.writes.Close()
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
