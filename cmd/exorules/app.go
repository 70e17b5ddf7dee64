package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/c360studio/exorules/compiler"
	"github.com/c360studio/exorules/config"
	"github.com/c360studio/exorules/metrics"
)

// options are the command-line overrides shared by every subcommand.
type options struct {
	configPath  string
	dir         string
	out         string
	target      string
	manifest    string
	metricsFile string
	logLevel    string
}

// App wires configuration, logging and metrics around a compiler.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	recorder *metrics.Recorder
	compiler *compiler.Compiler
	stdout   io.Writer
}

func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewApp loads layered configuration, applies flag overrides and builds the
// compiler.
func NewApp(opts *options, stdout, stderr io.Writer) (*App, error) {
	logger := newLogger(stderr, opts.logLevel)

	cfg, err := config.NewLoader(logger).Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, opts)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	cc := compiler.FromConfig(cfg, logger)
	cc.Metrics = recorder

	c, err := compiler.New(cc)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		compiler: c,
		stdout:   stdout,
	}, nil
}

func applyOverrides(cfg *config.Config, opts *options) {
	if opts.dir != "" {
		cfg.Catalog.Dir = opts.dir
	}
	if opts.out != "" {
		cfg.Emit.Output = opts.out
	}
	if opts.target != "" {
		cfg.Emit.Target = opts.target
	}
	if opts.manifest != "" {
		cfg.Emit.Manifest = opts.manifest
	}
	if opts.metricsFile != "" {
		cfg.Metrics.Textfile = opts.metricsFile
	}
}

// Compile renders the catalog. Without an output path the generated source
// goes to stdout.
func (a *App) Compile(ctx context.Context) error {
	if a.cfg.Emit.Output == "" {
		res, err := a.compiler.Compile(ctx)
		if err != nil {
			return err
		}
		if _, err := a.stdout.Write(res.Output); err != nil {
			return err
		}
		if a.cfg.Emit.Manifest != "" {
			return a.compiler.Write(res)
		}
		return nil
	}

	res, err := a.compiler.Build(ctx)
	if err != nil {
		return err
	}
	state := "unchanged"
	if res.Written {
		state = "written"
	}
	fmt.Fprintf(a.stdout, "%s %s (%s)\n", a.cfg.Emit.Output, state, summary(res))
	return nil
}

// Check validates the catalog without rendering anything.
func (a *App) Check(ctx context.Context) error {
	res, err := a.compiler.Check(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "ok: %s\n", summary(res))
	return nil
}

// Watch rebuilds on every catalog change until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	if a.cfg.Emit.Output == "" {
		return fmt.Errorf("watch needs an output path (--out or emit.output)")
	}
	w, err := a.compiler.NewWatcher(a.cfg.Watch.Debounce)
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range w.Events() {
			if ev.Error != nil {
				fmt.Fprintf(a.stdout, "error: %v\n", ev.Error)
				continue
			}
			fmt.Fprintf(a.stdout, "rebuilt %s (%s)\n", a.cfg.Emit.Output, summary(ev.Result))
		}
	}()

	err = w.Run(ctx)
	<-done
	return err
}

func summary(res *compiler.Result) string {
	return fmt.Sprintf("%d species, %d rules in %d files",
		res.Stats.Species, res.Stats.Rules, res.Stats.Files)
}
