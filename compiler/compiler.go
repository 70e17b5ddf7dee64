// Package compiler runs the catalog → constraints pipeline: load every
// rule file, normalize every rule, render one output file.
//
// A run either succeeds completely or produces nothing; the first error
// aborts it and no output, manifest or partial file is written.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/exorules/catalog"
	"github.com/c360studio/exorules/config"
	"github.com/c360studio/exorules/emit"
	"github.com/c360studio/exorules/metrics"
	"github.com/c360studio/exorules/rules"
)

// Run modes, used in logs and metrics.
const (
	ModeCompile = "compile"
	ModeCheck   = "check"
	ModeWatch   = "watch"
)

// Config configures a Compiler.
type Config struct {
	Catalog catalog.LoaderConfig

	Target emit.Target

	// Unit carries naming options; its Species field is ignored.
	Unit emit.Unit

	// Output is the generated file path. Empty means the caller handles
	// Result.Output itself.
	Output string

	// Manifest is an optional canonical JSON manifest path.
	Manifest string

	// Metrics, when set, observes every run. MetricsFile, when also set,
	// receives a textfile dump after each run.
	Metrics     *metrics.Recorder
	MetricsFile string

	Logger *slog.Logger
}

// FromConfig builds a compiler Config from loaded configuration.
func FromConfig(cfg *config.Config, logger *slog.Logger) Config {
	return Config{
		Catalog: catalog.LoaderConfig{
			Dir:     cfg.Catalog.Dir,
			Include: cfg.Catalog.Include,
			Exclude: cfg.Catalog.Exclude,
			Workers: cfg.Catalog.Workers,
			Logger:  logger,
		},
		Target: emit.Target(cfg.Emit.Target),
		Unit: emit.Unit{
			Package:       cfg.Emit.Package,
			FuncName:      cfg.Emit.FuncName,
			RuntimeImport: cfg.Emit.RuntimeImport,
			JavaPackage:   cfg.Emit.JavaPackage,
			JavaClass:     cfg.Emit.JavaClass,
		},
		Output:      cfg.Emit.Output,
		Manifest:    cfg.Emit.Manifest,
		MetricsFile: cfg.Metrics.Textfile,
		Logger:      logger,
	}
}

// Stats summarizes a run.
type Stats struct {
	Files    int           `json:"files"`
	Species  int           `json:"species"`
	Rules    int           `json:"rules"`
	Duration time.Duration `json:"-"`
}

// Result is the outcome of a successful run.
type Result struct {
	RunID string
	Mode  string
	Stats Stats

	// Files lists every rule file read, in load order.
	Files []catalog.FileInfo

	// Species is the compiled catalog in key order.
	Species []rules.CompiledSpecies

	// Output is the rendered file; nil in check mode.
	Output     []byte
	OutputHash string

	// Written reports whether Write replaced the output file.
	Written bool
}

// Compiler compiles one catalog directory to one target.
type Compiler struct {
	config  Config
	loader  *catalog.Loader
	emitter emit.Emitter
	logger  *slog.Logger
}

// New creates a compiler.
func New(cfg Config) (*Compiler, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Target == "" {
		cfg.Target = emit.TargetGo
	}
	emitter, err := emit.New(cfg.Target)
	if err != nil {
		return nil, err
	}
	if cfg.Catalog.Logger == nil {
		cfg.Catalog.Logger = logger
	}

	return &Compiler{
		config:  cfg,
		loader:  catalog.NewLoader(cfg.Catalog),
		emitter: emitter,
		logger:  logger,
	}, nil
}

// Loader returns the catalog loader.
func (c *Compiler) Loader() *catalog.Loader {
	return c.loader
}

// Compile loads, normalizes and renders the catalog without touching the
// filesystem beyond reading it.
func (c *Compiler) Compile(ctx context.Context) (*Result, error) {
	return c.run(ctx, ModeCompile, true)
}

// Check loads and normalizes the catalog but renders nothing.
func (c *Compiler) Check(ctx context.Context) (*Result, error) {
	return c.run(ctx, ModeCheck, false)
}

// Build compiles and then writes the output and manifest files. Nothing is
// written on failure.
func (c *Compiler) Build(ctx context.Context) (*Result, error) {
	return c.build(ctx, ModeCompile)
}

func (c *Compiler) build(ctx context.Context, mode string) (*Result, error) {
	start := time.Now()
	res, err := c.compile(ctx, mode, true)
	if err == nil {
		err = c.Write(res)
	}
	c.observe(mode, res, err, start)
	return res, err
}

func (c *Compiler) run(ctx context.Context, mode string, render bool) (*Result, error) {
	start := time.Now()
	res, err := c.compile(ctx, mode, render)
	c.observe(mode, res, err, start)
	return res, err
}

func (c *Compiler) compile(ctx context.Context, mode string, render bool) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Mode: mode}
	logger := c.logger.With("run_id", res.RunID, "mode", mode)

	cat, err := c.loader.Load(ctx)
	if err != nil {
		logger.Error("Catalog load failed", "error", err, "kind", rules.KindName(err))
		return nil, err
	}

	species, err := rules.Compile(cat.Entries())
	if err != nil {
		logger.Error("Rule compilation failed", "error", err, "kind", rules.KindName(err))
		return nil, err
	}

	res.Files = cat.Files
	res.Species = species
	res.Stats = Stats{Files: len(cat.Files), Species: len(species), Rules: cat.RuleCount()}

	if render {
		unit := c.config.Unit
		unit.Species = species
		out, err := c.emitter.Emit(&unit)
		if err != nil {
			logger.Error("Emit failed", "error", err, "target", c.config.Target)
			return nil, fmt.Errorf("emit %s: %w", c.config.Target, err)
		}
		res.Output = out
		res.OutputHash = catalog.ComputeHash(out)
	}

	res.Stats.Duration = time.Since(start)
	logger.Info("Catalog compiled",
		"files", res.Stats.Files,
		"species", res.Stats.Species,
		"rules", res.Stats.Rules,
		"target", c.config.Target,
		"duration", res.Stats.Duration)
	return res, nil
}

// Write stores a rendered result in the configured output file, rewriting
// it only when the content hash differs, then writes the manifest.
func (c *Compiler) Write(res *Result) error {
	if res == nil || res.Output == nil {
		return errors.New("nothing to write")
	}
	if c.config.Output != "" {
		written, err := writeIfChanged(c.config.Output, res.Output, res.OutputHash)
		if err != nil {
			return err
		}
		res.Written = written
		if written {
			c.logger.Info("Output written", "run_id", res.RunID, "path", c.config.Output, "hash", res.OutputHash)
		} else {
			c.logger.Debug("Output unchanged", "run_id", res.RunID, "path", c.config.Output)
		}
	}
	if c.config.Manifest != "" {
		data, err := NewManifest(c.config.Target, c.config.Output, res).Marshal()
		if err != nil {
			return err
		}
		if _, err := writeIfChanged(c.config.Manifest, data, catalog.ComputeHash(data)); err != nil {
			return fmt.Errorf("write manifest: %w", err)
		}
	}
	return nil
}

func (c *Compiler) observe(mode string, res *Result, err error, start time.Time) {
	if c.config.Metrics == nil {
		return
	}
	run := metrics.Run{Mode: mode, Result: "ok", Duration: time.Since(start), At: time.Now()}
	if err != nil {
		run.Result = rules.KindName(err)
	} else if res != nil {
		run.Species = res.Stats.Species
		run.Rules = res.Stats.Rules
		run.Files = res.Stats.Files
		run.Written = res.Written
	}
	c.config.Metrics.Observe(run)

	if c.config.MetricsFile != "" {
		if werr := c.config.Metrics.WriteTextfile(c.config.MetricsFile); werr != nil {
			c.logger.Warn("Failed to write metrics", "path", c.config.MetricsFile, "error", werr)
		}
	}
}

// writeIfChanged replaces path with data via a temp file and rename, unless
// the current content already has the same hash.
func writeIfChanged(path string, data []byte, hash string) (bool, error) {
	if existing, err := os.ReadFile(path); err == nil {
		if catalog.ComputeHash(existing) == hash && bytes.Equal(existing, data) {
			return false, nil
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return false, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return false, fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("replace %s: %w", path, err)
	}
	return true, nil
}
