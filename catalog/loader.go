package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"runtime"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/c360studio/exorules/rules"
)

// DefaultInclude matches rule files directly inside the catalog directory.
var DefaultInclude = []string{"*.py", "*.yaml", "*.yml", "*.json"}

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	// Dir is the catalog directory.
	Dir string

	// Include and Exclude are doublestar patterns relative to Dir.
	// Empty Include means DefaultInclude.
	Include []string
	Exclude []string

	// Workers bounds parallel extraction (default: GOMAXPROCS).
	Workers int

	// Registry resolves parsers by extension (default: DefaultRegistry).
	Registry *ParserRegistry

	Logger *slog.Logger
}

// Loader reads a catalog directory.
type Loader struct {
	config   LoaderConfig
	fsys     fs.FS
	registry *ParserRegistry
	logger   *slog.Logger
}

// NewLoader creates a loader for the configured directory.
func NewLoader(config LoaderConfig) *Loader {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry := config.Registry
	if registry == nil {
		registry = DefaultRegistry
	}
	if len(config.Include) == 0 {
		config.Include = DefaultInclude
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{
		config:   config,
		fsys:     os.DirFS(config.Dir),
		registry: registry,
		logger:   logger,
	}
}

// Discover returns the slash-separated paths, relative to Dir, of every file
// the loader would read, sorted lexicographically.
func (l *Loader) Discover() ([]string, error) {
	info, err := os.Stat(l.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("stat catalog dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", l.config.Dir)
	}

	seen := make(map[string]bool)
	var files []string
	for _, pattern := range l.config.Include {
		matches, err := doublestar.Glob(l.fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || l.excluded(m) {
				continue
			}
			if _, ok := l.registry.GetParserName(path.Ext(m)); !ok {
				l.logger.Debug("No parser for catalog file", "path", m)
				continue
			}
			seen[m] = true
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Matches reports whether a path relative to Dir is a catalog file.
func (l *Loader) Matches(rel string) bool {
	if l.excluded(rel) {
		return false
	}
	if _, ok := l.registry.GetParserName(path.Ext(rel)); !ok {
		return false
	}
	for _, pattern := range l.config.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func (l *Loader) excluded(rel string) bool {
	for _, pattern := range l.config.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

type fileResult struct {
	info FileInfo
	defs []Definition
	err  error
}

// Load extracts every catalog file and accumulates the result.
//
// Files are extracted in parallel but merged in sorted path order, so the
// catalog, and the first error reported, do not depend on scheduling.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	files, err := l.Discover()
	if err != nil {
		return nil, err
	}

	results := make([]fileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.config.Workers)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = l.loadFile(gctx, rel)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cat := New()
	for _, res := range results {
		if res.err != nil {
			return nil, res.err
		}
		for _, key := range cat.add(res.defs) {
			l.logger.Warn("Species value differs between files, keeping first",
				"species", key.String(),
				"file", res.info.Path)
		}
		cat.Files = append(cat.Files, res.info)
	}

	l.logger.Debug("Catalog loaded",
		"dir", l.config.Dir,
		"files", len(cat.Files),
		"species", cat.Len(),
		"rules", cat.RuleCount())
	return cat, nil
}

func (l *Loader) loadFile(ctx context.Context, rel string) fileResult {
	res := fileResult{info: FileInfo{Path: rel}}

	content, err := fs.ReadFile(l.fsys, rel)
	if err != nil {
		res.err = fmt.Errorf("read %s: %w", rel, err)
		return res
	}
	res.info.Hash = ComputeHash(content)

	ext := path.Ext(rel)
	res.info.Parser, _ = l.registry.GetParserName(ext)
	parser, err := l.registry.CreateParserForExtension(ext)
	if err != nil {
		res.err = err
		return res
	}

	value, found, err := parser.Extract(ctx, rel, content)
	if err != nil {
		var ce *rules.Error
		if errors.As(err, &ce) {
			if ce.File == "" {
				ce.File = rel
			}
			res.err = ce
		} else {
			res.err = fmt.Errorf("extract %s: %w", rel, err)
		}
		return res
	}
	if !found {
		l.logger.Debug("No catalog declared", "path", rel)
		return res
	}

	defs, err := ParseDefinitions(rel, value)
	if err != nil {
		res.err = err
		return res
	}
	res.defs = defs
	res.info.Species = len(defs)
	for _, d := range defs {
		res.info.Rules += len(d.Rulesets)
	}
	return res
}
