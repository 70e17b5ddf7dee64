package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/c360studio/exorules/literal"
)

// SourceParser statically extracts the top-level catalog binding from one
// rule-definition file. It must never evaluate the file.
//
// found is false when the file declares no catalog; that is not an error.
type SourceParser interface {
	Extract(ctx context.Context, path string, content []byte) (value literal.Value, found bool, err error)
}

// ParserFactory creates a SourceParser. Parsers may hold per-instance state
// (tree-sitter parsers are not safe for concurrent use), so each worker
// gets its own.
type ParserFactory func() SourceParser

// ParserRegistry maps file extensions to source parsers.
// Thread-safe for concurrent access.
type ParserRegistry struct {
	mu      sync.RWMutex
	parsers map[string]ParserFactory // name → factory
	extMap  map[string]string        // extension → parser name
}

// NewParserRegistry creates a new empty parser registry.
func NewParserRegistry() *ParserRegistry {
	return &ParserRegistry{
		parsers: make(map[string]ParserFactory),
		extMap:  make(map[string]string),
	}
}

// Register adds a parser factory for the given extensions.
// The first registration wins if there's an extension conflict.
// Extensions should include the leading dot (e.g., ".py", ".yaml").
func (r *ParserRegistry) Register(name string, extensions []string, factory ParserFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parsers[name] = factory
	for _, ext := range extensions {
		if _, exists := r.extMap[ext]; !exists {
			r.extMap[ext] = name
		}
	}
}

// GetParserName returns the parser name registered for a file extension.
func (r *ParserRegistry) GetParserName(ext string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.extMap[ext]
	return name, ok
}

// CreateParserForExtension creates a parser for the given file extension.
func (r *ParserRegistry) CreateParserForExtension(ext string) (SourceParser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.extMap[ext]
	if !ok {
		return nil, fmt.Errorf("no parser registered for extension: %s", ext)
	}
	return r.parsers[name](), nil
}

// ListExtensions returns all registered file extensions, sorted.
func (r *ParserRegistry) ListExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	extensions := make([]string, 0, len(r.extMap))
	for ext := range r.extMap {
		extensions = append(extensions, ext)
	}
	sort.Strings(extensions)
	return extensions
}

// DefaultRegistry is the global parser registry.
// Source parsers register themselves via init() functions.
var DefaultRegistry = NewParserRegistry()
