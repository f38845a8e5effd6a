package chunking

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
)

// Policy names.
const (
	PolicyWords = "words"
	PolicyFixed = "fixed"
)

// BuilderFunc creates a Chunker from generic config.
// Config is a map of policy-specific settings parsed from user config.
type BuilderFunc func(cfg map[string]any) (driven.Chunker, error)

// Registry maps policy names to their builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates a registry with the built-in policies registered.
func NewRegistry() *Registry {
	r := &Registry{builders: make(map[string]BuilderFunc)}
	r.Register(PolicyWords, buildWords)
	r.Register(PolicyFixed, buildFixed)
	return r
}

// Register adds a policy builder, replacing any existing one.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates a chunker by policy name with the given config.
func (r *Registry) Build(name string, cfg map[string]any) (driven.Chunker, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown chunking policy: %s", name)
	}
	return builder(cfg)
}

// Names returns the registered policy names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// buildWords supports:
//   - max_size (int): emit threshold in characters (default: 1000)
func buildWords(cfg map[string]any) (driven.Chunker, error) {
	var opts []WordsOption
	if size := getIntFromConfig(cfg, "max_size"); size > 0 {
		opts = append(opts, WithMaxSize(size))
	}
	return NewWords(opts...), nil
}

// buildFixed supports:
//   - chunk_size (int): slice length in characters (default: 4000)
//   - overlap (int): shared characters between slices (default: 0)
func buildFixed(cfg map[string]any) (driven.Chunker, error) {
	var opts []FixedOption
	if size := getIntFromConfig(cfg, "chunk_size"); size > 0 {
		opts = append(opts, WithChunkSize(size))
	}
	if overlap := getIntFromConfig(cfg, "overlap"); overlap > 0 {
		opts = append(opts, WithOverlap(overlap))
	}
	return NewFixed(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
