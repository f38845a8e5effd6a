package processors

import (
	"sync"

	"github.com/custodia-labs/ragdocs/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.ProcessorRegistry = (*Registry)(nil)

// Registry is an ordered list of processors.
// Selection walks the list in registration order.
type Registry struct {
	mu         sync.RWMutex
	processors []driven.Processor
}

// NewRegistry creates a registry holding the given processors in order.
func NewRegistry(processors ...driven.Processor) *Registry {
	r := &Registry{}
	for _, p := range processors {
		r.Register(p)
	}
	return r
}

// Register appends a processor. Nil processors are ignored.
func (r *Registry) Register(p driven.Processor) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors = append(r.processors, p)
}

// Select returns the first processor accepting the location.
func (r *Registry) Select(location, mimeType string) (driven.Processor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.processors {
		if p.CanProcess(location, mimeType) {
			return p, true
		}
	}
	return nil, false
}

// Processors returns a copy of the registered processors in order.
func (r *Registry) Processors() []driven.Processor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]driven.Processor, len(r.processors))
	copy(out, r.processors)
	return out
}
