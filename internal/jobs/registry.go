package jobs

import (
	"fmt"
	"sync"
)

// Registry maps stable job-type names to handlers. All registrations happen
// during startup wiring; resolution failures afterwards indicate a
// programming error or a stale dead-letter record.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds a handler to a job type. Re-registering a type replaces
// the previous handler.
func (r *Registry) Register(jobType string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[jobType] = handler
}

// Resolve returns the handler for a job type.
func (r *Registry) Resolve(jobType string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[jobType]
	if !ok {
		return nil, fmt.Errorf("no handler registered for job type %q", jobType)
	}
	return handler, nil
}
