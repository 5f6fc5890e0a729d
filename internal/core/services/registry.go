package services

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/hireloop/hireloop/internal/core/domain"
	"github.com/hireloop/hireloop/internal/core/ports"
)

// Registry is the explicit name-to-capability table the orchestrator
// consults on every hop. The stage name set is closed: registration of a
// name outside domain.AgentNames is rejected, and resolving an unknown name
// is an error, never a panic.
type Registry struct {
	mu     sync.RWMutex
	logger *slog.Logger
	stages map[domain.AgentName]ports.Capability
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		stages: make(map[domain.AgentName]ports.Capability),
	}
}

// Register binds a capability under its own name. Re-registering replaces
// the previous implementation, which tests rely on for substituting fakes.
func (r *Registry) Register(c ports.Capability) error {
	name := c.Name()
	if !knownAgent(name) {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCapability, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.stages[name]; exists {
		r.logger.Debug("capability replaced", "name", name)
	}
	r.stages[name] = c
	return nil
}

// Resolve returns the capability registered under name.
func (r *Registry) Resolve(name domain.AgentName) (ports.Capability, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.stages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCapability, name)
	}
	return c, nil
}

// Names lists the registered stage names, sorted for stable output.
func (r *Registry) Names() []domain.AgentName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.AgentName, 0, len(r.stages))
	for name := range r.stages {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func knownAgent(name domain.AgentName) bool {
	for _, n := range domain.AgentNames() {
		if n == name {
			return true
		}
	}
	return false
}
