package soundboard

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Stopper is a controller the registry can halt.
type Stopper interface {
	ID() string
	Stop() error
}

// Registry tracks live controllers so playback can be stopped everywhere at once.
// It holds no controller state of its own.
type Registry struct {
	mu      sync.Mutex
	entries []Stopper
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Add registers a controller. Adding the same controller twice is a no-op.
func (r *Registry) Add(s Stopper) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.ID() == s.ID() {
			return
		}
	}
	r.entries = append(r.entries, s)
}

// Remove unregisters a controller by ID.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.ID() == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered controllers.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// StopAll stops every registered controller. A failing controller does not
// prevent the others from being stopped; all failures are returned joined.
func (r *Registry) StopAll() error {
	r.mu.Lock()
	entries := append([]Stopper(nil), r.entries...)
	r.mu.Unlock()

	var errs []error
	for _, e := range entries {
		if err := e.Stop(); err != nil {
			r.logger.Warn("failed to stop controller", "controller", e.ID(), "error", err)
			errs = append(errs, fmt.Errorf("controller %s: %w", e.ID(), err))
		}
	}
	return errors.Join(errs...)
}
