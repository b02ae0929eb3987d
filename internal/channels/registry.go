// Package channels provides the driver framework.
package channels

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

type registration struct {
	name     string
	chanType ChannelType
	factory  Factory
	matched  atomic.Int64
}

// Registry manages all driver factories.
// Several drivers may share one HTTP endpoint; each inspects the same request and the
// first one (in registration order) that claims it handles the cycle.
type Registry struct {
	mu      sync.RWMutex
	entries []*registration
	logger  *zerolog.Logger
}

// NewRegistry creates a new driver registry.
func NewRegistry(logger *zerolog.Logger) *Registry {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Registry{logger: logger}
}

// Register adds a driver factory to the registry.
func (r *Registry) Register(factory Factory) error {
	if factory == nil {
		return fmt.Errorf("driver factory is nil")
	}
	probe := factory()
	name := probe.Name()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.name == name {
			return fmt.Errorf("driver %q already registered", name)
		}
	}

	r.entries = append(r.entries, &registration{
		name:     name,
		chanType: probe.Type(),
		factory:  factory,
	})
	r.logger.Info().
		Str("driver", name).
		Str("type", string(probe.Type())).
		Msg("Channel driver registered")

	return nil
}

// Unregister removes a driver by name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.name == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			r.logger.Info().Str("driver", name).Msg("Channel driver unregistered")
			return nil
		}
	}
	return fmt.Errorf("driver %q not found", name)
}

// Resolve loads req into a fresh instance of every driver in turn and returns the first
// one that matches. It returns ErrNoDriver when every driver declines.
func (r *Registry) Resolve(req *Request) (Driver, error) {
	r.mu.RLock()
	entries := make([]*registration, len(r.entries))
	copy(entries, r.entries)
	r.mu.RUnlock()

	for _, e := range entries {
		driver := e.factory()
		driver.Load(req)
		if driver.MatchesRequest() {
			e.matched.Add(1)
			r.logger.Debug().Str("driver", e.name).Msg("Request matched")
			return driver, nil
		}
	}
	return nil, ErrNoDriver
}

// Names returns registered driver names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.name)
	}
	return names
}

// Status returns the status of all drivers.
func (r *Registry) Status() []DriverStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	statuses := make([]DriverStatus, 0, len(r.entries))
	for _, e := range r.entries {
		statuses = append(statuses, DriverStatus{
			Name:       e.name,
			Type:       e.chanType,
			Configured: e.factory().IsConfigured(),
			Matched:    e.matched.Load(),
		})
	}
	return statuses
}
