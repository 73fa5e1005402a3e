package relay

import (
	"context"
	"fmt"
	"sync"
)

// EndpointPersister flushes the endpoint list after every committed
// mutation. The redis store implements it.
type EndpointPersister interface {
	SaveEndpoints(ctx context.Context, endpoints []string, active string) error
}

// Endpoints is the process-wide relay endpoint registry: an ordered list
// plus one designated active endpoint. Mutated only through Add, Remove
// and SetActive; every committed mutation is written through to the
// persister.
type Endpoints struct {
	mu        sync.RWMutex
	list      []string
	active    string
	persister EndpointPersister
}

// NewEndpoints creates a registry hydrated with the given state.
func NewEndpoints(list []string, active string, persister EndpointPersister) *Endpoints {
	e := &Endpoints{
		list:      append([]string(nil), list...),
		persister: persister,
	}
	if active != "" && e.has(active) {
		e.active = active
	} else if len(e.list) > 0 {
		e.active = e.list[0]
	}
	return e
}

// List returns a copy of the endpoint list.
func (e *Endpoints) List() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]string(nil), e.list...)
}

// Active returns the designated active endpoint, "" if none configured.
func (e *Endpoints) Active() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// Add appends an endpoint. Adding an already-present endpoint is a no-op.
// The first endpoint ever added becomes active.
func (e *Endpoints) Add(ctx context.Context, endpoint string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.has(endpoint) {
		return nil
	}
	e.list = append(e.list, endpoint)
	if e.active == "" {
		e.active = endpoint
	}
	return e.flush(ctx)
}

// Remove deletes an endpoint. Removing the active endpoint promotes the
// first remaining one. Removing an unknown endpoint is a no-op.
func (e *Endpoints) Remove(ctx context.Context, endpoint string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, ep := range e.list {
		if ep == endpoint {
			e.list = append(e.list[:i], e.list[i+1:]...)
			if e.active == endpoint {
				e.active = ""
				if len(e.list) > 0 {
					e.active = e.list[0]
				}
			}
			return e.flush(ctx)
		}
	}
	return nil
}

// SetActive designates an already-listed endpoint as active.
func (e *Endpoints) SetActive(ctx context.Context, endpoint string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.has(endpoint) {
		return fmt.Errorf("endpoint not configured: %s", endpoint)
	}
	if e.active == endpoint {
		return nil
	}
	e.active = endpoint
	return e.flush(ctx)
}

func (e *Endpoints) has(endpoint string) bool {
	for _, ep := range e.list {
		if ep == endpoint {
			return true
		}
	}
	return false
}

// flush writes through to the persister. Caller holds the write lock.
func (e *Endpoints) flush(ctx context.Context) error {
	if e.persister == nil {
		return nil
	}
	if err := e.persister.SaveEndpoints(ctx, e.list, e.active); err != nil {
		return fmt.Errorf("failed to persist endpoints: %w", err)
	}
	return nil
}
