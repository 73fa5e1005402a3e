package cache

import (
	"context"
	"sync"

	"github.com/nodetec/notestack-sub002/internal/logger"
)

// FetchFunc resolves a batch of keys in one remote query. Keys absent
// from the result map get the coalescer's default value.
type FetchFunc[V any] func(ctx context.Context, keys []string) (map[string]V, error)

// flushState is the explicit state of the coalescing loop. Keeping it as
// a small state machine rather than nested timer callbacks is what makes
// the race rules auditable.
type flushState int

const (
	stateIdle flushState = iota
	stateQueued
	stateFlushing
)

// Coalescer batches many near-simultaneous lookups into few remote
// queries. Entries live until explicitly invalidated; there is no timer
// expiry. At most one batch request is in flight at a time: keys that
// arrive during a flight are folded into the next round. Keys whose
// fetch fails get the default value so no caller is ever stuck loading.
type Coalescer[V any] struct {
	mu     sync.Mutex
	fetch  FetchFunc[V]
	def    V
	logger logger.Logger
	name   string

	cache   map[string]V
	loading map[string]bool
	queued  map[string]bool
	state   flushState

	subscribers []func()
}

// NewCoalescer creates a coalescing cache. name appears in logs; def is
// the value used for missing or failed keys.
func NewCoalescer[V any](name string, fetch FetchFunc[V], def V, log logger.Logger) *Coalescer[V] {
	return &Coalescer[V]{
		fetch:   fetch,
		def:     def,
		logger:  log,
		name:    name,
		cache:   make(map[string]V),
		loading: make(map[string]bool),
		queued:  make(map[string]bool),
	}
}

// Get returns the cached value for key. ok is false while the key is
// still pending; requesting an unknown key enqueues it for the next
// batch.
func (c *Coalescer[V]) Get(key string) (V, bool) {
	c.mu.Lock()

	if v, ok := c.cache[key]; ok {
		c.mu.Unlock()
		return v, true
	}

	if c.loading[key] {
		c.mu.Unlock()
		return c.def, false
	}

	c.loading[key] = true
	c.queued[key] = true

	start := c.state == stateIdle
	if start {
		c.state = stateQueued
	}
	c.mu.Unlock()

	if start {
		// Zero-delay flush: runs as soon as the current call stack
		// unwinds, draining everything queued by then.
		go c.flush()
	}

	return c.def, false
}

// IsLoading reports whether key is queued or in the current batch.
func (c *Coalescer[V]) IsLoading(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading[key]
}

// Invalidate drops the cached value so the next Get refetches it.
func (c *Coalescer[V]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, key)
}

// Subscribe registers fn to run after every flush, regardless of
// per-key outcome. Subscribers typically re-read the keys they care
// about.
func (c *Coalescer[V]) Subscribe(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

func (c *Coalescer[V]) flush() {
	c.mu.Lock()
	c.state = stateFlushing
	keys := make([]string, 0, len(c.queued))
	for k := range c.queued {
		keys = append(keys, k)
	}
	c.queued = make(map[string]bool)
	c.mu.Unlock()

	result, err := c.fetch(context.Background(), keys)

	c.mu.Lock()
	if err != nil {
		c.logger.Warn("batched fetch failed, falling back to defaults",
			logger.String("cache", c.name),
			logger.Int("keys", len(keys)),
			logger.Error(err))
		for _, k := range keys {
			if _, ok := c.cache[k]; !ok {
				c.cache[k] = c.def
			}
		}
	} else {
		for _, k := range keys {
			if v, ok := result[k]; ok {
				c.cache[k] = v
			} else {
				c.cache[k] = c.def
			}
		}
	}
	for _, k := range keys {
		delete(c.loading, k)
	}

	// Keys that arrived mid-flight start the next round; otherwise the
	// loop goes idle.
	again := len(c.queued) > 0
	if again {
		c.state = stateQueued
	} else {
		c.state = stateIdle
	}
	subs := append([]func(){}, c.subscribers...)
	c.mu.Unlock()

	for _, fn := range subs {
		fn()
	}

	if again {
		c.flush()
	}
}
