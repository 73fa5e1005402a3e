package collections

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/index"
	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/relay"
)

// Persister is the durable side of the collection set.
type Persister interface {
	SaveCollection(ctx context.Context, c *domain.Collection) error
}

// Store applies collection mutations optimistically: the in-memory state
// changes immediately, the full collection record is published
// asynchronously, and a publish that reaches no endpoint rolls the
// mutation back exactly. An in-flight marker per collection serializes
// concurrent toggles on the same collection; toggles on different
// collections are independent.
type Store struct {
	author    string
	stackKind int

	persister  Persister
	index      *index.MemoryIndex
	endpoints  *relay.Endpoints
	signer     relay.Signer
	aggregator *relay.Aggregator
	logger     logger.Logger

	mu       sync.Mutex
	inFlight map[string]bool

	now func() time.Time
}

// Options collects the store's collaborators.
type Options struct {
	Author     string
	StackKind  int
	Persister  Persister
	Index      *index.MemoryIndex
	Endpoints  *relay.Endpoints
	Signer     relay.Signer
	Aggregator *relay.Aggregator
	Logger     logger.Logger
}

// NewStore creates an optimistic collection store.
func NewStore(opts Options) *Store {
	return &Store{
		author:     opts.Author,
		stackKind:  opts.StackKind,
		persister:  opts.Persister,
		index:      opts.Index,
		endpoints:  opts.Endpoints,
		signer:     opts.Signer,
		aggregator: opts.Aggregator,
		logger:     opts.Logger,
		inFlight:   make(map[string]bool),
		now:        time.Now,
	}
}

// IsSaving reports whether a publish for the collection is outstanding.
func (s *Store) IsSaving(collectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight[collectionID]
}

// ToggleMembership adds or removes the item so the collection matches
// shouldContain. Unknown collections and already-satisfied states are
// no-ops. While a publish for the same collection is outstanding the
// call is a no-op that leaves the earlier optimistic state intact.
func (s *Store) ToggleMembership(ctx context.Context, collectionID string, item domain.ItemRef, shouldContain bool) error {
	s.mu.Lock()
	if s.inFlight[collectionID] {
		s.mu.Unlock()
		return nil
	}

	c, ok := s.index.GetCollection(collectionID)
	if !ok {
		s.mu.Unlock()
		return nil
	}

	// Apply the optimistic mutation, remembering position so a rollback
	// restores the list exactly.
	var removedAt int
	var changed bool
	if shouldContain {
		changed = c.Add(item)
	} else {
		removedAt, changed = removeAt(c, item)
	}
	if !changed {
		s.mu.Unlock()
		return nil
	}

	s.index.PutCollection(c)
	s.inFlight[collectionID] = true
	s.mu.Unlock()

	if err := s.persister.SaveCollection(ctx, c); err != nil {
		s.logger.Warn("failed to persist optimistic collection state",
			logger.String("collection_id", collectionID),
			logger.Error(err))
	}

	go s.settle(collectionID, item, shouldContain, removedAt)
	return nil
}

// settle publishes the updated collection and rolls the mutation back if
// the publish reached no endpoint. The in-flight marker clears either way.
func (s *Store) settle(collectionID string, item domain.ItemRef, added bool, removedAt int) {
	ctx := context.Background()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, collectionID)
		s.mu.Unlock()
	}()

	c, ok := s.index.GetCollection(collectionID)
	if !ok {
		return
	}

	if s.publishCollection(ctx, c) {
		return
	}

	// Inverse of the applied mutation, not a re-fetch.
	s.mu.Lock()
	c, ok = s.index.GetCollection(collectionID)
	if !ok {
		s.mu.Unlock()
		return
	}
	if added {
		c.Remove(item)
	} else {
		insertAt(c, item, removedAt)
	}
	s.index.PutCollection(c)
	s.mu.Unlock()

	if err := s.persister.SaveCollection(ctx, c); err != nil {
		s.logger.Warn("failed to persist rollback",
			logger.String("collection_id", collectionID),
			logger.Error(err))
	}

	s.logger.Warn("collection publish failed, mutation rolled back",
		logger.String("collection_id", collectionID),
		logger.String("item", item.Key()),
		logger.Bool("was_add", added))
}

// Create publishes a brand-new collection and commits it locally only on
// success. Asymmetric from toggles: with no prior local state to
// protect there is no rollback target, so failure leaves the collection
// un-created.
func (s *Store) Create(ctx context.Context, title string) (*domain.Collection, error) {
	c := &domain.Collection{
		Author:        s.author,
		Discriminator: uuid.NewString(),
		Title:         title,
	}

	if !s.publishCollection(ctx, c) {
		return nil, relay.ErrAllEndpointsFailed
	}

	s.index.PutCollection(c)
	if err := s.persister.SaveCollection(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a snapshot of one collection.
func (s *Store) Get(collectionID string) (*domain.Collection, bool) {
	return s.index.GetCollection(collectionID)
}

// Snapshot returns snapshots of all collections.
func (s *Store) Snapshot() []*domain.Collection {
	return s.index.GetAllCollections()
}

func (s *Store) publishCollection(ctx context.Context, c *domain.Collection) bool {
	rec, err := s.signer.Sign(ctx, c.ToTemplate(s.stackKind, s.now().Unix()))
	if err != nil {
		s.logger.Error("collection signing failed",
			logger.String("collection_id", c.ID()),
			logger.Error(err))
		return false
	}

	outcomes := s.aggregator.Publish(ctx, rec, s.endpoints.List())
	return relay.Published(outcomes)
}

// removeAt removes the item and reports its former position.
func removeAt(c *domain.Collection, item domain.ItemRef) (int, bool) {
	for i, it := range c.Items {
		if it.Key() == item.Key() {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return i, true
		}
	}
	return 0, false
}

// insertAt restores the item at its former position, clamped to the
// current length.
func insertAt(c *domain.Collection, item domain.ItemRef, pos int) {
	if c.Contains(item) {
		return
	}
	if pos > len(c.Items) {
		pos = len(c.Items)
	}
	c.Items = append(c.Items, domain.ItemRef{})
	copy(c.Items[pos+1:], c.Items[pos:])
	c.Items[pos] = item
}
