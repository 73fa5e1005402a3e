package scheduler

import (
	"context"

	"github.com/nodetec/notestack-sub002/internal/index"
	"github.com/nodetec/notestack-sub002/internal/logger"
	redisstore "github.com/nodetec/notestack-sub002/internal/store/redis"
)

// Hydrator loads drafts and collections from Redis into the memory index
// on startup.
type Hydrator struct {
	store  *redisstore.Store
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewHydrator creates a new hydrator
func NewHydrator(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
) *Hydrator {
	return &Hydrator{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Hydrate loads drafts and collections from Redis and updates the memory
// index
func (h *Hydrator) Hydrate(ctx context.Context) error {
	h.logger.Info("hydrating memory index from redis")

	drafts, err := h.store.GetAllDrafts(ctx)
	if err != nil {
		return err
	}
	h.index.HydrateDrafts(drafts)

	collections, err := h.store.GetAllCollections(ctx)
	if err != nil {
		return err
	}
	h.index.HydrateCollections(collections)

	h.logger.Info("memory index hydrated",
		logger.Int("drafts", len(drafts)),
		logger.Int("collections", len(collections)))

	return nil
}
