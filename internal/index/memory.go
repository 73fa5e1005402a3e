package index

import (
	"sync"
	"time"

	"github.com/nodetec/notestack-sub002/internal/domain"
)

// MemoryIndex is the in-memory mirror of the durable store and the
// primary read path for drafts and collections. It is hydrated from
// Redis at startup; all mutations go through named methods and reads
// hand out copies, never aliases of internal state.
type MemoryIndex struct {
	mu            sync.RWMutex
	drafts        map[string]*domain.Draft      // ID -> Draft
	collections   map[string]*domain.Collection // ID -> Collection
	lastHydration time.Time
}

// NewMemoryIndex creates a new memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		drafts:      make(map[string]*domain.Draft),
		collections: make(map[string]*domain.Collection),
	}
}

// HydrateDrafts replaces all drafts in the index
func (idx *MemoryIndex) HydrateDrafts(drafts []*domain.Draft) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.drafts = make(map[string]*domain.Draft, len(drafts))
	for _, d := range drafts {
		cp := *d
		idx.drafts[d.ID] = &cp
	}
	idx.lastHydration = time.Now()
}

// GetDraft retrieves a copy of a draft by ID
func (idx *MemoryIndex) GetDraft(id string) (*domain.Draft, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	d, ok := idx.drafts[id]
	if !ok {
		return nil, false
	}
	cp := *d
	return &cp, true
}

// GetAllDrafts returns copies of all drafts
func (idx *MemoryIndex) GetAllDrafts() []*domain.Draft {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	drafts := make([]*domain.Draft, 0, len(idx.drafts))
	for _, d := range idx.drafts {
		cp := *d
		drafts = append(drafts, &cp)
	}
	return drafts
}

// PutDraft adds or replaces a single draft
func (idx *MemoryIndex) PutDraft(d *domain.Draft) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	cp := *d
	idx.drafts[d.ID] = &cp
}

// DeleteDraft removes a draft from the index
func (idx *MemoryIndex) DeleteDraft(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.drafts, id)
}

// DraftCount returns the number of drafts in the index
func (idx *MemoryIndex) DraftCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.drafts)
}

// ─────────────────────────────────────────────────────────────────
// Collection methods
// ─────────────────────────────────────────────────────────────────

// HydrateCollections replaces all collections in the index
func (idx *MemoryIndex) HydrateCollections(collections []*domain.Collection) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.collections = make(map[string]*domain.Collection, len(collections))
	for _, c := range collections {
		idx.collections[c.ID()] = c.Clone()
	}
	idx.lastHydration = time.Now()
}

// GetCollection retrieves a deep copy of a collection by ID
func (idx *MemoryIndex) GetCollection(id string) (*domain.Collection, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	c, ok := idx.collections[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// GetAllCollections returns deep copies of all collections
func (idx *MemoryIndex) GetAllCollections() []*domain.Collection {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	collections := make([]*domain.Collection, 0, len(idx.collections))
	for _, c := range idx.collections {
		collections = append(collections, c.Clone())
	}
	return collections
}

// PutCollection adds or replaces a single collection
func (idx *MemoryIndex) PutCollection(c *domain.Collection) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.collections[c.ID()] = c.Clone()
}

// DeleteCollection removes a collection from the index
func (idx *MemoryIndex) DeleteCollection(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.collections, id)
}

// CollectionCount returns the number of collections in the index
func (idx *MemoryIndex) CollectionCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.collections)
}

// LastHydration returns the timestamp of the last hydration
func (idx *MemoryIndex) LastHydration() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastHydration
}
