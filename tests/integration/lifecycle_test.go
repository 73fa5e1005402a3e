package integration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nodetec/notestack-sub002/internal/autosave"
	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/index"
	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/relay"
	"github.com/nodetec/notestack-sub002/internal/syncer"
)

const (
	author       = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	draftKind    = 31234
	deletionKind = 5
)

// memStore is an in-memory syncer.Store.
type memStore struct {
	mu         sync.Mutex
	drafts     map[string]*domain.Draft
	tombstones map[string]*domain.Tombstone
	writes     int
}

func newMemStore() *memStore {
	return &memStore{
		drafts:     make(map[string]*domain.Draft),
		tombstones: make(map[string]*domain.Tombstone),
	}
}

func (m *memStore) SaveDraft(_ context.Context, d *domain.Draft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.drafts[d.ID] = &cp
	m.writes++
	return nil
}

func (m *memStore) DeleteDraft(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

func (m *memStore) SaveTombstone(_ context.Context, t *domain.Tombstone) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.tombstones[t.DraftID] = &cp
	return nil
}

func (m *memStore) GetAllTombstones(_ context.Context) ([]*domain.Tombstone, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Tombstone, 0, len(m.tombstones))
	for _, t := range m.tombstones {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) DeleteTombstone(_ context.Context, draftID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tombstones, draftID)
	return nil
}

func (m *memStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

type signer struct{}

func (signer) Sign(_ context.Context, t domain.Template) (*domain.Record, error) {
	return &domain.Record{
		ID:        domain.ComputeID(author, t),
		Author:    author,
		CreatedAt: t.CreatedAt,
		Kind:      t.Kind,
		Tags:      t.Tags,
		Content:   t.Content,
		Sig:       "sig",
	}, nil
}

// fakeRelay stores published records per endpoint and serves them back,
// keeping only the newest per replaceable address like a real relay.
type fakeRelay struct {
	mu          sync.Mutex
	records     map[string]map[string]*domain.Record // endpoint -> address -> record
	unreachable map[string]bool
}

func newFakeRelay(endpoints ...string) *fakeRelay {
	f := &fakeRelay{
		records:     make(map[string]map[string]*domain.Record),
		unreachable: make(map[string]bool),
	}
	for _, ep := range endpoints {
		f.records[ep] = make(map[string]*domain.Record)
	}
	return f
}

func (f *fakeRelay) PublishToEndpoint(_ context.Context, rec *domain.Record, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable[endpoint] {
		return errors.New("endpoint unavailable")
	}
	key := rec.Address()
	if !rec.Replaceable() {
		key = rec.ID
	}
	if cur, ok := f.records[endpoint][key]; !ok || rec.Supersedes(cur) {
		f.records[endpoint][key] = rec
	}
	return nil
}

func (f *fakeRelay) QueryEndpoint(_ context.Context, filter domain.Filter, endpoint string) ([]*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable[endpoint] {
		return nil, errors.New("endpoint unavailable")
	}
	var out []*domain.Record
	for _, rec := range f.records[endpoint] {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeRelay) recordsOfKind(endpoint string, kind int) []*domain.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Record
	for _, rec := range f.records[endpoint] {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

// TestDraftLifecycle walks one draft through the whole pipeline: create,
// debounced autosave, mirror to endpoints, absorb a newer remote copy,
// delete with a delayed delete marker.
func TestDraftLifecycle(t *testing.T) {
	ctx := context.Background()
	log := logger.New("error", false)

	endpoints := []string{"wss://e1", "wss://e2"}
	relays := newFakeRelay(endpoints...)
	store := newMemStore()
	idx := index.NewMemoryIndex()

	engine := syncer.NewEngine(syncer.Options{
		Author:       author,
		DraftKind:    draftKind,
		DeletionKind: deletionKind,
		Store:        store,
		Index:        idx,
		Endpoints:    relay.NewEndpoints(endpoints, endpoints[0], nil),
		Signer:       signer{},
		Querier:      relays,
		Aggregator:   relay.NewAggregator(relays, log),
		Logger:       log,
	})

	saver := autosave.NewScheduler(engine, log, 10*time.Millisecond, 20*time.Millisecond)

	// --- Create and edit
	draft, err := engine.CreateDraft(ctx, "", nil)
	if err != nil {
		t.Fatalf("CreateDraft: %v", err)
	}
	saver.SetActive(draft.ID)

	baseline := store.writeCount()
	saver.Schedule(draft.ID, "hello")
	saver.Schedule(draft.ID, "hello, world") // rapid follow-up folds into one write

	waitFor(t, func() bool { return saver.State(draft.ID) == autosave.StateSaved })
	if got := store.writeCount() - baseline; got != 1 {
		t.Errorf("debounce should fold rapid edits into 1 write, got %d", got)
	}
	if d, _ := idx.GetDraft(draft.ID); d.Content != "hello, world" {
		t.Errorf("draft content = %q", d.Content)
	}

	// Saved indicator falls back to idle after the display window.
	waitFor(t, func() bool { return saver.State(draft.ID) == autosave.StateIdle })

	// --- Mirror to endpoints
	if _, err := engine.SyncDrafts(ctx); err != nil {
		t.Fatalf("SyncDrafts: %v", err)
	}
	for _, ep := range endpoints {
		recs := relays.recordsOfKind(ep, draftKind)
		if len(recs) != 1 || recs[0].Content != "hello, world" {
			t.Fatalf("endpoint %s has %d draft records", ep, len(recs))
		}
	}

	// --- A newer copy appears remotely (another device)
	newer := domain.Template{
		CreatedAt: time.Now().Unix() + 100,
		Kind:      draftKind,
		Tags:      []domain.Tag{domain.DTag(draft.ID)},
		Content:   "edited elsewhere",
	}
	rec, _ := signer{}.Sign(ctx, newer)
	if err := relays.PublishToEndpoint(ctx, rec, "wss://e2"); err != nil {
		t.Fatalf("seed remote copy: %v", err)
	}

	res, err := engine.SyncDrafts(ctx)
	if err != nil {
		t.Fatalf("SyncDrafts: %v", err)
	}
	if res.Updated != 1 {
		t.Errorf("updated = %d, want 1", res.Updated)
	}
	if d, _ := idx.GetDraft(draft.ID); d.Content != "edited elsewhere" {
		t.Errorf("newer remote copy should win, got %q", d.Content)
	}

	// --- Delete while every endpoint is down
	relays.mu.Lock()
	relays.unreachable["wss://e1"] = true
	relays.unreachable["wss://e2"] = true
	relays.mu.Unlock()

	if err := engine.DeleteDraft(ctx, draft.ID); err != nil {
		t.Fatalf("DeleteDraft: %v", err)
	}
	if _, ok := idx.GetDraft(draft.ID); ok {
		t.Fatal("local removal must be immediate")
	}

	// Endpoints come back still holding the old draft record. The
	// retained tombstone must block resurrection and replay the delete
	// marker everywhere.
	relays.mu.Lock()
	relays.unreachable["wss://e1"] = false
	relays.unreachable["wss://e2"] = false
	relays.mu.Unlock()

	if _, err := engine.SyncDrafts(ctx); err != nil {
		t.Fatalf("SyncDrafts: %v", err)
	}
	if _, ok := idx.GetDraft(draft.ID); ok {
		t.Error("deleted draft resurrected from a stale replica")
	}
	for _, ep := range endpoints {
		if len(relays.recordsOfKind(ep, deletionKind)) != 1 {
			t.Errorf("endpoint %s should receive the delete marker", ep)
		}
	}
}
