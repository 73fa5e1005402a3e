package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/index"
	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/relay"
)

const (
	testAuthor       = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testDraftKind    = 31234
	testDeletionKind = 5
)

// memStore is an in-memory Store.
type memStore struct {
	mu         sync.Mutex
	drafts     map[string]*domain.Draft
	tombstones map[string]*domain.Tombstone
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

func (m *memStore) tombstoneCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tombstones)
}

// fakeSigner signs with a fixed author.
type fakeSigner struct{ fail bool }

func (f *fakeSigner) Sign(_ context.Context, t domain.Template) (*domain.Record, error) {
	if f.fail {
		return nil, relay.ErrNoSigner
	}
	return &domain.Record{
		ID:        domain.ComputeID(testAuthor, t),
		Author:    testAuthor,
		CreatedAt: t.CreatedAt,
		Kind:      t.Kind,
		Tags:      t.Tags,
		Content:   t.Content,
		Sig:       "sig",
	}, nil
}

// fakeRelay serves canned records per endpoint and records publishes.
type fakeRelay struct {
	mu          sync.Mutex
	records     map[string][]*domain.Record // endpoint -> records
	unreachable map[string]bool
	published   []*domain.Record
}

func newFakeRelay() *fakeRelay {
	return &fakeRelay{
		records:     make(map[string][]*domain.Record),
		unreachable: make(map[string]bool),
	}
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

func (f *fakeRelay) PublishToEndpoint(_ context.Context, rec *domain.Record, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable[endpoint] {
		return errors.New("endpoint unavailable")
	}
	f.published = append(f.published, rec)
	return nil
}

func (f *fakeRelay) publishedOfKind(kind int) []*domain.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Record
	for _, rec := range f.published {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

func draftRecord(draftID, content string, createdAt int64) *domain.Record {
	t := domain.Template{
		CreatedAt: createdAt,
		Kind:      testDraftKind,
		Tags:      []domain.Tag{domain.DTag(draftID)},
		Content:   content,
	}
	return &domain.Record{
		ID:        domain.ComputeID(testAuthor, t),
		Author:    testAuthor,
		CreatedAt: createdAt,
		Kind:      testDraftKind,
		Tags:      t.Tags,
		Content:   content,
		Sig:       "sig",
	}
}

func deleteMarker(targetID string, createdAt int64) *domain.Record {
	return &domain.Record{
		ID:        "del-" + targetID,
		Author:    testAuthor,
		CreatedAt: createdAt,
		Kind:      testDeletionKind,
		Tags:      []domain.Tag{domain.ETag(targetID)},
		Sig:       "sig",
	}
}

type engineFixture struct {
	engine  *Engine
	store   *memStore
	index   *index.MemoryIndex
	relay   *fakeRelay
	deleted []string
	newer   []string
}

func newFixture(t *testing.T, endpoints ...string) *engineFixture {
	t.Helper()
	if len(endpoints) == 0 {
		endpoints = []string{"wss://e1"}
	}
	log := logger.New("error", false)
	fx := &engineFixture{
		store: newMemStore(),
		index: index.NewMemoryIndex(),
		relay: newFakeRelay(),
	}
	fx.engine = NewEngine(Options{
		Author:       testAuthor,
		DraftKind:    testDraftKind,
		DeletionKind: testDeletionKind,
		Store:        fx.store,
		Index:        fx.index,
		Endpoints:    relay.NewEndpoints(endpoints, endpoints[0], nil),
		Signer:       &fakeSigner{},
		Querier:      fx.relay,
		Aggregator:   relay.NewAggregator(fx.relay, log),
		Callbacks: Callbacks{
			OnRemoteNewer:   func(d *domain.Draft) { fx.newer = append(fx.newer, d.ID) },
			OnRemoteDeleted: func(id string) { fx.deleted = append(fx.deleted, id) },
		},
		Logger: log,
	})
	return fx
}

func TestSyncAbsorbsNewerRemote(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// Local draft saved at T1=100, remote copy at T2=200.
	fx.index.PutDraft(&domain.Draft{ID: "d1", Content: "A", LastSavedAt: 100})
	fx.relay.records["wss://e1"] = []*domain.Record{draftRecord("d1", "B", 200)}

	res, err := fx.engine.SyncDrafts(ctx)
	if err != nil {
		t.Fatalf("SyncDrafts failed: %v", err)
	}

	if res.Received != 0 || res.Updated != 1 {
		t.Errorf("result = %+v, want received=0 updated=1", res)
	}

	d, _ := fx.index.GetDraft("d1")
	if d.Content != "B" {
		t.Errorf("local content = %q, want remote %q", d.Content, "B")
	}
	if d.LastSavedAt != 200 {
		t.Errorf("LastSavedAt = %d, want 200", d.LastSavedAt)
	}
	if len(fx.newer) != 1 || fx.newer[0] != "d1" {
		t.Errorf("OnRemoteNewer calls = %v", fx.newer)
	}
}

func TestSyncKeepsAndRepublishesNewerLocal(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// Local T1=300 beats remote T2=200: content unchanged, republished.
	fx.index.PutDraft(&domain.Draft{ID: "d1", Content: "A", LastSavedAt: 300})
	fx.relay.records["wss://e1"] = []*domain.Record{draftRecord("d1", "B", 200)}

	res, err := fx.engine.SyncDrafts(ctx)
	if err != nil {
		t.Fatalf("SyncDrafts failed: %v", err)
	}

	if res.Received != 0 || res.Updated != 0 {
		t.Errorf("result = %+v, want zero counts", res)
	}

	d, _ := fx.index.GetDraft("d1")
	if d.Content != "A" {
		t.Errorf("local content = %q, want unchanged %q", d.Content, "A")
	}

	pubs := fx.relay.publishedOfKind(testDraftKind)
	if len(pubs) != 1 {
		t.Fatalf("expected 1 draft publish, got %d", len(pubs))
	}
	if pubs[0].Content != "A" || pubs[0].Discriminator() != "d1" {
		t.Errorf("published wrong record: %+v", pubs[0])
	}

	// The draft now remembers the record it is mirrored to.
	if d, _ = fx.index.GetDraft("d1"); d.RemoteRecordID != pubs[0].ID {
		t.Errorf("RemoteRecordID = %q, want %q", d.RemoteRecordID, pubs[0].ID)
	}
}

func TestSyncMaterializesUnknownRemote(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.relay.records["wss://e1"] = []*domain.Record{draftRecord("d9", "fresh from remote", 500)}

	res, err := fx.engine.SyncDrafts(ctx)
	if err != nil {
		t.Fatalf("SyncDrafts failed: %v", err)
	}

	if res.Received != 1 || res.Updated != 0 {
		t.Errorf("result = %+v, want received=1 updated=0", res)
	}

	d, ok := fx.index.GetDraft("d9")
	if !ok {
		t.Fatal("remote draft was not materialized locally")
	}
	if d.Content != "fresh from remote" || d.LastSavedAt != 500 {
		t.Errorf("materialized draft = %+v", d)
	}
}

func TestSyncAppliesDeleteMarkers(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	rec := draftRecord("d1", "doomed", 100)
	fx.index.PutDraft(&domain.Draft{ID: "d1", Content: "doomed", LastSavedAt: 100, RemoteRecordID: rec.ID})
	fx.relay.records["wss://e1"] = []*domain.Record{rec, deleteMarker(rec.ID, 150)}

	if _, err := fx.engine.SyncDrafts(ctx); err != nil {
		t.Fatalf("SyncDrafts failed: %v", err)
	}

	if _, ok := fx.index.GetDraft("d1"); ok {
		t.Error("draft covered by delete marker should be removed")
	}
	if len(fx.deleted) != 1 || fx.deleted[0] != "d1" {
		t.Errorf("OnRemoteDeleted calls = %v", fx.deleted)
	}
}

func TestSyncMergesAcrossEndpointsLWW(t *testing.T) {
	fx := newFixture(t, "wss://e1", "wss://e2")
	ctx := context.Background()

	// Replicas disagree; the newest copy wins regardless of which
	// endpoint served it.
	fx.relay.records["wss://e1"] = []*domain.Record{draftRecord("d1", "stale", 100)}
	fx.relay.records["wss://e2"] = []*domain.Record{draftRecord("d1", "current", 300)}

	if _, err := fx.engine.SyncDrafts(ctx); err != nil {
		t.Fatalf("SyncDrafts failed: %v", err)
	}

	d, ok := fx.index.GetDraft("d1")
	if !ok {
		t.Fatal("draft not materialized")
	}
	if d.Content != "current" {
		t.Errorf("content = %q, want the newest replica copy", d.Content)
	}
}

func TestSyncToleratesPartiallyUnreachableEndpoints(t *testing.T) {
	fx := newFixture(t, "wss://e1", "wss://e2")
	ctx := context.Background()

	fx.relay.unreachable["wss://e1"] = true
	fx.relay.records["wss://e2"] = []*domain.Record{draftRecord("d1", "from e2", 100)}

	res, err := fx.engine.SyncDrafts(ctx)
	if err != nil {
		t.Fatalf("one reachable endpoint should be enough: %v", err)
	}
	if res.Received != 1 {
		t.Errorf("received = %d, want 1", res.Received)
	}
}

func TestSyncFailsWhenAllEndpointsUnreachable(t *testing.T) {
	fx := newFixture(t, "wss://e1", "wss://e2")
	ctx := context.Background()

	fx.relay.unreachable["wss://e1"] = true
	fx.relay.unreachable["wss://e2"] = true
	fx.index.PutDraft(&domain.Draft{ID: "d1", Content: "A", LastSavedAt: 100})

	if _, err := fx.engine.SyncDrafts(ctx); err == nil {
		t.Error("sync with no reachable endpoint should fail")
	}

	// Local state untouched.
	if d, _ := fx.index.GetDraft("d1"); d.Content != "A" {
		t.Error("unreachable sync must not mutate local drafts")
	}
}

func TestDeleteDraftKeepsTombstoneUntilPublished(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.index.PutDraft(&domain.Draft{ID: "d1", Content: "A", LastSavedAt: 100, RemoteRecordID: "rec-1"})

	// Endpoint down at delete time: local removal still happens, the
	// tombstone stays behind.
	fx.relay.unreachable["wss://e1"] = true
	if err := fx.engine.DeleteDraft(ctx, "d1"); err != nil {
		t.Fatalf("DeleteDraft failed: %v", err)
	}
	if _, ok := fx.index.GetDraft("d1"); ok {
		t.Error("local removal must be immediate")
	}
	if fx.store.tombstoneCount() != 1 {
		t.Fatalf("expected a pending tombstone, got %d", fx.store.tombstoneCount())
	}

	// Endpoint comes back: the next sync republishes and sweeps.
	fx.relay.unreachable["wss://e1"] = false
	if _, err := fx.engine.SyncDrafts(ctx); err != nil {
		t.Fatalf("SyncDrafts failed: %v", err)
	}

	markers := fx.relay.publishedOfKind(testDeletionKind)
	if len(markers) != 1 {
		t.Fatalf("expected 1 delete marker publish, got %d", len(markers))
	}
	if got := markers[0].TagValues(domain.TagEvent); len(got) != 1 || got[0] != "rec-1" {
		t.Errorf("delete marker references %v, want [rec-1]", got)
	}
	if fx.store.tombstoneCount() != 0 {
		t.Error("tombstone should be swept after a successful publish")
	}
}

func TestDeleteDraftWithoutRemoteIsLocalOnly(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	fx.index.PutDraft(&domain.Draft{ID: "d1", Content: "A", LastSavedAt: 100})
	if err := fx.engine.DeleteDraft(ctx, "d1"); err != nil {
		t.Fatalf("DeleteDraft failed: %v", err)
	}

	if fx.store.tombstoneCount() != 0 {
		t.Error("never-mirrored draft needs no tombstone")
	}
	if len(fx.relay.published) != 0 {
		t.Error("never-mirrored draft needs no delete marker")
	}
}

func TestWriteDraftOnClosedDraftIsNoop(t *testing.T) {
	fx := newFixture(t)

	if err := fx.engine.WriteDraft(context.Background(), "gone", "text"); err != nil {
		t.Errorf("write to unknown draft should be a silent no-op, got %v", err)
	}
}

func TestSyncWithoutSignerStillReconciles(t *testing.T) {
	fx := newFixture(t)
	fx.engine.signer = &fakeSigner{fail: true}
	ctx := context.Background()

	fx.index.PutDraft(&domain.Draft{ID: "d1", Content: "A", LastSavedAt: 100})
	fx.relay.records["wss://e1"] = []*domain.Record{draftRecord("d2", "B", 200)}

	res, err := fx.engine.SyncDrafts(ctx)
	if err != nil {
		t.Fatalf("pull side must work without a signer: %v", err)
	}
	if res.Received != 1 {
		t.Errorf("received = %d, want 1", res.Received)
	}
	if len(fx.relay.published) != 0 {
		t.Error("nothing should be published without a signer")
	}
}
