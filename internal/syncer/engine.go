package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/index"
	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/relay"
)

// Store is the durable side of the draft set. The redis store implements
// it; tests use an in-memory fake.
type Store interface {
	SaveDraft(ctx context.Context, draft *domain.Draft) error
	DeleteDraft(ctx context.Context, id string) error
	SaveTombstone(ctx context.Context, t *domain.Tombstone) error
	GetAllTombstones(ctx context.Context) ([]*domain.Tombstone, error)
	DeleteTombstone(ctx context.Context, draftID string) error
}

// Result reports what a sync pulled in. Publish outcomes are deliberately
// absent: after any sync the authoritative state is whatever is locally
// newest, so a failed push is not a sync failure.
type Result struct {
	Received int `json:"received"`
	Updated  int `json:"updated"`
}

// Callbacks let the caller react to remote-driven changes.
type Callbacks struct {
	OnRemoteNewer   func(draft *domain.Draft)
	OnRemoteDeleted func(draftID string)
}

// Engine owns the draft lifecycle: local writes, deletes with remote
// delete markers, and reconciliation of the local draft set against the
// configured endpoints. Conflicts resolve last-writer-wins by
// author-supplied timestamp; there is no field-level merge.
//
// Drafts mirror to replaceable records whose discriminator is the draft
// ID, so the (author, kind, discriminator) identity of the remote copy is
// stable across edits.
type Engine struct {
	author       string
	draftKind    int
	deletionKind int

	store      Store
	index      *index.MemoryIndex
	endpoints  *relay.Endpoints
	signer     relay.Signer
	querier    relay.Querier
	aggregator *relay.Aggregator
	callbacks  Callbacks
	logger     logger.Logger

	now func() time.Time
}

// Options collects the engine's collaborators.
type Options struct {
	Author       string
	DraftKind    int
	DeletionKind int
	Store        Store
	Index        *index.MemoryIndex
	Endpoints    *relay.Endpoints
	Signer       relay.Signer
	Querier      relay.Querier
	Aggregator   *relay.Aggregator
	Callbacks    Callbacks
	Logger       logger.Logger
}

// NewEngine creates a reconciliation engine.
func NewEngine(opts Options) *Engine {
	return &Engine{
		author:       opts.Author,
		draftKind:    opts.DraftKind,
		deletionKind: opts.DeletionKind,
		store:        opts.Store,
		index:        opts.Index,
		endpoints:    opts.Endpoints,
		signer:       opts.Signer,
		querier:      opts.Querier,
		aggregator:   opts.Aggregator,
		callbacks:    opts.Callbacks,
		logger:       opts.Logger,
		now:          time.Now,
	}
}

// CreateDraft makes a new local draft, optionally linked to a published
// article it edits.
func (e *Engine) CreateDraft(ctx context.Context, content string, linked *domain.LinkedTarget) (*domain.Draft, error) {
	draft := &domain.Draft{
		ID:           uuid.NewString(),
		Content:      content,
		LastSavedAt:  e.now().Unix(),
		LinkedTarget: linked,
	}
	if err := e.persistDraft(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// WriteDraft persists new content for a draft. Implements
// autosave.Writer; purely local.
func (e *Engine) WriteDraft(ctx context.Context, draftID, content string) error {
	draft, ok := e.index.GetDraft(draftID)
	if !ok {
		// Draft was closed or deleted while a save was pending; the write
		// completes harmlessly as a no-op.
		return nil
	}
	draft.Content = content
	draft.LastSavedAt = e.now().Unix()
	return e.persistDraft(ctx, draft)
}

// DeleteDraft removes a draft locally at once (optimistic). If the draft
// was mirrored remotely, a tombstone is kept and a delete marker is
// published; the tombstone survives until at least one endpoint accepts
// the marker, so an endpoint that was unreachable at delete time still
// hears about the deletion on a later sync.
func (e *Engine) DeleteDraft(ctx context.Context, draftID string) error {
	draft, ok := e.index.GetDraft(draftID)
	if !ok {
		return nil
	}

	e.index.DeleteDraft(draftID)
	if err := e.store.DeleteDraft(ctx, draftID); err != nil {
		return err
	}

	if draft.RemoteRecordID == "" {
		return nil
	}

	tomb := &domain.Tombstone{
		DraftID:        draftID,
		RemoteRecordID: draft.RemoteRecordID,
		Discriminator:  draftID,
		CreatedAt:      e.now().Unix(),
	}
	if err := e.store.SaveTombstone(ctx, tomb); err != nil {
		return err
	}

	// Best-effort immediate publish; the sync loop retries the rest.
	e.publishTombstone(ctx, tomb)
	return nil
}

// SyncDrafts reconciles the full local draft set against the configured
// endpoints.
func (e *Engine) SyncDrafts(ctx context.Context) (Result, error) {
	var res Result

	endpoints := e.endpoints.List()
	if len(endpoints) == 0 {
		e.logger.Debug("sync skipped: no endpoints configured")
		return res, nil
	}

	remote, deletedIDs, err := e.fetchRemoteState(ctx, endpoints)
	if err != nil {
		return res, err
	}

	// Pending tombstones count as delete markers too, otherwise a replica
	// that never heard about a deletion would resurrect the draft here.
	pendingDeletes := make(map[string]bool)
	if tombs, err := e.store.GetAllTombstones(ctx); err == nil {
		for _, tomb := range tombs {
			deletedIDs[tomb.RemoteRecordID] = true
			pendingDeletes[tomb.Discriminator] = true
		}
	} else {
		e.logger.Warn("failed to load tombstones", logger.Error(err))
	}

	// Remote -> local: materialize unknown drafts, absorb newer copies,
	// apply delete markers.
	for disc, rec := range remote {
		if deletedIDs[rec.ID] || pendingDeletes[disc] {
			continue
		}

		local, ok := e.index.GetDraft(disc)
		switch {
		case !ok:
			draft := &domain.Draft{
				ID:             disc,
				Content:        rec.Content,
				LastSavedAt:    rec.CreatedAt,
				RemoteRecordID: rec.ID,
			}
			if err := e.persistDraft(ctx, draft); err != nil {
				return res, err
			}
			res.Received++
			if e.callbacks.OnRemoteNewer != nil {
				e.callbacks.OnRemoteNewer(draft)
			}

		case rec.CreatedAt > local.LastSavedAt:
			local.Content = rec.Content
			local.LastSavedAt = rec.CreatedAt
			local.RemoteRecordID = rec.ID
			if err := e.persistDraft(ctx, local); err != nil {
				return res, err
			}
			res.Updated++
			if e.callbacks.OnRemoteNewer != nil {
				e.callbacks.OnRemoteNewer(local)
			}
		}
	}

	// Delete markers referencing mirrored drafts remove them locally.
	for _, draft := range e.index.GetAllDrafts() {
		if draft.RemoteRecordID == "" || !deletedIDs[draft.RemoteRecordID] {
			continue
		}
		e.index.DeleteDraft(draft.ID)
		if err := e.store.DeleteDraft(ctx, draft.ID); err != nil {
			return res, err
		}
		if e.callbacks.OnRemoteDeleted != nil {
			e.callbacks.OnRemoteDeleted(draft.ID)
		}
	}

	// Local -> remote: push drafts with no remote copy or a newer local
	// one. Fire-and-forget relative to the sync result.
	for _, draft := range e.index.GetAllDrafts() {
		rec, covered := remote[draft.ID]
		if covered && draft.LastSavedAt < rec.CreatedAt {
			continue
		}
		e.publishDraft(ctx, draft, endpoints)
	}

	// Retry delete markers that never reached an endpoint.
	e.republishTombstones(ctx)

	e.logger.Info("draft sync completed",
		logger.Int("received", res.Received),
		logger.Int("updated", res.Updated),
		logger.Int("endpoints", len(endpoints)))

	return res, nil
}

// fetchRemoteState queries every endpoint for the author's draft records
// and delete markers, keeping the newest record per discriminator.
// Unreachable endpoints are skipped; one reachable endpoint is enough.
func (e *Engine) fetchRemoteState(ctx context.Context, endpoints []string) (map[string]*domain.Record, map[string]bool, error) {
	newest := make(map[string]*domain.Record)
	deletedIDs := make(map[string]bool)
	reachable := 0

	for _, endpoint := range endpoints {
		recs, err := e.querier.QueryEndpoint(ctx, domain.Filter{
			Authors: []string{e.author},
			Kinds:   []int{e.draftKind, e.deletionKind},
		}, endpoint)
		if err != nil {
			e.logger.Warn("endpoint unreachable during sync",
				logger.String("endpoint", endpoint),
				logger.Error(err))
			continue
		}
		reachable++

		for _, rec := range recs {
			switch rec.Kind {
			case e.deletionKind:
				for _, id := range rec.TagValues(domain.TagEvent) {
					deletedIDs[id] = true
				}
			case e.draftKind:
				disc := rec.Discriminator()
				if disc == "" {
					continue
				}
				if cur, ok := newest[disc]; !ok || rec.Supersedes(cur) {
					newest[disc] = rec
				}
			}
		}
	}

	if reachable == 0 {
		return nil, nil, fmt.Errorf("all %d endpoints unreachable", len(endpoints))
	}
	return newest, deletedIDs, nil
}

// publishDraft signs and pushes one draft. Publish failure is tolerated:
// locally newest remains authoritative and the next sync retries.
func (e *Engine) publishDraft(ctx context.Context, draft *domain.Draft, endpoints []string) {
	rec, err := e.signer.Sign(ctx, domain.Template{
		CreatedAt: draft.LastSavedAt,
		Kind:      e.draftKind,
		Tags:      []domain.Tag{domain.DTag(draft.ID)},
		Content:   draft.Content,
	})
	if err != nil {
		if errors.Is(err, relay.ErrNoSigner) {
			e.logger.Warn("cannot mirror draft: no signer configured",
				logger.String("draft_id", draft.ID))
			return
		}
		e.logger.Error("draft signing failed",
			logger.String("draft_id", draft.ID),
			logger.Error(err))
		return
	}

	outcomes := e.aggregator.Publish(ctx, rec, endpoints)
	if !relay.Published(outcomes) {
		e.logger.Warn("draft publish reached no endpoint",
			logger.String("draft_id", draft.ID))
		return
	}

	// Remember which record the draft is mirrored to.
	draft.RemoteRecordID = rec.ID
	if err := e.persistDraft(ctx, draft); err != nil {
		e.logger.Error("failed to persist mirrored record id",
			logger.String("draft_id", draft.ID),
			logger.Error(err))
	}
}

// republishTombstones retries pending delete markers and sweeps the ones
// that finally reached an endpoint.
func (e *Engine) republishTombstones(ctx context.Context) {
	tombs, err := e.store.GetAllTombstones(ctx)
	if err != nil {
		e.logger.Warn("failed to load tombstones", logger.Error(err))
		return
	}
	for _, tomb := range tombs {
		e.publishTombstone(ctx, tomb)
	}
}

func (e *Engine) publishTombstone(ctx context.Context, tomb *domain.Tombstone) {
	rec, err := e.signer.Sign(ctx, domain.Template{
		CreatedAt: tomb.CreatedAt,
		Kind:      e.deletionKind,
		Tags:      []domain.Tag{domain.ETag(tomb.RemoteRecordID)},
		Content:   "",
	})
	if err != nil {
		e.logger.Warn("cannot sign delete marker",
			logger.String("draft_id", tomb.DraftID),
			logger.Error(err))
		return
	}

	outcomes := e.aggregator.Publish(ctx, rec, e.endpoints.List())
	if !relay.Published(outcomes) {
		// Keep the tombstone; the next sync retries.
		return
	}

	if err := e.store.DeleteTombstone(ctx, tomb.DraftID); err != nil {
		e.logger.Warn("failed to sweep tombstone",
			logger.String("draft_id", tomb.DraftID),
			logger.Error(err))
	}
}

func (e *Engine) persistDraft(ctx context.Context, draft *domain.Draft) error {
	e.index.PutDraft(draft)
	if err := e.store.SaveDraft(ctx, draft); err != nil {
		return fmt.Errorf("failed to persist draft %s: %w", draft.ID, err)
	}
	return nil
}
