package domain

// LinkedTarget points a draft at a previously published replaceable
// record it edits.
type LinkedTarget struct {
	Author        string `json:"author"`
	Discriminator string `json:"discriminator"`
}

// Draft is a local-only authoring entity. It is created on "new draft" or
// "edit existing article", mutated by the autosave scheduler and the
// reconciliation engine, and destroyed by explicit delete or by
// absorption into a newer remote copy.
type Draft struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is locally generated (uuid).
	ID string `json:"id"`

	// ─────────────────────────────
	// Authoring state
	// ─────────────────────────────

	// Content is the editable text.
	Content string `json:"content"`

	// LastSavedAt is unix seconds of the last local save. It is the local
	// side of the last-writer-wins comparison against remote CreatedAt.
	LastSavedAt int64 `json:"last_saved_at"`

	// ─────────────────────────────
	// Remote linkage
	// ─────────────────────────────

	// LinkedTarget is set when the draft edits a published article.
	LinkedTarget *LinkedTarget `json:"linked_target,omitempty"`

	// RemoteRecordID is the id of the last record this draft was
	// synchronized to, empty if never mirrored.
	RemoteRecordID string `json:"remote_record_id,omitempty"`
}

// Tombstone remembers a locally deleted draft whose delete marker has not
// yet reached any endpoint. It is kept until one publish of the marker
// succeeds, then swept.
type Tombstone struct {
	DraftID        string `json:"draft_id"`
	RemoteRecordID string `json:"remote_record_id"`
	Discriminator  string `json:"discriminator"`
	CreatedAt      int64  `json:"created_at"`
}
