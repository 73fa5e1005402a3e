package domain

import "encoding/json"

// Profile is the shared reference data for an author: the payload of
// their replaceable metadata record. Cache-only, never persisted.
type Profile struct {
	Name    string `json:"name"`
	About   string `json:"about"`
	Picture string `json:"picture"`
}

// ParseProfile decodes a profile from a metadata record's content.
// Malformed content yields the empty profile rather than an error: a
// broken remote profile must not poison the read path.
func ParseProfile(rec *Record) Profile {
	var p Profile
	_ = json.Unmarshal([]byte(rec.Content), &p)
	return p
}

// InteractionCounts are derived, non-authoritative per-record counters,
// recomputed from a live query whenever the cache refetches. Cache-only.
type InteractionCounts struct {
	Reactions int `json:"reactions"`
	Replies   int `json:"replies"`
}
