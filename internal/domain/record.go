package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Kind ranges defined by the protocol. Only the parameterized-replaceable
// range matters here: records in it are logically keyed by
// (author, kind, discriminator) and only the newest instance is current.
const (
	KindReplaceableStart      = 10000
	KindReplaceableEnd        = 20000
	KindParamReplaceableStart = 30000
	KindParamReplaceableEnd   = 40000
)

// Record is an immutable, signed, content-addressed unit exchanged with
// relay endpoints. Records are never mutated after creation; "updating" a
// replaceable record means publishing a new one with the same
// (author, kind, discriminator).
type Record struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the hex sha256 of the canonical serialization.
	// Two semantically identical records share an ID.
	ID string `json:"id"`

	// Author is the hex public key of the signer.
	Author string `json:"pubkey"`

	// CreatedAt is author-supplied unix seconds. Not trusted as wall-clock
	// truth across authors, trusted for intra-author ordering.
	CreatedAt int64 `json:"created_at"`

	// Kind classifies the record; see the replaceable ranges above.
	Kind int `json:"kind"`

	// Tags is the ordered list of tag tuples.
	Tags []Tag `json:"tags"`

	// Content is the opaque payload.
	Content string `json:"content"`

	// Sig attests author+content integrity; verification is external.
	Sig string `json:"sig"`
}

// Template is an unsigned record. A Signer turns it into a Record,
// assigning ID and Sig.
type Template struct {
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      []Tag  `json:"tags"`
	Content   string `json:"content"`
}

// ComputeID returns the hex sha256 over the canonical serialized fields
// [0, author, createdAt, kind, tags, content]. Any two semantically
// identical records hash to the same id.
func ComputeID(author string, t Template) string {
	arr := []interface{}{0, author, t.CreatedAt, t.Kind, t.Tags, t.Content}
	// Marshal of this shape cannot fail: plain ints, strings and string slices.
	data, _ := json.Marshal(arr)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Replaceable reports whether only the newest record per
// (author, kind, discriminator) is logically current.
func (r *Record) Replaceable() bool {
	return (r.Kind >= KindReplaceableStart && r.Kind < KindReplaceableEnd) ||
		(r.Kind >= KindParamReplaceableStart && r.Kind < KindParamReplaceableEnd)
}

// Discriminator returns the value of the record's "d" tag, or "" if absent.
func (r *Record) Discriminator() string {
	for _, t := range r.Tags {
		if t.Name() == TagDiscriminator {
			return t.Value()
		}
	}
	return ""
}

// Address returns the replaceable identity "kind:author:discriminator".
func (r *Record) Address() string {
	return fmt.Sprintf("%d:%s:%s", r.Kind, r.Author, r.Discriminator())
}

// TagValues returns the values of all tags with the given name, in order.
func (r *Record) TagValues(name string) []string {
	var vals []string
	for _, t := range r.Tags {
		if t.Name() == name {
			vals = append(vals, t.Value())
		}
	}
	return vals
}

// Supersedes reports whether r replaces other under last-writer-wins.
// Ties break toward the lexically smaller id so all replicas converge.
func (r *Record) Supersedes(other *Record) bool {
	if r.CreatedAt != other.CreatedAt {
		return r.CreatedAt > other.CreatedAt
	}
	return strings.Compare(r.ID, other.ID) < 0
}
