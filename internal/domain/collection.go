package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ItemRef points a collection entry at some other record by replaceable
// address, with an optional endpoint hint for readers.
type ItemRef struct {
	Author        string `json:"author"`
	Discriminator string `json:"discriminator"`
	Kind          int    `json:"kind"`
	EndpointHint  string `json:"endpoint_hint,omitempty"`
}

// Key is the uniqueness key of an item inside one collection.
func (ir ItemRef) Key() string {
	return ir.Author + ":" + ir.Discriminator
}

// Address renders the replaceable address the item points at.
func (ir ItemRef) Address() string {
	return fmt.Sprintf("%d:%s:%s", ir.Kind, ir.Author, ir.Discriminator)
}

// Collection (a "stack") is the payload of a replaceable record: an
// ordered list of item references, identified by (author, discriminator).
// Items are unique by (author, discriminator) of the item.
type Collection struct {
	Author        string    `json:"author"`
	Discriminator string    `json:"discriminator"`
	Title         string    `json:"title"`
	Items         []ItemRef `json:"items"`
}

// ID is the collection's logical identity within the local store.
func (c *Collection) ID() string {
	return c.Author + ":" + c.Discriminator
}

// Contains reports whether an item with the same key is present.
func (c *Collection) Contains(item ItemRef) bool {
	for _, it := range c.Items {
		if it.Key() == item.Key() {
			return true
		}
	}
	return false
}

// Add appends the item and reports whether the collection changed.
func (c *Collection) Add(item ItemRef) bool {
	if c.Contains(item) {
		return false
	}
	c.Items = append(c.Items, item)
	return true
}

// Remove deletes the item by key and reports whether the collection changed.
func (c *Collection) Remove(item ItemRef) bool {
	for i, it := range c.Items {
		if it.Key() == item.Key() {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Snapshots handed out of the index must not
// alias the stored item slice.
func (c *Collection) Clone() *Collection {
	cp := *c
	cp.Items = make([]ItemRef, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}

// ToTemplate renders the collection as an unsigned replaceable record of
// the given kind: one "d" tag, one "title" tag, one "a" tag per item in
// order, carrying the endpoint hint when present.
func (c *Collection) ToTemplate(kind int, createdAt int64) Template {
	tags := []Tag{DTag(c.Discriminator)}
	if c.Title != "" {
		tags = append(tags, TitleTag(c.Title))
	}
	for _, it := range c.Items {
		tags = append(tags, ATag(it.Address(), it.EndpointHint))
	}
	return Template{
		CreatedAt: createdAt,
		Kind:      kind,
		Tags:      tags,
		Content:   "",
	}
}

// CollectionFromRecord rebuilds a collection from a replaceable record.
// Malformed item tags are skipped; duplicate item keys keep the first
// occurrence so the uniqueness invariant holds even for foreign records.
func CollectionFromRecord(rec *Record) *Collection {
	c := &Collection{
		Author:        rec.Author,
		Discriminator: rec.Discriminator(),
	}
	seen := make(map[string]bool)
	for _, t := range rec.Tags {
		switch t.Name() {
		case TagTitle:
			c.Title = t.Value()
		case TagAddress:
			item, ok := parseItemAddress(t.Value())
			if !ok {
				continue
			}
			item.EndpointHint = t.Hint()
			if seen[item.Key()] {
				continue
			}
			seen[item.Key()] = true
			c.Items = append(c.Items, item)
		}
	}
	return c
}

// parseItemAddress splits "kind:author:discriminator". The discriminator
// may itself contain colons, so only the first two separators split.
func parseItemAddress(addr string) (ItemRef, bool) {
	parts := strings.SplitN(addr, ":", 3)
	if len(parts) != 3 {
		return ItemRef{}, false
	}
	kind, err := strconv.Atoi(parts[0])
	if err != nil {
		return ItemRef{}, false
	}
	return ItemRef{Kind: kind, Author: parts[1], Discriminator: parts[2]}, true
}
