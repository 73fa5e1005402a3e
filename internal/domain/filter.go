package domain

// Filter selects records on a relay endpoint. Zero-value slices mean
// "no constraint on this dimension".
type Filter struct {
	IDs            []string `json:"ids,omitempty"`
	Authors        []string `json:"authors,omitempty"`
	Kinds          []int    `json:"kinds,omitempty"`
	Discriminators []string `json:"#d,omitempty"` // "d" tag values
	References     []string `json:"#e,omitempty"` // referenced record ids
	Subjects       []string `json:"#p,omitempty"` // referenced author pubkeys
	Limit          int      `json:"limit,omitempty"`
}

// Matches reports whether rec satisfies every constrained dimension.
// Relay implementations filter server-side; this is used by local fakes.
func (f Filter) Matches(rec *Record) bool {
	if len(f.IDs) > 0 && !contains(f.IDs, rec.ID) {
		return false
	}
	if len(f.Authors) > 0 && !contains(f.Authors, rec.Author) {
		return false
	}
	if len(f.Kinds) > 0 && !containsInt(f.Kinds, rec.Kind) {
		return false
	}
	if len(f.Discriminators) > 0 && !intersects(f.Discriminators, rec.TagValues(TagDiscriminator)) {
		return false
	}
	if len(f.References) > 0 && !intersects(f.References, rec.TagValues(TagEvent)) {
		return false
	}
	if len(f.Subjects) > 0 && !intersects(f.Subjects, rec.TagValues(TagSubject)) {
		return false
	}
	return true
}

func contains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}

func containsInt(haystack []int, needle int) bool {
	for _, n := range haystack {
		if n == needle {
			return true
		}
	}
	return false
}

func intersects(wanted, got []string) bool {
	for _, w := range wanted {
		for _, g := range got {
			if w == g {
				return true
			}
		}
	}
	return false
}
