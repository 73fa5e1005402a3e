package domain

import "testing"

func TestComputeID(t *testing.T) {
	tmpl := Template{
		CreatedAt: 1700000000,
		Kind:      31234,
		Tags:      []Tag{DTag("my-article")},
		Content:   "hello",
	}

	id1 := ComputeID("author-a", tmpl)
	id2 := ComputeID("author-a", tmpl)
	if id1 != id2 {
		t.Errorf("identical templates produced different ids: %s vs %s", id1, id2)
	}
	if len(id1) != 64 {
		t.Errorf("expected 64-char hex id, got %d chars", len(id1))
	}

	// Any field change must change the id
	changed := tmpl
	changed.Content = "hello!"
	if ComputeID("author-a", changed) == id1 {
		t.Error("content change did not change id")
	}
	if ComputeID("author-b", tmpl) == id1 {
		t.Error("author change did not change id")
	}
}

func TestRecordReplaceable(t *testing.T) {
	tests := []struct {
		kind int
		want bool
	}{
		{1, false},
		{5, false},
		{10002, true},
		{30001, true},
		{31234, true},
		{39999, true},
		{40000, false},
	}

	for _, tt := range tests {
		r := &Record{Kind: tt.kind}
		if got := r.Replaceable(); got != tt.want {
			t.Errorf("kind %d: Replaceable() = %v, want %v", tt.kind, got, tt.want)
		}
	}
}

func TestRecordDiscriminatorAndAddress(t *testing.T) {
	r := &Record{
		Author: "author-a",
		Kind:   31234,
		Tags:   []Tag{TitleTag("My article"), DTag("my-article")},
	}

	if got := r.Discriminator(); got != "my-article" {
		t.Errorf("Discriminator() = %q, want %q", got, "my-article")
	}
	if got := r.Address(); got != "31234:author-a:my-article" {
		t.Errorf("Address() = %q, want %q", got, "31234:author-a:my-article")
	}

	empty := &Record{Kind: 31234}
	if got := empty.Discriminator(); got != "" {
		t.Errorf("Discriminator() on untagged record = %q, want empty", got)
	}
}

func TestRecordSupersedes(t *testing.T) {
	older := &Record{ID: "bbb", CreatedAt: 100}
	newer := &Record{ID: "aaa", CreatedAt: 200}

	if !newer.Supersedes(older) {
		t.Error("newer record should supersede older")
	}
	if older.Supersedes(newer) {
		t.Error("older record should not supersede newer")
	}

	// Equal timestamps break ties on lexically smaller id, both ways.
	tieA := &Record{ID: "aaa", CreatedAt: 100}
	tieB := &Record{ID: "bbb", CreatedAt: 100}
	if !tieA.Supersedes(tieB) {
		t.Error("tie should resolve toward lexically smaller id")
	}
	if tieB.Supersedes(tieA) {
		t.Error("tie resolution must be asymmetric")
	}
}

func TestFilterMatches(t *testing.T) {
	rec := &Record{
		ID:     "id-1",
		Author: "author-a",
		Kind:   31234,
		Tags:   []Tag{DTag("slug"), ETag("ref-1"), PTag("author-b")},
	}

	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty filter matches all", Filter{}, true},
		{"author match", Filter{Authors: []string{"author-a"}}, true},
		{"author mismatch", Filter{Authors: []string{"author-x"}}, false},
		{"kind match", Filter{Kinds: []int{31234}}, true},
		{"kind mismatch", Filter{Kinds: []int{1}}, false},
		{"discriminator match", Filter{Discriminators: []string{"slug"}}, true},
		{"discriminator mismatch", Filter{Discriminators: []string{"other"}}, false},
		{"reference match", Filter{References: []string{"ref-1"}}, true},
		{"subject match", Filter{Subjects: []string{"author-b"}}, true},
		{"combined constraints", Filter{Authors: []string{"author-a"}, Kinds: []int{31234}, Discriminators: []string{"slug"}}, true},
		{"one failing dimension fails", Filter{Authors: []string{"author-a"}, Kinds: []int{1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(rec); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
