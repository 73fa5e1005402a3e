package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
)

type profileEntry struct {
	Profile domain.Profile `json:"profile"`
	Loading bool           `json:"loading"`
}

type interactionEntry struct {
	Counts  domain.InteractionCounts `json:"counts"`
	Loading bool                     `json:"loading"`
}

// Profiles returns cached profiles for the requested authors. Unknown
// authors come back loading with an empty profile; asking for them is
// what enqueues the batched fetch.
func Profiles(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authors := splitParam(r.URL.Query().Get("authors"))
		if len(authors) == 0 {
			http.Error(w, "authors query parameter is required", http.StatusBadRequest)
			return
		}

		out := make(map[string]profileEntry, len(authors))
		for _, author := range authors {
			p, ok := d.Profiles.Get(author)
			out[author] = profileEntry{Profile: p, Loading: !ok}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

// Interactions returns cached reaction/reply counts for the requested
// record ids.
func Interactions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ids := splitParam(r.URL.Query().Get("ids"))
		if len(ids) == 0 {
			http.Error(w, "ids query parameter is required", http.StatusBadRequest)
			return
		}

		out := make(map[string]interactionEntry, len(ids))
		for _, id := range ids {
			counts, ok := d.Interactions.Get(id)
			out[id] = interactionEntry{Counts: counts, Loading: !ok}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
