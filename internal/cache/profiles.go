package cache

import (
	"context"
	"fmt"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/relay"
)

// NewProfileCache coalesces per-author profile lookups into one query
// against the active endpoint. Keys are author pubkeys; the default is
// the empty profile.
func NewProfileCache(q relay.Querier, endpoints *relay.Endpoints, profileKind int, log logger.Logger) *Coalescer[domain.Profile] {
	fetch := func(ctx context.Context, authors []string) (map[string]domain.Profile, error) {
		endpoint := endpoints.Active()
		if endpoint == "" {
			return nil, fmt.Errorf("no active endpoint configured")
		}

		recs, err := q.QueryEndpoint(ctx, domain.Filter{
			Authors: authors,
			Kinds:   []int{profileKind},
		}, endpoint)
		if err != nil {
			return nil, fmt.Errorf("profile query failed: %w", err)
		}

		// Keep only the newest metadata record per author.
		newest := make(map[string]*domain.Record, len(authors))
		for _, rec := range recs {
			if cur, ok := newest[rec.Author]; !ok || rec.Supersedes(cur) {
				newest[rec.Author] = rec
			}
		}

		out := make(map[string]domain.Profile, len(newest))
		for author, rec := range newest {
			out[author] = domain.ParseProfile(rec)
		}
		return out, nil
	}

	return NewCoalescer("profiles", fetch, domain.Profile{}, log)
}
