package cache

import (
	"context"
	"fmt"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/relay"
)

// NewInteractionCache coalesces per-record interaction lookups into one
// query against the active endpoint. Keys are target record ids; the
// default is zero counts. Counts are recomputed live on every fetch,
// never persisted.
func NewInteractionCache(q relay.Querier, endpoints *relay.Endpoints, reactionKind, replyKind int, log logger.Logger) *Coalescer[domain.InteractionCounts] {
	fetch := func(ctx context.Context, targetIDs []string) (map[string]domain.InteractionCounts, error) {
		endpoint := endpoints.Active()
		if endpoint == "" {
			return nil, fmt.Errorf("no active endpoint configured")
		}

		recs, err := q.QueryEndpoint(ctx, domain.Filter{
			Kinds:      []int{reactionKind, replyKind},
			References: targetIDs,
		}, endpoint)
		if err != nil {
			return nil, fmt.Errorf("interaction query failed: %w", err)
		}

		wanted := make(map[string]bool, len(targetIDs))
		for _, id := range targetIDs {
			wanted[id] = true
		}

		out := make(map[string]domain.InteractionCounts, len(targetIDs))
		for _, rec := range recs {
			for _, ref := range rec.TagValues(domain.TagEvent) {
				if !wanted[ref] {
					continue
				}
				counts := out[ref]
				switch rec.Kind {
				case reactionKind:
					counts.Reactions++
				case replyKind:
					counts.Replies++
				}
				out[ref] = counts
			}
		}
		return out, nil
	}

	return NewCoalescer("interactions", fetch, domain.InteractionCounts{}, log)
}
