package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nodetec/notestack-sub002/internal/domain"
)

// SaveTombstone records a pending draft deletion whose delete marker has
// not yet reached any endpoint.
func (s *Store) SaveTombstone(ctx context.Context, t *domain.Tombstone) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal tombstone: %w", err)
	}

	if err := s.client.Set(ctx, TombstoneKey(t.DraftID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save tombstone: %w", err)
	}

	if err := s.client.SAdd(ctx, KeyAllTombstones, t.DraftID).Err(); err != nil {
		return fmt.Errorf("failed to add tombstone to set: %w", err)
	}

	return nil
}

// GetAllTombstones retrieves all pending tombstones
func (s *Store) GetAllTombstones(ctx context.Context) ([]*domain.Tombstone, error) {
	ids, err := s.client.SMembers(ctx, KeyAllTombstones).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get tombstone IDs: %w", err)
	}

	tombstones := make([]*domain.Tombstone, 0, len(ids))
	for _, id := range ids {
		data, err := s.client.Get(ctx, TombstoneKey(id)).Bytes()
		if err != nil {
			continue
		}
		var t domain.Tombstone
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		tombstones = append(tombstones, &t)
	}

	return tombstones, nil
}

// DeleteTombstone removes a tombstone once its delete marker reached an
// endpoint.
func (s *Store) DeleteTombstone(ctx context.Context, draftID string) error {
	if err := s.client.Del(ctx, TombstoneKey(draftID)).Err(); err != nil {
		return fmt.Errorf("failed to delete tombstone: %w", err)
	}

	if err := s.client.SRem(ctx, KeyAllTombstones, draftID).Err(); err != nil {
		return fmt.Errorf("failed to remove tombstone from set: %w", err)
	}

	return nil
}
