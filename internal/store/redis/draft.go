package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SaveDraft stores a draft in Redis
func (s *Store) SaveDraft(ctx context.Context, draft *domain.Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	key := DraftKey(draft.ID)

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save draft: %w", err)
	}

	if err := s.client.SAdd(ctx, KeyAllDrafts, draft.ID).Err(); err != nil {
		return fmt.Errorf("failed to add draft to set: %w", err)
	}

	return nil
}

// GetDraft retrieves a draft from Redis by ID
func (s *Store) GetDraft(ctx context.Context, id string) (*domain.Draft, error) {
	data, err := s.client.Get(ctx, DraftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("draft not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get draft: %w", err)
	}

	var draft domain.Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}

	return &draft, nil
}

// GetAllDrafts retrieves all drafts from Redis
func (s *Store) GetAllDrafts(ctx context.Context) ([]*domain.Draft, error) {
	ids, err := s.client.SMembers(ctx, KeyAllDrafts).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get draft IDs: %w", err)
	}

	drafts := make([]*domain.Draft, 0, len(ids))
	for _, id := range ids {
		draft, err := s.GetDraft(ctx, id)
		if err != nil {
			// Skip drafts that couldn't be retrieved
			continue
		}
		drafts = append(drafts, draft)
	}

	return drafts, nil
}

// DeleteDraft removes a draft from Redis
func (s *Store) DeleteDraft(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, DraftKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft: %w", err)
	}

	if err := s.client.SRem(ctx, KeyAllDrafts, id).Err(); err != nil {
		return fmt.Errorf("failed to remove draft from set: %w", err)
	}

	return nil
}

// SaveDraftsMany stores multiple drafts in Redis (bulk operation)
func (s *Store) SaveDraftsMany(ctx context.Context, drafts []*domain.Draft) error {
	pipe := s.client.Pipeline()

	for _, draft := range drafts {
		data, err := json.Marshal(draft)
		if err != nil {
			return fmt.Errorf("failed to marshal draft %s: %w", draft.ID, err)
		}

		pipe.Set(ctx, DraftKey(draft.ID), data, 0)
		pipe.SAdd(ctx, KeyAllDrafts, draft.ID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save drafts: %w", err)
	}

	return nil
}
