package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SaveCollection stores a collection in Redis
func (s *Store) SaveCollection(ctx context.Context, c *domain.Collection) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	key := CollectionKey(c.ID())

	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save collection: %w", err)
	}

	if err := s.client.SAdd(ctx, KeyAllCollections, c.ID()).Err(); err != nil {
		return fmt.Errorf("failed to add collection to set: %w", err)
	}

	return nil
}

// GetCollection retrieves a collection from Redis by ID
func (s *Store) GetCollection(ctx context.Context, id string) (*domain.Collection, error) {
	data, err := s.client.Get(ctx, CollectionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("collection not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	var c domain.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal collection: %w", err)
	}

	return &c, nil
}

// GetAllCollections retrieves all collections from Redis
func (s *Store) GetAllCollections(ctx context.Context) ([]*domain.Collection, error) {
	ids, err := s.client.SMembers(ctx, KeyAllCollections).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get collection IDs: %w", err)
	}

	collections := make([]*domain.Collection, 0, len(ids))
	for _, id := range ids {
		c, err := s.GetCollection(ctx, id)
		if err != nil {
			continue
		}
		collections = append(collections, c)
	}

	return collections, nil
}

// DeleteCollection removes a collection from Redis
func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, CollectionKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}

	if err := s.client.SRem(ctx, KeyAllCollections, id).Err(); err != nil {
		return fmt.Errorf("failed to remove collection from set: %w", err)
	}

	return nil
}
