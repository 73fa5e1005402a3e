package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// endpointState is the persisted shape of the endpoint registry.
type endpointState struct {
	Endpoints []string `json:"endpoints"`
	Active    string   `json:"active"`
}

// SaveEndpoints persists the endpoint list and the active endpoint.
// Implements relay.EndpointPersister.
func (s *Store) SaveEndpoints(ctx context.Context, endpoints []string, active string) error {
	data, err := json.Marshal(endpointState{Endpoints: endpoints, Active: active})
	if err != nil {
		return fmt.Errorf("failed to marshal endpoints: %w", err)
	}

	if err := s.client.Set(ctx, KeyEndpoints, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save endpoints: %w", err)
	}

	return nil
}

// GetEndpoints retrieves the persisted endpoint list and active endpoint.
// A missing key is not an error: it means the list was never seeded.
func (s *Store) GetEndpoints(ctx context.Context) ([]string, string, error) {
	data, err := s.client.Get(ctx, KeyEndpoints).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to get endpoints: %w", err)
	}

	var state endpointState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal endpoints: %w", err)
	}

	return state.Endpoints, state.Active, nil
}
