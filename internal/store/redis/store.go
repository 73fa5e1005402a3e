package redis

import (
	"github.com/redis/go-redis/v9"
)

// Store handles Redis operations for drafts, collections, tombstones and
// the endpoint list. Values are stored as JSON without expiry: this is
// the durable side of the local-first state and must survive restarts.
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}
