package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nodetec/notestack-sub002/internal/autosave"
	"github.com/nodetec/notestack-sub002/internal/cache"
	"github.com/nodetec/notestack-sub002/internal/collections"
	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/index"
	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/relay"
	"github.com/nodetec/notestack-sub002/internal/syncer"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time                           // for testing, defaults to time.Now
	RedisClient  *redis.Client                              // Redis client connection
	MemoryIndex  *index.MemoryIndex                         // In-memory draft/collection index
	Autosave     *autosave.Scheduler                        // Debounced draft autosave
	Engine       *syncer.Engine                             // Draft reconciliation engine
	Collections  *collections.Store                         // Optimistic collection store
	Profiles     *cache.Coalescer[domain.Profile]           // Batched profile lookups
	Interactions *cache.Coalescer[domain.InteractionCounts] // Batched interaction counts
	Endpoints    *relay.Endpoints                           // Relay endpoint registry
	SyncTrigger  chan struct{}                              // Channel to trigger a background sync
}
