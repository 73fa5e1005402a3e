package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nodetec/notestack-sub002/internal/autosave"
	"github.com/nodetec/notestack-sub002/internal/cache"
	"github.com/nodetec/notestack-sub002/internal/collections"
	"github.com/nodetec/notestack-sub002/internal/config"
	"github.com/nodetec/notestack-sub002/internal/domain"
	"github.com/nodetec/notestack-sub002/internal/httpserver"
	"github.com/nodetec/notestack-sub002/internal/httpserver/deps"
	"github.com/nodetec/notestack-sub002/internal/index"
	"github.com/nodetec/notestack-sub002/internal/logger"
	"github.com/nodetec/notestack-sub002/internal/redis"
	"github.com/nodetec/notestack-sub002/internal/relay"
	"github.com/nodetec/notestack-sub002/internal/scheduler"
	"github.com/nodetec/notestack-sub002/internal/sources/relays"
	redisstore "github.com/nodetec/notestack-sub002/internal/store/redis"
	"github.com/nodetec/notestack-sub002/internal/syncer"
	"github.com/nodetec/notestack-sub002/internal/version"
)

// Capabilities are the pluggable signing and transport primitives. Nil
// fields fall back to unconfigured stand-ins, which keeps the process
// useful for purely local work.
type Capabilities struct {
	Signer    relay.Signer
	Publisher relay.Publisher
	Querier   relay.Querier
}

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	memIndex    *index.MemoryIndex
	autosave    *autosave.Scheduler
	syncRunner  *scheduler.DraftSyncRunner
}

func New(caps Capabilities) *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	if caps.Signer == nil {
		caps.Signer = relay.UnconfiguredSigner{}
	}
	if caps.Publisher == nil {
		caps.Publisher = relay.UnconfiguredTransport{}
	}
	if caps.Querier == nil {
		caps.Querier = relay.UnconfiguredTransport{}
	}

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	memIndex := index.NewMemoryIndex()
	store := redisstore.NewStore(redisClient)

	// Hydrate the memory index so reads never wait on Redis
	hydrator := scheduler.NewHydrator(store, memIndex, loggerClient)
	if err := hydrator.Hydrate(context.Background()); err != nil {
		loggerClient.Warn("failed to hydrate from redis on startup, starting empty",
			logger.Error(err))
	}

	endpoints := loadEndpoints(cfg, store, loggerClient)

	aggregator := relay.NewAggregator(caps.Publisher, loggerClient)

	// The autosave scheduler writes through the engine, and the engine
	// resets autosave suppression when a remote copy wins. Declared first
	// so the engine callbacks can capture it.
	var autosaveSched *autosave.Scheduler

	engine := syncer.NewEngine(syncer.Options{
		Author:       cfg.AuthorPubkey,
		DraftKind:    cfg.DraftKind,
		DeletionKind: cfg.DeletionKind,
		Store:        store,
		Index:        memIndex,
		Endpoints:    endpoints,
		Signer:       caps.Signer,
		Querier:      caps.Querier,
		Aggregator:   aggregator,
		Logger:       loggerClient,
		Callbacks: syncer.Callbacks{
			OnRemoteNewer: func(draft *domain.Draft) {
				if autosaveSched != nil {
					autosaveSched.SetActive(draft.ID)
				}
			},
			OnRemoteDeleted: func(draftID string) {
				loggerClient.Info("draft removed by remote delete marker",
					logger.String("draft_id", draftID))
			},
		},
	})

	autosaveSched = autosave.NewScheduler(engine, loggerClient, cfg.AutosaveDebounce, cfg.SavedDisplay)

	collectionStore := collections.NewStore(collections.Options{
		Author:     cfg.AuthorPubkey,
		StackKind:  cfg.StackKind,
		Persister:  store,
		Index:      memIndex,
		Endpoints:  endpoints,
		Signer:     caps.Signer,
		Aggregator: aggregator,
		Logger:     loggerClient,
	})

	profileCache := cache.NewProfileCache(caps.Querier, endpoints, cfg.ProfileKind, loggerClient)
	interactionCache := cache.NewInteractionCache(caps.Querier, endpoints, cfg.ReactionKind, cfg.ReplyKind, loggerClient)

	syncTrigger := make(chan struct{}, 1)
	syncRunner := scheduler.NewDraftSyncRunner(engine, loggerClient, cfg.SyncInterval, syncTrigger)

	d := deps.Deps{
		Logger:       loggerClient,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		RedisClient:  redisClient,
		MemoryIndex:  memIndex,
		Autosave:     autosaveSched,
		Engine:       engine,
		Collections:  collectionStore,
		Profiles:     profileCache,
		Interactions: interactionCache,
		Endpoints:    endpoints,
		SyncTrigger:  syncTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		memIndex:    memIndex,
		autosave:    autosaveSched,
		syncRunner:  syncRunner,
	}
}

// loadEndpoints restores the endpoint registry from Redis, seeding it
// from the relay file on first run.
func loadEndpoints(cfg *config.Config, store *redisstore.Store, log logger.Logger) *relay.Endpoints {
	list, active, err := store.GetEndpoints(context.Background())
	if err != nil {
		log.Warn("failed to load endpoints from redis", logger.Error(err))
	}

	if len(list) == 0 && cfg.RelayFile != "" {
		seed, err := relays.NewLoader(cfg.RelayFile).Load()
		if err != nil {
			log.Warn("failed to load relay seed file",
				logger.String("file", cfg.RelayFile),
				logger.Error(err))
		} else {
			list = seed.Relays
			active = seed.Active
			log.Info("endpoint list seeded from relay file",
				logger.String("file", cfg.RelayFile),
				logger.Int("relays", len(list)))
			if err := store.SaveEndpoints(context.Background(), list, active); err != nil {
				log.Warn("failed to persist seeded endpoints", logger.Error(err))
			}
		}
	}

	return relay.NewEndpoints(list, active, store)
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting notestack v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("notestack %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start the periodic draft sync (runs one sync immediately)
	if err := a.syncRunner.Start(ctx); err != nil {
		return fmt.Errorf("failed to start draft sync runner: %w", err)
	}
	a.logger.Info("draft sync runner started",
		logger.Duration("interval", a.cfg.SyncInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	a.syncRunner.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	// Flush any pending autosave before the process exits
	a.autosave.Flush(shutdownCtx)

	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ notestack stopped cleanly")
	return nil
}
