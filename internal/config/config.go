package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8090"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	AuthorPubkey string // hex public key of the local author (required)

	RelayFile    string        // path to relays.yaml seeding the endpoint list (optional)
	SyncInterval time.Duration // interval between background draft syncs (default: 5m)

	AutosaveDebounce time.Duration // debounce window for editor changes (default: 500ms)
	SavedDisplay     time.Duration // how long the "saved" state is shown (default: 2s)

	DraftKind      int // record kind used for mirrored drafts
	DeletionKind   int // record kind used for delete markers
	StackKind      int // record kind used for collections
	ProfileKind    int // record kind used for author profiles
	ReactionKind   int // record kind counted as a reaction
	ReplyKind      int // record kind counted as a reply

	// Redis
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts
}

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("NOTESTACK_LISTEN_PORT", ":8090"),
		ShutdownTimeout: mustDuration("NOTESTACK_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("NOTESTACK_LOG_LEVEL", "info"),
		PrettyLog: mustBool("NOTESTACK_PRETTY_LOG", true),

		// Author identity
		AuthorPubkey: requireEnv("NOTESTACK_AUTHOR_PUBKEY"),

		// Sync settings
		RelayFile:    getenv("NOTESTACK_RELAY_FILE", ""),
		SyncInterval: mustDuration("NOTESTACK_SYNC_INTERVAL", 5*time.Minute),

		// Autosave settings
		AutosaveDebounce: mustDuration("NOTESTACK_AUTOSAVE_DEBOUNCE", 500*time.Millisecond),
		SavedDisplay:     mustDuration("NOTESTACK_SAVED_DISPLAY", 2*time.Second),

		// Record kinds (defaults follow the replaceable 30000..39999 range
		// for drafts and stacks; overridable per deployment)
		DraftKind:    getenvInt("NOTESTACK_DRAFT_KIND", 31234),
		DeletionKind: getenvInt("NOTESTACK_DELETION_KIND", 5),
		StackKind:    getenvInt("NOTESTACK_STACK_KIND", 30001),
		ProfileKind:  getenvInt("NOTESTACK_PROFILE_KIND", 0),
		ReactionKind: getenvInt("NOTESTACK_REACTION_KIND", 7),
		ReplyKind:    getenvInt("NOTESTACK_REPLY_KIND", 1),

		// Redis settings
		RedisAddr:           requireEnv("NOTESTACK_REDIS_ADDR"),
		RedisUser:           getenv("NOTESTACK_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("NOTESTACK_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("NOTESTACK_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),
	}

	if len(cfg.AuthorPubkey) != 64 {
		panic(fmt.Sprintf("❌ FATAL: NOTESTACK_AUTHOR_PUBKEY must be a 64-char hex key, got %d chars", len(cfg.AuthorPubkey)))
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
