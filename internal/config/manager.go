// Package config loads the store configuration shared by every process
// that talks to the same backend.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"github.com/hkloudou/lakeops/internal/cache"
	"github.com/hkloudou/lakeops/internal/storage"
	"github.com/hkloudou/lakeops/internal/xsync"
	"github.com/redis/go-redis/v9"
)

// SettingKey is the Redis key holding the JSON Config.
const SettingKey = "lakeops.setting"

// ErrNotConfigured is returned by Load when SettingKey is missing.
var ErrNotConfigured = errors.New(SettingKey + " not found in Redis")

// Manager manages configuration stored in Redis
type Manager struct {
	rdb    *redis.Client
	flight xsync.SingleFlight[*Config]
}

func NewManager(rdb *redis.Client) *Manager {
	return &Manager{
		rdb:    rdb,
		flight: xsync.NewSingleFlight[*Config](),
	}
}

// Config is the store configuration
type Config struct {
	Name      string `json:"Name"`
	Storage   string `json:"Storage"`   // "memory" | "file" | "oss"
	BasePath  string `json:"BasePath"`  // file storage root
	Bucket    string `json:"Bucket"`    // OSS bucket name
	Endpoint  string `json:"Endpoint"`  // OSS endpoint
	Internal  bool   `json:"Internal"`  // use the OSS internal endpoint
	AccessKey string `json:"AccessKey"` // Access key
	SecretKey string `json:"SecretKey"` // Secret key
	AESPwd    string `json:"AESPwd"`    // AES encryption password, empty disables encryption
	Cache     string `json:"Cache"`     // "none" | "memory" | "redis"
	CacheTTL  int    `json:"CacheTTL"`  // seconds, default 300
}

// Load reads SettingKey. Concurrent callers share one Redis round trip.
func (m *Manager) Load(ctx context.Context) (*Config, error) {
	return m.flight.Do(SettingKey, func() (*Config, error) {
		return m.load(ctx)
	})
}

func (m *Manager) load(ctx context.Context) (*Config, error) {
	data, err := m.rdb.Get(ctx, SettingKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotConfigured
		}
		return nil, fmt.Errorf("failed to read config from Redis: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to SettingKey
func (m *Manager) Save(ctx context.Context, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := m.rdb.Set(ctx, SettingKey, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save config to Redis: %w", err)
	}
	return nil
}

// CreateStorage creates the storage backend named by cfg.Storage
func (cfg *Config) CreateStorage() (storage.Storage, error) {
	switch cfg.Storage {
	case "memory", "":
		return storage.NewMemoryStorage(cfg.Name), nil

	case "file", "local":
		if cfg.BasePath == "" {
			return nil, fmt.Errorf("file storage requires BasePath")
		}
		return storage.NewFileStorage(storage.FileConfig{
			Name:     cfg.Name,
			BasePath: cfg.BasePath,
			AESKey:   cfg.AESPwd,
		})

	case "oss":
		return storage.NewOSSStorage(storage.OSSConfig{
			Name:      cfg.Name,
			Endpoint:  cfg.Endpoint,
			Bucket:    cfg.Bucket,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			AESKey:    cfg.AESPwd,
			Internal:  cfg.Internal,
		})

	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Storage)
	}
}

// CreateCache creates the read cache named by cfg.Cache. prefix namespaces
// Redis cache keys, normally Storage.RedisPrefix().
func (cfg *Config) CreateCache(rdb *redis.Client, prefix string, log logr.Logger) (cache.Cache, error) {
	ttl := time.Duration(cfg.CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	switch cfg.Cache {
	case "none", "":
		return cache.NewNoOpCache(), nil
	case "memory":
		return cache.NewMemoryCache(ttl), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("redis cache requires a Redis client")
		}
		return cache.NewRedisCache(rdb, prefix, ttl, log), nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s", cfg.Cache)
	}
}

// DefaultConfig returns an in-memory configuration for tests and local use
func DefaultConfig() *Config {
	return &Config{
		Name:    "lakeops",
		Storage: "memory",
		Cache:   "none",
	}
}
