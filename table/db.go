// Package table is a small JSON document store built on the transform
// library. Documents live in tables, get sequential ids on insert and are
// changed in place with lakeops transforms.
package table

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/hkloudou/lakeops/internal/cache"
	"github.com/hkloudou/lakeops/internal/config"
	"github.com/hkloudou/lakeops/internal/encode"
	"github.com/hkloudou/lakeops/internal/index"
	"github.com/hkloudou/lakeops/internal/storage"
	"github.com/redis/go-redis/v9"
)

// DB groups the tables sharing one storage backend
type DB struct {
	rdb       *redis.Client // nil unless opened with OpenRedis
	configMgr *config.Manager
	log       logr.Logger
	policy    Policy

	// Lazy-loaded components
	mu       sync.RWMutex
	storage  storage.Storage
	cache    cache.Cache
	sequence index.Sequence
	config   *config.Config

	tablesMu sync.Mutex
	tables   map[string]*Table
}

// Option configures a DB
type Option struct {
	Storage       storage.Storage
	CacheProvider cache.Cache
	Sequence      index.Sequence
	Logger        logr.Logger
	Policy        Policy
	err           error
}

// WithStorage sets the storage backend
func WithStorage(storage storage.Storage) func(*Option) {
	return func(opt *Option) {
		opt.Storage = storage
	}
}

// WithFileStorage stores documents under basePath, gzip compressed and,
// when aesKey is set, AES-GCM encrypted.
func WithFileStorage(basePath, aesKey string) func(*Option) {
	return func(opt *Option) {
		stor, err := storage.NewFileStorage(storage.FileConfig{Name: "local", BasePath: basePath, AESKey: aesKey})
		if err != nil {
			opt.err = err
			return
		}
		opt.Storage = stor
	}
}

// WithCache sets the read cache
func WithCache(cacheProvider cache.Cache) func(*Option) {
	return func(opt *Option) {
		opt.CacheProvider = cacheProvider
	}
}

// WithMemoryCache caches loaded documents in process memory for ttl
func WithMemoryCache(ttl time.Duration) func(*Option) {
	return func(opt *Option) {
		opt.CacheProvider = cache.NewMemoryCache(ttl)
	}
}

// WithSequence sets the id generator
func WithSequence(seq index.Sequence) func(*Option) {
	return func(opt *Option) {
		opt.Sequence = seq
	}
}

// WithLogger sets the logger; the default discards everything
func WithLogger(log logr.Logger) func(*Option) {
	return func(opt *Option) {
		opt.Logger = log
	}
}

// WithPolicy sets the Update failure policy (default AbortOnError)
func WithPolicy(policy Policy) func(*Option) {
	return func(opt *Option) {
		opt.Policy = policy
	}
}

func newOption(opts []func(*Option)) (*Option, error) {
	option := &Option{Logger: logr.Discard()}
	for _, opt := range opts {
		opt(option)
	}
	if option.err != nil {
		return nil, option.err
	}
	return option, nil
}

// Open creates a DB that needs no Redis. Storage defaults to memory, the
// cache to none and ids come from an in-process sequence.
func Open(opts ...func(*Option)) (*DB, error) {
	option, err := newOption(opts)
	if err != nil {
		return nil, err
	}

	db := newDB(option)
	if db.storage == nil {
		db.storage = storage.NewMemoryStorage("default")
	}
	if db.sequence == nil {
		db.sequence = index.NewMemorySequence()
	}
	return db, nil
}

// OpenRedis creates a DB coordinated through Redis. Without WithStorage,
// storage and cache are built from the configuration stored under
// config.SettingKey, loaded lazily on first use. Ids come from a Redis
// sequence shared by every process.
func OpenRedis(metaURL string, opts ...func(*Option)) (*DB, error) {
	redisOpt, err := redis.ParseURL(metaURL)
	if err != nil {
		// fall back to treating it as an address
		redisOpt = &redis.Options{Addr: metaURL}
	}
	return OpenRedisClient(redis.NewClient(redisOpt), opts...)
}

// OpenRedisClient is OpenRedis with an existing client. Close closes it.
func OpenRedisClient(rdb *redis.Client, opts ...func(*Option)) (*DB, error) {
	option, err := newOption(opts)
	if err != nil {
		return nil, err
	}
	db := newDB(option)
	db.rdb = rdb
	db.configMgr = config.NewManager(rdb)
	return db, nil
}

func newDB(option *Option) *DB {
	return &DB{
		log:      option.Logger,
		policy:   option.Policy,
		storage:  option.Storage,
		cache:    option.CacheProvider,
		sequence: option.Sequence,
		tables:   make(map[string]*Table),
	}
}

// ensureInitialized fills in the components not given as options,
// loading the configuration from Redis when storage is missing.
func (db *DB) ensureInitialized(ctx context.Context) error {
	db.mu.RLock()
	ready := db.storage != nil && db.cache != nil && db.sequence != nil
	db.mu.RUnlock()
	if ready {
		return nil
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	// double-check after acquiring write lock
	if db.storage != nil && db.cache != nil && db.sequence != nil {
		return nil
	}

	if db.storage == nil {
		if db.configMgr == nil {
			return fmt.Errorf("no storage configured")
		}
		cfg, err := db.configMgr.Load(ctx)
		if err != nil {
			return fmt.Errorf("failed to load config from Redis (%s): %w", config.SettingKey, err)
		}
		db.config = cfg

		stor, err := db.config.CreateStorage()
		if err != nil {
			return fmt.Errorf("failed to create %s storage: %w", db.config.Storage, err)
		}
		db.storage = stor
		db.log.Info("storage ready", "type", db.config.Storage, "prefix", stor.RedisPrefix())
	}

	if db.cache == nil {
		if db.config == nil {
			db.cache = cache.NewNoOpCache()
		} else {
			c, err := db.config.CreateCache(db.rdb, db.storage.RedisPrefix(), db.log.WithName("cache"))
			if err != nil {
				return err
			}
			db.cache = c
		}
	}

	if db.sequence == nil {
		if db.rdb != nil {
			db.sequence = index.NewRedisSequence(db.rdb, db.storage.RedisPrefix())
		} else {
			db.sequence = index.NewMemorySequence()
		}
	}
	return nil
}

// Table returns the named table, creating the handle on first use.
// Handles are shared, so every caller of one DB serializes writes on the
// same table.
func (db *DB) Table(name string) (*Table, error) {
	if err := encode.ValidateTableName(name); err != nil {
		return nil, err
	}

	db.tablesMu.Lock()
	defer db.tablesMu.Unlock()

	if t, ok := db.tables[name]; ok {
		return t, nil
	}
	t := &Table{
		db:   db,
		name: name,
		log:  db.log.WithValues("table", name),
	}
	db.tables[name] = t
	return t, nil
}

// Close stops cache background work and closes the Redis client, if any.
func (db *DB) Close() error {
	db.mu.RLock()
	c := db.cache
	db.mu.RUnlock()

	if closer, ok := c.(interface{ Close() }); ok {
		closer.Close()
	}
	if db.rdb != nil {
		return db.rdb.Close()
	}
	return nil
}

// components returns the initialized backends.
func (db *DB) components(ctx context.Context) (storage.Storage, cache.Cache, index.Sequence, error) {
	if err := db.ensureInitialized(ctx); err != nil {
		return nil, nil, nil, err
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.storage, db.cache, db.sequence, nil
}
