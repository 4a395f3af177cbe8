package authcore

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	memoryregistry "github.com/formlane/authcore/pkg/registry/memory"
	redisregistry "github.com/formlane/authcore/pkg/registry/redis"
	"github.com/formlane/authcore/pkg/storage/postgres"
)

type StorageBackend string

const (
	StorageBackendNone     StorageBackend = "none"
	StorageBackendPostgres StorageBackend = "postgres"
)

type RegistryBackend string

const (
	RegistryBackendNone   RegistryBackend = "none"
	RegistryBackendMemory RegistryBackend = "memory"
	RegistryBackendRedis  RegistryBackend = "redis"
)

type RuntimeConfig struct {
	Storage  StorageConfig
	Registry RegistryConfig
}

type StorageConfig struct {
	Backend  StorageBackend
	Postgres PostgresConfig
}

type PostgresConfig struct {
	DriverName      string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	OpenDB          func(driverName string, dsn string) (*sql.DB, error)
}

type RegistryConfig struct {
	Backend RegistryBackend
	Memory  MemoryRegistryConfig
	Redis   RedisRegistryConfig
}

type MemoryRegistryConfig struct{}

type RedisRegistryConfig struct {
	Address     string
	Username    string
	Password    string
	Database    int
	Namespace   string
	DialTimeout time.Duration
}

func (c Config) initialize(ctx context.Context) (func() error, Config, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	config := c
	config.Logger = resolveLogger(config.Logger)

	closeStorage, config, err := initializeStorage(ctx, config)
	if err != nil {
		return nil, Config{}, err
	}

	closeRegistry, config, err := initializeRegistry(config)
	if err != nil {
		_ = closeStorage()
		return nil, Config{}, err
	}

	return joinClosers(closeStorage, closeRegistry), config, nil
}

func initializeStorage(ctx context.Context, config Config) (func() error, Config, error) {
	backend := config.Runtime.Storage.Backend
	if backend == "" {
		backend = StorageBackendNone
	}

	switch backend {
	case StorageBackendNone:
		return noopCloser, config, nil
	case StorageBackendPostgres:
		return initializePostgres(ctx, config)
	default:
		return nil, Config{}, fmt.Errorf("authcore config: unsupported runtime.storage.backend %q", backend)
	}
}

func initializeRegistry(config Config) (func() error, Config, error) {
	backend := config.Runtime.Registry.Backend
	if backend == "" {
		backend = RegistryBackendNone
	}

	switch backend {
	case RegistryBackendNone:
		return noopCloser, config, nil
	case RegistryBackendMemory:
		return initializeMemoryRegistry(config)
	case RegistryBackendRedis:
		return initializeRedisRegistry(config)
	default:
		return nil, Config{}, fmt.Errorf("authcore config: unsupported runtime.registry.backend %q", backend)
	}
}

func initializeMemoryRegistry(config Config) (func() error, Config, error) {
	if config.Registry == nil {
		config.Registry = memoryregistry.NewAdapter()
	}

	config.Logger.V(1).Info("initialized memory registry backend")
	return noopCloser, config, nil
}

func initializeRedisRegistry(config Config) (func() error, Config, error) {
	if config.Registry != nil {
		// Caller-supplied registry wins; nothing to dial.
		return noopCloser, config, nil
	}

	redisConfig := config.Runtime.Registry.Redis
	if redisConfig.Address == "" {
		return nil, Config{}, fmt.Errorf("authcore config: runtime.registry.redis.address is required")
	}
	if redisConfig.DialTimeout <= 0 {
		redisConfig.DialTimeout = 5 * time.Second
	}

	adapter := redisregistry.NewAdapter(redisregistry.Config{
		Address:     redisConfig.Address,
		Username:    redisConfig.Username,
		Password:    redisConfig.Password,
		Database:    redisConfig.Database,
		Namespace:   redisConfig.Namespace,
		DialTimeout: redisConfig.DialTimeout,
	})
	config.Registry = adapter

	config.Runtime.Registry.Redis = redisConfig
	config.Logger.V(1).Info("initialized redis registry backend", "address", redisConfig.Address, "database", redisConfig.Database, "namespace", redisConfig.Namespace)
	return adapter.Close, config, nil
}

func initializePostgres(ctx context.Context, config Config) (func() error, Config, error) {
	if config.Principals != nil {
		// Caller-supplied store wins; nothing to dial.
		return noopCloser, config, nil
	}

	pgConfig := config.Runtime.Storage.Postgres
	if pgConfig.DSN == "" {
		return nil, Config{}, fmt.Errorf("authcore config: runtime.storage.postgres.dsn is required")
	}

	if pgConfig.DriverName == "" {
		pgConfig.DriverName = "pgx"
	}
	if pgConfig.PingTimeout <= 0 {
		pgConfig.PingTimeout = 5 * time.Second
	}
	if pgConfig.OpenDB == nil {
		pgConfig.OpenDB = sql.Open
	}

	db, err := pgConfig.OpenDB(pgConfig.DriverName, pgConfig.DSN)
	if err != nil {
		return nil, Config{}, fmt.Errorf("authcore config: failed to open postgres database: %w", err)
	}

	if pgConfig.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pgConfig.MaxOpenConns)
	}
	if pgConfig.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pgConfig.MaxIdleConns)
	}
	if pgConfig.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pgConfig.ConnMaxLifetime)
	}
	if pgConfig.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pgConfig.ConnMaxIdleTime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pgConfig.PingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, Config{}, fmt.Errorf("authcore config: failed to ping postgres database: %w", err)
	}

	adapter, err := postgres.NewAdapter(db)
	if err != nil {
		_ = db.Close()
		return nil, Config{}, fmt.Errorf("authcore config: failed to initialize postgres adapter: %w", err)
	}

	config.Principals = adapter

	closeResource := func() error {
		return stderrors.Join(adapter.Close(), db.Close())
	}

	config.Runtime.Storage.Postgres = pgConfig
	config.Logger.V(1).Info("initialized postgres storage backend", "driver", pgConfig.DriverName, "max_open_conns", pgConfig.MaxOpenConns, "max_idle_conns", pgConfig.MaxIdleConns)
	return closeResource, config, nil
}

func joinClosers(closers ...func() error) func() error {
	return func() error {
		var errs []error

		for i := len(closers) - 1; i >= 0; i-- {
			if closers[i] == nil {
				continue
			}
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}

		return stderrors.Join(errs...)
	}
}

func noopCloser() error {
	return nil
}
