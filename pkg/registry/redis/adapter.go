// Package redis backs the token registry with a Redis set per
// (subject, use) key, mirroring the deployment the core was designed for:
// SADD membership, EXPIRE for eviction, DEL+SADD+EXPIRE in one transaction
// for atomic replacement.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/formlane/authcore/pkg/registry"
	"github.com/formlane/authcore/pkg/token"
)

var (
	ErrNilClient  = errors.New("redis registry: client is nil")
	ErrInvalidTTL = errors.New("redis registry: ttl must be greater than zero")
)

type Config struct {
	Address     string
	Username    string
	Password    string
	Database    int
	Namespace   string
	DialTimeout time.Duration
}

type Adapter struct {
	client    goredis.UniversalClient
	namespace string
}

var _ registry.TokenRegistry = (*Adapter)(nil)

func NewAdapter(config Config) *Adapter {
	client := goredis.NewClient(&goredis.Options{
		Addr:        config.Address,
		Username:    config.Username,
		Password:    config.Password,
		DB:          config.Database,
		DialTimeout: config.DialTimeout,
	})
	return &Adapter{
		client:    client,
		namespace: config.Namespace,
	}
}

// NewAdapterWithClient wraps an existing client, e.g. a cluster client or a
// test double.
func NewAdapterWithClient(client goredis.UniversalClient, namespace string) *Adapter {
	return &Adapter{
		client:    client,
		namespace: namespace,
	}
}

func (a *Adapter) Register(ctx context.Context, subject int64, use token.Use, tokenString string, ttl time.Duration) error {
	if a == nil || a.client == nil {
		return ErrNilClient
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	key := a.key(subject, use)

	// MULTI/EXEC so displacing the previous token and storing the new one is
	// one atomic replace; concurrent readers never observe a partial set.
	pipe := a.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SAdd(ctx, key, tokenString)
	pipe.Expire(ctx, key, ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	return nil
}

func (a *Adapter) ListValid(ctx context.Context, subject int64, use token.Use) ([]string, error) {
	if a == nil || a.client == nil {
		return nil, ErrNilClient
	}

	tokens, err := a.client.SMembers(ctx, a.key(subject, use)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	return tokens, nil
}

func (a *Adapter) InvalidateAll(ctx context.Context, subject int64, use token.Use) error {
	if a == nil || a.client == nil {
		return ErrNilClient
	}

	return a.client.Del(ctx, a.key(subject, use)).Err()
}

func (a *Adapter) Close() error {
	if a == nil || a.client == nil {
		return nil
	}
	return a.client.Close()
}

func (a *Adapter) key(subject int64, use token.Use) string {
	key := registry.Key(subject, use)
	if a.namespace != "" {
		return a.namespace + ":" + key
	}
	return key
}
