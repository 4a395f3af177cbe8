// Package memory provides an in-process token registry for tests and
// single-node deployments. Replacement is atomic under the adapter's lock;
// expired entries are evicted lazily on read.
package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/formlane/authcore/pkg/registry"
	"github.com/formlane/authcore/pkg/token"
)

var ErrInvalidTTL = errors.New("memory registry: ttl must be greater than zero")

type entry struct {
	tokens  map[string]struct{}
	expires time.Time
}

type Adapter struct {
	mu      sync.RWMutex
	entries map[string]entry
}

var _ registry.TokenRegistry = (*Adapter)(nil)

func NewAdapter() *Adapter {
	return &Adapter{
		entries: map[string]entry{},
	}
}

func (a *Adapter) Register(ctx context.Context, subject int64, use token.Use, tokenString string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	a.entries[registry.Key(subject, use)] = entry{
		tokens:  map[string]struct{}{tokenString: {}},
		expires: time.Now().UTC().Add(ttl),
	}
	a.mu.Unlock()
	return nil
}

func (a *Adapter) ListValid(ctx context.Context, subject int64, use token.Use) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := registry.Key(subject, use)
	now := time.Now().UTC()

	a.mu.RLock()
	e, ok := a.entries[key]
	a.mu.RUnlock()
	if !ok {
		return nil, nil
	}

	if now.After(e.expires) {
		// Recheck under the write lock; a concurrent Register may have
		// replaced the entry between the read and this eviction.
		a.mu.Lock()
		if current, ok := a.entries[key]; ok && now.After(current.expires) {
			delete(a.entries, key)
		}
		a.mu.Unlock()
		return nil, nil
	}

	tokens := make([]string, 0, len(e.tokens))
	for t := range e.tokens {
		tokens = append(tokens, t)
	}
	return tokens, nil
}

func (a *Adapter) InvalidateAll(ctx context.Context, subject int64, use token.Use) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	a.mu.Lock()
	delete(a.entries, registry.Key(subject, use))
	a.mu.Unlock()
	return nil
}
