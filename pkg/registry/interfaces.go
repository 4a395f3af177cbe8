// Package registry tracks which issued tokens are still live, per
// (subject, use), in an external fast store with TTL-based eviction.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/formlane/authcore/pkg/token"
)

// TokenRegistry is the port the session issuer and authentication pipeline
// depend on. Register must replace atomically: a concurrent reader sees either
// the full old set or the full new set, never a mix.
type TokenRegistry interface {
	// Register invalidates every existing token of this use for the subject,
	// stores tokenString as the sole member, and resets the entry TTL. At most
	// one token per (subject, use) is live at any time.
	Register(ctx context.Context, subject int64, use token.Use, tokenString string, ttl time.Duration) error

	// ListValid returns the live token strings for (subject, use). A missing
	// or evicted entry is an empty slice, not an error.
	ListValid(ctx context.Context, subject int64, use token.Use) ([]string, error)

	// InvalidateAll removes the entire entry for (subject, use).
	InvalidateAll(ctx context.Context, subject int64, use token.Use) error
}

// Key builds the store key for a (subject, use) entry.
func Key(subject int64, use token.Use) string {
	return fmt.Sprintf("user:%d:%s", subject, use)
}
