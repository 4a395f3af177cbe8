package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/formlane/authcore/pkg/token"
)

func TestRegisterAndListValid(t *testing.T) {
	adapter := NewAdapter()
	ctx := context.Background()

	if err := adapter.Register(ctx, 1, token.UseAccess, "token-a", time.Minute); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tokens, err := adapter.ListValid(ctx, 1, token.UseAccess)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "token-a" {
		t.Fatalf("expected [token-a], got %v", tokens)
	}
}

func TestRegisterDisplacesPreviousToken(t *testing.T) {
	adapter := NewAdapter()
	ctx := context.Background()

	if err := adapter.Register(ctx, 1, token.UseAccess, "token-a", time.Minute); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := adapter.Register(ctx, 1, token.UseAccess, "token-b", time.Minute); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	tokens, err := adapter.ListValid(ctx, 1, token.UseAccess)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tokens) != 1 || tokens[0] != "token-b" {
		t.Fatalf("expected exactly [token-b], got %v", tokens)
	}
}

func TestUsesAreIsolated(t *testing.T) {
	adapter := NewAdapter()
	ctx := context.Background()

	if err := adapter.Register(ctx, 1, token.UseAccess, "access", time.Minute); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := adapter.Register(ctx, 1, token.UseRefresh, "refresh", time.Minute); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	access, err := adapter.ListValid(ctx, 1, token.UseAccess)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	refresh, err := adapter.ListValid(ctx, 1, token.UseRefresh)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(access) != 1 || access[0] != "access" {
		t.Fatalf("expected [access], got %v", access)
	}
	if len(refresh) != 1 || refresh[0] != "refresh" {
		t.Fatalf("expected [refresh], got %v", refresh)
	}
}

func TestEntryExpires(t *testing.T) {
	adapter := NewAdapter()
	ctx := context.Background()

	if err := adapter.Register(ctx, 1, token.UseAccess, "token-a", time.Millisecond); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	tokens, err := adapter.ListValid(ctx, 1, token.UseAccess)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected expired entry to be evicted, got %v", tokens)
	}
}

func TestInvalidateAll(t *testing.T) {
	adapter := NewAdapter()
	ctx := context.Background()

	if err := adapter.Register(ctx, 1, token.UseAccess, "token-a", time.Minute); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := adapter.InvalidateAll(ctx, 1, token.UseAccess); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}

	tokens, err := adapter.ListValid(ctx, 1, token.UseAccess)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected no tokens after invalidation, got %v", tokens)
	}
}

func TestRegisterRejectsInvalidTTL(t *testing.T) {
	adapter := NewAdapter()

	err := adapter.Register(context.Background(), 1, token.UseAccess, "token-a", 0)
	if !errors.Is(err, ErrInvalidTTL) {
		t.Fatalf("expected ErrInvalidTTL, got %v", err)
	}
}

func TestEvictionDoesNotDropFreshRegistration(t *testing.T) {
	adapter := NewAdapter()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		// Plant an already-expired entry so the next read takes the
		// eviction path.
		if err := adapter.Register(ctx, 1, token.UseAccess, "stale", time.Nanosecond); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		time.Sleep(time.Microsecond)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = adapter.ListValid(ctx, 1, token.UseAccess)
		}()

		if err := adapter.Register(ctx, 1, token.UseAccess, "fresh", time.Minute); err != nil {
			t.Fatalf("register failed: %v", err)
		}
		<-done

		tokens, err := adapter.ListValid(ctx, 1, token.UseAccess)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(tokens) != 1 || tokens[0] != "fresh" {
			t.Fatalf("expected fresh token to survive concurrent eviction, got %v", tokens)
		}
	}
}

func TestContextCancellation(t *testing.T) {
	adapter := NewAdapter()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := adapter.Register(ctx, 1, token.UseAccess, "token-a", time.Minute); err == nil {
		t.Fatal("expected register with cancelled context to fail")
	}
	if _, err := adapter.ListValid(ctx, 1, token.UseAccess); err == nil {
		t.Fatal("expected list with cancelled context to fail")
	}
}
