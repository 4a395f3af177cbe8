package token

import (
	"errors"
	"testing"
	"time"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec([]byte("test-signing-secret"))
	if err != nil {
		t.Fatalf("new codec failed: %v", err)
	}
	return codec
}

func TestIssueDecodeRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	tokenString, err := codec.Issue(42, UseAccess, 30*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := codec.Decode(tokenString)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if claims.Subject != "42" {
		t.Fatalf("expected subject 42, got %q", claims.Subject)
	}
	if claims.Use != UseAccess {
		t.Fatalf("expected access use, got %q", claims.Use)
	}
	if claims.ID == "" {
		t.Fatal("expected a non-empty jti")
	}

	lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)
	if lifetime != 30*time.Minute {
		t.Fatalf("expected exp - iat == 30m, got %s", lifetime)
	}

	subject, err := claims.SubjectID()
	if err != nil {
		t.Fatalf("subject id parse failed: %v", err)
	}
	if subject != 42 {
		t.Fatalf("expected subject id 42, got %d", subject)
	}
}

func TestIssueGeneratesUniqueTokenIDs(t *testing.T) {
	codec := newTestCodec(t)

	seen := map[string]struct{}{}
	for i := 0; i < 10; i++ {
		tokenString, err := codec.Issue(1, UseAccess, time.Minute)
		if err != nil {
			t.Fatalf("issue failed: %v", err)
		}

		claims, err := codec.Decode(tokenString)
		if err != nil {
			t.Fatalf("decode failed: %v", err)
		}

		if _, dup := seen[claims.ID]; dup {
			t.Fatalf("duplicate jti %q", claims.ID)
		}
		seen[claims.ID] = struct{}{}
	}
}

func TestDecodeGarbage(t *testing.T) {
	codec := newTestCodec(t)

	if _, err := codec.Decode("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestDecodeWrongSecret(t *testing.T) {
	codec := newTestCodec(t)

	other, err := NewCodec([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("new codec failed: %v", err)
	}

	tokenString, err := other.Issue(1, UseAccess, time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := codec.Decode(tokenString); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}

func TestDecodeExpired(t *testing.T) {
	codec := newTestCodec(t)

	past := time.Now().UTC().Add(-2 * time.Hour)
	stale := newTestCodec(t).WithClock(func() time.Time { return past })

	tokenString, err := stale.Issue(1, UseAccess, 30*time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := codec.Decode(tokenString); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec(nil); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}

func TestPolicyTTL(t *testing.T) {
	policy := Policy{AccessTTL: 5 * time.Minute}

	if got := policy.TTL(UseAccess); got != 5*time.Minute {
		t.Fatalf("expected configured access ttl, got %s", got)
	}
	if got := policy.TTL(UseRefresh); got != DefaultPolicy().RefreshTTL {
		t.Fatalf("expected default refresh ttl, got %s", got)
	}
}
