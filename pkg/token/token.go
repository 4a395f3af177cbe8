// Package token mints and decodes the signed claim sets that carry a session.
// Tokens are self-contained but not self-sufficient: acceptance also requires
// membership in the registry's live set for the subject.
package token

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Use tags a token's purpose. The values double as the `type` claim on the
// wire and as the registry key segment.
type Use string

const (
	UseAccess  Use = "access_token"
	UseRefresh Use = "refresh_token"
)

var (
	ErrInvalidToken  = errors.New("token: invalid token")
	ErrExpiredToken  = errors.New("token: token is expired")
	ErrMissingSecret = errors.New("token: signing secret is required")
)

// Claims is the decoded claim set. Subject is the string-encoded principal id,
// ID the per-token jti for future per-token revocation.
type Claims struct {
	jwt.RegisteredClaims
	Use Use `json:"type"`
}

// SubjectID parses the subject claim back into a principal id.
func (c Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Codec signs and verifies tokens with a single shared secret and a fixed
// algorithm (HS256). There is no key rotation.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return &Codec{
		secret: secret,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// WithClock overrides the codec's clock. Test hook.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	c.now = now
	return c
}

// Issue mints a signed token for subject with a fresh jti and
// expiry = issued-at + ttl.
func (c *Codec) Issue(subject int64, use Use, ttl time.Duration) (string, error) {
	if c == nil || len(c.secret) == 0 {
		return "", ErrMissingSecret
	}

	now := c.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subject, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Use: use,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies signature and structure, then expiry. Expiry failures are
// reported distinctly so callers can tell a stale token from a forged one.
func (c *Codec) Decode(tokenString string) (Claims, error) {
	if c == nil || len(c.secret) == 0 {
		return Claims{}, ErrMissingSecret
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(t *jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
