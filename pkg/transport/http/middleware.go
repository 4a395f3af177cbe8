// Package httptransport adapts the authentication pipeline to net/http
// middleware. Status-code policy stays here; the core only reports error
// kinds.
package httptransport

import (
	"context"
	"net/http"
	"strings"
)

// TokenAuthenticator is the slice of the core the middleware needs.
// Parameterized over the principal type so this package never imports the
// root.
type TokenAuthenticator[P any] interface {
	Authenticate(ctx context.Context, accessToken string) (P, error)
}

type MiddlewareConfig struct {
	TokenHeader       string
	CookieName        string
	FailureStatusCode int
}

func DefaultConfig() MiddlewareConfig {
	return MiddlewareConfig{
		TokenHeader:       "Authorization",
		CookieName:        "",
		FailureStatusCode: http.StatusUnauthorized,
	}
}

type principalContextKey struct{}

// PrincipalFromContext returns the principal stashed by Middleware, if any.
func PrincipalFromContext[P any](ctx context.Context) (P, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(P)
	return principal, ok
}

// Middleware authenticates each request's bearer token and stores the
// resolved principal in the request context. Requests without a usable token
// are rejected with the configured status code.
func Middleware[P any](authenticator TokenAuthenticator[P], config MiddlewareConfig) func(http.Handler) http.Handler {
	if config.TokenHeader == "" {
		config.TokenHeader = DefaultConfig().TokenHeader
	}
	if config.FailureStatusCode == 0 {
		config.FailureStatusCode = DefaultConfig().FailureStatusCode
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r, config)
			if token == "" {
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(config.FailureStatusCode)
				return
			}

			principal, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				w.Header().Set("WWW-Authenticate", "Bearer")
				w.WriteHeader(config.FailureStatusCode)
				return
			}

			ctx := context.WithValue(r.Context(), principalContextKey{}, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractToken(r *http.Request, config MiddlewareConfig) string {
	header := r.Header.Get(config.TokenHeader)
	if header != "" {
		if strings.HasPrefix(header, "Bearer ") || strings.HasPrefix(header, "bearer ") {
			return strings.TrimSpace(header[len("Bearer "):])
		}
		return strings.TrimSpace(header)
	}

	if config.CookieName != "" {
		if cookie, err := r.Cookie(config.CookieName); err == nil {
			return cookie.Value
		}
	}

	return ""
}
