// Package grpctransport adapts the authentication pipeline to interceptor
// shapes mirroring google.golang.org/grpc, declared locally so the module
// does not depend on grpc itself.
package grpctransport

import (
	"context"
	"errors"
	"strings"
)

var ErrMissingToken = errors.New("grpc transport: missing bearer token")

type TokenAuthenticator[P any] interface {
	Authenticate(ctx context.Context, accessToken string) (P, error)
}

// MetadataReader extracts request metadata values, e.g. a grpc/metadata.MD
// lookup bound by the server wiring.
type MetadataReader func(ctx context.Context, key string) []string

type UnaryHandler func(ctx context.Context, req any) (any, error)

type UnaryServerInfo struct {
	FullMethod string
}

type UnaryServerInterceptor func(ctx context.Context, req any, info *UnaryServerInfo, handler UnaryHandler) (any, error)

type ServerStream interface {
	Context() context.Context
}

type StreamHandler func(srv any, stream ServerStream) error

type StreamServerInfo struct {
	FullMethod string
}

type StreamServerInterceptor func(srv any, stream ServerStream, info *StreamServerInfo, handler StreamHandler) error

type principalContextKey struct{}

func PrincipalFromContext[P any](ctx context.Context) (P, bool) {
	principal, ok := ctx.Value(principalContextKey{}).(P)
	return principal, ok
}

func UnaryInterceptor[P any](authenticator TokenAuthenticator[P], metadata MetadataReader) UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *UnaryServerInfo, handler UnaryHandler) (any, error) {
		ctx, err := authenticate(ctx, authenticator, metadata)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

func StreamInterceptor[P any](authenticator TokenAuthenticator[P], metadata MetadataReader) StreamServerInterceptor {
	return func(srv any, stream ServerStream, info *StreamServerInfo, handler StreamHandler) error {
		if _, err := authenticate(stream.Context(), authenticator, metadata); err != nil {
			return err
		}
		return handler(srv, stream)
	}
}

func authenticate[P any](ctx context.Context, authenticator TokenAuthenticator[P], metadata MetadataReader) (context.Context, error) {
	token := bearerToken(ctx, metadata)
	if token == "" {
		return ctx, ErrMissingToken
	}

	principal, err := authenticator.Authenticate(ctx, token)
	if err != nil {
		return ctx, err
	}

	return context.WithValue(ctx, principalContextKey{}, principal), nil
}

func bearerToken(ctx context.Context, metadata MetadataReader) string {
	if metadata == nil {
		return ""
	}

	for _, value := range metadata(ctx, "authorization") {
		if strings.HasPrefix(value, "Bearer ") || strings.HasPrefix(value, "bearer ") {
			return strings.TrimSpace(value[len("Bearer "):])
		}
	}
	return ""
}
