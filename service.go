package authcore

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/go-logr/logr"

	"github.com/formlane/authcore/pkg/crypto"
	oerrors "github.com/formlane/authcore/pkg/errors"
	"github.com/formlane/authcore/pkg/registry"
	"github.com/formlane/authcore/pkg/storage"
	"github.com/formlane/authcore/pkg/token"
)

// AuthService orchestrates the credential store, token codec, and token
// registry. It holds no mutable state of its own and is safe for concurrent
// use; all mutation happens in the registry store.
type AuthService struct {
	principals storage.PrincipalStore
	registry   registry.TokenRegistry
	codec      *token.Codec
	hasher     crypto.Hasher
	policy     token.Policy
	logger     logr.Logger
}

var _ Service = (*AuthService)(nil)

func NewAuthService(config Config) (*AuthService, error) {
	if config.Principals == nil {
		return nil, oerrors.ErrMissingPrincipalStore
	}
	if config.Registry == nil {
		return nil, oerrors.ErrMissingRegistry
	}

	codec, err := token.NewCodec(config.SigningSecret)
	if err != nil {
		return nil, err
	}

	hasher := config.Hasher
	if hasher == nil {
		hasher = crypto.NewBcryptHasher(crypto.DefaultBcryptOptions())
	}

	return &AuthService{
		principals: config.Principals,
		registry:   config.Registry,
		codec:      codec,
		hasher:     hasher,
		policy:     config.TokenPolicy,
		logger:     resolveLogger(config.Logger),
	}, nil
}

// Login resolves the principal by username or email, verifies the secret,
// then mints and registers a fresh access/refresh pair. Each registration
// displaces the principal's previous token of that use.
func (s *AuthService) Login(ctx context.Context, identifier string, secret string) (TokenPair, error) {
	record, err := s.principals.GetPrincipalByIdentifier(ctx, identifier)
	if err != nil {
		return TokenPair{}, principalLookupError(err)
	}

	ok, err := s.hasher.Verify(secret, record.SecretHash)
	if err != nil {
		return TokenPair{}, oerrors.Wrap(oerrors.CodeUnknown, "failed to verify secret", err)
	}
	if !ok {
		return TokenPair{}, oerrors.New(oerrors.CodeWrongSecret, "wrong identifier or secret")
	}

	if !record.Active {
		return TokenPair{}, oerrors.New(oerrors.CodeAccountInactive, "account is inactive")
	}

	accessToken, err := s.issueAndRegister(ctx, record.ID, token.UseAccess)
	if err != nil {
		return TokenPair{}, err
	}

	refreshToken, err := s.issueAndRegister(ctx, record.ID, token.UseRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	s.logger.V(1).Info("issued session tokens", "subject", record.ID)
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Authenticate runs the per-request pipeline: decode, require the access use,
// cross-check the registry's live set, load the principal, apply account-state
// checks. Each step short-circuits with its own error code.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	claims, err := s.decode(accessToken, token.UseAccess)
	if err != nil {
		return Principal{}, err
	}

	subject, err := claims.SubjectID()
	if err != nil {
		return Principal{}, oerrors.Wrap(oerrors.CodeTokenInvalid, "token subject is not a principal id", err)
	}

	if err := s.requireLive(ctx, subject, token.UseAccess, accessToken); err != nil {
		return Principal{}, err
	}

	record, err := s.principals.GetPrincipal(ctx, subject)
	if err != nil {
		return Principal{}, principalLookupError(err)
	}

	if !record.Active {
		return Principal{}, oerrors.New(oerrors.CodeAccountInactive, "account is inactive")
	}

	return principalFromRecord(record, time.Now().UTC()), nil
}

// Refresh validates the presented refresh token and mints a new access token.
// The refresh token itself is neither rotated nor invalidated.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.decode(refreshToken, token.UseRefresh)
	if err != nil {
		return "", err
	}

	subject, err := claims.SubjectID()
	if err != nil {
		return "", oerrors.Wrap(oerrors.CodeTokenInvalid, "token subject is not a principal id", err)
	}

	if err := s.requireLive(ctx, subject, token.UseRefresh, refreshToken); err != nil {
		return "", err
	}

	record, err := s.principals.GetPrincipal(ctx, subject)
	if err != nil {
		return "", principalLookupError(err)
	}

	if !record.Active {
		return "", oerrors.New(oerrors.CodeAccountInactive, "account is inactive")
	}

	accessToken, err := s.issueAndRegister(ctx, subject, token.UseAccess)
	if err != nil {
		return "", err
	}

	s.logger.V(1).Info("refreshed access token", "subject", subject)
	return accessToken, nil
}

// Revoke drops every live token for the subject, access and refresh alike.
func (s *AuthService) Revoke(ctx context.Context, subject int64) error {
	if err := s.registry.InvalidateAll(ctx, subject, token.UseAccess); err != nil {
		return oerrors.Wrap(oerrors.CodeStoreUnavailable, "failed to invalidate access tokens", err)
	}
	if err := s.registry.InvalidateAll(ctx, subject, token.UseRefresh); err != nil {
		return oerrors.Wrap(oerrors.CodeStoreUnavailable, "failed to invalidate refresh tokens", err)
	}

	s.logger.V(1).Info("revoked session tokens", "subject", subject)
	return nil
}

func (s *AuthService) decode(tokenString string, want token.Use) (token.Claims, error) {
	claims, err := s.codec.Decode(tokenString)
	if err != nil {
		if stderrors.Is(err, token.ErrExpiredToken) {
			return token.Claims{}, oerrors.Wrap(oerrors.CodeTokenExpired, "token is expired", err)
		}
		return token.Claims{}, oerrors.Wrap(oerrors.CodeTokenInvalid, "token is invalid", err)
	}

	if claims.Use != want {
		return token.Claims{}, oerrors.New(oerrors.CodeTokenInvalid, "unexpected token type")
	}

	return claims, nil
}

// requireLive checks membership in the registry's live set. A valid signature
// is not enough: logout, rotation displacement, and registry TTL eviction all
// surface here.
func (s *AuthService) requireLive(ctx context.Context, subject int64, use token.Use, tokenString string) error {
	live, err := s.registry.ListValid(ctx, subject, use)
	if err != nil {
		return oerrors.Wrap(oerrors.CodeStoreUnavailable, "failed to read token registry", err)
	}

	for _, t := range live {
		if t == tokenString {
			return nil
		}
	}

	return oerrors.New(oerrors.CodeTokenRevoked, "token has been revoked or is unknown")
}

func (s *AuthService) issueAndRegister(ctx context.Context, subject int64, use token.Use) (string, error) {
	ttl := s.policy.TTL(use)

	tokenString, err := s.codec.Issue(subject, use, ttl)
	if err != nil {
		return "", oerrors.Wrap(oerrors.CodeUnknown, "failed to sign token", err)
	}

	// Same TTL on the registry entry as in the token, so registry eviction
	// and signature expiry cannot drift apart.
	if err := s.registry.Register(ctx, subject, use, tokenString, ttl); err != nil {
		return "", oerrors.Wrap(oerrors.CodeStoreUnavailable, "failed to register token", err)
	}

	return tokenString, nil
}

func principalLookupError(err error) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return oerrors.Wrap(oerrors.CodePrincipalNotFound, "principal not found", err)
	}
	return oerrors.Wrap(oerrors.CodeStoreUnavailable, "failed to load principal", err)
}
