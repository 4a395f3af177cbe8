// Package authcore is the authorization and session core of the survey
// platform: a permission engine over resolved grants and a token lifecycle
// manager that issues signed access/refresh pairs and tracks their validity
// in an external registry so they can be displaced and revoked.
//
// The core is a library invoked synchronously by request handlers. Routing,
// schema validation, and domain CRUD live outside it.
package authcore

import (
	"context"

	"github.com/go-logr/logr"

	"github.com/formlane/authcore/pkg/crypto"
	oerrors "github.com/formlane/authcore/pkg/errors"
	"github.com/formlane/authcore/pkg/permission"
	"github.com/formlane/authcore/pkg/registry"
	"github.com/formlane/authcore/pkg/storage"
	"github.com/formlane/authcore/pkg/token"
)

type Config struct {
	Principals    storage.PrincipalStore
	Registry      registry.TokenRegistry
	Hasher        crypto.Hasher
	Logger        logr.Logger
	SigningSecret []byte
	TokenPolicy   token.Policy
	Runtime       RuntimeConfig
}

type Client struct {
	service       Service
	logger        logr.Logger
	closeResource func() error
}

// New builds a client around a caller-supplied Service implementation,
// resolving any runtime backends the config requests.
func New(service Service, config Config) (*Client, error) {
	closeResource, resolvedConfig, err := config.initialize(context.Background())
	if err != nil {
		return nil, err
	}

	if service == nil {
		_ = closeResource()
		return nil, oerrors.ErrMissingService
	}

	return &Client{
		service:       service,
		logger:        resolvedConfig.Logger,
		closeResource: closeResource,
	}, nil
}

// NewDefault builds a client around the built-in AuthService.
func NewDefault(config Config) (*Client, error) {
	closeResource, resolvedConfig, err := config.initialize(context.Background())
	if err != nil {
		return nil, err
	}

	service, err := NewAuthService(resolvedConfig)
	if err != nil {
		_ = closeResource()
		return nil, err
	}

	return &Client{
		service:       service,
		logger:        resolvedConfig.Logger,
		closeResource: closeResource,
	}, nil
}

// Login, Authenticate, Refresh, and Revoke delegate to the service without
// re-wrapping: the error codes are the contract and must reach the caller
// intact.

func (c *Client) Login(ctx context.Context, identifier string, secret string) (TokenPair, error) {
	if c == nil || c.service == nil {
		return TokenPair{}, oerrors.ErrMissingService
	}
	return c.service.Login(ctx, identifier, secret)
}

func (c *Client) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	if c == nil || c.service == nil {
		return Principal{}, oerrors.ErrMissingService
	}
	return c.service.Authenticate(ctx, accessToken)
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if c == nil || c.service == nil {
		return "", oerrors.ErrMissingService
	}
	return c.service.Refresh(ctx, refreshToken)
}

func (c *Client) Revoke(ctx context.Context, subject int64) error {
	if c == nil || c.service == nil {
		return oerrors.ErrMissingService
	}
	return c.service.Revoke(ctx, subject)
}

// Authorize evaluates the principal's grants against (resource, action) and
// the request context. Pure and deterministic; a miss is false, not an error.
func (c *Client) Authorize(p Principal, resource string, action string, permCtx permission.Context) bool {
	return permission.Allowed(p.DirectPermissions, p.Roles, resource, action, permCtx)
}

func (c *Client) Close() error {
	if c == nil || c.closeResource == nil {
		return nil
	}

	err := c.closeResource()
	if err != nil {
		return oerrors.Wrap(oerrors.CodeUnknown, "failed to close client resources", err)
	}
	c.closeResource = nil
	c.service = nil
	return nil
}
