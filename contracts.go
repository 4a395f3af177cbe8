package authcore

import (
	"context"
	"time"

	"github.com/formlane/authcore/pkg/permission"
	"github.com/formlane/authcore/pkg/storage"
)

// Principal is an authenticated actor with its effective grants resolved.
// Constructed per request from the credential store, never mutated by the
// core, discarded when the request ends.
type Principal struct {
	ID              int64
	Username        string
	Email           string
	Active          bool
	AccountVerified bool
	AuthenticatedAt time.Time

	DirectPermissions []permission.Permission
	Roles             []permission.Role
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Service is the caller-facing surface consumed by the routing layer. Every
// failure carries one of the pkg/errors codes; none is retried internally.
type Service interface {
	Login(ctx context.Context, identifier string, secret string) (TokenPair, error)
	Authenticate(ctx context.Context, accessToken string) (Principal, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Revoke(ctx context.Context, subject int64) error
}

func principalFromRecord(record storage.PrincipalRecord, authenticatedAt time.Time) Principal {
	direct := make([]permission.Permission, 0, len(record.DirectPermissions))
	for _, perm := range record.DirectPermissions {
		direct = append(direct, permissionFromRecord(perm))
	}

	roles := make([]permission.Role, 0, len(record.Roles))
	for _, role := range record.Roles {
		perms := make([]permission.Permission, 0, len(role.Permissions))
		for _, perm := range role.Permissions {
			perms = append(perms, permissionFromRecord(perm))
		}
		roles = append(roles, permission.Role{
			ID:          role.ID,
			Name:        role.Name,
			Permissions: perms,
		})
	}

	return Principal{
		ID:                record.ID,
		Username:          record.Username,
		Email:             record.Email,
		Active:            record.Active,
		AccountVerified:   record.AccountVerified,
		AuthenticatedAt:   authenticatedAt,
		DirectPermissions: direct,
		Roles:             roles,
	}
}

func permissionFromRecord(record storage.PermissionRecord) permission.Permission {
	return permission.Permission{
		ID:         record.ID,
		Name:       record.Name,
		Resource:   record.Resource,
		Action:     record.Action,
		Conditions: permission.ParseConditions(record.Conditions),
	}
}
