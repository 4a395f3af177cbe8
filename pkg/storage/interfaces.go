package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by lookups when no principal matches. Adapters must
// return it for absence and reserve other errors for store failures, so the
// core can distinguish "no such user" from "store unavailable".
var ErrNotFound = errors.New("storage: record not found")

// PrincipalRecord is a user as persisted, with its grants eagerly resolved.
// Conditions travel as the raw stored mapping; the core parses them into the
// closed condition set.
type PrincipalRecord struct {
	ID              int64
	Username        string
	Email           string
	SecretHash      string
	Active          bool
	AccountVerified bool
	CreatedAt       time.Time
	UpdatedAt       time.Time

	DirectPermissions []PermissionRecord
	Roles             []RoleRecord
}

type RoleRecord struct {
	ID          int64
	Name        string
	Description string
	Permissions []PermissionRecord
}

type PermissionRecord struct {
	ID          int64
	Name        string
	Description string
	Resource    string
	Action      string
	Conditions  map[string]any
}

// PrincipalStore is the credential-store port. Both lookups resolve direct
// permissions, roles, and role permissions before returning.
type PrincipalStore interface {
	// GetPrincipal fetches by id. Returns ErrNotFound when absent.
	GetPrincipal(ctx context.Context, id int64) (PrincipalRecord, error)

	// GetPrincipalByIdentifier fetches by username or email in a single
	// lookup with two match branches. Returns ErrNotFound when neither
	// matches.
	GetPrincipalByIdentifier(ctx context.Context, identifier string) (PrincipalRecord, error)
}
