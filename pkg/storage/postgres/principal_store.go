package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/formlane/authcore/pkg/storage"
)

const (
	getUserByIDQuery = `
SELECT
  id, username, email, hashed_password, is_active, account_verified, created_at, updated_at
FROM authcore.users
WHERE id = $1
`

	getUserByIdentifierQuery = `
SELECT
  id, username, email, hashed_password, is_active, account_verified, created_at, updated_at
FROM authcore.users
WHERE username = $1 OR email = $1
`

	listDirectPermissionsQuery = `
SELECT
  p.id, p.name, p.description, p.resource, p.action, p.conditions
FROM authcore.permissions p
JOIN authcore.user_permissions up ON up.permission_id = p.id
WHERE up.user_id = $1
`

	listRolesQuery = `
SELECT
  r.id, r.name, r.description
FROM authcore.roles r
JOIN authcore.user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
`

	listRolePermissionsQuery = `
SELECT
  p.id, p.name, p.description, p.resource, p.action, p.conditions
FROM authcore.permissions p
JOIN authcore.role_permissions rp ON rp.permission_id = p.id
WHERE rp.role_id = $1
`
)

func (a *Adapter) GetPrincipal(ctx context.Context, id int64) (storage.PrincipalRecord, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return storage.PrincipalRecord{}, err
	}

	record, err := scanPrincipal(a.stmts.getUserByID.QueryRowContext(ctx, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PrincipalRecord{}, storage.ErrNotFound
		}
		return storage.PrincipalRecord{}, err
	}

	return a.resolveGrants(ctx, record)
}

func (a *Adapter) GetPrincipalByIdentifier(ctx context.Context, identifier string) (storage.PrincipalRecord, error) {
	if err := a.requirePreparedStatements(); err != nil {
		return storage.PrincipalRecord{}, err
	}

	record, err := scanPrincipal(a.stmts.getUserByIdentifier.QueryRowContext(ctx, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.PrincipalRecord{}, storage.ErrNotFound
		}
		return storage.PrincipalRecord{}, err
	}

	return a.resolveGrants(ctx, record)
}

// resolveGrants eagerly loads direct permissions, roles, and role permissions
// so the caller never goes back to the store during evaluation.
func (a *Adapter) resolveGrants(ctx context.Context, record storage.PrincipalRecord) (storage.PrincipalRecord, error) {
	direct, err := a.listPermissions(ctx, a.stmts.listDirectPermissions, record.ID)
	if err != nil {
		return storage.PrincipalRecord{}, err
	}
	record.DirectPermissions = direct

	roles, err := a.listRoles(ctx, record.ID)
	if err != nil {
		return storage.PrincipalRecord{}, err
	}

	for i := range roles {
		perms, err := a.listPermissions(ctx, a.stmts.listRolePermissions, roles[i].ID)
		if err != nil {
			return storage.PrincipalRecord{}, err
		}
		roles[i].Permissions = perms
	}
	record.Roles = roles

	return record, nil
}

func (a *Adapter) listPermissions(ctx context.Context, stmt *sql.Stmt, ownerID int64) ([]storage.PermissionRecord, error) {
	rows, err := stmt.QueryContext(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []storage.PermissionRecord{}
	for rows.Next() {
		record, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func (a *Adapter) listRoles(ctx context.Context, userID int64) ([]storage.RoleRecord, error) {
	rows, err := a.stmts.listRoles.QueryContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []storage.RoleRecord{}
	for rows.Next() {
		var (
			record      storage.RoleRecord
			description sql.NullString
		)
		if err := rows.Scan(&record.ID, &record.Name, &description); err != nil {
			return nil, err
		}
		record.Description = description.String
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

func scanPrincipal(s scanner) (storage.PrincipalRecord, error) {
	var (
		record    storage.PrincipalRecord
		createdAt time.Time
		updatedAt time.Time
	)

	if err := s.Scan(
		&record.ID,
		&record.Username,
		&record.Email,
		&record.SecretHash,
		&record.Active,
		&record.AccountVerified,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.PrincipalRecord{}, err
	}

	record.CreatedAt = createdAt.UTC()
	record.UpdatedAt = updatedAt.UTC()

	return record, nil
}

func scanPermission(s scanner) (storage.PermissionRecord, error) {
	var (
		record      storage.PermissionRecord
		description sql.NullString
		conditions  []byte
	)

	if err := s.Scan(
		&record.ID,
		&record.Name,
		&description,
		&record.Resource,
		&record.Action,
		&conditions,
	); err != nil {
		return storage.PermissionRecord{}, err
	}

	record.Description = description.String

	if len(conditions) > 0 {
		parsed := map[string]any{}
		if err := json.Unmarshal(conditions, &parsed); err != nil {
			return storage.PermissionRecord{}, err
		}
		record.Conditions = parsed
	}

	return record, nil
}
