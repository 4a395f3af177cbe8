package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/formlane/authcore/pkg/storage"
)

type Adapter struct {
	db *sql.DB

	stmts preparedStatements
}

type preparedStatements struct {
	getUserByID         *sql.Stmt
	getUserByIdentifier *sql.Stmt

	listDirectPermissions *sql.Stmt
	listRoles             *sql.Stmt
	listRolePermissions   *sql.Stmt
}

type prepareStatementSpec struct {
	label  string
	query  string
	assign func(*preparedStatements, *sql.Stmt)
}

var fixedPrepareStatementSpecs = []prepareStatementSpec{
	{
		label: "get user by id",
		query: getUserByIDQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.getUserByID = stmt
		},
	},
	{
		label: "get user by identifier",
		query: getUserByIdentifierQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.getUserByIdentifier = stmt
		},
	},
	{
		label: "list direct permissions",
		query: listDirectPermissionsQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.listDirectPermissions = stmt
		},
	},
	{
		label: "list roles",
		query: listRolesQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.listRoles = stmt
		},
	},
	{
		label: "list role permissions",
		query: listRolePermissionsQuery,
		assign: func(ps *preparedStatements, stmt *sql.Stmt) {
			ps.listRolePermissions = stmt
		},
	},
}

var (
	ErrNilDB                 = errors.New("postgres adapter: db is nil")
	ErrAdapterNotInitialized = errors.New("postgres adapter: adapter not initialized")
)

var _ storage.PrincipalStore = (*Adapter)(nil)

func NewAdapter(db *sql.DB) (*Adapter, error) {
	adapter := &Adapter{
		db: db,
	}

	if err := adapter.prepareStatements(); err != nil {
		_ = adapter.Close()
		return nil, err
	}

	return adapter, nil
}

func (a *Adapter) Close() error {
	if a == nil {
		return nil
	}

	return closeStatements(
		a.stmts.getUserByID,
		a.stmts.getUserByIdentifier,
		a.stmts.listDirectPermissions,
		a.stmts.listRoles,
		a.stmts.listRolePermissions,
	)
}

func (a *Adapter) prepareStatements() (err error) {
	db, err := a.requireDB()
	if err != nil {
		return err
	}

	prepared := make([]*sql.Stmt, 0, len(fixedPrepareStatementSpecs))
	defer func() {
		if err != nil {
			_ = closeStatements(prepared...)
		}
	}()

	for _, spec := range fixedPrepareStatementSpecs {
		stmt, prepErr := db.Prepare(spec.query)
		if prepErr != nil {
			err = fmt.Errorf("postgres adapter: prepare %s statement: %w", spec.label, prepErr)
			return err
		}
		prepared = append(prepared, stmt)
		spec.assign(&a.stmts, stmt)
	}
	return nil
}

func (a *Adapter) requirePreparedStatements() error {
	if _, err := a.requireDB(); err != nil {
		return err
	}

	if a.stmts.getUserByID == nil || a.stmts.getUserByIdentifier == nil {
		return ErrAdapterNotInitialized
	}
	if a.stmts.listDirectPermissions == nil || a.stmts.listRoles == nil || a.stmts.listRolePermissions == nil {
		return ErrAdapterNotInitialized
	}

	return nil
}

func (a *Adapter) requireDB() (*sql.DB, error) {
	if a == nil || a.db == nil {
		return nil, ErrNilDB
	}
	return a.db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func closeStatements(stmts ...*sql.Stmt) error {
	var errs []error
	for _, stmt := range stmts {
		if stmt == nil {
			continue
		}
		if err := stmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
