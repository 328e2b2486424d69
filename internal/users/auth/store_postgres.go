// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/database"
	"github.com/taibuivan/civilregistry/internal/platform/database/schema"
	"github.com/taibuivan/civilregistry/internal/platform/dberr"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
)

const resource = "User"

// # Account Repository

// PostgresAccountRepository implements AccountRepository over users.admins and users.staff.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

func adminFields(account *Account) database.Fields {
	return database.Fields{
		database.Bind(schema.UsersAdmin.ID, &account.ID),
		database.Bind(schema.UsersAdmin.Username, &account.Username),
		database.Bind(schema.UsersAdmin.Email, &account.Email),
		database.Bind(schema.UsersAdmin.Password, &account.PasswordHash),
		database.Bind(schema.UsersAdmin.FullName, &account.FullName),
		database.Bind(schema.UsersAdmin.Position, &account.Position),
		database.Bind(schema.UsersAdmin.CreatedAt, &account.CreatedAt),
		database.Bind(schema.UsersAdmin.UpdatedAt, &account.UpdatedAt),
	}
}

func staffFields(account *Account) database.Fields {
	return database.Fields{
		database.Bind(schema.UsersStaff.ID, &account.ID),
		database.Bind(schema.UsersStaff.Email, &account.Email),
		database.Bind(schema.UsersStaff.Password, &account.PasswordHash),
		database.Bind(schema.UsersStaff.FullName, &account.FullName),
		database.Bind(schema.UsersStaff.ContactNumber, &account.ContactNumber),
		database.Bind(schema.UsersStaff.Address, &account.Address),
		database.Bind(schema.UsersStaff.Avatar, &account.Avatar),
		database.Bind(schema.UsersStaff.IsActive, &account.IsActive),
		database.Bind(schema.UsersStaff.DeactivateReason, &account.DeactivateReason),
		database.Bind(schema.UsersStaff.LastLoginAt, &account.LastLoginAt),
		database.Bind(schema.UsersStaff.CreatedAt, &account.CreatedAt),
		database.Bind(schema.UsersStaff.UpdatedAt, &account.UpdatedAt),
	}
}

// table returns the table and the field binding for a kind.
func table(kind sec.Kind, account *Account) (string, database.Fields, error) {
	switch kind {
	case sec.KindAdmin:
		return schema.UsersAdmin.Table, adminFields(account), nil
	case sec.KindStaff:
		return schema.UsersStaff.Table, staffFields(account), nil
	}
	return "", nil, fmt.Errorf("auth: unknown principal kind %q", kind)
}

func (repository *PostgresAccountRepository) findOne(ctx context.Context, kind sec.Kind, column string, value any) (*Account, error) {
	account := &Account{Kind: kind}
	tableName, fields, err := table(kind, account)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, fields.ColumnList(""), tableName, column)
	if err := database.ScanInto(repository.pool.QueryRow(ctx, query, value), fields); err != nil {
		return nil, dberr.Wrap(err, resource)
	}

	// Admin accounts cannot be deactivated.
	if kind == sec.KindAdmin {
		account.IsActive = true
	}
	return account, nil
}

/*
FindByEmail returns the account of the given kind with the given email.

Description: Emails are compared case-insensitively, the way users type them
into the login form.

Parameters:
  - ctx: context.Context
  - kind: sec.Kind
  - email: string

Returns:
  - *Account: Hydrated entity
  - error: apperr.NotFound when no row matches
*/
func (repository *PostgresAccountRepository) FindByEmail(ctx context.Context, kind sec.Kind, email string) (*Account, error) {
	return repository.findOne(ctx, kind, "LOWER(email)", strings.ToLower(strings.TrimSpace(email)))
}

// Find returns the account a principal refers to.
func (repository *PostgresAccountRepository) Find(ctx context.Context, principal sec.Principal) (*Account, error) {
	return repository.findOne(ctx, principal.Kind, "id", principal.ID)
}

// EmailTaken reports whether another account in the principal's table uses email.
func (repository *PostgresAccountRepository) EmailTaken(ctx context.Context, principal sec.Principal, email string) (bool, error) {
	tableName, _, err := table(principal.Kind, &Account{})
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE LOWER(email) = $1 AND id <> $2)`, tableName)

	var taken bool
	if err := repository.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email)), principal.ID).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, resource)
	}
	return taken, nil
}

// UsernameTaken reports whether another admin uses username.
func (repository *PostgresAccountRepository) UsernameTaken(ctx context.Context, adminID int64, username string) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND %s <> $2)`,
		schema.UsersAdmin.Table, schema.UsersAdmin.Username, schema.UsersAdmin.ID,
	)

	var taken bool
	if err := repository.pool.QueryRow(ctx, query, username, adminID).Scan(&taken); err != nil {
		return false, dberr.Wrap(err, resource)
	}
	return taken, nil
}

/*
UpdateProfile persists the self-editable columns of an account.

Description: Admins can also change their username; staff rows have none.
updated_at is returned into the entity.

Parameters:
  - ctx: context.Context
  - account: *Account

Returns:
  - error: apperr.NotFound, apperr.Conflict (unique email) or persistence failures
*/
func (repository *PostgresAccountRepository) UpdateProfile(ctx context.Context, account *Account) error {
	var (
		tableName string
		fields    database.Fields
	)

	switch account.Kind {
	case sec.KindAdmin:
		tableName = schema.UsersAdmin.Table
		fields = database.Fields{
			database.Bind(schema.UsersAdmin.FullName, &account.FullName),
			database.Bind(schema.UsersAdmin.Email, &account.Email),
			database.Bind(schema.UsersAdmin.Username, &account.Username),
		}
	case sec.KindStaff:
		tableName = schema.UsersStaff.Table
		fields = database.Fields{
			database.Bind(schema.UsersStaff.FullName, &account.FullName),
			database.Bind(schema.UsersStaff.Email, &account.Email),
		}
	default:
		return fmt.Errorf("auth: unknown principal kind %q", account.Kind)
	}

	query := database.UpdateSQL(tableName, "id", fields, "updated_at = NOW()") + " RETURNING updated_at"
	args := append([]any{account.ID}, fields.Values()...)

	if err := repository.pool.QueryRow(ctx, query, args...).Scan(&account.UpdatedAt); err != nil {
		return dberr.Wrap(err, resource)
	}
	return nil
}

// UpdatePassword replaces only the password hash.
func (repository *PostgresAccountRepository) UpdatePassword(ctx context.Context, principal sec.Principal, hash string) error {
	tableName, _, err := table(principal.Kind, &Account{})
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE %s SET password = $2, updated_at = NOW() WHERE id = $1`, tableName)
	tag, err := repository.pool.Exec(ctx, query, principal.ID, hash)
	if err != nil {
		return dberr.Wrap(err, resource)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resource)
	}
	return nil
}

// CreateAdmin inserts an administrator. Admins have no username until they set one.
func (repository *PostgresAccountRepository) CreateAdmin(ctx context.Context, account *Account) error {
	insert := database.Fields{
		database.Bind(schema.UsersAdmin.Email, &account.Email),
		database.Bind(schema.UsersAdmin.Password, &account.PasswordHash),
		database.Bind(schema.UsersAdmin.FullName, &account.FullName),
		database.Bind(schema.UsersAdmin.Position, &account.Position),
	}
	generated := database.Fields{
		database.Bind(schema.UsersAdmin.ID, &account.ID),
		database.Bind(schema.UsersAdmin.CreatedAt, &account.CreatedAt),
		database.Bind(schema.UsersAdmin.UpdatedAt, &account.UpdatedAt),
	}

	query := database.InsertSQL(schema.UsersAdmin.Table, insert, generated.Columns()...)
	if err := database.ScanInto(repository.pool.QueryRow(ctx, query, insert.Values()...), generated); err != nil {
		return dberr.Wrap(err, resource)
	}
	account.Kind = sec.KindAdmin
	account.IsActive = true
	return nil
}

// StampLogin records the time and user agent of a staff login.
func (repository *PostgresAccountRepository) StampLogin(ctx context.Context, staffID int64, at time.Time, agent string) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = $2, %s = $3 WHERE %s = $1`,
		schema.UsersStaff.Table,
		schema.UsersStaff.LastLoginAt, schema.UsersStaff.LastLoginAgent,
		schema.UsersStaff.ID,
	)

	if _, err := repository.pool.Exec(ctx, query, staffID, at, agent); err != nil {
		return dberr.Wrap(err, resource)
	}
	return nil
}
