package staff

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
)

const resource = "Staff"

var table = schema.UsersStaff

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// editable are the columns an administrator writes on create and update.
func editable(s *Staff) database.Fields {
	return database.Fields{
		database.Bind(table.Email, &s.Email),
		database.Bind(table.Password, &s.PasswordHash),
		database.Bind(table.FullName, &s.FullName),
		database.Bind(table.ContactNumber, &s.ContactNumber),
		database.Bind(table.Address, &s.Address),
		database.Bind(table.Avatar, &s.Avatar),
	}
}

func fields(s *Staff) database.Fields {
	return append(database.Fields{database.Bind(table.ID, &s.ID)}, append(editable(s),
		database.Bind(table.IsActive, &s.IsActive),
		database.Bind(table.DeactivateReason, &s.DeactivateReason),
		database.Bind(table.DeactivatedAt, &s.DeactivatedAt),
		database.Bind(table.DeactivatedBy, &s.DeactivatedBy),
		database.Bind(table.LastLoginAt, &s.LastLoginAt),
		database.Bind(table.CreatedBy, &s.CreatedBy),
		database.Bind(table.CreatedAt, &s.CreatedAt),
		database.Bind(table.UpdatedAt, &s.UpdatedAt),
	)...)
}

func (repository *PostgresRepository) List(ctx context.Context) ([]Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s DESC, %s DESC`,
		fields(&Staff{}).ColumnList(""), table.Table, table.CreatedAt, table.ID,
	)

	rows, err := repository.pool.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}

	members, err := database.CollectRows(rows, fields)
	return members, dberr.Wrap(err, resource)
}

func (repository *PostgresRepository) Get(ctx context.Context, id int64) (*Staff, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, fields(&Staff{}).ColumnList(""), table.Table, table.ID)

	member := &Staff{}
	if err := database.ScanInto(repository.pool.QueryRow(ctx, query, id), fields(member)); err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	return member, nil
}

func (repository *PostgresRepository) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE LOWER(%s) = $1 AND %s <> $2)`,
		table.Table, table.Email, table.ID,
	)

	var taken bool
	err := repository.pool.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email)), excludeID).Scan(&taken)
	return taken, dberr.Wrap(err, resource)
}

func (repository *PostgresRepository) Create(ctx context.Context, member *Staff) error {
	columns := append(editable(member), database.Bind(table.CreatedBy, &member.CreatedBy))
	query := database.InsertSQL(table.Table, columns,
		table.ID, table.IsActive, table.CreatedAt, table.UpdatedAt,
	)

	err := repository.pool.QueryRow(ctx, query, columns.Values()...).
		Scan(&member.ID, &member.IsActive, &member.CreatedAt, &member.UpdatedAt)
	return dberr.Wrap(err, resource)
}

func (repository *PostgresRepository) Update(ctx context.Context, member *Staff) error {
	columns := editable(member)
	query := database.UpdateSQL(table.Table, table.ID, columns, table.UpdatedAt+" = NOW()") +
		" RETURNING " + table.UpdatedAt

	args := append([]any{member.ID}, columns.Values()...)
	return dberr.Wrap(repository.pool.QueryRow(ctx, query, args...).Scan(&member.UpdatedAt), resource)
}

func (repository *PostgresRepository) Deactivate(ctx context.Context, id int64, reason string, by int64, at time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = FALSE, %s = $2, %s = $3, %s = $4, %s = NOW()
		WHERE %s = $1
	`,
		table.Table,
		table.IsActive, table.DeactivateReason, table.DeactivatedAt, table.DeactivatedBy, table.UpdatedAt,
		table.ID,
	)
	return repository.exec(ctx, query, id, reason, at, by)
}

func (repository *PostgresRepository) Reactivate(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = TRUE, %s = NULL, %s = NULL, %s = NULL, %s = NOW()
		WHERE %s = $1
	`,
		table.Table,
		table.IsActive, table.DeactivateReason, table.DeactivatedAt, table.DeactivatedBy, table.UpdatedAt,
		table.ID,
	)
	return repository.exec(ctx, query, id)
}

func (repository *PostgresRepository) Delete(ctx context.Context, id int64) error {
	return repository.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.ID), id)
}

func (repository *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	tag, err := repository.pool.Exec(ctx, query, args...)
	if err != nil {
		return dberr.Wrap(err, resource)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(resource)
	}
	return nil
}

func (repository *PostgresRepository) Statistics(ctx context.Context, recentSince time.Time) (Statistics, error) {
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE %[2]s),
			COUNT(*) FILTER (WHERE NOT %[2]s),
			COUNT(*) FILTER (WHERE %[3]s >= $1)
		FROM %[1]s
	`, table.Table, table.IsActive, table.CreatedAt)

	var stats Statistics
	err := repository.pool.QueryRow(ctx, query, recentSince).
		Scan(&stats.Total, &stats.Active, &stats.Inactive, &stats.Recent)
	return stats, dberr.Wrap(err, resource)
}
