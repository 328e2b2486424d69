package certificate

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/civilregistry/internal/platform/database"
	"github.com/taibuivan/civilregistry/internal/platform/database/schema"
	"github.com/taibuivan/civilregistry/internal/platform/dberr"
	"github.com/taibuivan/civilregistry/internal/registry"
)

// PostgresRepository implements [Repository] and [Records] on pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var table = schema.RegistryCertificateLog

func insertFields(log *Log) database.Fields {
	return database.Fields{
		database.Bind(table.CertificateType, &log.CertificateType),
		database.Bind(table.RecordID, &log.RecordID),
		database.Bind(table.CertificateNumber, &log.CertificateNumber),
		database.Bind(table.IssuedTo, &log.IssuedTo),
		database.Bind(table.AmountPaid, &log.AmountPaid),
		database.Bind(table.ORNumber, &log.ORNumber),
		database.Bind(table.DatePaid, &log.DatePaid),
		database.Bind(table.Purpose, &log.Purpose),
		database.Bind(table.IssuedBy, &log.IssuedBy.ID),
		database.Bind(table.IssuedByKind, &log.IssuedBy.Kind),
	}
}

func generatedFields(log *Log) database.Fields {
	return database.Fields{
		database.Bind(table.ID, &log.ID),
		database.Bind(table.CreatedAt, &log.CreatedAt),
		database.Bind(table.UpdatedAt, &log.UpdatedAt),
	}
}

func fields(log *Log) database.Fields {
	return append(insertFields(log), generatedFields(log)...)
}

func (repository *PostgresRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]Log, int, error) {
	conditions := &database.Conditions{}
	if filter.CertificateType != "" {
		conditions.Where(table.CertificateType + " = " + conditions.Arg(filter.CertificateType))
	}
	if filter.DateFrom != nil {
		conditions.Where(table.DatePaid + " >= " + conditions.Arg(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		conditions.Where(table.DatePaid + " <= " + conditions.Arg(*filter.DateTo))
	}
	conditions.Search(filter.Search, table.IssuedTo, table.CertificateNumber, table.ORNumber)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, table.Table, conditions.SQL())
	if err := repository.pool.QueryRow(ctx, countQuery, conditions.Args()...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s DESC, %s DESC %s`,
		fields(&Log{}).ColumnList(""), table.Table, conditions.SQL(), table.CreatedAt, table.ID, conditions.Page(limit, offset),
	)

	rows, err := repository.pool.Query(ctx, query, conditions.Args()...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}
	logs, err := database.CollectRows(rows, fields)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}
	return logs, total, nil
}

func (repository *PostgresRepository) Create(ctx context.Context, log *Log) error {
	insert := insertFields(log)
	generated := generatedFields(log)
	query := database.InsertSQL(table.Table, insert, generated.Columns()...)

	err := database.ScanInto(repository.pool.QueryRow(ctx, query, insert.Values()...), generated)
	if dberr.IsUniqueViolation(err) && dberr.Constraint(err) == table.NumberConstraint {
		return fmt.Errorf("%w: %w", ErrNumberTaken, err)
	}
	return dberr.Wrap(err, resource)
}

// Statistics buckets by the issue date in from's location.
func (repository *PostgresRepository) Statistics(ctx context.Context, from, to time.Time) ([]Statistic, error) {
	query := fmt.Sprintf(`
		SELECT %[1]s, COUNT(*), COALESCE(SUM(%[2]s), 0), (%[3]s AT TIME ZONE $3)::date AS issue_date
		FROM %[4]s
		WHERE %[3]s >= $1 AND %[3]s < $2
		GROUP BY %[1]s, issue_date
		ORDER BY issue_date, %[1]s`,
		table.CertificateType, table.AmountPaid, table.CreatedAt, table.Table,
	)

	rows, err := repository.pool.Query(ctx, query, from, to, from.Location().String())
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	defer rows.Close()

	statistics := []Statistic{}
	for rows.Next() {
		var statistic Statistic
		if err := rows.Scan(&statistic.CertificateType, &statistic.TotalIssued, &statistic.TotalRevenue, &statistic.IssueDate); err != nil {
			return nil, dberr.Wrap(err, resource)
		}
		statistics = append(statistics, statistic)
	}
	return statistics, dberr.Wrap(rows.Err(), resource)
}

var recordTables = map[registry.Type]string{
	registry.TypeBirth:    schema.RegistryBirthRecord.Table,
	registry.TypeMarriage: schema.RegistryMarriageRecord.Table,
	registry.TypeDeath:    schema.RegistryDeathRecord.Table,
}

// Active checks the record table of the given type.
func (repository *PostgresRepository) Active(ctx context.Context, recordType registry.Type, id int64) (bool, error) {
	recordTable, ok := recordTables[recordType]
	if !ok {
		return false, nil
	}

	var active bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND is_active = TRUE)`, recordTable)
	if err := repository.pool.QueryRow(ctx, query, id).Scan(&active); err != nil {
		return false, dberr.Wrap(err, "Record")
	}
	return active, nil
}
