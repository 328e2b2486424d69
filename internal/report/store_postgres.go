package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/civilregistry/internal/platform/database/schema"
	"github.com/taibuivan/civilregistry/internal/platform/dberr"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/civil"
)

const resource = "Report"

// PostgresRepository implements [Repository] on pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// source names the table and principal date column of a record type.
type source struct {
	table string
	date  string
}

var sources = map[registry.Type]source{
	registry.TypeBirth:    {schema.RegistryBirthRecord.Table, schema.RegistryBirthRecord.DateOfBirth},
	registry.TypeMarriage: {schema.RegistryMarriageRecord.Table, schema.RegistryMarriageRecord.DateOfMarriage},
	registry.TypeDeath:    {schema.RegistryDeathRecord.Table, schema.RegistryDeathRecord.DateOfDeath},
}

func sourceOf(recordType registry.Type) (source, error) {
	found, ok := sources[recordType]
	if !ok {
		return source{}, fmt.Errorf("report: unknown record type %q", recordType)
	}
	return found, nil
}

func (repository *PostgresRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var count int
	if err := repository.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, dberr.Wrap(err, resource)
	}
	return count, nil
}

func (repository *PostgresRepository) Count(ctx context.Context, recordType registry.Type) (int, error) {
	from, err := sourceOf(recordType)
	if err != nil {
		return 0, err
	}
	return repository.count(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE is_active = TRUE`, from.table))
}

func (repository *PostgresRepository) CountBetween(ctx context.Context, recordType registry.Type, start, end civil.Date) (int, error) {
	from, err := sourceOf(recordType)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE is_active = TRUE AND %[2]s >= $1 AND %[2]s <= $2`, from.table, from.date)
	return repository.count(ctx, query, start, end)
}

func (repository *PostgresRepository) CountCreated(ctx context.Context, recordType registry.Type, start, end time.Time) (int, error) {
	from, err := sourceOf(recordType)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE is_active = TRUE AND created_at >= $1 AND created_at < $2`, from.table)
	return repository.count(ctx, query, start, end)
}

func (repository *PostgresRepository) buckets(ctx context.Context, query string, args ...any) ([]Bucket, error) {
	rows, err := repository.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	buckets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Bucket, error) {
		var bucket Bucket
		err := row.Scan(&bucket.Year, &bucket.Month, &bucket.Count)
		return bucket, err
	})
	return buckets, dberr.Wrap(err, resource)
}

func (repository *PostgresRepository) Monthly(ctx context.Context, recordType registry.Type, year int) ([]Bucket, error) {
	from, err := sourceOf(recordType)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT EXTRACT(YEAR FROM %[2]s)::int, EXTRACT(MONTH FROM %[2]s)::int, COUNT(*)
		FROM %[1]s
		WHERE is_active = TRUE AND %[2]s >= make_date($1::int, 1, 1) AND %[2]s < make_date($1::int + 1, 1, 1)
		GROUP BY 1, 2
		ORDER BY 1, 2`, from.table, from.date)
	return repository.buckets(ctx, query, year)
}

func (repository *PostgresRepository) Yearly(ctx context.Context, recordType registry.Type) ([]Bucket, error) {
	from, err := sourceOf(recordType)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT EXTRACT(YEAR FROM %[2]s)::int, 0, COUNT(*)
		FROM %[1]s
		WHERE is_active = TRUE
		GROUP BY 1
		ORDER BY 1`, from.table, from.date)
	return repository.buckets(ctx, query)
}

func (repository *PostgresRepository) Gender(ctx context.Context) ([]GenderCount, error) {
	table := schema.RegistryBirthRecord
	query := fmt.Sprintf(`SELECT %[2]s, COUNT(*) FROM %[1]s WHERE %[3]s = TRUE GROUP BY %[2]s ORDER BY %[2]s`,
		table.Table, table.Sex, table.IsActive,
	)

	rows, err := repository.pool.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	counts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (GenderCount, error) {
		var count GenderCount
		err := row.Scan(&count.Sex, &count.Count)
		return count, err
	})
	return counts, dberr.Wrap(err, resource)
}

func (repository *PostgresRepository) Recent(ctx context.Context, limit int) ([]Recent, error) {
	birth, marriage, death := schema.RegistryBirthRecord, schema.RegistryMarriageRecord, schema.RegistryDeathRecord
	query := fmt.Sprintf(`
		SELECT * FROM (
			SELECT 'Birth', id, registry_number, concat_ws(' ', %[4]s, %[5]s, %[6]s), date_registered, created_at
			FROM %[1]s WHERE is_active = TRUE
			UNION ALL
			SELECT 'Marriage', id, registry_number,
			       concat_ws(' ', %[7]s, %[8]s) || ' & ' || concat_ws(' ', %[9]s, %[10]s), date_registered, created_at
			FROM %[2]s WHERE is_active = TRUE
			UNION ALL
			SELECT 'Death', id, registry_number, concat_ws(' ', %[11]s, %[12]s, %[13]s), date_registered, created_at
			FROM %[3]s WHERE is_active = TRUE
		) AS recent
		ORDER BY 6 DESC
		LIMIT $1`,
		birth.Table, marriage.Table, death.Table,
		birth.FirstName, birth.MiddleName, birth.LastName,
		marriage.HusbandFirstName, marriage.HusbandLastName, marriage.WifeFirstName, marriage.WifeLastName,
		death.FirstName, death.MiddleName, death.LastName,
	)

	rows, err := repository.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	recent, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Recent, error) {
		var entry Recent
		err := row.Scan(&entry.Type, &entry.ID, &entry.RegistryNumber, &entry.Name, &entry.DateRegistered, &entry.CreatedAt)
		return entry, err
	})
	return recent, dberr.Wrap(err, resource)
}

func (repository *PostgresRepository) Revenue(ctx context.Context, start, end time.Time) (Revenue, error) {
	table := schema.RegistryCertificateLog
	query := fmt.Sprintf(`SELECT COUNT(*), COALESCE(SUM(%[2]s), 0) FROM %[1]s WHERE %[3]s >= $1 AND %[3]s < $2`,
		table.Table, table.AmountPaid, table.CreatedAt,
	)

	var revenue Revenue
	if err := repository.pool.QueryRow(ctx, query, start, end).Scan(&revenue.Certificates, &revenue.Amount); err != nil {
		return Revenue{}, dberr.Wrap(err, resource)
	}
	return revenue, nil
}

// exportQueries select one text cell per [Columns] entry. $1 is the year.
var exportQueries = map[registry.Type]string{
	registry.TypeBirth: fmt.Sprintf(`
		SELECT 'Birth', b.registry_number, b.child_first_name, COALESCE(b.child_middle_name, ''), b.child_last_name,
		       b.sex, b.date_of_birth::text, COALESCE(to_char(b.time_of_birth, 'HH24:MI'), ''), b.place_of_birth,
		       concat_ws(', ', NULLIF(b.birth_address_house, ''), NULLIF(b.birth_address_barangay, ''), b.birth_address_city),
		       b.type_of_birth, COALESCE(b.birth_weight::text, ''),
		       COALESCE(m.first_name, 'N/A'), COALESCE(m.last_name, 'N/A'),
		       COALESCE(f.first_name, 'N/A'), COALESCE(f.last_name, 'N/A'),
		       b.date_registered::text
		FROM %[1]s b
		LEFT JOIN %[2]s m ON m.birth_record_id = b.id AND m.parent_type = 'Mother'
		LEFT JOIN %[2]s f ON f.birth_record_id = b.id AND f.parent_type = 'Father'
		WHERE b.is_active = TRUE AND b.date_of_birth >= make_date($1::int, 1, 1) AND b.date_of_birth < make_date($1::int + 1, 1, 1)
		ORDER BY b.date_of_birth, b.id`,
		schema.RegistryBirthRecord.Table, schema.RegistryParentsInformation.Table,
	),
	registry.TypeMarriage: fmt.Sprintf(`
		SELECT 'Marriage', registry_number,
		       husband_first_name, COALESCE(husband_middle_name, ''), husband_last_name,
		       wife_first_name, COALESCE(wife_middle_name, ''), wife_last_name,
		       date_of_marriage::text, place_of_marriage, date_registered::text
		FROM %s
		WHERE is_active = TRUE AND date_of_marriage >= make_date($1::int, 1, 1) AND date_of_marriage < make_date($1::int + 1, 1, 1)
		ORDER BY date_of_marriage, id`,
		schema.RegistryMarriageRecord.Table,
	),
	registry.TypeDeath: fmt.Sprintf(`
		SELECT 'Death', registry_number, first_name, COALESCE(middle_name, ''), last_name,
		       sex, date_of_death::text, place_of_death, immediate_cause, date_registered::text
		FROM %s
		WHERE is_active = TRUE AND date_of_death >= make_date($1::int, 1, 1) AND date_of_death < make_date($1::int + 1, 1, 1)
		ORDER BY date_of_death, id`,
		schema.RegistryDeathRecord.Table,
	),
}

func (repository *PostgresRepository) ExportRows(ctx context.Context, recordType registry.Type, year int) ([][]string, error) {
	query, ok := exportQueries[recordType]
	if !ok {
		return nil, fmt.Errorf("report: unknown record type %q", recordType)
	}
	width := len(Columns(recordType))

	rows, err := repository.pool.Query(ctx, query, year)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	cells, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) ([]string, error) {
		values := make([]string, width)
		targets := make([]any, width)
		for index := range values {
			targets[index] = &values[index]
		}
		return values, row.Scan(targets...)
	})
	return cells, dberr.Wrap(err, resource)
}
