package death

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/civilregistry/internal/platform/database"
	"github.com/taibuivan/civilregistry/internal/platform/database/schema"
	"github.com/taibuivan/civilregistry/internal/platform/dberr"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/dedupe"
	"github.com/taibuivan/civilregistry/internal/registry/sequence"
)

const resource = "Death record"

// PostgresRepository implements [Repository] on pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// # Column Bindings

func recordContent(record *Record) database.Fields {
	table := schema.RegistryDeathRecord
	return database.Fields{
		database.Bind(table.FirstName, &record.FirstName),
		database.Bind(table.MiddleName, &record.MiddleName),
		database.Bind(table.LastName, &record.LastName),
		database.Bind(table.Sex, &record.Sex),
		database.Bind("civil_status", &record.CivilStatus),
		database.Bind(table.DateOfDeath, &record.DateOfDeath),
		database.Bind(table.DateOfBirth, &record.DateOfBirth),
		database.Bind("age_years", &record.Years),
		database.Bind("age_months", &record.Months),
		database.Bind("age_days", &record.Days),
		database.Bind("age_hours", &record.Hours),
		database.Bind("age_minutes", &record.Minutes),
		database.Bind("age_under_1", &record.Under1),

		database.Bind(table.PlaceOfDeath, &record.PlaceOfDeath),
		database.Bind("religion", &record.Religion),
		database.Bind("citizenship", &record.Citizenship),
		database.Bind("residence", &record.Residence),
		database.Bind("occupation", &record.Occupation),
		database.Bind(table.FatherName, &record.FatherName),
		database.Bind(table.MotherMaidenName, &record.MotherMaidenName),

		database.Bind("immediate_cause", &record.ImmediateCause),
		database.Bind("antecedent_cause", &record.AntecedentCause),
		database.Bind("underlying_cause", &record.UnderlyingCause),
		database.Bind("other_significant_conditions", &record.OtherSignificantConditions),
		database.Bind("maternal_condition", &record.MaternalCondition),
		database.Bind("manner_of_death", &record.MannerOfDeath),
		database.Bind("place_of_occurrence", &record.PlaceOfOccurrence),
		database.Bind("autopsy", &record.Autopsy),

		database.Bind("attendant", &record.Attendant),
		database.Bind("attendant_other", &record.AttendantOther),
		database.Bind("attended_from", &record.AttendedFrom),
		database.Bind("attended_to", &record.AttendedTo),

		database.Bind("certifier_signature", &record.CertifierSignature),
		database.Bind("certifier_name", &record.CertifierName),
		database.Bind("certifier_title", &record.CertifierTitle),
		database.Bind("certifier_address", &record.CertifierAddress),
		database.Bind("certifier_date", &record.CertifierDate),
		database.Bind("attended_deceased", &record.AttendedDeceased),
		database.Bind("death_occurred_time", &record.DeathOccurredTime),

		database.Bind("corpse_disposal", &record.CorpseDisposal),
		database.Bind("burial_permit_number", &record.BurialPermitNumber),
		database.Bind("burial_permit_date", &record.BurialPermitDate),
		database.Bind("transfer_permit_number", &record.TransferPermitNumber),
		database.Bind("transfer_permit_date", &record.TransferPermitDate),
		database.Bind("cemetery_name", &record.CemeteryName),
		database.Bind("cemetery_address", &record.CemeteryAddress),

		database.Bind("informant_signature", &record.InformantSignature),
		database.Bind("informant_name", &record.InformantName),
		database.Bind("informant_relationship", &record.InformantRelationship),
		database.Bind("informant_address", &record.InformantAddress),
		database.Bind("informant_date", &record.InformantDate),
	}
}

func recordInsert(record *Record) database.Fields {
	table := schema.RegistryDeathRecord
	fields := database.Fields{
		database.Bind(table.RegistryNumber, &record.RegistryNumber),
		database.Bind("date_registered", &record.DateRegistered),
		database.Bind(table.EncodedBy, &record.EncodedBy.ID),
		database.Bind(table.EncodedByKind, &record.EncodedBy.Kind),
	}
	return append(fields, recordContent(record)...)
}

func recordGenerated(record *Record) database.Fields {
	table := schema.RegistryDeathRecord
	return database.Fields{
		database.Bind(table.ID, &record.ID),
		database.Bind(table.IsActive, &record.IsActive),
		database.Bind(table.CreatedAt, &record.CreatedAt),
		database.Bind(table.UpdatedAt, &record.UpdatedAt),
	}
}

func recordFields(record *Record) database.Fields {
	return append(recordInsert(record), recordGenerated(record)...)
}

func matchFields(match *Match) database.Fields {
	table := schema.RegistryDeathRecord
	return database.Fields{
		database.Bind(table.ID, &match.ID),
		database.Bind(table.RegistryNumber, &match.RegistryNumber),
		database.Bind(table.FirstName, &match.FirstName),
		database.Bind(table.MiddleName, &match.MiddleName),
		database.Bind(table.LastName, &match.LastName),
		database.Bind(table.DateOfDeath, &match.DateOfDeath),
		database.Bind(table.DateOfBirth, &match.DateOfBirth),
		database.Bind(table.Sex, &match.Sex),
	}
}

func searchColumns() []string {
	table := schema.RegistryDeathRecord
	return []string{
		table.FirstName, table.MiddleName, table.LastName, table.RegistryNumber,
		table.PlaceOfDeath, table.FatherName, table.MotherMaidenName,
	}
}

// # Reads

func (repository *PostgresRepository) List(ctx context.Context, filter registry.Filter, limit, offset int) ([]Record, int, error) {
	table := schema.RegistryDeathRecord
	conditions := filter.Conditions(table.DateOfDeath, "", searchColumns()...)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, table.Table, conditions.SQL())
	if err := repository.pool.QueryRow(ctx, countQuery, conditions.Args()...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}

	where := conditions.SQL()
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s DESC, %s DESC %s`,
		recordFields(&Record{}).ColumnList(""), table.Table, where, table.CreatedAt, table.ID, conditions.Page(limit, offset),
	)

	rows, err := repository.pool.Query(ctx, query, conditions.Args()...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}
	records, err := database.CollectRows(rows, recordFields)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}
	return records, total, nil
}

// Get returns the record whether or not it is active.
func (repository *PostgresRepository) Get(ctx context.Context, id int64) (*Record, error) {
	table := schema.RegistryDeathRecord
	record := &Record{}
	fields := recordFields(record)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, fields.ColumnList(""), table.Table, table.ID)

	if err := database.ScanInto(repository.pool.QueryRow(ctx, query, id), fields); err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	return record, nil
}

func (repository *PostgresRepository) Search(ctx context.Context, term string, limit int) ([]Match, error) {
	table := schema.RegistryDeathRecord
	conditions := (registry.Filter{Search: term}).Conditions(table.DateOfDeath, "", searchColumns()...)
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s DESC LIMIT %s`,
		matchFields(&Match{}).ColumnList(""), table.Table, conditions.SQL(), table.CreatedAt, conditions.Arg(limit),
	)

	rows, err := repository.pool.Query(ctx, query, conditions.Args()...)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	matches, err := database.CollectRows(rows, matchFields)
	return matches, dberr.Wrap(err, resource)
}

// Statistics ignores yearStart; death statistics have no yearly counter.
func (repository *PostgresRepository) Statistics(ctx context.Context, monthStart, _ time.Time) (Statistics, error) {
	table := schema.RegistryDeathRecord
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE %[2]s = 'Male'),
			COUNT(*) FILTER (WHERE %[2]s = 'Female'),
			COUNT(*) FILTER (WHERE %[3]s >= $1)
		FROM %[1]s
		WHERE %[4]s = TRUE
	`, table.Table, table.Sex, table.CreatedAt, table.IsActive)

	var stats Statistics
	err := repository.pool.QueryRow(ctx, query, monthStart).Scan(&stats.TotalRecords, &stats.Male, &stats.Female, &stats.ThisMonth)
	return stats, dberr.Wrap(err, resource)
}

// # Duplicate Detection

func (repository *PostgresRepository) FindExact(ctx context.Context, key Key, excludeID int64) (*Record, error) {
	record, err := findExact(ctx, repository.pool, key, excludeID)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	return record, nil
}

func findExact(ctx context.Context, querier database.Querier, key Key, excludeID int64) (*Record, error) {
	table := schema.RegistryDeathRecord
	conditions := &database.Conditions{}

	conditions.Where(table.IsActive + " = TRUE")
	conditions.Where(fmt.Sprintf("LOWER(%s) = LOWER(%s)", table.FirstName, conditions.Arg(key.FirstName)))
	conditions.Where(fmt.Sprintf("LOWER(%s) = LOWER(%s)", table.LastName, conditions.Arg(key.LastName)))
	conditions.Where(fmt.Sprintf("%s = %s", table.DateOfDeath, conditions.Arg(key.DateOfDeath)))
	conditions.Where(fmt.Sprintf("%s = %s", table.DateOfBirth, conditions.Arg(key.DateOfBirth)))
	if excludeID > 0 {
		conditions.Where(fmt.Sprintf("%s <> %s", table.ID, conditions.Arg(excludeID)))
	}

	record := &Record{}
	fields := recordFields(record)
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s LIMIT 1`, fields.ColumnList(""), table.Table, conditions.SQL(), table.ID)

	err := database.ScanInto(querier.QueryRow(ctx, query, conditions.Args()...), fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FindSimilar returns active records whose first name matches and last name
// contains the given one, or the reverse. Records with the same date of birth,
// or a date of death within [dedupe.DateWindowDays] days, come first.
func (repository *PostgresRepository) FindSimilar(ctx context.Context, key Key, limit int) ([]Match, error) {
	table := schema.RegistryDeathRecord
	conditions := &database.Conditions{}

	first := conditions.Arg(key.FirstName)
	last := conditions.Arg(key.LastName)
	firstPattern := conditions.Arg(database.Contains(key.FirstName))
	lastPattern := conditions.Arg(database.Contains(key.LastName))

	conditions.Where(table.IsActive + " = TRUE")
	conditions.Where(fmt.Sprintf("((LOWER(%[1]s) = LOWER(%[3]s) AND %[2]s ILIKE %[6]s) OR (%[1]s ILIKE %[5]s AND LOWER(%[2]s) = LOWER(%[4]s)))",
		table.FirstName, table.LastName, first, last, firstPattern, lastPattern,
	))

	closeness := fmt.Sprintf("CASE WHEN %s = %s OR %s BETWEEN %s AND %s THEN 0 ELSE 1 END",
		table.DateOfBirth, conditions.Arg(key.DateOfBirth),
		table.DateOfDeath,
		conditions.Arg(key.DateOfDeath.AddDays(-dedupe.DateWindowDays)),
		conditions.Arg(key.DateOfDeath.AddDays(dedupe.DateWindowDays)),
	)

	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s, %s DESC, %s LIMIT %s`,
		matchFields(&Match{}).ColumnList(""), table.Table, conditions.SQL(), closeness, table.DateOfDeath, table.ID, conditions.Arg(limit),
	)

	rows, err := repository.pool.Query(ctx, query, conditions.Args()...)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	matches, err := database.CollectRows(rows, matchFields)
	return matches, dberr.Wrap(err, resource)
}

// # Writes

// Create registers the record under the decedent's identity lock with a fresh
// registry number from the counter.
func (repository *PostgresRepository) Create(ctx context.Context, record *Record) error {
	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(ctx)

	key := KeyOf(record)
	if err := dedupe.Lock(ctx, transaction, string(registry.TypeDeath), key.lockKey()); err != nil {
		return err
	}

	existing, err := findExact(ctx, transaction, key, 0)
	if err != nil {
		return dberr.Wrap(err, resource)
	}
	if existing != nil {
		return &registry.DuplicateError{Existing: existing}
	}

	record.RegistryNumber, err = sequence.Next(ctx, transaction, registry.TypeDeath.Prefix(), record.DateRegistered.Year)
	if err != nil {
		return err
	}

	fields := recordInsert(record)
	generated := recordGenerated(record)
	insert := database.InsertSQL(schema.RegistryDeathRecord.Table, fields, generated.Columns()...)
	if err := database.ScanInto(transaction.QueryRow(ctx, insert, fields.Values()...), generated); err != nil {
		return dberr.Wrap(err, resource)
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit death registration: %w", err)
	}
	return nil
}

// Update rewrites an active record. The registry number, encoder and
// registration date never change.
func (repository *PostgresRepository) Update(ctx context.Context, record *Record) error {
	table := schema.RegistryDeathRecord

	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: update transaction begin failed: %w", err)
	}
	defer transaction.Rollback(ctx)

	key := KeyOf(record)
	if err := dedupe.Lock(ctx, transaction, string(registry.TypeDeath), key.lockKey()); err != nil {
		return err
	}

	existing, err := findExact(ctx, transaction, key, record.ID)
	if err != nil {
		return dberr.Wrap(err, resource)
	}
	if existing != nil {
		return &registry.DuplicateError{Existing: existing}
	}

	content := recordContent(record)
	update := database.UpdateSQL(table.Table, table.ID, content, table.UpdatedAt+" = NOW()") +
		fmt.Sprintf(" AND %s = TRUE", table.IsActive)

	command, err := transaction.Exec(ctx, update, append([]any{record.ID}, content.Values()...)...)
	if err != nil {
		return dberr.Wrap(err, resource)
	}
	if command.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resource)
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: update transaction commit failed: %w", err)
	}
	return nil
}

// Deactivate soft-deletes an active record.
func (repository *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	table := schema.RegistryDeathRecord
	query := fmt.Sprintf(`UPDATE %s SET %s = FALSE, %s = NOW() WHERE %s = $1 AND %s = TRUE`,
		table.Table, table.IsActive, table.UpdatedAt, table.ID, table.IsActive,
	)

	command, err := repository.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err, resource)
	}
	if command.RowsAffected() == 0 {
		return dberr.Wrap(pgx.ErrNoRows, resource)
	}
	return nil
}
