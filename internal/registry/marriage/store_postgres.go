package marriage

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

const resource = "Marriage record"

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
	table := schema.RegistryMarriageRecord
	return database.Fields{
		database.Bind("province", &record.Province),
		database.Bind("city_municipality", &record.CityMunicipality),
		database.Bind(table.DateOfMarriage, &record.DateOfMarriage),
		database.Bind("time_of_marriage", &record.TimeOfMarriage),
		database.Bind(table.PlaceOfMarriage, &record.PlaceOfMarriage),
		database.Bind("marriage_type", &record.MarriageType),
		database.Bind("license_number", &record.LicenseNumber),
		database.Bind("license_date", &record.LicenseDate),
		database.Bind("license_place", &record.LicensePlace),
		database.Bind("property_regime", &record.PropertyRegime),

		database.Bind(table.HusbandFirstName, &record.HusbandFirstName),
		database.Bind(table.HusbandMiddleName, &record.HusbandMiddleName),
		database.Bind(table.HusbandLastName, &record.HusbandLastName),
		database.Bind("husband_birthdate", &record.HusbandBirthdate),
		database.Bind("husband_birthplace", &record.HusbandBirthplace),
		database.Bind("husband_sex", &record.HusbandSex),
		database.Bind("husband_citizenship", &record.HusbandCitizenship),
		database.Bind("husband_religion", &record.HusbandReligion),
		database.Bind("husband_civil_status", &record.HusbandCivilStatus),
		database.Bind("husband_occupation", &record.HusbandOccupation),
		database.Bind("husband_address", &record.HusbandAddress),
		database.Bind("husband_father_name", &record.HusbandFatherName),
		database.Bind("husband_father_citizenship", &record.HusbandFatherCitizenship),
		database.Bind("husband_mother_name", &record.HusbandMotherName),
		database.Bind("husband_mother_citizenship", &record.HusbandMotherCitizenship),
		database.Bind("husband_consent_giver", &record.HusbandConsentGiver),
		database.Bind("husband_consent_relationship", &record.HusbandConsentRelationship),
		database.Bind("husband_consent_address", &record.HusbandConsentAddress),

		database.Bind(table.WifeFirstName, &record.WifeFirstName),
		database.Bind(table.WifeMiddleName, &record.WifeMiddleName),
		database.Bind(table.WifeLastName, &record.WifeLastName),
		database.Bind("wife_birthdate", &record.WifeBirthdate),
		database.Bind("wife_birthplace", &record.WifeBirthplace),
		database.Bind("wife_sex", &record.WifeSex),
		database.Bind("wife_citizenship", &record.WifeCitizenship),
		database.Bind("wife_religion", &record.WifeReligion),
		database.Bind("wife_civil_status", &record.WifeCivilStatus),
		database.Bind("wife_occupation", &record.WifeOccupation),
		database.Bind("wife_address", &record.WifeAddress),
		database.Bind("wife_father_name", &record.WifeFatherName),
		database.Bind("wife_father_citizenship", &record.WifeFatherCitizenship),
		database.Bind("wife_mother_name", &record.WifeMotherName),
		database.Bind("wife_mother_citizenship", &record.WifeMotherCitizenship),
		database.Bind("wife_consent_giver", &record.WifeConsentGiver),
		database.Bind("wife_consent_relationship", &record.WifeConsentRelationship),
		database.Bind("wife_consent_address", &record.WifeConsentAddress),

		database.Bind("officiating_officer", &record.OfficiatingOfficer),
		database.Bind("officiant_title", &record.OfficiantTitle),
		database.Bind("officiant_license", &record.OfficiantLicense),
		database.Bind("legal_basis", &record.LegalBasis),
		database.Bind("legal_basis_article", &record.LegalBasisArticle),
		database.Bind("witness1_name", &record.Witness1Name),
		database.Bind("witness1_address", &record.Witness1Address),
		database.Bind("witness1_relationship", &record.Witness1Relationship),
		database.Bind("witness2_name", &record.Witness2Name),
		database.Bind("witness2_address", &record.Witness2Address),
		database.Bind("witness2_relationship", &record.Witness2Relationship),
		database.Bind("marriage_remarks", &record.Remarks),
	}
}

func recordInsert(record *Record) database.Fields {
	table := schema.RegistryMarriageRecord
	fields := database.Fields{
		database.Bind(table.RegistryNumber, &record.RegistryNumber),
		database.Bind("date_registered", &record.DateRegistered),
		database.Bind(table.EncodedBy, &record.EncodedBy.ID),
		database.Bind(table.EncodedByKind, &record.EncodedBy.Kind),
	}
	return append(fields, recordContent(record)...)
}

func recordGenerated(record *Record) database.Fields {
	table := schema.RegistryMarriageRecord
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
	table := schema.RegistryMarriageRecord
	return database.Fields{
		database.Bind(table.ID, &match.ID),
		database.Bind(table.RegistryNumber, &match.RegistryNumber),
		database.Bind(table.HusbandFirstName, &match.HusbandFirstName),
		database.Bind(table.HusbandLastName, &match.HusbandLastName),
		database.Bind(table.WifeFirstName, &match.WifeFirstName),
		database.Bind(table.WifeLastName, &match.WifeLastName),
		database.Bind(table.DateOfMarriage, &match.DateOfMarriage),
		database.Bind(table.PlaceOfMarriage, &match.PlaceOfMarriage),
	}
}

func searchColumns() []string {
	table := schema.RegistryMarriageRecord
	return []string{
		table.HusbandFirstName, table.HusbandMiddleName, table.HusbandLastName,
		table.WifeFirstName, table.WifeMiddleName, table.WifeLastName,
		table.RegistryNumber, table.PlaceOfMarriage,
	}
}

// # Reads

func (repository *PostgresRepository) List(ctx context.Context, filter registry.Filter, limit, offset int) ([]Record, int, error) {
	table := schema.RegistryMarriageRecord
	conditions := filter.Conditions(table.DateOfMarriage, table.PlaceOfMarriage, searchColumns()...)

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
	table := schema.RegistryMarriageRecord
	record := &Record{}
	fields := recordFields(record)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`, fields.ColumnList(""), table.Table, table.ID)

	if err := database.ScanInto(repository.pool.QueryRow(ctx, query, id), fields); err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	return record, nil
}

func (repository *PostgresRepository) Search(ctx context.Context, term string, limit int) ([]Match, error) {
	table := schema.RegistryMarriageRecord
	conditions := (registry.Filter{Search: term}).Conditions(table.DateOfMarriage, "", searchColumns()...)
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

func (repository *PostgresRepository) Statistics(ctx context.Context, monthStart, yearStart time.Time) (Statistics, error) {
	table := schema.RegistryMarriageRecord
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE %[2]s >= $1),
			COUNT(*) FILTER (WHERE %[2]s >= $2)
		FROM %[1]s
		WHERE %[3]s = TRUE
	`, table.Table, table.CreatedAt, table.IsActive)

	var stats Statistics
	err := repository.pool.QueryRow(ctx, query, monthStart, yearStart).Scan(&stats.TotalRecords, &stats.ThisMonth, &stats.ThisYear)
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
	table := schema.RegistryMarriageRecord
	conditions := &database.Conditions{}
	equal := func(column, value string) {
		conditions.Where(fmt.Sprintf("LOWER(%s) = LOWER(%s)", column, conditions.Arg(value)))
	}

	conditions.Where(table.IsActive + " = TRUE")
	equal(table.HusbandFirstName, key.HusbandFirstName)
	equal(table.HusbandLastName, key.HusbandLastName)
	equal(table.WifeFirstName, key.WifeFirstName)
	equal(table.WifeLastName, key.WifeLastName)
	conditions.Where(fmt.Sprintf("%s = %s", table.DateOfMarriage, conditions.Arg(key.DateOfMarriage)))
	if key.PlaceOfMarriage != "" {
		equal(table.PlaceOfMarriage, key.PlaceOfMarriage)
	}
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

// FindSimilar applies the near-match rules to both spouses at once: first
// names equal and last names containing the given ones, the reverse, or all
// four names equal with the date within [dedupe.DateWindowDays] days.
func (repository *PostgresRepository) FindSimilar(ctx context.Context, key Key, limit int) ([]Match, error) {
	table := schema.RegistryMarriageRecord
	conditions := &database.Conditions{}

	equal := func(column, value string) string {
		return fmt.Sprintf("LOWER(%s) = LOWER(%s)", column, conditions.Arg(value))
	}
	contains := func(column, value string) string {
		return fmt.Sprintf("%s ILIKE %s", column, conditions.Arg(database.Contains(value)))
	}

	lastNamesLoose := fmt.Sprintf("(%s AND %s AND %s AND %s)",
		equal(table.HusbandFirstName, key.HusbandFirstName), contains(table.HusbandLastName, key.HusbandLastName),
		equal(table.WifeFirstName, key.WifeFirstName), contains(table.WifeLastName, key.WifeLastName),
	)
	firstNamesLoose := fmt.Sprintf("(%s AND %s AND %s AND %s)",
		contains(table.HusbandFirstName, key.HusbandFirstName), equal(table.HusbandLastName, key.HusbandLastName),
		contains(table.WifeFirstName, key.WifeFirstName), equal(table.WifeLastName, key.WifeLastName),
	)
	dateNear := fmt.Sprintf("(%s AND %s AND %s AND %s AND %s BETWEEN %s AND %s)",
		equal(table.HusbandFirstName, key.HusbandFirstName), equal(table.HusbandLastName, key.HusbandLastName),
		equal(table.WifeFirstName, key.WifeFirstName), equal(table.WifeLastName, key.WifeLastName),
		table.DateOfMarriage,
		conditions.Arg(key.DateOfMarriage.AddDays(-dedupe.DateWindowDays)),
		conditions.Arg(key.DateOfMarriage.AddDays(dedupe.DateWindowDays)),
	)

	conditions.Where(table.IsActive + " = TRUE")
	conditions.Where("(" + lastNamesLoose + " OR " + firstNamesLoose + " OR " + dateNear + ")")

	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s, %s LIMIT %s`,
		matchFields(&Match{}).ColumnList(""), table.Table, conditions.SQL(), table.DateOfMarriage, table.ID, conditions.Arg(limit),
	)

	rows, err := repository.pool.Query(ctx, query, conditions.Args()...)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	matches, err := database.CollectRows(rows, matchFields)
	return matches, dberr.Wrap(err, resource)
}

// # Writes

// Create registers the record under the couple's identity lock with a fresh
// registry number from the counter.
func (repository *PostgresRepository) Create(ctx context.Context, record *Record) error {
	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(ctx)

	key := KeyOf(record)
	if err := dedupe.Lock(ctx, transaction, string(registry.TypeMarriage), key.lockKey()); err != nil {
		return err
	}

	existing, err := findExact(ctx, transaction, key, 0)
	if err != nil {
		return dberr.Wrap(err, resource)
	}
	if existing != nil {
		return &registry.DuplicateError{Existing: existing}
	}

	record.RegistryNumber, err = sequence.Next(ctx, transaction, registry.TypeMarriage.Prefix(), record.DateRegistered.Year)
	if err != nil {
		return err
	}

	fields := recordInsert(record)
	generated := recordGenerated(record)
	insert := database.InsertSQL(schema.RegistryMarriageRecord.Table, fields, generated.Columns()...)
	if err := database.ScanInto(transaction.QueryRow(ctx, insert, fields.Values()...), generated); err != nil {
		return dberr.Wrap(err, resource)
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit marriage registration: %w", err)
	}
	return nil
}

// Update rewrites an active record. The registry number, encoder and
// registration date never change.
func (repository *PostgresRepository) Update(ctx context.Context, record *Record) error {
	table := schema.RegistryMarriageRecord

	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: update transaction begin failed: %w", err)
	}
	defer transaction.Rollback(ctx)

	key := KeyOf(record)
	if err := dedupe.Lock(ctx, transaction, string(registry.TypeMarriage), key.lockKey()); err != nil {
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
	table := schema.RegistryMarriageRecord
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
