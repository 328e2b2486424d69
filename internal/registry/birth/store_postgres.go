package birth

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
	"github.com/taibuivan/civilregistry/internal/registry/dependent"
	"github.com/taibuivan/civilregistry/internal/registry/sequence"
)

const resource = "Birth record"

// PostgresRepository implements [Repository] on pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// # Column Bindings

// recordContent binds the columns written by both insert and update.
func recordContent(record *Record) database.Fields {
	return database.Fields{
		database.Bind("child_first_name", &record.FirstName),
		database.Bind("child_middle_name", &record.MiddleName),
		database.Bind("child_last_name", &record.LastName),
		database.Bind("sex", &record.Sex),
		database.Bind("date_of_birth", &record.DateOfBirth),
		database.Bind("time_of_birth", &record.TimeOfBirth),
		database.Bind("place_of_birth", &record.PlaceOfBirth),
		database.Bind("birth_address_house", &record.AddressHouse),
		database.Bind("birth_address_barangay", &record.AddressBarangay),
		database.Bind("birth_address_city", &record.AddressCity),
		database.Bind("birth_address_province", &record.AddressProvince),
		database.Bind("type_of_birth", &record.TypeOfBirth),
		database.Bind("multiple_birth_order", &record.MultipleBirthOrder),
		database.Bind("birth_order", &record.BirthOrder),
		database.Bind("birth_weight", &record.BirthWeight),
		database.Bind("birth_notes", &record.BirthNotes),
		database.Bind("is_late_registration", &record.IsLateRegistration),
		database.Bind("legitimacy_status", &record.LegitimacyStatus),
		database.Bind("father_acknowledgment", &record.FatherAcknowledgment),
		database.Bind("name_changed", &record.NameChanged),
		database.Bind("current_first_name", &record.CurrentFirstName),
		database.Bind("current_middle_name", &record.CurrentMiddleName),
		database.Bind("current_last_name", &record.CurrentLastName),
	}
}

// recordInsert adds the columns fixed at registration.
func recordInsert(record *Record) database.Fields {
	fields := database.Fields{
		database.Bind(schema.RegistryBirthRecord.RegistryNumber, &record.RegistryNumber),
		database.Bind(schema.RegistryBirthRecord.DateRegistered, &record.DateRegistered),
		database.Bind(schema.RegistryBirthRecord.EncodedBy, &record.EncodedBy.ID),
		database.Bind(schema.RegistryBirthRecord.EncodedByKind, &record.EncodedBy.Kind),
	}
	return append(fields, recordContent(record)...)
}

// recordGenerated binds the columns filled in by the database.
func recordGenerated(record *Record) database.Fields {
	return database.Fields{
		database.Bind(schema.RegistryBirthRecord.ID, &record.ID),
		database.Bind(schema.RegistryBirthRecord.IsActive, &record.IsActive),
		database.Bind(schema.RegistryBirthRecord.CreatedAt, &record.CreatedAt),
		database.Bind(schema.RegistryBirthRecord.UpdatedAt, &record.UpdatedAt),
	}
}

func recordFields(record *Record) database.Fields {
	return append(recordInsert(record), recordGenerated(record)...)
}

func matchFields(match *Match) database.Fields {
	return database.Fields{
		database.Bind(schema.RegistryBirthRecord.ID, &match.ID),
		database.Bind(schema.RegistryBirthRecord.RegistryNumber, &match.RegistryNumber),
		database.Bind(schema.RegistryBirthRecord.FirstName, &match.FirstName),
		database.Bind(schema.RegistryBirthRecord.MiddleName, &match.MiddleName),
		database.Bind(schema.RegistryBirthRecord.LastName, &match.LastName),
		database.Bind(schema.RegistryBirthRecord.DateOfBirth, &match.DateOfBirth),
		database.Bind(schema.RegistryBirthRecord.Sex, &match.Sex),
		database.Bind(schema.RegistryBirthRecord.PlaceOfBirth, &match.PlaceOfBirth),
	}
}

func parentContent(parent *Parent) database.Fields {
	return database.Fields{
		database.Bind("first_name", &parent.FirstName),
		database.Bind("middle_name", &parent.MiddleName),
		database.Bind("last_name", &parent.LastName),
		database.Bind("citizenship", &parent.Citizenship),
		database.Bind("religion", &parent.Religion),
		database.Bind("occupation", &parent.Occupation),
		database.Bind("age_at_birth", &parent.AgeAtBirth),
		database.Bind("children_born_alive", &parent.ChildrenBornAlive),
		database.Bind("children_still_living", &parent.ChildrenStillLiving),
		database.Bind("children_deceased", &parent.ChildrenDeceased),
		database.Bind("house_no", &parent.HouseNo),
		database.Bind("barangay", &parent.Barangay),
		database.Bind("city", &parent.City),
		database.Bind("province", &parent.Province),
		database.Bind("country", &parent.Country),
	}
}

func parentKeyed(parent *Parent) database.Fields {
	fields := database.Fields{
		database.Bind(schema.RegistryParentsInformation.BirthRecordID, &parent.BirthRecordID),
		database.Bind(schema.RegistryParentsInformation.ParentType, &parent.ParentType),
	}
	return append(fields, parentContent(parent)...)
}

func parentFields(parent *Parent) database.Fields {
	return append(database.Fields{database.Bind(schema.RegistryParentsInformation.ID, &parent.ID)}, parentKeyed(parent)...)
}

func marriageContent(marriage *ParentsMarriage) database.Fields {
	return database.Fields{
		database.Bind("marriage_date", &marriage.MarriageDate),
		database.Bind("marriage_place_city", &marriage.PlaceCity),
		database.Bind("marriage_place_province", &marriage.PlaceProvince),
		database.Bind("marriage_place_country", &marriage.PlaceCountry),
	}
}

func marriageKeyed(marriage *ParentsMarriage) database.Fields {
	keyed := database.Fields{database.Bind(schema.RegistryParentsMarriage.BirthRecordID, &marriage.BirthRecordID)}
	return append(keyed, marriageContent(marriage)...)
}

func marriageFields(marriage *ParentsMarriage) database.Fields {
	return append(database.Fields{database.Bind(schema.RegistryParentsMarriage.ID, &marriage.ID)}, marriageKeyed(marriage)...)
}

func attendantKeyed(attendant *Attendant) database.Fields {
	return database.Fields{
		database.Bind(schema.RegistryBirthAttendant.BirthRecordID, &attendant.BirthRecordID),
		database.Bind("attendant_type", &attendant.Type),
		database.Bind("attendant_name", &attendant.Name),
		database.Bind("attendant_license", &attendant.License),
		database.Bind("attendant_certification", &attendant.Certification),
		database.Bind("attendant_address", &attendant.Address),
		database.Bind("attendant_title", &attendant.Title),
	}
}

func attendantFields(attendant *Attendant) database.Fields {
	return append(database.Fields{database.Bind(schema.RegistryBirthAttendant.ID, &attendant.ID)}, attendantKeyed(attendant)...)
}

func informantKeyed(informant *Informant) database.Fields {
	return database.Fields{
		database.Bind(schema.RegistryInformant.BirthRecordID, &informant.BirthRecordID),
		database.Bind("first_name", &informant.FirstName),
		database.Bind("middle_name", &informant.MiddleName),
		database.Bind("last_name", &informant.LastName),
		database.Bind("relationship", &informant.Relationship),
		database.Bind("address", &informant.Address),
		database.Bind("certification_accepted", &informant.CertificationAccepted),
	}
}

func informantFields(informant *Informant) database.Fields {
	return append(database.Fields{database.Bind(schema.RegistryInformant.ID, &informant.ID)}, informantKeyed(informant)...)
}

// # Reads

func (repository *PostgresRepository) List(ctx context.Context, filter registry.Filter, limit, offset int) ([]Record, int, error) {
	table := schema.RegistryBirthRecord
	conditions := filter.Conditions(table.DateOfBirth, "",
		table.RegistryNumber, table.FirstName, table.MiddleName, table.LastName, table.PlaceOfBirth,
	)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s %s`, table.Table, conditions.SQL())
	if err := repository.pool.QueryRow(ctx, countQuery, conditions.Args()...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}

	where := conditions.SQL()
	page := conditions.Page(limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s DESC, %s DESC %s`,
		recordFields(&Record{}).ColumnList(""), table.Table, where, table.CreatedAt, table.ID, page,
	)

	rows, err := repository.pool.Query(ctx, query, conditions.Args()...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}
	records, err := database.CollectRows(rows, recordFields)
	if err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}

	if err := loadChildren(ctx, repository.pool, records); err != nil {
		return nil, 0, dberr.Wrap(err, resource)
	}
	return records, total, nil
}

// Get returns the record whether or not it is active.
func (repository *PostgresRepository) Get(ctx context.Context, id int64) (*Record, error) {
	record, err := getRecord(ctx, repository.pool, id)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}

	records := []Record{*record}
	if err := loadChildren(ctx, repository.pool, records); err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	return &records[0], nil
}

func getRecord(ctx context.Context, querier database.Querier, id int64) (*Record, error) {
	record := &Record{}
	fields := recordFields(record)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		fields.ColumnList(""), schema.RegistryBirthRecord.Table, schema.RegistryBirthRecord.ID,
	)
	if err := database.ScanInto(querier.QueryRow(ctx, query, id), fields); err != nil {
		return nil, err
	}
	return record, nil
}

// loadChildren fetches the child rows of records with one batched round trip.
func loadChildren(ctx context.Context, querier database.Querier, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]int64, len(records))
	byID := make(map[int64]*Record, len(records))
	for index := range records {
		ids[index] = records[index].ID
		byID[records[index].ID] = &records[index]
	}

	batch := &pgx.Batch{}

	batch.Queue(childQuery(parentFields(&Parent{}), schema.RegistryParentsInformation.Table, schema.RegistryParentsInformation.BirthRecordID), ids).
		Query(func(rows pgx.Rows) error {
			parents, err := database.CollectRows(rows, parentFields)
			if err != nil {
				return err
			}
			for index := range parents {
				parent := parents[index]
				if record, ok := byID[parent.BirthRecordID]; ok {
					if parent.ParentType == ParentMother {
						record.Mother = &parent
					} else {
						record.Father = &parent
					}
				}
			}
			return nil
		})

	batch.Queue(childQuery(marriageFields(&ParentsMarriage{}), schema.RegistryParentsMarriage.Table, schema.RegistryParentsMarriage.BirthRecordID), ids).
		Query(func(rows pgx.Rows) error {
			marriages, err := database.CollectRows(rows, marriageFields)
			if err != nil {
				return err
			}
			for index := range marriages {
				if record, ok := byID[marriages[index].BirthRecordID]; ok {
					record.ParentsMarriage = &marriages[index]
				}
			}
			return nil
		})

	batch.Queue(childQuery(attendantFields(&Attendant{}), schema.RegistryBirthAttendant.Table, schema.RegistryBirthAttendant.BirthRecordID), ids).
		Query(func(rows pgx.Rows) error {
			attendants, err := database.CollectRows(rows, attendantFields)
			if err != nil {
				return err
			}
			for index := range attendants {
				if record, ok := byID[attendants[index].BirthRecordID]; ok {
					record.Attendant = &attendants[index]
				}
			}
			return nil
		})

	batch.Queue(childQuery(informantFields(&Informant{}), schema.RegistryInformant.Table, schema.RegistryInformant.BirthRecordID), ids).
		Query(func(rows pgx.Rows) error {
			informants, err := database.CollectRows(rows, informantFields)
			if err != nil {
				return err
			}
			for index := range informants {
				if record, ok := byID[informants[index].BirthRecordID]; ok {
					record.Informant = &informants[index]
				}
			}
			return nil
		})

	return querier.SendBatch(ctx, batch).Close()
}

func childQuery(fields database.Fields, table, foreignKey string) string {
	return fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`, fields.ColumnList(""), table, foreignKey)
}

func (repository *PostgresRepository) Search(ctx context.Context, term string, limit int) ([]Match, error) {
	table := schema.RegistryBirthRecord
	conditions := (registry.Filter{Search: term}).Conditions(table.DateOfBirth, "",
		table.RegistryNumber, table.FirstName, table.MiddleName, table.LastName,
	)
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
	table := schema.RegistryBirthRecord
	query := fmt.Sprintf(`
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE %[2]s >= $1),
			COUNT(*) FILTER (WHERE %[2]s >= $2),
			COUNT(*) FILTER (WHERE %[3]s = '%[4]s'),
			COUNT(*) FILTER (WHERE %[3]s = '%[5]s')
		FROM %[1]s
		WHERE %[6]s = TRUE
	`, table.Table, table.CreatedAt, table.Sex, SexMale, SexFemale, table.IsActive)

	var stats Statistics
	err := repository.pool.QueryRow(ctx, query, monthStart, yearStart).
		Scan(&stats.TotalRecords, &stats.ThisMonth, &stats.ThisYear, &stats.Male, &stats.Female)
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

// findExact returns the active record holding key, or nil.
func findExact(ctx context.Context, querier database.Querier, key Key, excludeID int64) (*Record, error) {
	table := schema.RegistryBirthRecord
	conditions := &database.Conditions{}
	conditions.Where(table.IsActive + " = TRUE")
	conditions.Where(fmt.Sprintf("LOWER(%s) = LOWER(%s)", table.FirstName, conditions.Arg(key.FirstName)))
	conditions.Where(fmt.Sprintf("LOWER(%s) = LOWER(%s)", table.LastName, conditions.Arg(key.LastName)))
	conditions.Where(fmt.Sprintf("%s = %s", table.DateOfBirth, conditions.Arg(key.DateOfBirth)))
	if key.PlaceOfBirth != "" {
		conditions.Where(fmt.Sprintf("LOWER(%s) = LOWER(%s)", table.PlaceOfBirth, conditions.Arg(key.PlaceOfBirth)))
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

// FindSimilar returns near matches: same first name and a last name containing
// the given one, the reverse, or the same full name born within
// [dedupe.DateWindowDays] days.
func (repository *PostgresRepository) FindSimilar(ctx context.Context, key Key, limit int) ([]Match, error) {
	table := schema.RegistryBirthRecord
	conditions := &database.Conditions{}
	first := conditions.Arg(key.FirstName)
	last := conditions.Arg(key.LastName)
	firstLike := conditions.Arg(database.Contains(key.FirstName))
	lastLike := conditions.Arg(database.Contains(key.LastName))
	from := conditions.Arg(key.DateOfBirth.AddDays(-dedupe.DateWindowDays))
	to := conditions.Arg(key.DateOfBirth.AddDays(dedupe.DateWindowDays))

	conditions.Where(table.IsActive + " = TRUE")
	conditions.Where(fmt.Sprintf(`(
		(LOWER(%[1]s) = LOWER(%[3]s) AND %[2]s ILIKE %[6]s) OR
		(%[1]s ILIKE %[5]s AND LOWER(%[2]s) = LOWER(%[4]s)) OR
		(LOWER(%[1]s) = LOWER(%[3]s) AND LOWER(%[2]s) = LOWER(%[4]s) AND %[7]s BETWEEN %[8]s AND %[9]s)
	)`, table.FirstName, table.LastName, first, last, firstLike, lastLike, table.DateOfBirth, from, to))

	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s, %s LIMIT %s`,
		matchFields(&Match{}).ColumnList(""), table.Table, conditions.SQL(), table.DateOfBirth, table.ID, conditions.Arg(limit),
	)

	rows, err := repository.pool.Query(ctx, query, conditions.Args()...)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	matches, err := database.CollectRows(rows, matchFields)
	return matches, dberr.Wrap(err, resource)
}

// # Writes

/*
Create registers the record and its child rows in one transaction.

The identity lock serializes registrations of the same child, so the exact
duplicate check below cannot race with another insert. The registry number is
drawn from the counter inside the same transaction, so a rollback leaves no gap
visible to other transactions.
*/
func (repository *PostgresRepository) Create(ctx context.Context, record *Record) error {
	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer transaction.Rollback(ctx)

	key := KeyOf(record)
	if err := dedupe.Lock(ctx, transaction, string(registry.TypeBirth), key.lockKey()); err != nil {
		return err
	}

	existing, err := findExact(ctx, transaction, key, 0)
	if err != nil {
		return dberr.Wrap(err, resource)
	}
	if existing != nil {
		return &registry.DuplicateError{Existing: existing}
	}

	record.RegistryNumber, err = sequence.Next(ctx, transaction, registry.TypeBirth.Prefix(), record.DateRegistered.Year)
	if err != nil {
		return err
	}

	fields := recordInsert(record)
	insert := database.InsertSQL(schema.RegistryBirthRecord.Table, fields, recordGenerated(record).Columns()...)
	if err := database.ScanInto(transaction.QueryRow(ctx, insert, fields.Values()...), recordGenerated(record)); err != nil {
		return dberr.Wrap(err, resource)
	}

	batch := &pgx.Batch{}
	for _, parent := range []*Parent{record.Mother, record.Father} {
		parent.BirthRecordID = record.ID
		queueInsert(batch, schema.RegistryParentsInformation.Table, parentKeyed(parent), &parent.ID)
	}
	if record.ParentsMarriage != nil {
		record.ParentsMarriage.BirthRecordID = record.ID
		queueInsert(batch, schema.RegistryParentsMarriage.Table, marriageKeyed(record.ParentsMarriage), &record.ParentsMarriage.ID)
	}
	record.Attendant.BirthRecordID = record.ID
	queueInsert(batch, schema.RegistryBirthAttendant.Table, attendantKeyed(record.Attendant), &record.Attendant.ID)
	record.Informant.BirthRecordID = record.ID
	queueInsert(batch, schema.RegistryInformant.Table, informantKeyed(record.Informant), &record.Informant.ID)

	if err := transaction.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("postgres: failed to insert birth record children: %w", err)
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: failed to commit birth registration: %w", err)
	}
	return nil
}

func queueInsert(batch *pgx.Batch, table string, fields database.Fields, id *int64) {
	batch.Queue(database.InsertSQL(table, fields, "id"), fields.Values()...).
		QueryRow(func(row pgx.Row) error { return row.Scan(id) })
}

/*
Update rewrites an active record and its child rows.

Mother, father, attendant and informant are upserted. The parents' marriage is
optional and follows [dependent.Sync]: created, updated or removed depending on
whether it exists and whether the form still carries any of its fields.
*/
func (repository *PostgresRepository) Update(ctx context.Context, record *Record) (dependent.Transition, error) {
	table := schema.RegistryBirthRecord

	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return dependent.None, fmt.Errorf("postgres: update transaction begin failed: %w", err)
	}
	defer transaction.Rollback(ctx)

	key := KeyOf(record)
	if err := dedupe.Lock(ctx, transaction, string(registry.TypeBirth), key.lockKey()); err != nil {
		return dependent.None, err
	}

	existing, err := findExact(ctx, transaction, key, record.ID)
	if err != nil {
		return dependent.None, dberr.Wrap(err, resource)
	}
	if existing != nil {
		return dependent.None, &registry.DuplicateError{Existing: existing}
	}

	content := recordContent(record)
	update := database.UpdateSQL(table.Table, table.ID, content, table.UpdatedAt+" = NOW()") +
		fmt.Sprintf(" AND %s = TRUE RETURNING %s, %s, %s, %s, %s, %s",
			table.IsActive, table.RegistryNumber, table.DateRegistered, table.EncodedBy, table.EncodedByKind, table.CreatedAt, table.UpdatedAt)

	arguments := append([]any{record.ID}, content.Values()...)
	err = transaction.QueryRow(ctx, update, arguments...).Scan(
		&record.RegistryNumber, &record.DateRegistered, &record.EncodedBy.ID, &record.EncodedBy.Kind, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		return dependent.None, dberr.Wrap(err, resource)
	}
	record.IsActive = true

	batch := &pgx.Batch{}
	for _, parent := range []*Parent{record.Mother, record.Father} {
		parent.BirthRecordID = record.ID
		queueUpsert(batch, schema.RegistryParentsInformation.Table,
			[]string{schema.RegistryParentsInformation.BirthRecordID, schema.RegistryParentsInformation.ParentType},
			parentKeyed(parent), &parent.ID)
	}
	record.Attendant.BirthRecordID = record.ID
	queueUpsert(batch, schema.RegistryBirthAttendant.Table, []string{schema.RegistryBirthAttendant.BirthRecordID},
		attendantKeyed(record.Attendant), &record.Attendant.ID)
	record.Informant.BirthRecordID = record.ID
	queueUpsert(batch, schema.RegistryInformant.Table, []string{schema.RegistryInformant.BirthRecordID},
		informantKeyed(record.Informant), &record.Informant.ID)

	if err := transaction.SendBatch(ctx, batch).Close(); err != nil {
		return dependent.None, fmt.Errorf("postgres: failed to update birth record children: %w", err)
	}

	transition, err := syncParentsMarriage(ctx, transaction, record)
	if err != nil {
		return dependent.None, err
	}

	if err := transaction.Commit(ctx); err != nil {
		return dependent.None, fmt.Errorf("postgres: update transaction commit failed: %w", err)
	}
	return transition, nil
}

func queueUpsert(batch *pgx.Batch, table string, conflict []string, fields database.Fields, id *int64) {
	query := database.UpsertSQL(table, conflict, fields, "updated_at = NOW()") + " RETURNING id"
	batch.Queue(query, fields.Values()...).
		QueryRow(func(row pgx.Row) error { return row.Scan(id) })
}

func syncParentsMarriage(ctx context.Context, transaction pgx.Tx, record *Record) (dependent.Transition, error) {
	table := schema.RegistryParentsMarriage

	var exists bool
	existsQuery := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, table.Table, table.BirthRecordID)
	if err := transaction.QueryRow(ctx, existsQuery, record.ID).Scan(&exists); err != nil {
		return dependent.None, dberr.Wrap(err, resource)
	}

	incoming := ParentsMarriage{BirthRecordID: record.ID, PlaceCountry: DefaultCountry}
	if record.ParentsMarriage != nil {
		incoming = *record.ParentsMarriage
		incoming.BirthRecordID = record.ID
	}

	transition, err := dependent.Sync(ctx, exists, incoming, dependent.Ops[ParentsMarriage]{
		Present: ParentsMarriage.Present,
		Create: func(ctx context.Context, marriage ParentsMarriage) error {
			fields := marriageKeyed(&marriage)
			query := database.InsertSQL(table.Table, fields, table.ID)
			return transaction.QueryRow(ctx, query, fields.Values()...).Scan(&marriage.ID)
		},
		Update: func(ctx context.Context, marriage ParentsMarriage) error {
			content := marriageContent(&marriage)
			query := database.UpdateSQL(table.Table, table.BirthRecordID, content, table.UpdatedAt+" = NOW()")
			_, err := transaction.Exec(ctx, query, append([]any{record.ID}, content.Values()...)...)
			return err
		},
		Delete: func(ctx context.Context) error {
			_, err := transaction.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, table.Table, table.BirthRecordID), record.ID)
			return err
		},
	})
	if err != nil {
		return dependent.None, dberr.Wrap(err, resource)
	}
	return transition, nil
}

// Deactivate soft-deletes an active record.
func (repository *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	table := schema.RegistryBirthRecord
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
