package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/civilregistry/internal/platform/database"
	"github.com/taibuivan/civilregistry/internal/platform/database/schema"
	"github.com/taibuivan/civilregistry/internal/platform/dberr"
	"github.com/taibuivan/civilregistry/internal/registry"
)

// PostgresRepository implements [Repository] on pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs a [PostgresRepository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

var table = schema.RegistryDocumentRecord

// labelConstraint is the partial unique index over active labels.
const labelConstraint = "document_records_active_label_key"

func insertFields(document *Document) database.Fields {
	return database.Fields{
		database.Bind(table.RecordType, &document.RecordType),
		database.Bind(table.OriginalFilename, &document.OriginalFilename),
		database.Bind(table.StoredFilename, &document.StoredFilename),
		database.Bind(table.FilePath, &document.FilePath),
		database.Bind(table.ExtractedText, &document.ExtractedText),
		database.Bind(table.FileSize, &document.FileSize),
		database.Bind(table.MimeType, &document.MimeType),
		database.Bind(table.UploadedBy, &document.UploadedBy.ID),
		database.Bind(table.UploaderKind, &document.UploadedBy.Kind),
	}
}

func generatedFields(document *Document) database.Fields {
	return database.Fields{
		database.Bind(table.ID, &document.ID),
		database.Bind(table.IsActive, &document.IsActive),
		database.Bind(table.CreatedAt, &document.CreatedAt),
		database.Bind(table.UpdatedAt, &document.UpdatedAt),
	}
}

func fields(document *Document) database.Fields {
	return append(insertFields(document), generatedFields(document)...)
}

func (repository *PostgresRepository) List(ctx context.Context) ([]Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = TRUE ORDER BY %s DESC, %s DESC`,
		fields(&Document{}).ColumnList(""), table.Table, table.IsActive, table.CreatedAt, table.ID,
	)

	rows, err := repository.pool.Query(ctx, query)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	documents, err := database.CollectRows(rows, fields)
	return documents, dberr.Wrap(err, resource)
}

func (repository *PostgresRepository) Get(ctx context.Context, id int64) (*Document, error) {
	document := &Document{}
	bound := fields(document)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND %s = TRUE`,
		bound.ColumnList(""), table.Table, table.ID, table.IsActive,
	)

	if err := database.ScanInto(repository.pool.QueryRow(ctx, query, id), bound); err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	return document, nil
}

// Search matches the raw term against the label, the index text and the record
// type, and the accent-folded term against the index text.
func (repository *PostgresRepository) Search(ctx context.Context, search Query) ([]Document, error) {
	conditions := &database.Conditions{}
	conditions.Where(table.IsActive + " = TRUE")

	if search.RecordType != "" {
		conditions.Where(fmt.Sprintf("%s = %s", table.RecordType, conditions.Arg(search.RecordType)))
	}

	if search.Term != "" {
		raw := conditions.Arg(database.Contains(search.Term))
		folded := conditions.Arg(database.Contains(search.Folded))
		conditions.Where(fmt.Sprintf("(%[1]s ILIKE %[4]s OR %[2]s ILIKE %[4]s OR %[3]s ILIKE %[4]s OR %[2]s ILIKE %[5]s)",
			table.OriginalFilename, table.ExtractedText, table.RecordType, raw, folded,
		))
	}

	query := fmt.Sprintf(`SELECT %s FROM %s %s ORDER BY %s DESC, %s DESC`,
		fields(&Document{}).ColumnList(""), table.Table, conditions.SQL(), table.CreatedAt, table.ID,
	)

	rows, err := repository.pool.Query(ctx, query, conditions.Args()...)
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	documents, err := database.CollectRows(rows, fields)
	return documents, dberr.Wrap(err, resource)
}

// FindByLabel compares labels case-insensitively, like the unique index.
func (repository *PostgresRepository) FindByLabel(ctx context.Context, recordType registry.Type, label string) (*Document, error) {
	document := &Document{}
	bound := fields(document)
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 AND LOWER(%s) = LOWER($2) AND %s = TRUE LIMIT 1`,
		bound.ColumnList(""), table.Table, table.RecordType, table.OriginalFilename, table.IsActive,
	)

	err := database.ScanInto(repository.pool.QueryRow(ctx, query, recordType, label), bound)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.Wrap(err, resource)
	}
	return document, nil
}

func (repository *PostgresRepository) Create(ctx context.Context, document *Document) error {
	insert := insertFields(document)
	generated := generatedFields(document)
	query := database.InsertSQL(table.Table, insert, generated.Columns()...)

	err := database.ScanInto(repository.pool.QueryRow(ctx, query, insert.Values()...), generated)
	if dberr.IsUniqueViolation(err) && dberr.Constraint(err) == labelConstraint {
		return fmt.Errorf("%w: %w", ErrLabelTaken, err)
	}
	return dberr.Wrap(err, resource)
}

func (repository *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
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
