// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/civilregistry/internal/platform/constants"
)

// PostgresDumper writes every user table of the connected database as a SQL
// script: schemas, sequences, tables with their constraints and indexes, one
// INSERT per row, then foreign keys and sequence positions.
type PostgresDumper struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewPostgresDumper(pool *pgxpool.Pool) *PostgresDumper {
	return &PostgresDumper{pool: pool, now: time.Now}
}

type tableName struct {
	schema string
	name   string
}

func (table tableName) quoted() string {
	return pgx.Identifier{table.schema, table.name}.Sanitize()
}

type column struct {
	name       string
	definition string
}

type tableShape struct {
	columns     []column
	constraints []string
	foreignKeys []string
	indexes     []string
}

const tablesQuery = `
	SELECT table_schema, table_name
	FROM information_schema.tables
	WHERE table_type = 'BASE TABLE' AND table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY table_schema, table_name`

const columnsQuery = `
	SELECT a.attname,
	       format_type(a.atttypid, a.atttypmod)
	       || CASE WHEN d.adbin IS NOT NULL THEN ' DEFAULT ' || pg_get_expr(d.adbin, d.adrelid) ELSE '' END
	       || CASE WHEN a.attnotnull THEN ' NOT NULL' ELSE '' END
	FROM pg_attribute a
	LEFT JOIN pg_attrdef d ON d.adrelid = a.attrelid AND d.adnum = a.attnum
	WHERE a.attrelid = $1::text::regclass AND a.attnum > 0 AND NOT a.attisdropped
	ORDER BY a.attnum`

const constraintsQuery = `
	SELECT conname, contype = 'f', pg_get_constraintdef(oid)
	FROM pg_constraint
	WHERE conrelid = $1::text::regclass AND contype IN ('p', 'u', 'c', 'f')
	ORDER BY contype, conname`

const indexesQuery = `
	SELECT i.indexdef
	FROM pg_indexes i
	WHERE i.schemaname = $1 AND i.tablename = $2
	  AND NOT EXISTS (
	      SELECT 1 FROM pg_constraint c
	      JOIN pg_namespace n ON n.oid = c.connamespace
	      WHERE n.nspname = i.schemaname AND c.conname = i.indexname
	  )
	ORDER BY i.indexname`

const sequencesQuery = `
	SELECT schemaname, sequencename, COALESCE(last_value, 0), last_value IS NOT NULL
	FROM pg_sequences
	ORDER BY schemaname, sequencename`

// Dump reads from a single repeatable-read snapshot so the script is
// consistent across tables.
func (dumper *PostgresDumper) Dump(ctx context.Context, writer io.Writer) error {
	tx, err := dumper.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("backup: begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The pool's per-statement limit suits requests, not full table reads.
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = '%dms'", constants.BackupRequestTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("backup: statement timeout: %w", err)
	}

	var database string
	if err := tx.QueryRow(ctx, `SELECT current_database()`).Scan(&database); err != nil {
		return fmt.Errorf("backup: current database: %w", err)
	}

	tables, err := listTables(ctx, tx)
	if err != nil {
		return err
	}
	shapes, err := describeTables(ctx, tx, tables)
	if err != nil {
		return err
	}

	out := bufio.NewWriterSize(writer, 64<<10)
	fmt.Fprintf(out, "-- PostgreSQL Backup\n-- Generated: %s\n-- Database: %s\n\n", dumper.now().Format(createdAtLayout), database)
	out.WriteString("SET client_encoding = 'UTF8';\nSET standard_conforming_strings = on;\nBEGIN;\n\n")

	for _, schema := range schemasOf(tables) {
		fmt.Fprintf(out, "CREATE SCHEMA IF NOT EXISTS %s;\n", pgx.Identifier{schema}.Sanitize())
	}
	out.WriteString("\n")

	// Tables go first: dropping a table also drops the serial sequences it owns.
	for _, table := range tables {
		fmt.Fprintf(out, "DROP TABLE IF EXISTS %s CASCADE;\n", table.quoted())
	}
	out.WriteString("\n")

	sequences, err := listSequences(ctx, tx)
	if err != nil {
		return err
	}
	for _, sequence := range sequences {
		fmt.Fprintf(out, "CREATE SEQUENCE IF NOT EXISTS %s;\n", sequence.name)
	}
	out.WriteString("\n")

	for index, table := range tables {
		writeStructure(out, table, shapes[index])
		if err := writeRows(ctx, tx, out, table, shapes[index].columns); err != nil {
			return err
		}
	}

	for index, table := range tables {
		for _, foreignKey := range shapes[index].foreignKeys {
			fmt.Fprintf(out, "ALTER TABLE %s ADD %s;\n", table.quoted(), foreignKey)
		}
	}
	for _, sequence := range sequences {
		fmt.Fprintf(out, "SELECT setval('%s', %d, %t);\n", escapeLiteral(sequence.name), max(sequence.value, 1), sequence.called)
	}

	out.WriteString("\nCOMMIT;\n")
	return out.Flush()
}

// DatabaseSize returns pg_database_size of the connected database in bytes.
func (dumper *PostgresDumper) DatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	if err := dumper.pool.QueryRow(ctx, `SELECT pg_database_size(current_database())`).Scan(&size); err != nil {
		return 0, fmt.Errorf("backup: database size: %w", err)
	}
	return size, nil
}

func listTables(ctx context.Context, tx pgx.Tx) ([]tableName, error) {
	rows, err := tx.Query(ctx, tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("backup: list tables: %w", err)
	}
	tables, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (tableName, error) {
		var table tableName
		err := row.Scan(&table.schema, &table.name)
		return table, err
	})
	if err != nil {
		return nil, fmt.Errorf("backup: list tables: %w", err)
	}
	return tables, nil
}

// describeTables fetches columns, constraints and indexes of every table in
// one round trip.
func describeTables(ctx context.Context, tx pgx.Tx, tables []tableName) ([]tableShape, error) {
	batch := &pgx.Batch{}
	for _, table := range tables {
		batch.Queue(columnsQuery, table.quoted())
		batch.Queue(constraintsQuery, table.quoted())
		batch.Queue(indexesQuery, table.schema, table.name)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	shapes := make([]tableShape, len(tables))
	for index, table := range tables {
		shape := &shapes[index]

		rows, _ := results.Query()
		columns, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (column, error) {
			var col column
			err := row.Scan(&col.name, &col.definition)
			return col, err
		})
		if err != nil {
			return nil, fmt.Errorf("backup: columns of %s: %w", table.quoted(), err)
		}
		shape.columns = columns

		rows, _ = results.Query()
		var (
			name       string
			foreignKey bool
			definition string
		)
		_, err = pgx.ForEachRow(rows, []any{&name, &foreignKey, &definition}, func() error {
			clause := fmt.Sprintf("CONSTRAINT %s %s", pgx.Identifier{name}.Sanitize(), definition)
			if foreignKey {
				shape.foreignKeys = append(shape.foreignKeys, clause)
			} else {
				shape.constraints = append(shape.constraints, clause)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("backup: constraints of %s: %w", table.quoted(), err)
		}

		rows, _ = results.Query()
		indexes, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return nil, fmt.Errorf("backup: indexes of %s: %w", table.quoted(), err)
		}
		shape.indexes = indexes
	}
	return shapes, nil
}

type sequence struct {
	name   string
	value  int64
	called bool
}

func listSequences(ctx context.Context, tx pgx.Tx) ([]sequence, error) {
	rows, err := tx.Query(ctx, sequencesQuery)
	if err != nil {
		return nil, fmt.Errorf("backup: list sequences: %w", err)
	}
	sequences, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (sequence, error) {
		var (
			schema, name string
			seq          sequence
		)
		err := row.Scan(&schema, &name, &seq.value, &seq.called)
		seq.name = pgx.Identifier{schema, name}.Sanitize()
		return seq, err
	})
	if err != nil {
		return nil, fmt.Errorf("backup: list sequences: %w", err)
	}
	return sequences, nil
}

func schemasOf(tables []tableName) []string {
	var schemas []string
	seen := make(map[string]bool)
	for _, table := range tables {
		if table.schema == "public" || seen[table.schema] {
			continue
		}
		seen[table.schema] = true
		schemas = append(schemas, table.schema)
	}
	return schemas
}

func writeStructure(out *bufio.Writer, table tableName, shape tableShape) {
	fmt.Fprintf(out, "-- Table: %s\nCREATE TABLE %s (\n", table.quoted(), table.quoted())

	lines := make([]string, 0, len(shape.columns)+len(shape.constraints))
	for _, col := range shape.columns {
		lines = append(lines, "    "+pgx.Identifier{col.name}.Sanitize()+" "+col.definition)
	}
	for _, constraint := range shape.constraints {
		lines = append(lines, "    "+constraint)
	}
	out.WriteString(strings.Join(lines, ",\n"))
	out.WriteString("\n);\n")

	for _, index := range shape.indexes {
		out.WriteString(index + ";\n")
	}
	out.WriteString("\n")
}

// writeRows emits one INSERT per row. Every value is read as text and written
// as a quoted literal, so the column types restore it.
func writeRows(ctx context.Context, tx pgx.Tx, out *bufio.Writer, table tableName, columns []column) error {
	if len(columns) == 0 {
		return nil
	}

	names := make([]string, len(columns))
	selects := make([]string, len(columns))
	for index, col := range columns {
		names[index] = pgx.Identifier{col.name}.Sanitize()
		selects[index] = names[index] + "::text"
	}
	columnList := strings.Join(names, ", ")

	rows, err := tx.Query(ctx, fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), table.quoted()))
	if err != nil {
		return fmt.Errorf("backup: read %s: %w", table.quoted(), err)
	}
	defer rows.Close()

	values := make([]*string, len(columns))
	targets := make([]any, len(columns))
	for index := range values {
		targets[index] = &values[index]
	}

	literals := make([]string, len(columns))
	for rows.Next() {
		if err := rows.Scan(targets...); err != nil {
			return fmt.Errorf("backup: read %s: %w", table.quoted(), err)
		}
		for index, value := range values {
			literals[index] = literal(value)
		}
		fmt.Fprintf(out, "INSERT INTO %s (%s) VALUES (%s);\n", table.quoted(), columnList, strings.Join(literals, ", "))
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("backup: read %s: %w", table.quoted(), err)
	}
	out.WriteString("\n")
	return nil
}

func literal(value *string) string {
	if value == nil {
		return "NULL"
	}
	return "'" + escapeLiteral(*value) + "'"
}

func escapeLiteral(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}
