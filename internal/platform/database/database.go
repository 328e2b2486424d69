// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package database binds wide registry rows to SQL without an ORM.

Civil registry forms carry fifty or more columns. Spelling each of them out in
every SELECT, INSERT and UPDATE is how column lists drift out of order with
their Scan targets. Instead, every entity exposes its persisted columns once as
[Fields]: a list of (column, pointer-to-struct-field) pairs. The same list then
produces the column list, the Scan targets and the Exec arguments, so the three
can never disagree.

Table and key column names still live in the schema subpackage and are used
with fmt.Sprintf for WHERE clauses and joins.
*/
package database

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx, so read helpers
// can run inside or outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, batch *pgx.Batch) pgx.BatchResults
}

// Field binds one column to a pointer into an entity.
type Field struct {
	Column string
	Value  any
}

// Bind is shorthand for constructing a [Field].
func Bind(column string, target any) Field {
	return Field{Column: column, Value: target}
}

// Fields is an ordered column binding.
type Fields []Field

// Columns returns the bare column names.
func (fields Fields) Columns() []string {
	columns := make([]string, len(fields))
	for index, field := range fields {
		columns[index] = field.Column
	}
	return columns
}

// ColumnList renders the columns for a SELECT list, qualified by alias when given.
func (fields Fields) ColumnList(alias string) string {
	var builder strings.Builder
	for index, field := range fields {
		if index > 0 {
			builder.WriteString(", ")
		}
		if alias != "" {
			builder.WriteString(alias)
			builder.WriteByte('.')
		}
		builder.WriteString(field.Column)
	}
	return builder.String()
}

// Targets returns the field pointers in column order, for rows.Scan.
func (fields Fields) Targets() []any {
	targets := make([]any, len(fields))
	for index, field := range fields {
		targets[index] = field.Value
	}
	return targets
}

// Values dereferences the field pointers, for Exec arguments.
// A nil optional field (*string, *civil.Date, ...) is passed through as a nil
// pointer, which pgx encodes as NULL.
func (fields Fields) Values() []any {
	values := make([]any, len(fields))
	for index, field := range fields {
		reflected := reflect.ValueOf(field.Value)
		if reflected.Kind() == reflect.Pointer && !reflected.IsNil() {
			values[index] = reflected.Elem().Interface()
			continue
		}
		values[index] = field.Value
	}
	return values
}

// Placeholders renders "$from, $from+1, ..." for len(fields) parameters.
func (fields Fields) Placeholders(from int) string {
	parts := make([]string, len(fields))
	for index := range fields {
		parts[index] = fmt.Sprintf("$%d", from+index)
	}
	return strings.Join(parts, ", ")
}

// Assignments renders "col = $from, col2 = $from+1, ..." for an UPDATE SET clause.
func (fields Fields) Assignments(from int) string {
	parts := make([]string, len(fields))
	for index, field := range fields {
		parts[index] = fmt.Sprintf("%s = $%d", field.Column, from+index)
	}
	return strings.Join(parts, ", ")
}

// InsertSQL builds an INSERT of every bound column, returning the given columns.
func InsertSQL(table string, fields Fields, returning ...string) string {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(fields.Columns(), ", "), fields.Placeholders(1),
	)
	if len(returning) > 0 {
		query += " RETURNING " + strings.Join(returning, ", ")
	}
	return query
}

// UpdateSQL builds "UPDATE table SET ... WHERE key = $1". The key value must be
// passed first, followed by [Fields.Values].
func UpdateSQL(table, key string, fields Fields, extraSet ...string) string {
	set := fields.Assignments(2)
	if len(extraSet) > 0 {
		set += ", " + strings.Join(extraSet, ", ")
	}
	return fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1", table, set, key)
}

// UpsertSQL builds an INSERT that updates every non-conflict column when a row
// with the same conflict key already exists.
func UpsertSQL(table string, conflict []string, fields Fields, extraSet ...string) string {
	keys := make(map[string]bool, len(conflict))
	for _, column := range conflict {
		keys[column] = true
	}

	set := make([]string, 0, len(fields)+len(extraSet))
	for _, field := range fields {
		if !keys[field.Column] {
			set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", field.Column, field.Column))
		}
	}
	set = append(set, extraSet...)

	return fmt.Sprintf("%s ON CONFLICT (%s) DO UPDATE SET %s",
		InsertSQL(table, fields), strings.Join(conflict, ", "), strings.Join(set, ", "),
	)
}

// # Filtering

// Conditions accumulates WHERE predicates together with their positional
// arguments, so optional filters can be appended in any order.
type Conditions struct {
	clauses []string
	args    []any
}

// Arg registers a value and returns its placeholder ("$3").
func (conditions *Conditions) Arg(value any) string {
	conditions.args = append(conditions.args, value)
	return fmt.Sprintf("$%d", len(conditions.args))
}

// Where appends a predicate. Placeholders inside it must come from [Conditions.Arg].
func (conditions *Conditions) Where(clause string) *Conditions {
	conditions.clauses = append(conditions.clauses, clause)
	return conditions
}

// Search appends "(col1 ILIKE $n OR col2 ILIKE $n ...)" for a non-empty term.
func (conditions *Conditions) Search(term string, columns ...string) *Conditions {
	if term == "" || len(columns) == 0 {
		return conditions
	}
	placeholder := conditions.Arg(Contains(term))
	parts := make([]string, len(columns))
	for index, column := range columns {
		parts[index] = fmt.Sprintf("%s ILIKE %s", column, placeholder)
	}
	return conditions.Where("(" + strings.Join(parts, " OR ") + ")")
}

// SQL renders the WHERE clause, or "" when there are no predicates.
func (conditions *Conditions) SQL() string {
	if len(conditions.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(conditions.clauses, " AND ")
}

// Args returns the accumulated arguments.
func (conditions *Conditions) Args() []any {
	return conditions.args
}

// Page appends LIMIT and OFFSET placeholders and returns the clause.
func (conditions *Conditions) Page(limit, offset int) string {
	return fmt.Sprintf("LIMIT %s OFFSET %s", conditions.Arg(limit), conditions.Arg(offset))
}

// # Scanning

// Row is satisfied by pgx.Row and pgx.Rows.
type Row interface {
	Scan(dest ...any) error
}

// ScanInto scans one row into fields.
func ScanInto(row Row, fields Fields) error {
	return row.Scan(fields.Targets()...)
}

// CollectRows drains rows into a slice, calling bind for each new element to
// obtain its Fields. Rows are closed before returning.
func CollectRows[T any](rows pgx.Rows, bind func(*T) Fields) ([]T, error) {
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		var item T
		if err := rows.Scan(bind(&item).Targets()...); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains turns user input into an ILIKE pattern matching it as a substring.
// Wildcards typed by the user are matched literally.
func Contains(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
