// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package sequence issues registry numbers of the form PREFIX-YYYY-NNNNN.

Numbers come from one counter row per (prefix, year) in
registry.registry_sequence. [Next] increments that row with a single
INSERT ... ON CONFLICT DO UPDATE ... RETURNING statement, which takes a row lock
held until the surrounding transaction ends. Two concurrent registrations of the
same type therefore queue on the counter instead of reading the same "last
number", and a rolled-back registration never consumes a number another
transaction has observed.
*/
package sequence

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/taibuivan/civilregistry/internal/platform/database/schema"
)

// Width is the zero-padded width of the sequence segment.
const Width = 5

var numberPattern = regexp.MustCompile(`^([A-Z]{2})-(\d{4})-(\d{5,})$`)

// Number is a parsed registry number.
type Number struct {
	Prefix string
	Year   int
	Value  int
}

// String renders the number in its canonical form.
func (n Number) String() string {
	return Format(n.Prefix, n.Year, n.Value)
}

// Format renders PREFIX-YYYY-NNNNN.
func Format(prefix string, year, value int) string {
	return fmt.Sprintf("%s-%04d-%0*d", prefix, year, Width, value)
}

// Parse splits a registry number into its parts.
func Parse(number string) (Number, error) {
	match := numberPattern.FindStringSubmatch(number)
	if match == nil {
		return Number{}, fmt.Errorf("sequence: malformed registry number %q", number)
	}

	year, _ := strconv.Atoi(match[2])
	value, err := strconv.Atoi(match[3])
	if err != nil {
		return Number{}, fmt.Errorf("sequence: registry number %q: %w", number, err)
	}

	return Number{Prefix: match[1], Year: year, Value: value}, nil
}

// Row is satisfied by pgx.Tx, *pgxpool.Pool and *pgx.Conn.
type Row interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Next increments the (prefix, year) counter and returns the formatted number.
// It must run inside the transaction that inserts the record.
func Next(ctx context.Context, tx Row, prefix string, year int) (string, error) {
	query := fmt.Sprintf(`
		INSERT INTO %[1]s (%[2]s, %[3]s, %[4]s)
		VALUES ($1, $2, 1)
		ON CONFLICT (%[2]s, %[3]s) DO UPDATE SET %[4]s = %[1]s.%[4]s + 1
		RETURNING %[4]s
	`,
		schema.RegistrySequence.Table,
		schema.RegistrySequence.Prefix, schema.RegistrySequence.Year, schema.RegistrySequence.LastValue,
	)

	var value int
	if err := tx.QueryRow(ctx, query, prefix, year).Scan(&value); err != nil {
		return "", fmt.Errorf("sequence: next %s-%d: %w", prefix, year, err)
	}

	return Format(prefix, year, value), nil
}
