// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package registry holds what the birth, marriage and death record packages share:
the record type tag, list filters, encoder resolution and the duplicate error
raised from inside a registration transaction.

Subpackages:

  - sequence: serialized registry-number issuance (BR-2024-00001).
  - dedupe: exact + similar duplicate detection and the identity advisory lock.
  - dependent: the upsert-or-remove rule for optional one-to-one child rows.
  - birth, marriage, death: one package per record type.
*/
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/database"
	"github.com/taibuivan/civilregistry/internal/platform/respond"
	"github.com/taibuivan/civilregistry/internal/platform/sec"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/internal/registry/dedupe"
	"github.com/taibuivan/civilregistry/internal/users/directory"
	"github.com/taibuivan/civilregistry/pkg/civil"
)

// # Record Types

// Type tags one of the three civil record kinds.
type Type string

const (
	TypeBirth    Type = "birth"
	TypeMarriage Type = "marriage"
	TypeDeath    Type = "death"
)

// Types lists every record type in display order.
var Types = []Type{TypeBirth, TypeMarriage, TypeDeath}

// ParseType converts a request value into a [Type].
func ParseType(value string) (Type, bool) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeBirth:
		return TypeBirth, true
	case TypeMarriage:
		return TypeMarriage, true
	case TypeDeath:
		return TypeDeath, true
	}
	return "", false
}

// Prefix returns the registry-number prefix of the type.
func (t Type) Prefix() string {
	switch t {
	case TypeBirth:
		return "BR"
	case TypeMarriage:
		return "MR"
	case TypeDeath:
		return "DR"
	}
	return ""
}

// Label returns the capitalised name used in messages ("Birth").
func (t Type) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// Values returns the types as strings, for validate.OneOf.
func Values() []string {
	values := make([]string, len(Types))
	for index, recordType := range Types {
		values[index] = string(recordType)
	}
	return values
}

// # Encoders

// Encoders resolves the principal stored on a record into display information.
// Implemented by [directory.Directory].
type Encoders interface {
	Lookup(ctx context.Context, principal sec.Principal) directory.Profile
	Resolve(ctx context.Context, principals []sec.Principal) func(sec.Principal) directory.Profile
}

// # Duplicates

// DuplicateError is returned by a repository when the in-transaction re-check
// finds an active record with the same identity key. Existing is the record
// that already holds that identity.
type DuplicateError struct {
	Existing any
}

func (e *DuplicateError) Error() string {
	return "registry: duplicate record"
}

// AsDuplicate extracts a [*DuplicateError] from err's chain.
func AsDuplicate(err error) (*DuplicateError, bool) {
	var duplicate *DuplicateError
	if errors.As(err, &duplicate) {
		return duplicate, true
	}
	return nil, false
}

// # Listing

// DefaultPerPage is the page size of record listings when none is requested.
const DefaultPerPage = 1000

// SearchLimit caps the quick search endpoint.
const SearchLimit = 50

// Filter narrows a record listing. The date range applies to the record's
// principal date (birth, marriage or death).
type Filter struct {
	Search   string
	DateFrom *civil.Date
	DateTo   *civil.Date
	Place    string
}

// FilterFromRequest parses search, date_from, date_to and the optional place
// parameter. Malformed dates are a validation error.
func FilterFromRequest(request *http.Request, placeParam string) (Filter, error) {
	query := request.URL.Query()

	filter := Filter{Search: strings.TrimSpace(query.Get("search"))}
	if placeParam != "" {
		filter.Place = strings.TrimSpace(query.Get(placeParam))
	}

	validator := &validate.Validator{}
	dateFrom := strings.TrimSpace(query.Get("date_from"))
	dateTo := strings.TrimSpace(query.Get("date_to"))
	validator.Date("date_from", dateFrom).Date("date_to", dateTo)
	if err := validator.Err(); err != nil {
		return Filter{}, err
	}

	filter.DateFrom, _ = civil.ParseOptionalDate(dateFrom)
	filter.DateTo, _ = civil.ParseOptionalDate(dateTo)
	return filter, nil
}

// Conditions starts the WHERE clause of a listing: active records only, the
// search term over searchColumns, the date range over dateColumn and, when
// placeColumn is set, a substring match on the place.
func (filter Filter) Conditions(dateColumn, placeColumn string, searchColumns ...string) *database.Conditions {
	conditions := &database.Conditions{}
	conditions.Where("is_active = TRUE")
	conditions.Search(filter.Search, searchColumns...)

	if filter.DateFrom != nil {
		conditions.Where(dateColumn + " >= " + conditions.Arg(*filter.DateFrom))
	}
	if filter.DateTo != nil {
		conditions.Where(dateColumn + " <= " + conditions.Arg(*filter.DateTo))
	}
	if placeColumn != "" && filter.Place != "" {
		conditions.Where(placeColumn + " ILIKE " + conditions.Arg(database.Contains(filter.Place)))
	}
	return conditions
}

// # Statistics

// Periods returns the start of the current month and year in now's location,
// used for "this_month" and "this_year" counters.
func Periods(now time.Time) (monthStart, yearStart time.Time) {
	monthStart = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	yearStart = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return monthStart, yearStart
}

// # Display helpers

// FullName joins name parts, skipping empty ones.
func FullName(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			nonEmpty = append(nonEmpty, trimmed)
		}
	}
	return strings.Join(nonEmpty, " ")
}

// JoinAddress joins address components with ", ", skipping empty ones.
func JoinAddress(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			nonEmpty = append(nonEmpty, trimmed)
		}
	}
	return strings.Join(nonEmpty, ", ")
}

// Deref returns the pointed-to string, or "" for nil.
func Deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// Optional trims value and returns nil when it is empty.
func Optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// LongDate formats a date as "January 15, 2024".
func LongDate(date civil.Date) string {
	return date.Format("January 2, 2006")
}

// ShortTime formats a time of day as "8:30 AM", or "Not specified".
func ShortTime(clock *civil.Clock) string {
	if clock == nil {
		return "Not specified"
	}
	return clock.Format("3:04 PM")
}

// # Responses

type registeredEnvelope struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Data           any    `json:"data"`
	RegistryNumber string `json:"registry_number"`
}

// WriteRegistered answers a successful registration with the new record and
// its registry number alongside the standard envelope.
func WriteRegistered(writer http.ResponseWriter, recordType Type, data any, registryNumber string) {
	respond.JSON(writer, http.StatusCreated, registeredEnvelope{
		Success:        true,
		Message:        fmt.Sprintf("%s record saved successfully!", recordType.Label()),
		Data:           data,
		RegistryNumber: registryNumber,
	})
}

// WriteCheck answers a duplicate check. The result fields sit at the top level
// of the envelope, next to "success".
func WriteCheck[T, S any](writer http.ResponseWriter, result dedupe.Result[T, S]) {
	respond.JSON(writer, http.StatusOK, struct {
		Success bool `json:"success"`
		dedupe.Result[T, S]
	}{Success: true, Result: result})
}

// MessageFor builds the per-type CRUD confirmation messages.
func MessageFor(recordType Type, verb string) string {
	return fmt.Sprintf("%s record %s successfully", recordType.Label(), verb)
}
