// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package civil provides calendar dates and times of day without a time zone.

Registry documents record "born on 2024-01-15 at 08:30" as written on the
certificate, not as an instant. Using [time.Time] for these invites off-by-one
days whenever a zone conversion sneaks in, so the domain uses [Date] and
[Clock] instead.

Both types:

  - marshal to JSON as "2006-01-02" and "15:04";
  - bind directly to PostgreSQL DATE and TIME columns through pgx
    (pgtype.DateScanner/DateValuer and pgtype.TimeScanner/TimeValuer).

Nullable columns use *Date and *Clock.
*/
package civil

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// # Date

// DateLayout is the wire and storage layout of a [Date].
const DateLayout = "2006-01-02"

// Date is a calendar day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(DateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("civil: invalid date %q: %w", value, err)
	}
	return DateOf(parsed), nil
}

// MustDate is [ParseDate] for literals; it panics on malformed input.
func MustDate(value string) Date {
	date, err := ParseDate(value)
	if err != nil {
		panic(err)
	}
	return date
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(value string) (*Date, error) {
	if value == "" {
		return nil, nil
	}
	date, err := ParseDate(value)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

// In returns midnight of the date in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.In(time.UTC).Format(DateLayout)
}

// Format renders the date with a [time] layout, e.g. "January 2, 2006".
func (d Date) Format(layout string) string {
	if d.IsZero() {
		return ""
	}
	return d.In(time.UTC).Format(layout)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// Before reports whether d is strictly before other.
func (d Date) Before(other Date) bool { return d.In(time.UTC).Before(other.In(time.UTC)) }

// After reports whether d is strictly after other.
func (d Date) After(other Date) bool { return d.In(time.UTC).After(other.In(time.UTC)) }

// MarshalJSON implements [json.Marshaler].
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON implements [json.Unmarshaler]. Empty strings and null leave the zero date.
func (d *Date) UnmarshalJSON(data []byte) error {
	var value *string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("civil: date must be a string: %w", err)
	}
	if value == nil || *value == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ScanDate implements [pgtype.DateScanner].
func (d *Date) ScanDate(value pgtype.Date) error {
	if !value.Valid {
		*d = Date{}
		return nil
	}
	if value.InfinityModifier != pgtype.Finite {
		return fmt.Errorf("civil: cannot scan infinite date")
	}
	*d = DateOf(value.Time)
	return nil
}

// DateValue implements [pgtype.DateValuer]. The zero date is stored as NULL.
func (d Date) DateValue() (pgtype.Date, error) {
	if d.IsZero() {
		return pgtype.Date{}, nil
	}
	return pgtype.Date{Time: d.In(time.UTC), Valid: true}, nil
}

// # Clock

// ClockLayout is the wire layout of a [Clock].
const ClockLayout = "15:04"

// Clock is a time of day with minute precision.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock accepts "HH:MM", "H:MM" and "HH:MM:SS" (seconds are dropped).
func ParseClock(value string) (Clock, error) {
	for _, layout := range []string{ClockLayout, "15:04:05", "3:04"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return Clock{Hour: parsed.Hour(), Minute: parsed.Minute()}, nil
		}
	}
	return Clock{}, fmt.Errorf("civil: invalid time of day %q", value)
}

// ParseOptionalClock returns nil for an empty string.
func ParseOptionalClock(value string) (*Clock, error) {
	if value == "" {
		return nil, nil
	}
	clock, err := ParseClock(value)
	if err != nil {
		return nil, err
	}
	return &clock, nil
}

// ClockOf returns the wall-clock minute of t in t's location.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// String renders the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Format renders the clock with a [time] layout, e.g. "3:04 PM".
func (c Clock) Format(layout string) string {
	return time.Date(2000, 1, 1, c.Hour, c.Minute, 0, 0, time.UTC).Format(layout)
}

// MarshalJSON implements [json.Marshaler].
func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON implements [json.Unmarshaler].
func (c *Clock) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("civil: time must be a string: %w", err)
	}
	parsed, err := ParseClock(value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ScanTime implements [pgtype.TimeScanner].
func (c *Clock) ScanTime(value pgtype.Time) error {
	if !value.Valid {
		*c = Clock{}
		return nil
	}
	minutes := value.Microseconds / int64(time.Minute/time.Microsecond)
	*c = Clock{Hour: int(minutes / 60), Minute: int(minutes % 60)}
	return nil
}

// TimeValue implements [pgtype.TimeValuer].
func (c Clock) TimeValue() (pgtype.Time, error) {
	micros := (int64(c.Hour)*60 + int64(c.Minute)) * int64(time.Minute/time.Microsecond)
	return pgtype.Time{Microseconds: micros, Valid: true}, nil
}
