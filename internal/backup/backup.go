// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package backup writes plain SQL dumps of the database, prunes old dumps and runs
them on the stored schedule.

# Architecture

  - Dumps: [Dumper] serializes every table through catalog introspection; no
    external dump tool is involved.
  - Files: dumps live in the backup directory as backup_YYYY-MM-DD_HH-MM-SS.sql.
  - Schedule: one row (daily or weekly, HH:MM, optional weekday). [Decide] is a
    pure function of the clock, the schedule and the last run.
  - Overlap: a [Lock] keyed per minute keeps two processes from running the
    same scheduled backup.
*/
package backup

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
)

const (
	FrequencyDaily  = "daily"
	FrequencyWeekly = "weekly"

	// DefaultRunTime is used when a stored run time cannot be parsed.
	DefaultRunTime = "02:00"

	// Extension is the suffix of dump files; only these are pruned.
	Extension = ".sql"

	filenameLayout  = "2006-01-02_15-04-05"
	createdAtLayout = "2006-01-02 15:04:05"
)

// Triggers label what started a backup in logs and metrics.
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
	TriggerCLI       = "cli"
)

// # Schedule

// Schedule is the stored backup schedule.
type Schedule struct {
	Frequency string `json:"frequency"`
	RunTime   string `json:"run_time"`
	DayOfWeek *int   `json:"day_of_week"`
	IsEnabled bool   `json:"is_enabled"`
}

// Decision is the outcome of one scheduler tick.
type Decision struct {
	Run    bool
	Reason string
}

// Skip reasons reported by [Decide].
const (
	ReasonNoSchedule = "no schedule configured"
	ReasonDisabled   = "schedule disabled"
	ReasonNotDue     = "not due yet"
	ReasonWrongDay   = "weekly day mismatch"
	ReasonAlreadyRan = "already ran this minute"
	ReasonDue        = "due"
	ReasonLocked     = "another run holds the lock"
)

// Decide reports whether a scheduled backup should start at now. The minute of
// now (in now's location) must equal the run time, and for weekly schedules the
// weekday must match. A lastRun within the same minute suppresses the run;
// a zero lastRun never does.
func Decide(now time.Time, schedule *Schedule, lastRun time.Time) Decision {
	switch {
	case schedule == nil:
		return Decision{Reason: ReasonNoSchedule}
	case !schedule.IsEnabled:
		return Decision{Reason: ReasonDisabled}
	case now.Format("15:04") != normalizeRunTime(schedule.RunTime):
		return Decision{Reason: ReasonNotDue}
	case schedule.Frequency == FrequencyWeekly && schedule.DayOfWeek != nil && *schedule.DayOfWeek != int(now.Weekday()):
		return Decision{Reason: ReasonWrongDay}
	case !lastRun.IsZero() && sameMinute(now, lastRun):
		return Decision{Reason: ReasonAlreadyRan}
	}
	return Decision{Run: true, Reason: ReasonDue}
}

func sameMinute(a, b time.Time) bool {
	return a.Truncate(time.Minute).Equal(b.Truncate(time.Minute))
}

// normalizeRunTime zero-pads "7:15" to "07:15". Unparseable values fall back to
// [DefaultRunTime].
func normalizeRunTime(value string) string {
	clock, err := validate.ParseClock(strings.TrimSpace(value))
	if err != nil {
		return DefaultRunTime
	}
	return clock
}

// # Files

// File describes one file in the backup directory.
type File struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`
	Type      string `json:"type"`
}

// Result describes a freshly written dump.
type Result struct {
	Filename  string `json:"filename"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"created_at"`

	// Pruned counts the old dumps retention removed after this one.
	Pruned int `json:"-"`
}

// Info is the body of GET /backup/info.
type Info struct {
	Backups      []File    `json:"backups"`
	DatabaseSize int64     `json:"database_size"`
	LastBackup   *string   `json:"last_backup"`
	BackupCount  int       `json:"backup_count"`
	Schedule     *Schedule `json:"schedule"`
}

// Filename returns the dump name for a backup started at now.
func Filename(now time.Time) string {
	return "backup_" + now.Format(filenameLayout) + Extension
}

// ValidFilename rejects names that could leave the backup directory.
func ValidFilename(name string) bool {
	return name != "" && !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

// # Contracts

// Dumper serializes the database.
type Dumper interface {
	Dump(ctx context.Context, writer io.Writer) error
	DatabaseSize(ctx context.Context) (int64, error)
}

// ScheduleStore persists the single schedule row.
type ScheduleStore interface {
	// Get returns the schedule, or nil when none is stored.
	Get(ctx context.Context) (*Schedule, error)
	Save(ctx context.Context, schedule *Schedule) error
}

// Files holds the dump files. Implemented by [*storage.Disk].
type Files interface {
	Put(ctx context.Context, key string, content io.Reader) (int64, error)
	Open(key string) (*os.File, storage.Entry, error)
	Delete(key string) error
	List(prefix string) ([]storage.Entry, error)
}

// Lock is a best-effort mutual exclusion shared between processes.
type Lock interface {
	// TryLock returns false without blocking when key is already held. The
	// returned release function frees the key early; otherwise it expires
	// after ttl.
	TryLock(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}
