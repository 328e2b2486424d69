package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/constants"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/pkg/slice"
)

const (
	// CodeInProgress marks a backup refused because another one is running.
	CodeInProgress = "BACKUP_IN_PROGRESS"

	// ScheduleSavedMessage is returned after the schedule is stored.
	ScheduleSavedMessage = "Backup schedule saved. Automatic backups will run according to this schedule."

	scheduledKeyTime = "200601021504"

	// runningTTL bounds a crashed holder of the running lock.
	runningTTL = time.Hour

	// scheduledTTL keeps the per-minute run record past the minute it names.
	scheduledTTL = 2 * time.Minute
)

var errEmptyDump = errors.New("backup: dump file is empty, check the database connection")

// Settings carries the deployment values the service needs.
type Settings struct {
	// Retention is how many dumps Prune keeps.
	Retention int
	// Location places file times and the schedule clock.
	Location *time.Location
}

type Service struct {
	dumper    Dumper
	schedules ScheduleStore
	files     Files
	lock      Lock
	metrics   *metrics.Metrics
	settings  Settings
	logger    *slog.Logger
	now       func() time.Time

	mu      sync.Mutex
	lastRun time.Time
}

func NewService(dumper Dumper, schedules ScheduleStore, files Files, lock Lock, collectors *metrics.Metrics, settings Settings, logger *slog.Logger) *Service {
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	if settings.Retention < 1 {
		settings.Retention = 1
	}
	return &Service{
		dumper:    dumper,
		schedules: schedules,
		files:     files,
		lock:      lock,
		metrics:   collectors,
		settings:  settings,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the clock used for file names and schedule checks.
func (service *Service) WithClock(now func() time.Time) *Service {
	service.now = now
	return service
}

// # Create

// Create writes a new dump, then applies retention. Only one backup runs at a
// time across processes; a second caller gets a 409. A failed prune is logged
// and does not fail the backup.
func (service *Service) Create(ctx context.Context, trigger string) (*Result, error) {
	release, acquired, err := service.lock.TryLock(ctx, constants.RedisKeyBackupLock, runningTTL)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if !acquired {
		return nil, apperr.ConflictCode(CodeInProgress, "A backup is already in progress")
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			service.logger.WarnContext(ctx, "backup_lock_release_failed", slog.Any("error", err))
		}
	}()

	started := service.now()
	result, err := service.write(ctx, started.In(service.settings.Location))
	service.metrics.ObserveBackup(trigger, err, service.now().Sub(started))
	if err != nil {
		service.logger.ErrorContext(ctx, "backup_failed",
			slog.String("trigger", trigger),
			slog.Any("error", err),
		)
		return nil, apperr.Internal(err)
	}

	service.logger.InfoContext(ctx, "backup_created",
		slog.String("trigger", trigger),
		slog.String("filename", result.Filename),
		slog.Int64("size", result.Size),
	)

	if result.Pruned, err = service.Prune(ctx, service.settings.Retention); err != nil {
		service.logger.WarnContext(ctx, "backup_prune_failed", slog.Any("error", err))
	}
	return result, nil
}

// write streams the dump straight into the file store.
func (service *Service) write(ctx context.Context, now time.Time) (*Result, error) {
	name := Filename(now)

	reader, writer := io.Pipe()
	go func() {
		writer.CloseWithError(service.dumper.Dump(ctx, writer))
	}()

	size, err := service.files.Put(ctx, name, reader)
	reader.CloseWithError(err)
	if err != nil {
		_ = service.files.Delete(name)
		return nil, fmt.Errorf("backup: write %s: %w", name, err)
	}
	if size == 0 {
		_ = service.files.Delete(name)
		return nil, errEmptyDump
	}

	return &Result{Filename: name, Size: size, CreatedAt: now.Format(createdAtLayout)}, nil
}

// # Retention

// Prune deletes all but the newest keep dump files and returns how many were
// removed. Files without the dump extension are left alone. A keep below 1
// uses the configured retention.
func (service *Service) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		keep = service.settings.Retention
	}

	entries, err := service.files.List("")
	if err != nil {
		return 0, apperr.Internal(err)
	}

	dumps := slice.Filter(entries, func(entry storage.Entry) bool {
		return strings.EqualFold(filepath.Ext(entry.Name), Extension)
	})
	if len(dumps) <= keep {
		return 0, nil
	}

	deleted := 0
	for _, entry := range dumps[keep:] {
		if err := service.files.Delete(entry.Key); err != nil {
			return deleted, apperr.Internal(err)
		}
		deleted++
		service.logger.InfoContext(ctx, "backup_pruned", slog.String("filename", entry.Name))
	}
	return deleted, nil
}

// # Listing

// Info lists the backup directory, newest first, with the database size and
// the stored schedule.
func (service *Service) Info(ctx context.Context) (*Info, error) {
	entries, err := service.files.List("")
	if err != nil {
		return nil, apperr.Internal(err)
	}

	files := slice.Map(entries, func(entry storage.Entry) File {
		return File{
			Name:      entry.Name,
			Size:      entry.Size,
			CreatedAt: entry.ModTime.In(service.settings.Location).Format(createdAtLayout),
			Type:      strings.TrimPrefix(filepath.Ext(entry.Name), "."),
		}
	})
	if files == nil {
		files = []File{}
	}

	size, err := service.dumper.DatabaseSize(ctx)
	if err != nil {
		service.logger.WarnContext(ctx, "backup_database_size_failed", slog.Any("error", err))
		size = 0
	}

	schedule, err := service.schedules.Get(ctx)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Backups:      files,
		DatabaseSize: size,
		BackupCount:  len(files),
		Schedule:     schedule,
	}
	if len(files) > 0 {
		info.LastBackup = &files[0].CreatedAt
	}
	return info, nil
}

// Open returns a dump for download. The caller closes the file.
func (service *Service) Open(name string) (*os.File, storage.Entry, error) {
	if !ValidFilename(name) {
		return nil, storage.Entry{}, apperr.BadRequest("Invalid filename")
	}

	file, entry, err := service.files.Open(name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, storage.Entry{}, apperr.NotFound("Backup file")
	}
	if err != nil {
		return nil, storage.Entry{}, apperr.Internal(err)
	}
	return file, entry, nil
}

func (service *Service) Delete(ctx context.Context, name string) error {
	file, _, err := service.Open(name)
	if err != nil {
		return err
	}
	file.Close()

	if err := service.files.Delete(name); err != nil {
		return apperr.Internal(err)
	}
	service.logger.InfoContext(ctx, "backup_deleted", slog.String("filename", name))
	return nil
}

// # Schedule

// ScheduleInput is the body of PUT /backup/schedule.
type ScheduleInput struct {
	Frequency string `json:"frequency"`
	RunTime   string `json:"run_time"`
	DayOfWeek *int   `json:"day_of_week"`
	IsEnabled *bool  `json:"is_enabled"`
}

// Validate checks the form and returns the normalised schedule.
func (input ScheduleInput) Validate() (*Schedule, error) {
	frequency := strings.TrimSpace(input.Frequency)
	runTime := strings.TrimSpace(input.RunTime)

	validator := &validate.Validator{}
	err := validator.
		Required("frequency", frequency).
		OneOf("frequency", frequency, FrequencyDaily, FrequencyWeekly).
		Required("run_time", runTime).
		Clock("run_time", runTime).
		OptionalRange("day_of_week", input.DayOfWeek, 0, 6).
		Err()
	if err != nil {
		return nil, err
	}

	clock, _ := validate.ParseClock(runTime)
	schedule := &Schedule{Frequency: frequency, RunTime: clock, IsEnabled: true}
	if input.IsEnabled != nil {
		schedule.IsEnabled = *input.IsEnabled
	}
	if frequency == FrequencyWeekly {
		day := 0
		if input.DayOfWeek != nil {
			day = *input.DayOfWeek
		}
		schedule.DayOfWeek = &day
	}
	return schedule, nil
}

func (service *Service) Schedule(ctx context.Context) (*Schedule, error) {
	return service.schedules.Get(ctx)
}

func (service *Service) SaveSchedule(ctx context.Context, input ScheduleInput) (*Schedule, error) {
	schedule, err := input.Validate()
	if err != nil {
		return nil, err
	}
	if err := service.schedules.Save(ctx, schedule); err != nil {
		return nil, err
	}

	service.logger.InfoContext(ctx, "backup_schedule_saved",
		slog.String("frequency", schedule.Frequency),
		slog.String("run_time", schedule.RunTime),
		slog.Bool("is_enabled", schedule.IsEnabled),
	)
	return schedule, nil
}

// # Scheduled runs

// RunScheduled is one scheduler tick. It reads the schedule, asks [Decide]
// whether the current minute is due, claims the minute across processes, then
// creates a dump. The returned decision explains a skip.
func (service *Service) RunScheduled(ctx context.Context) (Decision, *Result, error) {
	now := service.now().In(service.settings.Location)

	schedule, err := service.schedules.Get(ctx)
	if err != nil {
		return Decision{}, nil, err
	}

	service.mu.Lock()
	lastRun := service.lastRun
	service.mu.Unlock()

	decision := Decide(now, schedule, lastRun)
	if !decision.Run {
		return decision, nil, nil
	}

	_, claimed, err := service.lock.TryLock(ctx, constants.RedisPrefixBackupRun+now.Format(scheduledKeyTime), scheduledTTL)
	if err != nil {
		return decision, nil, apperr.Internal(err)
	}
	if !claimed {
		return Decision{Reason: ReasonLocked}, nil, nil
	}

	service.mu.Lock()
	service.lastRun = now
	service.mu.Unlock()

	result, err := service.Create(ctx, TriggerScheduled)
	if err != nil {
		return decision, nil, err
	}
	return decision, result, nil
}
