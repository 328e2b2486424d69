// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backup_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/backup"
	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/metrics"
	"github.com/taibuivan/civilregistry/internal/platform/storage"
	"github.com/taibuivan/civilregistry/pkg/pointer"
)

type fakeDumper struct {
	script string
	err    error
	size   int64
	dumps  int
}

func (dumper *fakeDumper) Dump(_ context.Context, writer io.Writer) error {
	dumper.dumps++
	if dumper.err != nil {
		return dumper.err
	}
	_, err := io.WriteString(writer, dumper.script)
	return err
}

func (dumper *fakeDumper) DatabaseSize(context.Context) (int64, error) {
	return dumper.size, nil
}

type memorySchedules struct {
	schedule *backup.Schedule
}

func (store *memorySchedules) Get(context.Context) (*backup.Schedule, error) {
	return store.schedule, nil
}

func (store *memorySchedules) Save(_ context.Context, schedule *backup.Schedule) error {
	store.schedule = schedule
	return nil
}

type fixture struct {
	service   *backup.Service
	dumper    *fakeDumper
	schedules *memorySchedules
	disk      *storage.Disk
	redis     *miniredis.Miniredis
	now       *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	disk, err := storage.NewDisk(t.TempDir())
	require.NoError(t, err)

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2024, time.March, 6, 7, 15, 0, 0, manila)
	f := &fixture{
		dumper:    &fakeDumper{script: "-- PostgreSQL Backup\nBEGIN;\nCOMMIT;\n", size: 4096},
		schedules: &memorySchedules{},
		disk:      disk,
		redis:     server,
		now:       &now,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = backup.NewService(f.dumper, f.schedules, disk, backup.NewRedisLock(client), metrics.Noop(),
		backup.Settings{Retention: 5, Location: manila}, logger,
	).WithClock(func() time.Time { return *f.now })
	return f
}

// seed writes a file and backdates it by age.
func (f *fixture) seed(t *testing.T, name string, age time.Duration) {
	t.Helper()
	_, err := f.disk.Put(context.Background(), name, strings.NewReader("-- "+name))
	require.NoError(t, err)

	path, err := f.disk.Path(name)
	require.NoError(t, err)
	modified := f.now.Add(-age)
	require.NoError(t, os.Chtimes(path, modified, modified))
}

func (f *fixture) names(t *testing.T) []string {
	t.Helper()
	entries, err := f.disk.List("")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return names
}

/*
TestService_Create covers the dump file, empty dumps and overlapping runs.
*/
func TestService_Create(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.service.Create(context.Background(), backup.TriggerManual)

		require.NoError(t, err)
		assert.Equal(t, "backup_2024-03-06_07-15-00.sql", result.Filename)
		assert.Equal(t, int64(len(f.dumper.script)), result.Size)
		assert.Equal(t, "2024-03-06 07:15:00", result.CreatedAt)

		file, _, err := f.disk.Open(result.Filename)
		require.NoError(t, err)
		defer file.Close()
		content, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, f.dumper.script, string(content))
	})

	t.Run("Dump_Failure", func(t *testing.T) {
		f := newFixture(t)
		f.dumper.err = errors.New("connection reset")

		_, err := f.service.Create(context.Background(), backup.TriggerManual)

		assert.True(t, apperr.HasCode(err, "INTERNAL_ERROR"))
		assert.Empty(t, f.names(t))
	})

	t.Run("Empty_Dump", func(t *testing.T) {
		f := newFixture(t)
		f.dumper.script = ""

		_, err := f.service.Create(context.Background(), backup.TriggerManual)

		assert.True(t, apperr.HasCode(err, "INTERNAL_ERROR"))
		assert.Empty(t, f.names(t))
	})

	t.Run("Already_Running", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.redis.Set("backup:lock", "other-process"))

		_, err := f.service.Create(context.Background(), backup.TriggerManual)

		assert.True(t, apperr.HasCode(err, backup.CodeInProgress))
		assert.Zero(t, f.dumper.dumps)
	})

	t.Run("Releases_Lock", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.Create(context.Background(), backup.TriggerManual)
		require.NoError(t, err)

		assert.False(t, f.redis.Exists("backup:lock"))
	})

	t.Run("Applies_Retention", func(t *testing.T) {
		f := newFixture(t)
		for index := range 6 {
			f.seed(t, fmt.Sprintf("backup_%d.sql", index), time.Duration(index+1)*time.Hour)
		}
		f.seed(t, "notes.txt", time.Hour)

		result, err := f.service.Create(context.Background(), backup.TriggerManual)

		require.NoError(t, err)
		assert.Equal(t, 2, result.Pruned)
		names := f.names(t)
		assert.Len(t, names, 6)
		assert.Contains(t, names, result.Filename)
		assert.Contains(t, names, "notes.txt")
		assert.NotContains(t, names, "backup_4.sql")
		assert.NotContains(t, names, "backup_5.sql")
	})
}

/*
TestService_Prune keeps the newest dumps and never touches other files.
*/
func TestService_Prune(t *testing.T) {
	f := newFixture(t)
	for index := range 7 {
		f.seed(t, fmt.Sprintf("backup_%d.sql", index), time.Duration(index)*time.Hour)
	}
	f.seed(t, "readme.txt", 48*time.Hour)

	deleted, err := f.service.Prune(context.Background(), 0)

	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
	assert.Equal(t, []string{
		"backup_0.sql", "backup_1.sql", "backup_2.sql", "backup_3.sql", "backup_4.sql", "readme.txt",
	}, f.names(t))
}

/*
TestService_Info lists files newest first in the configured timezone.
*/
func TestService_Info(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "backup_old.sql", 2*time.Hour)
	f.seed(t, "backup_new.sql", 0)
	f.schedules.schedule = &backup.Schedule{Frequency: backup.FrequencyDaily, RunTime: "02:00", IsEnabled: true}

	info, err := f.service.Info(context.Background())

	require.NoError(t, err)
	require.Len(t, info.Backups, 2)
	assert.Equal(t, "backup_new.sql", info.Backups[0].Name)
	assert.Equal(t, "sql", info.Backups[0].Type)
	assert.Equal(t, "2024-03-06 07:15:00", info.Backups[0].CreatedAt)
	assert.Equal(t, "2024-03-06 05:15:00", info.Backups[1].CreatedAt)
	require.NotNil(t, info.LastBackup)
	assert.Equal(t, "2024-03-06 07:15:00", *info.LastBackup)
	assert.Equal(t, 2, info.BackupCount)
	assert.Equal(t, int64(4096), info.DatabaseSize)
	assert.Equal(t, f.schedules.schedule, info.Schedule)
}

/*
TestService_Delete covers filename checks and missing files.
*/
func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "backup_a.sql", 0)

	tests := []struct {
		name   string
		file   string
		status int
	}{
		{"Traversal", "../secrets.sql", http.StatusBadRequest},
		{"Backslash", `dir\backup_a.sql`, http.StatusBadRequest},
		{"Missing", "backup_b.sql", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.service.Delete(context.Background(), tt.file)
			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
		})
	}

	t.Run("Success", func(t *testing.T) {
		require.NoError(t, f.service.Delete(context.Background(), "backup_a.sql"))
		assert.Empty(t, f.names(t))
	})
}

/*
TestScheduleInput_Validate covers run time normalisation and weekday handling.
*/
func TestScheduleInput_Validate(t *testing.T) {
	t.Run("Daily_Drops_Weekday", func(t *testing.T) {
		schedule, err := backup.ScheduleInput{Frequency: "daily", RunTime: "7:05", DayOfWeek: pointer.To(3)}.Validate()
		require.NoError(t, err)
		assert.Equal(t, &backup.Schedule{Frequency: "daily", RunTime: "07:05", IsEnabled: true}, schedule)
	})

	t.Run("Weekly_Keeps_Weekday", func(t *testing.T) {
		schedule, err := backup.ScheduleInput{Frequency: "weekly", RunTime: "23:30", DayOfWeek: pointer.To(6), IsEnabled: pointer.To(false)}.Validate()
		require.NoError(t, err)
		assert.Equal(t, pointer.To(6), schedule.DayOfWeek)
		assert.False(t, schedule.IsEnabled)
	})

	invalid := []struct {
		name  string
		input backup.ScheduleInput
		field string
	}{
		{"Frequency", backup.ScheduleInput{Frequency: "hourly", RunTime: "02:00"}, "frequency"},
		{"Run_Time_Missing", backup.ScheduleInput{Frequency: "daily"}, "run_time"},
		{"Run_Time_Shape", backup.ScheduleInput{Frequency: "daily", RunTime: "2am"}, "run_time"},
		{"Run_Time_Range", backup.ScheduleInput{Frequency: "daily", RunTime: "25:00"}, "run_time"},
		{"Weekday_Range", backup.ScheduleInput{Frequency: "weekly", RunTime: "02:00", DayOfWeek: pointer.To(7)}, "day_of_week"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.input.Validate()
			appErr := apperr.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus)
			assert.Contains(t, appErr.Fields(), tt.field)
		})
	}
}

/*
TestService_RunScheduled covers the tick: skip reasons, the per-minute claim and
retention after a scheduled run.
*/
func TestService_RunScheduled(t *testing.T) {
	due := &backup.Schedule{Frequency: backup.FrequencyDaily, RunTime: "07:15", IsEnabled: true}

	t.Run("Not_Due", func(t *testing.T) {
		f := newFixture(t)
		f.schedules.schedule = &backup.Schedule{Frequency: backup.FrequencyDaily, RunTime: "02:00", IsEnabled: true}

		decision, result, err := f.service.RunScheduled(context.Background())

		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, backup.ReasonNotDue, decision.Reason)
		assert.Zero(t, f.dumper.dumps)
	})

	t.Run("Runs_And_Prunes", func(t *testing.T) {
		f := newFixture(t)
		f.schedules.schedule = due
		for index := range 6 {
			f.seed(t, fmt.Sprintf("backup_%d.sql", index), time.Duration(index+1)*time.Hour)
		}

		decision, result, err := f.service.RunScheduled(context.Background())

		require.NoError(t, err)
		assert.True(t, decision.Run)
		require.NotNil(t, result)
		assert.Len(t, f.names(t), 5)
		assert.Contains(t, f.names(t), result.Filename)
	})

	t.Run("Same_Minute_Twice", func(t *testing.T) {
		f := newFixture(t)
		f.schedules.schedule = due

		_, _, err := f.service.RunScheduled(context.Background())
		require.NoError(t, err)
		decision, result, err := f.service.RunScheduled(context.Background())

		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, backup.ReasonAlreadyRan, decision.Reason)
		assert.Equal(t, 1, f.dumper.dumps)
	})

	t.Run("Claimed_By_Other_Process", func(t *testing.T) {
		f := newFixture(t)
		f.schedules.schedule = due
		require.NoError(t, f.redis.Set("backup:scheduled:202403060715", "other-process"))

		decision, result, err := f.service.RunScheduled(context.Background())

		require.NoError(t, err)
		assert.Nil(t, result)
		assert.Equal(t, backup.ReasonLocked, decision.Reason)
		assert.Zero(t, f.dumper.dumps)
	})
}
