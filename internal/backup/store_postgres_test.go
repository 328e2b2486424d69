//go:build integration

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package backup_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/backup"
	"github.com/taibuivan/civilregistry/internal/platform/testutil/containers"
	"github.com/taibuivan/civilregistry/pkg/pointer"
)

/*
TestPostgresScheduleStore reads the seeded row and upserts over it.
*/
func TestPostgresScheduleStore(t *testing.T) {
	database := containers.NewPostgresContainer(t)
	store := backup.NewPostgresScheduleStore(database.Pool)
	ctx := context.Background()

	seeded, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, &backup.Schedule{Frequency: "daily", RunTime: "02:00", IsEnabled: true}, seeded)

	weekly := &backup.Schedule{Frequency: "weekly", RunTime: "23:45", DayOfWeek: pointer.To(5), IsEnabled: false}
	require.NoError(t, store.Save(ctx, weekly))

	stored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, weekly, stored)

	_, err = database.Pool.Exec(ctx, `DELETE FROM system.backup_schedule`)
	require.NoError(t, err)
	missing, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

/*
TestPostgresDumper restores its own script and checks data, sequences and
constraints survive.
*/
func TestPostgresDumper(t *testing.T) {
	database := containers.NewPostgresContainer(t)
	dumper := backup.NewPostgresDumper(database.Pool)
	store := backup.NewPostgresScheduleStore(database.Pool)
	ctx := context.Background()

	_, err := database.Pool.Exec(ctx, `
		INSERT INTO users.admins (full_name, email, password)
		VALUES ('O''Brien Admin', 'admin@example.test', 'hash')`)
	require.NoError(t, err)

	var script bytes.Buffer
	require.NoError(t, dumper.Dump(ctx, &script))
	assert.Contains(t, script.String(), "-- PostgreSQL Backup")
	assert.Contains(t, script.String(), `'O''Brien Admin'`)

	require.NoError(t, store.Save(ctx, &backup.Schedule{Frequency: "weekly", RunTime: "01:00", DayOfWeek: pointer.To(1), IsEnabled: true}))

	_, err = database.Pool.Exec(ctx, script.String())
	require.NoError(t, err)

	restored, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "daily", restored.Frequency)

	var name string
	require.NoError(t, database.Pool.QueryRow(ctx, `SELECT full_name FROM users.admins WHERE email = 'admin@example.test'`).Scan(&name))
	assert.Equal(t, "O'Brien Admin", name)

	var id int64
	require.NoError(t, database.Pool.QueryRow(ctx, `
		INSERT INTO users.admins (full_name, email, password)
		VALUES ('Second Admin', 'second@example.test', 'hash') RETURNING id`).Scan(&id))
	assert.Equal(t, int64(2), id)

	_, err = database.Pool.Exec(ctx, `INSERT INTO users.admins (full_name, email, password) VALUES ('Dup', 'admin@example.test', 'hash')`)
	assert.Error(t, err)

	size, err := dumper.DatabaseSize(ctx)
	require.NoError(t, err)
	assert.Positive(t, size)
}
