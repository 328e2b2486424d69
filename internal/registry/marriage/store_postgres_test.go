//go:build integration

// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package marriage_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/platform/testutil/containers"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/marriage"
	"github.com/taibuivan/civilregistry/pkg/pagination"
)

var marriageTables = []string{"registry.marriage_records", "registry.registry_sequence"}

/*
TestPostgresRepository exercises registration, duplicate detection and the
similar-couple search against a real database.
*/
func TestPostgresRepository(t *testing.T) {
	database := containers.NewPostgresContainer(t)
	repo := marriage.NewPostgresRepository(database.Pool)
	service := newService(repo)
	ctx := context.Background()

	t.Run("Register_And_Read", func(t *testing.T) {
		database.Truncate(t, marriageTables...)

		record, err := service.Register(ctx, registrar, validInput())
		require.NoError(t, err)
		assert.Equal(t, "MR-2024-00001", record.RegistryNumber)

		stored, err := service.Get(ctx, record.ID)
		require.NoError(t, err)
		assert.Equal(t, "09:00", stored.TimeOfMarriage.String())
		assert.Equal(t, "Reyes", *stored.HusbandMiddleName)
		assert.Equal(t, registrar, stored.EncodedBy)
	})

	t.Run("Duplicate_Case_Insensitive", func(t *testing.T) {
		database.Truncate(t, marriageTables...)

		_, err := service.Register(ctx, registrar, validInput())
		require.NoError(t, err)

		shouted := validInput()
		shouted.HusbandLastName = "DELA CRUZ"
		shouted.WifeFirstName = "ana"
		_, err = service.Register(ctx, registrar, shouted)
		assert.True(t, apperr.HasCode(err, "DUPLICATE_RECORD"))
	})

	t.Run("Other_Place_Is_Not_Duplicate", func(t *testing.T) {
		database.Truncate(t, marriageTables...)

		_, err := service.Register(ctx, registrar, validInput())
		require.NoError(t, err)

		elsewhere := validInput()
		elsewhere.PlaceOfMarriage = "City Hall"
		second, err := service.Register(ctx, registrar, elsewhere)
		require.NoError(t, err)
		assert.Equal(t, "MR-2024-00002", second.RegistryNumber)

		result, err := service.CheckDuplicate(ctx, marriage.CheckInput{
			HusbandFirstName: "Pedro", HusbandLastName: "Dela Cruz",
			WifeFirstName: "Ana", WifeLastName: "Santos",
			DateOfMarriage: "2024-06-15", PlaceOfMarriage: "Municipal Hall",
		})
		require.NoError(t, err)
		assert.False(t, result.IsDuplicate)
		assert.Len(t, result.SimilarRecords, 2)
	})

	t.Run("Similar_Within_Window", func(t *testing.T) {
		database.Truncate(t, marriageTables...)

		_, err := service.Register(ctx, registrar, validInput())
		require.NoError(t, err)

		result, err := service.CheckDuplicate(ctx, marriage.CheckInput{
			HusbandFirstName: "Pedro", HusbandLastName: "Dela Cruz",
			WifeFirstName: "Ana", WifeLastName: "Santos",
			DateOfMarriage: "2024-05-20",
		})
		require.NoError(t, err)
		assert.False(t, result.IsDuplicate)
		require.Len(t, result.SimilarRecords, 1)

		result, err = service.CheckDuplicate(ctx, marriage.CheckInput{
			HusbandFirstName: "Pedro", HusbandLastName: "Dela Cruz",
			WifeFirstName: "Maria", WifeLastName: "Santos",
			DateOfMarriage: "2024-06-15",
		})
		require.NoError(t, err)
		assert.Empty(t, result.SimilarRecords)
	})

	t.Run("Deactivate", func(t *testing.T) {
		database.Truncate(t, marriageTables...)

		record, err := service.Register(ctx, registrar, validInput())
		require.NoError(t, err)
		require.NoError(t, service.Deactivate(ctx, registrar, record.ID))

		records, _, err := service.List(ctx, registry.Filter{}, pagination.Params{Page: 1, PerPage: 10})
		require.NoError(t, err)
		assert.Empty(t, records)

		err = service.Deactivate(ctx, registrar, record.ID)
		assert.True(t, apperr.HasCode(err, "NOT_FOUND"))

		_, err = service.Register(ctx, registrar, validInput())
		require.NoError(t, err)
	})
}
