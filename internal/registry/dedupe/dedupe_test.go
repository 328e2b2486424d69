// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package dedupe_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/registry/dedupe"
)

type record struct {
	ID   int64
	Name string
}

/*
TestCheck covers the four outcomes of a duplicate check.
*/
func TestCheck(t *testing.T) {
	existing := &record{ID: 1, Name: "Juan Dela Cruz"}
	similar := []record{{ID: 2, Name: "Juan Cruz"}}

	tests := []struct {
		name          string
		exact         *record
		similar       []record
		wantDuplicate bool
		wantSimilar   int
	}{
		{"None", nil, nil, false, 0},
		{"Exact_Only", existing, nil, true, 0},
		{"Similar_Only", nil, similar, false, 1},
		{"Both", existing, similar, true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := dedupe.Check(context.Background(),
				func(context.Context) (*record, error) { return tt.exact, nil },
				func(context.Context) ([]record, error) { return tt.similar, nil },
			)

			require.NoError(t, err)
			assert.Equal(t, tt.wantDuplicate, result.IsDuplicate)
			assert.Equal(t, tt.exact, result.Duplicate)
			assert.NotNil(t, result.SimilarRecords)
			assert.Len(t, result.SimilarRecords, tt.wantSimilar)
		})
	}
}

/*
TestCheck_Error verifies a failing half cancels the other and surfaces the error.
*/
func TestCheck_Error(t *testing.T) {
	boom := errors.New("connection refused")

	_, err := dedupe.Check(context.Background(),
		func(context.Context) (*record, error) { return nil, boom },
		func(ctx context.Context) ([]record, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	)

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

/*
TestKey verifies identity keys ignore case and spacing but keep part boundaries.
*/
func TestKey(t *testing.T) {
	assert.Equal(t, dedupe.Key("Juan", "Dela Cruz"), dedupe.Key("  JUAN ", "dela   cruz"))
	assert.NotEqual(t, dedupe.Key("Juan Dela", "Cruz"), dedupe.Key("Juan", "Dela Cruz"))
	assert.Equal(t, "juan dela cruz", dedupe.Normalize("  Juan\tDela  Cruz "))
}
