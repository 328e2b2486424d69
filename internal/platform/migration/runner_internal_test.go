// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestConvertToPgx5DSN rewrites the URL schemes golang-migrate does not know.
*/
func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/registry", "pgx5://u:p@db:5432/registry"},
		{"postgresql://u:p@db/registry?sslmode=disable", "pgx5://u:p@db/registry?sslmode=disable"},
		{"pgx5://u@db/registry", "pgx5://u@db/registry"},
		{"host=db user=u", "host=db user=u"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToPgx5DSN(tt.in))
		})
	}
}
