// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package slice_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/civilregistry/pkg/slice"
)

func TestMap(t *testing.T) {
	assert.Nil(t, slice.Map[string, string](nil, strings.ToUpper))
	assert.Equal(t, []string{"BIRTH", "DEATH"}, slice.Map([]string{"birth", "death"}, strings.ToUpper))
}

func TestFilter(t *testing.T) {
	dumps := slice.Filter([]string{"a.sql", "readme.txt", "b.sql"}, func(name string) bool {
		return strings.HasSuffix(name, ".sql")
	})
	assert.Equal(t, []string{"a.sql", "b.sql"}, dumps)
	assert.Empty(t, slice.Filter([]string{"x"}, func(string) bool { return false }))
}
