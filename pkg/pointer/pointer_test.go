// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/civilregistry/pkg/pointer"
)

/*
TestTrimmed verifies blank optional fields collapse to nil.
*/
func TestTrimmed(t *testing.T) {
	tests := []struct {
		name  string
		input *string
		want  *string
	}{
		{"Nil", nil, nil},
		{"Blank", pointer.To("   "), nil},
		{"Padded", pointer.To("  Poblacion, Tagum  "), pointer.To("Poblacion, Tagum")},
		{"Clean", pointer.To("09171234567"), pointer.To("09171234567")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, pointer.Trimmed(tc.input))
		})
	}
}

func TestVal(t *testing.T) {
	assert.Equal(t, int64(0), pointer.Val[int64](nil))
	assert.Equal(t, int64(21), pointer.Val(pointer.To(int64(21))))
}
