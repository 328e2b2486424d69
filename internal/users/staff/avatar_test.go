// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package staff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/civilregistry/internal/users/staff"
)

func TestValidAvatarName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"1719826200_0190a8c4-7d1e-7b3a-9f00-1a2b3c4d5e6f.png", true},
		{"1719826200_abc.jpeg", true},
		{"1719826200_abc.JPG", false},
		{"abc.png", false},
		{"1719826200_../x.png", false},
		{"1719826200_abc.svg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, staff.ValidAvatarName(tt.name))
		})
	}
}
