// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/civilregistry/internal/platform/apperr"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/registry/document"
)

/*
TestParseLabel covers the {record_type}_{identifier}[_{YYYY-MM-DD}].{ext} convention.
*/
func TestParseLabel(t *testing.T) {
	tests := []struct {
		name       string
		recordType registry.Type
		filename   string
		valid      bool
		identifier string
		date       string
		extension  string
	}{
		{"With_Date", registry.TypeBirth, "birth_juan-dela-cruz_2024-01-15.pdf", true, "juan-dela-cruz", "2024-01-15", "pdf"},
		{"Without_Date", registry.TypeMarriage, "marriage_santos-reyes.JPEG", true, "santos-reyes", "", "jpg"},
		{"Underscored_Identifier", registry.TypeDeath, "death_ramon_villanueva_2024-03-28.png", true, "ramon_villanueva", "2024-03-28", "png"},
		{"Upper_Case_Type", registry.TypeBirth, "BIRTH_00123.pdf", true, "00123", "", "pdf"},
		{"Wrong_Type", registry.TypeBirth, "death_juan.pdf", false, "", "", ""},
		{"No_Identifier", registry.TypeBirth, "birth_.pdf", false, "", "", ""},
		{"No_Prefix", registry.TypeBirth, "juan-dela-cruz.pdf", false, "", "", ""},
		{"Bad_Extension", registry.TypeBirth, "birth_juan.docx", false, "", "", ""},
		{"Impossible_Date", registry.TypeBirth, "birth_juan_2024-02-30.pdf", false, "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label, err := document.ParseLabel(tt.recordType, tt.filename)

			if !tt.valid {
				require.Error(t, err)
				assert.Contains(t, apperr.As(err).Fields(), "original_filename")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.identifier, label.Identifier)
			assert.Equal(t, tt.extension, label.Extension)
			if tt.date == "" {
				assert.Nil(t, label.Date)
			} else {
				require.NotNil(t, label.Date)
				assert.Equal(t, tt.date, label.Date.String())
			}
		})
	}
}

func TestParseShorthand(t *testing.T) {
	recordType, id, ok := document.ParseShorthand(" Marriage-42 ")
	assert.True(t, ok)
	assert.Equal(t, registry.TypeMarriage, recordType)
	assert.Equal(t, int64(42), id)

	for _, term := range []string{"marriage", "birth-", "birth-x1", "juan-12"} {
		_, _, ok := document.ParseShorthand(term)
		assert.False(t, ok, term)
	}
}

/*
TestSnippet verifies the context window, ellipses and case-insensitive matching.
*/
func TestSnippet(t *testing.T) {
	text := strings.Repeat("a", 100) + " Certificate of Live Birth for JUAN DELA CRUZ born in Pagadian " + strings.Repeat("b", 100)

	snippet := document.Snippet(text, "juan dela cruz", 20)
	assert.True(t, strings.HasPrefix(snippet, "..."))
	assert.True(t, strings.HasSuffix(snippet, "..."))
	assert.Contains(t, snippet, "JUAN DELA CRUZ")
	assert.LessOrEqual(t, len([]rune(snippet)), 20+len("juan dela cruz")+20+6)

	assert.Equal(t, "Peñaranda", document.Snippet("Peñaranda", "peñaranda", 5))
	assert.Empty(t, document.Snippet(text, "santos", 20))
	assert.Empty(t, document.Snippet(text, "  ", 20))
}

func TestSearchableText(t *testing.T) {
	label, err := document.ParseLabel(registry.TypeBirth, "birth_Penaranda-Jose_2024-01-15.pdf")
	require.NoError(t, err)

	assert.Equal(t, "birth penaranda jose 2024 01 15 birth", document.SearchableText(label, ""))
	assert.Equal(t, "birth penaranda jose 2024 01 15 birth\nCertificate page", document.SearchableText(label, "  Certificate page \n"))
	assert.Equal(t, "birth penaranda jose 2024 01 15 birth\nCERTIFICATEOF LIVE BIRTH", document.SearchableText(label, "CERTIFICATE\x00OF\x00 LIVE BIRTH"))
	assert.Equal(t, "birth penaranda jose 2024 01 15 birth", document.SearchableText(label, "\x00\x00"))
}
