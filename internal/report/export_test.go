// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package report_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/internal/report"
)

func sampleExport() report.Export {
	return report.Export{
		Filename: "civil-registry-all-2024.csv",
		Sections: []report.Section{
			{Type: registry.TypeBirth, Headers: []string{"Record Type", "Child First Name"}, Rows: [][]string{{"Birth", "José, Jr."}}},
			{Type: registry.TypeMarriage, Headers: []string{"Record Type"}},
			{Type: registry.TypeDeath, Headers: []string{"Record Type", "Cause of Death"}, Rows: [][]string{{"Death", "Cardiac arrest"}}},
		},
	}
}

/*
TestWriteCSV verifies the BOM, quoting and one header per non-empty section.
*/
func TestWriteCSV(t *testing.T) {
	var buffer bytes.Buffer
	require.NoError(t, report.WriteCSV(&buffer, sampleExport()))

	content := buffer.String()
	require.True(t, strings.HasPrefix(content, "\xEF\xBB\xBF"))
	assert.Equal(t,
		"Record Type,Child First Name\nBirth,\"José, Jr.\"\n\nRecord Type,Cause of Death\nDeath,Cardiac arrest\n",
		strings.TrimPrefix(content, "\xEF\xBB\xBF"),
	)
}

/*
TestWriteXLSX reads the workbook back and checks one sheet per non-empty section.
*/
func TestWriteXLSX(t *testing.T) {
	var buffer bytes.Buffer
	require.NoError(t, report.WriteXLSX(&buffer, sampleExport()))

	book, err := excelize.OpenReader(&buffer)
	require.NoError(t, err)
	defer book.Close()

	assert.Equal(t, []string{"Birth", "Death"}, book.GetSheetList())

	rows, err := book.GetRows("Birth")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Record Type", "Child First Name"}, {"Birth", "José, Jr."}}, rows)
}
