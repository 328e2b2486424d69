// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// utf8BOM lets spreadsheet applications detect UTF-8 in a CSV file.
const utf8BOM = "\uFEFF"

const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// WriteCSV writes the export as UTF-8 CSV with a byte-order mark. Each non-empty
// section starts with its own header row; sections are separated by a blank line.
func WriteCSV(writer io.Writer, export Export) error {
	if _, err := io.WriteString(writer, utf8BOM); err != nil {
		return err
	}

	out := csv.NewWriter(writer)
	first := true
	for _, section := range export.Sections {
		if len(section.Rows) == 0 {
			continue
		}
		if !first {
			if err := out.Write(nil); err != nil {
				return err
			}
		}
		first = false

		if err := out.Write(section.Headers); err != nil {
			return err
		}
		if err := out.WriteAll(section.Rows); err != nil {
			return err
		}
	}
	out.Flush()
	return out.Error()
}

// WriteXLSX writes the export as a workbook with one sheet per non-empty
// section. Header rows are bold and frozen.
func WriteXLSX(writer io.Writer, export Export) (err error) {
	book := excelize.NewFile()
	defer func() {
		if closeErr := book.Close(); err == nil {
			err = closeErr
		}
	}()

	headerStyle, err := book.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3F3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("xlsx: header style: %w", err)
	}

	const defaultSheet = "Sheet1"
	created := 0
	for _, section := range export.Sections {
		if len(section.Rows) == 0 {
			continue
		}

		sheet := section.Type.Label()
		index, err := book.NewSheet(sheet)
		if err != nil {
			return fmt.Errorf("xlsx: sheet %s: %w", sheet, err)
		}
		if created == 0 {
			book.SetActiveSheet(index)
		}
		created++

		if err := writeSheet(book, sheet, section, headerStyle); err != nil {
			return err
		}
	}

	if created > 0 {
		if err := book.DeleteSheet(defaultSheet); err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
	}

	_, err = book.WriteTo(writer)
	return err
}

func writeSheet(book *excelize.File, sheet string, section Section, headerStyle int) error {
	if err := book.SetSheetRow(sheet, "A1", &section.Headers); err != nil {
		return fmt.Errorf("xlsx: %s header: %w", sheet, err)
	}

	lastColumn, err := excelize.ColumnNumberToName(len(section.Headers))
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := book.SetCellStyle(sheet, "A1", lastColumn+"1", headerStyle); err != nil {
		return fmt.Errorf("xlsx: %s header style: %w", sheet, err)
	}
	if err := book.SetColWidth(sheet, "A", lastColumn, 20); err != nil {
		return fmt.Errorf("xlsx: %s widths: %w", sheet, err)
	}

	for index, row := range section.Rows {
		cell, err := excelize.CoordinatesToCellName(1, index+2)
		if err != nil {
			return fmt.Errorf("xlsx: %w", err)
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("xlsx: %s row %d: %w", sheet, index+2, err)
		}
	}

	return book.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
