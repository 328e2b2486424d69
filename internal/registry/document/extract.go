// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads page text with ledongthuc/pdf.
type PDFExtractor struct {
	// MaxPages stops extraction after this many pages. Zero means no limit.
	MaxPages int
	// MaxBytes truncates the extracted text. Zero means no limit.
	MaxBytes int
}

// NewPDFExtractor returns an extractor bounded to the first 200 pages and 1 MiB
// of text.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{MaxPages: 200, MaxBytes: 1 << 20}
}

// Extract returns the plain text of the PDF at path. Malformed files make the
// parser panic; the panic is returned as an error.
func (extractor *PDFExtractor) Extract(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			text, err = "", fmt.Errorf("pdf: malformed document: %v", recovered)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("pdf: open %q: %w", path, err)
	}
	defer file.Close()

	pages := reader.NumPage()
	if extractor.MaxPages > 0 && pages > extractor.MaxPages {
		pages = extractor.MaxPages
	}

	var builder strings.Builder
	fonts := make(map[string]*pdf.Font)
	for number := 1; number <= pages; number++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := reader.Page(number)
		if page.V.IsNull() {
			continue
		}
		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		content, err := page.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("pdf: page %d: %w", number, err)
		}
		builder.WriteString(content)
		builder.WriteByte('\n')

		if extractor.MaxBytes > 0 && builder.Len() >= extractor.MaxBytes {
			break
		}
	}

	text = strings.ReplaceAll(strings.ToValidUTF8(builder.String(), ""), "\x00", "")
	if extractor.MaxBytes > 0 && len(text) > extractor.MaxBytes {
		text = strings.ToValidUTF8(text[:extractor.MaxBytes], "")
	}
	return strings.TrimSpace(text), nil
}
