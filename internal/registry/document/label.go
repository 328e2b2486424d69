// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package document

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/taibuivan/civilregistry/internal/platform/validate"
	"github.com/taibuivan/civilregistry/internal/registry"
	"github.com/taibuivan/civilregistry/pkg/civil"
	"github.com/taibuivan/civilregistry/pkg/slug"
)

const (
	fieldDocument   = "document"
	fieldLabel      = "original_filename"
	fieldRecordType = "record_type"

	maxLabelLength = 255

	// SnippetRadius is how many characters of context surround a match.
	SnippetRadius = 60
)

// contentTypes maps every accepted extension to the sniffed content type.
var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"pdf":  "application/pdf",
}

var labelRegex = regexp.MustCompile(`(?i)^(birth|marriage|death)_([0-9a-z][0-9a-z_-]*?)(?:_(\d{4}-\d{2}-\d{2}))?\.(jpe?g|png|pdf)$`)

// shorthandRegex matches "birth-12": a record type and a document id.
var shorthandRegex = regexp.MustCompile(`(?i)^(birth|marriage|death)-(\d+)$`)

// Label is a parsed document label.
type Label struct {
	RecordType registry.Type
	Identifier string
	Date       *civil.Date
	Extension  string
}

// Stem returns the label without its extension.
func (label Label) Stem() string {
	stem := string(label.RecordType) + "_" + label.Identifier
	if label.Date != nil {
		stem += "_" + label.Date.String()
	}
	return stem
}

// ParseLabel checks filename against the naming convention for recordType.
func ParseLabel(recordType registry.Type, filename string) (Label, error) {
	example := fmt.Sprintf("%s_juan-dela-cruz_2024-01-15.pdf", recordType)

	match := labelRegex.FindStringSubmatch(filename)
	if match == nil {
		return Label{}, validate.RequiredError(fieldLabel, fmt.Sprintf(
			"The file name must follow {record_type}_{identifier}[_{YYYY-MM-DD}].{jpg,jpeg,png,pdf}, e.g. %s", example))
	}

	if registry.Type(strings.ToLower(match[1])) != recordType {
		return Label{}, validate.RequiredError(fieldLabel, fmt.Sprintf(
			"The file name must start with %q for %s records, e.g. %s", string(recordType)+"_", recordType, example))
	}

	label := Label{
		RecordType: recordType,
		Identifier: match[2],
		Extension:  normalizeExtension(match[4]),
	}

	if match[3] != "" {
		date, err := civil.ParseDate(match[3])
		if err != nil {
			return Label{}, validate.RequiredError(fieldLabel, "The date segment of the file name is not a valid date.")
		}
		label.Date = &date
	}
	return label, nil
}

// ParseShorthand reads a "type-id" search key.
func ParseShorthand(term string) (registry.Type, int64, bool) {
	match := shorthandRegex.FindStringSubmatch(strings.TrimSpace(term))
	if match == nil {
		return "", 0, false
	}
	id, err := strconv.ParseInt(match[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return registry.Type(strings.ToLower(match[1])), id, true
}

// SearchableText builds the index text of a document: the folded label stem,
// the record type and any extracted page text. NUL bytes are dropped since
// PostgreSQL TEXT cannot store them.
func SearchableText(label Label, pageText string) string {
	text := slug.Fold(label.Stem()) + " " + string(label.RecordType)
	pageText = strings.ReplaceAll(strings.ToValidUTF8(pageText, ""), "\x00", "")
	if pageText = strings.TrimSpace(pageText); pageText != "" {
		text += "\n" + pageText
	}
	return text
}

// Snippet returns up to radius characters either side of the first
// case-insensitive occurrence of term in text, with ellipses where the text
// was cut. It returns "" when the term does not occur.
func Snippet(text, term string, radius int) string {
	term = strings.TrimSpace(term)
	if term == "" || text == "" {
		return ""
	}

	runes := []rune(text)
	needle := lowerRunes([]rune(term))
	at := indexRunes(lowerRunes(append([]rune(nil), runes...)), needle)
	if at < 0 {
		return ""
	}

	start := max(at-radius, 0)
	end := min(at+len(needle)+radius, len(runes))

	snippet := strings.Join(strings.Fields(string(runes[start:end])), " ")
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(runes) {
		snippet += "..."
	}
	return snippet
}

// lowerRunes lowercases in place, one rune for one rune, so indexes stay valid.
func lowerRunes(runes []rune) []rune {
	for index, r := range runes {
		runes[index] = unicode.ToLower(r)
	}
	return runes
}

func indexRunes(haystack, needle []rune) int {
	for index := 0; index+len(needle) <= len(haystack); index++ {
		found := true
		for offset, r := range needle {
			if haystack[index+offset] != r {
				found = false
				break
			}
		}
		if found {
			return index
		}
	}
	return -1
}

func extensionOf(filename string) string {
	return normalizeExtension(strings.TrimPrefix(path.Ext(filename), "."))
}

// normalizeExtension lowercases an extension and folds "jpeg" into "jpg".
func normalizeExtension(extension string) string {
	extension = strings.ToLower(extension)
	if extension == "jpeg" {
		return "jpg"
	}
	return extension
}
