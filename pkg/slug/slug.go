// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug reduces registry text to accent-free ASCII.
//
// [From] names generated files ("civil-registry-birth-2024"). [Fold] prepares
// free text for search so "penaranda" finds "Peñaranda".
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// words lowercases s, strips combining marks and splits on anything that is
// not a letter or digit.
func words(s string) []string {
	stripped, _, _ := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	return strings.FieldsFunc(strings.ToLower(stripped), func(r rune) bool {
		return r > unicode.MaxASCII || (!unicode.IsLetter(r) && !unicode.IsDigit(r))
	})
}

// From joins the words of s with hyphens.
func From(s string) string {
	return strings.Join(words(s), "-")
}

// Fold joins the words of s with single spaces.
func Fold(s string) string {
	return strings.Join(words(s), " ")
}
