package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// SizeKey canonicalizes a size label for matching: lowercase with the
// separator characters removed. "Size S", "size-s" and "SIZE_S" all map to
// the same key. Size labels are independently encrypted per record, so this
// is the only equality the system can rely on after decryption.
func SizeKey(label string) string {
	lowered := strings.ToLower(label)
	return strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', ' ':
			return -1
		}
		return r
	}, lowered)
}

// SizesMatch reports whether two decrypted size labels refer to the same size.
func SizesMatch(a, b string) bool {
	return SizeKey(a) == SizeKey(b)
}

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lowercases the input and strips Vietnamese diacritics, mapping đ/Đ to
// d so that "áo dài" and "ao dai" compare equal.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		switch r {
		case 'đ':
			return 'd'
		case 'Đ':
			return 'D'
		}
		return r
	}, folded)
	return strings.ToLower(folded)
}

// ContainsQuery implements the search match: every word of the query must be
// a diacritic-insensitive substring of one of the candidate fields, or the
// raw lowercase query must be a substring of a raw lowercase field.
func ContainsQuery(query string, fields ...string) bool {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return true
	}

	loweredQuery := strings.ToLower(trimmed)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), loweredQuery) {
			return true
		}
	}

	words := strings.Fields(Fold(trimmed))
	if len(words) == 0 {
		return true
	}
	foldedFields := make([]string, 0, len(fields))
	for _, field := range fields {
		foldedFields = append(foldedFields, Fold(field))
	}

	for _, word := range words {
		matched := false
		for _, field := range foldedFields {
			if strings.Contains(field, word) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}
