// Package textnorm canonicalizes OCR output of reward item names so it can be
// compared against catalog names.
package textnorm

import (
	"strings"
	"unicode"
)

// confusions maps glyphs the reward screen font renders ambiguously to the
// letter they almost always stand for inside a word.
var confusions = map[rune]rune{
	'0': 'o',
	'1': 'l',
	'2': 'z',
	'5': 's',
	'6': 'g',
	'8': 'b',
	'|': 'l',
	'!': 'l',
}

// Normalize lower-cases raw OCR text, drops punctuation and engine artifacts,
// maps confusable glyphs inside words to letters and collapses whitespace.
// Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	words := make([]string, 0, 4)
	for _, w := range split(raw) {
		if w = clean(w); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, " ")
}

// Compact normalizes s and removes every space. OCR splits and merges words
// freely, so compact keys are what the resolver compares.
func Compact(s string) string {
	return strings.ReplaceAll(Normalize(s), " ", "")
}

// split breaks raw text on anything that is not part of a word. Apostrophes
// join ("Ash's" -> "ashs") and confusable punctuation stays inside the word.
func split(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		if r == '\'' || r == '’' {
			return false
		}
		if _, ok := confusions[r]; ok {
			return false
		}
		return !unicode.IsLetter(r) && !isDigit(r)
	})
}

// edgeGlyphs are confusions that only stand for a letter inside a word. At
// a word edge they are punctuation.
const edgeGlyphs = "|!"

// clean lower-cases one word, resolves confusions when the word contains a
// letter, and keeps only [a-z0-9]. Letters outside the target alphabet are
// dropped without splitting the word.
func clean(w string) string {
	w = strings.ToLower(strings.Trim(w, edgeGlyphs))
	hasLetter := strings.IndexFunc(w, isASCIILetter) >= 0

	var sb strings.Builder
	for _, r := range w {
		switch {
		case isASCIILetter(r):
			sb.WriteRune(r)
		case hasLetter && confusions[r] != 0:
			sb.WriteRune(confusions[r])
		case isDigit(r):
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
