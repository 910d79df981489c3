// Package text turns raw prompt text into normalized terms.
// The same rules apply to the query and to every corpus entry, so term
// equality is plain string equality after Tokenize.
package text

import (
	"strings"
	"unicode"
)

// IsWordRune reports whether r counts as a word character.
// This is the Unicode analogue of \w: letters, combining marks, digits and
// connector punctuation such as '_'. Marks are kept so scripts like
// Devanagari or Thai do not lose vowel signs mid-word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) ||
		unicode.IsMark(r) ||
		unicode.IsDigit(r) ||
		unicode.IsNumber(r) ||
		unicode.Is(unicode.Pc, r)
}

// stripRune drops every rune that is neither a word character nor whitespace.
func stripRune(r rune) rune {
	if IsWordRune(r) || unicode.IsSpace(r) {
		return r
	}
	return -1
}

// Tokenize converts text into a sequence of terms.
// It lowercases, removes punctuation and symbols, and splits on whitespace.
// Punctuation is removed rather than treated as a separator, so "don't"
// becomes "dont" and "e-mail" becomes "email".
//
// Example: "Hello, World!" → ["hello", "world"]
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	cleaned := strings.Map(stripRune, strings.ToLower(text))
	terms := strings.Fields(cleaned)
	if len(terms) == 0 {
		return nil
	}
	return terms
}
