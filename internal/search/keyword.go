package search

import (
	"strings"
	"unicode"
)

// stopWords are dropped from keyword queries, the way plainto_tsquery('english')
// ignores them, so "head of engineering" still matches "Head of Engineering".
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "in": {}, "is": {}, "it": {}, "of": {}, "on": {}, "or": {},
	"the": {}, "to": {}, "with": {},
}

func NormalizeQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	input = strings.ToLower(input)

	b := strings.Builder{}
	b.Grow(len(input))
	lastWasSpace := false

	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			lastWasSpace = false
			continue
		}
		// punctuation separates tokens: "c++/go" -> "c go"
		if b.Len() == 0 || lastWasSpace {
			continue
		}
		b.WriteByte(' ')
		lastWasSpace = true
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize returns the distinct, non stop-word tokens of s in order.
func Tokenize(s string) []string {
	words := strings.Fields(NormalizeQuery(s))
	out := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, stop := stopWords[w]; stop {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// MatchesAll reports whether every token of keyword occurs in text.
// A keyword with no tokens matches nothing.
func MatchesAll(text, keyword string) bool {
	want := Tokenize(keyword)
	if len(want) == 0 {
		return false
	}
	have := make(map[string]struct{})
	for _, t := range Tokenize(text) {
		have[t] = struct{}{}
	}
	for _, w := range want {
		if _, ok := have[w]; !ok {
			return false
		}
	}
	return true
}
