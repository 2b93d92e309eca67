package search

import (
	"strings"
	"unicode"
)

// stopWords never count toward a keyword match.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {},
	"by": {}, "did": {}, "do": {}, "does": {}, "for": {}, "from": {}, "had": {},
	"has": {}, "have": {}, "how": {}, "in": {}, "is": {}, "it": {}, "its": {},
	"not": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "this": {},
	"to": {}, "was": {}, "were": {}, "which": {}, "who": {}, "with": {}, "you": {},
}

// keywords lowercases text and splits it into words, dropping stop words.
// Letters, digits and the characters that belong to figures ("12%", "3.5",
// "$5M") stay inside a word; a trailing period does not.
func keywords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("%$.'", r)
	})

	out := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.Trim(word, ".'")
		if word == "" {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		out = append(out, word)
	}
	return out
}

// keywordMatcher reports whether a fact mentions every keyword of a query.
type keywordMatcher struct {
	words []string
}

func newKeywordMatcher(query string) *keywordMatcher {
	return &keywordMatcher{words: keywords(query)}
}

// matches is false for a query made only of stop words.
func (m *keywordMatcher) matches(text string) bool {
	if len(m.words) == 0 {
		return false
	}

	present := make(map[string]struct{})
	for _, word := range keywords(text) {
		present[word] = struct{}{}
	}
	for _, word := range m.words {
		if _, ok := present[word]; !ok {
			return false
		}
	}
	return true
}
