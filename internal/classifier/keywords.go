package classifier

import "strings"

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "this": {}, "that": {}, "these": {}, "those": {}, "it": {},
	"its": {},
}

const maxKeywords = 10

func isDelimiter(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '-', '_', '.', ',', '(', ')', '[', ']', '{', '}':
		return true
	}
	return false
}

// ExtractKeywords lowercases the concatenated texts, splits on whitespace and
// punctuation, drops stop words and short tokens, and returns at most ten
// unique keywords in first-seen order.
func ExtractKeywords(texts ...string) []string {
	combined := strings.ToLower(strings.Join(texts, " "))
	words := strings.FieldsFunc(combined, isDelimiter)

	seen := make(map[string]struct{})
	keywords := make([]string, 0, maxKeywords)

	for _, word := range words {
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}

		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}

		keywords = append(keywords, word)
		if len(keywords) == maxKeywords {
			break
		}
	}

	return keywords
}
