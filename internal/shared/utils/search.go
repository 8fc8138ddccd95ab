package utils

import "strings"

// KeywordTerms splits a search keyword into lower-cased terms
func KeywordTerms(keyword string) []string {
	return strings.Fields(strings.ToLower(keyword))
}

// MatchesTerms reports whether text contains every term, ignoring case.
// No terms match everything.
func MatchesTerms(text string, terms []string) bool {
	text = strings.ToLower(text)
	for _, term := range terms {
		if !strings.Contains(text, term) {
			return false
		}
	}
	return true
}
