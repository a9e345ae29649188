package rules

import "strings"

// stopWords are too generic to be useful categorization keywords.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {},
	"on": {}, "in": {}, "with": {}, "for": {}, "to": {}, "from": {},
	"by": {}, "at": {}, "of": {},
}

// ExtractKeyword returns the most significant word of a transaction
// description: the longest word after dropping stop words and words of two
// characters or fewer. When nothing survives the filter, the longest
// original word is used. An empty description yields "".
func ExtractKeyword(description string) string {
	words := strings.Fields(strings.ToLower(strings.TrimSpace(description)))
	if len(words) == 0 {
		return ""
	}
	var filtered []string
	for _, w := range words {
		if _, stop := stopWords[w]; stop || len(w) <= 2 {
			continue
		}
		filtered = append(filtered, w)
	}
	if len(filtered) == 0 {
		return longest(words)
	}
	return longest(filtered)
}

func longest(words []string) string {
	best := ""
	for _, w := range words {
		if len(w) > len(best) {
			best = w
		}
	}
	return best
}
