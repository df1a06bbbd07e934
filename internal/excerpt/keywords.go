package excerpt

import (
	"regexp"
	"strings"
)

// MaxKeywords caps how many tokens ExtractKeywords returns.
const MaxKeywords = 15

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "from": {}, "as": {},
	"is": {}, "was": {}, "are": {}, "were": {}, "been": {}, "be": {}, "have": {}, "has": {},
	"had": {}, "do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "must": {}, "can": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "it": {}, "its": {}, "their": {}, "they": {}, "them": {},
	"what": {}, "which": {}, "who": {}, "whom": {}, "how": {}, "when": {}, "where": {},
	"why": {}, "about": {}, "into": {}, "through": {},
}

// ExtractKeywords returns up to MaxKeywords lowercase content tokens from text,
// in their original order. Stop words and tokens of three characters or
// fewer are dropped. Duplicates are kept.
func ExtractKeywords(text string) []string {
	cleaned := nonAlnum.ReplaceAllString(strings.ToLower(text), "")

	var keywords []string
	for _, tok := range strings.Fields(cleaned) {
		if len(tok) <= 3 {
			continue
		}
		if _, stop := stopWords[tok]; stop {
			continue
		}
		keywords = append(keywords, tok)
		if len(keywords) == MaxKeywords {
			break
		}
	}
	return keywords
}
