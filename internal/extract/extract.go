package extract

import (
	"regexp"
	"strings"
)

// Extractor scans free-form chat text for Ethereum addresses and for
// dotted names ending in a reserved suffix (by default "eth"). Both
// scans are pure functions of the input text.
type Extractor struct {
	namePattern *regexp.Regexp
}

// The address form is fixed; only the name suffix varies per deployment.
var addressPattern = regexp.MustCompile(`\b0x[0-9a-fA-F]{40}\b`)

func New(nameSuffix string) *Extractor {
	suffix := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(nameSuffix, ".")))
	if suffix == "" {
		suffix = "eth"
	}
	return &Extractor{
		namePattern: regexp.MustCompile(`(?i)\b(?:[a-z0-9-]+\.)+` + regexp.QuoteMeta(suffix) + `\b`),
	}
}

// Addresses returns every hex address in text, lowercased. The match is
// length-exact: 0x followed by exactly 40 hex digits between word
// boundaries.
func (e *Extractor) Addresses(text string) []string {
	matches := addressPattern.FindAllString(text, -1)
	if matches == nil {
		return nil
	}
	for i := range matches {
		matches[i] = strings.ToLower(matches[i])
	}
	return matches
}

// Names returns every suffix-terminated dotted name in text, lowercased.
// Multi-level names (a.b.eth) match as a whole.
func (e *Extractor) Names(text string) []string {
	matches := e.namePattern.FindAllString(text, -1)
	if matches == nil {
		return nil
	}
	for i := range matches {
		matches[i] = strings.ToLower(matches[i])
	}
	return matches
}
