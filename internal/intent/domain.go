package intent

import (
	"strings"

	"github.com/ashureev/skillpath/internal/content"
)

// minReverseMatch is the shortest input that may match by being contained
// in a domain name ("end" matches "backend", "e" matches nothing).
const minReverseMatch = 3

// MatchDomain returns the first of names (in order) that text contains or
// that contains text.
func MatchDomain(text string, names []string) (string, bool) {
	t := Normalize(text)
	if t == "" {
		return "", false
	}
	for _, name := range names {
		if strings.Contains(t, name) {
			return name, true
		}
	}
	if len(t) < minReverseMatch {
		return "", false
	}
	for _, name := range names {
		if strings.Contains(name, t) {
			return name, true
		}
	}
	return "", false
}

// MentionedDomain finds the domain named or aliased in free text. When several
// are mentioned the earliest mention wins.
func MentionedDomain(text string, c *content.Catalog) (string, bool) {
	t := Normalize(text)
	if t == "" || c == nil {
		return "", false
	}

	best, bestAt := "", -1
	for _, d := range c.Domains() {
		terms := append([]string{d.Name}, d.Aliases...)
		for _, term := range terms {
			at := indexWord(t, term)
			if at < 0 {
				continue
			}
			if bestAt < 0 || at < bestAt {
				best, bestAt = d.Name, at
			}
		}
	}
	return best, bestAt >= 0
}

// SelectDomain resolves a domain-selection answer: plain name containment
// first, then aliases.
func SelectDomain(text string, c *content.Catalog) (string, bool) {
	if name, ok := MatchDomain(text, c.Names()); ok {
		return name, true
	}
	return MentionedDomain(text, c)
}
