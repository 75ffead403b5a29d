package enrich

import (
	"regexp"
	"strings"
)

var (
	sentenceSplitRe = regexp.MustCompile(`[.!?]+\s+|[.!?]+$`)
	wordRe          = regexp.MustCompile(`[a-zA-Z]+(?:'[a-zA-Z]+)?`)
)

// Sentences splits text into sentences on terminal punctuation.
// Abbreviation handling is deliberately absent; review prose rarely
// contains any, and downstream passes only need rough units.
func Sentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	parts := sentenceSplitRe.Split(text, -1)
	var sentences []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// Words tokenizes text into lowercase word tokens. Contractions stay
// whole ("don't" is one token) so negation detection sees them.
func Words(text string) []string {
	matches := wordRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	words := make([]string, len(matches))
	for i, m := range matches {
		words[i] = strings.ToLower(m)
	}
	return words
}
