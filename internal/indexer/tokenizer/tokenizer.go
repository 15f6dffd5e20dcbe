// Package tokenizer provides text tokenisation for the search engine.
// Text is split on every run of characters that is neither an ASCII word
// character nor a hyphen, then lower-cased. There is no stemming and no
// stop-word list.
package tokenizer

import (
	"regexp"
	"strings"
)

var separator = regexp.MustCompile(`[^\w\-]+`)

// Split returns the raw pieces of text between separators, keeping leading
// empty pieces and dropping trailing ones. Its length is the document word
// count used by the "doc" term-frequency strategy.
func Split(text string) []string {
	parts := separator.Split(text, -1)
	if len(parts) == 1 {
		return parts
	}
	end := len(parts)
	for end > 0 && parts[end-1] == "" {
		end--
	}
	return parts[:end]
}

// Tokenize breaks text into lower-cased, trimmed, non-empty terms.
func Tokenize(text string) []string {
	parts := Split(text)
	tokens := make([]string, 0, len(parts))
	for _, part := range parts {
		term := strings.TrimSpace(strings.ToLower(part))
		if term == "" {
			continue
		}
		tokens = append(tokens, term)
	}
	return tokens
}
