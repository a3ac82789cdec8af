package utils

import (
	"regexp"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonAlnumRe   = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
)

// NormalizePrompt canonicalizes free text for cache-key derivation:
// trim, lowercase, collapse runs of whitespace to a single space.
// Identical user intent phrased with incidental whitespace or case
// differences maps to the same normalized form.
func NormalizePrompt(text string) string {
	text = strings.TrimSpace(strings.ToLower(text))
	return whitespaceRe.ReplaceAllString(text, " ")
}

// Tokenize splits text into word tokens, dropping special characters.
func Tokenize(text string) []string {
	cleaned := nonAlnumRe.ReplaceAllString(text, " ")
	fields := strings.Fields(cleaned)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
