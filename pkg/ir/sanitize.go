package ir

import (
	"fmt"
	"strings"
	"unicode"
)

// Sanitizer maps labels to target-language-safe identifier tokens.
//
// Tokens contain only [A-Za-z0-9_] and always start with a letter. The same
// label always yields the same token within one Sanitizer, and two different
// labels never collide silently: when sanitization would produce a duplicate
// token, a numeric suffix is appended.
//
// Every codec shares this type so PlantUML, Mermaid, Structurizr and DOT
// output all agree on identifiers for the same diagram.
type Sanitizer struct {
	byLabel map[string]string
	used    map[string]bool
}

// NewSanitizer creates an empty sanitizer.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{
		byLabel: make(map[string]string),
		used:    make(map[string]bool),
	}
}

// Sanitize returns the stable token for label.
func (s *Sanitizer) Sanitize(label string) string {
	if tok, ok := s.byLabel[label]; ok {
		return tok
	}

	base := sanitizeToken(label)
	tok := base
	for i := 2; s.used[tok]; i++ {
		tok = fmt.Sprintf("%s_%d", base, i)
	}

	s.byLabel[label] = tok
	s.used[tok] = true
	return tok
}

// sanitizeToken reduces a label to [A-Za-z0-9_] with a guaranteed leading letter.
func sanitizeToken(label string) string {
	var b strings.Builder
	prevUnderscore := false
	for _, r := range label {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevUnderscore = false
		case !prevUnderscore && b.Len() > 0:
			b.WriteByte('_')
			prevUnderscore = true
		}
	}

	tok := strings.Trim(b.String(), "_")
	if tok == "" {
		return "n"
	}
	if !unicode.IsLetter(rune(tok[0])) {
		tok = "n_" + tok
	}
	return tok
}
