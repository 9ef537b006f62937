package sparse

import (
	"strings"
	"unicode"
)

// tokenize lowercases s and keeps runs of two or more word characters
// (letters, digits, underscore) that are not English stop words.
func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	n := 0
	flush := func() {
		if n >= 2 {
			tok := b.String()
			if _, stop := stopWords[tok]; !stop {
				out = append(out, tok)
			}
		}
		b.Reset()
		n = 0
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(unicode.ToLower(r))
			n++
			continue
		}
		flush()
	}
	flush()
	return out
}
