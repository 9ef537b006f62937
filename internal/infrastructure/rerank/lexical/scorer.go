// Package lexical is an offline stand-in for a cross-encoder: it scores a
// passage by how much of the query vocabulary it covers.
package lexical

import (
	"context"
	"strings"
	"unicode"
)

const (
	coverageWeight  = 0.7
	proximityWeight = 0.3
)

type Scorer struct{}

func New() *Scorer { return &Scorer{} }

// Score blends query-token coverage with a bigram proximity bonus, so
// passages that keep query words adjacent outrank bag-of-words matches.
func (s *Scorer) Score(_ context.Context, query string, passages []string) ([]float64, error) {
	if len(passages) == 0 {
		return nil, nil
	}
	queryTokens := splitAlphaNumLower(query)
	querySet := toTokenSet(queryTokens)
	queryBigrams := bigrams(queryTokens)

	out := make([]float64, len(passages))
	for i, passage := range passages {
		tokens := splitAlphaNumLower(passage)
		score := coverageWeight * tokenOverlap(querySet, toTokenSet(tokens))
		if len(queryBigrams) > 0 {
			score += proximityWeight * tokenOverlap(queryBigrams, bigrams(tokens))
		}
		out[i] = score
	}
	return out, nil
}

func tokenOverlap(query, passage map[string]struct{}) float64 {
	if len(query) == 0 || len(passage) == 0 {
		return 0
	}
	matches := 0
	for token := range query {
		if _, ok := passage[token]; ok {
			matches++
		}
	}
	return float64(matches) / float64(len(query))
}

func bigrams(tokens []string) map[string]struct{} {
	out := make(map[string]struct{})
	for i := 1; i < len(tokens); i++ {
		out[tokens[i-1]+" "+tokens[i]] = struct{}{}
	}
	return out
}

func toTokenSet(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

func splitAlphaNumLower(s string) []string {
	if s == "" {
		return nil
	}
	tokens := make([]string, 0, 16)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			tokens = append(tokens, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
