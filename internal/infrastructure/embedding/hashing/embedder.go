// Package hashing provides an offline embedder that projects word and
// character-trigram features into a fixed number of buckets. It needs no
// model download and is deterministic, which makes it the dense backend for
// tests and air-gapped runs.
package hashing

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

const DefaultDimension = 384

type Embedder struct {
	dim int
}

func New(dimension int) *Embedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &Embedder{dim: dimension}
}

func (e *Embedder) Dimension() int { return e.dim }

func (e *Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *Embedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

func (e *Embedder) vector(text string) []float32 {
	vec := make([]float32, e.dim)
	for _, word := range words(text) {
		e.add(vec, "w:"+word, 1.0)
		padded := "#" + word + "#"
		runes := []rune(padded)
		for i := 0; i+3 <= len(runes); i++ {
			e.add(vec, "t:"+string(runes[i:i+3]), 0.5)
		}
	}
	return vec
}

// add uses a second hash bit as the sign so collisions tend to cancel out.
func (e *Embedder) add(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum64()
	bucket := int(sum % uint64(e.dim))
	if (sum>>63)&1 == 1 {
		weight = -weight
	}
	vec[bucket] += weight
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
