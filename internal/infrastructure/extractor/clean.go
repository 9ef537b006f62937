// Package extractor holds helpers shared by the page sources.
package extractor

import "strings"

// CleanText collapses every whitespace run to one space and trims the ends.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
