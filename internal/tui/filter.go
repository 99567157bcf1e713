package tui

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// filterIndices returns the indices of titles matching query, best match
// first. An empty query matches everything in order.
func filterIndices(query string, titles []string) []int {
	if query == "" {
		idx := make([]int, len(titles))
		for i := range titles {
			idx[i] = i
		}
		return idx
	}

	lowerTitles := make([]string, len(titles))
	for i, t := range titles {
		lowerTitles[i] = strings.ToLower(t)
	}

	matches := fuzzy.Find(strings.ToLower(query), lowerTitles)
	idx := make([]int, len(matches))
	for i, match := range matches {
		idx[i] = match.Index
	}
	return idx
}
