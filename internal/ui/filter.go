package ui

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// HighlightConfig bundles the thresholds a fuzzy match must meet before the
// matched characters of a title are highlighted.
type HighlightConfig struct {
	MinCoverage float64 // minimal share of the query that must match
	MaxSpread   int     // maximal distance between first and last match index
}

var defaultHighlight = HighlightConfig{MinCoverage: 0.6, MaxSpread: 40}

// matchedIndexes returns the byte offsets of title that fuzzy-match query, or
// nil when the match is too weak to be worth highlighting.
func matchedIndexes(query, title string, cfg HighlightConfig) []int {
	query = strings.TrimSpace(query)
	if query == "" || title == "" {
		return nil
	}
	matches := fuzzy.Find(query, []string{title})
	if len(matches) == 0 {
		return nil
	}
	mt := matches[0]
	if matchCoverage(query, mt) < cfg.MinCoverage || matchSpread(mt) > cfg.MaxSpread {
		return nil
	}
	return mt.MatchedIndexes
}

// highlightTitle renders the matched characters of title with matchStyle.
func highlightTitle(title, query string) string {
	idx := matchedIndexes(query, title, defaultHighlight)
	if len(idx) == 0 {
		return title
	}
	hit := make(map[int]bool, len(idx))
	for _, i := range idx {
		hit[i] = true
	}
	var b strings.Builder
	for i, r := range title {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchCoverage returns the ratio of matched characters to the query length.
func matchCoverage(q string, m fuzzy.Match) float64 {
	if len(q) == 0 {
		return 1
	}
	return float64(len(m.MatchedIndexes)) / float64(len([]rune(q)))
}

// matchSpread returns the distance between the first and last matched index.
func matchSpread(m fuzzy.Match) int {
	if len(m.MatchedIndexes) == 0 {
		return 0
	}
	return m.MatchedIndexes[len(m.MatchedIndexes)-1] - m.MatchedIndexes[0]
}
