package merge

import (
	"regexp"
	"sort"
	"strings"
)

// stopWords are excluded from keyword sets. High-frequency words in this
// domain would otherwise dominate every similarity score.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "use": true, "when": true,
	"with": true, "should": true, "from": true, "that": true, "this": true,
	"have": true, "will": true, "your": true, "prefer": true, "default": true,
	"instead": true, "always": true, "never": true, "avoid": true, "suggest": true,
}

var wordRe = regexp.MustCompile(`\b[a-z]{3,}\b`)

// Keywords extracts the significant keyword set of text: lowercase words of
// length three or more, minus stop words.
func Keywords(text string) map[string]bool {
	words := wordRe.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if !stopWords[w] {
			set[w] = true
		}
	}
	return set
}

// jaccard is |A∩B| / |A∪B| for two keyword sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if b[w] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// intersect returns the sorted shared keywords of two sets.
func intersect(a, b map[string]bool) []string {
	var shared []string
	for w := range a {
		if b[w] {
			shared = append(shared, w)
		}
	}
	sort.Strings(shared)
	return shared
}
