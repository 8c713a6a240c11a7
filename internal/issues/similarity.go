package issues

import "strings"

// minTokenLen filters short filler words out of similarity word-sets.
const minTokenLen = 4

// Similarity scores the word-set overlap between two titles in [0, 1].
// Tokens of three characters or fewer are ignored so stop words do not
// inflate the score. The intersection is normalized by the smaller set,
// so a short headline that is fully contained in a longer one still
// scores high; plain intersection-over-union punishes length
// differences too hard for news titles.
func Similarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}

	smaller := len(setA)
	if len(setB) < smaller {
		smaller = len(setB)
	}
	return float64(intersection) / float64(smaller)
}

func wordSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		tok = strings.Trim(tok, ".,!?;:'\"()[]")
		if len([]rune(tok)) >= minTokenLen {
			set[tok] = true
		}
	}
	return set
}
