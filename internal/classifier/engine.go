package classifier

import (
	"strings"
	"sync"
	"unicode"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// groupID addresses one keyword list inside the table.
type groupID struct {
	kind string // "positive", "negative", "stance", "tier", "topic", "protest", "anger"
	name string // stance label, severity, or topic name; empty otherwise
}

// GroupHits is the match result for one keyword group: which distinct
// keywords from the group appeared in the text.
type GroupHits struct {
	Distinct int
	Keywords []string
}

// matchEngine runs a single Aho-Corasick pass over the text and buckets
// hits by keyword group. One automaton covers every list in the table,
// so classification cost is O(text + keywords) regardless of how many
// groups exist.
type matchEngine struct {
	mu       sync.RWMutex
	matcher  *ahocorasick.Matcher
	keywords []string
	kwGroups map[string][]groupID
}

func newMatchEngine(table *KeywordTable) *matchEngine {
	e := &matchEngine{}
	e.rebuild(table)
	return e
}

// rebuild constructs the automaton from a table. Safe to call at
// runtime for hot table reloads.
func (e *matchEngine) rebuild(table *KeywordTable) {
	keywords := make([]string, 0, 512)
	kwGroups := make(map[string][]groupID)

	add := func(id groupID, list []string) {
		for _, kw := range list {
			normalized := normalizeKeyword(kw)
			if normalized == "" {
				continue
			}
			if _, seen := kwGroups[normalized]; !seen {
				keywords = append(keywords, normalized)
			}
			kwGroups[normalized] = append(kwGroups[normalized], id)
		}
	}

	add(groupID{kind: "positive"}, table.Positive)
	add(groupID{kind: "negative"}, table.Negative)
	for _, s := range table.Stances {
		add(groupID{kind: "stance", name: s.Label}, s.Keywords)
	}
	for _, t := range table.Tiers {
		add(groupID{kind: "tier", name: string(t.Severity)}, t.Keywords)
	}
	for _, t := range table.Topics {
		add(groupID{kind: "topic", name: t.Name}, t.Keywords)
	}
	add(groupID{kind: "protest"}, table.Protest)
	add(groupID{kind: "anger"}, table.AngerHigh)

	e.mu.Lock()
	e.keywords = keywords
	e.kwGroups = kwGroups
	if len(keywords) > 0 {
		e.matcher = ahocorasick.NewStringMatcher(keywords)
	} else {
		e.matcher = nil
	}
	e.mu.Unlock()
}

// match runs one pass over the text and returns distinct keyword hits
// per group. The automaton reports each pattern at most once, which is
// exactly the distinct-keyword semantics the scoring rules want.
func (e *matchEngine) match(text string) map[groupID]*GroupHits {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.matcher == nil {
		return nil
	}

	normalized := normalizeText(text)
	hits := e.matcher.Match([]byte(normalized))

	results := make(map[groupID]*GroupHits)
	for _, hitIndex := range hits {
		if hitIndex >= len(e.keywords) {
			continue
		}
		keyword := e.keywords[hitIndex]
		for _, id := range e.kwGroups[keyword] {
			gh, ok := results[id]
			if !ok {
				gh = &GroupHits{}
				results[id] = gh
			}
			gh.Distinct++
			gh.Keywords = append(gh.Keywords, keyword)
		}
	}
	return results
}

func normalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// normalizeText lowercases and replaces punctuation with spaces so
// keyword phrases match across minor formatting differences. Letters
// and digits of any script pass through untouched.
func normalizeText(text string) string {
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return b.String()
}
