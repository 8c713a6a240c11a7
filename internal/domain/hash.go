package domain

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// HashContent derives the dedup identity for a piece of content from
// its title and source name. Both inputs are lowercased and the title
// trimmed so cosmetic differences between feeds do not defeat dedup.
func HashContent(title, sourceName string) string {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(title))))
	h.Write([]byte{0})
	h.Write([]byte(strings.ToLower(sourceName)))
	return fmt.Sprintf("%016x", h.Sum64())
}
