// Package normalizer converts heterogeneous source payloads into the
// canonical ContentItem shape and filters out previously seen items.
package normalizer

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/voterpulse/sentinel/internal/domain"
)

// SourceSchema maps canonical field names to the keys a particular
// source uses in its payloads. Unmapped fields fall back to the
// canonical name itself.
type SourceSchema struct {
	SourceName string
	FieldMap   map[string]string
	Language   string
}

// Canonical field names resolvable through a SourceSchema.
const (
	fieldTitle       = "title"
	fieldText        = "text"
	fieldAuthor      = "author"
	fieldPublishedAt = "published_at"
	fieldTags        = "tags"
	fieldSentiment   = "sentiment_hint"
	fieldLanguage    = "language"
)

// timeFormats are tried in order when parsing published timestamps.
var timeFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Normalizer maps raw payloads into ContentItems using per-source
// schemas registered at construction.
type Normalizer struct {
	schemas map[string]SourceSchema
	now     func() time.Time
}

// New creates a Normalizer with the given per-source schemas, keyed by
// source key.
func New(schemas map[string]SourceSchema) *Normalizer {
	if schemas == nil {
		schemas = make(map[string]SourceSchema)
	}
	return &Normalizer{
		schemas: schemas,
		now:     time.Now,
	}
}

// Normalize converts one raw payload into a ContentItem. Missing
// optional fields become empty values; an item with neither title nor
// text carries no usable signal and is dropped.
func (n *Normalizer) Normalize(payload map[string]any, sourceKey string) (*domain.ContentItem, error) {
	schema, ok := n.schemas[sourceKey]
	if !ok {
		schema = SourceSchema{SourceName: sourceKey}
	}
	if schema.SourceName == "" {
		schema.SourceName = sourceKey
	}

	title := strings.TrimSpace(stringField(payload, schema, fieldTitle))
	text := strings.TrimSpace(stringField(payload, schema, fieldText))
	if title == "" && text == "" {
		return nil, fmt.Errorf("%w: payload from %s has no title or text", domain.ErrItemDropped, sourceKey)
	}
	if title == "" {
		title = firstLine(text)
	}

	lang := stringField(payload, schema, fieldLanguage)
	if lang == "" {
		lang = schema.Language
	}

	item := &domain.ContentItem{
		ID:            uuid.NewString(),
		SourceSystem:  sourceKey,
		SourceName:    schema.SourceName,
		Title:         title,
		Text:          text,
		Author:        stringField(payload, schema, fieldAuthor),
		Tags:          sliceField(payload, schema, fieldTags),
		Language:      lang,
		SentimentHint: stringField(payload, schema, fieldSentiment),
		PublishedAt:   timeField(payload, schema, fieldPublishedAt, n.now()),
		IngestedAt:    n.now().UTC(),
	}
	item.ContentHash = item.Hash()

	return item, nil
}

// resolveKey returns the source-specific key for a canonical field.
func resolveKey(schema SourceSchema, field string) string {
	if mapped, ok := schema.FieldMap[field]; ok && mapped != "" {
		return mapped
	}
	return field
}

func stringField(payload map[string]any, schema SourceSchema, field string) string {
	v, ok := payload[resolveKey(schema, field)]
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sliceField(payload map[string]any, schema SourceSchema, field string) []string {
	v, ok := payload[resolveKey(schema, field)]
	if !ok || v == nil {
		return nil
	}
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, e := range vals {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if vals == "" {
			return nil
		}
		parts := strings.Split(vals, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

func timeField(payload map[string]any, schema SourceSchema, field string, fallback time.Time) time.Time {
	raw := stringField(payload, schema, field)
	if raw == "" {
		return fallback.UTC()
	}
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return fallback.UTC()
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx > 0 {
		text = text[:idx]
	}
	const maxTitleLen = 120
	if len(text) > maxTitleLen {
		text = text[:maxTitleLen]
	}
	return strings.TrimSpace(text)
}
