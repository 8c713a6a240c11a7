package normalizer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/normalizer"
)

func TestNormalize_MapsSchemaFields(t *testing.T) {
	n := normalizer.New(map[string]normalizer.SourceSchema{
		"newsdata": {
			SourceName: "NewsData",
			Language:   "en",
			FieldMap: map[string]string{
				"title":        "headline",
				"text":         "description",
				"author":       "creator",
				"published_at": "pubDate",
				"tags":         "keywords",
			},
		},
	})

	item, err := n.Normalize(map[string]any{
		"headline":    "Water crisis deepens in Rampur",
		"description": "Residents queue for tankers as borewells run dry.",
		"creator":     "Staff Reporter",
		"pubDate":     "2025-08-14T06:30:00Z",
		"keywords":    []any{"water", "rampur"},
	}, "newsdata")
	require.NoError(t, err)

	assert.Equal(t, "newsdata", item.SourceSystem)
	assert.Equal(t, "NewsData", item.SourceName)
	assert.Equal(t, "Water crisis deepens in Rampur", item.Title)
	assert.Equal(t, "Residents queue for tankers as borewells run dry.", item.Text)
	assert.Equal(t, "Staff Reporter", item.Author)
	assert.Equal(t, []string{"water", "rampur"}, item.Tags)
	assert.Equal(t, "en", item.Language)
	assert.Equal(t, time.Date(2025, 8, 14, 6, 30, 0, 0, time.UTC), item.PublishedAt)
	assert.NotEmpty(t, item.ID)
	assert.NotEmpty(t, item.ContentHash)
}

func TestNormalize_UnknownSourceUsesCanonicalKeys(t *testing.T) {
	n := normalizer.New(nil)

	item, err := n.Normalize(map[string]any{
		"title": "Power cuts return",
		"text":  "Rolling outages reported across three wards.",
	}, "local-feed")
	require.NoError(t, err)
	assert.Equal(t, "local-feed", item.SourceSystem)
	assert.Equal(t, "local-feed", item.SourceName)
	assert.Equal(t, "Power cuts return", item.Title)
}

func TestNormalize_DropsEmptyPayload(t *testing.T) {
	n := normalizer.New(nil)

	_, err := n.Normalize(map[string]any{"author": "someone"}, "local-feed")
	assert.ErrorIs(t, err, domain.ErrItemDropped)
}

func TestNormalize_TitleFromFirstLineOfText(t *testing.T) {
	n := normalizer.New(nil)

	item, err := n.Normalize(map[string]any{
		"text": "Flyover work stalled again\nContractor cites payment delays.",
	}, "local-feed")
	require.NoError(t, err)
	assert.Equal(t, "Flyover work stalled again", item.Title)
}

func TestNormalize_UnparseableTimestampFallsBack(t *testing.T) {
	n := normalizer.New(nil)

	before := time.Now().UTC()
	item, err := n.Normalize(map[string]any{
		"title":        "Mandi prices crash",
		"published_at": "yesterday evening",
	}, "local-feed")
	require.NoError(t, err)
	assert.False(t, item.PublishedAt.Before(before.Add(-time.Minute)))
}

func TestNormalize_HashIgnoresCaseAndSource(t *testing.T) {
	n := normalizer.New(nil)

	a, err := n.Normalize(map[string]any{"title": "Potholes Anger Residents"}, "feed-a")
	require.NoError(t, err)
	b, err := n.Normalize(map[string]any{"title": "potholes anger residents"}, "feed-b")
	require.NoError(t, err)

	// Same story text hashes alike regardless of casing; a different
	// source name still yields a different hash.
	assert.Equal(t, a.ContentHash, domain.HashContent(a.Title, "feed-a"))
	assert.NotEqual(t, a.ContentHash, b.ContentHash)
	assert.Equal(t, b.ContentHash, domain.HashContent("POTHOLES ANGER RESIDENTS", "FEED-B"))
}

func TestNormalize_CommaSeparatedTags(t *testing.T) {
	n := normalizer.New(nil)

	item, err := n.Normalize(map[string]any{
		"title": "Hospital inaugurated",
		"tags":  "health, infrastructure , ",
	}, "local-feed")
	require.NoError(t, err)
	assert.Equal(t, []string{"health", "infrastructure"}, item.Tags)
}
