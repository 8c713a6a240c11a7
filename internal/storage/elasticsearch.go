// Package storage holds the optional search-index sink for classified
// content.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/voterpulse/sentinel/internal/config"
	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/logger"
)

const defaultIndex = "sentinel-content"

// Indexer writes classified content into Elasticsearch for the search
// surface. Index failures are logged and swallowed; search is a
// convenience layer, not a pipeline dependency.
type Indexer struct {
	client *es.Client
	index  string
	logger logger.Logger
}

// NewIndexer builds an Indexer from config. A disabled config returns
// (nil, nil) and callers treat a nil Indexer as a no-op.
func NewIndexer(cfg config.ElasticsearchConfig, log logger.Logger) (*Indexer, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if log == nil {
		log = logger.NewNop()
	}

	clientConfig := es.Config{
		Addresses: []string{normalizeURL(cfg.URL)},
	}
	if cfg.Username != "" && cfg.Password != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}

	client, err := es.NewClient(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	index := cfg.Index
	if index == "" {
		index = defaultIndex
	}

	return &Indexer{client: client, index: index, logger: log}, nil
}

// document is the indexed shape: the item plus its classification.
type document struct {
	domain.ContentItem
	Sentiment           string    `json:"sentiment"`
	SentimentScore      float64   `json:"sentiment_score"`
	Stance              string    `json:"stance,omitempty"`
	IsControversy       bool      `json:"is_controversy"`
	ControversySeverity string    `json:"controversy_severity,omitempty"`
	Topics              []string  `json:"topics,omitempty"`
	IndexedAt           time.Time `json:"indexed_at"`
}

// IndexClassified writes one item with its classification. Errors are
// logged, never returned; a nil receiver is a no-op.
func (ix *Indexer) IndexClassified(ctx context.Context, item *domain.ContentItem, c *domain.Classification) {
	if ix == nil {
		return
	}

	doc := document{
		ContentItem:    *item,
		Sentiment:      c.Sentiment,
		SentimentScore: c.SentimentScore,
		Stance:         c.Stance,
		IsControversy:  c.IsControversy,
		Topics:         c.Topics,
		IndexedAt:      time.Now().UTC(),
	}
	if c.IsControversy {
		doc.ControversySeverity = string(c.ControversySeverity)
	}

	body, err := json.Marshal(doc)
	if err != nil {
		ix.logger.Error("failed to marshal content document",
			logger.String("content_id", item.ID),
			logger.Error(err))
		return
	}

	req := esapi.IndexRequest{
		Index:      ix.index,
		DocumentID: item.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, ix.client)
	if err != nil {
		ix.logger.Error("failed to index content document",
			logger.String("content_id", item.ID),
			logger.Error(err))
		return
	}
	defer res.Body.Close()

	if res.IsError() {
		ix.logger.Error("elasticsearch rejected content document",
			logger.String("content_id", item.ID),
			logger.String("status", res.Status()))
	}
}

func normalizeURL(url string) string {
	if url == "" {
		return "http://localhost:9200"
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}
