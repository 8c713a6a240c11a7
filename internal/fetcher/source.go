package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/voterpulse/sentinel/internal/config"
	"github.com/voterpulse/sentinel/internal/domain"
)

// Request describes one fetch against an external source.
type Request struct {
	// Query is the search term, typically a leader or constituency name.
	Query string
	// ConstituencyID scopes the results for downstream stages.
	ConstituencyID string
	// MaxItems bounds the result size; sources may clip it further to
	// their remaining quota.
	MaxItems int
}

// CacheKey returns a stable key identifying this request for caching.
func (r Request) CacheKey() string {
	return fmt.Sprintf("%s:%s:%d", r.ConstituencyID, r.Query, r.MaxItems)
}

// Source fetches raw payloads from one external system. Implementations
// must honor ctx cancellation and return domain.ErrUnauthorized for
// 401-class responses so the retry layer treats them as terminal.
type Source interface {
	// Key returns the configured source key.
	Key() string
	// Fetch performs one live call and returns raw payloads. Each
	// payload is a source-shaped JSON object; normalization happens
	// downstream.
	Fetch(ctx context.Context, req Request) ([]map[string]any, error)
}

// HTTPSource fetches JSON payloads from a REST-style content API.
type HTTPSource struct {
	cfg    config.SourceConfig
	client *http.Client
}

// NewHTTPSource creates a source backed by an HTTP JSON endpoint.
func NewHTTPSource(cfg config.SourceConfig, client *http.Client) *HTTPSource {
	return &HTTPSource{cfg: cfg, client: client}
}

// Key returns the configured source key.
func (s *HTTPSource) Key() string { return s.cfg.Key }

// Fetch performs one live HTTP call against the source endpoint.
func (s *HTTPSource) Fetch(ctx context.Context, req Request) ([]map[string]any, error) {
	endpoint, err := url.Parse(s.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint for source %s: %w", s.cfg.Key, err)
	}

	q := endpoint.Query()
	q.Set("q", req.Query)
	if req.MaxItems > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.MaxItems))
	}
	endpoint.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request for source %s: %w", s.cfg.Key, err)
	}
	if s.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch from source %s: %w", s.cfg.Key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("source %s: %w", s.cfg.Key, domain.ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("source %s rate limited: status 429", s.cfg.Key)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("source %s returned status %d", s.cfg.Key, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response from source %s: %w", s.cfg.Key, err)
	}

	return decodePayloads(body, s.cfg.Key)
}

// decodePayloads accepts either a bare JSON array or an envelope with
// one of the common list field names.
func decodePayloads(body []byte, sourceKey string) ([]map[string]any, error) {
	var asList []map[string]any
	if err := json.Unmarshal(body, &asList); err == nil {
		return asList, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("decode response from source %s: %w", sourceKey, err)
	}

	for _, field := range []string{"articles", "results", "data", "items", "statuses"} {
		raw, ok := envelope[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &asList); err != nil {
			return nil, fmt.Errorf("decode %s list from source %s: %w", field, sourceKey, err)
		}
		return asList, nil
	}

	return nil, fmt.Errorf("source %s: no recognizable list field in response", sourceKey)
}
