package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/voterpulse/sentinel/internal/domain"
)

const aiSystemPrompt = `You analyze Indian political news and social media content.
Respond with a single JSON object and nothing else:
{
  "sentiment": "positive" | "negative" | "neutral",
  "sentiment_score": number in [-1, 1],
  "confidence": number in [0, 1],
  "stance": "pro-incumbent" | "anti-incumbent" | "neutral",
  "is_controversy": boolean,
  "controversy_severity": "low" | "medium" | "high" | "critical" | "",
  "topics": up to 5 strings from: roads-infrastructure, water-supply,
            electricity, employment, corruption, health, education,
            agriculture, law-order, price-rise
}
Content may be in English or Hindi.`

const aiMaxTokens = 512

// aiResponse is the JSON shape the model is instructed to return.
type aiResponse struct {
	Sentiment           string   `json:"sentiment"`
	SentimentScore      float64  `json:"sentiment_score"`
	Confidence          float64  `json:"confidence"`
	Stance              string   `json:"stance"`
	IsControversy       bool     `json:"is_controversy"`
	ControversySeverity string   `json:"controversy_severity"`
	Topics              []string `json:"topics"`
}

// AI is the model-backed classification strategy. It is optional and
// best-effort; callers wrap it in a Chain so a failure here degrades to
// the lexical strategy instead of dropping the item.
type AI struct {
	client        anthropic.Client
	model         string
	timeout       time.Duration
	minConfidence float64
	now           func() time.Time
}

// AIConfig configures the AI strategy.
type AIConfig struct {
	APIKey        string
	Model         string
	Timeout       time.Duration
	MinConfidence float64
}

// NewAI creates the model-backed strategy.
func NewAI(cfg AIConfig) *AI {
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	return &AI{
		client:        anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:         cfg.Model,
		timeout:       cfg.Timeout,
		minConfidence: cfg.MinConfidence,
		now:           time.Now,
	}
}

// Name identifies the strategy in logs and metrics.
func (a *AI) Name() string { return domain.MethodAI }

// Classify asks the model for a structured judgement of the item. Low
// confidence is an error so the caller falls back to the lexical
// strategy rather than trusting a shaky answer.
func (a *AI) Classify(ctx context.Context, item *domain.ContentItem) (*domain.Classification, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	prompt := fmt.Sprintf("Title: %s\n\nText: %s", item.Title, item.Text)

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: aiMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: aiSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ai classification request: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("ai classification: empty response")
	}

	parsed, err := parseAIResponse(text)
	if err != nil {
		return nil, err
	}
	if parsed.Confidence < a.minConfidence {
		return nil, fmt.Errorf("%w: model confidence %.2f below %.2f",
			domain.ErrLowConfidence, parsed.Confidence, a.minConfidence)
	}

	return a.toClassification(item, parsed), nil
}

// parseAIResponse extracts the JSON object from the model output,
// tolerating surrounding prose or code fences.
func parseAIResponse(text string) (*aiResponse, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, fmt.Errorf("ai classification: no JSON object in response")
	}

	var parsed aiResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return nil, fmt.Errorf("ai classification: decode response: %w", err)
	}

	switch parsed.Sentiment {
	case domain.SentimentPositive, domain.SentimentNegative, domain.SentimentNeutral:
	default:
		return nil, fmt.Errorf("ai classification: invalid sentiment %q", parsed.Sentiment)
	}

	return &parsed, nil
}

func (a *AI) toClassification(item *domain.ContentItem, parsed *aiResponse) *domain.Classification {
	result := &domain.Classification{
		ContentID:      item.ID,
		Sentiment:      parsed.Sentiment,
		SentimentScore: clampFloat(parsed.SentimentScore, -1, 1),
		Confidence:     clampFloat(parsed.Confidence, 0, 1),
		Stance:         parsed.Stance,
		IsControversy:  parsed.IsControversy,
		Method:         domain.MethodAI,
		TableVersion:   a.model,
		ClassifiedAt:   a.now().UTC(),
	}
	if result.Stance == "" {
		result.Stance = "neutral"
	}

	severity := domain.Severity(parsed.ControversySeverity)
	if parsed.IsControversy && severity.Rank() >= 0 {
		result.ControversySeverity = severity
	} else if parsed.IsControversy {
		result.ControversySeverity = domain.SeverityLow
	}

	if len(parsed.Topics) > defaultMaxTopics {
		parsed.Topics = parsed.Topics[:defaultMaxTopics]
	}
	result.Topics = parsed.Topics
	result.TopicHits = make(map[string]int, len(parsed.Topics))
	for _, t := range parsed.Topics {
		// The model gives membership, not counts. Two keeps these
		// categories eligible for issue detection.
		result.TopicHits[t] = 2
	}

	return result
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
