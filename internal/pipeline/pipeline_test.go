package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterpulse/sentinel/internal/attack"
	"github.com/voterpulse/sentinel/internal/classifier"
	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/issues"
	"github.com/voterpulse/sentinel/internal/normalizer"
	"github.com/voterpulse/sentinel/internal/pipeline"
	"github.com/voterpulse/sentinel/internal/scoring"
)

type fakeContentStore struct {
	backlog  []*domain.ContentItem
	attached []*domain.Classification
}

func (s *fakeContentStore) AttachClassification(_ context.Context, c *domain.Classification) error {
	s.attached = append(s.attached, c)
	for i, item := range s.backlog {
		if item.ID == c.ContentID {
			s.backlog = append(s.backlog[:i], s.backlog[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeContentStore) ListUnclassified(_ context.Context, limit int) ([]*domain.ContentItem, error) {
	if len(s.backlog) > limit {
		return s.backlog[:limit], nil
	}
	return s.backlog, nil
}

type fakeConstituencyStore struct {
	byID map[string]*domain.Constituency
}

func (s *fakeConstituencyStore) GetByID(_ context.Context, id string) (*domain.Constituency, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (s *fakeConstituencyStore) ListIDs(context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.byID))
	for id := range s.byID {
		ids = append(ids, id)
	}
	return ids, nil
}

type fakeIssueStore struct {
	issues []*domain.TrackedIssue
}

func (s *fakeIssueStore) ListByCategory(_ context.Context, constituencyID, category string) ([]*domain.TrackedIssue, error) {
	matched := []*domain.TrackedIssue{}
	for _, issue := range s.issues {
		if issue.ConstituencyID == constituencyID && issue.Category == category && issue.Open {
			matched = append(matched, issue)
		}
	}
	return matched, nil
}

func (s *fakeIssueStore) Create(_ context.Context, issue *domain.TrackedIssue) error {
	s.issues = append(s.issues, issue)
	return nil
}

func (s *fakeIssueStore) Update(_ context.Context, issue *domain.TrackedIssue) error {
	for i, existing := range s.issues {
		if existing.ID == issue.ID {
			s.issues[i] = issue
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeAttackStore struct {
	points []*domain.AttackPoint
}

func (s *fakeAttackStore) ActiveByType(_ context.Context, constituencyID, attackType string) (*domain.AttackPoint, error) {
	for _, p := range s.points {
		if p.ConstituencyID == constituencyID && p.AttackType == attackType && p.IsActive {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeAttackStore) Create(_ context.Context, point *domain.AttackPoint) error {
	s.points = append(s.points, point)
	return nil
}

func (s *fakeAttackStore) AppendEvidence(_ context.Context, pointID, contentID string) error {
	for _, p := range s.points {
		if p.ID == pointID {
			p.SourceContentIDs = append(p.SourceContentIDs, contentID)
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeScoreInputs struct{}

func (fakeScoreInputs) ScoreInputs(context.Context, string, int) (*domain.ScoreInputs, error) {
	return &domain.ScoreInputs{}, nil
}

type fakeScoreHistory struct {
	appended []*domain.VulnerabilityScore
}

func (f *fakeScoreHistory) Latest(context.Context, string) (*domain.VulnerabilityScore, error) {
	return nil, domain.ErrNotFound
}

func (f *fakeScoreHistory) Append(_ context.Context, record *domain.VulnerabilityScore) error {
	f.appended = append(f.appended, record)
	return nil
}

type pipelineHarness struct {
	pipeline *pipeline.Pipeline
	content  *fakeContentStore
	issues   *fakeIssueStore
	attacks  *fakeAttackStore
	history  *fakeScoreHistory
	deduper  *normalizer.Deduper
}

func newPipelineHarness(t *testing.T, constituencies ...*domain.Constituency) *pipelineHarness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	byID := map[string]*domain.Constituency{}
	for _, c := range constituencies {
		byID[c.ID] = c
	}

	lex := classifier.NewLexical(nil)
	content := &fakeContentStore{}
	issueStore := &fakeIssueStore{}
	attackStore := &fakeAttackStore{}
	history := &fakeScoreHistory{}
	deduper := normalizer.NewDeduper(client, time.Hour)

	p := pipeline.New(pipeline.Options{
		Deduper:    deduper,
		Chain:      classifier.NewChain(nil, lex, nil, nil),
		Detector:   issues.NewDetector(lex),
		Aggregator: issues.NewAggregator(issueStore, 0, nil, nil),
		Generator:  attack.NewGenerator(attackStore, nil, nil),
		Scorer:     scoring.New(fakeScoreInputs{}, history, scoring.Options{}),
		Content:    content,
		Stores:     &fakeConstituencyStore{byID: byID},
	})

	return &pipelineHarness{
		pipeline: p,
		content:  content,
		issues:   issueStore,
		attacks:  attackStore,
		history:  history,
		deduper:  deduper,
	}
}

func backlogItem(id, constituencyID, title, text string) *domain.ContentItem {
	return &domain.ContentItem{
		ID:             id,
		ConstituencyID: constituencyID,
		ContentHash:    domain.HashContent(title, "newsdata"),
		SourceSystem:   "newsdata",
		Title:          title,
		Text:           text,
	}
}

func TestReprocess_DrainsBacklog(t *testing.T) {
	h := newPipelineHarness(t, &domain.Constituency{
		ID:         "const-1",
		Name:       "Rampur",
		LeaderName: "Sharma",
	})
	h.content.backlog = []*domain.ContentItem{
		backlogItem("item-1", "const-1",
			"Road potholes in Ward 5",
			"Potholes damaging roads near the Ward 5 market."),
		backlogItem("item-2", "const-1",
			"New bridge inaugurated",
			"The chief engineer opened the flyover on Sunday."),
	}

	require.NoError(t, h.pipeline.Reprocess(context.Background(), 10))

	assert.Len(t, h.content.attached, 2, "every backlog item gets its classification")
	assert.Empty(t, h.content.backlog)

	require.NotEmpty(t, h.issues.issues, "the grievance in the backlog becomes a tracked issue")
	assert.Equal(t, "roads-infrastructure", h.issues.issues[0].Category)
	assert.Equal(t, "const-1", h.issues.issues[0].ConstituencyID)

	require.Len(t, h.history.appended, 1, "the constituency is rescored once per reprocess")
	assert.Equal(t, "const-1", h.history.appended[0].ConstituencyID)
}

func TestReprocess_MissingConstituencyDropsDedupMark(t *testing.T) {
	h := newPipelineHarness(t)
	item := backlogItem("item-1", "const-gone",
		"Road potholes in Ward 5",
		"Potholes damaging roads near the Ward 5 market.")
	h.content.backlog = []*domain.ContentItem{item}
	ctx := context.Background()

	dup, err := h.deduper.CheckAndMark(ctx, item)
	require.NoError(t, err)
	require.False(t, dup)

	require.NoError(t, h.pipeline.Reprocess(ctx, 10))

	assert.Empty(t, h.content.attached, "orphaned rows keep no classification")
	assert.Empty(t, h.history.appended)

	dup, err = h.deduper.CheckAndMark(ctx, item)
	require.NoError(t, err)
	assert.False(t, dup, "the dedup mark is dropped so a fresh copy can be ingested")
}

func TestReprocess_EmptyBacklogIsANoOp(t *testing.T) {
	h := newPipelineHarness(t)

	require.NoError(t, h.pipeline.Reprocess(context.Background(), 10))
	assert.Empty(t, h.content.attached)
	assert.Empty(t, h.history.appended)
}
