package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voterpulse/sentinel/internal/classifier"
	"github.com/voterpulse/sentinel/internal/database"
	"github.com/voterpulse/sentinel/internal/domain"
	"github.com/voterpulse/sentinel/internal/fetcher"
	"github.com/voterpulse/sentinel/internal/logger"
	"github.com/voterpulse/sentinel/internal/pipeline"
)

// Handlers holds the dependencies behind the HTTP surface.
type Handlers struct {
	constituencies *database.ConstituencyRepository
	issues         *database.IssueRepository
	attackPoints   *database.AttackPointRepository
	scores         *database.ScoreRepository
	chain          *classifier.Chain
	pipeline       *pipeline.Pipeline
	fetcher        *fetcher.Fetcher
	logger         logger.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	constituencies *database.ConstituencyRepository,
	issues *database.IssueRepository,
	attackPoints *database.AttackPointRepository,
	scores *database.ScoreRepository,
	chain *classifier.Chain,
	p *pipeline.Pipeline,
	f *fetcher.Fetcher,
	log logger.Logger,
) *Handlers {
	return &Handlers{
		constituencies: constituencies,
		issues:         issues,
		attackPoints:   attackPoints,
		scores:         scores,
		chain:          chain,
		pipeline:       p,
		fetcher:        f,
		logger:         log,
	}
}

// ListConstituencies returns constituencies ranked by current
// vulnerability score.
func (h *Handlers) ListConstituencies(c *gin.Context) {
	limit := intQuery(c, "limit", 100)
	list, err := h.constituencies.ListRanked(c.Request.Context(), limit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"constituencies": list, "count": len(list)})
}

// GetConstituency returns one constituency with its latest score
// record.
func (h *Handlers) GetConstituency(c *gin.Context) {
	id := c.Param("id")
	constituency, err := h.constituencies.GetByID(c.Request.Context(), id)
	if err != nil {
		h.lookupError(c, err)
		return
	}

	resp := gin.H{"constituency": constituency}
	if latest, err := h.scores.Latest(c.Request.Context(), id); err == nil {
		resp["latest_score"] = latest
	}
	c.JSON(http.StatusOK, resp)
}

// ListIssues returns a constituency's tracked issues.
func (h *Handlers) ListIssues(c *gin.Context) {
	openOnly := c.DefaultQuery("open", "true") == "true"
	list, err := h.issues.ListByConstituency(c.Request.Context(), c.Param("id"), openOnly)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": list, "count": len(list)})
}

// ListAttackPoints returns a constituency's attack points.
func (h *Handlers) ListAttackPoints(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") == "true"
	list, err := h.attackPoints.ListByConstituency(c.Request.Context(), c.Param("id"), activeOnly)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attack_points": list, "count": len(list)})
}

// CloseIssue marks a tracked issue resolved. Closed issues stop
// counting toward grievance impact; a fresh detection reopens them.
func (h *Handlers) CloseIssue(c *gin.Context) {
	id := c.Param("id")
	if err := h.issues.Close(c.Request.Context(), id); err != nil {
		h.lookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "closed", "id": id})
}

// DeactivateAttackPoint retires an active attack point without
// discarding its evidence trail.
func (h *Handlers) DeactivateAttackPoint(c *gin.Context) {
	id := c.Param("id")
	if err := h.attackPoints.Deactivate(c.Request.Context(), id); err != nil {
		h.lookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated", "id": id})
}

// ScoreHistory returns a constituency's score time series, newest
// first.
func (h *Handlers) ScoreHistory(c *gin.Context) {
	limit := intQuery(c, "limit", 30)
	history, err := h.scores.History(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history, "count": len(history)})
}

// classifyRequest is the ad-hoc classification payload.
type classifyRequest struct {
	Title string `binding:"required" json:"title"`
	Text  string `json:"text"`
}

// Classify runs the classification chain on ad-hoc text, for tooling
// and keyword-table debugging. Nothing is persisted.
func (h *Handlers) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := &domain.ContentItem{
		ID:    uuid.NewString(),
		Title: req.Title,
		Text:  req.Text,
	}
	result, err := h.chain.Classify(c.Request.Context(), item)
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// runRequest optionally narrows a pipeline run to one constituency.
type runRequest struct {
	ConstituencyID string `json:"constituency_id"`
}

// RunPipeline triggers an ingestion run in the background and returns
// immediately.
func (h *Handlers) RunPipeline(c *gin.Context) {
	var req runRequest
	_ = c.ShouldBindJSON(&req)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()

		var err error
		if req.ConstituencyID != "" {
			err = h.pipeline.RunConstituency(ctx, req.ConstituencyID)
		} else {
			err = h.pipeline.RunAll(ctx)
		}
		if err != nil {
			h.logger.Error("triggered pipeline run failed", logger.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// quotaView flattens a window state for the ops surface.
type quotaView struct {
	Source    string `json:"source"`
	Window    string `json:"window"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	Exhausted bool   `json:"exhausted"`
}

// SourceQuotas reports live budget consumption per source window.
func (h *Handlers) SourceQuotas(c *gin.Context) {
	states, err := h.fetcher.QuotaStatus(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}

	views := make([]quotaView, 0, len(states))
	for _, state := range states {
		views = append(views, quotaView{
			Source:    state.ScopeKey,
			Window:    string(state.Window),
			Used:      state.Used,
			Limit:     state.Limit,
			Remaining: state.Remaining(),
			Exhausted: state.Exhausted(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"quotas": views})
}

// Health reports liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (h *Handlers) lookupError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.serverError(c, err)
}

func (h *Handlers) serverError(c *gin.Context, err error) {
	h.logger.Error("request failed",
		logger.String("path", c.Request.URL.Path),
		logger.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	if raw := c.Query(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return fallback
}
