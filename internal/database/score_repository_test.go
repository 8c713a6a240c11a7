package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterpulse/sentinel/internal/database"
	"github.com/voterpulse/sentinel/internal/domain"
)

func sampleScore() *domain.VulnerabilityScore {
	return &domain.VulnerabilityScore{
		ID:             "score-1",
		ConstituencyID: "const-1",
		Score:          62,
		Breakdown: domain.ScoreBreakdown{
			NewsImpact:        18,
			ControversyImpact: 20,
			GrievanceImpact:   4,
			MarginRisk:        20,
		},
		PreviousScore: 57,
		Trend:         domain.TrendDeclining,
		WindowDays:    30,
		ComputedAt:    time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

func TestScoreRepository_Append(t *testing.T) {
	db, mock := newMockDB(t)
	record := sampleScore()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vulnerability_scores").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE constituencies").
		WithArgs(record.ConstituencyID, record.Score, record.ComputedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := database.NewScoreRepository(db).Append(context.Background(), record)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepository_Append_UnknownConstituency(t *testing.T) {
	db, mock := newMockDB(t)
	record := sampleScore()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vulnerability_scores").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE constituencies").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := database.NewScoreRepository(db).Append(context.Background(), record)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepository_Append_InsertFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO vulnerability_scores").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	err := database.NewScoreRepository(db).Append(context.Background(), sampleScore())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepository_Latest(t *testing.T) {
	db, mock := newMockDB(t)
	columns := []string{
		"id", "constituency_id", "score", "news_impact", "controversy_impact",
		"grievance_impact", "margin_risk", "previous_score", "trend",
		"window_days", "degraded", "computed_at",
	}
	computedAt := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM vulnerability_scores").
		WithArgs("const-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("score-1", "const-1", 62, 18.0, 20.0, 4.0, 20.0, 57, "declining", 30, false, computedAt))

	record, err := database.NewScoreRepository(db).Latest(context.Background(), "const-1")
	require.NoError(t, err)
	assert.Equal(t, 62, record.Score)
	assert.Equal(t, domain.TrendDeclining, record.Trend)
	assert.InDelta(t, 18.0, record.Breakdown.NewsImpact, 0.001)
	assert.Equal(t, computedAt, record.ComputedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScoreRepository_Latest_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT (.+) FROM vulnerability_scores").
		WithArgs("const-1").
		WillReturnError(sql.ErrNoRows)

	_, err := database.NewScoreRepository(db).Latest(context.Background(), "const-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
