package database_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterpulse/sentinel/internal/database"
	"github.com/voterpulse/sentinel/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func sampleIssue() *domain.TrackedIssue {
	now := time.Date(2025, 8, 20, 10, 0, 0, 0, time.UTC)
	return &domain.TrackedIssue{
		ID:               "issue-1",
		ConstituencyID:   "const-1",
		Title:            "Road potholes in Ward 5",
		Category:         "roads-infrastructure",
		Severity:         domain.SeverityMedium,
		PublicAngerLevel: domain.AngerMedium,
		SourceCount:      1,
		Open:             true,
		FirstSeenAt:      now,
		LastMentionedAt:  now,
	}
}

func TestIssueRepository_Create(t *testing.T) {
	testCases := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "inserts issue",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO tracked_issues").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "duplicate maps to already exists",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO tracked_issues").
					WillReturnError(&pq.Error{Code: "23505"})
			},
			wantErr: domain.ErrAlreadyExists,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.setupMock(mock)

			err := database.NewIssueRepository(db).Create(context.Background(), sampleIssue())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIssueRepository_Update(t *testing.T) {
	testCases := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "updates mutable fields",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tracked_issues").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "missing row maps to not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("UPDATE tracked_issues").
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tc.setupMock(mock)

			err := database.NewIssueRepository(db).Update(context.Background(), sampleIssue())
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestIssueRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT (.+) FROM tracked_issues").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := database.NewIssueRepository(db).GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueRepository_CountOpenHighSeverity(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("const-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := database.NewIssueRepository(db).CountOpenHighSeverity(context.Background(), "const-1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
