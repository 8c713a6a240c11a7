package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voterpulse/sentinel/internal/api"
	"github.com/voterpulse/sentinel/internal/database"
	"github.com/voterpulse/sentinel/internal/logger"
)

func newCurationRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	sdb := sqlx.NewDb(db, "sqlmock")

	handlers := api.NewHandlers(
		database.NewConstituencyRepository(sdb),
		database.NewIssueRepository(sdb),
		database.NewAttackPointRepository(sdb),
		database.NewScoreRepository(sdb),
		nil,
		nil,
		nil,
		logger.NewNop(),
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/v1/issues/:id/close", handlers.CloseIssue)
	router.POST("/api/v1/attack-points/:id/deactivate", handlers.DeactivateAttackPoint)
	return router, mock
}

func TestCloseIssue(t *testing.T) {
	router, mock := newCurationRouter(t)
	mock.ExpectExec("UPDATE tracked_issues").
		WithArgs("iss-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/issues/iss-1/close", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"closed"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCloseIssue_NotFound(t *testing.T) {
	router, mock := newCurationRouter(t)
	mock.ExpectExec("UPDATE tracked_issues").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/issues/missing/close", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateAttackPoint(t *testing.T) {
	router, mock := newCurationRouter(t)
	mock.ExpectExec("UPDATE attack_points").
		WithArgs("atk-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attack-points/atk-1/deactivate", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"deactivated"`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeactivateAttackPoint_NotFound(t *testing.T) {
	router, mock := newCurationRouter(t)
	mock.ExpectExec("UPDATE attack_points").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/attack-points/missing/deactivate", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
