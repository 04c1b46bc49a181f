package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewatch-co/maintenance-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func visitRows(t *testing.T) *sqlmock.Rows {
	t.Helper()
	day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "code", "branch_id", "contract_id", "company_id", "type", "status", "scheduled_date", "services", "notes", "is_archived", "created_at", "updated_at"}).
		AddRow("v1", "VST-AAAA1111", "b1", "c1", "co1", "regular", "scheduled", day, []byte(`{"fire_extinguisher":true,"alarm":false,"suppression":false,"gas":false,"foam":false}`), "", false, time.Now(), time.Now())
}

func TestVisitRepositoryListFiltersByCompanyAndStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM visits WHERE 1=1 AND company_id = $1 AND status = $2 AND is_archived = FALSE ORDER BY scheduled_date ASC LIMIT 50 OFFSET 0")).
		WithArgs("co1", "scheduled").
		WillReturnRows(visitRows(t))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM visits WHERE 1=1 AND company_id = $1 AND status = $2 AND is_archived = FALSE")).
		WithArgs("co1", "scheduled").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	visits, total, err := repo.List(context.Background(), models.VisitFilter{CompanyID: "co1", Status: "scheduled"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, visits, 1)
	assert.Equal(t, models.VisitTypeRegular, visits[0].Type)
	assert.True(t, visits[0].Services.FireExtinguisher)
}

func TestVisitRepositoryListByCompanyDecodesServices(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM visits WHERE company_id = $1 ORDER BY scheduled_date ASC")).
		WithArgs("co1").
		WillReturnRows(visitRows(t))

	visits, err := repo.ListByCompany(context.Background(), "co1")
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "2024-03-02", visits[0].DayKey())
}

func TestVisitRepositoryBulkCreateAssignsIDAndCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO visits").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	visits := []models.Visit{{
		BranchID:      "b1",
		ContractID:    "c1",
		CompanyID:     "co1",
		Type:          models.VisitTypeRegular,
		Status:        models.VisitStatusScheduled,
		ScheduledDate: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
	}}
	require.NoError(t, repo.BulkCreate(context.Background(), visits))
	assert.NotEmpty(t, visits[0].ID)
	assert.Contains(t, visits[0].Code, "VST-")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitRepositoryBulkCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO visits").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.BulkCreate(context.Background(), []models.Visit{{BranchID: "b1", ContractID: "c1"}})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewVisitRepository(db)

	mock.ExpectExec("UPDATE visits SET status").
		WithArgs("v1", "completed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "v1", models.VisitStatusCompleted))
	assert.NoError(t, mock.ExpectationsWereMet())
}
