package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firewatch-co/maintenance-api/internal/models"
)

const batchPayload = `[{"name":"extinguishers","branch_ids":["b1","b2"],"services":{"fire_extinguisher":true,"alarm":false,"suppression":false,"gas":false,"foam":false},"regular_visits_per_year":12,"emergency_visits_per_year":2}]`

func contractRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "company_id", "contract_number", "contract_start_date", "contract_end_date", "is_archived", "service_batches", "created_at", "updated_at"}).
		AddRow("c1", "co1", "CT-2024-001", "01-Jan-2024", "31-Dec-2024", false, []byte(batchPayload), time.Now(), time.Now())
}

func TestContractRepositoryListActiveByCompany(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM contracts WHERE company_id = $1 AND is_archived = FALSE ORDER BY created_at ASC")).
		WithArgs("co1").
		WillReturnRows(contractRows())

	contracts, err := repo.ListActiveByCompany(context.Background(), "co1")
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	require.Len(t, contracts[0].ServiceBatches, 1)
	assert.Equal(t, 12, contracts[0].ServiceBatches[0].RegularVisitsPerYear)
	assert.Equal(t, []string{"b1", "b2"}, contracts[0].ServiceBatches[0].BranchIDs)

	start, end, err := contracts[0].Interval()
	require.NoError(t, err)
	assert.Equal(t, time.January, start.Month())
	assert.Equal(t, time.December, end.Month())
}

func TestContractRepositoryCreateEncodesBatches(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	mock.ExpectExec("INSERT INTO contracts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	contract := &models.Contract{
		CompanyID:      "co1",
		ContractNumber: "CT-2024-002",
		StartDate:      "01-Feb-2024",
		EndDate:        "31-Jan-2025",
		ServiceBatches: []models.ServiceBatch{{
			Name:                 "alarms",
			BranchIDs:            []string{"b3"},
			Services:             models.ServiceFlags{Alarm: true},
			RegularVisitsPerYear: 4,
		}},
	}
	require.NoError(t, repo.Create(context.Background(), contract))
	assert.NotEmpty(t, contract.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContractRepositoryFindByIDBadBatchPayload(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewContractRepository(db)

	rows := sqlmock.NewRows([]string{"id", "company_id", "contract_number", "contract_start_date", "contract_end_date", "is_archived", "service_batches", "created_at", "updated_at"}).
		AddRow("c9", "co1", "CT-X", "01-Jan-2024", "31-Dec-2024", false, []byte(`{not json`), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM contracts WHERE id = $1")).
		WithArgs("c9").
		WillReturnRows(rows)

	_, err := repo.FindByID(context.Background(), "c9")
	require.Error(t, err)
}
