package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/firewatch-co/maintenance-api/internal/models"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
)

func TestContractServiceCreateSuccess(t *testing.T) {
	repo := &contractRepoStub{}
	svc := newContractFixture(repo)

	contract, err := svc.Create(context.Background(), CreateContractRequest{
		CompanyID:      "co-1",
		ContractNumber: "CN-2024-001",
		StartDate:      "01-Jan-2024",
		EndDate:        "31-Dec-2024",
		ServiceBatches: []ServiceBatchRequest{
			{Name: "main", BranchIDs: []string{"br-1"}, RegularVisitsPerYear: 12},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "CN-2024-001", contract.ContractNumber)
	require.Len(t, repo.created, 1)
}

func TestContractServiceCreateRejectsBadDates(t *testing.T) {
	svc := newContractFixture(&contractRepoStub{})

	_, err := svc.Create(context.Background(), CreateContractRequest{
		CompanyID:      "co-1",
		ContractNumber: "CN-2024-002",
		StartDate:      "2024-01-01",
		EndDate:        "31-Dec-2024",
		ServiceBatches: []ServiceBatchRequest{
			{Name: "main", BranchIDs: []string{"br-1"}, RegularVisitsPerYear: 12},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestContractServiceCreateRejectsInvertedInterval(t *testing.T) {
	svc := newContractFixture(&contractRepoStub{})

	_, err := svc.Create(context.Background(), CreateContractRequest{
		CompanyID:      "co-1",
		ContractNumber: "CN-2024-003",
		StartDate:      "31-Dec-2024",
		EndDate:        "01-Jan-2024",
		ServiceBatches: []ServiceBatchRequest{
			{Name: "main", BranchIDs: []string{"br-1"}, RegularVisitsPerYear: 12},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestContractServiceCreateRejectsForeignBranch(t *testing.T) {
	svc := newContractFixture(&contractRepoStub{})

	_, err := svc.Create(context.Background(), CreateContractRequest{
		CompanyID:      "co-1",
		ContractNumber: "CN-2024-004",
		StartDate:      "01-Jan-2024",
		EndDate:        "31-Dec-2024",
		ServiceBatches: []ServiceBatchRequest{
			{Name: "main", BranchIDs: []string{"br-elsewhere"}, RegularVisitsPerYear: 12},
		},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "br-elsewhere")
}

func newContractFixture(repo *contractRepoStub) *ContractService {
	companies := plannerCompanyStub{company: &models.Company{ID: "co-1", Name: "Acme Fire Co"}}
	branches := plannerBranchesStub{items: []models.Branch{{ID: "br-1", CompanyID: "co-1"}}}
	return NewContractService(repo, companies, branches, nil, zap.NewNop())
}

type contractRepoStub struct {
	created []models.Contract
}

func (s *contractRepoStub) List(_ context.Context, _ models.ContractFilter) ([]models.Contract, int, error) {
	return s.created, len(s.created), nil
}

func (s *contractRepoStub) FindByID(_ context.Context, id string) (*models.Contract, error) {
	for i := range s.created {
		if s.created[i].ID == id {
			return &s.created[i], nil
		}
	}
	return nil, errNoContract
}

func (s *contractRepoStub) Create(_ context.Context, contract *models.Contract) error {
	s.created = append(s.created, *contract)
	return nil
}

func (s *contractRepoStub) Update(_ context.Context, _ *models.Contract) error { return nil }

func (s *contractRepoStub) Archive(_ context.Context, _ string) error { return nil }

var errNoContract = appErrors.Clone(appErrors.ErrNotFound, "contract not found")
