package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/firewatch-co/maintenance-api/internal/models"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
)

type contractRepository interface {
	List(ctx context.Context, filter models.ContractFilter) ([]models.Contract, int, error)
	FindByID(ctx context.Context, id string) (*models.Contract, error)
	Create(ctx context.Context, contract *models.Contract) error
	Update(ctx context.Context, contract *models.Contract) error
	Archive(ctx context.Context, id string) error
}

type contractBranchReader interface {
	ListByCompany(ctx context.Context, companyID string) ([]models.Branch, error)
}

type contractCompanyReader interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
}

// ServiceBatchRequest describes one batch in a contract payload.
type ServiceBatchRequest struct {
	Name                   string              `json:"name" validate:"required"`
	BranchIDs              []string            `json:"branch_ids" validate:"required,min=1"`
	Services               models.ServiceFlags `json:"services"`
	RegularVisitsPerYear   int                 `json:"regular_visits_per_year" validate:"min=0"`
	EmergencyVisitsPerYear int                 `json:"emergency_visits_per_year" validate:"min=0"`
}

// CreateContractRequest holds payload for creating contracts. Dates
// arrive in display format, e.g. "01-Jan-2024".
type CreateContractRequest struct {
	CompanyID      string                `json:"company_id" validate:"required"`
	ContractNumber string                `json:"contract_number" validate:"required"`
	StartDate      string                `json:"contract_start_date" validate:"required"`
	EndDate        string                `json:"contract_end_date" validate:"required"`
	ServiceBatches []ServiceBatchRequest `json:"service_batches" validate:"required,min=1,dive"`
}

// UpdateContractRequest holds payload for updating contracts.
type UpdateContractRequest struct {
	ContractNumber string                `json:"contract_number" validate:"required"`
	StartDate      string                `json:"contract_start_date" validate:"required"`
	EndDate        string                `json:"contract_end_date" validate:"required"`
	ServiceBatches []ServiceBatchRequest `json:"service_batches" validate:"required,min=1,dive"`
}

// ContractService handles contract use-cases.
type ContractService struct {
	repo      contractRepository
	companies contractCompanyReader
	branches  contractBranchReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContractService constructs the contract service.
func NewContractService(repo contractRepository, companies contractCompanyReader, branches contractBranchReader, validate *validator.Validate, logger *zap.Logger) *ContractService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractService{repo: repo, companies: companies, branches: branches, validator: validate, logger: logger}
}

// List returns contracts and pagination metadata.
func (s *ContractService) List(ctx context.Context, filter models.ContractFilter) ([]models.Contract, *models.Pagination, error) {
	contracts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contracts")
	}
	return contracts, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one contract with its service batches.
func (s *ContractService) Get(ctx context.Context, id string) (*models.Contract, error) {
	contract, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contract not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract")
	}
	return contract, nil
}

// Create registers a new contract after checking company, dates and
// batch branch membership.
func (s *ContractService) Create(ctx context.Context, req CreateContractRequest) (*models.Contract, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contract payload")
	}

	company, err := s.companies.FindByID(ctx, req.CompanyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	if company.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "company is archived")
	}

	contract := &models.Contract{
		CompanyID:      req.CompanyID,
		ContractNumber: req.ContractNumber,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		ServiceBatches: batchesFromRequests(req.ServiceBatches),
	}
	if err := s.checkContract(ctx, contract); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, contract); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create contract")
	}
	return contract, nil
}

// Update modifies an existing contract.
func (s *ContractService) Update(ctx context.Context, id string, req UpdateContractRequest) (*models.Contract, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contract payload")
	}
	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if contract.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "contract is archived")
	}

	contract.ContractNumber = req.ContractNumber
	contract.StartDate = req.StartDate
	contract.EndDate = req.EndDate
	contract.ServiceBatches = batchesFromRequests(req.ServiceBatches)
	if err := s.checkContract(ctx, contract); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, contract); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update contract")
	}
	return contract, nil
}

// Archive soft-deletes the contract, removing it from future planning
// runs. Already scheduled visits are untouched.
func (s *ContractService) Archive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive contract")
	}
	return nil
}

// checkContract verifies the date interval and that every batch branch
// belongs to the contract's company.
func (s *ContractService) checkContract(ctx context.Context, contract *models.Contract) error {
	start, end, err := contract.Interval()
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("contract dates must use the %s format", models.ContractDateLayout))
	}
	if end.Before(start) {
		return appErrors.Clone(appErrors.ErrValidation, "contract end date precedes start date")
	}

	branches, err := s.branches.ListByCompany(ctx, contract.CompanyID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branches")
	}
	known := make(map[string]struct{}, len(branches))
	for _, branch := range branches {
		known[branch.ID] = struct{}{}
	}
	for _, batch := range contract.ServiceBatches {
		for _, branchID := range batch.BranchIDs {
			if _, ok := known[branchID]; !ok {
				return appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("batch %q references branch %s outside the company", batch.Name, branchID))
			}
		}
	}
	return nil
}

func batchesFromRequests(reqs []ServiceBatchRequest) []models.ServiceBatch {
	batches := make([]models.ServiceBatch, 0, len(reqs))
	for _, req := range reqs {
		batches = append(batches, models.ServiceBatch{
			Name:                   req.Name,
			BranchIDs:              req.BranchIDs,
			Services:               req.Services,
			RegularVisitsPerYear:   req.RegularVisitsPerYear,
			EmergencyVisitsPerYear: req.EmergencyVisitsPerYear,
		})
	}
	return batches
}
