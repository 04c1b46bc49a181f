package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/firewatch-co/maintenance-api/internal/models"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
)

type branchRepository interface {
	List(ctx context.Context, filter models.BranchFilter) ([]models.Branch, int, error)
	FindByID(ctx context.Context, id string) (*models.Branch, error)
	Create(ctx context.Context, branch *models.Branch) error
	Update(ctx context.Context, branch *models.Branch) error
	Archive(ctx context.Context, id string) error
}

type branchCompanyReader interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
}

// CreateBranchRequest holds payload for creating branches.
type CreateBranchRequest struct {
	CompanyID string `json:"company_id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	City      string `json:"city"`
	Address   string `json:"address"`
}

// UpdateBranchRequest holds payload for updating branches.
type UpdateBranchRequest struct {
	Name    string `json:"name" validate:"required"`
	City    string `json:"city"`
	Address string `json:"address"`
}

// BranchService handles branch use-cases.
type BranchService struct {
	repo      branchRepository
	companies branchCompanyReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBranchService constructs the branch service.
func NewBranchService(repo branchRepository, companies branchCompanyReader, validate *validator.Validate, logger *zap.Logger) *BranchService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BranchService{repo: repo, companies: companies, validator: validate, logger: logger}
}

// List returns branches and pagination metadata.
func (s *BranchService) List(ctx context.Context, filter models.BranchFilter) ([]models.Branch, *models.Pagination, error) {
	branches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list branches")
	}
	return branches, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one branch.
func (s *BranchService) Get(ctx context.Context, id string) (*models.Branch, error) {
	branch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "branch not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branch")
	}
	return branch, nil
}

// Create registers a new branch under an existing company.
func (s *BranchService) Create(ctx context.Context, req CreateBranchRequest) (*models.Branch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid branch payload")
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

	branch := &models.Branch{
		CompanyID: req.CompanyID,
		Name:      req.Name,
		City:      req.City,
		Address:   req.Address,
	}
	if err := s.repo.Create(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create branch")
	}
	return branch, nil
}

// Update modifies an existing branch.
func (s *BranchService) Update(ctx context.Context, id string, req UpdateBranchRequest) (*models.Branch, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid branch payload")
	}
	branch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if branch.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "branch is archived")
	}
	branch.Name = req.Name
	branch.City = req.City
	branch.Address = req.Address
	if err := s.repo.Update(ctx, branch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update branch")
	}
	return branch, nil
}

// Archive soft-deletes the branch. Archived branches drop out of
// future planning runs; contracts referencing them stay intact.
func (s *BranchService) Archive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive branch")
	}
	return nil
}
