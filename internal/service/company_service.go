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

type companyRepository interface {
	List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, int, error)
	FindByID(ctx context.Context, id string) (*models.Company, error)
	Create(ctx context.Context, company *models.Company) error
	Update(ctx context.Context, company *models.Company) error
	Archive(ctx context.Context, id string) error
}

// CreateCompanyRequest holds payload for creating companies.
type CreateCompanyRequest struct {
	Name string `json:"name" validate:"required"`
	City string `json:"city"`
}

// UpdateCompanyRequest holds payload for updating companies.
type UpdateCompanyRequest struct {
	Name string `json:"name" validate:"required"`
	City string `json:"city"`
}

// CompanyService handles company use-cases.
type CompanyService struct {
	repo      companyRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCompanyService constructs the company service.
func NewCompanyService(repo companyRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CompanyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns companies and pagination metadata.
func (s *CompanyService) List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, *models.Pagination, error) {
	companies, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list companies")
	}
	return companies, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one company.
func (s *CompanyService) Get(ctx context.Context, id string) (*models.Company, error) {
	company, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	return company, nil
}

// Create registers a new company.
func (s *CompanyService) Create(ctx context.Context, req CreateCompanyRequest) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid company payload")
	}
	company := &models.Company{Name: req.Name, City: req.City}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create company")
	}
	return company, nil
}

// Update modifies an existing company.
func (s *CompanyService) Update(ctx context.Context, id string, req UpdateCompanyRequest) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid company payload")
	}
	company, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if company.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "company is archived")
	}
	company.Name = req.Name
	company.City = req.City
	if err := s.repo.Update(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update company")
	}
	s.invalidatePlanning(ctx, id)
	return company, nil
}

// Archive soft-deletes the company. Archived companies are skipped by
// the planner and excluded from default listings.
func (s *CompanyService) Archive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive company")
	}
	s.invalidatePlanning(ctx, id)
	return nil
}

func (s *CompanyService) invalidatePlanning(ctx context.Context, companyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, "planner:result:"+companyID); err != nil {
		s.logger.Warn("failed to invalidate planning cache", zap.String("companyId", companyID), zap.Error(err))
	}
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
