package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/firewatch-co/maintenance-api/internal/models"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
)

type visitRepository interface {
	List(ctx context.Context, filter models.VisitFilter) ([]models.Visit, int, error)
	FindByID(ctx context.Context, id string) (*models.Visit, error)
	Create(ctx context.Context, visit *models.Visit) error
	UpdateStatus(ctx context.Context, id string, status models.VisitStatus) error
	Delete(ctx context.Context, id string) error
}

type visitContractReader interface {
	FindByID(ctx context.Context, id string) (*models.Contract, error)
}

// CreateVisitRequest holds payload for manually creating a visit,
// typically an emergency or followup outside the planner.
type CreateVisitRequest struct {
	BranchID      string              `json:"branch_id" validate:"required"`
	ContractID    string              `json:"contract_id" validate:"required"`
	Type          string              `json:"type" validate:"required,oneof=regular emergency followup"`
	ScheduledDate string              `json:"scheduled_date" validate:"required"`
	Services      models.ServiceFlags `json:"services"`
	Notes         string              `json:"notes"`
}

// UpdateVisitStatusRequest moves a visit through its lifecycle.
type UpdateVisitStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=scheduled completed cancelled missed"`
}

// VisitService handles visit use-cases outside the planner.
type VisitService struct {
	repo      visitRepository
	contracts visitContractReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVisitService constructs the visit service.
func NewVisitService(repo visitRepository, contracts visitContractReader, validate *validator.Validate, logger *zap.Logger) *VisitService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitService{repo: repo, contracts: contracts, validator: validate, logger: logger}
}

// List returns visits and pagination metadata.
func (s *VisitService) List(ctx context.Context, filter models.VisitFilter) ([]models.Visit, *models.Pagination, error) {
	visits, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list visits")
	}
	return visits, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one visit.
func (s *VisitService) Get(ctx context.Context, id string) (*models.Visit, error) {
	visit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "visit not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load visit")
	}
	return visit, nil
}

// Create registers a manually scheduled visit against an active
// contract. The company is derived from the contract.
func (s *VisitService) Create(ctx context.Context, req CreateVisitRequest) (*models.Visit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid visit payload")
	}

	scheduled, err := time.Parse(models.VisitDateLayout, req.ScheduledDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "scheduled_date must use the 2006-01-02 format")
	}

	contract, err := s.contracts.FindByID(ctx, req.ContractID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contract not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contract")
	}
	if contract.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "contract is archived")
	}

	visit := &models.Visit{
		BranchID:      req.BranchID,
		ContractID:    req.ContractID,
		CompanyID:     contract.CompanyID,
		Type:          models.VisitType(req.Type),
		Status:        models.VisitStatusScheduled,
		ScheduledDate: scheduled,
		Services:      req.Services,
		Notes:         req.Notes,
	}
	if err := s.repo.Create(ctx, visit); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create visit")
	}
	return visit, nil
}

// UpdateStatus transitions the visit lifecycle state.
func (s *VisitService) UpdateStatus(ctx context.Context, id string, req UpdateVisitStatusRequest) (*models.Visit, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	visit, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if visit.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "visit is archived")
	}

	status := models.VisitStatus(req.Status)
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update visit status")
	}
	visit.Status = status
	return visit, nil
}

// Delete removes a visit permanently.
func (s *VisitService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete visit")
	}
	return nil
}
