package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/firewatch-co/maintenance-api/internal/models"
)

// BranchRepository provides persistence for branches.
type BranchRepository struct {
	db *sqlx.DB
}

// NewBranchRepository creates a new branch repository.
func NewBranchRepository(db *sqlx.DB) *BranchRepository {
	return &BranchRepository{db: db}
}

const branchColumns = "id, company_id, name, city, address, is_archived, created_at, updated_at"

// List returns branches with optional filtering and pagination.
func (r *BranchRepository) List(ctx context.Context, filter models.BranchFilter) ([]models.Branch, int, error) {
	base := "FROM branches WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CompanyID != "" {
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)+1))
		args = append(args, filter.CompanyID)
	}
	if filter.City != "" {
		conditions = append(conditions, fmt.Sprintf("city = $%d", len(args)+1))
		args = append(args, filter.City)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "is_archived = FALSE")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"name": true, "city": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "name"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", branchColumns, base, sortBy, order, size, offset)
	var branches []models.Branch
	if err := r.db.SelectContext(ctx, &branches, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list branches: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count branches: %w", err)
	}

	return branches, total, nil
}

// ListByCompany returns every branch of a company, archived included;
// the planner filters archived branches itself so runs can report them.
func (r *BranchRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Branch, error) {
	query := fmt.Sprintf("SELECT %s FROM branches WHERE company_id = $1 ORDER BY name ASC", branchColumns)
	var branches []models.Branch
	if err := r.db.SelectContext(ctx, &branches, query, companyID); err != nil {
		return nil, fmt.Errorf("list branches by company: %w", err)
	}
	return branches, nil
}

// FindByID loads a branch by id.
func (r *BranchRepository) FindByID(ctx context.Context, id string) (*models.Branch, error) {
	query := fmt.Sprintf("SELECT %s FROM branches WHERE id = $1", branchColumns)
	var branch models.Branch
	if err := r.db.GetContext(ctx, &branch, query, id); err != nil {
		return nil, err
	}
	return &branch, nil
}

// Create stores a new branch record.
func (r *BranchRepository) Create(ctx context.Context, branch *models.Branch) error {
	if branch.ID == "" {
		branch.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if branch.CreatedAt.IsZero() {
		branch.CreatedAt = now
	}
	branch.UpdatedAt = now

	const query = `INSERT INTO branches (id, company_id, name, city, address, is_archived, created_at, updated_at) VALUES (:id, :company_id, :name, :city, :address, :is_archived, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, branch); err != nil {
		return fmt.Errorf("create branch: %w", err)
	}
	return nil
}

// Update modifies a branch record.
func (r *BranchRepository) Update(ctx context.Context, branch *models.Branch) error {
	branch.UpdatedAt = time.Now().UTC()
	const query = `UPDATE branches SET name = :name, city = :city, address = :address, is_archived = :is_archived, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, branch); err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	return nil
}

// Archive flags a branch as archived, excluding it from future planning.
func (r *BranchRepository) Archive(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE branches SET is_archived = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive branch: %w", err)
	}
	return nil
}
