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

// CompanyRepository provides persistence for companies.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

const companyColumns = "id, name, city, is_archived, created_at, updated_at"

// List returns companies with optional filtering and pagination.
func (r *CompanyRepository) List(ctx context.Context, filter models.CompanyFilter) ([]models.Company, int, error) {
	base := "FROM companies WHERE 1=1"
	var conditions []string
	var args []interface{}

	if !filter.IncludeArchived {
		conditions = append(conditions, "is_archived = FALSE")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", len(args)+1))
		args = append(args, "%"+filter.Search+"%")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", companyColumns, base, sortBy, order, size, offset)
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	return companies, total, nil
}

// FindByID loads a company by id.
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*models.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM companies WHERE id = $1", companyColumns)
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, err
	}
	return &company, nil
}

// Create stores a new company record.
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if company.CreatedAt.IsZero() {
		company.CreatedAt = now
	}
	company.UpdatedAt = now

	const query = `INSERT INTO companies (id, name, city, is_archived, created_at, updated_at) VALUES (:id, :name, :city, :is_archived, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("create company: %w", err)
	}
	return nil
}

// Update modifies a company record.
func (r *CompanyRepository) Update(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now().UTC()
	const query = `UPDATE companies SET name = :name, city = :city, is_archived = :is_archived, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return nil
}

// Archive flags a company as archived without deleting history.
func (r *CompanyRepository) Archive(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE companies SET is_archived = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive company: %w", err)
	}
	return nil
}
