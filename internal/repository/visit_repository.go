package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/firewatch-co/maintenance-api/internal/models"
)

// VisitRepository provides persistence for maintenance visits.
type VisitRepository struct {
	db *sqlx.DB
}

// NewVisitRepository creates a new visit repository.
func NewVisitRepository(db *sqlx.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

const visitColumns = "id, code, branch_id, contract_id, company_id, type, status, scheduled_date, services, notes, is_archived, created_at, updated_at"

type visitRow struct {
	ID            string         `db:"id"`
	Code          string         `db:"code"`
	BranchID      string         `db:"branch_id"`
	ContractID    string         `db:"contract_id"`
	CompanyID     string         `db:"company_id"`
	Type          string         `db:"type"`
	Status        string         `db:"status"`
	ScheduledDate time.Time      `db:"scheduled_date"`
	Services      types.JSONText `db:"services"`
	Notes         string         `db:"notes"`
	IsArchived    bool           `db:"is_archived"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (row *visitRow) toModel() (models.Visit, error) {
	visit := models.Visit{
		ID:            row.ID,
		Code:          row.Code,
		BranchID:      row.BranchID,
		ContractID:    row.ContractID,
		CompanyID:     row.CompanyID,
		Type:          models.VisitType(row.Type),
		Status:        models.VisitStatus(row.Status),
		ScheduledDate: row.ScheduledDate,
		Notes:         row.Notes,
		IsArchived:    row.IsArchived,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if len(row.Services) > 0 {
		if err := json.Unmarshal(row.Services, &visit.Services); err != nil {
			return models.Visit{}, fmt.Errorf("decode services for visit %s: %w", row.ID, err)
		}
	}
	return visit, nil
}

func visitRowFromModel(visit *models.Visit) (*visitRow, error) {
	payload, err := json.Marshal(visit.Services)
	if err != nil {
		return nil, fmt.Errorf("encode visit services: %w", err)
	}
	return &visitRow{
		ID:            visit.ID,
		Code:          visit.Code,
		BranchID:      visit.BranchID,
		ContractID:    visit.ContractID,
		CompanyID:     visit.CompanyID,
		Type:          string(visit.Type),
		Status:        string(visit.Status),
		ScheduledDate: visit.ScheduledDate,
		Services:      types.JSONText(payload),
		Notes:         visit.Notes,
		IsArchived:    visit.IsArchived,
		CreatedAt:     visit.CreatedAt,
		UpdatedAt:     visit.UpdatedAt,
	}, nil
}

// List returns visits with optional filtering and pagination.
func (r *VisitRepository) List(ctx context.Context, filter models.VisitFilter) ([]models.Visit, int, error) {
	base := "FROM visits WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CompanyID != "" {
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)+1))
		args = append(args, filter.CompanyID)
	}
	if filter.BranchID != "" {
		conditions = append(conditions, fmt.Sprintf("branch_id = $%d", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.ContractID != "" {
		conditions = append(conditions, fmt.Sprintf("contract_id = $%d", len(args)+1))
		args = append(args, filter.ContractID)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "is_archived = FALSE")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"scheduled_date": true, "status": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "scheduled_date"
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
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", visitColumns, base, sortBy, order, size, offset)
	var rows []visitRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list visits: %w", err)
	}

	visits := make([]models.Visit, 0, len(rows))
	for i := range rows {
		visit, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		visits = append(visits, visit)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count visits: %w", err)
	}

	return visits, total, nil
}

// ListByCompany returns the full visit history for a company. The
// planner consumes this as its existing-visit snapshot.
func (r *VisitRepository) ListByCompany(ctx context.Context, companyID string) ([]models.Visit, error) {
	query := fmt.Sprintf("SELECT %s FROM visits WHERE company_id = $1 ORDER BY scheduled_date ASC", visitColumns)
	var rows []visitRow
	if err := r.db.SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, fmt.Errorf("list visits by company: %w", err)
	}
	visits := make([]models.Visit, 0, len(rows))
	for i := range rows {
		visit, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		visits = append(visits, visit)
	}
	return visits, nil
}

// FindByID loads a visit by id.
func (r *VisitRepository) FindByID(ctx context.Context, id string) (*models.Visit, error) {
	query := fmt.Sprintf("SELECT %s FROM visits WHERE id = $1", visitColumns)
	var row visitRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	visit, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &visit, nil
}

// Create stores a single visit record.
func (r *VisitRepository) Create(ctx context.Context, visit *models.Visit) error {
	prepareVisit(visit)
	row, err := visitRowFromModel(visit)
	if err != nil {
		return err
	}
	if _, err := r.db.NamedExecContext(ctx, insertVisitQuery, row); err != nil {
		return fmt.Errorf("create visit: %w", err)
	}
	return nil
}

// BulkCreate inserts many visits within a transaction. Planner output
// is persisted through this path.
func (r *VisitRepository) BulkCreate(ctx context.Context, visits []models.Visit) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bulk create visits: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := range visits {
		prepareVisit(&visits[i])
		var row *visitRow
		row, err = visitRowFromModel(&visits[i])
		if err != nil {
			return err
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, insertVisitQuery, row); err != nil {
			return fmt.Errorf("bulk insert visit: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bulk create visits: %w", err)
	}
	return nil
}

// UpdateStatus transitions a visit's lifecycle status.
func (r *VisitRepository) UpdateStatus(ctx context.Context, id string, status models.VisitStatus) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE visits SET status = $2, updated_at = $3 WHERE id = $1`, id, string(status), time.Now().UTC()); err != nil {
		return fmt.Errorf("update visit status: %w", err)
	}
	return nil
}

// Delete removes a visit by id.
func (r *VisitRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM visits WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete visit: %w", err)
	}
	return nil
}

const insertVisitQuery = `INSERT INTO visits (id, code, branch_id, contract_id, company_id, type, status, scheduled_date, services, notes, is_archived, created_at, updated_at) VALUES (:id, :code, :branch_id, :contract_id, :company_id, :type, :status, :scheduled_date, :services, :notes, :is_archived, :created_at, :updated_at)`

// prepareVisit assigns the identifier, human-readable code and
// timestamps the persistence layer owns.
func prepareVisit(visit *models.Visit) {
	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}
	if visit.Code == "" {
		visit.Code = "VST-" + strings.ToUpper(visit.ID[:8])
	}
	now := time.Now().UTC()
	if visit.CreatedAt.IsZero() {
		visit.CreatedAt = now
	}
	visit.UpdatedAt = now
}
