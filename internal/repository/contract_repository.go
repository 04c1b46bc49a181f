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

// ContractRepository provides persistence for contracts. Service
// batches live in a JSONB column on the contract row.
type ContractRepository struct {
	db *sqlx.DB
}

// NewContractRepository creates a new contract repository.
func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

const contractColumns = "id, company_id, contract_number, contract_start_date, contract_end_date, is_archived, service_batches, created_at, updated_at"

type contractRow struct {
	ID             string         `db:"id"`
	CompanyID      string         `db:"company_id"`
	ContractNumber string         `db:"contract_number"`
	StartDate      string         `db:"contract_start_date"`
	EndDate        string         `db:"contract_end_date"`
	IsArchived     bool           `db:"is_archived"`
	ServiceBatches types.JSONText `db:"service_batches"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (row *contractRow) toModel() (models.Contract, error) {
	contract := models.Contract{
		ID:             row.ID,
		CompanyID:      row.CompanyID,
		ContractNumber: row.ContractNumber,
		StartDate:      row.StartDate,
		EndDate:        row.EndDate,
		IsArchived:     row.IsArchived,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if len(row.ServiceBatches) > 0 {
		if err := json.Unmarshal(row.ServiceBatches, &contract.ServiceBatches); err != nil {
			return models.Contract{}, fmt.Errorf("decode service batches for contract %s: %w", row.ID, err)
		}
	}
	return contract, nil
}

func rowFromModel(contract *models.Contract) (*contractRow, error) {
	payload, err := json.Marshal(contract.ServiceBatches)
	if err != nil {
		return nil, fmt.Errorf("encode service batches: %w", err)
	}
	return &contractRow{
		ID:             contract.ID,
		CompanyID:      contract.CompanyID,
		ContractNumber: contract.ContractNumber,
		StartDate:      contract.StartDate,
		EndDate:        contract.EndDate,
		IsArchived:     contract.IsArchived,
		ServiceBatches: types.JSONText(payload),
		CreatedAt:      contract.CreatedAt,
		UpdatedAt:      contract.UpdatedAt,
	}, nil
}

// List returns contracts with optional filtering and pagination.
func (r *ContractRepository) List(ctx context.Context, filter models.ContractFilter) ([]models.Contract, int, error) {
	base := "FROM contracts WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CompanyID != "" {
		conditions = append(conditions, fmt.Sprintf("company_id = $%d", len(args)+1))
		args = append(args, filter.CompanyID)
	}
	if !filter.IncludeArchived {
		conditions = append(conditions, "is_archived = FALSE")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"contract_number": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", contractColumns, base, sortBy, order, size, offset)
	var rows []contractRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list contracts: %w", err)
	}

	contracts := make([]models.Contract, 0, len(rows))
	for i := range rows {
		contract, err := rows[i].toModel()
		if err != nil {
			return nil, 0, err
		}
		contracts = append(contracts, contract)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count contracts: %w", err)
	}

	return contracts, total, nil
}

// ListActiveByCompany returns non-archived contracts for a company.
func (r *ContractRepository) ListActiveByCompany(ctx context.Context, companyID string) ([]models.Contract, error) {
	query := fmt.Sprintf("SELECT %s FROM contracts WHERE company_id = $1 AND is_archived = FALSE ORDER BY created_at ASC", contractColumns)
	var rows []contractRow
	if err := r.db.SelectContext(ctx, &rows, query, companyID); err != nil {
		return nil, fmt.Errorf("list active contracts: %w", err)
	}
	contracts := make([]models.Contract, 0, len(rows))
	for i := range rows {
		contract, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, contract)
	}
	return contracts, nil
}

// FindByID loads a contract by id.
func (r *ContractRepository) FindByID(ctx context.Context, id string) (*models.Contract, error) {
	query := fmt.Sprintf("SELECT %s FROM contracts WHERE id = $1", contractColumns)
	var row contractRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	contract, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// Create stores a new contract record.
func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	if contract.ID == "" {
		contract.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if contract.CreatedAt.IsZero() {
		contract.CreatedAt = now
	}
	contract.UpdatedAt = now

	row, err := rowFromModel(contract)
	if err != nil {
		return err
	}
	const query = `INSERT INTO contracts (id, company_id, contract_number, contract_start_date, contract_end_date, is_archived, service_batches, created_at, updated_at) VALUES (:id, :company_id, :contract_number, :contract_start_date, :contract_end_date, :is_archived, :service_batches, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("create contract: %w", err)
	}
	return nil
}

// Update modifies a contract record.
func (r *ContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	contract.UpdatedAt = time.Now().UTC()
	row, err := rowFromModel(contract)
	if err != nil {
		return err
	}
	const query = `UPDATE contracts SET contract_number = :contract_number, contract_start_date = :contract_start_date, contract_end_date = :contract_end_date, is_archived = :is_archived, service_batches = :service_batches, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("update contract: %w", err)
	}
	return nil
}

// Archive flags a contract as archived, removing it from planning.
func (r *ContractRepository) Archive(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE contracts SET is_archived = TRUE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("archive contract: %w", err)
	}
	return nil
}
