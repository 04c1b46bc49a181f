package models

import "time"

// ContractDateLayout is the display format contract dates are stored
// in, e.g. "01-Jan-2024".
const ContractDateLayout = "02-Jan-2006"

// ServiceFlags enumerates the fire-safety systems a batch covers. The
// flag set is closed; generated visits copy it verbatim.
type ServiceFlags struct {
	FireExtinguisher bool `json:"fire_extinguisher"`
	Alarm            bool `json:"alarm"`
	Suppression      bool `json:"suppression"`
	Gas              bool `json:"gas"`
	Foam             bool `json:"foam"`
}

// ServiceBatch is a named subset of a contract's branches sharing one
// set of service flags and visit quotas.
type ServiceBatch struct {
	Name                   string       `json:"name"`
	BranchIDs              []string     `json:"branch_ids"`
	Services               ServiceFlags `json:"services"`
	RegularVisitsPerYear   int          `json:"regular_visits_per_year"`
	EmergencyVisitsPerYear int          `json:"emergency_visits_per_year"`
}

// Contract is a maintenance agreement covering one or more branches via
// service batches. Start and end dates are kept in their display format
// and parsed at planning time.
type Contract struct {
	ID             string         `db:"id" json:"id"`
	CompanyID      string         `db:"company_id" json:"company_id"`
	ContractNumber string         `db:"contract_number" json:"contract_number"`
	StartDate      string         `db:"contract_start_date" json:"contract_start_date"`
	EndDate        string         `db:"contract_end_date" json:"contract_end_date"`
	IsArchived     bool           `db:"is_archived" json:"is_archived"`
	ServiceBatches []ServiceBatch `db:"-" json:"service_batches"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// Interval parses the contract's display dates into calendar dates.
func (c *Contract) Interval() (start, end time.Time, err error) {
	start, err = time.Parse(ContractDateLayout, c.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = time.Parse(ContractDateLayout, c.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// ContractFilter captures filtering criteria for listing contracts.
type ContractFilter struct {
	CompanyID       string
	IncludeArchived bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
