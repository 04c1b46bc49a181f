package models

import "time"

// VisitDateLayout keys visits to a calendar day; the planner never
// reasons below day granularity.
const VisitDateLayout = "2006-01-02"

// VisitType classifies a maintenance event.
type VisitType string

const (
	VisitTypeRegular   VisitType = "regular"
	VisitTypeEmergency VisitType = "emergency"
	VisitTypeFollowup  VisitType = "followup"
)

// VisitStatus tracks a visit through its lifecycle.
type VisitStatus string

const (
	VisitStatusScheduled VisitStatus = "scheduled"
	VisitStatusCompleted VisitStatus = "completed"
	VisitStatusCancelled VisitStatus = "cancelled"
	VisitStatusMissed    VisitStatus = "missed"
)

// Visit is a scheduled or completed maintenance event tied to exactly
// one branch and one contract.
type Visit struct {
	ID            string       `db:"id" json:"id"`
	Code          string       `db:"code" json:"code"`
	BranchID      string       `db:"branch_id" json:"branch_id"`
	ContractID    string       `db:"contract_id" json:"contract_id"`
	CompanyID     string       `db:"company_id" json:"company_id"`
	Type          VisitType    `db:"type" json:"type"`
	Status        VisitStatus  `db:"status" json:"status"`
	ScheduledDate time.Time    `db:"scheduled_date" json:"scheduled_date"`
	Services      ServiceFlags `db:"-" json:"services"`
	Notes         string       `db:"notes" json:"notes"`
	IsArchived    bool         `db:"is_archived" json:"is_archived"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// DayKey returns the calendar-day bucket the visit occupies.
func (v *Visit) DayKey() string {
	return v.ScheduledDate.Format(VisitDateLayout)
}

// CountsAgainstCapacity reports whether the visit occupies field-team
// capacity on its day. Cancelled and archived visits do not.
func (v *Visit) CountsAgainstCapacity() bool {
	return v.Status != VisitStatusCancelled && !v.IsArchived
}

// VisitFilter captures filtering criteria for listing visits.
type VisitFilter struct {
	CompanyID       string
	BranchID        string
	ContractID      string
	Type            string
	Status          string
	DateFrom        *time.Time
	DateTo          *time.Time
	IncludeArchived bool
	Page            int
	PageSize        int
	SortBy          string
	SortOrder       string
}
