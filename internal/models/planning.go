package models

import "time"

// PlanningUnit is the derived (branch, contract, service-batch) triple
// the planner schedules against. Units are recomputed from scratch on
// every run and never persisted.
type PlanningUnit struct {
	BranchID        string
	ContractID      string
	CompanyID       string
	Batch           ServiceBatch
	ContractStart   time.Time
	ContractEnd     time.Time
	RemainingVisits int
	CompletedVisits int
}

// VisitScheduleDraft carries the requirement calculation for one unit
// before concrete dates exist.
type VisitScheduleDraft struct {
	Unit               PlanningUnit
	SpacingDays        int
	WeeklyDistribution int
	Dates              []time.Time
}

// VisitConflict records a candidate date whose existing same-day visit
// count met or exceeded the daily ceiling.
type VisitConflict struct {
	BranchID      string     `json:"branch_id"`
	ContractID    string     `json:"contract_id"`
	Date          string     `json:"date"`
	ExistingCount int        `json:"existing_count"`
	MaxPerDay     int        `json:"max_per_day"`
	Alternatives  []string   `json:"alternatives"`
	Resolution    string     `json:"resolution"`
	Rescheduled   *time.Time `json:"rescheduled,omitempty"`
}

// PlanningSummary aggregates run counters.
type PlanningSummary struct {
	UnitsPlanned int           `json:"units_planned"`
	Planned      int           `json:"planned"`
	Conflicts    int           `json:"conflicts"`
	Skipped      int           `json:"skipped"`
	Elapsed      time.Duration `json:"elapsed"`
}

// PlanningResult is the output of one planning run: visits ready to
// persist plus the conflicts and errors encountered. Success is true
// iff Errors is empty; conflicts alone never fail a run.
type PlanningResult struct {
	CompanyID string          `json:"company_id"`
	RunID     string          `json:"run_id"`
	Visits    []Visit         `json:"visits"`
	Conflicts []VisitConflict `json:"conflicts"`
	Summary   PlanningSummary `json:"summary"`
	Errors    []string        `json:"errors"`
	Success   bool            `json:"success"`
}
