package dto

// PlanVisitsRequest instructs the planner to build a visit schedule for
// one company. Optional fields override the configured defaults for a
// single run.
type PlanVisitsRequest struct {
	CompanyID          string `json:"companyId" validate:"required"`
	Persist            bool   `json:"persist"`
	MaxVisitsPerDay    *int   `json:"maxVisitsPerDay" validate:"omitempty,min=1"`
	PreferredWeekStart string `json:"preferredWeekStart" validate:"omitempty,oneof=saturday sunday"`
	ConflictResolution string `json:"conflictResolution" validate:"omitempty,oneof=skip reschedule error"`
}

// EnqueuePlanResponse acknowledges an asynchronous planning run.
type EnqueuePlanResponse struct {
	JobID     string `json:"jobId"`
	CompanyID string `json:"companyId"`
	Status    string `json:"status"`
}
