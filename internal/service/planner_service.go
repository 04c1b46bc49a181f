package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/firewatch-co/maintenance-api/internal/dto"
	"github.com/firewatch-co/maintenance-api/internal/models"
	"github.com/firewatch-co/maintenance-api/pkg/config"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
)

type plannerCompanyReader interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
}

type plannerContractReader interface {
	ListActiveByCompany(ctx context.Context, companyID string) ([]models.Contract, error)
}

type plannerBranchReader interface {
	ListByCompany(ctx context.Context, companyID string) ([]models.Branch, error)
}

type plannerVisitReader interface {
	ListByCompany(ctx context.Context, companyID string) ([]models.Visit, error)
}

type visitPersister interface {
	BulkCreate(ctx context.Context, visits []models.Visit) error
}

type planningResultCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type planningObserver interface {
	ObservePlanningRun(result *models.PlanningResult)
}

// PlannerService builds maintenance-visit schedules per company. A run
// reads a full snapshot (contracts, branches, existing visits), derives
// planning units, and emits a PlanningResult; persistence is opt-in.
type PlannerService struct {
	companies plannerCompanyReader
	contracts plannerContractReader
	branches  plannerBranchReader
	visits    plannerVisitReader
	store     visitPersister
	cache     planningResultCache
	metrics   planningObserver
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.PlannerConfig
}

// NewPlannerService wires planner dependencies. Cache and metrics are
// optional.
func NewPlannerService(
	companies plannerCompanyReader,
	contracts plannerContractReader,
	branches plannerBranchReader,
	visits plannerVisitReader,
	store visitPersister,
	cache planningResultCache,
	metrics planningObserver,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.PlannerConfig,
) *PlannerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxVisitsPerDay <= 0 {
		cfg.MaxVisitsPerDay = 5
	}
	if cfg.PreferredWeekStart == "" {
		cfg.PreferredWeekStart = config.WeekStartSaturday
	}
	if cfg.ConflictResolution == "" {
		cfg.ConflictResolution = config.ConflictReschedule
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 30 * time.Minute
	}
	return &PlannerService{
		companies: companies,
		contracts: contracts,
		branches:  branches,
		visits:    visits,
		store:     store,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Plan runs the planning pipeline for one company and optionally
// persists the generated visits. The result of a failed run (Success
// false) is returned, not an error; transport errors are errors.
func (s *PlannerService) Plan(ctx context.Context, req dto.PlanVisitsRequest) (*models.PlanningResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid planning payload")
	}

	company, err := s.companies.FindByID(ctx, req.CompanyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	if company.IsArchived {
		return nil, appErrors.Clone(appErrors.ErrArchived, "company is archived")
	}

	contracts, err := s.contracts.ListActiveByCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contracts")
	}
	branches, err := s.branches.ListByCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load branches")
	}
	existing, err := s.visits.ListByCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load visits")
	}

	result := BuildPlan(PlanningInput{
		CompanyID: req.CompanyID,
		Contracts: contracts,
		Branches:  branches,
		Visits:    existing,
	}, s.runConfig(req), s.logger)

	if s.metrics != nil {
		s.metrics.ObservePlanningRun(result)
	}
	s.logger.Info("planning run finished",
		zap.String("companyId", result.CompanyID),
		zap.String("runId", result.RunID),
		zap.Int("planned", result.Summary.Planned),
		zap.Int("conflicts", result.Summary.Conflicts),
		zap.Int("skipped", result.Summary.Skipped),
		zap.Bool("success", result.Success),
	)

	if req.Persist && result.Success && len(result.Visits) > 0 {
		if s.store == nil {
			return nil, appErrors.Clone(appErrors.ErrInternal, "visit store unavailable")
		}
		if err := s.store.BulkCreate(ctx, result.Visits); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist planned visits")
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, planningResultKey(req.CompanyID), result, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("failed to cache planning result", zap.String("companyId", req.CompanyID), zap.Error(err))
		}
	}

	return result, nil
}

// CachedResult returns the last planning result stored for the company.
func (s *PlannerService) CachedResult(ctx context.Context, companyID string) (*models.PlanningResult, error) {
	if companyID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "companyId is required")
	}
	if s.cache == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no planning result available")
	}
	var result models.PlanningResult
	if err := s.cache.Get(ctx, planningResultKey(companyID), &result); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no planning result available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read planning result")
	}
	return &result, nil
}

// runConfig overlays per-request overrides on the configured defaults.
func (s *PlannerService) runConfig(req dto.PlanVisitsRequest) config.PlannerConfig {
	cfg := s.cfg
	if req.MaxVisitsPerDay != nil && *req.MaxVisitsPerDay > 0 {
		cfg.MaxVisitsPerDay = *req.MaxVisitsPerDay
	}
	if req.PreferredWeekStart != "" {
		cfg.PreferredWeekStart = req.PreferredWeekStart
	}
	if req.ConflictResolution != "" {
		cfg.ConflictResolution = req.ConflictResolution
	}
	return cfg
}

func planningResultKey(companyID string) string {
	return "planner:result:" + companyID
}

// PlanningInput is the read-only snapshot one planning run consumes.
type PlanningInput struct {
	CompanyID string
	Contracts []models.Contract
	Branches  []models.Branch
	Visits    []models.Visit
}

// BuildPlan runs the four planning stages over an in-memory snapshot:
// unit collection, requirement calculation, date generation and
// conflict resolution. It performs no I/O and never panics outward; an
// internal panic yields a failed result with the panic in Errors.
func BuildPlan(input PlanningInput, cfg config.PlannerConfig, logger *zap.Logger) *models.PlanningResult {
	if logger == nil {
		logger = zap.NewNop()
	}
	started := time.Now()
	result := &models.PlanningResult{
		CompanyID: input.CompanyID,
		RunID:     uuid.NewString(),
		Visits:    []models.Visit{},
		Conflicts: []models.VisitConflict{},
		Errors:    []string{},
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("planning run panicked", zap.String("companyId", input.CompanyID), zap.Any("panic", r))
			result.Visits = []models.Visit{}
			result.Errors = append(result.Errors, fmt.Sprintf("planning aborted: %v", r))
			result.Success = false
			result.Summary.Elapsed = time.Since(started)
		}
	}()

	units := collectPlanningUnits(input, logger)
	drafts := computeRequirements(units)
	for i := range drafts {
		generateDates(&drafts[i], cfg.PreferredWeekStart)
	}
	usage := buildDayUsage(input.Visits)
	resolveConflicts(result, drafts, usage, cfg)

	result.Summary.UnitsPlanned = len(drafts)
	result.Summary.Planned = len(result.Visits)
	result.Summary.Conflicts = len(result.Conflicts)
	result.Summary.Elapsed = time.Since(started)
	result.Success = len(result.Errors) == 0
	return result
}

// collectPlanningUnits derives one unit per (branch, contract, batch)
// triple. Archived or foreign branches, archived or foreign contracts, batches
// without a regular quota and branches outside the batch are dropped;
// contracts whose dates fail to parse are skipped with a warning.
func collectPlanningUnits(input PlanningInput, logger *zap.Logger) []models.PlanningUnit {
	activeBranches := make(map[string]struct{}, len(input.Branches))
	for _, branch := range input.Branches {
		if !branch.IsArchived && branch.CompanyID == input.CompanyID {
			activeBranches[branch.ID] = struct{}{}
		}
	}

	type pairKey struct{ branchID, contractID string }
	completed := make(map[pairKey]int)
	for i := range input.Visits {
		v := &input.Visits[i]
		if v.Type == models.VisitTypeRegular && v.Status == models.VisitStatusCompleted && !v.IsArchived {
			completed[pairKey{v.BranchID, v.ContractID}]++
		}
	}

	var units []models.PlanningUnit
	for _, contract := range input.Contracts {
		if contract.IsArchived || contract.CompanyID != input.CompanyID {
			continue
		}
		start, end, err := contract.Interval()
		if err != nil {
			logger.Warn("skipping contract with unparseable dates",
				zap.String("contractId", contract.ID),
				zap.String("startDate", contract.StartDate),
				zap.String("endDate", contract.EndDate),
				zap.Error(err),
			)
			continue
		}
		for _, batch := range contract.ServiceBatches {
			if batch.RegularVisitsPerYear <= 0 {
				continue
			}
			for _, branchID := range batch.BranchIDs {
				if _, ok := activeBranches[branchID]; !ok {
					continue
				}
				units = append(units, models.PlanningUnit{
					BranchID:        branchID,
					ContractID:      contract.ID,
					CompanyID:       contract.CompanyID,
					Batch:           batch,
					ContractStart:   start,
					ContractEnd:     end,
					CompletedVisits: completed[pairKey{branchID, contract.ID}],
				})
			}
		}
	}
	return units
}

// computeRequirements turns units into schedule drafts. Remaining is
// the batch quota minus completed regular visits; fully served units
// produce no draft. Spacing is the floor of contract days over
// remaining, so an oversubscribed quota collapses spacing to zero.
func computeRequirements(units []models.PlanningUnit) []models.VisitScheduleDraft {
	drafts := make([]models.VisitScheduleDraft, 0, len(units))
	for _, unit := range units {
		remaining := unit.Batch.RegularVisitsPerYear - unit.CompletedVisits
		if remaining <= 0 {
			continue
		}
		unit.RemainingVisits = remaining

		days := contractDays(unit.ContractStart, unit.ContractEnd)
		weeks := (days + 6) / 7
		weekly := 0
		if weeks > 0 {
			weekly = (remaining + weeks - 1) / weeks
		}
		drafts = append(drafts, models.VisitScheduleDraft{
			Unit:               unit,
			SpacingDays:        days / remaining,
			WeeklyDistribution: weekly,
		})
	}
	return drafts
}

func contractDays(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// generateDates walks forward from the contract start in spacing-sized
// steps. With a Saturday week start the anchor first shifts to the
// next Saturday (zero to six days); generation stops at the first
// candidate past the contract end.
func generateDates(draft *models.VisitScheduleDraft, weekStart string) {
	anchor := draft.Unit.ContractStart
	if weekStart == config.WeekStartSaturday {
		shift := (int(time.Saturday) - int(anchor.Weekday()) + 7) % 7
		anchor = anchor.AddDate(0, 0, shift)
	}

	dates := make([]time.Time, 0, draft.Unit.RemainingVisits)
	for i := 0; i < draft.Unit.RemainingVisits; i++ {
		candidate := anchor.AddDate(0, 0, i*draft.SpacingDays)
		if candidate.After(draft.Unit.ContractEnd) {
			break
		}
		dates = append(dates, candidate)
	}
	draft.Dates = dates
}

// buildDayUsage counts capacity-occupying visits per calendar day.
func buildDayUsage(visits []models.Visit) map[string]int {
	usage := make(map[string]int, len(visits))
	for i := range visits {
		v := &visits[i]
		if v.CountsAgainstCapacity() {
			usage[v.DayKey()]++
		}
	}
	return usage
}

// resolveConflicts checks every candidate date against the daily
// ceiling and applies the configured policy on overflow. Days planned
// in this run only join the usage counts when CountPlannedInRun is
// set; the default matches the historical behavior of counting only
// pre-existing visits.
func resolveConflicts(result *models.PlanningResult, drafts []models.VisitScheduleDraft, usage map[string]int, cfg config.PlannerConfig) {
	for _, draft := range drafts {
		for _, date := range draft.Dates {
			key := date.Format(models.VisitDateLayout)
			count := usage[key]
			if count < cfg.MaxVisitsPerDay {
				result.Visits = append(result.Visits, draftVisit(draft.Unit, date))
				if cfg.CountPlannedInRun {
					usage[key]++
				}
				continue
			}

			alternatives := findAlternatives(date, usage, cfg.MaxVisitsPerDay)
			conflict := models.VisitConflict{
				BranchID:      draft.Unit.BranchID,
				ContractID:    draft.Unit.ContractID,
				Date:          key,
				ExistingCount: count,
				MaxPerDay:     cfg.MaxVisitsPerDay,
				Alternatives:  formatDays(alternatives),
				Resolution:    cfg.ConflictResolution,
			}

			switch cfg.ConflictResolution {
			case config.ConflictReschedule:
				if len(alternatives) > 0 {
					alt := alternatives[0]
					conflict.Rescheduled = &alt
					result.Visits = append(result.Visits, draftVisit(draft.Unit, alt))
					if cfg.CountPlannedInRun {
						usage[alt.Format(models.VisitDateLayout)]++
					}
				} else {
					result.Summary.Skipped++
				}
			case config.ConflictSkip:
				result.Summary.Skipped++
			default:
				result.Summary.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf(
					"daily capacity reached on %s for branch %s (%d/%d)",
					key, draft.Unit.BranchID, count, cfg.MaxVisitsPerDay,
				))
			}

			result.Conflicts = append(result.Conflicts, conflict)
		}
	}
}

// findAlternatives scans day offsets -7..-1 then 1..7 around the
// conflicted date and keeps up to three days with free capacity. The
// window may cross contract bounds; callers accept out-of-range
// reschedules as the lesser evil against dropping the visit.
func findAlternatives(date time.Time, usage map[string]int, maxPerDay int) []time.Time {
	const window = 7
	const maxAlternatives = 3

	alternatives := make([]time.Time, 0, maxAlternatives)
	for offset := -window; offset <= window; offset++ {
		if offset == 0 {
			continue
		}
		candidate := date.AddDate(0, 0, offset)
		if usage[candidate.Format(models.VisitDateLayout)] < maxPerDay {
			alternatives = append(alternatives, candidate)
			if len(alternatives) == maxAlternatives {
				break
			}
		}
	}
	return alternatives
}

func formatDays(dates []time.Time) []string {
	keys := make([]string, 0, len(dates))
	for _, date := range dates {
		keys = append(keys, date.Format(models.VisitDateLayout))
	}
	return keys
}

func draftVisit(unit models.PlanningUnit, date time.Time) models.Visit {
	return models.Visit{
		BranchID:      unit.BranchID,
		ContractID:    unit.ContractID,
		CompanyID:     unit.CompanyID,
		Type:          models.VisitTypeRegular,
		Status:        models.VisitStatusScheduled,
		ScheduledDate: date,
		Services:      unit.Batch.Services,
	}
}
