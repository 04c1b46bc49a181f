package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/firewatch-co/maintenance-api/internal/dto"
	"github.com/firewatch-co/maintenance-api/internal/models"
	"github.com/firewatch-co/maintenance-api/pkg/config"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
)

func TestBuildPlanYearlyContract(t *testing.T) {
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(12, "br-1")),
		},
		Branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
	}

	result := BuildPlan(input, plannerTestConfig(), zap.NewNop())

	require.True(t, result.Success)
	require.Len(t, result.Visits, 12)
	assert.Equal(t, 1, result.Summary.UnitsPlanned)
	assert.Equal(t, 12, result.Summary.Planned)
	assert.Empty(t, result.Conflicts)

	// 01-Jan-2024 is a Monday; the anchor shifts five days to Saturday.
	first := result.Visits[0].ScheduledDate
	assert.Equal(t, "2024-01-06", first.Format(models.VisitDateLayout))
	assert.Equal(t, time.Saturday, first.Weekday())

	// 365 contract days over 12 visits gives 30-day spacing.
	for i := 1; i < len(result.Visits); i++ {
		gap := result.Visits[i].ScheduledDate.Sub(result.Visits[i-1].ScheduledDate)
		assert.Equal(t, 30*24*time.Hour, gap)
	}

	end, _ := time.Parse(models.VisitDateLayout, "2024-12-31")
	for _, visit := range result.Visits {
		assert.False(t, visit.ScheduledDate.After(end))
		assert.Equal(t, models.VisitTypeRegular, visit.Type)
		assert.Equal(t, models.VisitStatusScheduled, visit.Status)
	}
}

func TestBuildPlanSubtractsCompletedVisits(t *testing.T) {
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(12, "br-1")),
		},
		Branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
		Visits:   completedRegularVisits("br-1", "ct-1", 4),
	}

	result := BuildPlan(input, plannerTestConfig(), zap.NewNop())

	require.True(t, result.Success)
	// 8 remaining of 12; spacing widens to floor(365/8) = 45 days.
	require.Len(t, result.Visits, 8)
	gap := result.Visits[1].ScheduledDate.Sub(result.Visits[0].ScheduledDate)
	assert.Equal(t, 45*24*time.Hour, gap)
}

func TestBuildPlanFullyServedUnitProducesNothing(t *testing.T) {
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(2, "br-1")),
		},
		Branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
		Visits:   completedRegularVisits("br-1", "ct-1", 2),
	}

	result := BuildPlan(input, plannerTestConfig(), zap.NewNop())

	require.True(t, result.Success)
	assert.Empty(t, result.Visits)
	assert.Equal(t, 0, result.Summary.UnitsPlanned)
}

func TestBuildPlanReschedulesOnCapacityConflict(t *testing.T) {
	cfg := plannerTestConfig()
	cfg.MaxVisitsPerDay = 1

	busy, _ := time.Parse(models.VisitDateLayout, "2024-01-06")
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(1, "br-1")),
		},
		Branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
		Visits: []models.Visit{
			{ID: "v-1", BranchID: "br-other", ContractID: "ct-other", CompanyID: "co-1",
				Type: models.VisitTypeRegular, Status: models.VisitStatusScheduled, ScheduledDate: busy},
		},
	}

	result := BuildPlan(input, cfg, zap.NewNop())

	require.True(t, result.Success)
	require.Len(t, result.Conflicts, 1)
	conflict := result.Conflicts[0]
	assert.Equal(t, "2024-01-06", conflict.Date)
	assert.Equal(t, 1, conflict.ExistingCount)
	assert.Equal(t, config.ConflictReschedule, conflict.Resolution)
	require.NotNil(t, conflict.Rescheduled)

	// Offsets scan -7 first, so the earliest free day in the window wins
	// even when it falls before the contract start.
	require.Len(t, result.Visits, 1)
	assert.Equal(t, "2023-12-30", result.Visits[0].ScheduledDate.Format(models.VisitDateLayout))
	assert.Equal(t, "2023-12-30", conflict.Alternatives[0])
	assert.LessOrEqual(t, len(conflict.Alternatives), 3)
	assert.Equal(t, 0, result.Summary.Skipped)
}

func TestBuildPlanSkipPolicyDropsDate(t *testing.T) {
	cfg := plannerTestConfig()
	cfg.MaxVisitsPerDay = 1
	cfg.ConflictResolution = config.ConflictSkip

	busy, _ := time.Parse(models.VisitDateLayout, "2024-01-06")
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(1, "br-1")),
		},
		Branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
		Visits: []models.Visit{
			{ID: "v-1", BranchID: "br-other", ContractID: "ct-other", CompanyID: "co-1",
				Type: models.VisitTypeRegular, Status: models.VisitStatusScheduled, ScheduledDate: busy},
		},
	}

	result := BuildPlan(input, cfg, zap.NewNop())

	require.True(t, result.Success)
	assert.Empty(t, result.Visits)
	assert.Equal(t, 1, result.Summary.Skipped)
	require.Len(t, result.Conflicts, 1)
	assert.Nil(t, result.Conflicts[0].Rescheduled)
}

func TestBuildPlanErrorPolicyFailsRun(t *testing.T) {
	cfg := plannerTestConfig()
	cfg.MaxVisitsPerDay = 1
	cfg.ConflictResolution = config.ConflictError

	busy, _ := time.Parse(models.VisitDateLayout, "2024-01-06")
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(1, "br-1")),
		},
		Branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
		Visits: []models.Visit{
			{ID: "v-1", BranchID: "br-other", ContractID: "ct-other", CompanyID: "co-1",
				Type: models.VisitTypeRegular, Status: models.VisitStatusScheduled, ScheduledDate: busy},
		},
	}

	result := BuildPlan(input, cfg, zap.NewNop())

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "2024-01-06")
	assert.Empty(t, result.Visits)
	assert.Equal(t, 1, result.Summary.Skipped)
}

func TestBuildPlanCancelledVisitsFreeCapacity(t *testing.T) {
	cfg := plannerTestConfig()
	cfg.MaxVisitsPerDay = 1

	busy, _ := time.Parse(models.VisitDateLayout, "2024-01-06")
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(1, "br-1")),
		},
		Branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
		Visits: []models.Visit{
			{ID: "v-1", BranchID: "br-other", ContractID: "ct-other", CompanyID: "co-1",
				Type: models.VisitTypeRegular, Status: models.VisitStatusCancelled, ScheduledDate: busy},
			{ID: "v-2", BranchID: "br-other", ContractID: "ct-other", CompanyID: "co-1",
				Type: models.VisitTypeRegular, Status: models.VisitStatusScheduled, ScheduledDate: busy, IsArchived: true},
		},
	}

	result := BuildPlan(input, cfg, zap.NewNop())

	require.True(t, result.Success)
	require.Len(t, result.Visits, 1)
	assert.Equal(t, "2024-01-06", result.Visits[0].ScheduledDate.Format(models.VisitDateLayout))
	assert.Empty(t, result.Conflicts)
}

func TestBuildPlanSameRunCollisionsIgnoredByDefault(t *testing.T) {
	cfg := plannerTestConfig()
	cfg.MaxVisitsPerDay = 1

	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(1, "br-1", "br-2")),
		},
		Branches: []models.Branch{
			{ID: "br-1", CompanyID: "co-1"},
			{ID: "br-2", CompanyID: "co-1"},
		},
	}

	result := BuildPlan(input, cfg, zap.NewNop())

	require.True(t, result.Success)
	require.Len(t, result.Visits, 2)
	assert.Equal(t, result.Visits[0].DayKey(), result.Visits[1].DayKey())
	assert.Empty(t, result.Conflicts)
}

func TestBuildPlanCountPlannedInRunDetectsCollision(t *testing.T) {
	cfg := plannerTestConfig()
	cfg.MaxVisitsPerDay = 1
	cfg.CountPlannedInRun = true

	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(1, "br-1", "br-2")),
		},
		Branches: []models.Branch{
			{ID: "br-1", CompanyID: "co-1"},
			{ID: "br-2", CompanyID: "co-1"},
		},
	}

	result := BuildPlan(input, cfg, zap.NewNop())

	require.True(t, result.Success)
	require.Len(t, result.Visits, 2)
	require.Len(t, result.Conflicts, 1)
	assert.NotEqual(t, result.Visits[0].DayKey(), result.Visits[1].DayKey())
}

func TestBuildPlanSkipsUnparseableContractDates(t *testing.T) {
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-bad", "2024-01-01", "31-Dec-2024", plannerBatch(12, "br-1")),
			plannerContract("ct-ok", "01-Jan-2024", "31-Dec-2024", plannerBatch(2, "br-1")),
		},
		Branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
	}

	result := BuildPlan(input, plannerTestConfig(), zap.NewNop())

	require.True(t, result.Success)
	assert.Equal(t, 1, result.Summary.UnitsPlanned)
	require.Len(t, result.Visits, 2)
	for _, visit := range result.Visits {
		assert.Equal(t, "ct-ok", visit.ContractID)
	}
}

func TestBuildPlanExcludesArchivedAndForeignBranches(t *testing.T) {
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(2, "br-1", "br-archived", "br-other", "br-unknown")),
		},
		Branches: []models.Branch{
			{ID: "br-1", CompanyID: "co-1"},
			{ID: "br-archived", CompanyID: "co-1", IsArchived: true},
			{ID: "br-other", CompanyID: "co-2"},
		},
	}

	result := BuildPlan(input, plannerTestConfig(), zap.NewNop())

	require.True(t, result.Success)
	assert.Equal(t, 1, result.Summary.UnitsPlanned)
	for _, visit := range result.Visits {
		assert.Equal(t, "br-1", visit.BranchID)
	}
}

func TestBuildPlanShortContractTruncatesQuota(t *testing.T) {
	// 14 contract days with a quota of 4 gives 3-day spacing from the
	// Saturday anchor; generation must stop at the contract end.
	input := PlanningInput{
		CompanyID: "co-1",
		Contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "15-Jan-2024", plannerBatch(4, "br-1")),
		},
		Branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
	}

	result := BuildPlan(input, plannerTestConfig(), zap.NewNop())

	require.True(t, result.Success)
	end, _ := time.Parse(models.VisitDateLayout, "2024-01-15")
	assert.LessOrEqual(t, len(result.Visits), 4)
	assert.NotEmpty(t, result.Visits)
	for _, visit := range result.Visits {
		assert.False(t, visit.ScheduledDate.After(end))
	}
}

func TestPlannerServicePlanValidatesRequest(t *testing.T) {
	svc := newPlannerFixture(t, plannerFixtureConfig{})

	_, err := svc.Plan(context.Background(), dto.PlanVisitsRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPlannerServicePlanRejectsArchivedCompany(t *testing.T) {
	svc := newPlannerFixture(t, plannerFixtureConfig{
		company: &models.Company{ID: "co-1", IsArchived: true},
	})

	_, err := svc.Plan(context.Background(), dto.PlanVisitsRequest{CompanyID: "co-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrArchived.Code, appErrors.FromError(err).Code)
}

func TestPlannerServicePlanCompanyNotFound(t *testing.T) {
	svc := newPlannerFixture(t, plannerFixtureConfig{companyErr: sql.ErrNoRows})

	_, err := svc.Plan(context.Background(), dto.PlanVisitsRequest{CompanyID: "co-missing"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlannerServicePlanPersistsVisits(t *testing.T) {
	store := &visitStoreStub{}
	svc := newPlannerFixture(t, plannerFixtureConfig{
		contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(2, "br-1")),
		},
		branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
		store:    store,
	})

	result, err := svc.Plan(context.Background(), dto.PlanVisitsRequest{CompanyID: "co-1", Persist: true})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, store.created, 2)
}

func TestPlannerServicePlanCachesResult(t *testing.T) {
	cache := newPlannerCacheStub()
	svc := newPlannerFixture(t, plannerFixtureConfig{
		contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(2, "br-1")),
		},
		branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
		cache:    cache,
	})

	planned, err := svc.Plan(context.Background(), dto.PlanVisitsRequest{CompanyID: "co-1"})
	require.NoError(t, err)

	cached, err := svc.CachedResult(context.Background(), "co-1")
	require.NoError(t, err)
	assert.Equal(t, planned.RunID, cached.RunID)
	assert.Equal(t, planned.Summary.Planned, cached.Summary.Planned)
}

func TestPlannerServiceCachedResultMiss(t *testing.T) {
	svc := newPlannerFixture(t, plannerFixtureConfig{cache: newPlannerCacheStub()})

	_, err := svc.CachedResult(context.Background(), "co-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPlannerServicePlanAppliesOverrides(t *testing.T) {
	busy, _ := time.Parse(models.VisitDateLayout, "2024-01-06")
	maxPerDay := 1
	svc := newPlannerFixture(t, plannerFixtureConfig{
		contracts: []models.Contract{
			plannerContract("ct-1", "01-Jan-2024", "31-Dec-2024", plannerBatch(1, "br-1")),
		},
		branches: []models.Branch{{ID: "br-1", CompanyID: "co-1"}},
		visits: []models.Visit{
			{ID: "v-1", BranchID: "br-other", ContractID: "ct-other", CompanyID: "co-1",
				Type: models.VisitTypeRegular, Status: models.VisitStatusScheduled, ScheduledDate: busy},
		},
	})

	result, err := svc.Plan(context.Background(), dto.PlanVisitsRequest{
		CompanyID:          "co-1",
		MaxVisitsPerDay:    &maxPerDay,
		ConflictResolution: config.ConflictSkip,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Visits)
	assert.Equal(t, 1, result.Summary.Skipped)
}

// --- Fixtures ---

type plannerFixtureConfig struct {
	company    *models.Company
	companyErr error
	contracts  []models.Contract
	branches   []models.Branch
	visits     []models.Visit
	store      *visitStoreStub
	cache      planningResultCache
	cfg        *config.PlannerConfig
}

func newPlannerFixture(t *testing.T, fx plannerFixtureConfig) *PlannerService {
	t.Helper()
	if fx.company == nil {
		fx.company = &models.Company{ID: "co-1", Name: "Acme Fire Co"}
	}
	if fx.store == nil {
		fx.store = &visitStoreStub{}
	}
	cfg := plannerTestConfig()
	if fx.cfg != nil {
		cfg = *fx.cfg
	}
	return NewPlannerService(
		plannerCompanyStub{company: fx.company, err: fx.companyErr},
		plannerContractsStub{items: fx.contracts},
		plannerBranchesStub{items: fx.branches},
		plannerVisitsStub{items: fx.visits},
		fx.store,
		fx.cache,
		nil,
		nil,
		zap.NewNop(),
		cfg,
	)
}

func plannerTestConfig() config.PlannerConfig {
	return config.PlannerConfig{
		MaxVisitsPerDay:    5,
		PreferredWeekStart: config.WeekStartSaturday,
		ConflictResolution: config.ConflictReschedule,
		CacheTTL:           time.Minute,
	}
}

func plannerContract(id, start, end string, batches ...models.ServiceBatch) models.Contract {
	return models.Contract{
		ID:             id,
		CompanyID:      "co-1",
		ContractNumber: "CN-" + id,
		StartDate:      start,
		EndDate:        end,
		ServiceBatches: batches,
	}
}

func plannerBatch(quota int, branchIDs ...string) models.ServiceBatch {
	return models.ServiceBatch{
		Name:                 "main",
		BranchIDs:            branchIDs,
		Services:             models.ServiceFlags{FireExtinguisher: true, Alarm: true},
		RegularVisitsPerYear: quota,
	}
}

func completedRegularVisits(branchID, contractID string, n int) []models.Visit {
	base, _ := time.Parse(models.VisitDateLayout, "2024-01-06")
	visits := make([]models.Visit, 0, n)
	for i := 0; i < n; i++ {
		visits = append(visits, models.Visit{
			ID:            "done-" + string(rune('a'+i)),
			BranchID:      branchID,
			ContractID:    contractID,
			CompanyID:     "co-1",
			Type:          models.VisitTypeRegular,
			Status:        models.VisitStatusCompleted,
			ScheduledDate: base.AddDate(0, 0, i*14),
		})
	}
	return visits
}

type plannerCompanyStub struct {
	company *models.Company
	err     error
}

func (s plannerCompanyStub) FindByID(_ context.Context, _ string) (*models.Company, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.company, nil
}

type plannerContractsStub struct{ items []models.Contract }

func (s plannerContractsStub) ListActiveByCompany(_ context.Context, _ string) ([]models.Contract, error) {
	return s.items, nil
}

type plannerBranchesStub struct{ items []models.Branch }

func (s plannerBranchesStub) ListByCompany(_ context.Context, _ string) ([]models.Branch, error) {
	return s.items, nil
}

type plannerVisitsStub struct{ items []models.Visit }

func (s plannerVisitsStub) ListByCompany(_ context.Context, _ string) ([]models.Visit, error) {
	return s.items, nil
}

type visitStoreStub struct {
	created []models.Visit
	err     error
}

func (s *visitStoreStub) BulkCreate(_ context.Context, visits []models.Visit) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, visits...)
	return nil
}

type plannerCacheStub struct{ entries map[string][]byte }

func newPlannerCacheStub() *plannerCacheStub {
	return &plannerCacheStub{entries: map[string][]byte{}}
}

func (s *plannerCacheStub) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *plannerCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}
