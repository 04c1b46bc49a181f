package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	internalmiddleware "github.com/firewatch-co/maintenance-api/internal/middleware"
	"github.com/firewatch-co/maintenance-api/internal/models"
	"github.com/firewatch-co/maintenance-api/internal/service"
	"github.com/firewatch-co/maintenance-api/pkg/config"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
	"github.com/firewatch-co/maintenance-api/pkg/jobs"
)

func TestPlannerRoutes(t *testing.T) {
	queue := &queueStub{}
	router := buildPlannerRouter(t, queue)

	t.Run("run success", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/planner/run", bytes.NewBufferString(`{"companyId":"co-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RolePlanner))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)

		var envelope struct {
			Data models.PlanningResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
		assert.True(t, envelope.Data.Success)
		assert.Equal(t, 12, envelope.Data.Summary.Planned)
	})

	t.Run("run forbidden for technicians", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/planner/run", bytes.NewBufferString(`{"companyId":"co-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleTechnician))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusForbidden, resp.Code)
	})

	t.Run("run unauthorized without claims", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/planner/run", bytes.NewBufferString(`{"companyId":"co-1"}`))
		req.Header.Set("Content-Type", "application/json")
		resp := performRequest(router, req)
		require.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("run rejects missing company", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/planner/run", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("enqueue accepted", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/planner/enqueue", bytes.NewBufferString(`{"companyId":"co-1"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Test-Role", string(models.RoleAdmin))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusAccepted, resp.Code)
		require.Len(t, queue.enqueued, 1)
		assert.Equal(t, JobTypePlanVisits, queue.enqueued[0].Type)
	})

	t.Run("result found after run", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/planner/result/co-1", nil)
		req.Header.Set("X-Test-Role", string(models.RolePlanner))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), `"run_id"`)
	})

	t.Run("result missing company", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodGet, "/planner/result/co-unknown", nil)
		req.Header.Set("X-Test-Role", string(models.RolePlanner))
		resp := performRequest(router, req)
		require.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func buildPlannerRouter(t *testing.T, queue *queueStub) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: "test-user",
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	planner := service.NewPlannerService(
		handlerCompanyStub{},
		handlerContractsStub{},
		handlerBranchesStub{},
		handlerVisitsStub{},
		handlerVisitStoreStub{},
		newHandlerCacheStub(),
		nil,
		nil,
		zap.NewNop(),
		config.PlannerConfig{
			MaxVisitsPerDay:    5,
			PreferredWeekStart: config.WeekStartSaturday,
			ConflictResolution: config.ConflictReschedule,
			CacheTTL:           time.Minute,
		},
	)

	plannerHandler := NewPlannerHandler(planner, queue)
	planning := router.Group("/planner")
	planning.Use(internalmiddleware.RequireRoles(models.RoleAdmin, models.RolePlanner))
	planning.POST("/run", plannerHandler.Run)
	planning.POST("/enqueue", plannerHandler.Enqueue)
	planning.GET("/result/:companyId", plannerHandler.Result)
	return router
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

type queueStub struct {
	enqueued []jobs.Job
}

func (s *queueStub) Enqueue(job jobs.Job) error {
	s.enqueued = append(s.enqueued, job)
	return nil
}

type handlerCompanyStub struct{}

func (handlerCompanyStub) FindByID(_ context.Context, id string) (*models.Company, error) {
	return &models.Company{ID: id, Name: "Acme Fire Co"}, nil
}

type handlerContractsStub struct{}

func (handlerContractsStub) ListActiveByCompany(_ context.Context, companyID string) ([]models.Contract, error) {
	return []models.Contract{{
		ID:             "ct-1",
		CompanyID:      companyID,
		ContractNumber: "CN-2024-001",
		StartDate:      "01-Jan-2024",
		EndDate:        "31-Dec-2024",
		ServiceBatches: []models.ServiceBatch{{
			Name:                 "main",
			BranchIDs:            []string{"br-1"},
			Services:             models.ServiceFlags{FireExtinguisher: true},
			RegularVisitsPerYear: 12,
		}},
	}}, nil
}

type handlerBranchesStub struct{}

func (handlerBranchesStub) ListByCompany(_ context.Context, companyID string) ([]models.Branch, error) {
	return []models.Branch{{ID: "br-1", CompanyID: companyID}}, nil
}

type handlerVisitsStub struct{}

func (handlerVisitsStub) ListByCompany(_ context.Context, _ string) ([]models.Visit, error) {
	return nil, nil
}

type handlerVisitStoreStub struct{}

func (handlerVisitStoreStub) BulkCreate(_ context.Context, _ []models.Visit) error { return nil }

type handlerCacheStub struct{ entries map[string][]byte }

func newHandlerCacheStub() *handlerCacheStub {
	return &handlerCacheStub{entries: map[string][]byte{}}
}

func (s *handlerCacheStub) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *handlerCacheStub) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}
