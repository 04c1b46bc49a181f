package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/firewatch-co/maintenance-api/internal/dto"
	"github.com/firewatch-co/maintenance-api/internal/service"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
	"github.com/firewatch-co/maintenance-api/pkg/jobs"
	"github.com/firewatch-co/maintenance-api/pkg/response"
)

// JobTypePlanVisits tags asynchronous planning jobs on the queue.
const JobTypePlanVisits = "plan_visits"

type planEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// PlannerHandler exposes the planning endpoints.
type PlannerHandler struct {
	planner *service.PlannerService
	queue   planEnqueuer
}

// NewPlannerHandler constructs PlannerHandler.
func NewPlannerHandler(planner *service.PlannerService, queue planEnqueuer) *PlannerHandler {
	return &PlannerHandler{planner: planner, queue: queue}
}

// Run godoc
// @Summary Run the visit planner synchronously for one company
// @Tags Planner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PlanVisitsRequest true "Planning request"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /planner/run [post]
func (h *PlannerHandler) Run(c *gin.Context) {
	var req dto.PlanVisitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.planner.Plan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !result.Success {
		response.JSON(c, appErrors.ErrPlanningFailed.Status, result, nil)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Enqueue godoc
// @Summary Queue an asynchronous planning run
// @Tags Planner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.PlanVisitsRequest true "Planning request"
// @Success 202 {object} response.Envelope
// @Router /planner/enqueue [post]
func (h *PlannerHandler) Enqueue(c *gin.Context) {
	var req dto.PlanVisitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if req.CompanyID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "companyId is required"))
		return
	}
	if h.queue == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "planning queue unavailable"))
		return
	}

	jobID := uuid.NewString()
	if err := h.queue.Enqueue(jobs.Job{ID: jobID, Type: JobTypePlanVisits, Payload: req}); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue planning run"))
		return
	}

	response.JSON(c, http.StatusAccepted, dto.EnqueuePlanResponse{
		JobID:     jobID,
		CompanyID: req.CompanyID,
		Status:    "queued",
	}, nil)
}

// Result godoc
// @Summary Fetch the last planning result for a company
// @Tags Planner
// @Produce json
// @Security BearerAuth
// @Param companyId path string true "Company ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /planner/result/{companyId} [get]
func (h *PlannerHandler) Result(c *gin.Context) {
	result, err := h.planner.CachedResult(c.Request.Context(), c.Param("companyId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
