package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/firewatch-co/maintenance-api/internal/models"
	"github.com/firewatch-co/maintenance-api/internal/service"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
	"github.com/firewatch-co/maintenance-api/pkg/response"
)

// VisitHandler exposes visit endpoints including schedule exports.
type VisitHandler struct {
	visits  *service.VisitService
	exports *service.ExportService
}

// NewVisitHandler constructs VisitHandler.
func NewVisitHandler(visits *service.VisitService, exports *service.ExportService) *VisitHandler {
	return &VisitHandler{visits: visits, exports: exports}
}

// List godoc
// @Summary List visits
// @Tags Visits
// @Produce json
// @Security BearerAuth
// @Param companyId query string false "Filter by company"
// @Param branchId query string false "Filter by branch"
// @Param contractId query string false "Filter by contract"
// @Param type query string false "Filter by visit type"
// @Param status query string false "Filter by status"
// @Param dateFrom query string false "Earliest scheduled date (2006-01-02)"
// @Param dateTo query string false "Latest scheduled date (2006-01-02)"
// @Param includeArchived query bool false "Include archived visits"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /visits [get]
func (h *VisitHandler) List(c *gin.Context) {
	filter, err := visitFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	visits, pagination, err := h.visits.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, visits, pagination)
}

// Get godoc
// @Summary Get one visit
// @Tags Visits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Visit ID"
// @Success 200 {object} response.Envelope
// @Router /visits/{id} [get]
func (h *VisitHandler) Get(c *gin.Context) {
	visit, err := h.visits.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, visit, nil)
}

// Create godoc
// @Summary Manually schedule a visit
// @Tags Visits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateVisitRequest true "Visit payload"
// @Success 201 {object} response.Envelope
// @Router /visits [post]
func (h *VisitHandler) Create(c *gin.Context) {
	var req service.CreateVisitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	visit, err := h.visits.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, visit)
}

// UpdateStatus godoc
// @Summary Update visit status
// @Tags Visits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Visit ID"
// @Param payload body service.UpdateVisitStatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Router /visits/{id}/status [patch]
func (h *VisitHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateVisitStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	visit, err := h.visits.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, visit, nil)
}

// Delete godoc
// @Summary Delete visit
// @Tags Visits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Visit ID"
// @Success 204
// @Router /visits/{id} [delete]
func (h *VisitHandler) Delete(c *gin.Context) {
	if err := h.visits.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the visit schedule
// @Tags Visits
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string true "Export format (csv or pdf)"
// @Param companyId query string false "Filter by company"
// @Param branchId query string false "Filter by branch"
// @Param dateFrom query string false "Earliest scheduled date (2006-01-02)"
// @Param dateTo query string false "Latest scheduled date (2006-01-02)"
// @Success 200 {file} binary
// @Router /visits/export [get]
func (h *VisitHandler) Export(c *gin.Context) {
	filter, err := visitFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.exports.Schedule(c.Request.Context(), filter, service.ExportFormat(c.DefaultQuery("format", "csv")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Blob(c, result.ContentType, result.Filename, result.Payload)
}

func visitFilterFromQuery(c *gin.Context) (models.VisitFilter, error) {
	var filter models.VisitFilter
	filter.CompanyID = c.Query("companyId")
	filter.BranchID = c.Query("branchId")
	filter.ContractID = c.Query("contractId")
	filter.Type = c.Query("type")
	filter.Status = c.Query("status")
	filter.IncludeArchived = c.Query("includeArchived") == "true"

	if raw := c.Query("dateFrom"); raw != "" {
		from, err := time.Parse(models.VisitDateLayout, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "dateFrom must use the 2006-01-02 format")
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("dateTo"); raw != "" {
		to, err := time.Parse(models.VisitDateLayout, raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "dateTo must use the 2006-01-02 format")
		}
		filter.DateTo = &to
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter, nil
}
