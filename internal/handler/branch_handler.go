package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/firewatch-co/maintenance-api/internal/models"
	"github.com/firewatch-co/maintenance-api/internal/service"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
	"github.com/firewatch-co/maintenance-api/pkg/response"
)

// BranchHandler exposes branch endpoints.
type BranchHandler struct {
	branches *service.BranchService
}

// NewBranchHandler constructs BranchHandler.
func NewBranchHandler(branches *service.BranchService) *BranchHandler {
	return &BranchHandler{branches: branches}
}

// List godoc
// @Summary List branches
// @Tags Branches
// @Produce json
// @Security BearerAuth
// @Param companyId query string false "Filter by company"
// @Param city query string false "Filter by city"
// @Param search query string false "Search by name"
// @Param includeArchived query bool false "Include archived branches"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /branches [get]
func (h *BranchHandler) List(c *gin.Context) {
	var filter models.BranchFilter
	filter.CompanyID = c.Query("companyId")
	filter.City = c.Query("city")
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.IncludeArchived = c.Query("includeArchived") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	branches, pagination, err := h.branches.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branches, pagination)
}

// Get godoc
// @Summary Get one branch
// @Tags Branches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Branch ID"
// @Success 200 {object} response.Envelope
// @Router /branches/{id} [get]
func (h *BranchHandler) Get(c *gin.Context) {
	branch, err := h.branches.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branch, nil)
}

// Create godoc
// @Summary Create branch
// @Tags Branches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateBranchRequest true "Branch payload"
// @Success 201 {object} response.Envelope
// @Router /branches [post]
func (h *BranchHandler) Create(c *gin.Context) {
	var req service.CreateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	branch, err := h.branches.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, branch)
}

// Update godoc
// @Summary Update branch
// @Tags Branches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Branch ID"
// @Param payload body service.UpdateBranchRequest true "Branch payload"
// @Success 200 {object} response.Envelope
// @Router /branches/{id} [put]
func (h *BranchHandler) Update(c *gin.Context) {
	var req service.UpdateBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	branch, err := h.branches.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, branch, nil)
}

// Archive godoc
// @Summary Archive branch
// @Tags Branches
// @Produce json
// @Security BearerAuth
// @Param id path string true "Branch ID"
// @Success 204
// @Router /branches/{id} [delete]
func (h *BranchHandler) Archive(c *gin.Context) {
	if err := h.branches.Archive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
