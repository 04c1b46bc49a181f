package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/firewatch-co/maintenance-api/internal/models"
	"github.com/firewatch-co/maintenance-api/internal/service"
	appErrors "github.com/firewatch-co/maintenance-api/pkg/errors"
	"github.com/firewatch-co/maintenance-api/pkg/response"
)

// ContractHandler exposes contract endpoints.
type ContractHandler struct {
	contracts *service.ContractService
}

// NewContractHandler constructs ContractHandler.
func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// List godoc
// @Summary List contracts
// @Tags Contracts
// @Produce json
// @Security BearerAuth
// @Param companyId query string false "Filter by company"
// @Param includeArchived query bool false "Include archived contracts"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /contracts [get]
func (h *ContractHandler) List(c *gin.Context) {
	var filter models.ContractFilter
	filter.CompanyID = c.Query("companyId")
	filter.IncludeArchived = c.Query("includeArchived") == "true"
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	contracts, pagination, err := h.contracts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contracts, pagination)
}

// Get godoc
// @Summary Get one contract
// @Tags Contracts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Success 200 {object} response.Envelope
// @Router /contracts/{id} [get]
func (h *ContractHandler) Get(c *gin.Context) {
	contract, err := h.contracts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contract, nil)
}

// Create godoc
// @Summary Create contract
// @Tags Contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateContractRequest true "Contract payload"
// @Success 201 {object} response.Envelope
// @Router /contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	var req service.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	contract, err := h.contracts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, contract)
}

// Update godoc
// @Summary Update contract
// @Tags Contracts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Param payload body service.UpdateContractRequest true "Contract payload"
// @Success 200 {object} response.Envelope
// @Router /contracts/{id} [put]
func (h *ContractHandler) Update(c *gin.Context) {
	var req service.UpdateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	contract, err := h.contracts.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, contract, nil)
}

// Archive godoc
// @Summary Archive contract
// @Tags Contracts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contract ID"
// @Success 204
// @Router /contracts/{id} [delete]
func (h *ContractHandler) Archive(c *gin.Context) {
	if err := h.contracts.Archive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
