package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veriport/bgv-api/internal/dto"
	"github.com/veriport/bgv-api/internal/models"
	appErrors "github.com/veriport/bgv-api/pkg/errors"
	"github.com/veriport/bgv-api/pkg/response"
)

type caseService interface {
	Create(ctx context.Context, branchID string, req dto.CreateCaseRequest) (*models.Case, error)
	Get(ctx context.Context, id string) (*models.Case, error)
	GetByApplication(ctx context.Context, branchID, applicationID string) (*models.Case, error)
}

// CaseHandler exposes case registration and lookup endpoints.
type CaseHandler struct {
	service caseService
}

// NewCaseHandler builds a new handler.
func NewCaseHandler(service caseService) *CaseHandler {
	return &CaseHandler{service: service}
}

// Create godoc
// @Summary Register a new verification case
// @Tags Cases
// @Accept json
// @Produce json
// @Param payload body dto.CreateCaseRequest true "Case payload"
// @Success 201 {object} response.Envelope
// @Router /cases [post]
func (h *CaseHandler) Create(c *gin.Context) {
	var req dto.CreateCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid case payload"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if req.CustomerID == "" {
		req.CustomerID = claims.CustomerID
	}

	kase, err := h.service.Create(c.Request.Context(), claims.BranchID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.NewCaseResponse(kase))
}

// Lookup godoc
// @Summary Look up the case for an application
// @Tags Cases
// @Produce json
// @Param application_id query string true "Application ID"
// @Success 200 {object} response.Envelope
// @Router /cases [get]
func (h *CaseHandler) Lookup(c *gin.Context) {
	applicationID := c.Query("application_id")
	if applicationID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "application_id query parameter is required"))
		return
	}

	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	kase, err := h.service.GetByApplication(c.Request.Context(), claims.BranchID, applicationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCaseResponse(kase), nil)
}

// Get godoc
// @Summary Fetch a case
// @Tags Cases
// @Produce json
// @Param id path string true "Case ID"
// @Success 200 {object} response.Envelope
// @Router /cases/{id} [get]
func (h *CaseHandler) Get(c *gin.Context) {
	kase, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewCaseResponse(kase), nil)
}
