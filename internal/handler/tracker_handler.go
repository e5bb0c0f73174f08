package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/veriport/bgv-api/internal/dto"
	appErrors "github.com/veriport/bgv-api/pkg/errors"
	"github.com/veriport/bgv-api/pkg/response"
)

type trackerService interface {
	ApplyCaseUpdate(ctx context.Context, req dto.CaseUpdateRequest) (*dto.CaseUpdateResponse, error)
	AuditTrail(ctx context.Context, caseID string, limit int) ([]dto.AuditEntry, error)
}

type dueDateService interface {
	DueDate(ctx context.Context, caseID string, tatDays int) (*dto.DueDateResponse, error)
}

// TrackerHandler exposes the case tracker endpoints.
type TrackerHandler struct {
	tracker trackerService
	cases   dueDateService
}

// NewTrackerHandler builds a new handler.
func NewTrackerHandler(tracker trackerService, cases dueDateService) *TrackerHandler {
	return &TrackerHandler{tracker: tracker, cases: cases}
}

// Apply godoc
// @Summary Apply an incremental case update
// @Tags Tracker
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param payload body dto.CaseUpdateRequest true "Case update payload"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/tracker [post]
func (h *TrackerHandler) Apply(c *gin.Context) {
	var req dto.CaseUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid case update payload"))
		return
	}
	req.CaseID = c.Param("id")
	if claims := claimsFromContext(c); claims != nil {
		if req.BranchID == "" {
			req.BranchID = claims.BranchID
		}
		if req.CustomerID == "" {
			req.CustomerID = claims.CustomerID
		}
	}

	result, err := h.tracker.ApplyCaseUpdate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// AuditTrail godoc
// @Summary List the tracker change history for a case
// @Tags Tracker
// @Produce json
// @Param id path string true "Case ID"
// @Param limit query int false "Maximum entries"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/audit [get]
func (h *TrackerHandler) AuditTrail(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	entries, err := h.tracker.AuditTrail(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// DueDate godoc
// @Summary Compute the TAT due date for a case
// @Tags Tracker
// @Produce json
// @Param id path string true "Case ID"
// @Param tat_days query int false "TAT day count"
// @Success 200 {object} response.Envelope
// @Router /cases/{id}/due-date [get]
func (h *TrackerHandler) DueDate(c *gin.Context) {
	tatDays := 0
	if raw := c.Query("tat_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tat_days must be a non-negative integer"))
			return
		}
		tatDays = parsed
	}

	result, err := h.cases.DueDate(c.Request.Context(), c.Param("id"), tatDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
