package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/veriport/bgv-api/internal/dto"
	"github.com/veriport/bgv-api/internal/models"
	appErrors "github.com/veriport/bgv-api/pkg/errors"
	"github.com/veriport/bgv-api/pkg/response"
)

type calendarService interface {
	Holidays(ctx context.Context) ([]models.Holiday, error)
	AddHoliday(ctx context.Context, title string, date time.Time) (*models.Holiday, error)
	RemoveHoliday(ctx context.Context, id int64) error
	WeekendConfig(ctx context.Context) (models.WeekendConfig, error)
	UpdateWeekendConfig(ctx context.Context, days string) (models.WeekendConfig, error)
}

// CalendarHandler exposes holiday and weekend configuration endpoints.
type CalendarHandler struct {
	service calendarService
}

// NewCalendarHandler builds a new handler.
func NewCalendarHandler(service calendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// ListHolidays godoc
// @Summary List holidays
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /holidays [get]
func (h *CalendarHandler) ListHolidays(c *gin.Context) {
	holidays, err := h.service.Holidays(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	items := make([]dto.HolidayResponse, 0, len(holidays))
	for _, holiday := range holidays {
		items = append(items, dto.HolidayResponse{ID: holiday.ID, Title: holiday.Title, Date: holiday.Date})
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// CreateHoliday godoc
// @Summary Add a holiday
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.CreateHolidayRequest true "Holiday payload"
// @Success 201 {object} response.Envelope
// @Router /holidays [post]
func (h *CalendarHandler) CreateHoliday(c *gin.Context) {
	var req dto.CreateHolidayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid holiday payload"))
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}

	holiday, err := h.service.AddHoliday(c.Request.Context(), req.Title, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.HolidayResponse{ID: holiday.ID, Title: holiday.Title, Date: holiday.Date})
}

// DeleteHoliday godoc
// @Summary Remove a holiday
// @Tags Calendar
// @Param id path int true "Holiday ID"
// @Success 204
// @Router /holidays/{id} [delete]
func (h *CalendarHandler) DeleteHoliday(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "holiday id must be an integer"))
		return
	}
	if err := h.service.RemoveHoliday(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetWeekendConfig godoc
// @Summary Get the weekend day configuration
// @Tags Calendar
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /weekend-config [get]
func (h *CalendarHandler) GetWeekendConfig(c *gin.Context) {
	cfg, err := h.service.WeekendConfig(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.WeekendConfigResponse{Days: cfg.DayNames(), UpdatedAt: cfg.UpdatedAt}, nil)
}

// UpdateWeekendConfig godoc
// @Summary Replace the weekend day configuration
// @Tags Calendar
// @Accept json
// @Produce json
// @Param payload body dto.UpdateWeekendConfigRequest true "Weekend config payload"
// @Success 200 {object} response.Envelope
// @Router /weekend-config [put]
func (h *CalendarHandler) UpdateWeekendConfig(c *gin.Context) {
	var req dto.UpdateWeekendConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid weekend config payload"))
		return
	}

	cfg, err := h.service.UpdateWeekendConfig(c.Request.Context(), strings.Join(req.Days, ","))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.WeekendConfigResponse{Days: cfg.DayNames(), UpdatedAt: cfg.UpdatedAt}, nil)
}
