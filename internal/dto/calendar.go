package dto

import "time"

// CreateHolidayRequest adds one holiday to the calendar.
type CreateHolidayRequest struct {
	Title string `json:"title" validate:"required"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
}

// HolidayResponse is the API shape of a holiday.
type HolidayResponse struct {
	ID    int64     `json:"id"`
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
}

// UpdateWeekendConfigRequest replaces the configured weekend day set.
type UpdateWeekendConfigRequest struct {
	Days []string `json:"days" validate:"required,min=0,max=7,dive,oneof=sunday monday tuesday wednesday thursday friday saturday"`
}

// WeekendConfigResponse is the API shape of the weekend configuration.
type WeekendConfigResponse struct {
	Days      []string  `json:"days"`
	UpdatedAt time.Time `json:"updated_at"`
}
