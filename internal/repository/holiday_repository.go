package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/veriport/bgv-api/internal/models"
)

// HolidayRepository persists the holiday calendar and weekend configuration.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

// List returns every holiday ordered by date.
func (r *HolidayRepository) List(ctx context.Context) ([]models.Holiday, error) {
	const query = `SELECT id, title, date FROM holidays ORDER BY date ASC`
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query); err != nil {
		return nil, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, nil
}

// Create inserts a holiday.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	const query = `INSERT INTO holidays (title, date) VALUES ($1, $2) RETURNING id`
	if err := r.db.GetContext(ctx, &holiday.ID, query, holiday.Title, holiday.Date); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Delete removes a holiday by id.
func (r *HolidayRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM holidays WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("holiday %d not found", id)
	}
	return nil
}

// WeekendConfig returns the active weekend configuration. A missing row
// falls back to the conventional saturday/sunday weekend.
func (r *HolidayRepository) WeekendConfig(ctx context.Context) (models.WeekendConfig, error) {
	const query = `SELECT id, days, updated_at FROM weekend_configs ORDER BY updated_at DESC LIMIT 1`
	var cfg models.WeekendConfig
	if err := r.db.GetContext(ctx, &cfg, query); err != nil {
		return models.WeekendConfig{Days: "saturday,sunday", UpdatedAt: time.Now().UTC()}, nil
	}
	return cfg, nil
}

// UpdateWeekendConfig replaces the active weekend day set.
func (r *HolidayRepository) UpdateWeekendConfig(ctx context.Context, days string) (models.WeekendConfig, error) {
	const query = `INSERT INTO weekend_configs (days, updated_at) VALUES ($1, NOW())
RETURNING id, days, updated_at`
	var cfg models.WeekendConfig
	if err := r.db.GetContext(ctx, &cfg, query, days); err != nil {
		return models.WeekendConfig{}, fmt.Errorf("update weekend config: %w", err)
	}
	return cfg, nil
}
