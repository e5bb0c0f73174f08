package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/veriport/bgv-api/internal/models"
	"github.com/veriport/bgv-api/pkg/config"
	appErrors "github.com/veriport/bgv-api/pkg/errors"
)

const (
	cacheKeyHolidays      = "calendar:holidays"
	cacheKeyWeekendConfig = "calendar:weekend"
	dateKeyLayout         = "2006-01-02"
)

type holidayRepository interface {
	List(ctx context.Context) ([]models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id int64) error
	WeekendConfig(ctx context.Context) (models.WeekendConfig, error)
	UpdateWeekendConfig(ctx context.Context, days string) (models.WeekendConfig, error)
}

type calendarCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CalendarService computes TAT due dates against the holiday calendar and
// weekend configuration, caching both between mutations.
type CalendarService struct {
	repo   holidayRepository
	cache  calendarCache
	cfg    config.CalendarConfig
	logger *zap.Logger
}

// NewCalendarService constructs the calendar service.
func NewCalendarService(repo holidayRepository, cache calendarCache, cfg config.CalendarConfig, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.WindowMultiple <= 0 {
		cfg.WindowMultiple = 10
	}
	if cfg.MinWindowDays <= 0 {
		cfg.MinWindowDays = 370
	}
	return &CalendarService{repo: repo, cache: cache, cfg: cfg, logger: logger}
}

// ComputeDueDate walks forward from the day after start, consuming one TAT
// day per date that is neither a configured weekend day nor a holiday, and
// returns the date on which the final TAT day lands. tatDays <= 0 means due
// immediately: the first qualifying day. The search window is bounded so a
// configuration that disqualifies every day terminates with
// ErrNoQualifyingDay instead of walking forever.
func ComputeDueDate(start time.Time, tatDays int, holidays map[string]struct{}, weekend map[time.Weekday]bool, windowDays int) (time.Time, error) {
	if tatDays < 0 {
		tatDays = 0
	}
	if windowDays <= 0 {
		windowDays = 370
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	remaining := tatDays
	for i := 0; i < windowDays; i++ {
		day = day.AddDate(0, 0, 1)
		if weekend[day.Weekday()] {
			continue
		}
		if _, holiday := holidays[day.Format(dateKeyLayout)]; holiday {
			continue
		}
		remaining--
		if remaining <= 0 {
			return day, nil
		}
	}
	return time.Time{}, appErrors.ErrNoQualifyingDay
}

// DueDate computes the due date for a case created at start with the given
// TAT day count, loading calendar data through the cache.
func (s *CalendarService) DueDate(ctx context.Context, start time.Time, tatDays int) (time.Time, error) {
	holidays, err := s.holidaySet(ctx)
	if err != nil {
		return time.Time{}, err
	}
	weekend, err := s.weekendSet(ctx)
	if err != nil {
		return time.Time{}, err
	}

	window := tatDays * s.cfg.WindowMultiple
	if window < s.cfg.MinWindowDays {
		window = s.cfg.MinWindowDays
	}

	due, err := ComputeDueDate(start, tatDays, holidays, weekend, window)
	if err != nil {
		s.logger.Warn("due date computation exhausted search window",
			zap.Time("start", start), zap.Int("tat_days", tatDays), zap.Int("window_days", window))
		return time.Time{}, err
	}
	return due, nil
}

// Holidays lists the holiday calendar.
func (s *CalendarService) Holidays(ctx context.Context) ([]models.Holiday, error) {
	var holidays []models.Holiday
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKeyHolidays, &holidays); err == nil {
			return holidays, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("holiday cache read failed", zap.Error(err))
		}
	}

	holidays, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	s.cacheSet(ctx, cacheKeyHolidays, holidays)
	return holidays, nil
}

// AddHoliday inserts a holiday and invalidates the cached calendar.
func (s *CalendarService) AddHoliday(ctx context.Context, title string, date time.Time) (*models.Holiday, error) {
	holiday := &models.Holiday{Title: title, Date: date}
	if err := s.repo.Create(ctx, holiday); err != nil {
		return nil, err
	}
	s.cacheInvalidate(ctx, cacheKeyHolidays)
	return holiday, nil
}

// RemoveHoliday deletes a holiday and invalidates the cached calendar.
func (s *CalendarService) RemoveHoliday(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("holiday %d not found", id))
	}
	s.cacheInvalidate(ctx, cacheKeyHolidays)
	return nil
}

// WeekendConfig returns the active weekend day set.
func (s *CalendarService) WeekendConfig(ctx context.Context) (models.WeekendConfig, error) {
	var cfg models.WeekendConfig
	if s.cache != nil {
		if err := s.cache.Get(ctx, cacheKeyWeekendConfig, &cfg); err == nil {
			return cfg, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("weekend config cache read failed", zap.Error(err))
		}
	}

	cfg, err := s.repo.WeekendConfig(ctx)
	if err != nil {
		return models.WeekendConfig{}, err
	}
	s.cacheSet(ctx, cacheKeyWeekendConfig, cfg)
	return cfg, nil
}

// UpdateWeekendConfig replaces the weekend day set and invalidates the cache.
func (s *CalendarService) UpdateWeekendConfig(ctx context.Context, days string) (models.WeekendConfig, error) {
	cfg, err := s.repo.UpdateWeekendConfig(ctx, days)
	if err != nil {
		return models.WeekendConfig{}, err
	}
	s.cacheInvalidate(ctx, cacheKeyWeekendConfig)
	return cfg, nil
}

func (s *CalendarService) holidaySet(ctx context.Context) (map[string]struct{}, error) {
	holidays, err := s.Holidays(ctx)
	if err != nil {
		return nil, fmt.Errorf("load holidays: %w", err)
	}
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[h.Date.Format(dateKeyLayout)] = struct{}{}
	}
	return set, nil
}

func (s *CalendarService) weekendSet(ctx context.Context) (map[time.Weekday]bool, error) {
	cfg, err := s.WeekendConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load weekend config: %w", err)
	}
	return cfg.Weekdays(), nil
}

func (s *CalendarService) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("calendar cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CalendarService) cacheInvalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("calendar cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
