package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veriport/bgv-api/internal/models"
)

func newHolidayRepoMock(t *testing.T) (*HolidayRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewHolidayRepository(sqlxDB), mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestHolidayRepositoryList(t *testing.T) {
	repo, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, title, date FROM holidays").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "date"}).
			AddRow(int64(1), "Republic Day", time.Date(2026, time.January, 26, 0, 0, 0, 0, time.UTC)).
			AddRow(int64(2), "Independence Day", time.Date(2026, time.August, 15, 0, 0, 0, 0, time.UTC)))

	holidays, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, "Republic Day", holidays[0].Title)
}

func TestHolidayRepositoryCreate(t *testing.T) {
	repo, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()

	date := time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO holidays").
		WithArgs("Founders Day", date).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	holiday := &models.Holiday{Title: "Founders Day", Date: date}
	require.NoError(t, repo.Create(context.Background(), holiday))
	assert.Equal(t, int64(3), holiday.ID)
}

func TestHolidayRepositoryDeleteMissing(t *testing.T) {
	repo, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM holidays").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.Error(t, repo.Delete(context.Background(), 99))
}

func TestHolidayRepositoryWeekendConfigFallback(t *testing.T) {
	repo, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, days, updated_at FROM weekend_configs").
		WillReturnRows(sqlmock.NewRows([]string{"id", "days", "updated_at"}))

	cfg, err := repo.WeekendConfig(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "saturday,sunday", cfg.Days)
}

func TestHolidayRepositoryUpdateWeekendConfig(t *testing.T) {
	repo, mock, cleanup := newHolidayRepoMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO weekend_configs").
		WithArgs("friday,saturday").
		WillReturnRows(sqlmock.NewRows([]string{"id", "days", "updated_at"}).
			AddRow(int64(2), "friday,saturday", now))

	cfg, err := repo.UpdateWeekendConfig(context.Background(), "friday,saturday")
	require.NoError(t, err)
	assert.Equal(t, []string{"friday", "saturday"}, cfg.DayNames())
}
