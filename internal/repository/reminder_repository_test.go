package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReminderRepoMock(t *testing.T) (*ReminderRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return NewReminderRepository(sqlxDB), mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestReminderRepositoryListDue(t *testing.T) {
	repo, mock, cleanup := newReminderRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT DISTINCT ON \(c\.id\)`).
		WithArgs(2, 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"case_id", "application_id", "branch_id", "customer_id",
			"candidate_name", "branch_email", "reminder_count", "last_reminder_at",
		}).AddRow("case-1", "APP-100", "branch-1", "cust-1", "A. Candidate", "ops@branch.example", 0, nil).
			AddRow("case-2", "APP-101", "branch-1", "cust-1", "B. Candidate", "", 3, nil))

	candidates, err := repo.ListDue(context.Background(), 2, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "ops@branch.example", candidates[0].BranchEmail)
	assert.Nil(t, candidates[0].LastReminderAt)
	assert.Equal(t, 3, candidates[1].ReminderCount)
}

func TestReminderRepositoryListDueOneRowPerCase(t *testing.T) {
	repo, mock, cleanup := newReminderRepoMock(t)
	defer cleanup()

	// A branch with three active users collapses to a single candidate row;
	// anything else would send one reminder per user and bump the counter
	// past the cap in a single sweep.
	mock.ExpectQuery(`(?s)SELECT DISTINCT ON \(c\.id\).+ORDER BY c\.id, u\.email`).
		WithArgs(3, 5).
		WillReturnRows(sqlmock.NewRows([]string{
			"case_id", "application_id", "branch_id", "customer_id",
			"candidate_name", "branch_email", "reminder_count", "last_reminder_at",
		}).AddRow("case-1", "APP-100", "branch-1", "cust-1", "A. Candidate", "alpha@branch.example", 1, nil))

	candidates, err := repo.ListDue(context.Background(), 3, 5)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "alpha@branch.example", candidates[0].BranchEmail)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRepositoryMarkSent(t *testing.T) {
	repo, mock, cleanup := newReminderRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO case_reminders").
		WithArgs("case-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkSent(context.Background(), "case-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
