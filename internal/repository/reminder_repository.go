package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/veriport/bgv-api/internal/models"
)

// ReminderRepository tracks submission reminders per case.
type ReminderRepository struct {
	db *sqlx.DB
}

// NewReminderRepository constructs the repository.
func NewReminderRepository(db *sqlx.DB) *ReminderRepository {
	return &ReminderRepository{db: db}
}

// ListDue selects cases eligible for a reminder: never reminded, or last
// reminded exactly gapDays ago, and still under the reminder cap. DISTINCT ON
// keeps a case on one row even when its branch has several active users, so
// the sweep sends one reminder and the counter moves by one.
func (r *ReminderRepository) ListDue(ctx context.Context, gapDays, cap int) ([]models.ReminderCandidate, error) {
	const query = `SELECT DISTINCT ON (c.id) c.id AS case_id, c.application_id, c.branch_id, c.customer_id,
c.candidate_name, COALESCE(u.email, '') AS branch_email,
COALESCE(cr.reminder_count, 0) AS reminder_count, cr.last_reminder_at
FROM cases c
LEFT JOIN case_reminders cr ON cr.case_id = c.id
LEFT JOIN branch_users u ON u.branch_id = c.branch_id AND u.active
WHERE COALESCE(cr.reminder_count, 0) < $2
  AND (cr.last_reminder_at IS NULL OR cr.last_reminder_at::date = (CURRENT_DATE - $1::int))
ORDER BY c.id, u.email ASC`
	var candidates []models.ReminderCandidate
	if err := r.db.SelectContext(ctx, &candidates, query, gapDays, cap); err != nil {
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return candidates, nil
}

// MarkSent increments the reminder counter and stamps the send time.
func (r *ReminderRepository) MarkSent(ctx context.Context, caseID string) error {
	const query = `INSERT INTO case_reminders (case_id, reminder_count, last_reminder_at)
VALUES ($1, 1, NOW())
ON CONFLICT (case_id)
DO UPDATE SET reminder_count = case_reminders.reminder_count + 1, last_reminder_at = NOW()`
	if _, err := r.db.ExecContext(ctx, query, caseID); err != nil {
		return fmt.Errorf("mark reminder sent: %w", err)
	}
	return nil
}
