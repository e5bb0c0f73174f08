package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/veriport/bgv-api/internal/models"
)

// AuditRepository records tracker change history.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// CreateAuditLog appends one audit entry.
func (r *AuditRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	const query = `INSERT INTO audit_logs (case_id, actor_id, action, changes, created_at)
VALUES ($1, $2, $3, $4, $5) RETURNING id`
	log.CreatedAt = time.Now().UTC()
	if err := r.db.GetContext(ctx, &log.ID, query, log.CaseID, log.ActorID, log.Action, log.Changes, log.CreatedAt); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}

// ListByCase returns the audit trail for one case, newest first.
func (r *AuditRepository) ListByCase(ctx context.Context, caseID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `SELECT id, case_id, actor_id, action, changes, created_at
FROM audit_logs WHERE case_id = $1 ORDER BY created_at DESC LIMIT $2`
	var logs []models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, caseID, limit); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return logs, nil
}
