package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/veriport/bgv-api/internal/models"
)

// CaseRepository persists verification cases.
type CaseRepository struct {
	db *sqlx.DB
}

// NewCaseRepository constructs the repository.
func NewCaseRepository(db *sqlx.DB) *CaseRepository {
	return &CaseRepository{db: db}
}

const caseColumns = `id, application_id, branch_id, customer_id, services, candidate_name,
gender_title, overall_status, is_verify, final_verification_status, report_type,
report_date, due_date, created_at, updated_at`

// Create inserts a new case. The (application_id, branch_id) pair is unique;
// a second submission for the same application is a conflict.
func (r *CaseRepository) Create(ctx context.Context, kase *models.Case) error {
	const query = `INSERT INTO cases (id, application_id, branch_id, customer_id, services,
candidate_name, gender_title, overall_status, is_verify, due_date, created_at, updated_at)
VALUES (:id, :application_id, :branch_id, :customer_id, :services,
:candidate_name, :gender_title, :overall_status, :is_verify, :due_date, :created_at, :updated_at)`
	now := time.Now().UTC()
	kase.CreatedAt = now
	kase.UpdatedAt = now
	if _, err := r.db.NamedExecContext(ctx, query, kase); err != nil {
		return fmt.Errorf("create case: %w", err)
	}
	return nil
}

// GetByID fetches a single case.
func (r *CaseRepository) GetByID(ctx context.Context, id string) (*models.Case, error) {
	query := fmt.Sprintf("SELECT %s FROM cases WHERE id = $1", caseColumns)
	var kase models.Case
	if err := r.db.GetContext(ctx, &kase, query, id); err != nil {
		return nil, err
	}
	return &kase, nil
}

// GetByApplication fetches the case for a business-facing application id.
func (r *CaseRepository) GetByApplication(ctx context.Context, applicationID, branchID string) (*models.Case, error) {
	query := fmt.Sprintf("SELECT %s FROM cases WHERE application_id = $1 AND branch_id = $2", caseColumns)
	var kase models.Case
	if err := r.db.GetContext(ctx, &kase, query, applicationID, branchID); err != nil {
		return nil, err
	}
	return &kase, nil
}

// UpdateOverallStatus mirrors the tracker's overall_status onto the case.
func (r *CaseRepository) UpdateOverallStatus(ctx context.Context, id, status string, isVerify models.VerifyFlag) error {
	const query = `UPDATE cases SET overall_status = $2, is_verify = $3, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, isVerify); err != nil {
		return fmt.Errorf("update case status: %w", err)
	}
	return nil
}

// UpdateReportInfo records the generated report metadata on the case.
func (r *CaseRepository) UpdateReportInfo(ctx context.Context, id string, info models.ReportInfo) error {
	const query = `UPDATE cases SET report_type = $2, report_date = $3,
final_verification_status = $4, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, info.ReportType, info.ReportDate, info.FinalVerificationStatus); err != nil {
		return fmt.Errorf("update case report info: %w", err)
	}
	return nil
}

// SetDueDate stores the computed TAT due date.
func (r *CaseRepository) SetDueDate(ctx context.Context, id string, due time.Time) error {
	const query = `UPDATE cases SET due_date = $2, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, due); err != nil {
		return fmt.Errorf("set case due date: %w", err)
	}
	return nil
}
