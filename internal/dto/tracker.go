package dto

import (
	"time"

	"github.com/veriport/bgv-api/internal/models"
)

// CaseUpdateRequest is the incremental case-field update payload. Fields is a
// nested object graph; anything under the reserved "annexure" key is routed
// into per-service annexure buckets during flattening.
type CaseUpdateRequest struct {
	CaseID     string                 `json:"case_id" validate:"required"`
	BranchID   string                 `json:"branch_id" validate:"required"`
	CustomerID string                 `json:"customer_id" validate:"required"`
	SendMail   bool                   `json:"send_mail"`
	Fields     map[string]interface{} `json:"fields" validate:"required"`
}

// BlockFailure reports one annexure block that failed to persist. Sibling
// blocks already applied are not rolled back.
type BlockFailure struct {
	Table string `json:"table"`
	Error string `json:"error"`
}

// NotificationResult reports the outcome of the notification step,
// independent of whether the data was saved.
type NotificationResult struct {
	Requested bool   `json:"requested"`
	Sent      bool   `json:"sent"`
	Kind      string `json:"kind,omitempty"`
	Message   string `json:"message"`
}

// AuditEntry is one tracker change with its decoded field diffs.
type AuditEntry struct {
	ID        int64              `json:"id"`
	CaseID    string             `json:"case_id"`
	ActorID   string             `json:"actor_id"`
	Action    models.AuditAction `json:"action"`
	Changes   []models.FieldDiff `json:"changes"`
	CreatedAt time.Time          `json:"created_at"`
}

// CaseUpdateResponse is the result of applying a case update.
type CaseUpdateResponse struct {
	Saved        bool               `json:"saved"`
	Created      bool               `json:"created"`
	TrackerID    int64              `json:"tracker_id"`
	Verdict      models.Verdict     `json:"verdict,omitempty"`
	FailedBlocks []BlockFailure     `json:"failed_blocks,omitempty"`
	Notification NotificationResult `json:"notification"`
}
