package models

import "time"

// AuditAction distinguishes first-write from subsequent tracker updates.
type AuditAction string

const (
	AuditActionCreate AuditAction = "CREATE"
	AuditActionUpdate AuditAction = "UPDATE"
)

// FieldDiff captures one changed tracker field for audit logging.
type FieldDiff struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// AuditLog records who changed what on a case tracker.
type AuditLog struct {
	ID        int64       `db:"id" json:"id"`
	CaseID    string      `db:"case_id" json:"case_id"`
	ActorID   string      `db:"actor_id" json:"actor_id"`
	Action    AuditAction `db:"action" json:"action"`
	Changes   []byte      `db:"changes" json:"-"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}
