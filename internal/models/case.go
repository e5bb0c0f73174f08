package models

import (
	"strings"
	"time"
)

// Case is one verification job for a single candidate application.
type Case struct {
	ID                      string     `db:"id" json:"id"`
	ApplicationID           string     `db:"application_id" json:"application_id"`
	BranchID                string     `db:"branch_id" json:"branch_id"`
	CustomerID              string     `db:"customer_id" json:"customer_id"`
	Services                string     `db:"services" json:"-"`
	CandidateName           string     `db:"candidate_name" json:"candidate_name"`
	GenderTitle             string     `db:"gender_title" json:"gender_title"`
	OverallStatus           string     `db:"overall_status" json:"overall_status"`
	IsVerify                VerifyFlag `db:"is_verify" json:"is_verify"`
	FinalVerificationStatus *string    `db:"final_verification_status" json:"final_verification_status,omitempty"`
	ReportType              *string    `db:"report_type" json:"report_type,omitempty"`
	ReportDate              *time.Time `db:"report_date" json:"report_date,omitempty"`
	DueDate                 *time.Time `db:"due_date" json:"due_date,omitempty"`
	CreatedAt               time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `db:"updated_at" json:"updated_at"`
}

// ServiceIDs returns the ordered requested-service identifiers. The column
// keeps the comma-joined form for compatibility with the report tooling.
func (c *Case) ServiceIDs() []string {
	if strings.TrimSpace(c.Services) == "" {
		return nil
	}
	parts := strings.Split(c.Services, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// SetServiceIDs stores the ordered list back into the comma-joined column.
func (c *Case) SetServiceIDs(ids []string) {
	c.Services = strings.Join(ids, ",")
}

// ReportInfo carries the report fields written when a case reaches its final verdict.
type ReportInfo struct {
	ReportType              string
	ReportDate              time.Time
	FinalVerificationStatus string
}
