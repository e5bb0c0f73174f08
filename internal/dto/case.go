package dto

import (
	"time"

	"github.com/veriport/bgv-api/internal/models"
)

// CreateCaseRequest registers a new verification case for an application.
type CreateCaseRequest struct {
	ApplicationID string   `json:"application_id" validate:"required"`
	CustomerID    string   `json:"customer_id" validate:"required"`
	ServiceIDs    []string `json:"service_ids" validate:"required,min=1,dive,required"`
	CandidateName string   `json:"candidate_name" validate:"required"`
	GenderTitle   string   `json:"gender_title"`
	TATDays       int      `json:"tat_days" validate:"gte=0"`
}

// CaseResponse is the API shape of a case.
type CaseResponse struct {
	ID                      string     `json:"id"`
	ApplicationID           string     `json:"application_id"`
	BranchID                string     `json:"branch_id"`
	CustomerID              string     `json:"customer_id"`
	ServiceIDs              []string   `json:"service_ids"`
	CandidateName           string     `json:"candidate_name"`
	GenderTitle             string     `json:"gender_title"`
	OverallStatus           string     `json:"overall_status"`
	IsVerify                string     `json:"is_verify"`
	FinalVerificationStatus *string    `json:"final_verification_status,omitempty"`
	ReportType              *string    `json:"report_type,omitempty"`
	ReportDate              *time.Time `json:"report_date,omitempty"`
	DueDate                 *time.Time `json:"due_date,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
}

// NewCaseResponse maps a case model onto the API shape.
func NewCaseResponse(kase *models.Case) CaseResponse {
	return CaseResponse{
		ID:                      kase.ID,
		ApplicationID:           kase.ApplicationID,
		BranchID:                kase.BranchID,
		CustomerID:              kase.CustomerID,
		ServiceIDs:              kase.ServiceIDs(),
		CandidateName:           kase.CandidateName,
		GenderTitle:             kase.GenderTitle,
		OverallStatus:           kase.OverallStatus,
		IsVerify:                string(kase.IsVerify),
		FinalVerificationStatus: kase.FinalVerificationStatus,
		ReportType:              kase.ReportType,
		ReportDate:              kase.ReportDate,
		DueDate:                 kase.DueDate,
		CreatedAt:               kase.CreatedAt,
	}
}

// DueDateResponse carries a computed TAT due date.
type DueDateResponse struct {
	CaseID  string    `json:"case_id"`
	TATDays int       `json:"tat_days"`
	DueDate time.Time `json:"due_date"`
}
