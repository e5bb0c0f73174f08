package models

import "time"

// MaxReminders caps how many submission reminders a case may receive.
const MaxReminders = 5

// ReminderCandidate is a case selected by the reminder sweep.
type ReminderCandidate struct {
	CaseID         string     `db:"case_id"`
	ApplicationID  string     `db:"application_id"`
	BranchID       string     `db:"branch_id"`
	CustomerID     string     `db:"customer_id"`
	CandidateName  string     `db:"candidate_name"`
	BranchEmail    string     `db:"branch_email"`
	ReminderCount  int        `db:"reminder_count"`
	LastReminderAt *time.Time `db:"last_reminder_at"`
}
