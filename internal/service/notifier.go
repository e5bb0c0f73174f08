package service

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"go.uber.org/zap"

	"github.com/veriport/bgv-api/pkg/mailer"
)

// Notification carries everything needed to address and render one
// case-related email.
type Notification struct {
	CompanyName   string
	GenderTitle   string
	CandidateName string
	ApplicationID string
	Attachments   []string
	To            []string
	CC            []string
}

// Notifier dispatches the case lifecycle emails. Every send is non-fatal to
// the caller.
type Notifier interface {
	SendFinalReport(ctx context.Context, n Notification) error
	SendInsufficiency(ctx context.Context, n Notification) error
	SendReadyForReport(ctx context.Context, n Notification) error
	SendReminder(ctx context.Context, n Notification) error
}

var (
	finalReportBody = template.Must(template.New("final_report").Parse(
		`Dear Team,

Please find attached the final verification report for {{.GenderTitle}} {{.CandidateName}} (application {{.ApplicationID}}).

Regards,
{{.CompanyName}}`))

	insufficiencyBody = template.Must(template.New("insufficiency").Parse(
		`Dear Team,

The verification for {{.GenderTitle}} {{.CandidateName}} (application {{.ApplicationID}}) has been reviewed and marked insufficient. Kindly provide the pending documents or clarifications.

Regards,
{{.CompanyName}}`))

	readyForReportBody = template.Must(template.New("ready_for_report").Parse(
		`Dear Team,

All verification components for {{.GenderTitle}} {{.CandidateName}} (application {{.ApplicationID}}) are complete. The case is ready for final report review.

Regards,
{{.CompanyName}}`))

	reminderBody = template.Must(template.New("reminder").Parse(
		`Dear Team,

This is a reminder that the candidate and address verification forms for {{.GenderTitle}} {{.CandidateName}} (application {{.ApplicationID}}) are still pending submission.

Regards,
{{.CompanyName}}`))
)

// EmailNotifier renders the notification templates and delivers them over
// SMTP.
type EmailNotifier struct {
	mailer *mailer.Mailer
	logger *zap.Logger
}

// NewEmailNotifier constructs the notifier.
func NewEmailNotifier(m *mailer.Mailer, logger *zap.Logger) *EmailNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailNotifier{mailer: m, logger: logger}
}

// SendFinalReport delivers the final report email with the compiled PDF.
func (n *EmailNotifier) SendFinalReport(ctx context.Context, note Notification) error {
	subject := fmt.Sprintf("Final Verification Report - %s (%s)", note.CandidateName, note.ApplicationID)
	return n.send(ctx, note, subject, finalReportBody)
}

// SendInsufficiency delivers the QC/insufficiency email.
func (n *EmailNotifier) SendInsufficiency(ctx context.Context, note Notification) error {
	subject := fmt.Sprintf("Insufficiency Raised - %s (%s)", note.CandidateName, note.ApplicationID)
	return n.send(ctx, note, subject, insufficiencyBody)
}

// SendReadyForReport delivers the ready-for-report email to the branch.
func (n *EmailNotifier) SendReadyForReport(ctx context.Context, note Notification) error {
	subject := fmt.Sprintf("Case Ready For Report - %s (%s)", note.CandidateName, note.ApplicationID)
	return n.send(ctx, note, subject, readyForReportBody)
}

// SendReminder delivers the pending-submission reminder email.
func (n *EmailNotifier) SendReminder(ctx context.Context, note Notification) error {
	subject := fmt.Sprintf("Pending Form Submission - %s (%s)", note.CandidateName, note.ApplicationID)
	return n.send(ctx, note, subject, reminderBody)
}

func (n *EmailNotifier) send(ctx context.Context, note Notification, subject string, body *template.Template) error {
	var buf bytes.Buffer
	if err := body.Execute(&buf, note); err != nil {
		return fmt.Errorf("render notification body: %w", err)
	}

	msg := mailer.Message{
		To:          note.To,
		CC:          note.CC,
		Subject:     subject,
		Body:        buf.String(),
		Attachments: note.Attachments,
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.logger.Error("notification send failed",
			zap.String("subject", subject), zap.Strings("to", note.To), zap.Error(err))
		return err
	}
	return nil
}
