// Package mailer sends notification email over SMTP. Attachments are
// base64-encoded into a multipart MIME body; sends honour the caller's
// context so a stalled SMTP server cannot hang a request.
package mailer

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/veriport/bgv-api/pkg/config"
)

// Message is one outbound email.
type Message struct {
	To          []string
	CC          []string
	Subject     string
	Body        string
	Attachments []string
}

// Mailer delivers messages through a single SMTP endpoint.
type Mailer struct {
	cfg    config.SMTPConfig
	logger *zap.Logger
}

// New constructs a mailer.
func New(cfg config.SMTPConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{cfg: cfg, logger: logger}
}

// Send composes and delivers the message, aborting when ctx expires.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}

	payload, err := m.compose(msg)
	if err != nil {
		return fmt.Errorf("compose message: %w", err)
	}

	recipients := append(append([]string{}, msg.To...), msg.CC...)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() {
		done <- smtp.SendMail(addr, auth, m.cfg.From, recipients, payload)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("smtp send aborted: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
	}

	m.logger.Sugar().Infow("mail sent", "to", msg.To, "cc", msg.CC, "subject", msg.Subject, "attachments", len(msg.Attachments))
	return nil
}

func (m *Mailer) compose(msg Message) ([]byte, error) {
	buf := &bytes.Buffer{}

	fmt.Fprintf(buf, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(buf, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		fmt.Fprintf(buf, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	fmt.Fprintf(buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")

	if len(msg.Attachments) == 0 {
		buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
		buf.WriteString(msg.Body)
		buf.WriteString("\r\n")
		return buf.Bytes(), nil
	}

	const boundary = "bgv-mail-boundary"
	fmt.Fprintf(buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", boundary)

	fmt.Fprintf(buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n\r\n")
	buf.WriteString(msg.Body)
	buf.WriteString("\r\n")

	for _, path := range msg.Attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", path, err)
		}
		fmt.Fprintf(buf, "--%s\r\n", boundary)
		buf.WriteString("Content-Type: application/octet-stream\r\n")
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", filepath.Base(path))

		encoded := base64.StdEncoding.EncodeToString(data)
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}
	fmt.Fprintf(buf, "--%s--\r\n", boundary)

	return buf.Bytes(), nil
}
