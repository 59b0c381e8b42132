package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/qitafauto/qitaf-backend/pkg/config"
	pkgerrors "github.com/qitafauto/qitaf-backend/pkg/errors"
	"github.com/qitafauto/qitaf-backend/pkg/logger"
)

// Message is one outbound plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type smtpSender struct {
	cfg config.MailConfig
}

type logSender struct {
	logg *logger.Logger
}

// NewSender picks the SMTP sender when a host is configured and a log-only
// sender otherwise, so dev environments never need a mail relay.
func NewSender(cfg config.MailConfig, logg *logger.Logger) Sender {
	if strings.TrimSpace(cfg.Host) == "" {
		return &logSender{logg: logg}
	}
	return &smtpSender{cfg: cfg}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "mail recipient required")
	}

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	payload := buildPayload(s.cfg.DefaultFrom, msg)
	if err := smtp.SendMail(addr, auth, s.cfg.DefaultFrom, []string{msg.To}, payload); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "send mail")
	}
	return nil
}

func (s *logSender) Send(ctx context.Context, msg Message) error {
	if s.logg == nil {
		return nil
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"mail_to":      msg.To,
		"mail_subject": msg.Subject,
	})
	s.logg.Info(ctx, "mail delivery skipped (no SMTP host configured)")
	return nil
}

func buildPayload(from string, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
