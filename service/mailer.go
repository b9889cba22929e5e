package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AnTengye/formrelay/config"
	"github.com/AnTengye/formrelay/model"
	"gopkg.in/gomail.v2"
)

// Message is a plain-text notification email.
type Message struct {
	To          string
	ReplyTo     string
	Subject     string
	Body        string
	Attachments []string
}

// MailSender delivers notification emails.
type MailSender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPMailer(cfg *config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	if msg.ReplyTo != "" {
		gm.SetHeader("Reply-To", msg.ReplyTo)
	}
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	for _, path := range msg.Attachments {
		gm.Attach(path)
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

// ComposeNotification renders the operator notification for an accepted submission.
func ComposeNotification(settings FormSettings, outcome model.ValidationOutcome, submittedAt time.Time) Message {
	record := outcome.Record

	subject := fmt.Sprintf("New %s submission", settings.Title)
	if record.Name != "" {
		subject += " from " + record.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A new %s form submission was received.\n\n", settings.Title)
	for _, e := range record.Entries {
		if strings.Contains(e.Value, "\n") {
			fmt.Fprintf(&b, "%s:\n  %s\n", e.Label, strings.ReplaceAll(e.Value, "\n", "\n  "))
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", e.Label, e.Value)
	}
	fmt.Fprintf(&b, "\nSubmitted at: %s\n", submittedAt.Format(time.RFC1123Z))

	return Message{
		To:          settings.Recipient,
		ReplyTo:     record.Email,
		Subject:     subject,
		Body:        b.String(),
		Attachments: outcome.AttachmentPaths(),
	}
}
