// Package notify mails the site owner when a visitor submits the contact form.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"portfolio/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/wneessen/go-mail"
)

const sendTimeout = 30 * time.Second

// Config holds the SMTP relay and addressing. Host and To must both be set
// for notifications to be sent.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Enabled reports whether enough is configured to deliver mail.
func (c Config) Enabled() bool {
	return c.Host != "" && c.To != ""
}

// Sender delivers composed messages. *mail.Client satisfies it.
type Sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Mailer turns contact messages into notification mails.
type Mailer struct {
	sender Sender
	from   string
	to     string

	wg sync.WaitGroup
}

// NewMailer connects a go-mail client for cfg.
func NewMailer(cfg Config) (*Mailer, error) {
	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(sendTimeout),
	}
	if cfg.Port != 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return NewMailerWithSender(client, cfg.From, cfg.To), nil
}

// NewMailerWithSender builds a Mailer over an existing sender. An empty from
// falls back to to.
func NewMailerWithSender(sender Sender, from, to string) *Mailer {
	if from == "" {
		from = to
	}
	return &Mailer{sender: sender, from: from, to: to}
}

// Message composes the notification for msg. Replies go to the visitor.
func (m *Mailer) Message(msg models.ContactMessage) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := out.To(m.to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if err := out.ReplyToFormat(singleLine(msg.Name), msg.Email); err != nil {
		return nil, fmt.Errorf("invalid reply-to address: %w", err)
	}
	out.Subject("[Portfolio] " + singleLine(msg.Subject))
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"From: %s <%s>\nReceived: %s\nID: %s\n\n%s\n",
		msg.Name, msg.Email, msg.CreatedAt.UTC().Format(time.RFC1123), msg.ID, msg.Message,
	))
	return out, nil
}

// NotifyContact composes and sends the notification for msg.
func (m *Mailer) NotifyContact(ctx context.Context, msg models.ContactMessage) error {
	out, err := m.Message(msg)
	if err != nil {
		return err
	}
	if err := m.sender.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("failed to send contact notification %s: %w", msg.ID, err)
	}
	log.Info().Str("id", msg.ID).Str("to", m.to).Msg("Contact notification sent")
	return nil
}

// PublishContactMessage sends the notification in the background so the
// contact request does not wait on the SMTP relay. Failures are logged.
func (m *Mailer) PublishContactMessage(msg models.ContactMessage) error {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := m.NotifyContact(ctx, msg); err != nil {
			log.Error().Err(err).Str("id", msg.ID).Msg("Failed to send contact notification")
		}
	}()
	return nil
}

// Wait blocks until every background send has finished.
func (m *Mailer) Wait() {
	m.wg.Wait()
}

// singleLine keeps visitor text from spilling into further header lines.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
