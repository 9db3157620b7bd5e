package notify

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"portfolio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"
)

type capturingSender struct {
	mu   sync.Mutex
	sent []*mail.Msg
	err  error
}

func (s *capturingSender) DialAndSendWithContext(_ context.Context, messages ...*mail.Msg) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, messages...)
	return nil
}

func (s *capturingSender) messages() []*mail.Msg {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*mail.Msg(nil), s.sent...)
}

func sampleMessage() models.ContactMessage {
	return models.ContactMessage{
		ID: "b7d1c6a4-2f0e-4a57-9c53-7d0b5b1f5a10",
		ContactInput: models.ContactInput{
			Name:    "Jane Doe",
			Email:   "jane@example.com",
			Subject: "Hello\r\nBcc: victim@example.com",
			Message: "Nice portfolio",
		},
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func render(t *testing.T, msg *mail.Msg) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.False(t, Config{Host: "smtp.example.com"}.Enabled())
	assert.False(t, Config{To: "me@example.com"}.Enabled())
	assert.True(t, Config{Host: "smtp.example.com", To: "me@example.com"}.Enabled())
}

func TestMessage(t *testing.T) {
	m := NewMailerWithSender(&capturingSender{}, "site@example.com", "owner@example.com")

	msg, err := m.Message(sampleMessage())
	require.NoError(t, err)
	raw := render(t, msg)

	assert.Contains(t, raw, "From: <site@example.com>")
	assert.Contains(t, raw, "To: <owner@example.com>")
	assert.Contains(t, raw, `Reply-To: "Jane Doe" <jane@example.com>`)
	assert.Contains(t, raw, "Subject: [Portfolio] Hello Bcc: victim@example.com")
	assert.NotContains(t, raw, "\r\nBcc:")
	assert.Contains(t, raw, "Nice portfolio")
	assert.Contains(t, raw, "b7d1c6a4-2f0e-4a57-9c53-7d0b5b1f5a10")
}

func TestMessage_FromDefaultsToRecipient(t *testing.T) {
	m := NewMailerWithSender(&capturingSender{}, "", "owner@example.com")
	msg, err := m.Message(sampleMessage())
	require.NoError(t, err)
	assert.Contains(t, render(t, msg), "From: <owner@example.com>")
}

func TestMessage_InvalidAddress(t *testing.T) {
	m := NewMailerWithSender(&capturingSender{}, "site@example.com", "not an address")
	_, err := m.Message(sampleMessage())
	assert.ErrorContains(t, err, "invalid recipient address")
}

func TestNotifyContact(t *testing.T) {
	sender := &capturingSender{}
	m := NewMailerWithSender(sender, "site@example.com", "owner@example.com")

	require.NoError(t, m.NotifyContact(t.Context(), sampleMessage()))
	require.Len(t, sender.messages(), 1)

	sender.err = errors.New("relay refused")
	err := m.NotifyContact(t.Context(), sampleMessage())
	assert.ErrorContains(t, err, "relay refused")
}

func TestPublishContactMessage_SendsInBackground(t *testing.T) {
	sender := &capturingSender{}
	m := NewMailerWithSender(sender, "site@example.com", "owner@example.com")

	require.NoError(t, m.PublishContactMessage(sampleMessage()))
	m.Wait()

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, render(t, sent[0]), "Nice portfolio")
}

func TestPublishContactMessage_SendFailureIsNotReturned(t *testing.T) {
	m := NewMailerWithSender(&capturingSender{err: errors.New("down")}, "site@example.com", "owner@example.com")
	assert.NoError(t, m.PublishContactMessage(sampleMessage()))
	m.Wait()
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(Config{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", To: "owner@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", m.from)

	_, err = NewMailer(Config{To: "owner@example.com"})
	assert.Error(t, err)
}
