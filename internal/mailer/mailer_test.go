package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hvac-crew/schedule/backend/internal/config"
	"github.com/hvac-crew/schedule/backend/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testMail = domain.Mail{
	ID:      "4b1f7c9e-1f0a-4a57-9d43-6b8e7f1f2c11",
	To:      []string{"dana@example.com", "lee@example.com"},
	Subject: "HVAC schedule update",
	HTML:    "<p>Mon 1 — Job</p>",
	Text:    "Changes:\n- Install -> Repair\n",
}

func TestBuildMessage(t *testing.T) {
	msg, err := BuildMessage("HVAC Schedule", "schedule@example.com", testMail)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	raw := buf.String()

	assert.Contains(t, raw, "<dana@example.com>")
	assert.Contains(t, raw, "<lee@example.com>")
	assert.Contains(t, raw, "schedule@example.com")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "<"+testMail.ID+"@example.com>")
}

func TestMessageID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		from string
		want string
	}{
		{"sender domain", "abc", "schedule@hvac.example.com", "abc@hvac.example.com"},
		{"already qualified", "abc@mail.example.com", "schedule@example.com", "abc@mail.example.com"},
		{"sender without domain", "abc", "schedule", "abc@localhost"},
		{"trailing at", "abc", "schedule@", "abc@localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, messageID(tt.id, tt.from))
		})
	}
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	m := testMail
	m.To = []string{"not an address"}
	_, err := BuildMessage("HVAC Schedule", "schedule@example.com", m)
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestNewSMTPTransportRequiresHost(t *testing.T) {
	cfg := &config.Config{}
	_, err := NewSMTPTransport(cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrTransportNotConfigured)

	cfg.Email.SMTP.Host = "smtp.example.com"
	cfg.Email.SMTP.Username = "schedule@example.com"
	cfg.Email.SMTP.TLS = "bogus"
	_, err = NewSMTPTransport(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestUnconfiguredTransport(t *testing.T) {
	assert.ErrorIs(t, Unconfigured{}.Send(context.Background(), testMail), ErrTransportNotConfigured)
}

type fakePublisher struct {
	published []amqp.Publishing
	keys      []string
	err       error
}

func (p *fakePublisher) PublishWithDeferredConfirmWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.keys = append(p.keys, key)
	p.published = append(p.published, msg)
	return nil, nil
}

func TestQueueTransportPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	transport := NewQueueTransport(pub, "email_queue", 0, zap.NewNop())

	require.NoError(t, transport.Send(context.Background(), testMail))
	require.Len(t, pub.published, 1)
	assert.Equal(t, []string{"email_queue"}, pub.keys)

	msg := pub.published[0]
	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, testMail.ID, msg.MessageId)

	decoded := domain.Mail{}
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, testMail, decoded)
}

func TestQueueTransportPublishError(t *testing.T) {
	pub := &fakePublisher{err: amqp.ErrClosed}
	transport := NewQueueTransport(pub, "email_queue", 0, zap.NewNop())
	assert.ErrorIs(t, transport.Send(context.Background(), testMail), amqp.ErrClosed)
}

type fakeAcknowledger struct {
	acked    bool
	nacked   bool
	requeued bool
}

func (a *fakeAcknowledger) Ack(uint64, bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked = true
	a.requeued = requeue
	return nil
}

func (a *fakeAcknowledger) Reject(_ uint64, requeue bool) error { return a.Nack(0, false, requeue) }

type recordingTransport struct {
	sent []domain.Mail
	err  error
}

func (r *recordingTransport) Send(_ context.Context, m domain.Mail) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, m)
	return nil
}

func delivery(t *testing.T, body []byte, ack amqp.Acknowledger) amqp.Delivery {
	t.Helper()
	return amqp.Delivery{Acknowledger: ack, Body: body, MessageId: "queue-id"}
}

func TestWorkerHandle(t *testing.T) {
	body, err := json.Marshal(testMail)
	require.NoError(t, err)

	tests := []struct {
		name         string
		body         []byte
		sendErr      error
		wantAck      bool
		wantRequeue  bool
		wantSentMail int
	}{
		{name: "sent", body: body, wantAck: true, wantSentMail: 1},
		{name: "malformed", body: []byte("{"), wantAck: false},
		{name: "no recipients", body: []byte(`{"id":"x","subject":"s"}`), wantAck: false},
		{name: "smtp failure is retried", body: body, sendErr: errors.New("connection reset"), wantRequeue: true},
		{name: "invalid message is dropped", body: body, sendErr: ErrInvalidMessage, wantRequeue: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			transport := &recordingTransport{err: tt.sendErr}
			NewWorker(transport, zap.NewNop()).Handle(context.Background(), delivery(t, tt.body, ack))

			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.Equal(t, tt.wantRequeue, ack.requeued)
			assert.Len(t, transport.sent, tt.wantSentMail)
		})
	}
}

func TestWorkerFillsMessageID(t *testing.T) {
	body, err := json.Marshal(domain.Mail{To: []string{"dana@example.com"}, Subject: "s", HTML: "h"})
	require.NoError(t, err)

	transport := &recordingTransport{}
	NewWorker(transport, zap.NewNop()).Handle(context.Background(), delivery(t, body, &fakeAcknowledger{}))
	require.Len(t, transport.sent, 1)
	assert.Equal(t, "queue-id", transport.sent[0].ID)
}
