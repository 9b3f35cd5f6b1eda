// Package mailer delivers transactional email such as verification codes.
package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spendwise/internal/config"
	"spendwise/internal/logger"
)

// Message is a plain-text email.
type Message struct {
	To        []string  `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage builds a single-recipient message stamped with the current time.
func NewMessage(to, subject, body string) Message {
	return Message{To: []string{to}, Subject: subject, Body: body, Timestamp: time.Now().UTC()}
}

// ToJSON encodes the message for the queue.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes a queued message.
func MessageFromJSON(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, err
	}
	if len(m.To) == 0 {
		return Message{}, fmt.Errorf("message has no recipients")
	}
	return m, nil
}

// Mailer sends a message or reports why it could not.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the application log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logger.Named("mailer").Infow("email (log driver)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// New builds the mailer selected by MAIL_DRIVER. The returned close func
// releases any connection the driver holds.
func New(cfg *config.Config) (Mailer, func() error, error) {
	noop := func() error { return nil }
	switch cfg.MailDriver {
	case "", "log":
		return LogMailer{}, noop, nil
	case "smtp":
		return NewSMTPMailer(cfg), noop, nil
	case "queue":
		client, err := NewQueueClient(cfg.AMQPURL, cfg.MailQueue)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown mail driver %q", cfg.MailDriver)
}
