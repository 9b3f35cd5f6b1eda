package testutil

import (
	"context"
	"regexp"
	"sync"

	"spendwise/internal/mailer"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// MailRecorder is a mailer.Mailer that keeps every message in memory.
type MailRecorder struct {
	mu       sync.Mutex
	Messages []mailer.Message
	Err      error
}

// Send records msg, or returns Err when set.
func (r *MailRecorder) Send(_ context.Context, msg mailer.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Messages = append(r.Messages, msg)
	return nil
}

// Last returns the most recent message and whether there was one.
func (r *MailRecorder) Last() (mailer.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Messages) == 0 {
		return mailer.Message{}, false
	}
	return r.Messages[len(r.Messages)-1], true
}

// LastCode extracts the six digit code from the most recent message.
func (r *MailRecorder) LastCode() string {
	msg, ok := r.Last()
	if !ok {
		return ""
	}
	return codePattern.FindString(msg.Body)
}
