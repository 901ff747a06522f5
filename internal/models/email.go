package models

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

type EmailStatus string

const (
	StatusPending EmailStatus = "pending"
	StatusSent    EmailStatus = "sent"
	StatusFailed  EmailStatus = "failed"
)

var ErrNotFound = errors.New("email job not found")

// EmailJob is one transactional email waiting for delivery.
// A job is due when Status is pending and NextRetryAt <= now;
// sent and failed are terminal.
type EmailJob struct {
	ID       int64  `json:"id"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	TextBody string `json:"text_body"`
	HTMLBody string `json:"html_body,omitempty"`

	Status      EmailStatus `json:"status"`
	Attempts    int         `json:"attempts"`
	NextRetryAt time.Time   `json:"next_retry_at"`
	ErrorMsg    string      `json:"error_msg,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

func (j *EmailJob) Validate() error {
	if strings.TrimSpace(j.To) == "" {
		return errors.New("recipient is required")
	}
	if _, err := mail.ParseAddress(j.To); err != nil {
		return errors.New("invalid recipient address")
	}
	if strings.TrimSpace(j.Subject) == "" {
		return errors.New("subject is required")
	}
	if strings.TrimSpace(j.TextBody) == "" && strings.TrimSpace(j.HTMLBody) == "" {
		return errors.New("message body is required")
	}
	return nil
}
