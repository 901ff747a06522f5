package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"mailloop/internal/models"
)

// Sender delivers jobs over SMTP. It is the only piece that talks to
// the external provider; retries happen at the queue level.
type Sender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (s *Sender) Send(ctx context.Context, job models.EmailJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", job.To)
	m.SetHeader("Subject", job.Subject)

	if job.TextBody != "" {
		m.SetBody("text/plain", job.TextBody)
		if job.HTMLBody != "" {
			m.AddAlternative("text/html", job.HTMLBody)
		}
	} else {
		m.SetBody("text/html", job.HTMLBody)
	}

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}

	return nil
}
