package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"chama-backend/internal/domain"
)

type sendFunc func(ctx context.Context, m *mail.SGMailV3) (status int, body string, err error)

// EmailSink mails each recipient through SendGrid.
type EmailSink struct {
	from *mail.Email
	send sendFunc
}

func NewEmailSink(apiKey, fromEmail, fromName string) *EmailSink {
	client := sendgrid.NewSendClient(apiKey)
	return &EmailSink{
		from: mail.NewEmail(fromName, fromEmail),
		send: func(ctx context.Context, m *mail.SGMailV3) (int, string, error) {
			resp, err := client.SendWithContext(ctx, m)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		},
	}
}

func (s *EmailSink) Name() string { return "sendgrid" }

func (s *EmailSink) Deliver(ctx context.Context, intent domain.NotificationIntent, recipients []domain.Member) error {
	var errs []error
	for _, r := range recipients {
		if r.Email == "" {
			continue
		}
		body := fmt.Sprintf("Hello %s,\n\n%s\n\nChama Team", r.Name, intent.Message)
		m := mail.NewSingleEmail(s.from, intent.Title, mail.NewEmail(r.Name, r.Email), body, "")
		status, respBody, err := s.send(ctx, m)
		if err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", r.Email, err))
			continue
		}
		if status >= 400 {
			errs = append(errs, fmt.Errorf("sendgrid error for %s: status %d, body: %s", r.Email, status, respBody))
		}
	}
	return errors.Join(errs...)
}
