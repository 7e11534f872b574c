package notify

import "context"

// EmailMessage is one HTML e-mail.
type EmailMessage struct {
	To      []string
	Subject string
	HTML    string
}

// EmailSender delivers e-mail. Configured reports whether credentials are present.
type EmailSender interface {
	Configured() bool
	SendEmail(ctx context.Context, msg EmailMessage) error
}

// SMSSender delivers a text message to one number and returns the provider reference.
type SMSSender interface {
	Configured() bool
	SendSMS(ctx context.Context, to, body string) (string, error)
}
