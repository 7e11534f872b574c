package notify

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTPConfig holds mail transport settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// SendMailFunc matches smtp.SendMail.
type SendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender sends HTML e-mail over SMTP with STARTTLS and PLAIN auth.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail SendMailFunc
}

// SMTPOption configures the SMTP sender.
type SMTPOption func(*SMTPSender)

// WithSendMail overrides the transport function.
func WithSendMail(fn SendMailFunc) SMTPOption {
	return func(s *SMTPSender) {
		if fn != nil {
			s.sendMail = fn
		}
	}
}

// NewSMTPSender constructs an SMTP sender. Missing host and port fall back to smtp.gmail.com:587.
func NewSMTPSender(cfg SMTPConfig, opts ...SMTPOption) *SMTPSender {
	if cfg.Host == "" {
		cfg.Host = "smtp.gmail.com"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	s := &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Configured reports whether credentials are set.
func (s *SMTPSender) Configured() bool {
	return s != nil && s.cfg.Username != "" && s.cfg.Password != ""
}

// SendEmail delivers one message to all recipients.
func (s *SMTPSender) SendEmail(ctx context.Context, msg EmailMessage) error {
	if !s.Configured() {
		return errors.New("smtp: not configured")
	}
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := s.sendMail(addr, auth, s.cfg.From, msg.To, buildMIME(s.cfg.From, msg)); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func buildMIME(from string, msg EmailMessage) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(msg.To, ", ") + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
