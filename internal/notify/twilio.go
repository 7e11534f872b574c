package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultTwilioBaseURL is the Twilio REST endpoint.
const DefaultTwilioBaseURL = "https://api.twilio.com"

// TwilioConfig holds SMS provider settings.
type TwilioConfig struct {
	AccountSID string  `yaml:"account_sid"`
	AuthToken  string  `yaml:"auth_token"`
	From       string  `yaml:"from"`
	RatePerSec float64 `yaml:"rate_per_sec"`
}

type twilioMessage struct {
	SID     string `json:"sid"`
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TwilioSender sends SMS through the Twilio Messages API.
type TwilioSender struct {
	cfg     TwilioConfig
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// TwilioOption configures the Twilio sender.
type TwilioOption func(*TwilioSender)

// WithTwilioBaseURL overrides the API endpoint.
func WithTwilioBaseURL(base string) TwilioOption {
	return func(t *TwilioSender) {
		if base != "" {
			t.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithTwilioHTTPClient overrides the HTTP client.
func WithTwilioHTTPClient(client *http.Client) TwilioOption {
	return func(t *TwilioSender) {
		if client != nil {
			t.client = client
		}
	}
}

// NewTwilioSender constructs a Twilio sender. Sends are paced at RatePerSec (default 1).
func NewTwilioSender(cfg TwilioConfig, opts ...TwilioOption) *TwilioSender {
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	t := &TwilioSender{
		cfg:     cfg,
		baseURL: DefaultTwilioBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Configured reports whether account, token and sender number are set.
func (t *TwilioSender) Configured() bool {
	return t != nil && t.cfg.AccountSID != "" && t.cfg.AuthToken != "" && t.cfg.From != ""
}

// SendSMS sends body to one number and returns the message SID.
func (t *TwilioSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	if !t.Configured() {
		return "", errors.New("twilio: not configured")
	}
	if strings.TrimSpace(to) == "" {
		return "", ErrNoRecipients
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.cfg.From)
	form.Set("Body", body)
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, url.PathEscape(t.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	var msg twilioMessage
	_ = json.Unmarshal(raw, &msg)
	if resp.StatusCode >= 300 {
		if msg.Message != "" {
			return "", fmt.Errorf("twilio: %d %s (code %d)", resp.StatusCode, msg.Message, msg.Code)
		}
		return "", fmt.Errorf("twilio: non-2xx response %d", resp.StatusCode)
	}
	return msg.SID, nil
}
