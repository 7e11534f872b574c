package notify

import "errors"

// ErrNoRecipients indicates a dispatch request without recipients.
var ErrNoRecipients = errors.New("notify: no recipients")

// Status is the outcome of a channel dispatch.
type Status string

const (
	StatusSent          Status = "sent"
	StatusPartial       Status = "partial"
	StatusFailed        Status = "failed"
	StatusNotConfigured Status = "not_configured"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// PreviewLength is how many characters of the HTML body an unconfigured e-mail result carries.
const PreviewLength = 500

// Delivery is the outcome for one recipient.
type Delivery struct {
	Recipient string `json:"recipient"`
	Status    Status `json:"status"`
	Reference string `json:"reference,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ChannelResult reports what happened on one channel. Unconfigured results
// carry the payload so the caller can deliver it by other means.
type ChannelResult struct {
	Channel    string     `json:"channel"`
	Status     Status     `json:"status"`
	ReportID   string     `json:"report_id,omitempty"`
	Recipients []string   `json:"recipients,omitempty"`
	Subject    string     `json:"subject,omitempty"`
	Payload    string     `json:"payload,omitempty"`
	Deliveries []Delivery `json:"deliveries,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// BroadcastResult holds per-channel results. A nil entry was not requested.
type BroadcastResult struct {
	Email *ChannelResult `json:"email,omitempty"`
	SMS   *ChannelResult `json:"sms,omitempty"`
}

func summarize(deliveries []Delivery) Status {
	sent := 0
	for _, d := range deliveries {
		if d.Status == StatusSent {
			sent++
		}
	}
	switch {
	case sent == 0:
		return StatusFailed
	case sent == len(deliveries):
		return StatusSent
	default:
		return StatusPartial
	}
}
