package notify

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"waterhealth-cloud/internal/observability/metrics"
	reports "waterhealth-cloud/internal/reports/domain"
	"waterhealth-cloud/internal/reports/render"
)

// Dispatcher renders reports and delivers them over e-mail and SMS.
type Dispatcher struct {
	email  EmailSender
	sms    SMSSender
	html   *render.HTMLRenderer
	text   *render.SMSRenderer
	logger zerolog.Logger
}

// Option configures the dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithHTMLRenderer overrides the e-mail renderer.
func WithHTMLRenderer(r *render.HTMLRenderer) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.html = r
		}
	}
}

// WithSMSRenderer overrides the SMS renderer.
func WithSMSRenderer(r *render.SMSRenderer) Option {
	return func(d *Dispatcher) {
		if r != nil {
			d.text = r
		}
	}
}

// NewDispatcher constructs a dispatcher. Either sender may be nil, which reads as not configured.
func NewDispatcher(email EmailSender, sms SMSSender, opts ...Option) (*Dispatcher, error) {
	text, err := render.NewSMSRenderer("", render.DefaultBranding())
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		email:  email,
		sms:    sms,
		html:   render.NewHTMLRenderer(render.DefaultBranding()),
		text:   text,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// SendEmail renders the report as HTML and mails it once to all recipients.
// Delivery problems are reported in the result, not as errors.
func (d *Dispatcher) SendEmail(ctx context.Context, report *reports.AreaReport, recipients []string) (ChannelResult, error) {
	if d == nil {
		return ChannelResult{}, errors.New("notify: nil dispatcher")
	}
	if report == nil {
		return ChannelResult{}, errors.New("notify: nil report")
	}
	recipients = cleanRecipients(recipients)
	if len(recipients) == 0 {
		return ChannelResult{}, ErrNoRecipients
	}
	body, err := d.html.Render(report)
	if err != nil {
		return ChannelResult{}, err
	}
	result := ChannelResult{
		Channel:    ChannelEmail,
		ReportID:   report.ID,
		Recipients: recipients,
		Subject:    d.html.Subject(report),
	}

	if d.email == nil || !d.email.Configured() {
		result.Status = StatusNotConfigured
		result.Message = "SMTP credentials not set. Use a mail client fallback."
		result.Payload = render.Preview(body, PreviewLength)
		metrics.IncNotification(ChannelEmail, string(result.Status))
		return result, nil
	}

	err = d.email.SendEmail(ctx, EmailMessage{To: recipients, Subject: result.Subject, HTML: body})
	if err != nil {
		d.logger.Error().Err(err).Str("area", report.Area).Str("report_id", report.ID).Msg("email delivery failed")
		result.Status = StatusFailed
		result.Message = err.Error()
	} else {
		result.Status = StatusSent
	}
	metrics.IncNotification(ChannelEmail, string(result.Status))
	return result, nil
}

// SendSMS renders the report as text and sends it to each number.
// An unconfigured channel returns the text even when no numbers are given.
func (d *Dispatcher) SendSMS(ctx context.Context, report *reports.AreaReport, phones []string) (ChannelResult, error) {
	if d == nil {
		return ChannelResult{}, errors.New("notify: nil dispatcher")
	}
	if report == nil {
		return ChannelResult{}, errors.New("notify: nil report")
	}
	phones = cleanRecipients(phones)
	body, err := d.text.Render(report)
	if err != nil {
		return ChannelResult{}, err
	}
	result := ChannelResult{
		Channel:    ChannelSMS,
		ReportID:   report.ID,
		Recipients: phones,
	}

	// Without credentials the text is returned for manual delivery, so numbers are optional.
	if d.sms == nil || !d.sms.Configured() {
		result.Status = StatusNotConfigured
		result.Message = "SMS credentials not set."
		result.Payload = body
		metrics.IncNotification(ChannelSMS, string(result.Status))
		return result, nil
	}
	if len(phones) == 0 {
		return ChannelResult{}, ErrNoRecipients
	}

	result.Deliveries = make([]Delivery, 0, len(phones))
	for _, phone := range phones {
		delivery := Delivery{Recipient: phone}
		ref, err := d.sms.SendSMS(ctx, phone, body)
		if err != nil {
			d.logger.Error().Err(err).Str("area", report.Area).Str("to", phone).Msg("sms delivery failed")
			delivery.Status = StatusFailed
			delivery.Error = err.Error()
		} else {
			delivery.Status = StatusSent
			delivery.Reference = ref
		}
		result.Deliveries = append(result.Deliveries, delivery)
	}
	result.Status = summarize(result.Deliveries)
	if result.Status == StatusFailed {
		result.Message = result.Deliveries[0].Error
	}
	metrics.IncNotification(ChannelSMS, string(result.Status))
	return result, nil
}

// Broadcast sends e-mail and SMS concurrently. Channels without recipients are skipped,
// and one channel's outcome never affects the other.
func (d *Dispatcher) Broadcast(ctx context.Context, report *reports.AreaReport, emailTo, smsTo []string) (BroadcastResult, error) {
	if d == nil {
		return BroadcastResult{}, errors.New("notify: nil dispatcher")
	}
	if report == nil {
		return BroadcastResult{}, errors.New("notify: nil report")
	}
	emailTo = cleanRecipients(emailTo)
	smsTo = cleanRecipients(smsTo)
	if len(emailTo) == 0 && len(smsTo) == 0 {
		return BroadcastResult{}, ErrNoRecipients
	}

	var out BroadcastResult
	var g errgroup.Group
	if len(emailTo) > 0 {
		g.Go(func() error {
			res, err := d.SendEmail(ctx, report, emailTo)
			if err != nil {
				res = ChannelResult{Channel: ChannelEmail, Status: StatusFailed, Message: err.Error()}
			}
			out.Email = &res
			return nil
		})
	}
	if len(smsTo) > 0 {
		g.Go(func() error {
			res, err := d.SendSMS(ctx, report, smsTo)
			if err != nil {
				res = ChannelResult{Channel: ChannelSMS, Status: StatusFailed, Message: err.Error()}
			}
			out.SMS = &res
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func cleanRecipients(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, r := range in {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}
