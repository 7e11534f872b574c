package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reports "waterhealth-cloud/internal/reports/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

type stubEmail struct {
	configured bool
	err        error
	mu         sync.Mutex
	sent       []EmailMessage
}

func (s *stubEmail) Configured() bool { return s.configured }

func (s *stubEmail) SendEmail(_ context.Context, msg EmailMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

type stubSMS struct {
	configured bool
	failFor    map[string]error
	mu         sync.Mutex
	sent       map[string]string
}

func (s *stubSMS) Configured() bool { return s.configured }

func (s *stubSMS) SendSMS(_ context.Context, to, body string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failFor[to]; err != nil {
		return "", err
	}
	if s.sent == nil {
		s.sent = make(map[string]string)
	}
	s.sent[to] = body
	return "SM" + strings.TrimPrefix(to, "+"), nil
}

func sampleReport() *reports.AreaReport {
	water := &risk.WaterQuality{Area: "Perambur", PH: 6.2, Turbidity: 7.5, Hardness: 150, Chloramines: 2, Trihalomethanes: 30}
	return &reports.AreaReport{
		ID:          "JR-DEADBEEF",
		GeneratedAt: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
		Area:        "Perambur",
		Risk:        reports.RiskSnapshot{Level: risk.LevelHigh, Score: 57.5},
		Water:       water,
		Disease:     &risk.DiseaseCases{Disease: "Typhoid", ActiveCases: 310, TotalCases: 900},
		WaterIssues: reports.WaterIssues(water),
	}
}

func TestSendEmailNotConfiguredReturnsPreview(t *testing.T) {
	d, err := NewDispatcher(nil, nil)
	require.NoError(t, err)

	res, err := d.SendEmail(context.Background(), sampleReport(), []string{"officer@example.org"})
	require.NoError(t, err)

	assert.Equal(t, StatusNotConfigured, res.Status)
	assert.Equal(t, "[JalRaksha] Water Health Report — Perambur | High Risk", res.Subject)
	assert.Equal(t, "JR-DEADBEEF", res.ReportID)
	assert.True(t, strings.HasPrefix(res.Payload, "<!DOCTYPE html>"))
	assert.LessOrEqual(t, len([]rune(res.Payload)), PreviewLength)
	assert.NotEmpty(t, res.Message)
}

func TestSendEmailUnconfiguredSenderNeverCalled(t *testing.T) {
	email := &stubEmail{configured: false}
	d, err := NewDispatcher(email, nil)
	require.NoError(t, err)

	res, err := d.SendEmail(context.Background(), sampleReport(), []string{"a@example.org"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotConfigured, res.Status)
	assert.Empty(t, email.sent)
}

func TestSendEmailSent(t *testing.T) {
	email := &stubEmail{configured: true}
	d, err := NewDispatcher(email, nil)
	require.NoError(t, err)

	res, err := d.SendEmail(context.Background(), sampleReport(), []string{" a@example.org ", "b@example.org", "a@example.org"})
	require.NoError(t, err)

	assert.Equal(t, StatusSent, res.Status)
	assert.Empty(t, res.Payload)
	require.Len(t, email.sent, 1)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, email.sent[0].To)
	assert.Contains(t, email.sent[0].HTML, "HIGH RISK — 57.5/100")
}

func TestSendEmailFailureIsTyped(t *testing.T) {
	email := &stubEmail{configured: true, err: errors.New("535 authentication failed")}
	d, err := NewDispatcher(email, nil)
	require.NoError(t, err)

	res, err := d.SendEmail(context.Background(), sampleReport(), []string{"a@example.org"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "535 authentication failed", res.Message)
}

func TestSendRequiresRecipients(t *testing.T) {
	d, err := NewDispatcher(nil, nil)
	require.NoError(t, err)

	_, err = d.SendEmail(context.Background(), sampleReport(), []string{" "})
	assert.ErrorIs(t, err, ErrNoRecipients)
	_, err = d.Broadcast(context.Background(), sampleReport(), nil, nil)
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestSendSMSConfiguredRequiresRecipients(t *testing.T) {
	sms := &stubSMS{configured: true}
	d, err := NewDispatcher(nil, sms)
	require.NoError(t, err)

	_, err = d.SendSMS(context.Background(), sampleReport(), []string{" "})
	assert.ErrorIs(t, err, ErrNoRecipients)
}

func TestSendSMSNotConfiguredWithoutNumbersReturnsText(t *testing.T) {
	d, err := NewDispatcher(nil, nil)
	require.NoError(t, err)

	res, err := d.SendSMS(context.Background(), sampleReport(), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusNotConfigured, res.Status)
	assert.Empty(t, res.Recipients)
	assert.True(t, strings.HasPrefix(res.Payload, "[JalRaksha ALERT] Perambur — HIGH RISK (Score: 57.5/100)"))
	assert.Contains(t, res.Payload, "Helpline: 1800-180-5678 | Emergency: 108")
}

func TestSendSMSNotConfiguredReturnsFullText(t *testing.T) {
	d, err := NewDispatcher(nil, &stubSMS{configured: false})
	require.NoError(t, err)

	res, err := d.SendSMS(context.Background(), sampleReport(), []string{"+919800000001"})
	require.NoError(t, err)
	assert.Equal(t, StatusNotConfigured, res.Status)
	assert.True(t, strings.HasPrefix(res.Payload, "[JalRaksha ALERT] Perambur — HIGH RISK (Score: 57.5/100)"))
	assert.Contains(t, res.Payload, "Disease: Typhoid | Active Cases: 310")
	assert.Contains(t, res.Payload, "Helpline: 1800-180-5678 | Emergency: 108")
}

func TestSendSMSPartialDelivery(t *testing.T) {
	sms := &stubSMS{configured: true, failFor: map[string]error{"+919800000002": errors.New("invalid number")}}
	d, err := NewDispatcher(nil, sms)
	require.NoError(t, err)

	res, err := d.SendSMS(context.Background(), sampleReport(), []string{"+919800000001", "+919800000002"})
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, res.Status)
	require.Len(t, res.Deliveries, 2)
	assert.Equal(t, Delivery{Recipient: "+919800000001", Status: StatusSent, Reference: "SM919800000001"}, res.Deliveries[0])
	assert.Equal(t, StatusFailed, res.Deliveries[1].Status)
	assert.Equal(t, "invalid number", res.Deliveries[1].Error)
}

func TestSendSMSAllFailed(t *testing.T) {
	sms := &stubSMS{configured: true, failFor: map[string]error{"+919800000001": errors.New("queue full")}}
	d, err := NewDispatcher(nil, sms)
	require.NoError(t, err)

	res, err := d.SendSMS(context.Background(), sampleReport(), []string{"+919800000001"})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, "queue full", res.Message)
}

func TestBroadcastChannelsAreIndependent(t *testing.T) {
	email := &stubEmail{configured: true, err: errors.New("connection refused")}
	sms := &stubSMS{configured: true}
	d, err := NewDispatcher(email, sms)
	require.NoError(t, err)

	res, err := d.Broadcast(context.Background(), sampleReport(), []string{"a@example.org"}, []string{"+919800000001"})
	require.NoError(t, err)
	require.NotNil(t, res.Email)
	require.NotNil(t, res.SMS)
	assert.Equal(t, StatusFailed, res.Email.Status)
	assert.Equal(t, StatusSent, res.SMS.Status)
}

func TestBroadcastSkipsChannelWithoutRecipients(t *testing.T) {
	d, err := NewDispatcher(nil, nil)
	require.NoError(t, err)

	res, err := d.Broadcast(context.Background(), sampleReport(), []string{"a@example.org"}, nil)
	require.NoError(t, err)
	require.NotNil(t, res.Email)
	assert.Nil(t, res.SMS)
	assert.Equal(t, StatusNotConfigured, res.Email.Status)
}
