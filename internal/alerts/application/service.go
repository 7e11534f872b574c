package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	alerts "waterhealth-cloud/internal/alerts/domain"
	"waterhealth-cloud/internal/notify"
	"waterhealth-cloud/internal/observability/metrics"
	risk "waterhealth-cloud/internal/risk/domain"
)

// ErrInvalidSeverity indicates an unknown severity filter.
var ErrInvalidSeverity = errors.New("alerts: invalid severity")

// Alert lifecycle event types.
const (
	EventCreated = "created"
	EventSent    = "sent"
	EventCleared = "cleared"
)

// AlertNotifier publishes alert lifecycle events.
type AlertNotifier interface {
	Notify(ctx context.Context, event AlertEvent)
}

// AlertEvent represents a lifecycle update.
type AlertEvent struct {
	Type  string       `json:"type"`
	Alert alerts.Alert `json:"alert"`
}

// Repository persists alerts.
type Repository interface {
	AppendAlert(ctx context.Context, alert *alerts.Alert) error
	ListAlerts(ctx context.Context, filter alerts.ListFilter) ([]alerts.Alert, error)
	CountUnsent(ctx context.Context) (int, error)
	ListUnsent(ctx context.Context, severities ...risk.Level) ([]alerts.Alert, error)
	MarkSent(ctx context.Context, id string) (*alerts.Alert, error)
	ClearAlerts(ctx context.Context) (int64, error)
}

// SendPendingResult summarizes a push of unsent alerts to the operator.
type SendPendingResult struct {
	Status  notify.Status `json:"status"`
	Pending int           `json:"pending"`
	Sent    int           `json:"sent"`
	Message string        `json:"message,omitempty"`
}

// Service administers alerts and fans new ones out to notifiers.
type Service struct {
	repo     Repository
	notifier AlertNotifier
	sms      notify.SMSSender
	operator string
	logger   zerolog.Logger
}

// ServiceOption customizes the alert service.
type ServiceOption func(*Service)

// WithNotifier assigns a notifier.
func WithNotifier(notifier AlertNotifier) ServiceOption {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithOperatorSMS routes pending alerts to one operator number.
func WithOperatorSMS(sender notify.SMSSender, number string) ServiceOption {
	return func(s *Service) {
		s.sms = sender
		s.operator = strings.TrimSpace(number)
	}
}

// WithLogger assigns a logger.
func WithLogger(logger zerolog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService constructs an alert service.
func NewService(repo Repository, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, errors.New("alerts: nil repository")
	}
	s := &Service{repo: repo, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AppendAlert stores a new alert and publishes it.
func (s *Service) AppendAlert(ctx context.Context, alert *alerts.Alert) error {
	if s == nil {
		return errors.New("alerts: nil service")
	}
	if alert == nil {
		return errors.New("alerts: nil alert")
	}
	if err := s.repo.AppendAlert(ctx, alert); err != nil {
		return err
	}
	metrics.IncAlertGenerated(string(alert.Severity))
	s.publish(ctx, EventCreated, *alert)
	return nil
}

// List returns alerts newest first, optionally filtered by severity.
func (s *Service) List(ctx context.Context, severity string, limit int) ([]alerts.Alert, error) {
	if s == nil {
		return nil, errors.New("alerts: nil service")
	}
	filter := alerts.ListFilter{Limit: limit}
	if severity != "" {
		level, ok := risk.ParseLevel(severity)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSeverity, severity)
		}
		filter.Severity = level
	}
	return s.repo.ListAlerts(ctx, filter.Normalize())
}

// UnreadCount returns the number of unsent alerts.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	if s == nil {
		return 0, errors.New("alerts: nil service")
	}
	return s.repo.CountUnsent(ctx)
}

// MarkSent flags an alert as delivered.
func (s *Service) MarkSent(ctx context.Context, id string) (*alerts.Alert, error) {
	if s == nil {
		return nil, errors.New("alerts: nil service")
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("alerts: alert id required")
	}
	alert, err := s.repo.MarkSent(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, alerts.ErrNotFound
	}
	s.publish(ctx, EventSent, *alert)
	return alert, nil
}

// Clear deletes all alerts and returns how many were removed.
func (s *Service) Clear(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, errors.New("alerts: nil service")
	}
	n, err := s.repo.ClearAlerts(ctx)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, EventCleared, alerts.Alert{})
	s.logger.Info().Int64("count", n).Msg("alerts cleared")
	return n, nil
}

// SendPending texts every unsent High or Critical alert to the operator, oldest first,
// marking each one sent. It stops at the first delivery failure.
func (s *Service) SendPending(ctx context.Context) (SendPendingResult, error) {
	if s == nil {
		return SendPendingResult{}, errors.New("alerts: nil service")
	}
	pending, err := s.repo.ListUnsent(ctx, risk.LevelHigh, risk.LevelCritical)
	if err != nil {
		return SendPendingResult{}, err
	}
	result := SendPendingResult{Pending: len(pending)}
	if s.sms == nil || !s.sms.Configured() || s.operator == "" {
		result.Status = notify.StatusNotConfigured
		result.Message = "SMS credentials or operator number not set."
		return result, nil
	}

	for _, alert := range pending {
		if _, err := s.sms.SendSMS(ctx, s.operator, alert.Message); err != nil {
			s.logger.Error().Err(err).Str("alert_id", alert.ID).Str("area", alert.Area).Msg("pending alert delivery failed")
			metrics.IncNotification(notify.ChannelSMS, string(notify.StatusFailed))
			result.Message = err.Error()
			break
		}
		metrics.IncNotification(notify.ChannelSMS, string(notify.StatusSent))
		if _, err := s.MarkSent(ctx, alert.ID); err != nil {
			return result, fmt.Errorf("alerts: mark sent %s: %w", alert.ID, err)
		}
		result.Sent++
	}

	switch {
	case result.Sent == result.Pending:
		result.Status = notify.StatusSent
	case result.Sent == 0:
		result.Status = notify.StatusFailed
	default:
		result.Status = notify.StatusPartial
	}
	return result, nil
}

func (s *Service) publish(ctx context.Context, eventType string, alert alerts.Alert) {
	metrics.IncAlertEvent(eventType)
	if s.notifier != nil {
		s.notifier.Notify(ctx, AlertEvent{Type: eventType, Alert: alert})
	}
}
