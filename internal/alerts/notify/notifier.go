package notify

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	alertapp "waterhealth-cloud/internal/alerts/application"
	alerts "waterhealth-cloud/internal/alerts/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

type sendRecord struct {
	at   time.Time
	hash string
}

// Notifier renders new alerts and pushes them to a channel.
// Repeated alerts for the same area and severity can be throttled.
type Notifier struct {
	channel      Channel
	template     *Template
	clock        clockwork.Clock
	logger       zerolog.Logger
	mu           sync.Mutex
	sent         map[string]sendRecord
	cooldown     time.Duration
	dedupeWindow time.Duration
}

// Option configures the notifier.
type Option func(*Notifier)

// WithClock overrides the default clock.
func WithClock(clock clockwork.Clock) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// WithCooldown sets a minimum interval between notifications for the same area and severity.
func WithCooldown(interval time.Duration) Option {
	return func(n *Notifier) {
		if interval > 0 {
			n.cooldown = interval
		}
	}
}

// WithDedupeWindow suppresses identical notifications within the window.
func WithDedupeWindow(window time.Duration) Option {
	return func(n *Notifier) {
		if window > 0 {
			n.dedupeWindow = window
		}
	}
}

// NewNotifier constructs an alert notifier.
func NewNotifier(channel Channel, template *Template, opts ...Option) (*Notifier, error) {
	if channel == nil {
		return nil, errors.New("alert notifier: nil channel")
	}
	if template == nil {
		defaultTemplate, err := NewTemplate("")
		if err != nil {
			return nil, err
		}
		template = defaultTemplate
	}
	n := &Notifier{
		channel:  channel,
		template: template,
		clock:    clockwork.NewRealClock(),
		logger:   zerolog.Nop(),
		sent:     make(map[string]sendRecord),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify implements AlertNotifier. Only newly created alerts are pushed.
func (n *Notifier) Notify(ctx context.Context, event alertapp.AlertEvent) {
	if n == nil || n.channel == nil {
		return
	}
	if event.Type != alertapp.EventCreated {
		return
	}
	content, err := n.template.Render(buildTemplateData(event))
	if err != nil {
		n.logger.Error().Err(err).Msg("alert template render failed")
		return
	}
	key := notificationKey(event.Alert)
	if !n.shouldSend(key, content) {
		n.logger.Debug().Str("area", event.Alert.Area).Msg("alert notification throttled")
		return
	}
	msg := Message{
		AlertID:  event.Alert.ID,
		Event:    event.Type,
		Area:     event.Alert.Area,
		Severity: string(event.Alert.Severity),
		RaisedAt: event.Alert.CreatedAt.UTC(),
		Text:     content,
	}
	if err := n.channel.Send(ctx, msg); err != nil {
		n.logger.Error().Err(err).Str("alert_id", event.Alert.ID).Msg("alert notification failed")
		return
	}
	n.markSent(key, content)
}

func buildTemplateData(event alertapp.AlertEvent) TemplateData {
	alert := event.Alert
	return TemplateData{
		AlertID:    alert.ID,
		Area:       alert.Area,
		Severity:   string(alert.Severity),
		Message:    alert.Message,
		CreatedAt:  alert.CreatedAt.UTC().Format(time.RFC3339),
		Suggestion: suggestionFor(alert.Severity),
		Event:      event.Type,
		EventLabel: eventLabel(event.Type),
	}
}

func eventLabel(event string) string {
	switch event {
	case alertapp.EventCreated:
		return "Raised"
	case alertapp.EventSent:
		return "Delivered"
	case alertapp.EventCleared:
		return "Cleared"
	default:
		return event
	}
}

func suggestionFor(level risk.Level) string {
	switch level {
	case risk.LevelCritical:
		return "Activate rapid response and issue a boil-water advisory now."
	case risk.LevelHigh:
		return "Dispatch water testing and step up case surveillance."
	default:
		return "Monitor the area."
	}
}

func (n *Notifier) shouldSend(key, content string) bool {
	if n.cooldown <= 0 && n.dedupeWindow <= 0 {
		return true
	}
	now := n.clock.Now().UTC()
	hash := hashContent(content)

	n.mu.Lock()
	record, ok := n.sent[key]
	n.mu.Unlock()
	if !ok {
		return true
	}
	if n.cooldown > 0 && now.Sub(record.at) < n.cooldown {
		return false
	}
	if n.dedupeWindow > 0 && record.hash == hash && now.Sub(record.at) < n.dedupeWindow {
		return false
	}
	return true
}

func (n *Notifier) markSent(key, content string) {
	n.mu.Lock()
	n.sent[key] = sendRecord{
		at:   n.clock.Now().UTC(),
		hash: hashContent(content),
	}
	n.mu.Unlock()
}

func notificationKey(alert alerts.Alert) string {
	return alert.Area + "|" + string(alert.Severity)
}

func hashContent(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:8])
}
