package notify

import (
	"context"

	alertapp "waterhealth-cloud/internal/alerts/application"
)

// MultiNotifier dispatches alert events to multiple notifiers.
type MultiNotifier struct {
	notifiers []alertapp.AlertNotifier
}

// NewMultiNotifier constructs a MultiNotifier.
func NewMultiNotifier(notifiers ...alertapp.AlertNotifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers}
}

// Add appends a notifier.
func (m *MultiNotifier) Add(notifier alertapp.AlertNotifier) {
	if m == nil || notifier == nil {
		return
	}
	m.notifiers = append(m.notifiers, notifier)
}

// Notify forwards events to all notifiers.
func (m *MultiNotifier) Notify(ctx context.Context, event alertapp.AlertEvent) {
	if m == nil {
		return
	}
	for _, notifier := range m.notifiers {
		if notifier != nil {
			notifier.Notify(ctx, event)
		}
	}
}
