package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waterhealth-cloud/internal/alerts/application"
	alerts "waterhealth-cloud/internal/alerts/domain"
	"waterhealth-cloud/internal/notify"
	risk "waterhealth-cloud/internal/risk/domain"
	"waterhealth-cloud/internal/store/memory"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []application.AlertEvent
}

func (r *recordingNotifier) Notify(_ context.Context, event application.AlertEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type operatorSMS struct {
	configured bool
	failAfter  int
	bodies     []string
	to         []string
}

func (o *operatorSMS) Configured() bool { return o.configured }

func (o *operatorSMS) SendSMS(_ context.Context, to, body string) (string, error) {
	if o.failAfter >= 0 && len(o.bodies) >= o.failAfter {
		return "", errors.New("carrier rejected")
	}
	o.bodies = append(o.bodies, body)
	o.to = append(o.to, to)
	return "SM1", nil
}

var base = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func seedAlerts(t *testing.T, svc *application.Service) []alerts.Alert {
	t.Helper()
	levels := []struct {
		area  string
		level risk.Level
	}{
		{"Avadi", risk.LevelHigh},
		{"Tondiarpet", risk.LevelCritical},
		{"Perambur", risk.LevelHigh},
	}
	out := make([]alerts.Alert, 0, len(levels))
	for i, l := range levels {
		alert, ok := alerts.MakeAlert(l.area, l.level, 60+float64(i), 100, base.Add(time.Duration(i)*time.Minute))
		require.True(t, ok)
		require.NoError(t, svc.AppendAlert(context.Background(), &alert))
		out = append(out, alert)
	}
	return out
}

func TestListFiltersAndOrders(t *testing.T) {
	svc, err := application.NewService(memory.NewStore())
	require.NoError(t, err)
	seeded := seedAlerts(t, svc)
	ctx := context.Background()

	all, err := svc.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, seeded[2].ID, all[0].ID)
	assert.Equal(t, seeded[0].ID, all[2].ID)

	high, err := svc.List(ctx, "High", 0)
	require.NoError(t, err)
	require.Len(t, high, 2)
	for _, a := range high {
		assert.Equal(t, risk.LevelHigh, a.Severity)
	}

	limited, err := svc.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = svc.List(ctx, "severe", 0)
	assert.ErrorIs(t, err, application.ErrInvalidSeverity)
}

func TestMarkSentAndUnreadCount(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, err := application.NewService(memory.NewStore(), application.WithNotifier(notifier))
	require.NoError(t, err)
	seeded := seedAlerts(t, svc)
	ctx := context.Background()

	count, err := svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	alert, err := svc.MarkSent(ctx, seeded[1].ID)
	require.NoError(t, err)
	assert.True(t, alert.Sent)
	assert.Equal(t, seeded[1].Message, alert.Message)

	count, err = svc.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = svc.MarkSent(ctx, "missing")
	assert.ErrorIs(t, err, alerts.ErrNotFound)

	assert.Equal(t, []string{"created", "created", "created", "sent"}, notifier.types())
}

func TestClear(t *testing.T) {
	notifier := &recordingNotifier{}
	svc, err := application.NewService(memory.NewStore(), application.WithNotifier(notifier))
	require.NoError(t, err)
	seedAlerts(t, svc)

	n, err := svc.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	all, err := svc.List(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Equal(t, application.EventCleared, notifier.types()[3])
}

func TestSendPendingDeliversOldestFirst(t *testing.T) {
	sms := &operatorSMS{configured: true, failAfter: -1}
	store := memory.NewStore()
	svc, err := application.NewService(store, application.WithOperatorSMS(sms, "+919811111111"))
	require.NoError(t, err)
	seeded := seedAlerts(t, svc)

	res, err := svc.SendPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notify.StatusSent, res.Status)
	assert.Equal(t, 3, res.Pending)
	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, []string{seeded[0].Message, seeded[1].Message, seeded[2].Message}, sms.bodies)
	assert.Equal(t, "+919811111111", sms.to[0])

	count, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	again, err := svc.SendPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notify.StatusSent, again.Status)
	assert.Zero(t, again.Pending)
}

func TestSendPendingStopsAtFirstFailure(t *testing.T) {
	sms := &operatorSMS{configured: true, failAfter: 1}
	svc, err := application.NewService(memory.NewStore(), application.WithOperatorSMS(sms, "+919811111111"))
	require.NoError(t, err)
	seedAlerts(t, svc)

	res, err := svc.SendPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notify.StatusPartial, res.Status)
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, "carrier rejected", res.Message)

	count, err := svc.UnreadCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSendPendingNotConfigured(t *testing.T) {
	svc, err := application.NewService(memory.NewStore(), application.WithOperatorSMS(&operatorSMS{configured: true}, ""))
	require.NoError(t, err)
	seedAlerts(t, svc)

	res, err := svc.SendPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, notify.StatusNotConfigured, res.Status)
	assert.Equal(t, 3, res.Pending)
	assert.Zero(t, res.Sent)
}

func TestNewServiceRequiresRepository(t *testing.T) {
	_, err := application.NewService(nil)
	assert.Error(t, err)
}
