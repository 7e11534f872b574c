package http

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	alertapp "waterhealth-cloud/internal/alerts/application"
	alerts "waterhealth-cloud/internal/alerts/domain"
	risk "waterhealth-cloud/internal/risk/domain"
)

func createdEvent(t *testing.T, area string, level risk.Level, score float64) alertapp.AlertEvent {
	t.Helper()
	alert, ok := alerts.MakeAlert(area, level, score, 10, time.Now())
	if !ok {
		t.Fatalf("expected alert for %s %s", area, level)
	}
	return alertapp.AlertEvent{Type: alertapp.EventCreated, Alert: alert}
}

func TestBrokerSubscribeAndBroadcast(t *testing.T) {
	broker := NewSSEBroker()
	sub := broker.Subscribe(StreamFilter{})
	if broker.Clients() != 1 {
		t.Fatalf("expected 1 client, got %d", broker.Clients())
	}

	event := createdEvent(t, "Avadi", risk.LevelHigh, 55)
	broker.Notify(context.Background(), event)

	select {
	case frame := <-sub.C:
		if frame.Name != "alert.created" || frame.ID != event.Alert.ID {
			t.Fatalf("unexpected frame %s/%s", frame.Name, frame.ID)
		}
		if !strings.Contains(string(frame.Data), `"area":"Avadi"`) {
			t.Fatalf("unexpected payload %s", frame.Data)
		}
	default:
		t.Fatalf("expected frame on channel")
	}

	broker.Unsubscribe(sub)
	if broker.Clients() != 0 {
		t.Fatalf("expected 0 clients, got %d", broker.Clients())
	}
	broker.Unsubscribe(sub)

	var nilBroker *SSEBroker
	nilBroker.Notify(context.Background(), alertapp.AlertEvent{})
}

func TestBrokerFiltersByAreaAndSeverity(t *testing.T) {
	broker := NewSSEBroker()
	north := broker.Subscribe(StreamFilter{Area: "tondiarpet"})
	critical := broker.Subscribe(StreamFilter{Severity: risk.LevelCritical})

	broker.Notify(context.Background(), createdEvent(t, "Avadi", risk.LevelHigh, 55))
	broker.Notify(context.Background(), createdEvent(t, "Tondiarpet", risk.LevelCritical, 84.5))
	broker.Notify(context.Background(), alertapp.AlertEvent{Type: alertapp.EventCleared})

	drain := func(sub *Subscription) []string {
		var names []string
		for {
			select {
			case frame := <-sub.C:
				names = append(names, frame.Name)
			default:
				return names
			}
		}
	}
	if got := drain(north); len(got) != 2 || got[0] != "alert.created" || got[1] != "alert.cleared" {
		t.Fatalf("area subscriber got %v", got)
	}
	if got := drain(critical); len(got) != 2 || got[0] != "alert.created" || got[1] != "alert.cleared" {
		t.Fatalf("severity subscriber got %v", got)
	}
}

func TestStreamHandlerEmitsAlerts(t *testing.T) {
	broker := NewSSEBroker()
	server := httptest.NewServer(NewStreamHandler(broker))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"?severity=Critical", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "event: ready" {
		t.Fatalf("expected ready event, got %q (%v)", line, err)
	}
	line, _ = reader.ReadString('\n')
	if !strings.Contains(line, `"severity":"Critical"`) {
		t.Fatalf("expected ready data to echo the filter, got %q", line)
	}
	_, _ = reader.ReadString('\n')

	// filtered out: only Critical is subscribed
	broker.Notify(context.Background(), createdEvent(t, "Avadi", risk.LevelHigh, 55))
	event := createdEvent(t, "Tondiarpet", risk.LevelCritical, 84.5)
	broker.Notify(context.Background(), event)

	line, err = reader.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "id: "+event.Alert.ID {
		t.Fatalf("expected id line, got %q (%v)", line, err)
	}
	line, err = reader.ReadString('\n')
	if err != nil || strings.TrimSpace(line) != "event: alert.created" {
		t.Fatalf("expected alert.created event, got %q (%v)", line, err)
	}
	line, err = reader.ReadString('\n')
	if err != nil || !strings.Contains(line, `"area":"Tondiarpet"`) {
		t.Fatalf("expected alert data, got %q (%v)", line, err)
	}
}

func TestStreamHandlerRejectsBadRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	NewStreamHandler(NewSSEBroker()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}

	for _, query := range []string{"?severity=Low", "?severity=critical"} {
		rec = httptest.NewRecorder()
		NewStreamHandler(NewSSEBroker()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/"+query, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", query, rec.Code)
		}
	}
}
