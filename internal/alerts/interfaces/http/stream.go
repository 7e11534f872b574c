package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	alertapp "waterhealth-cloud/internal/alerts/application"
	risk "waterhealth-cloud/internal/risk/domain"
)

const subscriberBuffer = 16

// StreamFilter narrows a subscription. Zero fields match everything.
// Cleared events carry no area and always pass.
type StreamFilter struct {
	Area     string
	Severity risk.Level
}

func (f StreamFilter) matches(event alertapp.AlertEvent) bool {
	if event.Type == alertapp.EventCleared {
		return true
	}
	if f.Area != "" && !strings.EqualFold(f.Area, event.Alert.Area) {
		return false
	}
	if f.Severity != "" && f.Severity != event.Alert.Severity {
		return false
	}
	return true
}

// StreamEvent is one frame queued for a subscriber.
type StreamEvent struct {
	ID   string
	Name string
	Data []byte
}

// Subscription receives the alert events matching its filter.
type Subscription struct {
	C      <-chan StreamEvent
	ch     chan StreamEvent
	filter StreamFilter
}

// SSEBroker fans alert lifecycle events out to stream subscribers.
type SSEBroker struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

// NewSSEBroker constructs a broker.
func NewSSEBroker() *SSEBroker {
	return &SSEBroker{subs: make(map[*Subscription]struct{})}
}

// Notify implements AlertNotifier.
func (b *SSEBroker) Notify(_ context.Context, event alertapp.AlertEvent) {
	if b == nil {
		return
	}
	var (
		data []byte
		err  error
	)
	if event.Type == alertapp.EventCleared {
		data = []byte("{}")
	} else {
		data, err = json.Marshal(event.Alert)
		if err != nil {
			return
		}
	}
	frame := StreamEvent{ID: event.Alert.ID, Name: "alert." + event.Type, Data: data}

	b.mu.Lock()
	defer b.mu.Unlock()
	for sub := range b.subs {
		if !sub.filter.matches(event) {
			continue
		}
		// slow subscribers miss frames rather than block recalculation
		select {
		case sub.ch <- frame:
		default:
		}
	}
}

// Subscribe registers a subscriber for events matching filter.
func (b *SSEBroker) Subscribe(filter StreamFilter) *Subscription {
	if b == nil {
		return nil
	}
	ch := make(chan StreamEvent, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, filter: filter}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes sub and closes its channel. Repeated calls are no-ops.
func (b *SSEBroker) Unsubscribe(sub *Subscription) {
	if b == nil || sub == nil {
		return
	}
	b.mu.Lock()
	_, ok := b.subs[sub]
	delete(b.subs, sub)
	b.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Clients returns the number of connected subscribers.
func (b *SSEBroker) Clients() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// StreamHandler serves the SSE alert stream.
type StreamHandler struct {
	broker *SSEBroker
}

// NewStreamHandler constructs a stream handler.
func NewStreamHandler(broker *SSEBroker) *StreamHandler {
	return &StreamHandler{broker: broker}
}

// ServeHTTP handles GET /api/v1/alerts/stream[?area=&severity=].
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.broker == nil {
		http.Error(w, "stream not ready", http.StatusServiceUnavailable)
		return
	}
	filter, err := parseStreamFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := h.broker.Subscribe(filter)
	defer h.broker.Unsubscribe(sub)

	ready, _ := json.Marshal(map[string]string{"area": filter.Area, "severity": string(filter.Severity)})
	writeFrame(w, StreamEvent{Name: "ready", Data: ready})
	flusher.Flush()

	done := r.Context().Done()
	for {
		select {
		case frame, ok := <-sub.C:
			if !ok {
				return
			}
			writeFrame(w, frame)
			flusher.Flush()
		case <-done:
			return
		}
	}
}

func parseStreamFilter(r *http.Request) (StreamFilter, error) {
	query := r.URL.Query()
	filter := StreamFilter{Area: strings.TrimSpace(query.Get("area"))}
	if raw := strings.TrimSpace(query.Get("severity")); raw != "" {
		level, ok := risk.ParseLevel(raw)
		if !ok || !level.Alerting() {
			return StreamFilter{}, fmt.Errorf("severity must be High or Critical, got %q", raw)
		}
		filter.Severity = level
	}
	return filter, nil
}

func writeFrame(w http.ResponseWriter, frame StreamEvent) {
	if frame.ID != "" {
		_, _ = fmt.Fprintf(w, "id: %s\n", frame.ID)
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", frame.Name, frame.Data)
}
