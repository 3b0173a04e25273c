package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: EventSessionState, Data: map[string]string{"node_id": "a"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: session.state") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"node_id":"a"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestDataEvents_StatsThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First data event should trigger stats.updated.
	b.Notify(EventRecordAdded, map[string]string{"node_id": "a"})
	// Second event immediately should NOT trigger another stats.updated.
	b.Notify(EventTreeUpdated, map[string]string{})
	// Ticks never invalidate statistics.
	b.Notify(EventSessionTick, map[string]int{"elapsed": 1})

	// Drain and count events.
	time.Sleep(50 * time.Millisecond)
	statsCount := 0
	otherCount := 0
loop:
	for {
		select {
		case msg := <-ch:
			s := string(msg)
			if strings.Contains(s, "event: stats.updated") {
				statsCount++
			} else {
				otherCount++
			}
		default:
			break loop
		}
	}

	if otherCount != 3 {
		t.Errorf("events = %d, want 3", otherCount)
	}
	if statsCount != 1 {
		t.Errorf("stats events = %d, want 1 (throttled)", statsCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	// Start handler in background.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.Publish(Event{Type: EventTreeUpdated, Data: map[string]string{"id": "root"}})
	time.Sleep(50 * time.Millisecond)

	// Cancel context to disconnect.
	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: tree.updated") {
		t.Errorf("handler output missing event: %q", body)
	}

	// Client should be cleaned up.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64) and then one more should not block.
	for i := 0; i < 70; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	// If we reach here without deadlock, the test passes.
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Should be safe no-op after close.
	b.Publish(Event{Type: EventTreeUpdated, Data: map[string]string{}})
	b.Notify(EventRecordAdded, nil)
}

func drain(ch chan []byte, wait time.Duration) []string {
	var out []string
	deadline := time.After(wait)
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		case <-deadline:
			return out
		}
	}
}

func TestTrailingStatsAfterBurst(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Notify(EventRecordAdded, map[string]string{"node_id": "a"})
	b.Notify(EventRecordAdded, map[string]string{"node_id": "b"})
	b.Notify(EventTreeUpdated, map[string]string{})

	stats := 0
	for _, msg := range drain(ch, 300*time.Millisecond) {
		if strings.Contains(msg, "event: stats.updated") {
			stats++
		}
	}
	if stats != 2 {
		t.Errorf("stats events = %d, want leading and trailing", stats)
	}
}

func TestFramesCarrySequenceIDs(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Notify(EventSessionState, map[string]string{"state": "running"})
	b.Notify(EventSessionState, map[string]string{"state": "paused"})

	msgs := drain(ch, 50*time.Millisecond)
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want 2", len(msgs))
	}
	if !strings.HasPrefix(msgs[0], "id: 1\n") || !strings.HasPrefix(msgs[1], "id: 2\n") {
		t.Errorf("ids = %q, %q", msgs[0], msgs[1])
	}
}

func TestReplayAfterLastEventID(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	b.Notify(EventSessionState, map[string]string{"state": "running"}) // id 1
	b.Notify(EventSessionTick, map[string]int{"elapsed": 1})          // id 2, not retained
	b.Notify(EventSessionState, map[string]string{"state": "paused"})  // id 3

	// Publish is asynchronous; wait until the loop has seen all three.
	probe := b.Subscribe()
	b.Notify(EventSettingsUpdated, map[string]string{}) // id 4
	drain(probe, 50*time.Millisecond)
	b.Unsubscribe(probe)

	ch := b.SubscribeAfter(1)
	defer b.Unsubscribe(ch)
	msgs := drain(ch, 50*time.Millisecond)
	if len(msgs) != 2 {
		t.Fatalf("replayed %d messages, want 2: %q", len(msgs), msgs)
	}
	if !strings.HasPrefix(msgs[0], "id: 3\n") || !strings.HasPrefix(msgs[1], "id: 4\n") {
		t.Errorf("replay = %q", msgs)
	}
}

func TestSSEHandler_LastEventIDHeader(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	b.Notify(EventTreeUpdated, map[string]int{"nodes": 1})
	b.Notify(EventTreeUpdated, map[string]int{"nodes": 2})

	probe := b.Subscribe()
	b.Notify(EventSettingsUpdated, map[string]string{})
	drain(probe, 50*time.Millisecond)
	b.Unsubscribe(probe)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "2")
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.HasPrefix(body, "retry: ") {
		t.Errorf("missing retry hint: %q", body)
	}
	if strings.Contains(body, `"nodes":1`) {
		t.Errorf("replayed an event the client already had: %q", body)
	}
	if !strings.Contains(body, `"nodes":2`) || !strings.Contains(body, "event: settings.updated") {
		t.Errorf("missing replayed events: %q", body)
	}
}
