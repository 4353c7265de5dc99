package broadcast

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

type recordingTransport struct {
	events chan Event
	err    error
}

func (t *recordingTransport) Publish(_ context.Context, channel, name string, payload map[string]any) error {
	t.events <- Event{Name: name, Channel: channel, Payload: payload}
	return t.err
}

func TestBroadcaster_Delivers(t *testing.T) {
	rec := &recordingTransport{events: make(chan Event, 1)}
	b := New(rec, time.Second, zap.NewNop())

	b.Publish(Event{
		Name:    "answer.accepted",
		Channel: "private-question.1",
		Payload: NewPayload(int64(10), "use copy", "owner", "Alice"),
	})

	select {
	case got := <-rec.events:
		if got.Name != "answer.accepted" || got.Channel != "private-question.1" {
			t.Fatalf("unexpected event: %+v", got)
		}
		if got.Payload["actor_id"] != "owner" {
			t.Fatalf("expected actor in payload, got %v", got.Payload)
		}
		if _, err := time.Parse(time.RFC3339, got.Payload["occurred_at"].(string)); err != nil {
			t.Fatalf("occurred_at not RFC3339: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("event never delivered")
	}
}

// Transport failures are logged, never surfaced, and never panic.
func TestBroadcaster_FailureSwallowed(t *testing.T) {
	rec := &recordingTransport{events: make(chan Event, 1), err: errors.New("transport down")}
	b := New(rec, time.Second, zap.NewNop())

	b.Publish(Event{Name: "reaction.updated", Channel: "private-answer.7"})
	select {
	case <-rec.events:
	case <-time.After(time.Second):
		t.Fatal("event never attempted")
	}
}

func TestBroadcaster_NilSafe(t *testing.T) {
	var b *Broadcaster
	b.Publish(Event{Name: "x"})

	b = New(nil, time.Second, zap.NewNop())
	b.Publish(Event{Name: "x"})
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short", 120); got != "short" {
		t.Fatalf("got %q", got)
	}
	long := strings.Repeat("ж", 200)
	got := Excerpt(long, 120)
	if len([]rune(got)) != 121 {
		t.Fatalf("expected 120 runes plus ellipsis, got %d", len([]rune(got)))
	}
}

func TestTransportInterfaces(t *testing.T) {
	var _ Transport = (*NATSTransport)(nil)
	var _ Transport = (*LogTransport)(nil)
}
