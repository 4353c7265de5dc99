// Package broadcast publishes domain events to live subscribers over a
// pluggable transport. Delivery is best-effort, at-most-once: a broadcast
// failure must never roll back the mutation that triggered it.
package broadcast

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Event is one domain notification. Payload shape is versioned per event
// name and identical across transports.
type Event struct {
	Name    string         `json:"name"`
	Channel string         `json:"channel"`
	Payload map[string]any `json:"payload"`
}

// Transport delivers an event to a channel. Implementations are selected by
// configuration at startup; the engine never branches on which is active.
type Transport interface {
	Publish(ctx context.Context, channel, name string, payload map[string]any) error
}

// Broadcaster is a fire-and-forget publisher. Publish returns immediately;
// the transport call runs on its own goroutine with its own short deadline,
// independent of the request that triggered it.
type Broadcaster struct {
	transport Transport
	timeout   time.Duration
	log       *zap.Logger
}

func New(transport Transport, timeout time.Duration, log *zap.Logger) *Broadcaster {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Broadcaster{transport: transport, timeout: timeout, log: log}
}

func (b *Broadcaster) Publish(event Event) {
	if b == nil || b.transport == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		if err := b.transport.Publish(ctx, event.Channel, event.Name, event.Payload); err != nil {
			b.log.Warn("broadcast publish failed",
				zap.String("event", event.Name),
				zap.String("channel", event.Channel),
				zap.Error(err))
		}
	}()
}

// NewPayload builds the flat payload every event carries: entity id, a short
// excerpt, the actor, and an ISO-8601 timestamp.
func NewPayload(entityID any, excerpt, actorID, actorName string) map[string]any {
	return map[string]any{
		"id":          entityID,
		"excerpt":     Excerpt(excerpt, 120),
		"actor_id":    actorID,
		"actor_name":  actorName,
		"occurred_at": time.Now().UTC().Format(time.RFC3339),
	}
}

// Excerpt truncates s to at most n runes.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
