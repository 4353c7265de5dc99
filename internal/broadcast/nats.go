package broadcast

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
)

// NATSTransport publishes events as JSON onto NATS subjects. The channel
// name is the subject; the event name travels inside the message so every
// transport sees the same payload shape.
type NATSTransport struct {
	Conn *nats.Conn
}

func NewNATSTransport(nc *nats.Conn) *NATSTransport {
	return &NATSTransport{Conn: nc}
}

type natsMessage struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload"`
}

func (t *NATSTransport) Publish(ctx context.Context, channel, name string, payload map[string]any) error {
	data, err := json.Marshal(natsMessage{Name: name, Payload: payload})
	if err != nil {
		return err
	}
	if err := t.Conn.Publish(channel, data); err != nil {
		return err
	}
	// Publish is buffered; flush within the caller's deadline so a dead
	// server surfaces as an error here, not silently.
	return t.Conn.FlushWithContext(ctx)
}
