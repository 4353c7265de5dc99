package broadcast

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport writes events to the service log. Local development driver.
type LogTransport struct {
	Log *zap.Logger
}

func NewLogTransport(log *zap.Logger) *LogTransport {
	return &LogTransport{Log: log}
}

func (t *LogTransport) Publish(_ context.Context, channel, name string, payload map[string]any) error {
	t.Log.Info("event",
		zap.String("channel", channel),
		zap.String("name", name),
		zap.Any("payload", payload))
	return nil
}
