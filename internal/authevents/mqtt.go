package authevents

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/teleinformatics/campus-core/internal/auth"
	"github.com/teleinformatics/campus-core/internal/infrastructure/mqtt"
)

// Publisher is the subset of *mqtt.Client the MQTT sink needs.
type Publisher interface {
	Topics() mqtt.Topics
	PublishEvent(topic string, payload []byte) error
}

// MQTTSink publishes each event as JSON on the broker.
type MQTTSink struct {
	pub    Publisher
	logger *slog.Logger
}

// NewMQTTSink creates an MQTT sink.
func NewMQTTSink(pub Publisher, logger *slog.Logger) *MQTTSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &MQTTSink{pub: pub, logger: logger}
}

// Record publishes ev. Publish failures are logged and swallowed.
func (s *MQTTSink) Record(_ context.Context, ev auth.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("encoding auth event", "kind", ev.Kind, "error", err)
		return
	}

	topic := s.pub.Topics().AuthEvent(string(ev.Kind))
	if err := s.pub.PublishEvent(topic, payload); err != nil {
		s.logger.Debug("auth event not published", "topic", topic, "error", err)
	}
}
