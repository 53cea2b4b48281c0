package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/model"
)

// JetStreamPublisher is the subset of nats.JetStreamContext the sink uses.
type JetStreamPublisher interface {
	PublishMsg(m *nats.Msg, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSSink publishes events to JetStream.
type NATSSink struct {
	nc      *nats.Conn
	js      JetStreamPublisher
	service string
}

// NewNATSSink enables JetStream on nc.
func NewNATSSink(nc *nats.Conn, service string) (*NATSSink, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, err
	}
	return &NATSSink{nc: nc, js: js, service: service}, nil
}

// NewNATSSinkFromJetStream wraps an existing publisher.
func NewNATSSinkFromJetStream(js JetStreamPublisher, service string) *NATSSink {
	return &NATSSink{js: js, service: service}
}

func (s *NATSSink) Name() string { return "nats" }

func (s *NATSSink) Publish(_ context.Context, subject string, ev model.SecretOperationEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		metrics.IncError("events", "marshal_failed")
		return err
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":     []string{ev.EventType},
			"event_id":       []string{ev.ID.String()},
			"correlation_id": []string{ev.CorrelationID},
			"service":        []string{s.service},
			"content_type":   []string{"application/json"},
		},
	}

	start := time.Now()
	_, err = s.js.PublishMsg(msg)
	metrics.ObserveDuration(metrics.EventPublishDuration, start, s.Name())
	return err
}

func (s *NATSSink) Close() {
	if s.nc != nil && s.nc.IsConnected() {
		s.nc.Close()
	}
}
