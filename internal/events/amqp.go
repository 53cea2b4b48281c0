package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/Checker-Finance/secrets-manager-sdk/internal/metrics"
	"github.com/Checker-Finance/secrets-manager-sdk/pkg/model"
)

// AMQPChannel is the subset of *amqp.Channel the sink uses.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes events to a RabbitMQ exchange using the subject as the
// routing key.
type AMQPSink struct {
	conn     *amqp.Connection
	channel  AMQPChannel
	closer   func() error
	exchange string
	service  string
}

// DialAMQPSink connects to url and opens a channel.
func DialAMQPSink(url, exchange, service string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	s := NewAMQPSink(ch, exchange, service)
	s.conn = conn
	s.closer = ch.Close
	return s, nil
}

func NewAMQPSink(ch AMQPChannel, exchange, service string) *AMQPSink {
	return &AMQPSink{channel: ch, exchange: exchange, service: service}
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Publish(ctx context.Context, subject string, ev model.SecretOperationEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		metrics.IncError("events", "marshal_failed")
		return err
	}

	start := time.Now()
	err = s.channel.PublishWithContext(ctx,
		s.exchange, // exchange
		subject,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     ev.ID.String(),
			CorrelationId: ev.CorrelationID,
			Timestamp:     ev.Timestamp,
			Type:          ev.EventType,
			AppId:         s.service,
			Body:          body,
		},
	)
	metrics.ObserveDuration(metrics.EventPublishDuration, start, s.Name())
	return err
}

func (s *AMQPSink) Close() error {
	if s.closer != nil {
		_ = s.closer()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
