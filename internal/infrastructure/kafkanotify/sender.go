package kafkanotify

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-saga/internal/domain/notification"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	headerType    = "notification_type"
	headerChannel = "channel"
)

// Writer is the part of *kafka.Writer the sender needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

// Sender hands notifications to the delivery workers through a Kafka topic.
// Messages are keyed by customer so one customer's notifications stay in order.
type Sender struct {
	w Writer
}

func NewSender(w Writer) *Sender {
	return &Sender{w: w}
}

func (s *Sender) Send(ctx context.Context, m domain.Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("kafkanotify: marshal: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(m.CustomerID),
		Value: payload,
		Headers: injectTrace(ctx, []kafka.Header{
			{Key: headerType, Value: []byte(m.Type)},
			{Key: headerChannel, Value: []byte(m.Channel)},
		}),
	}
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafkanotify: write: %w", err)
	}
	return nil
}

func (s *Sender) Close() error {
	return s.w.Close()
}

func injectTrace(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
