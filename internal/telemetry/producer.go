package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-storefront/internal/models"
)

// CheckoutEvent is the wire shape streamed for every finished checkout,
// success or failure.
type CheckoutEvent struct {
	Type       string    `json:"type"`
	Reference  string    `json:"reference,omitempty"`
	EventSlug  string    `json:"event_slug"`
	TicketKind string    `json:"ticket_kind,omitempty"`
	Redirected bool      `json:"redirected,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{Writer: writer}
}

// PublishCheckoutCompleted streams a successful purchase to Kafka.
func (p *Producer) PublishCheckoutCompleted(rec models.PurchaseRecord) error {
	event := CheckoutEvent{
		Type:       "checkout_completed",
		Reference:  rec.Reference,
		EventSlug:  rec.EventSlug,
		TicketKind: string(rec.TicketKind),
		Redirected: rec.Redirected,
		OccurredAt: time.Now(),
	}
	return p.publish(rec.Reference, event)
}

// PublishCheckoutFailed streams a classified checkout failure to Kafka.
func (p *Producer) PublishCheckoutFailed(eventSlug string, kind, message string) error {
	event := CheckoutEvent{
		Type:       "checkout_failed",
		EventSlug:  eventSlug,
		ErrorKind:  kind,
		Message:    message,
		OccurredAt: time.Now(),
	}
	return p.publish(eventSlug, event)
}

func (p *Producer) publish(key string, event CheckoutEvent) error {
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(context.Background(),
		kafka.Message{
			Key:   []byte(key),
			Value: msgBytes,
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// EnsureTopicExists creates the telemetry topic if the broker doesn't
// already have it. Failures are left to the caller to log; the storefront
// runs fine without the stream.
func EnsureTopicExists(brokers []string, topic string) error {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return err
	}
	controllerConn, err := kafka.Dial("tcp", controller.Host)
	if err != nil {
		return err
	}
	defer controllerConn.Close()

	return controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
