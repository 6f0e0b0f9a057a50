package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/farellandr/donatrack/internal/metrics"
	"github.com/farellandr/donatrack/internal/models"
)

type EventType string

const (
	DonationRecorded  EventType = "donation.recorded"
	DonationConfirmed EventType = "donation.confirmed"
	DonationRefunded  EventType = "donation.refunded"
)

const (
	DefaultBatchSize    = 100
	DefaultBatchTimeout = 100 * time.Millisecond
)

type LedgerEvent struct {
	ID              uuid.UUID       `json:"id"`
	Type            EventType       `json:"type"`
	DonationID      *uuid.UUID      `json:"donationId,omitempty"`
	PaymentID       string          `json:"paymentId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	DonorName       string          `json:"donorName,omitempty"`
	WebhookVerified bool            `json:"webhookVerified"`
	OccurredAt      time.Time       `json:"occurredAt"`
}

// DonationEvent builds an event describing the stored donation.
func DonationEvent(eventType EventType, donation *models.Donation) LedgerEvent {
	id := donation.ID
	return LedgerEvent{
		ID:              uuid.New(),
		Type:            eventType,
		DonationID:      &id,
		PaymentID:       donation.PaymentIDValue(),
		Amount:          donation.Amount,
		Currency:        donation.Currency,
		DonorName:       donation.DonorName,
		WebhookVerified: donation.WebhookVerified,
		OccurredAt:      time.Now().UTC(),
	}
}

// RefundEvent builds an event for a processed refund. The donation row is
// not consulted.
func RefundEvent(paymentID string, amount decimal.Decimal, currency string) LedgerEvent {
	return LedgerEvent{
		ID:         uuid.New(),
		Type:       DonationRefunded,
		PaymentID:  paymentID,
		Amount:     amount,
		Currency:   currency,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
	Close() error
}

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer MessageWriter
}

func NewWriter(brokers, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(SplitBrokers(brokers)...),
		Topic:                  topic,
		Balancer:               &kafka.ReferenceHash{},
		BatchSize:              DefaultBatchSize,
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           DefaultBatchTimeout,
		Async:                  false,
		AllowAutoTopicCreation: false,
	}
}

func NewKafkaPublisher(writer MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// NewPublisher returns a Kafka publisher, or a NopPublisher when no brokers
// are configured.
func NewPublisher(brokers, topic string) Publisher {
	if len(SplitBrokers(brokers)) == 0 {
		return NopPublisher{}
	}
	return NewKafkaPublisher(NewWriter(brokers, topic))
}

func (p *KafkaPublisher) Publish(ctx context.Context, event LedgerEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		metrics.EventsPublishFailed.Inc()
		return errors.Wrapf(err, "marshal %s event", event.Type)
	}

	// payment id as key keeps events of one payment on one partition
	msg := kafka.Message{
		Key:   []byte(event.PaymentID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		metrics.EventsPublishFailed.Inc()
		return errors.Wrapf(err, "publish %s event for %s", event.Type, event.PaymentID)
	}

	metrics.EventsPublished.Inc()
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LedgerEvent) error { return nil }

func (NopPublisher) Close() error { return nil }

func SplitBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
