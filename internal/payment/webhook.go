package payment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

type EventKind string

const (
	EventPaymentCaptured EventKind = "payment.captured"
	EventPaymentFailed   EventKind = "payment.failed"
	EventRefundProcessed EventKind = "refund.processed"
	EventOrderPaid       EventKind = "order.paid"
	// EventUnhandled covers every event name we do not act on.
	EventUnhandled EventKind = "unhandled"
)

func ParseEventKind(name string) EventKind {
	switch EventKind(name) {
	case EventPaymentCaptured, EventPaymentFailed, EventRefundProcessed, EventOrderPaid:
		return EventKind(name)
	}
	return EventUnhandled
}

// Notes are the free-form key/values attached to an order. Razorpay sends an
// empty JSON array instead of an object when there are none.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(data []byte) error {
	*n = Notes{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		switch v := value.(type) {
		case nil:
		case string:
			(*n)[key] = v
		default:
			(*n)[key] = fmt.Sprint(v)
		}
	}
	return nil
}

// Get returns the note or fallback when it is absent or blank.
func (n Notes) Get(key, fallback string) string {
	if v, ok := n[key]; ok && v != "" {
		return v
	}
	return fallback
}

type PaymentEntity struct {
	ID               string  `json:"id"`
	OrderID          string  `json:"order_id"`
	Amount           int64   `json:"amount"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
	Notes            Notes   `json:"notes"`
	ErrorCode        *string `json:"error_code"`
	ErrorDescription *string `json:"error_description"`
}

type RefundEntity struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
}

type OrderEntity struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type WebhookEvent struct {
	Name    string
	Kind    EventKind
	Payment *PaymentEntity
	Refund  *RefundEntity
	Order   *OrderEntity
}

type envelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment *struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
		Refund *struct {
			Entity RefundEntity `json:"entity"`
		} `json:"refund"`
		Order *struct {
			Entity OrderEntity `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

var ErrMalformedEvent = errors.New("malformed webhook event")

// ParseWebhookEvent decodes a verified webhook body.
func ParseWebhookEvent(raw []byte) (*WebhookEvent, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("%w: missing event name", ErrMalformedEvent)
	}

	event := &WebhookEvent{
		Name: env.Event,
		Kind: ParseEventKind(env.Event),
	}
	if env.Payload.Payment != nil {
		event.Payment = &env.Payload.Payment.Entity
	}
	if env.Payload.Refund != nil {
		event.Refund = &env.Payload.Refund.Entity
	}
	if env.Payload.Order != nil {
		event.Order = &env.Payload.Order.Entity
	}

	switch event.Kind {
	case EventPaymentCaptured, EventPaymentFailed:
		if event.Payment == nil || event.Payment.ID == "" {
			return nil, fmt.Errorf("%w: %s without payment entity", ErrMalformedEvent, env.Event)
		}
	case EventRefundProcessed:
		if event.Refund == nil || event.Refund.PaymentID == "" {
			return nil, fmt.Errorf("%w: %s without refund entity", ErrMalformedEvent, env.Event)
		}
	}

	return event, nil
}
