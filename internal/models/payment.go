package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PaymentEvent is an audit row for a gateway-reported event. Rows are only
// ever inserted.
type PaymentEvent struct {
	ID               uuid.UUID           `gorm:"type:uuid;primary_key" json:"id"`
	EventType        string              `gorm:"not null" json:"eventType"`
	PaymentID        *string             `gorm:"index" json:"paymentId,omitempty"`
	OrderID          *string             `json:"orderId,omitempty"`
	Amount           decimal.NullDecimal `gorm:"type:numeric(12,2)" json:"amount"`
	Currency         *string             `json:"currency,omitempty"`
	ErrorCode        *string             `json:"errorCode,omitempty"`
	ErrorDescription *string             `json:"errorDescription,omitempty"`
	RawPayload       datatypes.JSON      `gorm:"type:text;not null" json:"rawPayload"`
	CreatedAt        time.Time           `json:"createdAt"`
}

func (event *PaymentEvent) BeforeCreate(tx *gorm.DB) (err error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	return
}
