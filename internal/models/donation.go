// Package models holds the persisted types. Importing it makes decimal
// amounts encode as JSON numbers process-wide.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DonationType string

const (
	DonationTypeOneTime  DonationType = "one-time"
	DonationTypeMonthly  DonationType = "monthly"
	DonationTypeCampaign DonationType = "campaign"
)

func (t DonationType) Valid() bool {
	switch t {
	case DonationTypeOneTime, DonationTypeMonthly, DonationTypeCampaign:
		return true
	}
	return false
}

// DonationSource records which path first wrote the row.
type DonationSource string

const (
	SourceCheckout DonationSource = "checkout"
	SourceWebhook  DonationSource = "webhook"
	SourceManual   DonationSource = "manual"
)

const AnonymousDonor = "Anonymous"

// init sets decimal.MarshalJSONWithoutQuotes for the whole process so every
// amount this service writes, in API responses and ledger events alike, is a
// JSON number. The models package owns this setting; nothing else sets it.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

type Donation struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	DonorName        string          `gorm:"not null;default:'Anonymous'" json:"donorName"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency         string          `gorm:"not null;default:'INR'" json:"currency"`
	PaymentID        *string         `gorm:"uniqueIndex:idx_donations_payment_id" json:"paymentId,omitempty"`
	OrderID          *string         `json:"orderId,omitempty"`
	Type             DonationType    `gorm:"not null;default:'one-time'" json:"type"`
	Campaign         *string         `json:"campaign,omitempty"`
	ReceiptGenerated bool            `gorm:"not null;default:false" json:"receiptGenerated"`
	WebhookVerified  bool            `gorm:"not null;default:false" json:"webhookVerified"`
	Source           DonationSource  `gorm:"not null;default:'checkout'" json:"source"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

func (donation *Donation) BeforeCreate(tx *gorm.DB) (err error) {
	if donation.ID == uuid.Nil {
		donation.ID = uuid.New()
	}
	if donation.DonorName == "" {
		donation.DonorName = AnonymousDonor
	}
	if donation.Type == "" {
		donation.Type = DonationTypeOneTime
	}
	return
}

// PaymentIDValue returns the payment id or "" for manual entries.
func (donation *Donation) PaymentIDValue() string {
	if donation.PaymentID == nil {
		return ""
	}
	return *donation.PaymentID
}

func (donation *Donation) CampaignValue() string {
	if donation.Campaign == nil {
		return ""
	}
	return *donation.Campaign
}
