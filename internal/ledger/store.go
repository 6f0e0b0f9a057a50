package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/farellandr/donatrack/internal/models"
)

var (
	ErrNotFound = errors.New("donation not found")
	// ErrDuplicatePayment is returned by manual entry when the payment id is
	// already on the ledger.
	ErrDuplicatePayment = errors.New("donation with this payment id already exists")
)

// Store is the donation ledger. Every write keyed by payment id is a single
// conditional statement so the checkout and webhook paths can race freely.
type Store interface {
	// RecordCheckout inserts a browser-confirmed donation. If the payment id is
	// already present the stored row is returned unchanged.
	RecordCheckout(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	// ConfirmCapture inserts a webhook-confirmed donation, or only sets
	// webhook_verified on the existing row. created reports whether this call
	// inserted the row.
	ConfirmCapture(ctx context.Context, donation *models.Donation) (stored *models.Donation, created bool, err error)
	RecordManual(ctx context.Context, donation *models.Donation) (*models.Donation, error)
	AppendEvent(ctx context.Context, event *models.PaymentEvent) error

	Get(ctx context.Context, id uuid.UUID) (*models.Donation, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Donation, error)
	List(ctx context.Context) ([]models.Donation, error)
	ListEvents(ctx context.Context, paymentID string) ([]models.PaymentEvent, error)
	MarkReceiptGenerated(ctx context.Context, id uuid.UUID) (*models.Donation, error)
	Stats(ctx context.Context) (*Stats, error)
}

type Stats struct {
	TotalDonations  int64           `json:"totalDonations"`
	TotalRaised     decimal.Decimal `json:"totalRaised"`
	WebhookVerified int64           `json:"webhookVerified"`
	RefundedTotal   decimal.Decimal `json:"refundedTotal"`
	FailedPayments  int64           `json:"failedPayments"`
}

type GormStore struct {
	db      *gorm.DB
	nowFunc func() time.Time
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db, nowFunc: time.Now}
}

func (s *GormStore) RecordCheckout(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	if donation.PaymentID == nil || *donation.PaymentID == "" {
		return nil, errors.New("checkout donation requires a payment id")
	}
	donation.WebhookVerified = false
	donation.Source = models.SourceCheckout

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		}).
		Create(donation).Error
	if err != nil {
		return nil, errors.Wrapf(err, "record checkout donation %s", *donation.PaymentID)
	}

	return s.GetByPaymentID(ctx, *donation.PaymentID)
}

func (s *GormStore) ConfirmCapture(ctx context.Context, donation *models.Donation) (*models.Donation, bool, error) {
	if donation.PaymentID == nil || *donation.PaymentID == "" {
		return nil, false, errors.New("captured donation requires a payment id")
	}
	if donation.ID == uuid.Nil {
		donation.ID = uuid.New()
	}
	donation.WebhookVerified = true
	donation.Source = models.SourceWebhook

	// Only the confirmation flag is touched on conflict: the first writer's
	// donor, amount and type stay authoritative.
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "payment_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"webhook_verified": true,
				"updated_at":       s.nowFunc(),
			}),
		}).
		Create(donation).Error
	if err != nil {
		return nil, false, errors.Wrapf(err, "confirm captured donation %s", *donation.PaymentID)
	}

	stored, err := s.GetByPaymentID(ctx, *donation.PaymentID)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == donation.ID, nil
}

func (s *GormStore) RecordManual(ctx context.Context, donation *models.Donation) (*models.Donation, error) {
	donation.Source = models.SourceManual
	if donation.PaymentID != nil && *donation.PaymentID == "" {
		donation.PaymentID = nil
	}

	tx := s.db.WithContext(ctx)
	if donation.PaymentID != nil {
		tx = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_id"}},
			DoNothing: true,
		})
	}

	result := tx.Create(donation)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, "record manual donation")
	}
	if result.RowsAffected == 0 {
		return nil, ErrDuplicatePayment
	}
	return donation, nil
}

func (s *GormStore) AppendEvent(ctx context.Context, event *models.PaymentEvent) error {
	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return errors.Wrapf(err, "append %s payment event", event.EventType)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	var donation models.Donation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get donation %s", id)
	}
	return &donation, nil
}

func (s *GormStore) GetByPaymentID(ctx context.Context, paymentID string) (*models.Donation, error) {
	var donation models.Donation
	if err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&donation).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get donation by payment %s", paymentID)
	}
	return &donation, nil
}

func (s *GormStore) List(ctx context.Context) ([]models.Donation, error) {
	var donations []models.Donation
	if err := s.db.WithContext(ctx).Order("created_at DESC").Find(&donations).Error; err != nil {
		return nil, errors.Wrap(err, "list donations")
	}
	return donations, nil
}

func (s *GormStore) ListEvents(ctx context.Context, paymentID string) ([]models.PaymentEvent, error) {
	var events []models.PaymentEvent
	if err := s.db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, errors.Wrapf(err, "list payment events for %s", paymentID)
	}
	return events, nil
}

func (s *GormStore) MarkReceiptGenerated(ctx context.Context, id uuid.UUID) (*models.Donation, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"receipt_generated": true,
			"updated_at":        s.nowFunc(),
		})
	if result.Error != nil {
		return nil, errors.Wrapf(result.Error, "mark receipt for donation %s", id)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *GormStore) Stats(ctx context.Context) (*Stats, error) {
	db := s.db.WithContext(ctx)
	stats := &Stats{}

	var totals struct {
		Count int64
		Total decimal.NullDecimal
	}
	if err := db.Model(&models.Donation{}).
		Select("COUNT(*) AS count, SUM(amount) AS total").
		Scan(&totals).Error; err != nil {
		return nil, errors.Wrap(err, "sum donations")
	}
	stats.TotalDonations = totals.Count
	stats.TotalRaised = totals.Total.Decimal

	if err := db.Model(&models.Donation{}).
		Where("webhook_verified = ?", true).
		Count(&stats.WebhookVerified).Error; err != nil {
		return nil, errors.Wrap(err, "count verified donations")
	}

	var refunds struct {
		Total decimal.NullDecimal
	}
	if err := db.Model(&models.PaymentEvent{}).
		Select("SUM(amount) AS total").
		Where("event_type = ?", "refund.processed").
		Scan(&refunds).Error; err != nil {
		return nil, errors.Wrap(err, "sum refunds")
	}
	stats.RefundedTotal = refunds.Total.Decimal

	if err := db.Model(&models.PaymentEvent{}).
		Where("event_type = ?", "payment.failed").
		Count(&stats.FailedPayments).Error; err != nil {
		return nil, errors.Wrap(err, "count failed payments")
	}

	return stats, nil
}
