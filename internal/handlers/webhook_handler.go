package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/farellandr/donatrack/internal/events"
	"github.com/farellandr/donatrack/internal/helpers"
	"github.com/farellandr/donatrack/internal/ledger"
	"github.com/farellandr/donatrack/internal/logging"
	"github.com/farellandr/donatrack/internal/metrics"
	"github.com/farellandr/donatrack/internal/models"
	"github.com/farellandr/donatrack/internal/payment"
)

const (
	SignatureHeader = "X-Razorpay-Signature"
	maxWebhookBody  = 1 << 20
)

type WebhookHandler struct {
	verifier  *payment.Verifier
	store     ledger.Store
	publisher events.Publisher
	logger    *slog.Logger
}

func NewWebhookHandler(verifier *payment.Verifier, store ledger.Store, publisher events.Publisher, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:  verifier,
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle verifies the delivery against the raw body, then records it. Once
// the signature is valid the response is always 200 so the gateway stops
// redelivering; processing failures only show up in the logs.
func (h *WebhookHandler) Handle(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		metrics.Webhook("unknown", "unreadable")
		h.logger.WarnContext(ctx, "Error reading webhook body", "error", err)
		helpers.RespondWithError(c, http.StatusBadRequest, "Unable to read request body")
		return
	}

	if err := h.verifier.VerifyWebhook(body, c.GetHeader(SignatureHeader)); err != nil {
		if errors.Is(err, payment.ErrSecretNotConfigured) {
			metrics.Webhook("unknown", "config_error")
			h.logger.ErrorContext(ctx, "Webhook secret not configured", "config_error", true)
			helpers.RespondWithError(c, http.StatusInternalServerError, "Webhook secret not configured")
			return
		}
		metrics.Webhook("unknown", "rejected")
		h.logger.WarnContext(ctx, "Webhook signature rejected", "reason", err.Error(), "remoteAddr", c.ClientIP())
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid signature")
		return
	}

	event, err := payment.ParseWebhookEvent(body)
	if err != nil {
		metrics.Webhook("unknown", "error_logged")
		h.logger.ErrorContext(ctx, "Error parsing signed webhook", "error", err, "body", string(body))
		c.JSON(http.StatusOK, gin.H{"status": "error_logged"})
		return
	}

	ctx = logging.AppendCtx(ctx, slog.String("event", event.Name))
	if err := h.process(ctx, event, body); err != nil {
		metrics.Webhook(string(event.Kind), "error_logged")
		h.logger.ErrorContext(ctx, "Error processing webhook", "error", fmt.Sprintf("%+v", err))
		c.JSON(http.StatusOK, gin.H{"status": "error_logged"})
		return
	}

	metrics.Webhook(string(event.Kind), "ok")
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *WebhookHandler) process(ctx context.Context, event *payment.WebhookEvent, body []byte) error {
	switch event.Kind {
	case payment.EventPaymentCaptured:
		return h.paymentCaptured(ctx, event.Payment)
	case payment.EventPaymentFailed:
		return h.paymentFailed(ctx, event, body)
	case payment.EventRefundProcessed:
		return h.refundProcessed(ctx, event, body)
	case payment.EventOrderPaid:
		orderID := ""
		if event.Order != nil {
			orderID = event.Order.ID
		}
		h.logger.InfoContext(ctx, "Order paid", "orderId", orderID)
		return nil
	default:
		h.logger.InfoContext(ctx, "Ignoring unhandled webhook event")
		return nil
	}
}

func (h *WebhookHandler) paymentCaptured(ctx context.Context, entity *payment.PaymentEntity) error {
	ctx = logging.AppendCtx(ctx, slog.String("paymentId", entity.ID))

	donationType := models.DonationType(entity.Notes.Get("type", string(models.DonationTypeOneTime)))
	if !donationType.Valid() {
		donationType = models.DonationTypeOneTime
	}

	donation := &models.Donation{
		DonorName: entity.Notes.Get("donorName", models.AnonymousDonor),
		Amount:    helpers.FromMinorUnits(entity.Amount),
		Currency:  entity.Currency,
		PaymentID: &entity.ID,
		OrderID:   optional(entity.OrderID),
		Type:      donationType,
		Campaign:  optional(entity.Notes.Get("campaign", "")),
	}

	stored, created, err := h.store.ConfirmCapture(ctx, donation)
	if err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "Confirmed captured payment", "donationId", stored.ID, "created", created)
	publish(ctx, h.publisher, h.logger, events.DonationEvent(events.DonationConfirmed, stored))
	return nil
}

func (h *WebhookHandler) paymentFailed(ctx context.Context, event *payment.WebhookEvent, body []byte) error {
	entity := event.Payment
	ctx = logging.AppendCtx(ctx, slog.String("paymentId", entity.ID))

	record := &models.PaymentEvent{
		EventType:        event.Name,
		PaymentID:        &entity.ID,
		OrderID:          optional(entity.OrderID),
		Amount:           decimal.NewNullDecimal(helpers.FromMinorUnits(entity.Amount)),
		Currency:         optional(entity.Currency),
		ErrorCode:        entity.ErrorCode,
		ErrorDescription: entity.ErrorDescription,
		RawPayload:       datatypes.JSON(body),
	}
	if err := h.store.AppendEvent(ctx, record); err != nil {
		return err
	}

	h.logger.WarnContext(ctx, "Recorded failed payment", "errorCode", stringValue(entity.ErrorCode))
	return nil
}

func (h *WebhookHandler) refundProcessed(ctx context.Context, event *payment.WebhookEvent, body []byte) error {
	refund := event.Refund
	ctx = logging.AppendCtx(ctx, slog.String("paymentId", refund.PaymentID))

	amount := helpers.FromMinorUnits(refund.Amount)
	record := &models.PaymentEvent{
		EventType:  event.Name,
		PaymentID:  &refund.PaymentID,
		Amount:     decimal.NewNullDecimal(amount),
		Currency:   optional(refund.Currency),
		RawPayload: datatypes.JSON(body),
	}
	if err := h.store.AppendEvent(ctx, record); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "Recorded refund", "refundId", refund.ID, "amount", amount.String())
	publish(ctx, h.publisher, h.logger, events.RefundEvent(refund.PaymentID, amount, refund.Currency))
	return nil
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
