package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/farellandr/donatrack/internal/events"
	"github.com/farellandr/donatrack/internal/helpers"
	"github.com/farellandr/donatrack/internal/ledger"
	"github.com/farellandr/donatrack/internal/logging"
	"github.com/farellandr/donatrack/internal/metrics"
	"github.com/farellandr/donatrack/internal/models"
	"github.com/farellandr/donatrack/internal/payment"
	"github.com/farellandr/donatrack/internal/validation"
)

type DonationConfig struct {
	// MinAmount is the smallest donation accepted, in major units.
	MinAmount decimal.Decimal
	Currency  string
}

type DonationHandler struct {
	gateway   payment.Gateway
	checkout  *payment.Verifier
	store     ledger.Store
	publisher events.Publisher
	validate  *validatorv10.Validate
	cfg       DonationConfig
	logger    *slog.Logger
}

func NewDonationHandler(
	gateway payment.Gateway,
	checkout *payment.Verifier,
	store ledger.Store,
	publisher events.Publisher,
	validate *validatorv10.Validate,
	cfg DonationConfig,
	logger *slog.Logger,
) *DonationHandler {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &DonationHandler{
		gateway:   gateway,
		checkout:  checkout,
		store:     store,
		publisher: publisher,
		validate:  validate,
		cfg:       cfg,
		logger:    logger,
	}
}

func (h *DonationHandler) CreateOrder(c *gin.Context) {
	start := time.Now()
	defer func() { metrics.OrderDuration.Update(metrics.SinceMs(start)) }()

	var req validation.CreateOrderRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		metrics.OrdersRejected.Inc()
		return
	}

	if req.Amount.LessThan(h.cfg.MinAmount) {
		metrics.OrdersRejected.Inc()
		helpers.RespondWithError(c, http.StatusBadRequest,
			fmt.Sprintf("Minimum donation amount is %s %s", h.cfg.MinAmount.String(), h.cfg.Currency))
		return
	}

	amountMinor := helpers.ToMinorUnits(req.Amount)
	if amountMinor < payment.MinOrderAmount {
		metrics.OrdersRejected.Inc()
		helpers.RespondWithError(c, http.StatusBadRequest,
			fmt.Sprintf("Minimum amount is %d minor units", payment.MinOrderAmount))
		return
	}

	currency := req.Currency
	if currency == "" {
		currency = h.cfg.Currency
	}

	notes := map[string]string{
		"donorName": orDefault(req.DonorName, models.AnonymousDonor),
		"type":      orDefault(req.Type, string(models.DonationTypeOneTime)),
	}
	if req.Campaign != "" {
		notes["campaign"] = req.Campaign
	}

	ctx := c.Request.Context()
	order, err := h.gateway.CreateOrder(ctx, amountMinor, currency, notes)
	if err != nil {
		metrics.OrdersFailed.Inc()
		if errors.Is(err, payment.ErrGatewayNotConfigured) {
			h.logger.ErrorContext(ctx, "Payment gateway not configured", "config_error", true)
		} else {
			h.logger.ErrorContext(ctx, "Error creating gateway order", "error", err, "amount", amountMinor)
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.OrdersCreated.Inc()
	h.logger.InfoContext(ctx, "Created gateway order", "orderId", order.ID, "amount", order.Amount)

	c.JSON(http.StatusOK, gin.H{
		"orderId":  order.ID,
		"amount":   order.Amount,
		"currency": order.Currency,
		"keyId":    h.gateway.KeyID(),
	})
}

func (h *DonationHandler) VerifyPayment(c *gin.Context) {
	var req validation.VerifyPaymentRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		metrics.VerificationsFailed.Inc()
		return
	}

	ctx := logging.AppendCtx(c.Request.Context(), slog.String("orderId", req.OrderID))
	ctx = logging.AppendCtx(ctx, slog.String("paymentId", req.PaymentID))

	if err := h.checkout.VerifyCheckout(req.OrderID, req.PaymentID, req.Signature); err != nil {
		if errors.Is(err, payment.ErrSecretNotConfigured) {
			metrics.VerificationsErrored.Inc()
			h.logger.ErrorContext(ctx, "Checkout signature secret not configured", "config_error", true)
			helpers.RespondWithError(c, http.StatusInternalServerError, "Payment verification not configured")
			return
		}
		metrics.VerificationsFailed.Inc()
		h.logger.WarnContext(ctx, "Checkout signature rejected", "reason", err.Error())
		helpers.RespondWithError(c, http.StatusBadRequest, "Payment verification failed")
		return
	}

	donation := &models.Donation{
		DonorName: orDefault(req.DonorName, models.AnonymousDonor),
		Amount:    req.Amount,
		Currency:  h.cfg.Currency,
		PaymentID: &req.PaymentID,
		OrderID:   &req.OrderID,
		Type:      models.DonationType(orDefault(req.Type, string(models.DonationTypeOneTime))),
		Campaign:  optional(req.Campaign),
	}

	stored, err := h.store.RecordCheckout(ctx, donation)
	if err != nil {
		metrics.VerificationsErrored.Inc()
		h.logger.ErrorContext(ctx, "Error recording donation", "error", fmt.Sprintf("%+v", err))
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to record donation")
		return
	}

	metrics.VerificationsRecorded.Inc()
	h.logger.InfoContext(ctx, "Recorded checkout donation", "donationId", stored.ID, "webhookVerified", stored.WebhookVerified)
	publish(ctx, h.publisher, h.logger, events.DonationEvent(events.DonationRecorded, stored))

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"donationId": stored.ID,
		"paymentId":  stored.PaymentIDValue(),
	})
}
