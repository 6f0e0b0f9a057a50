package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/farellandr/donatrack/internal/events"
	"github.com/farellandr/donatrack/internal/helpers"
	"github.com/farellandr/donatrack/internal/ledger"
	"github.com/farellandr/donatrack/internal/models"
	"github.com/farellandr/donatrack/internal/validation"
)

var reportHeader = []string{"Donor", "Amount", "Type", "Payment ID", "Campaign", "Date", "Receipt"}

// donationRow is the admin listing shape. Date carries the creation time.
type donationRow struct {
	ID               uuid.UUID             `json:"id"`
	DonorName        string                `json:"donorName"`
	Amount           decimal.Decimal       `json:"amount"`
	Currency         string                `json:"currency"`
	Date             time.Time             `json:"date"`
	PaymentID        *string               `json:"paymentId"`
	ReceiptGenerated bool                  `json:"receiptGenerated"`
	Type             models.DonationType   `json:"type"`
	Campaign         *string               `json:"campaign"`
	WebhookVerified  bool                  `json:"webhookVerified"`
	Source           models.DonationSource `json:"source"`
}

func toDonationRow(d *models.Donation) donationRow {
	return donationRow{
		ID:               d.ID,
		DonorName:        d.DonorName,
		Amount:           d.Amount,
		Currency:         d.Currency,
		Date:             d.CreatedAt,
		PaymentID:        d.PaymentID,
		ReceiptGenerated: d.ReceiptGenerated,
		Type:             d.Type,
		Campaign:         d.Campaign,
		WebhookVerified:  d.WebhookVerified,
		Source:           d.Source,
	}
}

type LedgerHandler struct {
	store     ledger.Store
	publisher events.Publisher
	validate  *validatorv10.Validate
	currency  string
	logger    *slog.Logger
}

func NewLedgerHandler(store ledger.Store, publisher events.Publisher, validate *validatorv10.Validate, currency string, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		store:     store,
		publisher: publisher,
		validate:  validate,
		currency:  currency,
		logger:    logger,
	}
}

func (h *LedgerHandler) ListDonations(c *gin.Context) {
	donations, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Error listing donations", "error", fmt.Sprintf("%+v", err))
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving donations.")
		return
	}

	rows := make([]donationRow, 0, len(donations))
	for i := range donations {
		rows = append(rows, toDonationRow(&donations[i]))
	}
	c.JSON(http.StatusOK, rows)
}

func (h *LedgerHandler) Report(c *gin.Context) {
	donations, err := h.store.List(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Error building donation report", "error", fmt.Sprintf("%+v", err))
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error generating report.")
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=donations-report.csv")
	c.Status(http.StatusOK)

	w := csv.NewWriter(c.Writer)
	_ = w.Write(reportHeader)
	for _, d := range donations {
		_ = w.Write([]string{
			d.DonorName,
			d.Amount.StringFixed(2),
			string(d.Type),
			d.PaymentIDValue(),
			d.CampaignValue(),
			d.CreatedAt.UTC().Format(time.RFC3339),
			strconv.FormatBool(d.ReceiptGenerated),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Error writing donation report", "error", err)
	}
}

func (h *LedgerHandler) GenerateReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid donation ID.")
		return
	}

	donation, err := h.store.MarkReceiptGenerated(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Donation not found.")
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "Error marking receipt", "error", fmt.Sprintf("%+v", err), "donationId", id)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate receipt.")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Receipt generated",
		"donation": donation,
	})
}

func (h *LedgerHandler) Stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "Error computing donation stats", "error", fmt.Sprintf("%+v", err))
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving stats.")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// RecordManual adds an offline donation entered by an admin.
func (h *LedgerHandler) RecordManual(c *gin.Context) {
	var req validation.ManualDonationRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	donation := &models.Donation{
		DonorName: orDefault(req.DonorName, models.AnonymousDonor),
		Amount:    req.Amount,
		Currency:  orDefault(req.Currency, h.currency),
		PaymentID: optional(req.PaymentID),
		Type:      models.DonationType(orDefault(req.Type, string(models.DonationTypeOneTime))),
		Campaign:  optional(req.Campaign),
	}

	ctx := c.Request.Context()
	stored, err := h.store.RecordManual(ctx, donation)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicatePayment) {
			helpers.RespondWithError(c, http.StatusConflict, "A donation with this payment ID already exists.")
			return
		}
		h.logger.ErrorContext(ctx, "Error recording manual donation", "error", fmt.Sprintf("%+v", err))
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to record donation.")
		return
	}

	userID, _ := c.Get("user_id")
	h.logger.InfoContext(ctx, "Recorded manual donation", "donationId", stored.ID, "userId", userID)
	publish(ctx, h.publisher, h.logger, events.DonationEvent(events.DonationRecorded, stored))

	c.JSON(http.StatusCreated, gin.H{
		"id":      stored.ID,
		"message": "Donation recorded",
	})
}
