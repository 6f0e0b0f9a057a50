package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"github.com/farellandr/donatrack/internal/helpers"
	"github.com/farellandr/donatrack/internal/ledger"
	"github.com/farellandr/donatrack/internal/models"
	"github.com/farellandr/donatrack/internal/validation"
)

const qrSize = 256

var errInvalidQRData = errors.New("invalid QR data format")

type ReceiptHandler struct {
	store    ledger.Store
	secret   string
	validate *validatorv10.Validate
	logger   *slog.Logger
}

func NewReceiptHandler(store ledger.Store, secret string, validate *validatorv10.Validate, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		store:    store,
		secret:   secret,
		validate: validate,
		logger:   logger,
	}
}

func receiptSignature(donation *models.Donation, secret string) string {
	data := fmt.Sprintf("%s:%s:%s", donation.ID.String(), donation.PaymentIDValue(), donation.Amount.StringFixed(2))
	return helpers.SignHMAC(secret, []byte(data))
}

func (h *ReceiptHandler) qrData(donation *models.Donation) string {
	return fmt.Sprintf("donation:%s;payment:%s;amount:%s;signature:%s",
		donation.ID.String(),
		donation.PaymentIDValue(),
		donation.Amount.StringFixed(2),
		receiptSignature(donation, h.secret),
	)
}

func parseQRData(qrData string) (uuid.UUID, string, error) {
	parts := strings.Split(qrData, ";")
	if len(parts) != 4 || !strings.HasPrefix(parts[0], "donation:") || !strings.HasPrefix(parts[3], "signature:") {
		return uuid.Nil, "", errInvalidQRData
	}
	id, err := uuid.Parse(strings.TrimPrefix(parts[0], "donation:"))
	if err != nil {
		return uuid.Nil, "", errInvalidQRData
	}
	return id, strings.TrimPrefix(parts[3], "signature:"), nil
}

func (h *ReceiptHandler) ReceiptQR(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid donation ID")
		return
	}

	if h.secret == "" {
		h.logger.ErrorContext(c.Request.Context(), "Receipt secret not configured", "config_error", true)
		helpers.RespondWithError(c, http.StatusInternalServerError, "Receipt signing not configured")
		return
	}

	donation, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Donation not found")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving donation")
		return
	}

	if !donation.ReceiptGenerated {
		helpers.RespondWithError(c, http.StatusConflict, "Receipt has not been generated for this donation")
		return
	}

	qrImage, err := qrcode.Encode(h.qrData(donation), qrcode.Medium, qrSize)
	if err != nil {
		helpers.RespondWithError(c, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}

	c.Data(http.StatusOK, "image/png", qrImage)
}

func (h *ReceiptHandler) ValidateReceipt(c *gin.Context) {
	var req validation.ValidateReceiptRequest
	if err := validation.BindAndValidate(c, &req, h.validate); err != nil {
		return
	}

	id, signature, err := parseQRData(req.QRData)
	if err != nil {
		helpers.RespondWithError(c, http.StatusBadRequest, "Invalid QR code format")
		return
	}

	donation, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			helpers.RespondWithError(c, http.StatusNotFound, "Donation not found")
			return
		}
		helpers.RespondWithError(c, http.StatusInternalServerError, "Error retrieving donation")
		return
	}

	if h.secret == "" || !helpers.EqualSignatures(receiptSignature(donation, h.secret), signature) {
		h.logger.WarnContext(c.Request.Context(), "Receipt signature rejected", "donationId", id)
		helpers.RespondWithError(c, http.StatusForbidden, "Invalid QR code signature")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Receipt is valid",
		"receipt": gin.H{
			"donationId":      donation.ID,
			"donorName":       donation.DonorName,
			"amount":          donation.Amount,
			"currency":        donation.Currency,
			"paymentId":       donation.PaymentIDValue(),
			"date":            donation.CreatedAt,
			"webhookVerified": donation.WebhookVerified,
		},
	})
}
