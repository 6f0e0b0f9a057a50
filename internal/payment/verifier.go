package payment

import (
	"errors"

	"github.com/farellandr/donatrack/internal/helpers"
)

var (
	// ErrSecretNotConfigured means the verifier has no secret. It is a
	// deployment problem, not evidence of a forged request.
	ErrSecretNotConfigured = errors.New("signature secret not configured")
	ErrMissingSignature    = errors.New("signature missing")
	ErrSignatureMismatch   = errors.New("signature mismatch")
)

// Verifier checks HMAC-SHA256 signatures produced by the gateway. Checkout
// and webhook signatures use different secrets, so each gets its own Verifier.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// CheckoutPayload is the canonical string the gateway signs after checkout.
func CheckoutPayload(orderID, paymentID string) []byte {
	return []byte(orderID + "|" + paymentID)
}

func (v *Verifier) Verify(payload []byte, signature string) error {
	if v == nil || v.secret == "" {
		return ErrSecretNotConfigured
	}
	if signature == "" {
		return ErrMissingSignature
	}
	if !helpers.EqualSignatures(helpers.SignHMAC(v.secret, payload), signature) {
		return ErrSignatureMismatch
	}
	return nil
}

func (v *Verifier) VerifyCheckout(orderID, paymentID, signature string) error {
	return v.Verify(CheckoutPayload(orderID, paymentID), signature)
}

// VerifyWebhook must be given the request body exactly as received.
func (v *Verifier) VerifyWebhook(rawBody []byte, signature string) error {
	return v.Verify(rawBody, signature)
}
