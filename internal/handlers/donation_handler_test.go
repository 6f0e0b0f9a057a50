package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farellandr/donatrack/internal/events"
	"github.com/farellandr/donatrack/internal/payment"
)

func (s *HandlersTestSuite) TestCreateOrder() {
	t := s.T()

	w := s.postJSON("/donations/order", map[string]interface{}{
		"amount":    500,
		"donorName": "Asha",
		"type":      "one-time",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeJSON(t, w)
	assert.Equal(t, "order_X", body["orderId"])
	assert.Equal(t, float64(50000), body["amount"])
	assert.Equal(t, "INR", body["currency"])
	assert.Equal(t, "rzp_test_key", body["keyId"])
	assert.NotContains(t, w.Body.String(), keySecret)

	assert.Equal(t, int64(50000), s.gateway.lastAmount)
	assert.Equal(t, "Asha", s.gateway.lastNotes["donorName"])
	assert.Equal(t, "one-time", s.gateway.lastNotes["type"])
}

func (s *HandlersTestSuite) TestCreateOrder_DefaultsNotes() {
	t := s.T()

	w := s.postJSON("/donations/order", map[string]interface{}{"amount": 150.255, "currency": "USD"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(15026), s.gateway.lastAmount)
	assert.Equal(t, "USD", s.gateway.lastCurrency)
	assert.Equal(t, "Anonymous", s.gateway.lastNotes["donorName"])
	assert.Equal(t, "one-time", s.gateway.lastNotes["type"])
	assert.NotContains(t, s.gateway.lastNotes, "campaign")
}

func (s *HandlersTestSuite) TestCreateOrder_MinimumAmount() {
	tests := []struct {
		name       string
		payload    map[string]interface{}
		wantStatus int
	}{
		{name: "below minimum", payload: map[string]interface{}{"amount": 50}, wantStatus: http.StatusBadRequest},
		{name: "at minimum", payload: map[string]interface{}{"amount": 100}, wantStatus: http.StatusOK},
		{name: "missing amount", payload: map[string]interface{}{"donorName": "Asha"}, wantStatus: http.StatusBadRequest},
		{name: "negative amount", payload: map[string]interface{}{"amount": -100}, wantStatus: http.StatusBadRequest},
		{name: "unknown type", payload: map[string]interface{}{"amount": 100, "type": "yearly"}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			calls := s.gateway.calls
			w := s.postJSON("/donations/order", tt.payload)

			assert.Equal(s.T(), tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusOK {
				assert.Equal(s.T(), calls, s.gateway.calls, "gateway must not be called")
			}
		})
	}
}

func (s *HandlersTestSuite) TestCreateOrder_GatewayErrors() {
	t := s.T()

	s.gateway.err = errors.New("razorpay: Authentication failed")
	w := s.postJSON("/donations/order", map[string]interface{}{"amount": 500})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "razorpay: Authentication failed", decodeJSON(t, w)["message"])

	s.gateway.err = payment.ErrGatewayNotConfigured
	w = s.postJSON("/donations/order", map[string]interface{}{"amount": 500})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, decodeJSON(t, w)["message"], "not configured")
}

func (s *HandlersTestSuite) TestVerifyPayment() {
	t := s.T()

	w := s.postJSON("/donations/verify", s.verifyBody("order_X", "pay_Y", "Asha", 500, checkoutSignature("order_X", "pay_Y")))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeJSON(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "pay_Y", body["paymentId"])
	assert.NotEmpty(t, body["donationId"])

	stored, err := s.store.GetByPaymentID(context.Background(), "pay_Y")
	require.NoError(t, err)
	assert.Equal(t, "Asha", stored.DonorName)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(500)))
	assert.False(t, stored.WebhookVerified)
	assert.Equal(t, "order_X", *stored.OrderID)
	assert.Equal(t, []events.EventType{events.DonationRecorded}, s.publisher.types())
}

func (s *HandlersTestSuite) TestVerifyPayment_BadSignature() {
	t := s.T()

	tests := []struct {
		name      string
		signature string
	}{
		{name: "wrong signature", signature: checkoutSignature("order_X", "pay_OTHER")},
		{name: "garbage signature", signature: "deadbeef"},
		{name: "missing signature", signature: ""},
	}

	for _, tt := range tests {
		w := s.postJSON("/donations/verify", s.verifyBody("order_X", "pay_Y", "Asha", 500, tt.signature))
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.name)
		assert.Equal(t, "Payment verification failed", decodeJSON(t, w)["message"], tt.name)
	}

	assert.Zero(t, s.countDonations())
	assert.Empty(t, s.publisher.types())
}

func (s *HandlersTestSuite) TestVerifyPayment_SecretNotConfigured() {
	t := s.T()

	router := s.newRouter("", webhookSecret)
	body := []byte(`{"razorpay_order_id":"order_X","razorpay_payment_id":"pay_Y","razorpay_signature":"abc","amount":500}`)
	w := s.do(router, http.MethodPost, "/donations/verify", body, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Zero(t, s.countDonations())

	record := s.logRecord("Checkout signature secret not configured")
	assert.Equal(t, "ERROR", record["level"])
	assert.Equal(t, true, record["config_error"])
}

func (s *HandlersTestSuite) TestVerifyPayment_MismatchIsNotAConfigError() {
	t := s.T()

	payload := s.verifyBody("order_X", "pay_Y", "Asha", 500, checkoutSignature("order_X", "pay_OTHER"))
	w := s.postJSON("/donations/verify", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)

	record := s.logRecord("Checkout signature rejected")
	assert.Equal(t, "WARN", record["level"])
	assert.NotContains(t, record, "config_error")
}

func (s *HandlersTestSuite) TestVerifyPayment_DoubleSubmitReturnsSameDonation() {
	t := s.T()

	payload := s.verifyBody("order_X", "pay_Y", "Asha", 500, checkoutSignature("order_X", "pay_Y"))
	first := decodeJSON(t, s.postJSON("/donations/verify", payload))
	second := decodeJSON(t, s.postJSON("/donations/verify", payload))

	assert.Equal(t, first["donationId"], second["donationId"])
	assert.Equal(t, int64(1), s.countDonations())
}

func (s *HandlersTestSuite) TestVerifyAndWebhookRaceConverges() {
	t := s.T()

	verify := s.verifyBody("order_X", "pay_R", "Asha", 500, checkoutSignature("order_X", "pay_R"))
	webhook := capturedEvent("pay_R", "order_X", 50000, `{"donorName":"Asha"}`)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.postJSON("/donations/verify", verify)
		}()
		go func() {
			defer wg.Done()
			s.signedWebhook(webhook)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), s.countDonations())
	stored, err := s.store.GetByPaymentID(context.Background(), "pay_R")
	require.NoError(t, err)
	assert.True(t, stored.WebhookVerified)
	assert.True(t, stored.Amount.Equal(decimal.NewFromInt(500)))
}
