package handlers_test

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farellandr/donatrack/internal/models"
	"github.com/farellandr/donatrack/internal/testutil"
)

func (s *HandlersTestSuite) seedDonation(paymentID, donor string, amount int64, campaign string) *models.Donation {
	donation := &models.Donation{
		DonorName: donor,
		Amount:    decimal.NewFromInt(amount),
		PaymentID: testutil.StringPtr(paymentID),
	}
	if campaign != "" {
		donation.Campaign = testutil.StringPtr(campaign)
	}
	stored, err := s.store.RecordCheckout(context.Background(), donation)
	require.NoError(s.T(), err)
	return stored
}

func (s *HandlersTestSuite) TestListDonations() {
	t := s.T()

	s.seedDonation("pay_1", "Asha", 500, "")
	s.seedDonation("pay_2", "Ravi", 250, "flood-relief")

	w := s.do(s.router, http.MethodGet, "/donations", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var donations []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &donations))
	require.Len(t, donations, 2)
	for _, d := range donations {
		for _, key := range []string{"id", "donorName", "amount", "date", "paymentId", "receiptGenerated", "type", "campaign", "webhookVerified"} {
			assert.Contains(t, d, key)
		}
		assert.NotContains(t, d, "createdAt")

		date, ok := d["date"].(string)
		require.True(t, ok, "date should be a string")
		_, err := time.Parse(time.RFC3339Nano, date)
		assert.NoError(t, err)
	}

	newest := donations[0]
	assert.Equal(t, "Ravi", newest["donorName"])
	assert.Equal(t, float64(250), newest["amount"])
	assert.Equal(t, "flood-relief", newest["campaign"])
	assert.Nil(t, donations[1]["campaign"])
}

func (s *HandlersTestSuite) TestListDonations_AfterVerifyCarriesDate() {
	t := s.T()

	payload := s.verifyBody("order_X", "pay_D", "Asha", 500, checkoutSignature("order_X", "pay_D"))
	require.Equal(t, http.StatusOK, s.postJSON("/donations/verify", payload).Code)

	w := s.do(s.router, http.MethodGet, "/donations", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var donations []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &donations))
	require.Len(t, donations, 1)
	assert.Equal(t, "pay_D", donations[0]["paymentId"])
	assert.NotEmpty(t, donations[0]["date"])
}

func (s *HandlersTestSuite) TestReport() {
	t := s.T()

	s.seedDonation("pay_1", `Asha "A", Rao`, 500, "flood-relief")

	w := s.do(s.router, http.MethodGet, "/donations/report", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=donations-report.csv", w.Header().Get("Content-Disposition"))

	records, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Donor", "Amount", "Type", "Payment ID", "Campaign", "Date", "Receipt"}, records[0])
	assert.Equal(t, `Asha "A", Rao`, records[1][0])
	assert.Equal(t, "500.00", records[1][1])
	assert.Equal(t, "one-time", records[1][2])
	assert.Equal(t, "pay_1", records[1][3])
	assert.Equal(t, "flood-relief", records[1][4])
	assert.Equal(t, "false", records[1][6])
}

func (s *HandlersTestSuite) TestGenerateReceipt() {
	t := s.T()

	stored := s.seedDonation("pay_1", "Asha", 500, "")

	w := s.do(s.router, http.MethodPost, "/donations/"+stored.ID.String()+"/receipt", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	updated, err := s.store.Get(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.True(t, updated.ReceiptGenerated)

	w = s.do(s.router, http.MethodPost, "/donations/"+uuid.NewString()+"/receipt", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(s.router, http.MethodPost, "/donations/not-a-uuid/receipt", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestStats() {
	t := s.T()

	s.seedDonation("pay_1", "Asha", 500, "")
	require.Equal(t, http.StatusOK, s.signedWebhook(capturedEvent("pay_2", "order_2", 25000, `{}`)).Code)
	require.Equal(t, http.StatusOK, s.signedWebhook([]byte(failedEvent)).Code)

	w := s.do(s.router, http.MethodGet, "/donations/stats", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeJSON(t, w)
	assert.Equal(t, float64(2), body["totalDonations"])
	assert.Equal(t, float64(750), body["totalRaised"])
	assert.Equal(t, float64(1), body["webhookVerified"])
	assert.Equal(t, float64(1), body["failedPayments"])
}

func (s *HandlersTestSuite) TestRecordManual() {
	t := s.T()

	w := s.postJSON("/donations", map[string]interface{}{"donorName": "Cash box", "amount": 1200})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Donation recorded", decodeJSON(t, w)["message"])

	s.seedDonation("pay_1", "Asha", 500, "")
	w = s.postJSON("/donations", map[string]interface{}{"amount": 500, "paymentId": "pay_1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.postJSON("/donations", map[string]interface{}{"donorName": "No amount"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, int64(2), s.countDonations())
}
