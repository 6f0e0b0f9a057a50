package validation

import "github.com/shopspring/decimal"

// CreateOrderRequest is the payload for POST /donations/order.
type CreateOrderRequest struct {
	Amount    decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency  string          `json:"currency" validate:"omitempty,len=3,alpha"`
	DonorName string          `json:"donorName" validate:"omitempty,max=255"`
	Type      string          `json:"type" validate:"omitempty,donation_type"`
	Campaign  string          `json:"campaign" validate:"omitempty,max=255"`
}

// VerifyPaymentRequest carries what the checkout widget hands back after payment.
type VerifyPaymentRequest struct {
	OrderID   string          `json:"razorpay_order_id" validate:"required"`
	PaymentID string          `json:"razorpay_payment_id" validate:"required"`
	Signature string          `json:"razorpay_signature"`
	DonorName string          `json:"donorName" validate:"omitempty,max=255"`
	Amount    decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Type      string          `json:"type" validate:"omitempty,donation_type"`
	Campaign  string          `json:"campaign" validate:"omitempty,max=255"`
}

// ManualDonationRequest records an offline donation.
type ManualDonationRequest struct {
	DonorName string          `json:"donorName" validate:"omitempty,max=255"`
	Amount    decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency  string          `json:"currency" validate:"omitempty,len=3,alpha"`
	PaymentID string          `json:"paymentId" validate:"omitempty,max=100"`
	Type      string          `json:"type" validate:"omitempty,donation_type"`
	Campaign  string          `json:"campaign" validate:"omitempty,max=255"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ValidateReceiptRequest struct {
	QRData string `json:"qr_data" validate:"required"`
}

// CreateUserRequest is the payload for POST /users. Role defaults to
// content_manager.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,role"`
}

type UpdateUserRequest struct {
	Role   string `json:"role" validate:"required,role"`
	Status string `json:"status" validate:"required,oneof=active inactive"`
}
