package payment

import (
	"context"
	"errors"
)

// MinOrderAmount is the smallest order the gateway accepts, in minor units.
const MinOrderAmount int64 = 100

var ErrGatewayNotConfigured = errors.New("payment gateway not configured: missing key id or key secret")

type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency string, notes map[string]string) (*Order, error)
	// KeyID is the public key the checkout widget needs. It is not a secret.
	KeyID() string
}

// UnconfiguredGateway stands in when no credentials are present so the server
// still starts; every order attempt fails with ErrGatewayNotConfigured.
type UnconfiguredGateway struct{}

func (UnconfiguredGateway) CreateOrder(context.Context, int64, string, map[string]string) (*Order, error) {
	return nil, ErrGatewayNotConfigured
}

func (UnconfiguredGateway) KeyID() string { return "" }
