// Package gateway describes the payment gateway the checkout and payment
// services talk to.
package gateway

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when gateway credentials are missing.
var ErrNotConfigured = errors.New("payment gateway is not configured")

// Order is a gateway order. Amounts are in minor currency units.
type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
	Status      string
}

// Payment is the gateway's authoritative view of a payment.
type Payment struct {
	ID          string
	OrderID     string
	Status      string
	AmountMinor int64
	Currency    string
	Method      string
	Email       string
}

type Gateway interface {
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*Order, error)
	FetchPayment(ctx context.Context, paymentID string) (*Payment, error)
	// KeyID is the public key the browser checkout widget is opened with.
	KeyID() string
}
