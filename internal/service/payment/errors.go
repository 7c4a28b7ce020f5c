package payment

import (
	"errors"
	"fmt"

	"github.com/kirinyoku/tixgo/internal/gateway"
)

var (
	ErrInvalidSignature     = errors.New("invalid payment signature")
	ErrPaymentNotSuccessful = errors.New("payment not successful")
	ErrGateway              = errors.New("payment gateway error")
	ErrNotConfigured        = gateway.ErrNotConfigured
)

// PaymentNotSuccessfulError carries the gateway status that was rejected.
type PaymentNotSuccessfulError struct {
	PaymentID string
	Status    string
}

func (e *PaymentNotSuccessfulError) Error() string {
	return fmt.Sprintf("payment %s not successful: status %q", e.PaymentID, e.Status)
}

func (e *PaymentNotSuccessfulError) Unwrap() error {
	return ErrPaymentNotSuccessful
}
