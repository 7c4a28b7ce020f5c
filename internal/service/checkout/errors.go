package checkout

import (
	"errors"

	"github.com/kirinyoku/tixgo/internal/gateway"
)

var (
	ErrGateway       = errors.New("payment gateway error")
	ErrNotConfigured = gateway.ErrNotConfigured
)
