package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/kirinyoku/tixgo/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	err error

	calls       int
	amountMinor int64
	currency    string
	receipt     string
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*gateway.Order, error) {
	f.calls++
	f.amountMinor, f.currency, f.receipt = amountMinor, currency, receipt
	if f.err != nil {
		return nil, f.err
	}
	return &gateway.Order{ID: "order_1", AmountMinor: amountMinor, Currency: currency, Receipt: receipt}, nil
}

func (f *fakeGateway) FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	return nil, errors.New("not used")
}

func (f *fakeGateway) KeyID() string { return "rzp_test_key" }

func newTestService(gw gateway.Gateway) *Service {
	s := New(gw, Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.now = func() time.Time { return time.Unix(1700000000, 0) }
	return s
}

func TestCreateOrder_DefaultsToINR(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestService(gw)

	o, err := s.CreateOrder(context.Background(), CreateOrderInput{Amount: 1000})
	require.NoError(t, err)

	assert.Equal(t, "INR", gw.currency)
	assert.Equal(t, int64(100000), gw.amountMinor)
	assert.Equal(t, "order_1", o.OrderID)
	assert.Equal(t, int64(100000), o.AmountMinor)
	assert.Equal(t, "INR", o.Currency)
	assert.Equal(t, "rzp_test_key", o.Key)
	assert.True(t, strings.HasPrefix(gw.receipt, "rcpt_"))
	assert.LessOrEqual(t, len(gw.receipt), MaxReceiptLen)
}

func TestCreateOrder_RoundsToMinorUnits(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestService(gw)

	_, err := s.CreateOrder(context.Background(), CreateOrderInput{Amount: 19.999, Currency: "usd", Receipt: "r-1"})
	require.NoError(t, err)

	assert.Equal(t, int64(2000), gw.amountMinor)
	assert.Equal(t, "USD", gw.currency)
	assert.Equal(t, "r-1", gw.receipt)
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    CreateOrderInput
		field string
	}{
		{"zero amount", CreateOrderInput{Amount: 0}, "amount"},
		{"negative amount", CreateOrderInput{Amount: -5}, "amount"},
		{"above ceiling", CreateOrderInput{Amount: 1_000_000.01}, "amount"},
		{"below one minor unit", CreateOrderInput{Amount: 0.001}, "amount"},
		{"bad currency", CreateOrderInput{Amount: 10, Currency: "RUPEES"}, "currency"},
		{"long receipt", CreateOrderInput{Amount: 10, Receipt: strings.Repeat("r", 41)}, "receipt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			_, err := newTestService(gw).CreateOrder(context.Background(), tt.in)

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Zero(t, gw.calls, "gateway must not be called on invalid input")
		})
	}
}

func TestCreateOrder_AcceptsCeilingAndMaxReceipt(t *testing.T) {
	gw := &fakeGateway{}
	_, err := newTestService(gw).CreateOrder(context.Background(), CreateOrderInput{
		Amount:  1_000_000,
		Receipt: strings.Repeat("r", 40),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_000), gw.amountMinor)
}

func TestCreateOrder_GatewayErrors(t *testing.T) {
	_, err := newTestService(&fakeGateway{err: errors.New("503")}).
		CreateOrder(context.Background(), CreateOrderInput{Amount: 10})
	require.ErrorIs(t, err, ErrGateway)

	_, err = newTestService(&fakeGateway{err: gateway.ErrNotConfigured}).
		CreateOrder(context.Background(), CreateOrderInput{Amount: 10})
	require.ErrorIs(t, err, ErrNotConfigured)
}
