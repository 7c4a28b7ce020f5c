package razorpay

import (
	"context"
	"fmt"

	"github.com/kirinyoku/tixgo/internal/gateway"
	sdk "github.com/razorpay/razorpay-go"
)

type Config struct {
	KeyID     string
	KeySecret string
}

type Client struct {
	keyID string
	api   *sdk.Client
}

// New returns a client even without credentials. Calls then fail with
// gateway.ErrNotConfigured.
func New(cfg Config) *Client {
	c := &Client{keyID: cfg.KeyID}
	if cfg.KeyID != "" && cfg.KeySecret != "" {
		c.api = sdk.NewClient(cfg.KeyID, cfg.KeySecret)
	}

	return c
}

func (c *Client) KeyID() string { return c.keyID }

func (c *Client) CreateOrder(
	ctx context.Context,
	amountMinor int64,
	currency, receipt string,
) (*gateway.Order, error) {
	const op = "razorpay.Client.CreateOrder"

	if c.api == nil {
		return nil, fmt.Errorf("%s: %w", op, gateway.ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	body, err := c.api.Order.Create(map[string]interface{}{
		"amount":   amountMinor,
		"currency": currency,
		"receipt":  receipt,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o := &gateway.Order{
		ID:          str(body, "id"),
		AmountMinor: num(body, "amount"),
		Currency:    str(body, "currency"),
		Receipt:     str(body, "receipt"),
		Status:      str(body, "status"),
	}
	if o.ID == "" {
		return nil, fmt.Errorf("%s: response has no order id", op)
	}

	return o, nil
}

func (c *Client) FetchPayment(ctx context.Context, paymentID string) (*gateway.Payment, error) {
	const op = "razorpay.Client.FetchPayment"

	if c.api == nil {
		return nil, fmt.Errorf("%s: %w", op, gateway.ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	body, err := c.api.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &gateway.Payment{
		ID:          str(body, "id"),
		OrderID:     str(body, "order_id"),
		Status:      str(body, "status"),
		AmountMinor: num(body, "amount"),
		Currency:    str(body, "currency"),
		Method:      str(body, "method"),
		Email:       str(body, "email"),
	}, nil
}

func str(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

// num reads a JSON number, which the SDK decodes as float64.
func num(m map[string]interface{}, key string) int64 {
	switch v := m[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
