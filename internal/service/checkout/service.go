package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/kirinyoku/tixgo/internal/gateway"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultCurrency = "INR"
	MaxReceiptLen   = 40
)

var tracer = otel.Tracer("github.com/kirinyoku/tixgo/internal/service/checkout")

type Config struct {
	// MaxAmount is the largest order accepted, in currency units.
	MaxAmount float64
}

type CreateOrderInput struct {
	// Amount in currency units.
	Amount   float64
	Currency string
	Receipt  string
}

type Order struct {
	OrderID     string
	AmountMinor int64
	Currency    string
	Receipt     string
	// Key is the gateway key ID the client opens checkout with.
	Key string
}

type Service struct {
	gw  gateway.Gateway
	cfg Config
	log *slog.Logger
	now func() time.Time
}

func New(gw gateway.Gateway, cfg Config, log *slog.Logger) *Service {
	if cfg.MaxAmount <= 0 {
		cfg.MaxAmount = 1_000_000
	}

	return &Service{
		gw:  gw,
		cfg: cfg,
		log: log.With(slog.String("service", "checkout")),
		now: time.Now,
	}
}

// CreateOrder validates the requested amount and creates a gateway order
// for it.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: amount in currency units, optional currency (default INR) and
//     optional receipt reference of at most 40 characters.
//
// Returns:
//   - *Order: the gateway order with its amount in minor units.
//   - error: *domain.ValidationError for bad input.
//   - error: checkout.ErrNotConfigured if gateway credentials are missing.
//   - error: checkout.ErrGateway if the gateway call fails.
func (s *Service) CreateOrder(ctx context.Context, in CreateOrderInput) (*Order, error) {
	const op = "service.checkout.CreateOrder"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	currency, receipt, err := s.normalize(in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	minor := ToMinor(in.Amount)
	span.SetAttributes(
		attribute.Int64("order.amount_minor", minor),
		attribute.String("order.currency", currency),
	)

	o, err := s.gw.CreateOrder(ctx, minor, currency, receipt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "gateway")

		if errors.Is(err, gateway.ErrNotConfigured) {
			s.log.Error("gateway credentials missing")
			return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
		}

		s.log.Error("create order failed",
			slog.Int64("amount_minor", minor),
			slog.String("currency", currency),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%s: %w: %v", op, ErrGateway, err)
	}

	out := &Order{
		OrderID:     o.ID,
		AmountMinor: o.AmountMinor,
		Currency:    o.Currency,
		Receipt:     receipt,
		Key:         s.gw.KeyID(),
	}
	if out.AmountMinor == 0 {
		out.AmountMinor = minor
	}
	if out.Currency == "" {
		out.Currency = currency
	}

	return out, nil
}

func (s *Service) normalize(in CreateOrderInput) (currency, receipt string, err error) {
	if math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) || in.Amount <= 0 {
		return "", "", domain.NewValidationError("amount", "must be a positive number")
	}
	if in.Amount > s.cfg.MaxAmount {
		return "", "", domain.NewValidationError("amount",
			"must not exceed "+strconv.FormatFloat(s.cfg.MaxAmount, 'f', -1, 64))
	}
	if ToMinor(in.Amount) < 1 {
		return "", "", domain.NewValidationError("amount", "is below the smallest currency unit")
	}

	currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if !isCurrencyCode(currency) {
		return "", "", domain.NewValidationError("currency", "must be a 3-letter ISO 4217 code")
	}

	receipt = in.Receipt
	if utf8.RuneCountInString(receipt) > MaxReceiptLen {
		return "", "", domain.NewValidationError("receipt", "must be at most 40 characters")
	}
	if receipt == "" {
		receipt = "rcpt_" + strconv.FormatInt(s.now().UnixNano(), 10)
		if len(receipt) > MaxReceiptLen {
			receipt = receipt[:MaxReceiptLen]
		}
	}

	return currency, receipt, nil
}

// ToMinor converts currency units to minor units, rounding half away from
// zero.
func ToMinor(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
