package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/kirinyoku/tixgo/internal/gateway"
	"github.com/kirinyoku/tixgo/internal/service/booking"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/kirinyoku/tixgo/internal/service/payment")

type Config struct {
	// SignatureSecret is the gateway key secret used for checkout signatures.
	SignatureSecret string
}

type Issuer interface {
	Issue(ctx context.Context, in booking.IssueInput) *booking.Result
}

type VerifyInput struct {
	PaymentID string
	OrderID   string
	Signature string
	Event     booking.EventDetails
	Customer  booking.CustomerDetails
	Discount  *booking.DiscountDetails
}

type Service struct {
	gw     gateway.Gateway
	issuer Issuer
	cfg    Config
	log    *slog.Logger
}

func New(gw gateway.Gateway, issuer Issuer, cfg Config, log *slog.Logger) *Service {
	return &Service{
		gw:     gw,
		issuer: issuer,
		cfg:    cfg,
		log:    log.With(slog.String("service", "payment")),
	}
}

// Verify checks the checkout signature, then the payment status at the
// gateway, and hands a successful payment to the booking issuer.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: gateway ids, the client-submitted signature and booking details.
//
// Returns:
//   - *booking.Result: the issuance outcome. Post-payment failures are
//     reported inside it, never as an error.
//   - error: *domain.ValidationError if ids are missing.
//   - error: payment.ErrNotConfigured if the signature secret is missing.
//   - error: payment.ErrInvalidSignature if the signature does not match.
//   - error: payment.ErrGateway if the status lookup fails.
//   - error: *payment.PaymentNotSuccessfulError if the payment is neither
//     captured nor authorized.
func (s *Service) Verify(ctx context.Context, in VerifyInput) (*booking.Result, error) {
	const op = "service.payment.Verify"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	span.SetAttributes(
		attribute.String("payment.id", in.PaymentID),
		attribute.String("payment.order_id", in.OrderID),
	)

	log := s.log.With(
		slog.String("payment_id", in.PaymentID),
		slog.String("order_id", in.OrderID),
	)

	if err := s.Authenticate(in); err != nil {
		if errors.Is(err, ErrInvalidSignature) {
			span.SetStatus(codes.Error, "invalid signature")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.gw.FetchPayment(ctx, in.PaymentID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gateway.ErrNotConfigured) {
			log.Error("gateway credentials missing")
			return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
		}
		log.Error("fetch payment failed", slog.String("error", err.Error()))
		return nil, fmt.Errorf("%s: %w: %v", op, ErrGateway, err)
	}

	span.SetAttributes(
		attribute.String("payment.status", p.Status),
		attribute.String("payment.method", p.Method),
	)

	if !Successful(p.Status) {
		log.Warn("payment not successful", slog.String("status", p.Status))
		span.SetStatus(codes.Error, "payment not successful")
		return nil, fmt.Errorf("%s: %w", op, &PaymentNotSuccessfulError{PaymentID: in.PaymentID, Status: p.Status})
	}

	if p.OrderID != "" && p.OrderID != in.OrderID {
		// The signature binds the pair, so this only happens with a gateway
		// inconsistency. Keep the booking and leave a trail.
		log.Warn("gateway order id differs", slog.String("gateway_order_id", p.OrderID))
	}

	customer := in.Customer
	if customer.Email == "" && p.Email != "" {
		// checkout collected the address even if the client did not send it
		customer.Email = p.Email
	}

	log.Info("payment verified", slog.String("status", p.Status), slog.String("method", p.Method))

	return s.issuer.Issue(ctx, booking.IssueInput{
		PaymentID:        in.PaymentID,
		OrderID:          in.OrderID,
		CapturedMinor:    p.AmountMinor,
		CapturedCurrency: p.Currency,
		Event:            in.Event,
		Customer:         customer,
		Discount:         in.Discount,
	}), nil
}

// Authenticate checks that the ids are present and that the signature was
// produced with the gateway secret for this order and payment pair. It does
// no I/O, so callers can run it before touching any stored outcome.
//
// Returns:
//   - error: *domain.ValidationError if ids are missing.
//   - error: payment.ErrNotConfigured if the signature secret is missing.
//   - error: payment.ErrInvalidSignature if the signature does not match.
func (s *Service) Authenticate(in VerifyInput) error {
	switch {
	case strings.TrimSpace(in.PaymentID) == "":
		return domain.NewValidationError("razorpay_payment_id", "is required")
	case strings.TrimSpace(in.OrderID) == "":
		return domain.NewValidationError("razorpay_order_id", "is required")
	case strings.TrimSpace(in.Signature) == "":
		return domain.NewValidationError("razorpay_signature", "is required")
	}

	if s.cfg.SignatureSecret == "" {
		s.log.Error("signature secret missing, refusing to verify")
		return ErrNotConfigured
	}

	if !VerifySignature(s.cfg.SignatureSecret, in.OrderID, in.PaymentID, in.Signature) {
		s.log.Warn("payment signature mismatch",
			slog.String("payment_id", in.PaymentID),
			slog.String("order_id", in.OrderID),
		)
		return ErrInvalidSignature
	}

	return nil
}

// Successful reports whether a gateway status allows a booking.
func Successful(status string) bool {
	return status == domain.PaymentCaptured || status == domain.PaymentAuthorized
}
