package httpgin

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	redisrepo "github.com/kirinyoku/tixgo/internal/repository/redis"
	"github.com/kirinyoku/tixgo/internal/service"
	"github.com/kirinyoku/tixgo/internal/service/booking"
	"github.com/kirinyoku/tixgo/internal/service/checkout"
	"github.com/kirinyoku/tixgo/internal/service/payment"
)

// verifyLockTTL bounds how long a crashed verification blocks retries.
const verifyLockTTL = 60 * time.Second

// @Summary  Create payment order
// @Param    req body  CreateOrderRequest true "payload"
// @Success  200 {object} CreateOrderResponse
// @Failure  400 {object} ErrorResponse
// @Failure  429 {object} ErrorResponse "rate limited"
// @Failure  500 {object} ErrorResponse
// @Router   /payments/orders [post]
func handleCreateOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			if req.Amount == nil {
				badRequest(c, "Valid amount is required")
				return
			}
			badRequest(c, "invalid request body")
			return
		}

		in := checkout.CreateOrderInput{Amount: *req.Amount}
		if req.Currency != nil {
			in.Currency = *req.Currency
		}
		if req.Receipt != nil {
			in.Receipt = *req.Receipt
		}

		o, err := svcs.Checkout.CreateOrder(c.Request.Context(), in)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, CreateOrderResponse{
			Success:  true,
			OrderID:  o.OrderID,
			Amount:   o.AmountMinor,
			Currency: o.Currency,
			Key:      o.Key,
		})
	}
}

// @Summary  Verify payment and issue ticket (idempotent per order and payment id)
// @Param    req body  VerifyPaymentRequest true "payload"
// @Success  200 {object} VerifyPaymentResponse
// @Failure  400 {object} ErrorResponse "invalid signature / payment not successful"
// @Failure  409 {object} ErrorResponse "verification in progress"
// @Failure  500 {object} ErrorResponse
// @Router   /payments/verify [post]
func handleVerifyPayment(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var req VerifyPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}

		in := toVerifyInput(req)

		// A stored outcome is only handed to a caller holding a valid
		// signature for the same order and payment.
		if err := svcs.Payment.Authenticate(in); err != nil {
			respondErr(c, err)
			return
		}

		var idemKey string
		if idem != nil {
			idemKey = redisrepo.KeyIdemVerify(in.OrderID, in.PaymentID)

			state, stored, err := idem.Claim(ctx, idemKey, verifyLockTTL)
			switch {
			case err != nil:
				// fail open, bookings.payment_id is unique
				logger.Warn("idempotency claim unavailable", slog.String("error", err.Error()))
				idemKey = ""
			case state == redisrepo.Finished:
				c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(stored))
				return
			case state == redisrepo.InFlight:
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "payment verification in progress"})
				return
			}
		}

		res, err := svcs.Payment.Verify(ctx, in)
		if err != nil {
			if idemKey != "" {
				_ = idem.Release(ctx, idemKey)
			}
			respondErr(c, err)
			return
		}

		resp := toVerifyResponse(res)
		b, err := json.Marshal(resp)
		if err != nil {
			if idemKey != "" {
				_ = idem.Release(ctx, idemKey)
			}
			respondErr(c, err)
			return
		}

		if idemKey != "" {
			// Only a stored booking is final. A persistence failure must stay
			// retryable.
			if res.Persisted() {
				if err := idem.Complete(ctx, idemKey, string(b)); err != nil {
					logger.Warn("idempotency save failed", slog.String("error", err.Error()))
				}
			} else {
				_ = idem.Release(ctx, idemKey)
			}
		}

		c.Data(http.StatusOK, "application/json; charset=utf-8", b)
	}
}

func toVerifyInput(req VerifyPaymentRequest) payment.VerifyInput {
	in := payment.VerifyInput{
		PaymentID: strings.TrimSpace(req.PaymentID),
		OrderID:   strings.TrimSpace(req.OrderID),
		Signature: strings.TrimSpace(req.Signature),
		Event: booking.EventDetails{
			EventID:    req.EventDetails.EventID,
			PassID:     req.EventDetails.PassID,
			Quantity:   req.EventDetails.Quantity,
			TotalMinor: checkout.ToMinor(req.EventDetails.TotalAmount),
			Currency:   req.EventDetails.Currency,
		},
		Customer: booking.CustomerDetails{
			Name:  strings.TrimSpace(req.CustomerDetails.Name),
			Email: strings.TrimSpace(req.CustomerDetails.Email),
			Phone: strings.TrimSpace(req.CustomerDetails.Phone),
		},
	}
	if d := req.DiscountDetails; d != nil {
		in.Discount = &booking.DiscountDetails{
			ReferralCode:  d.ReferralCode,
			DiscountMinor: checkout.ToMinor(d.DiscountAmount),
			OriginalMinor: checkout.ToMinor(d.OriginalAmount),
		}
	}
	return in
}

func toVerifyResponse(res *booking.Result) VerifyPaymentResponse {
	resp := VerifyPaymentResponse{
		Success:      true,
		Message:      res.Message,
		TicketID:     res.TicketID,
		PaymentID:    res.PaymentID,
		OrderID:      res.OrderID,
		Amount:       float64(res.AmountMinor) / 100,
		Currency:     res.Currency,
		EmailSent:    res.EmailSent,
		PDFGenerated: res.PDFGenerated,
		PDFSize:      len(res.PDF),
		Warning:      res.Warning,
		Warnings:     res.Warnings,
		Replayed:     res.Replayed,
	}
	if res.Persisted() {
		resp.BookingID = res.BookingID.String()
	}
	if len(res.PDF) > 0 {
		resp.TicketPDF = &TicketPDF{
			Data:     base64.StdEncoding.EncodeToString(res.PDF),
			Filename: res.PDFFilename,
			MimeType: res.PDFMimeType,
		}
	}
	return resp
}
