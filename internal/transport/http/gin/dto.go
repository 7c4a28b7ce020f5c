package httpgin

import (
	"time"

	"github.com/kirinyoku/tixgo/internal/service/booking"
)

type CreateOrderRequest struct {
	// Amount in currency units.
	Amount   *float64 `json:"amount" binding:"required"`
	Currency *string  `json:"currency"`
	Receipt  *string  `json:"receipt"`
}

type CreateOrderResponse struct {
	Success bool   `json:"success"`
	OrderID string `json:"order_id"`
	// Amount in minor currency units.
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Key      string `json:"key"`
}

type VerifyPaymentRequest struct {
	PaymentID       string            `json:"razorpay_payment_id"`
	OrderID         string            `json:"razorpay_order_id"`
	Signature       string            `json:"razorpay_signature"`
	EventDetails    EventDetailsInput `json:"eventDetails"`
	CustomerDetails CustomerInput     `json:"customerDetails"`
	DiscountDetails *DiscountInput    `json:"discountDetails"`
}

// EventDetailsInput is not validated beyond decoding: a captured payment is
// booked even when the details are incomplete.
type EventDetailsInput struct {
	EventID  int64 `json:"eventId"`
	PassID   int64 `json:"passId"`
	Quantity int   `json:"quantity"`
	// TotalAmount in currency units.
	TotalAmount float64 `json:"totalAmount"`
	Currency    string  `json:"currency"`
}

type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type DiscountInput struct {
	ReferralCode   string  `json:"referralCode"`
	DiscountAmount float64 `json:"discountAmount"`
	OriginalAmount float64 `json:"originalAmount"`
}

type TicketPDF struct {
	Data     string `json:"data"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
}

type VerifyPaymentResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	BookingID string `json:"booking_id,omitempty"`
	TicketID  string `json:"ticket_id,omitempty"`
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	// Amount in currency units.
	Amount       float64           `json:"amount"`
	Currency     string            `json:"currency"`
	EmailSent    bool              `json:"email_sent"`
	PDFGenerated bool              `json:"pdf_generated"`
	PDFSize      int               `json:"pdf_size"`
	TicketPDF    *TicketPDF        `json:"ticket_pdf,omitempty"`
	Warning      string            `json:"warning,omitempty"`
	Warnings     []booking.Warning `json:"warnings,omitempty"`
	Replayed     bool              `json:"replayed,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateEventRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Venue       string          `json:"venue"`
	StartsAt    string          `json:"starts_at" binding:"required"`
	TimeLabel   string          `json:"time_label"`
	Days        []EventDayInput `json:"days" binding:"dive"`
	Passes      []PassInput     `json:"passes" binding:"required,min=1,dive"`
}

type EventDayInput struct {
	DayNumber int    `json:"day_number" binding:"required,gt=0"`
	Date      string `json:"date" binding:"required"`
	TimeLabel string `json:"time_label"`
	Venue     string `json:"venue"`
}

type PassInput struct {
	Name      string `json:"name" binding:"required"`
	DayNumber int    `json:"day_number" binding:"gte=0"`
	// Price in minor currency units.
	PriceMinor int64 `json:"price_minor" binding:"gte=0"`
}

type CreateEventResponse struct {
	EventID int64 `json:"event_id"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// parseDate accepts a plain date or a full RFC3339 timestamp.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return parseRFC3339(s)
}
