package domain

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingFailed    BookingStatus = "failed"
)

// Payment statuses reported by the gateway that count as a successful payment.
const (
	PaymentCaptured   = "captured"
	PaymentAuthorized = "authorized"
)

type Event struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Venue       string     `json:"venue"`
	StartsAt    time.Time  `json:"starts_at"`
	TimeLabel   string     `json:"time_label"`
	IsMultiDay  bool       `json:"is_multi_day"`
	Days        []EventDay `json:"days"`
	Passes      []Pass     `json:"passes"`
	CreatedAt   time.Time  `json:"created_at"`
}

// EventDay overrides the event-level date, time and venue for one day of a
// multi-day event.
type EventDay struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	DayNumber int       `json:"day_number"`
	Date      time.Time `json:"date"`
	TimeLabel string    `json:"time_label"`
	Venue     string    `json:"venue"`
}

type Pass struct {
	ID         int64  `json:"id"`
	EventID    int64  `json:"event_id"`
	DayNumber  int    `json:"day_number"` // 0 for event-wide passes
	Name       string `json:"name"`
	PriceMinor int64  `json:"price_minor"`
}

type Booking struct {
	ID            uuid.UUID     `json:"id"`
	EventID       int64         `json:"event_id"`
	PassID        int64         `json:"pass_id"`
	CustomerName  string        `json:"customer_name"`
	CustomerEmail string        `json:"customer_email"`
	CustomerPhone string        `json:"customer_phone"`
	Quantity      int           `json:"quantity"`
	TotalMinor    int64         `json:"total_minor"`
	Currency      string        `json:"currency"`
	PaymentID     string        `json:"payment_id"`
	OrderID       string        `json:"order_id"`
	Status        BookingStatus `json:"status"`
	ReferralCode  *string       `json:"referral_code,omitempty"`
	DiscountMinor *int64        `json:"discount_minor,omitempty"`
	OriginalMinor *int64        `json:"original_minor,omitempty"`
	DayNumber     int           `json:"day_number"`
	TicketID      string        `json:"ticket_id"`
	CreatedAt     time.Time     `json:"created_at"`
}

// AnalyticsRecord correlates a booking with the revenue it produced.
type AnalyticsRecord struct {
	BookingID    uuid.UUID
	EventID      int64
	RevenueMinor int64
	Date         time.Time
}

type EventRevenue struct {
	EventID      int64  `json:"event_id"`
	Title        string `json:"title"`
	Bookings     int64  `json:"bookings"`
	RevenueMinor int64  `json:"revenue_minor"`
}

type AnalyticsSummary struct {
	TotalBookings int64          `json:"total_bookings"`
	RevenueMinor  int64          `json:"revenue_minor"`
	Events        []EventRevenue `json:"events"`
	GeneratedAt   time.Time      `json:"generated_at"`
}
