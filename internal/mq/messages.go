package mq

import "time"

const (
	ExchangeBookings        = "tixgo.bookings"
	RoutingBookingConfirmed = "booking.confirmed"
)

// BookingConfirmed is published after a booking commits. It carries enough
// for reconciliation without querying the database.
type BookingConfirmed struct {
	BookingID     string    `json:"booking_id"`
	TicketID      string    `json:"ticket_id"`
	EventID       int64     `json:"event_id"`
	PassID        int64     `json:"pass_id"`
	DayNumber     int       `json:"day_number"`
	Quantity      int       `json:"quantity"`
	TotalMinor    int64     `json:"total_minor"`
	Currency      string    `json:"currency"`
	PaymentID     string    `json:"payment_id"`
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}
