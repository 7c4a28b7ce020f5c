package booking

import "github.com/google/uuid"

// EventDetails is what the client says it bought.
type EventDetails struct {
	EventID  int64
	PassID   int64
	Quantity int
	// TotalMinor is the declared total. The captured gateway amount wins
	// when both are known.
	TotalMinor int64
	Currency   string
}

type CustomerDetails struct {
	Name  string
	Email string
	Phone string
}

type DiscountDetails struct {
	ReferralCode  string
	DiscountMinor int64
	OriginalMinor int64
}

// IssueInput is a payment that passed signature and status checks.
type IssueInput struct {
	PaymentID string
	OrderID   string
	// CapturedMinor and CapturedCurrency come from the gateway. Zero values
	// fall back to the declared event details.
	CapturedMinor    int64
	CapturedCurrency string

	Event    EventDetails
	Customer CustomerDetails
	Discount *DiscountDetails
}

type WarningKind string

const (
	WarningPersistence WarningKind = "persistence"
	WarningBestEffort  WarningKind = "best_effort"
)

// Warning records a post-payment step that did not complete.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Step    string      `json:"step"`
	Message string      `json:"message"`
}

// Result is the outcome of issuing a booking. Once the payment is captured
// the outcome is always a success; failed steps show up as warnings.
type Result struct {
	Message     string
	BookingID   uuid.UUID
	TicketID    string
	PaymentID   string
	OrderID     string
	AmountMinor int64
	Currency    string

	EmailSent    bool
	PDFGenerated bool
	PDF          []byte
	PDFFilename  string
	PDFMimeType  string

	// Warning is set when the booking itself could not be stored.
	Warning  string
	Warnings []Warning
	// Replayed marks a booking that already existed for this payment.
	Replayed bool
}

// Persisted reports whether a booking row exists for the payment.
func (r *Result) Persisted() bool {
	return r.BookingID != uuid.Nil
}

func (r *Result) warn(kind WarningKind, step, msg string) {
	r.Warnings = append(r.Warnings, Warning{Kind: kind, Step: step, Message: msg})
}
