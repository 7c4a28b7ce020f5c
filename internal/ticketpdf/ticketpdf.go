// Package ticketpdf renders single-page e-tickets.
package ticketpdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

const MimeType = "application/pdf"

// Ticket is everything printed on an e-ticket. For multi-day events Date,
// Time and Venue are those of the ticket's day.
type Ticket struct {
	TicketID      string
	BookingID     string
	PaymentID     string
	EventTitle    string
	Date          string
	Time          string
	Venue         string
	PassName      string
	DayNumber     int
	MultiDay      bool
	Quantity      int
	CustomerName  string
	CustomerEmail string
	AmountMinor   int64
	Currency      string
}

// Filename is the attachment name used for the ticket PDF.
func (t Ticket) Filename() string {
	return fmt.Sprintf("ticket-%s.pdf", t.TicketID)
}

type Config struct {
	// Brand is printed in the header and footer.
	Brand string
	// VerifyURL prefixes the ticket ID in the QR code. Empty encodes the
	// bare ticket ID.
	VerifyURL string
}

type Renderer struct {
	cfg Config
}

func New(cfg Config) *Renderer {
	if cfg.Brand == "" {
		cfg.Brand = "TIXGO"
	}

	return &Renderer{cfg: cfg}
}

// Render draws the ticket on an A4 page and returns the PDF bytes.
func (r *Renderer) Render(t Ticket) ([]byte, error) {
	const op = "ticketpdf.Renderer.Render"

	if t.TicketID == "" {
		return nil, fmt.Errorf("%s: empty ticket id", op)
	}

	qrBytes, err := qrcode.Encode(r.cfg.VerifyURL+t.TicketID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("%s: qr: %w", op, err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, tr(r.cfg.Brand+" OFFICIAL eTICKET"))
	pdf.Ln(18)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 55, "F")

	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "TICKET")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	line(pdf, tr, "Ticket ID: %s", t.TicketID)
	line(pdf, tr, "Booking ID: %s", t.BookingID)
	line(pdf, tr, "Pass: %s", t.PassName)
	line(pdf, tr, "Quantity: %d", t.Quantity)
	line(pdf, tr, "Total Paid: %s %s", t.Currency, formatMinor(t.AmountMinor))

	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qrBytes))
	pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetY(yStart + 63)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Scan this QR code at the entrance.")
	pdf.Ln(10)

	section(pdf, "EVENT DETAILS")
	pdf.SetFont("Helvetica", "", 12)
	line(pdf, tr, "Event: %s", t.EventTitle)
	if t.MultiDay {
		line(pdf, tr, "Day: %d", t.DayNumber)
	}
	if t.Date != "" {
		line(pdf, tr, "Date: %s", t.Date)
	}
	if t.Time != "" {
		line(pdf, tr, "Time: %s", t.Time)
	}
	if t.Venue != "" {
		line(pdf, tr, "Venue: %s", t.Venue)
	}
	pdf.Ln(4)

	section(pdf, "ATTENDEE")
	pdf.SetFont("Helvetica", "", 12)
	line(pdf, tr, "Name: %s", t.CustomerName)
	line(pdf, tr, "Email: %s", t.CustomerEmail)
	line(pdf, tr, "Payment ID: %s", t.PaymentID)

	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, tr("This ticket admits the holder once. "+r.cfg.Brand), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buf.Bytes(), nil
}

func line(pdf *gofpdf.Fpdf, tr func(string) string, format string, args ...any) {
	pdf.Cell(0, 8, tr(fmt.Sprintf(format, args...)))
	pdf.Ln(6)
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
}

func formatMinor(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}

	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
