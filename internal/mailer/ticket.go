package mailer

import (
	"fmt"
	"html"
)

// TicketEmail is the confirmation email carrying the PDF ticket.
type TicketEmail struct {
	To         string
	Name       string
	EventTitle string
	TicketID   string
	Filename   string
	PDF        []byte
}

func (e TicketEmail) Message() Message {
	return Message{
		To:      e.To,
		Subject: fmt.Sprintf("Your ticket for %s [%s]", e.EventTitle, e.TicketID),
		HTML: fmt.Sprintf(`
		<h2>Booking confirmed</h2>
		<p>Hi %s,</p>
		<p>Your booking for <b>%s</b> is confirmed.</p>
		<p>Ticket ID: <b>%s</b></p>
		<p>Your e-ticket is attached. Show the QR code at the entrance.</p>
	`, html.EscapeString(e.Name), html.EscapeString(e.EventTitle), html.EscapeString(e.TicketID)),
		Text: fmt.Sprintf("Your booking for %s is confirmed. Ticket ID: %s", e.EventTitle, e.TicketID),
		Attachments: []Attachment{
			{Filename: e.Filename, Content: e.PDF},
		},
	}
}
