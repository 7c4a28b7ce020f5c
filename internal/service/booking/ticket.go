package booking

import "fmt"

// TicketPrefix identifies tickets of the 2025 season.
const TicketPrefix = "TGIN-25"

// GenerateTicketID formats a ticket ID from the event day and the day's
// sequence number, e.g. TGIN-25-D1-00001. Sequences above 99999 keep all
// their digits.
func GenerateTicketID(dayNumber, seq int) string {
	return fmt.Sprintf("%s-D%d-%05d", TicketPrefix, dayNumber, seq)
}
