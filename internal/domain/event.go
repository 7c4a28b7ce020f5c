package domain

// PassByID returns the pass with the given id.
func (e *Event) PassByID(id int64) (*Pass, bool) {
	for i := range e.Passes {
		if e.Passes[i].ID == id {
			return &e.Passes[i], true
		}
	}
	return nil, false
}

// FirstPass returns the first pass offered for the event, if any.
func (e *Event) FirstPass() (*Pass, bool) {
	if len(e.Passes) == 0 {
		return nil, false
	}
	return &e.Passes[0], true
}

// Day returns the schedule of the given day of a multi-day event.
func (e *Event) Day(number int) (*EventDay, bool) {
	for i := range e.Days {
		if e.Days[i].DayNumber == number {
			return &e.Days[i], true
		}
	}
	return nil, false
}

// TicketDay is the day number printed on a ticket for the pass. Event-wide
// passes are day 1.
func (p *Pass) TicketDay() int {
	if p == nil || p.DayNumber < 1 {
		return 1
	}
	return p.DayNumber
}
