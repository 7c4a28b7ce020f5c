package booking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/kirinyoku/tixgo/internal/mailer"
	"github.com/kirinyoku/tixgo/internal/repository"
	"github.com/kirinyoku/tixgo/internal/ticketpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu        sync.Mutex
	events    map[int64]*domain.Event
	bookings  map[string]*domain.Booking
	seq       map[int]int
	analytics []domain.AnalyticsRecord

	createErr    error
	analyticsErr error
}

func newMemStore(events ...*domain.Event) *memStore {
	s := &memStore{
		events:   map[int64]*domain.Event{},
		bookings: map[string]*domain.Booking{},
		seq:      map[int]int{},
	}
	for _, e := range events {
		s.events[e.ID] = e
	}
	return s
}

func (s *memStore) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("get event: %w", repository.ErrNotFound)
	}
	return e, nil
}

func (s *memStore) CreateBooking(ctx context.Context, b *domain.Booking) (*domain.Booking, bool, error) {
	if s.createErr != nil {
		return nil, false, s.createErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.bookings[b.PaymentID]; ok {
		cp := *existing
		return &cp, false, nil
	}

	out := *b
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	s.seq[out.DayNumber]++
	out.TicketID = GenerateTicketID(out.DayNumber, s.seq[out.DayNumber])
	s.bookings[out.PaymentID] = &out

	cp := out
	return &cp, true, nil
}

func (s *memStore) RecordAnalytics(ctx context.Context, rec domain.AnalyticsRecord) error {
	if s.analyticsErr != nil {
		return s.analyticsErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analytics = append(s.analytics, rec)
	return nil
}

type fakeRenderer struct {
	mu      sync.Mutex
	err     error
	tickets []ticketpdf.Ticket
}

func (r *fakeRenderer) Render(t ticketpdf.Ticket) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets = append(r.tickets, t)
	if r.err != nil {
		return nil, r.err
	}
	return []byte("%PDF-" + t.TicketID), nil
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	sent []mailer.Message
}

func (m *fakeMailer) Send(ctx context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *fakePublisher) PublishJSON(ctx context.Context, key string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []int64
}

func (n *fakeNotifier) PublishBookingsChanged(ctx context.Context, eventID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventID)
	return nil
}

func testEvent() *domain.Event {
	return &domain.Event{
		ID:         10,
		Title:      "Winter Fest",
		Venue:      "Main Ground",
		StartsAt:   time.Date(2025, 12, 20, 18, 0, 0, 0, time.UTC),
		IsMultiDay: true,
		Days: []domain.EventDay{
			{EventID: 10, DayNumber: 1, Date: time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC), Venue: "Hall A"},
			{EventID: 10, DayNumber: 2, Date: time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC), TimeLabel: "5 PM", Venue: "Hall B"},
		},
		Passes: []domain.Pass{
			{ID: 100, EventID: 10, Name: "Festival Pass", PriceMinor: 150000},
			{ID: 101, EventID: 10, DayNumber: 2, Name: "Day 2 Pass", PriceMinor: 99900},
		},
	}
}

func testInput(paymentID string, passID int64) IssueInput {
	return IssueInput{
		PaymentID:        paymentID,
		OrderID:          "order_" + paymentID,
		CapturedMinor:    150000,
		CapturedCurrency: "INR",
		Event:            EventDetails{EventID: 10, PassID: passID, Quantity: 1, TotalMinor: 150000},
		Customer:         CustomerDetails{Name: "Asha", Email: "asha@example.com", Phone: "+911234567890"},
	}
}

type harness struct {
	store    *memStore
	renderer *fakeRenderer
	mailer   *fakeMailer
	pub      *fakePublisher
	notifier *fakeNotifier
	issuer   *Issuer
}

func newHarness() *harness {
	h := &harness{
		store:    newMemStore(testEvent()),
		renderer: &fakeRenderer{},
		mailer:   &fakeMailer{},
		pub:      &fakePublisher{},
		notifier: &fakeNotifier{},
	}
	h.issuer = NewIssuer(h.store, h.renderer, h.mailer, h.pub, h.notifier,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return h
}

func TestIssue_Success(t *testing.T) {
	h := newHarness()

	res := h.issuer.Issue(context.Background(), testInput("pay_1", 100))

	assert.Equal(t, MsgConfirmed, res.Message)
	assert.True(t, res.Persisted())
	assert.Equal(t, "TGIN-25-D1-00001", res.TicketID)
	assert.Equal(t, int64(150000), res.AmountMinor)
	assert.Equal(t, "INR", res.Currency)
	assert.True(t, res.PDFGenerated)
	assert.True(t, res.EmailSent)
	assert.Equal(t, "ticket-TGIN-25-D1-00001.pdf", res.PDFFilename)
	assert.Equal(t, "application/pdf", res.PDFMimeType)
	assert.Empty(t, res.Warnings)
	assert.Empty(t, res.Warning)
	assert.False(t, res.Replayed)

	require.Len(t, h.store.bookings, 1)
	assert.Equal(t, domain.BookingConfirmed, h.store.bookings["pay_1"].Status)
	require.Len(t, h.store.analytics, 1)
	assert.Equal(t, res.BookingID, h.store.analytics[0].BookingID)

	require.Len(t, h.mailer.sent, 1)
	assert.Equal(t, "asha@example.com", h.mailer.sent[0].To)
	require.Len(t, h.mailer.sent[0].Attachments, 1)
	assert.Equal(t, res.PDF, h.mailer.sent[0].Attachments[0].Content)

	assert.Equal(t, []string{"booking.confirmed"}, h.pub.keys)
	assert.Equal(t, []int64{10}, h.notifier.events)
}

func TestIssue_MultiDayPassUsesDaySchedule(t *testing.T) {
	h := newHarness()

	res := h.issuer.Issue(context.Background(), testInput("pay_d2", 101))

	assert.Equal(t, "TGIN-25-D2-00001", res.TicketID)
	require.Len(t, h.renderer.tickets, 1)
	tk := h.renderer.tickets[0]
	assert.Equal(t, "Hall B", tk.Venue)
	assert.Equal(t, "5 PM", tk.Time)
	assert.Equal(t, "Sun, 21 Dec 2025", tk.Date)
	assert.Equal(t, "Day 2 Pass", tk.PassName)
	assert.Equal(t, 2, tk.DayNumber)
}

func TestIssue_SequencesPerDay(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	assert.Equal(t, "TGIN-25-D1-00001", h.issuer.Issue(ctx, testInput("p1", 100)).TicketID)
	assert.Equal(t, "TGIN-25-D2-00001", h.issuer.Issue(ctx, testInput("p2", 101)).TicketID)
	assert.Equal(t, "TGIN-25-D1-00002", h.issuer.Issue(ctx, testInput("p3", 100)).TicketID)
}

func TestIssue_PersistenceFailureIsSoft(t *testing.T) {
	h := newHarness()
	h.store.createErr = errors.New("connection reset")

	res := h.issuer.Issue(context.Background(), testInput("pay_1", 100))

	assert.Equal(t, MsgBookingFailed, res.Message)
	assert.NotEmpty(t, res.Warning)
	assert.False(t, res.Persisted())
	assert.Empty(t, res.TicketID)
	assert.False(t, res.PDFGenerated)
	assert.False(t, res.EmailSent)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarningPersistence, res.Warnings[0].Kind)

	assert.Empty(t, h.renderer.tickets, "no PDF after a failed booking")
	assert.Empty(t, h.mailer.sent, "no email after a failed booking")
	assert.Empty(t, h.store.analytics)
	assert.Empty(t, h.pub.keys)
}

func TestIssue_EmailFailureKeepsPDF(t *testing.T) {
	h := newHarness()
	h.mailer.err = errors.New("smtp down")

	res := h.issuer.Issue(context.Background(), testInput("pay_1", 100))

	assert.Equal(t, MsgConfirmed, res.Message)
	assert.False(t, res.EmailSent)
	assert.True(t, res.PDFGenerated)
	assert.NotEmpty(t, res.PDF)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "email", res.Warnings[0].Step)
	assert.Equal(t, WarningBestEffort, res.Warnings[0].Kind)
}

func TestIssue_DisabledMailerReportsNotSent(t *testing.T) {
	h := newHarness()
	h.mailer.err = fmt.Errorf("mailer.Client.Send: %w", mailer.ErrDisabled)

	res := h.issuer.Issue(context.Background(), testInput("pay_1", 100))

	assert.Equal(t, MsgConfirmed, res.Message)
	assert.True(t, res.Persisted())
	assert.False(t, res.EmailSent)
	assert.True(t, res.PDFGenerated)
	assert.NotEmpty(t, res.PDF)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarningBestEffort, res.Warnings[0].Kind)
	assert.Equal(t, "email", res.Warnings[0].Step)
	assert.Empty(t, res.Warning, "only persistence failures set the top-level warning")
}

func TestIssue_PDFFailureSkipsEmail(t *testing.T) {
	h := newHarness()
	h.renderer.err = errors.New("font missing")

	res := h.issuer.Issue(context.Background(), testInput("pay_1", 100))

	assert.True(t, res.Persisted())
	assert.False(t, res.PDFGenerated)
	assert.Nil(t, res.PDF)
	assert.False(t, res.EmailSent)
	assert.Empty(t, h.mailer.sent)
	assert.Len(t, res.Warnings, 2)
}

func TestIssue_AnalyticsFailureIsBestEffort(t *testing.T) {
	h := newHarness()
	h.store.analyticsErr = errors.New("table missing")

	res := h.issuer.Issue(context.Background(), testInput("pay_1", 100))

	assert.Equal(t, MsgConfirmed, res.Message)
	assert.True(t, res.EmailSent)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "analytics", res.Warnings[0].Step)
}

func TestIssue_SamePaymentDoesNotDoubleBook(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	first := h.issuer.Issue(ctx, testInput("pay_1", 100))
	second := h.issuer.Issue(ctx, testInput("pay_1", 100))

	assert.Len(t, h.store.bookings, 1)
	assert.Equal(t, first.BookingID, second.BookingID)
	assert.Equal(t, first.TicketID, second.TicketID)
	assert.True(t, second.Replayed)
	assert.Equal(t, MsgAlreadyIssued, second.Message)
	assert.True(t, second.PDFGenerated, "replays return the ticket again")

	assert.Len(t, h.mailer.sent, 1, "email is sent once")
	assert.Len(t, h.store.analytics, 1)
	assert.Len(t, h.pub.keys, 1)
}

func TestIssue_UnknownPassFallsBackWithWarning(t *testing.T) {
	h := newHarness()

	res := h.issuer.Issue(context.Background(), testInput("pay_1", 999))

	assert.Equal(t, "TGIN-25-D1-00001", res.TicketID)
	assert.Equal(t, int64(100), h.store.bookings["pay_1"].PassID)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "pass", res.Warnings[0].Step)
	assert.Contains(t, res.Warnings[0].Message, "Festival Pass")
}

func TestIssue_UnknownEventStillBooks(t *testing.T) {
	h := newHarness()
	in := testInput("pay_1", 100)
	in.Event.EventID = 404

	res := h.issuer.Issue(context.Background(), in)

	assert.True(t, res.Persisted())
	assert.Equal(t, "TGIN-25-D1-00001", res.TicketID)
	assert.False(t, res.PDFGenerated)
	assert.False(t, res.EmailSent)
	assert.Empty(t, h.renderer.tickets)
	assert.Empty(t, h.mailer.sent)

	steps := []string{}
	for _, w := range res.Warnings {
		steps = append(steps, w.Step)
	}
	assert.Equal(t, []string{"event", "pdf", "email"}, steps)
}

func TestIssue_DeclaredAmountUsedWithoutCapture(t *testing.T) {
	h := newHarness()
	in := testInput("pay_1", 100)
	in.CapturedMinor = 0
	in.CapturedCurrency = ""
	in.Event.TotalMinor = 4200
	in.Discount = &DiscountDetails{ReferralCode: "FRIEND", DiscountMinor: 800, OriginalMinor: 5000}

	res := h.issuer.Issue(context.Background(), in)

	assert.Equal(t, int64(4200), res.AmountMinor)
	assert.Equal(t, "INR", res.Currency)

	b := h.store.bookings["pay_1"]
	require.NotNil(t, b.ReferralCode)
	assert.Equal(t, "FRIEND", *b.ReferralCode)
	require.NotNil(t, b.DiscountMinor)
	assert.Equal(t, int64(800), *b.DiscountMinor)
	assert.Equal(t, int64(5000), *b.OriginalMinor)
}

func TestIssue_ConcurrentBookingsGetDistinctTickets(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	const n = 30
	ids := make([]string, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i] = h.issuer.Issue(ctx, testInput(fmt.Sprintf("pay_%d", i), 100)).TicketID
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate ticket id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}
