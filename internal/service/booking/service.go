package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/kirinyoku/tixgo/internal/mailer"
	"github.com/kirinyoku/tixgo/internal/mq"
	"github.com/kirinyoku/tixgo/internal/repository"
	"github.com/kirinyoku/tixgo/internal/ticketpdf"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	MsgConfirmed     = "Payment verified and booking confirmed"
	MsgAlreadyIssued = "Payment already verified, booking confirmed"
	MsgBookingFailed = "Payment verified but booking creation failed"
	msgReconcile     = "Your payment was received. Our team will confirm your booking and send your ticket shortly."
)

var tracer = otel.Tracer("github.com/kirinyoku/tixgo/internal/service/booking")

// Store persists bookings. CreateBooking must assign the ticket ID in the
// same transaction as the booking row and must return the existing booking
// with created=false when the payment ID was already booked.
type Store interface {
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	CreateBooking(ctx context.Context, b *domain.Booking) (out *domain.Booking, created bool, err error)
	RecordAnalytics(ctx context.Context, rec domain.AnalyticsRecord) error
}

type Renderer interface {
	Render(t ticketpdf.Ticket) ([]byte, error)
}

type Mailer interface {
	Send(ctx context.Context, msg mailer.Message) error
}

type Publisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// Notifier tells other instances that booking aggregates changed.
type Notifier interface {
	PublishBookingsChanged(ctx context.Context, eventID int64) error
}

type Issuer struct {
	store    Store
	renderer Renderer
	mailer   Mailer
	pub      Publisher
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// NewIssuer wires the issuer. pub and notifier may be nil.
func NewIssuer(
	store Store,
	renderer Renderer,
	mailer Mailer,
	pub Publisher,
	notifier Notifier,
	log *slog.Logger,
) *Issuer {
	return &Issuer{
		store:    store,
		renderer: renderer,
		mailer:   mailer,
		pub:      pub,
		notifier: notifier,
		log:      log.With(slog.String("service", "booking")),
		now:      time.Now,
	}
}

// Issue stores the booking for a verified payment, assigns its ticket ID,
// renders the PDF ticket and emails it. It never fails: every step after the
// payment was captured degrades into a warning on the result.
func (s *Issuer) Issue(ctx context.Context, in IssueInput) *Result {
	const op = "service.booking.Issue"

	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	log := s.log.With(
		slog.String("payment_id", in.PaymentID),
		slog.String("order_id", in.OrderID),
	)

	res := &Result{
		PaymentID:   in.PaymentID,
		OrderID:     in.OrderID,
		AmountMinor: in.Event.TotalMinor,
		Currency:    in.Event.Currency,
		PDFMimeType: ticketpdf.MimeType,
	}
	if in.CapturedMinor > 0 {
		if in.Event.TotalMinor > 0 && in.Event.TotalMinor != in.CapturedMinor {
			log.Warn("declared total differs from captured amount",
				slog.Int64("declared_minor", in.Event.TotalMinor),
				slog.Int64("captured_minor", in.CapturedMinor),
			)
		}
		res.AmountMinor = in.CapturedMinor
	}
	if in.CapturedCurrency != "" {
		res.Currency = strings.ToUpper(in.CapturedCurrency)
	}
	if res.Currency == "" {
		res.Currency = "INR"
	}

	ev, pass := s.resolve(ctx, log, in.Event, res)

	b := &domain.Booking{
		EventID:       in.Event.EventID,
		PassID:        in.Event.PassID,
		CustomerName:  in.Customer.Name,
		CustomerEmail: in.Customer.Email,
		CustomerPhone: in.Customer.Phone,
		Quantity:      in.Event.Quantity,
		TotalMinor:    res.AmountMinor,
		Currency:      res.Currency,
		PaymentID:     in.PaymentID,
		OrderID:       in.OrderID,
		Status:        domain.BookingConfirmed,
		DayNumber:     pass.TicketDay(),
	}
	if pass != nil {
		b.PassID = pass.ID
	}
	if b.Quantity <= 0 {
		b.Quantity = 1
	}
	if d := in.Discount; d != nil {
		if d.ReferralCode != "" {
			code := d.ReferralCode
			b.ReferralCode = &code
		}
		if d.DiscountMinor > 0 {
			disc, orig := d.DiscountMinor, d.OriginalMinor
			b.DiscountMinor = &disc
			b.OriginalMinor = &orig
		}
	}

	saved, created, err := s.store.CreateBooking(ctx, b)
	if err != nil {
		span.RecordError(err)
		log.Error("booking not stored after captured payment, reconcile manually",
			slog.Int64("event_id", b.EventID),
			slog.Int64("pass_id", b.PassID),
			slog.String("customer_email", b.CustomerEmail),
			slog.Int64("amount_minor", b.TotalMinor),
			slog.String("error", err.Error()),
		)

		res.Message = MsgBookingFailed
		res.Warning = msgReconcile
		res.warn(WarningPersistence, "booking", err.Error())
		return res
	}

	res.BookingID = saved.ID
	res.TicketID = saved.TicketID
	res.Replayed = !created
	span.SetAttributes(
		attribute.String("booking.id", saved.ID.String()),
		attribute.String("booking.ticket_id", saved.TicketID),
		attribute.Bool("booking.replayed", res.Replayed),
	)

	if created {
		res.Message = MsgConfirmed
		s.afterCreate(ctx, log, saved, res)
	} else {
		res.Message = MsgAlreadyIssued
		// The stored booking is authoritative on replays.
		res.AmountMinor = saved.TotalMinor
		res.Currency = saved.Currency
		log.Info("payment already booked", slog.String("booking_id", saved.ID.String()))
	}

	if ev == nil {
		res.warn(WarningBestEffort, "pdf", "ticket not generated without event details")
		res.warn(WarningBestEffort, "email", "email skipped because the ticket PDF is missing")
		return res
	}

	t := buildTicket(ev, pass, saved)
	res.PDFFilename = t.Filename()

	pdf, err := s.renderer.Render(t)
	if err != nil {
		log.Warn("ticket pdf failed", slog.String("booking_id", saved.ID.String()), slog.String("error", err.Error()))
		res.warn(WarningBestEffort, "pdf", "ticket PDF could not be generated")
		res.warn(WarningBestEffort, "email", "email skipped because the ticket PDF is missing")
		return res
	}
	res.PDF = pdf
	res.PDFGenerated = true

	if !created {
		return res
	}

	err = s.mailer.Send(ctx, mailer.TicketEmail{
		To:         saved.CustomerEmail,
		Name:       saved.CustomerName,
		EventTitle: ev.Title,
		TicketID:   saved.TicketID,
		Filename:   res.PDFFilename,
		PDF:        pdf,
	}.Message())
	switch {
	case errors.Is(err, mailer.ErrDisabled):
		res.warn(WarningBestEffort, "email", "email delivery is not configured")
		return res
	case err != nil:
		log.Warn("ticket email failed", slog.String("booking_id", saved.ID.String()), slog.String("error", err.Error()))
		res.warn(WarningBestEffort, "email", "confirmation email could not be sent")
		return res
	}
	res.EmailSent = true

	return res
}

// resolve loads the event and the purchased pass. A missing pass falls back
// to the event's first pass and is reported.
func (s *Issuer) resolve(
	ctx context.Context,
	log *slog.Logger,
	d EventDetails,
	res *Result,
) (*domain.Event, *domain.Pass) {
	ev, err := s.store.GetEvent(ctx, d.EventID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn("event lookup failed", slog.Int64("event_id", d.EventID), slog.String("error", err.Error()))
		} else {
			log.Warn("event not found", slog.Int64("event_id", d.EventID))
		}
		res.warn(WarningBestEffort, "event", fmt.Sprintf("event %d could not be loaded", d.EventID))
		return nil, nil
	}

	if p, ok := ev.PassByID(d.PassID); ok {
		return ev, p
	}

	p, ok := ev.FirstPass()
	if !ok {
		log.Warn("event has no passes", slog.Int64("event_id", ev.ID), slog.Int64("pass_id", d.PassID))
		res.warn(WarningBestEffort, "pass", fmt.Sprintf("pass %d not found", d.PassID))
		return ev, nil
	}

	log.Warn("declared pass not found, using first pass",
		slog.Int64("event_id", ev.ID),
		slog.Int64("declared_pass_id", d.PassID),
		slog.Int64("used_pass_id", p.ID),
	)
	res.warn(WarningBestEffort, "pass",
		fmt.Sprintf("pass %d not found, booked %q instead", d.PassID, p.Name))

	return ev, p
}

func (s *Issuer) afterCreate(ctx context.Context, log *slog.Logger, b *domain.Booking, res *Result) {
	now := s.now().UTC()

	if err := s.store.RecordAnalytics(ctx, domain.AnalyticsRecord{
		BookingID:    b.ID,
		EventID:      b.EventID,
		RevenueMinor: b.TotalMinor,
		Date:         now,
	}); err != nil {
		log.Warn("analytics record failed", slog.String("booking_id", b.ID.String()), slog.String("error", err.Error()))
		res.warn(WarningBestEffort, "analytics", "analytics record not stored")
	}

	if s.pub != nil {
		if err := s.pub.PublishJSON(ctx, mq.RoutingBookingConfirmed, mq.BookingConfirmed{
			BookingID:     b.ID.String(),
			TicketID:      b.TicketID,
			EventID:       b.EventID,
			PassID:        b.PassID,
			DayNumber:     b.DayNumber,
			Quantity:      b.Quantity,
			TotalMinor:    b.TotalMinor,
			Currency:      b.Currency,
			PaymentID:     b.PaymentID,
			OrderID:       b.OrderID,
			CustomerEmail: b.CustomerEmail,
			ConfirmedAt:   now,
		}); err != nil {
			log.Warn("publish booking.confirmed failed", slog.String("booking_id", b.ID.String()), slog.String("error", err.Error()))
		}
	}

	if s.notifier != nil {
		if err := s.notifier.PublishBookingsChanged(ctx, b.EventID); err != nil {
			log.Warn("publish bookings changed failed", slog.String("error", err.Error()))
		}
	}
}

// buildTicket assembles the printed ticket. The day's date, time and venue
// override the event's for multi-day events.
func buildTicket(ev *domain.Event, pass *domain.Pass, b *domain.Booking) ticketpdf.Ticket {
	t := ticketpdf.Ticket{
		TicketID:      b.TicketID,
		BookingID:     b.ID.String(),
		PaymentID:     b.PaymentID,
		EventTitle:    ev.Title,
		Venue:         ev.Venue,
		Time:          ev.TimeLabel,
		DayNumber:     b.DayNumber,
		MultiDay:      ev.IsMultiDay,
		Quantity:      b.Quantity,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		AmountMinor:   b.TotalMinor,
		Currency:      b.Currency,
	}
	if !ev.StartsAt.IsZero() {
		t.Date = ev.StartsAt.Format("Mon, 02 Jan 2006")
		if t.Time == "" {
			t.Time = ev.StartsAt.Format("15:04")
		}
	}
	if pass != nil {
		t.PassName = pass.Name
	}

	if ev.IsMultiDay {
		if d, ok := ev.Day(b.DayNumber); ok {
			if !d.Date.IsZero() {
				t.Date = d.Date.Format("Mon, 02 Jan 2006")
			}
			if d.TimeLabel != "" {
				t.Time = d.TimeLabel
			}
			if d.Venue != "" {
				t.Venue = d.Venue
			}
		}
	}

	return t
}
