package postgresrepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixgo/internal/domain"
)

const bookingColumns = `id, event_id, pass_id, customer_name, customer_email, customer_phone,
	quantity, total_minor, currency, payment_id, order_id, status,
	referral_code, discount_minor, original_minor, day_number,
	COALESCE(ticket_id, ''), created_at`

type BookingRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *BookingRepo) With(db DB) *BookingRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *BookingRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// CreateWithTicket persists a booking and assigns its ticket ID in one
// transaction: the booking row, the per-day sequence increment and the ticket
// ID update commit or roll back together.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - b: the booking to persist; ID and CreatedAt are filled in.
//   - ticketID: formats the ticket ID from the day number and sequence.
//
// Returns:
//   - *domain.Booking: the persisted booking. When a booking for the same
//     payment ID already exists, that booking is returned instead.
//   - bool: true when a new booking was created.
//   - error: any database error.
func (r *BookingRepo) CreateWithTicket(
	ctx context.Context,
	b *domain.Booking,
	ticketID func(dayNumber, seq int) string,
) (*domain.Booking, bool, error) {
	const op = "postgresrepo.BookingRepo.CreateWithTicket"

	if r.db != nil {
		out, created, err := r.createWithTicketCore(ctx, r.db, b, ticketID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return out, created, nil
	}

	// READ COMMITTED lets concurrent bookings queue on the sequence row
	// instead of failing with serialization errors.
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, false, wrapDBErr(op, err)
	}

	defer tx.Rollback(ctx)

	out, created, err := r.createWithTicketCore(ctx, tx, b, ticketID)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, wrapDBErr(op, err)
	}

	return out, created, nil
}

func (r *BookingRepo) createWithTicketCore(
	ctx context.Context,
	db DB,
	b *domain.Booking,
	ticketID func(dayNumber, seq int) string,
) (*domain.Booking, bool, error) {
	const op = "postgresrepo.BookingRepo.createWithTicketCore"

	out := *b
	if out.ID == uuid.Nil {
		out.ID = uuid.New()
	}

	err := db.QueryRow(ctx,
		`INSERT INTO bookings(
			id, event_id, pass_id, customer_name, customer_email, customer_phone,
			quantity, total_minor, currency, payment_id, order_id, status,
			referral_code, discount_minor, original_minor, day_number)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 ON CONFLICT (payment_id) DO NOTHING
		 RETURNING created_at`,
		out.ID, out.EventID, out.PassID, out.CustomerName, out.CustomerEmail, out.CustomerPhone,
		out.Quantity, out.TotalMinor, out.Currency, out.PaymentID, out.OrderID, string(out.Status),
		out.ReferralCode, out.DiscountMinor, out.OriginalMinor, out.DayNumber,
	).Scan(&out.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		existing, err := r.getBy(ctx, db, "payment_id", out.PaymentID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, wrapDBErr(op, err)
	}

	seq, err := (&SequenceRepo{pool: r.pool}).With(db).Next(ctx, out.DayNumber)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	out.TicketID = ticketID(out.DayNumber, seq)

	if _, err := db.Exec(ctx,
		`UPDATE bookings SET ticket_id = $2 WHERE id = $1`,
		out.ID, out.TicketID,
	); err != nil {
		return nil, false, wrapDBErr(op, err)
	}

	return &out, true, nil
}

// GetByID retrieves a booking by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the booking is not found.
func (r *BookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "postgresrepo.BookingRepo.GetByID"

	b, err := r.getBy(ctx, r.handle(), "id", id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// List returns bookings newest first, optionally filtered by event.
func (r *BookingRepo) List(ctx context.Context, eventID *int64, limit, offset int) ([]domain.Booking, error) {
	const op = "postgresrepo.BookingRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+bookingColumns+`
		 FROM bookings
		 WHERE ($1::bigint IS NULL OR event_id = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		eventID, limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *BookingRepo) getBy(ctx context.Context, db DB, column string, value any) (*domain.Booking, error) {
	b, err := scanBooking(db.QueryRow(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE `+column+` = $1`,
		value,
	))
	if err != nil {
		return nil, translateDBErr(err)
	}

	return b, nil
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	var status string

	if err := row.Scan(
		&b.ID,
		&b.EventID,
		&b.PassID,
		&b.CustomerName,
		&b.CustomerEmail,
		&b.CustomerPhone,
		&b.Quantity,
		&b.TotalMinor,
		&b.Currency,
		&b.PaymentID,
		&b.OrderID,
		&status,
		&b.ReferralCode,
		&b.DiscountMinor,
		&b.OriginalMinor,
		&b.DayNumber,
		&b.TicketID,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}

	b.Status = domain.BookingStatus(status)

	return &b, nil
}
