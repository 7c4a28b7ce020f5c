package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixgo/internal/domain"
)

type EventRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EventRepo) With(db DB) *EventRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EventRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetEvent retrieves an event together with its days and passes.
//
// Parameters:
//   - ctx: request-scoped context for cancellation and timeouts.
//   - id: unique identifier of the event to retrieve.
//
// Returns:
//   - *domain.Event: the event when found.
//   - error: repository.ErrNotFound if the event is not found.
func (r *EventRepo) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "postgresrepo.EventRepo.GetEvent"

	db := r.handle()

	var e domain.Event
	err := db.QueryRow(ctx,
		`SELECT id, title, description, venue, starts_at, time_label, is_multi_day, created_at
		 FROM events WHERE id = $1`,
		id,
	).Scan(
		&e.ID,
		&e.Title,
		&e.Description,
		&e.Venue,
		&e.StartsAt,
		&e.TimeLabel,
		&e.IsMultiDay,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	dayRows, err := db.Query(ctx,
		`SELECT id, event_id, day_number, date, time_label, venue
		 FROM event_days
		 WHERE event_id = $1
		 ORDER BY day_number`,
		id,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	e.Days, err = pgx.CollectRows(dayRows, func(row pgx.CollectableRow) (domain.EventDay, error) {
		var d domain.EventDay
		err := row.Scan(&d.ID, &d.EventID, &d.DayNumber, &d.Date, &d.TimeLabel, &d.Venue)
		return d, err
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	passRows, err := db.Query(ctx,
		`SELECT id, event_id, day_number, name, price_minor
		 FROM passes
		 WHERE event_id = $1
		 ORDER BY id`,
		id,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	e.Passes, err = pgx.CollectRows(passRows, func(row pgx.CollectableRow) (domain.Pass, error) {
		var p domain.Pass
		err := row.Scan(&p.ID, &p.EventID, &p.DayNumber, &p.Name, &p.PriceMinor)
		return p, err
	})
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &e, nil
}

// ListEvents lists events ordered by start time. Days and passes are not loaded.
func (r *EventRepo) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "postgresrepo.EventRepo.ListEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, title, description, venue, starts_at, time_label, is_multi_day, created_at
		 FROM events
		 ORDER BY starts_at
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		if err := rows.Scan(
			&e.ID,
			&e.Title,
			&e.Description,
			&e.Venue,
			&e.StartsAt,
			&e.TimeLabel,
			&e.IsMultiDay,
			&e.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

// CreateEvent inserts the event row and returns its ID. Days and passes are
// created separately so callers can run everything inside one transaction.
func (r *EventRepo) CreateEvent(ctx context.Context, e *domain.Event) (int64, error) {
	const op = "postgresrepo.EventRepo.CreateEvent"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO events(title, description, venue, starts_at, time_label, is_multi_day)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		e.Title, e.Description, e.Venue, e.StartsAt, e.TimeLabel, e.IsMultiDay,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *EventRepo) BatchCreateDays(ctx context.Context, eventID int64, days []domain.EventDay) error {
	const op = "postgresrepo.EventRepo.BatchCreateDays"

	if len(days) == 0 {
		return nil
	}

	db := r.handle()

	batch := &pgx.Batch{}
	for _, d := range days {
		batch.Queue(
			`INSERT INTO event_days(event_id, day_number, date, time_label, venue)
			 VALUES ($1, $2, $3, $4, $5)`,
			eventID, d.DayNumber, d.Date, d.TimeLabel, d.Venue,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *EventRepo) BatchCreatePasses(ctx context.Context, eventID int64, passes []domain.Pass) error {
	const op = "postgresrepo.EventRepo.BatchCreatePasses"

	if len(passes) == 0 {
		return nil
	}

	db := r.handle()

	batch := &pgx.Batch{}
	for _, p := range passes {
		batch.Queue(
			`INSERT INTO passes(event_id, day_number, name, price_minor)
			 VALUES ($1, $2, $3, $4)`,
			eventID, p.DayNumber, p.Name, p.PriceMinor,
		)
	}
	if err := db.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("%s: %w", op, translateDBErr(err))
	}

	return nil
}
