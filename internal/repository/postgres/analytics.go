package postgresrepo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixgo/internal/domain"
)

type AnalyticsRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AnalyticsRepo) With(db DB) *AnalyticsRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AnalyticsRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Record inserts one revenue row for a booking.
func (r *AnalyticsRepo) Record(ctx context.Context, rec domain.AnalyticsRecord) error {
	const op = "postgresrepo.AnalyticsRepo.Record"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO booking_analytics(booking_id, event_id, revenue_minor, date)
		 VALUES ($1, $2, $3, $4)`,
		rec.BookingID, rec.EventID, rec.RevenueMinor, rec.Date,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

// Summary aggregates booking counts and revenue per event.
func (r *AnalyticsRepo) Summary(ctx context.Context) (*domain.AnalyticsSummary, error) {
	const op = "postgresrepo.AnalyticsRepo.Summary"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT a.event_id, COALESCE(e.title, ''), COUNT(*), COALESCE(SUM(a.revenue_minor), 0)
		 FROM booking_analytics a
		 LEFT JOIN events e ON e.id = a.event_id
		 GROUP BY a.event_id, e.title
		 ORDER BY 4 DESC`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := domain.AnalyticsSummary{
		Events:      []domain.EventRevenue{},
		GeneratedAt: time.Now().UTC(),
	}
	for rows.Next() {
		var er domain.EventRevenue
		if err := rows.Scan(&er.EventID, &er.Title, &er.Bookings, &er.RevenueMinor); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out.TotalBookings += er.Bookings
		out.RevenueMinor += er.RevenueMinor
		out.Events = append(out.Events, er)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &out, nil
}
