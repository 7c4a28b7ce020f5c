package postgresrepo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SequenceRepo hands out ticket sequence numbers from the ticket_sequences
// table, one counter row per event day.
type SequenceRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *SequenceRepo) With(db DB) *SequenceRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *SequenceRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Next increments the counter of the given day and returns the new value.
// The first call for a day returns 1.
//
// The increment is a single upsert, so concurrent callers are serialized on
// the counter row and never observe the same value. Inside a SERIALIZABLE
// transaction a concurrent increment surfaces as a serialization failure
// instead; callers should use READ COMMITTED.
func (r *SequenceRepo) Next(ctx context.Context, dayNumber int) (int, error) {
	const op = "postgresrepo.SequenceRepo.Next"

	db := r.handle()

	var seq int
	if err := db.QueryRow(ctx,
		`INSERT INTO ticket_sequences(day_number, seq)
		 VALUES ($1, 1)
		 ON CONFLICT (day_number)
		 DO UPDATE SET seq = ticket_sequences.seq + 1
		 RETURNING seq`,
		dayNumber,
	).Scan(&seq); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return seq, nil
}
