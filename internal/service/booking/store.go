package booking

import (
	"context"

	"github.com/kirinyoku/tixgo/internal/domain"
	postgresrepo "github.com/kirinyoku/tixgo/internal/repository/postgres"
)

type pgStore struct {
	store *postgresrepo.Store
}

// NewPostgresStore backs the issuer with Postgres. Ticket IDs come from
// GenerateTicketID over the per-day sequence.
func NewPostgresStore(store *postgresrepo.Store) Store {
	return &pgStore{store: store}
}

func (s *pgStore) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return s.store.Events().GetEvent(ctx, id)
}

func (s *pgStore) CreateBooking(ctx context.Context, b *domain.Booking) (*domain.Booking, bool, error) {
	return s.store.Bookings().CreateWithTicket(ctx, b, GenerateTicketID)
}

func (s *pgStore) RecordAnalytics(ctx context.Context, rec domain.AnalyticsRecord) error {
	return s.store.Analytics().Record(ctx, rec)
}
