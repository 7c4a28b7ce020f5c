package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/kirinyoku/tixgo/internal/repository"
	postgresrepo "github.com/kirinyoku/tixgo/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tixgo/internal/repository/redis"
	"github.com/kirinyoku/tixgo/internal/uow"
)

type Config struct {
	AnalyticsTTL        time.Duration
	DefaultBookingsPage int
	MaxBookingsPage     int
}

type Service struct {
	store  *postgresrepo.Store
	cache  *redisrepo.Cache
	pubsub *redisrepo.ChangesPubSub
	uow    *uow.UoW
	cfg    Config
	log    *slog.Logger
}

func New(
	store *postgresrepo.Store,
	cache *redisrepo.Cache,
	pubsub *redisrepo.ChangesPubSub,
	cfg Config,
	log *slog.Logger,
) *Service {
	if cfg.AnalyticsTTL <= 0 {
		cfg.AnalyticsTTL = 30 * time.Second
	}

	if cfg.DefaultBookingsPage <= 0 {
		cfg.DefaultBookingsPage = 50
	}

	if cfg.MaxBookingsPage <= 0 {
		cfg.MaxBookingsPage = 500
	}

	return &Service{
		store:  store,
		cache:  cache,
		pubsub: pubsub,
		uow:    uow.NewUoW(store),
		cfg:    cfg,
		log:    log.With(slog.String("service", "admin")),
	}
}

type CreateEventInput struct {
	Title       string
	Description string
	Venue       string
	StartsAt    time.Time
	TimeLabel   string
	Days        []domain.EventDay
	Passes      []domain.Pass
}

// CreateEvent creates an event with its days and passes in one transaction.
// After commit the event caches are dropped on every instance.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: the event; more than one day makes it a multi-day event.
//
// Returns:
//   - int64: the created event ID.
//   - error: *domain.ValidationError for inconsistent input.
//   - error: admin.ErrEventConflict if a uniqueness constraint is violated.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (int64, error) {
	const op = "service.admin.CreateEvent"

	if err := validateEvent(in); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	ev := &domain.Event{
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Venue:       in.Venue,
		StartsAt:    in.StartsAt,
		TimeLabel:   in.TimeLabel,
		IsMultiDay:  len(in.Days) > 1,
	}

	var eventID int64

	err := s.uow.Do(ctx, func(
		ctx context.Context,
		tx postgresrepo.DB,
		after func(uow.AfterCommit),
	) error {
		var err error
		eventID, err = s.store.Events().With(tx).CreateEvent(ctx, ev)
		if err != nil {
			return conflictOr(op, err)
		}

		if err := s.store.Events().With(tx).BatchCreateDays(ctx, eventID, in.Days); err != nil {
			return conflictOr(op, err)
		}

		if err := s.store.Events().With(tx).BatchCreatePasses(ctx, eventID, in.Passes); err != nil {
			return conflictOr(op, err)
		}

		after(func(ctx context.Context) {
			if err := s.cache.InvalidateEvent(ctx, eventID); err != nil {
				s.log.Warn("invalidate event cache", slog.Int64("event_id", eventID), slog.String("error", err.Error()))
			}
			_ = s.pubsub.PublishEventChanged(ctx, eventID)
		})

		return nil
	})

	return eventID, err
}

// ListBookings returns bookings newest first, optionally for one event.
func (s *Service) ListBookings(ctx context.Context, eventID *int64, limit, offset int) ([]domain.Booking, error) {
	const op = "service.admin.ListBookings"

	if limit <= 0 {
		limit = s.cfg.DefaultBookingsPage
	}

	if limit > s.cfg.MaxBookingsPage {
		limit = s.cfg.MaxBookingsPage
	}

	if offset < 0 {
		offset = 0
	}

	out, err := s.store.Bookings().List(ctx, eventID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// GetBooking retrieves a booking by its ID.
//
// Returns:
//   - error: admin.ErrBookingNotFound if the booking does not exist.
func (s *Service) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	const op = "service.admin.GetBooking"

	b, err := s.store.Bookings().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return b, nil
}

// AnalyticsSummary returns booking and revenue totals. The result is cached
// for AnalyticsTTL and dropped whenever a booking is confirmed.
func (s *Service) AnalyticsSummary(ctx context.Context) (*domain.AnalyticsSummary, error) {
	const op = "service.admin.AnalyticsSummary"

	sum, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyAnalyticsSummary(),
		s.cfg.AnalyticsTTL,
		func(ctx context.Context) (domain.AnalyticsSummary, error) {
			out, err := s.store.Analytics().Summary(ctx)
			if err != nil {
				return domain.AnalyticsSummary{}, err
			}

			return *out, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &sum, nil
}

func conflictOr(op string, err error) error {
	if errors.Is(err, repository.ErrConflict) {
		return fmt.Errorf("%s: %w", op, ErrEventConflict)
	}

	return fmt.Errorf("%s: %w", op, err)
}
