package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/kirinyoku/tixgo/internal/repository"
	postgresrepo "github.com/kirinyoku/tixgo/internal/repository/postgres"
	redisrepo "github.com/kirinyoku/tixgo/internal/repository/redis"
)

type Config struct {
	EventSummaryTTL   time.Duration
	EventListTTL      time.Duration
	DefaultEventsPage int
	MaxEventsPage     int
}

type Service struct {
	store *postgresrepo.Store
	cache *redisrepo.Cache
	cfg   Config
}

func New(store *postgresrepo.Store, cache *redisrepo.Cache, cfg Config) *Service {
	if cfg.EventSummaryTTL <= 0 {
		cfg.EventSummaryTTL = 60 * time.Second
	}

	if cfg.EventListTTL <= 0 {
		cfg.EventListTTL = 30 * time.Second
	}

	if cfg.DefaultEventsPage <= 0 {
		cfg.DefaultEventsPage = 20
	}

	if cfg.MaxEventsPage <= 0 {
		cfg.MaxEventsPage = 100
	}

	return &Service{
		store: store,
		cache: cache,
		cfg:   cfg,
	}
}

// GetEvent retrieves an event with its days and passes, utilizing a caching
// layer to improve performance.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: ID of the event to retrieve.
//
// Returns:
//   - *domain.Event: the retrieved event, or nil if not found.
//   - error: query.ErrEventNotFound if the event is not found.
func (s *Service) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	const op = "service.query.GetEvent"

	event, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventSummary(id),
		s.cfg.EventSummaryTTL,
		func(ctx context.Context) (domain.Event, error) {
			e, err := s.store.Events().GetEvent(ctx, id)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return domain.Event{}, ErrEventNotFound
				}

				return domain.Event{}, err
			}

			return *e, nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &event, nil
}

// ListEvents lists events by start time. Pages are cached briefly and
// dropped whenever an event changes.
func (s *Service) ListEvents(ctx context.Context, limit, offset int) ([]domain.Event, error) {
	const op = "service.query.ListEvents"

	limit, offset = s.page(limit, offset)

	events, err := redisrepo.GetOrSetJSON(
		ctx,
		s.cache,
		redisrepo.KeyEventList(limit, offset),
		s.cfg.EventListTTL,
		func(ctx context.Context) ([]domain.Event, error) {
			return s.store.Events().ListEvents(ctx, limit, offset)
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (s *Service) page(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.cfg.DefaultEventsPage
	}

	if limit > s.cfg.MaxEventsPage {
		limit = s.cfg.MaxEventsPage
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
