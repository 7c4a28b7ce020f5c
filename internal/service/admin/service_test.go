package admin

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/kirinyoku/tixgo/internal/domain"
	redisrepo "github.com/kirinyoku/tixgo/internal/repository/redis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsSummary_ServedFromCacheUntilBookingChange(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cache := redisrepo.New(rdb)
	// no store: a cache miss would panic
	svc := New(nil, cache, redisrepo.NewChangesPubSub(rdb), Config{},
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	cached := domain.AnalyticsSummary{
		TotalBookings: 3,
		RevenueMinor:  450000,
		Events:        []domain.EventRevenue{},
		GeneratedAt:   time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC),
	}
	raw, err := json.Marshal(cached)
	require.NoError(t, err)
	require.NoError(t, mr.Set(redisrepo.KeyAnalyticsSummary(), string(raw)))

	ctx := context.Background()
	got, err := svc.AnalyticsSummary(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.TotalBookings)
	assert.Equal(t, int64(450000), got.RevenueMinor)

	require.NoError(t, cache.Apply(ctx, redisrepo.Change{Type: redisrepo.ChangeBooking, EventID: 1}))
	assert.False(t, mr.Exists(redisrepo.KeyAnalyticsSummary()))
}

func TestNew_DefaultsAnalyticsTTL(t *testing.T) {
	svc := New(nil, nil, nil, Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, 30*time.Second, svc.cfg.AnalyticsTTL)
	assert.Equal(t, 50, svc.cfg.DefaultBookingsPage)
	assert.Equal(t, 500, svc.cfg.MaxBookingsPage)
}
