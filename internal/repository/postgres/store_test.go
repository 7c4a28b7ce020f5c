package postgresrepo

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/tixgo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to TEST_POSTGRES_DSN and resets the schema. Tests
// using it are skipped when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	schema, err := os.ReadFile("testdata/schema.sql")
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS booking_analytics, ticket_sequences, bookings, passes, event_days, events`)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(schema))
	require.NoError(t, err)

	return NewStore(pool)
}

func testTicketID(day, seq int) string {
	return fmt.Sprintf("D%d-%d", day, seq)
}

func TestSequenceRepo_Next_ConcurrentIsPermutation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 50

	var wg sync.WaitGroup
	results := make([]int, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = store.Sequences().Next(ctx, 2)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	sort.Ints(results)
	for i, v := range results {
		assert.Equal(t, i+1, v)
	}

	// other days keep their own counter
	first, err := store.Sequences().Next(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, first)
}

func TestBookingRepo_CreateWithTicket(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	b := &domain.Booking{
		EventID:       1,
		PassID:        1,
		CustomerName:  "Asha",
		CustomerEmail: "asha@example.com",
		Quantity:      2,
		TotalMinor:    200000,
		Currency:      "INR",
		PaymentID:     "pay_1",
		OrderID:       "order_1",
		Status:        domain.BookingConfirmed,
		DayNumber:     1,
	}

	created, ok, err := store.Bookings().CreateWithTicket(ctx, b, testTicketID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "D1-1", created.TicketID)

	again, ok, err := store.Bookings().CreateWithTicket(ctx, b, testTicketID)
	require.NoError(t, err)
	assert.False(t, ok, "same payment must not create a second booking")
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "D1-1", again.TicketID)

	list, err := store.Bookings().List(ctx, nil, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	next, err := store.Sequences().Next(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, next, "duplicate verification must not consume a sequence number")
}

func TestBookingRepo_CreateWithTicket_ConcurrentSamePayment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const n = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	ticketIDs := map[string]int{}
	created := 0

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, ok, err := store.Bookings().CreateWithTicket(ctx, &domain.Booking{
				EventID:       1,
				PassID:        1,
				CustomerName:  "Ravi",
				CustomerEmail: "ravi@example.com",
				Quantity:      1,
				TotalMinor:    50000,
				Currency:      "INR",
				PaymentID:     "pay_dup",
				OrderID:       "order_dup",
				Status:        domain.BookingConfirmed,
				DayNumber:     1,
			}, testTicketID)
			if !assert.NoError(t, err) {
				return
			}

			mu.Lock()
			defer mu.Unlock()
			ticketIDs[out.TicketID]++
			if ok {
				created++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Len(t, ticketIDs, 1)
}

func TestEventRepo_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ev := &domain.Event{Title: "Fest", Venue: "Main Ground", IsMultiDay: true}

	var id int64
	err := store.RunTx(ctx, nil, func(ctx context.Context, tx DB) error {
		var err error
		id, err = store.Events().With(tx).CreateEvent(ctx, ev)
		if err != nil {
			return err
		}
		if err := store.Events().With(tx).BatchCreateDays(ctx, id, []domain.EventDay{
			{DayNumber: 1, Venue: "Hall A"},
			{DayNumber: 2, Venue: "Hall B"},
		}); err != nil {
			return err
		}
		return store.Events().With(tx).BatchCreatePasses(ctx, id, []domain.Pass{
			{DayNumber: 2, Name: "Day 2", PriceMinor: 99900},
		})
	})
	require.NoError(t, err)

	got, err := store.Events().GetEvent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Fest", got.Title)
	require.Len(t, got.Days, 2)
	assert.Equal(t, "Hall B", got.Days[1].Venue)
	require.Len(t, got.Passes, 1)
	assert.Equal(t, 2, got.Passes[0].TicketDay())
}

func TestAnalyticsRepo_RecordAndSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := time.Date(2025, 12, 20, 0, 0, 0, 0, time.UTC)

	for _, rec := range []domain.AnalyticsRecord{
		{BookingID: uuid.New(), EventID: 1, RevenueMinor: 150000, Date: day},
		{BookingID: uuid.New(), EventID: 1, RevenueMinor: 50000, Date: day},
		{BookingID: uuid.New(), EventID: 2, RevenueMinor: 99900, Date: day},
	} {
		require.NoError(t, store.Analytics().Record(ctx, rec))
	}

	sum, err := store.Analytics().Summary(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(3), sum.TotalBookings)
	assert.Equal(t, int64(299900), sum.RevenueMinor)
	require.Len(t, sum.Events, 2)
	assert.Equal(t, int64(1), sum.Events[0].EventID)
	assert.Equal(t, int64(2), sum.Events[0].Bookings)
}
