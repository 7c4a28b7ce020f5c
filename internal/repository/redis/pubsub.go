package redisrepo

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ChangeEvent   = "event_changed"
	ChangeBooking = "bookings_changed"
)

// Change is the payload broadcast to every instance when cached data goes
// stale.
type Change struct {
	Type    string `json:"type"`
	EventID int64  `json:"event_id"`
	TsUnix  int64  `json:"ts_unix"`
}

type ChangesPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewChangesPubSub(rdb *redis.Client) *ChangesPubSub {
	return &ChangesPubSub{
		rdb:     rdb,
		channel: ChannelChanges(),
	}
}

func (p *ChangesPubSub) PublishEventChanged(ctx context.Context, eventID int64) error {
	return p.publish(ctx, ChangeEvent, eventID)
}

func (p *ChangesPubSub) PublishBookingsChanged(ctx context.Context, eventID int64) error {
	return p.publish(ctx, ChangeBooking, eventID)
}

func (p *ChangesPubSub) publish(ctx context.Context, typ string, eventID int64) error {
	b, _ := json.Marshal(Change{
		Type:    typ,
		EventID: eventID,
		TsUnix:  time.Now().Unix(),
	})

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks until ctx is done, calling handler for every well-formed
// change message. Malformed payloads are dropped.
func (p *ChangesPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, c Change)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var c Change
			if err := json.Unmarshal([]byte(m.Payload), &c); err == nil && c.Type != "" {
				handler(ctx, c)
			}
		}
	}
}
