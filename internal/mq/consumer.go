package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Consumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	queue    string
	keys     []string
}

func NewConsumer(url, exchange, queue string, keys []string) (*Consumer, error) {
	const op = "mq.NewConsumer"

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("%s: dial rabbitmq: %w", op, err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: open channel: %w", op, err)
	}
	if err := ch.Qos(50, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: qos: %w", op, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: declare exchange: %w", op, err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: declare queue: %w", op, err)
	}
	for _, rk := range keys {
		if err := ch.QueueBind(q.Name, rk, exchange, false, nil); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("%s: bind %s: %w", op, rk, err)
		}
	}

	return &Consumer{conn: conn, ch: ch, exchange: exchange, queue: q.Name, keys: keys}, nil
}

func (c *Consumer) Deliveries(ctx context.Context) (<-chan amqp.Delivery, error) {
	return c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Handler processes one message body. A returned error rejects the message
// without requeueing it.
type Handler func(ctx context.Context, body []byte) error

// Run consumes until ctx is done, reconnecting with exponential backoff
// whenever the broker connection drops.
func Run(
	ctx context.Context,
	log *slog.Logger,
	url, exchange, queue string,
	keys []string,
	h Handler,
) error {
	backoff := time.Second

	for {
		c, err := NewConsumer(url, exchange, queue, keys)
		if err == nil {
			backoff = time.Second
			var msgs <-chan amqp.Delivery
			if msgs, err = c.Deliveries(ctx); err == nil {
				err = consume(ctx, log, msgs, h)
			}
			_ = c.Close()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Warn("consumer disconnected, retrying",
			slog.String("error", err.Error()),
			slog.Duration("backoff", backoff),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func consume(ctx context.Context, log *slog.Logger, msgs <-chan amqp.Delivery, h Handler) error {
	for d := range msgs {
		if err := h(ctx, d.Body); err != nil {
			log.Error("handle message failed",
				slog.String("routing_key", d.RoutingKey),
				slog.String("error", err.Error()),
			)
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}

	return errors.New("deliveries channel closed")
}
