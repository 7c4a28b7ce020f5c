// Command bookinglog writes every confirmed booking to a structured log for
// reconciliation against the payment gateway.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirinyoku/tixgo/internal/config"
	"github.com/kirinyoku/tixgo/internal/mq"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.NewConsumer()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("consuming booking events", "queue", cfg.AMQP.Queue)

	err = mq.Run(ctx, logger, cfg.AMQP.URL, mq.ExchangeBookings, cfg.AMQP.Queue,
		[]string{mq.RoutingBookingConfirmed}, handleBookingConfirmed(logger))
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
}

func handleBookingConfirmed(logger *slog.Logger) mq.Handler {
	return func(ctx context.Context, body []byte) error {
		var m mq.BookingConfirmed
		if err := json.Unmarshal(body, &m); err != nil {
			return fmt.Errorf("decode booking.confirmed: %w", err)
		}

		logger.InfoContext(ctx, "booking confirmed",
			slog.Group("booking",
				slog.String("id", m.BookingID),
				slog.String("ticket_id", m.TicketID),
				slog.Int64("event_id", m.EventID),
				slog.Int64("pass_id", m.PassID),
				slog.Int("day", m.DayNumber),
				slog.Int("quantity", m.Quantity),
				slog.Int64("total_minor", m.TotalMinor),
				slog.String("currency", m.Currency),
			),
			slog.Group("payment",
				slog.String("id", m.PaymentID),
				slog.String("order_id", m.OrderID),
			),
			slog.Time("confirmed_at", m.ConfirmedAt),
		)
		return nil
	}
}
