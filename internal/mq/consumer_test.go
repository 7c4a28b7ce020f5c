package mq

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
)

type fakeAck struct {
	acked  []uint64
	nacked []uint64
}

func (f *fakeAck) Ack(tag uint64, multiple bool) error {
	f.acked = append(f.acked, tag)
	return nil
}

func (f *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	return nil
}

func (f *fakeAck) Reject(tag uint64, requeue bool) error {
	f.nacked = append(f.nacked, tag)
	return nil
}

func TestConsume_AcksGoodAndRejectsBad(t *testing.T) {
	ack := &fakeAck{}
	msgs := make(chan amqp.Delivery, 2)
	msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte("ok")}
	msgs <- amqp.Delivery{Acknowledger: ack, DeliveryTag: 2, Body: []byte("bad")}
	close(msgs)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := consume(context.Background(), log, msgs, func(ctx context.Context, body []byte) error {
		if string(body) == "bad" {
			return errors.New("bad payload")
		}
		return nil
	})

	assert.Error(t, err, "closed deliveries end the loop")
	assert.Equal(t, []uint64{1}, ack.acked)
	assert.Equal(t, []uint64{2}, ack.nacked)
}
