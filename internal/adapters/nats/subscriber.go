package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn    *nats.Conn
	js      nats.JetStreamContext
	durable string
	subs    []*nats.Subscription
}

// NewSubscriber creates a subscriber. durable names the consumer so that
// replicas of one service share deliveries.
func NewSubscriber(url, durable string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js, durable: durable}, nil
}

// SubscribeWorkshopUpdates delivers workshop-updated events to handler.
// Messages are acked on success and redelivered up to three times otherwise.
func (s *Subscriber) SubscribeWorkshopUpdates(ctx context.Context, handler func(ctx context.Context, update *domain.WorkshopUpdate) error) error {
	sub, err := s.js.QueueSubscribe(SubjectWorkshopUpdates, s.durable, func(msg *nats.Msg) {
		var update domain.WorkshopUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &update); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(s.durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
