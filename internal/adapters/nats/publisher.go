package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mechlink/mechlink/internal/core/domain"
)

// Subjects carrying mechlink events.
const (
	SubjectSearchPerformed = "mechlink.search.performed"
	SubjectWorkshopUpdated = "mechlink.workshops.updated"
	// SubjectWorkshopUpdates matches updates for every workshop.
	SubjectWorkshopUpdates = SubjectWorkshopUpdated + ".>"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and enables JetStream.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	// One stream per event family.
	streams := []nats.StreamConfig{
		{
			Name:      "WORKSHOP_SEARCHES",
			Subjects:  []string{"mechlink.search.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    7 * 24 * time.Hour,
			Storage:   nats.FileStorage,
		},
		{
			Name:      "WORKSHOP_UPDATES",
			Subjects:  []string{"mechlink.workshops.>"},
			Retention: nats.InterestPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Already declared; bring its config up to date.
			if _, err := js.UpdateStream(&cfg); err != nil {
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishSearchPerformed records a completed search.
func (p *Publisher) PublishSearchPerformed(ctx context.Context, event *domain.SearchEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectSearchPerformed, data, nats.Context(ctx), nats.MsgId(event.ID))
	return err
}

// PublishWorkshopUpdated announces a changed workshop.
func (p *Publisher) PublishWorkshopUpdated(ctx context.Context, update *domain.WorkshopUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(SubjectWorkshopUpdated+"."+update.WorkshopID, data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for health checks and relays.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn opens a core NATS connection that retries forever.
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("mechlink"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
