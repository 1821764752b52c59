package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/mechlink/mechlink/internal/adapters/nats"
	"github.com/mechlink/mechlink/internal/pkg/metrics"
)

// wsMessage is sent by clients to narrow or widen their feed.
type wsMessage struct {
	Action     string `json:"action"`      // "subscribe" | "unsubscribe"
	WorkshopID string `json:"workshop_id"` // "" = every workshop
}

func workshopSubject(id string) string {
	if id == "" {
		return natsadapter.SubjectWorkshopUpdates
	}
	return natsadapter.SubjectWorkshopUpdated + "." + id
}

// WebSocketHandler relays workshop update events to connected clients.
// Every client starts subscribed to all workshops and may send
// {"action":"subscribe","workshop_id":"..."} to follow a single one.
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		remote := c.RemoteAddr().String()
		if nc == nil {
			_ = c.WriteJSON(map[string]string{"error": "event stream unavailable"})
			return
		}

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()
		slog.Debug("ws client connected", "remote", remote)

		var mu sync.Mutex
		send := func(v any) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteJSON(v)
		}
		relay := func(msg *nats.Msg) {
			_ = send(json.RawMessage(msg.Data))
		}

		subs := make(map[string]*nats.Subscription)
		defer func() {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
		}()

		all := workshopSubject("")
		sub, err := nc.Subscribe(all, relay)
		if err != nil {
			slog.Error("ws subscribe", "subject", all, "error", err)
			return
		}
		subs[all] = sub

		done := make(chan struct{})
		defer close(done)
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(data, &m); err != nil {
				_ = send(map[string]string{"error": "invalid JSON"})
				continue
			}
			subject := workshopSubject(m.WorkshopID)

			switch m.Action {
			case "subscribe":
				if _, ok := subs[subject]; ok {
					_ = send(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, relay)
				if err != nil {
					_ = send(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = send(map[string]string{"status": "subscribed", "subject": subject})
			case "unsubscribe":
				s, ok := subs[subject]
				if !ok {
					_ = send(map[string]string{"error": "not subscribed to " + subject})
					continue
				}
				_ = s.Unsubscribe()
				delete(subs, subject)
				_ = send(map[string]string{"status": "unsubscribed", "subject": subject})
			default:
				_ = send(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		slog.Debug("ws client disconnected", "remote", remote)
	}
}
