package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/adapters/nats"
	"github.com/twmiddleton21-lgtm/HGV-Destinations-Pro/internal/pkg/metrics"
)

// WebSocketHandler relays route change events to connected map clients so an
// open sheet re-renders when a collaborator edits it. Clients receive JSON
// ChangeEvent payloads; they send nothing but pings.
func WebSocketHandler(notifier *natsadapter.Notifier) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		if notifier == nil {
			_ = c.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseServiceRestart, "notifications unavailable"))
			return
		}

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)
		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		var mu sync.Mutex
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		sub, err := notifier.Conn().Subscribe(natsadapter.SubjectRoutesUpdated, func(msg *nats.Msg) {
			_ = writeJSON(json.RawMessage(msg.Data))
		})
		if err != nil {
			slog.Error("ws subscribe failed", "error", err)
			return
		}
		defer func() { _ = sub.Unsubscribe() }()

		// Keep-alive ping
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

		// Block until the client goes away; inbound frames are discarded.
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
