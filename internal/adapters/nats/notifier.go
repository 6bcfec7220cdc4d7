// Package natsadapter carries route change notifications over NATS so every
// running instance can tell connected map clients to re-render.
package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectRoutesUpdated is the subject change events are published on.
const SubjectRoutesUpdated = "routes.updated"

// ChangeEvent is the payload published when route documents change.
type ChangeEvent struct {
	RouteIDs []string  `json:"routeIds"`
	At       time.Time `json:"at"`
}

// Notifier implements ports.ChangeNotifier. Change events are ephemeral
// fan-out, not work items, so this uses core NATS rather than JetStream: a
// client that was disconnected simply re-fetches the sheet on reconnect.
type Notifier struct {
	conn *nats.Conn
}

// NewNotifier connects to NATS.
func NewNotifier(url string) (*Notifier, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &Notifier{conn: conn}, nil
}

// RoutesUpdated publishes a change event for the given route IDs.
func (n *Notifier) RoutesUpdated(ctx context.Context, routeIDs []string) error {
	data, err := json.Marshal(ChangeEvent{RouteIDs: routeIDs, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	return n.conn.Publish(SubjectRoutesUpdated, data)
}

// Conn exposes the underlying connection for per-client subscriptions, such
// as the WebSocket relay.
func (n *Notifier) Conn() *nats.Conn {
	return n.conn
}

// Ready reports whether the connection is usable, for the readiness probe.
func (n *Notifier) Ready() bool {
	return n.conn.IsConnected()
}

// Close drains the connection, letting in-flight handlers finish.
func (n *Notifier) Close() {
	_ = n.conn.Drain()
}
