// Package events publishes build reports to an optional NATS subject
// for external consumers (dashboards, chat notifications). Grounded on
// the teacher's EventEmitter no-op-when-unconfigured idiom
// (internal/daemon/event_emitter.go), retargeted from an in-process
// event store to github.com/nats-io/nats.go.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

// Config names the NATS server and subject a Publisher publishes to.
// A zero Config (empty URL) means events are not configured.
type Config struct {
	URL     string
	Subject string
}

// Publisher publishes JSON-encoded payloads to a NATS subject. A nil
// *Publisher, or one built from an unconfigured Config, no-ops on
// Publish rather than erroring, so callers don't need to branch on
// whether events are enabled.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials cfg.URL and returns a Publisher bound to cfg.Subject.
// An empty cfg.URL returns a nil-connection Publisher that no-ops.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		return &Publisher{}, nil
	}
	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("events: failed to connect to %s: %w", cfg.URL, err)
	}
	return &Publisher{conn: conn, subject: cfg.Subject}, nil
}

// Publish JSON-encodes payload and publishes it to the configured
// subject. It no-ops when the Publisher is unconfigured.
func (p *Publisher) Publish(payload any) error {
	if p == nil || p.conn == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: failed to encode payload: %w", err)
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("events: failed to publish: %w", err)
	}
	return nil
}

// Close drains and closes the underlying connection, if any.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}
