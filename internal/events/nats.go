package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/praxislabs/praxis/pkg/messages"
)

// NatsSink publishes training events to NATS with JetStream persistence so
// downstream consumers (UI, analytics) can replay them.
type NatsSink struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	streamName string
}

// NatsConfig holds NATS connection configuration
type NatsConfig struct {
	URL        string        // NATS server URL (e.g. "nats://nats:4222")
	StreamName string        // JetStream stream name (default: "PRAXIS")
	Timeout    time.Duration // Connection timeout
}

// NewNatsSink connects to NATS and ensures the training event stream exists
func NewNatsSink(cfg NatsConfig) (*NatsSink, error) {
	if cfg.URL == "" {
		cfg.URL = "nats://localhost:4222"
	}
	if cfg.StreamName == "" {
		cfg.StreamName = "PRAXIS"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Timeout(cfg.Timeout),
		nats.ReconnectWait(1*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	s := &NatsSink{conn: nc, js: js, streamName: cfg.StreamName}
	if err := s.ensureStream(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream: %w", err)
	}

	log.Printf("Connected to NATS at %s with JetStream stream %s", cfg.URL, cfg.StreamName)
	return s, nil
}

var _ Sink = (*NatsSink)(nil)

// ensureStream creates the JetStream stream if it doesn't exist yet.
// LimitsPolicy so multiple consumers can subscribe to the same subjects.
func (s *NatsSink) ensureStream() error {
	_, err := s.js.StreamInfo(s.streamName)
	if err == nil {
		return nil
	}
	_, err = s.js.AddStream(&nats.StreamConfig{
		Name:      s.streamName,
		Subjects:  []string{"praxis.>"},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
		Replicas:  1,
		Discard:   nats.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}
	log.Printf("Created JetStream stream: %s", s.streamName)
	return nil
}

// Publish sends the event to praxis.training.events.<type>
func (s *NatsSink) Publish(ctx context.Context, event *messages.EventMessage) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	subject := fmt.Sprintf("praxis.training.events.%s", event.Type)
	if _, err := s.js.Publish(subject, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Close drains the NATS connection
func (s *NatsSink) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
