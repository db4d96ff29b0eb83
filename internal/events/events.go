package events

import (
	"context"
	"log"
	"sync"

	"github.com/praxislabs/praxis/pkg/messages"
)

// Sink receives training events. Delivery is best-effort: a failing sink must
// never abort the operation that triggered the event.
type Sink interface {
	Publish(ctx context.Context, event *messages.EventMessage) error
}

// Fanout dispatches each event to every registered sink. Sink errors are
// logged and swallowed.
type Fanout struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewFanout creates a fanout over zero or more sinks
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

var _ Sink = (*Fanout)(nil)

// Add registers an additional sink
func (f *Fanout) Add(sink Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, sink)
}

// Publish delivers the event to all sinks. Always returns nil.
func (f *Fanout) Publish(ctx context.Context, event *messages.EventMessage) error {
	f.mu.RLock()
	sinks := make([]Sink, len(f.sinks))
	copy(sinks, f.sinks)
	f.mu.RUnlock()

	for _, sink := range sinks {
		if err := sink.Publish(ctx, event); err != nil {
			log.Printf("[Events] sink failed for %s: %v", event.Type, err)
		}
	}
	return nil
}

// MemorySink records events in memory, for tests and progress inspection.
type MemorySink struct {
	mu     sync.Mutex
	events []*messages.EventMessage
}

// NewMemorySink creates an empty in-memory sink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

var _ Sink = (*MemorySink)(nil)

// Publish appends the event
func (m *MemorySink) Publish(ctx context.Context, event *messages.EventMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a snapshot of recorded events
func (m *MemorySink) Events() []*messages.EventMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*messages.EventMessage, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns recorded events matching the given type
func (m *MemorySink) EventsOfType(eventType string) []*messages.EventMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*messages.EventMessage
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
