// Package pointer turns smoothed touch positions into absolute pointer
// events and delivers them to a Sink.
package pointer

import "sync"

// Sink receives absolute pointer events. Coordinates span [0, 65535] on both
// axes. Delivery is fire-and-forget.
type Sink interface {
	MoveTo(x, y uint16)
	ButtonDown()
	ButtonUp()
	Scroll(delta int)
}

// NullSink discards every event.
type NullSink struct{}

func (NullSink) MoveTo(x, y uint16) {}
func (NullSink) ButtonDown()        {}
func (NullSink) ButtonUp()          {}
func (NullSink) Scroll(delta int)   {}

// EventKind identifies a recorded event.
type EventKind string

const (
	EventMove   EventKind = "move"
	EventDown   EventKind = "down"
	EventUp     EventKind = "up"
	EventScroll EventKind = "scroll"
)

// Event is one call made on a MockSink.
type Event struct {
	Kind  EventKind `json:"kind"`
	X     uint16    `json:"x,omitempty"`
	Y     uint16    `json:"y,omitempty"`
	Delta int       `json:"delta,omitempty"`
}

// MockSink records events for tests and for the debug feed.
type MockSink struct {
	mu     sync.Mutex
	events []Event
}

// NewMockSink returns an empty recorder.
func NewMockSink() *MockSink {
	return &MockSink{}
}

func (s *MockSink) MoveTo(x, y uint16) { s.add(Event{Kind: EventMove, X: x, Y: y}) }
func (s *MockSink) ButtonDown()        { s.add(Event{Kind: EventDown}) }
func (s *MockSink) ButtonUp()          { s.add(Event{Kind: EventUp}) }
func (s *MockSink) Scroll(delta int)   { s.add(Event{Kind: EventScroll, Delta: delta}) }

func (s *MockSink) add(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a copy of everything recorded so far.
func (s *MockSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Kinds returns the kinds of the recorded events in order.
func (s *MockSink) Kinds() []EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventKind, len(s.events))
	for i, e := range s.events {
		out[i] = e.Kind
	}
	return out
}

// Reset clears the recording.
func (s *MockSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
