// nav/events.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"fmt"
	"slices"
	"sync"
	"time"
)

// EventStream provides a basic pub/sub event interface that allows the
// session to report navigation progress and other parts of the system
// (typically the UI shell) to subscribe and receive messages from the
// stream without registering callbacks into the engine.
type EventStream struct {
	mu            sync.Mutex
	events        []Event
	lastCompact   time.Time
	subscriptions map[*EventsSubscription]interface{}
}

type EventsSubscription struct {
	stream *EventStream
	// offset is the offset in the EventStream events array up to which
	// the subscriber has consumed events so far.
	offset int
}

type EventType int

const (
	StateChangedEvent EventType = iota
	RouteReadyEvent
	AnnouncementEvent
	ArrivedEvent
	NumEventTypes
)

func (t EventType) String() string {
	return [...]string{"StateChanged", "RouteReady", "Announcement", "Arrived"}[t]
}

type Event struct {
	Type       EventType
	State      State
	Route      *Route // RouteReadyEvent only
	Text       string // AnnouncementEvent only
	WaypointID string // AnnouncementEvent for a nearby feature
}

func (e *Event) String() string {
	return fmt.Sprintf("%s: state %s text %q", e.Type, e.State, e.Text)
}

func NewEventStream() *EventStream {
	return &EventStream{subscriptions: make(map[*EventsSubscription]interface{})}
}

// Subscribe registers a new subscriber to the stream and returns an
// EventsSubscription that can be used to consume events from it.
func (e *EventStream) Subscribe() *EventsSubscription {
	sub := &EventsSubscription{stream: e}

	e.mu.Lock()
	defer e.mu.Unlock()

	sub.offset = len(e.events)
	e.subscriptions[sub] = nil
	return sub
}

// Unsubscribe removes a subscriber from the subscriber list.
func (e *EventsSubscription) Unsubscribe() {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	delete(e.stream.subscriptions, e)
	e.stream = nil
}

// Post adds an event to the event stream.
func (e *EventStream) Post(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Ignore the event if no one's paying attention.
	if len(e.subscriptions) > 0 {
		e.events = append(e.events, event)
	}
}

// Get returns all of the events from the stream since the last time Get
// was called with the given subscription. Note that events posted before
// Subscribe was called are never reported for that subscription.
func (e *EventsSubscription) Get() []Event {
	e.stream.mu.Lock()
	defer e.stream.mu.Unlock()

	events := slices.Clone(e.stream.events[e.offset:])
	e.offset = len(e.stream.events)

	if time.Since(e.stream.lastCompact) > 1*time.Second {
		e.stream.compact()
		e.stream.lastCompact = time.Now()
	}

	return events
}

// compact reclaims storage for events that all subscribers have seen; it
// is called periodically so that EventStream memory usage doesn't grow
// without bound.
func (e *EventStream) compact() {
	minOffset := len(e.events)
	for sub := range e.subscriptions {
		if sub.offset < minOffset {
			minOffset = sub.offset
		}
	}

	if minOffset > cap(e.events)/2 {
		n := len(e.events) - minOffset

		copy(e.events, e.events[minOffset:])
		e.events = e.events[:n]

		for sub := range e.subscriptions {
			sub.offset -= minOffset
		}
	}
}
