// nav/session.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package nav

import (
	"sync"
	"time"

	"github.com/brunoga/deep"
	"github.com/wayfind/wayfind/geo"
	"github.com/wayfind/wayfind/log"
)

// AnnouncementCooldown is the minimum spacing between spoken progress
// announcements; arrival is always announced regardless.
const AnnouncementCooldown = 10 * time.Second

type State int

const (
	StateIdle State = iota
	StateNavigating
	StateArrived
	StateCancelled
)

func (s State) String() string {
	return [...]string{"Idle", "Navigating", "Arrived", "Cancelled"}[s]
}

// Announcer is the spoken-output sink. The engine never touches audio
// hardware; it hands instruction strings to the Announcer and asks it to
// drop anything still queued when navigation is cancelled.
type Announcer interface {
	Announce(text string)
	CancelPending()
}

// Session owns the mutable state of one navigation: the computed route,
// the user's step progress, and announcement dedup. It is a state machine
// advanced by discrete Tick calls from an external position sampler, which
// keeps it testable with synthetic position sequences instead of
// wall-clock timing. Exactly one navigation is active per session;
// starting a new destination requires cancelling the old one first.
type Session struct {
	mu sync.Mutex

	engine    *Engine
	announcer Announcer
	events    *EventStream
	lg        *log.Logger

	state       State
	destination geo.Point
	route       *Route
	currentStep int

	announced        map[string]bool
	lastAnnouncement string
	lastAnnounceTime time.Time
	cooldown         time.Duration

	// routeGen invalidates in-flight route computations: a computation
	// only installs its result if the generation it started under is
	// still current when it completes.
	routeGen int
}

func NewSession(engine *Engine, announcer Announcer, events *EventStream, lg *log.Logger) *Session {
	return &Session{
		engine:    engine,
		announcer: announcer,
		events:    events,
		lg:        lg,
		cooldown:  AnnouncementCooldown,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Route returns a deep copy of the active route (or nil if none has been
// computed yet), so the UI can hold on to it without racing route
// recomputation.
func (s *Session) Route() *Route {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.route == nil {
		return nil
	}
	return deep.MustCopy(s.route)
}

func (s *Session) CurrentStep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentStep
}

// Start begins navigating from the given position to the destination.
// It is valid only from Idle, except that re-invoking it for the
// destination already being navigated to is a no-op rather than a
// duplicate computation. Route computation runs off the Tick cadence so a
// slow track scan can never block position updates; ticks that arrive
// before it finishes are progress no-ops.
func (s *Session) Start(origin, destination geo.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateNavigating:
		if destination == s.destination {
			return
		}
		s.lg.Warnf("Start(%s) while navigating to %s; cancel first",
			destination.DDString(), s.destination.DDString())
		return
	case StateArrived, StateCancelled:
		s.lg.Warnf("Start() from %s; Reset() first", s.state)
		return
	}

	s.state = StateNavigating
	s.destination = destination
	s.route = nil
	s.currentStep = 0
	s.announced = make(map[string]bool)
	s.lastAnnouncement = ""
	s.lastAnnounceTime = time.Time{}
	s.routeGen++
	s.postEvent(Event{Type: StateChangedEvent, State: s.state})

	gen := s.routeGen
	go s.computeRoute(origin, destination, gen)
}

func (s *Session) computeRoute(origin, destination geo.Point, gen int) {
	route := s.engine.AccessibleRoute(origin, destination)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.routeGen || s.state != StateNavigating {
		// A cancellation or new destination superseded this computation;
		// discard the result.
		s.lg.Debugf("discarding stale route for %s", destination.DDString())
		return
	}
	s.route = route
	s.postEvent(Event{Type: RouteReadyEvent, State: s.state, Route: deep.MustCopy(route)})
}

// Cancel tears the navigation down from Navigating and stops any queued
// spoken output so stale instructions never arrive afterward.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNavigating {
		return
	}
	s.state = StateCancelled
	s.routeGen++
	s.route = nil
	s.announcer.CancelPending()
	s.postEvent(Event{Type: StateChangedEvent, State: s.state})
}

// Reset returns an Arrived or Cancelled session to Idle so a new
// navigation can start.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateArrived && s.state != StateCancelled {
		return
	}
	s.state = StateIdle
	s.route = nil
	s.currentStep = 0
	s.postEvent(Event{Type: StateChangedEvent, State: s.state})
}

// Tick advances the session with one position sample. A nil position (no
// GPS fix this interval) is a no-op, not an error. Each tick checks
// arrival, advances step progress, and emits at most one spoken
// announcement, never more often than the cooldown.
func (s *Session) Tick(pos *geo.Point, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos == nil || s.state != StateNavigating || s.route == nil {
		return
	}

	if HasReachedDestination(*pos, s.route.Destination) {
		s.state = StateArrived
		s.announcer.Announce("You have arrived at your destination")
		s.postEvent(Event{Type: ArrivedEvent, State: s.state})
		s.postEvent(Event{Type: StateChangedEvent, State: s.state})
		return
	}

	s.currentStep = UpdateCurrentStep(*pos, s.route, s.currentStep)

	if !s.lastAnnounceTime.IsZero() && now.Sub(s.lastAnnounceTime) < s.cooldown {
		return
	}

	// One announcement per tick: an imminent turn wins over a nearby
	// feature.
	if text, ok := s.engine.TurnAnnouncement(*pos, s.route, s.currentStep); ok {
		s.announce(text, "", now)
	} else if id, text, ok := s.engine.AccessibilityAnnouncement(*pos,
		s.engine.Waypoints(), s.announced); ok {
		s.announced[id] = true
		s.announce(text, id, now)
	}
}

func (s *Session) announce(text, waypointID string, now time.Time) {
	if text == s.lastAnnouncement {
		return
	}
	s.lastAnnouncement = text
	s.lastAnnounceTime = now
	s.announcer.Announce(text)
	s.postEvent(Event{Type: AnnouncementEvent, State: s.state, Text: text,
		WaypointID: waypointID})
	s.lg.Debugf("announced %q", text)
}

func (s *Session) postEvent(e Event) {
	if s.events != nil {
		s.events.Post(e)
	}
}
