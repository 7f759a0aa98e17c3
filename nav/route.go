// nav/route.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package nav composes navigation routes over the recorded accessible
// track pool and drives per-session navigation state from periodic
// position samples.
package nav

import (
	"fmt"
	"math"
	"time"

	"github.com/wayfind/wayfind/geo"
	"github.com/wayfind/wayfind/gpx"
	"github.com/wayfind/wayfind/log"
	"github.com/wayfind/wayfind/util"
)

const (
	// WalkingSpeed is the assumed pace for time estimates, meters/second.
	WalkingSpeed = 1.2

	// ArrivalRadius is how close the user must be to the destination to
	// count as arrived, in meters. Strictly less than: exactly 5m away is
	// not arrival.
	ArrivalRadius = 5

	// TurnAnnouncementDistance is how close to the end of the current
	// step an upcoming turn is called out, in meters.
	TurnAnnouncementDistance = 15

	// MinTurnAngle is the heading change, in degrees, below which a step
	// transition isn't worth a spoken cue.
	MinTurnAngle = 30

	// FeatureAnnouncementRadius is how near a named waypoint must be to
	// be announced, in meters.
	FeatureAnnouncementRadius = 20
)

// Step is one instruction of a route. Steps are ordered and contiguous:
// step i's End equals step i+1's Start.
type Step struct {
	Start       geo.Point
	End         geo.Point
	Instruction string
	Distance    float64 // meters
}

// Route is an immutable computed route; recomputation always yields a new
// instance.
type Route struct {
	Origin        geo.Point
	Destination   geo.Point
	TotalDistance float64 // meters
	EstimatedTime time.Duration
	Steps         []Step

	// Accessible is true when the route follows a recorded accessible
	// track, false for the direct-line fallback; the UI surfaces the
	// degradation to the user.
	Accessible bool
}

// Engine holds the merged track/waypoint pool and computes routes over
// it. It is stateless apart from that pool; per-navigation state lives in
// Session.
type Engine struct {
	tracks    []gpx.Track
	waypoints []gpx.Waypoint
	lg        *log.Logger
}

func NewEngine(doc *gpx.Document, lg *log.Logger) *Engine {
	e := &Engine{lg: lg}
	if doc != nil {
		// Empty tracks can never host a route leg, so shed them here
		// rather than checking everywhere below.
		e.tracks = util.FilterSlice(doc.Tracks, func(t gpx.Track) bool {
			return len(t.Points) > 0
		})
		e.waypoints = doc.Waypoints
	}
	return e
}

// Waypoints returns a copy of the engine's waypoint pool.
func (e *Engine) Waypoints() []gpx.Waypoint {
	return util.DuplicateSlice(e.waypoints)
}

///////////////////////////////////////////////////////////////////////////
// Route computation

// DirectRoute returns a single straight-line leg from origin to
// destination.
func (e *Engine) DirectRoute(origin, destination geo.Point) *Route {
	dist := geo.Distance(origin, destination)
	step := Step{
		Start:       origin,
		End:         destination,
		Instruction: fmt.Sprintf("Head %s toward your destination", geo.Compass(geo.Bearing(origin, destination))),
		Distance:    dist,
	}
	return &Route{
		Origin:        origin,
		Destination:   destination,
		TotalDistance: dist,
		EstimatedTime: estimateTime(dist),
		Steps:         []Step{step},
		Accessible:    false,
	}
}

// MultiLegRoute returns a route from origin to destination passing
// through the given intermediate points in order, one step per
// consecutive pair.
func (e *Engine) MultiLegRoute(origin, destination geo.Point, via []geo.Point) *Route {
	points := make([]geo.Point, 0, len(via)+2)
	points = append(points, origin)
	points = append(points, via...)
	points = append(points, destination)

	var steps []Step
	total := 0.0
	for i := 0; i+1 < len(points); i++ {
		dist := geo.Distance(points[i], points[i+1])
		steps = append(steps, Step{
			Start:       points[i],
			End:         points[i+1],
			Instruction: fmt.Sprintf("Continue %s", geo.Compass(geo.Bearing(points[i], points[i+1]))),
			Distance:    dist,
		})
		total += dist
	}

	return &Route{
		Origin:        origin,
		Destination:   destination,
		TotalDistance: total,
		EstimatedTime: estimateTime(total),
		Steps:         steps,
	}
}

// AccessibleRoute composes a route that follows the recorded accessible
// track nearest the user: origin to the track, along the track to the
// point nearest the destination, then to the destination. When no track
// is usable it falls back to the direct route with Accessible=false.
func (e *Engine) AccessibleRoute(origin, destination geo.Point) *Route {
	trackIdx, startIdx := -1, -1
	bestDist := math.Inf(1)
	for i, t := range e.tracks {
		for j, p := range t.Points {
			if d := geo.Distance(origin, p.Point()); d < bestDist {
				trackIdx, startIdx, bestDist = i, j, d
			}
		}
	}

	if trackIdx == -1 {
		e.lg.Infof("no usable accessible track; falling back to direct route")
		return e.DirectRoute(origin, destination)
	}

	track := e.tracks[trackIdx]
	endIdx, _ := geo.NearestPointIndex(destination,
		util.MapSlice(track.Points, gpx.TrackPoint.Point))

	// Slice the track between the two nearest points, inclusive, oriented
	// origin -> destination.
	var slice []geo.Point
	if startIdx <= endIdx {
		for _, p := range track.Points[startIdx : endIdx+1] {
			slice = append(slice, p.Point())
		}
	} else {
		for i := startIdx; i >= endIdx; i-- {
			slice = append(slice, track.Points[i].Point())
		}
	}

	approach := relabel(e.DirectRoute(origin, slice[0]), "to reach the accessible path")
	departure := relabel(e.DirectRoute(slice[len(slice)-1], destination), "to your destination")

	legs := []*Route{approach}
	if len(slice) > 1 {
		along := e.MultiLegRoute(slice[0], slice[len(slice)-1], slice[1:len(slice)-1])
		legs = append(legs, relabel(along, "along the accessible path"))
	}
	legs = append(legs, departure)

	route := &Route{
		Origin:      origin,
		Destination: destination,
		Accessible:  true,
	}
	for _, leg := range legs {
		route.Steps = append(route.Steps, leg.Steps...)
	}
	route.TotalDistance = util.ReduceSlice(route.Steps,
		func(s Step, sum float64) float64 { return sum + s.Distance }, 0)
	route.EstimatedTime = estimateTime(route.TotalDistance)

	e.lg.Debugf("accessible route via track %q: %d steps, %.0fm",
		track.Name, len(route.Steps), route.TotalDistance)
	return route
}

// relabel suffixes each step instruction of a leg with its purpose within
// a composed route.
func relabel(r *Route, purpose string) *Route {
	for i := range r.Steps {
		r.Steps[i].Instruction += " " + purpose
	}
	return r
}

func estimateTime(distance float64) time.Duration {
	return time.Duration(distance / WalkingSpeed * float64(time.Second))
}

///////////////////////////////////////////////////////////////////////////
// Progress and announcements

// UpdateCurrentStep returns the step index the user is on, given their
// position. The result is monotonically non-decreasing for any sequence of
// positions: the index advances when the position is closer to a later
// step's endpoint than to the current one's and never moves backward.
func UpdateCurrentStep(pos geo.Point, r *Route, current int) int {
	if r == nil || len(r.Steps) == 0 {
		return current
	}
	if current >= len(r.Steps)-1 {
		return len(r.Steps) - 1
	}
	if current < 0 {
		current = 0
	}

	best, bestDist := current, geo.Distance(pos, r.Steps[current].End)
	for i := current + 1; i < len(r.Steps); i++ {
		if d := geo.Distance(pos, r.Steps[i].End); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// HasReachedDestination reports arrival: strictly within ArrivalRadius
// meters of the destination.
func HasReachedDestination(pos, destination geo.Point) bool {
	return geo.Distance(pos, destination) < ArrivalRadius
}

// TurnAnnouncement returns an upcoming-turn cue when the user is close to
// the end of the current step and the next step changes heading enough to
// warrant one.
func (e *Engine) TurnAnnouncement(pos geo.Point, r *Route, stepIndex int) (string, bool) {
	if r == nil || stepIndex < 0 || stepIndex+1 >= len(r.Steps) {
		return "", false
	}

	cur, next := r.Steps[stepIndex], r.Steps[stepIndex+1]
	dist := geo.Distance(pos, cur.End)
	if dist > TurnAnnouncementDistance {
		return "", false
	}

	curHdg := geo.Bearing(cur.Start, cur.End)
	nextHdg := geo.Bearing(next.Start, next.End)
	if geo.HeadingDifference(curHdg, nextHdg) < MinTurnAngle {
		return "", false
	}

	dir := util.Select(geo.HeadingSignedTurn(curHdg, nextHdg) > 0, "right", "left")
	return fmt.Sprintf("In %.0f meters, turn %s", dist, dir), true
}

// AccessibilityAnnouncement returns the nearest not-yet-announced waypoint
// within FeatureAnnouncementRadius of the position, along with its spoken
// announcement. The caller records the returned id in announced; a second
// call with the id present returns nothing for that waypoint.
func (e *Engine) AccessibilityAnnouncement(pos geo.Point, waypoints []gpx.Waypoint,
	announced map[string]bool) (id, text string, ok bool) {
	bestDist := math.Inf(1)
	var best *gpx.Waypoint
	for i, w := range waypoints {
		if announced[w.ID()] {
			continue
		}
		if d := geo.Distance(pos, w.Point()); d <= FeatureAnnouncementRadius && d < bestDist {
			best, bestDist = &waypoints[i], d
		}
	}
	if best == nil {
		return "", "", false
	}

	label := best.Name
	if ft := best.FeatureType(); ft != gpx.FeatureUnknown {
		label = ft.String()
	}
	return best.ID(), fmt.Sprintf("%s ahead, %.0f meters", capitalize(label), bestDist), true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}
