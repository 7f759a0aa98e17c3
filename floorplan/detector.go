// floorplan/detector.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package floorplan

import (
	"time"

	"github.com/wayfind/wayfind/geo"
)

// FloorSensor estimates which floor of a building a position is on. It is
// deliberately a small interface so that a deployment with real floor
// sensing (barometer, Wi-Fi, BLE beacons) can swap in its own
// implementation without touching the route engine or UI.
type FloorSensor interface {
	EstimateFloor(b *Building, pos geo.Point) (floorID string, ok bool)
}

///////////////////////////////////////////////////////////////////////////
// HotspotSensor

// HotspotSensor matches the position against each floor's calibration
// hotspots: the floor owning the nearest hotspot whose radius covers the
// position wins.
type HotspotSensor struct{}

func (HotspotSensor) EstimateFloor(b *Building, pos geo.Point) (string, bool) {
	best, bestDist := "", 0.0
	for _, fl := range b.Floors {
		for _, h := range fl.Hotspots {
			d := geo.Distance(pos, h.Position)
			if d > h.RadiusDeg*geo.MetersPerDegree {
				continue
			}
			if best == "" || d < bestDist {
				best, bestDist = fl.ID, d
			}
		}
	}
	return best, best != ""
}

///////////////////////////////////////////////////////////////////////////
// TimeCycleSensor

// TimeCycleSensor cycles through a building's floors on a fixed clock
// period. It carries no real signal; it exists only to keep the system
// operable on hardware with no floor sensing at all and should be the last
// sensor consulted.
type TimeCycleSensor struct {
	Interval time.Duration
	Now      func() time.Time // nil means time.Now
}

func (s TimeCycleSensor) EstimateFloor(b *Building, pos geo.Point) (string, bool) {
	if len(b.Floors) == 0 {
		return "", false
	}
	interval := s.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	idx := int(now.Unix()/int64(interval.Seconds())) % len(b.Floors)
	return b.Floors[idx].ID, true
}

///////////////////////////////////////////////////////////////////////////
// Detector

// Detector consults its sensors in order and falls back to the building's
// first floor, so it always names some floor for a known building.
type Detector struct {
	sensors []FloorSensor
}

func NewDetector(sensors ...FloorSensor) *Detector {
	return &Detector{sensors: sensors}
}

// NewDefaultDetector returns the stock configuration: hotspot matching
// first, then the low-confidence time cycle.
func NewDefaultDetector() *Detector {
	return NewDetector(HotspotSensor{}, TimeCycleSensor{Interval: time.Minute})
}

// DetectFloor returns the most likely floor id for the position, or "" if
// the building is nil or has no floors.
func (d *Detector) DetectFloor(b *Building, pos geo.Point) string {
	if b == nil {
		return ""
	}
	for _, s := range d.sensors {
		if id, ok := s.EstimateFloor(b, pos); ok {
			return id
		}
	}
	if fl := b.FirstFloor(); fl != nil {
		return fl.ID
	}
	return ""
}
