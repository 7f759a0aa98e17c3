// floorplan/floorplan_test.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package floorplan

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/wayfind/wayfind/geo"
	"github.com/wayfind/wayfind/log"
	"github.com/wayfind/wayfind/util"
)

// testBuilding is the campus west wing rectangle used throughout: about
// 45m x 90m, two floors.
func testBuilding() Building {
	return Building{
		ID: "west-wing",
		Corners: [4]geo.Point{
			{Lat: -1.9308, Lon: 30.1525}, // top-left
			{Lat: -1.9308, Lon: 30.1533}, // top-right
			{Lat: -1.9304, Lon: 30.1533}, // bottom-right
			{Lat: -1.9304, Lon: 30.1525}, // bottom-left
		},
		Floors: []Floor{
			{
				ID:    "f0",
				Level: 0,
				Hotspots: []Hotspot{
					{Position: geo.Point{Lat: -1.93075, Lon: 30.1526}, RadiusDeg: 0.0001},
				},
			},
			{
				ID:    "f1",
				Level: 1,
				Hotspots: []Hotspot{
					{Position: geo.Point{Lat: -1.93045, Lon: 30.1532}, RadiusDeg: 0.0001},
				},
			},
		},
	}
}

func testMapper(t *testing.T) *Mapper {
	t.Helper()
	return NewMapper(MakeCatalog(testBuilding()), log.NewForTesting(nil))
}

func TestToFloorPositionCenter(t *testing.T) {
	m := testMapper(t)

	pos := m.ToFloorPosition(geo.Point{Lat: -1.9306, Lon: 30.1529}, "west-wing", "f0")
	if pos == nil {
		t.Fatalf("expected a position")
	}
	if pos.X != 500 || pos.Y != 400 {
		t.Errorf("got (%d, %d), expected (500, 400)", pos.X, pos.Y)
	}
	if pos.BuildingID != "west-wing" || pos.FloorID != "f0" {
		t.Errorf("building/floor not carried through: %+v", pos)
	}
}

func TestToFloorPositionUnknownFloor(t *testing.T) {
	m := testMapper(t)

	if pos := m.ToFloorPosition(geo.Point{Lat: -1.9306, Lon: 30.1529}, "nope", "f0"); pos != nil {
		t.Errorf("unknown building should give nil, got %+v", pos)
	}
	if pos := m.ToFloorPosition(geo.Point{Lat: -1.9306, Lon: 30.1529}, "west-wing", "f9"); pos != nil {
		t.Errorf("unknown floor should give nil, got %+v", pos)
	}
}

func TestToFloorPositionOutOfBounds(t *testing.T) {
	m := testMapper(t)

	// A degree north of the building: degraded but valid, at the pixel
	// center of the floor.
	pos := m.ToFloorPosition(geo.Point{Lat: -0.9308, Lon: 30.1529}, "west-wing", "f0")
	if pos == nil {
		t.Fatalf("out-of-bounds fixes must still give a position")
	}
	if pos.X != DefaultImageWidth/2 || pos.Y != DefaultImageHeight/2 {
		t.Errorf("got (%d, %d), expected (%d, %d)", pos.X, pos.Y,
			DefaultImageWidth/2, DefaultImageHeight/2)
	}

	// Just outside the rectangle but within the ~50m margin: mapped (and
	// clamped to the top-left corner's edge), not degraded.
	pos = m.ToFloorPosition(geo.Point{Lat: -1.93083, Lon: 30.1529}, "west-wing", "f0")
	if pos == nil {
		t.Fatalf("expected a position")
	}
	if pos.Y != 0 {
		t.Errorf("margin fix should clamp to the image edge, got y=%d", pos.Y)
	}
}

func TestRoundTrip(t *testing.T) {
	m := testMapper(t)

	coords := []geo.Point{
		{Lat: -1.9306, Lon: 30.1529},
		{Lat: -1.93055, Lon: 30.15261},
		{Lat: -1.93071, Lon: 30.15322},
	}
	for _, c := range coords {
		pos := m.ToFloorPosition(c, "west-wing", "f0")
		if pos == nil {
			t.Fatalf("%v: expected a position", c)
		}
		back := m.ToCoordinate(*pos)
		if back == nil {
			t.Fatalf("%v: expected a coordinate", pos)
		}
		if math.Abs(back.Lat-c.Lat) > 1e-4 || math.Abs(back.Lon-c.Lon) > 1e-4 {
			t.Errorf("round trip %v -> (%d,%d) -> %v", c, pos.X, pos.Y, back)
		}
	}
}

func TestRoundTripWithOffsets(t *testing.T) {
	b := testBuilding()
	b.Floors[0].OffsetX, b.Floors[0].OffsetY = 17, -9
	m := NewMapper(MakeCatalog(b), log.NewForTesting(nil))

	c := geo.Point{Lat: -1.93067, Lon: 30.15281}
	pos := m.ToFloorPosition(c, "west-wing", "f0")
	if pos == nil {
		t.Fatalf("expected a position")
	}
	back := m.ToCoordinate(*pos)
	if back == nil {
		t.Fatalf("expected a coordinate")
	}
	if math.Abs(back.Lat-c.Lat) > 1e-4 || math.Abs(back.Lon-c.Lon) > 1e-4 {
		t.Errorf("offsets must cancel in the round trip: %v -> %v", c, back)
	}
}

func TestMeasuredImageSize(t *testing.T) {
	m := testMapper(t)
	m.SetFloorImageSize("west-wing", "f0", 2000, 1600)

	pos := m.ToFloorPosition(geo.Point{Lat: -1.9306, Lon: 30.1529}, "west-wing", "f0")
	if pos.X != 1000 || pos.Y != 800 {
		t.Errorf("got (%d, %d), expected (1000, 800) with the measured size", pos.X, pos.Y)
	}

	// Other floors keep the default.
	pos = m.ToFloorPosition(geo.Point{Lat: -1.9306, Lon: 30.1529}, "west-wing", "f1")
	if pos.X != 500 || pos.Y != 400 {
		t.Errorf("got (%d, %d), expected (500, 400) with the default size", pos.X, pos.Y)
	}

	// Degenerate measurements are ignored.
	m.SetFloorImageSize("west-wing", "f0", 0, -5)
	pos = m.ToFloorPosition(geo.Point{Lat: -1.9306, Lon: 30.1529}, "west-wing", "f0")
	if pos.X != 1000 || pos.Y != 800 {
		t.Errorf("degenerate size should not overwrite: got (%d, %d)", pos.X, pos.Y)
	}
}

func TestHotspotSensor(t *testing.T) {
	b := testBuilding()
	var s HotspotSensor

	// On top of the f1 hotspot.
	if id, ok := s.EstimateFloor(&b, geo.Point{Lat: -1.93045, Lon: 30.1532}); !ok || id != "f1" {
		t.Errorf("got %q/%v, expected f1", id, ok)
	}
	// On top of the f0 hotspot.
	if id, ok := s.EstimateFloor(&b, geo.Point{Lat: -1.93075, Lon: 30.1526}); !ok || id != "f0" {
		t.Errorf("got %q/%v, expected f0", id, ok)
	}
	// Far from all hotspots.
	if id, ok := s.EstimateFloor(&b, geo.Point{Lat: -1.9290, Lon: 30.1529}); ok {
		t.Errorf("got %q, expected no match", id)
	}
}

func TestTimeCycleSensor(t *testing.T) {
	b := testBuilding()
	now := time.Unix(0, 0)
	s := TimeCycleSensor{Interval: time.Minute, Now: func() time.Time { return now }}

	id0, ok := s.EstimateFloor(&b, geo.Point{})
	if !ok {
		t.Fatalf("time cycle sensor should always report a floor")
	}
	now = now.Add(time.Minute)
	id1, _ := s.EstimateFloor(&b, geo.Point{})
	if id0 == id1 {
		t.Errorf("expected the floor to rotate after the interval")
	}
	now = now.Add(time.Minute)
	id2, _ := s.EstimateFloor(&b, geo.Point{})
	if id2 != id0 {
		t.Errorf("two floors should cycle with period 2: got %q then %q", id0, id2)
	}
}

func TestDetectFloorFallback(t *testing.T) {
	b := testBuilding()

	// No sensors at all: first floor.
	d := NewDetector()
	if id := d.DetectFloor(&b, geo.Point{Lat: -1.9290, Lon: 30.1529}); id != "f0" {
		t.Errorf("got %q, expected first floor f0", id)
	}

	// Hotspot sensor misses, detector still answers.
	d = NewDetector(HotspotSensor{})
	if id := d.DetectFloor(&b, geo.Point{Lat: -1.9290, Lon: 30.1529}); id != "f0" {
		t.Errorf("got %q, expected first floor f0", id)
	}

	if id := d.DetectFloor(nil, geo.Point{}); id != "" {
		t.Errorf("nil building should give %q, got %q", "", id)
	}
}

func TestLoadCatalog(t *testing.T) {
	data := []byte(`{
  "buildings": [{
    "id": "west-wing",
    "reference_coordinates": [
      {"lat": -1.9308, "lon": 30.1525},
      {"lat": -1.9308, "lon": 30.1533},
      {"lat": -1.9304, "lon": 30.1533},
      {"lat": -1.9304, "lon": 30.1525}
    ],
    "floors": [
      {"id": "f0", "level": 0, "hotspots": [{"position": {"lat": -1.93075, "lon": 30.1526}, "radius_deg": 0.0001}]},
      {"id": "f1", "level": 1}
    ]
  }]
}`)

	var e util.ErrorLogger
	c := LoadCatalog(data, &e)
	if e.HaveErrors() {
		t.Fatalf("unexpected validation errors: %s", e.String())
	}
	b := c.Building("west-wing")
	if b == nil {
		t.Fatalf("building not indexed")
	}
	if fl := b.Floor("f1"); fl == nil || fl.Level != 1 {
		t.Errorf("floor lookup failed: %+v", fl)
	}
	if _, fl := c.ResolveFloor("west-wing", "f0"); fl == nil || len(fl.Hotspots) != 1 {
		t.Errorf("hotspots not parsed: %+v", fl)
	}
}

func TestLoadCatalogValidation(t *testing.T) {
	data := []byte(`{
  "buildings": [{
    "id": "",
    "reference_coordinates": [
      {"lat": 95, "lon": 30.15},
      {"lat": -1.9308, "lon": 30.1533},
      {"lat": -1.9304, "lon": 30.1533},
      {"lat": -1.9304, "lon": 30.1525}
    ],
    "floors": [
      {"id": "f0", "hotspots": [{"position": {"lat": -1.93, "lon": 30.15}, "radius_deg": 0}]},
      {"id": "f0"}
    ]
  }]
}`)

	var e util.ErrorLogger
	LoadCatalog(data, &e)
	if !e.HaveErrors() {
		t.Fatalf("expected validation errors")
	}
	// Missing id, out-of-range corner, zero-radius hotspot, duplicate floor.
	if n := len(strings.Split(e.String(), "\n")); n < 4 {
		t.Errorf("expected at least 4 errors, got %d:\n%s", n, e.String())
	}
}
