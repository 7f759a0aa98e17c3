// geo/geo_test.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	pts := []Point{
		{Lat: -1.9308, Lon: 30.1525},
		{Lat: -1.9304, Lon: 30.1533},
		{Lat: 40.6328888, Lon: -73.771385},
		{Lat: 0, Lon: 0},
	}

	for _, p := range pts {
		if d := Distance(p, p); d != 0 {
			t.Errorf("Distance(%v, %v) = %v, expected 0", p, p, d)
		}
	}

	for _, a := range pts {
		for _, b := range pts {
			dab, dba := Distance(a, b), Distance(b, a)
			if dab != dba {
				t.Errorf("Distance not symmetric: %v vs %v for %v, %v", dab, dba, a, b)
			}
		}
	}

	// One degree of latitude is about 111.2km.
	a, b := Point{Lat: 0, Lon: 0}, Point{Lat: 1, Lon: 0}
	if d := Distance(a, b); math.Abs(d-111195) > 100 {
		t.Errorf("Distance over 1 degree latitude = %v, expected ~111195", d)
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		expected float64
	}{
		{"due north", Point{0, 0}, Point{1, 0}, 0},
		{"due east", Point{0, 0}, Point{0, 1}, 90},
		{"due south", Point{1, 0}, Point{0, 0}, 180},
		{"due west", Point{0, 1}, Point{0, 0}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Bearing(tt.a, tt.b)
			if math.Abs(h-tt.expected) > 0.01 {
				t.Errorf("Bearing(%v, %v) = %v, expected %v", tt.a, tt.b, h, tt.expected)
			}
		})
	}

	for _, tt := range tests {
		h := Bearing(tt.a, tt.b)
		if h < 0 || h >= 360 {
			t.Errorf("Bearing %v outside [0,360)", h)
		}
	}
}

func TestNormalizeHeading(t *testing.T) {
	tests := []struct {
		h, expected float64
	}{
		{0, 0},
		{90, 90},
		{360, 0},
		{-10, 350},
		{725, 5},
	}

	for _, tt := range tests {
		if nh := NormalizeHeading(tt.h); math.Abs(nh-tt.expected) > 1e-9 {
			t.Errorf("NormalizeHeading(%v) = %v, expected %v", tt.h, nh, tt.expected)
		}
	}
}

func TestHeadingDifference(t *testing.T) {
	tests := []struct {
		a, b, expected float64
	}{
		{0, 90, 90},
		{90, 0, 90},
		{350, 10, 20},
		{180, 180, 0},
		{0, 180, 180},
	}

	for _, tt := range tests {
		if d := HeadingDifference(tt.a, tt.b); math.Abs(d-tt.expected) > 1e-9 {
			t.Errorf("HeadingDifference(%v, %v) = %v, expected %v", tt.a, tt.b, d, tt.expected)
		}
	}
}

func TestHeadingSignedTurn(t *testing.T) {
	if d := HeadingSignedTurn(350, 10); math.Abs(d-20) > 1e-6 {
		t.Errorf("got %v, expected 20 (right turn across north)", d)
	}
	if d := HeadingSignedTurn(10, 350); math.Abs(d-(-20)) > 1e-6 {
		t.Errorf("got %v, expected -20 (left turn across north)", d)
	}
}

func TestNearestPointIndex(t *testing.T) {
	ref := Point{Lat: 0, Lon: 0}

	if idx, _ := NearestPointIndex(ref, nil); idx != -1 {
		t.Errorf("empty slice: got index %d, expected -1", idx)
	}

	pts := []Point{
		{Lat: 1, Lon: 0},
		{Lat: 0.5, Lon: 0},
		{Lat: 0.1, Lon: 0},
		{Lat: 2, Lon: 0},
	}
	idx, dist := NearestPointIndex(ref, pts)
	if idx != 2 {
		t.Errorf("got index %d, expected 2", idx)
	}
	if expected := Distance(ref, pts[2]); dist != expected {
		t.Errorf("got distance %v, expected %v", dist, expected)
	}

	// Ties go to the first occurrence.
	dupes := []Point{{Lat: 1, Lon: 0}, {Lat: 1, Lon: 0}}
	if idx, _ := NearestPointIndex(ref, dupes); idx != 0 {
		t.Errorf("tie: got index %d, expected 0", idx)
	}
}

func TestCompass(t *testing.T) {
	tests := []struct {
		h        float64
		expected string
	}{
		{0, "north"},
		{44, "northeast"},
		{90, "east"},
		{180, "south"},
		{270, "west"},
		{359, "north"},
	}
	for _, tt := range tests {
		if c := Compass(tt.h); c != tt.expected {
			t.Errorf("Compass(%v) = %q, expected %q", tt.h, c, tt.expected)
		}
	}
}

func TestPointValid(t *testing.T) {
	valid := []Point{{0, 0}, {-90, 180}, {90, -180}, {-1.9306, 30.1529}}
	for _, p := range valid {
		if !p.Valid() {
			t.Errorf("%v should be valid", p)
		}
	}
	invalid := []Point{{91, 0}, {-91, 0}, {0, 181}, {0, -181}}
	for _, p := range invalid {
		if p.Valid() {
			t.Errorf("%v should be invalid", p)
		}
	}
}
