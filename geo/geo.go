// geo/geo.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package geo

import (
	"fmt"
	"math"
)

// EarthRadius is the mean Earth radius in meters, as used by the haversine
// distance computation.
const EarthRadius = 6371e3

// MetersPerDegree approximates the length of one degree of latitude in
// meters; it is used to convert hotspot radii expressed in degrees.
const MetersPerDegree = 111320

// Point is a position on the Earth in WGS84 decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lon == 0
}

// Valid reports whether the point is inside the WGS84 coordinate ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// DDString returns the position in decimal degrees, e.g.:
// (39.860901, -75.274864)
func (p Point) DDString() string {
	return fmt.Sprintf("(%f, %f)", p.Lat, p.Lon)
}

// Distance returns the great-circle distance in meters between two
// lat-long coordinates.
func Distance(a Point, b Point) float64 {
	// https://www.movable-type.co.uk/scripts/latlong.html
	rad := func(d float64) float64 { return d / 180 * math.Pi }
	lat1, lon1 := rad(a.Lat), rad(a.Lon)
	lat2, lon2 := rad(b.Lat), rad(b.Lon)
	dlat, dlon := lat2-lat1, lon2-lon1

	sqr := func(x float64) float64 { return x * x }
	x := sqr(math.Sin(dlat/2)) + math.Cos(lat1)*math.Cos(lat2)*sqr(math.Sin(dlon/2))
	c := 2 * math.Atan2(math.Sqrt(x), math.Sqrt(1-x))
	return EarthRadius * c
}

// Bearing returns the initial great-circle bearing in degrees [0,360)
// when traveling from a to b.
func Bearing(a Point, b Point) float64 {
	rad := func(d float64) float64 { return d / 180 * math.Pi }
	lat1, lat2 := rad(a.Lat), rad(b.Lat)
	dlon := rad(b.Lon - a.Lon)

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	return NormalizeHeading(math.Atan2(y, x) * 180 / math.Pi)
}

// Reduces it to [0,360).
func NormalizeHeading(h float64) float64 {
	if h < 0 {
		return 360 - NormalizeHeading(-h)
	}
	return math.Mod(h, 360)
}

// HeadingDifference returns the minimum difference between two
// headings. (i.e., the result is always in the range [0,180].)
func HeadingDifference(a float64, b float64) float64 {
	var d float64
	if a > b {
		d = a - b
	} else {
		d = b - a
	}
	d = math.Mod(d, 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// HeadingSignedTurn returns the signed turn from cur to target: positive
// for a right turn, negative for a left turn. First find the angle to
// rotate the target heading by so that it's aligned with 180 degrees. This
// lets us not worry about the complexities of the wrap around at 0/360..
func HeadingSignedTurn(cur, target float64) float64 {
	rot := NormalizeHeading(180 - target)
	return 180 - NormalizeHeading(cur+rot) // w.r.t. 180 target
}

// Compass converts a heading expressed in degrees into a string
// corresponding to the closest compass direction.
func Compass(heading float64) string {
	h := NormalizeHeading(heading + 22.5) // now [0,45] is north, etc...
	idx := int(h / 45)
	return [...]string{"north", "northeast", "east", "southeast",
		"south", "southwest", "west", "northwest"}[idx]
}

// NearestPointIndex returns the index of the point in pts closest to ref
// and its distance in meters. Ties are broken by the earlier index. For an
// empty slice it returns -1 and an infinite distance.
func NearestPointIndex(ref Point, pts []Point) (int, float64) {
	nearest, dist := -1, math.Inf(1)
	for i, p := range pts {
		if d := Distance(ref, p); d < dist {
			nearest, dist = i, d
		}
	}
	return nearest, dist
}
