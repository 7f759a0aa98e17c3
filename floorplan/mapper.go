// floorplan/mapper.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package floorplan

import (
	"math"

	"github.com/wayfind/wayfind/geo"
	"github.com/wayfind/wayfind/log"
	"github.com/wayfind/wayfind/util"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// Floor-plan images are assumed to be this size until the real image
	// has been measured and reported via SetFloorImageSize.
	DefaultImageWidth  = 1000
	DefaultImageHeight = 800

	// BoundsMarginDeg pads the building rectangle when bounds-checking a
	// fix, roughly 50m, to absorb ordinary GPS noise near the walls.
	BoundsMarginDeg = 0.0005

	imageSizeCacheSize = 256
)

// Position is a location in floor-plan pixel space together with the
// building/floor that owns it. It is derived per position sample and never
// persisted.
type Position struct {
	BuildingID string
	FloorID    string
	X, Y       int
	Coordinate geo.Point
}

// Mapper converts between GPS coordinates and floor-plan pixel positions.
// The catalog is injected rather than read from any global so that two
// Mappers never share hidden state; measured image sizes are kept in a
// bounded LRU since buildings can carry many floor images.
type Mapper struct {
	catalog *Catalog
	sizes   *lru.Cache[string, [2]int]
	lg      *log.Logger
}

func NewMapper(catalog *Catalog, lg *log.Logger) *Mapper {
	sizes, err := lru.New[string, [2]int](imageSizeCacheSize)
	if err != nil {
		panic(err) // only fails for a non-positive size
	}
	return &Mapper{catalog: catalog, sizes: sizes, lg: lg}
}

// SetFloorImageSize records the measured pixel size of a floor's plan
// image. The size is written once when the image is first decoded and read
// on every subsequent mapping.
func (m *Mapper) SetFloorImageSize(buildingID, floorID string, width, height int) {
	if width <= 0 || height <= 0 {
		m.lg.Warnf("%s/%s: ignoring degenerate image size %dx%d", buildingID, floorID,
			width, height)
		return
	}
	m.sizes.Add(buildingID+"/"+floorID, [2]int{width, height})
}

func (m *Mapper) floorImageSize(buildingID, floorID string) (int, int) {
	if sz, ok := m.sizes.Get(buildingID + "/" + floorID); ok {
		return sz[0], sz[1]
	}
	return DefaultImageWidth, DefaultImageHeight
}

// ToFloorPosition maps a GPS coordinate to pixel space on the given floor.
// It returns nil only when the building or floor is unknown. A fix outside
// the (margin-padded) building rectangle is not an error: the result is
// the floor's pixel center, a degraded but drawable position, so the UI
// always has something to show.
func (m *Mapper) ToFloorPosition(c geo.Point, buildingID, floorID string) *Position {
	b, fl := m.catalog.ResolveFloor(buildingID, floorID)
	if b == nil || fl == nil {
		return nil
	}

	width, height := m.floorImageSize(buildingID, floorID)

	tl, tr, bl := b.TopLeft(), b.TopRight(), b.BottomLeft()
	lonSpan := tr.Lon - tl.Lon
	latSpan := tl.Lat - bl.Lat

	outside := math.Abs(lonSpan) == 0 || math.Abs(latSpan) == 0 ||
		c.Lat < math.Min(tl.Lat, bl.Lat)-BoundsMarginDeg ||
		c.Lat > math.Max(tl.Lat, bl.Lat)+BoundsMarginDeg ||
		c.Lon < math.Min(tl.Lon, tr.Lon)-BoundsMarginDeg ||
		c.Lon > math.Max(tl.Lon, tr.Lon)+BoundsMarginDeg
	if outside {
		m.lg.Debugf("%s/%s: fix %v outside building rectangle", buildingID, floorID,
			c.DDString())
		return &Position{
			BuildingID: buildingID,
			FloorID:    floorID,
			X:          width / 2,
			Y:          height / 2,
			Coordinate: c,
		}
	}

	normLon := util.Clamp((c.Lon-tl.Lon)/lonSpan, 0, 1)
	normLat := util.Clamp((c.Lat-bl.Lat)/latSpan, 0, 1)

	// Image y grows downward while latitude grows northward, so latitude
	// is inverted for the pixel row.
	x := int(math.Round(normLon*float64(width))) + fl.OffsetX
	y := int(math.Round((1-normLat)*float64(height))) + fl.OffsetY

	return &Position{
		BuildingID: buildingID,
		FloorID:    floorID,
		X:          x,
		Y:          y,
		Coordinate: c,
	}
}

// ToCoordinate is the inverse of ToFloorPosition for in-bounds positions.
// Pixels are assumed to be in range, so no clamping is applied. The
// per-floor calibration offsets are undone here so that a round trip
// through both mappings returns the original coordinate to within one
// pixel of rounding error.
func (m *Mapper) ToCoordinate(pos Position) *geo.Point {
	b, fl := m.catalog.ResolveFloor(pos.BuildingID, pos.FloorID)
	if b == nil || fl == nil {
		return nil
	}

	width, height := m.floorImageSize(pos.BuildingID, pos.FloorID)

	tl, tr, bl := b.TopLeft(), b.TopRight(), b.BottomLeft()
	lonSpan := tr.Lon - tl.Lon
	latSpan := tl.Lat - bl.Lat

	normLon := float64(pos.X-fl.OffsetX) / float64(width)
	normLat := 1 - float64(pos.Y-fl.OffsetY)/float64(height)

	return &geo.Point{
		Lat: bl.Lat + normLat*latSpan,
		Lon: tl.Lon + normLon*lonSpan,
	}
}
