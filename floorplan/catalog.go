// floorplan/catalog.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package floorplan maps between WGS84 coordinates and building floor-plan
// pixel space and infers the floor a user is on. The static building/floor
// catalog is read-only input; all mutable state (measured image sizes)
// lives in the Mapper so that tests stay deterministic.
package floorplan

import (
	"encoding/json"

	"github.com/wayfind/wayfind/geo"
	"github.com/wayfind/wayfind/util"
)

// Hotspot is a calibration point used to infer the current floor: a
// position plus a radius expressed in degrees of latitude.
type Hotspot struct {
	Position  geo.Point `json:"position"`
	RadiusDeg float64   `json:"radius_deg"`
}

// Feature is a point of interest pinned to a floor (an elevator, a ramp,
// an accessible toilet, ...).
type Feature struct {
	Name     string    `json:"name"`
	Type     string    `json:"type,omitempty"`
	Position geo.Point `json:"position"`
}

type Floor struct {
	ID       string    `json:"id"`
	Level    int       `json:"level"`
	Features []Feature `json:"features,omitempty"`
	// Names of the recorded route documents relevant to this floor.
	Routes []string `json:"routes,omitempty"`

	PixelsPerMeter float64 `json:"pixels_per_meter,omitempty"`

	// Per-floor pixel offsets for local calibration of the floor-plan
	// image against the building rectangle.
	OffsetX int `json:"offset_x,omitempty"`
	OffsetY int `json:"offset_y,omitempty"`

	Hotspots []Hotspot `json:"hotspots,omitempty"`
}

// Building describes one building: its rough rectangular footprint given
// by four reference corners and the floors it contains.
type Building struct {
	ID string `json:"id"`
	// Corner order is top-left, top-right, bottom-right, bottom-left.
	Corners [4]geo.Point `json:"reference_coordinates"`
	Floors  []Floor      `json:"floors"`
}

func (b *Building) TopLeft() geo.Point     { return b.Corners[0] }
func (b *Building) TopRight() geo.Point    { return b.Corners[1] }
func (b *Building) BottomRight() geo.Point { return b.Corners[2] }
func (b *Building) BottomLeft() geo.Point  { return b.Corners[3] }

// Floor returns the floor with the given id, or nil.
func (b *Building) Floor(id string) *Floor {
	for i := range b.Floors {
		if b.Floors[i].ID == id {
			return &b.Floors[i]
		}
	}
	return nil
}

// FirstFloor returns the catalog's first-listed floor, the fallback when
// floor detection has nothing better to offer.
func (b *Building) FirstFloor() *Floor {
	if len(b.Floors) == 0 {
		return nil
	}
	return &b.Floors[0]
}

// Catalog is the static building/floor data the engine navigates against.
type Catalog struct {
	Buildings []Building `json:"buildings"`

	byID map[string]*Building
}

// LoadCatalog unmarshals and validates a building catalog. Validation
// errors are accumulated in e rather than aborting at the first problem;
// a catalog with errors is still returned so that callers can decide
// whether to proceed with it.
func LoadCatalog(data []byte, e *util.ErrorLogger) *Catalog {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		e.Error(err)
		return &Catalog{byID: make(map[string]*Building)}
	}

	c.byID = make(map[string]*Building)
	for i := range c.Buildings {
		b := &c.Buildings[i]
		e.Push("building " + b.ID)

		if b.ID == "" {
			e.ErrorString("building has no id")
		} else if _, ok := c.byID[b.ID]; ok {
			e.ErrorString("duplicate building id")
		} else {
			c.byID[b.ID] = b
		}

		for _, corner := range b.Corners {
			if !corner.Valid() {
				e.ErrorString("reference corner %v outside WGS84 ranges", corner)
			}
		}
		if len(b.Floors) == 0 {
			e.ErrorString("building has no floors")
		}

		seen := make(map[string]bool)
		for _, fl := range b.Floors {
			e.Push("floor " + fl.ID)
			if fl.ID == "" {
				e.ErrorString("floor has no id")
			} else if seen[fl.ID] {
				e.ErrorString("duplicate floor id")
			}
			seen[fl.ID] = true

			if fl.PixelsPerMeter < 0 {
				e.ErrorString("negative pixels_per_meter %v", fl.PixelsPerMeter)
			}
			for _, h := range fl.Hotspots {
				if h.RadiusDeg <= 0 {
					e.ErrorString("hotspot at %v has non-positive radius %v",
						h.Position, h.RadiusDeg)
				}
				if !h.Position.Valid() {
					e.ErrorString("hotspot position %v outside WGS84 ranges", h.Position)
				}
			}
			e.Pop()
		}
		e.Pop()
	}

	return &c
}

// MakeCatalog builds a Catalog directly from building values; it is the
// entry point for callers that assemble the catalog in code rather than
// from JSON.
func MakeCatalog(buildings ...Building) *Catalog {
	c := &Catalog{Buildings: buildings, byID: make(map[string]*Building)}
	for i := range c.Buildings {
		c.byID[c.Buildings[i].ID] = &c.Buildings[i]
	}
	return c
}

// Building returns the building with the given id, or nil.
func (c *Catalog) Building(id string) *Building {
	return c.byID[id]
}

// ResolveFloor looks up a building/floor pair; either result may be nil.
func (c *Catalog) ResolveFloor(buildingID, floorID string) (*Building, *Floor) {
	b := c.Building(buildingID)
	if b == nil {
		return nil, nil
	}
	return b, b.Floor(floorID)
}
