// gpx/gpx.go
// Copyright(c) 2024-2026 wayfind contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package gpx parses GPX-1.1-shaped route description documents into the
// track and waypoint pool that the navigation engine runs against. Parsing
// is pure: the same document bytes always give the same Document, and
// missing sections give empty slices rather than errors.
package gpx

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/wayfind/wayfind/geo"
)

///////////////////////////////////////////////////////////////////////////
// Document

// TrackPoint is a single recorded point of an accessible track. Lat and
// Lon are always present; the remaining fields are nil when the source
// document omits them.
type TrackPoint struct {
	Lat       float64    `json:"lat"`
	Lon       float64    `json:"lon"`
	Elevation *float64   `json:"ele,omitempty"`
	Time      *time.Time `json:"time,omitempty"`
	Speed     *float64   `json:"speed,omitempty"`
	HDOP      *float64   `json:"hdop,omitempty"`
}

func (tp TrackPoint) Point() geo.Point {
	return geo.Point{Lat: tp.Lat, Lon: tp.Lon}
}

// Track is a previously recorded GPS path known to be usable by
// mobility-impaired users. Points are ordered; a track may be empty.
type Track struct {
	Name   string       `json:"name"`
	Points []TrackPoint `json:"points"`
}

// Waypoint is a named point of interest. The name doubles as a semantic
// tag: accessibility feature types are inferred from it by substring
// matching (see FeatureType).
type Waypoint struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Type        string  `json:"type,omitempty"`
}

func (w Waypoint) Point() geo.Point {
	return geo.Point{Lat: w.Lat, Lon: w.Lon}
}

// ID returns a stable identifier for the waypoint, used to deduplicate
// spoken announcements.
func (w Waypoint) ID() string {
	return fmt.Sprintf("%s@%.6f,%.6f", w.Name, w.Lat, w.Lon)
}

type Metadata struct {
	Version string `json:"version,omitempty"`
	Creator string `json:"creator,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Document is the immutable result of parsing one route description
// document. Multiple documents are combined with Merge.
type Document struct {
	Tracks    []Track    `json:"tracks"`
	Waypoints []Waypoint `json:"waypoints"`
	Metadata  Metadata   `json:"metadata"`
}

///////////////////////////////////////////////////////////////////////////
// Feature types

// FeatureType classifies a waypoint by the accessibility feature it marks.
type FeatureType int

const (
	FeatureUnknown FeatureType = iota
	FeatureElevator
	FeatureRamp
	FeatureAccessibleToilet
	FeatureEntrance
	FeatureStairs
)

func (f FeatureType) String() string {
	switch f {
	case FeatureElevator:
		return "elevator"
	case FeatureRamp:
		return "ramp"
	case FeatureAccessibleToilet:
		return "accessible toilet"
	case FeatureEntrance:
		return "entrance"
	case FeatureStairs:
		return "stairs"
	default:
		return "unknown"
	}
}

// Substring matches are checked in order so that e.g.
// "elevator_entrance_west" classifies as an elevator.
var featureSubstrings = []struct {
	substr  string
	feature FeatureType
}{
	{"elevator", FeatureElevator},
	{"lift", FeatureElevator},
	{"ramp", FeatureRamp},
	{"toilet", FeatureAccessibleToilet},
	{"wc", FeatureAccessibleToilet},
	{"restroom", FeatureAccessibleToilet},
	{"entrance", FeatureEntrance},
	{"exit", FeatureEntrance},
	{"stairs", FeatureStairs},
	{"staircase", FeatureStairs},
}

// FeatureType infers the accessibility feature a waypoint marks from its
// name and explicit type tag, case-insensitively.
func (w Waypoint) FeatureType() FeatureType {
	tag := strings.ToLower(w.Name + " " + w.Type)
	for _, fs := range featureSubstrings {
		if strings.Contains(tag, fs.substr) {
			return fs.feature
		}
	}
	return FeatureUnknown
}

///////////////////////////////////////////////////////////////////////////
// Parsing

// ParseError reports a document that is not well-formed. Callers are
// expected to fall back to cached or static data rather than propagating
// it up to the navigation loop.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "gpx: malformed document: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

// The xml schema mirrors the subset of GPX 1.1 that route recordings use.
// Lat/lon attributes are pointers so that their absence is detectable;
// points and waypoints missing them are dropped.
type xmlGPX struct {
	XMLName   xml.Name    `xml:"gpx"`
	Version   string      `xml:"version,attr"`
	Creator   string      `xml:"creator,attr"`
	Metadata  xmlMetadata `xml:"metadata"`
	Waypoints []xmlWpt    `xml:"wpt"`
	Tracks    []xmlTrk    `xml:"trk"`
}

type xmlMetadata struct {
	Name string `xml:"name"`
}

type xmlWpt struct {
	Lat  *float64 `xml:"lat,attr"`
	Lon  *float64 `xml:"lon,attr"`
	Name string   `xml:"name"`
	Desc string   `xml:"desc"`
	Type string   `xml:"type"`
}

type xmlTrk struct {
	Name     string      `xml:"name"`
	Segments []xmlTrkSeg `xml:"trkseg"`
}

type xmlTrkSeg struct {
	Points []xmlTrkPt `xml:"trkpt"`
}

type xmlTrkPt struct {
	Lat   *float64 `xml:"lat,attr"`
	Lon   *float64 `xml:"lon,attr"`
	Ele   *float64 `xml:"ele"`
	Time  string   `xml:"time"`
	Speed *float64 `xml:"speed"`
	HDOP  *float64 `xml:"hdop"`
}

// Parse decodes a GPX document. It returns a *ParseError if the document
// is not well-formed XML; otherwise the returned Document is complete,
// with waypoints that lack a name or position silently dropped since they
// can be neither announced nor routed to. Track segments within a track
// are concatenated in order.
func Parse(data []byte) (*Document, error) {
	var raw xmlGPX
	if err := xml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Err: err}
	}

	doc := &Document{
		Metadata: Metadata{
			Version: raw.Version,
			Creator: raw.Creator,
			Name:    raw.Metadata.Name,
		},
	}

	for _, w := range raw.Waypoints {
		if w.Lat == nil || w.Lon == nil || w.Name == "" {
			continue
		}
		doc.Waypoints = append(doc.Waypoints, Waypoint{
			Lat:         *w.Lat,
			Lon:         *w.Lon,
			Name:        w.Name,
			Description: w.Desc,
			Type:        w.Type,
		})
	}

	for _, trk := range raw.Tracks {
		track := Track{Name: trk.Name}
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				if pt.Lat == nil || pt.Lon == nil {
					continue
				}
				tp := TrackPoint{
					Lat:       *pt.Lat,
					Lon:       *pt.Lon,
					Elevation: pt.Ele,
					Speed:     pt.Speed,
					HDOP:      pt.HDOP,
				}
				if pt.Time != "" {
					if t, err := time.Parse(time.RFC3339, pt.Time); err == nil {
						tp.Time = &t
					}
				}
				track.Points = append(track.Points, tp)
			}
		}
		doc.Tracks = append(doc.Tracks, track)
	}

	return doc, nil
}

// Merge combines documents by concatenating their track and waypoint
// arrays in the order given. Metadata is taken from the first document
// that has any.
func Merge(docs ...*Document) *Document {
	merged := &Document{}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		merged.Tracks = append(merged.Tracks, doc.Tracks...)
		merged.Waypoints = append(merged.Waypoints, doc.Waypoints...)
		if merged.Metadata == (Metadata{}) {
			merged.Metadata = doc.Metadata
		}
	}
	return merged
}
