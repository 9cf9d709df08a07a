// Package network models the hydrological infrastructure network: elements
// (nodes and arcs), directed edges between them, and the merged graph
// snapshot traversals run against.
package network

import (
	"encoding/json"

	"github.com/hydroline/watertrace/errors"
)

// Category distinguishes point infrastructure from conveyance elements.
// Arcs are edges of the network but are also addressable elements with their
// own identifier and optional geometry.
type Category string

const (
	CategoryNode Category = "node"
	CategoryArc  Category = "arc"
)

// Direction selects which declared linkages a traversal follows
type Direction string

const (
	DirectionUpstream   Direction = "upstream"
	DirectionDownstream Direction = "downstream"
	DirectionBoth       Direction = "both"
)

// ParseDirection validates a caller-supplied direction string.
// An empty string resolves to DirectionBoth.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionUpstream, DirectionDownstream, DirectionBoth:
		return Direction(s), nil
	case "":
		return DirectionBoth, nil
	default:
		return "", errors.NewInvalidRequestError("direction %q not recognized (want upstream, downstream or both)", s)
	}
}

// Strategy identifies the resolution tier that established an edge
type Strategy string

const (
	StrategyExplicit      Strategy = "explicit"
	StrategyPattern       Strategy = "pattern"
	StrategyRiverSequence Strategy = "river_sequence"
	StrategyProximity     Strategy = "proximity"
)

// ConnectivityStatus records whether an element has both, one, or neither of
// its expected endpoint linkages explicitly declared
type ConnectivityStatus string

const (
	ConnectivityConnected   ConnectivityStatus = "connected"
	ConnectivityPartial     ConnectivityStatus = "partial"
	ConnectivityUnconnected ConnectivityStatus = "unconnected"
)

// Provenance names the source that contributed a record
type Provenance string

const (
	ProvenanceSpatial   Provenance = "spatial"   // geometry-rich spatial extract
	ProvenanceSchematic Provenance = "schematic" // schematic connectivity list
)

// Geometry is a minimal GeoJSON geometry (Point or LineString).
// Coordinates are kept raw so rendering clients receive them unmodified.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPoint builds a Point geometry from lon/lat
func NewPoint(lon, lat float64) *Geometry {
	coords, _ := json.Marshal([2]float64{lon, lat})
	return &Geometry{Type: "Point", Coordinates: coords}
}

// ParseGeometry decodes a GeoJSON geometry string.
// Returns nil for empty input.
func ParseGeometry(text string) (*Geometry, error) {
	if text == "" {
		return nil, nil
	}
	var g Geometry
	if err := json.Unmarshal([]byte(text), &g); err != nil {
		return nil, errors.Wrap(err, "parse geometry")
	}
	if g.Type == "" {
		return nil, errors.New("geometry missing type")
	}
	return &g, nil
}

// Centroid returns a representative lon/lat for the geometry: the point
// itself for Point, the vertex average for LineString. ok is false when the
// coordinates cannot be interpreted.
func (g *Geometry) Centroid() (lon, lat float64, ok bool) {
	if g == nil {
		return 0, 0, false
	}
	switch g.Type {
	case "Point":
		var pt [2]float64
		if err := json.Unmarshal(g.Coordinates, &pt); err != nil {
			return 0, 0, false
		}
		return pt[0], pt[1], true
	case "LineString":
		var line [][2]float64
		if err := json.Unmarshal(g.Coordinates, &line); err != nil || len(line) == 0 {
			return 0, 0, false
		}
		for _, pt := range line {
			lon += pt[0]
			lat += pt[1]
		}
		n := float64(len(line))
		return lon / n, lat / n, true
	default:
		return 0, 0, false
	}
}

// Element is a network element: a node (reservoir, pump station, treatment
// plant, junction) or an arc (channel, delivery, conveyance).
type Element struct {
	Identifier   string             `json:"identifier"` // short_code, unique within a snapshot
	Category     Category           `json:"category"`
	ElementType  string             `json:"element_type"`
	Subtype      string             `json:"subtype,omitempty"`
	FromID       string             `json:"from_id,omitempty"` // declared upstream linkage
	ToID         string             `json:"to_id,omitempty"`   // declared downstream linkage
	RiverName    string             `json:"river_name,omitempty"`
	RiverMile    *float64           `json:"river_mile,omitempty"`
	Geometry     *Geometry          `json:"geometry,omitempty"`
	Active       bool               `json:"active"`
	Connectivity ConnectivityStatus `json:"connectivity_status"`
	Provenance   []Provenance       `json:"provenance,omitempty"`
}

// HasGeometry reports whether the element carries renderable geometry
func (e *Element) HasGeometry() bool {
	return e != nil && e.Geometry != nil && e.Geometry.Type != ""
}

// Location returns the element's representative lon/lat
func (e *Element) Location() (lon, lat float64, ok bool) {
	if e == nil {
		return 0, 0, false
	}
	return e.Geometry.Centroid()
}

// HasProvenance reports whether the given source contributed this element
func (e *Element) HasProvenance(p Provenance) bool {
	for _, have := range e.Provenance {
		if have == p {
			return true
		}
	}
	return false
}

// connectivityOf derives the status from declared endpoint linkages
func connectivityOf(fromID, toID string) ConnectivityStatus {
	switch {
	case fromID != "" && toID != "":
		return ConnectivityConnected
	case fromID != "" || toID != "":
		return ConnectivityPartial
	default:
		return ConnectivityUnconnected
	}
}

// Edge is a directed relation between two element identifiers.
// ArcID names the arc record the edge was derived from; it is empty for
// relations proposed by the connectivity resolver.
type Edge struct {
	FromID   string   `json:"from_id"`
	ToID     string   `json:"to_id"`
	ArcID    string   `json:"arc_id,omitempty"`
	Strategy Strategy `json:"strategy"`
}

// Dangling reports whether either end of the edge is unset
func (e Edge) Dangling() bool {
	return e.FromID == "" || e.ToID == ""
}

// key is the dedup identity of an edge within a snapshot
func (e Edge) key() string {
	return e.FromID + "\x00" + e.ToID + "\x00" + e.ArcID
}
