// Package feature converts a traversal's visited set into the
// FeatureCollection rendering clients consume.
package feature

import (
	"time"

	"github.com/hydroline/watertrace/network"
)

// Collection is the output contract for trace queries
type Collection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
	Metadata Metadata  `json:"metadata"`
}

// Feature is one discovered element with its geometry and trace properties
type Feature struct {
	Type       string            `json:"type"`
	Geometry   *network.Geometry `json:"geometry"` // null for logical-only elements
	Properties Properties        `json:"properties"`
}

// Properties carries the element attributes and discovery context
type Properties struct {
	ID                 string                     `json:"id"`
	Identifier         string                     `json:"identifier"`
	Category           network.Category           `json:"category"`
	ElementType        string                     `json:"element_type"`
	Subtype            string                     `json:"subtype,omitempty"`
	RiverName          string                     `json:"river_name,omitempty"`
	RiverMile          *float64                   `json:"river_mile,omitempty"`
	Depth              int                        `json:"depth"`
	Strategy           network.Strategy           `json:"strategy"`
	HasGeometry        bool                       `json:"has_geometry"`
	ConnectivityStatus network.ConnectivityStatus `json:"connectivity_status"`
	Active             bool                       `json:"active"`
}

// Metadata describes the trace that produced the collection
type Metadata struct {
	StartElement       string            `json:"start_element"`
	Direction          network.Direction `json:"direction"`
	MaxDepth           int               `json:"max_depth"`
	TotalFeatures      int               `json:"total_features"`
	RequestID          string            `json:"request_id,omitempty"`
	GeneratedAt        time.Time         `json:"generated_at"`
	StrategiesInvoked  []string          `json:"strategies_invoked"` // ordered list of strategies actually used
	Truncated          bool              `json:"truncated,omitempty"`
	TruncationCause    string            `json:"truncation_cause,omitempty"`
}
