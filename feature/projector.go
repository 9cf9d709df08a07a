package feature

import (
	"fmt"
	"sort"

	"github.com/hydroline/watertrace/network"
)

// Discovery is one visited element in BFS emission order
type Discovery struct {
	Element  *network.Element
	Depth    int
	Strategy network.Strategy
}

// Projector turns the visited set into a deduplicated, ordered collection
type Projector struct {
	geometryOnly bool
	includeArcs  bool
}

// NewProjector creates a projector. geometryOnly drops elements without
// geometry entirely; otherwise they are emitted with has_geometry=false and
// null geometry. includeArcs keeps arc elements in the output.
func NewProjector(geometryOnly, includeArcs bool) *Projector {
	return &Projector{
		geometryOnly: geometryOnly,
		includeArcs:  includeArcs,
	}
}

// Project builds the output collection. Input order is BFS emission order,
// so first-occurrence dedup keeps the lowest depth and, among equal depths,
// the earliest-evaluated strategy tier.
func (p *Projector) Project(discoveries []Discovery, meta Metadata) *Collection {
	seen := make(map[string]struct{}, len(discoveries))
	features := make([]Feature, 0, len(discoveries))

	for _, d := range discoveries {
		el := d.Element
		if el == nil {
			continue
		}
		if _, dup := seen[el.Identifier]; dup {
			continue
		}
		seen[el.Identifier] = struct{}{}

		if !p.includeArcs && el.Category == network.CategoryArc {
			continue
		}
		if p.geometryOnly && !el.HasGeometry() {
			continue
		}

		features = append(features, Feature{
			Type:     "Feature",
			Geometry: el.Geometry,
			Properties: Properties{
				ID:                 fmt.Sprintf("%s:%s", el.Category, el.Identifier),
				Identifier:         el.Identifier,
				Category:           el.Category,
				ElementType:        el.ElementType,
				Subtype:            el.Subtype,
				RiverName:          el.RiverName,
				RiverMile:          el.RiverMile,
				Depth:              d.Depth,
				Strategy:           d.Strategy,
				HasGeometry:        el.HasGeometry(),
				ConnectivityStatus: el.Connectivity,
				Active:             el.Active,
			},
		})
	}

	// Deterministic output: depth ascending, nodes before arcs, then identifier
	sort.Slice(features, func(i, j int) bool {
		a, b := features[i].Properties, features[j].Properties
		if a.Depth != b.Depth {
			return a.Depth < b.Depth
		}
		if a.Category != b.Category {
			return a.Category == network.CategoryNode
		}
		return a.Identifier < b.Identifier
	})

	meta.TotalFeatures = len(features)
	if meta.StrategiesInvoked == nil {
		meta.StrategiesInvoked = []string{}
	}

	return &Collection{
		Type:     "FeatureCollection",
		Features: features,
		Metadata: meta,
	}
}
