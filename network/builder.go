package network

import (
	"go.uber.org/zap"
)

// Record is the normalized form both source adapters produce. The builder
// merges records sharing an identifier into one element per the source
// priority rules.
type Record struct {
	Identifier  string
	Category    Category
	ElementType string
	Subtype     string
	FromID      string
	ToID        string
	RiverName   string
	RiverMile   *float64
	Geometry    *Geometry
	Active      bool
	Provenance  Provenance
}

// Builder merges the two source record streams into one graph snapshot.
//
// Merge rules: an identifier present in either source produces exactly one
// element; the spatial source wins conflicts on spatial/physical attributes
// (geometry, river name/mile, type); the schematic source wins connectivity
// presence (from/to linkage). Category conflicts keep the first-seen
// category, since an arc identifier is never reused as a node identifier.
type Builder struct {
	merged    map[string]*Element
	order     []string
	conflicts int
	logger    *zap.SugaredLogger
}

// NewBuilder creates a graph builder
func NewBuilder(logger *zap.SugaredLogger) *Builder {
	return &Builder{
		merged: make(map[string]*Element),
		logger: logger.Named("network.builder"),
	}
}

// Add merges one source record
func (b *Builder) Add(rec Record) {
	if rec.Identifier == "" {
		b.logger.Debugw("Skipping record without identifier", "category", rec.Category)
		return
	}

	existing, ok := b.merged[rec.Identifier]
	if !ok {
		el := &Element{
			Identifier:  rec.Identifier,
			Category:    rec.Category,
			ElementType: rec.ElementType,
			Subtype:     rec.Subtype,
			FromID:      rec.FromID,
			ToID:        rec.ToID,
			RiverName:   rec.RiverName,
			RiverMile:   rec.RiverMile,
			Geometry:    rec.Geometry,
			Active:      rec.Active,
			Provenance:  []Provenance{rec.Provenance},
		}
		b.merged[rec.Identifier] = el
		b.order = append(b.order, rec.Identifier)
		return
	}

	if existing.Category != rec.Category {
		// Identifier collision across categories: keep the first-seen record
		b.conflicts++
		b.logger.Warnw("Category conflict for identifier, keeping first",
			"identifier", rec.Identifier,
			"kept", existing.Category,
			"dropped", rec.Category,
		)
		return
	}

	b.mergeInto(existing, rec)
}

// mergeInto applies source-priority attribute resolution
func (b *Builder) mergeInto(el *Element, rec Record) {
	spatial := rec.Provenance == ProvenanceSpatial

	// Spatial source wins spatial/physical attributes; otherwise fill gaps only
	if rec.Geometry != nil && (spatial || el.Geometry == nil) {
		el.Geometry = rec.Geometry
	}
	if rec.RiverName != "" && (spatial || el.RiverName == "") {
		el.RiverName = rec.RiverName
	}
	if rec.RiverMile != nil && (spatial || el.RiverMile == nil) {
		el.RiverMile = rec.RiverMile
	}
	if rec.ElementType != "" && (spatial || el.ElementType == "") {
		el.ElementType = rec.ElementType
	}
	if rec.Subtype != "" && (spatial || el.Subtype == "") {
		el.Subtype = rec.Subtype
	}

	// Schematic source wins connectivity presence; spatial fills gaps only
	schematic := rec.Provenance == ProvenanceSchematic
	if rec.FromID != "" && (schematic || el.FromID == "") {
		el.FromID = rec.FromID
	}
	if rec.ToID != "" && (schematic || el.ToID == "") {
		el.ToID = rec.ToID
	}

	el.Active = el.Active || rec.Active

	if !el.HasProvenance(rec.Provenance) {
		el.Provenance = append(el.Provenance, rec.Provenance)
	}
}

// Conflicts returns the number of cross-category identifier collisions seen
func (b *Builder) Conflicts() int {
	return b.conflicts
}

// Build finalizes the merge into a graph snapshot: connectivity status is
// derived per element, and declared from/to linkage becomes explicit edges.
// An element with from=X, to=Y contributes edges X→self and self→Y, so arcs
// sit in traversal chains as regular vertices.
func (b *Builder) Build() *Graph {
	g := NewGraph()

	for _, id := range b.order {
		el := b.merged[id]
		el.Connectivity = connectivityOf(el.FromID, el.ToID)
		g.addElement(el)
	}

	for _, id := range b.order {
		el := b.merged[id]

		arcID := ""
		if el.Category == CategoryArc {
			arcID = el.Identifier
		}

		if el.FromID != "" {
			g.AddEdge(Edge{
				FromID:   el.FromID,
				ToID:     el.Identifier,
				ArcID:    arcID,
				Strategy: StrategyExplicit,
			})
		}
		if el.ToID != "" {
			g.AddEdge(Edge{
				FromID:   el.Identifier,
				ToID:     el.ToID,
				ArcID:    arcID,
				Strategy: StrategyExplicit,
			})
		}
	}

	ghosts := g.Ghosts()
	if len(ghosts) > 0 {
		b.logger.Infow("Graph built with ghost endpoints",
			"elements", g.Len(),
			"edges", g.EdgeCount(),
			"ghosts", len(ghosts),
		)
	} else {
		b.logger.Debugw("Graph built",
			"elements", g.Len(),
			"edges", g.EdgeCount(),
		)
	}

	return g
}
