package network

import (
	"sort"
)

// Graph is an immutable-once-built snapshot of the merged network: element
// index with O(1) identifier lookup and O(degree) neighbor enumeration in
// either direction. Snapshots are built fresh per request; resolver-proposed
// edges live in a per-request overlay, never here.
type Graph struct {
	elements map[string]*Element
	outbound map[string][]Edge // keyed by FromID
	inbound  map[string][]Edge // keyed by ToID
	edgeKeys map[string]struct{}
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		elements: make(map[string]*Element),
		outbound: make(map[string][]Edge),
		inbound:  make(map[string][]Edge),
		edgeKeys: make(map[string]struct{}),
	}
}

// Element looks up an element by identifier
func (g *Graph) Element(id string) (*Element, bool) {
	el, ok := g.elements[id]
	return el, ok
}

// addElement indexes an element. Callers go through the Builder, which
// enforces the merge rules.
func (g *Graph) addElement(el *Element) {
	g.elements[el.Identifier] = el
}

// AddEdge records a directed edge. Duplicate edges (same endpoints and arc)
// are ignored; dangling edges are kept so gap analysis stays possible.
func (g *Graph) AddEdge(e Edge) {
	key := e.key()
	if _, seen := g.edgeKeys[key]; seen {
		return
	}
	g.edgeKeys[key] = struct{}{}

	if e.FromID != "" {
		g.outbound[e.FromID] = append(g.outbound[e.FromID], e)
	}
	if e.ToID != "" {
		g.inbound[e.ToID] = append(g.inbound[e.ToID], e)
	}
}

// Neighbors enumerates the edges touching id in the given direction:
// upstream follows only incoming edges, downstream only outgoing, both
// follows either. The result is ordered deterministically.
func (g *Graph) Neighbors(id string, direction Direction) []Edge {
	var edges []Edge
	switch direction {
	case DirectionDownstream:
		edges = append(edges, g.outbound[id]...)
	case DirectionUpstream:
		edges = append(edges, g.inbound[id]...)
	default:
		edges = append(edges, g.outbound[id]...)
		edges = append(edges, g.inbound[id]...)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].FromID != edges[j].FromID {
			return edges[i].FromID < edges[j].FromID
		}
		if edges[i].ToID != edges[j].ToID {
			return edges[i].ToID < edges[j].ToID
		}
		return edges[i].ArcID < edges[j].ArcID
	})
	return edges
}

// Identifiers returns all element identifiers in lexical order
func (g *Graph) Identifiers() []string {
	ids := make([]string, 0, len(g.elements))
	for id := range g.elements {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of elements in the snapshot
func (g *Graph) Len() int {
	return len(g.elements)
}

// EdgeCount returns the number of distinct edges in the snapshot
func (g *Graph) EdgeCount() int {
	return len(g.edgeKeys)
}

// GraphFromElements rebuilds a snapshot from already-merged elements, as
// loaded back from the store. Declared from/to linkage becomes explicit
// edges, same as Builder.Build.
func GraphFromElements(els []*Element) *Graph {
	g := NewGraph()
	for _, el := range els {
		g.addElement(el)
	}
	for _, el := range els {
		arcID := ""
		if el.Category == CategoryArc {
			arcID = el.Identifier
		}
		if el.FromID != "" {
			g.AddEdge(Edge{FromID: el.FromID, ToID: el.Identifier, ArcID: arcID, Strategy: StrategyExplicit})
		}
		if el.ToID != "" {
			g.AddEdge(Edge{FromID: el.Identifier, ToID: el.ToID, ArcID: arcID, Strategy: StrategyExplicit})
		}
	}
	return g
}

// Ghosts returns identifiers referenced by edges but absent from the element
// index, in lexical order. Ghost endpoints are surfaced, not dropped: they
// mark connectivity gaps between the two sources.
func (g *Graph) Ghosts() []string {
	seen := make(map[string]struct{})
	collect := func(id string) {
		if id == "" {
			return
		}
		if _, ok := g.elements[id]; ok {
			return
		}
		seen[id] = struct{}{}
	}
	for _, edges := range g.outbound {
		for _, e := range edges {
			collect(e.FromID)
			collect(e.ToID)
		}
	}
	for _, edges := range g.inbound {
		for _, e := range edges {
			collect(e.FromID)
			collect(e.ToID)
		}
	}

	ghosts := make([]string, 0, len(seen))
	for id := range seen {
		ghosts = append(ghosts, id)
	}
	sort.Strings(ghosts)
	return ghosts
}
