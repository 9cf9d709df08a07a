// Package resolve reconstructs missing connectivity. Declared linkage in the
// source data is incomplete, so a strict chain of fallback strategies
// proposes additional candidate edges for elements whose explicit linkage is
// insufficient: explicit, then identifier-pattern, then river-sequence, then
// spatial proximity.
package resolve

import (
	"context"
	"sort"

	"github.com/hydroline/watertrace/network"
)

// Candidate is a proposed neighbor for an element, with the strategy tier
// that found it and the distance used for ranking (meters for proximity,
// miles for river sequence, zero otherwise).
type Candidate struct {
	Element  *network.Element
	Strategy network.Strategy
	Distance float64
}

// Strategy proposes candidate neighbors for one element. Implementations are
// pure lookups: they never mutate the graph and never write to the store.
type Strategy interface {
	Name() network.Strategy
	Propose(ctx context.Context, el *network.Element, direction network.Direction) ([]Candidate, error)
}

// rankCandidates orders candidates by ascending distance, then ascending
// identifier, and caps fan-out. The lexical tie-break keeps repeated queries
// reproducible when distances are equal.
func rankCandidates(candidates []Candidate, cap int) []Candidate {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Element.Identifier < candidates[j].Element.Identifier
	})
	if cap > 0 && len(candidates) > cap {
		candidates = candidates[:cap]
	}
	return candidates
}
