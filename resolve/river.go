package resolve

import (
	"context"
	"math"

	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/store"
)

// riverStrategy links elements sharing a river name by river-mile adjacency:
// the nearest other elements on the same waterway within a bounded mile
// window. In-traversal expansion uses the narrower directional window; the
// broad window is reserved for whole-network linking passes.
type riverStrategy struct {
	store store.SpatialStore
	cfg   config.ResolverConfig
}

func (s *riverStrategy) Name() network.Strategy {
	return network.StrategyRiverSequence
}

func (s *riverStrategy) Propose(ctx context.Context, el *network.Element, direction network.Direction) ([]Candidate, error) {
	// River adjacency is defined for nodes only; arcs carrying river
	// attributes are still linked through their declared endpoints
	if el.Category != network.CategoryNode {
		return nil, nil
	}
	if el.RiverName == "" || el.RiverMile == nil {
		return nil, nil
	}

	// Fetch one extra so the element itself can be excluded
	matches, err := s.store.GetSameRiver(ctx, el.RiverName, *el.RiverMile, s.cfg.RiverTraversalWindowMiles, s.cfg.CandidateCap+1)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, m := range matches {
		if m.Identifier == el.Identifier {
			continue
		}
		if m.RiverMile == nil {
			continue
		}
		candidates = append(candidates, Candidate{
			Element:  m,
			Strategy: network.StrategyRiverSequence,
			Distance: math.Abs(*m.RiverMile - *el.RiverMile),
		})
	}
	return rankCandidates(candidates, s.cfg.CandidateCap), nil
}
