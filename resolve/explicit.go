package resolve

import (
	"context"

	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/store"
)

// explicitStrategy proposes neighbors from recorded from/to linkage. Always
// tried first; its results are always included when present.
type explicitStrategy struct {
	store store.SpatialStore
}

func (s *explicitStrategy) Name() network.Strategy {
	return network.StrategyExplicit
}

func (s *explicitStrategy) Propose(ctx context.Context, el *network.Element, direction network.Direction) ([]Candidate, error) {
	neighbors, err := s.store.GetDirectNeighbors(ctx, el.Identifier, direction)
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, 0, len(neighbors))
	for _, n := range neighbors {
		candidates = append(candidates, Candidate{
			Element:  n,
			Strategy: network.StrategyExplicit,
		})
	}
	return candidates, nil
}
