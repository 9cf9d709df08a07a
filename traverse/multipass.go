package traverse

import (
	"context"

	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/resolve"
)

// multiPass traces in three accumulating passes. Pass 1 builds the backbone
// from explicit, geometry-bearing edges only; pass 2 re-seeds from everything
// found so far and admits inferred edges that carry geometry; pass 3 admits
// geometry-less edges. Re-seeding from prior discoveries means a later pass
// can only attach to the network already traced, never introduce a
// disconnected backbone of its own.
func (e *Engine) multiPass(ctx context.Context, resolver *resolve.Resolver, tr *traversal, req TraceRequest) (string, error) {
	passes := []candidateFilter{
		func(c resolve.Candidate) bool {
			return c.Strategy == network.StrategyExplicit && c.Element.HasGeometry()
		},
		func(c resolve.Candidate) bool {
			return c.Strategy != network.StrategyProximity && c.Element.HasGeometry()
		},
		allowAll,
	}

	for _, allow := range passes {
		cause, err := e.runPass(ctx, resolver, tr, reseed(tr), req, allow)
		if err != nil || cause != "" {
			return cause, err
		}
	}
	return "", nil
}
