package traverse

import (
	"fmt"
	"strings"

	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/network"
)

// TraceRequest describes one trace-the-water query.
type TraceRequest struct {
	// Start is the identifier of the element to trace from. Required.
	Start string

	// Direction selects which edges to follow. Empty means the configured
	// default.
	Direction network.Direction

	// MaxDepth bounds the traversal. Zero means the configured default;
	// values above the hard ceiling are clamped, never rejected.
	MaxDepth int

	// IncludeArcs keeps arc elements in the output alongside nodes.
	IncludeArcs bool

	// GeometryOnly drops geometry-less elements from the output instead of
	// emitting them with null geometry.
	GeometryOnly bool

	// MultiPass traces in accumulating passes: explicit geometry-bearing
	// edges first, then inferred edges with geometry, then geometry-less
	// edges.
	MultiPass bool
}

// Normalize validates the request and fills defaults from configuration.
// Called before any store access; a request that fails here never reaches
// the database.
func (r *TraceRequest) Normalize(cfg config.TraceConfig) error {
	r.Start = strings.TrimSpace(r.Start)
	if r.Start == "" {
		return errors.NewInvalidRequestError("start identifier is required")
	}

	if r.Direction == "" {
		d, err := network.ParseDirection(cfg.DefaultDirection)
		if err != nil {
			return err
		}
		r.Direction = d
	} else {
		d, err := network.ParseDirection(string(r.Direction))
		if err != nil {
			return err
		}
		r.Direction = d
	}

	if r.MaxDepth < 0 {
		return errors.NewInvalidRequestError("max depth must not be negative, got %d", r.MaxDepth)
	}
	if r.MaxDepth == 0 {
		r.MaxDepth = cfg.DefaultMaxDepth
	}
	if r.MaxDepth <= 0 {
		r.MaxDepth = config.DefaultMaxDepth
	}

	ceiling := cfg.DepthCeiling
	if ceiling <= 0 {
		ceiling = config.DefaultDepthCeiling
	}
	if r.MaxDepth > ceiling {
		r.MaxDepth = ceiling
	}
	return nil
}

// CacheKey is the full query signature. Two requests with the same key must
// produce the same result against an unchanged store.
func (r *TraceRequest) CacheKey() string {
	return fmt.Sprintf("%s|%s|%d|arcs=%t|geom=%t|multi=%t",
		r.Start, r.Direction, r.MaxDepth, r.IncludeArcs, r.GeometryOnly, r.MultiPass)
}
