package resolve

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/store"
)

// Resolver runs the strategy chain for one element at a time, escalating to
// the next tier only while the candidate count stays below that tier's
// threshold. Pattern is a fallback for explicit: it runs only when explicit
// produced no usable edge for the element. A tier that is entered is fully
// evaluated before the chain falls through; proximity is consulted only when
// everything before it produced nothing.
type Resolver struct {
	strategies []Strategy
	cfg        config.ResolverConfig
	logger     *zap.SugaredLogger

	mu          sync.Mutex
	invocations map[network.Strategy]int
}

// NewResolver builds the full four-tier chain over the given store. Zero
// config fields fall back to package defaults.
func NewResolver(s store.SpatialStore, cfg config.ResolverConfig, logger *zap.SugaredLogger) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	cfg = withDefaults(cfg)
	return &Resolver{
		strategies: []Strategy{
			&explicitStrategy{store: s},
			&patternStrategy{store: s, logger: logger},
			&riverStrategy{store: s, cfg: cfg},
			&proximityStrategy{store: s, cfg: cfg},
		},
		cfg:         cfg,
		logger:      logger,
		invocations: make(map[network.Strategy]int),
	}
}

// Resolve returns the neighbors of el in the given direction, escalating
// through the fallback tiers as needed. found is the running total of
// elements the caller's traversal has already discovered; tier gates compare
// against it so a well-connected trace stops escalating early. Results keep
// the strategy tag of the tier that found them and never contain el itself
// or duplicates.
func (r *Resolver) Resolve(ctx context.Context, el *network.Element, direction network.Direction, found int) ([]Candidate, error) {
	var resolved []Candidate
	seen := map[string]struct{}{el.Identifier: {}}

	add := func(candidates []Candidate) {
		for _, c := range candidates {
			if _, dup := seen[c.Element.Identifier]; dup {
				continue
			}
			seen[c.Element.Identifier] = struct{}{}
			resolved = append(resolved, c)
		}
	}

	for _, strategy := range r.strategies {
		switch strategy.Name() {
		case network.StrategyPattern:
			if len(resolved) > 0 || found >= r.cfg.PatternThreshold {
				continue
			}
		case network.StrategyRiverSequence:
			if found+len(resolved) >= r.cfg.RiverThreshold {
				continue
			}
		case network.StrategyProximity:
			if len(resolved) > 0 || found >= r.cfg.RiverThreshold {
				continue
			}
		}

		r.recordInvocation(strategy.Name())
		candidates, err := strategy.Propose(ctx, el, direction)
		if err != nil {
			return nil, err
		}
		add(candidates)
	}
	return resolved, nil
}

func withDefaults(cfg config.ResolverConfig) config.ResolverConfig {
	if cfg.PatternThreshold <= 0 {
		cfg.PatternThreshold = config.DefaultPatternThreshold
	}
	if cfg.RiverThreshold <= 0 {
		cfg.RiverThreshold = config.DefaultRiverThreshold
	}
	if cfg.RiverWindowMiles <= 0 {
		cfg.RiverWindowMiles = config.DefaultRiverWindowMiles
	}
	if cfg.RiverTraversalWindowMiles <= 0 {
		cfg.RiverTraversalWindowMiles = config.DefaultRiverTraversalWindowMiles
	}
	if cfg.ProximityRadiusMeters <= 0 {
		cfg.ProximityRadiusMeters = config.DefaultProximityRadiusMeters
	}
	if cfg.ProximityPreferredMeters <= 0 {
		cfg.ProximityPreferredMeters = config.DefaultProximityPreferredMeters
	}
	if cfg.CandidateCap <= 0 {
		cfg.CandidateCap = config.DefaultCandidateCap
	}
	return cfg
}

func (r *Resolver) recordInvocation(name network.Strategy) {
	r.mu.Lock()
	r.invocations[name]++
	r.mu.Unlock()
}

// Invocations returns how many times the named tier has been consulted.
func (r *Resolver) Invocations(name network.Strategy) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.invocations[name]
}

// InvokedStrategies lists the tiers consulted at least once, in chain order.
func (r *Resolver) InvokedStrategies() []network.Strategy {
	r.mu.Lock()
	defer r.mu.Unlock()
	var invoked []network.Strategy
	for _, strategy := range r.strategies {
		if r.invocations[strategy.Name()] > 0 {
			invoked = append(invoked, strategy.Name())
		}
	}
	return invoked
}
