// Package traverse runs bounded, cycle-safe traversals over the water
// network. The engine walks level-synchronous BFS from a start element,
// consulting the connectivity resolver per frontier expansion, and projects
// the visited set into a feature collection.
package traverse

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hydroline/watertrace/cache"
	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/feature"
	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/resolve"
	"github.com/hydroline/watertrace/store"
)

// Engine executes trace requests. Safe for concurrent use: every request
// gets its own resolver and traversal state; only the store and the result
// cache are shared.
type Engine struct {
	store  store.SpatialStore
	cfg    *config.Config
	cache  cache.TraceCache
	logger *zap.SugaredLogger
}

// NewEngine creates a traversal engine over the given store.
func NewEngine(s store.SpatialStore, cfg *config.Config, c cache.TraceCache, logger *zap.SugaredLogger) *Engine {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Engine{store: s, cfg: cfg, cache: c, logger: logger}
}

// frontierItem is one pending expansion: the element, its discovery depth,
// and the identifiers on the path that reached it (cycle guard).
type frontierItem struct {
	el    *network.Element
	depth int
	path  map[string]struct{}
}

// traversal accumulates state across BFS levels and, in multi-pass mode,
// across passes. discoveries stays in emission order so the projector's
// first-wins dedup keeps the lowest depth.
type traversal struct {
	visited     map[string]struct{}
	discoveries []feature.Discovery
}

// candidateFilter restricts which resolver candidates a pass may follow.
type candidateFilter func(resolve.Candidate) bool

func allowAll(resolve.Candidate) bool { return true }

// Trace resolves and traverses the network from req.Start and returns the
// resulting feature collection. On context cancellation the partial result
// accumulated so far is returned with the truncated flag set; store failures
// are fatal for the request.
func (e *Engine) Trace(ctx context.Context, req TraceRequest) (*feature.Collection, error) {
	if err := req.Normalize(e.cfg.Trace); err != nil {
		return nil, err
	}

	key := req.CacheKey()
	if hit, ok := e.cache.Get(key); ok {
		e.logger.Debugw("Trace cache hit", "key", key)
		return hit, nil
	}

	start, err := e.store.GetByIdentifier(ctx, req.Start)
	if err != nil {
		if errors.IsNotFoundError(err) {
			return nil, errors.NewNotFoundError("start element %s", req.Start)
		}
		return nil, errors.Mark(errors.Wrap(err, "load start element"), errors.ErrStoreUnavailable)
	}

	requestID := uuid.NewString()
	resolver := resolve.NewResolver(e.store, e.cfg.Resolver, e.logger)
	log := e.logger.With(
		"request_id", requestID,
		"start", start.Identifier,
		"direction", req.Direction,
		"max_depth", req.MaxDepth,
	)
	log.Debugw("Trace started", "multi_pass", req.MultiPass)

	tr := &traversal{
		visited: map[string]struct{}{start.Identifier: {}},
		discoveries: []feature.Discovery{
			{Element: start, Depth: 0, Strategy: network.StrategyExplicit},
		},
	}

	var truncCause string
	if req.MultiPass {
		truncCause, err = e.multiPass(ctx, resolver, tr, req)
	} else {
		truncCause, err = e.runPass(ctx, resolver, tr, reseed(tr), req, allowAll)
	}
	if err != nil {
		return nil, err
	}

	meta := feature.Metadata{
		StartElement:      start.Identifier,
		Direction:         req.Direction,
		MaxDepth:          req.MaxDepth,
		RequestID:         requestID,
		GeneratedAt:       time.Now().UTC(),
		StrategiesInvoked: strategyNames(resolver.InvokedStrategies()),
		Truncated:         truncCause != "",
		TruncationCause:   truncCause,
	}
	result := feature.NewProjector(req.GeometryOnly, req.IncludeArcs).Project(tr.discoveries, meta)
	log.Debugw("Trace finished",
		"features", result.Metadata.TotalFeatures,
		"strategies", meta.StrategiesInvoked,
		"truncated", meta.Truncated,
	)

	// Partial results are never cached: a retry may complete
	if truncCause == "" {
		e.cache.Put(key, result)
	}
	return result, nil
}

// runPass walks BFS levels until the frontier empties. Store lookups within
// one level run concurrently, but the level is fully collected before the
// next begins so depth assignment stays correct. Returns the truncation
// cause when the context ends mid-pass.
func (e *Engine) runPass(ctx context.Context, resolver *resolve.Resolver, tr *traversal, seeds []frontierItem, req TraceRequest, allow candidateFilter) (string, error) {
	fanout := e.cfg.Trace.LevelFanout
	if fanout <= 0 {
		fanout = config.DefaultLevelFanout
	}

	level := seeds
	for len(level) > 0 {
		found := len(tr.discoveries)
		results := make([][]resolve.Candidate, len(level))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(fanout)
		for i, item := range level {
			if item.depth >= req.MaxDepth {
				continue
			}
			g.Go(func() error {
				candidates, err := resolver.Resolve(gctx, item.el, req.Direction, found)
				if err != nil {
					return err
				}
				results[i] = candidates
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if cause := cancellationCause(ctx, err); cause != "" {
				return cause, nil
			}
			return "", errors.Mark(errors.Wrap(err, "expand frontier"), errors.ErrStoreUnavailable)
		}

		// Merge in frontier order so output is independent of goroutine
		// scheduling
		var next []frontierItem
		for i, item := range level {
			for _, c := range results[i] {
				if !allow(c) {
					continue
				}
				id := c.Element.Identifier
				if _, cyclic := item.path[id]; cyclic {
					continue
				}
				if _, seen := tr.visited[id]; seen {
					continue
				}
				tr.visited[id] = struct{}{}
				tr.discoveries = append(tr.discoveries, feature.Discovery{
					Element:  c.Element,
					Depth:    item.depth + 1,
					Strategy: c.Strategy,
				})
				next = append(next, frontierItem{
					el:    c.Element,
					depth: item.depth + 1,
					path:  extendPath(item.path, id),
				})
			}
		}
		level = next
	}
	return "", nil
}

// reseed builds a frontier from everything discovered so far, keeping each
// element's discovery depth so later expansion cannot exceed the bound.
func reseed(tr *traversal) []frontierItem {
	seeds := make([]frontierItem, 0, len(tr.discoveries))
	for _, d := range tr.discoveries {
		seeds = append(seeds, frontierItem{
			el:    d.Element,
			depth: d.Depth,
			path:  map[string]struct{}{d.Element.Identifier: {}},
		})
	}
	return seeds
}

func extendPath(path map[string]struct{}, id string) map[string]struct{} {
	next := make(map[string]struct{}, len(path)+1)
	for k := range path {
		next[k] = struct{}{}
	}
	next[id] = struct{}{}
	return next
}

func cancellationCause(ctx context.Context, err error) string {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "deadline"
	}
	return "canceled"
}

func strategyNames(strategies []network.Strategy) []string {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = string(s)
	}
	return names
}
