package traverse_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/hydroline/watertrace/cache"
	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/feature"
	wtest "github.com/hydroline/watertrace/internal/testing"
	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/store"
	"github.com/hydroline/watertrace/traverse"
)

func mile(v float64) *float64 { return &v }

// engineRecords lays out three independent clusters: an explicit chain below
// Folsom with a river-linked logical element, a three-node cycle, and a
// pattern-only delivery arc.
func engineRecords() []network.Record {
	return []network.Record{
		{Identifier: "FOLSM", Category: network.CategoryNode, ElementType: "reservoir",
			ToID: "AMR002", RiverName: "American River", RiverMile: mile(120),
			Geometry: network.NewPoint(-121.16, 38.68), Active: true, Provenance: network.ProvenanceSpatial},
		{Identifier: "GAUGE1", Category: network.CategoryNode, ElementType: "gauge",
			FromID: "FOLSM", Geometry: network.NewPoint(-121.17, 38.67),
			Active: true, Provenance: network.ProvenanceSpatial},
		{Identifier: "AMR002", Category: network.CategoryArc, ElementType: "channel",
			FromID: "FOLSM", ToID: "AMR004", Active: true, Provenance: network.ProvenanceSchematic},
		{Identifier: "AMR004", Category: network.CategoryArc, ElementType: "channel",
			FromID: "AMR002", ToID: "AMR006", Active: true, Provenance: network.ProvenanceSchematic},
		{Identifier: "AMR006", Category: network.CategoryArc, ElementType: "channel",
			FromID: "AMR004", Active: true, Provenance: network.ProvenanceSchematic},
		// Logical-only element: no geometry, reachable from FOLSM only by
		// river-mile adjacency
		{Identifier: "LOGICAL", Category: network.CategoryNode, ElementType: "diversion",
			RiverName: "American River", RiverMile: mile(118),
			Active: true, Provenance: network.ProvenanceSchematic},
		// Cycle
		{Identifier: "CYC_A", Category: network.CategoryNode, ElementType: "junction",
			ToID: "CYC_B", Geometry: network.NewPoint(-119.00, 36.00), Active: true, Provenance: network.ProvenanceSpatial},
		{Identifier: "CYC_B", Category: network.CategoryNode, ElementType: "junction",
			ToID: "CYC_C", Geometry: network.NewPoint(-119.01, 36.00), Active: true, Provenance: network.ProvenanceSpatial},
		{Identifier: "CYC_C", Category: network.CategoryNode, ElementType: "junction",
			ToID: "CYC_A", Geometry: network.NewPoint(-119.02, 36.00), Active: true, Provenance: network.ProvenanceSpatial},
		// Pattern pair, isolated from everything else
		{Identifier: "X1", Category: network.CategoryNode, ElementType: "diversion",
			Geometry: network.NewPoint(-117.00, 34.00), Active: true, Provenance: network.ProvenanceSpatial},
		{Identifier: "D_X1_a", Category: network.CategoryArc, ElementType: "delivery",
			Active: true, Provenance: network.ProvenanceSchematic},
	}
}

func newEngine(t *testing.T, cfg *config.Config, c cache.TraceCache) *traverse.Engine {
	t.Helper()
	s := wtest.CreateTestStore(t, engineRecords())
	if cfg == nil {
		cfg = &config.Config{}
	}
	return traverse.NewEngine(s, cfg, c, nil)
}

func featureByID(c *feature.Collection, id string) (feature.Feature, bool) {
	for _, f := range c.Features {
		if f.Properties.Identifier == id {
			return f, true
		}
	}
	return feature.Feature{}, false
}

func identifierSet(c *feature.Collection) map[string]int {
	out := make(map[string]int, len(c.Features))
	for _, f := range c.Features {
		out[f.Properties.Identifier] = f.Properties.Depth
	}
	return out
}

func TestTraceExplicitChainDepths(t *testing.T) {
	e := newEngine(t, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start:       "FOLSM",
		Direction:   network.DirectionDownstream,
		IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	depths := identifierSet(result)
	want := map[string]int{"FOLSM": 0, "AMR002": 1, "AMR004": 2, "AMR006": 3}
	for id, depth := range want {
		if got, ok := depths[id]; !ok || got != depth {
			t.Errorf("%s depth = %d (present=%t), want %d", id, got, ok, depth)
		}
	}

	f, _ := featureByID(result, "FOLSM")
	if f.Properties.Strategy != network.StrategyExplicit {
		t.Errorf("start strategy = %s, want explicit", f.Properties.Strategy)
	}
}

func TestTraceNoDuplicateFeatures(t *testing.T) {
	e := newEngine(t, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionBoth, IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	seen := make(map[string]bool)
	for _, f := range result.Features {
		if seen[f.Properties.Identifier] {
			t.Errorf("duplicate feature %s", f.Properties.Identifier)
		}
		seen[f.Properties.Identifier] = true
	}
	if result.Metadata.TotalFeatures != len(result.Features) {
		t.Errorf("TotalFeatures = %d, features = %d", result.Metadata.TotalFeatures, len(result.Features))
	}
}

func TestTraceRespectsMaxDepth(t *testing.T) {
	e := newEngine(t, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start:       "FOLSM",
		Direction:   network.DirectionDownstream,
		MaxDepth:    2,
		IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	for _, f := range result.Features {
		if f.Properties.Depth > 2 {
			t.Errorf("%s at depth %d exceeds bound", f.Properties.Identifier, f.Properties.Depth)
		}
	}
	if _, ok := featureByID(result, "AMR006"); ok {
		t.Error("AMR006 is three hops away and must not appear at depth 2")
	}
}

func TestTraceDepthSubsetMonotonic(t *testing.T) {
	e := newEngine(t, nil, nil)
	ctx := context.Background()

	shallow, err := e.Trace(ctx, traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionDownstream, MaxDepth: 1, IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	deep, err := e.Trace(ctx, traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionDownstream, MaxDepth: 2, IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	deepIDs := identifierSet(deep)
	for id := range identifierSet(shallow) {
		if _, ok := deepIDs[id]; !ok {
			t.Errorf("%s found at depth 1 but missing at depth 2", id)
		}
	}
}

func TestTraceDirectionSubsetMonotonic(t *testing.T) {
	e := newEngine(t, nil, nil)
	ctx := context.Background()

	down, err := e.Trace(ctx, traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionDownstream, MaxDepth: 3, IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	both, err := e.Trace(ctx, traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionBoth, MaxDepth: 3, IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	bothIDs := identifierSet(both)
	for id := range identifierSet(down) {
		if _, ok := bothIDs[id]; !ok {
			t.Errorf("%s reached downstream-only but missing from both-direction trace", id)
		}
	}
}

func TestTraceCycleTerminates(t *testing.T) {
	e := newEngine(t, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start: "CYC_A", Direction: network.DirectionDownstream, MaxDepth: 10,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	depths := identifierSet(result)
	want := map[string]int{"CYC_A": 0, "CYC_B": 1, "CYC_C": 2}
	if len(depths) != len(want) {
		t.Fatalf("features = %v, want exactly the cycle members once each", depths)
	}
	for id, depth := range want {
		if depths[id] != depth {
			t.Errorf("%s depth = %d, want %d", id, depths[id], depth)
		}
	}
}

func TestTracePatternResolution(t *testing.T) {
	e := newEngine(t, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start: "D_X1_a", Direction: network.DirectionBoth, IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	f, ok := featureByID(result, "X1")
	if !ok {
		t.Fatalf("X1 not discovered; features = %v", identifierSet(result))
	}
	if f.Properties.Depth != 1 || f.Properties.Strategy != network.StrategyPattern {
		t.Errorf("X1 depth/strategy = %d/%s, want 1/pattern", f.Properties.Depth, f.Properties.Strategy)
	}

	invoked := result.Metadata.StrategiesInvoked
	foundPattern := false
	for _, s := range invoked {
		if s == string(network.StrategyPattern) {
			foundPattern = true
		}
	}
	if !foundPattern {
		t.Errorf("strategies_invoked = %v, want pattern listed", invoked)
	}
}

func TestTraceLogicalElementEmittedWithoutGeometry(t *testing.T) {
	e := newEngine(t, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionDownstream, IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	f, ok := featureByID(result, "LOGICAL")
	if !ok {
		t.Fatalf("LOGICAL not discovered; features = %v", identifierSet(result))
	}
	if f.Properties.Strategy != network.StrategyRiverSequence {
		t.Errorf("LOGICAL strategy = %s, want river_sequence", f.Properties.Strategy)
	}
	if f.Properties.HasGeometry || f.Geometry != nil {
		t.Error("LOGICAL must be emitted with has_geometry=false and null geometry")
	}
}

func TestTraceGeometryOnlyDropsLogicalElements(t *testing.T) {
	e := newEngine(t, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionDownstream, GeometryOnly: true, IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if _, ok := featureByID(result, "LOGICAL"); ok {
		t.Error("geometry-only view must drop the geometry-less LOGICAL element")
	}
}

func TestTraceEscalationGating(t *testing.T) {
	cfg := &config.Config{Resolver: config.ResolverConfig{PatternThreshold: 1, RiverThreshold: 1}}
	e := newEngine(t, cfg, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionDownstream, IncludeArcs: true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	invoked := result.Metadata.StrategiesInvoked
	if len(invoked) != 1 || invoked[0] != string(network.StrategyExplicit) {
		t.Errorf("strategies_invoked = %v, want only explicit when thresholds are met", invoked)
	}
	if _, ok := featureByID(result, "LOGICAL"); ok {
		t.Error("river-sequence element attached despite met threshold")
	}
}

func TestTraceDeterministicOutput(t *testing.T) {
	e := newEngine(t, nil, nil)
	ctx := context.Background()
	req := traverse.TraceRequest{Start: "FOLSM", Direction: network.DirectionBoth, IncludeArcs: true}

	first, err := e.Trace(ctx, req)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	second, err := e.Trace(ctx, req)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	a, err := json.Marshal(first.Features)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	b, err := json.Marshal(second.Features)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(a) != string(b) {
		t.Error("identical requests produced different feature output")
	}
}

func TestTraceUnknownStart(t *testing.T) {
	e := newEngine(t, nil, nil)

	_, err := e.Trace(context.Background(), traverse.TraceRequest{Start: "NOPE"})
	if !errors.IsNotFoundError(err) {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestTraceInvalidDirectionBeforeStoreAccess(t *testing.T) {
	e := traverse.NewEngine(nil, nil, nil, nil) // nil store: any access would panic

	_, err := e.Trace(context.Background(), traverse.TraceRequest{Start: "FOLSM", Direction: "sideways"})
	if !errors.IsInvalidRequestError(err) {
		t.Errorf("expected invalid-request error, got %v", err)
	}
}

func TestTraceMaxDepthClampedInMetadata(t *testing.T) {
	e := newEngine(t, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start: "CYC_A", MaxDepth: 100,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if result.Metadata.MaxDepth != config.DefaultDepthCeiling {
		t.Errorf("metadata max_depth = %d, want clamped %d", result.Metadata.MaxDepth, config.DefaultDepthCeiling)
	}
}

// failingStore delegates to a real store but fails neighbor lookups.
type failingStore struct {
	store.SpatialStore
}

func (f *failingStore) GetDirectNeighbors(ctx context.Context, identifier string, direction network.Direction) ([]*network.Element, error) {
	return nil, errors.New("disk I/O error")
}

func TestTraceStoreFailureIsFatal(t *testing.T) {
	inner := wtest.CreateTestStore(t, engineRecords())
	e := traverse.NewEngine(&failingStore{SpatialStore: inner}, &config.Config{}, nil, nil)

	_, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionDownstream,
	})
	if err == nil {
		t.Fatal("expected store failure to be fatal")
	}
	if !errors.IsStoreUnavailableError(err) {
		t.Errorf("expected store-unavailable error, got %v", err)
	}
}

// canceledStore simulates cancellation arriving mid-traversal.
type canceledStore struct {
	store.SpatialStore
}

func (c *canceledStore) GetDirectNeighbors(ctx context.Context, identifier string, direction network.Direction) ([]*network.Element, error) {
	return nil, context.Canceled
}

func TestTraceCancellationReturnsPartialResult(t *testing.T) {
	inner := wtest.CreateTestStore(t, engineRecords())
	e := traverse.NewEngine(&canceledStore{SpatialStore: inner}, &config.Config{}, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start: "FOLSM", Direction: network.DirectionDownstream,
	})
	if err != nil {
		t.Fatalf("cancellation must not fail the request: %v", err)
	}
	if !result.Metadata.Truncated || result.Metadata.TruncationCause != "canceled" {
		t.Errorf("metadata = %+v, want truncated with cause canceled", result.Metadata)
	}
	if _, ok := featureByID(result, "FOLSM"); !ok {
		t.Error("partial result must still contain the start element")
	}
}

func TestTraceCacheReadThrough(t *testing.T) {
	c := cache.NewLRU(8, time.Minute)
	e := newEngine(t, nil, c)
	ctx := context.Background()
	req := traverse.TraceRequest{Start: "CYC_A", Direction: network.DirectionDownstream}

	first, err := e.Trace(ctx, req)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	second, err := e.Trace(ctx, req)
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if first != second {
		t.Error("second identical request should be served from cache")
	}
	if c.Len() == 0 {
		t.Error("completed trace was not cached")
	}
}

func TestTraceTruncatedResultNotCached(t *testing.T) {
	inner := wtest.CreateTestStore(t, engineRecords())
	c := cache.NewLRU(8, time.Minute)
	e := traverse.NewEngine(&canceledStore{SpatialStore: inner}, &config.Config{}, c, nil)

	if _, err := e.Trace(context.Background(), traverse.TraceRequest{Start: "FOLSM"}); err != nil {
		t.Fatalf("Trace failed: %v", err)
	}
	if c.Len() != 0 {
		t.Error("truncated partial result must not be cached")
	}
}

func TestTraceMultiPassAccumulates(t *testing.T) {
	e := newEngine(t, nil, nil)

	result, err := e.Trace(context.Background(), traverse.TraceRequest{
		Start:       "FOLSM",
		Direction:   network.DirectionDownstream,
		IncludeArcs: true,
		MultiPass:   true,
	})
	if err != nil {
		t.Fatalf("Trace failed: %v", err)
	}

	depths := identifierSet(result)
	// Backbone from pass 1, arc chain and logical element from later passes
	want := map[string]int{"GAUGE1": 1, "AMR002": 1, "AMR004": 2, "AMR006": 3, "LOGICAL": 1}
	for id, depth := range want {
		if got, ok := depths[id]; !ok || got != depth {
			t.Errorf("%s depth = %d (present=%t), want %d", id, got, ok, depth)
		}
	}

	f, _ := featureByID(result, "LOGICAL")
	if f.Properties.HasGeometry {
		t.Error("geometry-less element must keep has_geometry=false in multi-pass output")
	}
}
