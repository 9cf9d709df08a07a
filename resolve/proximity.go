package resolve

import (
	"context"
	"sort"

	"github.com/hydroline/watertrace/config"
	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/store"
)

// proximityStrategy is the last resort: spatial distance within a maximum
// radius, with a tighter preference band for elements sharing a type or
// river. Only consulted when every other tier produced nothing.
type proximityStrategy struct {
	store store.SpatialStore
	cfg   config.ResolverConfig
}

func (s *proximityStrategy) Name() network.Strategy {
	return network.StrategyProximity
}

func (s *proximityStrategy) Propose(ctx context.Context, el *network.Element, direction network.Direction) ([]Candidate, error) {
	lon, lat, ok := el.Location()
	if !ok {
		return nil, nil
	}

	matches, err := s.store.GetWithinRadius(ctx, lon, lat, s.cfg.ProximityRadiusMeters, s.cfg.CandidateCap+1)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	for _, m := range matches {
		if m.Identifier == el.Identifier {
			continue
		}
		mLon, mLat, ok := m.Location()
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{
			Element:  m,
			Strategy: network.StrategyProximity,
			Distance: store.HaversineMeters(lon, lat, mLon, mLat),
		})
	}

	// Preference band: within the tighter radius, same-type or same-river
	// candidates rank ahead of everything else; within a band, distance then
	// identifier.
	band := func(c Candidate) int {
		if c.Distance <= s.cfg.ProximityPreferredMeters && sameTypeOrRiver(el, c.Element) {
			return 0
		}
		return 1
	}
	sort.Slice(candidates, func(i, j int) bool {
		bi, bj := band(candidates[i]), band(candidates[j])
		if bi != bj {
			return bi < bj
		}
		if candidates[i].Distance != candidates[j].Distance {
			return candidates[i].Distance < candidates[j].Distance
		}
		return candidates[i].Element.Identifier < candidates[j].Element.Identifier
	})

	if s.cfg.CandidateCap > 0 && len(candidates) > s.cfg.CandidateCap {
		candidates = candidates[:s.cfg.CandidateCap]
	}
	return candidates, nil
}

func sameTypeOrRiver(a, b *network.Element) bool {
	if a.ElementType != "" && a.ElementType == b.ElementType {
		return true
	}
	if a.RiverName != "" && a.RiverName == b.RiverName {
		return true
	}
	return false
}
