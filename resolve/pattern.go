package resolve

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/hydroline/watertrace/errors"
	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/store"
)

// patternStrategy infers connectivity from the identifier naming convention:
// arc identifiers embed the node they serve as an underscore-delimited token
// (a delivery arc D_X1_a connects to node X1). Tried only when explicit
// linkage yields nothing usable for the element.
type patternStrategy struct {
	store  store.SpatialStore
	logger *zap.SugaredLogger
}

func (s *patternStrategy) Name() network.Strategy {
	return network.StrategyPattern
}

func (s *patternStrategy) Propose(ctx context.Context, el *network.Element, direction network.Direction) ([]Candidate, error) {
	tokens := embeddedTokens(el.Identifier)
	if len(tokens) == 0 {
		return nil, nil
	}

	var candidates []Candidate
	for _, token := range tokens {
		target, err := s.store.GetByIdentifier(ctx, token)
		if errors.IsNotFoundError(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{
			Element:  target,
			Strategy: network.StrategyPattern,
		})
	}

	if len(candidates) > 1 {
		s.logger.Debugw("Pattern match ambiguous, tie-break by identifier",
			"element", el.Identifier,
			"matches", len(candidates),
		)
	}
	return candidates, nil
}

// embeddedTokens extracts identifier fragments that may name another
// element: the interior underscore-delimited tokens of a composite
// identifier. Single-token identifiers embed nothing.
func embeddedTokens(identifier string) []string {
	parts := strings.Split(identifier, "_")
	if len(parts) < 2 {
		return nil
	}

	seen := make(map[string]struct{})
	var tokens []string
	// Skip the leading convention prefix (D_, C_, ...) when present
	for i, part := range parts {
		if i == 0 && len(part) <= 2 {
			continue
		}
		if len(part) < 2 {
			continue
		}
		if part == identifier {
			continue
		}
		if _, dup := seen[part]; dup {
			continue
		}
		seen[part] = struct{}{}
		tokens = append(tokens, part)
	}
	return tokens
}
