package swami

import (
	"context"
	"fmt"

	"github.com/utakatalp/football-pool/internal/league"
)

// ExtData replays picks that were loaded from an outside source, such as a
// published forecast. The "source" parameter names the pick-store swami to
// read, and defaults to the swami's own name.
type ExtData struct {
	Base
	source string
	picks  PickSource
}

func NewExtData(base Base, params Params, deps Deps) (Swami, error) {
	if deps.Picks == nil {
		return nil, fmt.Errorf("%w: pick store required", league.ErrConfig)
	}
	source, err := params.String("source")
	if err != nil {
		return nil, err
	}
	if source == "" {
		source = base.Name()
	}
	return &ExtData{Base: base, source: source, picks: deps.Picks}, nil
}

func (s *ExtData) Pick(ctx context.Context, gc league.GameContext) (*league.Pick, error) {
	p, err := s.picks.LatestPick(ctx, s.source, gc.GameID)
	if err != nil {
		return nil, fmt.Errorf("loading %s pick for game %d: %w", s.source, gc.GameID, err)
	}
	return p, nil
}
