package swami

import (
	"context"
	"math"

	"github.com/utakatalp/football-pool/internal/league"
)

// LasVegas picks the betting favorite by the spread, home on a pick'em. It
// makes no against-the-spread pick and declines games without a line.
type LasVegas struct {
	Base
}

func NewLasVegas(base Base, _ Params, _ Deps) (Swami, error) {
	return &LasVegas{Base: base}, nil
}

func (s *LasVegas) Pick(_ context.Context, gc league.GameContext) (*league.Pick, error) {
	if gc.Spread == nil {
		return nil, nil
	}
	winner := gc.HomeTeam.Code
	if *gc.Spread > 0 {
		winner = gc.AwayTeam.Code
	}
	var total float64
	if gc.OverUnder != nil {
		total = *gc.OverUnder
	}
	p := league.NewPick(winner, "", math.Abs(*gc.Spread), total)
	return &p, nil
}
