// Package scoring grades picks against game outcomes.
package scoring

import (
	"fmt"

	"github.com/utakatalp/football-pool/internal/league"
)

// Score is a win/loss/tie counter.
type Score struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

var (
	win  = Score{Wins: 1}
	loss = Score{Losses: 1}
	tie  = Score{Ties: 1}
)

// Add returns the sum of s and o.
func (s Score) Add(o Score) Score {
	return Score{Wins: s.Wins + o.Wins, Losses: s.Losses + o.Losses, Ties: s.Ties + o.Ties}
}

// Total is the number of picks scored.
func (s Score) Total() int {
	return s.Wins + s.Losses + s.Ties
}

func (s Score) IsZero() bool {
	return s == Score{}
}

// WinPct gives ties half credit. An empty score is 0.
func (s Score) WinPct() float64 {
	total := s.Total()
	if total == 0 {
		return 0
	}
	return (float64(s.Wins) + float64(s.Ties)/2) / float64(total)
}

func (s Score) String() string {
	return fmt.Sprintf("%d-%d-%d", s.Wins, s.Losses, s.Ties)
}

// ComputeScores grades pick against game, straight up and against the
// spread. Each returned score is either zero or has exactly one count set.
// Games without a result score zero on both.
func ComputeScores(g *league.Game, pick league.Pick) (su, ats Score) {
	if g.Result == nil {
		return Score{}, Score{}
	}

	switch {
	case g.Result.Tie:
		su = tie
	case pick.SUWinner == g.Result.Winner && pick.PtsMargin > 0:
		su = win
	default:
		// a zero margin never earns credit, even with the right winner
		su = loss
	}

	if g.Spread == nil || pick.ATSWinner == "" {
		return su, Score{}
	}
	switch actual := g.ATSWinner(); {
	case actual == "":
		ats = tie
	case actual == pick.ATSWinner:
		ats = win
	default:
		ats = loss
	}
	return su, ats
}
