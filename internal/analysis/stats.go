package analysis

import "github.com/utakatalp/football-pool/internal/league"

// NoData is returned by the derived statistics when there are no games, to
// tell "no data" apart from a real zero.
const NoData = -1.0

// Stats is the outcome breakdown and running totals for one team over the
// games selected by its filter chain. "For" is the analyzed team, "against"
// its opponents.
type Stats struct {
	Team    string
	Games   []league.Game
	Wins    []league.Game
	Losses  []league.Game
	Ties    []league.Game
	ATSWins []league.Game // strict covers only

	PtsFor     int
	PtsAgainst int
	YdsFor     int
	YdsAgainst int
	TOsFor     int
	TOsAgainst int
}

func computeStats(team string, games []league.Game) *Stats {
	s := &Stats{Team: team, Games: games}
	for _, g := range games {
		if g.Result == nil {
			continue
		}
		switch {
		case g.Result.Tie:
			s.Ties = append(s.Ties, g)
		case g.Result.Winner == team:
			s.Wins = append(s.Wins, g)
		default:
			s.Losses = append(s.Losses, g)
		}

		mine, theirs := g.Result.Home, g.Result.Away
		vsSpread, hasSpread := g.HomeVsSpread()
		if g.AwayTeam == team {
			mine, theirs = theirs, mine
			vsSpread = -vsSpread
		}
		if hasSpread && vsSpread > 0 {
			s.ATSWins = append(s.ATSWins, g)
		}

		s.PtsFor += mine.Pts
		s.PtsAgainst += theirs.Pts
		s.YdsFor += mine.Yds
		s.YdsAgainst += theirs.Yds
		s.TOsFor += mine.TOs
		s.TOsAgainst += theirs.TOs
	}
	return s
}

func (s *Stats) NumGames() int   { return len(s.Games) }
func (s *Stats) NumWins() int    { return len(s.Wins) }
func (s *Stats) NumLosses() int  { return len(s.Losses) }
func (s *Stats) NumTies() int    { return len(s.Ties) }
func (s *Stats) NumATSWins() int { return len(s.ATSWins) }

func (s *Stats) perGame(v int) float64 {
	if len(s.Games) == 0 {
		return NoData
	}
	return float64(v) / float64(len(s.Games))
}

func (s *Stats) pct(n int) float64 {
	if len(s.Games) == 0 {
		return NoData
	}
	return float64(n) / float64(len(s.Games)) * 100
}

func (s *Stats) WinPct() float64    { return s.pct(len(s.Wins)) }
func (s *Stats) LossPct() float64   { return s.pct(len(s.Losses)) }
func (s *Stats) ATSWinPct() float64 { return s.pct(len(s.ATSWins)) }

// PtsMargin is the average scoring margin per game.
func (s *Stats) PtsMargin() float64 { return s.perGame(s.PtsFor - s.PtsAgainst) }

// TotalPts is the average combined score per game.
func (s *Stats) TotalPts() float64 { return s.perGame(s.PtsFor + s.PtsAgainst) }

func (s *Stats) YdsMargin() float64 { return s.perGame(s.YdsFor - s.YdsAgainst) }
func (s *Stats) TotalYds() float64  { return s.perGame(s.YdsFor + s.YdsAgainst) }

// TOsMargin is the takeaway differential, so higher is better like the other
// margins.
func (s *Stats) TOsMargin() float64 { return s.perGame(s.TOsAgainst - s.TOsFor) }
func (s *Stats) TotalTOs() float64  { return s.perGame(s.TOsFor + s.TOsAgainst) }
