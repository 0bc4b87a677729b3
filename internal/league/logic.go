// internal/league/logic.go
package league

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

func (g *Game) ScoreLine() string {
	if g.Result == nil {
		return fmt.Sprintf("%s at %s (week %d, %d)", g.AwayTeam, g.HomeTeam, g.Week, g.Season)
	}
	return fmt.Sprintf("%s %d - %d %s",
		g.HomeTeam, g.Result.Home.Pts,
		g.Result.Away.Pts, g.AwayTeam,
	)
}

// Key returns the natural key of the game.
func (g *Game) Key() GameKey {
	return GameKey{Season: g.Season, Week: g.Week, HomeTeam: g.HomeTeam, AwayTeam: g.AwayTeam}
}

// Played reports whether the outcome fields are populated.
func (g *Game) Played() bool {
	return g.Result != nil
}

// Involves reports whether team played on either side.
func (g *Game) Involves(team string) bool {
	return g.HomeTeam == team || g.AwayTeam == team
}

// Opponent returns the other side of the game for team.
func (g *Game) Opponent(team string) string {
	if g.HomeTeam == team {
		return g.AwayTeam
	}
	return g.HomeTeam
}

// HomeVsSpread is the home team's score margin adjusted by the spread. A
// positive value means the home team covered. ok is false when the game has
// no spread or has not been played.
func (g *Game) HomeVsSpread() (float64, bool) {
	if g.Spread == nil || g.Result == nil {
		return 0, false
	}
	return float64(g.Result.Home.Pts) + *g.Spread - float64(g.Result.Away.Pts), true
}

// AwayVsSpread mirrors HomeVsSpread.
func (g *Game) AwayVsSpread() (float64, bool) {
	v, ok := g.HomeVsSpread()
	if !ok {
		return 0, false
	}
	return -v, true
}

// ATSWinner returns the team that beat the spread, or "" on a push, without
// a spread, or before the game is played.
func (g *Game) ATSWinner() string {
	v, ok := g.HomeVsSpread()
	switch {
	case !ok || v == 0:
		return ""
	case v > 0:
		return g.HomeTeam
	default:
		return g.AwayTeam
	}
}

// ATSLoser is the counterpart of ATSWinner.
func (g *Game) ATSLoser() string {
	w := g.ATSWinner()
	if w == "" {
		return ""
	}
	return g.Opponent(w)
}

// VsOverUnder returns total points minus the over/under line.
func (g *Game) VsOverUnder() (float64, bool) {
	if g.OverUnder == nil || g.Result == nil {
		return 0, false
	}
	return float64(g.Result.Home.Pts+g.Result.Away.Pts) - *g.OverUnder, true
}

// Context projects the game onto its pre-game fields, resolving teams
// against the given metadata.
func (g *Game) Context(teams *TeamSet) (GameContext, error) {
	home, ok := teams.Lookup(g.HomeTeam)
	if !ok {
		return GameContext{}, fmt.Errorf("%w: unknown home team %q", ErrData, g.HomeTeam)
	}
	away, ok := teams.Lookup(g.AwayTeam)
	if !ok {
		return GameContext{}, fmt.Errorf("%w: unknown away team %q", ErrData, g.AwayTeam)
	}
	return GameContext{
		GameID:    g.ID,
		Season:    g.Season,
		Week:      g.Week,
		Day:       g.Day,
		Kickoff:   g.Kickoff,
		HomeTeam:  home,
		AwayTeam:  away,
		Neutral:   g.Neutral,
		Spread:    g.Spread,
		OverUnder: g.OverUnder,
	}, nil
}

// SetResult records the outcome from the final score and box numbers. It
// fails if the game already has a result.
func (g *Game) SetResult(home, away SideStats) error {
	if g.Result != nil {
		return fmt.Errorf("%w: result already recorded for %s", ErrData, g.ScoreLine())
	}
	r := &Result{Home: home, Away: away}
	switch {
	case home.Pts > away.Pts:
		r.Winner, r.Loser = g.HomeTeam, g.AwayTeam
	case away.Pts > home.Pts:
		r.Winner, r.Loser = g.AwayTeam, g.HomeTeam
	default:
		r.Winner, r.Loser, r.Tie = g.HomeTeam, g.AwayTeam, true
	}
	g.Result = r
	return nil
}

// Has reports whether team is one of the two sides of the context.
func (gc GameContext) Has(team string) bool {
	return gc.HomeTeam.Code == team || gc.AwayTeam.Code == team
}

// Opponent returns the other side of the context for team.
func (gc GameContext) Opponent(team string) Team {
	if gc.HomeTeam.Code == team {
		return gc.AwayTeam
	}
	return gc.HomeTeam
}

// NewPick rounds the predicted margin and total; a margin that rounds below 1
// is clamped to 1.
func NewPick(suWinner, atsWinner string, margin, total float64) Pick {
	m := int(math.Round(margin))
	if m < 1 {
		m = 1
	}
	return Pick{
		SUWinner:  suWinner,
		ATSWinner: atsWinner,
		PtsMargin: m,
		TotalPts:  int(math.Round(total)),
	}
}

const (
	pickEmShort = "PK"
	pickEmLong  = "pick"
)

// ParseSpread converts an external spread string. Pick'em is 0.0 and an
// empty string means no spread.
func ParseSpread(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, nil
	case strings.EqualFold(s, pickEmShort), strings.EqualFold(s, pickEmLong):
		v := 0.0
		return &v, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad value for spread %q", ErrData, s)
	}
	return &v, nil
}

// Standing is one row of a season table.
type Standing struct {
	Team       string  `json:"team"`
	Played     int     `json:"played"`
	Wins       int     `json:"wins"`
	Losses     int     `json:"losses"`
	Ties       int     `json:"ties"`
	PtsFor     int     `json:"pts_for"`
	PtsAgainst int     `json:"pts_against"`
	PtsDiff    int     `json:"pts_diff"`
	WinPct     float64 `json:"win_pct"`
}

// Standings tabulates completed games into a table ordered by win
// percentage, point differential, points for, then team code.
func Standings(games []Game) []*Standing {
	entriesMap := make(map[string]*Standing)
	entry := func(team string) *Standing {
		e, ok := entriesMap[team]
		if !ok {
			e = &Standing{Team: team}
			entriesMap[team] = e
		}
		return e
	}
	for i := range games {
		g := &games[i]
		if g.Result == nil {
			continue
		}
		home, away := entry(g.HomeTeam), entry(g.AwayTeam)
		home.Played++
		away.Played++
		home.PtsFor += g.Result.Home.Pts
		home.PtsAgainst += g.Result.Away.Pts
		away.PtsFor += g.Result.Away.Pts
		away.PtsAgainst += g.Result.Home.Pts

		switch {
		case g.Result.Tie:
			home.Ties++
			away.Ties++
		case g.Result.Winner == g.HomeTeam:
			home.Wins++
			away.Losses++
		default:
			away.Wins++
			home.Losses++
		}
	}

	entries := make([]*Standing, 0, len(entriesMap))
	for _, e := range entriesMap {
		e.PtsDiff = e.PtsFor - e.PtsAgainst
		if e.Played > 0 {
			e.WinPct = (float64(e.Wins) + float64(e.Ties)/2) / float64(e.Played)
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.WinPct != b.WinPct {
			return a.WinPct > b.WinPct
		}
		if a.PtsDiff != b.PtsDiff {
			return a.PtsDiff > b.PtsDiff
		}
		if a.PtsFor != b.PtsFor {
			return a.PtsFor > b.PtsFor
		}
		return a.Team < b.Team
	})
	return entries
}
