package store

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/query"
)

// Memory is an in-process game repository, team catalog and pick store. It
// evaluates queries the same way the Postgres store compiles them.
type Memory struct {
	mu     sync.RWMutex
	teams  *league.TeamSet
	games  []league.Game
	byKey  map[league.GameKey]int
	nextID int64
	picks  map[pickKey][]league.SwamiPick
}

type pickKey struct {
	swami  string
	gameID int64
}

// NewMemory returns an empty store over the given team metadata.
func NewMemory(teams *league.TeamSet) *Memory {
	return &Memory{
		teams: teams,
		byKey: make(map[league.GameKey]int),
		picks: make(map[pickKey][]league.SwamiPick),
	}
}

// Teams returns the team metadata.
func (m *Memory) Teams(_ context.Context) (*league.TeamSet, error) {
	return m.teams, nil
}

// SaveGames inserts games, or updates the existing game with the same
// (season, week, home, away) key. IDs are assigned on insert and written back
// into the slice. The batch is checked in full before anything is stored.
func (m *Memory) SaveGames(_ context.Context, games []league.Game) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	staged := make(map[league.GameKey]league.Game, len(games))
	for i := range games {
		g := &games[i]
		for _, code := range []string{g.HomeTeam, g.AwayTeam} {
			if _, ok := m.teams.Lookup(code); !ok {
				return fmt.Errorf("saving game %s: %w: unknown team %q", g.ScoreLine(), league.ErrData, code)
			}
		}
		if g.HomeTeam == g.AwayTeam {
			return fmt.Errorf("saving game: %w: team %q cannot play itself", league.ErrData, g.HomeTeam)
		}

		next := cloneGame(*g)
		prev, ok := staged[g.Key()]
		if !ok {
			if idx, found := m.byKey[g.Key()]; found {
				prev, ok = m.games[idx], true
			}
		}
		if ok {
			merged, err := mergeGame(prev, next)
			if err != nil {
				return fmt.Errorf("saving game %s: %w", g.ScoreLine(), err)
			}
			next = merged
		}
		staged[g.Key()] = next
	}

	for i := range games {
		g := &games[i]
		next := cloneGame(staged[g.Key()])
		if idx, ok := m.byKey[g.Key()]; ok {
			next.ID = m.games[idx].ID
			m.games[idx] = next
		} else {
			m.nextID++
			next.ID = m.nextID
			m.byKey[g.Key()] = len(m.games)
			m.games = append(m.games, next)
		}
		g.ID = next.ID
	}
	return nil
}

// mergeGame folds an incoming record into the stored one. A line missing
// from the incoming record keeps the stored one, and a recorded result is
// kept as is; a different final score for it is rejected.
func mergeGame(prev, next league.Game) (league.Game, error) {
	if next.Spread == nil {
		next.Spread = prev.Spread
	}
	if next.OverUnder == nil {
		next.OverUnder = prev.OverUnder
	}
	if prev.Result != nil {
		if r := next.Result; r != nil && (r.Home.Pts != prev.Result.Home.Pts || r.Away.Pts != prev.Result.Away.Pts) {
			return league.Game{}, fmt.Errorf("%w: result already recorded as %s", league.ErrData, prev.ScoreLine())
		}
		next.Result = prev.Result
	}
	return next, nil
}

// Select returns the games matching q, ordered and limited as requested.
func (m *Memory) Select(_ context.Context, q query.Query) ([]league.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []league.Game
	for i := range m.games {
		ok, err := m.matchesAll(&m.games[i], q)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, cloneGame(m.games[i]))
		}
	}

	if len(q.Order) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return less(&out[i], &out[j], q.Order)
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) matchesAll(g *league.Game, q query.Query) (bool, error) {
	for _, p := range q.Preds {
		ok, err := m.matches(g, p, q)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (m *Memory) matches(g *league.Game, p query.Predicate, q query.Query) (bool, error) {
	switch p := p.(type) {
	case query.TeamIn:
		return g.Involves(p.Team), nil
	case query.Matchup:
		return (g.HomeTeam == p.Team && g.AwayTeam == p.Opponent) ||
			(g.HomeTeam == p.Opponent && g.AwayTeam == p.Team), nil
	case query.OpponentDiv:
		home, away, err := m.joined(g, q)
		if err != nil {
			return false, err
		}
		return (g.HomeTeam == p.Team && away.Div == p.Div) ||
			(g.AwayTeam == p.Team && home.Div == p.Div), nil
	case query.OpponentConf:
		home, away, err := m.joined(g, q)
		if err != nil {
			return false, err
		}
		return (g.HomeTeam == p.Team && away.Conf == p.Conf) ||
			(g.AwayTeam == p.Team && home.Conf == p.Conf), nil
	case query.SeasonRange:
		return g.Season >= p.From && g.Season <= p.To, nil
	case query.KickoffBefore:
		return g.Kickoff.Before(p.Time), nil
	case query.Completed:
		return g.Result != nil, nil
	case query.WeekIn:
		return slices.Contains(p.Weeks, g.Week), nil
	case query.Venue:
		if p.Home {
			return g.HomeTeam == p.Team, nil
		}
		return g.AwayTeam == p.Team, nil
	default:
		return false, fmt.Errorf("%w: unsupported predicate %T", league.ErrNotImplemented, p)
	}
}

func (m *Memory) joined(g *league.Game, q query.Query) (league.Team, league.Team, error) {
	if !q.HasJoin(query.JoinHomeTeam) || !q.HasJoin(query.JoinAwayTeam) {
		return league.Team{}, league.Team{}, fmt.Errorf("%w: opponent metadata predicate without team joins", league.ErrLogic)
	}
	home, _ := m.teams.Lookup(g.HomeTeam)
	away, _ := m.teams.Lookup(g.AwayTeam)
	return home, away, nil
}

func less(a, b *league.Game, order []query.Order) bool {
	for _, o := range order {
		var c int
		switch o.Field {
		case query.FieldSeason:
			c = a.Season - b.Season
		case query.FieldWeek:
			c = a.Week - b.Week
		case query.FieldKickoff:
			c = a.Kickoff.Compare(b.Kickoff)
		}
		if c == 0 {
			continue
		}
		if o.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func cloneGame(g league.Game) league.Game {
	if g.Result != nil {
		r := *g.Result
		g.Result = &r
	}
	return g
}

// LatestPick returns the most recent stored pick for swami and game, or nil.
func (m *Memory) LatestPick(_ context.Context, swami string, gameID int64) (*league.Pick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	recs := m.picks[pickKey{swami: swami, gameID: gameID}]
	if len(recs) == 0 {
		return nil, nil
	}
	latest := recs[0]
	for _, r := range recs[1:] {
		if !r.PickedAt.Before(latest.PickedAt) {
			latest = r
		}
	}
	p := latest.Pick
	return &p, nil
}

// InsertPicks stores all records or none.
func (m *Memory) InsertPicks(_ context.Context, recs []league.SwamiPick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range recs {
		if r.Swami == "" || r.GameID == 0 {
			return fmt.Errorf("inserting picks: %w: record needs swami and game", league.ErrData)
		}
	}
	for _, r := range recs {
		k := pickKey{swami: r.Swami, gameID: r.GameID}
		m.picks[k] = append(m.picks[k], r)
	}
	return nil
}
