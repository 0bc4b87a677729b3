package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/query"
	"github.com/utakatalp/football-pool/internal/store"
)

var testTeams = []league.Team{
	{Code: "AAA", Conf: "NFC", Div: "NFC East"},
	{Code: "BBB", Conf: "NFC", Div: "NFC East"},
	{Code: "CCC", Conf: "AFC", Div: "AFC West"},
	{Code: "DDD", Conf: "AFC", Div: "AFC West"},
}

func line(v float64) *float64 { return &v }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 17, 0, 0, 0, time.UTC)
}

type fixture struct {
	teams *league.TeamSet
	mem   *store.Memory
}

// newFixture loads the AAA history below; the game under analysis is
// AAA vs BBB on 2022-09-25.
//
//	2021 wk1 AAA 21 - 14 CCC (spread -3)
//	2021 wk2 CCC 24 - 21 AAA
//	2022 wk1 BBB 10 - 17 AAA (spread 3)
//	2022 wk2 AAA 20 - 20 DDD
//	2022 wk3 AAA 24 - 21 BBB (the analyzed game, already played)
//	2022 wk4 AAA 35 - 0 CCC (after the analyzed game)
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ts, err := league.NewTeamSet(testTeams)
	require.NoError(t, err)
	mem := store.NewMemory(ts)

	played := func(season, week int, kick time.Time, home, away string, hs, as league.SideStats, spread *float64) league.Game {
		g := league.Game{Season: season, Week: week, Kickoff: kick, HomeTeam: home, AwayTeam: away, Spread: spread}
		require.NoError(t, g.SetResult(hs, as))
		return g
	}
	games := []league.Game{
		played(2021, 1, day(2021, time.September, 12), "AAA", "CCC",
			league.SideStats{Pts: 21, Yds: 350, TOs: 1}, league.SideStats{Pts: 14, Yds: 300, TOs: 2}, line(-3)),
		played(2021, 2, day(2021, time.September, 19), "CCC", "AAA",
			league.SideStats{Pts: 24}, league.SideStats{Pts: 21}, nil),
		played(2022, 1, day(2022, time.September, 11), "BBB", "AAA",
			league.SideStats{Pts: 10, Yds: 280, TOs: 2}, league.SideStats{Pts: 17, Yds: 320}, line(3)),
		played(2022, 2, day(2022, time.September, 18), "AAA", "DDD",
			league.SideStats{Pts: 20, Yds: 300, TOs: 1}, league.SideStats{Pts: 20, Yds: 300, TOs: 1}, nil),
		played(2022, 3, day(2022, time.September, 25), "AAA", "BBB",
			league.SideStats{Pts: 24, Yds: 330}, league.SideStats{Pts: 21, Yds: 310}, line(-2.5)),
		played(2022, 4, day(2022, time.October, 2), "AAA", "CCC",
			league.SideStats{Pts: 35}, league.SideStats{Pts: 0}, line(-7)),
	}
	require.NoError(t, mem.SaveGames(context.Background(), games))
	return &fixture{teams: ts, mem: mem}
}

func (f *fixture) context(t *testing.T, season, week int, kick time.Time) league.GameContext {
	t.Helper()
	g := league.Game{ID: 99, Season: season, Week: week, Kickoff: kick, HomeTeam: "AAA", AwayTeam: "BBB"}
	gc, err := g.Context(f.teams)
	require.NoError(t, err)
	return gc
}

func (f *fixture) target(t *testing.T) league.GameContext {
	return f.context(t, 2022, 3, day(2022, time.September, 25))
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Select(ctx context.Context, q query.Query) ([]league.Game, error) {
	args := m.Called(ctx, q)
	games, _ := args.Get(0).([]league.Game)
	return games, args.Error(1)
}

func mustQuery(t *testing.T, a *Analysis, team string) query.Query {
	t.Helper()
	q, err := a.Query(team)
	require.NoError(t, err)
	return q
}

func TestStatsOverPriorCompletedGames(t *testing.T) {
	f := newFixture(t)
	gc := f.target(t)
	a := New(gc, f.mem, nil)

	s, err := a.Stats(context.Background(), "AAA")
	require.NoError(t, err)

	require.Equal(t, 4, s.NumGames())
	for i, g := range s.Games {
		assert.True(t, g.Kickoff.Before(gc.Kickoff), "game %s is not before the analyzed game", g.ScoreLine())
		if i > 0 {
			assert.True(t, g.Kickoff.Before(s.Games[i-1].Kickoff), "games are most recent first")
		}
	}
	assert.Equal(t, 2, s.NumWins())
	assert.Equal(t, 1, s.NumLosses())
	assert.Equal(t, 1, s.NumTies())
	assert.Equal(t, 2, s.NumATSWins())
	assert.InDelta(t, 50.0, s.WinPct(), 1e-9)
	assert.InDelta(t, 25.0, s.LossPct(), 1e-9)
	assert.InDelta(t, 50.0, s.ATSWinPct(), 1e-9)
	assert.InDelta(t, 11.0/4, s.PtsMargin(), 1e-9)
	assert.InDelta(t, 147.0/4, s.TotalPts(), 1e-9)
	assert.InDelta(t, 90.0/4, s.YdsMargin(), 1e-9)
	assert.InDelta(t, 0.75, s.TOsMargin(), 1e-9)
	assert.True(t, a.Frozen())
}

func TestGameAtSameKickoffIsExcluded(t *testing.T) {
	f := newFixture(t)
	gc := f.target(t)

	same, err := f.mem.Select(context.Background(), query.Query{}.Where(
		query.Matchup{Team: "AAA", Opponent: "BBB"}, query.SeasonRange{From: 2022, To: 2022}, query.WeekIn{Weeks: []int{3}}))
	require.NoError(t, err)
	require.Len(t, same, 1)
	require.True(t, same[0].Kickoff.Equal(gc.Kickoff))
	require.NotNil(t, same[0].Result)

	a := New(gc, f.mem, nil)
	for _, team := range []string{"AAA", "BBB"} {
		s, err := a.Stats(context.Background(), team)
		require.NoError(t, err)
		for _, g := range s.Games {
			assert.NotEqual(t, same[0].ID, g.ID, "%s sees the analyzed game", team)
			assert.True(t, g.Kickoff.Before(gc.Kickoff))
		}
	}
}

func TestNoDataWhenNothingPrecedesTheGame(t *testing.T) {
	f := newFixture(t)
	a := New(f.context(t, 2021, 1, day(2021, time.September, 5)), f.mem, nil)
	gf, err := NewGamesFilter(1)
	require.NoError(t, err)
	require.NoError(t, a.AddFilter(gf))

	s, err := a.Stats(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Empty(t, s.Games)
	for name, v := range map[string]float64{
		"win_pct":     s.WinPct(),
		"loss_pct":    s.LossPct(),
		"ats_win_pct": s.ATSWinPct(),
		"pts":         s.PtsMargin(),
		"total_pts":   s.TotalPts(),
		"yds":         s.YdsMargin(),
		"tos":         s.TOsMargin(),
	} {
		assert.Equal(t, NoData, v, name)
	}
}

func TestStatsAreCachedPerTeam(t *testing.T) {
	f := newFixture(t)
	repo := new(mockRepo)
	repo.On("Select", mock.Anything, mock.Anything).Return([]league.Game{}, nil)

	a := New(f.target(t), repo, nil)
	s1, err := a.Stats(context.Background(), "AAA")
	require.NoError(t, err)
	s2, err := a.Stats(context.Background(), "AAA")
	require.NoError(t, err)
	assert.Same(t, s1, s2)
	repo.AssertNumberOfCalls(t, "Select", 1)

	_, err = a.Stats(context.Background(), "BBB")
	require.NoError(t, err)
	repo.AssertNumberOfCalls(t, "Select", 2)
}

func TestRepositoryErrorIsWrapped(t *testing.T) {
	f := newFixture(t)
	repo := new(mockRepo)
	repo.On("Select", mock.Anything, mock.Anything).Return(nil, league.ErrData)

	a := New(f.target(t), repo, nil)
	_, err := a.Stats(context.Background(), "AAA")
	assert.ErrorIs(t, err, league.ErrData)
}

func TestFrozenAnalysisRejectsFilters(t *testing.T) {
	f := newFixture(t)
	a := New(f.target(t), f.mem, nil)
	_, err := a.Stats(context.Background(), "BBB")
	require.NoError(t, err)

	sf, err := NewSeasonsFilter(1)
	require.NoError(t, err)
	assert.ErrorIs(t, a.AddFilter(sf), league.ErrLogic)
	assert.ErrorIs(t, a.AddTeamFilters(map[string]Filter{"AAA": OpponentFilter{Opponent: "BBB"}}), league.ErrLogic)
}

func TestUnknownTeam(t *testing.T) {
	f := newFixture(t)
	a := New(f.target(t), f.mem, nil)

	assert.ErrorIs(t, a.AddTeamFilters(map[string]Filter{"CCC": OpponentFilter{Opponent: "AAA"}}), league.ErrLogic)
	_, err := a.Stats(context.Background(), "ZZZ")
	assert.ErrorIs(t, err, league.ErrLogic)
	_, err = a.Query("ZZZ")
	assert.ErrorIs(t, err, league.ErrLogic)
	assert.NotContains(t, a.filters, "ZZZ")
	assert.False(t, a.Frozen())
}

func TestSeasonsFilterWindow(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		seasons int
		want    int
	}{
		{seasons: 1, want: 2},
		{seasons: 2, want: 4},
		{seasons: 5, want: 4},
	}
	for _, tt := range tests {
		a := New(f.target(t), f.mem, nil)
		sf, err := NewSeasonsFilter(tt.seasons)
		require.NoError(t, err)
		require.NoError(t, a.AddFilter(sf))

		assert.Contains(t, mustQuery(t, a, "AAA").Preds, query.Predicate(query.SeasonRange{From: 2022 - tt.seasons + 1, To: 2022}))
		s, err := a.Stats(context.Background(), "AAA")
		require.NoError(t, err)
		assert.Equal(t, tt.want, s.NumGames(), "seasons=%d", tt.seasons)
	}
}

func TestGamesFilterKeepsMostRecent(t *testing.T) {
	f := newFixture(t)
	a := New(f.target(t), f.mem, nil)
	gf, err := NewGamesFilter(2)
	require.NoError(t, err)
	require.NoError(t, a.AddFilter(gf))

	s, err := a.Stats(context.Background(), "AAA")
	require.NoError(t, err)
	require.Len(t, s.Games, 2)
	assert.Equal(t, "DDD", s.Games[0].AwayTeam)
	assert.Equal(t, "BBB", s.Games[1].HomeTeam)
}

func TestQueryFoldsFiltersByPhase(t *testing.T) {
	f := newFixture(t)
	gf, _ := NewGamesFilter(3)
	sf, _ := NewSeasonsFilter(2)
	df, _ := NewDivisionFilter("AFC West")

	a1 := New(f.target(t), f.mem, nil)
	require.NoError(t, a1.AddFilter(gf, sf))
	require.NoError(t, a1.AddTeamFilters(map[string]Filter{"AAA": df}))

	a2 := New(f.target(t), f.mem, nil)
	require.NoError(t, a2.AddTeamFilters(map[string]Filter{"AAA": df}))
	require.NoError(t, a2.AddFilter(sf, gf))

	q1, q2 := mustQuery(t, a1, "AAA"), mustQuery(t, a2, "AAA")
	assert.Equal(t, q1.String(), q2.String())
	assert.Equal(t, 3, q1.Limit)
	assert.Equal(t, []query.Order{{Field: query.FieldKickoff, Desc: true}}, q1.Order)
	assert.True(t, q1.HasJoin(query.JoinHomeTeam))
	assert.True(t, q1.HasJoin(query.JoinAwayTeam))
	// the join phase runs first, so its predicate leads
	assert.Equal(t, query.Predicate(query.OpponentDiv{Team: "AAA", Div: "AFC West"}), q1.Preds[0])
}

func TestTeamScopeIsInjectedOnlyWhenMissing(t *testing.T) {
	f := newFixture(t)
	a := New(f.target(t), f.mem, nil)
	sf, _ := NewSeasonsFilter(1)
	require.NoError(t, a.AddFilter(sf))
	require.NoError(t, a.AddTeamFilters(map[string]Filter{"BBB": OpponentFilter{Opponent: "AAA"}}))

	assert.Contains(t, mustQuery(t, a, "AAA").Preds, query.Predicate(query.TeamIn{Team: "AAA"}))

	bbb := mustQuery(t, a, "BBB").Preds
	assert.Contains(t, bbb, query.Predicate(query.Matchup{Team: "BBB", Opponent: "AAA"}))
	assert.NotContains(t, bbb, query.Predicate(query.TeamIn{Team: "BBB"}))
}

func TestOpponentFiltersSeeBothSides(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"division", DivisionFilter{Div: "AFC West"}, 3},
		{"own division", DivisionFilter{Div: "NFC East"}, 1},
		{"conference", ConferenceFilter{Conf: "AFC"}, 3},
		{"opponent", OpponentFilter{Opponent: "CCC"}, 2},
		{"home", VenueFilter{Home: true}, 2},
		{"away", VenueFilter{Home: false}, 2},
		{"weeks", WeeksFilter{Weeks: []league.Week{1}}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := New(f.target(t), f.mem, nil)
			require.NoError(t, a.AddTeamFilters(map[string]Filter{"AAA": tt.filter}))
			s, err := a.Stats(context.Background(), "AAA")
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.NumGames())
		})
	}
}

func TestFilterConstructorsValidate(t *testing.T) {
	_, err := NewGamesFilter(0)
	assert.ErrorIs(t, err, league.ErrConfig)
	_, err = NewSeasonsFilter(-1)
	assert.ErrorIs(t, err, league.ErrConfig)
	_, err = NewWeeksFilter()
	assert.ErrorIs(t, err, league.ErrConfig)
	_, err = NewOpponentFilter("")
	assert.ErrorIs(t, err, league.ErrConfig)
	_, err = NewDivisionFilter("")
	assert.ErrorIs(t, err, league.ErrConfig)
	_, err = NewConferenceFilter("")
	assert.ErrorIs(t, err, league.ErrConfig)

	assert.Equal(t, "order_by", PhaseOrderBy.String())
	assert.Equal(t, "Phase(9)", Phase(9).String())
}
