package league

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spread(v float64) *float64 { return &v }

func TestATSWinnerPushAndCover(t *testing.T) {
	tests := []struct {
		name      string
		spread    *float64
		home      int
		away      int
		atsWinner string
		atsLoser  string
	}{
		{name: "tie game, away covers", spread: spread(-3), home: 20, away: 20, atsWinner: "BBB", atsLoser: "AAA"},
		{name: "home covers", spread: spread(-3), home: 24, away: 20, atsWinner: "AAA", atsLoser: "BBB"},
		{name: "push", spread: spread(-3), home: 23, away: 20},
		{name: "pick'em", spread: spread(0), home: 17, away: 20, atsWinner: "BBB", atsLoser: "AAA"},
		{name: "no spread", spread: nil, home: 30, away: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &Game{Season: 2023, Week: 1, HomeTeam: "AAA", AwayTeam: "BBB", Spread: tt.spread}
			require.NoError(t, g.SetResult(SideStats{Pts: tt.home}, SideStats{Pts: tt.away}))
			assert.Equal(t, tt.atsWinner, g.ATSWinner())
			assert.Equal(t, tt.atsLoser, g.ATSLoser())
		})
	}
}

func TestHomeVsSpreadMirrorsAway(t *testing.T) {
	g := &Game{HomeTeam: "AAA", AwayTeam: "BBB", Spread: spread(-3)}
	_, ok := g.HomeVsSpread()
	assert.False(t, ok, "unplayed game has no spread margin")

	require.NoError(t, g.SetResult(SideStats{Pts: 20}, SideStats{Pts: 20}))
	assert.True(t, g.Result.Tie)
	assert.Equal(t, "AAA", g.Result.Winner)

	home, ok := g.HomeVsSpread()
	require.True(t, ok)
	away, _ := g.AwayVsSpread()
	assert.Equal(t, -3.0, home)
	assert.Equal(t, 3.0, away)
}

func TestSetResultOnlyOnce(t *testing.T) {
	g := &Game{HomeTeam: "AAA", AwayTeam: "BBB"}
	require.NoError(t, g.SetResult(SideStats{Pts: 10}, SideStats{Pts: 13}))
	assert.Equal(t, "BBB", g.Result.Winner)
	assert.ErrorIs(t, g.SetResult(SideStats{}, SideStats{}), ErrData)
}

func TestNewPickClampsMargin(t *testing.T) {
	assert.Equal(t, 1, NewPick("AAA", "", 0, 40).PtsMargin)
	assert.Equal(t, 1, NewPick("AAA", "", -4.2, 40).PtsMargin)
	assert.Equal(t, 7, NewPick("AAA", "", 6.5, 40.4).PtsMargin)
	assert.Equal(t, 40, NewPick("AAA", "", 6.5, 40.4).TotalPts)
}

func TestParseSpread(t *testing.T) {
	v, err := ParseSpread("PK")
	require.NoError(t, err)
	assert.Equal(t, 0.0, *v)

	v, err = ParseSpread("-3.5")
	require.NoError(t, err)
	assert.Equal(t, -3.5, *v)

	v, err = ParseSpread("")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = ParseSpread("seven")
	assert.ErrorIs(t, err, ErrData)
}

func TestParseWeek(t *testing.T) {
	w, err := ParseWeek("SuperBowl")
	require.NoError(t, err)
	assert.Equal(t, WeekSuperBowl, w)
	assert.True(t, IsPlayoff(w))

	w, err = ParseWeek("17")
	require.NoError(t, err)
	assert.False(t, IsPlayoff(w))

	_, err = ParseWeek("Week 3")
	assert.ErrorIs(t, err, ErrData)
}

func TestParseWeeks(t *testing.T) {
	weeks, err := ParseWeeks("1, 2,WildCard")
	require.NoError(t, err)
	assert.Equal(t, []Week{1, 2, WeekWildCard}, weeks)

	weeks, err = ParseWeeks("")
	require.NoError(t, err)
	assert.Nil(t, weeks)

	_, err = ParseWeeks("1,,2")
	assert.ErrorIs(t, err, ErrData)
}

func TestWeekDayOf(t *testing.T) {
	sunday := time.Date(2023, 9, 10, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, Sun, WeekDayOf(sunday))
	assert.Equal(t, Mon, WeekDayOf(sunday.AddDate(0, 0, 1)))

	d, err := ParseWeekDay("Thu")
	require.NoError(t, err)
	assert.Equal(t, Thu, d)
	assert.Equal(t, "Thu", d.String())
}

func TestContextExcludesOutcome(t *testing.T) {
	teams, err := NewTeamSet([]Team{
		{Code: "AAA", Conf: "AFC", Div: "AFC East"},
		{Code: "BBB", Conf: "NFC", Div: "NFC West"},
	})
	require.NoError(t, err)

	g := &Game{ID: 7, Season: 2023, Week: 2, HomeTeam: "AAA", AwayTeam: "BBB", Spread: spread(-2.5)}
	require.NoError(t, g.SetResult(SideStats{Pts: 3}, SideStats{Pts: 0}))

	gc, err := g.Context(teams)
	require.NoError(t, err)
	assert.Equal(t, int64(7), gc.GameID)
	assert.Equal(t, "AFC East", gc.HomeTeam.Div)
	assert.Equal(t, "AAA", gc.Opponent("BBB").Code)

	g.AwayTeam = "ZZZ"
	_, err = g.Context(teams)
	assert.ErrorIs(t, err, ErrData)
}

func TestNewTeamSetRejectsDuplicates(t *testing.T) {
	_, err := NewTeamSet([]Team{{Code: "AAA"}, {Code: "AAA"}})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestStandings(t *testing.T) {
	games := []Game{
		{HomeTeam: "AAA", AwayTeam: "BBB"},
		{HomeTeam: "CCC", AwayTeam: "AAA"},
		{HomeTeam: "BBB", AwayTeam: "CCC"},
		{HomeTeam: "AAA", AwayTeam: "CCC"}, // not played
	}
	require.NoError(t, games[0].SetResult(SideStats{Pts: 21}, SideStats{Pts: 14}))
	require.NoError(t, games[1].SetResult(SideStats{Pts: 10}, SideStats{Pts: 10}))
	require.NoError(t, games[2].SetResult(SideStats{Pts: 3}, SideStats{Pts: 30}))

	table := Standings(games)
	require.Len(t, table, 3)
	assert.Equal(t, "CCC", table[0].Team) // 1-0-1, +27
	assert.Equal(t, "AAA", table[1].Team) // 1-0-1, +7
	assert.Equal(t, "BBB", table[2].Team)
	assert.Equal(t, 2, table[1].Played)
	assert.Equal(t, 1, table[1].Ties)
	assert.InDelta(t, 0.75, table[1].WinPct, 1e-9)
}
