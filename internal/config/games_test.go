package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utakatalp/football-pool/internal/league"
)

const gamesYAML = `
games:
  - season: 2023
    week: 1
    kickoff: "2023-09-10T17:00:00Z"
    home: NE
    away: PHI
    pt_spread: 3.5
    over_under: 45
    home_pts: 20
    away_pts: 25
    home_yds: 370
    away_yds: 251
    home_tos: 2
    away_tos: 1
  - season: 2023
    week: 2
    kickoff: "2023-09-17T20:20:00Z"
    home: NE
    away: MIA
    pt_spread: PK
  - season: 2023
    week: WildCard
    kickoff: "2024-01-14T18:00:00Z"
    home: BUF
    away: PIT
`

func TestLoadGames(t *testing.T) {
	p := writeFile(t, t.TempDir(), "games.yml", gamesYAML)
	games, err := LoadGames(p)
	require.NoError(t, err)
	require.Len(t, games, 3)

	g := games[0]
	assert.Equal(t, 2023, g.Season)
	assert.Equal(t, 1, g.Week)
	assert.Equal(t, league.Sun, g.Day)
	assert.True(t, g.Kickoff.Equal(time.Date(2023, 9, 10, 17, 0, 0, 0, time.UTC)))
	require.NotNil(t, g.Spread)
	assert.Equal(t, 3.5, *g.Spread)
	require.NotNil(t, g.OverUnder)
	assert.Equal(t, 45.0, *g.OverUnder)
	require.NotNil(t, g.Result)
	assert.Equal(t, "PHI", g.Result.Winner)
	assert.Equal(t, league.SideStats{Pts: 20, Yds: 370, TOs: 2}, g.Result.Home)

	require.NotNil(t, games[1].Spread)
	assert.Equal(t, 0.0, *games[1].Spread)
	assert.Nil(t, games[1].Result)

	assert.Equal(t, league.WeekWildCard, games[2].Week)
	assert.Nil(t, games[2].Spread)
}

func TestLoadGamesRejectsBadRecords(t *testing.T) {
	dir := t.TempDir()
	tests := map[string]string{
		"bad week":   "games:\n  - {season: 2023, week: Bye, kickoff: \"2023-09-10T17:00:00Z\", home: NE, away: PHI}\n",
		"bad spread": "games:\n  - {season: 2023, week: 1, kickoff: \"2023-09-10T17:00:00Z\", home: NE, away: PHI, pt_spread: lots}\n",
		"same team":  "games:\n  - {season: 2023, week: 1, kickoff: \"2023-09-10T17:00:00Z\", home: NE, away: NE}\n",
		"no kickoff": "games:\n  - {season: 2023, week: 1, home: NE, away: PHI}\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			p := writeFile(t, dir, "games.yml", body)
			_, err := LoadGames(p)
			assert.ErrorIs(t, err, league.ErrData)
		})
	}

	_, err := LoadGames(filepath.Join(dir, "missing.yml"))
	assert.ErrorIs(t, err, league.ErrData)
}
