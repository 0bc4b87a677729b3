package config

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/utakatalp/football-pool/internal/league"
)

// GameRecord is one schedule or result line in a games file. Week accepts a
// number or a playoff round name, PtSpread accepts "PK". Scores are optional;
// a game without both is unplayed. Kickoff is an RFC 3339 string.
type GameRecord struct {
	Season    int       `mapstructure:"season"`
	Week      string    `mapstructure:"week"`
	Kickoff   time.Time `mapstructure:"kickoff"`
	Home      string    `mapstructure:"home"`
	Away      string    `mapstructure:"away"`
	Neutral   bool      `mapstructure:"neutral"`
	PtSpread  string    `mapstructure:"pt_spread"`
	OverUnder *float64  `mapstructure:"over_under"`
	HomePts   *int      `mapstructure:"home_pts"`
	AwayPts   *int      `mapstructure:"away_pts"`
	HomeYds   int       `mapstructure:"home_yds"`
	AwayYds   int       `mapstructure:"away_yds"`
	HomeTOs   int       `mapstructure:"home_tos"`
	AwayTOs   int       `mapstructure:"away_tos"`
}

// LoadGames reads the "games" list from a YAML file.
func LoadGames(path string) ([]league.Game, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", league.ErrData, path, err)
	}

	var recs []GameRecord
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeHookFunc(time.RFC3339),
		mapstructure.StringToTimeDurationHookFunc(),
	))
	if err := v.UnmarshalKey("games", &recs, hook); err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", league.ErrData, path, err)
	}

	games := make([]league.Game, 0, len(recs))
	for i, r := range recs {
		g, err := r.Game()
		if err != nil {
			return nil, fmt.Errorf("%s game %d: %w", path, i+1, err)
		}
		games = append(games, g)
	}
	return games, nil
}

// Game converts the record, validating week, spread and teams.
func (r GameRecord) Game() (league.Game, error) {
	week, err := league.ParseWeek(r.Week)
	if err != nil {
		return league.Game{}, err
	}
	spread, err := league.ParseSpread(r.PtSpread)
	if err != nil {
		return league.Game{}, err
	}
	if r.Home == "" || r.Away == "" || r.Home == r.Away {
		return league.Game{}, fmt.Errorf("%w: bad teams %q and %q", league.ErrData, r.Home, r.Away)
	}
	if r.Kickoff.IsZero() {
		return league.Game{}, fmt.Errorf("%w: kickoff required for %s at %s", league.ErrData, r.Away, r.Home)
	}

	g := league.Game{
		Season:    r.Season,
		Week:      week,
		Day:       league.WeekDayOf(r.Kickoff),
		Kickoff:   r.Kickoff,
		HomeTeam:  r.Home,
		AwayTeam:  r.Away,
		Neutral:   r.Neutral,
		Spread:    spread,
		OverUnder: r.OverUnder,
	}
	if r.HomePts != nil && r.AwayPts != nil {
		err := g.SetResult(
			league.SideStats{Pts: *r.HomePts, Yds: r.HomeYds, TOs: r.HomeTOs},
			league.SideStats{Pts: *r.AwayPts, Yds: r.AwayYds, TOs: r.AwayTOs},
		)
		if err != nil {
			return league.Game{}, err
		}
	}
	return g, nil
}
