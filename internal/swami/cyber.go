package swami

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/football-pool/internal/analysis"
	"github.com/utakatalp/football-pool/internal/league"
)

// criteria maps a configured criterion to the statistic it compares.
var criteria = map[string]func(*analysis.Stats) float64{
	"games":       func(s *analysis.Stats) float64 { return float64(s.NumGames()) },
	"wins":        func(s *analysis.Stats) float64 { return float64(s.NumWins()) },
	"win_pct":     (*analysis.Stats).WinPct,
	"ats_wins":    func(s *analysis.Stats) float64 { return float64(s.NumATSWins()) },
	"ats_win_pct": (*analysis.Stats).ATSWinPct,
	"pts":         (*analysis.Stats).PtsMargin,
	"yds":         (*analysis.Stats).YdsMargin,
	"tos":         (*analysis.Stats).TOsMargin,
}

// scopeFunc adds the class-specific filters to a fresh analysis.
type scopeFunc func(a *analysis.Analysis, gc league.GameContext) error

// CyberBasic compares the two teams' recent history criterion by criterion;
// the first criterion that separates them decides the pick. The VsAll, VsTeam,
// VsDiv and VsConf classes differ only in which games they look at.
type CyberBasic struct {
	Base
	numGames   int
	numSeasons int
	criteria   []string
	games      analysis.Repository
	logger     logrus.FieldLogger
	scope      scopeFunc
}

func newCyberBasic(base Base, params Params, deps Deps, scope scopeFunc) (Swami, error) {
	numGames, err := params.Int("num_games")
	if err != nil {
		return nil, err
	}
	numSeasons, err := params.Int("num_seasons")
	if err != nil {
		return nil, err
	}
	if numGames <= 0 && numSeasons <= 0 {
		return nil, fmt.Errorf("%w: either num_games or num_seasons must be specified", league.ErrConfig)
	}
	crit, err := params.Strings("criteria")
	if err != nil {
		return nil, err
	}
	if len(crit) == 0 {
		return nil, fmt.Errorf("%w: criteria must be specified", league.ErrConfig)
	}
	for _, c := range crit {
		if _, ok := criteria[c]; !ok {
			return nil, fmt.Errorf("%w: invalid criterion %q", league.ErrConfig, c)
		}
	}
	if deps.Games == nil {
		return nil, fmt.Errorf("%w: game repository required", league.ErrConfig)
	}
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CyberBasic{
		Base:       base,
		numGames:   numGames,
		numSeasons: numSeasons,
		criteria:   crit,
		games:      deps.Games,
		logger:     logger,
		scope:      scope,
	}, nil
}

// NewVsAll looks at recent games against any opponent.
func NewVsAll(base Base, params Params, deps Deps) (Swami, error) {
	return newCyberBasic(base, params, deps, nil)
}

// NewVsTeam looks at recent games between the two teams.
func NewVsTeam(base Base, params Params, deps Deps) (Swami, error) {
	return newCyberBasic(base, params, deps, func(a *analysis.Analysis, gc league.GameContext) error {
		home, err := analysis.NewOpponentFilter(gc.AwayTeam.Code)
		if err != nil {
			return err
		}
		away, err := analysis.NewOpponentFilter(gc.HomeTeam.Code)
		if err != nil {
			return err
		}
		return a.AddTeamFilters(map[string]analysis.Filter{gc.HomeTeam.Code: home, gc.AwayTeam.Code: away})
	})
}

// NewVsDiv looks at each team's recent games against the other's division.
func NewVsDiv(base Base, params Params, deps Deps) (Swami, error) {
	return newCyberBasic(base, params, deps, func(a *analysis.Analysis, gc league.GameContext) error {
		home, err := analysis.NewDivisionFilter(gc.AwayTeam.Div)
		if err != nil {
			return err
		}
		away, err := analysis.NewDivisionFilter(gc.HomeTeam.Div)
		if err != nil {
			return err
		}
		return a.AddTeamFilters(map[string]analysis.Filter{gc.HomeTeam.Code: home, gc.AwayTeam.Code: away})
	})
}

// NewVsConf looks at each team's recent games against the other's conference.
func NewVsConf(base Base, params Params, deps Deps) (Swami, error) {
	return newCyberBasic(base, params, deps, func(a *analysis.Analysis, gc league.GameContext) error {
		home, err := analysis.NewConferenceFilter(gc.AwayTeam.Conf)
		if err != nil {
			return err
		}
		away, err := analysis.NewConferenceFilter(gc.HomeTeam.Conf)
		if err != nil {
			return err
		}
		return a.AddTeamFilters(map[string]analysis.Filter{gc.HomeTeam.Code: home, gc.AwayTeam.Code: away})
	})
}

// window is the lookback filter; a season count wins over a game count.
func (s *CyberBasic) window() (analysis.Filter, error) {
	if s.numSeasons > 0 {
		return analysis.NewSeasonsFilter(s.numSeasons)
	}
	return analysis.NewGamesFilter(s.numGames)
}

func (s *CyberBasic) Pick(ctx context.Context, gc league.GameContext) (*league.Pick, error) {
	a := analysis.New(gc, s.games, s.logger)
	base, err := s.window()
	if err != nil {
		return nil, err
	}
	if err := a.AddFilter(base); err != nil {
		return nil, err
	}
	if s.scope != nil {
		if err := s.scope(a, gc); err != nil {
			return nil, err
		}
	}

	homeTeam, awayTeam := gc.HomeTeam.Code, gc.AwayTeam.Code
	home, err := a.Stats(ctx, homeTeam)
	if err != nil {
		return nil, err
	}
	away, err := a.Stats(ctx, awayTeam)
	if err != nil {
		return nil, err
	}
	if home.NumGames() == 0 || away.NumGames() == 0 {
		s.logger.WithFields(logrus.Fields{
			"game_id":    gc.GameID,
			"home_games": home.NumGames(),
			"away_games": away.NumGames(),
		}).Debug("declining pick, not enough history")
		return nil, nil
	}

	// home takes a full tie
	winner, margin := homeTeam, home.PtsMargin()
	mySpread := -margin
	for _, c := range s.criteria {
		h, v := criteria[c](home), criteria[c](away)
		if h > v {
			break
		}
		if h < v {
			winner, margin = awayTeam, away.PtsMargin()
			mySpread = margin
			break
		}
	}

	var atsWinner string
	if gc.Spread != nil {
		if mySpread > *gc.Spread {
			atsWinner = awayTeam
		} else {
			atsWinner = homeTeam
		}
	}
	total := (home.TotalPts() + away.TotalPts()) / 2
	p := league.NewPick(winner, atsWinner, margin, total)
	return &p, nil
}
