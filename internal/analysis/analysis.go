// Package analysis computes point-in-time team statistics for the two teams
// of a game from the historical game log.
package analysis

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/query"
)

// Repository returns the games matching a query, in query order.
type Repository interface {
	Select(ctx context.Context, q query.Query) ([]league.Game, error)
}

// Analysis holds the filter chains for both teams of one game context.
// Reading stats for either team freezes the instance.
type Analysis struct {
	gc      league.GameContext
	repo    Repository
	logger  logrus.FieldLogger
	filters map[string][]Filter
	stats   map[string]*Stats
	frozen  bool
}

// New returns an analysis for gc with the engine filters (timeframe and
// recency ordering) already attached to both teams.
func New(gc league.GameContext, repo Repository, logger logrus.FieldLogger) *Analysis {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	a := &Analysis{
		gc:   gc,
		repo: repo,
		logger: logger.WithFields(logrus.Fields{
			"game_id": gc.GameID,
			"home":    gc.HomeTeam.Code,
			"away":    gc.AwayTeam.Code,
		}),
		filters: make(map[string][]Filter, 2),
		stats:   make(map[string]*Stats, 2),
	}
	for _, team := range a.teams() {
		a.filters[team] = []Filter{TimeframeFilter{}, RecencyFilter{}}
	}
	return a
}

func (a *Analysis) teams() [2]string {
	return [2]string{a.gc.HomeTeam.Code, a.gc.AwayTeam.Code}
}

// Frozen reports whether stats have been computed for either team.
func (a *Analysis) Frozen() bool {
	return a.frozen
}

// AddFilter attaches filters to both teams.
func (a *Analysis) AddFilter(filters ...Filter) error {
	if a.frozen {
		return fmt.Errorf("%w: cannot add filters after analysis is frozen", league.ErrLogic)
	}
	for _, team := range a.teams() {
		a.filters[team] = append(a.filters[team], filters...)
	}
	return nil
}

// AddTeamFilters attaches a filter per team, for predicates whose meaning is
// relative to the team (e.g. the opponent's division).
func (a *Analysis) AddTeamFilters(byTeam map[string]Filter) error {
	if a.frozen {
		return fmt.Errorf("%w: cannot add filters after analysis is frozen", league.ErrLogic)
	}
	for team := range byTeam {
		if !a.gc.Has(team) {
			return fmt.Errorf("%w: team %q is not part of game %d", league.ErrLogic, team, a.gc.GameID)
		}
	}
	for team, f := range byTeam {
		a.filters[team] = append(a.filters[team], f)
	}
	return nil
}

// Stats returns the statistics for team, computing them on first use.
func (a *Analysis) Stats(ctx context.Context, team string) (*Stats, error) {
	if !a.gc.Has(team) {
		return nil, fmt.Errorf("%w: team %q is not part of game %d", league.ErrLogic, team, a.gc.GameID)
	}
	if s, ok := a.stats[team]; ok {
		return s, nil
	}
	a.frozen = true

	q, err := a.Query(team)
	if err != nil {
		return nil, err
	}
	a.logger.WithFields(logrus.Fields{"team": team, "query": q.String()}).Debug("analysis query")

	games, err := a.repo.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("selecting games for %s: %w", team, err)
	}
	s := computeStats(team, games)
	a.stats[team] = s
	return s, nil
}

// Query folds the team's filters, sorted by phase, into a query. The
// team-scope default is injected here when no filter narrowed the games to
// the team; engine filters are exempt from the freeze.
func (a *Analysis) Query(team string) (query.Query, error) {
	if !a.gc.Has(team) {
		return query.Query{}, fmt.Errorf("%w: team %q is not part of game %d", league.ErrLogic, team, a.gc.GameID)
	}
	if !slices.ContainsFunc(a.filters[team], scopesTeam) {
		a.filters[team] = append(a.filters[team], TeamFilter{})
	}
	chain := slices.Clone(a.filters[team])
	sort.SliceStable(chain, func(i, j int) bool {
		return chain[i].Phase() < chain[j].Phase()
	})

	var q query.Query
	for _, f := range chain {
		q = f.Apply(a.gc, team, q)
	}
	return q, nil
}
