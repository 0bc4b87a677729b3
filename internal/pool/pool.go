// Package pool runs a season-long competition among swamis: it collects
// their picks for the season's games, grades them and ranks the swamis.
package pool

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/football-pool/internal/config"
	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/query"
	"github.com/utakatalp/football-pool/internal/scoring"
	"github.com/utakatalp/football-pool/internal/swami"
)

// Repository is the game and team source for a pool run.
type Repository interface {
	Select(ctx context.Context, q query.Query) ([]league.Game, error)
	Teams(ctx context.Context) (*league.TeamSet, error)
}

type State int

const (
	StateUnrun State = iota
	StateRunning
	StateComputed
)

func (s State) String() string {
	switch s {
	case StateUnrun:
		return "unrun"
	case StateRunning:
		return "running"
	case StateComputed:
		return "computed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Tally is a swami's straight-up and against-the-spread record.
type Tally struct {
	SU  scoring.Score `json:"su"`
	ATS scoring.Score `json:"ats"`
}

func (t Tally) add(su, ats scoring.Score) Tally {
	t.SU = t.SU.Add(su)
	if !ats.IsZero() {
		t.ATS = t.ATS.Add(ats)
	}
	return t
}

type pickRecord struct {
	game     int // index into Pool.games
	swami    string
	pick     league.Pick
	pickedAt time.Time
}

// Pool is one competition among a fixed roster of swamis for one season.
// Run collects picks, ComputeResults grades them; reports are available once
// results are computed. A Pool is not safe for concurrent use.
type Pool struct {
	name   string
	season int
	swamis []swami.Swami
	repo   Repository
	logger logrus.FieldLogger

	state State
	runID uuid.UUID
	games []league.Game
	picks []pickRecord

	weekScores  map[league.Week]map[string]Tally // week -> swami
	swamiScores map[string]map[league.Week]Tally // swami -> week
	totals      map[string]Tally
}

// New returns a pool over the given swamis. Swami names must be unique. Each
// swami's picks are memoized for the life of the pool.
func New(name string, season int, swamis []swami.Swami, repo Repository, logger logrus.FieldLogger) (*Pool, error) {
	if len(swamis) == 0 {
		return nil, fmt.Errorf("%w: pool %q needs at least one swami", league.ErrConfig, name)
	}
	if repo == nil {
		return nil, fmt.Errorf("%w: pool %q needs a game repository", league.ErrConfig, name)
	}
	seen := make(map[string]bool, len(swamis))
	roster := make([]swami.Swami, 0, len(swamis))
	for _, s := range swamis {
		if seen[s.Name()] {
			return nil, fmt.Errorf("%w: swami names must be unique, %q repeats", league.ErrConfig, s.Name())
		}
		seen[s.Name()] = true
		roster = append(roster, swami.NewMemo(s))
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pool{
		name:   name,
		season: season,
		swamis: roster,
		repo:   repo,
		logger: logger.WithFields(logrus.Fields{"pool": name, "season": season}),
	}, nil
}

// Env carries what FromConfig needs to build a pool and its swamis.
type Env struct {
	Config   *config.Config
	Registry *swami.Registry
	Repo     Repository
	Picks    swami.PickSource
	Logger   logrus.FieldLogger
}

// FromConfig builds the named pool from configuration. A non-empty roster
// replaces the configured list of swamis.
func FromConfig(name string, season int, env Env, roster ...string) (*Pool, error) {
	pc, err := env.Config.Pool(name)
	if err != nil {
		return nil, err
	}
	if len(roster) == 0 {
		roster = pc.Swamis
	}
	registry := env.Registry
	if registry == nil {
		registry = swami.DefaultRegistry()
	}

	deps := swami.Deps{Games: env.Repo, Picks: env.Picks, Logger: env.Logger}
	swamis := make([]swami.Swami, 0, len(roster))
	for _, sn := range roster {
		s, err := registry.New(sn, env.Config, deps, nil)
		if err != nil {
			return nil, fmt.Errorf("pool %q: %w", name, err)
		}
		swamis = append(swamis, s)
	}
	return New(name, season, swamis, env.Repo, env.Logger)
}

func (p *Pool) Name() string     { return p.name }
func (p *Pool) Season() int      { return p.season }
func (p *Pool) State() State     { return p.state }
func (p *Pool) RunID() uuid.UUID { return p.runID }

// SwamiNames returns the roster in order.
func (p *Pool) SwamiNames() []string {
	names := make([]string, len(p.swamis))
	for i, s := range p.swamis {
		names[i] = s.Name()
	}
	return names
}

// Run collects every swami's pick for the season's games, optionally limited
// to some weeks. A swami declining a game is skipped for it. Any previous run
// is discarded.
func (p *Pool) Run(ctx context.Context, weeks []league.Week) error {
	runID := uuid.New()
	log := p.logger.WithField("run_id", runID.String())

	q := query.Query{}.
		Where(query.SeasonRange{From: p.season, To: p.season}).
		OrderBy(
			query.Order{Field: query.FieldSeason},
			query.Order{Field: query.FieldWeek},
			query.Order{Field: query.FieldKickoff},
		)
	if len(weeks) > 0 {
		q = q.Where(query.WeekIn{Weeks: weeks})
	}
	games, err := p.repo.Select(ctx, q)
	if err != nil {
		return fmt.Errorf("selecting games for pool %q: %w", p.name, err)
	}
	if len(games) == 0 {
		return fmt.Errorf("%w: no games for season %d weeks %v", league.ErrData, p.season, weeks)
	}
	teams, err := p.repo.Teams(ctx)
	if err != nil {
		return fmt.Errorf("loading teams: %w", err)
	}

	var picks []pickRecord
	for i := range games {
		gc, err := games[i].Context(teams)
		if err != nil {
			return err
		}
		for _, s := range p.swamis {
			pick, err := s.Pick(ctx, gc)
			if err != nil {
				return fmt.Errorf("swami %q picking game %d: %w", s.Name(), gc.GameID, err)
			}
			if pick == nil {
				continue
			}
			picks = append(picks, pickRecord{game: i, swami: s.Name(), pick: *pick, pickedAt: time.Now()})
		}
	}

	p.runID = runID
	p.games = games
	p.picks = picks
	p.weekScores, p.swamiScores, p.totals = nil, nil, nil
	p.state = StateRunning
	log.WithFields(logrus.Fields{"games": len(games), "picks": len(picks)}).Info("pool run complete")
	return nil
}

// ComputeResults grades the collected picks and builds the rollups.
func (p *Pool) ComputeResults() error {
	if p.state != StateRunning {
		return fmt.Errorf("%w: pool %q cannot compute results in state %s", league.ErrLogic, p.name, p.state)
	}

	p.weekScores = make(map[league.Week]map[string]Tally)
	p.swamiScores = make(map[string]map[league.Week]Tally, len(p.swamis))
	p.totals = make(map[string]Tally, len(p.swamis))
	for _, s := range p.swamis {
		p.swamiScores[s.Name()] = make(map[league.Week]Tally)
		p.totals[s.Name()] = Tally{}
	}

	for _, r := range p.picks {
		g := &p.games[r.game]
		su, ats := scoring.ComputeScores(g, r.pick)

		byWeek, ok := p.weekScores[g.Week]
		if !ok {
			byWeek = make(map[string]Tally)
			p.weekScores[g.Week] = byWeek
		}
		byWeek[r.swami] = byWeek[r.swami].add(su, ats)
		p.swamiScores[r.swami][g.Week] = p.swamiScores[r.swami][g.Week].add(su, ats)
		p.totals[r.swami] = p.totals[r.swami].add(su, ats)
	}

	p.state = StateComputed
	p.logger.WithField("run_id", p.runID.String()).Debug("pool results computed")
	return nil
}

// Tabulate runs the pool and computes the results.
func (p *Pool) Tabulate(ctx context.Context, weeks []league.Week) error {
	if err := p.Run(ctx, weeks); err != nil {
		return err
	}
	return p.ComputeResults()
}

func (p *Pool) requireComputed() error {
	if p.state != StateComputed {
		return fmt.Errorf("%w: pool %q results not computed (state %s)", league.ErrLogic, p.name, p.state)
	}
	return nil
}

// Totals returns each swami's record over every game in the run.
func (p *Pool) Totals() (map[string]Tally, error) {
	if err := p.requireComputed(); err != nil {
		return nil, err
	}
	out := make(map[string]Tally, len(p.totals))
	for k, v := range p.totals {
		out[k] = v
	}
	return out, nil
}

// WeekTotals returns each swami's record for one week.
func (p *Pool) WeekTotals(week league.Week) (map[string]Tally, error) {
	if err := p.requireComputed(); err != nil {
		return nil, err
	}
	out := make(map[string]Tally, len(p.swamis))
	for _, s := range p.swamis {
		out[s.Name()] = p.weekScores[week][s.Name()]
	}
	return out, nil
}

// Picks returns the collected picks as records ready to persist.
func (p *Pool) Picks() ([]league.SwamiPick, error) {
	if p.state == StateUnrun {
		return nil, fmt.Errorf("%w: pool %q has not been run", league.ErrLogic, p.name)
	}
	out := make([]league.SwamiPick, 0, len(p.picks))
	for _, r := range p.picks {
		out = append(out, league.SwamiPick{
			Swami:    r.swami,
			GameID:   p.games[r.game].ID,
			Pick:     r.pick,
			PickedAt: r.pickedAt,
		})
	}
	return out, nil
}
