package analysis

import (
	"fmt"

	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/query"
)

// Phase orders filter application the way a SQL statement is assembled.
// Filters for a team are always applied in ascending phase order.
type Phase int

const (
	PhaseSelect Phase = iota
	PhaseJoin
	PhaseWhere
	PhaseGroupBy
	PhaseHaving
	PhaseOrderBy
	PhaseLimit
)

var phaseNames = [...]string{"select", "join", "where", "group_by", "having", "order_by", "limit"}

func (p Phase) String() string {
	if p < PhaseSelect || p > PhaseLimit {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Filter transforms the query for one team of the game being analyzed.
type Filter interface {
	Phase() Phase
	Apply(gc league.GameContext, team string, q query.Query) query.Query
}

// teamScoper is implemented by filters that restrict results to games the
// analyzed team played. If none is present the engine adds TeamFilter.
type teamScoper interface {
	ScopesTeam() bool
}

func scopesTeam(f Filter) bool {
	s, ok := f.(teamScoper)
	return ok && s.ScopesTeam()
}

// TeamFilter restricts to games involving the analyzed team.
type TeamFilter struct{}

func (TeamFilter) Phase() Phase     { return PhaseWhere }
func (TeamFilter) ScopesTeam() bool { return true }
func (TeamFilter) Apply(_ league.GameContext, team string, q query.Query) query.Query {
	return q.Where(query.TeamIn{Team: team})
}

// OpponentFilter restricts to games against one opponent.
type OpponentFilter struct {
	Opponent string
}

func NewOpponentFilter(opponent string) (OpponentFilter, error) {
	if opponent == "" {
		return OpponentFilter{}, fmt.Errorf("%w: opponent filter requires a team", league.ErrConfig)
	}
	return OpponentFilter{Opponent: opponent}, nil
}

func (OpponentFilter) Phase() Phase     { return PhaseWhere }
func (OpponentFilter) ScopesTeam() bool { return true }
func (f OpponentFilter) Apply(_ league.GameContext, team string, q query.Query) query.Query {
	return q.Where(query.Matchup{Team: team, Opponent: f.Opponent})
}

// DivisionFilter restricts to games against opponents in a division. The
// opponent may be on either side, so both team joins are needed.
type DivisionFilter struct {
	Div string
}

func NewDivisionFilter(div string) (DivisionFilter, error) {
	if div == "" {
		return DivisionFilter{}, fmt.Errorf("%w: division filter requires a division", league.ErrConfig)
	}
	return DivisionFilter{Div: div}, nil
}

func (DivisionFilter) Phase() Phase     { return PhaseJoin }
func (DivisionFilter) ScopesTeam() bool { return true }
func (f DivisionFilter) Apply(_ league.GameContext, team string, q query.Query) query.Query {
	return q.Join(query.JoinHomeTeam, query.JoinAwayTeam).
		Where(query.OpponentDiv{Team: team, Div: f.Div})
}

// ConferenceFilter restricts to games against opponents in a conference.
type ConferenceFilter struct {
	Conf string
}

func NewConferenceFilter(conf string) (ConferenceFilter, error) {
	if conf == "" {
		return ConferenceFilter{}, fmt.Errorf("%w: conference filter requires a conference", league.ErrConfig)
	}
	return ConferenceFilter{Conf: conf}, nil
}

func (ConferenceFilter) Phase() Phase     { return PhaseJoin }
func (ConferenceFilter) ScopesTeam() bool { return true }
func (f ConferenceFilter) Apply(_ league.GameContext, team string, q query.Query) query.Query {
	return q.Join(query.JoinHomeTeam, query.JoinAwayTeam).
		Where(query.OpponentConf{Team: team, Conf: f.Conf})
}

// SeasonsFilter keeps the last N seasons, counting the season of the game
// being analyzed: [season-N+1, season].
type SeasonsFilter struct {
	Seasons int
}

func NewSeasonsFilter(n int) (SeasonsFilter, error) {
	if n < 1 {
		return SeasonsFilter{}, fmt.Errorf("%w: seasons filter requires a positive count, got %d", league.ErrConfig, n)
	}
	return SeasonsFilter{Seasons: n}, nil
}

func (SeasonsFilter) Phase() Phase { return PhaseWhere }
func (f SeasonsFilter) Apply(gc league.GameContext, _ string, q query.Query) query.Query {
	return q.Where(query.SeasonRange{From: gc.Season - f.Seasons + 1, To: gc.Season})
}

// GamesFilter caps the result at the first N rows after ordering; with the
// recency ordering this is the N most recent games.
type GamesFilter struct {
	Games int
}

func NewGamesFilter(n int) (GamesFilter, error) {
	if n < 1 {
		return GamesFilter{}, fmt.Errorf("%w: games filter requires a positive count, got %d", league.ErrConfig, n)
	}
	return GamesFilter{Games: n}, nil
}

func (GamesFilter) Phase() Phase { return PhaseLimit }
func (f GamesFilter) Apply(_ league.GameContext, _ string, q query.Query) query.Query {
	return q.WithLimit(f.Games)
}

// WeeksFilter keeps games in the listed weeks of any season.
type WeeksFilter struct {
	Weeks []league.Week
}

func NewWeeksFilter(weeks ...league.Week) (WeeksFilter, error) {
	if len(weeks) == 0 {
		return WeeksFilter{}, fmt.Errorf("%w: weeks filter requires at least one week", league.ErrConfig)
	}
	return WeeksFilter{Weeks: weeks}, nil
}

func (WeeksFilter) Phase() Phase { return PhaseWhere }
func (f WeeksFilter) Apply(_ league.GameContext, _ string, q query.Query) query.Query {
	return q.Where(query.WeekIn{Weeks: f.Weeks})
}

// VenueFilter keeps only the analyzed team's home (or road) games.
type VenueFilter struct {
	Home bool
}

func (VenueFilter) Phase() Phase     { return PhaseWhere }
func (VenueFilter) ScopesTeam() bool { return true }
func (f VenueFilter) Apply(_ league.GameContext, team string, q query.Query) query.Query {
	return q.Where(query.Venue{Team: team, Home: f.Home})
}

// TimeframeFilter is added by the engine for every team: only games that
// kicked off strictly before the analyzed game and have a result.
type TimeframeFilter struct{}

func (TimeframeFilter) Phase() Phase { return PhaseWhere }
func (TimeframeFilter) Apply(gc league.GameContext, _ string, q query.Query) query.Query {
	return q.Where(query.KickoffBefore{Time: gc.Kickoff}, query.Completed{})
}

// RecencyFilter is added by the engine for every team: most recent first.
type RecencyFilter struct{}

func (RecencyFilter) Phase() Phase { return PhaseOrderBy }
func (RecencyFilter) Apply(_ league.GameContext, _ string, q query.Query) query.Query {
	return q.OrderBy(query.Order{Field: query.FieldKickoff, Desc: true})
}
