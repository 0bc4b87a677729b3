// Package query describes a game retrieval as a plain value: restrictions,
// team-metadata joins, ordering and a row limit. Repositories evaluate it;
// filters build it up by returning modified copies.
package query

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// Predicate is one restriction on the game set. The set of predicates is
// closed so every repository can evaluate all of them.
type Predicate interface {
	predicate()
	String() string
}

// TeamIn matches games the team played on either side.
type TeamIn struct{ Team string }

// Matchup matches games between Team and Opponent in either orientation.
type Matchup struct{ Team, Opponent string }

// OpponentDiv matches games where Team's opponent belongs to Div. Needs both
// team joins.
type OpponentDiv struct{ Team, Div string }

// OpponentConf matches games where Team's opponent belongs to Conf. Needs
// both team joins.
type OpponentConf struct{ Team, Conf string }

// SeasonRange matches seasons in [From, To].
type SeasonRange struct{ From, To int }

// KickoffBefore matches games kicking off strictly before Time.
type KickoffBefore struct{ Time time.Time }

// Completed matches games with a recorded result.
type Completed struct{}

// WeekIn matches games in one of the listed weeks.
type WeekIn struct{ Weeks []int }

// Venue matches games Team played at home (Home) or on the road.
type Venue struct {
	Team string
	Home bool
}

func (TeamIn) predicate()        {}
func (Matchup) predicate()       {}
func (OpponentDiv) predicate()   {}
func (OpponentConf) predicate()  {}
func (SeasonRange) predicate()   {}
func (KickoffBefore) predicate() {}
func (Completed) predicate()     {}
func (WeekIn) predicate()        {}
func (Venue) predicate()         {}

func (p TeamIn) String() string       { return fmt.Sprintf("team=%s", p.Team) }
func (p Matchup) String() string      { return fmt.Sprintf("matchup=%s/%s", p.Team, p.Opponent) }
func (p OpponentDiv) String() string  { return fmt.Sprintf("opp_div(%s)=%s", p.Team, p.Div) }
func (p OpponentConf) String() string { return fmt.Sprintf("opp_conf(%s)=%s", p.Team, p.Conf) }
func (p SeasonRange) String() string  { return fmt.Sprintf("season=[%d,%d]", p.From, p.To) }
func (p KickoffBefore) String() string {
	return fmt.Sprintf("kickoff<%s", p.Time.Format(time.RFC3339))
}
func (Completed) String() string { return "completed" }
func (p WeekIn) String() string  { return fmt.Sprintf("week in %v", p.Weeks) }
func (p Venue) String() string {
	if p.Home {
		return fmt.Sprintf("home=%s", p.Team)
	}
	return fmt.Sprintf("away=%s", p.Team)
}

// Join names a self-join against team metadata.
type Join string

const (
	JoinHomeTeam Join = "home_team"
	JoinAwayTeam Join = "away_team"
)

// Field is an orderable game column.
type Field string

const (
	FieldSeason  Field = "season"
	FieldWeek    Field = "week"
	FieldKickoff Field = "kickoff"
)

// Order is one ordering term.
type Order struct {
	Field Field
	Desc  bool
}

// Query describes one full retrieval. The zero value selects every
// game in storage order.
type Query struct {
	Preds []Predicate
	Joins []Join
	Order []Order
	Limit int // 0 means no limit
}

// Where returns a copy of q with the predicates appended.
func (q Query) Where(preds ...Predicate) Query {
	q.Preds = append(slices.Clip(q.Preds), preds...)
	return q
}

// Join returns a copy of q with the joins added; duplicates are dropped.
func (q Query) Join(joins ...Join) Query {
	out := slices.Clone(q.Joins)
	for _, j := range joins {
		if !slices.Contains(out, j) {
			out = append(out, j)
		}
	}
	q.Joins = out
	return q
}

// OrderBy returns a copy of q with the ordering terms appended.
func (q Query) OrderBy(terms ...Order) Query {
	q.Order = append(slices.Clip(q.Order), terms...)
	return q
}

// WithLimit returns a copy of q capped at n rows. A smaller existing limit is
// kept.
func (q Query) WithLimit(n int) Query {
	if q.Limit == 0 || n < q.Limit {
		q.Limit = n
	}
	return q
}

// HasJoin reports whether j was requested.
func (q Query) HasJoin(j Join) bool {
	return slices.Contains(q.Joins, j)
}

func (q Query) String() string {
	var b strings.Builder
	parts := make([]string, 0, len(q.Preds))
	for _, p := range q.Preds {
		parts = append(parts, p.String())
	}
	b.WriteString("where[" + strings.Join(parts, " & ") + "]")
	if len(q.Joins) > 0 {
		fmt.Fprintf(&b, " join%v", q.Joins)
	}
	if len(q.Order) > 0 {
		terms := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			if o.Desc {
				terms = append(terms, string(o.Field)+" desc")
			} else {
				terms = append(terms, string(o.Field))
			}
		}
		b.WriteString(" order[" + strings.Join(terms, ", ") + "]")
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " limit %d", q.Limit)
	}
	return b.String()
}
