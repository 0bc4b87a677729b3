package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueryIsImmutable(t *testing.T) {
	base := Query{}.Where(TeamIn{Team: "NE"})
	a := base.Where(SeasonRange{From: 2022, To: 2023})
	b := base.Where(Completed{})

	assert.Len(t, base.Preds, 1)
	assert.Equal(t, SeasonRange{From: 2022, To: 2023}, a.Preds[1])
	assert.Equal(t, Completed{}, b.Preds[1])
}

func TestJoinDeduplicates(t *testing.T) {
	q := Query{}.Join(JoinHomeTeam, JoinAwayTeam).Join(JoinAwayTeam)
	assert.Equal(t, []Join{JoinHomeTeam, JoinAwayTeam}, q.Joins)
	assert.True(t, q.HasJoin(JoinHomeTeam))
}

func TestWithLimitKeepsSmallest(t *testing.T) {
	q := Query{}.WithLimit(5).WithLimit(10)
	assert.Equal(t, 5, q.Limit)
	assert.Equal(t, 2, q.WithLimit(2).Limit)
}

func TestString(t *testing.T) {
	ts := time.Date(2023, 9, 17, 17, 0, 0, 0, time.UTC)
	q := Query{}.
		Where(TeamIn{Team: "NE"}, KickoffBefore{Time: ts}).
		OrderBy(Order{Field: FieldKickoff, Desc: true}).
		WithLimit(3)
	assert.Equal(t, "where[team=NE & kickoff<2023-09-17T17:00:00Z] order[kickoff desc] limit 3", q.String())
}
