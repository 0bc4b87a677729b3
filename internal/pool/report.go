package pool

import (
	"fmt"
	"slices"
	"sort"

	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/scoring"
)

// Kind selects the scoring dimension and week scope of a sub-pool.
type Kind string

const (
	KindSU       Kind = "su"
	KindATS      Kind = "ats"
	KindPlayoffs Kind = "playoffs"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindSU, KindATS, KindPlayoffs:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown sub-pool %q", league.ErrConfig, s)
}

// Row is one swami's line in a report. Weekly is aligned with Report.Weeks.
type Row struct {
	Swami    string          `json:"swami"`
	WeekWins []int           `json:"week_wins"`
	Weekly   []scoring.Score `json:"weekly"`
	Total    scoring.Score   `json:"total"`
	WinPct   float64         `json:"win_pct"`
}

// WeekRow is one swami's record for a single week.
type WeekRow struct {
	Swami  string        `json:"swami"`
	Score  scoring.Score `json:"score"`
	WinPct float64       `json:"win_pct"`
}

// Report is the season table for one sub-pool. Rows are ordered by wins,
// best first, then by roster order.
type Report struct {
	Pool   string        `json:"pool"`
	Season int           `json:"season"`
	Kind   Kind          `json:"kind"`
	RunID  string        `json:"run_id"`
	Weeks  []league.Week `json:"weeks"`
	Rows   []Row         `json:"rows"`
}

// SubPool builds the report for kind. The straight-up and spread reports
// cover regular-season weeks only.
func (p *Pool) SubPool(kind Kind) (*Report, error) {
	switch kind {
	case KindSU, KindATS:
	case KindPlayoffs:
		return nil, fmt.Errorf("%w: playoffs sub-pool", league.ErrNotImplemented)
	default:
		return nil, fmt.Errorf("%w: unknown sub-pool %q", league.ErrConfig, kind)
	}
	if err := p.requireComputed(); err != nil {
		return nil, err
	}

	var weeks []league.Week
	for i := range p.games {
		if w := p.games[i].Week; !league.IsPlayoff(w) && !slices.Contains(weeks, w) {
			weeks = append(weeks, w)
		}
	}
	slices.Sort(weeks)

	r := &Report{
		Pool:   p.name,
		Season: p.season,
		Kind:   kind,
		RunID:  p.runID.String(),
		Weeks:  weeks,
		Rows:   make([]Row, 0, len(p.swamis)),
	}
	for _, s := range p.swamis {
		row := Row{
			Swami:    s.Name(),
			WeekWins: make([]int, len(weeks)),
			Weekly:   make([]scoring.Score, len(weeks)),
		}
		for i, w := range weeks {
			sc := scoreFor(kind, p.swamiScores[s.Name()][w])
			row.Weekly[i] = sc
			row.WeekWins[i] = sc.Wins
			row.Total = row.Total.Add(sc)
		}
		row.WinPct = row.Total.WinPct()
		r.Rows = append(r.Rows, row)
	}
	sort.SliceStable(r.Rows, func(i, j int) bool {
		return r.Rows[i].Total.Wins > r.Rows[j].Total.Wins
	})
	return r, nil
}

func scoreFor(kind Kind, t Tally) scoring.Score {
	if kind == KindATS {
		return t.ATS
	}
	return t.SU
}

// WeekRows returns the week's records ordered by wins. Unknown weeks give nil.
func (r *Report) WeekRows(week league.Week) []WeekRow {
	idx := slices.Index(r.Weeks, week)
	if idx < 0 {
		return nil
	}
	rows := make([]WeekRow, 0, len(r.Rows))
	for _, row := range r.Rows {
		sc := row.Weekly[idx]
		rows = append(rows, WeekRow{Swami: row.Swami, Score: sc, WinPct: sc.WinPct()})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Score.Wins > rows[j].Score.Wins
	})
	return rows
}

// Winners returns the swamis sharing the most season wins, or nil when
// nobody won anything.
func (r *Report) Winners() []string {
	return winners(len(r.Rows), func(i int) (string, int) {
		return r.Rows[i].Swami, r.Rows[i].Total.Wins
	})
}

// WeekWinners is Winners for one week.
func (r *Report) WeekWinners(week league.Week) []string {
	rows := r.WeekRows(week)
	return winners(len(rows), func(i int) (string, int) {
		return rows[i].Swami, rows[i].Score.Wins
	})
}

// winners expects entries ordered by wins, best first.
func winners(n int, entry func(i int) (string, int)) []string {
	if n == 0 {
		return nil
	}
	_, top := entry(0)
	if top == 0 {
		return nil
	}
	var out []string
	for i := 0; i < n; i++ {
		name, wins := entry(i)
		if wins != top {
			break
		}
		out = append(out, name)
	}
	return out
}
