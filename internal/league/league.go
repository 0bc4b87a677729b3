package league

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Team represents a currently active franchise. Prior incarnations of a team
// are folded into their descendant.
type Team struct {
	Code     string `mapstructure:"code" json:"code"`
	Name     string `mapstructure:"name" json:"name"`
	FullName string `mapstructure:"full_name" json:"full_name"`
	Conf     string `mapstructure:"conf" json:"conf"`
	Div      string `mapstructure:"div" json:"div"`
	PFRCode  string `mapstructure:"pfr_code" json:"pfr_code,omitempty"`
	Timezone string `mapstructure:"timezone" json:"timezone,omitempty"`
}

// TeamSet is the static team metadata, keyed by team code.
type TeamSet struct {
	byCode map[string]Team
	codes  []string
}

// NewTeamSet builds a lookup from the given teams. Codes must be unique and
// non-empty.
func NewTeamSet(teams []Team) (*TeamSet, error) {
	ts := &TeamSet{byCode: make(map[string]Team, len(teams))}
	for _, t := range teams {
		if t.Code == "" {
			return nil, fmt.Errorf("%w: team %q has no code", ErrConfig, t.Name)
		}
		if _, dup := ts.byCode[t.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate team code %q", ErrConfig, t.Code)
		}
		ts.byCode[t.Code] = t
		ts.codes = append(ts.codes, t.Code)
	}
	return ts, nil
}

// Lookup returns the team for code.
func (ts *TeamSet) Lookup(code string) (Team, bool) {
	t, ok := ts.byCode[code]
	return t, ok
}

// All returns the teams in load order.
func (ts *TeamSet) All() []Team {
	out := make([]Team, 0, len(ts.codes))
	for _, c := range ts.codes {
		out = append(out, ts.byCode[c])
	}
	return out
}

// Week values below 100 are the ordinal week within the regular season;
// playoff rounds use the sentinels below.
type Week = int

const (
	WeekWildCard   Week = 100
	WeekDivisional Week = 200
	WeekConference Week = 300
	WeekSuperBowl  Week = 400
)

var playoffWeekNames = map[string]Week{
	"WildCard":  WeekWildCard,
	"Division":  WeekDivisional,
	"ConfChamp": WeekConference,
	"SuperBowl": WeekSuperBowl,
}

// IsPlayoff reports whether week is one of the playoff round sentinels.
func IsPlayoff(week Week) bool {
	return week >= WeekWildCard
}

// ParseWeek accepts either an ordinal week number or a playoff round name.
func ParseWeek(s string) (Week, error) {
	s = strings.TrimSpace(s)
	if w, ok := playoffWeekNames[s]; ok {
		return w, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n >= WeekWildCard {
		return 0, fmt.Errorf("%w: unknown week value %q", ErrData, s)
	}
	return n, nil
}

// ParseWeeks reads a comma separated list of weeks; empty means all weeks.
func ParseWeeks(s string) ([]Week, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var weeks []Week
	for _, part := range strings.Split(s, ",") {
		w, err := ParseWeek(part)
		if err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, nil
}

// WeekDay is consistent with Monday-first numbering (Mon=0 .. Sun=6).
type WeekDay int

const (
	Mon WeekDay = iota
	Tue
	Wed
	Thu
	Fri
	Sat
	Sun
)

var weekDayNames = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func (d WeekDay) String() string {
	if d < Mon || d > Sun {
		return fmt.Sprintf("WeekDay(%d)", int(d))
	}
	return weekDayNames[d]
}

// ParseWeekDay maps "Mon".."Sun" to a WeekDay.
func ParseWeekDay(s string) (WeekDay, error) {
	for i, name := range weekDayNames {
		if name == s {
			return WeekDay(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown day %q", ErrData, s)
}

// WeekDayOf converts a time.Weekday (Sunday-first) to a WeekDay.
func WeekDayOf(t time.Time) WeekDay {
	return WeekDay((int(t.Weekday()) + 6) % 7)
}

// SideStats holds the per-side box score numbers used by the analysis.
type SideStats struct {
	Pts int `json:"pts"`
	Yds int `json:"yds"`
	TOs int `json:"tos"` // turnovers committed
}

// Result is the outcome of a played game. For a tie, Winner is the home team
// and Loser the away team.
type Result struct {
	Winner string    `json:"winner"`
	Loser  string    `json:"loser"`
	Tie    bool      `json:"tie"`
	Home   SideStats `json:"home"`
	Away   SideStats `json:"away"`
}

// Game is one scheduled or completed contest, unique on
// (Season, Week, HomeTeam, AwayTeam). Result stays nil until the game is played.
type Game struct {
	ID        int64     `json:"id"`
	Season    int       `json:"season"`
	Week      Week      `json:"week"`
	Day       WeekDay   `json:"day"`
	Kickoff   time.Time `json:"kickoff"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	Neutral   bool      `json:"neutral"`
	Spread    *float64  `json:"pt_spread,omitempty"` // home perspective; pick'em is 0.0
	OverUnder *float64  `json:"over_under,omitempty"`
	Result    *Result   `json:"result,omitempty"`
}

// GameKey is the natural key of a game.
type GameKey struct {
	Season   int
	Week     Week
	HomeTeam string
	AwayTeam string
}

// GameContext is the pre-game view of a Game handed to prediction engines.
// It carries no outcome fields.
type GameContext struct {
	GameID    int64
	Season    int
	Week      Week
	Day       WeekDay
	Kickoff   time.Time
	HomeTeam  Team
	AwayTeam  Team
	Neutral   bool
	Spread    *float64
	OverUnder *float64
}

// Pick is a prediction for one game. ATSWinner is empty when no spread was
// available. PtsMargin is from the winner's point of view.
type Pick struct {
	SUWinner  string `json:"su_winner"`
	ATSWinner string `json:"ats_winner,omitempty"`
	PtsMargin int    `json:"pts_margin"`
	TotalPts  int    `json:"total_pts"`
}

// SwamiPick is one swami's pick for one game, as persisted.
type SwamiPick struct {
	Swami    string    `json:"swami"`
	GameID   int64     `json:"game_id"`
	Pick     Pick      `json:"pick"`
	PickedAt time.Time `json:"pick_ts"`
}
