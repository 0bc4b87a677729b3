package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/query"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a Postgres connection and provides methods to persist and
// retrieve teams, games and swami picks.
type Store struct {
	DB     *sql.DB
	logger logrus.FieldLogger
}

// NewStore opens a Postgres connection using the given connection string.
func NewStore(connStr string, logger logrus.FieldLogger) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// verify early
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(20)
	db.SetConnMaxLifetime(time.Hour)

	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.Info("database connection established")
	return &Store{DB: db, logger: logger}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	return s.DB.Close()
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	driver, err := migratepg.WithInstance(s.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("initializing migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating: %w", err)
	}

	version, dirty, _ := m.Version()
	entry := s.logger.WithField("version", version)
	if dirty {
		entry.Warn("schema migration left dirty")
	} else {
		entry.Info("schema migrations complete")
	}
	return nil
}

// InsertTeams upserts team metadata.
func (s *Store) InsertTeams(ctx context.Context, teams []league.Team) error {
	const q = `
    INSERT INTO teams (code, name, full_name, conf, div, pfr_code, timezone)
    VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
    ON CONFLICT (code) DO UPDATE SET
        name      = EXCLUDED.name,
        full_name = EXCLUDED.full_name,
        conf      = EXCLUDED.conf,
        div       = EXCLUDED.div,
        pfr_code  = EXCLUDED.pfr_code,
        timezone  = EXCLUDED.timezone
    `
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin InsertTeams tx: %w", err)
	}
	defer tx.Rollback()

	for _, t := range teams {
		if _, err := tx.ExecContext(ctx, q, t.Code, t.Name, t.FullName, t.Conf, t.Div, t.PFRCode, t.Timezone); err != nil {
			return fmt.Errorf("inserting team %s: %w", t.Code, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit InsertTeams tx: %w", err)
	}
	return nil
}

// Teams loads the team metadata.
func (s *Store) Teams(ctx context.Context) (*league.TeamSet, error) {
	const q = `
    SELECT code, name, full_name, conf, div, pfr_code, COALESCE(timezone, '')
    FROM teams
    ORDER BY code
    `
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("querying teams: %w", err)
	}
	defer rows.Close()

	var teams []league.Team
	for rows.Next() {
		var t league.Team
		if err := rows.Scan(&t.Code, &t.Name, &t.FullName, &t.Conf, &t.Div, &t.PFRCode, &t.Timezone); err != nil {
			return nil, fmt.Errorf("scanning team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating teams rows: %w", err)
	}
	return league.NewTeamSet(teams)
}

// SaveGames upserts games on (season, week, home_team, away_team) in one
// transaction and writes the assigned IDs back into the slice. Lines missing
// from a record keep their stored values; a recorded result is never
// replaced, and a different final score for it fails the batch with ErrData.
func (s *Store) SaveGames(ctx context.Context, games []league.Game) error {
	const q = `
    INSERT INTO games (season, week, day, kickoff, home_team, away_team, neutral,
                       pt_spread, over_under, winner, loser, tie,
                       home_pts, home_yds, home_tos, away_pts, away_yds, away_tos)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
    ON CONFLICT (season, week, home_team, away_team) DO UPDATE SET
        day        = EXCLUDED.day,
        kickoff    = EXCLUDED.kickoff,
        neutral    = EXCLUDED.neutral,
        pt_spread  = COALESCE(EXCLUDED.pt_spread, games.pt_spread),
        over_under = COALESCE(EXCLUDED.over_under, games.over_under),
        winner     = COALESCE(games.winner, EXCLUDED.winner),
        loser      = COALESCE(games.loser, EXCLUDED.loser),
        tie        = COALESCE(games.tie, EXCLUDED.tie),
        home_pts   = COALESCE(games.home_pts, EXCLUDED.home_pts),
        home_yds   = COALESCE(games.home_yds, EXCLUDED.home_yds),
        home_tos   = COALESCE(games.home_tos, EXCLUDED.home_tos),
        away_pts   = COALESCE(games.away_pts, EXCLUDED.away_pts),
        away_yds   = COALESCE(games.away_yds, EXCLUDED.away_yds),
        away_tos   = COALESCE(games.away_tos, EXCLUDED.away_tos)
    WHERE games.winner IS NULL OR EXCLUDED.winner IS NULL
       OR (games.home_pts = EXCLUDED.home_pts AND games.away_pts = EXCLUDED.away_pts)
    RETURNING id
    `
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveGames tx: %w", err)
	}
	defer tx.Rollback()

	for i := range games {
		g := &games[i]
		args := []any{g.Season, g.Week, int(g.Day), g.Kickoff.UTC(), g.HomeTeam, g.AwayTeam, g.Neutral,
			nullFloat(g.Spread), nullFloat(g.OverUnder)}
		if r := g.Result; r != nil {
			args = append(args, r.Winner, r.Loser, r.Tie,
				r.Home.Pts, r.Home.Yds, r.Home.TOs, r.Away.Pts, r.Away.Yds, r.Away.TOs)
		} else {
			args = append(args, nil, nil, nil, nil, nil, nil, nil, nil, nil)
		}
		err := tx.QueryRowContext(ctx, q, args...).Scan(&g.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("saving game %s: %w: conflicts with the recorded result", g.ScoreLine(), league.ErrData)
		}
		if err != nil {
			return fmt.Errorf("saving game %s: %w", g.ScoreLine(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveGames tx: %w", err)
	}
	return nil
}

// Select runs q against the games table.
func (s *Store) Select(ctx context.Context, q query.Query) ([]league.Game, error) {
	stmt, args, err := buildSelect(q)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"sql": stmt, "args": args}).Debug("select games")

	rows, err := s.DB.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("querying games: %w", err)
	}
	defer rows.Close()

	var games []league.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating games rows: %w", err)
	}
	return games, nil
}

// LatestPick returns the most recent pick stored for swami and game, or nil.
func (s *Store) LatestPick(ctx context.Context, swami string, gameID int64) (*league.Pick, error) {
	const q = `
    SELECT su_winner, COALESCE(ats_winner, ''), pts_margin, total_pts
    FROM swami_picks
    WHERE swami = $1 AND game_id = $2
    ORDER BY pick_ts DESC, id DESC
    LIMIT 1
    `
	var p league.Pick
	err := s.DB.QueryRowContext(ctx, q, swami, gameID).Scan(&p.SUWinner, &p.ATSWinner, &p.PtsMargin, &p.TotalPts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying pick for %s/%d: %w", swami, gameID, err)
	}
	return &p, nil
}

// InsertPicks stores pick records as one atomic batch.
func (s *Store) InsertPicks(ctx context.Context, recs []league.SwamiPick) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin InsertPicks tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("swami_picks",
		"swami", "game_id", "su_winner", "ats_winner", "pts_margin", "total_pts", "pick_ts"))
	if err != nil {
		return fmt.Errorf("preparing pick copy: %w", err)
	}
	for _, r := range recs {
		pickedAt := r.PickedAt
		if pickedAt.IsZero() {
			pickedAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, r.Swami, r.GameID, r.Pick.SUWinner,
			nullString(r.Pick.ATSWinner), r.Pick.PtsMargin, r.Pick.TotalPts, pickedAt.UTC()); err != nil {
			stmt.Close()
			return fmt.Errorf("copying pick %s/%d: %w", r.Swami, r.GameID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("flushing pick copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return fmt.Errorf("closing pick copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit InsertPicks tx: %w", err)
	}
	return nil
}

const gameColumns = `g.id, g.season, g.week, g.day, g.kickoff, g.home_team, g.away_team, g.neutral,
       g.pt_spread, g.over_under, g.winner, g.loser, g.tie,
       g.home_pts, g.home_yds, g.home_tos, g.away_pts, g.away_yds, g.away_tos`

var orderColumns = map[query.Field]string{
	query.FieldSeason:  "g.season",
	query.FieldWeek:    "g.week",
	query.FieldKickoff: "g.kickoff",
}

// sqlBuilder accumulates positional arguments.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

// buildSelect compiles q into a Postgres statement.
func buildSelect(q query.Query) (string, []any, error) {
	var b sqlBuilder
	var sb strings.Builder
	sb.WriteString("SELECT " + gameColumns + "\nFROM games g")
	if q.HasJoin(query.JoinHomeTeam) {
		sb.WriteString("\nJOIN teams home_tm ON home_tm.code = g.home_team")
	}
	if q.HasJoin(query.JoinAwayTeam) {
		sb.WriteString("\nJOIN teams away_tm ON away_tm.code = g.away_team")
	}

	conds := make([]string, 0, len(q.Preds))
	for _, p := range q.Preds {
		c, err := b.predicate(p, q)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, c)
	}
	if len(conds) > 0 {
		sb.WriteString("\nWHERE " + strings.Join(conds, "\n  AND "))
	}

	if len(q.Order) > 0 {
		terms := make([]string, 0, len(q.Order))
		for _, o := range q.Order {
			col, ok := orderColumns[o.Field]
			if !ok {
				return "", nil, fmt.Errorf("%w: unknown order field %q", league.ErrLogic, o.Field)
			}
			if o.Desc {
				col += " DESC"
			}
			terms = append(terms, col)
		}
		sb.WriteString("\nORDER BY " + strings.Join(terms, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString("\nLIMIT " + b.arg(q.Limit))
	}
	return sb.String(), b.args, nil
}

func (b *sqlBuilder) predicate(p query.Predicate, q query.Query) (string, error) {
	switch p := p.(type) {
	case query.TeamIn:
		t := b.arg(p.Team)
		return fmt.Sprintf("(g.home_team = %s OR g.away_team = %s)", t, t), nil
	case query.Matchup:
		t, o := b.arg(p.Team), b.arg(p.Opponent)
		return fmt.Sprintf("((g.home_team = %s AND g.away_team = %s) OR (g.home_team = %s AND g.away_team = %s))", t, o, o, t), nil
	case query.OpponentDiv:
		if err := requireJoins(q); err != nil {
			return "", err
		}
		t, d := b.arg(p.Team), b.arg(p.Div)
		return fmt.Sprintf("((g.home_team = %s AND away_tm.div = %s) OR (g.away_team = %s AND home_tm.div = %s))", t, d, t, d), nil
	case query.OpponentConf:
		if err := requireJoins(q); err != nil {
			return "", err
		}
		t, c := b.arg(p.Team), b.arg(p.Conf)
		return fmt.Sprintf("((g.home_team = %s AND away_tm.conf = %s) OR (g.away_team = %s AND home_tm.conf = %s))", t, c, t, c), nil
	case query.SeasonRange:
		return fmt.Sprintf("g.season BETWEEN %s AND %s", b.arg(p.From), b.arg(p.To)), nil
	case query.KickoffBefore:
		return "g.kickoff < " + b.arg(p.Time.UTC()), nil
	case query.Completed:
		return "g.winner IS NOT NULL", nil
	case query.WeekIn:
		weeks := make([]int64, len(p.Weeks))
		for i, w := range p.Weeks {
			weeks[i] = int64(w)
		}
		return "g.week = ANY(" + b.arg(pq.Array(weeks)) + ")", nil
	case query.Venue:
		if p.Home {
			return "g.home_team = " + b.arg(p.Team), nil
		}
		return "g.away_team = " + b.arg(p.Team), nil
	default:
		return "", fmt.Errorf("%w: unsupported predicate %T", league.ErrNotImplemented, p)
	}
}

func requireJoins(q query.Query) error {
	if !q.HasJoin(query.JoinHomeTeam) || !q.HasJoin(query.JoinAwayTeam) {
		return fmt.Errorf("%w: opponent metadata predicate without team joins", league.ErrLogic)
	}
	return nil
}

func scanGame(rows *sql.Rows) (league.Game, error) {
	var (
		g                 league.Game
		day               int
		spread, overUnder sql.NullFloat64
		winner, loser     sql.NullString
		tie               sql.NullBool
		hPts, hYds, hTOs  sql.NullInt64
		aPts, aYds, aTOs  sql.NullInt64
	)
	if err := rows.Scan(&g.ID, &g.Season, &g.Week, &day, &g.Kickoff, &g.HomeTeam, &g.AwayTeam, &g.Neutral,
		&spread, &overUnder, &winner, &loser, &tie,
		&hPts, &hYds, &hTOs, &aPts, &aYds, &aTOs); err != nil {
		return league.Game{}, fmt.Errorf("scanning game row: %w", err)
	}
	g.Day = league.WeekDay(day)
	if spread.Valid {
		g.Spread = &spread.Float64
	}
	if overUnder.Valid {
		g.OverUnder = &overUnder.Float64
	}
	if winner.Valid {
		g.Result = &league.Result{
			Winner: winner.String,
			Loser:  loser.String,
			Tie:    tie.Bool,
			Home:   league.SideStats{Pts: int(hPts.Int64), Yds: int(hYds.Int64), TOs: int(hTOs.Int64)},
			Away:   league.SideStats{Pts: int(aPts.Int64), Yds: int(aYds.Int64), TOs: int(aTOs.Int64)},
		}
	}
	return g, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
