package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/football-pool/internal/api"
	"github.com/utakatalp/football-pool/internal/cache"
	"github.com/utakatalp/football-pool/internal/config"
	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/logging"
	"github.com/utakatalp/football-pool/internal/pool"
	"github.com/utakatalp/football-pool/internal/store"
	"github.com/utakatalp/football-pool/internal/swami"
)

const usage = "Usage: bfp [migrate|load-teams|load-games <file.yml>|pool <name> <season> [weeks]|serve]"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewStore(cfg.Database.URL, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	command := os.Args[1]
	switch command {
	case "migrate":
		err = st.Migrate()
	case "load-teams":
		err = st.InsertTeams(ctx, cfg.Teams)
		if err == nil {
			log.WithField("teams", len(cfg.Teams)).Info("teams loaded")
		}
	case "load-games":
		if len(os.Args) < 3 {
			log.Fatal(usage)
		}
		err = loadGames(ctx, cfg, st, log, os.Args[2])
	case "pool":
		if len(os.Args) < 4 {
			log.Fatal(usage)
		}
		err = runPool(ctx, cfg, st, log, os.Args[2:])
	case "serve":
		err = serve(ctx, cfg, st, log)
	default:
		log.Fatalf("Unknown command: %s", command)
	}
	if err != nil {
		log.WithError(err).Fatalf("%s failed", command)
	}
}

func loadGames(ctx context.Context, cfg *config.Config, st *store.Store, log *logrus.Logger, path string) error {
	games, err := config.LoadGames(path)
	if err != nil {
		return err
	}
	if err := st.SaveGames(ctx, games); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"file": path, "games": len(games)}).Info("games loaded")

	rdb := newRedis(cfg)
	if rdb == nil {
		return nil
	}
	defer rdb.Close()
	reports := cache.NewReportCache(rdb, cfg.Redis.ReportTTL)

	var seasons []int
	for _, g := range games {
		if !slices.Contains(seasons, g.Season) {
			seasons = append(seasons, g.Season)
		}
	}
	for name := range cfg.Pools {
		for _, season := range seasons {
			n, err := reports.Invalidate(ctx, name, season)
			if err != nil {
				log.WithError(err).Warn("report cache invalidation failed")
				return nil
			}
			if n > 0 {
				log.WithFields(logrus.Fields{"pool": name, "season": season, "reports": n}).Info("cached reports dropped")
			}
		}
	}
	return nil
}

func runPool(ctx context.Context, cfg *config.Config, st *store.Store, log *logrus.Logger, args []string) error {
	name := args[0]
	season, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("%w: bad season %q", league.ErrConfig, args[1])
	}
	var weeks []league.Week
	if len(args) > 2 {
		if weeks, err = league.ParseWeeks(args[2]); err != nil {
			return err
		}
	}

	p, err := pool.FromConfig(name, season, pool.Env{
		Config:   cfg,
		Registry: swami.DefaultRegistry(),
		Repo:     st,
		Picks:    st,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	if err := p.Tabulate(ctx, weeks); err != nil {
		return err
	}

	for _, kind := range []pool.Kind{pool.KindSU, pool.KindATS} {
		r, err := p.SubPool(kind)
		if err != nil {
			return err
		}
		printReport(os.Stdout, r)
	}

	picks, err := p.Picks()
	if err != nil {
		return err
	}
	return st.InsertPicks(ctx, picks)
}

func serve(ctx context.Context, cfg *config.Config, st *store.Store, log *logrus.Logger) error {
	var reports *cache.ReportCache
	if rdb := newRedis(cfg); rdb != nil {
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unavailable, report caching disabled")
		} else {
			reports = cache.NewReportCache(rdb, cfg.Redis.ReportTTL)
		}
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: api.NewServer(pool.Env{
			Config:   cfg,
			Registry: swami.DefaultRegistry(),
			Repo:     st,
			Picks:    st,
			Logger:   log,
		}, reports),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

func newRedis(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
