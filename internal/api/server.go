// Package api serves pool reports and standings over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/utakatalp/football-pool/internal/cache"
	"github.com/utakatalp/football-pool/internal/league"
	"github.com/utakatalp/football-pool/internal/pool"
	"github.com/utakatalp/football-pool/internal/query"
)

// Server routes requests to pool tabulation and the game repository.
type Server struct {
	router  *mux.Router
	env     pool.Env
	reports *cache.ReportCache
	logger  logrus.FieldLogger
}

// NewServer wires the routes. reports may be nil to disable caching.
func NewServer(env pool.Env, reports *cache.ReportCache) *Server {
	if env.Logger == nil {
		env.Logger = logrus.StandardLogger()
	}
	s := &Server{
		router:  mux.NewRouter(),
		env:     env,
		reports: reports,
		logger:  env.Logger,
	}
	s.router.Use(s.logRequests)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/pools/{pool}/seasons/{season:[0-9]+}/{kind}", s.handleReport).Methods(http.MethodGet)
	s.router.HandleFunc("/seasons/{season:[0-9]+}/standings", s.handleStandings).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Debug("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	season, _ := strconv.Atoi(vars["season"])
	kind, err := pool.ParseKind(vars["kind"])
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	weeks, err := league.ParseWeeks(r.URL.Query().Get("weeks"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ctx := r.Context()
	key := cache.ReportKey(vars["pool"], season, kind, weeks)
	if s.reports != nil {
		cached, err := s.reports.Get(ctx, key)
		if err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("report cache read failed")
		} else if cached != nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	p, err := pool.FromConfig(vars["pool"], season, s.env)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := p.Tabulate(ctx, weeks); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	report, err := p.SubPool(kind)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	if s.reports != nil {
		if err := s.reports.Set(ctx, key, report); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("report cache write failed")
		}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleStandings(w http.ResponseWriter, r *http.Request) {
	season, _ := strconv.Atoi(mux.Vars(r)["season"])
	q := query.Query{}.Where(query.SeasonRange{From: season, To: season}, query.Completed{})
	games, err := s.env.Repo.Select(r.Context(), q)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, league.Standings(games))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, league.ErrConfig), errors.Is(err, league.ErrData):
		return http.StatusNotFound
	case errors.Is(err, league.ErrNotImplemented):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
