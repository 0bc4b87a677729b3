// Package swami holds the prediction engines competing in a pool and the
// registry that builds them from configuration.
package swami

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/utakatalp/football-pool/internal/analysis"
	"github.com/utakatalp/football-pool/internal/config"
	"github.com/utakatalp/football-pool/internal/league"
)

// Swami picks games. A nil pick with a nil error means the swami declined,
// usually for lack of data.
type Swami interface {
	Name() string
	AboutMe() string
	Pick(ctx context.Context, gc league.GameContext) (*league.Pick, error)
}

// PickSource returns the most recent persisted pick for a swami and game.
type PickSource interface {
	LatestPick(ctx context.Context, swami string, gameID int64) (*league.Pick, error)
}

// Deps are the collaborators handed to swami constructors.
type Deps struct {
	Games  analysis.Repository
	Picks  PickSource
	Logger logrus.FieldLogger
}

// Base carries the identity every swami shares.
type Base struct {
	name    string
	aboutMe string
}

func NewBase(name, aboutMe string) Base {
	return Base{name: name, aboutMe: aboutMe}
}

func (b Base) Name() string    { return b.name }
func (b Base) AboutMe() string { return b.aboutMe }

// Params are merged class and swami parameters. Keys are lower case.
type Params map[string]any

// Int returns the integer parameter, 0 if absent.
func (p Params) Int(key string) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("%w: parameter %s: %v", league.ErrConfig, key, err)
	}
	return n, nil
}

func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: parameter %s: %v", league.ErrConfig, key, err)
	}
	return s, nil
}

func (p Params) Strings(key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	ss, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: parameter %s: %v", league.ErrConfig, key, err)
	}
	return ss, nil
}

// Constructor builds a swami of one class.
type Constructor func(base Base, params Params, deps Deps) (Swami, error)

// Registry maps class names to constructors.
type Registry struct {
	ctors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// DefaultRegistry has every built-in class registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("SwamiVsAll", NewVsAll)
	r.Register("SwamiVsTeam", NewVsTeam)
	r.Register("SwamiVsDiv", NewVsDiv)
	r.Register("SwamiVsConf", NewVsConf)
	r.Register("SwamiLasVegas", NewLasVegas)
	r.Register("SwamiExtData", NewExtData)
	r.Register("SwamiHuman", NewHuman)
	r.Register("SwamiInteract", NewInteract)
	return r
}

func (r *Registry) Register(class string, ctor Constructor) {
	r.ctors[class] = ctor
}

// Classes lists the registered class names.
func (r *Registry) Classes() []string {
	out := make([]string, 0, len(r.ctors))
	for c := range r.ctors {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// New builds the named swami. Parameters are layered: class defaults, then
// the swami's own parameters, then overrides.
func (r *Registry) New(name string, cfg *config.Config, deps Deps, overrides Params) (Swami, error) {
	sc, err := cfg.Swami(name)
	if err != nil {
		return nil, err
	}
	ctor, ok := r.ctors[sc.Class]
	if !ok {
		return nil, fmt.Errorf("%w: swami class %q for swami %q is not known", league.ErrConfig, sc.Class, name)
	}

	params := Params{}
	if class, ok := cfg.SwamiClass(sc.Class); ok {
		mergeParams(params, class.ClassParams)
	}
	mergeParams(params, sc.Params)
	mergeParams(params, overrides)

	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	deps.Logger = deps.Logger.WithField("swami", name)

	s, err := ctor(Base{name: name, aboutMe: sc.AboutMe}, params, deps)
	if err != nil {
		return nil, fmt.Errorf("creating swami %q: %w", name, err)
	}
	return s, nil
}

func mergeParams(dst Params, src map[string]any) {
	for k, v := range src {
		dst[strings.ToLower(k)] = v
	}
}

// NewHuman is reserved for picks entered by people.
func NewHuman(Base, Params, Deps) (Swami, error) {
	return nil, fmt.Errorf("%w: human swamis", league.ErrNotImplemented)
}

// NewInteract is reserved for picks entered interactively at run time.
func NewInteract(Base, Params, Deps) (Swami, error) {
	return nil, fmt.Errorf("%w: interactive swamis", league.ErrNotImplemented)
}
