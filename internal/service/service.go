// Package service is the application layer shared by the HTTP and gRPC
// transports: profiles and decks, gacha pulls against stored profiles and
// battle orchestration through the arena.
package service

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/xtding233/gacha-battle/internal/arena"
	"github.com/xtding233/gacha-battle/internal/gamedata"
	"github.com/xtding233/gacha-battle/internal/profile"
	"github.com/xtding233/gacha-battle/internal/random"
	"github.com/xtding233/gacha-battle/internal/telemetry"
)

var (
	ErrRateLimited  = errors.New("too many requests")
	ErrInvalidCount = errors.New("pull count must be 1 or 10")
	ErrUnknownUnit  = errors.New("unknown unit")
	ErrNoDeck       = errors.New("deck not found")
	ErrCardNotOwned = errors.New("card not owned")
	ErrNotYourTurn  = errors.New("not this player's turn")
	ErrInvalidInput = errors.New("invalid input")
)

// DataSource yields the game data currently in service. gamedata.Live
// satisfies it.
type DataSource interface {
	Current() *gamedata.Data
}

// Resolver resolves a banner with rate overrides. *gamedata.Loader
// satisfies it.
type Resolver interface {
	Resolve(banner string, o gamedata.Overrides) (*gamedata.Data, error)
}

// Options configure a Service. Store, Data and Arena are required.
type Options struct {
	Store    profile.Store
	Data     DataSource
	Resolver Resolver
	Arena    *arena.Manager
	RNG      random.Source
	Logger   *slog.Logger

	StartingTickets int
	// PullsPerSecond <= 0 disables rate limiting.
	PullsPerSecond float64
	PullBurst      int
}

type Service struct {
	store    profile.Store
	data     DataSource
	resolver Resolver
	arena    *arena.Manager
	rng      random.Source
	log      *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time

	startingTickets int
	limit           rate.Limit
	burst           int

	mu    sync.Mutex
	users map[string]*user
}

// user serializes load-modify-save of one profile and throttles its pulls.
// refs and limiter are guarded by Service.mu.
type user struct {
	mu      sync.Mutex
	refs    int
	limiter *rate.Limiter
}

func New(opts Options) *Service {
	if opts.RNG == nil {
		opts.RNG = random.Default()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	limit := rate.Inf
	if opts.PullsPerSecond > 0 {
		limit = rate.Limit(opts.PullsPerSecond)
	}
	burst := opts.PullBurst
	if burst <= 0 {
		burst = 1
	}
	return &Service{
		store:           opts.Store,
		data:            opts.Data,
		resolver:        opts.Resolver,
		arena:           opts.Arena,
		rng:             opts.RNG,
		log:             opts.Logger,
		tracer:          telemetry.Tracer(),
		now:             time.Now,
		startingTickets: opts.StartingTickets,
		limit:           limit,
		burst:           burst,
		users:           map[string]*user{},
	}
}

// pruneAt is the tracked-user count that triggers a sweep of idle entries.
const pruneAt = 1024

// acquire pins the entry for id until release. Entries live only while in
// use or while their limiter still remembers recent pulls.
func (s *Service) acquire(id string) *user {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		u = &user{}
		s.users[id] = u
	}
	u.refs++
	return u
}

func (s *Service) release(id string, u *user) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.refs--
	if s.idle(u) {
		delete(s.users, id)
	}
	if len(s.users) >= pruneAt {
		for k, v := range s.users {
			if s.idle(v) {
				delete(s.users, k)
			}
		}
	}
}

// idle reports whether dropping u loses nothing: nobody holds it and its
// bucket has refilled. The caller holds s.mu.
func (s *Service) idle(u *user) bool {
	if u.refs > 0 {
		return false
	}
	return u.limiter == nil || u.limiter.TokensAt(time.Now()) >= float64(s.burst)
}

// lockUser takes the per-user lock and returns the user with its release.
func (s *Service) lockUser(id string) (*user, func()) {
	u := s.acquire(id)
	u.mu.Lock()
	return u, func() {
		u.mu.Unlock()
		s.release(id, u)
	}
}

// allowPull spends a token from u's bucket. Buckets are created on first
// use, after the profile is known to exist.
func (s *Service) allowPull(u *user) bool {
	if s.limit == rate.Inf {
		return true
	}
	s.mu.Lock()
	if u.limiter == nil {
		u.limiter = rate.NewLimiter(s.limit, s.burst)
	}
	l := u.limiter
	s.mu.Unlock()
	return l.Allow()
}

// trackedUsers is the number of per-user entries held.
func (s *Service) trackedUsers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
