// Package arena keeps live battles. Each session owns one engine and
// serializes every action on it; bot turns are driven after each action.
package arena

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xtding233/gacha-battle/internal/battle"
)

var (
	ErrNotFound = errors.New("battle session not found")
	ErrFull     = errors.New("too many battle sessions")
)

// maxBotSteps bounds bot actions per call so two bots cannot spin forever.
const maxBotSteps = 200

// maxEvents is how many recent events a session keeps for polling clients.
const maxEvents = 256

// Options configure a Manager. Zero values mean no limit, no expiry and no
// bot delay.
type Options struct {
	MaxSessions int
	TTL         time.Duration
	BotDelay    time.Duration
	Logger      *slog.Logger
}

// Manager owns every live session. Lock order is m.mu before s.mu; nothing
// takes m.mu while holding a session lock.
type Manager struct {
	opts Options
	log  *slog.Logger
	now  func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu          sync.Mutex
	engine      *battle.Engine
	events      []battle.Event
	unsubscribe func()
	touched     atomic.Int64 // unix nanos, read by Sweep without s.mu
}

func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Manager{
		opts:     opts,
		log:      opts.Logger,
		now:      time.Now,
		sessions: map[string]*session{},
	}
}

// Start begins a battle on e and registers it under e.ID(). If a bot moves
// first its turns are played before Start returns.
func (m *Manager) Start(ctx context.Context, e *battle.Engine, p1, p2 *battle.Player) (battle.View, error) {
	s := &session{engine: e}
	s.touch(m.now())
	s.unsubscribe = e.Events().Subscribe(s.record)

	m.mu.Lock()
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		s.unsubscribe()
		return battle.View{}, ErrFull
	}
	if _, dup := m.sessions[e.ID()]; dup {
		m.mu.Unlock()
		s.unsubscribe()
		return battle.View{}, fmt.Errorf("battle %s already registered", e.ID())
	}
	m.sessions[e.ID()] = s
	// s is new, so this cannot wait on another holder.
	s.mu.Lock()
	m.mu.Unlock()

	if err := e.StartBattle(p1, p2); err != nil {
		s.mu.Unlock()
		m.remove(e.ID())
		return battle.View{}, err
	}
	defer s.mu.Unlock()
	m.log.Info("battle session started", "battle", e.ID(), "p1", p1.Name, "p2", p2.Name)
	m.driveBots(ctx, s)
	return e.View(), nil
}

// Do runs fn against the session's engine under its lock, then lets bots
// respond. Bot turns left pending by an earlier cancelled request are played
// before fn. The returned view reflects the state after bots acted. An error
// from fn is returned with the view; bots do not act on a rejected move.
func (m *Manager) Do(ctx context.Context, id string, fn func(*battle.Engine) error) (battle.View, error) {
	s, err := m.get(id)
	if err != nil {
		return battle.View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(m.now())

	m.driveBots(ctx, s)
	if err := fn(s.engine); err != nil {
		return s.engine.View(), err
	}
	m.driveBots(ctx, s)
	return s.engine.View(), nil
}

// View snapshots a session without acting.
func (m *Manager) View(id string) (battle.View, error) {
	s, err := m.get(id)
	if err != nil {
		return battle.View{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.View(), nil
}

// Events returns the recorded events with Turn >= sinceTurn.
func (m *Manager) Events(id string, sinceTurn int) ([]battle.Event, error) {
	s, err := m.get(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []battle.Event
	for _, ev := range s.events {
		if ev.Turn >= sinceTurn {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Sweep drops sessions idle longer than the TTL and returns how many went.
func (m *Manager) Sweep() int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.TTL).UnixNano()
	var stale []string
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.touched.Load() < cutoff {
			stale = append(stale, id)
		}
	}
	m.mu.Unlock()
	for _, id := range stale {
		m.remove(id)
	}
	if len(stale) > 0 {
		m.log.Info("expired battle sessions", "count", len(stale))
	}
	return len(stale)
}

// Run sweeps periodically until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	if m.opts.TTL <= 0 {
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(max(m.opts.TTL/4, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (m *Manager) get(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s, nil
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.unsubscribe()
	}
}

// driveBots plays bot turns until a human is up, the battle ends or ctx is
// cancelled. The caller holds s.mu.
func (m *Manager) driveBots(ctx context.Context, s *session) {
	e := s.engine
	for step := 0; step < maxBotSteps; step++ {
		cur := e.Current()
		if e.State() != battle.StatePlayerTurn || cur == nil || !cur.Bot {
			return
		}
		if m.opts.BotDelay > 0 {
			t := time.NewTimer(m.opts.BotDelay)
			select {
			case <-ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		} else if ctx.Err() != nil {
			return
		}
		action := battle.PlanBotAction(e)
		if err := action.Apply(e); err != nil {
			m.log.Warn("bot action failed, skipping", "battle", e.ID(), "player", cur.Name, "err", err)
			if _, err := e.SkipTurn(); err != nil {
				return
			}
		}
	}
	m.log.Warn("bot step limit reached", "battle", e.ID())
}

func (s *session) touch(t time.Time) { s.touched.Store(t.UnixNano()) }

func (s *session) record(ev battle.Event) {
	s.events = append(s.events, ev)
	if len(s.events) > maxEvents {
		s.events = append([]battle.Event(nil), s.events[len(s.events)-maxEvents:]...)
	}
}
