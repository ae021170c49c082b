package arena

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-battle/internal/ability"
	"github.com/xtding233/gacha-battle/internal/battle"
	"github.com/xtding233/gacha-battle/internal/card/cardtest"
	"github.com/xtding233/gacha-battle/internal/random"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newEngine(id string) *battle.Engine {
	return battle.New(battle.Config{
		ID:    id,
		Cards: cardtest.Catalog(),
		Abilities: ability.Registry{
			"strike": {ID: "strike", Kind: ability.KindDamage, Target: ability.TargetSingleEnemy, Amount: 1, AddSourcePower: true},
		},
		RNG:    random.NewSeeded(3),
		Logger: quiet(),
	})
}

func humanVsBot(botFirst bool) (*battle.Player, *battle.Player) {
	human := battle.NewPlayer("human", 30, cardtest.Deck("h"))
	bot := battle.NewPlayer("bot", 30, cardtest.Deck("b"))
	bot.Bot = true
	if botFirst {
		human.Qualification = 5
	} else {
		bot.Qualification = 5
	}
	return human, bot
}

func TestStartPlaysBotOpeningTurn(t *testing.T) {
	m := NewManager(Options{Logger: quiet()})
	human, bot := humanVsBot(true)

	v, err := m.Start(context.Background(), newEngine("b1"), human, bot)

	require.NoError(t, err)
	assert.Equal(t, "human", v.Current)
	assert.Equal(t, 2, v.Turn)
	assert.Equal(t, 1, m.Len())
}

func TestDoRunsBotAfterHuman(t *testing.T) {
	m := NewManager(Options{Logger: quiet()})
	human, bot := humanVsBot(false)
	_, err := m.Start(context.Background(), newEngine("b1"), human, bot)
	require.NoError(t, err)

	v, err := m.Do(context.Background(), "b1", func(e *battle.Engine) error {
		_, err := e.SkipTurn()
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, "human", v.Current)
	assert.Equal(t, 3, v.Turn)

	evs, err := m.Events("b1", 2)
	require.NoError(t, err)
	require.NotEmpty(t, evs)
	for _, ev := range evs {
		assert.GreaterOrEqual(t, ev.Turn, 2)
	}
}

func TestDoReturnsRejection(t *testing.T) {
	m := NewManager(Options{Logger: quiet()})
	human, bot := humanVsBot(false)
	_, err := m.Start(context.Background(), newEngine("b1"), human, bot)
	require.NoError(t, err)

	v, err := m.Do(context.Background(), "b1", func(e *battle.Engine) error {
		return e.PlayCard(nil, nil)
	})

	assert.ErrorIs(t, err, battle.ErrCardNotInHand)
	assert.Equal(t, 1, v.Turn, "bots do not act on a rejected move")
}

func TestUnknownSession(t *testing.T) {
	m := NewManager(Options{Logger: quiet()})
	_, err := m.View("nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Do(context.Background(), "nope", func(*battle.Engine) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMaxSessions(t *testing.T) {
	m := NewManager(Options{MaxSessions: 1, Logger: quiet()})
	h1, b1 := humanVsBot(false)
	_, err := m.Start(context.Background(), newEngine("a"), h1, b1)
	require.NoError(t, err)

	h2, b2 := humanVsBot(false)
	_, err = m.Start(context.Background(), newEngine("b"), h2, b2)
	assert.ErrorIs(t, err, ErrFull)
}

func TestFailedStartIsNotRegistered(t *testing.T) {
	m := NewManager(Options{Logger: quiet()})
	_, err := m.Start(context.Background(), newEngine("a"), battle.NewPlayer("x", 30, cardtest.Deck("x")), nil)
	assert.ErrorIs(t, err, battle.ErrMissingPlayer)
	assert.Equal(t, 0, m.Len())
}

func TestBotVersusBotFinishesOrStops(t *testing.T) {
	m := NewManager(Options{Logger: quiet()})
	a := battle.NewPlayer("a", 30, cardtest.Deck("a"))
	a.Bot = true
	b := battle.NewPlayer("b", 30, cardtest.Deck("b"))
	b.Bot = true

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = m.Start(context.Background(), newEngine("bots"), a, b)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("bot loop did not stop")
	}
}

func TestBotDelayRespectsContext(t *testing.T) {
	m := NewManager(Options{BotDelay: time.Hour, Logger: quiet()})
	human, bot := humanVsBot(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	v, err := m.Start(ctx, newEngine("slow"), human, bot)

	require.NoError(t, err)
	assert.Equal(t, "bot", v.Current, "cancelled before the bot could act")
}

func TestSweepDropsIdleSessions(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute, Logger: quiet()})
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	h, b := humanVsBot(false)
	_, err := m.Start(context.Background(), newEngine("old"), h, b)
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	assert.Equal(t, 0, m.Sweep())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	_, err = m.View("old")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCancelledBotTurnIsCaughtUp(t *testing.T) {
	m := NewManager(Options{BotDelay: time.Millisecond, Logger: quiet()})
	human, bot := humanVsBot(false)
	_, err := m.Start(context.Background(), newEngine("b1"), human, bot)
	require.NoError(t, err)

	gone, cancel := context.WithCancel(context.Background())
	cancel()
	v, err := m.Do(gone, "b1", func(e *battle.Engine) error {
		_, err := e.SkipTurn()
		return err
	})
	require.NoError(t, err)
	require.Equal(t, "bot", v.Current, "client left before the bot moved")

	v, err = m.Do(context.Background(), "b1", func(e *battle.Engine) error {
		if cur := e.Current(); cur == nil || cur.Name != "human" {
			return errors.New("human is not up")
		}
		_, err := e.SkipTurn()
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "human", v.Current)
	assert.Equal(t, 5, v.Turn)
}

func TestSweepDoesNotWaitOnBusySessions(t *testing.T) {
	m := NewManager(Options{TTL: time.Minute, Logger: quiet()})
	h, b := humanVsBot(false)
	_, err := m.Start(context.Background(), newEngine("busy"), h, b)
	require.NoError(t, err)

	s, err := m.get("busy")
	require.NoError(t, err)
	s.mu.Lock()
	defer s.mu.Unlock()

	done := make(chan int, 1)
	go func() { done <- m.Sweep() }()
	select {
	case n := <-done:
		assert.Equal(t, 0, n)
	case <-time.After(5 * time.Second):
		t.Fatal("sweep blocked on a session lock")
	}
	assert.Equal(t, 1, m.Len())
}
