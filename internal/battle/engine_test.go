package battle

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-battle/internal/ability"
	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/card/cardtest"
	"github.com/xtding233/gacha-battle/internal/random"
)

func testAbilities() ability.Registry {
	return ability.Registry{
		"strike": {ID: "strike", Kind: ability.KindDamage, Target: ability.TargetSingleEnemy, Amount: 1, AddSourcePower: true},
		"mend":   {ID: "mend", Kind: ability.KindHeal, Target: ability.TargetAlly, Amount: 2, AddSourceHeal: true},
		"rally": {ID: "rally", Kind: ability.KindComposite, Children: []ability.Definition{
			{Kind: ability.KindDrawCard, Count: 1},
			{Kind: ability.KindHeal, Target: ability.TargetPlayer, Amount: 2},
		}},
	}
}

func newTestEngine(t *testing.T, rng random.Source) *Engine {
	t.Helper()
	if rng == nil {
		rng = random.NewSeeded(7)
	}
	return New(Config{
		ID:        "test",
		Cards:     cardtest.Catalog(),
		Abilities: testAbilities(),
		RNG:       rng,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

// started returns an engine where alice (qualification 3) moves first
// against bob (qualification 5).
func started(t *testing.T) (*Engine, *Player, *Player) {
	t.Helper()
	e := newTestEngine(t, nil)
	alice := NewPlayer("alice", 30, cardtest.Deck("a"))
	alice.Qualification = 3
	bob := NewPlayer("bob", 30, cardtest.Deck("b", "5A01", "5A02", "5B01"))
	bob.Qualification = 5
	require.NoError(t, e.StartBattle(alice, bob))
	return e, alice, bob
}

func handCard(t *testing.T, p *Player, id string) *Unit {
	t.Helper()
	def, err := cardtest.Catalog().Lookup(id)
	require.NoError(t, err)
	u := newUnit(def, p)
	p.Hand = append(p.Hand, u)
	return u
}

func TestStartBattleLowerQualificationGoesFirst(t *testing.T) {
	e, alice, bob := started(t)

	assert.Equal(t, StatePlayerTurn, e.State())
	assert.Same(t, alice, e.Current())
	assert.True(t, alice.IsTurn)
	assert.False(t, bob.IsTurn)
	assert.Equal(t, 1, e.Turn())
	assert.Len(t, alice.Hand, 1, "first turn draws once")
	assert.Empty(t, bob.Hand)
	assert.Len(t, alice.Living(), 3)
	assert.Len(t, alice.DrawPile, card.DeckSupports-1)
}

func TestStartBattleHigherQualificationMovesSecond(t *testing.T) {
	e := newTestEngine(t, nil)
	a := NewPlayer("a", 30, cardtest.Deck("a"))
	a.Qualification = 9
	b := NewPlayer("b", 30, cardtest.Deck("b"))
	b.Qualification = 2
	require.NoError(t, e.StartBattle(a, b))
	assert.Same(t, b, e.Current())
}

func TestStartBattleTieIsCoinFlip(t *testing.T) {
	seen := map[string]bool{}
	for seed := uint64(0); seed < 40; seed++ {
		e := newTestEngine(t, random.NewSeeded(seed))
		a := NewPlayer("a", 30, cardtest.Deck("a"))
		b := NewPlayer("b", 30, cardtest.Deck("b"))
		require.NoError(t, e.StartBattle(a, b))
		seen[e.Current().Name] = true
	}
	assert.True(t, seen["a"] && seen["b"], "both players should win the flip at least once")
}

func TestStartBattleTwice(t *testing.T) {
	e, alice, bob := started(t)
	assert.ErrorIs(t, e.StartBattle(alice, bob), ErrBattleStarted)
}

func TestStartBattleNeedsTwoPlayers(t *testing.T) {
	e := newTestEngine(t, nil)
	assert.ErrorIs(t, e.StartBattle(NewPlayer("a", 30, cardtest.Deck("a")), nil), ErrMissingPlayer)
	assert.Equal(t, StateNotStarted, e.State())
}

func TestActionsBeforeStart(t *testing.T) {
	e := newTestEngine(t, nil)
	_, err := e.SkipTurn()
	assert.ErrorIs(t, err, ErrNotPlayerTurn)
	assert.ErrorIs(t, e.PlayCard(nil, nil), ErrNotPlayerTurn)
	assert.ErrorIs(t, e.EndTurn(), ErrNotPlayerTurn)
}

func TestPlayCardInsufficientHP(t *testing.T) {
	e, alice, _ := started(t)
	alice.HP = 5
	u := newUnit(card.Definition{ID: "3X99", Name: "Costly", Type: card.TypeSpecial, Rarity: 3, Cost: 10}, alice)
	alice.Hand = append(alice.Hand, u)

	err := e.PlayCard(u, nil)

	assert.ErrorIs(t, err, ErrInsufficientHP)
	assert.Equal(t, 5, alice.HP)
	assert.Equal(t, 1, e.Turn())
	assert.Same(t, alice, e.Current())
	assert.True(t, alice.InHand(u))
}

func TestPlayCardRejections(t *testing.T) {
	e, alice, bob := started(t)

	primary := handCard(t, alice, "5A02")
	assert.ErrorIs(t, e.PlayCard(primary, nil), ErrPrimaryNotPlayable)

	spark := handCard(t, alice, "4A01")
	assert.ErrorIs(t, e.PlayCard(spark, nil), ErrInvalidTarget)
	assert.ErrorIs(t, e.PlayCard(spark, spark), ErrInvalidTarget, "hand cards are not targets")

	dead := bob.Field[0]
	dead.Dead = true
	assert.ErrorIs(t, e.PlayCard(spark, dead), ErrInvalidTarget)

	notMine := handCard(t, bob, "4A01")
	assert.ErrorIs(t, e.PlayCard(notMine, bob.Field[1]), ErrCardNotInHand)

	assert.Equal(t, 30, alice.HP)
	assert.Equal(t, 1, e.Turn())
}

func TestPlaySupportCard(t *testing.T) {
	e, alice, bob := started(t)
	spark := handCard(t, alice, "4A01")
	target := bob.Field[0]

	require.NoError(t, e.PlayCard(spark, target))

	assert.Equal(t, 28, alice.HP, "cost paid from the HP pool")
	assert.Equal(t, 20-3, target.Health, "amount 1 plus source power 2")
	assert.False(t, alice.InHand(spark))
	assert.Same(t, bob, e.Current())
	assert.Equal(t, 2, e.Turn())
	assert.Len(t, bob.Hand, 1)
}

func TestPlaySpecialCard(t *testing.T) {
	e, alice, _ := started(t)
	before := len(alice.Hand)
	rally := handCard(t, alice, "3X01")

	require.NoError(t, e.PlayCard(rally, nil))

	assert.Equal(t, 30-3+2, alice.HP)
	assert.Len(t, alice.Hand, before+1, "drew one, played one")
}

func TestPayingLastHPLosesTheBattle(t *testing.T) {
	e, alice, bob := started(t)
	alice.HP = 2
	spark := handCard(t, alice, "4A01")

	require.NoError(t, e.PlayCard(spark, bob.Field[0]))

	assert.Equal(t, StateBattleEnd, e.State())
	assert.Same(t, bob, e.Winner())
	assert.False(t, alice.IsTurn)
	assert.False(t, bob.IsTurn)
	_, err := e.SkipTurn()
	assert.ErrorIs(t, err, ErrNotPlayerTurn)
}

func TestDamageKillsUnit(t *testing.T) {
	e, _, bob := started(t)
	u := bob.Field[0]
	u.Health = 10

	dealt := e.DealDamage(nil, u, 15)

	assert.Equal(t, 10, dealt)
	assert.Equal(t, 0, u.Health)
	assert.True(t, u.Dead)
	assert.Len(t, bob.Living(), 2)
	assert.Equal(t, 0, e.DealDamage(nil, u, 5), "dead units take no damage")
}

func TestShieldAbsorbsDamage(t *testing.T) {
	e, _, bob := started(t)
	u := bob.Field[2]
	for points := 0; points <= 10; points++ {
		for incoming := 0; incoming <= 15; incoming++ {
			u.Health = u.MaxHealth
			u.statuses = nil
			shield := NewShield(points, 0)
			require.True(t, e.AddStatus(u, shield))

			e.DealDamage(nil, u, incoming)

			left := max(0, points-incoming)
			assert.Equal(t, left, shield.Points, "points=%d incoming=%d", points, incoming)
			_, attached := u.Status("shield")
			assert.Equal(t, left > 0, attached, "points=%d incoming=%d", points, incoming)
			assert.Equal(t, u.MaxHealth-max(0, incoming-points), u.Health, "points=%d incoming=%d", points, incoming)
		}
	}
}

func TestDefenseAppliesAfterHooks(t *testing.T) {
	e, _, bob := started(t)
	u := bob.Field[0]
	u.Defense = 2
	e.AddStatus(u, NewShield(3, 0))

	assert.Equal(t, 1, e.DealDamage(nil, u, 6))
	assert.Equal(t, 0, e.DealDamage(nil, u, 1), "defense floors at zero")
}

func TestAttackBuffAddsToOutgoingDamage(t *testing.T) {
	e, alice, bob := started(t)
	src := alice.Field[0]
	e.AddStatus(src, NewAttackBuff(2, 0))

	assert.Equal(t, 5, e.DealDamage(src, bob.Field[0], 3))
}

func TestReflectNegatesHits(t *testing.T) {
	e, _, bob := started(t)
	u := bob.Field[0]
	e.AddStatus(u, NewReflect(1, 0))

	assert.Equal(t, 0, e.DealDamage(nil, u, 8))
	_, ok := u.Status("reflect")
	assert.False(t, ok, "single charge is spent")
	assert.Equal(t, 8, e.DealDamage(nil, u, 8))
}

func TestNonStackableStatusReplaces(t *testing.T) {
	e, _, bob := started(t)
	u := bob.Field[0]
	e.AddStatus(u, NewShield(3, 0))
	e.AddStatus(u, NewShield(9, 0))

	require.Len(t, u.Statuses(), 1)
	assert.Equal(t, 9, u.Statuses()[0].(*Shield).Points)
}

func TestPoisonTicksAtTurnStart(t *testing.T) {
	e, _, bob := started(t)
	u := bob.Field[0]
	e.AddStatus(u, NewPoison(2, 2))

	_, err := e.SkipTurn()
	require.NoError(t, err)
	assert.Equal(t, 18, u.Health)

	_, err = e.SkipTurn()
	require.NoError(t, err)
	assert.Equal(t, 16, u.Health)
}

func TestStatModifierRevertsOnExpiry(t *testing.T) {
	e, alice, _ := started(t)
	u := alice.Field[0]
	e.AddStatus(u, NewStatModifier(ability.StatPower, 3, 1))
	assert.Equal(t, 7, u.Power)

	_, err := e.SkipTurn()
	require.NoError(t, err)
	assert.Equal(t, 7, u.Power, "not ticked on the turn it was applied")

	_, err = e.SkipTurn()
	require.NoError(t, err)
	assert.Equal(t, 4, u.Power)
	assert.Empty(t, u.Statuses())
}

func TestChannelFiresAfterWait(t *testing.T) {
	e, alice, bob := started(t)
	channel := &ability.Definition{
		ID:       "slow",
		Kind:     ability.KindChannel,
		Wait:     3,
		Deferred: &ability.Definition{Kind: ability.KindDamage, Target: ability.TargetAllEnemies, Amount: 7},
	}
	var firedAt []int
	unsubscribe := e.Events().Subscribe(func(ev Event) {
		if ev.Kind == EventChannelFired {
			firedAt = append(firedAt, ev.Turn)
		}
	})
	defer unsubscribe()

	start := e.Turn()
	e.Activate(channel, Context{Source: alice.Field[0], Player: alice})
	require.Equal(t, 1, e.PendingInvocations())

	for i := 0; i < 3; i++ {
		_, err := e.SkipTurn()
		require.NoError(t, err)
		assert.Equal(t, 20, bob.Field[0].Health, "fired early after %d boundaries", i+1)
	}
	_, err := e.SkipTurn()
	require.NoError(t, err)

	assert.Equal(t, []int{start + 3}, firedAt)
	assert.Equal(t, 0, e.PendingInvocations())
	assert.Equal(t, 13, bob.Field[0].Health)
	assert.Equal(t, 11, bob.Field[1].Health)
	assert.Equal(t, 18, bob.Field[2].Health)
}

func TestChannelFromHandFiresFromChanneler(t *testing.T) {
	e, alice, _ := started(t)
	idle := handCard(t, alice, "3X02")
	channeler := alice.Living()[0]
	channel := &ability.Definition{
		Kind: ability.KindChannel,
		Wait: 1,
		Deferred: &ability.Definition{
			Kind:   ability.KindApplyStatus,
			ToSelf: true,
			Status: &ability.StatusSpec{Kind: ability.StatusShield, Magnitude: 5},
		},
	}
	e.Activate(channel, Context{Source: idle, Player: alice})
	require.Equal(t, 1, e.PendingInvocations())

	for i := 0; i < 2; i++ {
		_, err := e.SkipTurn()
		require.NoError(t, err)
	}

	assert.Equal(t, 0, e.PendingInvocations())
	s, ok := channeler.Status("shield")
	require.True(t, ok, "deferred status lands on the channeling unit")
	assert.Equal(t, 5, s.(*Shield).Points)
}

func TestChannelDroppedWhenChannelerDies(t *testing.T) {
	e, alice, bob := started(t)
	channel := &ability.Definition{
		Kind:     ability.KindChannel,
		Wait:     1,
		Deferred: &ability.Definition{Kind: ability.KindDamage, Target: ability.TargetAllEnemies, Amount: 7},
	}
	e.Activate(channel, Context{Source: alice.Field[0], Player: alice})
	e.DealDamage(nil, alice.Field[0], 100)

	assert.Equal(t, 0, e.PendingInvocations())
	for i := 0; i < 3; i++ {
		_, err := e.SkipTurn()
		require.NoError(t, err)
	}
	assert.Equal(t, 20, bob.Field[0].Health)
}

func TestSkipTurnHealsAndAdvances(t *testing.T) {
	for seed := uint64(0); seed < 60; seed++ {
		e := newTestEngine(t, random.NewSeeded(seed))
		a := NewPlayer("a", 30, cardtest.Deck("a"))
		b := NewPlayer("b", 30, cardtest.Deck("b"))
		require.NoError(t, e.StartBattle(a, b))
		for step := 0; step < 3; step++ {
			p := e.Current()
			p.HP = 1
			turn := e.Turn()

			heal, err := e.SkipTurn()

			require.NoError(t, err)
			assert.GreaterOrEqual(t, heal, 3)
			assert.LessOrEqual(t, heal, 5)
			assert.Equal(t, 1+heal, p.HP)
			assert.Equal(t, turn+1, e.Turn())
			assert.NotSame(t, p, e.Current())
		}
	}
}

func TestSkipTurnClampsToMaxHP(t *testing.T) {
	e, alice, _ := started(t)
	_, err := e.SkipTurn()
	require.NoError(t, err)
	assert.Equal(t, 30, alice.HP)
}

func TestTurnsInHandAges(t *testing.T) {
	e, alice, _ := started(t)
	first := alice.Hand[0]
	assert.Equal(t, 0, first.TurnsInHand)

	_, _ = e.SkipTurn()
	_, _ = e.SkipTurn()

	assert.Equal(t, 1, first.TurnsInHand)
	assert.Len(t, alice.Hand, 2)
	assert.Equal(t, 0, alice.Hand[1].TurnsInHand)
}

func TestEmptyDrawPile(t *testing.T) {
	e, alice, _ := started(t)
	alice.DrawPile = nil
	hand := len(alice.Hand)

	_, _ = e.SkipTurn()
	_, err := e.SkipTurn()

	require.NoError(t, err)
	assert.Len(t, alice.Hand, hand)
}

func TestDefeatOnFieldWipe(t *testing.T) {
	e := New(Config{
		Cards:  cardtest.Catalog(),
		Rules:  Rules{StartingHP: 30, SkipHealMin: 3, SkipHealMax: 5, DefeatOnFieldWipe: true},
		RNG:    random.NewSeeded(1),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	a := NewPlayer("a", 30, cardtest.Deck("a"))
	a.Qualification = 1
	b := NewPlayer("b", 30, cardtest.Deck("b"))
	b.Qualification = 2
	require.NoError(t, e.StartBattle(a, b))

	for _, u := range b.Living() {
		e.DealDamage(nil, u, 100)
	}
	assert.True(t, e.CheckDefeat())
	assert.Same(t, a, e.Winner())
}

func TestFieldWipeIgnoredByDefault(t *testing.T) {
	e, alice, bob := started(t)
	for _, u := range bob.Living() {
		e.DealDamage(nil, u, 100)
	}
	assert.False(t, e.CheckDefeat())
	assert.Nil(t, e.Winner())
	assert.Same(t, alice, e.Current())
}

func TestFindUnit(t *testing.T) {
	e, alice, bob := started(t)
	u, ok := e.FindUnit(bob.Field[1].InstanceID)
	require.True(t, ok)
	assert.Same(t, bob.Field[1], u)

	u, ok = e.FindUnit(alice.Hand[0].InstanceID)
	require.True(t, ok)
	assert.Same(t, alice.Hand[0], u)

	_, ok = e.FindUnit("nope")
	assert.False(t, ok)
}

func TestDeckWithUnknownCardsStillStarts(t *testing.T) {
	e := newTestEngine(t, nil)
	deck := cardtest.Deck("a")
	deck.Cards[3] = "9Z99"
	a := NewPlayer("a", 30, deck)
	b := NewPlayer("b", 30, cardtest.Deck("b"))
	b.Qualification = 1
	require.NoError(t, e.StartBattle(a, b))
	assert.Len(t, a.DrawPile, card.DeckSupports-2)
}

func TestViewSnapshot(t *testing.T) {
	e, alice, bob := started(t)
	e.AddStatus(bob.Field[0], NewShield(4, 2))

	v := e.View()

	assert.Equal(t, "test", v.ID)
	assert.Equal(t, StatePlayerTurn, v.State)
	assert.Equal(t, alice.Name, v.Current)
	assert.Empty(t, v.Winner)
	assert.Len(t, v.Players[0].Hand, 1)
	require.NotNil(t, v.Players[1].Field[0])
	assert.Equal(t, []StatusView{{ID: "shield", Name: "Shield", Remaining: 2}}, v.Players[1].Field[0].Statuses)

	v.Players[0].HP = 0
	assert.Equal(t, 30, alice.HP)
}
