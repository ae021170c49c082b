// Package battle runs one two-player card battle: turn order, card play,
// the damage pipeline, statuses and ability evaluation.
package battle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/xtding233/gacha-battle/internal/ability"
	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/random"
)

var (
	ErrNotPlayerTurn      = errors.New("battle is not in a player turn")
	ErrInsufficientHP     = errors.New("not enough hp to pay card cost")
	ErrPrimaryNotPlayable = errors.New("primary cards cannot be played from hand")
	ErrInvalidTarget      = errors.New("support card needs a living primary target")
	ErrCardNotInHand      = errors.New("card is not in the current player's hand")
	ErrBattleStarted      = errors.New("battle already started")
	ErrMissingPlayer      = errors.New("battle needs two players")
)

// State is the coarse battle lifecycle.
type State string

const (
	StateNotStarted       State = "not_started"
	StateDeterminingOrder State = "determining_order"
	StatePlayerTurn       State = "player_turn"
	StateBattleEnd        State = "battle_end"
)

const (
	evBegin  = "begin"
	evOrder  = "order_decided"
	evFinish = "finish"
)

// Rules are the tunable battle constants.
type Rules struct {
	StartingHP  int `yaml:"starting_hp" json:"starting_hp"`
	SkipHealMin int `yaml:"skip_heal_min" json:"skip_heal_min"`
	SkipHealMax int `yaml:"skip_heal_max" json:"skip_heal_max"`
	// DefeatOnFieldWipe also ends the battle when a player has no living
	// primaries left.
	DefeatOnFieldWipe bool `yaml:"defeat_on_field_wipe" json:"defeat_on_field_wipe"`
}

func DefaultRules() Rules {
	return Rules{StartingHP: 30, SkipHealMin: 3, SkipHealMax: 5}
}

// AbilitySource resolves ability ids referenced by cards.
type AbilitySource interface {
	Ability(id string) (*ability.Definition, bool)
}

// Config wires an engine. Cards is required; the rest default.
type Config struct {
	ID        string
	Cards     card.Lookup
	Abilities AbilitySource
	Rules     Rules
	RNG       random.Source
	Logger    *slog.Logger
}

// invocation is a channel's saved context waiting to fire.
type invocation struct {
	def *ability.Definition
	ctx Context
}

// Engine owns both players and all battle state. It is not safe for
// concurrent use; callers serialize access per battle.
type Engine struct {
	id        string
	cards     card.Lookup
	abilities AbilitySource
	rules     Rules
	rng       random.Source
	log       *slog.Logger
	bus       *Bus
	machine   *fsm.FSM

	p1, p2  *Player
	current *Player
	winner  *Player
	turn    int

	invocations map[string]*invocation
}

func New(cfg Config) *Engine {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Abilities == nil {
		cfg.Abilities = ability.Registry{}
	}
	if cfg.Rules == (Rules{}) {
		cfg.Rules = DefaultRules()
	}
	if cfg.RNG == nil {
		cfg.RNG = random.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	e := &Engine{
		id:          cfg.ID,
		cards:       cfg.Cards,
		abilities:   cfg.Abilities,
		rules:       cfg.Rules,
		rng:         cfg.RNG,
		log:         cfg.Logger.With("battle", cfg.ID),
		bus:         NewBus(),
		invocations: map[string]*invocation{},
	}
	e.machine = fsm.NewFSM(string(StateNotStarted), fsm.Events{
		{Name: evBegin, Src: []string{string(StateNotStarted)}, Dst: string(StateDeterminingOrder)},
		{Name: evOrder, Src: []string{string(StateDeterminingOrder)}, Dst: string(StatePlayerTurn)},
		{Name: evFinish, Src: []string{string(StateDeterminingOrder), string(StatePlayerTurn)}, Dst: string(StateBattleEnd)},
	}, fsm.Callbacks{})
	return e
}

func (e *Engine) ID() string          { return e.id }
func (e *Engine) State() State        { return State(e.machine.Current()) }
func (e *Engine) Turn() int           { return e.turn }
func (e *Engine) Rules() Rules        { return e.rules }
func (e *Engine) Events() *Bus        { return e.bus }
func (e *Engine) Current() *Player    { return e.current }
func (e *Engine) Winner() *Player     { return e.winner }
func (e *Engine) Players() [2]*Player { return [2]*Player{e.p1, e.p2} }

// Opponent returns the other player, or nil before the battle starts.
func (e *Engine) Opponent(p *Player) *Player {
	switch p {
	case e.p1:
		return e.p2
	case e.p2:
		return e.p1
	}
	return nil
}

func (e *Engine) transition(event string) {
	from := e.machine.Current()
	if err := e.machine.Event(context.Background(), event); err != nil {
		e.log.Error("battle state transition failed", "event", event, "from", from, "err", err)
		return
	}
	e.log.Debug("battle state", "from", from, "to", e.machine.Current())
}

func (e *Engine) emit(ev Event) {
	ev.Turn = e.turn
	e.bus.publish(ev)
}

// StartBattle sets up both players, decides turn order and begins the first
// turn. The lower Qualification goes first; ties are a coin flip.
func (e *Engine) StartBattle(p1, p2 *Player) error {
	if e.State() != StateNotStarted {
		e.log.Warn("start rejected", "state", e.State())
		return ErrBattleStarted
	}
	if p1 == nil || p2 == nil || p1 == p2 {
		return ErrMissingPlayer
	}
	e.p1, e.p2 = p1, p2
	e.transition(evBegin)

	e.setupPlayer(p1)
	e.setupPlayer(p2)

	first := p1
	switch {
	case p1.Qualification < p2.Qualification:
	case p1.Qualification > p2.Qualification:
		first = p2
	default:
		if random.IntN(e.rng, 2) == 1 {
			first = p2
		}
	}
	e.current = first
	first.IsTurn = true
	e.turn = 1
	e.transition(evOrder)
	e.log.Info("battle started", "first", first.Name, "p1", p1.Name, "p2", p2.Name)

	for _, p := range []*Player{first, e.Opponent(first)} {
		for _, u := range p.Living() {
			e.activatePassive(u)
		}
	}
	e.emit(Event{Kind: EventBattleStart, Player: first.Name})
	if e.CheckDefeat() {
		return nil
	}
	e.beginTurn()
	return nil
}

func (e *Engine) setupPlayer(p *Player) {
	if p.MaxHP <= 0 {
		p.MaxHP = e.rules.StartingHP
	}
	if p.HP <= 0 || p.HP > p.MaxHP {
		p.HP = p.MaxHP
	}
	p.Hand = nil
	p.Field = [FieldSize]*Unit{}
	p.DrawPile = nil
	p.IsTurn = false

	for _, id := range p.Deck.Cards {
		def, err := e.cards.Lookup(id)
		if err != nil {
			e.log.Warn("deck card skipped", "player", p.Name, "card", id, "err", err)
			continue
		}
		if !def.IsPrimary() {
			p.DrawPile = append(p.DrawPile, id)
			continue
		}
		if !p.place(newUnit(def, p)) {
			e.log.Warn("field full, primary skipped", "player", p.Name, "card", id)
		}
	}
	random.Shuffle(e.rng, p.DrawPile)
}

func (e *Engine) activatePassive(u *Unit) {
	if u.Card.Passive == "" {
		return
	}
	def, ok := e.abilities.Ability(u.Card.Passive)
	if !ok {
		e.log.Warn("passive ability not found", "card", u.Card.ID, "ability", u.Card.Passive)
		return
	}
	e.Activate(def, Context{Source: u, Player: u.Owner})
}

// beginTurn ages the hand, draws, runs turn-start hooks and announces the turn.
func (e *Engine) beginTurn() {
	p := e.current
	for _, u := range p.Hand {
		u.TurnsInHand++
	}
	e.draw(p)
	e.forEachFieldUnit(func(u *Unit) {
		for _, a := range append([]*attachment(nil), u.statuses...) {
			if u.Dead {
				return
			}
			a.status.OnTurnStart(e, u)
		}
		e.prune(u)
	})
	e.emit(Event{Kind: EventTurnStart, Player: p.Name})
	e.CheckDefeat()
}

// Draw moves the top of p's draw pile into the hand. An empty pile is not an
// error and returns nil.
func (e *Engine) draw(p *Player) *Unit {
	if len(p.DrawPile) == 0 {
		e.log.Debug("draw pile empty", "player", p.Name)
		return nil
	}
	id := p.DrawPile[0]
	p.DrawPile = p.DrawPile[1:]
	def, err := e.cards.Lookup(id)
	if err != nil {
		e.log.Warn("drawn card missing", "player", p.Name, "card", id, "err", err)
		return nil
	}
	u := newUnit(def, p)
	p.Hand = append(p.Hand, u)
	e.emit(Event{Kind: EventCardDrawn, Player: p.Name, Unit: u.InstanceID, Card: id})
	return u
}

// CanPlayCard reports why u cannot be played by the current player, or nil.
func (e *Engine) CanPlayCard(u, target *Unit) error {
	if e.State() != StatePlayerTurn || e.current == nil {
		return ErrNotPlayerTurn
	}
	p := e.current
	if u == nil || !p.InHand(u) {
		return ErrCardNotInHand
	}
	if u.Card.Cost > p.HP {
		return ErrInsufficientHP
	}
	switch u.Card.Type {
	case card.TypePrimary:
		return ErrPrimaryNotPlayable
	case card.TypeSupport:
		if !target.OnField() {
			return ErrInvalidTarget
		}
	}
	return nil
}

// PlayCard pays the cost, resolves the card's ability and ends the turn.
func (e *Engine) PlayCard(u, target *Unit) error {
	if err := e.CanPlayCard(u, target); err != nil {
		attrs := []any{"err", err}
		if u != nil {
			attrs = append(attrs, "card", u.Card.ID)
		}
		e.log.Warn("play rejected", attrs...)
		return err
	}
	p := e.current
	e.payCost(p, u.Card.Cost)
	ev := Event{Kind: EventCardPlayed, Player: p.Name, Unit: u.InstanceID, Card: u.Card.ID}
	e.emit(ev)
	e.log.Info("card played", "player", p.Name, "card", u.Card.ID, "target", targetID(target))

	if u.Card.Ability != "" {
		if def, ok := e.abilities.Ability(u.Card.Ability); ok {
			e.Activate(def, Context{Source: u, Target: target, Player: p})
		} else {
			e.log.Warn("card ability not found", "card", u.Card.ID, "ability", u.Card.Ability)
		}
	}
	p.removeFromHand(u)

	if e.CheckDefeat() {
		return nil
	}
	return e.EndTurn()
}

// SkipTurn heals the current player by a roll in [SkipHealMin, SkipHealMax]
// and ends the turn. It returns the rolled amount before clamping to MaxHP.
func (e *Engine) SkipTurn() (int, error) {
	if e.State() != StatePlayerTurn {
		e.log.Warn("skip rejected", "state", e.State())
		return 0, ErrNotPlayerTurn
	}
	heal := random.Between(e.rng, e.rules.SkipHealMin, e.rules.SkipHealMax)
	e.log.Info("turn skipped", "player", e.current.Name, "heal", heal)
	e.healPlayer(e.current, heal)
	return heal, e.EndTurn()
}

// EndTurn runs turn-end hooks, swaps the current player and starts the next
// turn.
func (e *Engine) EndTurn() error {
	if e.State() != StatePlayerTurn {
		return ErrNotPlayerTurn
	}
	p := e.current
	e.emit(Event{Kind: EventTurnEnd, Player: p.Name})

	e.forEachFieldUnit(func(u *Unit) {
		for _, a := range append([]*attachment(nil), u.statuses...) {
			if u.Dead || e.State() == StateBattleEnd {
				return
			}
			// applied this turn: first tick is next boundary
			if a.turn >= e.turn {
				continue
			}
			a.status.OnTurnEnd(e, u)
		}
		e.prune(u)
	})
	if e.CheckDefeat() {
		return nil
	}

	p.IsTurn = false
	e.current = e.Opponent(p)
	e.current.IsTurn = true
	e.turn++
	e.beginTurn()
	return nil
}

// CheckDefeat ends the battle if either player is defeated, checking the
// current player first. It reports whether the battle is over.
func (e *Engine) CheckDefeat() bool {
	if e.State() == StateBattleEnd {
		return true
	}
	if e.p1 == nil || e.p2 == nil {
		return false
	}
	order := []*Player{e.p1, e.p2}
	if e.current == e.p2 {
		order = []*Player{e.p2, e.p1}
	}
	for _, p := range order {
		lost := p.Defeated()
		if !lost && e.rules.DefeatOnFieldWipe {
			lost = p.hasPrimaries() && len(p.Living()) == 0
		}
		if lost {
			e.finish(e.Opponent(p))
			return true
		}
	}
	return false
}

func (e *Engine) finish(winner *Player) {
	e.winner = winner
	e.p1.IsTurn = false
	e.p2.IsTurn = false
	e.invocations = map[string]*invocation{}
	e.transition(evFinish)
	e.log.Info("battle ended", "winner", winner.Name, "turn", e.turn)
	e.emit(Event{Kind: EventBattleEnd, Player: winner.Name})
}

// FindUnit resolves an instance id on either side, in hand or on the field.
func (e *Engine) FindUnit(instanceID string) (*Unit, bool) {
	for _, p := range []*Player{e.p1, e.p2} {
		if p == nil {
			continue
		}
		for _, u := range p.Field {
			if u != nil && u.InstanceID == instanceID {
				return u, true
			}
		}
		for _, u := range p.Hand {
			if u.InstanceID == instanceID {
				return u, true
			}
		}
	}
	return nil, false
}

func (e *Engine) forEachFieldUnit(fn func(u *Unit)) {
	for _, p := range []*Player{e.p1, e.p2} {
		for _, u := range p.Field {
			if u.OnField() {
				fn(u)
			}
		}
	}
}

func (e *Engine) payCost(p *Player, cost int) {
	if cost <= 0 {
		return
	}
	p.HP -= cost
	e.emit(Event{Kind: EventPlayerDamaged, Player: p.Name, Amount: cost})
}

func (e *Engine) healPlayer(p *Player, amount int) int {
	if amount <= 0 {
		return 0
	}
	before := p.HP
	p.HP = min(p.MaxHP, p.HP+amount)
	healed := p.HP - before
	e.emit(Event{Kind: EventPlayerHealed, Player: p.Name, Amount: healed})
	return healed
}

// DealDamage runs the damage pipeline: source deal hooks, target take hooks,
// then defense. It returns the health actually removed.
func (e *Engine) DealDamage(source, target *Unit, amount int) int {
	if !target.OnField() {
		return 0
	}
	if source.OnField() {
		for _, a := range source.statuses {
			a.status.OnDealDamage(source, &amount)
		}
		e.prune(source)
	}
	for _, a := range target.statuses {
		a.status.OnTakeDamage(target, &amount)
	}
	e.prune(target)
	amount = max(amount-target.Defense, 0)
	return e.loseHealth(target, amount)
}

// loseHealth removes health directly, bypassing hooks and defense.
func (e *Engine) loseHealth(u *Unit, amount int) int {
	if !u.OnField() || amount <= 0 {
		return 0
	}
	amount = min(amount, u.Health)
	u.Health -= amount
	e.emit(Event{Kind: EventUnitDamaged, Player: u.Owner.Name, Unit: u.InstanceID, Card: u.Card.ID, Amount: amount})
	if u.Health <= 0 {
		e.defeatUnit(u)
	}
	return amount
}

func (e *Engine) defeatUnit(u *Unit) {
	u.Health = 0
	u.Dead = true
	for _, a := range u.statuses {
		if r, ok := a.status.(remover); ok {
			r.OnRemove(e, u)
		}
	}
	u.statuses = nil
	e.log.Info("unit defeated", "player", u.Owner.Name, "card", u.Card.ID)
	e.emit(Event{Kind: EventUnitDefeated, Player: u.Owner.Name, Unit: u.InstanceID, Card: u.Card.ID})
}

// HealUnit restores health up to the unit's maximum.
func (e *Engine) HealUnit(u *Unit, amount int) int {
	if !u.OnField() || amount <= 0 {
		return 0
	}
	before := u.Health
	u.Health = min(u.MaxHealth, u.Health+amount)
	healed := u.Health - before
	e.emit(Event{Kind: EventUnitHealed, Player: u.Owner.Name, Unit: u.InstanceID, Card: u.Card.ID, Amount: healed})
	return healed
}

// AddStatus attaches s to a living field unit. A non-stackable status
// replaces an existing one with the same id.
func (e *Engine) AddStatus(u *Unit, s Status) bool {
	if !u.OnField() || s == nil {
		return false
	}
	if !s.Stackable() {
		for i, a := range u.statuses {
			if a.status.ID() == s.ID() {
				e.removeAt(u, i)
				break
			}
		}
	}
	if m, ok := s.(*StatModifier); ok {
		m.apply(u, 1)
	}
	u.statuses = append(u.statuses, &attachment{status: s, turn: e.turn})
	e.emit(Event{Kind: EventStatusApplied, Player: u.Owner.Name, Unit: u.InstanceID, Card: u.Card.ID, Status: s.ID()})
	return true
}

func (e *Engine) removeAt(u *Unit, i int) {
	s := u.statuses[i].status
	u.statuses = append(u.statuses[:i], u.statuses[i+1:]...)
	if r, ok := s.(remover); ok {
		r.OnRemove(e, u)
	}
	e.emit(Event{Kind: EventStatusExpired, Player: u.Owner.Name, Unit: u.InstanceID, Card: u.Card.ID, Status: s.ID()})
}

// prune removes expired statuses, running their removal hooks.
func (e *Engine) prune(u *Unit) {
	for i := 0; i < len(u.statuses); {
		if u.statuses[i].status.Expired() {
			e.removeAt(u, i)
			continue
		}
		i++
	}
}

// channel saves ctx and attaches a Channel status that fires def after wait
// turn boundaries.
func (e *Engine) channel(on *Unit, def *ability.Definition, wait int, name string, ctx Context) string {
	id := uuid.NewString()
	e.invocations[id] = &invocation{def: def, ctx: ctx}
	if !e.AddStatus(on, newChannel(id, name, wait)) {
		delete(e.invocations, id)
		return ""
	}
	return id
}

func (e *Engine) fire(id string) {
	inv, ok := e.invocations[id]
	if !ok {
		return
	}
	delete(e.invocations, id)
	if e.State() != StatePlayerTurn {
		return
	}
	e.emit(Event{Kind: EventChannelFired, Player: inv.ctx.Player.Name, Card: sourceCard(inv.ctx.Source)})
	e.Activate(inv.def, inv.ctx)
}

func (e *Engine) dropInvocation(id string) { delete(e.invocations, id) }

// PendingInvocations is the number of channels waiting to fire.
func (e *Engine) PendingInvocations() int { return len(e.invocations) }

func targetID(u *Unit) string {
	if u == nil {
		return ""
	}
	return u.InstanceID
}

func sourceCard(u *Unit) string {
	if u == nil {
		return ""
	}
	return u.Card.ID
}

func (s State) String() string { return string(s) }
