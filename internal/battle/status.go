package battle

import (
	"fmt"

	"github.com/xtding233/gacha-battle/internal/ability"
)

// Status is a timed modifier attached to a field unit. Hooks receive the
// engine so statuses can deal damage or fire deferred effects.
type Status interface {
	ID() string
	Name() string
	// Remaining is the number of turn boundaries left, or 0 for permanent.
	Remaining() int
	Stackable() bool
	Expired() bool

	OnTurnStart(e *Engine, u *Unit)
	OnTurnEnd(e *Engine, u *Unit)
	// OnTakeDamage and OnDealDamage may rewrite the in-flight amount.
	OnTakeDamage(u *Unit, amount *int)
	OnDealDamage(u *Unit, amount *int)
}

// remover is implemented by statuses that undo something when they leave a
// unit, whether by expiry, replacement or the unit's death.
type remover interface {
	OnRemove(e *Engine, u *Unit)
}

// timed is the shared countdown for statuses. Duration 0 never counts down.
type timed struct {
	id        string
	name      string
	remaining int
	permanent bool
	stackable bool
	done      bool
}

func newTimed(id, name string, duration int, stackable bool) timed {
	if name == "" {
		name = id
	}
	return timed{id: id, name: name, remaining: duration, permanent: duration <= 0, stackable: stackable}
}

func (t *timed) ID() string      { return t.id }
func (t *timed) Name() string    { return t.name }
func (t *timed) Remaining() int  { return t.remaining }
func (t *timed) Stackable() bool { return t.stackable }
func (t *timed) Expired() bool   { return t.done }

func (t *timed) OnTurnStart(*Engine, *Unit) {}

func (t *timed) OnTurnEnd(*Engine, *Unit) { t.tick() }

func (t *timed) OnTakeDamage(*Unit, *int) {}
func (t *timed) OnDealDamage(*Unit, *int) {}

func (t *timed) tick() {
	if t.permanent || t.done {
		return
	}
	t.remaining--
	if t.remaining <= 0 {
		t.remaining = 0
		t.done = true
	}
}

// Shield absorbs incoming damage until its points run out.
type Shield struct {
	timed
	Points int
}

func NewShield(points, duration int) *Shield {
	return &Shield{timed: newTimed(string(ability.StatusShield), "Shield", duration, false), Points: points}
}

func (s *Shield) OnTakeDamage(_ *Unit, amount *int) {
	absorbed := min(s.Points, max(*amount, 0))
	s.Points -= absorbed
	*amount -= absorbed
	if s.Points <= 0 {
		s.Points = 0
		s.done = true
	}
}

// AttackBuff adds a flat bonus to outgoing damage.
type AttackBuff struct {
	timed
	Bonus int
}

func NewAttackBuff(bonus, duration int) *AttackBuff {
	return &AttackBuff{timed: newTimed(string(ability.StatusAttackBuff), "Attack Up", duration, false), Bonus: bonus}
}

func (b *AttackBuff) OnDealDamage(_ *Unit, amount *int) { *amount += b.Bonus }

// Poison drains health at the start of every turn, bypassing shields and
// defense.
type Poison struct {
	timed
	PerTurn int
}

func NewPoison(perTurn, duration int) *Poison {
	return &Poison{timed: newTimed(string(ability.StatusPoison), "Poison", duration, false), PerTurn: perTurn}
}

func (p *Poison) OnTurnStart(e *Engine, u *Unit) { e.loseHealth(u, p.PerTurn) }

// Reflect negates incoming hits. Charges <= 0 means unlimited until expiry.
type Reflect struct {
	timed
	Charges int
	limited bool
}

func NewReflect(charges, duration int) *Reflect {
	return &Reflect{
		timed:   newTimed(string(ability.StatusReflect), "Reflect", duration, false),
		Charges: charges,
		limited: charges > 0,
	}
}

func (r *Reflect) OnTakeDamage(_ *Unit, amount *int) {
	if *amount <= 0 {
		return
	}
	*amount = 0
	if !r.limited {
		return
	}
	r.Charges--
	if r.Charges <= 0 {
		r.done = true
	}
}

// StatModifier is a temporary power/defense change reverted on removal.
type StatModifier struct {
	timed
	Stat  ability.Stat
	Delta int
}

func NewStatModifier(stat ability.Stat, delta, duration int) *StatModifier {
	id := "stat:" + string(stat)
	return &StatModifier{timed: newTimed(id, fmt.Sprintf("%s %+d", stat, delta), duration, true), Stat: stat, Delta: delta}
}

func (m *StatModifier) apply(u *Unit, sign int) {
	switch m.Stat {
	case ability.StatPower:
		u.Power += sign * m.Delta
	case ability.StatDefense:
		u.Defense += sign * m.Delta
	}
}

func (m *StatModifier) OnRemove(_ *Engine, u *Unit) { m.apply(u, -1) }

// Channel holds a deferred ability and fires it when the wait elapses. The
// saved context lives in the engine's invocation table under Invocation.
type Channel struct {
	timed
	Invocation string
}

func newChannel(invocation, name string, wait int) *Channel {
	if wait < 1 {
		wait = 1
	}
	return &Channel{timed: newTimed("channel:"+invocation, name, wait, true), Invocation: invocation}
}

func (c *Channel) OnTurnEnd(e *Engine, _ *Unit) {
	c.tick()
	if c.done {
		e.fire(c.Invocation)
	}
}

// OnRemove drops the invocation when the channeler dies before it fires.
// Firing already removed it, so this is a no-op after a normal expiry.
func (c *Channel) OnRemove(e *Engine, _ *Unit) { e.dropInvocation(c.Invocation) }

// NewStatus builds a status instance from a data template.
func NewStatus(spec ability.StatusSpec) (Status, error) {
	var s Status
	switch spec.Kind {
	case ability.StatusShield:
		s = NewShield(spec.Magnitude, spec.Duration)
	case ability.StatusAttackBuff:
		s = NewAttackBuff(spec.Magnitude, spec.Duration)
	case ability.StatusPoison:
		s = NewPoison(spec.Magnitude, spec.Duration)
	case ability.StatusReflect:
		s = NewReflect(spec.Magnitude, spec.Duration)
	default:
		return nil, fmt.Errorf("unknown status kind %q", spec.Kind)
	}
	if t := embeddedTimed(s); t != nil {
		if spec.ID != "" {
			t.id = spec.ID
		}
		if spec.Name != "" {
			t.name = spec.Name
		}
		t.stackable = spec.Stackable
	}
	return s, nil
}

func embeddedTimed(s Status) *timed {
	switch v := s.(type) {
	case *Shield:
		return &v.timed
	case *AttackBuff:
		return &v.timed
	case *Poison:
		return &v.timed
	case *Reflect:
		return &v.timed
	}
	return nil
}
