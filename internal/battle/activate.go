package battle

import (
	"github.com/xtding233/gacha-battle/internal/ability"
)

// Context is what an ability sees when it resolves: the card that caused it,
// an optional chosen target and the acting player.
type Context struct {
	Source *Unit
	Target *Unit
	Player *Player
}

// Activate evaluates an ability graph. Illegal targets make the node a
// logged no-op; they never abort the enclosing composite.
func (e *Engine) Activate(def *ability.Definition, ctx Context) {
	if def == nil || e.State() == StateBattleEnd {
		return
	}
	switch def.Kind {
	case ability.KindDamage:
		e.activateDamage(def, ctx)
	case ability.KindHeal:
		e.activateHeal(def, ctx)
	case ability.KindApplyStatus:
		e.activateStatus(def, ctx)
	case ability.KindBuffDebuff:
		e.activateBuff(def, ctx)
	case ability.KindCondition:
		if e.conditionHolds(def, ctx) {
			e.Activate(def.Success, ctx)
		} else {
			e.Activate(def.Fail, ctx)
		}
	case ability.KindComposite:
		for i := range def.Children {
			e.Activate(&def.Children[i], ctx)
		}
	case ability.KindChannel:
		e.activateChannel(def, ctx)
	case ability.KindDrawCard:
		for range max(def.Count, 1) {
			e.draw(ctx.Player)
		}
	case ability.KindGeneric:
		e.log.Info("ability", "id", def.ID, "description", def.Description, "card", sourceCard(ctx.Source))
	case ability.KindScript:
		e.runScript(def, ctx)
	default:
		e.log.Warn("unknown ability kind", "id", def.ID, "kind", def.Kind)
	}
}

func (e *Engine) noop(def *ability.Definition, reason string) {
	e.log.Warn("ability had no effect", "id", def.ID, "kind", def.Kind, "reason", reason)
}

func (e *Engine) enemies(ctx Context) []*Unit {
	if opp := e.Opponent(ctx.Player); opp != nil {
		return opp.Living()
	}
	return nil
}

func (e *Engine) activateDamage(def *ability.Definition, ctx Context) {
	amount := def.Amount
	if def.AddSourcePower && ctx.Source != nil {
		amount += ctx.Source.Power
	}
	switch def.Target {
	case ability.TargetAllEnemies:
		for _, u := range e.enemies(ctx) {
			e.DealDamage(ctx.Source, u, amount)
		}
	case ability.TargetSingleEnemy, "":
		if !ctx.Target.OnField() {
			e.noop(def, "no living target")
			return
		}
		e.DealDamage(ctx.Source, ctx.Target, amount)
	default:
		e.noop(def, "unsupported damage target "+string(def.Target))
	}
}

func (e *Engine) activateHeal(def *ability.Definition, ctx Context) {
	amount := def.Amount
	if def.AddSourceHeal && ctx.Source != nil {
		amount += ctx.Source.Card.Heal
	}
	switch def.Target {
	case ability.TargetSelf:
		if !ctx.Source.OnField() {
			e.noop(def, "source is not on the field")
			return
		}
		e.HealUnit(ctx.Source, amount)
	case ability.TargetAlly, "":
		if !ctx.Target.OnField() || ctx.Target.Owner != ctx.Player {
			e.noop(def, "target is not a living ally")
			return
		}
		e.HealUnit(ctx.Target, amount)
	case ability.TargetAllAllies:
		for _, u := range ctx.Player.Living() {
			e.HealUnit(u, amount)
		}
	case ability.TargetPlayer:
		e.healPlayer(ctx.Player, amount)
	default:
		e.noop(def, "unsupported heal target "+string(def.Target))
	}
}

func (e *Engine) activateStatus(def *ability.Definition, ctx Context) {
	var targets []*Unit
	switch {
	case def.ToAllEnemies:
		targets = e.enemies(ctx)
	case def.ToSelf:
		targets = []*Unit{ctx.Source}
	case def.ToTarget:
		targets = []*Unit{ctx.Target}
	}
	applied := 0
	for _, u := range targets {
		if !u.OnField() {
			continue
		}
		s, err := NewStatus(*def.Status)
		if err != nil {
			e.log.Warn("status not built", "id", def.ID, "err", err)
			return
		}
		if e.AddStatus(u, s) {
			applied++
		}
	}
	if applied == 0 {
		e.noop(def, "no living unit to receive status")
	}
}

func (e *Engine) activateBuff(def *ability.Definition, ctx Context) {
	u := ctx.Target
	if u == nil {
		u = ctx.Source
	}
	if !u.OnField() {
		e.noop(def, "no living unit to modify")
		return
	}
	if def.Duration <= 0 {
		switch def.Stat {
		case ability.StatPower:
			u.Power += def.Delta
		case ability.StatDefense:
			u.Defense += def.Delta
		}
		return
	}
	e.AddStatus(u, NewStatModifier(def.Stat, def.Delta, def.Duration))
}

func (e *Engine) conditionHolds(def *ability.Definition, ctx Context) bool {
	switch def.Condition {
	case ability.ConditionChance:
		return e.rng.Float64() <= def.Threshold
	case ability.ConditionChargeLevel:
		return ctx.Source != nil && float64(ctx.Source.Card.Charge) >= def.Threshold
	case ability.ConditionTurnsInHand:
		return ctx.Source != nil && float64(ctx.Source.TurnsInHand) >= def.Threshold
	}
	e.log.Warn("unknown condition", "id", def.ID, "condition", def.Condition)
	return false
}

// activateChannel parks the deferred ability on the source if it is on the
// field, otherwise on the acting player's first living primary. The unit it
// is parked on becomes the source when it fires.
func (e *Engine) activateChannel(def *ability.Definition, ctx Context) {
	on := ctx.Source
	if !on.OnField() {
		on = nil
		if living := ctx.Player.Living(); len(living) > 0 {
			on = living[0]
		}
	}
	if on == nil {
		e.noop(def, "no living unit to channel")
		return
	}
	name := def.Description
	if name == "" {
		name = "Channel"
	}
	ctx.Source = on
	e.channel(on, def.Deferred, def.Wait, name, ctx)
}

// chance is exposed to scripts.
func (e *Engine) chance(p float64) bool { return e.rng.Float64() <= p }

