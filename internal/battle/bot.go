package battle

import "github.com/xtding233/gacha-battle/internal/card"

// Action is one decision for the current player.
type Action struct {
	Card   *Unit
	Target *Unit
	Skip   bool
}

// PlanBotAction picks the first playable card that does not empty the HP
// pool. Support cards aim at the weakest living enemy. With nothing
// playable the bot skips to heal.
func PlanBotAction(e *Engine) Action {
	p := e.Current()
	if p == nil || e.State() != StatePlayerTurn {
		return Action{Skip: true}
	}
	target := weakest(e.Opponent(p).Living())
	for _, u := range p.Hand {
		if u.Card.Cost >= p.HP {
			continue
		}
		var t *Unit
		if u.Card.Type == card.TypeSupport {
			t = target
		}
		if e.CanPlayCard(u, t) == nil {
			return Action{Card: u, Target: t}
		}
	}
	return Action{Skip: true}
}

func weakest(units []*Unit) *Unit {
	var best *Unit
	for _, u := range units {
		if best == nil || u.Health < best.Health {
			best = u
		}
	}
	return best
}

// Apply performs a on e.
func (a Action) Apply(e *Engine) error {
	if a.Skip || a.Card == nil {
		_, err := e.SkipTurn()
		return err
	}
	return e.PlayCard(a.Card, a.Target)
}
