package battle

import "github.com/xtding233/gacha-battle/internal/card"

// FieldSize is the number of Primary slots per player.
const FieldSize = 3

// Player is one side of a battle. HP is the resource pool card costs are
// paid from; it is not unit health.
type Player struct {
	Name          string
	HP            int
	MaxHP         int
	Hand          []*Unit
	Field         [FieldSize]*Unit
	DrawPile      []string
	Qualification int
	Bot           bool
	IsTurn        bool
	Deck          card.Deck
}

// NewPlayer returns a player at full HP holding deck.
func NewPlayer(name string, maxHP int, deck card.Deck) *Player {
	return &Player{Name: name, HP: maxHP, MaxHP: maxHP, Deck: deck}
}

// Defeated reports whether the HP pool is exhausted.
func (p *Player) Defeated() bool { return p.HP <= 0 }

// Living returns the living field units in slot order.
func (p *Player) Living() []*Unit {
	var out []*Unit
	for _, u := range p.Field {
		if u.OnField() {
			out = append(out, u)
		}
	}
	return out
}

// InHand reports whether u is in this player's hand.
func (p *Player) InHand(u *Unit) bool {
	return p.handIndex(u) >= 0
}

func (p *Player) handIndex(u *Unit) int {
	for i, h := range p.Hand {
		if h == u {
			return i
		}
	}
	return -1
}

func (p *Player) removeFromHand(u *Unit) bool {
	i := p.handIndex(u)
	if i < 0 {
		return false
	}
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return true
}

func (p *Player) place(u *Unit) bool {
	for i, slot := range p.Field {
		if slot == nil {
			p.Field[i] = u
			return true
		}
	}
	return false
}

func (p *Player) hasPrimaries() bool {
	for _, u := range p.Field {
		if u != nil {
			return true
		}
	}
	return false
}
