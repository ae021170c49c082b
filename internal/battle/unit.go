package battle

import (
	"github.com/google/uuid"

	"github.com/xtding233/gacha-battle/internal/card"
)

// Unit is a card instance in a hand or on the field. Health and statuses only
// matter for Primary units on the field.
type Unit struct {
	InstanceID  string
	Card        card.Definition
	Owner       *Player // back-reference, not ownership
	Health      int
	MaxHealth   int
	Power       int
	Defense     int
	TurnsInHand int
	Dead        bool

	statuses []*attachment
}

// attachment records when a status was applied so it is not ticked on the
// boundary of the turn it arrived in.
type attachment struct {
	status Status
	turn   int
}

func newUnit(def card.Definition, owner *Player) *Unit {
	return &Unit{
		InstanceID: uuid.NewString(),
		Card:       def,
		Owner:      owner,
		Health:     def.Health,
		MaxHealth:  def.Health,
		Power:      def.Power,
		Defense:    def.Defense,
	}
}

// OnField reports whether the unit is a living Primary.
func (u *Unit) OnField() bool {
	return u != nil && u.Card.IsPrimary() && !u.Dead
}

// Statuses returns the active statuses in application order.
func (u *Unit) Statuses() []Status {
	out := make([]Status, 0, len(u.statuses))
	for _, a := range u.statuses {
		out = append(out, a.status)
	}
	return out
}

// Status returns the first active status with id.
func (u *Unit) Status(id string) (Status, bool) {
	for _, a := range u.statuses {
		if a.status.ID() == id {
			return a.status, true
		}
	}
	return nil, false
}
