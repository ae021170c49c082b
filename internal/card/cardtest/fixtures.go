// Package cardtest provides a small catalog shared by tests.
package cardtest

import (
	"fmt"

	"github.com/xtding233/gacha-battle/internal/card"
)

// Defs returns four primaries, two support cards and two special cards.
func Defs() []card.Definition {
	return []card.Definition{
		{ID: "5A01", Name: "Aster", Power: 4, Health: 20, Defense: 0, Charge: 2},
		{ID: "5A02", Name: "Brine", Power: 3, Health: 18, Charge: 0},
		{ID: "5A03", Name: "Cinder", Power: 5, Health: 15, Charge: 1},
		{ID: "5B01", Name: "Dusk", Power: 2, Health: 25},
		{ID: "4A01", Name: "Spark", Power: 2, Cost: 2, Ability: "strike"},
		{ID: "3A01", Name: "Mend", Cost: 1, Heal: 1, Ability: "mend"},
		{ID: "3X01", Name: "Rally", Cost: 3, Ability: "rally"},
		{ID: "3X02", Name: "Idle", Cost: 0},
	}
}

// Catalog builds a catalog from Defs and panics on error.
func Catalog() *card.Catalog {
	c, err := card.NewCatalog(Defs())
	if err != nil {
		panic(fmt.Sprintf("cardtest: %v", err))
	}
	return c
}

// Deck returns a valid 23-card deck using the given primaries.
func Deck(id string, primaries ...string) card.Deck {
	if len(primaries) == 0 {
		primaries = []string{"5A01", "5A02", "5A03"}
	}
	d := card.Deck{ID: id, Name: id}
	d.Cards = append(d.Cards, primaries...)
	fill := []string{"4A01", "3A01", "3X01", "3X02"}
	for i := 0; i < card.DeckSupports; i++ {
		d.Cards = append(d.Cards, fill[i%len(fill)])
	}
	return d
}
