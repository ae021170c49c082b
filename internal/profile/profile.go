// Package profile holds the persisted player profile and the store contract
// engines use to load and save it.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/xtding233/gacha-battle/internal/card"
)

var (
	ErrNotFound = errors.New("profile not found")
	ErrExists   = errors.New("profile already exists")
)

// Profile is a user's persisted state. Engines read and write fields; the
// store decides the encoding.
type Profile struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Tickets     int            `json:"tickets"`
	FirstGacha  bool           `json:"is_first_gacha"` // first-time 5-star bonus still unused
	SpookStreak int            `json:"spook_streak"`
	PullCount   int            `json:"pull_count"`
	Owned       map[string]int `json:"owned"`
	Decks       []card.Deck    `json:"decks"`
	CurrentDeck string         `json:"current_deck"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// New returns a fresh profile with the first-time bonus available.
func New(id, name string, tickets int, now time.Time) *Profile {
	return &Profile{
		ID:          id,
		DisplayName: name,
		Tickets:     tickets,
		FirstGacha:  true,
		Owned:       map[string]int{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddOwned records one more copy of a card.
func (p *Profile) AddOwned(id string) {
	if p.Owned == nil {
		p.Owned = map[string]int{}
	}
	p.Owned[id]++
}

// Deck returns the deck with id, or the current deck when id is empty.
func (p *Profile) Deck(id string) (card.Deck, bool) {
	if id == "" {
		id = p.CurrentDeck
	}
	for _, d := range p.Decks {
		if d.ID == id {
			return d, true
		}
	}
	return card.Deck{}, false
}

// PutDeck inserts or replaces a deck by id.
func (p *Profile) PutDeck(d card.Deck) {
	for i := range p.Decks {
		if p.Decks[i].ID == d.ID {
			p.Decks[i] = d
			return
		}
	}
	p.Decks = append(p.Decks, d)
}

// Clone returns a deep copy so callers can mutate without aliasing a store.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Owned = make(map[string]int, len(p.Owned))
	for k, v := range p.Owned {
		cp.Owned[k] = v
	}
	cp.Decks = make([]card.Deck, len(p.Decks))
	for i, d := range p.Decks {
		d.Cards = append([]string(nil), d.Cards...)
		cp.Decks[i] = d
	}
	return &cp
}

// Store persists profiles.
type Store interface {
	Get(ctx context.Context, id string) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
	Save(ctx context.Context, p *Profile) error
}
