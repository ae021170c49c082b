package battle

import (
	"sort"
	"sync"
)

// EventKind names a lifecycle notification for the presentation layer.
type EventKind string

const (
	EventBattleStart   EventKind = "battle_start"
	EventBattleEnd     EventKind = "battle_end"
	EventTurnStart     EventKind = "turn_start"
	EventTurnEnd       EventKind = "turn_end"
	EventPlayerDamaged EventKind = "player_damaged"
	EventPlayerHealed  EventKind = "player_healed"
	EventUnitDamaged   EventKind = "unit_damaged"
	EventUnitHealed    EventKind = "unit_healed"
	EventUnitDefeated  EventKind = "unit_defeated"
	EventStatusApplied EventKind = "status_applied"
	EventStatusExpired EventKind = "status_expired"
	EventCardDrawn     EventKind = "card_drawn"
	EventCardPlayed    EventKind = "card_played"
	EventChannelFired  EventKind = "channel_fired"
)

// Event is one notification. Fields not relevant to Kind are zero.
type Event struct {
	Kind   EventKind `json:"kind"`
	Turn   int       `json:"turn"`
	Player string    `json:"player,omitempty"`
	Unit   string    `json:"unit,omitempty"` // instance id
	Card   string    `json:"card,omitempty"`
	Status string    `json:"status,omitempty"`
	Amount int       `json:"amount,omitempty"`
}

// Bus fans events out to subscribers in subscription order.
type Bus struct {
	mu   sync.Mutex
	next int
	subs map[int]func(Event)
}

func NewBus() *Bus {
	return &Bus{subs: map[int]func(Event){}}
}

// Subscribe registers fn and returns the func that removes it. Tie the
// returned func to the subscriber's lifetime.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Len reports the number of live subscriptions.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus) publish(ev Event) {
	b.mu.Lock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Event), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, b.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
