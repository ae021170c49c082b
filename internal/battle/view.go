package battle

// View is a read-only snapshot of a battle for presentation and transport.
type View struct {
	ID      string        `json:"id"`
	State   State         `json:"state"`
	Turn    int           `json:"turn"`
	Current string        `json:"current,omitempty"`
	Winner  string        `json:"winner,omitempty"`
	Players [2]PlayerView `json:"players"`
	Pending int           `json:"pending_channels"`
}

type PlayerView struct {
	Name          string      `json:"name"`
	HP            int         `json:"hp"`
	MaxHP         int         `json:"max_hp"`
	Hand          []UnitView  `json:"hand"`
	Field         []*UnitView `json:"field"` // nil for an empty slot
	DrawPile      int         `json:"draw_pile"`
	Qualification int         `json:"qualification"`
	Bot           bool        `json:"bot"`
	IsTurn        bool        `json:"is_turn"`
}

type UnitView struct {
	InstanceID  string       `json:"instance_id"`
	CardID      string       `json:"card_id"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Cost        int          `json:"cost"`
	Power       int          `json:"power"`
	Defense     int          `json:"defense"`
	Health      int          `json:"health"`
	MaxHealth   int          `json:"max_health"`
	TurnsInHand int          `json:"turns_in_hand"`
	Dead        bool         `json:"dead"`
	Statuses    []StatusView `json:"statuses,omitempty"`
}

type StatusView struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Remaining int    `json:"remaining"`
	Stackable bool   `json:"stackable"`
}

// View snapshots the battle. The result shares no memory with the engine.
func (e *Engine) View() View {
	v := View{ID: e.id, State: e.State(), Turn: e.turn, Pending: len(e.invocations)}
	if e.current != nil {
		v.Current = e.current.Name
	}
	if e.winner != nil {
		v.Winner = e.winner.Name
	}
	for i, p := range []*Player{e.p1, e.p2} {
		if p != nil {
			v.Players[i] = viewPlayer(p)
		}
	}
	return v
}

func viewPlayer(p *Player) PlayerView {
	pv := PlayerView{
		Name:          p.Name,
		HP:            p.HP,
		MaxHP:         p.MaxHP,
		Hand:          make([]UnitView, 0, len(p.Hand)),
		Field:         make([]*UnitView, FieldSize),
		DrawPile:      len(p.DrawPile),
		Qualification: p.Qualification,
		Bot:           p.Bot,
		IsTurn:        p.IsTurn,
	}
	for _, u := range p.Hand {
		pv.Hand = append(pv.Hand, viewUnit(u))
	}
	for i, u := range p.Field {
		if u != nil {
			uv := viewUnit(u)
			pv.Field[i] = &uv
		}
	}
	return pv
}

func viewUnit(u *Unit) UnitView {
	uv := UnitView{
		InstanceID:  u.InstanceID,
		CardID:      u.Card.ID,
		Name:        u.Card.Name,
		Type:        u.Card.Type.String(),
		Cost:        u.Card.Cost,
		Power:       u.Power,
		Defense:     u.Defense,
		Health:      u.Health,
		MaxHealth:   u.MaxHealth,
		TurnsInHand: u.TurnsInHand,
		Dead:        u.Dead,
	}
	for _, s := range u.Statuses() {
		uv.Statuses = append(uv.Statuses, StatusView{ID: s.ID(), Name: s.Name(), Remaining: s.Remaining(), Stackable: s.Stackable()})
	}
	return uv
}
