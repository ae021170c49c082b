package gacha

// PitySystem handles a "hard pity" inside a multi-pull: once Pity-1 pulls
// have passed without a hit, the next pull is forced down the guarantee path.
type PitySystem struct {
	Pity  int // pulls per guarantee window, e.g. 10
	Count int // pulls since last hit
}

// NewPitySystem creates a pity tracker with the given window.
func NewPitySystem(pity int) *PitySystem {
	return &PitySystem{Pity: pity}
}

// Due reports whether the next pull must be guaranteed.
func (ps *PitySystem) Due() bool {
	if ps.Pity <= 0 {
		return false
	}
	return ps.Count+1 >= ps.Pity
}

// Record updates the counter after a pull.
// - On hit, Count resets to 0; otherwise, Count increments
func (ps *PitySystem) Record(hit bool) {
	if hit {
		ps.Count = 0
		return
	}
	ps.Count++
}
