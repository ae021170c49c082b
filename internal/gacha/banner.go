package gacha

import "github.com/xtding233/gacha-battle/internal/random"

// BannerSystem decides, for a 5-star result, whether it comes from the
// featured pool or is a "spook" from the standard pool.
//
// - A uniform roll >= SpookRate keeps the featured pool; below it spooks.
// - When MaxSpooks > 0 and the holder has spooked MaxSpooks times in a row,
// the next 5-star is forced featured and the streak resets.
// - MaxSpooks <= 0 disables the streak guarantee.
type BannerSystem struct {
	SpookRate float64
	MaxSpooks int
	RNG       random.Source
}

// NewBannerSystem clamps spookRate into [0,1].
func NewBannerSystem(spookRate float64, maxSpooks int, rng random.Source) *BannerSystem {
	if spookRate < 0 {
		spookRate = 0
	}
	if spookRate > 1 {
		spookRate = 1
	}
	if rng == nil {
		rng = random.Default()
	}
	return &BannerSystem{SpookRate: spookRate, MaxSpooks: maxSpooks, RNG: rng}
}

// Spook rolls the off-banner check and updates streak in place. A rate that
// is not a probability never spooks.
func (b *BannerSystem) Spook(streak *int) bool {
	if b.MaxSpooks > 0 && *streak >= b.MaxSpooks {
		*streak = 0
		return false
	}
	if hit, err := Draw(b.SpookRate, b.RNG); err != nil || !hit {
		*streak = 0
		return false
	}
	*streak++
	return true
}
