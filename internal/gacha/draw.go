package gacha

import "github.com/xtding233/gacha-battle/internal/random"

// Draw reports whether one Bernoulli trial with probability p succeeds.
// The edges are exact and consume no randomness: p == 0 never hits and
// p == 1 always does. A nil rng falls back to the crypto source.
func Draw(p float64, rng random.Source) (bool, error) {
	if err := validateProb(p); err != nil {
		return false, err
	}
	switch p {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	if rng == nil {
		rng = random.Default()
	}
	return rng.Float64() < p, nil
}
