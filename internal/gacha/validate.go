package gacha

import (
	"errors"
	"math"
)

var ErrInvalidProb = errors.New("probability must be within [0, 1]")

// validateProb rejects NaN, infinities and values outside [0, 1].
func validateProb(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return ErrInvalidProb
	}
	return nil
}
