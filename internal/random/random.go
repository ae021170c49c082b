// Package random provides the random sources shared by the gacha and battle
// engines.
package random

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source abstracts a uniform float generator in [0, 1).
type Source interface {
	Float64() float64
}

// crypto random : default generation method
type cryptoRNG struct{}

func (cryptoRNG) Float64() float64 {
	// Read 53bit random => [0, 1)
	var buf [8]byte
	if _, err := cryptoRand.Read(buf[:]); err != nil {
		// back to math/rand/v2
		return rand.Float64()
	}
	u := binary.BigEndian.Uint64(buf[:]) >> 11 // 53 bits
	return float64(u) / (1 << 53)
}

func Default() Source { return cryptoRNG{} }

// Replicable RNG (e.g. Monte Carlo, tests)
type seededRNG struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewSeeded(seed uint64) Source {
	return &seededRNG{r: rand.New(rand.NewPCG(seed, 0))}
}

func (s *seededRNG) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}

// Scripted replays fixed values in order and then repeats the last one.
// Intended for tests that need to force a roll.
type Scripted struct {
	mu     sync.Mutex
	values []float64
	next   int
}

func NewScripted(values ...float64) *Scripted {
	if len(values) == 0 {
		values = []float64{0}
	}
	return &Scripted{values: values}
}

func (s *Scripted) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	if s.next < len(s.values)-1 {
		s.next++
	}
	return v
}

// IntN returns a uniform int in [0, n). n <= 0 returns 0.
func IntN(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	if src == nil {
		src = Default()
	}
	i := int(src.Float64() * float64(n))
	if i >= n { // guards a source returning exactly 1
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// Between returns a uniform int in [lo, hi].
func Between(src Source, lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + IntN(src, hi-lo+1)
}

// Shuffle permutes ids in place with a Fisher-Yates swap walk.
func Shuffle[T any](src Source, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := IntN(src, i+1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}
