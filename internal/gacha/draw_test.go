package gacha

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-battle/internal/random"
)

func TestDrawEdgesSkipTheRNG(t *testing.T) {
	rng := random.NewScripted(0)
	hit, err := Draw(0, rng)
	require.NoError(t, err)
	assert.False(t, hit, "a zero roll still misses at p=0")

	rng = random.NewScripted(0.9999)
	hit, err = Draw(1, rng)
	require.NoError(t, err)
	assert.True(t, hit)

	for _, p := range []float64{-0.1, 1.1, math.NaN(), math.Inf(1)} {
		_, err := Draw(p, nil)
		assert.ErrorIs(t, err, ErrInvalidProb, "p=%v", p)
	}
}

func TestDrawFrequency(t *testing.T) {
	const p, n = 0.3, 100000
	rng := random.NewSeeded(42)
	hit := 0
	for i := 0; i < n; i++ {
		ok, err := Draw(p, rng)
		require.NoError(t, err)
		if ok {
			hit++
		}
	}
	assert.InDelta(t, p, float64(hit)/n, 0.01)
}

func TestSpookEdges(t *testing.T) {
	streak := 0
	never := NewBannerSystem(0, 0, random.NewScripted(0))
	for i := 0; i < 5; i++ {
		assert.False(t, never.Spook(&streak))
	}
	assert.Zero(t, streak)

	always := NewBannerSystem(1, 2, random.NewScripted(0.99))
	assert.True(t, always.Spook(&streak))
	assert.True(t, always.Spook(&streak))
	assert.False(t, always.Spook(&streak), "streak cap forces the featured pool")
	assert.Zero(t, streak)

	broken := &BannerSystem{SpookRate: math.NaN(), RNG: random.NewScripted(0)}
	streak = 3
	assert.False(t, broken.Spook(&streak))
	assert.Zero(t, streak)
}
