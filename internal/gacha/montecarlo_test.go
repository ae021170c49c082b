package gacha

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-battle/internal/random"
)

func TestRunMonteCarloCertainFiveStar(t *testing.T) {
	rates := testRates()
	rates.Rate5Star = 1
	rates.Rate4Star = 0
	st, err := RunMonteCarlo(SimParams{Rates: rates}, GoalFirstFiveStar, 50, random.NewSeeded(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, st.Mean)
	assert.Equal(t, 0.0, st.StdDev)
	assert.Equal(t, 1.0, st.RarityShare[5])
}

func TestRunMonteCarloRarityShare(t *testing.T) {
	st, err := RunMonteCarlo(SimParams{Rates: testRates(), Budget: 1000}, GoalFixedBudget, 50, random.NewSeeded(7))
	require.NoError(t, err)
	assert.InDelta(t, 0.03, st.RarityShare[5], 0.01)
	assert.InDelta(t, 0.15, st.RarityShare[4], 0.02)
	assert.InDelta(t, 30.0, st.Mean, 5)
}

func TestRunMonteCarloTenPullsRaiseFourStarShare(t *testing.T) {
	single, err := RunMonteCarlo(SimParams{Rates: testRates(), Budget: 500}, GoalFixedBudget, 40, random.NewSeeded(3))
	require.NoError(t, err)
	ten, err := RunMonteCarlo(SimParams{Rates: testRates(), Budget: 500, TenPulls: true}, GoalFixedBudget, 40, random.NewSeeded(3))
	require.NoError(t, err)
	assert.Greater(t, ten.RarityShare[4], single.RarityShare[4])
}

func TestRunMonteCarloFeaturedTakesLonger(t *testing.T) {
	any5, err := RunMonteCarlo(SimParams{Rates: testRates()}, GoalFirstFiveStar, 400, random.NewSeeded(11))
	require.NoError(t, err)
	featured, err := RunMonteCarlo(SimParams{Rates: testRates()}, GoalFirstFeatured, 400, random.NewSeeded(11))
	require.NoError(t, err)
	assert.Greater(t, featured.Mean, any5.Mean)
	assert.False(t, math.IsNaN(featured.P99))
}

func TestRunMonteCarloEdges(t *testing.T) {
	st, err := RunMonteCarlo(SimParams{Rates: testRates()}, GoalFixedBudget, 0, nil)
	require.NoError(t, err)
	assert.Zero(t, st.Mean)

	_, err = RunMonteCarlo(SimParams{Rates: testRates()}, "weird", 1, random.NewSeeded(1))
	assert.ErrorIs(t, err, ErrUnknownGoal)

	_, err = RunMonteCarlo(SimParams{Rates: RateTable{}}, GoalFirstFiveStar, 1, nil)
	assert.Error(t, err)
}

func TestCalcStats(t *testing.T) {
	st := calcStats([]int{1, 2, 3, 4})
	assert.Equal(t, 2.5, st.Mean)
	assert.Equal(t, 1.25, st.Var)
	assert.Equal(t, 2.5, st.P50)
	assert.Equal(t, Stats{}, calcStats(nil))
}
