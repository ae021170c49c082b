package gacha

import (
	"errors"
	"math"
	"sort"

	"github.com/xtding233/gacha-battle/internal/random"
)

// TrialGoal selects what the simulation measures per trial.
type TrialGoal string

const (
	// Pulls until the first 5-star of any banner.
	GoalFirstFiveStar TrialGoal = "first_five_star"
	// Pulls until the first featured 5-star (respects spook rules).
	GoalFirstFeatured TrialGoal = "first_featured"
	// Given a fixed budget of pulls, count 5-star results.
	GoalFixedBudget TrialGoal = "fixed_budget"
)

// maxTrialPulls caps open-ended goals so a zero rate cannot spin forever.
const maxTrialPulls = 100000

var ErrUnknownGoal = errors.New("unknown simulation goal")

// SimParams describes the mechanics for one simulation run.
type SimParams struct {
	Rates     RateTable
	FirstTime bool // trials start with the first-time bonus available
	TenPulls  bool // pull in batches of ten with the pity guarantee
	Budget    int  // pulls per trial for GoalFixedBudget
}

// Stats summarizes simulation results.
type Stats struct {
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	// Share of all simulated pulls per rarity tier.
	RarityShare map[int]float64 `json:"rarity_share"`
	// Optional: raw samples if caller needs histograms/exports
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// variance (population)
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// trial is the per-trial mutable state, mirroring the profile fields the
// engine touches.
type trial struct {
	r           *roller
	tenPulls    bool
	firstTime   bool
	spookStreak int
	tiers       map[int]int
}

// next rolls one batch (1 or 10 pulls) and calls visit for each tier and
// off-banner flag. visit returns false to stop early.
func (t *trial) next(visit func(rarity int, offBanner bool) bool) bool {
	size := 1
	if t.tenPulls {
		size = TenPull
	}
	pity := NewPitySystem(size)
	for i := 0; i < size; i++ {
		guaranteed := t.tenPulls && pity.Due()
		rarity := t.r.roll(&t.firstTime, guaranteed)
		off := false
		if rarity == 5 {
			off = t.r.banner.Spook(&t.spookStreak)
		}
		pity.Record(rarity >= 4)
		t.tiers[rarity]++
		if !visit(rarity, off) {
			return false
		}
	}
	return true
}

// simulateOne returns the primary metric for one trial depending on the goal.
func simulateOne(t *trial, goal TrialGoal, budget int) (int, error) {
	pulls := 0
	switch goal {
	case GoalFirstFiveStar, GoalFirstFeatured:
		done := false
		for !done && pulls < maxTrialPulls {
			t.next(func(rarity int, off bool) bool {
				pulls++
				if rarity == 5 && (goal == GoalFirstFiveStar || !off) {
					done = true
					return false
				}
				return true
			})
		}
		return pulls, nil

	case GoalFixedBudget:
		hits := 0
		for pulls < budget {
			t.next(func(rarity int, _ bool) bool {
				pulls++
				if rarity == 5 {
					hits++
				}
				return pulls < budget
			})
		}
		return hits, nil
	}
	return 0, ErrUnknownGoal
}

// RunMonteCarlo repeats trials and returns summary stats.
// goal determines what metric is recorded per trial.
func RunMonteCarlo(p SimParams, goal TrialGoal, trials int, rng random.Source) (Stats, error) {
	if err := p.Rates.Validate(); err != nil {
		return Stats{}, err
	}
	if trials <= 0 {
		return Stats{}, nil
	}
	if rng == nil {
		rng = random.Default()
	}
	r := newRoller(p.Rates, rng)
	tiers := map[int]int{}
	samples := make([]int, trials)
	for i := 0; i < trials; i++ {
		t := &trial{r: r, tenPulls: p.TenPulls, firstTime: p.FirstTime, tiers: tiers}
		v, err := simulateOne(t, goal, p.Budget)
		if err != nil {
			return Stats{}, err
		}
		samples[i] = v
	}
	st := calcStats(samples)
	total := 0
	for _, c := range tiers {
		total += c
	}
	st.RarityShare = map[int]float64{}
	if total > 0 {
		for tier, c := range tiers {
			st.RarityShare[tier] = float64(c) / float64(total)
		}
	}
	return st, nil
}
