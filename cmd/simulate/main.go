// Command simulate runs a Monte Carlo report over a banner's rates.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/xtding233/gacha-battle/internal/gacha"
	"github.com/xtding233/gacha-battle/internal/gamedata"
	"github.com/xtding233/gacha-battle/internal/random"
)

type options struct {
	dir       string
	banner    string
	goal      string
	trials    int
	budget    int
	tenPulls  bool
	firstTime bool
	seed      uint64
	asJSON    bool
	rate5     float64
	rate4     float64
}

type report struct {
	Banner  string          `json:"banner"`
	Version string          `json:"version"`
	Goal    gacha.TrialGoal `json:"goal"`
	Trials  int             `json:"trials"`
	Rates   gacha.RateTable `json:"rates"`
	Stats   gacha.Stats     `json:"stats"`
}

func main() {
	var o options
	flag.StringVar(&o.dir, "data", "configs/data", "game data directory")
	flag.StringVar(&o.banner, "banner", "", "banner name (empty for the default rates)")
	flag.StringVar(&o.goal, "goal", string(gacha.GoalFirstFiveStar), "first_five_star | first_featured | fixed_budget")
	flag.IntVar(&o.trials, "trials", 100000, "number of trials")
	flag.IntVar(&o.budget, "budget", 0, "pulls per trial for fixed_budget")
	flag.BoolVar(&o.tenPulls, "ten", false, "pull in batches of ten with the guarantee")
	flag.BoolVar(&o.firstTime, "first-time", false, "start each trial with the first-time bonus")
	flag.Uint64Var(&o.seed, "seed", 0, "seed for a replicable run (0 uses the crypto source)")
	flag.BoolVar(&o.asJSON, "json", false, "print JSON instead of a table")
	flag.Float64Var(&o.rate5, "rate5", -1, "override rate_5star")
	flag.Float64Var(&o.rate4, "rate4", -1, "override rate_4star")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := run(os.Stdout, o, logger); err != nil {
		logger.Error("simulation failed", "err", err)
		os.Exit(1)
	}
}

func run(w io.Writer, o options, logger *slog.Logger) error {
	var ov gamedata.Overrides
	if o.rate5 >= 0 {
		ov.Rate5Star = &o.rate5
	}
	if o.rate4 >= 0 {
		ov.Rate4Star = &o.rate4
	}
	d, err := gamedata.NewLoader(o.dir).Resolve(o.banner, ov)
	if err != nil {
		return err
	}

	var rng random.Source
	if o.seed != 0 {
		rng = random.NewSeeded(o.seed)
	}
	goal := gacha.TrialGoal(o.goal)
	st, err := gacha.RunMonteCarlo(gacha.SimParams{
		Rates:     d.Rates,
		FirstTime: o.firstTime,
		TenPulls:  o.tenPulls,
		Budget:    o.budget,
	}, goal, o.trials, rng)
	if err != nil {
		return err
	}
	logger.Debug("simulation done", "banner", d.Banner, "trials", o.trials)

	r := report{Banner: d.Banner, Version: d.Version, Goal: goal, Trials: o.trials, Rates: d.Rates, Stats: st}
	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	return printTable(w, r)
}

func printTable(w io.Writer, r report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "banner\t%s (%s)\n", r.Banner, r.Version)
	fmt.Fprintf(tw, "goal\t%s\n", r.Goal)
	fmt.Fprintf(tw, "trials\t%d\n", r.Trials)
	fmt.Fprintf(tw, "rates\t5*=%.4f first=%.4f 4*=%.4f spook=%.2f max_spooks=%d\n",
		r.Rates.Rate5Star, r.Rates.Rate5StarFirstTime, r.Rates.Rate4Star, r.Rates.SpookRate, r.Rates.MaxSpooks)
	fmt.Fprintf(tw, "mean\t%.3f\n", r.Stats.Mean)
	fmt.Fprintf(tw, "stddev\t%.3f\n", r.Stats.StdDev)
	fmt.Fprintf(tw, "p50 / p90 / p99\t%.0f / %.0f / %.0f\n", r.Stats.P50, r.Stats.P90, r.Stats.P99)

	tiers := make([]int, 0, len(r.Stats.RarityShare))
	for tier := range r.Stats.RarityShare {
		tiers = append(tiers, tier)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(tiers)))
	for _, tier := range tiers {
		fmt.Fprintf(tw, "share %d*\t%.4f\n", tier, r.Stats.RarityShare[tier])
	}
	return tw.Flush()
}
