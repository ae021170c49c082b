package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xtding233/gacha-battle/internal/gacha"
	"github.com/xtding233/gacha-battle/internal/gamedata"
	"github.com/xtding233/gacha-battle/internal/profile"
	"github.com/xtding233/gacha-battle/internal/random"
)

// Simulation bounds.
const (
	DefaultTrials = 10000
	MaxTrials     = 200000
)

// PullResult is the outcome of one pull request.
type PullResult struct {
	Pulls   []gacha.Pull     `json:"pulls"`
	Profile *profile.Profile `json:"profile"`
}

// Pull spends tickets for count pulls (1 or 10) and saves the profile.
// Pulls for one user are serialized; on any error nothing is saved.
func (s *Service) Pull(ctx context.Context, userID string, count int) (res PullResult, err error) {
	ctx, span := s.tracer.Start(ctx, "service.Pull", trace.WithAttributes(
		attribute.String("profile", userID),
		attribute.Int("count", count),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if count != 1 && count != gacha.TenPull {
		return PullResult{}, fmt.Errorf("%w: got %d", ErrInvalidCount, count)
	}

	u, unlock := s.lockUser(userID)
	defer unlock()

	p, err := s.store.Get(ctx, userID)
	if err != nil {
		return PullResult{}, err
	}
	if !s.allowPull(u) {
		s.log.Warn("gacha pull throttled", "profile", userID)
		return PullResult{}, ErrRateLimited
	}
	data := s.data.Current()
	eng, err := gacha.NewEngine(data.Rates, data.Catalog, s.rng, s.log)
	if err != nil {
		return PullResult{}, err
	}
	eng.Pricing = data.Pricing

	var pulls []gacha.Pull
	if count == 1 {
		var one gacha.Pull
		one, err = eng.PullSingle(p)
		pulls = []gacha.Pull{one}
	} else {
		pulls, err = eng.PullTen(p)
	}
	if err != nil {
		return PullResult{}, err
	}
	p.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, p); err != nil {
		return PullResult{}, err
	}

	best := 0
	for _, pl := range pulls {
		best = max(best, pl.Rarity)
	}
	span.SetAttributes(attribute.Int("best_rarity", best), attribute.Int("tickets", p.Tickets))
	s.log.Info("gacha pull", "profile", userID, "count", count, "best_rarity", best, "tickets", p.Tickets, "version", data.Version)
	return PullResult{Pulls: pulls, Profile: p}, nil
}

// SimulateRequest describes a Monte Carlo run. An empty Banner uses the data
// in service; Seed makes the run replicable.
type SimulateRequest struct {
	Banner    string
	Goal      gacha.TrialGoal
	Trials    int
	FirstTime bool
	TenPulls  bool
	Budget    int
	Seed      *uint64
	Overrides gamedata.Overrides
}

// SimulateResult echoes the rates actually simulated.
type SimulateResult struct {
	Banner string          `json:"banner"`
	Goal   gacha.TrialGoal `json:"goal"`
	Trials int             `json:"trials"`
	Rates  gacha.RateTable `json:"rates"`
	Stats  gacha.Stats     `json:"stats"`
}

func (s *Service) Simulate(ctx context.Context, req SimulateRequest) (SimulateResult, error) {
	_, span := s.tracer.Start(ctx, "service.Simulate", trace.WithAttributes(
		attribute.String("banner", req.Banner),
		attribute.String("goal", string(req.Goal)),
	))
	defer span.End()

	if req.Goal == "" {
		req.Goal = gacha.GoalFirstFiveStar
	}
	if req.Trials == 0 {
		req.Trials = DefaultTrials
	}
	if req.Trials < 0 || req.Trials > MaxTrials {
		return SimulateResult{}, fmt.Errorf("%w: trials must be in [1,%d]", ErrInvalidInput, MaxTrials)
	}
	if req.Goal == gacha.GoalFixedBudget && req.Budget <= 0 {
		return SimulateResult{}, fmt.Errorf("%w: fixed_budget needs a positive budget", ErrInvalidInput)
	}

	rates, banner, err := s.simulationRates(req)
	if err != nil {
		return SimulateResult{}, err
	}
	rng := s.rng
	if req.Seed != nil {
		rng = random.NewSeeded(*req.Seed)
	}
	st, err := gacha.RunMonteCarlo(gacha.SimParams{
		Rates:     rates,
		FirstTime: req.FirstTime,
		TenPulls:  req.TenPulls,
		Budget:    req.Budget,
	}, req.Goal, req.Trials, rng)
	if err != nil {
		return SimulateResult{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return SimulateResult{Banner: banner, Goal: req.Goal, Trials: req.Trials, Rates: rates, Stats: st}, nil
}

func (s *Service) simulationRates(req SimulateRequest) (gacha.RateTable, string, error) {
	if req.Banner != "" {
		if s.resolver == nil {
			return gacha.RateTable{}, "", fmt.Errorf("%w: %s", gamedata.ErrUnknownBanner, req.Banner)
		}
		d, err := s.resolver.Resolve(req.Banner, req.Overrides)
		if err != nil {
			if errors.Is(err, gamedata.ErrUnknownBanner) {
				return gacha.RateTable{}, "", err
			}
			return gacha.RateTable{}, "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		return d.Rates, d.Banner, nil
	}
	d := s.data.Current()
	return overrideRates(d.Rates, req.Overrides), d.Banner, nil
}

func overrideRates(t gacha.RateTable, o gamedata.Overrides) gacha.RateTable {
	if o.Rate5Star != nil {
		t.Rate5Star = *o.Rate5Star
	}
	if o.Rate5StarFirstTime != nil {
		t.Rate5StarFirstTime = *o.Rate5StarFirstTime
	}
	if o.Rate4Star != nil {
		t.Rate4Star = *o.Rate4Star
	}
	if o.SpookRate != nil {
		t.SpookRate = *o.SpookRate
	}
	if o.MaxSpooks != nil {
		t.MaxSpooks = *o.MaxSpooks
	}
	return t
}
