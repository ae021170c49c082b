package service

import (
	"context"
	"fmt"

	"github.com/xtding233/gacha-battle/internal/pricing"
)

// PullQuote prices the ticket packs a profile needs for more pulls.
type PullQuote struct {
	Pulls   int          `json:"pulls"`
	Cost    int          `json:"cost"`    // tickets the pulls cost
	Tickets int          `json:"tickets"` // tickets already held
	Missing int          `json:"missing"`
	Plan    pricing.Plan `json:"plan"`
}

// Shop returns the ticket packs on sale.
func (s *Service) Shop() pricing.Catalog {
	return s.data.Current().Shop
}

// QuotePulls plans the cheapest packs that let profileID make pulls more
// single pulls. Purchases are not recorded, so every first-time double is
// treated as available.
func (s *Service) QuotePulls(ctx context.Context, profileID string, pulls int) (PullQuote, error) {
	if pulls <= 0 || pulls > pricing.MaxTickets {
		return PullQuote{}, fmt.Errorf("%w: pulls must be in [1,%d]", ErrInvalidInput, pricing.MaxTickets)
	}
	p, err := s.store.Get(ctx, profileID)
	if err != nil {
		return PullQuote{}, err
	}
	d := s.data.Current()
	q := PullQuote{Pulls: pulls, Cost: d.Pricing.TokensForDraws(pulls), Tickets: p.Tickets}
	q.Missing = max(0, q.Cost-p.Tickets)
	q.Plan, err = pricing.CheapestFor(d.Shop, q.Missing, pricing.AllFirstTime(d.Shop))
	if err != nil {
		return PullQuote{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return q, nil
}

// QuoteBudget plans the most tickets budgetCents buys.
func (s *Service) QuoteBudget(budgetCents int) (pricing.Plan, error) {
	if budgetCents <= 0 {
		return pricing.Plan{}, fmt.Errorf("%w: budget must be positive", ErrInvalidInput)
	}
	shop := s.data.Current().Shop
	plan, err := pricing.MostWithin(shop, budgetCents, pricing.AllFirstTime(shop))
	if err != nil {
		return pricing.Plan{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return plan, nil
}
