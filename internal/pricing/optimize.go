package pricing

import (
	"errors"
	"math"
)

// Planner input bounds; both size a dynamic-programming table.
const (
	MaxTickets     = 100000
	MaxBudgetCents = 1000000
)

var ErrTooLarge = errors.New("plan input too large")

const inf = math.MaxInt

// CheapestFor returns the lowest-cost plan granting at least target tickets.
// A doubled first-time pack is bought at most once; normal packs any number
// of times. An empty plan means target is not positive or cannot be met.
func CheapestFor(cat Catalog, target int, first FirstTime) (Plan, error) {
	plan := Plan{Currency: cat.Currency}
	if target > MaxTickets {
		return plan, ErrTooLarge
	}
	if target <= 0 || len(cat.Packs) == 0 {
		return plan, nil
	}
	normal, doubled := variants(cat, first)

	maxTok := 0
	for _, v := range normal {
		maxTok = max(maxTok, v.tickets)
	}
	// exact[t] is the cheapest normal basket granting exactly t tickets, with
	// everything past target+maxTok folded into the last slot.
	limit := target + maxTok
	exact := make([]int, limit+1)
	from := make([]int, limit+1)
	prev := make([]int, limit+1)
	for t := range exact {
		exact[t], from[t], prev[t] = inf, -1, -1
	}
	exact[0] = 0
	for t := 0; t <= limit; t++ {
		if exact[t] == inf {
			continue
		}
		for i, v := range normal {
			if v.tickets <= 0 {
				continue
			}
			nt := min(t+v.tickets, limit)
			if c := exact[t] + v.price; c < exact[nt] {
				exact[nt], from[nt], prev[nt] = c, i, t
			}
		}
	}
	// atLeast[t] is the slot of the cheapest basket granting >= t tickets.
	atLeast := make([]int, target+1)
	atLeast[target] = target
	for t := target + 1; t <= limit; t++ {
		if exact[t] < exact[atLeast[target]] {
			atLeast[target] = t
		}
	}
	for t := target - 1; t >= 0; t-- {
		atLeast[t] = atLeast[t+1]
		if exact[t] <= exact[atLeast[t]] {
			atLeast[t] = t
		}
	}

	bestMask, bestSlot, bestCost := -1, 0, inf
	for mask := 0; mask < 1<<len(doubled); mask++ {
		cost, tok := subset(doubled, mask)
		slot := atLeast[max(0, target-tok)]
		if exact[slot] == inf {
			continue
		}
		if total := cost + exact[slot]; total < bestCost {
			bestMask, bestSlot, bestCost = mask, slot, total
		}
	}
	if bestMask < 0 {
		return plan, nil
	}

	counts := make([]int, len(normal))
	for t := bestSlot; t > 0 && from[t] != -1; t = prev[t] {
		counts[from[t]]++
	}
	return build(cat, normal, doubled, counts, bestMask), nil
}

// MostWithin returns the plan granting the most tickets whose total,
// tax included, stays within budgetCents. Ties go to the cheaper plan.
func MostWithin(cat Catalog, budgetCents int, first FirstTime) (Plan, error) {
	plan := Plan{Currency: cat.Currency}
	if budgetCents > MaxBudgetCents {
		return plan, ErrTooLarge
	}
	if budgetCents <= 0 || len(cat.Packs) == 0 {
		return plan, nil
	}
	normal, doubled := variants(cat, first)

	pre := budgetCents
	if cat.TaxRate > 0 {
		pre = int(math.Floor(float64(budgetCents) / (1 + cat.TaxRate)))
	}
	// Rounding tax can push the total a cent over; shrink until it fits.
	for ; pre > 0; pre-- {
		p := mostWithin(cat, normal, doubled, pre)
		if p.TotalCents <= budgetCents {
			return p, nil
		}
	}
	return plan, nil
}

func mostWithin(cat Catalog, normal, doubled []variant, budget int) Plan {
	// best[c] is the most tickets normal packs grant for at most c cents;
	// use[c] is the pack bought last, or -1 when c-1 does as well.
	best := make([]int, budget+1)
	use := make([]int, budget+1)
	for c := 0; c <= budget; c++ {
		use[c] = -1
		if c > 0 {
			best[c] = best[c-1]
		}
		for i, v := range normal {
			if v.price <= c {
				if tok := best[c-v.price] + v.tickets; tok > best[c] {
					best[c], use[c] = tok, i
				}
			}
		}
	}
	counts := func(c int) ([]int, int) {
		out := make([]int, len(normal))
		spent := 0
		for c > 0 {
			if use[c] == -1 {
				c--
				continue
			}
			v := normal[use[c]]
			out[use[c]]++
			spent += v.price
			c -= v.price
		}
		return out, spent
	}

	bestMask, bestTok, bestSpend := -1, 0, inf
	var bestCounts []int
	for mask := 0; mask < 1<<len(doubled); mask++ {
		cost, tok := subset(doubled, mask)
		if cost > budget {
			continue
		}
		cs, spent := counts(budget - cost)
		total := tok + best[budget-cost]
		if total > bestTok || (total == bestTok && cost+spent < bestSpend) {
			bestMask, bestTok, bestSpend, bestCounts = mask, total, cost+spent, cs
		}
	}
	if bestMask < 0 || bestTok == 0 {
		return Plan{Currency: cat.Currency}
	}
	return build(cat, normal, doubled, bestCounts, bestMask)
}

func subset(doubled []variant, mask int) (cost, tickets int) {
	for i, v := range doubled {
		if mask&(1<<i) != 0 {
			cost += v.price
			tickets += v.tickets
		}
	}
	return cost, tickets
}

// build lists doubled packs first, then normal packs, each in catalog order.
func build(cat Catalog, normal, doubled []variant, counts []int, mask int) Plan {
	plan := Plan{Currency: cat.Currency}
	add := func(v variant, qty int) {
		sub := v.price * qty
		plan.Purchases = append(plan.Purchases, Purchase{
			PackID:      v.id,
			Name:        v.name,
			Qty:         qty,
			UnitPrice:   v.price,
			UnitTickets: v.tickets,
			Subtotal:    sub,
		})
		plan.SubCents += sub
		plan.TotalTickets += v.tickets * qty
	}
	for i, v := range doubled {
		if mask&(1<<i) != 0 {
			add(v, 1)
		}
	}
	for i, v := range normal {
		if counts[i] > 0 {
			add(v, counts[i])
		}
	}
	plan.TaxCents, plan.TotalCents = applyTax(plan.SubCents, cat.TaxRate)
	return plan
}
