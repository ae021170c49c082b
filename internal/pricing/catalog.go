// Package pricing plans ticket pack purchases: the cheapest basket that
// covers a number of pulls, or the most tickets a budget buys.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Pack is one purchasable ticket bundle.
type Pack struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Tickets     int    `yaml:"tickets" json:"tickets"`
	Bonus       int    `yaml:"bonus,omitempty" json:"bonus,omitempty"`                 // extra tickets on every purchase
	FirstTimeX2 bool   `yaml:"first_time_x2,omitempty" json:"first_time_x2,omitempty"` // first purchase doubles Tickets, not Bonus
	PriceCents  int    `yaml:"price_cents" json:"price_cents"`
}

// Catalog is the shop: its packs, currency and tax.
type Catalog struct {
	Currency string `yaml:"currency" json:"currency"`
	// TaxRate is applied to the subtotal; zero for tax-inclusive prices.
	TaxRate float64 `yaml:"tax_rate,omitempty" json:"tax_rate,omitempty"`
	Packs   []Pack  `yaml:"packs" json:"packs"`
}

// maxFirstTimePacks bounds the subsets the planners enumerate.
const maxFirstTimePacks = 12

// FirstTime maps pack id to whether its first-time double is still
// available.
type FirstTime map[string]bool

// AllFirstTime marks every first-time pack in cat as available.
func AllFirstTime(cat Catalog) FirstTime {
	ft := FirstTime{}
	for _, p := range cat.Packs {
		if p.FirstTimeX2 {
			ft[p.ID] = true
		}
	}
	return ft
}

// Plan is a purchase basket.
type Plan struct {
	Purchases    []Purchase `json:"purchases"`
	SubCents     int        `json:"sub_cents"`
	TaxCents     int        `json:"tax_cents"`
	TotalCents   int        `json:"total_cents"`
	TotalTickets int        `json:"total_tickets"`
	Currency     string     `json:"currency"`
}

// Purchase is one line of a plan.
type Purchase struct {
	PackID      string `json:"pack_id"`
	Name        string `json:"name"`
	Qty         int    `json:"qty"`
	UnitPrice   int    `json:"unit_price"`
	UnitTickets int    `json:"unit_tickets"` // doubling and bonus applied
	Subtotal    int    `json:"subtotal"`
}

// Validate reports every malformed pack.
func (c Catalog) Validate() error {
	var errs []string
	if c.TaxRate < 0 || c.TaxRate >= 1 {
		errs = append(errs, "tax_rate must be in [0,1)")
	}
	seen := map[string]bool{}
	firsts := 0
	for i, p := range c.Packs {
		if p.FirstTimeX2 {
			firsts++
		}
		switch {
		case p.ID == "":
			errs = append(errs, fmt.Sprintf("packs[%d]: id is required", i))
		case seen[p.ID]:
			errs = append(errs, fmt.Sprintf("packs[%d]: duplicate id %s", i, p.ID))
		}
		seen[p.ID] = true
		if p.Tickets+p.Bonus <= 0 {
			errs = append(errs, fmt.Sprintf("packs[%d]: must grant tickets", i))
		}
		if p.PriceCents <= 0 {
			errs = append(errs, fmt.Sprintf("packs[%d]: price_cents must be > 0", i))
		}
	}
	if firsts > maxFirstTimePacks {
		errs = append(errs, fmt.Sprintf("at most %d packs may have first_time_x2", maxFirstTimePacks))
	}
	if len(errs) > 0 {
		return errors.New("shop validation failed: " + strings.Join(errs, "; "))
	}
	return nil
}

// variant is a pack as bought under a particular first-time state.
type variant struct {
	id      string
	name    string
	tickets int
	price   int
	first   bool
}

// variants splits packs into their normal forms and, where still
// available, their one-off doubled forms.
func variants(cat Catalog, first FirstTime) (normal, doubled []variant) {
	for _, p := range cat.Packs {
		if p.FirstTimeX2 && first[p.ID] {
			doubled = append(doubled, variant{
				id:      p.ID,
				name:    p.Name + " (x2)",
				tickets: p.Tickets*2 + p.Bonus,
				price:   p.PriceCents,
				first:   true,
			})
		}
		normal = append(normal, variant{id: p.ID, name: p.Name, tickets: p.Tickets + p.Bonus, price: p.PriceCents})
	}
	return normal, doubled
}

func applyTax(sub int, taxRate float64) (tax int, total int) {
	if taxRate <= 0 {
		return 0, sub
	}
	t := int(math.Round(float64(sub) * taxRate))
	return t, sub + t
}
