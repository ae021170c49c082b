package gacha

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xtding233/gacha-battle/internal/card"
)

// RateTable is the resolved configuration of one banner.
type RateTable struct {
	Rate5Star          float64 `yaml:"rate_5star" json:"rate_5star"`
	Rate5StarFirstTime float64 `yaml:"rate_5star_first_time" json:"rate_5star_first_time"`
	Rate4Star          float64 `yaml:"rate_4star" json:"rate_4star"`
	SpookRate          float64 `yaml:"spook_rate" json:"spook_rate"`
	MaxSpooks          int     `yaml:"max_spooks,omitempty" json:"max_spooks,omitempty"`

	Featured5 []string `yaml:"featured_5star" json:"featured_5star"`
	Standard5 []string `yaml:"standard_5star" json:"standard_5star"`
	Support4  []string `yaml:"support_4star" json:"support_4star"`
	Special4  []string `yaml:"special_4star" json:"special_4star"`
	Support3  []string `yaml:"support_3star" json:"support_3star"`
	Special3  []string `yaml:"special_3star" json:"special_3star"`
}

// Validate checks probabilities and that every tier can produce a card.
func (t RateTable) Validate() error {
	var errs []string
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"rate_5star", t.Rate5Star},
		{"rate_5star_first_time", t.Rate5StarFirstTime},
		{"rate_4star", t.Rate4Star},
		{"spook_rate", t.SpookRate},
	} {
		if validateProb(p.v) != nil {
			errs = append(errs, p.name+" must be in [0,1]")
		}
	}
	if t.Rate5Star+t.Rate4Star > 1 {
		errs = append(errs, "rate_5star + rate_4star must be <= 1")
	}
	if t.Rate5StarFirstTime+t.Rate4Star > 1 {
		errs = append(errs, "rate_5star_first_time + rate_4star must be <= 1")
	}
	if t.MaxSpooks < 0 {
		errs = append(errs, "max_spooks must be >= 0")
	}
	if len(t.Featured5)+len(t.Standard5) == 0 {
		errs = append(errs, "5-star pools are empty")
	}
	if len(t.Support4)+len(t.Special4) == 0 {
		errs = append(errs, "4-star pools are empty")
	}
	if len(t.Support3)+len(t.Special3) == 0 {
		errs = append(errs, "3-star pools are empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("rate table validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// CheckPools verifies every pooled id resolves in the catalog.
func (t RateTable) CheckPools(cards card.Lookup) error {
	var errs []error
	for name, pool := range t.pools() {
		for _, id := range pool {
			if _, err := cards.Lookup(id); err != nil {
				errs = append(errs, fmt.Errorf("pool %s: %w", name, err))
			}
		}
	}
	return errors.Join(errs...)
}

func (t RateTable) pools() map[string][]string {
	return map[string][]string{
		"featured_5star": t.Featured5,
		"standard_5star": t.Standard5,
		"support_4star":  t.Support4,
		"special_4star":  t.Special4,
		"support_3star":  t.Support3,
		"special_3star":  t.Special3,
	}
}
