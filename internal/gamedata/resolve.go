package gamedata

import (
	"errors"
	"fmt"

	"github.com/xtding233/gacha-battle/internal/ability"
	"github.com/xtding233/gacha-battle/internal/battle"
	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/gacha"
	"github.com/xtding233/gacha-battle/internal/pricing"
	"github.com/xtding233/gacha-battle/internal/token"
)

var ErrUnknownBanner = errors.New("unknown banner")

// Overrides carries per-request rate overrides such as simulate query
// parameters. Nil fields keep the file value.
type Overrides struct {
	Rate5Star          *float64
	Rate5StarFirstTime *float64
	Rate4Star          *float64
	SpookRate          *float64
	MaxSpooks          *int
}

// Data is everything the engines need, resolved and cross-checked.
type Data struct {
	Version   string
	Banner    string
	Catalog   *card.Catalog
	Abilities ability.Registry
	Rates     gacha.RateTable
	Pricing   token.Token
	Rules     battle.Rules
	Shop      pricing.Catalog
}

// Resolve loads every file for banner, applies o and validates the result:
// rates, pools against the catalog, and card ability references.
func (l *Loader) Resolve(banner string, o Overrides) (*Data, error) {
	raw, err := l.LoadGacha(banner)
	if err != nil {
		return nil, err
	}
	raw = applyOverrides(raw, o)
	if err := ValidateRaw(raw); err != nil {
		return nil, err
	}

	cf, err := l.LoadCards()
	if err != nil {
		return nil, err
	}
	catalog, err := card.NewCatalog(cf.Cards)
	if err != nil {
		return nil, fmt.Errorf("cards: %w", err)
	}
	if catalog.Len() == 0 {
		return nil, errors.New("cards: catalog is empty")
	}
	abilities, err := ability.NewRegistry(cf.Abilities)
	if err != nil {
		return nil, fmt.Errorf("abilities: %w", err)
	}
	if err := checkAbilityRefs(catalog, abilities); err != nil {
		return nil, err
	}

	rates := RateTable(raw)
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if err := rates.CheckPools(catalog); err != nil {
		return nil, fmt.Errorf("pools: %w", err)
	}

	rb, err := l.LoadBattle()
	if err != nil {
		return nil, err
	}
	if err := ValidateBattle(rb); err != nil {
		return nil, err
	}
	rules := Rules(rb)
	if rules.SkipHealMax < rules.SkipHealMin {
		return nil, fmt.Errorf("config validation failed: skip_heal_max must be >= skip_heal_min")
	}

	shop, err := l.LoadShop()
	if err != nil {
		return nil, err
	}
	if err := shop.Validate(); err != nil {
		return nil, err
	}

	return &Data{
		Version:   raw.Version,
		Banner:    raw.Name,
		Catalog:   catalog,
		Abilities: abilities,
		Rates:     rates,
		Pricing:   Pricing(raw),
		Rules:     rules,
		Shop:      shop,
	}, nil
}

func applyOverrides(raw RawGacha, o Overrides) RawGacha {
	if o.Rate5Star != nil {
		raw.Rates.Rate5Star = o.Rate5Star
	}
	if o.Rate5StarFirstTime != nil {
		raw.Rates.Rate5StarFirstTime = o.Rate5StarFirstTime
	}
	if o.Rate4Star != nil {
		raw.Rates.Rate4Star = o.Rate4Star
	}
	if o.SpookRate != nil {
		raw.Rates.SpookRate = o.SpookRate
	}
	if o.MaxSpooks != nil {
		raw.Rates.MaxSpooks = o.MaxSpooks
	}
	return raw
}

// RateTable converts a validated banner into engine rates.
func RateTable(raw RawGacha) gacha.RateTable {
	t := gacha.RateTable{
		Rate5Star:          deref(raw.Rates.Rate5Star),
		Rate5StarFirstTime: deref(raw.Rates.Rate5StarFirstTime),
		Rate4Star:          deref(raw.Rates.Rate4Star),
		SpookRate:          deref(raw.Rates.SpookRate),
		MaxSpooks:          deref(raw.Rates.MaxSpooks),
	}
	if p := raw.Pools; p != nil {
		t.Featured5, t.Standard5 = p.Featured5, p.Standard5
		t.Support4, t.Special4 = p.Support4, p.Special4
		t.Support3, t.Special3 = p.Support3, p.Special3
	}
	return t
}

// Pricing returns ticket pricing with file values over the defaults.
func Pricing(raw RawGacha) token.Token {
	t := token.Tickets()
	if raw.Tokens == nil {
		return t
	}
	if raw.Tokens.Name != "" {
		t.Name = raw.Tokens.Name
	}
	if raw.Tokens.PerDraw != nil {
		t.PerDraw = *raw.Tokens.PerDraw
	}
	if raw.Tokens.PerTenDraw != nil {
		t.PerTenDraw = *raw.Tokens.PerTenDraw
	}
	return t
}

// Rules returns battle rules with file values over the defaults.
func Rules(b RawBattle) battle.Rules {
	r := battle.DefaultRules()
	if b.StartingHP != nil {
		r.StartingHP = *b.StartingHP
	}
	if b.SkipHealMin != nil {
		r.SkipHealMin = *b.SkipHealMin
	}
	if b.SkipHealMax != nil {
		r.SkipHealMax = *b.SkipHealMax
	}
	if b.DefeatOnFieldWipe != nil {
		r.DefeatOnFieldWipe = *b.DefeatOnFieldWipe
	}
	return r
}

func checkAbilityRefs(cat *card.Catalog, abilities ability.Registry) error {
	var errs []error
	for _, id := range cat.IDs() {
		def, _ := cat.Lookup(id)
		for _, ref := range []string{def.Ability, def.Passive} {
			if ref == "" {
				continue
			}
			if _, ok := abilities.Ability(ref); !ok {
				errs = append(errs, fmt.Errorf("card %s: unknown ability %s", id, ref))
			}
		}
	}
	return errors.Join(errs...)
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
