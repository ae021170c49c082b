// Package gamedata loads cards, abilities, banners and battle rules from
// YAML and resolves them into engine parameters.
package gamedata

import (
	"github.com/xtding233/gacha-battle/internal/ability"
	"github.com/xtding233/gacha-battle/internal/card"
)

// RawGacha is one banner file as written. Pointer fields distinguish "unset"
// from zero so a banner only overrides what it names.
type RawGacha struct {
	Version string       `yaml:"version"`
	Name    string       `yaml:"name,omitempty"`
	Rates   RawRates     `yaml:"rates"`
	Pools   *RawPools    `yaml:"pools,omitempty"`
	Tokens  *TokenConfig `yaml:"tokens,omitempty"`
	Notes   string       `yaml:"notes,omitempty"`
}

type RawRates struct {
	Rate5Star          *float64 `yaml:"rate_5star"`
	Rate5StarFirstTime *float64 `yaml:"rate_5star_first_time"`
	Rate4Star          *float64 `yaml:"rate_4star"`
	SpookRate          *float64 `yaml:"spook_rate"`
	MaxSpooks          *int     `yaml:"max_spooks,omitempty"`
}

// RawPools replaces pools one by one; an omitted list keeps the default.
type RawPools struct {
	Featured5 []string `yaml:"featured_5star,omitempty"`
	Standard5 []string `yaml:"standard_5star,omitempty"`
	Support4  []string `yaml:"support_4star,omitempty"`
	Special4  []string `yaml:"special_4star,omitempty"`
	Support3  []string `yaml:"support_3star,omitempty"`
	Special3  []string `yaml:"special_3star,omitempty"`
}

type TokenConfig struct {
	Name       string `yaml:"name,omitempty"`
	PerDraw    *int   `yaml:"per_draw"`
	PerTenDraw *int   `yaml:"per_ten_draw"`
}

// RawBattle is battle.yaml.
type RawBattle struct {
	StartingHP        *int  `yaml:"starting_hp"`
	SkipHealMin       *int  `yaml:"skip_heal_min"`
	SkipHealMax       *int  `yaml:"skip_heal_max"`
	DefeatOnFieldWipe *bool `yaml:"defeat_on_field_wipe"`
}

// CardFile is cards.yaml: the card catalog and the abilities it references.
type CardFile struct {
	Cards     []card.Definition    `yaml:"cards"`
	Abilities []ability.Definition `yaml:"abilities"`
}
