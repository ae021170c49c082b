package gamedata

import (
	"fmt"
	"strings"
)

// ValidateRaw checks semantic constraints of a merged banner.
func ValidateRaw(cfg RawGacha) error {
	var errs []string

	probs := []struct {
		name string
		v    *float64
	}{
		{"rates.rate_5star", cfg.Rates.Rate5Star},
		{"rates.rate_5star_first_time", cfg.Rates.Rate5StarFirstTime},
		{"rates.rate_4star", cfg.Rates.Rate4Star},
		{"rates.spook_rate", cfg.Rates.SpookRate},
	}
	for _, p := range probs {
		if p.v == nil {
			errs = append(errs, p.name+" is required")
			continue
		}
		if *p.v < 0 || *p.v > 1 {
			errs = append(errs, p.name+" must be in [0,1]")
		}
	}
	if cfg.Rates.MaxSpooks != nil && *cfg.Rates.MaxSpooks < 0 {
		errs = append(errs, "rates.max_spooks must be >= 0 (0 disables the streak guarantee)")
	}

	if cfg.Pools == nil {
		errs = append(errs, "pools are required")
	}

	// tokens (optional)
	if cfg.Tokens != nil {
		if cfg.Tokens.PerDraw != nil && *cfg.Tokens.PerDraw < 0 {
			errs = append(errs, "tokens.per_draw must be >= 0")
		}
		if cfg.Tokens.PerTenDraw != nil && *cfg.Tokens.PerTenDraw < 0 {
			errs = append(errs, "tokens.per_ten_draw must be >= 0")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateBattle checks battle.yaml.
func ValidateBattle(b RawBattle) error {
	var errs []string
	if b.StartingHP != nil && *b.StartingHP <= 0 {
		errs = append(errs, "starting_hp must be >= 1")
	}
	if b.SkipHealMin != nil && *b.SkipHealMin < 0 {
		errs = append(errs, "skip_heal_min must be >= 0")
	}
	if b.SkipHealMin != nil && b.SkipHealMax != nil && *b.SkipHealMax < *b.SkipHealMin {
		errs = append(errs, "skip_heal_max must be >= skip_heal_min")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
