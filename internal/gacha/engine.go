package gacha

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/xtding233/gacha-battle/internal/card"
	"github.com/xtding233/gacha-battle/internal/profile"
	"github.com/xtding233/gacha-battle/internal/random"
	"github.com/xtding233/gacha-battle/internal/token"
)

// TenPull is the size of a multi-pull and its guarantee window.
const TenPull = 10

var ErrInsufficientTickets = errors.New("insufficient tickets")

// Pull is one revealed result. Card is nil when the selected pool had no
// usable data.
type Pull struct {
	Card       *card.Definition `json:"card"`
	Rarity     int              `json:"rarity"`
	OffBanner  bool             `json:"off_banner,omitempty"`
	Guaranteed bool             `json:"guaranteed,omitempty"`
}

// Engine rolls pulls against a rate table and applies them to a profile.
// It is not safe for concurrent use on the same profile; callers serialize
// per user.
type Engine struct {
	Rates   RateTable
	Cards   card.Lookup
	Pricing token.Token
	RNG     random.Source
	Logger  *slog.Logger

	roller *roller
}

// NewEngine validates rates and builds an engine. A nil rng uses the crypto
// source, a nil logger uses slog.Default.
func NewEngine(rates RateTable, cards card.Lookup, rng random.Source, logger *slog.Logger) (*Engine, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = random.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Rates:   rates,
		Cards:   cards,
		Pricing: token.Tickets(),
		RNG:     rng,
		Logger:  logger,
		roller:  newRoller(rates, rng),
	}, nil
}

// PullSingle spends one pull's tickets and rolls once.
func (e *Engine) PullSingle(p *profile.Profile) (Pull, error) {
	if err := e.charge(p, 1); err != nil {
		return Pull{}, err
	}
	return e.resolve(p, e.roller.roll(&p.FirstGacha, false)), nil
}

// PullTen spends a ten-pull's tickets and rolls ten times. When pulls 1-9
// produced nothing of rarity 4 or above, pull 10 skips the 3-star branch.
func (e *Engine) PullTen(p *profile.Profile) ([]Pull, error) {
	if err := e.charge(p, TenPull); err != nil {
		return nil, err
	}
	pity := NewPitySystem(TenPull)
	out := make([]Pull, 0, TenPull)
	for i := 0; i < TenPull; i++ {
		guaranteed := pity.Due()
		res := e.resolve(p, e.roller.roll(&p.FirstGacha, guaranteed))
		res.Guaranteed = guaranteed
		pity.Record(res.Rarity >= 4)
		out = append(out, res)
	}
	return out, nil
}

func (e *Engine) charge(p *profile.Profile, pulls int) error {
	cost := e.Pricing.TokensForDraws(pulls)
	if p.Tickets < cost {
		e.Logger.Warn("gacha pull refused", "profile", p.ID, "tickets", p.Tickets, "cost", cost)
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientTickets, p.Tickets, cost)
	}
	p.Tickets -= cost
	return nil
}

// resolve picks the concrete card for a rolled tier and records it.
func (e *Engine) resolve(p *profile.Profile, rarity int) Pull {
	p.PullCount++
	res := Pull{Rarity: rarity}
	var pool []string
	switch rarity {
	case 5:
		spook := e.roller.banner.Spook(&p.SpookStreak)
		pool, res.OffBanner = pickPool(e.Rates.Featured5, e.Rates.Standard5, spook)
	case 4:
		pool, _ = pickPool(e.Rates.Support4, e.Rates.Special4, e.RNG.Float64() >= 0.5)
	default:
		pool, _ = pickPool(e.Rates.Support3, e.Rates.Special3, e.RNG.Float64() >= 0.5)
	}
	if len(pool) == 0 {
		e.Logger.Warn("gacha pool empty", "profile", p.ID, "rarity", rarity)
		return res
	}
	id := pool[random.IntN(e.RNG, len(pool))]
	if e.Cards == nil {
		e.Logger.Warn("gacha has no card catalog", "card", id)
		return res
	}
	def, err := e.Cards.Lookup(id)
	if err != nil {
		e.Logger.Warn("gacha card missing", "card", id, "err", err)
		return res
	}
	res.Card = &def
	p.AddOwned(def.ID)
	return res
}

// pickPool returns primary unless useSecondary, falling back to whichever
// pool is non-empty. The bool reports whether secondary was used.
func pickPool(primary, secondary []string, useSecondary bool) ([]string, bool) {
	if useSecondary && len(secondary) == 0 {
		useSecondary = false
	}
	if !useSecondary && len(primary) == 0 {
		useSecondary = true
	}
	if useSecondary {
		return secondary, true
	}
	return primary, false
}

// roller holds the tier roll, shared by Engine and the Monte Carlo runner.
type roller struct {
	rates  RateTable
	rng    random.Source
	banner *BannerSystem
}

func newRoller(rates RateTable, rng random.Source) *roller {
	return &roller{
		rates:  rates,
		rng:    rng,
		banner: NewBannerSystem(rates.SpookRate, rates.MaxSpooks, rng),
	}
}

// roll returns the rarity tier. The first-time flag selects the bonus
// 5-star rate and is consumed by the pull that used it.
func (r *roller) roll(firstTime *bool, guaranteed bool) int {
	rate5 := r.rates.Rate5Star
	if *firstTime {
		rate5 = r.rates.Rate5StarFirstTime
		*firstTime = false
	}
	x := r.rng.Float64()
	switch {
	case x < rate5:
		return 5
	case guaranteed:
		return 4
	case x < rate5+r.rates.Rate4Star:
		return 4
	default:
		return 3
	}
}
