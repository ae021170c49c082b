package gamedata

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/gacha-battle/internal/pricing"
)

// Paths locates data files under BaseDir:
//
//	cards.yaml
//	battle.yaml
//	shop.yaml
//	gacha/default.yaml
//	gacha/banners/<name>.yaml
type Paths struct {
	BaseDir string
}

func (p Paths) CardsPath() string  { return filepath.Join(p.BaseDir, "cards.yaml") }
func (p Paths) BattlePath() string { return filepath.Join(p.BaseDir, "battle.yaml") }
func (p Paths) ShopPath() string   { return filepath.Join(p.BaseDir, "shop.yaml") }
func (p Paths) DefaultPath() string {
	return filepath.Join(p.BaseDir, "gacha", "default.yaml")
}
func (p Paths) BannerPath(banner string) string {
	return filepath.Join(p.BaseDir, "gacha", "banners", banner+".yaml")
}

// Dirs are the directories a watcher needs to observe.
func (p Paths) Dirs() []string {
	return []string{p.BaseDir, filepath.Join(p.BaseDir, "gacha"), filepath.Join(p.BaseDir, "gacha", "banners")}
}

// Loader reads YAML files and merges default -> banner. Merged banners are
// cached until Invalidate.
type Loader struct {
	paths Paths

	mu    sync.RWMutex
	cache map[string]RawGacha // key: banner name, "" for default only
}

// NewLoader creates a loader rooted at baseDir.
func NewLoader(baseDir string) *Loader {
	return &Loader{
		paths: Paths{BaseDir: baseDir},
		cache: make(map[string]RawGacha),
	}
}

func (l *Loader) Paths() Paths { return l.paths }

// LoadGacha returns default.yaml merged with the named banner. An empty
// banner returns the default alone; a banner file that does not exist is an
// error so typos are not silently served the default.
func (l *Loader) LoadGacha(banner string) (RawGacha, error) {
	l.mu.RLock()
	if cfg, ok := l.cache[banner]; ok {
		l.mu.RUnlock()
		return cfg, nil
	}
	l.mu.RUnlock()

	var defCfg RawGacha
	if _, err := readYAML(l.paths.DefaultPath(), &defCfg); err != nil {
		return RawGacha{}, fmt.Errorf("read default: %w", err)
	}
	merged := defCfg
	if banner != "" {
		var bannerCfg RawGacha
		found, err := readYAML(l.paths.BannerPath(banner), &bannerCfg)
		if err != nil {
			return RawGacha{}, fmt.Errorf("read banner %s: %w", banner, err)
		}
		if !found {
			return RawGacha{}, fmt.Errorf("%w: %s", ErrUnknownBanner, banner)
		}
		merged = mergeRaw(defCfg, bannerCfg)
		if merged.Name == "" {
			merged.Name = banner
		}
	}

	l.mu.Lock()
	l.cache[banner] = merged
	l.mu.Unlock()
	return merged, nil
}

// LoadCards reads cards.yaml. It is required.
func (l *Loader) LoadCards() (CardFile, error) {
	var f CardFile
	found, err := readYAML(l.paths.CardsPath(), &f)
	if err != nil {
		return CardFile{}, fmt.Errorf("read cards: %w", err)
	}
	if !found {
		return CardFile{}, fmt.Errorf("read cards: %s: %w", l.paths.CardsPath(), os.ErrNotExist)
	}
	return f, nil
}

// LoadBattle reads battle.yaml. A missing file yields all defaults.
func (l *Loader) LoadBattle() (RawBattle, error) {
	var b RawBattle
	if _, err := readYAML(l.paths.BattlePath(), &b); err != nil {
		return RawBattle{}, fmt.Errorf("read battle rules: %w", err)
	}
	return b, nil
}

// LoadShop reads shop.yaml. A missing file yields an empty shop.
func (l *Loader) LoadShop() (pricing.Catalog, error) {
	var c pricing.Catalog
	if _, err := readYAML(l.paths.ShopPath(), &c); err != nil {
		return pricing.Catalog{}, fmt.Errorf("read shop: %w", err)
	}
	return c, nil
}

// Banners lists banner names found on disk.
func (l *Loader) Banners() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(l.paths.BaseDir, "gacha", "banners", "*.yaml"))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		base := filepath.Base(m)
		names = append(names, base[:len(base)-len(".yaml")])
	}
	return names, nil
}

// Invalidate clears the cache. Call after hot-reload detects changes.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[string]RawGacha)
}

// readYAML decodes path into out. A missing file reports found=false and no
// error.
func readYAML(path string, out any) (found bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return true, fmt.Errorf("%s: %w", path, err)
	}
	return true, nil
}

// mergeRaw overlays b onto a: set pointers and non-empty lists in b win.
func mergeRaw(a, b RawGacha) RawGacha {
	out := a

	if b.Version != "" {
		out.Version = b.Version
	}
	if b.Name != "" {
		out.Name = b.Name
	}
	if b.Notes != "" {
		out.Notes = b.Notes
	}

	// rates
	if b.Rates.Rate5Star != nil {
		out.Rates.Rate5Star = b.Rates.Rate5Star
	}
	if b.Rates.Rate5StarFirstTime != nil {
		out.Rates.Rate5StarFirstTime = b.Rates.Rate5StarFirstTime
	}
	if b.Rates.Rate4Star != nil {
		out.Rates.Rate4Star = b.Rates.Rate4Star
	}
	if b.Rates.SpookRate != nil {
		out.Rates.SpookRate = b.Rates.SpookRate
	}
	if b.Rates.MaxSpooks != nil {
		out.Rates.MaxSpooks = b.Rates.MaxSpooks
	}

	// pools
	switch {
	case out.Pools == nil && b.Pools != nil:
		c := *b.Pools
		out.Pools = &c
	case out.Pools != nil && b.Pools != nil:
		c := *out.Pools
		overlay := func(dst *[]string, src []string) {
			if len(src) > 0 {
				*dst = append([]string(nil), src...)
			}
		}
		overlay(&c.Featured5, b.Pools.Featured5)
		overlay(&c.Standard5, b.Pools.Standard5)
		overlay(&c.Support4, b.Pools.Support4)
		overlay(&c.Special4, b.Pools.Special4)
		overlay(&c.Support3, b.Pools.Support3)
		overlay(&c.Special3, b.Pools.Special3)
		out.Pools = &c
	}

	// tokens
	switch {
	case out.Tokens == nil && b.Tokens != nil:
		c := *b.Tokens
		out.Tokens = &c
	case out.Tokens != nil && b.Tokens != nil:
		c := *out.Tokens
		if b.Tokens.Name != "" {
			c.Name = b.Tokens.Name
		}
		if b.Tokens.PerDraw != nil {
			c.PerDraw = b.Tokens.PerDraw
		}
		if b.Tokens.PerTenDraw != nil {
			c.PerTenDraw = b.Tokens.PerTenDraw
		}
		out.Tokens = &c
	}

	return out
}
