package gamedata

import (
	"log/slog"
	"sync/atomic"
)

// Live holds the current resolved data for one banner and swaps it on
// reload. Readers never see a partially loaded set.
type Live struct {
	loader *Loader
	banner string
	log    *slog.Logger
	cur    atomic.Pointer[Data]
}

// NewLive resolves banner once; a failure here is fatal misconfiguration.
func NewLive(l *Loader, banner string, logger *slog.Logger) (*Live, error) {
	if logger == nil {
		logger = slog.Default()
	}
	d, err := l.Resolve(banner, Overrides{})
	if err != nil {
		return nil, err
	}
	lv := &Live{loader: l, banner: banner, log: logger}
	lv.cur.Store(d)
	return lv, nil
}

func (lv *Live) Current() *Data { return lv.cur.Load() }

func (lv *Live) Loader() *Loader { return lv.loader }

// Reload re-reads every file. On error the previous data stays in service.
func (lv *Live) Reload() error {
	lv.loader.Invalidate()
	d, err := lv.loader.Resolve(lv.banner, Overrides{})
	if err != nil {
		lv.log.Error("game data reload rejected, keeping previous version", "banner", lv.banner, "err", err)
		return err
	}
	lv.cur.Store(d)
	lv.log.Info("game data reloaded", "banner", lv.banner, "version", d.Version, "cards", d.Catalog.Len())
	return nil
}
