package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/xtding233/gacha-battle/internal/arena"
	"github.com/xtding233/gacha-battle/internal/config"
	"github.com/xtding233/gacha-battle/internal/gamedata"
	"github.com/xtding233/gacha-battle/internal/grpcapi"
	"github.com/xtding233/gacha-battle/internal/httpapi"
	"github.com/xtding233/gacha-battle/internal/profile"
	"github.com/xtding233/gacha-battle/internal/random"
	"github.com/xtding233/gacha-battle/internal/service"
	"github.com/xtding233/gacha-battle/internal/storage"
	"github.com/xtding233/gacha-battle/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "configs/server.toml", "path to the server config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("telemetry shutdown", "err", err)
		}
	}()

	loader := gamedata.NewLoader(cfg.Data.Dir)
	live, err := gamedata.NewLive(loader, cfg.Data.Banner, logger)
	if err != nil {
		return fmt.Errorf("game data: %w", err)
	}
	d := live.Current()
	logger.Info("game data loaded", "dir", cfg.Data.Dir, "banner", d.Banner, "version", d.Version, "cards", d.Catalog.Len())

	store, closeStore, err := openStore(cfg.Store, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	var rng random.Source
	if cfg.Gacha.Seed != 0 {
		rng = random.NewSeeded(cfg.Gacha.Seed)
		logger.Warn("using a seeded random source", "seed", cfg.Gacha.Seed)
	}

	arenaMgr := arena.NewManager(arena.Options{
		MaxSessions: cfg.Arena.MaxSessions,
		TTL:         cfg.Arena.SessionTTLDuration(),
		BotDelay:    cfg.Arena.BotDelayDuration(),
		Logger:      logger,
	})
	svc := service.New(service.Options{
		Store:           store,
		Data:            live,
		Resolver:        loader,
		Arena:           arenaMgr,
		RNG:             rng,
		Logger:          logger,
		StartingTickets: cfg.Gacha.StartingTickets,
		PullsPerSecond:  cfg.Gacha.PullsPerSecond,
		PullBurst:       cfg.Gacha.PullBurst,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var wg sync.WaitGroup
	errs := make(chan error, 4)
	spawn := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errs <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}

	spawn("arena", func(ctx context.Context) error {
		arenaMgr.Run(ctx)
		return nil
	})

	if cfg.Data.Watch {
		w, err := gamedata.NewWatcher(loader, func(path string) {
			logger.Info("game data changed", "path", path)
			_ = live.Reload()
		}, logger)
		if err != nil {
			return fmt.Errorf("watch game data: %w", err)
		}
		spawn("watcher", w.Run)
	}

	if cfg.GRPC.Addr != "" {
		gs, err := grpcapi.New(cfg.GRPC.Addr, svc, logger)
		if err != nil {
			cancel()
			wg.Wait()
			return err
		}
		spawn("grpc", gs.Serve)
	}

	if cfg.HTTP.Addr != "" {
		hs := &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpapi.New(svc, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		spawn("http", func(ctx context.Context) error {
			return serveHTTP(ctx, hs, logger)
		})
	}

	wg.Wait()
	close(errs)
	var all []error
	for err := range errs {
		all = append(all, err)
	}
	logger.Info("server stopped")
	return errors.Join(all...)
}

func serveHTTP(ctx context.Context, hs *http.Server, logger *slog.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", hs.Addr)
		serveErr <- hs.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(sctx); err != nil {
			return err
		}
		<-serveErr
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// openStore returns the configured profile store and its closer.
func openStore(cfg config.StoreConfig, logger *slog.Logger) (profile.Store, func(), error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("profiles are kept in memory and lost on exit")
		return profile.NewMemoryStore(), func() {}, nil
	default:
		db, err := storage.Open(storage.DefaultConfig(cfg.Path))
		if err != nil {
			return nil, nil, fmt.Errorf("open store: %w", err)
		}
		logger.Info("profile store opened", "path", cfg.Path)
		return storage.NewProfileStore(db), func() {
			if err := db.Close(); err != nil {
				logger.Warn("close store", "err", err)
			}
		}, nil
	}
}
