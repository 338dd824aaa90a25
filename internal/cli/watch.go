package cli

import (
	"context"
	"log/slog"
	"sync"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/guidepost/internal/config"
	"github.com/aretw0/guidepost/pkg/adapters/guid"
	"github.com/aretw0/guidepost/pkg/adapters/journal"
	"github.com/aretw0/guidepost/pkg/adapters/redis"
	"github.com/aretw0/guidepost/pkg/bus"
	plog "github.com/aretw0/guidepost/pkg/log"
	"github.com/aretw0/guidepost/pkg/ports"
)

// buildWatchers creates the watchers the configuration asks for. Host
// watchers are skipped when hostWatchers is false; the admin watcher only
// exists when a redis client is given.
func buildWatchers(cfg *config.Config, inspector ports.WindowInspector, client *backend.Client, hostWatchers bool, logger *slog.Logger) []ports.Watcher {
	var watchers []ports.Watcher

	if hostWatchers {
		for _, vm := range cfg.Scope {
			watchers = append(watchers, guid.New(vm,
				guid.WithLogDir(cfg.GuidLogDir),
				guid.WithInspector(inspector),
				guid.WithSettleDelay(cfg.SettleDelay),
				guid.WithLogger(logger),
			))
		}
		if len(cfg.JournalCommand) > 0 {
			watchers = append(watchers, journal.New(cfg.Scope,
				journal.WithSource(journal.CommandSource(cfg.JournalCommand...)),
				journal.WithLogger(logger),
			))
		}
	}

	if client != nil {
		opts := []redis.Option{redis.WithChannel(cfg.Redis.Channel), redis.WithLogger(logger)}
		if cfg.Redis.FilterScope {
			opts = append(opts, redis.WithScope(cfg.Scope...))
		}
		watchers = append(watchers, redis.NewWatcher(client, opts...))
	}
	return watchers
}

// runWatchers starts each watcher in its own goroutine. A watcher that fails
// is logged and does not stop the others. The returned function waits for
// all of them after ctx is done.
func runWatchers(ctx context.Context, watchers []ports.Watcher, sink bus.Sink, logger *slog.Logger) (wait func()) {
	var wg sync.WaitGroup
	for _, w := range watchers {
		wg.Add(1)
		go func(w ports.Watcher) {
			defer wg.Done()
			logger.DebugContext(ctx, "watcher started", plog.Watcher(w.Name()))
			if err := w.Run(ctx, sink); err != nil {
				logger.ErrorContext(ctx, "watcher stopped", plog.Watcher(w.Name()), plog.Error(err))
				return
			}
			logger.DebugContext(ctx, "watcher stopped", plog.Watcher(w.Name()))
		}(w)
	}
	return wg.Wait
}

func newRedisClient(cfg *config.Config) *backend.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	return backend.NewClient(&backend.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
