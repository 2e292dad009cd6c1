package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"MarketPulse/internal/broadcast"
	"MarketPulse/internal/cache"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/common"
	"MarketPulse/internal/config"
	"MarketPulse/internal/market"
	"MarketPulse/internal/model"
	"MarketPulse/internal/notifier"
	"MarketPulse/internal/recorder"
	"MarketPulse/internal/scheduler"
	"MarketPulse/internal/server"
)

// outageThreshold is the number of consecutive fully unreachable cycles before alerting.
const outageThreshold = 3

// provider is a market data client that can also resolve search queries.
type provider interface {
	collector.Client
	collector.Searcher
}

func main() {
	_ = godotenv.Load()

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		common.NewLogger("info").Fatal().Err(err).Msg("load config")
	}
	logger := common.NewLogger(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config validation")
	}
	logger.Info().Str("config", cfgPath).Msg("MarketPulse starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry, err := cfg.Registry()
	if err != nil {
		logger.Fatal().Err(err).Msg("build symbol registry")
	}

	// Data source
	client := newProvider(cfg)
	logger.Info().Str("provider", client.Name()).Msg("data source ready")

	col := collector.NewCollector(client,
		collector.WithMaxInFlight(cfg.Fetch.MaxInFlight),
		collector.WithTimeout(cfg.FetchTimeout()),
		collector.WithThrottleDelay(cfg.ThrottleDelay()),
		collector.WithLogger(logger),
	)

	searchCache, closeCache := newSearchCache(ctx, cfg, logger)
	defer closeCache()

	svc := market.NewService(col, client, registry, searchCache, logger)

	// Recorder
	rec := newRecorder(cfg, logger)
	defer rec.Close()

	// Broadcaster
	var lastCycle atomic.Pointer[model.CycleReport]
	opts := []broadcast.Option{
		broadcast.WithName(cfg.Broadcast.Universe),
		broadcast.WithInterval(cfg.BroadcastInterval()),
		broadcast.WithSendTimeout(cfg.SendTimeout()),
		broadcast.WithLogger(logger),
		broadcast.WithHook(func(r model.CycleReport) { lastCycle.Store(&r) }),
		broadcast.WithHook(func(r model.CycleReport) {
			rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer rcancel()
			if err := rec.RecordCycle(rctx, r); err != nil {
				logger.Warn().Err(err).Msg("record cycle failed")
			}
		}),
	}

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		watcher := notifier.NewOutageWatcher(tn, outageThreshold, logger)
		opts = append(opts, broadcast.WithHook(watcher.Observe))
		defer watcher.Wait()
	}

	b := broadcast.New(newSource(cfg, svc), opts...)

	if cfg.KafkaEnabled() {
		sink := broadcast.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Broadcast.Universe)
		defer sink.Close()
		b.Subscribe(sink)
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Kafka sink registered")
	}

	if err := b.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("start broadcaster")
	}
	defer b.Stop()

	// Janitor jobs
	sched := scheduler.NewScheduler(ctx, svc, rec, cfg.Retention(), logger)
	if err := sched.RegisterAll(cfg.Schedule.PurgeCron, cfg.Schedule.PruneCron); err != nil {
		logger.Fatal().Err(err).Msg("register cron tasks")
	}
	sched.Start()
	defer sched.Stop()

	// Chat commands
	if tn != nil {
		cmds := notifier.Commands{
			Status: func() notifier.Status {
				return notifier.Status{
					Universe:    b.Name(),
					State:       b.State().String(),
					Cycles:      b.Cycles(),
					Subscribers: b.Subscribers(),
					LastCycle:   lastCycle.Load(),
				}
			},
			Sectors: svc.SectorSnapshot,
		}
		go tn.StartPolling(ctx, cmds.Handler())
		logger.Info().Msg("Telegram polling started")
	}

	// HTTP
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.SetupRoutes(server.NewHandler(svc, b, rec, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("HTTP server failed")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		logger.Info().Msg("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("HTTP shutdown")
	}
	cancel()
	logger.Info().Msg("MarketPulse stopped")
}

func newProvider(cfg *config.Config) provider {
	switch cfg.DataSource.Provider {
	case config.ProviderREST:
		return collector.NewRESTClient(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy, cfg.DataSource.RateLimit)
	case config.ProviderMock:
		return collector.NewDemoClient(100)
	default:
		return collector.NewYahooClient(cfg.Proxy, collector.WithYahooRateLimit(cfg.DataSource.RateLimit))
	}
}

// newSearchCache falls back to the in-memory cache when Redis is unreachable at startup.
func newSearchCache(ctx context.Context, cfg *config.Config, logger *common.Logger) (cache.Cache[[]model.SearchResult], func()) {
	memory := func() cache.Cache[[]model.SearchResult] {
		return cache.NewMemoryCache[[]model.SearchResult](cfg.CacheTTL(), cache.WithMaxEntries(cfg.Cache.MaxEntries))
	}
	if cfg.Cache.Backend != config.BackendRedis {
		return memory(), func() {}
	}

	rc, err := cache.NewRedisCache[[]model.SearchResult](ctx, cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	}, cfg.CacheTTL(), logger)
	if err != nil {
		logger.Warn().Err(err).Msg("redis cache unavailable, using memory cache")
		return memory(), func() {}
	}
	return rc, func() { _ = rc.Close() }
}

func newRecorder(cfg *config.Config, logger *common.Logger) recorder.Recorder {
	if cfg.Database.SQLitePath == "" {
		return recorder.NewNoopRecorder()
	}
	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		return recorder.NewNoopRecorder()
	}
	return sr
}

func newSource(cfg *config.Config, svc *market.Service) broadcast.Source {
	if cfg.Broadcast.Universe == config.UniverseSectors {
		return func(ctx context.Context) (broadcast.Snapshot, error) {
			return svc.SectorSnapshot(ctx)
		}
	}
	return func(ctx context.Context) (broadcast.Snapshot, error) {
		return svc.IndexSnapshot(ctx)
	}
}
