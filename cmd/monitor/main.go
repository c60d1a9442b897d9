package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brojonat/cobuy/service/config"
	"github.com/brojonat/cobuy/service/db"
	"github.com/brojonat/cobuy/service/metadata"
	"github.com/brojonat/cobuy/service/metrics"
	"github.com/brojonat/cobuy/service/monitor"
	natspkg "github.com/brojonat/cobuy/service/nats"
	"github.com/brojonat/cobuy/service/ranking"
	"github.com/brojonat/cobuy/service/server"
	sig "github.com/brojonat/cobuy/service/signal"
	"github.com/brojonat/cobuy/service/solana"
	"github.com/brojonat/cobuy/service/telegram"
	"github.com/brojonat/cobuy/service/watchlist"
	"github.com/prometheus/client_golang/prometheus"
)

// rankingCacheTTL bounds how stale a re-resolved market cap in a ranking can be.
const rankingCacheTTL = time.Minute

func main() {
	// Fails fast if any required config is missing or invalid.
	cfg := config.MustLoad()

	logger := setupLogger(cfg.LogLevel)
	logger.Info("starting monitor",
		"addr", cfg.ServerAddr,
		"log_level", cfg.LogLevel,
	)

	wallets, err := watchlist.Load(cfg.WatchlistPath)
	if err != nil {
		logger.Error("failed to load watchlist", "path", cfg.WatchlistPath, "error", err)
		os.Exit(1)
	}
	logger.Info("loaded watchlist", "path", cfg.WatchlistPath, "wallets", len(wallets))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	applied, err := db.Migrate(ctx, dbPool)
	if err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to database", "migrations", applied)

	m := metrics.NewMetrics(prometheus.DefaultRegisterer)
	store := db.NewStore(dbPool, m)

	// API keys for premium endpoints travel in the URL; only the host is logged.
	endpoint := solana.EndpointLabel(cfg.SolanaRPCURL)
	solanaClient := solana.NewClient(solana.NewRPCClient(cfg.SolanaRPCURL), endpoint, cfg.RPCTimeout, m, logger)
	logger.Info("initialized solana RPC client", "endpoint", endpoint)

	resolver := newResolver(cfg, m, logger)

	notifiers := []sig.Notifier{sig.NewLogNotifier(logger)}

	var publisher *natspkg.JetStreamPublisher
	var ssePublisher *server.SSEPublisher
	if cfg.NATSEnabled() {
		publisher, err = natspkg.NewPublisher(cfg.NATSURL, m, logger)
		if err != nil {
			logger.Error("failed to initialize NATS publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		notifiers = append(notifiers, natspkg.NewNotifier(publisher))

		ssePublisher, err = server.NewSSEPublisher(cfg.NATSURL, logger)
		if err != nil {
			logger.Error("failed to initialize SSE publisher", "error", err)
			os.Exit(1)
		}
		defer ssePublisher.Close()
	}

	reporter := ranking.NewReporter(store, metadata.NewCached(resolver, rankingCacheTTL), ranking.Config{
		Timeout: cfg.RPCTimeout,
		Logger:  logger,
	})

	if cfg.TelegramEnabled() {
		cmds := telegram.NewCommands(reporter, cfg.RankingTopK, logger)
		bot, err := telegram.NewBot(cfg.TelegramBotToken, cmds, logger)
		if err != nil {
			logger.Error("failed to initialize telegram bot", "error", err)
			os.Exit(1)
		}
		notifiers = append(notifiers, telegram.NewNotifier(bot, cfg.TelegramChannelID))
		go bot.Start(ctx)
		logger.Info("telegram bot started", "channel", cfg.TelegramChannelID)
	}

	emitter := sig.NewEmitter(resolver, store, notifiers, sig.EmitterConfig{
		LinkBase: cfg.TokenLinkBase,
		Timeout:  cfg.RPCTimeout,
		Metrics:  m,
		Logger:   logger,
	})

	mon := monitor.New(monitor.Config{
		Wallets:           wallets,
		PollInterval:      cfg.PollInterval,
		SignatureLimit:    cfg.SignatureLimit,
		MinBuyAmountSOL:   cfg.MinBuyAmountSOL,
		MinWalletsTrigger: cfg.MinWalletsTrigger,
		SeenTTL:           cfg.SeenTTL,
	}, solanaClient, emitter, m, logger)

	httpServer := server.New(cfg.ServerAddr, cfg, store, reporter, ssePublisher, m, logger)

	logger.Info("monitor initialized, all dependencies ready",
		"metadata_provider", cfg.MetadataProvider,
		"min_wallets_trigger", cfg.MinWalletsTrigger,
		"min_buy_amount_sol", cfg.MinBuyAmountSOL.String(),
		"nats_enabled", cfg.NATSEnabled(),
		"telegram_enabled", cfg.TelegramEnabled(),
	)

	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		mon.Run(ctx)
	}()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- httpServer.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("server error", "error", err)
		cancel()
		<-monitorDone
		os.Exit(1)
	case s := <-shutdown:
		logger.Info("shutdown signal received", "signal", s.String())
	}

	// In-memory aggregates are discarded; only persisted signals survive.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server gracefully", "error", err)
	}

	select {
	case <-monitorDone:
	case <-shutdownCtx.Done():
		logger.Warn("monitor did not stop before shutdown deadline")
	}

	logger.Info("shutdown complete")
}

func newResolver(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) metadata.Resolver {
	opts := metadata.Options{
		RPS:     cfg.MetadataRPS,
		Timeout: cfg.RPCTimeout,
		Metrics: m,
		Logger:  logger,
	}
	if cfg.MetadataProvider == config.ProviderBirdeye {
		return metadata.NewBirdeye(cfg.BirdeyeURL, cfg.BirdeyeAPIKey, opts)
	}
	return metadata.NewDexScreener(cfg.DexScreenerURL, opts)
}

// setupLogger creates a structured logger with the given log level.
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
