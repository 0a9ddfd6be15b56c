package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/mmuslimabdulj/gelly-pet/internal/config"
	httpHandler "github.com/mmuslimabdulj/gelly-pet/internal/delivery/http"
	"github.com/mmuslimabdulj/gelly-pet/internal/delivery/ws"
	"github.com/mmuslimabdulj/gelly-pet/internal/logger"
	"github.com/mmuslimabdulj/gelly-pet/internal/metrics"
	"github.com/mmuslimabdulj/gelly-pet/internal/middleware"
	"github.com/mmuslimabdulj/gelly-pet/internal/usecase"
)

func main() {
	// Load .env file (ignore error if not exists, e.g. in production)
	_ = godotenv.Load()

	cfg := config.LoadFromEnv()

	log, err := logger.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	// `server migrate` applies the schema and exits
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := migrateOnly(cfg, log); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
		return
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(reg)

	// Backing services
	stores, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	publisher, err := openPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	resolver, balances := openIdentity(cfg, log)

	// Domain
	ranker := usecase.NewRanker(usecase.ParseMetric(cfg.LeaderboardMetric))
	hub := ws.NewHub(ranker, ws.HubConfig{
		LeaderboardSize:  cfg.LeaderboardSize,
		BroadcastUpdates: cfg.BroadcastAll(),
		Metrics:          recorder,
		Logger:           log.Named("hub"),
	})

	svc := usecase.NewInteractionService(usecase.ServiceDeps{
		Repo:      stores.pets,
		Engine:    usecase.NewEngine(usecase.EngineConfig{DecayEnabled: cfg.DecayEnabled}),
		Cooldowns: usecase.NewCooldownGuard(stores.cooldowns, cfg.Cooldowns),
		Ranker:    ranker,
		Hub:       hub,
		Events:    publisher,
		Metrics:   recorder,
		Logger:    log.Named("interaction"),
		Config: usecase.ServiceConfig{
			StoreTimeout:    cfg.StoreTimeout,
			EventTimeout:    cfg.UpstreamTimeout,
			LeaderboardSize: cfg.LeaderboardSize,
		},
	})

	seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = svc.LoadLeaderboard(seedCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("seed leaderboard: %w", err)
	}

	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	// HTTP
	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	apiLimiter := middleware.NewIPRateLimiter(cfg.RateLimitAPI, 20)
	apiLimiter.TrustProxies(proxies)
	defer apiLimiter.Stop()
	wsLimiter := middleware.NewIPRateLimiter(cfg.RateLimitWS, 10)
	wsLimiter.TrustProxies(proxies)
	defer wsLimiter.Stop()

	handler := httpHandler.NewHandler(svc, hub, resolver, balances, log.Named("http"), httpHandler.HandlerConfig{
		AllowedOrigins:  cfg.AllowedOrigins,
		LeaderboardSize: cfg.LeaderboardSize,
		UpstreamTimeout: cfg.UpstreamTimeout,
	})
	router := httpHandler.NewRouter(httpHandler.RouterDeps{
		Handler:          handler,
		Logger:           log.Named("access"),
		APILimiter:       apiLimiter,
		WebSocketLimiter: wsLimiter,
		Metrics:          metrics.Handler(reg),
	})

	// Create server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("gelly pet running",
			zap.String("addr", "http://localhost:"+cfg.Port),
			zap.String("store", cfg.StoreDriver),
			zap.String("cooldowns", cfg.CooldownDriver),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}
	log.Info("shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	stop()
	<-hubDone

	log.Info("server exited gracefully")
	return nil
}
