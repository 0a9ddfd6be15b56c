package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mmuslimabdulj/gelly-pet/internal/config"
	"github.com/mmuslimabdulj/gelly-pet/internal/database"
	httpHandler "github.com/mmuslimabdulj/gelly-pet/internal/delivery/http"
	"github.com/mmuslimabdulj/gelly-pet/internal/events"
	"github.com/mmuslimabdulj/gelly-pet/internal/identity"
	"github.com/mmuslimabdulj/gelly-pet/internal/repository"
	"github.com/mmuslimabdulj/gelly-pet/internal/usecase"
)

type stores struct {
	pets      repository.PetRepository
	cooldowns repository.CooldownStore
	closers   []func() error
}

func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i]()
	}
}

// openStores selects the pet store and cooldown store from config
func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	s := &stores{}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)
		s.pets = repository.NewPostgresPetRepo(db)
	default:
		log.Warn("using in-memory pet store; state is lost on restart")
		s.pets = repository.NewMemoryPetRepo()
	}

	switch cfg.CooldownDriver {
	case config.DriverRedis:
		client, err := database.OpenRedis(ctx, database.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, client.Close)
		s.cooldowns = repository.NewRedisCooldownStore(client, "gellypet:cooldown")
	default:
		mem := repository.NewMemoryCooldownStore(time.Minute)
		s.closers = append(s.closers, func() error { mem.Stop(); return nil })
		s.cooldowns = mem
	}

	return s, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sql.DB, error) {
	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		log.Info("database migrations applied")
	}

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	return db, nil
}

func migrateOnly(cfg *config.Config, log *zap.Logger) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return err
	}
	log.Info("database migrations applied")
	return nil
}

// openPublisher returns a Kafka publisher when brokers are configured
func openPublisher(cfg *config.Config, log *zap.Logger) (events.Publisher, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Noop{}, nil
	}

	producer, err := events.NewAsyncProducer(cfg.KafkaBrokers)
	if err != nil {
		return nil, err
	}
	log.Info("streaming interactions to kafka",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
	)
	return events.NewKafkaPublisher(producer, cfg.KafkaTopic, log.Named("events")), nil
}

// openIdentity returns nil collaborators for whatever is not configured
func openIdentity(cfg *config.Config, log *zap.Logger) (identity.Resolver, httpHandler.BalanceLookup) {
	if cfg.JWTSecret == "" {
		log.Info("identity resolver disabled; requests are trusted by user field")
		return nil, nil
	}
	resolver := identity.NewJWTResolver(cfg.JWTSecret, cfg.JWTIssuer)

	if cfg.PointsAPIURL == "" {
		return resolver, nil
	}
	provider := identity.NewHTTPPointsProvider(cfg.PointsAPIURL, cfg.PointsAPIKey, cfg.UpstreamTimeout)
	return resolver, usecase.NewBalanceService(provider, cfg.UpstreamTimeout)
}
