package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quantfold/pmarb/internal/arbitrage"
	s3blob "github.com/quantfold/pmarb/internal/blob/s3"
	"github.com/quantfold/pmarb/internal/cache/redis"
	"github.com/quantfold/pmarb/internal/classifier"
	"github.com/quantfold/pmarb/internal/config"
	"github.com/quantfold/pmarb/internal/domain"
	"github.com/quantfold/pmarb/internal/matcher"
	"github.com/quantfold/pmarb/internal/notify"
	"github.com/quantfold/pmarb/internal/platform"
	"github.com/quantfold/pmarb/internal/platform/kalshi"
	"github.com/quantfold/pmarb/internal/platform/polymarket"
	"github.com/quantfold/pmarb/internal/platform/predictit"
	"github.com/quantfold/pmarb/internal/service"
	"github.com/quantfold/pmarb/internal/store/postgres"
)

// Dependencies bundles everything the application modes need to operate.
// It is constructed by Wire and torn down by the returned cleanup
// function.
type Dependencies struct {
	MarketStore      domain.MarketStore
	MatchedPairStore domain.MatchedPairStore
	MarketCache      domain.MarketCache // nil when Redis is not configured
	ModelStore       domain.ModelStore  // nil when S3 is not configured

	Providers []platform.Provider

	MatchService *service.MatchService
	ArbService   *service.ArbService
	Trainer      *service.Trainer // nil without a model store

	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function to be
// called on shutdown.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Database.DSN,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Database,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: cfg.Database.PoolMaxConns,
		MinConns: cfg.Database.PoolMinConns,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, pgClient.Close)

	if cfg.Database.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
		}
	}

	pool := pgClient.Pool()
	deps.MarketStore = postgres.NewMarketStore(pool)
	deps.MatchedPairStore = postgres.NewMatchedPairStore(pool)

	// --- Redis (optional) ---
	if cfg.Redis.Addr != "" {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		deps.MarketCache = redis.NewMarketCache(redisClient)
	}

	// --- S3 model store (optional) ---
	if cfg.S3.Bucket != "" {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })
		deps.ModelStore = s3blob.NewModelStore(s3Client)
	}

	// --- Platform providers ---
	if cfg.Platforms.Kalshi.Enabled {
		deps.Providers = append(deps.Providers, kalshi.NewClient(cfg.Platforms.Kalshi.BaseURL))
	}
	if cfg.Platforms.Polymarket.Enabled {
		deps.Providers = append(deps.Providers, polymarket.NewClient(cfg.Platforms.Polymarket.BaseURL))
	}
	if cfg.Platforms.PredictIt.Enabled {
		deps.Providers = append(deps.Providers, predictit.NewClient(cfg.Platforms.PredictIt.BaseURL))
	}

	// --- Notifications ---
	if cfg.Notify.Enabled {
		senders := []notify.Sender{
			notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID),
		}
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	// --- Matching + detection ---
	m, err := matcher.New(matcher.Config{
		NameWeight:        cfg.Matcher.NameWeight,
		CategoryWeight:    cfg.Matcher.CategoryWeight,
		ContractWeight:    cfg.Matcher.ContractWeight,
		TemporalWeight:    cfg.Matcher.TemporalWeight,
		MinScoreThreshold: cfg.Matcher.MinScoreThreshold,
		MaxDaysApart:      cfg.Matcher.MaxDaysApart,
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("wire: matcher: %w", err)
	}

	var clf *classifier.Classifier
	if cfg.Classifier.Enabled {
		clf = classifier.New()
	}

	detector := arbitrage.New(arbitrage.Config{
		MinSimilarity:      cfg.Detector.MinSimilarity,
		MinProfitThreshold: cfg.Detector.MinProfitThreshold,
		MinROI:             cfg.Detector.MinROI,
	}, logger)

	deps.MatchService = service.NewMatchService(
		deps.Providers, deps.MarketStore, deps.MatchedPairStore,
		deps.MarketCache, m, clf, logger,
	)
	deps.ArbService = service.NewArbService(
		deps.MatchedPairStore, deps.MarketStore, deps.MarketCache,
		detector, deps.Notifier, logger,
	)
	if deps.ModelStore != nil && clf != nil {
		deps.Trainer = service.NewTrainer(
			deps.MatchedPairStore, deps.MarketStore, deps.ModelStore, clf, logger,
		)
	}

	return deps, cleanup, nil
}
