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

	chatdomain "github.com/havensuites/concierge/internal/chat/domain"
	chatinfra "github.com/havensuites/concierge/internal/chat/infra"
	chatport "github.com/havensuites/concierge/internal/chat/port"
	chatservice "github.com/havensuites/concierge/internal/chat/service"
	"github.com/havensuites/concierge/internal/config"
	"github.com/havensuites/concierge/internal/domain"
	"github.com/havensuites/concierge/internal/handler"
	"github.com/havensuites/concierge/internal/infra/cache"
	"github.com/havensuites/concierge/internal/infra/client"
	"github.com/havensuites/concierge/internal/infra/observability"
	"github.com/havensuites/concierge/internal/infra/resilience"
	"github.com/havensuites/concierge/internal/port"
	"github.com/havensuites/concierge/internal/rating"
	"github.com/havensuites/concierge/internal/room"
	"github.com/havensuites/concierge/internal/service"
	"github.com/havensuites/concierge/internal/session"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("session_backend", cfg.SessionBackend),
		zap.Bool("remote_rating", cfg.RatingAPIURL != ""),
		zap.Duration("rating_timeout", cfg.RatingTimeout),
		zap.Duration("session_ttl", cfg.SessionTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Int("rate_limit_per_min", cfg.RateLimitPerMin),
	)
	if cfg.SessionSecret == config.DefaultSessionSecret {
		logger.Warn("SESSION_SECRET is the development default; set it in production")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "concierge")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Static resources ---
	var (
		corpus  *chatdomain.Corpus
		catalog *room.Catalog
		model   *rating.Model
	)
	g := new(errgroup.Group)
	g.Go(func() (err error) {
		corpus, err = chatinfra.LoadCorpus(cfg.IntentsPath)
		return err
	})
	g.Go(func() (err error) {
		catalog, err = room.LoadCatalog(cfg.CatalogPath)
		return err
	})
	g.Go(func() error {
		m, err := rating.LoadModel(cfg.RatingModelPath)
		if err != nil && cfg.RatingAPIURL != "" {
			// The remote predictor serves chat; only /v1/rating goes away.
			logger.Warn("local rating model unavailable", zap.Error(err))
			return nil
		}
		model = m
		return err
	})
	if err := g.Wait(); err != nil {
		var mis *domain.ErrMisconfigured
		if errors.As(err, &mis) {
			logger.Fatal("startup resource misconfigured",
				zap.String("resource", mis.Resource),
				zap.String("reason", mis.Reason),
			)
		}
		logger.Fatal("failed to load startup resources", zap.Error(err))
	}
	logger.Info("static resources loaded",
		zap.Int("intents", len(corpus.Intents)),
		zap.Int("rooms", catalog.Len()),
		zap.Bool("local_model", model != nil),
	)

	// --- Rating predictor ---
	var predictor port.RatingPredictor
	if cfg.RatingAPIURL != "" {
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		resilienceCfg := resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		}
		cb := resilience.NewCircuitBreaker("rating-api", logger)
		predictor = client.NewRatingClient(httpClient, cfg.RatingAPIURL, cb, resilienceCfg)
		logger.Info("using remote rating predictor", zap.String("rating_api_url", cfg.RatingAPIURL))
	} else {
		predictor = rating.NewLocalPredictor(model)
		logger.Info("using local rating model", zap.String("path", cfg.RatingModelPath))
	}

	// --- Sessions ---
	checks := map[string]handler.Pinger{}
	var sessions chatport.SessionStore
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Fatal("redis unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}

		store := session.NewRedisStore(rdb, cfg.SessionTTL, metrics.IncrSessionConflict)
		sessions = store
		checks["redis"] = store
		logger.Info("sessions stored in redis", zap.String("addr", cfg.RedisAddr))
	default:
		store := session.NewMemoryStore(cfg.SessionTTL)
		defer store.Close()
		sessions = store
		logger.Info("sessions stored in memory")
	}
	tokens := session.NewTokenIssuer(cfg.SessionSecret, cfg.SessionTokenTTL)

	// --- Services ---
	ratingCache := cache.New[float64](time.Hour)
	defer ratingCache.Stop()

	recommendationSvc := service.NewRecommendationService(
		catalog,
		predictor,
		ratingCache,
		cfg.RatingTimeout,
		metrics,
		logger,
	)

	seed := cfg.ReplySeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	chatSvc := chatservice.NewChatService(
		sessions,
		recommendationSvc,
		chatservice.NewIntentMatcher(corpus, seed),
		metrics,
		logger,
	)

	limiter := handler.NewRateLimiter(cfg.RateLimitPerMin)
	defer limiter.Stop()

	// --- Router ---
	router := handler.NewRouter(handler.Deps{
		Chat:            chatSvc,
		Recommendations: recommendationSvc,
		Catalog:         catalog,
		Model:           model,
		Tokens:          tokens,
		Limiter:         limiter,
		Checks:          checks,
		Metrics:         metrics,
		Logger:          logger,
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
