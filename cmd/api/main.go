// Package main is the entrypoint for the cloud-store API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"github.com/allevo/cloud-store/internal/auth"
	"github.com/allevo/cloud-store/internal/cache"
	"github.com/allevo/cloud-store/internal/catalog"
	"github.com/allevo/cloud-store/internal/config"
	"github.com/allevo/cloud-store/internal/credential"
	"github.com/allevo/cloud-store/internal/handler"
	"github.com/allevo/cloud-store/internal/metrics"
	"github.com/allevo/cloud-store/internal/middleware"
	"github.com/allevo/cloud-store/internal/repository"
	"github.com/allevo/cloud-store/internal/server"
	"github.com/allevo/cloud-store/internal/service"
	"github.com/allevo/cloud-store/internal/store"
)

func main() {
	// A missing .env file is normal outside local development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env file", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// component is a dependency closed on shutdown.
type component struct {
	name  string
	close server.ShutdownFunc
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (err error) {
	var components []component
	defer func() {
		// Close what was opened when startup fails before the server owns it.
		if err != nil {
			for i := len(components) - 1; i >= 0; i-- {
				_ = components[i].close(context.Background())
			}
		}
	}()

	recorder := metrics.NewPrometheus()

	// Cart store
	var (
		cartStore   service.CartStore
		storeHealth handler.HealthChecker
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		memory := store.NewMemoryStore()
		cartStore, storeHealth = memory, memory
		logger.Warn("using in-memory cart store; carts are lost on restart")
	default:
		client, err := store.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase, cfg.MongoTimeout)
		if err != nil {
			logger.Error("failed to connect to MongoDB",
				slog.String("error", sanitizeError(err, cfg.MongoURL)),
				slog.String("mongodb_url", config.RedactURL(cfg.MongoURL)),
			)
			return errors.New("mongodb unavailable")
		}
		components = append(components, component{"mongodb", client.Close})

		mongoStore := store.NewMongoStore(client.Database())
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure cart indexes: %w", err)
		}
		cartStore, storeHealth = mongoStore, client
		logger.Info("connected to MongoDB", "database", client.Database().Name())
	}

	// Credentials
	var (
		lookup         credential.Lookup = credential.NewStatic(credential.DefaultAccounts)
		accountsHealth handler.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		repo, err := repository.New(ctx, cfg.DatabaseURL, repository.WithMaxConns(cfg.DatabaseMaxConns))
		if err != nil {
			logger.Error("failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", config.RedactURL(cfg.DatabaseURL)),
			)
			return errors.New("postgres unavailable")
		}
		components = append(components, component{"postgres", func(context.Context) error {
			repo.Close()
			return nil
		}})
		lookup, accountsHealth = repo, repo
		logger.Info("connected to database")
	} else {
		logger.Warn("DATABASE_URL not set; using built-in accounts")
	}

	// Cache
	var cacheClient *cache.Cache
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL,
			cache.WithPoolSize(cfg.RedisPoolSize),
			cache.WithCommandTimeout(cfg.RedisTimeout),
		)
		if err != nil {
			logger.Error("failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", config.RedactURL(cfg.RedisURL)),
			)
			return errors.New("redis unavailable")
		}
		components = append(components, component{"redis", func(context.Context) error {
			return cacheClient.Close()
		}})
		logger.Info("connected to Redis")
	}

	// Services
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	authService := service.NewAuthService(lookup, tokens, recorder, logger)
	cartService := service.NewCartService(cartStore, recorder, logger,
		service.WithRetryPolicy(service.RetryPolicy{Delay: cfg.StoreRetryDelay, Jitter: service.JitterFactor}),
	)

	catalogOpts := []catalog.Option{}
	if cacheClient != nil {
		catalogOpts = append(catalogOpts, catalog.WithCache(cacheClient, cfg.CatalogCacheTTL))
	}
	catalogClient := catalog.NewClient(cfg.CatalogBaseURL, cfg.CatalogTimeout, recorder, logger, catalogOpts...)

	// Handlers
	deps := routerDeps{
		cfg:            cfg,
		logger:         logger,
		recorder:       recorder,
		metricsHandler: recorder.Handler(),
		health:         handler.NewHealthHandler(storeHealth, healthOf(cacheClient), accountsHealth),
		auth:           handler.NewAuthHandler(authService, logger),
		products:       handler.NewProductHandler(catalogClient, logger),
		carts:          handler.NewCartHandler(cartService, logger),
		verifier:       tokens,
		loginLimiter:   loginLimiter(cfg, cacheClient),
		catalogLimiter: catalogLimiter(cfg, cacheClient),
	}

	srv := server.New(setupRouter(deps), server.Options{
		Port:              cfg.AppPort,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ShutdownTimeout:   cfg.ShutdownTimeout,
	}, logger)
	for _, c := range components {
		srv.OnShutdown(c.name, c.close)
	}
	components = nil

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
		"catalog", cfg.CatalogBaseURL,
	)

	return srv.Run()
}

// healthOf avoids storing a typed nil *cache.Cache in the interface.
func healthOf(c *cache.Cache) handler.HealthChecker {
	if c == nil {
		return nil
	}
	return c
}

// loginLimiter shares budgets through Redis when configured and falls back
// to a per-process limiter otherwise.
func loginLimiter(cfg *config.Config, c *cache.Cache) middleware.Limiter {
	if !cfg.RateLimitLoginEnabled || cfg.RateLimitLoginPerMinute <= 0 {
		return nil
	}
	if c != nil {
		return middleware.RedisLoginLimiter(c, cfg.RateLimitLoginPerMinute, cfg.RateLimitLoginBurst)
	}
	return middleware.NewLocalLimiter(cfg.RateLimitLoginPerMinute, cfg.RateLimitLoginBurst)
}

func catalogLimiter(cfg *config.Config, c *cache.Cache) middleware.Limiter {
	if !cfg.RateLimitCatalogEnabled || cfg.RateLimitCatalogRPS <= 0 {
		return nil
	}
	if c != nil {
		return middleware.RedisIPLimiter(c, cfg.RateLimitCatalogRPS, cfg.RateLimitCatalogBurst)
	}
	return middleware.NewLocalLimiter(cfg.RateLimitCatalogRPS*60, cfg.RateLimitCatalogBurst)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     parseLogLevel(cfg.LogLevel),
		AddSource: cfg.IsDevelopment(),
	}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(h).With("service", "cloud-store")
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s&]+`)

// sanitizeError strips connection strings and inline passwords from driver errors.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		msg = strings.ReplaceAll(msg, secret, config.RedactURL(secret))
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
