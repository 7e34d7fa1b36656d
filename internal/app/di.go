// Package app provides the dependency injection container that assembles the
// application from its configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/astroeyes/authcore/internal/config"
	"github.com/astroeyes/authcore/internal/database"
	"github.com/astroeyes/authcore/internal/http"
	"github.com/astroeyes/authcore/internal/metrics"
	sessionHTTP "github.com/astroeyes/authcore/internal/session/http"
	sessionRepository "github.com/astroeyes/authcore/internal/session/repository"
	sessionService "github.com/astroeyes/authcore/internal/session/service"
	sessionUseCase "github.com/astroeyes/authcore/internal/session/usecase"
	userHTTP "github.com/astroeyes/authcore/internal/user/http"
	userRepository "github.com/astroeyes/authcore/internal/user/repository"
	userUseCase "github.com/astroeyes/authcore/internal/user/usecase"
)

// startupTimeout bounds each network round trip made while wiring: the
// database ping, the Redis ping and the KMS decrypt.
const startupTimeout = 10 * time.Second

// lazy holds a component built on first access. The first error is kept and
// returned on every later call.
type lazy[T any] struct {
	once  sync.Once
	value T
	err   error
}

func (l *lazy[T]) get(init func() (T, error)) (T, error) {
	l.once.Do(func() {
		l.value, l.err = init()
	})
	return l.value, l.err
}

// Container holds all application dependencies. Components are created on
// first access and shared afterwards.
type Container struct {
	config *config.Config

	loggerInit sync.Once
	logger     *slog.Logger

	db           lazy[*sql.DB]
	memoryTokens lazy[*sessionRepository.MemoryTokenRepository]
	txManager    lazy[database.TxManager]
	tokenRepo    lazy[sessionUseCase.TokenRepository]
	userRepo     lazy[userUseCase.UserRepository]

	metricsProvider lazy[*metrics.Provider]
	businessMetrics lazy[metrics.BusinessMetrics]

	signingKeys lazy[*sessionService.SigningKeys]
	codec       lazy[sessionService.CredentialCodec]
	redisClient lazy[*redis.Client]
	locker      lazy[sessionService.DeviceLocker]

	sessionUseCase   lazy[sessionUseCase.SessionUseCase]
	identityResolver lazy[sessionUseCase.IdentityResolver]
	userUseCase      lazy[userUseCase.UseCase]

	httpServer    lazy[*http.Server]
	metricsServer lazy[*http.MetricsServer]

	mu sync.Mutex
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the JSON logger at the configured level.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database pool. It is nil for the memory driver.
func (c *Container) DB() (*sql.DB, error) {
	return c.db.get(c.initDB)
}

// TxManager returns the transaction manager matching the driver.
func (c *Container) TxManager() (database.TxManager, error) {
	return c.txManager.get(func() (database.TxManager, error) {
		if c.config.DBDriver == config.DriverMemory {
			return c.memoryTokenRepository()
		}
		db, err := c.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
		}
		return database.NewTxManager(db), nil
	})
}

// TokenRepository returns the token store.
func (c *Container) TokenRepository() (sessionUseCase.TokenRepository, error) {
	return c.tokenRepo.get(c.initTokenRepository)
}

// UserRepository returns the account store.
func (c *Container) UserRepository() (userUseCase.UserRepository, error) {
	return c.userRepo.get(c.initUserRepository)
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	return c.metricsProvider.get(func() (*metrics.Provider, error) {
		if !c.config.MetricsEnabled {
			return nil, nil
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics provider: %w", err)
		}
		return provider, nil
	})
}

// BusinessMetrics returns the use case instruments, a no-op when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	return c.businessMetrics.get(func() (metrics.BusinessMetrics, error) {
		provider, err := c.MetricsProvider()
		if err != nil {
			return nil, err
		}
		if provider == nil {
			return metrics.NewNoOpBusinessMetrics(), nil
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to create business metrics: %w", err)
		}
		return bm, nil
	})
}

// SigningKeys returns the derived credential signing keys.
func (c *Container) SigningKeys() (*sessionService.SigningKeys, error) {
	return c.signingKeys.get(func() (*sessionService.SigningKeys, error) {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		keys, err := sessionService.LoadSigningKeys(ctx, sessionService.KeySource{
			Secret:   c.config.SecretKey,
			Previous: c.config.SecretKeyPrevious,
			KMSURI:   c.config.SecretKeyKMSURI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load signing keys: %w", err)
		}
		return keys, nil
	})
}

// CredentialCodec returns the JWT codec.
func (c *Container) CredentialCodec() (sessionService.CredentialCodec, error) {
	return c.codec.get(func() (sessionService.CredentialCodec, error) {
		keys, err := c.SigningKeys()
		if err != nil {
			return nil, err
		}
		return sessionService.NewJWTCodec(keys, c.config.TokenIssuer), nil
	})
}

// RedisClient returns the Redis client, or nil when REDIS_URL is empty.
func (c *Container) RedisClient() (*redis.Client, error) {
	return c.redisClient.get(func() (*redis.Client, error) {
		if c.config.RedisURL == "" {
			return nil, nil
		}
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()
		return sessionService.OpenRedisClient(ctx, c.config.RedisURL)
	})
}

// DeviceLocker returns the Redis lock when Redis is configured and an
// in-process lock otherwise.
func (c *Container) DeviceLocker() (sessionService.DeviceLocker, error) {
	return c.locker.get(func() (sessionService.DeviceLocker, error) {
		client, err := c.RedisClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get redis client for device locker: %w", err)
		}
		if client == nil {
			c.Logger().Info("using in-process device lock")
			return sessionService.NewLocalDeviceLocker(), nil
		}
		c.Logger().Info("using redis device lock", slog.Duration("ttl", c.config.DeviceLockTTL))
		return sessionService.NewRedisDeviceLocker(client, c.config.DeviceLockTTL), nil
	})
}

// SessionUseCase returns the session lifecycle manager.
func (c *Container) SessionUseCase() (sessionUseCase.SessionUseCase, error) {
	return c.sessionUseCase.get(c.initSessionUseCase)
}

// IdentityResolver returns the bearer credential resolver.
func (c *Container) IdentityResolver() (sessionUseCase.IdentityResolver, error) {
	return c.identityResolver.get(c.initIdentityResolver)
}

// UserUseCase returns the account use case.
func (c *Container) UserUseCase() (userUseCase.UseCase, error) {
	return c.userUseCase.get(c.initUserUseCase)
}

// HTTPServer returns the public HTTP server with its routes configured.
func (c *Container) HTTPServer() (*http.Server, error) {
	return c.httpServer.get(c.initHTTPServer)
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	return c.metricsServer.get(func() (*http.MetricsServer, error) {
		provider, err := c.MetricsProvider()
		if err != nil || provider == nil {
			return nil, err
		}
		return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
	})
}

// Shutdown releases every initialized resource in reverse dependency order.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error

	if c.httpServer.value != nil {
		if err := c.httpServer.value.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer.value != nil {
		if err := c.metricsServer.value.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider.value != nil {
		if err := c.metricsProvider.value.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.redisClient.value != nil {
		if err := c.redisClient.value.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close: %w", err))
		}
	}

	if c.db.value != nil {
		if err := c.db.value.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

func (c *Container) initDB() (*sql.DB, error) {
	if c.config.DBDriver == config.DriverMemory {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	db, err := database.Connect(ctx, database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// memoryTokenRepository is shared by TxManager and TokenRepository so that
// transactions and queries see the same maps.
func (c *Container) memoryTokenRepository() (*sessionRepository.MemoryTokenRepository, error) {
	return c.memoryTokens.get(func() (*sessionRepository.MemoryTokenRepository, error) {
		c.Logger().Warn("using in-memory storage; sessions and accounts are lost on restart")
		return sessionRepository.NewMemoryTokenRepository(), nil
	})
}

func (c *Container) initTokenRepository() (sessionUseCase.TokenRepository, error) {
	if c.config.DBDriver == config.DriverMemory {
		return c.memoryTokenRepository()
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for token repository: %w", err)
	}

	switch c.config.DBDriver {
	case config.DriverMySQL:
		return sessionRepository.NewMySQLTokenRepository(db), nil
	case config.DriverPostgres:
		return sessionRepository.NewPostgreSQLTokenRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initUserRepository() (userUseCase.UserRepository, error) {
	if c.config.DBDriver == config.DriverMemory {
		return userRepository.NewMemoryUserRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case config.DriverMySQL:
		return userRepository.NewMySQLUserRepository(db), nil
	case config.DriverPostgres:
		return userRepository.NewPostgreSQLUserRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initSessionUseCase() (sessionUseCase.SessionUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for session use case: %w", err)
	}

	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for session use case: %w", err)
	}

	codec, err := c.CredentialCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential codec for session use case: %w", err)
	}

	locker, err := c.DeviceLocker()
	if err != nil {
		return nil, fmt.Errorf("failed to get device locker for session use case: %w", err)
	}

	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for session use case: %w", err)
	}

	policy := sessionUseCase.Policy{
		TTL:              c.config.AccessTokenTTL,
		RenewalThreshold: c.config.TokenRenewalThreshold,
	}

	useCase := sessionUseCase.NewSessionUseCase(policy, txManager, tokenRepo, codec, locker, c.Logger())
	return sessionUseCase.NewSessionUseCaseWithMetrics(useCase, bm), nil
}

func (c *Container) initIdentityResolver() (sessionUseCase.IdentityResolver, error) {
	codec, err := c.CredentialCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential codec for identity resolver: %w", err)
	}

	tokenRepo, err := c.TokenRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get token repository for identity resolver: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for identity resolver: %w", err)
	}

	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for identity resolver: %w", err)
	}

	verifier := sessionUseCase.NewVerifier(codec, tokenRepo, sessions, c.Logger())
	return sessionUseCase.NewIdentityResolverWithMetrics(sessionUseCase.NewIdentityResolver(verifier), bm), nil
}

func (c *Container) initUserUseCase() (userUseCase.UseCase, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	bm, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
	}

	useCase, err := userUseCase.NewUserUseCase(userRepo, c.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create user use case: %w", err)
	}

	return userUseCase.NewUserUseCaseWithMetrics(useCase, bm), nil
}

func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	sessions, err := c.SessionUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get session use case for http server: %w", err)
	}

	resolver, err := c.IdentityResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity resolver for http server: %w", err)
	}

	users, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	redisClient, err := c.RedisClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get redis client for http server: %w", err)
	}

	server := http.NewServer(db, c.config.ServerHost, c.config.ServerPort, logger)
	if c.config.DBDriver == config.DriverMemory {
		server.AddReadinessCheck("database", func(context.Context) error { return nil })
	}
	if redisClient != nil {
		server.AddReadinessCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	server.SetupRouter(
		c.config,
		sessionHTTP.NewSessionHandler(sessions, users, logger),
		userHTTP.NewUserHandler(users, logger),
		resolver,
		provider,
	)

	return server, nil
}
