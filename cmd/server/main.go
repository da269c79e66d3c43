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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/ledgercore/internal/adapter/http"
	"github.com/iho/ledgercore/internal/adapter/http/handler"
	"github.com/iho/ledgercore/internal/adapter/http/middleware"
	"github.com/iho/ledgercore/internal/adapter/repository/localcache"
	"github.com/iho/ledgercore/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/ledgercore/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/ledgercore/internal/adapter/repository/redis"
	"github.com/iho/ledgercore/internal/domain"
	"github.com/iho/ledgercore/internal/infrastructure/config"
	"github.com/iho/ledgercore/internal/infrastructure/eventpublisher"
	"github.com/iho/ledgercore/internal/infrastructure/logger"
	"github.com/iho/ledgercore/internal/infrastructure/metrics"
	"github.com/iho/ledgercore/internal/infrastructure/postgres"
	"github.com/iho/ledgercore/internal/infrastructure/redis"
	"github.com/iho/ledgercore/internal/usecase"
)

// limiterIdle is how long a client's rate limiter survives without traffic.
const limiterIdle = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, log.Logger, prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialise application")
	}
	defer a.close()

	go func() {
		if err := a.publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()
	go cleanupLimiters(ctx, a.limiter)

	// Create server
	server := &http.Server{
		Addr:         listenAddr(cfg.HTTPPort),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()
	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// app is the wired service.
type app struct {
	handler   http.Handler
	publisher *eventpublisher.EventPublisher
	limiter   *middleware.RateLimiter
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// storage bundles the repositories and transaction handling of one driver.
type storage struct {
	store     usecase.Store
	txManager usecase.TransactionManager
	retrier   usecase.Retrier
	outbox    usecase.OutboxRepository
	checkers  []handler.Checker
}

// caches bundles the statement cache and the idempotency store.
type caches struct {
	statements  usecase.Cache
	idempotency usecase.IdempotencyStore
	checkers    []handler.Checker
}

func buildApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger,
	reg prometheus.Registerer, gatherer prometheus.Gatherer,
) (*app, error) {
	a := &app{}

	st, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeStorage)

	cc, closeCaches, err := openCaches(ctx, cfg, logger)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, closeCaches)

	m := metrics.NewWithRegistry(reg)
	idGen := postgresRepo.NewULIDGenerator()

	// Initialize use cases
	accountUC := usecase.NewAccountUseCase(st.store, st.txManager, idGen, m)
	journalUC := usecase.NewJournalUseCase(st.store, st.txManager, st.retrier, idGen, m)
	amortizationUC := usecase.NewAmortizationUseCase(st.store, st.txManager, idGen, m)
	loanUC := usecase.NewLoanUseCase(st.store, st.txManager, st.retrier, idGen, m)
	paymentUC := usecase.NewPaymentUseCase(st.store, st.txManager, st.retrier, idGen, m)
	returnUC := usecase.NewReturnUseCase(st.store, st.txManager, st.retrier, idGen, journalUC, returnAccountCodes(cfg), m)
	postingUC := usecase.NewPostingUseCase(st.store, st.txManager, st.retrier, idGen, journalUC, postingAccountCodes(cfg), m)
	depreciationUC := usecase.NewDepreciationUseCase(st.store, st.txManager, st.retrier, idGen, journalUC, depreciationAccountCodes(cfg), m)
	statementUC := usecase.NewStatementUseCase(st.store, st.txManager, cc.statements, cfg.StatementCacheTTL, cashFlowConfig(cfg), m)

	a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)
	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:      handler.NewAccountHandler(accountUC),
		JournalHandler:      handler.NewJournalHandler(journalUC),
		AmortizationHandler: handler.NewAmortizationHandler(amortizationUC),
		LoanHandler:         handler.NewLoanHandler(loanUC),
		ReceivableHandler:   handler.NewReceivableHandler(paymentUC),
		ReturnHandler:       handler.NewReturnHandler(returnUC),
		PostingHandler:      handler.NewPostingHandler(postingUC),
		DepreciationHandler: handler.NewDepreciationHandler(depreciationUC),
		StatementHandler:    handler.NewStatementHandler(statementUC),
		HealthHandler:       handler.NewHealthHandler(append(st.checkers, cc.checkers...)...),
		IdempotencyStore:    cc.idempotency,
		IdempotencyTTL:      cfg.IdempotencyTTL,
		RateLimiter:         a.limiter,
		Logger:              logger,
		Metrics:             m,
		MetricsHandler:      promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
	})

	a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: st.outbox,
		Publisher:  eventpublisher.NewLogPublisher(logger),
		Logger:     logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxPollInterval,
		Retention:  cfg.OutboxRetention,
	})

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, func(), error) {
	if cfg.StorageDriver == config.StorageMemory {
		store := memory.NewStore()
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return &storage{
			store:     store,
			txManager: store,
			outbox:    store.Outbox(),
		}, func() {}, nil
	}

	if cfg.RunMigrations {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logger).Up(); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info().Msg("connected to postgres")

	store := postgresRepo.NewStore(pool)
	return &storage{
		store:     store,
		txManager: postgresRepo.NewTxManager(pool),
		retrier:   postgresRepo.NewRetrier(logger),
		outbox:    store.Outbox(),
		checkers:  []handler.Checker{postgres.NewChecker(pool)},
	}, pool.Close, nil
}

func openCaches(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*caches, func(), error) {
	if !cfg.RedisEnabled {
		return &caches{
			statements:  localcache.NewCache(cfg.StatementCacheTTL),
			idempotency: localcache.NewIdempotencyStore(),
		}, func() {}, nil
	}

	// Connect to Redis
	client, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("connected to redis")

	return &caches{
		statements:  redisRepo.NewCache(client),
		idempotency: redisRepo.NewIdempotencyStore(client),
		checkers:    []handler.Checker{redis.NewChecker(client)},
	}, func() { _ = client.Close() }, nil
}

func returnAccountCodes(cfg *config.Config) usecase.ReturnAccountCodes {
	return usecase.ReturnAccountCodes{
		Receivables:  cfg.ReceivablesAccountCode,
		Inventory:    cfg.InventoryAccountCode,
		Payables:     cfg.PayablesAccountCode,
		SalesTax:     cfg.SalesTaxAccountCode,
		SalesReturns: cfg.SalesReturnsAccountCode,
	}
}

func postingAccountCodes(cfg *config.Config) usecase.PostingAccountCodes {
	return usecase.PostingAccountCodes{
		Cash:        cfg.POSCashAccountCode,
		Bank:        cfg.BankAccountCode,
		Receivables: cfg.ReceivablesAccountCode,
		Payables:    cfg.PayablesAccountCode,
		Sales:       cfg.SalesAccountCode,
		SalesTax:    cfg.SalesTaxAccountCode,
		COGS:        cfg.COGSAccountCode,
		Inventory:   cfg.InventoryAccountCode,
	}
}

func depreciationAccountCodes(cfg *config.Config) usecase.DepreciationAccountCodes {
	return usecase.DepreciationAccountCodes{
		Expense:     cfg.DepreciationExpenseAccountCode,
		Accumulated: cfg.AccumulatedDepreciationCode,
	}
}

func cashFlowConfig(cfg *config.Config) domain.CashFlowConfig {
	cf := domain.DefaultCashFlowConfig()
	cf.CashAccountCodes = cfg.CashAccountCodes
	cf.ReceivablesCodes = []string{cfg.ReceivablesAccountCode}
	cf.InventoryCodes = []string{cfg.InventoryAccountCode}
	cf.PayablesCodes = []string{cfg.PayablesAccountCode}
	return cf
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.CleanupLimiters(limiterIdle); n > 0 {
				log.Debug().Int("removed", n).Msg("removed idle rate limiters")
			}
		}
	}
}

func listenAddr(port string) string {
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = "8080"
	}
	return ":" + port
}
