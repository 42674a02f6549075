package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/governance-service/internal/api/http"
	"github.com/spec-kit/governance-service/internal/api/http/handlers"
	"github.com/spec-kit/governance-service/internal/auth"
	"github.com/spec-kit/governance-service/internal/cache"
	"github.com/spec-kit/governance-service/internal/config"
	"github.com/spec-kit/governance-service/internal/directory"
	"github.com/spec-kit/governance-service/internal/events"
	"github.com/spec-kit/governance-service/internal/observability"
	"github.com/spec-kit/governance-service/internal/persistence"
	"github.com/spec-kit/governance-service/internal/repository"
	"github.com/spec-kit/governance-service/internal/service"
	"github.com/spec-kit/governance-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	directoryRepo := repository.NewDirectoryRepository(pool)
	ruleRepo := repository.NewRuleRepository(pool)
	decisionRepo := repository.NewDecisionRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	meetingRepo := repository.NewMeetingRepository(pool)
	obligationRepo := repository.NewObligationRepository(pool)
	accountRepo := repository.NewAccountRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	dir := directory.New(directoryRepo)
	ruleCache := cache.NewRuleCache(redis.Client, cfg.Rules.CacheTTL(), logger)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	resolverService := service.NewResolverService(service.ResolverDependencies{
		RuleRepo:  ruleRepo,
		Directory: dir,
		RuleCache: ruleCache,
		Logger:    logger,
	})
	decisionService := service.NewDecisionService(service.DecisionDependencies{
		DecisionRepo: decisionRepo,
		AuditRepo:    auditRepo,
		Resolver:     resolverService,
		Directory:    dir,
		TxRunner:     txRunner,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	meetingService := service.NewMeetingService(service.MeetingDependencies{
		MeetingRepo:  meetingRepo,
		DecisionRepo: decisionRepo,
		AuditRepo:    auditRepo,
		Directory:    dir,
		TxRunner:     txRunner,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	obligationService := service.NewObligationService(service.ObligationDependencies{
		ObligationRepo: obligationRepo,
		Directory:      dir,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	registryService := service.NewRegistryService(service.RegistryDependencies{
		RuleRepo:  ruleRepo,
		Directory: dir,
		RuleCache: ruleCache,
		Logger:    logger,
	})
	directoryService := service.NewDirectoryService(directoryRepo, dir, logger)
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		AccountRepo: accountRepo,
		Directory:   dir,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), accountRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Decisions:      handlers.NewDecisionsHandler(decisionService, resolverService),
		Registry:       handlers.NewRegistryHandler(registryService),
		Meetings:       handlers.NewMeetingsHandler(meetingService),
		Obligations:    handlers.NewObligationsHandler(obligationService),
		Directory:      handlers.NewDirectoryHandler(directoryService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
