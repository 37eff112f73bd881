package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dedup-service/internal/api/http"
	"github.com/spec-kit/dedup-service/internal/api/http/handlers"
	"github.com/spec-kit/dedup-service/internal/auth"
	"github.com/spec-kit/dedup-service/internal/channel"
	"github.com/spec-kit/dedup-service/internal/config"
	"github.com/spec-kit/dedup-service/internal/cooldown"
	"github.com/spec-kit/dedup-service/internal/domain"
	"github.com/spec-kit/dedup-service/internal/events"
	"github.com/spec-kit/dedup-service/internal/jobs"
	"github.com/spec-kit/dedup-service/internal/observability"
	"github.com/spec-kit/dedup-service/internal/persistence"
	"github.com/spec-kit/dedup-service/internal/repository"
	"github.com/spec-kit/dedup-service/internal/repository/memory"
	"github.com/spec-kit/dedup-service/internal/service"
	"github.com/spec-kit/dedup-service/internal/triage"
	"github.com/spec-kit/dedup-service/internal/worker"
)

type repositories struct {
	tickets       repository.TicketRepository
	groups        repository.GroupRepository
	notifications repository.NotificationRepository
	content       repository.ContentEntryRepository
	identities    repository.IdentityRepository
	deadLetters   repository.DeadLetterRepository
}

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

	pool := pg.PoolHandle()
	if pool != nil && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var repos repositories
	if pool != nil {
		repos = repositories{
			tickets:       repository.NewTicketRepository(pool),
			groups:        repository.NewGroupRepository(pool),
			notifications: repository.NewNotificationRepository(pool),
			content:       repository.NewContentEntryRepository(pool),
			identities:    repository.NewIdentityRepository(pool),
			deadLetters:   repository.NewDeadLetterRepository(pool),
		}
	} else {
		repos = repositories{
			tickets:       memory.NewTicketStore(),
			groups:        memory.NewGroupStore(),
			notifications: memory.NewNotificationStore(),
			content:       memory.NewContentEntryStore(),
			identities:    memory.NewIdentityStore(),
			deadLetters:   memory.NewDeadLetterStore(),
		}
	}

	var flags jobs.FlagStore
	var cooldownCache cooldown.Cache
	if err := redis.Ping(ctx); err == nil {
		flags = jobs.NewRedisFlagStore(redis.Client)
		cooldownCache = cooldown.NewRedisCache(redis.Client)
	} else {
		logger.Warn("redis unavailable; using in-process flags and cooldowns")
		flags = jobs.NewMemoryFlagStore()
		cooldownCache = cooldown.NewMemoryCache()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	provider := triage.NewRetryingProvider(triage.NewStubProvider(), triage.RetryConfig{
		MaxRetries:     cfg.Triage.MaxRetries,
		InitialBackoff: time.Duration(cfg.Triage.BackoffSeconds) * time.Second,
		MaxBackoff:     time.Duration(cfg.Triage.MaxBackoffSeconds) * time.Second,
		CooldownTTL:    cfg.Triage.CooldownTTL(),
	}, cooldownCache, logger)

	adapters := channel.NewAdapterSet()
	adapters.Register(domain.ChannelWebhook, channel.NewWebhookAdapter(cfg.Dispatch.WebhookEndpoint, cfg.Dispatch.HTTPTimeout(), logger))
	adapters.Register(domain.ChannelChat, channel.NewLoopbackAdapter(domain.ChannelChat, logger))
	adapters.Register(domain.ChannelThreads, channel.NewLoopbackAdapter(domain.ChannelThreads, logger))
	adapters.Register(domain.ChannelMessenger, channel.NewLoopbackAdapter(domain.ChannelMessenger, logger))

	registry := jobs.NewRegistry()
	supervisor := jobs.NewSupervisor(flags, repos.deadLetters, metrics, logger)
	queue := jobs.NewInProcessQueue(jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.QueueMaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay(),
	}, registry, supervisor.OnDeath, logger)

	ingestService := service.NewIngestService(service.IngestDependencies{
		TicketRepo:   repos.tickets,
		IdentityRepo: repos.identities,
		Provider:     provider,
		Queue:        queue,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	surgeService := service.NewSurgeService(service.SurgeDependencies{
		ContentRepo:      repos.content,
		NotificationRepo: repos.notifications,
		Queue:            queue,
		Dispatcher:       dispatcher,
		Config:           cfg.Surge,
		Logger:           logger,
	})
	dispatchService := service.NewDispatchService(service.DispatchDependencies{
		NotificationRepo: repos.notifications,
		TicketRepo:       repos.tickets,
		IdentityRepo:     repos.identities,
		Adapters:         adapters,
		Surge:            surgeService,
		Queue:            queue,
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Config:           cfg.Dispatch,
		Logger:           logger,
	})
	groupService := service.NewGroupService(service.GroupDependencies{
		GroupRepo:    repos.groups,
		TicketRepo:   repos.tickets,
		ContentRepo:  repos.content,
		IdentityRepo: repos.identities,
		Dispatch:     dispatchService,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	clusterService := service.NewClusterService(service.ClusterDependencies{
		TicketRepo: repos.tickets,
		Groups:     groupService,
		Config:     cfg.Clustering,
		Logger:     logger,
	})
	contentService := service.NewContentService(service.ContentDependencies{
		ContentRepo: repos.content,
		TicketRepo:  repos.tickets,
		Dispatch:    dispatchService,
		Logger:      logger,
	})
	deadLetterService := service.NewDeadLetterService(service.DeadLetterDependencies{
		DeadLetterRepo: repos.deadLetters,
		Queue:          queue,
		Logger:         logger,
	})

	worker.RegisterHandlers(registry, worker.Dependencies{
		Ingest:      ingestService,
		Cluster:     clusterService,
		Dispatch:    dispatchService,
		Queue:       queue,
		Supervisor:  supervisor,
		CooldownTTL: cfg.Triage.CooldownTTL(),
		Logger:      logger,
	})
	queue.Start(ctx)

	sweeper := worker.NewSweeper(dispatchService, metrics, logger)
	if err := sweeper.Start(cfg.Jobs.SweepCronSpec); err != nil {
		logger.Fatal("failed to start redelivery sweep", zap.Error(err))
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authMiddleware := auth.NewAuthMiddleware(tokens)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(tokens, cfg.Auth),
		Messages:       handlers.NewMessagesHandler(ingestService),
		Groups:         handlers.NewGroupsHandler(groupService),
		Content:        handlers.NewContentHandler(contentService),
		Notifications:  handlers.NewNotificationsHandler(surgeService),
		DeadLetters:    handlers.NewDeadLettersHandler(deadLetterService),
		Admin:          handlers.NewAdminHandler(flags, registry, metrics, cfg.Jobs.ForceFailTTL()),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()
	logger.Info("listening", zap.String("addr", cfg.App.Addr()))

	waitForShutdown(logger)

	_ = app.Shutdown()
	sweeper.Stop()
	queue.Stop()
	cancel()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
