package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httptransport "github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/api/http"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/api/http/handlers"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/auth"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/config"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/events"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/observability"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/persistence"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/repository"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/service"
	"github.com/TheBunny221/Fix-Smart-CMS-v1.0.1-sub002/internal/worker"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisLock := cfg.Lifecycle.LockBackend == config.LockBackendRedis
	redisConn, err := persistence.NewRedis(ctx, cfg.Redis, redisLock, logger)
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redisConn.Close()

	var locker service.Locker = service.NewKeyedMutex()
	if redisLock {
		locker, err = persistence.NewRedisLocker(redisConn, cfg.Lifecycle.LockTTL(), logger)
		if err != nil {
			logger.Fatal("failed to init redis lock", zap.Error(err))
		}
	}
	logger.Info("complaint lock backend", zap.String("backend", string(cfg.Lifecycle.LockBackend)))

	var redisClient *redis.Client
	if redisConn != nil {
		redisClient = redisConn.Client
	}

	pool := pg.Pool
	userRepo := repository.NewUserRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	typeRepo := repository.NewCachedComplaintTypeRepository(
		repository.NewComplaintTypeRepository(pool),
		redisClient,
		cfg.Lifecycle.TypeCacheTTL(),
		logger,
	)

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService, logger)

	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo:     complaintRepo,
		UserRepo:          userRepo,
		ComplaintTypeRepo: typeRepo,
		Locker:            locker,
		LockWait:          cfg.Lifecycle.LockWait(),
		Dispatcher:        dispatcher,
		Metrics:           metrics,
		Logger:            logger,
	})
	authService := service.NewAuthService(*cfg, userRepo, logger)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.App.RequestTimeout(),
		WriteTimeout: cfg.App.RequestTimeout(),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	validate := validator.New()
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redisConn, metrics),
		Users:          handlers.NewUsersHandler(authService, complaintService, validate),
		Complaints:     handlers.NewComplaintsHandler(complaintService, validate),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
