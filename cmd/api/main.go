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

	httptransport "github.com/spec-kit/service-desk/internal/api/http"
	"github.com/spec-kit/service-desk/internal/api/http/handlers"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/config"
	"github.com/spec-kit/service-desk/internal/events"
	"github.com/spec-kit/service-desk/internal/media"
	"github.com/spec-kit/service-desk/internal/observability"
	"github.com/spec-kit/service-desk/internal/persistence"
	"github.com/spec-kit/service-desk/internal/repository"
	"github.com/spec-kit/service-desk/internal/service"
	"github.com/spec-kit/service-desk/internal/worker"
)

const uploadBodyLimit = 256 << 20 // room for one video plus images

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

	mediaStore, err := media.NewStore(cfg.Media.Root, logger)
	if err != nil {
		logger.Fatal("failed to prepare media store", zap.Error(err))
	}

	store := repository.NewStore(pg.PoolHandle())
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	queue := worker.NewQueue(256, 2, logger)
	defer queue.Shutdown()

	authService := service.NewAuthService(cfg.Auth, store, queue, logger)
	requestService := service.NewRequestService(service.RequestDependencies{
		Store:      store,
		Blobs:      mediaStore,
		Dispatcher: dispatcher,
		Cache:      redis,
		Logger:     logger,
	})
	directoryService := service.NewDirectoryService(store, cfg.Auth.BcryptCost)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	notificationService.RegisterHandlers()

	go purgeExpiredTokens(ctx, authService, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), store.Repos().Users)

	app := fiber.New(fiber.Config{BodyLimit: uploadBodyLimit})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Requests:       handlers.NewRequestsHandler(requestService),
		Users:          handlers.NewUsersHandler(directoryService),
		Media:          handlers.NewMediaHandler(store.Repos().Media, mediaStore),
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

func purgeExpiredTokens(ctx context.Context, authService *service.AuthService, logger *zap.Logger) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := authService.PurgeExpired(ctx, time.Now().Add(-24*time.Hour))
			if err != nil {
				logger.Warn("refresh token purge failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				logger.Info("purged expired refresh tokens", zap.Int64("count", removed))
			}
		}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
