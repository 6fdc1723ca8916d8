package bootstrap

import (
	"context"
	"log"

	"gitmesh-session-be/internal/config"
	"gitmesh-session-be/internal/controller"
	"gitmesh-session-be/internal/pkg/logger"
	"gitmesh-session-be/internal/repository/implementation"
	"gitmesh-session-be/internal/repository/memory"
	"gitmesh-session-be/internal/service"
	"gitmesh-session-be/pkg/breaker"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const cleanupEventTopic = "CHAT_SESSION_CLEANED"

type Container struct {
	// Controllers
	ChatCacheController controller.IChatCacheController

	// Background Services (Exposed for main.go to run)
	CleanupConsumerService service.ICleanupConsumerService

	// Shared facades
	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	opt.DialTimeout = cfg.Cache.ConnectTimeout
	opt.ReadTimeout = cfg.Cache.OperationTimeout
	opt.WriteTimeout = cfg.Cache.OperationTimeout
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v (fallback store will serve)", err)
	}

	// One breaker per Redis client, shared by every request handler.
	cb := breaker.New(cfg.Breaker.FailureThreshold, cfg.Breaker.RecoveryTimeout)

	remoteRepo := implementation.NewRedisSessionRepository(rdb, cfg.Cache.OperationTimeout)
	fallbackRepo := memory.NewSessionRepository()
	sessionStore := implementation.NewGuardedSessionStore(remoteRepo, fallbackRepo, cb, sysLogger)

	// 4. Services
	cleanupPublisher := service.NewCleanupPublisherService(cleanupEventTopic, pubSub)

	auditLogger := logger.NewIsolatedLogger("logs/cleanup.log")
	cleanupConsumer := service.NewCleanupConsumerService(pubSub, cleanupEventTopic, auditLogger)

	cacheService := service.NewSessionCacheService(
		sessionStore,
		cleanupPublisher,
		sysLogger,
		cfg.Cache.SessionTTL,
		cfg.Cache.InactiveThreshold,
	)

	// 5. Controllers
	return &Container{
		ChatCacheController:    controller.NewChatCacheController(cacheService),
		CleanupConsumerService: cleanupConsumer,
		Logger:                 sysLogger,
	}
}
