package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"zorkdi/internal/adapter/api"
	"zorkdi/internal/adapter/api/handler"
	apimiddleware "zorkdi/internal/adapter/api/middleware"
	"zorkdi/internal/adapter/api/router"
	"zorkdi/internal/adapter/repository"
	"zorkdi/internal/domain/service"
	"zorkdi/internal/infrastructure/events"
	"zorkdi/internal/infrastructure/firebase"
	"zorkdi/internal/infrastructure/ratelimit"
	"zorkdi/internal/infrastructure/storage"
	"zorkdi/internal/infrastructure/websocket"
	"zorkdi/internal/usecase"
	"zorkdi/pkg/config"
	"zorkdi/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Init(cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opt := cfg.CredentialsOption()

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Messaging: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	var bus service.EventBus
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		logger.Info("Trigger events on Redis stream %s (group %s)", cfg.TriggerStream, cfg.TriggerGroup)
		bus = events.NewRedisStreamBus(redisClient, cfg.TriggerStream, cfg.TriggerGroup, cfg.TriggerConsumer)
	} else {
		logger.Warn("REDIS_ADDR not set, trigger events run in-process")
		bus = events.NewLocalEventBus(256)
	}

	limiter := ratelimit.NewRateLimiter(map[string]ratelimit.Policy{
		usecase.ActionSendMessage: ratelimit.PerMinute(cfg.MessageRatePerMinute),
		router.ActionContact:      ratelimit.PerMinute(cfg.ContactRatePerMinute),
	})
	limiter.StartCleanupRoutine(ctx.Done())

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	threadRepo := repository.NewFirestoreThreadRepository(firestoreClient)
	projectRepo := repository.NewFirestoreProjectRepository(firestoreClient)
	contactRepo := repository.NewFirestoreContactRepository(firestoreClient)

	userUseCase := usecase.NewUserUseCase(userRepo)
	chatUseCase := usecase.NewChatUseCase(threadRepo, projectRepo, userRepo, bus, limiter)
	inboxUseCase := usecase.NewInboxUseCase(userRepo, threadRepo, projectRepo)
	projectUseCase := usecase.NewProjectUseCase(projectRepo, bus)
	contactUseCase := usecase.NewContactUseCase(contactRepo)

	triggerUseCase := usecase.NewTriggerUseCase(threadRepo, userRepo, firebase.NewMessagingClient(messagingClient), cfg.PushTitle)
	triggerUseCase.Register(bus)
	if err := bus.Start(ctx); err != nil {
		log.Fatalf("Failed to start trigger bus: %v", err)
	}

	handler.Setup(userUseCase, chatUseCase, inboxUseCase, projectUseCase, contactUseCase, storageClient, cfg.MaxUploadMB<<20)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebase.NewFirebaseAuthClient(authClient), userUseCase)
	adminMiddleware := apimiddleware.NewAdminMiddleware()

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	messageHandler := websocket.NewMessageHandler(chatUseCase, inboxUseCase)
	wsHandler := handler.NewWebSocketHandler(ctx, wsManager, messageHandler, chatUseCase, authMiddleware)

	router.Setup(e, authMiddleware, adminMiddleware, limiter, wsHandler)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed: %v", err)
	}

	// Queued trigger events are handled before the root context goes away.
	if err := bus.Close(); err != nil {
		logger.Error("Trigger bus close failed: %v", err)
	}
	cancel()
}
