package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"chatter-server/internal/config"
	"chatter-server/internal/events"
	"chatter-server/internal/handler"
	"chatter-server/internal/middleware"
	"chatter-server/internal/outbox"
	"chatter-server/internal/repository"
	"chatter-server/internal/services"
	"chatter-server/internal/storage"
	"chatter-server/internal/websocket"
	"chatter-server/pkg/database"
	"chatter-server/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.Server.Environment)
	logger.SetGlobalLogger(log)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Errorf("connect database: %v", err)
		return
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Errorf("connect redis: %v", err)
		return
	}
	defer redisClient.Close()

	// S3 is optional: without it the presign endpoint reports
	// unavailable and everything else keeps working.
	var presigner services.Presigner
	s3Client, err := storage.NewClient(ctx, storage.S3Config{
		Region:     cfg.S3.Region,
		Bucket:     cfg.S3.Bucket,
		AccessKey:  cfg.S3.AccessKeyID,
		SecretKey:  cfg.S3.SecretAccessKey,
		Endpoint:   cfg.S3.Endpoint,
		PublicBase: fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3.Bucket, cfg.S3.Region),
		PresignTTL: time.Duration(cfg.S3.PresignTTLSeconds) * time.Second,
	})
	if err != nil {
		log.Warnf("s3 disabled: %v", err)
	} else {
		presigner = s3Client
	}

	uow := repository.NewUnitOfWork(db)

	notificationService := services.NewNotificationService(uow, log)
	chatterService := services.NewChatterService(uow, notificationService, log)
	reactionService := services.NewReactionService(uow, notificationService, log)
	receiptService := services.NewReceiptService(uow)
	searchService := services.NewSearchService(uow)
	activityService := services.NewActivityService(uow)
	attachmentService := services.NewAttachmentService(uow, presigner)

	publisher := events.NewRedisPublisher(redisClient)
	subscriber := events.NewRedisSubscriber(redisClient)

	processor := outbox.DefaultProcessor(uow.Repos().Outbox, publisher, log)
	processor.Start(ctx)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	bridge := websocket.NewRedisBridge(subscriber, hub)
	go func() {
		if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorf("redis bridge stopped: %v", err)
		}
	}()

	verifier := middleware.NewTokenVerifier(cfg.Auth.JWTSecret)
	authorizer := websocket.NewChannelAuthorizer(uow.Repos().Roster)

	chatterHandler := handler.NewChatterHandler(chatterService, reactionService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	searchHandler := handler.NewSearchHandler(searchService)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService)
	activityHandler := handler.NewActivityHandler(activityService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	wsHandler := websocket.NewHandler(verifier, authorizer, hub, log)

	if cfg.Server.Environment == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log))
	r.Use(middleware.ErrorHandler(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", wsHandler.Connect)

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(verifier))
	{
		projects := api.Group("/projects/:id")
		{
			projects.POST("/chatter/threads", chatterHandler.CreateThread)
			projects.GET("/chatter/threads", chatterHandler.ListThreads)
			projects.GET("/chatter/search", searchHandler.Search)
			projects.GET("/chatter/attachments", attachmentHandler.List)
			projects.POST("/chatter/attachments", attachmentHandler.Register)
			projects.POST("/chatter/attachments/uploads", attachmentHandler.CreateUploadSlot)
			projects.GET("/activity", activityHandler.List)
			projects.POST("/activity", activityHandler.Record)
		}

		threads := api.Group("/threads/:id")
		{
			threads.GET("", chatterHandler.GetThread)
			threads.POST("/replies", chatterHandler.CreateReply)
			threads.POST("/read", receiptHandler.MarkRead)
			threads.GET("/receipts", receiptHandler.Receipts)
		}

		messages := api.Group("/messages/:id")
		{
			messages.PATCH("", chatterHandler.EditMessage)
			messages.DELETE("", chatterHandler.DeleteMessage)
			messages.POST("/reactions", chatterHandler.React)
		}

		notifications := api.Group("/notifications")
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
			notifications.POST("/read-all", notificationHandler.MarkAllRead)
			notifications.DELETE("/:id", notificationHandler.Clear)
			notifications.DELETE("", notificationHandler.ClearAll)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Infof("starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	log.Infof("server stopped")
}
