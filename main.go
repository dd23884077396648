package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/db"
	"messenger-service/internal/events"
	"messenger-service/internal/handlers"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/rabbitmq"
	"messenger-service/internal/repositories"
	"messenger-service/internal/services"
	"messenger-service/internal/storage"
	"messenger-service/internal/telemetry"
	"messenger-service/internal/tracing"
	"messenger-service/internal/ws"
)

func main() {
	dsn := os.Getenv("DB_DSN")
	jwtSecret := os.Getenv("JWT_SECRET")
	amqpURL := os.Getenv("AMQP_URL")
	logsExchange := getEnv("LOGS_EXCHANGE", "logs.events")
	serviceName := getEnv("SERVICE_NAME", "messenger-service")
	environment := getEnv("ENVIRONMENT", "local")
	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	debugRoutes := os.Getenv("DEBUG_ROUTES") == "true"
	port := getEnv("PORT", "8080")

	if dsn == "" || jwtSecret == "" {
		log.Fatal("DB_DSN and JWT_SECRET environment variables must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(dsn)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	shutdownTracing, err := tracing.Setup(ctx, serviceName, environment, otlpEndpoint)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Printf("tracer shutdown error: %v", err)
		}
	}()

	publisher := rabbitmq.NewNoopPublisher()
	if amqpURL == "" {
		log.Printf("warning: AMQP_URL not set; event publishing disabled")
	} else {
		pub, err := rabbitmq.NewPublisher(amqpURL, "app.events")
		if err != nil {
			log.Printf("warning: failed to initialize RabbitMQ publisher: %v", err)
		} else {
			publisher = pub
		}
	}
	defer publisher.Close()

	auditPublisher := rabbitmq.NewNoopPublisher()
	if amqpURL == "" {
		log.Printf("warning: AMQP_URL not set; audit publishing disabled")
	} else {
		pub, err := rabbitmq.NewPublisher(amqpURL, logsExchange)
		if err != nil {
			log.Printf("warning: failed to initialize RabbitMQ audit publisher: %v", err)
		} else {
			auditPublisher = pub
		}
	}
	defer auditPublisher.Close()

	observability.Register()
	observability.SetPublisher(publisher)

	var blobs storage.BlobStore
	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		store, err := storage.NewMinioStore(ctx, storage.Config{
			Endpoint:  endpoint,
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    getEnv("MINIO_BUCKET", "messenger-media"),
			PublicURL: os.Getenv("MINIO_PUBLIC_URL"),
			UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
		})
		if err != nil {
			log.Fatalf("failed to connect to object storage: %v", err)
		}
		blobs = store
	} else {
		log.Printf("warning: MINIO_ENDPOINT not set; avatar uploads disabled")
	}

	bus := events.NewBus()

	userRepo := repositories.NewUserRepository(database)
	socialRepo := repositories.NewSocialRepository(database, publisher)
	chatRepo := repositories.NewChatRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	authService := services.NewAuthService(userRepo, jwtSecret)
	socialService := services.NewSocialService(socialRepo, bus)
	previewService := services.NewPreviewService(socialRepo, chatRepo, userRepo, bus)

	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, serviceName, environment)

	authHandler := handlers.NewAuthHandler(authService, auditEmitter)
	userHandler := handlers.NewUserHandler(userRepo, socialRepo, blobs)
	friendHandler := handlers.NewFriendHandler(socialService, userRepo, socialRepo, auditEmitter)

	hub := ws.NewHub()
	chatHandler := handlers.NewChatHandler(chatRepo, messageRepo, socialRepo, userRepo, previewService, hub, bus, publisher)
	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, jwtSecret)
	previewWS := ws.NewPreviewWebSocketHandler(previewService, jwtSecret)

	r := gin.Default()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(observability.HTTPMetricsMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		if err := database.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/auth/register", authHandler.Register)
	r.POST("/auth/login", authHandler.Login)

	auth := r.Group("", middleware.JWTAuth(jwtSecret))
	auth.POST("/auth/logout", authHandler.Logout)

	auth.GET("/users/me", userHandler.GetMe)
	auth.GET("/users/:id", userHandler.GetUserByID)
	auth.PATCH("/users/me", userHandler.UpdateProfile)
	auth.POST("/users/me/avatar", userHandler.UploadAvatar)
	auth.DELETE("/users/me", userHandler.DeleteAccount)

	auth.POST("/friends/invites", friendHandler.SendInvite)
	auth.DELETE("/friends/invites/:user_id", friendHandler.CancelInvite)
	auth.POST("/friends/invites/:user_id/accept", friendHandler.AcceptInvite)
	auth.GET("/friends/invites/incoming", friendHandler.ListIncoming)
	auth.GET("/friends/invites/outgoing", friendHandler.ListOutgoing)
	auth.GET("/friends", friendHandler.ListFriends)
	auth.DELETE("/friends/:user_id", friendHandler.RemoveFriend)
	auth.POST("/friends/:user_id/block", friendHandler.BlockUser)
	auth.DELETE("/friends/:user_id/block", friendHandler.UnblockUser)
	auth.GET("/friends/:user_id/status", friendHandler.Status)

	auth.GET("/chats", chatHandler.ListChats)
	auth.POST("/chats/start", chatHandler.StartChat)
	auth.GET("/chats/:chat_id/messages", chatHandler.GetChatMessages)
	auth.POST("/chats/:chat_id/messages", chatHandler.PostChatMessage)
	auth.POST("/chats/:chat_id/read", chatHandler.MarkRead)
	auth.POST("/chats/:chat_id/typing", chatHandler.SetTyping)
	auth.GET("/chats/previews", chatHandler.GetPreviews)

	r.GET("/ws/chats/:chat_id", chatWS.Handle)
	r.GET("/ws/previews", previewWS.Handle)

	handlers.RegisterDebugRoutes(r, auditEmitter, debugRoutes)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
