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
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/vibely-app/vibely/internal/config"
	"github.com/vibely-app/vibely/internal/handler"
	"github.com/vibely-app/vibely/internal/middleware"
	"github.com/vibely-app/vibely/internal/model"
	"github.com/vibely-app/vibely/internal/repository"
	"github.com/vibely-app/vibely/internal/service"
	"github.com/vibely-app/vibely/internal/ws"
	"github.com/vibely-app/vibely/migrations"
	"github.com/vibely-app/vibely/pkg/auth"
	"github.com/vibely-app/vibely/pkg/notification"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// @title           Vibely Messaging API
// @version         1.0
// @description     Multi-party messaging engine: direct chats, groups and channels with real-time fan-out over WebSocket and Redis Pub/Sub.

// @contact.name   API Support
// @contact.email  support@vibely.local

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      api.localhost
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// ==================== Load Config ====================
	cfg := config.Load()
	log.Printf("🚀 Starting Vibely API Server [env=%s]", cfg.App.Env)

	// ==================== Database (PostgreSQL) ====================
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.App.Env == "production" {
		gormLogger = logger.Default.LogMode(logger.Warn)
	}

	db, err := gorm.Open(postgres.Open(cfg.DB.DSN()), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	log.Println("✅ Connected to PostgreSQL")

	// ==================== Run Migrations ====================
	if err := migrations.Run(cfg.DB.URL()); err != nil {
		log.Printf("⚠️  Migration warning: %v", err)
		log.Println("📦 Falling back to GORM AutoMigrate...")
		// Fallback to AutoMigrate if migration files fail
		if err := db.AutoMigrate(
			&model.User{},
			&model.Block{},
			&model.Device{},
			&model.Conversation{},
			&model.Participant{},
			&model.Message{},
			&model.Reaction{},
			&model.ReadStatus{},
			&model.MessageDeletion{},
			&model.InviteLink{},
			&model.Notification{},
		); err != nil {
			log.Fatalf("❌ Failed to migrate database: %v", err)
		}
	}
	log.Println("✅ Database migrated successfully")

	// ==================== Redis ====================
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       0,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	log.Println("✅ Connected to Redis")

	// ==================== Initialize Layers ====================
	// JWT Manager
	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Expiry)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	convRepo := repository.NewConversationRepository(db)
	partRepo := repository.NewParticipantRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	readRepo := repository.NewReadRepository(db)
	inviteRepo := repository.NewInviteRepository(db)

	// WebSocket Hub (with Redis Pub/Sub for horizontal scaling)
	hub := ws.NewHub(rdb, func(userID uuid.UUID, online bool) {
		log.Printf("👤 User %s is now %s", userID, map[bool]string{true: "ONLINE", false: "OFFLINE"}[online])
	})

	// Start Hub event loop
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	// Push notification dispatcher (FCM)
	dispatcher, err := notification.NewDispatcher(cfg.Firebase.CredentialsFile, userRepo, notificationRepo)
	if err != nil {
		log.Fatalf("❌ Failed to initialize notification dispatcher: %v", err)
	}

	// Services
	convService := service.NewConversationService(convRepo, partRepo, msgRepo, readRepo, userRepo, hub)
	msgService := service.NewMessageService(convRepo, partRepo, msgRepo, readRepo, userRepo, hub, dispatcher)
	reactionService := service.NewReactionService(convRepo, partRepo, msgRepo, reactionRepo, readRepo, hub)
	readService := service.NewReadService(convRepo, partRepo, msgRepo, readRepo, hub)
	inviteService := service.NewInviteService(convRepo, partRepo, msgRepo, readRepo, userRepo, inviteRepo, hub)
	userService := service.NewUserService(userRepo)

	// Handlers
	convHandler := handler.NewConversationHandler(convService, readService)
	msgHandler := handler.NewMessageHandler(msgService, reactionService, readService)
	inviteHandler := handler.NewInviteHandler(inviteService)
	userHandler := handler.NewUserHandler(userService)
	wsHandler := handler.NewWSHandler(hub, msgService, convService, readService, jwtManager)

	// ==================== Gin Router ====================
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Swagger configuration
	// Serve swagger.json at /docs/swagger.json to avoid conflict with /swagger/* wildcard
	router.StaticFile("/docs/swagger.json", "./docs/swagger.json")

	// Swagger UI handling
	url := ginSwagger.URL("/docs/swagger.json")
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, url))

	// Global middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.Origins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "vibely-api",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	// ==================== API Routes ====================
	api := router.Group("/api/v1")
	{
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager))
		{
			// Conversations
			protected.GET("/conversations", convHandler.GetConversations)
			protected.POST("/conversations/direct", convHandler.GetOrCreateDirect)
			protected.POST("/conversations/groups", convHandler.CreateGroup)
			protected.POST("/conversations/channels", convHandler.CreateChannel)
			protected.GET("/conversations/:id", convHandler.GetConversation)
			protected.PATCH("/conversations/:id", convHandler.UpdateConversation)
			protected.DELETE("/conversations/:id", convHandler.DeleteConversation)
			protected.GET("/conversations/:id/stats", convHandler.GetStats)
			protected.GET("/conversations/:id/participants", convHandler.GetParticipants)
			protected.POST("/conversations/:id/participants", convHandler.AddParticipant)
			protected.POST("/conversations/:id/leave", convHandler.Leave)
			protected.POST("/conversations/:id/kick", convHandler.Kick)
			protected.POST("/conversations/:id/pin", convHandler.TogglePin)
			protected.PUT("/conversations/:id/pin-order", convHandler.UpdatePinOrder)
			protected.POST("/conversations/:id/archive", convHandler.ToggleArchive)
			protected.POST("/conversations/:id/mute", convHandler.Mute)
			protected.POST("/conversations/:id/read", convHandler.MarkAsRead)
			protected.POST("/conversations/:id/unread", convHandler.MarkAsUnread)
			protected.POST("/channels/:slug/join", convHandler.JoinChannel)

			// Messages
			protected.GET("/conversations/:id/messages", msgHandler.GetMessages)
			protected.POST("/conversations/:id/messages", msgHandler.SendMessage)
			protected.GET("/messages/:id", msgHandler.GetMessage)
			protected.PATCH("/messages/:id", msgHandler.EditMessage)
			protected.DELETE("/messages/:id", msgHandler.DeleteMessage)
			protected.POST("/messages/:id/pin", msgHandler.TogglePin)
			protected.POST("/messages/:id/forward", msgHandler.ForwardMessage)
			protected.POST("/messages/:id/reactions", msgHandler.ToggleReaction)
			protected.POST("/messages/views", msgHandler.IncrementViews)

			// Users
			protected.POST("/users/:id/block", userHandler.BlockUser)
			protected.DELETE("/users/:id/block", userHandler.UnblockUser)
			protected.POST("/devices", userHandler.RegisterDevice)

			// Invites
			protected.POST("/conversations/:id/invites", inviteHandler.CreateInvite)
			protected.GET("/conversations/:id/invites", inviteHandler.ListInvites)
			protected.POST("/invites/redeem", inviteHandler.RedeemInvite)
			protected.DELETE("/invites/:code", inviteHandler.RevokeInvite)
		}
	}

	// WebSocket endpoint (auth via query parameter)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// ==================== Start Server ====================
	srv := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	log.Printf("🌐 Vibely API running on http://0.0.0.0:%s", cfg.App.Port)
	log.Printf("📋 API docs: http://0.0.0.0:%s/swagger/index.html", cfg.App.Port)
	log.Printf("🔌 WebSocket: ws://0.0.0.0:%s/ws?token=<jwt>", cfg.App.Port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down server...")

	// Give ongoing requests 5 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	hubCancel()
	log.Println("✅ Server exited gracefully")
}
