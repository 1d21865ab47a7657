package router

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/connectsphere/backend/internal/handlers"
	"github.com/connectsphere/backend/internal/middleware"
	"github.com/connectsphere/backend/internal/realtime"
	"github.com/connectsphere/backend/internal/repositories"
	"github.com/connectsphere/backend/internal/services"
	"github.com/connectsphere/backend/pkg/firebase"
)

const authRateLimit = 10

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(eMiddleware.RequestID())
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *mongo.Database, rdb *redis.Client, uploader firebase.Uploader, jwtSecret string, log *logrus.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		return err
	}
	log.Info("database indexes ensured")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize repositories ---
	userRepo := repositories.NewMongoUserRepository(db)
	groupRepo := repositories.NewMongoGroupRepository(db)
	postRepo := repositories.NewMongoPostRepository(db)
	commentRepo := repositories.NewMongoCommentRepository(db)
	messageRepo := repositories.NewMongoMessageRepository(db)
	notificationRepo := repositories.NewMongoNotificationRepository(db)

	hub := realtime.NewHub(log)
	notifier := services.NewNotifier(notificationRepo, userRepo, hub, log)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/auth")
	authGroup.Use(middleware.RateLimit(rdb, authRateLimit, time.Minute))
	authHandler := handlers.NewAuthHandler(userRepo, jwtSecret)
	authHandler.RegisterAuthRoutes(authGroup)

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(jwtSecret))

	userHandler := handlers.NewUserHandler(userRepo)
	userHandler.RegisterUserRoutes(api.Group("/users"))

	groupHandler := handlers.NewGroupHandler(groupRepo, userRepo, postRepo, notifier)
	groupHandler.RegisterGroupRoutes(api.Group("/groups"))

	postHandler := handlers.NewPostHandler(postRepo, commentRepo, groupRepo, userRepo, notifier)
	postHandler.RegisterPostRoutes(api.Group("/posts"))

	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, groupRepo, userRepo, notifier)
	commentHandler.RegisterCommentRoutes(api.Group("/comments"))

	messageHandler := handlers.NewMessageHandler(messageRepo, userRepo, hub, notifier)
	messageHandler.RegisterMessageRoutes(api.Group("/messages"))

	notificationHandler := handlers.NewNotificationHandler(notificationRepo)
	notificationHandler.RegisterNotificationRoutes(api.Group("/notifications"))

	searchHandler := handlers.NewSearchHandler(userRepo, groupRepo)
	searchHandler.RegisterSearchRoutes(api.Group("/search"))

	analyticsHandler := handlers.NewAnalyticsHandler(userRepo, groupRepo, postRepo, commentRepo)
	analyticsHandler.RegisterAnalyticsRoutes(api.Group("/analytics"))

	uploadHandler := handlers.NewUploadHandler(uploader)
	uploadHandler.RegisterUploadRoutes(api.Group("/upload"))

	// Realtime upgrade authenticates via its token query parameter.
	wsHandler := handlers.NewWSHandler(hub, groupRepo, jwtSecret, log)
	e.GET("/ws", wsHandler.Serve)

	log.Info("routes configured")
	return nil
}
