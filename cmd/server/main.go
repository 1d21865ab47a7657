package main

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/connectsphere/backend/internal/router"
	"github.com/connectsphere/backend/pkg/config"
	"github.com/connectsphere/backend/pkg/firebase"
	"github.com/connectsphere/backend/pkg/logger"
	"github.com/connectsphere/backend/pkg/response"
	"github.com/connectsphere/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New("connectsphere", cfg.Env)

	// Initialize database connection
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	// Redis backs the auth rate limiter; without it the limiter is off.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			log.WithError(err).Warn("redis unavailable, rate limiting disabled")
			rdb = nil
		}
	}

	// Firebase storage backs media uploads; without credentials the
	// upload endpoint reports storage as unconfigured.
	var uploader firebase.Uploader
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(context.Background(), cfg.FirebaseCredentialsPath, cfg.FirebaseStorageBucket)
		if err != nil {
			log.WithError(err).Warn("firebase unavailable, media uploads disabled")
		} else {
			uploader = app
		}
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	e.HTTPErrorHandler = response.NewErrorHandler(log, cfg.Development())

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	if err := router.SetupRoutes(e, db.Database, rdb, uploader, cfg.JWTSecret, log); err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// Start server
	log.Infof("starting server on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
