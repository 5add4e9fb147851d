package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api/handlers"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api/middleware"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/auth"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/repository/postgres"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/services"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/storage"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/tasks"
)

// SetupRouter configures and returns the main Gin engine. taskClient may be
// nil, in which case message notifications are dropped instead of enqueued;
// that keeps the API usable without Redis in development.
func SetupRouter(cfg *config.Config, pool *pgxpool.Pool, taskClient handlers.TaskEnqueuer, provider auth.IProvider, logger *zap.Logger) (*gin.Engine, error) {
	listingRepo := postgres.NewPgListingRepository(pool)
	threadRepo := postgres.NewPgThreadRepository(pool)
	messageRepo := postgres.NewPgMessageRepository(pool)

	var notifier services.Notifier = services.NewNoopNotifier()
	if taskClient != nil {
		notifier = tasks.NewNotifier(taskClient)
	}

	listingService := services.NewListingService(listingRepo, threadRepo, cfg, logger)
	threadService := services.NewThreadService(threadRepo, messageRepo, listingRepo, notifier, logger)
	messageService := services.NewMessageService(threadRepo, messageRepo, notifier, logger)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg, logger)

	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigin))
	r.Use(rateLimiter.Limit())
	r.Use(middleware.SessionMiddleware(cfg, provider, logger))

	requireSession := middleware.RequireSession()

	sessionHandler := handlers.NewSessionHandler(cfg, provider, logger)
	listingHandler := handlers.NewListingHandler(listingService, s3StorageService, taskClient, cfg, logger)
	threadHandler := handlers.NewThreadHandler(threadService)
	messageHandler := handlers.NewMessageHandler(messageService)

	handlers.RegisterSessionRoutes(r, sessionHandler)
	handlers.RegisterListingRoutes(r, listingHandler, requireSession)
	handlers.RegisterThreadRoutes(r, threadHandler, requireSession)
	handlers.RegisterMessageRoutes(r, messageHandler, requireSession)

	r.GET("/v1/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	return r, nil
}
