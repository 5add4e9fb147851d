package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/Liamwalsh1/enthusiast-marketplace/internal/api"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/auth"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/cache"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/config"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/db"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/email"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/repository/postgres"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/services"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/storage"
	"github.com/Liamwalsh1/enthusiast-marketplace/internal/tasks"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (background tasks), 'img' (photo processing), 'all' (default)")

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Database
	pool, err := db.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.DisconnectDB(pool)

	if err := db.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Redis (asynq backend)
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			logger.Warn("error disconnecting from Redis", zap.Error(err))
		}
	}()

	// S3 client (used by the photo worker)
	awsCfg, err := aws_config.LoadDefaultConfig(ctx,
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		logger.Fatal("failed to load AWS config", zap.Error(err))
	}
	s3Client := s3.NewFromConfig(awsCfg)

	s3StorageService, err := storage.NewS3Storage(cfg)
	if err != nil {
		logger.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	emailSender := email.NewSMTPSender(cfg, logger)
	authProvider := auth.NewProvider(cfg)

	// Worker-side services. The API builds its own set in SetupRouter.
	listingRepo := postgres.NewPgListingRepository(pool)
	threadRepo := postgres.NewPgThreadRepository(pool)
	listingService := services.NewListingService(listingRepo, threadRepo, cfg, logger)

	taskClient := tasks.NewClient(redisClient)
	defer taskClient.Close()

	taskProcessor := tasks.NewTaskProcessor(cfg, emailSender, s3StorageService, listingService, authProvider, s3Client, logger)

	var wg sync.WaitGroup
	var mainApiSrv *http.Server
	var taskServers []*asynq.Server

	logger.Info("starting application", zap.String("mode", cfg.RunMode))

	apiMode := func() {
		router, err := api.SetupRouter(cfg, pool, taskClient, authProvider, logger)
		if err != nil {
			logger.Fatal("failed to set up API router", zap.Error(err))
		}
		mainApiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("API listening", zap.String("port", cfg.ApiPort))
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("API server error", zap.Error(err))
			}
			logger.Info("API server stopped")
		}()
	}

	workerMode := func(isImageWorker, isBgWorker bool, name string) {
		srv, mux, err := tasks.SetupServer(redisClient, taskProcessor, isImageWorker, isBgWorker, logger)
		if err != nil {
			logger.Fatal("failed to set up task server", zap.String("worker", name), zap.Error(err))
		}
		taskServers = append(taskServers, srv)
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("task server starting", zap.String("worker", name))
			if err := srv.Run(mux); err != nil {
				logger.Fatal("task server error", zap.String("worker", name), zap.Error(err))
			}
			logger.Info("task server stopped", zap.String("worker", name))
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		workerMode(false, true, "bg")
	case "img":
		workerMode(true, false, "img")
	case "all":
		apiMode()
		workerMode(true, true, "worker")
	default:
		logger.Fatal("invalid run mode", zap.String("mode", cfg.RunMode))
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			logger.Warn("API server shutdown error", zap.Error(err))
		}
	}
	for _, srv := range taskServers {
		srv.Shutdown()
	}

	wg.Wait()
	logger.Info("server gracefully stopped")
}
