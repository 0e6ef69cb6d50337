package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/miderror/dev-mentor/internal/adapter/docker"
	"github.com/miderror/dev-mentor/internal/adapter/logging"
	"github.com/miderror/dev-mentor/internal/adapter/metrics"
	"github.com/miderror/dev-mentor/internal/adapter/postgres/checkrepository"
	"github.com/miderror/dev-mentor/internal/adapter/postgres/taskrepository"
	"github.com/miderror/dev-mentor/internal/adapter/redis/queueport"
	"github.com/miderror/dev-mentor/internal/adapter/redis/workerport"
	"github.com/miderror/dev-mentor/internal/config"
	"github.com/miderror/dev-mentor/internal/core/services/check"
	"github.com/miderror/dev-mentor/internal/core/services/grading"
	"github.com/miderror/dev-mentor/internal/core/services/sandbox"
	"github.com/miderror/dev-mentor/internal/core/services/worker"
	"github.com/miderror/dev-mentor/internal/dispatcher"
	"github.com/miderror/dev-mentor/internal/handlers"
	http2 "github.com/miderror/dev-mentor/internal/http"
)

func main() {
	InitReader()
	sysCfg := config.NewSystemConfig()

	logger := logging.NewZapLogger(sysCfg.LogLevel, sysCfg.DebugMode)
	defer func() { _ = logger.Sync() }()
	logger.Info("Starting code checker service")

	if err := sysCfg.JwtConfig.Validate(); err != nil {
		logger.Error("Invalid auth configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := setupDatabase(ctx, sysCfg.PostgresConfig)
	if err != nil {
		logger.Error("Failed to set up database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := setupRedis(ctx, sysCfg.RedisConfig)
	if err != nil {
		logger.Error("Failed to set up redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	substrate, err := docker.NewSubstrate(sysCfg.SandboxCfg, logger)
	if err != nil {
		logger.Error("Failed to create docker client", "error", err)
		os.Exit(1)
	}
	defer substrate.Close()
	if err := substrate.Ping(ctx); err != nil {
		logger.Error("Docker daemon unreachable", "error", err)
		os.Exit(1)
	}

	recorder := metrics.NewPrometheusRecorder()

	// SECONDARY PORTS
	checkRepo := checkrepository.NewCheckRepository(db, logger)
	taskRepo := taskrepository.NewTaskRepository(db, logger)
	if err := taskRepo.EnsureTableExists(ctx); err != nil {
		logger.Error("Failed to prepare task tables", "error", err)
		os.Exit(1)
	}
	if err := checkRepo.EnsureTableExists(ctx); err != nil {
		logger.Error("Failed to prepare checks table", "error", err)
		os.Exit(1)
	}
	queue := queueport.NewCheckQueue(redisClient, queueport.DefaultQueueKey, logger)
	heartbeat := sysCfg.DispatcherCfg.HeartbeatInterval
	workerPort := workerport.NewWorkerRepository(redisClient, 10*heartbeat, logger)

	//services
	profiles := sandbox.NewProfileTable(sysCfg.SandboxCfg)
	runner := sandbox.NewRunner(sysCfg.SandboxCfg, profiles, substrate, recorder, logger)
	if err := runner.EnsureImages(ctx); err != nil {
		logger.Error("Failed to prepare sandbox images", "error", err)
		os.Exit(1)
	}
	engine := grading.NewEngine(runner, sysCfg.GradingCfg, recorder, logger)
	checkSvc := check.NewCheckService(checkRepo, taskRepo, queue, engine, profiles, logger)
	workerSvc := worker.NewWorkerRegistrationService(workerPort, heartbeat, logger)

	//server
	serviceProvider := http2.NewServiceProvider(workerSvc, checkSvc, profiles)
	httpServer := http2.NewServer(
		sysCfg.HTTPCfg,
		*serviceProvider,
		handlers.New(sysCfg.JwtConfig, logger),
		handlers.NewRateLimiter(sysCfg.HTTPCfg.RateLimitRPS, sysCfg.HTTPCfg.RateLimitBurst, recorder),
		recorder.Handler(),
		logger,
	)
	if err := httpServer.Init(); err != nil {
		logger.Error("Failed to init http server", "error", err)
		os.Exit(1)
	}
	if err := httpServer.Start(ctx); err != nil {
		logger.Error("Failed to start http server", "error", err)
		os.Exit(1)
	}

	engineDispatcher := dispatcher.NewDispatcher(sysCfg.DispatcherCfg, queue, checkSvc, workerSvc, recorder, logger)
	if err := engineDispatcher.Start(ctx); err != nil {
		logger.Error("Failed to start dispatcher", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	httpServer.Stop(shutdownCtx)
	engineDispatcher.Stop()

	logger.Info("successfully shutdown server")
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(ctx context.Context, cfg *config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Url)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// setupRedis sets up the Redis connection
func setupRedis(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Url,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// InitReader loads <env>.env, where env is the first program argument
func InitReader() {
	if len(os.Args) < 2 {
		if os.Getenv("ALLOW_MISSING_ENV") == "true" {
			return
		}
		log.Fatalf("Env not supplied in argument")
	}
	environment := os.Args[1]

	err := godotenv.Load(environment + ".env")
	if err != nil && os.Getenv("ALLOW_MISSING_ENV") != "true" {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
