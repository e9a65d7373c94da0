package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BloggingApp/journal-service/internal/config"
	"github.com/BloggingApp/journal-service/internal/handler"
	"github.com/BloggingApp/journal-service/internal/metrics"
	"github.com/BloggingApp/journal-service/internal/rabbitmq"
	"github.com/BloggingApp/journal-service/internal/repository"
	"github.com/BloggingApp/journal-service/internal/repository/postgres"
	"github.com/BloggingApp/journal-service/internal/server"
	"github.com/BloggingApp/journal-service/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := config.Load("."); err != nil {
		logger.Sugar().Panicf("failed to load configuration: %s", err.Error())
	}

	db := mustConnectPostgres(ctx, logger)
	defer db.Close()

	rdb := mustConnectRedis(ctx, logger)
	defer rdb.Close()

	mq, err := rabbitmq.New(os.Getenv("RABBITMQ_CONN_STRING"))
	if err != nil {
		logger.Sugar().Panicf("failed to connect to rabbitmq: %s", err.Error())
	}
	defer mq.Close()
	logger.Info("Successfully connected to RabbitMQ")

	m := metrics.New()
	services := service.New(logger, repository.New(db, rdb), mq, m)
	handlers := handler.New(services, m)

	srv := server.New()
	go func() {
		if err := srv.Run(config.HTTPServerConfig(handlers.InitRoutes())); err != nil {
			logger.Sugar().Panicf("failed to run http server: %s", err.Error())
		}
	}()
	services.StartConsumeAll(ctx)

	logger.Info("Server started")
	<-ctx.Done()
	logger.Info("Server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("failed to shut down http server: %s", err.Error())
	}
}

func mustConnectPostgres(ctx context.Context, logger *zap.Logger) *pgxpool.Pool {
	db, err := postgres.DB(ctx, config.DBConfigFromEnv())
	if err != nil {
		logger.Sugar().Panicf("failed to connect to postgres: %s", err.Error())
	}
	if err := db.Ping(ctx); err != nil {
		logger.Sugar().Panicf("failed to ping postgres: %s", err.Error())
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.Sugar().Panicf("failed to apply postgres schema: %s", err.Error())
	}
	logger.Info("Successfully connected to PostgreSQL")
	return db
}

func mustConnectRedis(ctx context.Context, logger *zap.Logger) *redis.Client {
	rdb := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_ADDR")})
	pong, err := rdb.Ping(ctx).Result()
	if err != nil {
		logger.Sugar().Panicf("failed to ping redis: %s", err.Error())
	}
	logger.Sugar().Infof("Successfully connected to Redis: %s", pong)
	return rdb
}
