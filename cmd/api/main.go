package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	config "mobile-banking-core/configs"
	"mobile-banking-core/internal/common/enum"
	"mobile-banking-core/internal/pkg/backend"
	database "mobile-banking-core/internal/pkg/db"
	"mobile-banking-core/internal/pkg/logger"
	"mobile-banking-core/internal/pkg/rabbitmq"
	"mobile-banking-core/internal/pkg/redis"
	s3aws "mobile-banking-core/internal/pkg/storage/s3"
	"mobile-banking-core/internal/pkg/validation"
	serverApp "mobile-banking-core/internal/server"

	"github.com/gin-gonic/gin"
)

// @title           Mobile Banking Core API
// @version         1.0
// @description     Headless KYC and payment core driven by the mobile UI shell

// @BasePath        /api
func main() {
	env, err := config.GetEnv()
	if err != nil {
		logger.Error.Println("Error getting environment", err)
		panic(err)
	}

	if err := logger.Setup(env.AppEnv == enum.PRODUCTION); err != nil {
		logger.Error.Println("Error setting up logger", err)
		panic(err)
	}
	defer logger.Sync()

	var wg sync.WaitGroup
	ctx, cancel := context.WithCancel(context.Background())

	payload := &config.SetupServerDto{
		Ctx:    ctx,
		Cancel: cancel,
		Wg:     &wg,
		Env:    env,
		Backend: backend.NewClient(&backend.Config{
			BaseURL:        env.BackendBaseURL,
			Token:          env.BackendToken,
			ProxyURL:       env.BackendProxyURL,
			RequestTimeout: env.BackendTimeoutSec,
		}),
	}

	// Infrastructure is optional: a component that is disabled or unreachable
	// is left nil and the features depending on it are skipped.
	if env.RedisEnabled {
		if payload.Rds, err = setupRedis(ctx, env); err != nil {
			logger.Warning.Println("Redis unavailable, continuing without it:", err)
		}
	}
	if env.RabbitEnabled {
		if payload.Rb, err = setupRabbitMQ(ctx, env); err != nil {
			logger.Warning.Println("RabbitMQ unavailable, events will be dropped:", err)
		}
	}
	if env.DBEnabled {
		if payload.Db, err = setupDB(env, payload.Rds); err != nil {
			logger.Warning.Println("Database unavailable, history is disabled:", err)
		}
	}
	if env.AWSBucketName != "" {
		if payload.S3, err = setupS3(ctx, env, payload.Rds); err != nil {
			logger.Warning.Println("S3 unavailable, captures will not be archived:", err)
		}
	}

	setupServer(payload)
}

func setupRedis(ctx context.Context, env *config.Config) (*redis.Client, error) {
	return redis.Setup(ctx, &redis.Config{
		Host:     env.RedisHost,
		Username: env.RedisUser,
		Port:     env.RedisPort,
		Password: env.RedisPass,
		PoolSize: env.RedisPoolSize,
	})
}

func setupRabbitMQ(ctx context.Context, env *config.Config) (*rabbitmq.ConnectionManager, error) {
	return rabbitmq.NewConnectionManager(ctx, &rabbitmq.Config{
		Username: env.RabbitUser,
		Password: env.RabbitPass,
		Host:     env.RabbitHost,
		Port:     env.RabbitPort,
	})
}

func setupDB(env *config.Config, rds *redis.Client) (*database.Database, error) {
	return database.Setup(&database.Config{
		Host:      env.DBHost,
		Port:      env.DBPort,
		User:      env.DBUser,
		Password:  env.DBPass,
		Database:  env.DBName,
		SSLMode:   env.DBSSLMode,
		Driver:    database.DriverEnum(env.DBDriver),
		Cache:     env.DBCache,
		Rds:       rds,
		CacheTime: env.DBCacheTTL,
	})
}

func setupS3(ctx context.Context, env *config.Config, rds *redis.Client) (s3aws.Is3, error) {
	var cache redis.IRedis
	if rds != nil {
		cache = rds
	}
	client, err := s3aws.NewS3Client(ctx, s3aws.S3Config{
		AWSRegion:          env.AWSRegion,
		AWSAccessKeyID:     env.AWSAccessKeyID,
		AWSSecretAccessKey: env.AWSSecretAccessKey,
	}, env.AWSBucketName, cache)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func setupServer(payload *config.SetupServerDto) {
	env := payload.Env

	defer func() {
		if payload.Db != nil {
			_ = payload.Db.Close()
		}
		if payload.Rb != nil {
			_ = payload.Rb.Close()
		}
		if payload.Rds != nil {
			_ = payload.Rds.Close()
		}
		payload.Cancel()
		payload.Wg.Wait()
	}()

	if err := validation.Setup(); err != nil {
		logger.Error.Println("Failed to setup validation")
		panic(err)
	}

	if env.AppEnv == enum.PRODUCTION {
		gin.SetMode(gin.ReleaseMode)
	}
	e := gin.New()
	e.Use(gin.Recovery())

	app, err := serverApp.Setup(e, payload)
	if err != nil {
		logger.Error.Println("Failed to setup server", err)
		return
	}
	defer app.Close()

	if env.AppEnv.RunsWorkers() && payload.Db != nil && payload.Rb != nil {
		workers, err := serverApp.InitWorker(payload.Ctx, payload.Db, payload.Rb)
		if err != nil {
			logger.Error.Println("Failed to start history workers", err)
		} else {
			app.AttachWorkers(workers)
		}
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", env.AppPort),
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.HTTP.Println("========= Server Started =========")
		logger.HTTP.Println("=========", env.AppPort, "=========")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error.Println("Server error:", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logger.HTTP.Println("========= Server Shutting Down =========")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
