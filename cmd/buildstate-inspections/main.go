package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/common/database"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/common/logger"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/common/mqtt"
	commonredis "github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/common/redis"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/config"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/events"
	httpapi "github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/http"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/repository"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/service"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/storage"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/store"
	"github.com/kezar0001-cpu/buildstatefm-app-sub011/internal/summary"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "buildstate-inspections")
	if err != nil {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Repositories: Postgres when reachable, otherwise in-memory
	repos := repository.NewMemoryRepositories()
	var db *sql.DB
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			if err := repository.EnsureSchema(ctx, d); err != nil {
				log.Warn("Schema bootstrap failed, falling back to memory repositories", zap.Error(err))
				_ = d.Close()
			} else {
				db = d
				repos = repository.NewPostgresRepositories(db)
				log.Info("DB enabled for buildstate-inspections")
			}
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory repositories", zap.Error(err))
		}
	}

	// Summary cache + event stream (redis optional)
	var kv store.KV = store.NewMemoryKV()
	var redisClient *redis.Client
	publishers := []events.Publisher{}
	if cfg.RedisEnabled {
		redisClient = commonredis.NewRedisClient(&cfg.Redis)
		if err := commonredis.Ping(ctx, redisClient); err != nil {
			log.Warn("Redis unavailable, using in-memory cache", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			kv = store.NewRedisKV(redisClient)
			publishers = append(publishers, events.NewStreamPublisher(redisClient, cfg.Events.Stream))
		}
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		if c, err := mqtt.NewClient(&cfg.MQTT.MQTTConfig); err == nil {
			mqttClient = c
			publishers = append(publishers, events.NewMQTTPublisher(mqttClient, cfg.MQTT.TopicPrefix))
		} else {
			log.Warn("MQTT connection failed, status events not published to broker", zap.Error(err))
		}
	}

	// File storage
	var files storage.FileStore
	filesDir := ""
	switch cfg.Storage.Provider {
	case "gcs":
		gcs, err := storage.NewGCSStore(ctx, cfg.Storage.GCSBucket, cfg.Storage.CredentialsJSON)
		if err != nil {
			log.Fatal("Failed to init GCS storage", zap.Error(err))
		}
		defer gcs.Close()
		files = gcs
	default:
		local, err := storage.NewLocalStore(cfg.Storage.LocalDir, cfg.Storage.PublicBaseURL)
		if err != nil {
			log.Fatal("Failed to init local storage", zap.Error(err))
		}
		files = local
		filesDir = local.Dir()
	}

	// AI summary (optional)
	var generator summary.Generator
	if cfg.Summary.APIKey != "" {
		gen, err := summary.NewGeminiGenerator(ctx, cfg.Summary.APIKey, cfg.Summary.Model)
		if err != nil {
			log.Warn("Gemini unavailable, generate-summary disabled", zap.Error(err))
		} else {
			defer gen.Close()
			generator = gen
		}
	}

	svc := service.NewInspectionService(service.Deps{
		Repos:     repos,
		Files:     files,
		Cache:     kv,
		CacheTTL:  cfg.Summary.CacheTTL,
		Generator: generator,
		Publisher: events.NewMultiPublisher(log, publishers...),
	}, log)

	router := httpapi.NewRouter(log)
	httpapi.NewInspectionHandler(svc, filesDir, cfg.Storage.PublicBaseURL, log).Register(router)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = commonredis.Close(redisClient)
	}
	if db != nil {
		_ = database.Close(db)
	}
}
