package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gronit/club-portal/backend-club/internal/clock"
	"github.com/gronit/club-portal/backend-club/internal/di"
	"github.com/gronit/club-portal/backend-club/internal/handler"
	"github.com/gronit/club-portal/backend-club/migrations"
	"github.com/gronit/club-portal/pkg/config"
	"github.com/gronit/club-portal/pkg/database"
	"github.com/gronit/club-portal/pkg/firebase"
	"github.com/gronit/club-portal/pkg/kafka"
	"github.com/gronit/club-portal/pkg/logger"
	"github.com/gronit/club-portal/pkg/media"
	"github.com/gronit/club-portal/pkg/middleware"
	pkgredis "github.com/gronit/club-portal/pkg/redis"
	"github.com/gronit/club-portal/pkg/telemetry"
)

const (
	startupTimeout          = 15 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultMaxConcurrentOps = 50
)

func main() {
	envFile := pflag.String("env-file", "", "path to a .env file (default: ./.env when present)")
	pflag.Parse()

	cfg, err := loadConfig(*envFile)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
		OutputPath:  "stdout",
	}); err != nil {
		logger.Fatal("failed to init logger", zap.Error(err))
	}
	defer logger.Sync()

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	if _, err := telemetry.Init(startupCtx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		logger.Warn("telemetry disabled", zap.Error(err))
	}

	db, err := database.NewPostgres(startupCtx, database.PostgresConfigFrom(cfg.Database))
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := migrations.Apply(startupCtx, db.Pool()); err != nil {
			logger.Fatal("failed to apply migrations", zap.Error(err))
		}
	}

	mongoDB, err := database.NewMongo(startupCtx, database.MongoConfigFrom(cfg.MongoDB))
	if err != nil {
		logger.Fatal("failed to connect to mongodb", zap.Error(err))
	}

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = pkgredis.NewClient(startupCtx, pkgredis.ConfigFrom(cfg.Redis))
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewProducer(startupCtx, kafka.ProducerConfigFrom(cfg.Kafka))
		if err != nil {
			logger.Fatal("failed to create kafka producer", zap.Error(err))
		}
	}

	images, err := media.NewCloudinaryStore(cfg.Cloudinary)
	if err != nil {
		logger.Fatal("failed to init image store", zap.Error(err))
	}

	directory, err := firebase.NewDirectory(startupCtx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to init firebase", zap.Error(err))
	}

	handler.SetMaxUploadBytes(cfg.Server.MaxUploadBytes)

	container, err := di.NewContainer(startupCtx, &di.ContainerConfig{
		ServiceName: cfg.App.Name,
		Cache:       cfg.Cache,
		Kafka:       cfg.Kafka,
		DB:          db,
		Mongo:       mongoDB,
		Redis:       redisClient,
		Producer:    producer,
		Images:      images,
		Directory:   directory,
		Clock:       clock.NewSystem(),
	})
	if err != nil {
		logger.Fatal("failed to build container", zap.Error(err))
	}

	auditLogger := middleware.NewAuditLogger(
		middleware.DefaultAuditConfig(middleware.NewPostgresAuditSink(db.Pool())),
	)

	opts := routerOptions{
		Auth: &middleware.FirebaseAuthConfig{
			ProjectID: cfg.Firebase.ProjectID,
			Keys:      firebase.NewKeySet("", nil),
			SkipPaths: []string{"/health", "/ready"},
			Disabled:  cfg.Firebase.AuthDisabled,
		},
		Audit:               auditLogger,
		CORSOrigins:         cfg.CORS.AllowOrigins,
		MaxConcurrentWrites: defaultMaxConcurrentOps,
	}
	if cfg.RateLimit.Enabled {
		rl := middleware.RateLimitConfigFrom(cfg.RateLimit, redisClient)
		opts.RateLimit = &rl
	}
	if cfg.Firebase.AuthDisabled {
		logger.Warn("firebase token verification is disabled")
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newRouter(container, opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("club service listening", zap.String("addr", server.Addr))
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := auditLogger.Close(); err != nil {
		logger.Error("failed to flush audit log", zap.Error(err))
	}
	if producer != nil {
		if err := producer.Close(shutdownCtx); err != nil {
			logger.Error("failed to close kafka producer", zap.Error(err))
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("failed to close redis", zap.Error(err))
		}
	}
	if err := mongoDB.Close(shutdownCtx); err != nil {
		logger.Error("failed to close mongodb", zap.Error(err))
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown telemetry", zap.Error(err))
	}
	logger.Info("server stopped")
}

func loadConfig(envFile string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if envFile != "" {
		cfg, err = config.LoadWithPath(envFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
