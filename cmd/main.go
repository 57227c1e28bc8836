package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jonboulle/clockwork"

	"github.com/shenikar/ems_dispatch_system/internal/config"
	"github.com/shenikar/ems_dispatch_system/internal/geocode"
	v1 "github.com/shenikar/ems_dispatch_system/internal/handler/http/v1"
	"github.com/shenikar/ems_dispatch_system/internal/repository"
	"github.com/shenikar/ems_dispatch_system/internal/service"
	"github.com/shenikar/ems_dispatch_system/internal/storage"
	"github.com/shenikar/ems_dispatch_system/internal/weather"
	"github.com/shenikar/ems_dispatch_system/internal/webhook"
	"github.com/shenikar/ems_dispatch_system/pkg/logger"
	"github.com/shenikar/ems_dispatch_system/pkg/postgres"
	redisclient "github.com/shenikar/ems_dispatch_system/pkg/redis"
	"github.com/sirupsen/logrus"

	_ "github.com/shenikar/ems_dispatch_system/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title EMS Dispatch System API
// @version 1.0
// @description Incident lifecycle and dispatch engine for emergency services.
// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey TrustedContext
// @in header
// @name X-User-Role
func runMigrations(cfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	migrationURL := cfg.DatabaseURL
	if !strings.HasPrefix(migrationURL, "pgx5://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(
		"file://migrations",
		migrationURL,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	log := logger.New(cfg.LogLevel)

	// Контекст для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Запуск миграций
	if err := runMigrations(cfg, log); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Подключение к PostgreSQL
	dbpool, err := postgres.NewPostgresDB(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbpool.Close()
	log.Info("Successfully connected to PostgreSQL")

	// Инициализация Redis клиента
	redisClient, err := redisclient.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Info("Successfully connected to Redis")

	// Хранилище фотографий инцидентов
	photoStore, err := storage.NewPhotoStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}
	log.Info("Successfully connected to MinIO")

	// Внешние клиенты: геокодер и погода
	geocoder := geocode.NewClient(cfg.GeocoderBaseURL, cfg.GeocoderTimeout, redisClient, log)
	weatherClient := weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherCity, cfg.WeatherTimeout)

	// Издатель и воркер событий инцидентов
	eventPublisher := webhook.NewRedisEventPublisher(redisClient)
	eventWorker := webhook.NewWorker(redisClient, log, cfg)
	eventWorker.Start(ctx)

	// Инициализация репозиториев
	incidentRepo := repository.NewIncidentRepository(dbpool, redisClient)
	registryRepo := repository.NewRegistryRepository(dbpool)
	notificationRepo := repository.NewNotificationRepository(dbpool)

	// Инициализация сервисов
	clock := clockwork.NewRealClock()
	incidentService := service.NewIncidentService(incidentRepo, notificationRepo, geocoder, photoStore, eventPublisher, clock, log)
	registryService := service.NewRegistryService(registryRepo, clock, log)
	notificationService := service.NewNotificationService(notificationRepo, clock, log)

	// Инициализация хэндлеров
	handler := v1.NewHandler(incidentService, registryService, notificationService, weatherClient, log, cfg)

	// Настройка Gin роутера
	router := gin.Default()
	handler.RegisterRoutes(router, v1.HeaderIdentityProvider{})

	// Добавление маршрута для Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Запуск HTTP-сервера
	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)

	srv := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	// Запуск сервера в горутине
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting HTTP server: %v", err)
		}
	}()
	log.Infof("HTTP server started on port %s", cfg.HTTPPort)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Received shutdown signal, shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server gracefully stopped")
}
