package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/wodoo-app/subscription-service/config"
	"github.com/wodoo-app/subscription-service/internal/api/rest"
	"github.com/wodoo-app/subscription-service/internal/integration/fcm"
	"github.com/wodoo-app/subscription-service/internal/integration/iyzico"
	"github.com/wodoo-app/subscription-service/internal/kafka"
	"github.com/wodoo-app/subscription-service/internal/kafka/producer"
	"github.com/wodoo-app/subscription-service/internal/metrics"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/internal/repository/postgres"
	"github.com/wodoo-app/subscription-service/internal/scheduler"
	"github.com/wodoo-app/subscription-service/internal/service"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

func main() {
	// .env is optional, real deployments use the environment directly
	_ = godotenv.Load()

	log := logger.New(logger.INFO)
	log.Info("Subscription service starting up...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}
	log.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	if cfg.Auth.JWTSecret == "" {
		log.Warn("JWT secret is not set, tokens will not verify")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	subMetrics := metrics.NewSubscriptionMetrics(registry, log)
	sysMetrics := metrics.NewSystemMetrics(registry, log)
	sysMetrics.StartRecording(15 * time.Second)
	defer sysMetrics.Stop()

	// Storage
	var (
		userRepo         repository.UserRepository
		paymentRepo      repository.PaymentRepository
		notificationRepo repository.NotificationRepository
		invoiceRepo      repository.InvoiceRepository
	)
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := postgres.NewConnection(ctx, cfg.Database.GetDSN(), log)
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		log.Info("Database connection established")

		userRepo = postgres.NewUserRepository(pool, log)
		paymentRepo = postgres.NewPaymentRepository(pool, log)
		notificationRepo = postgres.NewNotificationRepository(pool, log)
		invoiceRepo = postgres.NewInvoiceRepository(pool, log)
	default:
		log.Warn("Using in-memory store, data will not survive restarts")
		userRepo = repository.NewInMemoryUserRepository(log)
		paymentRepo = repository.NewInMemoryPaymentRepository(log)
		notificationRepo = repository.NewInMemoryNotificationRepository(log)
		invoiceRepo = repository.NewInMemoryInvoiceRepository(log)
	}

	// Webhook event deduplication
	var deduper repository.EventDeduper
	if cfg.Redis.Enabled {
		redisDeduper, err := repository.NewRedisEventDeduper(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			log.Warn("Redis unavailable, falling back to in-process event dedup: %v", err)
			deduper = repository.NewInMemoryEventDeduper()
		} else {
			defer redisDeduper.Close()
			deduper = redisDeduper
		}
	} else {
		deduper = repository.NewInMemoryEventDeduper()
	}

	// Lifecycle events
	var lifecycleEvents producer.LifecycleProducer = producer.NopLifecycleProducer{}
	if cfg.Kafka.Enabled {
		syncProducer, err := kafka.NewSyncProducer(kafka.NewConfig(cfg.Kafka.Brokers), log)
		if err != nil {
			log.Error("Failed to initialize Kafka producer, continuing without event publishing: %v", err)
		} else {
			kafkaEvents := producer.NewKafkaLifecycleProducer(syncProducer, log)
			defer kafkaEvents.Close()
			lifecycleEvents = kafkaEvents
		}
	}

	// Payment gateway
	var gateway service.PaymentGateway
	if cfg.Iyzico.Simulate {
		log.Warn("Using simulated payment gateway")
		gateway = iyzico.NewSimulator(cfg.Iyzico.SimulateSuccessRate, log)
	} else {
		gateway = iyzico.NewClient(iyzico.Config{
			APIKey:    cfg.Iyzico.APIKey,
			SecretKey: cfg.Iyzico.SecretKey,
			IsSandbox: cfg.Iyzico.Sandbox,
		}, log)
	}

	// Push delivery
	var sender service.PushSender
	if cfg.FCM.Enabled && cfg.FCM.ProjectID != "" {
		sender = fcm.NewClient(fcm.Config{
			ProjectID:   cfg.FCM.ProjectID,
			AccessToken: cfg.FCM.AccessToken,
		}, log)
	} else {
		log.Warn("FCM is not configured, notifications will fail to deliver")
		sender = fcm.NewClient(fcm.Config{}, log)
	}

	// Services
	notificationService := service.NewNotificationService(userRepo, notificationRepo, sender, subMetrics, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, userRepo, log)
	subscriptionService := service.NewSubscriptionService(
		userRepo, paymentRepo, gateway, notificationService, invoiceService,
		lifecycleEvents, subMetrics, log,
	)
	sweepService := service.NewSweepService(
		userRepo, notificationRepo, gateway, subscriptionService,
		notificationService, lifecycleEvents, subMetrics, log,
	)
	webhookService := service.NewWebhookService(
		paymentRepo, deduper, subscriptionService,
		notificationService, subMetrics, log,
	)

	// Scheduled sweeps
	if cfg.Scheduler.Enabled {
		sched, err := scheduler.NewScheduler(sweepService, scheduler.Config{
			RenewalSweepSchedule: cfg.Scheduler.RenewalSweepSchedule,
			CleanupSchedule:      cfg.Scheduler.CleanupSchedule,
			Timezone:             cfg.Scheduler.Timezone,
		}, log)
		if err != nil {
			log.Fatal("Failed to create scheduler: %v", err)
		}
		if err := sched.Start(); err != nil {
			log.Fatal("Failed to start scheduler: %v", err)
		}
		defer func() {
			<-sched.Stop().Done()
		}()
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// HTTP surface
	router := rest.SetupRouter(rest.Services{
		Subscriptions: subscriptionService,
		Notifications: notificationService,
		Invoices:      invoiceService,
		Webhooks:      webhookService,
		Payments:      paymentRepo,
	}, cfg, registry, log)

	server := rest.NewServer(router, cfg, log)
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error: %v", err)
	}
	log.Info("Subscription service stopped")
}
