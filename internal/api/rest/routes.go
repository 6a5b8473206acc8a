package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wodoo-app/subscription-service/config"
	"github.com/wodoo-app/subscription-service/internal/api/rest/handlers"
	"github.com/wodoo-app/subscription-service/internal/api/rest/middleware"
	"github.com/wodoo-app/subscription-service/internal/repository"
	"github.com/wodoo-app/subscription-service/internal/service"
	"github.com/wodoo-app/subscription-service/pkg/logger"
)

// Services groups the service dependencies of the HTTP surface
type Services struct {
	Subscriptions service.SubscriptionService
	Notifications service.NotificationService
	Invoices      service.InvoiceService
	Webhooks      service.WebhookService
	Payments      repository.PaymentRepository
}

// SetupRouter wires middleware, handlers and routes
func SetupRouter(svcs Services, cfg *config.Config, registry *prometheus.Registry, log *logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(gin.Recovery())

	r.GET("/health", handlers.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	subscriptionHandler := handlers.NewSubscriptionHandler(svcs.Subscriptions, svcs.Payments, log)
	notificationHandler := handlers.NewNotificationHandler(svcs.Notifications, log)
	invoiceHandler := handlers.NewInvoiceHandler(svcs.Invoices, log)
	webhookHandler := handlers.NewWebhookHandler(svcs.Webhooks, cfg.Iyzico.WebhookSecret, log)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(cfg.Auth.JWTSecret, log))
	{
		subscriptions := v1.Group("/subscriptions")
		{
			subscriptions.POST("/verify", subscriptionHandler.Verify)
			subscriptions.GET("/status", subscriptionHandler.Status)
			subscriptions.POST("/cancel", subscriptionHandler.Cancel)
			subscriptions.POST("/renew", subscriptionHandler.Renew)
			subscriptions.PUT("/auto-renewal", subscriptionHandler.UpdateAutoRenewal)
		}

		v1.GET("/payments", subscriptionHandler.Payments)

		invoices := v1.Group("/invoices")
		{
			invoices.POST("", invoiceHandler.Create)
			invoices.GET("", invoiceHandler.List)
			invoices.GET("/:id", invoiceHandler.Get)
			invoices.POST("/:id/send", invoiceHandler.Send)
			invoices.POST("/:id/pdf", invoiceHandler.GeneratePDF)
		}

		notifications := v1.Group("/notifications")
		{
			notifications.GET("", notificationHandler.History)
			notifications.POST("/test", notificationHandler.SendTest)
		}
	}

	// Webhooks are authenticated by signature, not by user token
	webhooks := r.Group("/webhooks")
	{
		webhooks.POST("/iyzico", webhookHandler.HandleIyzicoWebhook)
	}

	return r
}
