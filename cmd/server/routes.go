package main

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"paybridge.backend/internal/interfaces/http/handlers"
	"paybridge.backend/internal/interfaces/http/middleware"
)

const (
	serviceName    = "paybridge-backend"
	serviceVersion = "0.1.0"
)

type routeDeps struct {
	invoiceHandler      *handlers.InvoiceHandler
	paymentHandler      *handlers.PaymentHandler
	subscriptionHandler *handlers.SubscriptionHandler
	webhookHandler      *handlers.WebhookHandler
	cronHandler         *handlers.CronHandler
	webhookAuth         gin.HandlerFunc
	cronAuth            gin.HandlerFunc
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		invoices := v1.Group("/invoices")
		{
			invoices.POST("", middleware.IdempotencyMiddleware(), d.invoiceHandler.CreateInvoice)
			invoices.GET("", d.invoiceHandler.ListInvoices)
			invoices.GET("/:id", d.invoiceHandler.GetInvoice)
			invoices.POST("/:id/payment-call", d.invoiceHandler.BuildPaymentCall)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("", middleware.IdempotencyMiddleware(), d.paymentHandler.RegisterPayment)
			payments.GET("", d.paymentHandler.ListPayments)
			payments.GET("/:id", d.paymentHandler.GetPayment)
			payments.GET("/:id/events", d.paymentHandler.GetPaymentEvents)
			payments.PATCH("/:id", d.webhookAuth, d.paymentHandler.UpdatePayment)
		}

		subscriptions := v1.Group("/subscriptions")
		{
			subscriptions.POST("", middleware.IdempotencyMiddleware(), d.subscriptionHandler.CreateSubscription)
			subscriptions.GET("", d.subscriptionHandler.ListSubscriptions)
			subscriptions.GET("/:id", d.subscriptionHandler.GetSubscription)
			subscriptions.PATCH("/:id", d.subscriptionHandler.UpdateSubscription)
		}

		webhooks := v1.Group("/webhooks")
		webhooks.Use(d.webhookAuth)
		{
			webhooks.POST("/payment-status", d.webhookHandler.HandlePaymentStatus)
		}

		cron := v1.Group("/cron")
		cron.Use(d.cronAuth)
		{
			cron.GET("/subscriptions", d.cronHandler.RunSubscriptionBilling)
			cron.POST("/subscriptions", d.cronHandler.RunSubscriptionBilling)
		}
	}
}

func applyCORSMiddleware(r *gin.Engine) {
	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key, X-Request-ID, X-Webhook-Secret")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

// healthChecks maps a dependency name to its ping.
type healthChecks map[string]func(ctx context.Context) error

func registerHealthRoute(r *gin.Engine, checks healthChecks) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}
		sort.Strings(names)

		status := "ok"
		code := http.StatusOK
		deps := gin.H{}
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				deps[name] = err.Error()
				status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}

		c.JSON(code, gin.H{
			"status":       status,
			"service":      serviceName,
			"version":      serviceVersion,
			"dependencies": deps,
		})
	})
}

func registerMetricsRoute(r *gin.Engine, gatherer prometheus.Gatherer) {
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
